package loop

import (
	"github.com/ostraca-ai/agentloop/store"
)

// Defaults for the loop safeguards.
const (
	// DefaultMaxMessages bounds the conversation length per invocation.
	DefaultMaxMessages = 100
	// DefaultMaxContentSize bounds the content bytes sent to the model.
	DefaultMaxContentSize = uint64(256 * 1024)
	// DefaultMaxConsecutiveUnknown bounds repeated requests for
	// unregistered tools before the loop gives up.
	DefaultMaxConsecutiveUnknown = 3
)

// Option is a function that can be used to modify the loop Config.
type Option func(*Config)

// Config holds the per-invocation configuration of the loop.
type Config struct {
	// MaxToolRounds bounds repeated tool-call/response cycles to prevent
	// unbounded loops against a misbehaving model. Zero means unbounded.
	MaxToolRounds int

	// MaxMessages bounds the conversation length per invocation.
	MaxMessages int

	// MaxContentSize bounds the content bytes sent to the model.
	MaxContentSize uint64

	// MaxConcurrency bounds concurrent tool invocations within a batch.
	// Zero means unbounded.
	MaxConcurrency int

	// CallbackHandler receives loop, model and tool events.
	CallbackHandler Callback

	// Store, when set, receives the run's messages after a successful
	// invocation. The loop never reads it mid-run.
	Store store.MessageStore

	// ConversationID identifies the transcript in the Store.
	// Defaults to the run ID.
	ConversationID string

	// SkipMessageHistory skips persisting the run's messages to the Store.
	SkipMessageHistory bool
}

// NewConfig creates a Config with defaults applied.
func NewConfig(opts ...Option) *Config {
	cfg := &Config{
		MaxMessages:    DefaultMaxMessages,
		MaxContentSize: DefaultMaxContentSize,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Apply returns a copy of the Config with the given options applied.
func (c *Config) Apply(opts ...Option) *Config {
	cfg := *c
	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithMaxToolRounds bounds the model/tool cycle count.
func WithMaxToolRounds(rounds int) Option {
	return func(o *Config) {
		o.MaxToolRounds = rounds
	}
}

// WithMaxMessages bounds the conversation length per invocation.
func WithMaxMessages(count int) Option {
	return func(o *Config) {
		o.MaxMessages = count
	}
}

// WithMaxContentSize bounds the content bytes sent to the model.
func WithMaxContentSize(size uint64) Option {
	return func(o *Config) {
		o.MaxContentSize = size
	}
}

// WithMaxConcurrency bounds concurrent tool invocations within a batch.
func WithMaxConcurrency(n int) Option {
	return func(o *Config) {
		o.MaxConcurrency = n
	}
}

// WithCallback allows setting a custom Callback Handler.
func WithCallback(callbackHandler Callback) Option {
	return func(o *Config) {
		o.CallbackHandler = callbackHandler
	}
}

// WithStore sets the transcript store.
func WithStore(st store.MessageStore) Option {
	return func(o *Config) {
		o.Store = st
	}
}

// WithConversationID sets the transcript identifier used by the Store.
func WithConversationID(id string) Option {
	return func(o *Config) {
		o.ConversationID = id
	}
}

// WithSkipMessageHistory skips persisting the run's messages to the Store.
func WithSkipMessageHistory(skip bool) Option {
	return func(o *Config) {
		o.SkipMessageHistory = skip
	}
}
