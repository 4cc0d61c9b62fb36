package loop

import (
	"github.com/cockroachdb/errors"
)

// Loop-level failures are not recoverable by the loop and are surfaced
// to the caller as the invocation's outcome. Use errors.Is to classify;
// cancellation surfaces the context error itself.
var (
	// ErrModelRequest indicates the model call errored or returned
	// malformed output. The loop does not retry; retry policy belongs
	// to the model client.
	ErrModelRequest = errors.New("model request failed")
	// ErrRoundLimitExceeded indicates the configured maximum number of
	// tool rounds was reached.
	ErrRoundLimitExceeded = errors.New("tool round limit exceeded")
	// ErrMessageLimitExceeded indicates the conversation grew past the
	// configured message count.
	ErrMessageLimitExceeded = errors.New("message count limit exceeded")
	// ErrContentSizeExceeded indicates the conversation grew past the
	// configured content size.
	ErrContentSizeExceeded = errors.New("content size limit exceeded")
	// ErrTooManyUnknownTools indicates the model kept requesting tools
	// that are not registered.
	ErrTooManyUnknownTools = errors.New("too many requests for unknown tools")
)
