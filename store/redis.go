package store

import (
	"context"
	"encoding/json"
	"path"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/ostraca-ai/agentloop/pkg/chat"
	"github.com/redis/go-redis/v9"
)

// The redis store implements the MessageStore interface using Redis as
// the backend. Transcripts are stored as JSON lists under
// `/<prefix>/transcripts/<conversationID>`.

// maxStoredMessages bounds the transcript length kept per conversation.
const maxStoredMessages = 200

type redisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a MessageStore backed by the given Redis client.
func NewRedisStore(client *redis.Client, prefix string) MessageStore {
	return &redisStore{
		client: client,
		prefix: prefix,
	}
}

func (m *redisStore) key(conversationID string) string {
	return path.Join(m.prefix, "transcripts", conversationID)
}

func (m *redisStore) Messages(ctx context.Context, conversationID string) ([]chat.Message, error) {
	data, err := m.client.LRange(ctx, m.key(conversationID), 0, -1).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load transcript")
	}

	messages := make([]chat.Message, 0, len(data))
	for _, item := range data {
		var msg chat.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			logger.ContextKV(ctx, xlog.ERROR, "reason", "unmarshal message", "err", err.Error())
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (m *redisStore) Add(ctx context.Context, conversationID string, messages ...chat.Message) error {
	if len(messages) == 0 {
		return nil
	}

	items := make([]any, 0, len(messages))
	for _, msg := range messages {
		data, err := json.Marshal(msg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal message")
		}
		items = append(items, data)
	}

	key := m.key(conversationID)
	pipe := m.client.Pipeline()
	pipe.RPush(ctx, key, items...)
	pipe.LTrim(ctx, key, -maxStoredMessages, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "failed to store transcript")
	}
	return nil
}

func (m *redisStore) Reset(ctx context.Context, conversationID string) error {
	if err := m.client.Del(ctx, m.key(conversationID)).Err(); err != nil {
		return errors.Wrap(err, "failed to reset transcript")
	}
	return nil
}
