// Package store provides transcript persistence for completed loop
// invocations. The loop appends the run's messages after a successful
// run; it never reads the store mid-run.
package store

import (
	"context"

	"github.com/effective-security/xlog"
	"github.com/ostraca-ai/agentloop/pkg/chat"
)

var logger = xlog.NewPackageLogger("github.com/ostraca-ai/agentloop", "store")

// MessageStore persists conversation transcripts by conversation ID.
type MessageStore interface {
	// Messages returns the stored transcript, in append order.
	Messages(ctx context.Context, conversationID string) ([]chat.Message, error)
	// Add appends messages to the transcript.
	Add(ctx context.Context, conversationID string, messages ...chat.Message) error
	// Reset removes the transcript.
	Reset(ctx context.Context, conversationID string) error
}
