package driven

import "context"

// StoredMessage is one recorded message in a conversation.
type StoredMessage struct {
	// ConversationID is the counterpart the message belongs to.
	ConversationID string

	// Role is "user" for inbound messages and "assistant" for replies.
	Role string

	// Content is the message text.
	Content string
}

// MessageStore records conversation history.
//
// Every inbound message is recorded, including messages from gated
// conversations that produce no reply. History feeds the answer prompt.
type MessageStore interface {
	// Record appends a message to a conversation's history.
	Record(ctx context.Context, msg StoredMessage) error

	// Recent returns up to limit most recent messages for a conversation,
	// oldest first.
	Recent(ctx context.Context, conversationID string, limit int) ([]StoredMessage, error)

	// Close releases resources.
	Close() error
}
