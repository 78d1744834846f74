package driving

import "context"

// MessageProcessor handles inbound chat messages end to end: command
// detection, conversation gating, and answer generation. Implemented by
// the command service.
type MessageProcessor interface {
	// HandleInbound processes one inbound text message from a
	// conversation. Replies, if any, are sent through the Messenger;
	// processing errors are logged and swallowed so one bad message
	// never fails the webhook batch.
	HandleInbound(ctx context.Context, conversationID, text string)
}
