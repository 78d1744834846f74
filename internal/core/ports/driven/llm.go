package driven

import "context"

// ChatTurn is one prior exchange in a conversation, oldest first.
type ChatTurn struct {
	// Role is "user" or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// LLMService generates answers grounded in retrieved context.
// This is an optional service - when nil, the bot only handles commands
// and cannot answer ordinary questions.
type LLMService interface {
	// Answer generates a reply to question using the retrieved context
	// passages and the recent conversation history.
	Answer(ctx context.Context, question string, contexts []string, history []ChatTurn) (string, error)

	// ModelName returns the name of the chat model being used.
	ModelName() string
}
