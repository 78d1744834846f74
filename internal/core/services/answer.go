package services

import (
	"context"
	"fmt"

	"github.com/oasisprop/concierge/internal/core/domain"
	"github.com/oasisprop/concierge/internal/core/ports/driven"
	"github.com/oasisprop/concierge/internal/logger"
)

// DefaultRetrievalK is how many chunks are retrieved per question.
const DefaultRetrievalK = 4

// DefaultHistoryLimit is how many prior messages feed the prompt.
const DefaultHistoryLimit = 10

// AnswerService generates replies to ordinary (non-command) messages:
// it embeds the question, retrieves the nearest indexed chunks, and asks
// the chat model for an answer grounded in them plus recent history.
//
// Retrieval is optional - without an embedder or index the model
// answers from history alone. The chat model itself is required.
type AnswerService struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	llm      driven.LLMService
	history  driven.MessageStore

	retrievalK   int
	historyLimit int
}

// NewAnswerService creates an answer service. embedder, index and
// history may be nil; llm may not.
func NewAnswerService(
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	llm driven.LLMService,
	history driven.MessageStore,
) *AnswerService {
	return &AnswerService{
		embedder:     embedder,
		index:        index,
		llm:          llm,
		history:      history,
		retrievalK:   DefaultRetrievalK,
		historyLimit: DefaultHistoryLimit,
	}
}

// Answer produces a reply for a question from a conversation.
func (s *AnswerService) Answer(ctx context.Context, conversationID, question string) (string, error) {
	if s.llm == nil {
		return "", domain.ErrLLMUnavailable
	}

	contexts := s.retrieve(ctx, question)
	turns := s.recentTurns(ctx, conversationID)

	reply, err := s.llm.Answer(ctx, question, contexts, turns)
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	return reply, nil
}

// retrieve returns the text of the chunks nearest to the question.
// Retrieval failures degrade to an uninformed answer, never an error.
func (s *AnswerService) retrieve(ctx context.Context, question string) []string {
	if s.embedder == nil || s.index == nil {
		return nil
	}

	vector, err := s.embedder.Embed(ctx, question)
	if err != nil {
		logger.Warn("embedding question failed, answering without retrieval: %v", err)
		return nil
	}

	hits, err := s.index.Query(ctx, vector, s.retrievalK)
	if err != nil {
		logger.Warn("vector query failed, answering without retrieval: %v", err)
		return nil
	}

	contexts := make([]string, 0, len(hits))
	for _, hit := range hits {
		contexts = append(contexts, hit.Content)
	}
	return contexts
}

func (s *AnswerService) recentTurns(ctx context.Context, conversationID string) []driven.ChatTurn {
	if s.history == nil {
		return nil
	}

	messages, err := s.history.Recent(ctx, conversationID, s.historyLimit)
	if err != nil {
		logger.Warn("loading history for %s failed: %v", conversationID, err)
		return nil
	}

	turns := make([]driven.ChatTurn, 0, len(messages))
	for _, m := range messages {
		turns = append(turns, driven.ChatTurn{Role: m.Role, Content: m.Content})
	}
	return turns
}
