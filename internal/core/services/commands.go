package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/oasisprop/concierge/internal/core/domain"
	"github.com/oasisprop/concierge/internal/core/ports/driven"
	"github.com/oasisprop/concierge/internal/core/ports/driving"
	"github.com/oasisprop/concierge/internal/logger"
)

// Ensure CommandService implements the interface.
var _ driving.MessageProcessor = (*CommandService)(nil)

// CommandService routes inbound chat messages. Administrative commands
// are detected and executed BEFORE the conversation gate is consulted,
// so an admin can always resume a globally paused bot. Ordinary
// messages that fail command classification are gated, then answered.
type CommandService struct {
	gate      *ConversationGate
	campaigns *CampaignRunner
	answers   *AnswerService
	messenger driven.Messenger
	history   driven.MessageStore

	defaultSheetID string
}

// NewCommandService creates the message processor.
// history may be nil when no message store is configured.
func NewCommandService(
	gate *ConversationGate,
	campaigns *CampaignRunner,
	answers *AnswerService,
	messenger driven.Messenger,
	history driven.MessageStore,
	defaultSheetID string,
) *CommandService {
	return &CommandService{
		gate:           gate,
		campaigns:      campaigns,
		answers:        answers,
		messenger:      messenger,
		history:        history,
		defaultSheetID: defaultSheetID,
	}
}

// HandleInbound processes one inbound message. Every message is
// recorded, including ones from gated conversations that produce no
// reply.
func (s *CommandService) HandleInbound(ctx context.Context, conversationID, text string) {
	s.record(ctx, conversationID, "user", text)

	cmd := domain.ParseCommand(text)
	switch cmd.Kind {
	case domain.CmdPauseAll:
		s.gate.PauseAll()
		logger.Info("bot globally paused by %s", conversationID)
		s.reply(ctx, conversationID, "Bot is now globally paused.")

	case domain.CmdResumeAll:
		s.gate.ResumeAll()
		logger.Info("bot globally resumed by %s, specific pauses cleared", conversationID)
		s.reply(ctx, conversationID,
			"Bot is now globally resumed. All specific conversation pauses have been cleared.")

	case domain.CmdPauseConversation:
		s.gate.PauseConversation(cmd.Target)
		logger.Info("bot paused for %s by %s", cmd.Target, conversationID)
		s.reply(ctx, conversationID, "Bot interactions will be paused for: "+cmd.Target)

	case domain.CmdResumeConversation:
		s.gate.ResumeConversation(cmd.Target)
		logger.Info("bot resumed for %s by %s", cmd.Target, conversationID)
		s.reply(ctx, conversationID, "Bot interactions will be resumed for: "+cmd.Target)

	case domain.CmdStartOutreach:
		s.startOutreach(ctx, conversationID, cmd.SheetSpecifier)

	case domain.CmdInvalid:
		logger.Info("invalid command from %s: %q", conversationID, text)
		s.reply(ctx, conversationID, cmd.ErrorReply)

	case domain.CmdNone:
		s.answerOrdinary(ctx, conversationID, text)
	}
}

// startOutreach resolves the sheet specifier and launches a campaign.
func (s *CommandService) startOutreach(ctx context.Context, conversationID, specifier string) {
	if specifier == "" {
		specifier = s.defaultSheetID
	}
	if specifier == "" {
		logger.Warn("outreach command by %s failed: no sheet specifier", conversationID)
		s.reply(ctx, conversationID,
			"Error: No Google Sheet ID was provided or found in the default environment variable.")
		return
	}

	sheetID := domain.ExtractSheetID(specifier)
	if sheetID == "" {
		s.reply(ctx, conversationID,
			fmt.Sprintf("Error: The provided Google Sheet specifier '%s' is invalid.", specifier))
		return
	}

	if err := s.campaigns.Start(ctx, sheetID, conversationID); err != nil {
		if errors.Is(err, domain.ErrCampaignRunning) {
			s.reply(ctx, conversationID,
				"An outreach campaign is already running. Please wait for it to complete.")
			return
		}
		logger.Error("starting campaign %s failed: %v", sheetID, err)
		s.reply(ctx, conversationID, "Error: Could not start the outreach campaign.")
		return
	}

	logger.Info("outreach campaign submitted for %s with sheet %s", conversationID, sheetID)
	s.reply(ctx, conversationID, fmt.Sprintf(
		"Outreach campaign started using Sheet ID: %s. You will be notified upon completion.", sheetID))
}

// answerOrdinary runs the gated RAG answer path.
func (s *CommandService) answerOrdinary(ctx context.Context, conversationID, text string) {
	if !s.gate.ShouldRespond(conversationID) {
		// Recorded above, deliberately unanswered.
		logger.Info("conversation %s is paused, ignoring message", conversationID)
		return
	}
	if s.answers == nil {
		logger.Debug("no answer service configured, ignoring message from %s", conversationID)
		return
	}

	reply, err := s.answers.Answer(ctx, conversationID, text)
	if err != nil {
		logger.Error("answering %s failed: %v", conversationID, err)
		return
	}

	s.reply(ctx, conversationID, reply)
	s.record(ctx, conversationID, "assistant", reply)
}

func (s *CommandService) reply(ctx context.Context, to, text string) {
	if err := s.messenger.SendText(ctx, to, text); err != nil {
		logger.Error("reply to %s failed: %v", to, err)
	}
}

func (s *CommandService) record(ctx context.Context, conversationID, role, content string) {
	if s.history == nil {
		return
	}
	msg := driven.StoredMessage{ConversationID: conversationID, Role: role, Content: content}
	if err := s.history.Record(ctx, msg); err != nil {
		logger.Warn("recording message for %s failed: %v", conversationID, err)
	}
}
