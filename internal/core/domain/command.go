package domain

import "strings"

// CommandKind classifies an inbound chat message.
type CommandKind int

const (
	// CmdNone means the text is not a command and should flow to the
	// ordinary answer path, subject to the conversation gate.
	CmdNone CommandKind = iota

	// CmdPauseAll pauses the bot for every conversation.
	CmdPauseAll

	// CmdResumeAll resumes the bot globally and clears all per-conversation
	// pauses.
	CmdResumeAll

	// CmdPauseConversation pauses one conversation.
	CmdPauseConversation

	// CmdResumeConversation resumes one conversation.
	CmdResumeConversation

	// CmdStartOutreach starts an outreach campaign.
	CmdStartOutreach

	// CmdInvalid is a recognised command with a malformed argument.
	// ErrorReply carries the corrective message for the sender.
	CmdInvalid
)

// Command is a parsed administrative chat command.
type Command struct {
	Kind CommandKind

	// Target is the conversation id argument of pause/resume commands.
	// It is taken verbatim from the original text: keywords match
	// case-insensitively but ids compare case-sensitively.
	Target string

	// SheetSpecifier is the optional sheet id or URL of an outreach
	// command. Empty means "use the configured default".
	SheetSpecifier string

	// ErrorReply is the corrective message for CmdInvalid.
	ErrorReply string
}

// Command keyword prefixes, matched case-insensitively.
const (
	prefixPause    = "bot pause"
	prefixResume   = "bot resume"
	prefixOutreach = "bot start outreach"
)

// ParseCommand matches raw inbound text against the command grammar.
// Anything that does not start with a recognised keyword sequence is
// CmdNone and falls through to the ordinary answer path.
func ParseCommand(text string) Command {
	trimmed := strings.TrimSpace(text)
	lowered := strings.ToLower(trimmed)

	switch lowered {
	case "bot pause all":
		return Command{Kind: CmdPauseAll}
	case "bot resume all":
		return Command{Kind: CmdResumeAll}
	}

	if rest, ok := cutPrefixFold(trimmed, lowered, prefixOutreach); ok {
		return Command{Kind: CmdStartOutreach, SheetSpecifier: rest}
	}

	if rest, ok := cutPrefixFold(trimmed, lowered, prefixPause); ok {
		if rest == "" {
			return Command{
				Kind:       CmdInvalid,
				ErrorReply: "Invalid command format. Use: bot pause <target_user_id>",
			}
		}
		return Command{Kind: CmdPauseConversation, Target: rest}
	}

	if rest, ok := cutPrefixFold(trimmed, lowered, prefixResume); ok {
		if rest == "" {
			return Command{
				Kind:       CmdInvalid,
				ErrorReply: "Invalid command format. Use: bot resume <target_user_id>",
			}
		}
		return Command{Kind: CmdResumeConversation, Target: rest}
	}

	return Command{Kind: CmdNone}
}

// cutPrefixFold strips a case-insensitive keyword prefix and returns the
// remaining argument text from the original (case-preserving) string.
// The prefix only matches on a word boundary, so "bot pauses" is not a
// pause command.
func cutPrefixFold(original, lowered, prefix string) (string, bool) {
	if lowered == prefix {
		return "", true
	}
	if !strings.HasPrefix(lowered, prefix+" ") {
		return "", false
	}
	return strings.TrimSpace(original[len(prefix):]), true
}
