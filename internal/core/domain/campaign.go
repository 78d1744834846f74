package domain

import (
	"fmt"
	"strings"
)

// Message statuses the campaign runner writes back to the contact sheet.
const (
	// StatusSent marks a successfully delivered message.
	StatusSent = "Sent"

	// StatusFailedAPI marks a delivery attempt the messaging API rejected.
	StatusFailedAPI = "Failed - API Error"

	// StatusFailedMissingPhone marks a row with a blank phone number.
	StatusFailedMissingPhone = "Failed - Missing PhoneNumber"
)

// handledStatuses are the statuses that mark a row as already processed.
// "Replied", "Completed" and "Success" are written by other tools working
// on the same sheet; the runner honours them but never produces them.
var handledStatuses = map[string]struct{}{
	"sent":      {},
	"replied":   {},
	"completed": {},
	"success":   {},
}

// CampaignRow is one contact-sheet row. Rows are read, mutated after each
// send attempt, and written back immediately; they are not retained in
// memory beyond a single campaign run.
type CampaignRow struct {
	// RowIndex is the 1-based row number in the sheet, used for write-back.
	RowIndex int

	// PhoneNumber is the destination number. May be blank.
	PhoneNumber string

	// ClientName personalises the message template.
	ClientName string

	// InterestedService personalises the message template.
	InterestedService string

	// MessageStatus is the current per-row delivery status.
	MessageStatus string

	// LastContactedDate is the timestamp of the last send attempt.
	// Only written back when the sheet has a LastContactedDate column.
	LastContactedDate string
}

// AlreadyHandled reports whether the row's status marks it as processed.
// The comparison is case-insensitive so "sent", "Sent" and "SENT" all
// count, which makes repeated runs over the same sheet idempotent.
func (r CampaignRow) AlreadyHandled() bool {
	status := strings.ToLower(strings.TrimSpace(r.MessageStatus))
	_, ok := handledStatuses[status]
	return ok
}

// CampaignResult accumulates counts for a single campaign run.
type CampaignResult struct {
	Sent    int
	Failed  int
	Skipped int
}

// Summary renders the completion message delivered to the conversation
// that started the campaign.
func (r CampaignResult) Summary(sheetID string) string {
	return fmt.Sprintf(
		"Outreach campaign from Sheet ID %s completed.\n"+
			"Successfully Sent: %d\n"+
			"Failed to Send: %d\n"+
			"Skipped (already processed or no phone number): %d",
		sheetID, r.Sent, r.Failed, r.Skipped)
}
