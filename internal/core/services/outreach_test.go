package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oasisprop/concierge/internal/core/domain"
)

// --- Mock implementations for campaign testing ---

// outreachMockSheet implements driven.SheetStore.
type outreachMockSheet struct {
	mu sync.Mutex

	rows        []domain.CampaignRow
	readErr     error
	template    string
	interactive *domain.InteractiveMessage

	// noDateColumn simulates a sheet without a LastContactedDate column.
	noDateColumn bool

	statuses map[int]string // rowIndex -> last written status
	dates    map[int]string // rowIndex -> last written timestamp
	writeErr error
}

func newOutreachMockSheet(rows ...domain.CampaignRow) *outreachMockSheet {
	return &outreachMockSheet{
		rows:     rows,
		statuses: make(map[int]string),
		dates:    make(map[int]string),
	}
}

func (m *outreachMockSheet) ReadRows(_ context.Context, _ string) ([]domain.CampaignRow, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	return m.rows, nil
}

func (m *outreachMockSheet) WriteRowStatus(_ context.Context, _ string, rowIndex int, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.statuses[rowIndex] = status
	return nil
}

func (m *outreachMockSheet) WriteRowContactedDate(_ context.Context, _ string, rowIndex int, timestamp string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.noDateColumn {
		return domain.ErrNotFound
	}
	m.dates[rowIndex] = timestamp
	return nil
}

func (m *outreachMockSheet) ReadMessageTemplate(_ context.Context, _ string) (domain.MessageTemplate, error) {
	return domain.MessageTemplate{Text: m.template, Interactive: m.interactive}, nil
}

// outreachMockMessenger implements driven.Messenger, recording every send.
type outreachMockMessenger struct {
	mu           sync.Mutex
	sends        []sentMessage
	interactives []sentInteractive

	// failTo rejects sends to recipients whose address contains the value.
	failTo string
}

type sentMessage struct {
	to   string
	text string
}

type sentInteractive struct {
	to  string
	msg domain.InteractiveMessage
}

func (m *outreachMockMessenger) SendText(_ context.Context, to, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failTo != "" && strings.Contains(to, m.failTo) {
		return errors.New("gateway rejected message")
	}
	m.sends = append(m.sends, sentMessage{to: to, text: text})
	return nil
}

func (m *outreachMockMessenger) SendInteractive(_ context.Context, to string, msg domain.InteractiveMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failTo != "" && strings.Contains(to, m.failTo) {
		return errors.New("gateway rejected message")
	}
	m.interactives = append(m.interactives, sentInteractive{to: to, msg: msg})
	return nil
}

func (m *outreachMockMessenger) sentTo(to string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sends {
		if s.to == to {
			return true
		}
	}
	return false
}

func newTestRunner(sheet *outreachMockSheet, messenger *outreachMockMessenger, opts ...CampaignOption) (*CampaignRunner, *int) {
	r := NewCampaignRunner(sheet, messenger, opts...)
	sleeps := 0
	r.sleep = func(time.Duration) { sleeps++ }
	r.now = func() time.Time {
		return time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)
	}
	return r, &sleeps
}

func TestRun_MixedRows(t *testing.T) {
	sheet := newOutreachMockSheet(
		domain.CampaignRow{RowIndex: 2, PhoneNumber: "15551234567", ClientName: "Alice"},
		domain.CampaignRow{RowIndex: 3, PhoneNumber: "", ClientName: "Bob"},
		domain.CampaignRow{RowIndex: 4, PhoneNumber: "15559876543", ClientName: "Carol", MessageStatus: "Sent"},
	)
	messenger := &outreachMockMessenger{}
	runner, sleeps := newTestRunner(sheet, messenger)

	result := runner.Run(context.Background(), "sheet1", "boss@s.whatsapp.net")

	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Skipped)

	assert.Equal(t, domain.StatusSent, sheet.statuses[2])
	assert.Equal(t, domain.StatusFailedMissingPhone, sheet.statuses[3])
	_, wrote := sheet.statuses[4]
	assert.False(t, wrote, "already handled rows must not be written back")

	assert.True(t, messenger.sentTo("15551234567@s.whatsapp.net"))
	assert.False(t, messenger.sentTo("15559876543@s.whatsapp.net"))

	// A single gateway send has nothing to pace against; skipped and
	// phoneless rows don't pace either.
	assert.Equal(t, 0, *sleeps)
}

func TestRun_DelayOnlyBetweenSends(t *testing.T) {
	sheet := newOutreachMockSheet(
		domain.CampaignRow{RowIndex: 2, PhoneNumber: "15550000001"},
		domain.CampaignRow{RowIndex: 3, PhoneNumber: "15550000002"},
		domain.CampaignRow{RowIndex: 4, PhoneNumber: "15550000003"},
	)
	messenger := &outreachMockMessenger{}
	runner, sleeps := newTestRunner(sheet, messenger)

	result := runner.Run(context.Background(), "sheet1", "boss")

	// Three sends pace twice: no leading delay and no tail after the
	// final row.
	assert.Equal(t, 3, result.Sent)
	assert.Equal(t, 2, *sleeps)
}

func TestRun_SkipStatusesCaseInsensitive(t *testing.T) {
	for _, status := range []string{"sent", "SENT", "Replied", "completed", "Success", " Sent "} {
		t.Run(status, func(t *testing.T) {
			sheet := newOutreachMockSheet(
				domain.CampaignRow{RowIndex: 2, PhoneNumber: "15551234567", MessageStatus: status},
			)
			messenger := &outreachMockMessenger{}
			runner, _ := newTestRunner(sheet, messenger)

			result := runner.Run(context.Background(), "sheet1", "boss")

			assert.Equal(t, 1, result.Skipped)
			assert.Equal(t, 0, result.Sent)
		})
	}
}

func TestRun_PendingStatusIsProcessed(t *testing.T) {
	sheet := newOutreachMockSheet(
		domain.CampaignRow{RowIndex: 2, PhoneNumber: "15551234567", MessageStatus: "Pending"},
		domain.CampaignRow{RowIndex: 3, PhoneNumber: "15551234568", MessageStatus: "Failed - API Error"},
	)
	messenger := &outreachMockMessenger{}
	runner, _ := newTestRunner(sheet, messenger)

	result := runner.Run(context.Background(), "sheet1", "boss")

	// Previously failed rows are retried on the next run.
	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, 0, result.Skipped)
}

func TestRun_TemplateRendering(t *testing.T) {
	sheet := newOutreachMockSheet(
		domain.CampaignRow{RowIndex: 2, PhoneNumber: "15551234567", ClientName: "Alice", InterestedService: "2BR Apartment"},
		domain.CampaignRow{RowIndex: 3, PhoneNumber: "15551234568"},
	)
	sheet.template = "Hello {ClientName}, about {ServiceName} from {BusinessName}."
	messenger := &outreachMockMessenger{}
	runner, _ := newTestRunner(sheet, messenger, WithBusinessName("Oasis Properties"))

	runner.Run(context.Background(), "sheet1", "boss")

	require.Len(t, messenger.sends, 3) // two rows plus the summary
	assert.Equal(t, "Hello Alice, about 2BR Apartment from Oasis Properties.", messenger.sends[0].text)
	assert.Equal(t, "Hello Valued Customer, about our services from Oasis Properties.", messenger.sends[1].text)
}

func TestRun_InteractiveTemplate(t *testing.T) {
	sheet := newOutreachMockSheet(
		domain.CampaignRow{RowIndex: 2, PhoneNumber: "15551234567", ClientName: "Alice", InterestedService: "2BR Apartment"},
	)
	sheet.interactive = &domain.InteractiveMessage{
		Header: "Hello {ClientName}",
		Body:   "Interested in {ServiceName}? {BusinessName} can help.",
		Footer: "Tap an option",
		Buttons: []domain.MessageButton{
			{Title: "Tell me more", ID: "more"},
			{Title: "Not now", ID: "later"},
		},
	}
	messenger := &outreachMockMessenger{}
	runner, _ := newTestRunner(sheet, messenger, WithBusinessName("Oasis Properties"))

	result := runner.Run(context.Background(), "sheet1", "boss")

	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, domain.StatusSent, sheet.statuses[2])

	require.Len(t, messenger.interactives, 1)
	got := messenger.interactives[0]
	assert.Equal(t, "15551234567@s.whatsapp.net", got.to)
	assert.Equal(t, "Hello Alice", got.msg.Header)
	assert.Equal(t, "Interested in 2BR Apartment? Oasis Properties can help.", got.msg.Body)
	assert.Equal(t, "Tap an option", got.msg.Footer)
	assert.Equal(t, sheet.interactive.Buttons, got.msg.Buttons)

	// The completion summary is still a plain text message.
	require.Len(t, messenger.sends, 1)
	assert.Equal(t, "boss", messenger.sends[0].to)
}

func TestRun_InteractiveWithoutButtonsFallsBackToText(t *testing.T) {
	sheet := newOutreachMockSheet(
		domain.CampaignRow{RowIndex: 2, PhoneNumber: "15551234567", ClientName: "Alice"},
	)
	sheet.interactive = &domain.InteractiveMessage{Body: "no buttons here"}
	messenger := &outreachMockMessenger{}
	runner, _ := newTestRunner(sheet, messenger)

	result := runner.Run(context.Background(), "sheet1", "boss")

	assert.Equal(t, 1, result.Sent)
	assert.Empty(t, messenger.interactives)
	require.NotEmpty(t, messenger.sends)
	assert.Equal(t, "Hi Alice, this is a default message about our services.", messenger.sends[0].text)
}

func TestRun_DefaultTemplateWhenTabMissing(t *testing.T) {
	sheet := newOutreachMockSheet(
		domain.CampaignRow{RowIndex: 2, PhoneNumber: "15551234567", ClientName: "Alice"},
	)
	messenger := &outreachMockMessenger{}
	runner, _ := newTestRunner(sheet, messenger)

	runner.Run(context.Background(), "sheet1", "boss")

	require.NotEmpty(t, messenger.sends)
	assert.Equal(t, "Hi Alice, this is a default message about our services.", messenger.sends[0].text)
}

func TestRun_SendFailureWritesAPIErrorAndContinues(t *testing.T) {
	sheet := newOutreachMockSheet(
		domain.CampaignRow{RowIndex: 2, PhoneNumber: "15550000001"},
		domain.CampaignRow{RowIndex: 3, PhoneNumber: "15550000002"},
	)
	messenger := &outreachMockMessenger{failTo: "15550000001"}
	runner, _ := newTestRunner(sheet, messenger)

	result := runner.Run(context.Background(), "sheet1", "boss")

	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, domain.StatusFailedAPI, sheet.statuses[2])
	assert.Equal(t, domain.StatusSent, sheet.statuses[3])
}

func TestRun_StatusWriteFailureDoesNotAbort(t *testing.T) {
	sheet := newOutreachMockSheet(
		domain.CampaignRow{RowIndex: 2, PhoneNumber: "15550000001"},
		domain.CampaignRow{RowIndex: 3, PhoneNumber: "15550000002"},
	)
	sheet.writeErr = errors.New("quota exceeded")
	messenger := &outreachMockMessenger{}
	runner, _ := newTestRunner(sheet, messenger)

	result := runner.Run(context.Background(), "sheet1", "boss")

	assert.Equal(t, 2, result.Sent, "a failed write-back must not stop delivery")
}

func TestRun_ContactedDateWritten(t *testing.T) {
	sheet := newOutreachMockSheet(
		domain.CampaignRow{RowIndex: 2, PhoneNumber: "15550000001"},
	)
	messenger := &outreachMockMessenger{}
	runner, _ := newTestRunner(sheet, messenger)

	runner.Run(context.Background(), "sheet1", "boss")

	assert.Equal(t, "2025-03-14 10:30:00", sheet.dates[2])
}

func TestRun_MissingDateColumnIgnored(t *testing.T) {
	sheet := newOutreachMockSheet(
		domain.CampaignRow{RowIndex: 2, PhoneNumber: "15550000001"},
	)
	sheet.noDateColumn = true
	messenger := &outreachMockMessenger{}
	runner, _ := newTestRunner(sheet, messenger)

	result := runner.Run(context.Background(), "sheet1", "boss")

	assert.Equal(t, 1, result.Sent, "a sheet without the date column still delivers")
	assert.Empty(t, sheet.dates)
}

func TestRun_ReadFailureNotifiesInitiator(t *testing.T) {
	sheet := newOutreachMockSheet()
	sheet.readErr = errors.New("permission denied")
	messenger := &outreachMockMessenger{}
	runner, _ := newTestRunner(sheet, messenger)

	result := runner.Run(context.Background(), "sheet1", "boss")

	assert.Equal(t, domain.CampaignResult{}, result)
	require.Len(t, messenger.sends, 1)
	assert.Equal(t, "boss", messenger.sends[0].to)
	assert.Equal(t,
		"Failed to read contact data from the sheet. Please check the sheet ID and format.",
		messenger.sends[0].text)
}

func TestRun_SummaryDeliveredToInitiator(t *testing.T) {
	sheet := newOutreachMockSheet(
		domain.CampaignRow{RowIndex: 2, PhoneNumber: "15550000001"},
		domain.CampaignRow{RowIndex: 3, MessageStatus: "Sent"},
	)
	messenger := &outreachMockMessenger{}
	runner, _ := newTestRunner(sheet, messenger)

	runner.Run(context.Background(), "sheet1", "boss@s.whatsapp.net")

	require.NotEmpty(t, messenger.sends)
	last := messenger.sends[len(messenger.sends)-1]
	assert.Equal(t, "boss@s.whatsapp.net", last.to)
	assert.Equal(t,
		"Outreach campaign from Sheet ID sheet1 completed.\n"+
			"Successfully Sent: 1\n"+
			"Failed to Send: 0\n"+
			"Skipped (already processed or no phone number): 1",
		last.text)
}

func TestStart_RejectsConcurrentCampaign(t *testing.T) {
	block := make(chan struct{})
	messenger := &outreachMockMessenger{}

	runner := NewCampaignRunner(&blockingSheet{release: block}, messenger)
	runner.sleep = func(time.Duration) {}

	require.NoError(t, runner.Start(context.Background(), "sheet1", "boss"))

	err := runner.Start(context.Background(), "sheet2", "boss")
	assert.ErrorIs(t, err, domain.ErrCampaignRunning)

	close(block)
	waitFor(t, func() bool { return !runner.Running() })

	// With the first run finished, a new campaign may start.
	assert.NoError(t, runner.Start(context.Background(), "sheet3", "boss"))
	waitFor(t, func() bool { return !runner.Running() })
}

func TestStart_OutlivesSubmittingContext(t *testing.T) {
	release := make(chan struct{})
	sheet := &ctxHonoringSheet{
		outreachMockSheet: newOutreachMockSheet(
			domain.CampaignRow{RowIndex: 2, PhoneNumber: "15551234567", ClientName: "Alice"},
		),
		release: release,
	}
	messenger := &ctxHonoringMessenger{outreachMockMessenger: &outreachMockMessenger{}}

	runner := NewCampaignRunner(sheet, messenger)
	runner.sleep = func(time.Duration) {}

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, runner.Start(ctx, "sheet1", "boss"))

	// The chat webhook handler returns, and net/http cancels its request
	// context, long before the campaign touches the sheet.
	cancel()
	close(release)
	waitFor(t, func() bool { return !runner.Running() })

	assert.True(t, messenger.sentTo("boss"), "summary must reach the initiator")
	assert.True(t, messenger.sentTo("15551234567@s.whatsapp.net"),
		"sends must not die with the submitting context")
}

// ctxHonoringSheet fails reads once its call context is cancelled, the
// way the Sheets API client does, and parks the first read until
// released so the test can order the cancellation deterministically.
type ctxHonoringSheet struct {
	*outreachMockSheet
	release chan struct{}
}

func (s *ctxHonoringSheet) ReadRows(ctx context.Context, sheetID string) ([]domain.CampaignRow, error) {
	<-s.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.outreachMockSheet.ReadRows(ctx, sheetID)
}

// ctxHonoringMessenger fails sends once its call context is cancelled.
type ctxHonoringMessenger struct {
	*outreachMockMessenger
}

func (m *ctxHonoringMessenger) SendText(ctx context.Context, to, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.outreachMockMessenger.SendText(ctx, to, text)
}

func (m *ctxHonoringMessenger) SendInteractive(ctx context.Context, to string, msg domain.InteractiveMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.outreachMockMessenger.SendInteractive(ctx, to, msg)
}

// blockingSheet parks ReadRows until released, holding a campaign open.
type blockingSheet struct {
	release chan struct{}
}

func (b *blockingSheet) ReadRows(_ context.Context, _ string) ([]domain.CampaignRow, error) {
	<-b.release
	return nil, nil
}

func (b *blockingSheet) WriteRowStatus(context.Context, string, int, string) error { return nil }

func (b *blockingSheet) WriteRowContactedDate(context.Context, string, int, string) error {
	return nil
}

func (b *blockingSheet) ReadMessageTemplate(context.Context, string) (domain.MessageTemplate, error) {
	return domain.MessageTemplate{}, nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatal("condition not reached in time")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"15551234567", "15551234567@s.whatsapp.net"},
		{" 15551234567 ", "15551234567@s.whatsapp.net"},
		{"15551234567@s.whatsapp.net", "15551234567@s.whatsapp.net"},
	}
	for _, tt := range tests {
		if got := normalizePhone(tt.in); got != tt.want {
			t.Errorf("normalizePhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
