package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oasisprop/concierge/internal/core/domain"
	"github.com/oasisprop/concierge/internal/core/ports/driven"
	"github.com/oasisprop/concierge/internal/logger"
)

// DefaultMessageDelay is the pause between consecutive sends.
const DefaultMessageDelay = 5 * time.Second

// DefaultMessageTemplate is used when the sheet has no template tab.
const DefaultMessageTemplate = "Hi {ClientName}, this is a default message about {ServiceName}."

// contactedDateLayout is the timestamp format written to LastContactedDate.
const contactedDateLayout = "2006-01-02 15:04:05"

// CampaignRunner executes outreach campaigns: it streams personalized
// messages to a contact sheet's rows at a governed rate, writing each
// row's status back immediately so partial progress survives a crash.
//
// A campaign is strictly sequential. Only one campaign may run at a
// time; starting a second one is rejected so row writes to a sheet
// never interleave.
type CampaignRunner struct {
	sheets       driven.SheetStore
	messenger    driven.Messenger
	businessName string
	delay        time.Duration
	location     *time.Location

	mu      sync.Mutex
	running bool

	// Overridable for tests.
	now   func() time.Time
	sleep func(time.Duration)
}

// CampaignOption configures the campaign runner.
type CampaignOption func(*CampaignRunner)

// WithMessageDelay sets the pause between consecutive sends.
func WithMessageDelay(d time.Duration) CampaignOption {
	return func(r *CampaignRunner) {
		if d > 0 {
			r.delay = d
		}
	}
}

// WithBusinessName sets the business display name substituted into
// message templates.
func WithBusinessName(name string) CampaignOption {
	return func(r *CampaignRunner) {
		if name != "" {
			r.businessName = name
		}
	}
}

// WithLocation sets the timezone used for LastContactedDate timestamps.
func WithLocation(loc *time.Location) CampaignOption {
	return func(r *CampaignRunner) {
		if loc != nil {
			r.location = loc
		}
	}
}

// NewCampaignRunner creates a campaign runner.
func NewCampaignRunner(sheets driven.SheetStore, messenger driven.Messenger, opts ...CampaignOption) *CampaignRunner {
	r := &CampaignRunner{
		sheets:       sheets,
		messenger:    messenger,
		businessName: "our team",
		delay:        DefaultMessageDelay,
		location:     time.UTC,
		now:          time.Now,
		sleep:        time.Sleep,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start launches a campaign on its own goroutine. Returns
// domain.ErrCampaignRunning when one is already in flight. The initiator
// conversation receives the summary when the run finishes.
func (r *CampaignRunner) Start(_ context.Context, sheetID, initiator string) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return domain.ErrCampaignRunning
	}
	r.running = true
	r.mu.Unlock()

	go func() {
		defer func() {
			r.mu.Lock()
			r.running = false
			r.mu.Unlock()
		}()
		// The triggering chat message's request context is cancelled as
		// soon as its webhook handler returns; a campaign outlives it by
		// minutes and runs on its own context.
		r.Run(context.Background(), sheetID, initiator)
	}()

	return nil
}

// Running reports whether a campaign is currently in flight.
func (r *CampaignRunner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Run executes a campaign synchronously and reports the summary to the
// initiator. Exposed for tests; production code goes through Start.
func (r *CampaignRunner) Run(ctx context.Context, sheetID, initiator string) domain.CampaignResult {
	logger.Info("starting outreach campaign for sheet %s, initiated by %s", sheetID, initiator)

	var result domain.CampaignResult

	template := r.loadTemplate(ctx, sheetID)

	rows, err := r.sheets.ReadRows(ctx, sheetID)
	if err != nil {
		logger.Error("campaign %s: reading contact rows failed: %v", sheetID, err)
		r.notify(ctx, initiator,
			"Failed to read contact data from the sheet. Please check the sheet ID and format.")
		return result
	}

	attempted := false
	for _, row := range rows {
		if row.AlreadyHandled() {
			result.Skipped++
			continue
		}

		if strings.TrimSpace(row.PhoneNumber) == "" {
			result.Failed++
			r.writeStatus(ctx, sheetID, row.RowIndex, domain.StatusFailedMissingPhone)
			continue
		}

		// Hard sequencing point between gateway sends, not a
		// fire-and-forget rate limiter. No delay before the first send
		// or after the last.
		if attempted {
			r.sleep(r.delay)
		}
		attempted = true

		to := normalizePhone(row.PhoneNumber)
		sendErr := r.send(ctx, to, template, row)
		if sendErr != nil {
			logger.Warn("campaign %s row %d: send to %s failed: %v", sheetID, row.RowIndex, to, sendErr)
			result.Failed++
			r.writeStatus(ctx, sheetID, row.RowIndex, domain.StatusFailedAPI)
		} else {
			result.Sent++
			r.writeStatus(ctx, sheetID, row.RowIndex, domain.StatusSent)
			r.writeContactedDate(ctx, sheetID, row.RowIndex)
		}
	}

	summary := result.Summary(sheetID)
	r.notify(ctx, initiator, summary)
	logger.Info("campaign %s finished: sent=%d failed=%d skipped=%d",
		sheetID, result.Sent, result.Failed, result.Skipped)
	return result
}

// send delivers one personalized message, interactive when the template
// has a usable button message, plain text otherwise.
func (r *CampaignRunner) send(ctx context.Context, to string, template domain.MessageTemplate, row domain.CampaignRow) error {
	if template.Interactive != nil {
		return r.messenger.SendInteractive(ctx, to, personalizeInteractive(*template.Interactive, row, r.businessName))
	}
	return r.messenger.SendText(ctx, to, renderTemplate(template.Text, row, r.businessName))
}

// loadTemplate fetches the sheet's message template, falling back to the
// default text when the template tab is missing or unreadable. An
// interactive template with no valid buttons degrades to its text form.
func (r *CampaignRunner) loadTemplate(ctx context.Context, sheetID string) domain.MessageTemplate {
	template, err := r.sheets.ReadMessageTemplate(ctx, sheetID)
	if err != nil {
		logger.Warn("campaign %s: reading message template failed, using default: %v", sheetID, err)
		template = domain.MessageTemplate{}
	}
	if template.Interactive != nil && len(template.Interactive.Buttons) == 0 {
		logger.Warn("campaign %s: interactive template has no buttons, using text template", sheetID)
		template.Interactive = nil
	}
	if template.Interactive == nil && strings.TrimSpace(template.Text) == "" {
		template.Text = DefaultMessageTemplate
	}
	return template
}

// writeStatus writes a row's status back immediately. A failed write is
// logged but never aborts the rest of the campaign.
func (r *CampaignRunner) writeStatus(ctx context.Context, sheetID string, rowIndex int, status string) {
	if err := r.sheets.WriteRowStatus(ctx, sheetID, rowIndex, status); err != nil {
		logger.Error("campaign %s row %d: writing status %q failed: %v", sheetID, rowIndex, status, err)
	}
}

func (r *CampaignRunner) writeContactedDate(ctx context.Context, sheetID string, rowIndex int) {
	timestamp := r.now().In(r.location).Format(contactedDateLayout)
	err := r.sheets.WriteRowContactedDate(ctx, sheetID, rowIndex, timestamp)
	if err == nil {
		return
	}
	if errors.Is(err, domain.ErrNotFound) {
		// Sheet has no LastContactedDate column.
		return
	}
	logger.Error("campaign %s row %d: writing contacted date failed: %v", sheetID, rowIndex, err)
}

func (r *CampaignRunner) notify(ctx context.Context, to, text string) {
	if err := r.messenger.SendText(ctx, to, text); err != nil {
		logger.Error("campaign notification to %s failed: %v", to, err)
	}
}

// renderTemplate substitutes the row's placeholders into the template.
func renderTemplate(template string, row domain.CampaignRow, businessName string) string {
	return placeholderReplacer(row, businessName).Replace(template)
}

// personalizeInteractive substitutes the row's placeholders into the
// header, body and footer. Buttons are sent verbatim.
func personalizeInteractive(msg domain.InteractiveMessage, row domain.CampaignRow, businessName string) domain.InteractiveMessage {
	replacer := placeholderReplacer(row, businessName)
	msg.Header = replacer.Replace(msg.Header)
	msg.Body = replacer.Replace(msg.Body)
	msg.Footer = replacer.Replace(msg.Footer)
	return msg
}

func placeholderReplacer(row domain.CampaignRow, businessName string) *strings.Replacer {
	clientName := strings.TrimSpace(row.ClientName)
	if clientName == "" {
		clientName = "Valued Customer"
	}
	service := strings.TrimSpace(row.InterestedService)
	if service == "" {
		service = "our services"
	}

	return strings.NewReplacer(
		"{ClientName}", clientName,
		"{ServiceName}", service,
		"{BusinessName}", businessName,
	)
}

// normalizePhone appends the WhatsApp endpoint suffix when absent.
func normalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if strings.Contains(phone, "@s.whatsapp.net") {
		return phone
	}
	return phone + "@s.whatsapp.net"
}
