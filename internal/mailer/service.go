package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/systemsmatic/backend/internal/appointments"
	"github.com/systemsmatic/backend/internal/contacts"
	"github.com/systemsmatic/backend/internal/observability/metrics"
	"github.com/systemsmatic/backend/internal/quotes"
	"github.com/systemsmatic/backend/internal/tokens"
	"github.com/systemsmatic/backend/pkg/logging"
)

// Config holds what the mailer needs beyond a sender: where action links
// point and who receives admin notifications.
type Config struct {
	PublicBaseURL string
	AdminEmail    string
}

// Service composes and sends every transactional email in the system. Admin
// notifications embed single-use action links; the token issuance lives here
// because only the notification layer knows which links an email carries.
type Service struct {
	sender  EmailSender
	logs    LogStore
	issuer  *tokens.Issuer
	cfg     Config
	metrics *metrics.Metrics
	logger  *logging.Logger
}

// NewService wires the mailer.
func NewService(sender EmailSender, logs LogStore, issuer *tokens.Issuer, cfg Config, m *metrics.Metrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if logs == nil {
		logs = NewInMemoryLogStore()
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	return &Service{
		sender:  sender,
		logs:    logs,
		issuer:  issuer,
		cfg:     cfg,
		metrics: m,
		logger:  logger,
	}
}

// actionURL issues a fresh single-use token and builds the one-click link.
func (s *Service) actionURL(ctx context.Context, typ tokens.EntityType, entityID, action string) (string, error) {
	tok, err := s.issuer.Issue(ctx, typ, entityID, action)
	if err != nil {
		return "", err
	}
	s.metrics.ObserveTokenIssued(string(typ), action)
	return fmt.Sprintf("%s/email-actions/%ss/%s/%s?token=%s", s.cfg.PublicBaseURL, typ, entityID, action, tok), nil
}

// send renders the template, delivers the message and records the outcome in
// the email log.
func (s *Service) send(ctx context.Context, to, toName, tpl, subject string, data templateData) error {
	html, err := render(tpl, data)
	if err != nil {
		return err
	}

	msg := EmailMessage{To: to, ToName: toName, Subject: subject, HTML: html}
	sendErr := s.sender.Send(ctx, msg)

	entry := &EmailLog{To: to, Subject: subject, Template: tpl}
	if sendErr != nil {
		entry.Status = LogStatusFailed
		errStr := sendErr.Error()
		entry.Error = &errStr
		s.metrics.ObserveEmail(tpl, "failed")
	} else {
		now := time.Now().UTC()
		entry.Status = LogStatusSent
		entry.SentAt = &now
		s.metrics.ObserveEmail(tpl, "sent")
	}
	if err := s.logs.Record(ctx, entry); err != nil {
		s.logger.Error("email log record failed", "template", tpl, "error", err)
	}
	return sendErr
}

// AppointmentReceived notifies the admin of a new booking request. The email
// carries accept, reject and reschedule links, each backed by its own token.
func (s *Service) AppointmentReceived(ctx context.Context, a *appointments.Appointment, c *contacts.Contact) error {
	acceptURL, err := s.actionURL(ctx, tokens.EntityAppointment, a.ID, tokens.ActionAccept)
	if err != nil {
		return err
	}
	rejectURL, err := s.actionURL(ctx, tokens.EntityAppointment, a.ID, tokens.ActionReject)
	if err != nil {
		return err
	}
	rescheduleURL, err := s.actionURL(ctx, tokens.EntityAppointment, a.ID, tokens.ActionReschedule)
	if err != nil {
		return err
	}

	data := templateData{
		ClientName:    c.FullName(),
		ClientEmail:   c.Email,
		ClientPhone:   c.Phone,
		Reason:        reasonLabel(a),
		Message:       a.Message,
		AcceptURL:     acceptURL,
		RejectURL:     rejectURL,
		RescheduleURL: rescheduleURL,
	}
	subject := fmt.Sprintf(subjects[TplAppointmentAdminNew], c.FullName())
	return s.send(ctx, s.cfg.AdminEmail, "", TplAppointmentAdminNew, subject, data)
}

// AppointmentConfirmed tells the client their appointment is booked.
func (s *Service) AppointmentConfirmed(ctx context.Context, a *appointments.Appointment, c *contacts.Contact) error {
	if c == nil {
		return fmt.Errorf("mailer: no contact for appointment %s", a.ID)
	}
	data := templateData{ClientName: c.FullName()}
	if a.ScheduledAt != nil {
		data.ScheduledAt = formatDateTime(*a.ScheduledAt)
	}
	return s.send(ctx, c.Email, c.FullName(), TplAppointmentConfirmed, subjects[TplAppointmentConfirmed], data)
}

// AppointmentCancelled tells the client their request was declined.
func (s *Service) AppointmentCancelled(ctx context.Context, a *appointments.Appointment, c *contacts.Contact) error {
	if c == nil {
		return fmt.Errorf("mailer: no contact for appointment %s", a.ID)
	}
	data := templateData{ClientName: c.FullName()}
	return s.send(ctx, c.Email, c.FullName(), TplAppointmentCancelled, subjects[TplAppointmentCancelled], data)
}

// RescheduleProposed sends the client a new-date proposal with fresh
// confirm/cancel links. The previous email's tokens stay valid until used or
// expired; whichever link is clicked first wins.
func (s *Service) RescheduleProposed(ctx context.Context, a *appointments.Appointment, c *contacts.Contact, newScheduledAt time.Time) error {
	if c == nil {
		return fmt.Errorf("mailer: no contact for appointment %s", a.ID)
	}
	confirmURL, err := s.actionURL(ctx, tokens.EntityAppointment, a.ID, tokens.ActionAccept)
	if err != nil {
		return err
	}
	cancelURL, err := s.actionURL(ctx, tokens.EntityAppointment, a.ID, tokens.ActionReject)
	if err != nil {
		return err
	}

	data := templateData{
		ClientName: c.FullName(),
		ProposedAt: formatDateTime(newScheduledAt),
		ConfirmURL: confirmURL,
		CancelURL:  cancelURL,
	}
	return s.send(ctx, c.Email, c.FullName(), TplAppointmentProposal, subjects[TplAppointmentProposal], data)
}

// AppointmentReminder sends the day-before reminder.
func (s *Service) AppointmentReminder(ctx context.Context, a *appointments.Appointment, c *contacts.Contact) error {
	if c == nil {
		return fmt.Errorf("mailer: no contact for appointment %s", a.ID)
	}
	data := templateData{ClientName: c.FullName()}
	if a.ScheduledAt != nil {
		data.ScheduledAt = formatDateTime(*a.ScheduledAt)
	}
	return s.send(ctx, c.Email, c.FullName(), TplAppointmentReminder, subjects[TplAppointmentReminder], data)
}

// QuoteReceived notifies the admin of a new quote request and sends the
// client an acknowledgment. The admin failure is returned; the client
// acknowledgment is best effort.
func (s *Service) QuoteReceived(ctx context.Context, q *quotes.Quote, c *contacts.Contact) error {
	acceptURL, err := s.actionURL(ctx, tokens.EntityQuote, q.ID, tokens.ActionAccept)
	if err != nil {
		return err
	}
	rejectURL, err := s.actionURL(ctx, tokens.EntityQuote, q.ID, tokens.ActionReject)
	if err != nil {
		return err
	}

	adminData := templateData{
		ClientName:  c.FullName(),
		ClientEmail: c.Email,
		ClientPhone: c.Phone,
		Message:     q.ProjectDescription,
		AcceptURL:   acceptURL,
		RejectURL:   rejectURL,
	}
	subject := fmt.Sprintf(subjects[TplQuoteAdminNew], c.FullName())
	adminErr := s.send(ctx, s.cfg.AdminEmail, "", TplQuoteAdminNew, subject, adminData)

	clientData := templateData{ClientName: c.FullName()}
	if err := s.send(ctx, c.Email, c.FullName(), TplQuoteReceived, subjects[TplQuoteReceived], clientData); err != nil {
		s.logger.Error("quote acknowledgment send failed", "quote_id", q.ID, "error", err)
	}
	return adminErr
}

// QuoteAccepted tells the client their quote is ready.
func (s *Service) QuoteAccepted(ctx context.Context, q *quotes.Quote, c *contacts.Contact) error {
	if c == nil {
		return fmt.Errorf("mailer: no contact for quote %s", q.ID)
	}
	data := templateData{ClientName: c.FullName()}
	if q.QuoteDocument != nil {
		data.QuoteDocument = *q.QuoteDocument
	}
	if q.QuoteValidUntil != nil {
		data.QuoteValidUntil = formatDate(*q.QuoteValidUntil)
	}
	return s.send(ctx, c.Email, c.FullName(), TplQuoteAccepted, subjects[TplQuoteAccepted], data)
}

// QuoteRejected tells the client their request was declined.
func (s *Service) QuoteRejected(ctx context.Context, q *quotes.Quote, c *contacts.Contact) error {
	if c == nil {
		return fmt.Errorf("mailer: no contact for quote %s", q.ID)
	}
	data := templateData{ClientName: c.FullName()}
	if q.RejectionReason != nil {
		data.RejectionReason = *q.RejectionReason
	}
	return s.send(ctx, c.Email, c.FullName(), TplQuoteRejected, subjects[TplQuoteRejected], data)
}

// Logs exposes the audit trail for the backoffice.
func (s *Service) Logs(ctx context.Context, limit int) ([]*EmailLog, error) {
	return s.logs.List(ctx, limit)
}

func reasonLabel(a *appointments.Appointment) string {
	if a.Reason == appointments.ReasonOther && a.ReasonOther != "" {
		return a.ReasonOther
	}
	return a.Reason
}

var (
	_ appointments.Notifier = (*Service)(nil)
	_ quotes.Notifier       = (*Service)(nil)
)
