package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/Mani-Selvam/Portfolio-Builder/backend/config"
	"github.com/Mani-Selvam/Portfolio-Builder/backend/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Notifier is told about every stored submission.
type Notifier interface {
	SubmissionReceived(ctx context.Context, submission *models.SubmissionWithProjects) error
}

type NopNotifier struct{}

func (NopNotifier) SubmissionReceived(context.Context, *models.SubmissionWithProjects) error {
	return nil
}

// MultiNotifier runs every channel concurrently. One failing channel does not
// stop the others; all failures are joined into the returned error.
type MultiNotifier []Notifier

func (m MultiNotifier) SubmissionReceived(ctx context.Context, submission *models.SubmissionWithProjects) error {
	var (
		g      errgroup.Group
		mu     sync.Mutex
		failed []error
	)

	for _, n := range m {
		n := n
		g.Go(func() error {
			if err := n.SubmissionReceived(ctx, submission); err != nil {
				mu.Lock()
				failed = append(failed, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(failed...)
}

// EmailNotifier sends a confirmation to the submitter and, when configured,
// an alert to the admin inbox.
type EmailNotifier struct {
	sender     EmailSender
	adminEmail string
}

func NewEmailNotifier(sender EmailSender, adminEmail string) EmailNotifier {
	return EmailNotifier{sender: sender, adminEmail: adminEmail}
}

func (n EmailNotifier) SubmissionReceived(ctx context.Context, submission *models.SubmissionWithProjects) error {
	var errList []error

	confirmation := EmailMessage{
		To:      []string{submission.Email},
		Subject: "We received your portfolio submission",
		HTML:    confirmationHTML(submission),
	}
	if err := n.sender.Send(ctx, confirmation); err != nil {
		errList = append(errList, fmt.Errorf("confirmation email: %w", err))
	}

	if n.adminEmail != "" {
		alert := EmailMessage{
			To:      []string{n.adminEmail},
			Subject: fmt.Sprintf("New portfolio submission #%d from %s", submission.ID, submission.FullName),
			HTML:    adminAlertHTML(submission),
		}
		if err := n.sender.Send(ctx, alert); err != nil {
			errList = append(errList, fmt.Errorf("admin email: %w", err))
		}
	}

	return errors.Join(errList...)
}

func confirmationHTML(s *models.SubmissionWithProjects) string {
	return fmt.Sprintf(
		"<p>Hi %s,</p><p>Thanks for sending your details. We will start on your portfolio shortly and reach out if we need anything else.</p><p>Reference: #%d</p>",
		html.EscapeString(s.FullName), s.ID,
	)
}

func adminAlertHTML(s *models.SubmissionWithProjects) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<p><strong>%s</strong> (%s)<br>%s</p>",
		html.EscapeString(s.FullName), html.EscapeString(s.Email), html.EscapeString(s.ProfessionalTitle))
	fmt.Fprintf(&b, "<p>Projects: %d</p>", len(s.Projects))
	if len(s.Projects) > 0 {
		b.WriteString("<ul>")
		for _, p := range s.Projects {
			fmt.Fprintf(&b, "<li>%s</li>", html.EscapeString(p.Title))
		}
		b.WriteString("</ul>")
	}
	fmt.Fprintf(&b, "<p>Resume: %s</p>", html.EscapeString(s.ResumeURL))
	return b.String()
}

// SMSNotifier texts the admin phone about new submissions.
type SMSNotifier struct {
	sender SMSSender
	to     string
}

func NewSMSNotifier(sender SMSSender, to string) SMSNotifier {
	return SMSNotifier{sender: sender, to: to}
}

func (n SMSNotifier) SubmissionReceived(ctx context.Context, submission *models.SubmissionWithProjects) error {
	body := fmt.Sprintf("New portfolio submission #%d: %s, %s (%d projects)",
		submission.ID, submission.FullName, submission.ProfessionalTitle, len(submission.Projects))
	return n.sender.SendSMS(ctx, n.to, body)
}

// NewNotifierFromConfig wires every channel that has credentials. With none
// configured it returns a NopNotifier.
func NewNotifierFromConfig(c map[string]string) Notifier {
	var channels MultiNotifier

	if apiKey := config.GetString(c, "RESEND_API_KEY", ""); apiKey != "" {
		from := config.GetString(c, "RESEND_FROM_EMAIL", "")
		if from == "" {
			log.Warn().Msg("RESEND_API_KEY is set but RESEND_FROM_EMAIL is not, e-mail notifications disabled")
		} else {
			sender := NewResendClient(apiKey, from)
			channels = append(channels, NewEmailNotifier(sender, config.GetString(c, "ADMIN_NOTIFY_EMAIL", "")))
		}
	}

	sid := config.GetString(c, "TWILIO_ACCOUNT_SID", "")
	token := config.GetString(c, "TWILIO_AUTH_TOKEN", "")
	from := config.GetString(c, "TWILIO_FROM_NUMBER", "")
	to := config.GetString(c, "ADMIN_NOTIFY_PHONE", "")
	if sid != "" && token != "" && from != "" && to != "" {
		channels = append(channels, NewSMSNotifier(NewTwilioSender(sid, token, from), to))
	}

	if len(channels) == 0 {
		log.Info().Msg("no notification channels configured")
		return NopNotifier{}
	}
	log.Info().Int("channels", len(channels)).Msg("notification channels configured")
	return channels
}
