package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"

	"fleet-backoffice/internal/config"
	"fleet-backoffice/internal/domain"
	"fleet-backoffice/internal/logger"

	"gopkg.in/gomail.v2"
)

// Settings is the runtime key/value configuration
type Settings interface {
	Get(key string) string
}

type smtpSender func(host string, port int, username, password string, m *gomail.Message) error

type emailService struct {
	settings Settings
	sendSMTP smtpSender
	sendGrid sendGridSender
}

// NewEmailService reads transport credentials at send time. With no
// credentials for the selected transport the send is simulated.
func NewEmailService(settings Settings) EmailService {
	return &emailService{
		settings: settings,
		sendSMTP: dialAndSend,
		sendGrid: sendViaSendGrid,
	}
}

func dialAndSend(host string, port int, username, password string, m *gomail.Message) error {
	d := gomail.NewDialer(host, port, username, password)
	return d.DialAndSend(m)
}

func (s *emailService) SendAccountantExport(ctx context.Context, to string, month domain.Month, attachments []Attachment) (EmailResult, error) {
	subject := fmt.Sprintf("Relatório Financeiro - %s", month)
	body := accountantBody(month, attachments)

	if strings.EqualFold(s.settings.Get(config.KeyEmailTransport), "sendgrid") {
		return s.sendWithSendGrid(ctx, to, subject, body, attachments)
	}
	return s.sendWithSMTP(ctx, to, subject, body, attachments)
}

func (s *emailService) sendWithSMTP(ctx context.Context, to, subject, body string, attachments []Attachment) (EmailResult, error) {
	host := s.settings.Get(config.KeySMTPServer)
	user := s.settings.Get(config.KeySMTPUser)
	password := s.settings.Get(config.KeySMTPPassword)
	if host == "" || user == "" || password == "" {
		return simulated(ctx, "smtp", to, subject, attachments), nil
	}

	port, err := strconv.Atoi(s.settings.Get(config.KeySMTPPort))
	if err != nil || port <= 0 {
		port = 587
	}
	from := s.settings.Get(config.KeySMTPFrom)
	if from == "" {
		from = user
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	for _, a := range attachments {
		data := a.Data
		m.Attach(a.Filename,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
			gomail.SetHeader(map[string][]string{"Content-Type": {a.ContentType}}),
		)
	}

	if err := s.sendSMTP(host, port, user, password, m); err != nil {
		logger.ErrorContext(ctx, "Accountant email failed", "transport", "smtp", "to", to, "error", err)
		return EmailResult{}, fmt.Errorf("failed to send email via gomail: %w", err)
	}
	logger.InfoContext(ctx, "Accountant email sent", "simulated", false, "transport", "smtp", "to", to, "attachments", len(attachments))
	return EmailResult{Message: fmt.Sprintf("email sent to %s", to)}, nil
}

func simulated(ctx context.Context, transport, to, subject string, attachments []Attachment) EmailResult {
	names := make([]string, 0, len(attachments))
	for _, a := range attachments {
		names = append(names, a.Filename)
	}
	logger.WarnContext(ctx, "Email send SIMULATED",
		"simulated", true, "transport", transport, "to", to, "subject", subject, "attachments", names)
	return EmailResult{Simulated: true, Message: fmt.Sprintf("email to %s simulated (credentials missing)", to)}
}

func accountantBody(month domain.Month, attachments []Attachment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Olá,\n\nSeguem em anexo os relatórios financeiros referentes ao mês %s.\n\nAnexos:\n", month)
	for _, a := range attachments {
		fmt.Fprintf(&b, "- %s\n", a.Filename)
	}
	b.WriteString("\nAtenciosamente.\n")
	return b.String()
}

// DecodeBlob turns a provider base64 payload into an attachment
func DecodeBlob(filename, contentType, encoded string) (Attachment, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return Attachment{}, fmt.Errorf("failed to decode %s: %w", filename, err)
	}
	return Attachment{Filename: filename, ContentType: contentType, Data: data}, nil
}
