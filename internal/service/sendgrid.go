package service

import (
	"context"
	"encoding/base64"
	"fmt"

	"fleet-backoffice/internal/config"
	"fleet-backoffice/internal/logger"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type sendGridSender func(ctx context.Context, apiKey string, message *mail.SGMailV3) (int, string, error)

func sendViaSendGrid(ctx context.Context, apiKey string, message *mail.SGMailV3) (int, string, error) {
	client := sendgrid.NewSendClient(apiKey)
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		return 0, "", err
	}
	return response.StatusCode, response.Body, nil
}

func (s *emailService) sendWithSendGrid(ctx context.Context, to, subject, body string, attachments []Attachment) (EmailResult, error) {
	apiKey := s.settings.Get(config.KeySendGridAPIKey)
	fromAddr := s.settings.Get(config.KeySMTPFrom)
	if apiKey == "" || fromAddr == "" {
		return simulated(ctx, "sendgrid", to, subject, attachments), nil
	}

	message := mail.NewSingleEmail(mail.NewEmail("", fromAddr), subject, mail.NewEmail("", to), body, "")
	for _, a := range attachments {
		att := mail.NewAttachment()
		att.SetContent(base64.StdEncoding.EncodeToString(a.Data))
		att.SetType(a.ContentType)
		att.SetFilename(a.Filename)
		att.SetDisposition("attachment")
		message.AddAttachment(att)
	}

	status, respBody, err := s.sendGrid(ctx, apiKey, message)
	if err != nil {
		return EmailResult{}, fmt.Errorf("failed to send email: %w", err)
	}
	if status >= 400 {
		logger.ErrorContext(ctx, "Accountant email rejected", "transport", "sendgrid", "status", status)
		return EmailResult{}, fmt.Errorf("sendgrid error: status %d, body: %s", status, respBody)
	}
	logger.InfoContext(ctx, "Accountant email sent", "simulated", false, "transport", "sendgrid", "to", to, "attachments", len(attachments))
	return EmailResult{Message: fmt.Sprintf("email sent to %s", to)}, nil
}
