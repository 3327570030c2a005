package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"hrms-dispatch/internal/common/config"
	"hrms-dispatch/internal/common/errors"
	"hrms-dispatch/internal/common/logger"
)

// SESAPI is the SES surface the email sender needs, mockable in tests.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
	SendRawEmail(ctx context.Context, params *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error)
}

// EmailSender delivers through SES. Plain sends use the structured API;
// sends with attachments are assembled as raw MIME.
type EmailSender struct {
	client   SESAPI
	resolver *TemplateResolver
	cfg      config.EmailConfig
	logger   logger.Logger
}

func NewEmailSender(client SESAPI, resolver *TemplateResolver, cfg config.EmailConfig, log logger.Logger) *EmailSender {
	return &EmailSender{client: client, resolver: resolver, cfg: cfg, logger: log}
}

func (s *EmailSender) Channel() string { return "email" }

func (s *EmailSender) Send(ctx context.Context, ev Event) Outcome {
	if !s.cfg.Enabled {
		return skipped()
	}
	if ev.Recipient == "" {
		return skipped()
	}

	subject, body, ok, err := resolveContent(ctx, s.resolver, "email", ev)
	if err != nil {
		return failed(err)
	}
	if !ok {
		s.logger.Warn("email skipped, no template and no fallback", map[string]interface{}{
			"slug": ev.TemplateSlug,
		})
		return skipped()
	}

	if len(ev.Attachments) > 0 {
		if err := s.sendRaw(ctx, ev.Recipient, subject, body, ev.Attachments); err != nil {
			return failed(errors.NewSendFailedError("email", err))
		}
		return sent()
	}

	if err := s.sendSimple(ctx, ev.Recipient, subject, body); err != nil {
		return failed(errors.NewSendFailedError("email", err))
	}
	return sent()
}

func (s *EmailSender) source() string {
	if s.cfg.FromName != "" {
		return fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.FromEmail)
	}
	return s.cfg.FromEmail
}

func (s *EmailSender) sendSimple(ctx context.Context, to, subject, body string) error {
	input := &ses.SendEmailInput{
		Source: aws.String(s.source()),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data:    aws.String(body),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("ses send to %s: %w", to, err)
	}
	return nil
}

func (s *EmailSender) sendRaw(ctx context.Context, to, subject, body string, attachments []Attachment) error {
	raw := buildMIMEMessage(s.source(), to, subject, body, attachments)

	input := &ses.SendRawEmailInput{
		Source:       aws.String(s.cfg.FromEmail),
		Destinations: []string{to},
		RawMessage:   &types.RawMessage{Data: raw},
	}

	if _, err := s.client.SendRawEmail(ctx, input); err != nil {
		return fmt.Errorf("ses raw send to %s: %w", to, err)
	}
	return nil
}

const mimeBoundary = "hrmsdispatchpart"

func buildMIMEMessage(from, to, subject, body string, attachments []Attachment) []byte {
	var msg bytes.Buffer

	msg.WriteString(fmt.Sprintf("From: %s\r\n", from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", subject)))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mimeBoundary))

	msg.WriteString(fmt.Sprintf("--%s\r\n", mimeBoundary))
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("Content-Transfer-Encoding: 7bit\r\n\r\n")
	msg.WriteString(body)
	msg.WriteString("\r\n")

	for _, att := range attachments {
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		msg.WriteString(fmt.Sprintf("--%s\r\n", mimeBoundary))
		msg.WriteString(fmt.Sprintf("Content-Type: %s\r\n", contentType))
		msg.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=%q\r\n", att.Filename))
		msg.WriteString("Content-Transfer-Encoding: base64\r\n\r\n")

		encoded := base64.StdEncoding.EncodeToString(att.Content)
		// 76-char lines per RFC 2045
		for len(encoded) > 76 {
			msg.WriteString(encoded[:76] + "\r\n")
			encoded = encoded[76:]
		}
		msg.WriteString(encoded + "\r\n")
	}
	msg.WriteString(fmt.Sprintf("--%s--\r\n", mimeBoundary))

	return msg.Bytes()
}
