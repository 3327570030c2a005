package notify

import (
	"context"
	"fmt"

	"hrms-dispatch/internal/common/config"
	"hrms-dispatch/internal/common/errors"
	commonhttp "hrms-dispatch/internal/common/http"
	"hrms-dispatch/internal/common/logger"
)

// WhatsAppSender delivers text messages through the WhatsApp Cloud API.
type WhatsAppSender struct {
	client   *commonhttp.Client
	resolver *TemplateResolver
	cfg      config.WhatsAppConfig
	logger   logger.Logger
}

func NewWhatsAppSender(client *commonhttp.Client, resolver *TemplateResolver, cfg config.WhatsAppConfig, log logger.Logger) *WhatsAppSender {
	return &WhatsAppSender{client: client, resolver: resolver, cfg: cfg, logger: log}
}

func (s *WhatsAppSender) Channel() string { return "whatsapp" }

type whatsAppText struct {
	Body string `json:"body"`
}

type whatsAppMessage struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             whatsAppText `json:"text"`
}

func (s *WhatsAppSender) Send(ctx context.Context, ev Event) Outcome {
	if !s.cfg.Enabled {
		return skipped()
	}
	if ev.Recipient == "" {
		return skipped()
	}

	_, body, ok, err := resolveContent(ctx, s.resolver, "whatsapp", ev)
	if err != nil {
		return failed(err)
	}
	if !ok {
		s.logger.Warn("whatsapp skipped, no template and no fallback", map[string]interface{}{
			"slug": ev.TemplateSlug,
		})
		return skipped()
	}

	url := fmt.Sprintf("%s/%s/messages", s.cfg.BaseURL, s.cfg.PhoneID)
	headers := map[string]string{
		"Authorization": "Bearer " + s.cfg.AccessToken,
	}
	payload := whatsAppMessage{
		MessagingProduct: "whatsapp",
		To:               ev.Recipient,
		Type:             "text",
		Text:             whatsAppText{Body: body},
	}

	if err := s.client.PostJSON(ctx, url, headers, payload, nil); err != nil {
		return failed(errors.NewSendFailedError("whatsapp", fmt.Errorf("send to %s: %w", ev.Recipient, err)))
	}
	return sent()
}
