package notify

import (
	"context"
	"fmt"

	"hrms-dispatch/internal/common/config"
	"hrms-dispatch/internal/common/errors"
	commonhttp "hrms-dispatch/internal/common/http"
	"hrms-dispatch/internal/common/logger"
)

// TelegramSender posts messages to a Telegram bot chat. The recipient is a
// chat id; when empty the configured group chat is used.
type TelegramSender struct {
	client   *commonhttp.Client
	resolver *TemplateResolver
	cfg      config.TelegramConfig
	logger   logger.Logger
}

func NewTelegramSender(client *commonhttp.Client, resolver *TemplateResolver, cfg config.TelegramConfig, log logger.Logger) *TelegramSender {
	return &TelegramSender{client: client, resolver: resolver, cfg: cfg, logger: log}
}

func (s *TelegramSender) Channel() string { return "telegram" }

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

func (s *TelegramSender) Send(ctx context.Context, ev Event) Outcome {
	if !s.cfg.Enabled {
		return skipped()
	}

	chatID := ev.Recipient
	if chatID == "" {
		chatID = s.cfg.ChatID
	}
	if chatID == "" {
		return skipped()
	}

	_, body, ok, err := resolveContent(ctx, s.resolver, "telegram", ev)
	if err != nil {
		return failed(err)
	}
	if !ok {
		s.logger.Warn("telegram skipped, no template and no fallback", map[string]interface{}{
			"slug": ev.TemplateSlug,
		})
		return skipped()
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.cfg.BaseURL, s.cfg.BotToken)
	payload := telegramMessage{
		ChatID: chatID,
		Text:   body,
	}

	if err := s.client.PostJSON(ctx, url, nil, payload, nil); err != nil {
		return failed(errors.NewSendFailedError("telegram", fmt.Errorf("send to chat %s: %w", chatID, err)))
	}
	return sent()
}
