package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"hrms-dispatch/internal/common/database"
	"hrms-dispatch/internal/common/logger"
)

// historyDoc is the audit record indexed per send attempt.
type historyDoc struct {
	EventID   string    `json:"eventId"`
	Channel   string    `json:"channel"`
	Recipient string    `json:"recipient"`
	Slug      string    `json:"slug,omitempty"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// History writes send outcomes to an Elasticsearch index. Indexing is best
// effort: failures are logged and never affect the send result.
type History struct {
	es     *database.ElasticsearchClient
	index  string
	logger logger.Logger
}

func NewHistory(es *database.ElasticsearchClient, index string, log logger.Logger) *History {
	return &History{es: es, index: index, logger: log}
}

func (h *History) Record(ctx context.Context, eventID string, ev Event, outcome Outcome) {
	if h == nil || h.es == nil {
		return
	}

	doc := historyDoc{
		EventID:   eventID,
		Channel:   ev.Channel,
		Recipient: ev.Recipient,
		Slug:      ev.TemplateSlug,
		Status:    outcome.Status,
		Error:     outcome.Error,
		Timestamp: time.Now().UTC(),
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return
	}

	res, err := h.es.Client.Index(h.index, bytes.NewReader(body),
		h.es.Client.Index.WithContext(ctx))
	if err != nil {
		h.logger.Warn("history index failed", map[string]interface{}{
			"channel": ev.Channel,
			"error":   err.Error(),
		})
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		h.logger.Warn("history index rejected", map[string]interface{}{
			"channel": ev.Channel,
			"status":  res.StatusCode,
		})
	}
}
