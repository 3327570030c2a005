package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hrms-dispatch/internal/common/logger"
	"hrms-dispatch/internal/common/metrics"
)

// Dispatcher routes events to the registered channel senders and applies the
// cross-cutting concerns: the per-channel counter and the audit history.
type Dispatcher struct {
	senders map[string]Sender
	history *History
	logger  logger.Logger
}

func NewDispatcher(history *History, log logger.Logger, senders ...Sender) *Dispatcher {
	m := make(map[string]Sender, len(senders))
	for _, s := range senders {
		m[s.Channel()] = s
	}
	return &Dispatcher{senders: m, history: history, logger: log}
}

// Send dispatches one event and returns its outcome. An unknown channel is
// an error outcome, not a panic.
func (d *Dispatcher) Send(ctx context.Context, ev Event) Outcome {
	eventID := uuid.New().String()

	sender, ok := d.senders[ev.Channel]
	if !ok {
		outcome := failed(fmt.Errorf("unknown channel %q", ev.Channel))
		metrics.NotificationsSent.WithLabelValues(ev.Channel, outcome.Status).Inc()
		return outcome
	}

	outcome := sender.Send(ctx, ev)
	metrics.NotificationsSent.WithLabelValues(ev.Channel, outcome.Status).Inc()

	if outcome.Status == StatusError {
		d.logger.Error("notification send failed", map[string]interface{}{
			"eventId":   eventID,
			"channel":   ev.Channel,
			"recipient": ev.Recipient,
			"slug":      ev.TemplateSlug,
			"error":     outcome.Error,
		})
	}

	if d.history != nil {
		d.history.Record(ctx, eventID, ev, outcome)
	}

	return outcome
}

// SendDetached dispatches in a background goroutine with its own timeout,
// decoupled from the caller's request lifetime. The outcome is logged only.
func (d *Dispatcher) SendDetached(ev Event) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("detached send panicked", map[string]interface{}{
					"channel": ev.Channel,
					"panic":   fmt.Sprintf("%v", r),
				})
			}
		}()

		outcome := d.Send(ctx, ev)
		d.logger.Info("detached send finished", map[string]interface{}{
			"channel": ev.Channel,
			"status":  outcome.Status,
		})
	}()
}
