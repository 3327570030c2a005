// internal/triggers/birthdays/handler.go
package birthdays

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"hrms-dispatch/internal/common/auth"
	"hrms-dispatch/internal/common/errors"
	"hrms-dispatch/internal/common/logger"
	"hrms-dispatch/internal/common/metrics"
	"hrms-dispatch/internal/notify"
	"hrms-dispatch/internal/store"
)

// Handler runs the daily birthday sweep when the external cron scheduler
// hits its route.
type Handler struct {
	cronSecret string
	store      Store
	dispatcher Dispatcher
	seeder     Seeder
	logger     logger.Logger
	now        func() time.Time
}

func NewHandler(cronSecret string, st Store, d Dispatcher, seeder Seeder, log logger.Logger) *Handler {
	return &Handler{
		cronSecret: cronSecret,
		store:      st,
		dispatcher: d,
		seeder:     seeder,
		logger:     log.WithFields(map[string]interface{}{"job": JobName}),
		now:        time.Now,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := auth.CheckCronSecret(h.cronSecret, r); err != nil {
		errors.WriteHTTP(w, err)
		return
	}

	start := time.Now()
	sentCount, err := h.execute(r.Context())
	metrics.TriggerDuration.WithLabelValues(JobName).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.CronRuns.WithLabelValues(JobName, "failed").Inc()
		h.logger.Error("birthday sweep failed", map[string]interface{}{"error": err.Error()})
		errors.WriteHTTP(w, err)
		return
	}

	metrics.CronRuns.WithLabelValues(JobName, "success").Inc()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(Output{
		Success:   true,
		Message:   "birthday check completed",
		SentCount: sentCount,
	})
}

func (h *Handler) execute(ctx context.Context) (int, error) {
	h.seedTemplates(ctx)

	employees, err := h.store.ActiveEmployees(ctx)
	if err != nil {
		h.writeCronLog(ctx, "failed", 0, 0, err.Error())
		return 0, errors.NewStoreQueryFailedError("employees", err)
	}

	today := h.now()
	sent := 0

	for _, emp := range employees {
		dob, ok := parseDateOfBirth(emp.DateOfBirth)
		if !ok {
			continue
		}
		if dob.Month() != today.Month() || dob.Day() != today.Day() {
			continue
		}

		h.logger.Info("birthday match", map[string]interface{}{
			"employee": emp.Name,
			"code":     emp.Code,
		})
		h.wish(ctx, emp)
		sent++
	}

	h.writeCronLog(ctx, "success", len(employees), sent, "")
	return sent, nil
}

// wish attempts every channel for one employee. Channels fail independently;
// outcomes are counted by the dispatcher metrics.
func (h *Handler) wish(ctx context.Context, emp store.Employee) {
	data := map[string]string{
		"name":        emp.Name,
		"companyName": emp.CompanyName,
	}

	if emp.Email != "" {
		h.dispatcher.Send(ctx, notify.Event{
			Channel:      store.ChannelEmail,
			Recipient:    emp.Email,
			TemplateSlug: TemplateSlug,
			Data:         data,
		})
	}

	if emp.Phone != "" {
		h.dispatcher.Send(ctx, notify.Event{
			Channel:      store.ChannelWhatsApp,
			Recipient:    emp.Phone,
			TemplateSlug: TemplateSlug,
			Data:         data,
		})
	}

	h.dispatcher.Send(ctx, notify.Event{
		Channel:      store.ChannelTelegram,
		TemplateSlug: TemplateSlug,
		Data:         data,
		Fallback:     "Today is " + emp.Name + "'s birthday. Wish them well!",
	})

	// Push has no stored template (only three channels are seeded), so the
	// fallback carries the wish, same as a template-less telegram send.
	if emp.AuthUID != "" {
		wish := "Happy Birthday, " + emp.Name + "!"
		if emp.CompanyName != "" {
			wish += " Warm wishes from everyone at " + emp.CompanyName + "."
		}
		h.dispatcher.Send(ctx, notify.Event{
			Channel:      store.ChannelPush,
			Recipient:    emp.AuthUID,
			TemplateSlug: TemplateSlug,
			Data:         data,
			Fallback:     wish,
		})
	}
}

func (h *Handler) seedTemplates(ctx context.Context) {
	vars := []string{"name", "companyName"}
	seeds := []struct {
		channel string
		subject string
		body    string
	}{
		{
			channel: store.ChannelEmail,
			subject: "Happy Birthday, {{name}}!",
			body:    "<p>Dear {{name}},</p><p>Wishing you a wonderful birthday from all of us at {{companyName}}. Have a great year ahead!</p>",
		},
		{
			channel: store.ChannelWhatsApp,
			body:    "Happy Birthday, {{name}}! Warm wishes from everyone at {{companyName}}.",
		},
		{
			channel: store.ChannelTelegram,
			body:    "It's {{name}}'s birthday today. Join us in wishing them well!",
		},
	}

	for _, s := range seeds {
		if err := h.seeder.Ensure(ctx, s.channel, TemplateSlug, s.subject, s.body, vars); err != nil {
			h.logger.Warn("template seed failed", map[string]interface{}{
				"channel": s.channel,
				"error":   err.Error(),
			})
		}
	}
}

func (h *Handler) writeCronLog(ctx context.Context, status string, checked, sent int, errMsg string) {
	entry := &store.CronLog{
		Job:          JobName,
		Status:       status,
		CheckedCount: checked,
		SentCount:    sent,
		Error:        errMsg,
		ExecutedAt:   h.now(),
	}
	if err := h.store.InsertCronLog(ctx, entry); err != nil {
		h.logger.Warn("cron log write failed", map[string]interface{}{"error": err.Error()})
	}
}

// parseDateOfBirth copes with the mixed shapes the employees collection
// carries: stored datetimes, date-only strings in either field order, and a
// loose catch-all. A value no layout accepts means no birthday today, a
// deliberate carry-over from the source data's behavior.
func parseDateOfBirth(v interface{}) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, true
	case primitive.DateTime:
		return val.Time(), true
	case string:
		return parseDateString(val)
	default:
		return time.Time{}, false
	}
}

var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"02/01/2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

func parseDateString(s string) (time.Time, bool) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	if t, err := time.Parse("02-01-2006", s); err == nil {
		return t, true
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
