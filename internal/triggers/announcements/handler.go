// internal/triggers/announcements/handler.go
package announcements

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"hrms-dispatch/internal/common/auth"
	"hrms-dispatch/internal/common/errors"
	"hrms-dispatch/internal/common/logger"
	"hrms-dispatch/internal/common/metrics"
	"hrms-dispatch/internal/notify"
	"hrms-dispatch/internal/store"
)

// Handler runs the announcement sweep: due holidays first, then due notices.
// The two passes are independent; a record that fails keeps its sent flag
// unset and is retried on the next run.
type Handler struct {
	cronSecret string
	store      Store
	dispatcher Dispatcher
	seeder     Seeder
	roles      RoleResolver
	logger     logger.Logger
	now        func() time.Time
}

func NewHandler(cronSecret string, st Store, d Dispatcher, seeder Seeder, roles RoleResolver, log logger.Logger) *Handler {
	return &Handler{
		cronSecret: cronSecret,
		store:      st,
		dispatcher: d,
		seeder:     seeder,
		roles:      roles,
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
	processed, err := h.execute(r.Context())
	metrics.TriggerDuration.WithLabelValues(JobName).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.CronRuns.WithLabelValues(JobName, "failed").Inc()
		h.logger.Error("announcement sweep failed", map[string]interface{}{"error": err.Error()})
		errors.WriteHTTP(w, err)
		return
	}

	metrics.CronRuns.WithLabelValues(JobName, "success").Inc()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(Output{Success: true, ProcessedCount: processed})
}

func (h *Handler) execute(ctx context.Context) (int, error) {
	h.seedTemplates(ctx)

	now := h.now()
	checked := 0
	processed := 0

	holidays, err := h.store.DueUnsentHolidays(ctx, now)
	if err != nil {
		h.writeCronLog(ctx, "failed", 0, 0, err.Error())
		return 0, errors.NewStoreQueryFailedError("holidays", err)
	}
	checked += len(holidays)

	var employees []store.Employee
	if len(holidays) > 0 {
		employees, err = h.store.ActiveEmployees(ctx)
		if err != nil {
			h.writeCronLog(ctx, "failed", checked, 0, err.Error())
			return 0, errors.NewStoreQueryFailedError("employees", err)
		}
	}

	for _, holiday := range holidays {
		if err := h.processHoliday(ctx, holiday, employees); err != nil {
			h.logger.Error("holiday processing failed", map[string]interface{}{
				"holiday": holiday.Title,
				"error":   err.Error(),
			})
			continue
		}
		processed++
	}

	notices, err := h.store.DueUnsentNotices(ctx, now)
	if err != nil {
		h.writeCronLog(ctx, "failed", checked, processed, err.Error())
		return processed, errors.NewStoreQueryFailedError("site_settings", err)
	}
	checked += len(notices)

	for _, notice := range notices {
		if err := h.processNotice(ctx, notice); err != nil {
			h.logger.Error("notice processing failed", map[string]interface{}{
				"notice": notice.Title,
				"error":  err.Error(),
			})
			continue
		}
		processed++
	}

	h.writeCronLog(ctx, "success", checked, processed, "")
	return processed, nil
}

// processHoliday emails and WhatsApps every active employee, then marks the
// holiday sent. Marking happens after the attempts regardless of individual
// recipient outcomes.
func (h *Handler) processHoliday(ctx context.Context, holiday store.Holiday, employees []store.Employee) error {
	data := map[string]string{
		"title":       holiday.Title,
		"date":        holiday.Date,
		"description": holiday.Description,
	}

	for _, emp := range employees {
		perEmployee := map[string]string{
			"name":        emp.Name,
			"title":       data["title"],
			"date":        data["date"],
			"description": data["description"],
		}

		if emp.Email != "" {
			h.dispatcher.Send(ctx, notify.Event{
				Channel:      store.ChannelEmail,
				Recipient:    emp.Email,
				TemplateSlug: HolidayTemplateSlug,
				Data:         perEmployee,
			})
		}
		if emp.Phone != "" {
			h.dispatcher.Send(ctx, notify.Event{
				Channel:      store.ChannelWhatsApp,
				Recipient:    emp.Phone,
				TemplateSlug: HolidayTemplateSlug,
				Data:         perEmployee,
				Fallback:     "Holiday announcement: " + holiday.Title + " on " + holiday.Date,
			})
		}
	}

	if err := h.store.MarkHolidayEmailSent(ctx, holiday.ID); err != nil {
		return errors.NewStoreUpdateFailedError("holidays", err)
	}
	return nil
}

// processNotice pushes one broadcast, emails the target role holders, then
// marks the notice sent.
func (h *Handler) processNotice(ctx context.Context, notice store.Notice) error {
	data := map[string]string{
		"title":   notice.Title,
		"content": notice.Content,
	}

	h.dispatcher.Send(ctx, notify.Event{
		Channel:      store.ChannelPush,
		TemplateSlug: NoticeTemplateSlug,
		Data:         data,
	})

	for _, email := range h.roles.EmailsByRoles(ctx, notice.TargetRoles) {
		h.dispatcher.Send(ctx, notify.Event{
			Channel:      store.ChannelEmail,
			Recipient:    email,
			TemplateSlug: NoticeTemplateSlug,
			Data:         data,
		})
	}

	if err := h.store.MarkNoticeEmailSent(ctx, notice.ID); err != nil {
		return errors.NewStoreUpdateFailedError("site_settings", err)
	}
	return nil
}

func (h *Handler) seedTemplates(ctx context.Context) {
	seeds := []struct {
		channel   string
		slug      string
		subject   string
		body      string
		variables []string
	}{
		{
			channel:   store.ChannelEmail,
			slug:      HolidayTemplateSlug,
			subject:   "Holiday: {{title}}",
			body:      "<p>Dear {{name}},</p><p>The office will observe <b>{{title}}</b> on {{date}}.</p><p>{{description}}</p>",
			variables: []string{"name", "title", "date", "description"},
		},
		{
			channel:   store.ChannelWhatsApp,
			slug:      HolidayTemplateSlug,
			body:      "Holiday announcement: {{title}} on {{date}}. {{description}}",
			variables: []string{"title", "date", "description"},
		},
		{
			channel:   store.ChannelEmail,
			slug:      NoticeTemplateSlug,
			subject:   "Notice: {{title}}",
			body:      "<p>{{content}}</p>",
			variables: []string{"title", "content"},
		},
		{
			channel:   store.ChannelPush,
			slug:      NoticeTemplateSlug,
			subject:   "{{title}}",
			body:      "{{content}}",
			variables: []string{"title", "content"},
		},
	}

	for _, s := range seeds {
		if err := h.seeder.Ensure(ctx, s.channel, s.slug, s.subject, s.body, s.variables); err != nil {
			h.logger.Warn("template seed failed", map[string]interface{}{
				"channel": s.channel,
				"slug":    s.slug,
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
