// internal/triggers/attendance/handler.go
package attendance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"hrms-dispatch/internal/common/errors"
	"hrms-dispatch/internal/common/logger"
	"hrms-dispatch/internal/common/metrics"
	"hrms-dispatch/internal/common/validation"
	"hrms-dispatch/internal/notify"
	"hrms-dispatch/internal/store"
)

// Roles that receive the HR-side fan-out.
var notifyRoles = []string{"Admin", "HR", "Super Admin"}

// Handler fans one attendance event out to Telegram (fire-and-forget), push,
// email and WhatsApp. Past auth and validation the route always answers 200;
// callers read the per-channel status map to detect partial failure.
type Handler struct {
	sessions   SessionValidator
	store      Store
	dispatcher Dispatcher
	roles      RoleResolver
	geocoder   AddressResolver
	logger     logger.Logger
}

func NewHandler(sessions SessionValidator, st Store, d Dispatcher, roles RoleResolver, geocoder AddressResolver, log logger.Logger) *Handler {
	return &Handler{
		sessions:   sessions,
		store:      st,
		dispatcher: d,
		roles:      roles,
		geocoder:   geocoder,
		logger:     log.WithFields(map[string]interface{}{"trigger": "attendance-notify"}),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, err := h.sessions.Validate(ctx, r); err != nil {
		errors.WriteHTTP(w, err)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		errors.WriteHTTP(w, errors.NewValidationFailedError("unreadable request body"))
		return
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		errors.WriteHTTP(w, errors.NewValidationFailedError("malformed JSON body"))
		return
	}

	result, err := validation.Validate(inputSchema, raw)
	if err != nil {
		errors.WriteHTTP(w, errors.NewInternalError(err))
		return
	}
	if !result.Valid {
		errors.WriteHTTP(w, errors.NewValidationFailedError(result.FirstError()))
		return
	}

	var input Input
	if err := json.Unmarshal(body, &input); err != nil {
		errors.WriteHTTP(w, errors.NewValidationFailedError("malformed JSON body"))
		return
	}

	start := time.Now()
	output := h.execute(ctx, &input)
	metrics.TriggerDuration.WithLabelValues("attendance-notify").Observe(time.Since(start).Seconds())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(output)
}

func (h *Handler) execute(ctx context.Context, input *Input) *Output {
	label := typeLabels[input.Type]
	address := h.resolveAddress(ctx, input)
	date := input.Date
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	data := map[string]string{
		"name":    input.EmployeeName,
		"code":    input.EmployeeCode,
		"action":  label,
		"time":    input.Time,
		"date":    date,
		"address": address,
		"remarks": input.Remarks,
		"company": input.CompanyName,
	}

	summary := fmt.Sprintf("%s %s at %s on %s", input.EmployeeName, label, input.Time, date)
	if address != "" {
		summary += " (" + address + ")"
	}

	notifications := make(map[string]interface{})

	// Telegram is fired without awaiting: the caller never learns its outcome.
	h.dispatcher.SendDetached(notify.Event{
		Channel:      store.ChannelTelegram,
		TemplateSlug: TemplateSlug,
		Data:         data,
		Fallback:     summary,
	})
	notifications["telegram"] = map[string]string{"status": "queued"}

	notifications["push"] = h.sendPush(ctx, input, data)

	hrEmails := h.roles.EmailsByRoles(ctx, notifyRoles)
	hrPhones := h.roles.PhonesByRoles(ctx, notifyRoles)

	notifications["email"] = h.sendEmails(ctx, input, data, hrEmails)
	notifications["whatsapp"] = h.sendWhatsApp(ctx, input, data, summary, hrPhones)

	return &Output{
		Success:       true,
		Message:       summary,
		Type:          input.Type,
		Notifications: notifications,
	}
}

func (h *Handler) resolveAddress(ctx context.Context, input *Input) string {
	loc := input.Location
	if loc == nil {
		return ""
	}
	if loc.Address != "" {
		return loc.Address
	}
	if loc.Latitude == 0 && loc.Longitude == 0 {
		return ""
	}

	address, err := h.geocoder.Reverse(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		h.logger.Warn("reverse geocode failed", map[string]interface{}{"error": err.Error()})
		return fmt.Sprintf("%.6f, %.6f", loc.Latitude, loc.Longitude)
	}
	return address
}

// sendPush notifies the acting employee (resolved to their auth uid) and the
// HR/Admin audience separately.
func (h *Handler) sendPush(ctx context.Context, input *Input, data map[string]string) map[string]interface{} {
	out := make(map[string]interface{})

	emp, err := h.store.EmployeeByID(ctx, input.EmployeeID)
	if err != nil || emp.AuthUID == "" {
		if err != nil {
			h.logger.Warn("employee lookup failed", map[string]interface{}{
				"employeeId": input.EmployeeID,
				"error":      err.Error(),
			})
		}
		out["employee"] = notify.Outcome{Status: notify.StatusSkipped}
	} else {
		out["employee"] = h.dispatcher.Send(ctx, notify.Event{
			Channel:      store.ChannelPush,
			Recipient:    emp.AuthUID,
			TemplateSlug: TemplateSlug,
			Data:         data,
		})
	}

	out["roles"] = h.dispatcher.Send(ctx, notify.Event{
		Channel:      store.ChannelPush,
		TemplateSlug: TemplateSlug,
		Data:         data,
	})

	return out
}

func (h *Handler) sendEmails(ctx context.Context, input *Input, data map[string]string, hrEmails []string) map[string]interface{} {
	out := make(map[string]interface{})

	if input.EmployeeEmail != "" {
		out["employee"] = h.dispatcher.Send(ctx, notify.Event{
			Channel:      store.ChannelEmail,
			Recipient:    input.EmployeeEmail,
			TemplateSlug: TemplateSlug,
			Data:         data,
		})
	} else {
		out["employee"] = notify.Outcome{Status: notify.StatusSkipped}
	}

	roleOutcomes := make([]notify.Outcome, 0, len(hrEmails))
	for _, email := range hrEmails {
		roleOutcomes = append(roleOutcomes, h.dispatcher.Send(ctx, notify.Event{
			Channel:      store.ChannelEmail,
			Recipient:    email,
			TemplateSlug: TemplateSlug,
			Data:         data,
		}))
	}
	out["roles"] = roleOutcomes

	return out
}

func (h *Handler) sendWhatsApp(ctx context.Context, input *Input, data map[string]string, summary string, hrPhones []string) map[string]interface{} {
	out := make(map[string]interface{})

	if input.EmployeePhone != "" {
		out["employee"] = h.dispatcher.Send(ctx, notify.Event{
			Channel:      store.ChannelWhatsApp,
			Recipient:    input.EmployeePhone,
			TemplateSlug: TemplateSlug,
			Data:         data,
			Fallback:     summary,
		})
	} else {
		out["employee"] = notify.Outcome{Status: notify.StatusSkipped}
	}

	roleOutcomes := make([]notify.Outcome, 0, len(hrPhones))
	for _, phone := range hrPhones {
		roleOutcomes = append(roleOutcomes, h.dispatcher.Send(ctx, notify.Event{
			Channel:      store.ChannelWhatsApp,
			Recipient:    phone,
			TemplateSlug: TemplateSlug,
			Data:         data,
			Fallback:     summary,
		}))
	}
	out["roles"] = roleOutcomes

	return out
}
