// internal/reports/monthly-report/handler.go
package monthlyreport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"sync"
	"time"

	"hrms-dispatch/internal/common/config"
	"hrms-dispatch/internal/common/errors"
	"hrms-dispatch/internal/common/logger"
	"hrms-dispatch/internal/common/metrics"
	"hrms-dispatch/internal/notify"
	"hrms-dispatch/internal/store"
)

var monthYearPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// Handler generates and dispatches per-employee monthly reports. Employees
// are processed in fixed-size batches: sends within a batch run concurrently,
// batches run sequentially, which bounds in-flight transport calls.
type Handler struct {
	sessions   SessionValidator
	store      Store
	dispatcher Dispatcher
	cfg        config.ReportsConfig
	logger     logger.Logger
}

func NewHandler(sessions SessionValidator, st Store, d Dispatcher, cfg config.ReportsConfig, log logger.Logger) *Handler {
	return &Handler{
		sessions:   sessions,
		store:      st,
		dispatcher: d,
		cfg:        cfg,
		logger:     log.WithFields(map[string]interface{}{"trigger": "monthly-report"}),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, err := h.sessions.Validate(ctx, r); err != nil {
		errors.WriteHTTP(w, err)
		return
	}

	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		errors.WriteHTTP(w, errors.NewValidationFailedError("malformed JSON body"))
		return
	}

	if input.Type != TypeAttendance && input.Type != TypePayslip {
		errors.WriteHTTP(w, errors.NewInvalidReportTypeError(input.Type))
		return
	}
	if !monthYearPattern.MatchString(input.MonthYear) {
		errors.WriteHTTP(w, errors.NewInvalidMonthFormatError(input.MonthYear))
		return
	}

	start := time.Now()
	count, err := h.execute(ctx, &input)
	metrics.TriggerDuration.WithLabelValues("monthly-report").Observe(time.Since(start).Seconds())

	if err != nil {
		h.logger.Error("report run failed", map[string]interface{}{
			"type":      input.Type,
			"monthYear": input.MonthYear,
			"error":     err.Error(),
		})
		errors.WriteHTTP(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(Output{Success: true, Count: count})
}

func (h *Handler) execute(ctx context.Context, input *Input) (int, error) {
	employees, err := h.store.ReportEmployees(ctx, input.TargetEmail)
	if err != nil {
		return 0, errors.NewStoreQueryFailedError("employees", err)
	}

	switch input.Type {
	case TypeAttendance:
		records, err := h.store.AttendanceForMonth(ctx, input.MonthYear)
		if err != nil {
			return 0, errors.NewStoreQueryFailedError("attendance_records", err)
		}
		return h.runBatches(ctx, employees, h.batchSize(TypeAttendance), func(ctx context.Context, emp store.Employee) bool {
			return h.processAttendance(ctx, emp, input.MonthYear, records)
		}), nil

	default:
		records, err := h.store.PayrollForMonth(ctx, input.MonthYear)
		if err != nil {
			return 0, errors.NewStoreQueryFailedError("payroll_records", err)
		}
		return h.runBatches(ctx, employees, h.batchSize(TypePayslip), func(ctx context.Context, emp store.Employee) bool {
			return h.processPayslip(ctx, emp, input.MonthYear, records)
		}), nil
	}
}

func (h *Handler) batchSize(reportType string) int {
	size := h.cfg.AttendanceBatchSize
	if reportType == TypePayslip {
		size = h.cfg.PayslipBatchSize
	}
	if size <= 0 {
		size = 5
	}
	return size
}

// runBatches walks employees in fixed-size batches. Each batch member runs
// on its own goroutine; the next batch starts only when the previous one has
// fully drained.
func (h *Handler) runBatches(ctx context.Context, employees []store.Employee, size int, process func(context.Context, store.Employee) bool) int {
	var mu sync.Mutex
	count := 0

	for start := 0; start < len(employees); start += size {
		end := start + size
		if end > len(employees) {
			end = len(employees)
		}

		var wg sync.WaitGroup
		for _, emp := range employees[start:end] {
			wg.Add(1)
			go func(emp store.Employee) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						h.logger.Error("report generation panicked", map[string]interface{}{
							"employee": emp.Name,
							"panic":    fmt.Sprintf("%v", r),
						})
					}
				}()

				if process(ctx, emp) {
					mu.Lock()
					count++
					mu.Unlock()
				}
			}(emp)
		}
		wg.Wait()
	}

	return count
}

type dayEntry struct {
	date     string
	flag     string
	inTime   string
	outTime  string
	location string
}

// attendanceDays builds the per-day view for one employee: every day of the
// month, with that employee's record located by linear scan.
func attendanceDays(emp store.Employee, monthYear string, records []store.AttendanceRecord) ([]dayEntry, AttendanceStats) {
	first, _ := time.Parse("2006-01", monthYear)
	daysInMonth := first.AddDate(0, 1, -1).Day()

	days := make([]dayEntry, 0, daysInMonth)
	var stats AttendanceStats
	empID := emp.ID.Hex()

	for day := 1; day <= daysInMonth; day++ {
		date := fmt.Sprintf("%s-%02d", monthYear, day)
		entry := dayEntry{date: date}

		for _, rec := range records {
			if rec.EmployeeID != empID || rec.Date != date {
				continue
			}
			entry.flag = rec.Flag
			entry.inTime = rec.InTime
			entry.outTime = rec.OutTime
			entry.location = rec.Location
			break
		}

		switch entry.flag {
		case store.FlagPresent:
			stats.Present++
		case store.FlagAbsent:
			stats.Absent++
		case store.FlagDelayed:
			stats.Delayed++
		case store.FlagLeave:
			stats.Leave++
		case store.FlagVisit:
			stats.Visit++
		}

		days = append(days, entry)
	}

	return days, stats
}

// processAttendance renders the PDF, emails it and sends the WhatsApp text
// summary. The two channel sends run concurrently with each other. Returns
// whether at least one channel delivered.
func (h *Handler) processAttendance(ctx context.Context, emp store.Employee, monthYear string, records []store.AttendanceRecord) bool {
	days, stats := attendanceDays(emp, monthYear, records)

	summary := fmt.Sprintf(
		"Attendance %s for %s: present %d, absent %d, delayed %d, leave %d, visit %d",
		monthYear, emp.Name, stats.Present, stats.Absent, stats.Delayed, stats.Leave, stats.Visit,
	)

	var pdfData []byte
	if emp.Email != "" {
		var err error
		pdfData, err = renderAttendancePDF(emp, monthYear, days, stats)
		if err != nil {
			h.logger.Error("pdf render failed", map[string]interface{}{
				"employee": emp.Name,
				"error":    err.Error(),
			})
			return false
		}
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	delivered := false

	if emp.Email != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome := h.dispatcher.Send(ctx, notify.Event{
				Channel:   store.ChannelEmail,
				Recipient: emp.Email,
				Subject:   fmt.Sprintf("Attendance Report %s", monthYear),
				Body:      fmt.Sprintf("<p>Dear %s,</p><p>Your attendance report for %s is attached.</p>", emp.Name, monthYear),
				Attachments: []notify.Attachment{{
					Filename:    fmt.Sprintf("attendance-%s.pdf", monthYear),
					ContentType: "application/pdf",
					Content:     pdfData,
				}},
			})
			if outcome.Status == notify.StatusSent {
				mu.Lock()
				delivered = true
				mu.Unlock()
			}
		}()
	}

	if emp.Phone != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome := h.dispatcher.Send(ctx, notify.Event{
				Channel:   store.ChannelWhatsApp,
				Recipient: emp.Phone,
				Body:      summary,
			})
			if outcome.Status == notify.StatusSent {
				mu.Lock()
				delivered = true
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	if delivered {
		metrics.ReportsGenerated.WithLabelValues(TypeAttendance).Inc()
	}
	return delivered
}

// processPayslip sends the short salary summary, no attachment.
func (h *Handler) processPayslip(ctx context.Context, emp store.Employee, monthYear string, records []store.PayrollRecord) bool {
	empID := emp.ID.Hex()
	var payroll *store.PayrollRecord
	for i := range records {
		if records[i].EmployeeID == empID {
			payroll = &records[i]
			break
		}
	}
	if payroll == nil {
		h.logger.Warn("no payroll record", map[string]interface{}{
			"employee":  emp.Name,
			"monthYear": monthYear,
		})
		return false
	}

	summary := fmt.Sprintf(
		"Payslip %s for %s: basic %.2f, net %.2f",
		monthYear, emp.Name, payroll.BasicSalary, payroll.NetSalary,
	)

	delivered := false

	if emp.Email != "" {
		outcome := h.dispatcher.Send(ctx, notify.Event{
			Channel:   store.ChannelEmail,
			Recipient: emp.Email,
			Subject:   fmt.Sprintf("Payslip %s", monthYear),
			Body: fmt.Sprintf(
				"<p>Dear %s,</p><p>Your payslip for %s: basic salary %.2f, net salary %.2f.</p>",
				emp.Name, monthYear, payroll.BasicSalary, payroll.NetSalary,
			),
		})
		delivered = delivered || outcome.Status == notify.StatusSent
	}

	if emp.Phone != "" {
		outcome := h.dispatcher.Send(ctx, notify.Event{
			Channel:   store.ChannelWhatsApp,
			Recipient: emp.Phone,
			Body:      summary,
		})
		delivered = delivered || outcome.Status == notify.StatusSent
	}

	if delivered {
		metrics.ReportsGenerated.WithLabelValues(TypePayslip).Inc()
	}
	return delivered
}
