// internal/reports/monthly-report/handler_test.go
package monthlyreport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"hrms-dispatch/internal/common/auth"
	"hrms-dispatch/internal/common/config"
	stderrors "hrms-dispatch/internal/common/errors"
	"hrms-dispatch/internal/common/logger"
	"hrms-dispatch/internal/notify"
	"hrms-dispatch/internal/store"
)

// ==========================
// Mock Implementations
// ==========================

type MockSessions struct {
	ValidateFunc func(ctx context.Context, r *http.Request) (*auth.Session, error)
}

func (m *MockSessions) Validate(ctx context.Context, r *http.Request) (*auth.Session, error) {
	return m.ValidateFunc(ctx, r)
}

type MockStore struct {
	ReportEmployeesFunc    func(ctx context.Context, targetEmail string) ([]store.Employee, error)
	AttendanceForMonthFunc func(ctx context.Context, monthYear string) ([]store.AttendanceRecord, error)
	PayrollForMonthFunc    func(ctx context.Context, monthYear string) ([]store.PayrollRecord, error)
}

func (m *MockStore) ReportEmployees(ctx context.Context, targetEmail string) ([]store.Employee, error) {
	return m.ReportEmployeesFunc(ctx, targetEmail)
}

func (m *MockStore) AttendanceForMonth(ctx context.Context, monthYear string) ([]store.AttendanceRecord, error) {
	return m.AttendanceForMonthFunc(ctx, monthYear)
}

func (m *MockStore) PayrollForMonth(ctx context.Context, monthYear string) ([]store.PayrollRecord, error) {
	return m.PayrollForMonthFunc(ctx, monthYear)
}

type MockDispatcher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (m *MockDispatcher) Send(ctx context.Context, ev notify.Event) notify.Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return notify.Outcome{Success: true, Status: notify.StatusSent}
}

func (m *MockDispatcher) byChannel(channel string) []notify.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []notify.Event
	for _, ev := range m.events {
		if ev.Channel == channel {
			out = append(out, ev)
		}
	}
	return out
}

// ==========================
// Test Helper Functions
// ==========================

func validSessions() *MockSessions {
	return &MockSessions{
		ValidateFunc: func(ctx context.Context, r *http.Request) (*auth.Session, error) {
			return &auth.Session{UID: "uid-admin", Roles: []string{"Admin"}}, nil
		},
	}
}

func testReportsConfig() config.ReportsConfig {
	return config.ReportsConfig{AttendanceBatchSize: 5, PayslipBatchSize: 10}
}

func newTestHandler(t *testing.T, st *MockStore) (*Handler, *MockDispatcher) {
	d := &MockDispatcher{}
	h := NewHandler(validSessions(), st, d, testReportsConfig(), logger.NewTestLogger(t))
	return h, d
}

func postRequest(t *testing.T, input Input) *http.Request {
	raw, err := json.Marshal(input)
	require.NoError(t, err)
	r := httptest.NewRequest(http.MethodPost, "/api/reports/monthly", bytes.NewReader(raw))
	r.Header.Set("Authorization", "Bearer session-token")
	return r
}

func fullMonthRecords(empID, monthYear string, days int, flag string) []store.AttendanceRecord {
	records := make([]store.AttendanceRecord, 0, days)
	for day := 1; day <= days; day++ {
		records = append(records, store.AttendanceRecord{
			EmployeeID: empID,
			Date:       fmt.Sprintf("%s-%02d", monthYear, day),
			Flag:       flag,
			InTime:     "09:00",
			OutTime:    "18:00",
		})
	}
	return records
}

// ==========================
// Validation Tests
// ==========================

func TestHandler_Validation(t *testing.T) {
	tests := []struct {
		name   string
		input  Input
		status int
	}{
		{name: "unknown type", input: Input{Type: "timesheet", MonthYear: "2025-01"}, status: http.StatusBadRequest},
		{name: "missing monthYear", input: Input{Type: TypeAttendance}, status: http.StatusBadRequest},
		{name: "bad month format", input: Input{Type: TypeAttendance, MonthYear: "Jan-2025"}, status: http.StatusBadRequest},
		{name: "month out of range", input: Input{Type: TypeAttendance, MonthYear: "2025-13"}, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, d := newTestHandler(t, &MockStore{})

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, postRequest(t, tt.input))

			assert.Equal(t, tt.status, rec.Code)
			assert.Empty(t, d.events)
		})
	}
}

func TestHandler_InvalidSessionIs401(t *testing.T) {
	d := &MockDispatcher{}
	h := NewHandler(&MockSessions{
		ValidateFunc: func(ctx context.Context, r *http.Request) (*auth.Session, error) {
			return nil, stderrors.NewSessionInvalidError("unknown session token")
		},
	}, &MockStore{}, d, testReportsConfig(), logger.NewTestLogger(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, postRequest(t, Input{Type: TypeAttendance, MonthYear: "2025-01"}))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// ==========================
// Attendance Report Tests
// ==========================

func TestHandler_AttendanceFullMonth(t *testing.T) {
	empID := primitive.NewObjectID()
	st := &MockStore{
		ReportEmployeesFunc: func(ctx context.Context, targetEmail string) ([]store.Employee, error) {
			return []store.Employee{{ID: empID, Name: "Ravi", Code: "E001", Email: "ravi@example.com"}}, nil
		},
		AttendanceForMonthFunc: func(ctx context.Context, monthYear string) ([]store.AttendanceRecord, error) {
			return fullMonthRecords(empID.Hex(), "2025-01", 31, store.FlagPresent), nil
		},
	}
	h, d := newTestHandler(t, st)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, postRequest(t, Input{Type: TypeAttendance, MonthYear: "2025-01"}))

	require.Equal(t, http.StatusOK, rec.Code)
	var out Output
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.True(t, out.Success)
	assert.Equal(t, 1, out.Count)

	emails := d.byChannel("email")
	require.Len(t, emails, 1, "exactly one email")
	require.Len(t, emails[0].Attachments, 1, "exactly one PDF attachment")
	assert.Equal(t, "application/pdf", emails[0].Attachments[0].ContentType)
	assert.NotEmpty(t, emails[0].Attachments[0].Content)

	assert.Empty(t, d.byChannel("whatsapp"), "no phone, no whatsapp")
}

func TestAttendanceDays_Tally(t *testing.T) {
	empID := primitive.NewObjectID()
	emp := store.Employee{ID: empID, Name: "Ravi"}

	records := []store.AttendanceRecord{
		{EmployeeID: empID.Hex(), Date: "2025-02-01", Flag: store.FlagPresent},
		{EmployeeID: empID.Hex(), Date: "2025-02-02", Flag: store.FlagDelayed},
		{EmployeeID: empID.Hex(), Date: "2025-02-03", Flag: store.FlagLeave},
		{EmployeeID: empID.Hex(), Date: "2025-02-04", Flag: store.FlagVisit},
		{EmployeeID: empID.Hex(), Date: "2025-02-05", Flag: store.FlagAbsent},
		{EmployeeID: "someone-else", Date: "2025-02-06", Flag: store.FlagPresent},
	}

	days, stats := attendanceDays(emp, "2025-02", records)

	assert.Len(t, days, 28)
	assert.Equal(t, 1, stats.Present)
	assert.Equal(t, 1, stats.Delayed)
	assert.Equal(t, 1, stats.Leave)
	assert.Equal(t, 1, stats.Visit)
	assert.Equal(t, 1, stats.Absent)
}

func TestHandler_AttendanceBatchesCoverAllEmployees(t *testing.T) {
	employees := make([]store.Employee, 12)
	for i := range employees {
		employees[i] = store.Employee{
			ID:    primitive.NewObjectID(),
			Name:  "Emp",
			Email: "emp@example.com",
		}
	}
	st := &MockStore{
		ReportEmployeesFunc: func(ctx context.Context, targetEmail string) ([]store.Employee, error) {
			return employees, nil
		},
		AttendanceForMonthFunc: func(ctx context.Context, monthYear string) ([]store.AttendanceRecord, error) {
			return nil, nil
		},
	}
	h, d := newTestHandler(t, st)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, postRequest(t, Input{Type: TypeAttendance, MonthYear: "2025-01"}))

	require.Equal(t, http.StatusOK, rec.Code)
	var out Output
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, 12, out.Count)
	assert.Len(t, d.byChannel("email"), 12)
}

// ==========================
// Payslip Report Tests
// ==========================

func TestHandler_PayslipSummaries(t *testing.T) {
	withPayroll := primitive.NewObjectID()
	without := primitive.NewObjectID()
	st := &MockStore{
		ReportEmployeesFunc: func(ctx context.Context, targetEmail string) ([]store.Employee, error) {
			return []store.Employee{
				{ID: withPayroll, Name: "Ravi", Email: "ravi@example.com", Phone: "919900112233"},
				{ID: without, Name: "Meena", Email: "meena@example.com"},
			}, nil
		},
		PayrollForMonthFunc: func(ctx context.Context, monthYear string) ([]store.PayrollRecord, error) {
			return []store.PayrollRecord{
				{EmployeeID: withPayroll.Hex(), MonthYear: "2025-01", BasicSalary: 50000, NetSalary: 46500},
			}, nil
		},
	}
	h, d := newTestHandler(t, st)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, postRequest(t, Input{Type: TypePayslip, MonthYear: "2025-01"}))

	require.Equal(t, http.StatusOK, rec.Code)
	var out Output
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, 1, out.Count, "employee without payroll record is not counted")

	emails := d.byChannel("email")
	require.Len(t, emails, 1)
	assert.Empty(t, emails[0].Attachments, "payslip carries no attachment")
	assert.Contains(t, emails[0].Body, "46500.00")

	whatsapps := d.byChannel("whatsapp")
	require.Len(t, whatsapps, 1)
	assert.Contains(t, whatsapps[0].Body, "net 46500.00")
}

func TestHandler_TargetEmailForwarded(t *testing.T) {
	var gotTarget string
	st := &MockStore{
		ReportEmployeesFunc: func(ctx context.Context, targetEmail string) ([]store.Employee, error) {
			gotTarget = targetEmail
			return nil, nil
		},
		PayrollForMonthFunc: func(ctx context.Context, monthYear string) ([]store.PayrollRecord, error) {
			return nil, nil
		},
	}
	h, _ := newTestHandler(t, st)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, postRequest(t, Input{Type: TypePayslip, MonthYear: "2025-01", TargetEmail: "ravi@example.com"}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ravi@example.com", gotTarget)
}
