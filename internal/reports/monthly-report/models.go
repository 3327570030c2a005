// internal/reports/monthly-report/models.go
package monthlyreport

import (
	"context"
	"net/http"

	"hrms-dispatch/internal/common/auth"
	"hrms-dispatch/internal/notify"
	"hrms-dispatch/internal/store"
)

// Report types.
const (
	TypeAttendance = "attendance"
	TypePayslip    = "payslip"
)

type Input struct {
	Type        string `json:"type"`
	MonthYear   string `json:"monthYear"` // YYYY-MM
	TargetEmail string `json:"targetEmail,omitempty"`
}

type Output struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
}

// AttendanceStats is the per-employee monthly tally.
type AttendanceStats struct {
	Present int
	Absent  int
	Delayed int
	Leave   int
	Visit   int
}

// Store is the persistence surface the generator needs, mockable in tests.
type Store interface {
	ReportEmployees(ctx context.Context, targetEmail string) ([]store.Employee, error)
	AttendanceForMonth(ctx context.Context, monthYear string) ([]store.AttendanceRecord, error)
	PayrollForMonth(ctx context.Context, monthYear string) ([]store.PayrollRecord, error)
}

// Dispatcher routes one event to its channel sender.
type Dispatcher interface {
	Send(ctx context.Context, ev notify.Event) notify.Outcome
}

// SessionValidator authenticates app bearer tokens.
type SessionValidator interface {
	Validate(ctx context.Context, r *http.Request) (*auth.Session, error)
}
