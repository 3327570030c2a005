package store

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Channel identifiers, shared across templates and senders.
const (
	ChannelEmail    = "email"
	ChannelWhatsApp = "whatsapp"
	ChannelTelegram = "telegram"
	ChannelPush     = "push"
)

// Template is a stored notification template. Body and Subject may contain
// {{variable}} placeholders; Variables declares the expected keys but is not
// enforced at write time.
type Template struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Slug      string             `bson:"slug" json:"slug"`
	Channel   string             `bson:"channel" json:"channel"`
	Subject   string             `bson:"subject,omitempty" json:"subject,omitempty"`
	Body      string             `bson:"body" json:"body"`
	Variables []string           `bson:"variables" json:"variables"`
	IsActive  bool               `bson:"isActive" json:"isActive"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Employee is an HR record. DateOfBirth is kept raw because the source data
// carries a mix of datetimes and differently-ordered date strings; the
// birthday trigger owns the parsing heuristics.
type Employee struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AuthUID     string             `bson:"authUid,omitempty" json:"authUid,omitempty"`
	Code        string             `bson:"code,omitempty" json:"code,omitempty"`
	Name        string             `bson:"name" json:"name"`
	Email       string             `bson:"email,omitempty" json:"email,omitempty"`
	Phone       string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Roles       []string           `bson:"roles,omitempty" json:"roles,omitempty"`
	DateOfBirth interface{}        `bson:"dateOfBirth,omitempty" json:"dateOfBirth,omitempty"`
	IsActive    bool               `bson:"isActive" json:"isActive"`
	Status      string             `bson:"status,omitempty" json:"status,omitempty"` // active, on_leave, resigned
	CompanyName string             `bson:"companyName,omitempty" json:"companyName,omitempty"`
}

// User is an auth-provider account document.
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UID      string             `bson:"uid" json:"uid"`
	Name     string             `bson:"name,omitempty" json:"name,omitempty"`
	Email    string             `bson:"email" json:"email"`
	Roles    []string           `bson:"roles,omitempty" json:"roles,omitempty"`
	IsActive bool               `bson:"isActive" json:"isActive"`
}

// Holiday is an announcement source record. EmailSent is the only
// de-duplication guard; there is no lock around the check-then-set, so
// overlapping sweeps can double-send (see DESIGN.md).
type Holiday struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title            string             `bson:"title" json:"title"`
	Date             string             `bson:"date,omitempty" json:"date,omitempty"` // YYYY-MM-DD
	Description      string             `bson:"description,omitempty" json:"description,omitempty"`
	AnnouncementDate time.Time          `bson:"announcementDate" json:"announcementDate"`
	EmailSent        bool               `bson:"emailSent" json:"emailSent"`
	EmailSentAt      *time.Time         `bson:"emailSentAt,omitempty" json:"emailSentAt,omitempty"`
}

// Notice is a site_settings document distinguished from other settings by
// carrying title + announcementDate + isEnabled.
type Notice struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title            string             `bson:"title" json:"title"`
	Content          string             `bson:"content,omitempty" json:"content,omitempty"`
	AnnouncementDate time.Time          `bson:"announcementDate" json:"announcementDate"`
	IsEnabled        bool               `bson:"isEnabled" json:"isEnabled"`
	TargetRoles      []string           `bson:"targetRoles,omitempty" json:"targetRoles,omitempty"`
	EmailSent        bool               `bson:"emailSent" json:"emailSent"`
	EmailSentAt      *time.Time         `bson:"emailSentAt,omitempty" json:"emailSentAt,omitempty"`
}

// CronLog is an append-only audit record, one per scheduled run.
type CronLog struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Job          string             `bson:"job" json:"job"`
	Status       string             `bson:"status" json:"status"` // success, failed
	CheckedCount int                `bson:"checkedCount" json:"checkedCount"`
	SentCount    int                `bson:"sentCount" json:"sentCount"`
	Error        string             `bson:"error,omitempty" json:"error,omitempty"`
	ExecutedAt   time.Time          `bson:"executedAt" json:"executedAt"`
}

// Attendance day flags.
const (
	FlagPresent = "P"
	FlagAbsent  = "A"
	FlagDelayed = "D"
	FlagLeave   = "L"
	FlagVisit   = "V"
)

// AttendanceRecord is one employee-day attendance document.
type AttendanceRecord struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EmployeeID string             `bson:"employeeId" json:"employeeId"`
	Date       string             `bson:"date" json:"date"` // YYYY-MM-DD
	Flag       string             `bson:"flag" json:"flag"`
	InTime     string             `bson:"inTime,omitempty" json:"inTime,omitempty"`
	OutTime    string             `bson:"outTime,omitempty" json:"outTime,omitempty"`
	Location   string             `bson:"location,omitempty" json:"location,omitempty"`
}

// PayrollRecord is one employee-month payroll document.
type PayrollRecord struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EmployeeID  string             `bson:"employeeId" json:"employeeId"`
	MonthYear   string             `bson:"monthYear" json:"monthYear"` // YYYY-MM
	BasicSalary float64            `bson:"basicSalary" json:"basicSalary"`
	NetSalary   float64            `bson:"netSalary" json:"netSalary"`
}
