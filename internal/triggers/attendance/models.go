// internal/triggers/attendance/models.go
package attendance

import (
	"context"
	"net/http"

	"hrms-dispatch/internal/common/auth"
	"hrms-dispatch/internal/notify"
	"hrms-dispatch/internal/store"
)

const TemplateSlug = "attendance-notification"

// Event types accepted by the route.
const (
	TypeInTime   = "in_time"
	TypeOutTime  = "out_time"
	TypeCheckIn  = "check_in"
	TypeCheckOut = "check_out"
)

var typeLabels = map[string]string{
	TypeInTime:   "checked in",
	TypeOutTime:  "checked out",
	TypeCheckIn:  "checked in for a visit",
	TypeCheckOut: "checked out from a visit",
}

// inputSchema rejects requests missing the required fields or carrying an
// unknown event type.
var inputSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"type", "employeeId", "employeeName", "time"},
	"properties": map[string]interface{}{
		"type": map[string]interface{}{
			"type": "string",
			"enum": []interface{}{TypeInTime, TypeOutTime, TypeCheckIn, TypeCheckOut},
		},
		"employeeId":   map[string]interface{}{"type": "string", "minLength": 1},
		"employeeName": map[string]interface{}{"type": "string", "minLength": 1},
		"time":         map[string]interface{}{"type": "string", "minLength": 1},
	},
}

type Location struct {
	Address   string  `json:"address,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

type Input struct {
	Type          string    `json:"type"`
	EmployeeID    string    `json:"employeeId"`
	EmployeeName  string    `json:"employeeName"`
	EmployeeCode  string    `json:"employeeCode,omitempty"`
	EmployeeEmail string    `json:"employeeEmail,omitempty"`
	EmployeePhone string    `json:"employeePhone,omitempty"`
	Time          string    `json:"time"`
	Date          string    `json:"date,omitempty"`
	Flag          string    `json:"flag,omitempty"`
	Location      *Location `json:"location,omitempty"`
	CompanyName   string    `json:"companyName,omitempty"`
	Remarks       string    `json:"remarks,omitempty"`
	PhotoURL      string    `json:"photoUrl,omitempty"`
}

type Output struct {
	Success       bool                   `json:"success"`
	Message       string                 `json:"message"`
	Type          string                 `json:"type"`
	Notifications map[string]interface{} `json:"notifications"`
}

// Store is the persistence surface the trigger needs, mockable in tests.
type Store interface {
	EmployeeByID(ctx context.Context, id string) (*store.Employee, error)
}

// Dispatcher routes events; SendDetached is the fire-and-forget path whose
// outcome is logged but never returned to the caller.
type Dispatcher interface {
	Send(ctx context.Context, ev notify.Event) notify.Outcome
	SendDetached(ev notify.Event)
}

// RoleResolver maps role names to contact lists.
type RoleResolver interface {
	EmailsByRoles(ctx context.Context, roles []string) []string
	PhonesByRoles(ctx context.Context, roles []string) []string
}

// SessionValidator authenticates app bearer tokens.
type SessionValidator interface {
	Validate(ctx context.Context, r *http.Request) (*auth.Session, error)
}

// AddressResolver turns coordinates into a display address.
type AddressResolver interface {
	Reverse(ctx context.Context, lat, lng float64) (string, error)
}
