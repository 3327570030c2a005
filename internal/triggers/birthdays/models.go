// internal/triggers/birthdays/models.go
package birthdays

import (
	"context"

	"hrms-dispatch/internal/notify"
	"hrms-dispatch/internal/store"
)

const (
	JobName      = "daily-birthdays"
	TemplateSlug = "birthday-wish"
)

type Output struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	SentCount int    `json:"sentCount"`
}

// Store is the persistence surface this trigger needs, mockable in tests.
type Store interface {
	ActiveEmployees(ctx context.Context) ([]store.Employee, error)
	InsertCronLog(ctx context.Context, entry *store.CronLog) error
}

// Dispatcher routes one event to its channel sender.
type Dispatcher interface {
	Send(ctx context.Context, ev notify.Event) notify.Outcome
}

// Seeder creates default template copy when none exists yet.
type Seeder interface {
	Ensure(ctx context.Context, channel, slug, subject, body string, variables []string) error
}
