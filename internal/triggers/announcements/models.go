// internal/triggers/announcements/models.go
package announcements

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"hrms-dispatch/internal/notify"
	"hrms-dispatch/internal/store"
)

const (
	JobName = "announcements"

	HolidayTemplateSlug = "holiday-announcement"
	NoticeTemplateSlug  = "notice-announcement"
)

type Output struct {
	Success        bool `json:"success"`
	ProcessedCount int  `json:"processedCount"`
}

// Store is the persistence surface the sweep needs, mockable in tests.
type Store interface {
	DueUnsentHolidays(ctx context.Context, now time.Time) ([]store.Holiday, error)
	DueUnsentNotices(ctx context.Context, now time.Time) ([]store.Notice, error)
	ActiveEmployees(ctx context.Context) ([]store.Employee, error)
	MarkHolidayEmailSent(ctx context.Context, id primitive.ObjectID) error
	MarkNoticeEmailSent(ctx context.Context, id primitive.ObjectID) error
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

// RoleResolver maps role names to email recipients.
type RoleResolver interface {
	EmailsByRoles(ctx context.Context, roles []string) []string
}
