// internal/triggers/announcements/handler_test.go
package announcements

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"hrms-dispatch/internal/common/logger"
	"hrms-dispatch/internal/notify"
	"hrms-dispatch/internal/store"
)

// ==========================
// Mock Implementations
// ==========================

type MockStore struct {
	DueUnsentHolidaysFunc    func(ctx context.Context, now time.Time) ([]store.Holiday, error)
	DueUnsentNoticesFunc     func(ctx context.Context, now time.Time) ([]store.Notice, error)
	ActiveEmployeesFunc      func(ctx context.Context) ([]store.Employee, error)
	MarkHolidayEmailSentFunc func(ctx context.Context, id primitive.ObjectID) error
	MarkNoticeEmailSentFunc  func(ctx context.Context, id primitive.ObjectID) error
	InsertCronLogFunc        func(ctx context.Context, entry *store.CronLog) error
}

func (m *MockStore) DueUnsentHolidays(ctx context.Context, now time.Time) ([]store.Holiday, error) {
	return m.DueUnsentHolidaysFunc(ctx, now)
}

func (m *MockStore) DueUnsentNotices(ctx context.Context, now time.Time) ([]store.Notice, error) {
	return m.DueUnsentNoticesFunc(ctx, now)
}

func (m *MockStore) ActiveEmployees(ctx context.Context) ([]store.Employee, error) {
	return m.ActiveEmployeesFunc(ctx)
}

func (m *MockStore) MarkHolidayEmailSent(ctx context.Context, id primitive.ObjectID) error {
	return m.MarkHolidayEmailSentFunc(ctx, id)
}

func (m *MockStore) MarkNoticeEmailSent(ctx context.Context, id primitive.ObjectID) error {
	return m.MarkNoticeEmailSentFunc(ctx, id)
}

func (m *MockStore) InsertCronLog(ctx context.Context, entry *store.CronLog) error {
	return m.InsertCronLogFunc(ctx, entry)
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

type MockSeeder struct{}

func (MockSeeder) Ensure(ctx context.Context, channel, slug, subject, body string, variables []string) error {
	return nil
}

type MockRoles struct {
	EmailsByRolesFunc func(ctx context.Context, roles []string) []string
}

func (m *MockRoles) EmailsByRoles(ctx context.Context, roles []string) []string {
	return m.EmailsByRolesFunc(ctx, roles)
}

// ==========================
// Test Helper Functions
// ==========================

const testSecret = "cron-secret-123"

func emptyStore() *MockStore {
	return &MockStore{
		DueUnsentHolidaysFunc: func(ctx context.Context, now time.Time) ([]store.Holiday, error) {
			return nil, nil
		},
		DueUnsentNoticesFunc: func(ctx context.Context, now time.Time) ([]store.Notice, error) {
			return nil, nil
		},
		ActiveEmployeesFunc: func(ctx context.Context) ([]store.Employee, error) {
			return nil, nil
		},
		MarkHolidayEmailSentFunc: func(ctx context.Context, id primitive.ObjectID) error { return nil },
		MarkNoticeEmailSentFunc:  func(ctx context.Context, id primitive.ObjectID) error { return nil },
		InsertCronLogFunc:        func(ctx context.Context, entry *store.CronLog) error { return nil },
	}
}

func noRoles() *MockRoles {
	return &MockRoles{
		EmailsByRolesFunc: func(ctx context.Context, roles []string) []string { return nil },
	}
}

func newTestHandler(t *testing.T, st *MockStore, roles *MockRoles) (*Handler, *MockDispatcher) {
	d := &MockDispatcher{}
	h := NewHandler(testSecret, st, d, MockSeeder{}, roles, logger.NewTestLogger(t))
	return h, d
}

func cronRequest() *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/cron/announcements", nil)
	r.Header.Set("Authorization", "Bearer "+testSecret)
	return r
}

func decodeOutput(t *testing.T, rec *httptest.ResponseRecorder) Output {
	var out Output
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// ==========================
// Holiday Pass Tests
// ==========================

func TestHandler_HolidayFanOutAndMark(t *testing.T) {
	holidayID := primitive.NewObjectID()
	var marked []primitive.ObjectID

	st := emptyStore()
	st.DueUnsentHolidaysFunc = func(ctx context.Context, now time.Time) ([]store.Holiday, error) {
		return []store.Holiday{{ID: holidayID, Title: "Diwali", Date: "2025-10-20"}}, nil
	}
	st.ActiveEmployeesFunc = func(ctx context.Context) ([]store.Employee, error) {
		return []store.Employee{
			{Name: "Ravi", Email: "ravi@example.com", Phone: "919900112233"},
			{Name: "Meena", Email: "meena@example.com"},
			{Name: "NoContact"},
		}, nil
	}
	st.MarkHolidayEmailSentFunc = func(ctx context.Context, id primitive.ObjectID) error {
		marked = append(marked, id)
		return nil
	}

	h, d := newTestHandler(t, st, noRoles())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, cronRequest())

	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeOutput(t, rec)
	assert.True(t, out.Success)
	assert.Equal(t, 1, out.ProcessedCount)

	assert.Len(t, d.byChannel("email"), 2)
	assert.Len(t, d.byChannel("whatsapp"), 1)
	assert.Empty(t, d.byChannel("push"))
	assert.Equal(t, []primitive.ObjectID{holidayID}, marked)
}

func TestHandler_HolidayMarkedDespiteRecipientFailures(t *testing.T) {
	holidayID := primitive.NewObjectID()
	marked := false

	st := emptyStore()
	st.DueUnsentHolidaysFunc = func(ctx context.Context, now time.Time) ([]store.Holiday, error) {
		return []store.Holiday{{ID: holidayID, Title: "Diwali"}}, nil
	}
	st.ActiveEmployeesFunc = func(ctx context.Context) ([]store.Employee, error) {
		return []store.Employee{{Name: "Ravi", Email: "ravi@example.com"}}, nil
	}
	st.MarkHolidayEmailSentFunc = func(ctx context.Context, id primitive.ObjectID) error {
		marked = true
		return nil
	}

	d := &failingDispatcher{}
	h := NewHandler(testSecret, st, d, MockSeeder{}, noRoles(), logger.NewTestLogger(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, cronRequest())

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decodeOutput(t, rec).ProcessedCount)
	assert.True(t, marked, "sent flag set even when every send failed")
}

type failingDispatcher struct{}

func (failingDispatcher) Send(ctx context.Context, ev notify.Event) notify.Outcome {
	return notify.Outcome{Status: notify.StatusError, Error: "provider down"}
}

func TestHandler_MarkFailureLeavesRecordForRetry(t *testing.T) {
	st := emptyStore()
	st.DueUnsentHolidaysFunc = func(ctx context.Context, now time.Time) ([]store.Holiday, error) {
		return []store.Holiday{
			{ID: primitive.NewObjectID(), Title: "Broken"},
			{ID: primitive.NewObjectID(), Title: "Fine"},
		}, nil
	}
	st.ActiveEmployeesFunc = func(ctx context.Context) ([]store.Employee, error) {
		return []store.Employee{{Name: "Ravi", Email: "ravi@example.com"}}, nil
	}
	calls := 0
	st.MarkHolidayEmailSentFunc = func(ctx context.Context, id primitive.ObjectID) error {
		calls++
		if calls == 1 {
			return errors.New("write conflict")
		}
		return nil
	}

	h, _ := newTestHandler(t, st, noRoles())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, cronRequest())

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decodeOutput(t, rec).ProcessedCount,
		"failed record is skipped, sweep continues")
}

// ==========================
// Notice Pass Tests
// ==========================

func TestHandler_NoticeBroadcastAndRoleEmails(t *testing.T) {
	noticeID := primitive.NewObjectID()
	var marked bool
	var requestedRoles []string

	st := emptyStore()
	st.DueUnsentNoticesFunc = func(ctx context.Context, now time.Time) ([]store.Notice, error) {
		return []store.Notice{{
			ID:          noticeID,
			Title:       "Townhall",
			Content:     "All hands on Friday",
			TargetRoles: []string{"HR", "Admin"},
		}}, nil
	}
	st.MarkNoticeEmailSentFunc = func(ctx context.Context, id primitive.ObjectID) error {
		marked = true
		return nil
	}

	roles := &MockRoles{
		EmailsByRolesFunc: func(ctx context.Context, r []string) []string {
			requestedRoles = r
			return []string{"hr@example.com", "admin@example.com"}
		},
	}

	h, d := newTestHandler(t, st, roles)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, cronRequest())

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decodeOutput(t, rec).ProcessedCount)

	assert.Len(t, d.byChannel("push"), 1, "one broadcast push")
	assert.Len(t, d.byChannel("email"), 2)
	assert.Equal(t, []string{"HR", "Admin"}, requestedRoles)
	assert.True(t, marked)
}

func TestHandler_SecondSweepSendsNothing(t *testing.T) {
	// After the first sweep marks records, the store queries return nothing.
	h, d := newTestHandler(t, emptyStore(), noRoles())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, cronRequest())

	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeOutput(t, rec)
	assert.True(t, out.Success)
	assert.Equal(t, 0, out.ProcessedCount)
	assert.Empty(t, d.events)
}

func TestHandler_HolidayQueryFailureIs500(t *testing.T) {
	var logged *store.CronLog
	st := emptyStore()
	st.DueUnsentHolidaysFunc = func(ctx context.Context, now time.Time) ([]store.Holiday, error) {
		return nil, errors.New("server selection timeout")
	}
	st.InsertCronLogFunc = func(ctx context.Context, entry *store.CronLog) error {
		logged = entry
		return nil
	}

	h, _ := newTestHandler(t, st, noRoles())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, cronRequest())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotNil(t, logged)
	assert.Equal(t, "failed", logged.Status)
}

func TestHandler_AuthRequired(t *testing.T) {
	h, d := newTestHandler(t, emptyStore(), noRoles())

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/cron/announcements", nil)
	h.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, d.events)
}
