// Package store is the document-store boundary. Every stored entity is
// decoded into a typed model here so the rest of the service never handles
// raw documents.
package store

import (
	"errors"
	"time"

	"hrms-dispatch/internal/common/database"
	"hrms-dispatch/internal/common/logger"

	"go.mongodb.org/mongo-driver/mongo"
)

// Collection names.
const (
	ColEmployees         = "employees"
	ColUsers             = "users"
	ColHolidays          = "holidays"
	ColSiteSettings      = "site_settings"
	ColCronLogs          = "cron_logs"
	ColAttendanceRecords = "attendance_records"
	ColPayrollRecords    = "payroll_records"

	ColEmailTemplates    = "email_templates"
	ColWhatsAppTemplates = "whatsapp_templates"
	ColTelegramTemplates = "telegram_templates"
	ColPushTemplates     = "push_templates"
)

// ErrNotFound is returned when a single-document lookup matches nothing.
var ErrNotFound = errors.New("document not found")

// Store provides typed access to the collections the dispatch subsystem
// touches. It only reads domain records and flips their sent flags; the CRUD
// flows that create them live elsewhere.
type Store struct {
	db      *database.MongoClient
	timeout time.Duration
	logger  logger.Logger
}

func New(db *database.MongoClient, timeout time.Duration, log logger.Logger) *Store {
	return &Store{
		db:      db,
		timeout: timeout,
		logger:  log.WithFields(map[string]interface{}{"component": "store"}),
	}
}

func (s *Store) collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// templateCollection maps a channel to its template collection. Template
// identity is (channel, slug); the per-channel collections keep slugs unique
// per channel.
func templateCollection(channel string) string {
	switch channel {
	case ChannelWhatsApp:
		return ColWhatsAppTemplates
	case ChannelTelegram:
		return ColTelegramTemplates
	case ChannelPush:
		return ColPushTemplates
	default:
		return ColEmailTemplates
	}
}
