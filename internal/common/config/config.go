// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Channels ChannelsConfig `mapstructure:"channels"`
	Geocode  GeocodeConfig  `mapstructure:"geocode"`
	Reports  ReportsConfig  `mapstructure:"reports"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Mongo         MongoConfig         `mapstructure:"mongo"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
	Timeout  int    `mapstructure:"timeout"` // milliseconds, per-operation default
}

type ElasticsearchConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	Addresses    []string `mapstructure:"addresses"`
	Username     string   `mapstructure:"username"`
	Password     string   `mapstructure:"password"`
	HistoryIndex string   `mapstructure:"history_index"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig holds the two authentication surfaces: the cron bearer secret
// for scheduled triggers and the Redis-backed session scheme for app routes.
type AuthConfig struct {
	CronSecret       string `mapstructure:"cron_secret"`
	SessionKeyPrefix string `mapstructure:"session_key_prefix"`
}

// ChannelsConfig holds settings for each notification transport.
type ChannelsConfig struct {
	AWS      AWSConfig      `mapstructure:"aws"`
	Email    EmailConfig    `mapstructure:"email"`
	Push     PushConfig     `mapstructure:"push"`
	WhatsApp WhatsAppConfig `mapstructure:"whatsapp"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type AWSConfig struct {
	Region string `mapstructure:"region"`
}

type EmailConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	FromEmail string `mapstructure:"from_email"`
	FromName  string `mapstructure:"from_name"`
}

type PushConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	TopicARN string `mapstructure:"topic_arn"`
}

type WhatsAppConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	BaseURL     string `mapstructure:"base_url"`
	PhoneID     string `mapstructure:"phone_id"`
	AccessToken string `mapstructure:"access_token"`
	Timeout     int    `mapstructure:"timeout"` // milliseconds
}

type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BaseURL  string `mapstructure:"base_url"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	Timeout  int    `mapstructure:"timeout"` // milliseconds
}

// GeocodeConfig holds settings for the reverse-geocode lookup used by the
// attendance notify trigger.
type GeocodeConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// ReportsConfig holds settings for the monthly report generator.
type ReportsConfig struct {
	AttendanceBatchSize int `mapstructure:"attendance_batch_size"`
	PayslipBatchSize    int `mapstructure:"payslip_batch_size"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// GetURL returns the first configured Elasticsearch address.
func (e ElasticsearchConfig) GetURL() string {
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

func (m MongoConfig) Validate() error {
	if m.URI == "" {
		return fmt.Errorf("database.mongo.uri is required")
	}
	if m.Database == "" {
		return fmt.Errorf("database.mongo.database is required")
	}
	return nil
}
