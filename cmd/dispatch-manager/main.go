// cmd/dispatch-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"hrms-dispatch/internal/common/auth"
	"hrms-dispatch/internal/common/aws"
	"hrms-dispatch/internal/common/config"
	"hrms-dispatch/internal/common/database"
	commonhttp "hrms-dispatch/internal/common/http"
	"hrms-dispatch/internal/common/logger"
	"hrms-dispatch/internal/common/observability"
	"hrms-dispatch/internal/notify"
	monthlyreport "hrms-dispatch/internal/reports/monthly-report"
	"hrms-dispatch/internal/store"
	"hrms-dispatch/internal/triggers/announcements"
	"hrms-dispatch/internal/triggers/attendance"
	"hrms-dispatch/internal/triggers/birthdays"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting dispatch manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init MongoDB with retry ---
	var mongoClient *database.MongoClient
	err = retryWithBackoff(func() error {
		var err error
		mongoClient, err = database.NewMongo(ctx, cfg.Database.Mongo)
		if err != nil {
			return err
		}
		return mongoClient.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "MongoDB connection")
	if err != nil {
		zapLog.Fatal("mongodb failed after retries", zap.Error(err))
	}
	defer mongoClient.Close(ctx)
	zapLog.Info("MongoDB connected successfully")

	// --- Init Redis with retry ---
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redisClient.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch with retry (optional, audit index only) ---
	var esClient *database.ElasticsearchClient
	if cfg.Database.Elasticsearch.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Init AWS clients ---
	awsClients, err := aws.NewClients(ctx, cfg.Channels.AWS.Region)
	if err != nil {
		zapLog.Fatal("aws client initialization failed", zap.Error(err))
	}
	zapLog.Info("AWS clients initialized")

	// --- Assemble dispatch components ---
	st := store.New(mongoClient, config.GetDuration(cfg.Database.Mongo.Timeout), log)
	resolver := notify.NewTemplateResolver(st, redisClient.Client, log)
	recipients := notify.NewRecipients(st, log)
	sessions := auth.NewSessionStore(redisClient.Client, cfg.Auth.SessionKeyPrefix)

	history := notify.NewHistory(esClient, cfg.Database.Elasticsearch.HistoryIndex, log)

	waClient := commonhttp.NewClient(config.GetDuration(cfg.Channels.WhatsApp.Timeout))
	tgClient := commonhttp.NewClient(config.GetDuration(cfg.Channels.Telegram.Timeout))
	geoClient := commonhttp.NewClient(config.GetDuration(cfg.Geocode.Timeout))

	dispatcher := notify.NewDispatcher(history, log,
		notify.NewEmailSender(awsClients.SES, resolver, cfg.Channels.Email, log),
		notify.NewWhatsAppSender(waClient, resolver, cfg.Channels.WhatsApp, log),
		notify.NewTelegramSender(tgClient, resolver, cfg.Channels.Telegram, log),
		notify.NewPushSender(awsClients.SNS, resolver, cfg.Channels.Push, log),
	)

	geocoder := attendance.NewGeocoder(geoClient, cfg.Geocode)

	// --- Routes ---
	router := mux.NewRouter()
	router.Use(observabilityMiddleware(obs))
	router.Handle("/api/cron/daily-birthdays",
		birthdays.NewHandler(cfg.Auth.CronSecret, st, dispatcher, resolver, log)).Methods(http.MethodGet)
	router.Handle("/api/cron/announcements",
		announcements.NewHandler(cfg.Auth.CronSecret, st, dispatcher, resolver, recipients, log)).Methods(http.MethodGet)
	router.Handle("/api/notify/attendance",
		attendance.NewHandler(sessions, st, dispatcher, recipients, geocoder, log)).Methods(http.MethodPost)
	router.Handle("/api/reports/monthly",
		monthlyreport.NewHandler(sessions, st, dispatcher, cfg.Reports, log)).Methods(http.MethodPost)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	}).Methods(http.MethodGet)

	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := mongoClient.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "degraded", "error": err.Error()})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"status": "ready",
			"time":   time.Now().Format(time.RFC3339),
		})
	}).Methods(http.MethodGet)

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http server shutdown failed", zap.Error(err))
	}

	zapLog.Info("Dispatch manager stopped gracefully")
}

// observabilityMiddleware records per-route processed counts and durations.
func observabilityMiddleware(obs *observability.Observability) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			route := r.URL.Path
			if cur := mux.CurrentRoute(r); cur != nil {
				if tpl, err := cur.GetPathTemplate(); err == nil {
					route = tpl
				}
			}

			status := "success"
			if sw.status >= http.StatusBadRequest {
				status = "error"
			}
			obs.RecordTriggerProcessed(r.Context(), route, status)
			obs.RecordTriggerDuration(r.Context(), route, time.Since(start))
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
