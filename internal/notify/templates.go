package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"hrms-dispatch/internal/common/logger"
	"hrms-dispatch/internal/store"
)

const templateCacheTTL = 5 * time.Minute

// TemplateStore is the template persistence surface, mockable in tests.
type TemplateStore interface {
	GetTemplate(ctx context.Context, channel, slug string) (*store.Template, error)
	CreateTemplate(ctx context.Context, tpl *store.Template) error
}

// TemplateResolver loads channel templates from the store through a Redis
// read-through cache, and seeds default copy on demand so that a fresh
// database serves the built-in notifications without manual setup.
type TemplateResolver struct {
	store  TemplateStore
	cache  *redis.Client
	logger logger.Logger
}

func NewTemplateResolver(st TemplateStore, cache *redis.Client, log logger.Logger) *TemplateResolver {
	return &TemplateResolver{store: st, cache: cache, logger: log}
}

func templateCacheKey(channel, slug string) string {
	return fmt.Sprintf("tpl:%s:%s", channel, slug)
}

// Resolve returns the active template for channel/slug. Cache failures are
// logged and fall through to the store.
func (r *TemplateResolver) Resolve(ctx context.Context, channel, slug string) (*store.Template, error) {
	key := templateCacheKey(channel, slug)

	if r.cache != nil {
		raw, err := r.cache.Get(ctx, key).Result()
		if err == nil {
			var tpl store.Template
			if jsonErr := json.Unmarshal([]byte(raw), &tpl); jsonErr == nil {
				return &tpl, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			r.logger.Warn("template cache read failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}

	tpl, err := r.store.GetTemplate(ctx, channel, slug)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if raw, jsonErr := json.Marshal(tpl); jsonErr == nil {
			if err := r.cache.Set(ctx, key, raw, templateCacheTTL).Err(); err != nil {
				r.logger.Warn("template cache write failed", map[string]interface{}{
					"key":   key,
					"error": err.Error(),
				})
			}
		}
	}

	return tpl, nil
}

// Ensure creates the template with the given default copy when no active
// template exists yet. Existing templates are left untouched so operator
// edits survive restarts.
func (r *TemplateResolver) Ensure(ctx context.Context, channel, slug, subject, body string, variables []string) error {
	_, err := r.store.GetTemplate(ctx, channel, slug)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	tpl := &store.Template{
		Slug:      slug,
		Channel:   channel,
		Subject:   subject,
		Body:      body,
		Variables: variables,
		IsActive:  true,
	}
	if err := r.store.CreateTemplate(ctx, tpl); err != nil {
		return fmt.Errorf("seed template %s/%s: %w", channel, slug, err)
	}

	r.logger.Info("seeded default template", map[string]interface{}{
		"channel": channel,
		"slug":    slug,
	})
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
