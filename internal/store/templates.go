package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// GetTemplate fetches the active template for (channel, slug).
func (s *Store) GetTemplate(ctx context.Context, channel, slug string) (*Template, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	filter := bson.M{
		"slug":     slug,
		"isActive": true,
	}

	var tpl Template
	err := s.collection(templateCollection(channel)).FindOne(ctx, filter).Decode(&tpl)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find template %s/%s: %w", channel, slug, err)
	}

	return &tpl, nil
}

// CreateTemplate inserts a template into its channel collection, stamping
// timestamps. Used by the seed-on-demand path.
func (s *Store) CreateTemplate(ctx context.Context, tpl *Template) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	now := time.Now().UTC()
	tpl.CreatedAt = now
	tpl.UpdatedAt = now
	if tpl.Channel == "" {
		return fmt.Errorf("template channel is required")
	}

	_, err := s.collection(templateCollection(tpl.Channel)).InsertOne(ctx, tpl)
	if err != nil {
		return fmt.Errorf("insert template %s/%s: %w", tpl.Channel, tpl.Slug, err)
	}
	return nil
}
