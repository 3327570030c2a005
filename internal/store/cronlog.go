package store

import (
	"context"
	"fmt"
	"time"
)

// InsertCronLog appends one audit row for a scheduled run. Rows are never
// updated or rotated.
func (s *Store) InsertCronLog(ctx context.Context, entry *CronLog) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if entry.ExecutedAt.IsZero() {
		entry.ExecutedAt = time.Now().UTC()
	}

	_, err := s.collection(ColCronLogs).InsertOne(ctx, entry)
	if err != nil {
		return fmt.Errorf("insert cron log for %s: %w", entry.Job, err)
	}
	return nil
}
