package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DueUnsentHolidays returns holidays whose announcement date has passed and
// whose email flag is still unset.
func (s *Store) DueUnsentHolidays(ctx context.Context, now time.Time) ([]Holiday, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cursor, err := s.collection(ColHolidays).Find(ctx, bson.M{
		"announcementDate": bson.M{"$lte": now},
		"emailSent":        bson.M{"$ne": true},
	})
	if err != nil {
		return nil, fmt.Errorf("find due holidays: %w", err)
	}
	defer cursor.Close(ctx)

	var holidays []Holiday
	if err := cursor.All(ctx, &holidays); err != nil {
		return nil, fmt.Errorf("decode holidays: %w", err)
	}
	return holidays, nil
}

// DueUnsentNotices returns enabled notices past their announcement date with
// the email flag still unset. Notices live in site_settings and are
// recognized by carrying a title and an announcement date.
func (s *Store) DueUnsentNotices(ctx context.Context, now time.Time) ([]Notice, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cursor, err := s.collection(ColSiteSettings).Find(ctx, bson.M{
		"title":            bson.M{"$exists": true, "$ne": ""},
		"announcementDate": bson.M{"$exists": true, "$lte": now},
		"isEnabled":        true,
		"emailSent":        bson.M{"$ne": true},
	})
	if err != nil {
		return nil, fmt.Errorf("find due notices: %w", err)
	}
	defer cursor.Close(ctx)

	var notices []Notice
	if err := cursor.All(ctx, &notices); err != nil {
		return nil, fmt.Errorf("decode notices: %w", err)
	}
	return notices, nil
}

// MarkHolidayEmailSent flips the sent flag and stamps the time. The caller
// reads the flag earlier in the sweep; the read and this write are not one
// atomic step, which is the documented duplicate-send window under
// overlapping sweeps.
func (s *Store) MarkHolidayEmailSent(ctx context.Context, id primitive.ObjectID) error {
	return s.markEmailSent(ctx, ColHolidays, id)
}

// MarkNoticeEmailSent flips the sent flag on a notice document.
func (s *Store) MarkNoticeEmailSent(ctx context.Context, id primitive.ObjectID) error {
	return s.markEmailSent(ctx, ColSiteSettings, id)
}

func (s *Store) markEmailSent(ctx context.Context, collection string, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.collection(collection).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"emailSent":   true,
			"emailSentAt": time.Now().UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("mark email sent in %s: %w", collection, err)
	}
	return nil
}
