package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AttendanceForMonth loads the full month's attendance records in one query;
// the report generator scans them per employee-day.
func (s *Store) AttendanceForMonth(ctx context.Context, monthYear string) ([]AttendanceRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cursor, err := s.collection(ColAttendanceRecords).Find(ctx, bson.M{
		"date": bson.M{"$regex": primitive.Regex{Pattern: "^" + monthYear}},
	})
	if err != nil {
		return nil, fmt.Errorf("find attendance for %s: %w", monthYear, err)
	}
	defer cursor.Close(ctx)

	var records []AttendanceRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode attendance records: %w", err)
	}
	return records, nil
}

// PayrollForMonth loads the month's payroll records.
func (s *Store) PayrollForMonth(ctx context.Context, monthYear string) ([]PayrollRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cursor, err := s.collection(ColPayrollRecords).Find(ctx, bson.M{"monthYear": monthYear})
	if err != nil {
		return nil, fmt.Errorf("find payroll for %s: %w", monthYear, err)
	}
	defer cursor.Close(ctx)

	var records []PayrollRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode payroll records: %w", err)
	}
	return records, nil
}
