package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ActiveEmployees returns every employee flagged active.
func (s *Store) ActiveEmployees(ctx context.Context) ([]Employee, error) {
	return s.findEmployees(ctx, bson.M{"isActive": true})
}

// ReportEmployees returns employees eligible for monthly reports: active or
// on leave, optionally narrowed to a single email.
func (s *Store) ReportEmployees(ctx context.Context, targetEmail string) ([]Employee, error) {
	filter := bson.M{"status": bson.M{"$in": []string{"active", "on_leave"}}}
	if targetEmail != "" {
		filter["email"] = targetEmail
	}
	return s.findEmployees(ctx, filter)
}

// EmployeesByRoles returns employees whose role array intersects roles.
func (s *Store) EmployeesByRoles(ctx context.Context, roles []string) ([]Employee, error) {
	return s.findEmployees(ctx, bson.M{
		"isActive": true,
		"roles":    bson.M{"$in": roles},
	})
}

// EmployeeByID fetches one employee document.
func (s *Store) EmployeeByID(ctx context.Context, id string) (*Employee, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid employee id %q: %w", id, err)
	}

	var emp Employee
	err = s.collection(ColEmployees).FindOne(ctx, bson.M{"_id": oid}).Decode(&emp)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find employee %s: %w", id, err)
	}
	return &emp, nil
}

func (s *Store) findEmployees(ctx context.Context, filter bson.M) ([]Employee, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cursor, err := s.collection(ColEmployees).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find employees: %w", err)
	}
	defer cursor.Close(ctx)

	var employees []Employee
	if err := cursor.All(ctx, &employees); err != nil {
		return nil, fmt.Errorf("decode employees: %w", err)
	}
	return employees, nil
}

// UsersByRoles returns active users whose role array intersects roles.
func (s *Store) UsersByRoles(ctx context.Context, roles []string) ([]User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cursor, err := s.collection(ColUsers).Find(ctx, bson.M{
		"isActive": true,
		"roles":    bson.M{"$in": roles},
	})
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}
