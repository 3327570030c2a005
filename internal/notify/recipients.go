package notify

import (
	"context"

	"hrms-dispatch/internal/common/logger"
	"hrms-dispatch/internal/store"
)

// DirectoryStore is the user/employee lookup surface, mockable in tests.
type DirectoryStore interface {
	UsersByRoles(ctx context.Context, roles []string) ([]store.User, error)
	EmployeesByRoles(ctx context.Context, roles []string) ([]store.Employee, error)
}

// Recipients resolves role names to deduplicated contact lists. Lookup
// failures degrade to empty lists so a broken roles query never blocks the
// channels that do not need it.
type Recipients struct {
	store  DirectoryStore
	logger logger.Logger
}

func NewRecipients(st DirectoryStore, log logger.Logger) *Recipients {
	return &Recipients{store: st, logger: log}
}

// EmailsByRoles collects the addresses of active users holding any of the
// given roles.
func (r *Recipients) EmailsByRoles(ctx context.Context, roles []string) []string {
	users, err := r.store.UsersByRoles(ctx, roles)
	if err != nil {
		r.logger.Warn("role email lookup failed", map[string]interface{}{
			"roles": roles,
			"error": err.Error(),
		})
		return nil
	}

	seen := make(map[string]struct{}, len(users))
	emails := make([]string, 0, len(users))
	for _, u := range users {
		if u.Email == "" {
			continue
		}
		if _, dup := seen[u.Email]; dup {
			continue
		}
		seen[u.Email] = struct{}{}
		emails = append(emails, u.Email)
	}
	return emails
}

// PhonesByRoles collects the phone numbers of active employees holding any of
// the given roles.
func (r *Recipients) PhonesByRoles(ctx context.Context, roles []string) []string {
	employees, err := r.store.EmployeesByRoles(ctx, roles)
	if err != nil {
		r.logger.Warn("role phone lookup failed", map[string]interface{}{
			"roles": roles,
			"error": err.Error(),
		})
		return nil
	}

	seen := make(map[string]struct{}, len(employees))
	phones := make([]string, 0, len(employees))
	for _, e := range employees {
		if e.Phone == "" {
			continue
		}
		if _, dup := seen[e.Phone]; dup {
			continue
		}
		seen[e.Phone] = struct{}{}
		phones = append(phones, e.Phone)
	}
	return phones
}
