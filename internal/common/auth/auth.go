// internal/common/auth/auth.go
package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"hrms-dispatch/internal/common/errors"

	"github.com/redis/go-redis/v9"
)

// BearerToken extracts the token from an Authorization: Bearer header.
// Returns "" when the header is absent or malformed.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// CheckCronSecret authorizes a scheduled-trigger request. An unconfigured
// secret is a configuration error (500), never a silent bypass; a mismatch
// is an authorization error (401).
func CheckCronSecret(secret string, r *http.Request) error {
	if secret == "" {
		return errors.NewCronSecretMissingError()
	}

	token := BearerToken(r)
	if token == "" {
		return errors.NewUnauthorizedError("missing bearer token")
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
		return errors.NewUnauthorizedError("bearer token mismatch")
	}
	return nil
}

// Session is the payload stored in Redis per signed-in user.
type Session struct {
	UID   string   `json:"uid"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

// SessionStore validates app session bearer tokens against Redis, where the
// auth provider writes one JSON document per active session.
type SessionStore struct {
	redis  *redis.Client
	prefix string
}

func NewSessionStore(rdb *redis.Client, prefix string) *SessionStore {
	return &SessionStore{
		redis:  rdb,
		prefix: prefix,
	}
}

// Validate resolves the bearer token on r to a Session. Any miss, expiry or
// decode failure is reported as a session error (401).
func (s *SessionStore) Validate(ctx context.Context, r *http.Request) (*Session, error) {
	token := BearerToken(r)
	if token == "" {
		return nil, errors.NewUnauthorizedError("missing bearer token")
	}

	val, err := s.redis.Get(ctx, s.prefix+token).Result()
	if err == redis.Nil {
		return nil, errors.NewSessionInvalidError("unknown session token")
	}
	if err != nil {
		return nil, errors.NewSessionInvalidError("session lookup failed: " + err.Error())
	}

	var session Session
	if err := json.Unmarshal([]byte(val), &session); err != nil {
		return nil, errors.NewSessionInvalidError("malformed session payload")
	}

	return &session, nil
}
