// internal/common/auth/auth_test.go
package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrms-dispatch/internal/common/errors"
)

func requestWithBearer(token string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected string
	}{
		{name: "well formed", header: "Bearer abc123", expected: "abc123"},
		{name: "lowercase scheme", header: "bearer abc123", expected: "abc123"},
		{name: "no header", header: "", expected: ""},
		{name: "wrong scheme", header: "Basic abc123", expected: ""},
		{name: "scheme only", header: "Bearer", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.expected, BearerToken(r))
		})
	}
}

func TestCheckCronSecret(t *testing.T) {
	tests := []struct {
		name         string
		secret       string
		token        string
		expectedCode errors.ErrorCode
	}{
		{name: "match", secret: "s3cret", token: "s3cret", expectedCode: ""},
		{name: "unconfigured secret", secret: "", token: "s3cret", expectedCode: errors.ErrCodeCronSecretMissing},
		{name: "missing token", secret: "s3cret", token: "", expectedCode: errors.ErrCodeUnauthorized},
		{name: "mismatch", secret: "s3cret", token: "wrong", expectedCode: errors.ErrCodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckCronSecret(tt.secret, requestWithBearer(tt.token))
			if tt.expectedCode == "" {
				assert.NoError(t, err)
				return
			}
			var stdErr *errors.StandardError
			require.ErrorAs(t, err, &stdErr)
			assert.Equal(t, tt.expectedCode, stdErr.Code)
		})
	}
}

func TestSessionStore_Validate(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewSessionStore(db, "session:")

	mock.ExpectGet("session:tok-1").SetVal(`{"uid":"uid-1","email":"ravi@example.com","roles":["HR"]}`)

	session, err := store.Validate(context.Background(), requestWithBearer("tok-1"))
	require.NoError(t, err)
	assert.Equal(t, "uid-1", session.UID)
	assert.Equal(t, "ravi@example.com", session.Email)
	assert.Equal(t, []string{"HR"}, session.Roles)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionStore_Validate_Failures(t *testing.T) {
	t.Run("unknown token", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		store := NewSessionStore(db, "session:")
		mock.ExpectGet("session:tok-x").RedisNil()

		_, err := store.Validate(context.Background(), requestWithBearer("tok-x"))
		var stdErr *errors.StandardError
		require.ErrorAs(t, err, &stdErr)
		assert.Equal(t, errors.ErrCodeSessionInvalid, stdErr.Code)
	})

	t.Run("malformed payload", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		store := NewSessionStore(db, "session:")
		mock.ExpectGet("session:tok-1").SetVal("not-json")

		_, err := store.Validate(context.Background(), requestWithBearer("tok-1"))
		var stdErr *errors.StandardError
		require.ErrorAs(t, err, &stdErr)
		assert.Equal(t, errors.ErrCodeSessionInvalid, stdErr.Code)
	})

	t.Run("no bearer token", func(t *testing.T) {
		db, _ := redismock.NewClientMock()
		store := NewSessionStore(db, "session:")

		_, err := store.Validate(context.Background(), requestWithBearer(""))
		var stdErr *errors.StandardError
		require.ErrorAs(t, err, &stdErr)
		assert.Equal(t, errors.ErrCodeUnauthorized, stdErr.Code)
	})
}
