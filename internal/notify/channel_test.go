// internal/notify/channel_test.go
package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"hrms-dispatch/internal/common/logger"
	"hrms-dispatch/internal/store"
)

// ==========================
// Mock Implementations
// ==========================

type MockTemplateStore struct {
	GetTemplateFunc    func(ctx context.Context, channel, slug string) (*store.Template, error)
	CreateTemplateFunc func(ctx context.Context, tpl *store.Template) error
}

func (m *MockTemplateStore) GetTemplate(ctx context.Context, channel, slug string) (*store.Template, error) {
	return m.GetTemplateFunc(ctx, channel, slug)
}

func (m *MockTemplateStore) CreateTemplate(ctx context.Context, tpl *store.Template) error {
	return m.CreateTemplateFunc(ctx, tpl)
}

func templateStoreWith(templates map[string]*store.Template) *MockTemplateStore {
	return &MockTemplateStore{
		GetTemplateFunc: func(ctx context.Context, channel, slug string) (*store.Template, error) {
			if tpl, ok := templates[channel+"/"+slug]; ok {
				return tpl, nil
			}
			return nil, store.ErrNotFound
		},
		CreateTemplateFunc: func(ctx context.Context, tpl *store.Template) error {
			templates[tpl.Channel+"/"+tpl.Slug] = tpl
			return nil
		},
	}
}

func newResolver(t *testing.T, templates map[string]*store.Template) *TemplateResolver {
	return NewTemplateResolver(templateStoreWith(templates), nil, logger.NewTestLogger(t))
}

// ==========================
// Render Tests
// ==========================

func TestRenderTemplate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		data     map[string]string
		expected string
	}{
		{
			name:     "all placeholders present",
			template: "Hello {{name}}, welcome to {{company}}!",
			data:     map[string]string{"name": "Ravi", "company": "Acme"},
			expected: "Hello Ravi, welcome to Acme!",
		},
		{
			name:     "missing key renders empty",
			template: "Hello {{name}}, your code is {{code}}.",
			data:     map[string]string{"name": "Ravi"},
			expected: "Hello Ravi, your code is .",
		},
		{
			name:     "nil data strips everything",
			template: "{{a}}{{b}}",
			data:     nil,
			expected: "",
		},
		{
			name:     "repeated placeholder",
			template: "{{name}} and {{name}}",
			data:     map[string]string{"name": "x"},
			expected: "x and x",
		},
		{
			name:     "no placeholders",
			template: "plain text",
			data:     map[string]string{"name": "x"},
			expected: "plain text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, renderTemplate(tt.template, tt.data))
		})
	}
}

// ==========================
// Content Resolution Tests
// ==========================

func TestResolveContent_LiteralOverrideWins(t *testing.T) {
	resolver := newResolver(t, map[string]*store.Template{
		"email/greeting": {Subject: "from template", Body: "template body"},
	})

	subject, body, ok, err := resolveContent(context.Background(), resolver, "email", Event{
		TemplateSlug: "greeting",
		Subject:      "literal {{name}}",
		Body:         "literal body",
		Data:         map[string]string{"name": "Ravi"},
	})

	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "literal Ravi", subject)
	assert.Equal(t, "literal body", body)
}

func TestResolveContent_TemplateRendered(t *testing.T) {
	resolver := newResolver(t, map[string]*store.Template{
		"email/greeting": {Subject: "Hi {{name}}", Body: "Welcome {{name}}"},
	})

	subject, body, ok, err := resolveContent(context.Background(), resolver, "email", Event{
		TemplateSlug: "greeting",
		Data:         map[string]string{"name": "Ravi"},
	})

	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Hi Ravi", subject)
	assert.Equal(t, "Welcome Ravi", body)
}

func TestResolveContent_FallbackOnMissingTemplate(t *testing.T) {
	resolver := newResolver(t, map[string]*store.Template{})

	_, body, ok, err := resolveContent(context.Background(), resolver, "telegram", Event{
		TemplateSlug: "missing",
		Fallback:     "plain fallback text",
	})

	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "plain fallback text", body)
}

func TestResolveContent_SkipWhenNothingToSend(t *testing.T) {
	resolver := newResolver(t, map[string]*store.Template{})

	_, _, ok, err := resolveContent(context.Background(), resolver, "email", Event{
		TemplateSlug: "missing",
	})

	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestResolveContent_StoreErrorPropagates(t *testing.T) {
	boom := errors.New("connection reset")
	resolver := NewTemplateResolver(&MockTemplateStore{
		GetTemplateFunc: func(ctx context.Context, channel, slug string) (*store.Template, error) {
			return nil, boom
		},
	}, nil, logger.NewTestLogger(t))

	_, _, ok, err := resolveContent(context.Background(), resolver, "email", Event{
		TemplateSlug: "greeting",
	})

	assert.Error(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, err, boom)
}
