package template

import (
	"context"
	"testing"

	"github.com/Odix-Pay/odixpay-notifications/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockVariantSource struct {
	variants map[string][]*domain.NotificationTemplate
	err      error
}

func (m *mockVariantSource) GetTemplatesBySlug(_ context.Context, slug string) ([]*domain.NotificationTemplate, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.variants[slug], nil
}

func variant(slug, locale string) *domain.NotificationTemplate {
	return &domain.NotificationTemplate{
		ID:      uuid.New(),
		Name:    "Welcome",
		Slug:    slug,
		Channel: domain.ChannelEmail,
		Subject: "Welcome (" + locale + ")",
		Body:    "Hello",
		Locale:  locale,
	}
}

func TestResolverResolve(t *testing.T) {
	source := &mockVariantSource{variants: map[string][]*domain.NotificationTemplate{
		"welcome": {variant("welcome", "fr"), variant("welcome", "en")},
	}}
	resolver := NewResolver(source, "en")

	t.Run("requested locale wins", func(t *testing.T) {
		tmpl, err := resolver.Resolve(context.Background(), "welcome", "fr", "en")
		require.NoError(t, err)
		assert.Equal(t, "fr", tmpl.Locale)
	})

	t.Run("stored locale when no requested locale", func(t *testing.T) {
		tmpl, err := resolver.Resolve(context.Background(), "welcome", "", "fr")
		require.NoError(t, err)
		assert.Equal(t, "fr", tmpl.Locale)
	})

	t.Run("unknown locale falls back to system default", func(t *testing.T) {
		tmpl, err := resolver.Resolve(context.Background(), "welcome", "de", "de")
		require.NoError(t, err)
		assert.Equal(t, "en", tmpl.Locale)
	})

	t.Run("last resort is deterministic regardless of source order", func(t *testing.T) {
		shuffled := &mockVariantSource{variants: map[string][]*domain.NotificationTemplate{
			"welcome": {variant("welcome", "sv"), variant("welcome", "fr")},
		}}
		r := NewResolver(shuffled, "en")

		tmpl, err := r.Resolve(context.Background(), "welcome", "de", "de")
		require.NoError(t, err)
		assert.Equal(t, "fr", tmpl.Locale)

		reversed := &mockVariantSource{variants: map[string][]*domain.NotificationTemplate{
			"welcome": {variant("welcome", "fr"), variant("welcome", "sv")},
		}}
		r = NewResolver(reversed, "en")

		tmpl, err = r.Resolve(context.Background(), "welcome", "de", "de")
		require.NoError(t, err)
		assert.Equal(t, "fr", tmpl.Locale)
	})

	t.Run("unknown slug is not found", func(t *testing.T) {
		_, err := resolver.Resolve(context.Background(), "missing", "en", "en")
		require.Error(t, err)
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("empty slug is a bad request", func(t *testing.T) {
		_, err := resolver.Resolve(context.Background(), "", "en", "en")
		require.Error(t, err)
		assert.True(t, domain.IsBadRequest(err))
	})
}
