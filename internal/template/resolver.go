package template

import (
	"context"
	"fmt"
	"sort"

	"github.com/Odix-Pay/odixpay-notifications/internal/domain"
)

// VariantSource yields all locale variants of a template slug. Satisfied by
// the template repository and by the Redis-backed cache in front of it.
type VariantSource interface {
	GetTemplatesBySlug(ctx context.Context, slug string) ([]*domain.NotificationTemplate, error)
}

// Resolver picks the best locale variant of a template at send time.
// Resolving late means template edits apply to not-yet-sent notifications.
type Resolver struct {
	source        VariantSource
	defaultLocale string
}

func NewResolver(source VariantSource, defaultLocale string) *Resolver {
	if defaultLocale == "" {
		defaultLocale = domain.DefaultLocale
	}
	return &Resolver{source: source, defaultLocale: defaultLocale}
}

// Resolve walks the locale fallback chain: the requested send locale, then
// the notification's stored locale, then the system default, then the first
// variant after sorting by locale code. The final sort keeps the last resort
// deterministic regardless of repository return order.
func (r *Resolver) Resolve(ctx context.Context, slug, requestedLocale, storedLocale string) (*domain.NotificationTemplate, error) {
	if slug == "" {
		return nil, fmt.Errorf("template slug cannot be empty: %w", domain.ErrBadRequest)
	}

	variants, err := r.source.GetTemplatesBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("load template variants for %q: %w", slug, err)
	}
	if len(variants) == 0 {
		return nil, fmt.Errorf("template %q: %w", slug, domain.ErrNotFound)
	}

	for _, locale := range []string{requestedLocale, storedLocale, r.defaultLocale} {
		if locale == "" {
			continue
		}
		for _, v := range variants {
			if v.Locale == locale {
				return v, nil
			}
		}
	}

	sort.Slice(variants, func(i, j int) bool {
		return variants[i].Locale < variants[j].Locale
	})
	return variants[0], nil
}
