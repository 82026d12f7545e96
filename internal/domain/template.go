package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NotificationTemplate is reusable content. Locale variants of one logical
// template share a slug; within a slug there is at most one variant per
// locale. Name uniqueness is per locale, not global.
type NotificationTemplate struct {
	ID        uuid.UUID                   `json:"id"`
	Name      string                      `json:"name"`
	Slug      string                      `json:"slug"`
	Channel   NotificationChannel         `json:"channel"`
	Subject   string                      `json:"subject"`
	Body      string                      `json:"body"`
	Variables map[string]TemplateVariable `json:"variables,omitempty"`
	Locale    string                      `json:"locale"`
	IsActive  bool                        `json:"is_active"`
	IsDeleted bool                        `json:"is_deleted"`
	CreatedAt time.Time                   `json:"created_at"`
	UpdatedAt *time.Time                  `json:"updated_at,omitempty"`
}

// TemplateVariable describes one entry of a template's variables schema.
type TemplateVariable struct {
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Description string `json:"description,omitempty"`
}

// GenerateSlug derives the slug from the template name. Locale variants of
// the same logical template carry the same name, hence the same slug.
func (t *NotificationTemplate) GenerateSlug() {
	t.Slug = Slugify(t.Name)
}

var (
	slugStripRe    = regexp.MustCompile(`[^\w\s-]`)
	slugCollapseRe = regexp.MustCompile(`[\s-]+`)
)

// Slugify turns a human-readable name into a stable URL-safe identifier.
func Slugify(input string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	slug := strings.ToLower(input)
	slug = slugStripRe.ReplaceAllString(slug, "")
	slug = slugCollapseRe.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
