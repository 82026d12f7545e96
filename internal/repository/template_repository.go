package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Odix-Pay/odixpay-notifications/internal/domain"
	"github.com/google/uuid"
)

type TemplateRepository struct {
	db *sql.DB
}

func NewTemplateRepository(db *sql.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

const templateColumns = `
	id, name, slug, channel, subject, body, variables, locale,
	is_active, is_deleted, created_at, updated_at
`

func (r *TemplateRepository) CreateTemplate(ctx context.Context, t *domain.NotificationTemplate) error {
	variables, err := marshalVariables(t.Variables)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO notification_templates (` + templateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = r.db.ExecContext(ctx, query,
		t.ID, t.Name, t.Slug, t.Channel, t.Subject, t.Body,
		variables, t.Locale, t.IsActive, t.IsDeleted, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert template: %w", err)
	}
	return nil
}

func (r *TemplateRepository) UpdateTemplate(ctx context.Context, t *domain.NotificationTemplate) error {
	variables, err := marshalVariables(t.Variables)
	if err != nil {
		return err
	}

	query := `
		UPDATE notification_templates
		SET name = $2, subject = $3, body = $4, variables = $5,
		    is_active = $6, updated_at = NOW()
		WHERE id = $1 AND is_deleted = FALSE
	`
	if _, err := r.db.ExecContext(ctx, query, t.ID, t.Name, t.Subject, t.Body, variables, t.IsActive); err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	return nil
}

func (r *TemplateRepository) GetTemplateByID(ctx context.Context, id uuid.UUID) (*domain.NotificationTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM notification_templates WHERE id = $1 AND is_deleted = FALSE`

	t, err := scanTemplate(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select template %s: %w", id, err)
	}
	return t, nil
}

func (r *TemplateRepository) GetTemplatesBySlug(ctx context.Context, slug string) ([]*domain.NotificationTemplate, error) {
	query := `
		SELECT ` + templateColumns + `
		FROM notification_templates
		WHERE slug = $1 AND is_active = TRUE AND is_deleted = FALSE
		ORDER BY locale ASC
	`
	rows, err := r.db.QueryContext(ctx, query, slug)
	if err != nil {
		return nil, fmt.Errorf("select templates by slug %q: %w", slug, err)
	}
	defer rows.Close()

	var templates []*domain.NotificationTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (r *TemplateRepository) GetTemplateBySlugAndLocale(ctx context.Context, slug, locale string) (*domain.NotificationTemplate, error) {
	query := `
		SELECT ` + templateColumns + `
		FROM notification_templates
		WHERE slug = $1 AND locale = $2 AND is_deleted = FALSE
	`
	t, err := scanTemplate(r.db.QueryRowContext(ctx, query, slug, locale))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select template %q/%q: %w", slug, locale, err)
	}
	return t, nil
}

func scanTemplate(row rowScanner) (*domain.NotificationTemplate, error) {
	var t domain.NotificationTemplate
	var variables sql.NullString

	err := row.Scan(
		&t.ID, &t.Name, &t.Slug, &t.Channel, &t.Subject, &t.Body,
		&variables, &t.Locale, &t.IsActive, &t.IsDeleted, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if variables.Valid && variables.String != "" {
		if err := json.Unmarshal([]byte(variables.String), &t.Variables); err != nil {
			return nil, fmt.Errorf("decode variables schema: %w", err)
		}
	}
	return &t, nil
}

func marshalVariables(vars map[string]domain.TemplateVariable) (sql.NullString, error) {
	if len(vars) == 0 {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(vars)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode variables schema: %w", err)
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}
