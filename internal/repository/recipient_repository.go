package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Odix-Pay/odixpay-notifications/internal/domain"
	"github.com/google/uuid"
)

type RecipientRepository struct {
	db *sql.DB
}

func NewRecipientRepository(db *sql.DB) *RecipientRepository {
	return &RecipientRepository{db: db}
}

const recipientColumns = `
	id, user_id, channel, address, display_name, preferred_locale,
	is_active, is_deleted, created_at, updated_at
`

func (r *RecipientRepository) CreateRecipient(ctx context.Context, rec *domain.NotificationRecipient) error {
	query := `
		INSERT INTO notification_recipients (` + recipientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.UserID, rec.Channel, rec.Address,
		nullString(rec.DisplayName), nullString(rec.PreferredLocale),
		rec.IsActive, rec.IsDeleted, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert recipient: %w", err)
	}
	return nil
}

func (r *RecipientRepository) UpdateRecipient(ctx context.Context, rec *domain.NotificationRecipient) error {
	query := `
		UPDATE notification_recipients
		SET address = $2, display_name = $3, preferred_locale = $4, updated_at = NOW()
		WHERE id = $1 AND is_deleted = FALSE
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.Address, nullString(rec.DisplayName), nullString(rec.PreferredLocale),
	)
	if err != nil {
		return fmt.Errorf("update recipient: %w", err)
	}
	return nil
}

func (r *RecipientRepository) GetByUserAndChannel(ctx context.Context, userID string, channel domain.NotificationChannel) (*domain.NotificationRecipient, error) {
	query := `
		SELECT ` + recipientColumns + `
		FROM notification_recipients
		WHERE user_id = $1 AND channel = $2 AND is_active = TRUE AND is_deleted = FALSE
	`
	rec, err := scanRecipient(r.db.QueryRowContext(ctx, query, userID, channel))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select recipient for %s/%s: %w", userID, channel, err)
	}
	return rec, nil
}

func (r *RecipientRepository) DeleteRecipient(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE notification_recipients SET is_deleted = TRUE, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete recipient %s: %w", id, err)
	}
	return nil
}

func scanRecipient(row rowScanner) (*domain.NotificationRecipient, error) {
	var rec domain.NotificationRecipient
	var displayName, preferredLocale sql.NullString

	err := row.Scan(
		&rec.ID, &rec.UserID, &rec.Channel, &rec.Address,
		&displayName, &preferredLocale,
		&rec.IsActive, &rec.IsDeleted, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.DisplayName = displayName.String
	rec.PreferredLocale = preferredLocale.String
	return &rec, nil
}
