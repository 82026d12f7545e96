package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Odix-Pay/odixpay-notifications/internal/domain"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

const notificationColumns = `
	id, user_id, channel, title, message, data, status, priority,
	recipient, sender, scheduled_at, sent_at, delivered_at, error_message,
	retry_count, max_retries, external_id, template_slug, template_variables,
	default_locale, is_read, created_at, updated_at
`

func (r *NotificationRepository) CreateNotification(ctx context.Context, n *domain.Notification) error {
	query := `
		INSERT INTO notifications (` + notificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23)
	`

	_, err := r.db.ExecContext(ctx, query,
		n.ID,
		nullString(n.UserID),
		n.Channel,
		n.Title,
		n.Message,
		nullString(n.Data),
		n.Status,
		n.Priority,
		nullString(n.Recipient),
		nullString(n.Sender),
		n.ScheduledAt,
		n.SentAt,
		n.DeliveredAt,
		nullString(n.ErrorMessage),
		n.RetryCount,
		n.MaxRetries,
		nullString(n.ExternalID),
		nullString(n.TemplateSlug),
		nullString(n.TemplateVariables),
		nullString(n.DefaultLocale),
		n.IsRead,
		n.CreatedAt,
		n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *NotificationRepository) GetNotificationByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`

	n, err := scanNotification(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select notification %s: %w", id, err)
	}
	return n, nil
}

func (r *NotificationRepository) GetPendingNotifications(ctx context.Context) ([]*domain.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE status = $1 AND retry_count < max_retries
		ORDER BY priority = 'critical' DESC, priority = 'high' DESC, created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, domain.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("select pending notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *NotificationRepository) UpdateNotificationStatus(ctx context.Context, id uuid.UUID, status domain.NotificationStatus, errorMessage string) error {
	query := `
		UPDATE notifications
		SET status = $2, error_message = $3, updated_at = NOW()
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id, status, nullString(errorMessage)); err != nil {
		return fmt.Errorf("update notification status: %w", err)
	}
	return nil
}

func (r *NotificationRepository) UpdateNotificationSent(ctx context.Context, id uuid.UUID, sentAt time.Time, externalID string) error {
	query := `
		UPDATE notifications
		SET status = $2, sent_at = $3, external_id = $4, error_message = NULL, updated_at = NOW()
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id, domain.StatusSent, sentAt, nullString(externalID)); err != nil {
		return fmt.Errorf("update notification sent: %w", err)
	}
	return nil
}

func (r *NotificationRepository) IncrementRetryCount(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE notifications SET retry_count = retry_count + 1, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("increment retry count: %w", err)
	}
	return nil
}

func (r *NotificationRepository) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE notifications SET is_read = TRUE, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("mark notification as read: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanNotification(row rowScanner) (*domain.Notification, error) {
	var n domain.Notification
	var userID, data, recipient, sender, errorMessage sql.NullString
	var externalID, templateSlug, templateVariables, defaultLocale sql.NullString

	err := row.Scan(
		&n.ID,
		&userID,
		&n.Channel,
		&n.Title,
		&n.Message,
		&data,
		&n.Status,
		&n.Priority,
		&recipient,
		&sender,
		&n.ScheduledAt,
		&n.SentAt,
		&n.DeliveredAt,
		&errorMessage,
		&n.RetryCount,
		&n.MaxRetries,
		&externalID,
		&templateSlug,
		&templateVariables,
		&defaultLocale,
		&n.IsRead,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	n.UserID = userID.String
	n.Data = data.String
	n.Recipient = recipient.String
	n.Sender = sender.String
	n.ErrorMessage = errorMessage.String
	n.ExternalID = externalID.String
	n.TemplateSlug = templateSlug.String
	n.TemplateVariables = templateVariables.String
	n.DefaultLocale = defaultLocale.String

	return &n, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
