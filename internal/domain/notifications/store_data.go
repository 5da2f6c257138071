package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"onehr/internal/domain/civil"
)

func (s *Store) CreateNotification(ctx context.Context, tenantID, userID string, in Input) (string, bool, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO notifications (tenant_id, user_id, type, category, title, body, priority, due_date,
      action_url, action_label, related_entity_type, related_entity_id, dedup_key)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
    ON CONFLICT (tenant_id, user_id, dedup_key) WHERE dedup_key IS NOT NULL DO NOTHING
    RETURNING id
  `, tenantID, userID, in.Type, in.Category, in.Title, in.Message, in.Priority, dueDateArg(in.DueDate),
		nullIfEmpty(in.ActionURL), nullIfEmpty(in.ActionLabel), nullIfEmpty(in.RelatedEntityType),
		nullIfEmpty(in.RelatedEntityID), nullIfEmpty(in.DedupKey)).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

func (s *Store) UserEmail(ctx context.Context, tenantID, userID string) (string, error) {
	var email string
	if err := s.DB.QueryRow(ctx, "SELECT email FROM users WHERE tenant_id = $1 AND id = $2", tenantID, userID).Scan(&email); err != nil {
		return "", err
	}
	return email, nil
}

const notificationColumns = `id, type, COALESCE(category, ''), title, body, priority, read_at IS NOT NULL, due_date,
           COALESCE(action_url, ''), COALESCE(action_label, ''),
           COALESCE(related_entity_type, ''), COALESCE(related_entity_id, ''), created_at`

func (s *Store) ListNotifications(ctx context.Context, tenantID, userID string, limit, offset int) ([]Notification, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+notificationColumns+`
    FROM notifications
    WHERE tenant_id = $1 AND user_id = $2
    ORDER BY created_at DESC
    LIMIT $3 OFFSET $4
  `, tenantID, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return scanNotifications(rows)
}

// ListDueNotifications returns every notification due in [from, to],
// regardless of how far back in the inbox it was created.
func (s *Store) ListDueNotifications(ctx context.Context, tenantID, userID string, from, to civil.Day) ([]Notification, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+notificationColumns+`
    FROM notifications
    WHERE tenant_id = $1 AND user_id = $2
      AND due_date IS NOT NULL AND due_date BETWEEN $3 AND $4
    ORDER BY due_date, created_at
  `, tenantID, userID, from.Time(), to.Time())
	if err != nil {
		return nil, err
	}
	return scanNotifications(rows)
}

func scanNotifications(rows pgx.Rows) ([]Notification, error) {
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		var due *time.Time
		if err := rows.Scan(&n.ID, &n.Type, &n.Category, &n.Title, &n.Message, &n.Priority, &n.Read, &due,
			&n.ActionURL, &n.ActionLabel, &n.RelatedEntityType, &n.RelatedEntityID, &n.CreatedAt); err != nil {
			return nil, err
		}
		if due != nil {
			day := civil.Of(*due)
			n.DueDate = &day
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) CountNotifications(ctx context.Context, tenantID, userID string) (int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM notifications WHERE tenant_id = $1 AND user_id = $2", tenantID, userID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) MarkRead(ctx context.Context, tenantID, userID, notificationID string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE notifications SET read_at = COALESCE(read_at, now())
    WHERE tenant_id = $1 AND user_id = $2 AND id = $3
  `, tenantID, userID, notificationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteNotification(ctx context.Context, tenantID, userID, notificationID string) error {
	tag, err := s.DB.Exec(ctx, `
    DELETE FROM notifications
    WHERE tenant_id = $1 AND user_id = $2 AND id = $3
  `, tenantID, userID, notificationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) EmailSettings(ctx context.Context, tenantID string) (bool, string, error) {
	var enabled bool
	var from string
	err := s.DB.QueryRow(ctx, `
    SELECT email_notifications_enabled, COALESCE(email_from, '')
    FROM tenant_settings
    WHERE tenant_id = $1
  `, tenantID).Scan(&enabled, &from)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, "", nil
	}
	if err != nil {
		return false, "", err
	}
	return enabled, from, nil
}

func (s *Store) UpdateSettings(ctx context.Context, tenantID string, enabled bool, from string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO tenant_settings (tenant_id, email_notifications_enabled, email_from)
    VALUES ($1,$2,$3)
    ON CONFLICT (tenant_id) DO UPDATE
      SET email_notifications_enabled = EXCLUDED.email_notifications_enabled,
          email_from = EXCLUDED.email_from,
          updated_at = now()
  `, tenantID, enabled, nullIfEmpty(from))
	return err
}

func dueDateArg(day *civil.Day) any {
	if day == nil || day.IsZero() {
		return nil
	}
	return day.Time()
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
