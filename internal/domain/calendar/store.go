package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"onehr/internal/domain/civil"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const customEventColumns = `id, title, COALESCE(description, ''), event_date, COALESCE(color, ''), COALESCE(priority, ''),
    COALESCE(recurrence, ''), COALESCE(created_by::text, ''), created_at, updated_at`

// ListCustomEvents returns one-off events dated in [from, to] and every
// recurring event anchored on or before to.
func (s *Store) ListCustomEvents(ctx context.Context, tenantID string, from, to civil.Day) ([]CustomEvent, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+customEventColumns+`
    FROM calendar_events
    WHERE tenant_id = $1
      AND ((recurrence IS NULL AND event_date BETWEEN $2 AND $3)
        OR (recurrence IS NOT NULL AND event_date <= $3))
    ORDER BY event_date, title
  `, tenantID, from.Time(), to.Time())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CustomEvent
	for rows.Next() {
		ev, err := scanCustomEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *Store) GetCustomEvent(ctx context.Context, tenantID, eventID string) (*CustomEvent, error) {
	ev, err := scanCustomEvent(s.DB.QueryRow(ctx, `
    SELECT `+customEventColumns+`
    FROM calendar_events
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, eventID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (s *Store) CreateCustomEvent(ctx context.Context, tenantID, userID string, ev CustomEvent) (string, error) {
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO calendar_events (tenant_id, title, description, event_date, color, priority, recurrence, created_by)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    RETURNING id
  `, tenantID, ev.Title, nullIfEmpty(ev.Description), ev.Date.Time(), nullIfEmpty(ev.Color), nullIfEmpty(ev.Priority),
		nullIfEmpty(ev.Recurrence), nullIfEmpty(userID)).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) UpdateCustomEvent(ctx context.Context, tenantID, eventID string, ev CustomEvent) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE calendar_events
    SET title = $1, description = $2, event_date = $3, color = $4, priority = $5, recurrence = $6, updated_at = now()
    WHERE tenant_id = $7 AND id = $8
  `, ev.Title, nullIfEmpty(ev.Description), ev.Date.Time(), nullIfEmpty(ev.Color), nullIfEmpty(ev.Priority),
		nullIfEmpty(ev.Recurrence), tenantID, eventID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (s *Store) DeleteCustomEvent(ctx context.Context, tenantID, eventID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM calendar_events WHERE tenant_id = $1 AND id = $2", tenantID, eventID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

func scanCustomEvent(row pgx.Row) (CustomEvent, error) {
	var ev CustomEvent
	var date time.Time
	if err := row.Scan(&ev.ID, &ev.Title, &ev.Description, &date, &ev.Color, &ev.Priority,
		&ev.Recurrence, &ev.CreatedBy, &ev.CreatedAt, &ev.UpdatedAt); err != nil {
		return CustomEvent{}, err
	}
	ev.Date = civil.Of(date)
	return ev, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
