package holidays

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"onehr/internal/domain/civil"
)

var ErrNotFound = errors.New("holiday not found")

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const holidayColumns = `id, name, date, COALESCE(region, ''), kind, observed, COALESCE(description, ''), created_at`

func (s *Store) ListHolidays(ctx context.Context, tenantID string, year int) ([]Holiday, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+holidayColumns+`
    FROM hr_holidays
    WHERE tenant_id = $1 AND date >= $2 AND date < $3
    ORDER BY date, name
  `, tenantID, civil.New(year, time.January, 1).Time(), civil.New(year+1, time.January, 1).Time())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Holiday
	for rows.Next() {
		h, err := scanHoliday(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) GetHoliday(ctx context.Context, tenantID, holidayID string) (*Holiday, error) {
	h, err := scanHoliday(s.DB.QueryRow(ctx, `
    SELECT `+holidayColumns+`
    FROM hr_holidays
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, holidayID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (s *Store) CreateHoliday(ctx context.Context, tenantID string, h Holiday) (string, error) {
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO hr_holidays (tenant_id, name, date, region, kind, observed, description)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING id
  `, tenantID, h.Name, h.Date.Time(), nullIfEmpty(h.Region), h.Kind, h.Observed, nullIfEmpty(h.Description)).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) UpdateHoliday(ctx context.Context, tenantID, holidayID string, h Holiday) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE hr_holidays
    SET name = $1, date = $2, region = $3, description = $4, updated_at = now()
    WHERE tenant_id = $5 AND id = $6
  `, h.Name, h.Date.Time(), nullIfEmpty(h.Region), nullIfEmpty(h.Description), tenantID, holidayID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteHoliday(ctx context.Context, tenantID, holidayID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM hr_holidays WHERE tenant_id = $1 AND id = $2", tenantID, holidayID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) InsertIfAbsent(ctx context.Context, tenantID string, h Holiday) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    INSERT INTO hr_holidays (tenant_id, name, date, region, kind, observed)
    VALUES ($1,$2,$3,$4,$5,$6)
    ON CONFLICT (tenant_id, date, name) DO NOTHING
  `, tenantID, h.Name, h.Date.Time(), nullIfEmpty(h.Region), h.Kind, h.Observed)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanHoliday(row pgx.Row) (Holiday, error) {
	var h Holiday
	var date time.Time
	if err := row.Scan(&h.ID, &h.Name, &date, &h.Region, &h.Kind, &h.Observed, &h.Description, &h.CreatedAt); err != nil {
		return Holiday{}, err
	}
	h.Date = civil.Of(date)
	return h, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
