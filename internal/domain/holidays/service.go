package holidays

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidHoliday = errors.New("invalid holiday")

type Service struct {
	store StoreAPI
	rules RuleSet
}

func NewService(store StoreAPI) (*Service, error) {
	rules, err := USRules()
	if err != nil {
		return nil, err
	}
	return &Service{store: store, rules: rules}, nil
}

type InitResult struct {
	Year     int `json:"year"`
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// InitializeUS inserts the federal holidays of year. Running it again only
// reports the existing rows as skipped.
func (s *Service) InitializeUS(ctx context.Context, tenantID string, year int) (InitResult, error) {
	result := InitResult{Year: year}
	for _, h := range s.rules.Resolve(year) {
		inserted, err := s.store.InsertIfAbsent(ctx, tenantID, h)
		if err != nil {
			return result, fmt.Errorf("insert holiday %s: %w", h.Name, err)
		}
		if inserted {
			result.Inserted++
		} else {
			result.Skipped++
		}
	}
	return result, nil
}

func (s *Service) List(ctx context.Context, tenantID string, year int) ([]Holiday, error) {
	return s.store.ListHolidays(ctx, tenantID, year)
}

// ListHolidays satisfies the calendar holiday source.
func (s *Service) ListHolidays(ctx context.Context, tenantID string, year int) ([]Holiday, error) {
	return s.store.ListHolidays(ctx, tenantID, year)
}

func (s *Service) Get(ctx context.Context, tenantID, holidayID string) (*Holiday, error) {
	return s.store.GetHoliday(ctx, tenantID, holidayID)
}

func (s *Service) Create(ctx context.Context, tenantID string, h Holiday) (string, error) {
	h, err := normalize(h)
	if err != nil {
		return "", err
	}
	if h.Kind == "" {
		h.Kind = KindCompany
	}
	return s.store.CreateHoliday(ctx, tenantID, h)
}

func (s *Service) Update(ctx context.Context, tenantID, holidayID string, h Holiday) error {
	h, err := normalize(h)
	if err != nil {
		return err
	}
	return s.store.UpdateHoliday(ctx, tenantID, holidayID, h)
}

func (s *Service) Delete(ctx context.Context, tenantID, holidayID string) error {
	return s.store.DeleteHoliday(ctx, tenantID, holidayID)
}

func normalize(h Holiday) (Holiday, error) {
	h.Name = strings.TrimSpace(h.Name)
	h.Region = strings.TrimSpace(h.Region)
	h.Description = strings.TrimSpace(h.Description)
	if h.Name == "" || h.Date.IsZero() {
		return h, ErrInvalidHoliday
	}
	return h, nil
}
