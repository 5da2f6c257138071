package holidays

import "context"

type StoreAPI interface {
	ListHolidays(ctx context.Context, tenantID string, year int) ([]Holiday, error)
	GetHoliday(ctx context.Context, tenantID, holidayID string) (*Holiday, error)
	CreateHoliday(ctx context.Context, tenantID string, h Holiday) (string, error)
	UpdateHoliday(ctx context.Context, tenantID, holidayID string, h Holiday) error
	DeleteHoliday(ctx context.Context, tenantID, holidayID string) error
	InsertIfAbsent(ctx context.Context, tenantID string, h Holiday) (bool, error)
}
