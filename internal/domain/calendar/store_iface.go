package calendar

import (
	"context"

	"onehr/internal/domain/civil"
)

type StoreAPI interface {
	ListCustomEvents(ctx context.Context, tenantID string, from, to civil.Day) ([]CustomEvent, error)
	GetCustomEvent(ctx context.Context, tenantID, eventID string) (*CustomEvent, error)
	CreateCustomEvent(ctx context.Context, tenantID, userID string, ev CustomEvent) (string, error)
	UpdateCustomEvent(ctx context.Context, tenantID, eventID string, ev CustomEvent) error
	DeleteCustomEvent(ctx context.Context, tenantID, eventID string) error
}
