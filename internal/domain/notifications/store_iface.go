package notifications

import (
	"context"

	"onehr/internal/domain/civil"
)

type StoreAPI interface {
	CreateNotification(ctx context.Context, tenantID, userID string, in Input) (string, bool, error)
	UserEmail(ctx context.Context, tenantID, userID string) (string, error)
	ListNotifications(ctx context.Context, tenantID, userID string, limit, offset int) ([]Notification, error)
	ListDueNotifications(ctx context.Context, tenantID, userID string, from, to civil.Day) ([]Notification, error)
	CountNotifications(ctx context.Context, tenantID, userID string) (int, error)
	MarkRead(ctx context.Context, tenantID, userID, notificationID string) error
	DeleteNotification(ctx context.Context, tenantID, userID, notificationID string) error
	EmailSettings(ctx context.Context, tenantID string) (bool, string, error)
	UpdateSettings(ctx context.Context, tenantID string, enabled bool, from string) error
}
