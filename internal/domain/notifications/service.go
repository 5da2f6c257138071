package notifications

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"onehr/internal/domain/civil"
)

var (
	ErrInvalidInput = errors.New("invalid notification")
	ErrInvalidRange = errors.New("invalid due date range")
)

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type Service struct {
	store       StoreAPI
	Mailer      Mailer
	DefaultFrom string
}

func New(store StoreAPI, mailer Mailer) *Service {
	return &Service{store: store, Mailer: mailer, DefaultFrom: "no-reply@example.com"}
}

// Create stores a notification for userID and, when the tenant has email
// enabled, mails it. Duplicates by DedupKey are skipped silently and return
// created=false.
func (s *Service) Create(ctx context.Context, tenantID, userID string, in Input) (string, bool, error) {
	in = normalizeInput(in)
	if in.Title == "" {
		return "", false, ErrInvalidInput
	}

	id, created, err := s.store.CreateNotification(ctx, tenantID, userID, in)
	if err != nil || !created {
		return id, created, err
	}
	s.mail(ctx, tenantID, userID, in.Title, in.Message)
	return id, true, nil
}

func (s *Service) List(ctx context.Context, tenantID, userID string, limit, offset int) ([]Notification, error) {
	return s.store.ListNotifications(ctx, tenantID, userID, limit, offset)
}

// ListDue returns the notifications due in [from, to]. Unlike List it is not
// paged, so old due-dated items are never cut off by newer ones.
func (s *Service) ListDue(ctx context.Context, tenantID, userID string, from, to civil.Day) ([]Notification, error) {
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return nil, ErrInvalidRange
	}
	return s.store.ListDueNotifications(ctx, tenantID, userID, from, to)
}

func (s *Service) Count(ctx context.Context, tenantID, userID string) (int, error) {
	return s.store.CountNotifications(ctx, tenantID, userID)
}

func (s *Service) MarkRead(ctx context.Context, tenantID, userID, notificationID string) error {
	return s.store.MarkRead(ctx, tenantID, userID, notificationID)
}

func (s *Service) Delete(ctx context.Context, tenantID, userID, notificationID string) error {
	return s.store.DeleteNotification(ctx, tenantID, userID, notificationID)
}

func (s *Service) GetSettings(ctx context.Context, tenantID string) (bool, string, error) {
	return s.store.EmailSettings(ctx, tenantID)
}

func (s *Service) UpdateSettings(ctx context.Context, tenantID string, enabled bool, from string) error {
	return s.store.UpdateSettings(ctx, tenantID, enabled, strings.TrimSpace(from))
}

func (s *Service) mail(ctx context.Context, tenantID, userID, subject, body string) {
	if s.Mailer == nil {
		return
	}
	enabled, from, err := s.store.EmailSettings(ctx, tenantID)
	if err != nil || !enabled {
		return
	}
	if from == "" {
		from = s.DefaultFrom
	}

	email, err := s.store.UserEmail(ctx, tenantID, userID)
	if err != nil {
		slog.Warn("notification email lookup failed", "err", err)
		return
	}
	if email == "" {
		return
	}
	if err := s.Mailer.Send(ctx, from, email, subject, body); err != nil {
		slog.Warn("notification email send failed", "err", err)
	}
}

func normalizeInput(in Input) Input {
	in.Type = strings.TrimSpace(in.Type)
	if in.Type == "" {
		in.Type = TypeReminder
	}
	in.Category = strings.TrimSpace(in.Category)
	in.Title = strings.TrimSpace(in.Title)
	in.Message = strings.TrimSpace(in.Message)
	in.Priority = strings.ToLower(strings.TrimSpace(in.Priority))
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if in.DueDate != nil && in.DueDate.IsZero() {
		in.DueDate = nil
	}
	return in
}
