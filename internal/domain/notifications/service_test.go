package notifications

import (
	"context"
	"errors"
	"testing"

	"onehr/internal/domain/civil"
)

type fakeStore struct {
	created      []Input
	existingKeys map[string]bool
	emailEnabled bool
	email        string
	inbox        []Notification
}

func (f *fakeStore) CreateNotification(ctx context.Context, tenantID, userID string, in Input) (string, bool, error) {
	if in.DedupKey != "" {
		if f.existingKeys == nil {
			f.existingKeys = map[string]bool{}
		}
		key := userID + "|" + in.DedupKey
		if f.existingKeys[key] {
			return "", false, nil
		}
		f.existingKeys[key] = true
	}
	f.created = append(f.created, in)
	return "n1", true, nil
}

func (f *fakeStore) UserEmail(ctx context.Context, tenantID, userID string) (string, error) {
	return f.email, nil
}

func (f *fakeStore) ListNotifications(ctx context.Context, tenantID, userID string, limit, offset int) ([]Notification, error) {
	return nil, nil
}

func (f *fakeStore) ListDueNotifications(ctx context.Context, tenantID, userID string, from, to civil.Day) ([]Notification, error) {
	var out []Notification
	for _, n := range f.inbox {
		if n.DueDate != nil && !n.DueDate.Before(from) && !n.DueDate.After(to) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeStore) CountNotifications(ctx context.Context, tenantID, userID string) (int, error) {
	return len(f.created), nil
}

func (f *fakeStore) MarkRead(ctx context.Context, tenantID, userID, notificationID string) error {
	return nil
}

func (f *fakeStore) DeleteNotification(ctx context.Context, tenantID, userID, notificationID string) error {
	return nil
}

func (f *fakeStore) EmailSettings(ctx context.Context, tenantID string) (bool, string, error) {
	return f.emailEnabled, "", nil
}

func (f *fakeStore) UpdateSettings(ctx context.Context, tenantID string, enabled bool, from string) error {
	return nil
}

type recordingMailer struct {
	sent []string
}

func (m *recordingMailer) Send(ctx context.Context, from, to, subject, body string) error {
	m.sent = append(m.sent, to+"|"+subject)
	return nil
}

func TestCreateAppliesDefaultsAndMails(t *testing.T) {
	store := &fakeStore{emailEnabled: true, email: "hr@example.com"}
	mailer := &recordingMailer{}
	svc := New(store, mailer)

	due := civil.MustParse("2025-06-01")
	if _, created, err := svc.Create(context.Background(), "t1", "u1", Input{Title: " License renewal ", DueDate: &due}); err != nil || !created {
		t.Fatalf("expected creation, got created=%v err=%v", created, err)
	}
	if got := store.created[0]; got.Priority != PriorityMedium || got.Type != TypeReminder || got.Title != "License renewal" {
		t.Fatalf("defaults not applied: %+v", got)
	}
	if len(mailer.sent) != 1 || mailer.sent[0] != "hr@example.com|License renewal" {
		t.Fatalf("unexpected mail: %v", mailer.sent)
	}
}

func TestCreateSkipsDuplicatesByDedupKey(t *testing.T) {
	store := &fakeStore{emailEnabled: true, email: "hr@example.com"}
	mailer := &recordingMailer{}
	svc := New(store, mailer)

	in := Input{Title: "Birthday", DedupKey: "calendar-alert:birthday-e1-2025"}
	if _, created, _ := svc.Create(context.Background(), "t1", "u1", in); !created {
		t.Fatal("expected first create")
	}
	if _, created, _ := svc.Create(context.Background(), "t1", "u1", in); created {
		t.Fatal("expected duplicate to be skipped")
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected one mail, got %d", len(mailer.sent))
	}
}

func TestCreateRequiresTitle(t *testing.T) {
	svc := New(&fakeStore{}, nil)
	if _, _, err := svc.Create(context.Background(), "t1", "u1", Input{Title: "  "}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestCreateWithoutEmailSettingsDoesNotMail(t *testing.T) {
	mailer := &recordingMailer{}
	svc := New(&fakeStore{email: "hr@example.com"}, mailer)
	if _, _, err := svc.Create(context.Background(), "t1", "u1", Input{Title: "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Fatalf("expected no mail, got %v", mailer.sent)
	}
}

func TestListDueFiltersByDueDate(t *testing.T) {
	inside := civil.MustParse("2025-06-01")
	outside := civil.MustParse("2026-01-02")
	store := &fakeStore{inbox: []Notification{
		{ID: "n1", Title: "License renewal", DueDate: &inside},
		{ID: "n2", Title: "Next year", DueDate: &outside},
		{ID: "n3", Title: "Undated"},
	}}
	svc := New(store, nil)

	got, err := svc.ListDue(context.Background(), "t1", "u1", civil.MustParse("2025-01-01"), civil.MustParse("2025-12-31"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "n1" {
		t.Fatalf("unexpected due notifications: %+v", got)
	}

	if _, err := svc.ListDue(context.Background(), "t1", "u1", civil.MustParse("2025-12-31"), civil.MustParse("2025-01-01")); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange for a reversed range, got %v", err)
	}
}
