package calendar

import (
	"strings"

	"onehr/internal/domain/notifications"
)

// Notification classification. relatedEntityType wins over category; keys
// are matched after lower-casing and folding spaces and hyphens to "_".
var relatedEntityTypes = map[string]EventType{
	"license":              TypeLicense,
	"licence":              TypeLicense,
	"licensing":            TypeLicense,
	"professional_license": TypeLicense,
	"certification":        TypeCertification,
	"certificate":          TypeCertification,
	"credential":           TypeCertification,
	"immigration":          TypeImmigration,
	"visa":                 TypeImmigration,
	"work_permit":          TypeImmigration,
	"work_authorization":   TypeImmigration,
	"i9":                   TypeImmigration,
	"i_9":                  TypeImmigration,
	"green_card":           TypeImmigration,
	"h1b":                  TypeImmigration,
	"h_1b":                 TypeImmigration,
}

var notificationCategories = map[string]EventType{
	"licensing":              TypeLicense,
	"license":                TypeLicense,
	"licenses":               TypeLicense,
	"licensure":              TypeLicense,
	"certification":          TypeCertification,
	"certifications":         TypeCertification,
	"training_certification": TypeCertification,
	"immigration":            TypeImmigration,
	"visa":                   TypeImmigration,
	"work_authorization":     TypeImmigration,
}

func classifyKey(value string) string {
	key := strings.ToLower(strings.TrimSpace(value))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(key)
}

// Classify maps a notification to its calendar type. Unknown values fall
// back to TypeNotification.
func Classify(n notifications.Notification) EventType {
	if t, ok := relatedEntityTypes[classifyKey(n.RelatedEntityType)]; ok {
		return t
	}
	if t, ok := notificationCategories[classifyKey(n.Category)]; ok {
		return t
	}
	return TypeNotification
}

// FromNotification turns a due-dated notification into a calendar event.
// Notifications without a due date are not calendar events.
func FromNotification(n notifications.Notification) (Event, bool) {
	if n.DueDate == nil || n.DueDate.IsZero() || n.ID == "" {
		return Event{}, false
	}
	t := Classify(n)
	data := n
	return Event{
		ID:           NotificationID(n.ID),
		Type:         t,
		Title:        n.Title,
		Date:         *n.DueDate,
		Description:  n.Message,
		Priority:     n.Priority,
		Color:        t.Color(),
		SourceID:     n.ID,
		Notification: &data,
	}, true
}

func FromNotifications(list []notifications.Notification) []Event {
	out := make([]Event, 0, len(list))
	for _, n := range list {
		if ev, ok := FromNotification(n); ok {
			out = append(out, ev)
		}
	}
	return out
}
