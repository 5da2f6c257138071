package notifications

import (
	"time"

	"onehr/internal/domain/civil"
)

type Notification struct {
	ID                string     `json:"id"`
	Type              string     `json:"type"`
	Category          string     `json:"category"`
	Title             string     `json:"title"`
	Message           string     `json:"message"`
	Priority          string     `json:"priority"`
	Read              bool       `json:"read"`
	DueDate           *civil.Day `json:"dueDate,omitempty"`
	ActionURL         string     `json:"actionUrl,omitempty"`
	ActionLabel       string     `json:"actionLabel,omitempty"`
	RelatedEntityType string     `json:"relatedEntityType,omitempty"`
	RelatedEntityID   string     `json:"relatedEntityId,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// Input describes a notification to create. A non-empty DedupKey makes the
// insert a no-op when the same key already exists for the recipient.
type Input struct {
	Type              string     `json:"type"`
	Category          string     `json:"category"`
	Title             string     `json:"title"`
	Message           string     `json:"message"`
	Priority          string     `json:"priority"`
	DueDate           *civil.Day `json:"dueDate,omitempty"`
	ActionURL         string     `json:"actionUrl,omitempty"`
	ActionLabel       string     `json:"actionLabel,omitempty"`
	RelatedEntityType string     `json:"relatedEntityType,omitempty"`
	RelatedEntityID   string     `json:"relatedEntityId,omitempty"`
	DedupKey          string     `json:"-"`
}
