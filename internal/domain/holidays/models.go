package holidays

import (
	"time"

	"onehr/internal/domain/civil"
)

const (
	KindFederal = "federal"
	KindCompany = "company"
)

type Holiday struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Date        civil.Day `json:"date"`
	Region      string    `json:"region,omitempty"`
	Kind        string    `json:"kind"`
	Observed    bool      `json:"observed"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
