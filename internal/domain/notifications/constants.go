package notifications

const (
	TypeCalendarAlert = "calendar_alert"
	TypeCompliance    = "compliance"
	TypeReminder      = "reminder"
	TypeSystem        = "system"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

var Priorities = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

func ValidPriority(value string) bool {
	for _, p := range Priorities {
		if p == value {
			return true
		}
	}
	return false
}
