package shared

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"onehr/internal/domain/civil"
)

// ParseDay accepts YYYY-MM-DD or an RFC3339 timestamp and keeps the written
// calendar date. An empty value yields the zero Day.
func ParseDay(value string) (civil.Day, error) {
	if strings.TrimSpace(value) == "" {
		return civil.Day{}, nil
	}
	return civil.Parse(value)
}

// QueryYear reads ?year=, falling back to the year of today.
func QueryYear(r *http.Request, today civil.Day) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("year"))
	if raw == "" {
		return today.Year, nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1900 || year > 2200 {
		return 0, fmt.Errorf("year must be between 1900 and 2200")
	}
	return year, nil
}

// QueryMonth reads ?month= (1-12), falling back to the month of today.
func QueryMonth(r *http.Request, today civil.Day) (time.Month, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("month"))
	if raw == "" {
		return today.Month, nil
	}
	month, err := strconv.Atoi(raw)
	if err != nil || month < 1 || month > 12 {
		return 0, fmt.Errorf("month must be between 1 and 12")
	}
	return time.Month(month), nil
}
