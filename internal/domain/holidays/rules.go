package holidays

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"onehr/internal/domain/civil"
)

//go:embed us_holidays.yaml
var usRulesYAML []byte

type Rule struct {
	Name    string `yaml:"name"`
	Month   int    `yaml:"month"`
	Day     int    `yaml:"day,omitempty"`
	Weekday string `yaml:"weekday,omitempty"`
	Nth     int    `yaml:"nth,omitempty"`
	Observe bool   `yaml:"observe,omitempty"`
}

type RuleSet struct {
	Region   string `yaml:"region"`
	Holidays []Rule `yaml:"holidays"`
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func USRules() (RuleSet, error) {
	return LoadRules(usRulesYAML)
}

func LoadRules(data []byte) (RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return RuleSet{}, fmt.Errorf("holiday rules: %w", err)
	}
	for i, rule := range rs.Holidays {
		if err := rule.validate(); err != nil {
			return RuleSet{}, fmt.Errorf("holiday rule %d (%s): %w", i, rule.Name, err)
		}
	}
	return rs, nil
}

func (r Rule) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name required")
	}
	if r.Month < 1 || r.Month > 12 {
		return fmt.Errorf("month out of range")
	}
	if r.Weekday == "" {
		if r.Day < 1 || r.Day > 31 {
			return fmt.Errorf("day out of range")
		}
		return nil
	}
	if _, ok := weekdays[strings.ToLower(r.Weekday)]; !ok {
		return fmt.Errorf("unknown weekday %q", r.Weekday)
	}
	if r.Nth == 0 || r.Nth < -1 || r.Nth > 5 {
		return fmt.Errorf("nth must be 1..5 or -1")
	}
	return nil
}

// Resolve produces the holidays of year. Fixed-date holidays marked observe
// that fall on a weekend get an extra observed entry on the nearest weekday.
func (rs RuleSet) Resolve(year int) []Holiday {
	out := make([]Holiday, 0, len(rs.Holidays)+2)
	for _, rule := range rs.Holidays {
		date := rule.dateIn(year)
		out = append(out, Holiday{Name: rule.Name, Date: date, Region: rs.Region, Kind: KindFederal})
		if !rule.Observe || rule.Weekday != "" {
			continue
		}
		if observed := observedDate(date); observed != date {
			out = append(out, Holiday{
				Name:     rule.Name + " (Observed)",
				Date:     observed,
				Region:   rs.Region,
				Kind:     KindFederal,
				Observed: true,
			})
		}
	}
	return out
}

func (r Rule) dateIn(year int) civil.Day {
	month := time.Month(r.Month)
	if r.Weekday == "" {
		return civil.Recurring(year, month, r.Day)
	}
	return nthWeekday(year, month, weekdays[strings.ToLower(r.Weekday)], r.Nth)
}

func nthWeekday(year int, month time.Month, weekday time.Weekday, nth int) civil.Day {
	if nth < 0 {
		last := civil.New(year, month, civil.DaysIn(year, month))
		back := (int(last.Weekday()) - int(weekday) + 7) % 7
		return last.AddDays(-back)
	}
	first := civil.New(year, month, 1)
	ahead := (int(weekday) - int(first.Weekday()) + 7) % 7
	return first.AddDays(ahead + 7*(nth-1))
}

func observedDate(date civil.Day) civil.Day {
	switch date.Weekday() {
	case time.Saturday:
		return date.AddDays(-1)
	case time.Sunday:
		return date.AddDays(1)
	default:
		return date
	}
}
