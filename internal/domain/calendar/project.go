package calendar

import (
	"fmt"
	"log/slog"

	"onehr/internal/domain/civil"
	"onehr/internal/domain/employees"
)

// Project derives the birthday and work anniversary events of year from the
// roster. Employees without an id or with a missing or malformed date simply
// contribute nothing for that category. Feb 29 dates land on Feb 28 in
// non-leap years.
func Project(roster []employees.Employee, year int) []Event {
	out := make([]Event, 0, 2*len(roster))
	for _, emp := range roster {
		if emp.ID == "" {
			continue
		}
		if ev, ok := birthdayEvent(emp, year); ok {
			out = append(out, ev)
		}
		if ev, ok := anniversaryEvent(emp, year); ok {
			out = append(out, ev)
		}
	}
	return out
}

func birthdayEvent(emp employees.Employee, year int) (Event, bool) {
	born, ok := parseRosterDate(emp.ID, "dateOfBirth", emp.DateOfBirth)
	if !ok {
		return Event{}, false
	}
	name := emp.FullName()
	return Event{
		ID:           BirthdayID(emp.ID, year),
		Type:         TypeBirthday,
		Title:        fmt.Sprintf("%s's Birthday", name),
		Date:         civil.Recurring(year, born.Month, born.Day),
		EmployeeID:   emp.ID,
		EmployeeName: name,
		Color:        TypeBirthday.Color(),
	}, true
}

func anniversaryEvent(emp employees.Employee, year int) (Event, bool) {
	started, ok := parseRosterDate(emp.ID, "startDate", emp.StartDate)
	if !ok {
		return Event{}, false
	}
	years := year - started.Year
	if years <= 0 {
		return Event{}, false
	}
	name := emp.FullName()
	label := pluralize(years, "year")
	return Event{
		ID:             AnniversaryID(emp.ID, year),
		Type:           TypeAnniversary,
		Title:          fmt.Sprintf("%s - %s Work Anniversary", name, label),
		Date:           civil.Recurring(year, started.Month, started.Day),
		EmployeeID:     emp.ID,
		EmployeeName:   name,
		Description:    fmt.Sprintf("Celebrating %s with the company", label),
		YearsOfService: years,
		Color:          TypeAnniversary.Color(),
	}, true
}

func parseRosterDate(employeeID, field, value string) (civil.Day, bool) {
	if value == "" {
		return civil.Day{}, false
	}
	day, err := civil.Parse(value)
	if err != nil {
		slog.Debug("skipping malformed roster date", "employeeId", employeeID, "field", field, "err", err)
		return civil.Day{}, false
	}
	return day, true
}
