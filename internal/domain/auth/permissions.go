package auth

const (
	PermEmployeesRead      = "employees.read"
	PermEmployeesWrite     = "employees.write"
	PermCalendarRead       = "calendar.read"
	PermCalendarWrite      = "calendar.write"
	PermHolidaysWrite      = "holidays.write"
	PermNotificationsRead  = "notifications.read"
	PermNotificationsWrite = "notifications.write"
	PermAuditRead          = "audit.read"
)

var DefaultPermissions = []string{
	PermEmployeesRead,
	PermEmployeesWrite,
	PermCalendarRead,
	PermCalendarWrite,
	PermHolidaysWrite,
	PermNotificationsRead,
	PermNotificationsWrite,
	PermAuditRead,
}

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermEmployeesRead,
		PermCalendarRead,
		PermNotificationsRead,
	},
	RoleManager: {
		PermEmployeesRead,
		PermCalendarRead,
		PermCalendarWrite,
		PermNotificationsRead,
	},
	RoleHR: {
		PermEmployeesRead,
		PermEmployeesWrite,
		PermCalendarRead,
		PermCalendarWrite,
		PermHolidaysWrite,
		PermNotificationsRead,
		PermNotificationsWrite,
		PermAuditRead,
	},
}

// Allowed reports whether the built-in role table grants permission.
func Allowed(roleName, permission string) bool {
	for _, perm := range RolePermissions[roleName] {
		if perm == permission {
			return true
		}
	}
	return false
}
