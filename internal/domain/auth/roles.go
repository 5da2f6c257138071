package auth

const (
	RoleHR       = "HR"
	RoleManager  = "Manager"
	RoleEmployee = "Employee"
)

const UserStatusActive = "active"

// UserContext is the authenticated caller, derived from the bearer token and
// passed explicitly into services.
type UserContext struct {
	UserID   string
	TenantID string
	RoleID   string
	RoleName string
}

func (u UserContext) IsHR() bool {
	return u.RoleName == RoleHR
}
