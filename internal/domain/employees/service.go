package employees

import (
	"context"
	"strings"

	"onehr/internal/domain/auth"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

// List returns the roster visible to user. Employees only see themselves.
func (s *Service) List(ctx context.Context, user auth.UserContext) ([]Employee, error) {
	all, err := s.store.ListEmployees(ctx, user.TenantID)
	if err != nil {
		return nil, err
	}
	if user.RoleName != auth.RoleEmployee {
		return all, nil
	}
	out := make([]Employee, 0, 1)
	for _, emp := range all {
		if emp.UserID == user.UserID {
			out = append(out, emp)
		}
	}
	return out, nil
}

// Roster is the unfiltered tenant roster used for calendar projection.
func (s *Service) Roster(ctx context.Context, tenantID string) ([]Employee, error) {
	return s.store.ListEmployees(ctx, tenantID)
}

func (s *Service) Get(ctx context.Context, tenantID, employeeID string) (*Employee, error) {
	return s.store.GetEmployee(ctx, tenantID, employeeID)
}

func (s *Service) Create(ctx context.Context, tenantID string, emp Employee) (string, error) {
	normalize(&emp)
	return s.store.CreateEmployee(ctx, tenantID, emp)
}

func (s *Service) Update(ctx context.Context, tenantID, employeeID string, emp Employee) error {
	normalize(&emp)
	return s.store.UpdateEmployee(ctx, tenantID, employeeID, emp)
}

func normalize(emp *Employee) {
	emp.FirstName = strings.TrimSpace(emp.FirstName)
	emp.LastName = strings.TrimSpace(emp.LastName)
	emp.Email = strings.ToLower(strings.TrimSpace(emp.Email))
	emp.Status = strings.ToLower(strings.TrimSpace(emp.Status))
	if emp.Status == "" {
		emp.Status = StatusActive
	}
}
