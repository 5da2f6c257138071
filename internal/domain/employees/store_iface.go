package employees

import "context"

type StoreAPI interface {
	ListEmployees(ctx context.Context, tenantID string) ([]Employee, error)
	GetEmployee(ctx context.Context, tenantID, employeeID string) (*Employee, error)
	CreateEmployee(ctx context.Context, tenantID string, emp Employee) (string, error)
	UpdateEmployee(ctx context.Context, tenantID, employeeID string, emp Employee) error
}
