package employees

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"onehr/internal/domain/civil"
)

var ErrNotFound = errors.New("employee not found")

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const employeeColumns = `
    id,
    COALESCE(user_id::text, ''),
    COALESCE(employee_number, ''),
    first_name, last_name, email,
    COALESCE(phone, ''),
    date_of_birth, start_date, end_date,
    COALESCE(department_id::text, ''),
    status, created_at, updated_at`

func (s *Store) ListEmployees(ctx context.Context, tenantID string) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+employeeColumns+`
    FROM employees
    WHERE tenant_id = $1
    ORDER BY last_name, first_name
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	return out, rows.Err()
}

func (s *Store) GetEmployee(ctx context.Context, tenantID, employeeID string) (*Employee, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+employeeColumns+`
    FROM employees
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, employeeID)
	emp, err := scanEmployee(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

func (s *Store) CreateEmployee(ctx context.Context, tenantID string, emp Employee) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO employees (tenant_id, user_id, employee_number, first_name, last_name, email, phone,
      date_of_birth, start_date, end_date, department_id, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
    RETURNING id
  `,
		tenantID, nullIfEmpty(emp.UserID), nullIfEmpty(emp.EmployeeNumber), emp.FirstName, emp.LastName, emp.Email,
		nullIfEmpty(emp.Phone), dateArg(emp.DateOfBirth), dateArg(emp.StartDate), dateArg(emp.EndDate),
		nullIfEmpty(emp.DepartmentID), emp.Status,
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) UpdateEmployee(ctx context.Context, tenantID, employeeID string, emp Employee) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE employees
    SET first_name = $1, last_name = $2, email = $3, phone = $4,
        date_of_birth = $5, start_date = $6, end_date = $7, department_id = $8, status = $9,
        updated_at = now()
    WHERE tenant_id = $10 AND id = $11
  `,
		emp.FirstName, emp.LastName, emp.Email, nullIfEmpty(emp.Phone),
		dateArg(emp.DateOfBirth), dateArg(emp.StartDate), dateArg(emp.EndDate), nullIfEmpty(emp.DepartmentID), emp.Status,
		tenantID, employeeID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanEmployee(row pgx.Row) (Employee, error) {
	var emp Employee
	var dob, start, end *time.Time
	if err := row.Scan(
		&emp.ID, &emp.UserID, &emp.EmployeeNumber, &emp.FirstName, &emp.LastName, &emp.Email, &emp.Phone,
		&dob, &start, &end, &emp.DepartmentID, &emp.Status, &emp.CreatedAt, &emp.UpdatedAt,
	); err != nil {
		return Employee{}, err
	}
	emp.DateOfBirth = formatDate(dob)
	emp.StartDate = formatDate(start)
	emp.EndDate = formatDate(end)
	return emp, nil
}

// DATE columns come back as midnight UTC; the written date is what we keep.
func formatDate(value *time.Time) string {
	if value == nil {
		return ""
	}
	return civil.Of(*value).String()
}

func dateArg(value string) any {
	if value == "" {
		return nil
	}
	day, err := civil.Parse(value)
	if err != nil {
		return nil
	}
	return day.Time()
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
