package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/codex-task-review/internal/core/employee"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

type stubRow struct {
	scanFn func(dest ...interface{}) error
}

func (s stubRow) Scan(dest ...interface{}) error {
	return s.scanFn(dest...)
}

var employeeRowColumns = []string{"id", "name", "email", "department", "position", "status", "created_at", "updated_at"}

func TestScanEmployee_NoRows(t *testing.T) {
	t.Parallel()

	row := stubRow{scanFn: func(dest ...interface{}) error {
		return pgx.ErrNoRows
	}}

	_, err := scanEmployee(row)
	if !errors.Is(err, employee.ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}
}

func TestTranslateEmployeePgError(t *testing.T) {
	t.Parallel()

	uniqueErr := &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "employees_email_key"}
	if !errors.Is(translateEmployeePgError(uniqueErr), employee.ErrEmailAlreadyExists) {
		t.Fatalf("expected unique violation to map to ErrEmailAlreadyExists")
	}

	fkErr := &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "users_employee_id_fkey"}
	if !errors.Is(translateEmployeePgError(fkErr), employee.ErrEmployeeHasAccount) {
		t.Fatalf("expected fk violation to map to ErrEmployeeHasAccount")
	}

	checkErr := &pgconn.PgError{Code: checkViolationCode, ConstraintName: "employees_status_check"}
	if !errors.Is(translateEmployeePgError(checkErr), employee.ErrInvalidStatus) {
		t.Fatalf("expected check violation to map to ErrInvalidStatus")
	}

	other := errors.New("other")
	if translateEmployeePgError(other) != other {
		t.Fatalf("unexpected translation for generic error")
	}
}

func TestEmployeeRepository_List_WithFilters(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewEmployeeRepository(mock)
	status := employee.StatusActive

	now := time.Now().UTC()
	rows := pgxmock.NewRows(employeeRowColumns).
		AddRow("emp-1", "John Smith", "john@company.com", "Engineering", "Developer", "active", now, now).
		AddRow("emp-2", "Sarah Johnson", "sarah@company.com", "Product", "PM", "active", now, now).
		AddRow("emp-3", "Mike Chen", "mike@company.com", "Engineering", "Frontend", "active", now, now)

	mock.ExpectQuery(`FROM employees e WHERE e\.status = \$1\s+ORDER BY e\.created_at DESC, e\.id DESC\s+LIMIT \$2\s+OFFSET \$3`).
		WithArgs(string(status), 3, 0).
		WillReturnRows(rows)

	employees, nextToken, err := repo.List(context.Background(), employee.ListEmployeesFilter{
		Status: &status,
		Limit:  2,
		Offset: 0,
	})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}

	if len(employees) != 2 {
		t.Fatalf("expected 2 employees, got %d", len(employees))
	}
	if nextToken != "2" {
		t.Fatalf("expected next token '2', got %s", nextToken)
	}
	if employees[1].Name != "Sarah Johnson" || employees[1].Status != employee.StatusActive {
		t.Fatalf("unexpected employee %+v", employees[1])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEmployeeRepository_List_InvalidArguments(t *testing.T) {
	t.Parallel()

	repo := NewEmployeeRepository(nil)

	if _, _, err := repo.List(context.Background(), employee.ListEmployeesFilter{Limit: 0}); !errors.Is(err, employee.ErrInvalidPageSize) {
		t.Fatalf("expected ErrInvalidPageSize, got %v", err)
	}
	if _, _, err := repo.List(context.Background(), employee.ListEmployeesFilter{Limit: 1, Offset: -1}); !errors.Is(err, employee.ErrInvalidPageToken) {
		t.Fatalf("expected ErrInvalidPageToken, got %v", err)
	}
}

func TestEmployeeRepository_FindByEmail(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewEmployeeRepository(mock)

	mock.ExpectQuery(`WHERE e\.email = \$1`).
		WithArgs("nobody@company.com").
		WillReturnRows(pgxmock.NewRows(employeeRowColumns))

	if _, err := repo.FindByEmail(context.Background(), "nobody@company.com"); !errors.Is(err, employee.ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEmployeeRepository_Delete(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewEmployeeRepository(mock)

	mock.ExpectExec(`DELETE FROM employees WHERE id = \$1`).
		WithArgs("emp-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM employees WHERE id = \$1`).
		WithArgs("emp-2").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`DELETE FROM employees WHERE id = \$1`).
		WithArgs("emp-3").
		WillReturnError(&pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "users_employee_id_fkey"})

	if err := repo.Delete(context.Background(), "emp-1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := repo.Delete(context.Background(), "emp-2"); !errors.Is(err, employee.ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}
	if err := repo.Delete(context.Background(), "emp-3"); !errors.Is(err, employee.ErrEmployeeHasAccount) {
		t.Fatalf("expected ErrEmployeeHasAccount, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
