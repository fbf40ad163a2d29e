package access

import (
	"errors"
	"testing"
)

func TestRequireAdmin(t *testing.T) {
	t.Parallel()

	if err := RequireAdmin(Admin{ID: "u-1"}); err != nil {
		t.Fatalf("admin should pass, got %v", err)
	}
	if err := RequireAdmin(Employee{ID: "u-2", EmployeeID: "e-1"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := RequireAdmin(nil); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestScopeAssignee(t *testing.T) {
	t.Parallel()

	got, err := ScopeAssignee(Admin{ID: "u-1"}, "e-9")
	if err != nil || got != "e-9" {
		t.Fatalf("admin filter should pass through, got %q %v", got, err)
	}

	got, err = ScopeAssignee(Admin{ID: "u-1"}, "")
	if err != nil || got != "" {
		t.Fatalf("admin without filter should stay empty, got %q %v", got, err)
	}

	got, err = ScopeAssignee(Employee{ID: "u-2", EmployeeID: "e-1"}, "e-9")
	if err != nil || got != "e-1" {
		t.Fatalf("employee filter must be forced to own id, got %q %v", got, err)
	}

	if _, err := ScopeAssignee(Employee{ID: "u-3"}, ""); !errors.Is(err, ErrNoLinkedEmployee) {
		t.Fatalf("expected ErrNoLinkedEmployee, got %v", err)
	}
}

func TestAuthorizeTaskRead(t *testing.T) {
	t.Parallel()

	owner := Employee{ID: "u-2", EmployeeID: "e-1"}

	if err := AuthorizeTaskRead(Admin{ID: "u-1"}, "e-1"); err != nil {
		t.Fatalf("admin should read any task, got %v", err)
	}
	if err := AuthorizeTaskRead(owner, "e-1"); err != nil {
		t.Fatalf("owner should read own task, got %v", err)
	}
	if err := AuthorizeTaskRead(owner, "e-2"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := AuthorizeCompletionRequest(owner, "e-2"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if !CanViewEmployeeTasks(owner, "e-1") || CanViewEmployeeTasks(owner, "e-2") || CanViewEmployeeTasks(nil, "e-1") {
		t.Fatalf("unexpected employee task visibility")
	}
}
