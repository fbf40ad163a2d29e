package employee

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
)

type stubClock struct {
	now time.Time
}

func (s *stubClock) Now() time.Time {
	return s.now
}

type fakeEmployeeRepo struct {
	employees map[string]*Employee
	order     []string
}

func newFakeEmployeeRepo() *fakeEmployeeRepo {
	return &fakeEmployeeRepo{employees: make(map[string]*Employee)}
}

func (r *fakeEmployeeRepo) Create(_ context.Context, e *Employee) (*Employee, error) {
	for _, existing := range r.employees {
		if existing.Email == e.Email {
			return nil, ErrEmailAlreadyExists
		}
	}

	clone := *e
	clone.ID = uuid.NewString()
	r.employees[clone.ID] = &clone
	r.order = append([]string{clone.ID}, r.order...)
	out := clone
	return &out, nil
}

func (r *fakeEmployeeRepo) Update(_ context.Context, e *Employee) (*Employee, error) {
	if _, ok := r.employees[e.ID]; !ok {
		return nil, ErrEmployeeNotFound
	}
	clone := *e
	r.employees[e.ID] = &clone
	out := clone
	return &out, nil
}

func (r *fakeEmployeeRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.employees[id]; !ok {
		return ErrEmployeeNotFound
	}
	delete(r.employees, id)
	for idx, existingID := range r.order {
		if existingID == id {
			r.order = append(r.order[:idx], r.order[idx+1:]...)
			break
		}
	}
	return nil
}

func (r *fakeEmployeeRepo) FindByID(_ context.Context, id string) (*Employee, error) {
	emp, ok := r.employees[id]
	if !ok {
		return nil, ErrEmployeeNotFound
	}
	out := *emp
	return &out, nil
}

func (r *fakeEmployeeRepo) FindByEmail(_ context.Context, email string) (*Employee, error) {
	for _, emp := range r.employees {
		if emp.Email == email {
			out := *emp
			return &out, nil
		}
	}
	return nil, ErrEmployeeNotFound
}

func (r *fakeEmployeeRepo) List(_ context.Context, filter ListEmployeesFilter) ([]*Employee, string, error) {
	var filtered []*Employee
	for _, id := range r.order {
		emp := r.employees[id]
		if filter.Status != nil && emp.Status != *filter.Status {
			continue
		}
		out := *emp
		filtered = append(filtered, &out)
	}

	if filter.Offset > len(filtered) {
		return []*Employee{}, "", nil
	}

	end := filter.Offset + filter.Limit
	if end > len(filtered) {
		end = len(filtered)
	}

	nextToken := ""
	if end < len(filtered) {
		nextToken = strconv.Itoa(end)
	}

	return filtered[filter.Offset:end], nextToken, nil
}

type fakeTaskCleaner struct {
	tasksByAssignee map[string]int64
	err             error
}

func (f *fakeTaskCleaner) DeleteByAssignee(_ context.Context, employeeID string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	n := f.tasksByAssignee[employeeID]
	delete(f.tasksByAssignee, employeeID)
	return n, nil
}

type fakeAccountChecker struct {
	linked map[string]bool
}

func (f fakeAccountChecker) HasAccountForEmployee(_ context.Context, employeeID string) (bool, error) {
	return f.linked[employeeID], nil
}

func newTestService(clk *stubClock) (*Service, *fakeEmployeeRepo, *fakeTaskCleaner, *fakeAccountChecker) {
	repo := newFakeEmployeeRepo()
	cleaner := &fakeTaskCleaner{tasksByAssignee: map[string]int64{}}
	accounts := &fakeAccountChecker{linked: map[string]bool{}}
	return NewService(repo, cleaner, accounts, clk, nil), repo, cleaner, accounts
}

func validInput(email string) CreateEmployeeInput {
	return CreateEmployeeInput{
		Name:       "John Smith",
		Email:      email,
		Department: "Engineering",
		Position:   "Senior Developer",
	}
}

func TestService_CreateEmployee_Success(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	svc, _, _, _ := newTestService(&stubClock{now: now})

	created, err := svc.CreateEmployee(context.Background(), CreateEmployeeInput{
		Name:       "  John Smith  ",
		Email:      " John.Smith@Company.com ",
		Department: " Engineering ",
		Position:   " Senior Developer ",
	})
	if err != nil {
		t.Fatalf("CreateEmployee returned error: %v", err)
	}

	if created.Name != "John Smith" {
		t.Fatalf("expected trimmed name, got %q", created.Name)
	}
	if created.Email != "john.smith@company.com" {
		t.Fatalf("expected normalized email, got %q", created.Email)
	}
	if created.Department != "Engineering" || created.Position != "Senior Developer" {
		t.Fatalf("expected trimmed department/position, got %q %q", created.Department, created.Position)
	}
	if created.Status != StatusActive {
		t.Fatalf("expected default status active, got %s", created.Status)
	}
	if !created.CreatedAt.Equal(now) || !created.UpdatedAt.Equal(now) {
		t.Fatalf("expected timestamps to use clock now")
	}
}

func TestService_CreateEmployee_Validation(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestService(&stubClock{now: time.Now().UTC()})
	invalidStatus := Status("on-leave")

	cases := []struct {
		name string
		in   CreateEmployeeInput
		want error
	}{
		{"short name", CreateEmployeeInput{Name: "J", Email: "a@b.com", Department: "D", Position: "P"}, ErrInvalidName},
		{"bad email", CreateEmployeeInput{Name: "Jo", Email: "not-an-email", Department: "D", Position: "P"}, ErrInvalidEmail},
		{"display name email", CreateEmployeeInput{Name: "Jo", Email: "Jo <jo@b.com>", Department: "D", Position: "P"}, ErrInvalidEmail},
		{"missing department", CreateEmployeeInput{Name: "Jo", Email: "a@b.com", Department: " ", Position: "P"}, ErrInvalidDepartment},
		{"missing position", CreateEmployeeInput{Name: "Jo", Email: "a@b.com", Department: "D"}, ErrInvalidPosition},
		{"invalid status", CreateEmployeeInput{Name: "Jo", Email: "a@b.com", Department: "D", Position: "P", Status: &invalidStatus}, ErrInvalidStatus},
	}

	for _, tc := range cases {
		if _, err := svc.CreateEmployee(context.Background(), tc.in); !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestService_CreateEmployee_DuplicateEmail(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestService(&stubClock{now: time.Now().UTC()})

	if _, err := svc.CreateEmployee(context.Background(), validInput("dup@company.com")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.CreateEmployee(context.Background(), validInput("DUP@company.com"))
	if !errors.Is(err, ErrEmailAlreadyExists) {
		t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
	}
}

func TestService_UpdateEmployee_Partial(t *testing.T) {
	t.Parallel()

	clk := &stubClock{now: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)}
	svc, _, _, _ := newTestService(clk)

	created, err := svc.CreateEmployee(context.Background(), validInput("sarah@company.com"))
	if err != nil {
		t.Fatalf("CreateEmployee returned error: %v", err)
	}

	clk.now = clk.now.Add(time.Hour)
	newPosition := "  Staff Engineer "
	inactive := StatusInactive

	updated, err := svc.UpdateEmployee(context.Background(), UpdateEmployeeInput{
		ID:       created.ID,
		Position: &newPosition,
		Status:   &inactive,
	})
	if err != nil {
		t.Fatalf("UpdateEmployee returned error: %v", err)
	}

	if updated.Position != "Staff Engineer" {
		t.Fatalf("expected trimmed position, got %q", updated.Position)
	}
	if updated.Status != StatusInactive {
		t.Fatalf("expected inactive, got %s", updated.Status)
	}
	if updated.Name != created.Name || updated.Email != created.Email {
		t.Fatalf("untouched fields changed: %+v", updated)
	}
	if !updated.UpdatedAt.Equal(clk.now) {
		t.Fatalf("expected updated timestamp to use clock")
	}
}

func TestService_UpdateEmployee_EmailConflict(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestService(&stubClock{now: time.Now().UTC()})

	if _, err := svc.CreateEmployee(context.Background(), validInput("first@company.com")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.CreateEmployee(context.Background(), validInput("second@company.com"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	taken := "first@company.com"
	if _, err := svc.UpdateEmployee(context.Background(), UpdateEmployeeInput{ID: second.ID, Email: &taken}); !errors.Is(err, ErrEmailAlreadyExists) {
		t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
	}

	same := "SECOND@company.com"
	if _, err := svc.UpdateEmployee(context.Background(), UpdateEmployeeInput{ID: second.ID, Email: &same}); err != nil {
		t.Fatalf("re-saving own email should succeed, got %v", err)
	}
}

func TestService_UpdateEmployee_NotFoundAndInvalidID(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestService(&stubClock{now: time.Now().UTC()})

	if _, err := svc.UpdateEmployee(context.Background(), UpdateEmployeeInput{ID: "nope"}); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if _, err := svc.UpdateEmployee(context.Background(), UpdateEmployeeInput{ID: uuid.NewString()}); !errors.Is(err, ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}
}

func TestService_DeleteEmployee_CascadesTasks(t *testing.T) {
	t.Parallel()

	svc, repo, cleaner, _ := newTestService(&stubClock{now: time.Now().UTC()})

	created, err := svc.CreateEmployee(context.Background(), validInput("mike@company.com"))
	if err != nil {
		t.Fatalf("CreateEmployee returned error: %v", err)
	}
	cleaner.tasksByAssignee[created.ID] = 3

	result, err := svc.DeleteEmployee(context.Background(), DeleteEmployeeInput{ID: created.ID})
	if err != nil {
		t.Fatalf("DeleteEmployee returned error: %v", err)
	}
	if result.DeletedTasks != 3 {
		t.Fatalf("expected 3 deleted tasks, got %d", result.DeletedTasks)
	}
	if result.Employee.ID != created.ID {
		t.Fatalf("expected deleted employee in result")
	}
	if _, ok := cleaner.tasksByAssignee[created.ID]; ok {
		t.Fatalf("tasks of deleted employee should be gone")
	}
	if _, ok := repo.employees[created.ID]; ok {
		t.Fatalf("employee should be removed")
	}
}

func TestService_DeleteEmployee_LinkedAccountBlocks(t *testing.T) {
	t.Parallel()

	svc, repo, cleaner, accounts := newTestService(&stubClock{now: time.Now().UTC()})

	created, err := svc.CreateEmployee(context.Background(), validInput("emily@company.com"))
	if err != nil {
		t.Fatalf("CreateEmployee returned error: %v", err)
	}
	accounts.linked[created.ID] = true
	cleaner.tasksByAssignee[created.ID] = 2

	if _, err := svc.DeleteEmployee(context.Background(), DeleteEmployeeInput{ID: created.ID}); !errors.Is(err, ErrEmployeeHasAccount) {
		t.Fatalf("expected ErrEmployeeHasAccount, got %v", err)
	}
	if cleaner.tasksByAssignee[created.ID] != 2 {
		t.Fatalf("tasks must survive a refused delete")
	}
	if _, ok := repo.employees[created.ID]; !ok {
		t.Fatalf("employee must survive a refused delete")
	}
}

func TestService_DeleteEmployee_CleanerFailure(t *testing.T) {
	t.Parallel()

	svc, repo, cleaner, _ := newTestService(&stubClock{now: time.Now().UTC()})

	created, err := svc.CreateEmployee(context.Background(), validInput("alex@company.com"))
	if err != nil {
		t.Fatalf("CreateEmployee returned error: %v", err)
	}
	boom := errors.New("boom")
	cleaner.err = boom

	if _, err := svc.DeleteEmployee(context.Background(), DeleteEmployeeInput{ID: created.ID}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped cleaner error, got %v", err)
	}
	if _, ok := repo.employees[created.ID]; !ok {
		t.Fatalf("employee must not be deleted when task cleanup fails")
	}
}

func TestService_ListEmployees_FilterAndPagination(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestService(&stubClock{now: time.Now().UTC()})

	statuses := []Status{StatusActive, StatusInactive, StatusActive}
	for i, status := range statuses {
		status := status
		in := validInput(fmt.Sprintf("seed%d@company.com", i))
		in.Status = &status
		if _, err := svc.CreateEmployee(context.Background(), in); err != nil {
			t.Fatalf("unexpected seed error: %v", err)
		}
	}

	inactive := StatusInactive
	result, err := svc.ListEmployees(context.Background(), ListEmployeesInput{Status: &inactive})
	if err != nil {
		t.Fatalf("ListEmployees returned error: %v", err)
	}
	if len(result.Employees) != 1 {
		t.Fatalf("expected 1 inactive employee, got %d", len(result.Employees))
	}

	active := StatusActive
	page1, err := svc.ListEmployees(context.Background(), ListEmployeesInput{PageSize: 1, Status: &active})
	if err != nil {
		t.Fatalf("ListEmployees returned error: %v", err)
	}
	if len(page1.Employees) != 1 || page1.NextPageToken == "" {
		t.Fatalf("expected one employee and a next token, got %d %q", len(page1.Employees), page1.NextPageToken)
	}

	page2, err := svc.ListEmployees(context.Background(), ListEmployeesInput{PageSize: 1, PageToken: page1.NextPageToken, Status: &active})
	if err != nil {
		t.Fatalf("ListEmployees page2 returned error: %v", err)
	}
	if len(page2.Employees) != 1 || page2.NextPageToken != "" {
		t.Fatalf("expected last page, got %d %q", len(page2.Employees), page2.NextPageToken)
	}
}

func TestService_ListEmployees_InvalidPaging(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestService(&stubClock{now: time.Now().UTC()})

	if _, err := svc.ListEmployees(context.Background(), ListEmployeesInput{PageSize: maxListPageSize + 1}); !errors.Is(err, ErrInvalidPageSize) {
		t.Fatalf("expected ErrInvalidPageSize, got %v", err)
	}
	if _, err := svc.ListEmployees(context.Background(), ListEmployeesInput{PageToken: "-1"}); !errors.Is(err, ErrInvalidPageToken) {
		t.Fatalf("expected ErrInvalidPageToken, got %v", err)
	}
}
