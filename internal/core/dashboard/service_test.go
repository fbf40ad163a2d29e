package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/ogurasousui/codex-task-review/internal/core/access"
)

type fakeRepo struct {
	counts *Counts
	err    error
}

func (r fakeRepo) Counts(context.Context) (*Counts, error) {
	return r.counts, r.err
}

func TestSummarize_CompletionRate(t *testing.T) {
	t.Parallel()

	s := Summarize(&Counts{
		TotalEmployees: 3,
		ByStatus:       map[string]int{"completed": 2, "pending": 1, "in-progress": 1},
		ByPriority:     map[string]int{"high": 1, "medium": 3},
	})

	if s.TotalTasks != 4 || s.CompletedTasks != 2 {
		t.Fatalf("unexpected totals: %+v", s)
	}
	if s.CompletionRate != 50 {
		t.Fatalf("expected completion rate 50, got %d", s.CompletionRate)
	}
	if s.TasksByPriority["medium"] != 3 || s.TasksByPriority["low"] != 0 {
		t.Fatalf("unexpected priority counts: %v", s.TasksByPriority)
	}
	if s.TotalEmployees != 3 {
		t.Fatalf("unexpected employee count: %d", s.TotalEmployees)
	}
}

func TestSummarize_Empty(t *testing.T) {
	t.Parallel()

	s := Summarize(nil)
	if s.TotalTasks != 0 || s.CompletionRate != 0 || len(s.TasksByEmployee) != 0 {
		t.Fatalf("unexpected summary: %+v", s)
	}
}

func TestSummarize_EmployeeOrdering(t *testing.T) {
	t.Parallel()

	s := Summarize(&Counts{
		ByStatus: map[string]int{"completed": 1, "pending": 5},
		Employees: []EmployeeCounts{
			{EmployeeID: "e-1", EmployeeName: "Zoe", TotalTasks: 2, CompletedTasks: 0},
			{EmployeeID: "e-2", EmployeeName: "Bob", TotalTasks: 3, CompletedTasks: 1},
			{EmployeeID: "e-3", EmployeeName: "Amy", TotalTasks: 2, CompletedTasks: 0},
		},
	})

	want := []string{"e-2", "e-3", "e-1"}
	for i, id := range want {
		if s.TasksByEmployee[i].EmployeeID != id {
			t.Fatalf("position %d: want %s got %s", i, id, s.TasksByEmployee[i].EmployeeID)
		}
	}
	if s.TasksByEmployee[0].CompletionRate != 33 {
		t.Fatalf("expected rounded rate 33, got %d", s.TasksByEmployee[0].CompletionRate)
	}
	if s.CompletionRate != 17 {
		t.Fatalf("expected rounded rate 17, got %d", s.CompletionRate)
	}
}

func TestService_GetSummary(t *testing.T) {
	t.Parallel()

	svc := NewService(fakeRepo{counts: &Counts{ByStatus: map[string]int{"completed": 1}}}, nil)

	if _, err := svc.GetSummary(context.Background(), nil); !errors.Is(err, access.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}

	s, err := svc.GetSummary(context.Background(), access.Employee{ID: "u", EmployeeID: "e"})
	if err != nil {
		t.Fatalf("GetSummary returned error: %v", err)
	}
	if s.CompletionRate != 100 {
		t.Fatalf("expected 100, got %d", s.CompletionRate)
	}

	boom := errors.New("boom")
	failing := NewService(fakeRepo{err: boom}, nil)
	if _, err := failing.GetSummary(context.Background(), access.Admin{ID: "a"}); !errors.Is(err, boom) {
		t.Fatalf("expected repository error, got %v", err)
	}
}
