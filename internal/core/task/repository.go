package task

import (
	"context"

	"github.com/ogurasousui/codex-task-review/internal/core/employee"
)

// Repository はタスク永続化の抽象です。
// Update は t.Version が保存済みの値と一致する場合のみ更新し、一致しなければ ErrConcurrentUpdate を返します。
type Repository interface {
	Create(ctx context.Context, t *Task) (*Task, error)
	Update(ctx context.Context, t *Task) (*Task, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Task, error)
	List(ctx context.Context, filter ListTasksFilter) ([]*Task, error)
	DeleteByAssignee(ctx context.Context, employeeID string) (int64, error)
	AppendReviewEvent(ctx context.Context, event *ReviewEvent) error
	ListReviewEvents(ctx context.Context, taskID string) ([]*ReviewEvent, error)
}

// ListTasksFilter は一覧取得用フィルタです。空文字のフィールドは条件に含めません。
type ListTasksFilter struct {
	Status     Status
	Priority   Priority
	AssignedTo string
}

// EmployeeFinder は担当社員の存在を確認します。
type EmployeeFinder interface {
	FindByID(ctx context.Context, id string) (*employee.Employee, error)
}
