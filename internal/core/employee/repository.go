package employee

import "context"

// Repository は社員永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, employee *Employee) (*Employee, error)
	Update(ctx context.Context, employee *Employee) (*Employee, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Employee, error)
	FindByEmail(ctx context.Context, email string) (*Employee, error)
	List(ctx context.Context, filter ListEmployeesFilter) ([]*Employee, string, error)
}

// ListEmployeesFilter は一覧取得用フィルタです。
type ListEmployeesFilter struct {
	Status *Status
	Limit  int
	Offset int
}

// TaskCleaner は社員削除時に担当タスクを削除します。
type TaskCleaner interface {
	DeleteByAssignee(ctx context.Context, employeeID string) (int64, error)
}

// AccountChecker は社員に紐づくユーザーアカウントの有無を確認します。
type AccountChecker interface {
	HasAccountForEmployee(ctx context.Context, employeeID string) (bool, error)
}
