package identity

import (
	"context"

	"github.com/ogurasousui/codex-task-review/internal/core/employee"
)

// Repository はユーザーの永続化を行うインターフェースです。
type Repository interface {
	Create(ctx context.Context, user *User) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByEmployeeID(ctx context.Context, employeeID string) (*User, error)
}

// EmployeeFinder は登録時に社員の存在を確認します。
type EmployeeFinder interface {
	FindByID(ctx context.Context, id string) (*employee.Employee, error)
}

// PasswordHasher はパスワードのハッシュ化と照合を行います。
type PasswordHasher interface {
	Hash(password string) (string, error)
	Matches(hash, password string) (bool, error)
}

// TokenIssuer はユーザー ID からアクセストークンを発行します。
type TokenIssuer interface {
	Issue(userID string) (string, error)
}
