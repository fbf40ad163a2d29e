package identity

import (
	"time"

	"github.com/ogurasousui/codex-task-review/internal/core/access"
)

// Role はユーザーの権限種別です。
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User はログイン可能なアカウントです。RoleUser の場合は必ず EmployeeID を持ちます。
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	EmployeeID   string
	Employee     *EmployeeSnapshot
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// EmployeeSnapshot はユーザーに紐づく社員情報のスナップショットです。
type EmployeeSnapshot struct {
	ID         string
	Name       string
	Email      string
	Department string
	Position   string
}

// Principal はユーザーをアクセス判定用の呼び出し元に変換します。
func (u *User) Principal() access.Principal {
	if u == nil {
		return nil
	}
	if u.Role == RoleAdmin {
		return access.Admin{ID: u.ID}
	}
	return access.Employee{ID: u.ID, EmployeeID: u.EmployeeID}
}
