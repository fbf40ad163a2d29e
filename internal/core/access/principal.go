// Package access は呼び出し元の権限 (管理者 / 社員) に基づく可視性と操作可否を判定します。
package access

import "errors"

var (
	// ErrUnauthenticated は呼び出し元が特定できない場合に返却されます。
	ErrUnauthenticated = errors.New("access: authentication required")
	// ErrForbidden は権限または所有者が一致しない場合に返却されます。
	ErrForbidden = errors.New("access: forbidden")
	// ErrNoLinkedEmployee は社員ユーザーに社員が紐づいていない場合に返却されます。
	ErrNoLinkedEmployee = errors.New("access: no employee linked to caller")
)

// Principal は認証済みの呼び出し元です。Admin と Employee のいずれかです。
type Principal interface {
	UserID() string
	principal()
}

// Admin は全タスク・全社員への読み書き権限を持つ呼び出し元です。
type Admin struct {
	ID string
}

// UserID はユーザー ID を返します。
func (a Admin) UserID() string { return a.ID }

func (Admin) principal() {}

// Employee は自分に割り当てられたタスクのみを扱える呼び出し元です。
type Employee struct {
	ID         string
	EmployeeID string
}

// UserID はユーザー ID を返します。
func (e Employee) UserID() string { return e.ID }

func (Employee) principal() {}

// IsAdmin は p が管理者かを返します。
func IsAdmin(p Principal) bool {
	_, ok := p.(Admin)
	return ok
}
