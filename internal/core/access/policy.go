package access

// RequireAdmin は管理者以外を拒否します。
func RequireAdmin(p Principal) error {
	switch p.(type) {
	case Admin:
		return nil
	case Employee:
		return ErrForbidden
	default:
		return ErrUnauthenticated
	}
}

// ScopeAssignee はタスク一覧の担当者フィルタを呼び出し元に合わせて決定します。
// 社員は指定値に関わらず自分の社員 ID に固定されます。
func ScopeAssignee(p Principal, requested string) (string, error) {
	switch v := p.(type) {
	case Admin:
		return requested, nil
	case Employee:
		if v.EmployeeID == "" {
			return "", ErrNoLinkedEmployee
		}
		return v.EmployeeID, nil
	default:
		return "", ErrUnauthenticated
	}
}

// AuthorizeTaskRead は担当者 assignedTo のタスクを参照できるかを判定します。
func AuthorizeTaskRead(p Principal, assignedTo string) error {
	return authorizeOwnerOrAdmin(p, assignedTo)
}

// AuthorizeCompletionRequest は完了申請を出せるかを判定します。担当社員本人か管理者のみ可能です。
func AuthorizeCompletionRequest(p Principal, assignedTo string) error {
	return authorizeOwnerOrAdmin(p, assignedTo)
}

// CanViewEmployeeTasks は社員詳細にタスク一覧を含めてよいかを返します。
func CanViewEmployeeTasks(p Principal, employeeID string) bool {
	return authorizeOwnerOrAdmin(p, employeeID) == nil
}

func authorizeOwnerOrAdmin(p Principal, assignedTo string) error {
	switch v := p.(type) {
	case Admin:
		return nil
	case Employee:
		if v.EmployeeID == "" {
			return ErrNoLinkedEmployee
		}
		if v.EmployeeID != assignedTo {
			return ErrForbidden
		}
		return nil
	default:
		return ErrUnauthenticated
	}
}
