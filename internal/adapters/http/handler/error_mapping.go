package handler

import (
	"errors"
	"net/http"

	"github.com/ogurasousui/codex-task-review/internal/core/access"
	"github.com/ogurasousui/codex-task-review/internal/core/employee"
	"github.com/ogurasousui/codex-task-review/internal/core/identity"
	"github.com/ogurasousui/codex-task-review/internal/core/task"
)

const internalErrorMessage = "Internal Server Error"

// httpError はドメインエラーを HTTP ステータスと公開メッセージに対応付けます。
type httpError struct {
	err     error
	status  int
	message string
}

var errorTable = []httpError{
	// 認証・権限
	{access.ErrUnauthenticated, http.StatusUnauthorized, "Not authorized"},
	{identity.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	{access.ErrForbidden, http.StatusForbidden, "Forbidden"},
	{access.ErrNoLinkedEmployee, http.StatusBadRequest, "No employee is linked to this account"},

	// 入力不正
	{identity.ErrInvalidEmail, http.StatusBadRequest, "Invalid email"},
	{identity.ErrInvalidPassword, http.StatusBadRequest, "Password must be at least 6 characters long"},
	{identity.ErrInvalidRole, http.StatusBadRequest, "Invalid role"},
	{identity.ErrEmployeeRequired, http.StatusBadRequest, "Employee is required for regular user accounts"},
	{employee.ErrInvalidID, http.StatusBadRequest, "Invalid employee id"},
	{employee.ErrInvalidName, http.StatusBadRequest, "Name must be at least 2 characters long"},
	{employee.ErrInvalidEmail, http.StatusBadRequest, "Invalid email"},
	{employee.ErrInvalidDepartment, http.StatusBadRequest, "Department is required"},
	{employee.ErrInvalidPosition, http.StatusBadRequest, "Position is required"},
	{employee.ErrInvalidStatus, http.StatusBadRequest, "Invalid employee status"},
	{employee.ErrInvalidPageSize, http.StatusBadRequest, "Invalid page size"},
	{employee.ErrInvalidPageToken, http.StatusBadRequest, "Invalid page token"},
	{task.ErrInvalidID, http.StatusBadRequest, "Invalid task id"},
	{task.ErrInvalidTitle, http.StatusBadRequest, "Title must be at least 3 characters long"},
	{task.ErrInvalidStatus, http.StatusBadRequest, "Invalid task status"},
	{task.ErrInvalidPriority, http.StatusBadRequest, "Invalid task priority"},
	{task.ErrAssigneeRequired, http.StatusBadRequest, "assignedTo is required"},
	{task.ErrDueDateRequired, http.StatusBadRequest, "dueDate is required"},
	{task.ErrResponseNoteRequired, http.StatusBadRequest, "Response note is required to reject a completion request"},
	{task.ErrReviewStatusReserved, http.StatusBadRequest, "Use request-completion to submit a task for approval"},

	// 一意制約・登録時の競合はクライアントエラーとして返す
	{identity.ErrEmailAlreadyExists, http.StatusBadRequest, "Email already in use"},
	{identity.ErrEmployeeAlreadyLinked, http.StatusBadRequest, "A user account already exists for this employee"},
	{employee.ErrEmailAlreadyExists, http.StatusBadRequest, "Email already exists"},

	// 存在しない
	{identity.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{identity.ErrEmployeeNotFound, http.StatusNotFound, "Employee not found"},
	{employee.ErrEmployeeNotFound, http.StatusNotFound, "Employee not found"},
	{task.ErrEmployeeNotFound, http.StatusNotFound, "Employee not found"},
	{task.ErrTaskNotFound, http.StatusNotFound, "Task not found"},

	// 状態遷移の競合
	{task.ErrInvalidTransition, http.StatusConflict, "Task is not in a state that allows this action"},
	{task.ErrAwaitingReview, http.StatusConflict, "Task has a completion request awaiting review"},
	{task.ErrConcurrentUpdate, http.StatusConflict, "Task was modified by another request, please retry"},
	{task.ErrInconsistentState, http.StatusConflict, "Task status and completion request are inconsistent"},
	{employee.ErrEmployeeHasAccount, http.StatusConflict, "Employee has a linked user account"},
}

// toHTTPError は err に対応するステータスとメッセージを返します。未知のエラーは 500 です。
func toHTTPError(err error) (int, string) {
	for _, e := range errorTable {
		if errors.Is(err, e.err) {
			return e.status, e.message
		}
	}
	return http.StatusInternalServerError, internalErrorMessage
}
