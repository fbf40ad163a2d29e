package task

import "errors"

var (
	ErrInvalidID            = errors.New("task: invalid id")
	ErrInvalidTitle         = errors.New("task: title must be at least 3 characters long")
	ErrInvalidStatus        = errors.New("task: invalid status")
	ErrInvalidPriority      = errors.New("task: invalid priority")
	ErrAssigneeRequired     = errors.New("task: assignedTo is required")
	ErrDueDateRequired      = errors.New("task: dueDate is required")
	ErrTaskNotFound         = errors.New("task: not found")
	ErrEmployeeNotFound     = errors.New("task: assigned employee not found")
	ErrResponseNoteRequired = errors.New("task: response note is required to reject a completion request")
	ErrInvalidTransition    = errors.New("task: transition not allowed from current status")
	ErrAwaitingReview       = errors.New("task: status cannot be changed while a completion request is awaiting review")
	ErrConcurrentUpdate     = errors.New("task: task was modified concurrently, retry")
	ErrInconsistentState    = errors.New("task: status and completion request are inconsistent")
	ErrReviewStatusReserved = errors.New("task: awaiting-approval can only be entered by requesting completion")
)
