package employee

import "errors"

var (
	ErrInvalidID          = errors.New("employee: invalid id")
	ErrInvalidName        = errors.New("employee: name must be at least 2 characters long")
	ErrInvalidEmail       = errors.New("employee: invalid email")
	ErrInvalidDepartment  = errors.New("employee: department is required")
	ErrInvalidPosition    = errors.New("employee: position is required")
	ErrInvalidStatus      = errors.New("employee: invalid status")
	ErrInvalidPageSize    = errors.New("employee: invalid page size")
	ErrInvalidPageToken   = errors.New("employee: invalid page token")
	ErrEmployeeNotFound   = errors.New("employee: not found")
	ErrEmailAlreadyExists = errors.New("employee: email already exists")
	ErrEmployeeHasAccount = errors.New("employee: a user account is linked to this employee")
)
