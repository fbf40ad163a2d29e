package identity

import "errors"

var (
	// ErrUserNotFound はユーザーが存在しない場合に返却されます。
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailAlreadyExists はメールアドレス重複時に返却されます。
	ErrEmailAlreadyExists = errors.New("email already in use")
	// ErrInvalidEmail はメールアドレスが不正な場合に返却されます。
	ErrInvalidEmail = errors.New("invalid email")
	// ErrInvalidPassword はパスワードが要件を満たさない場合に返却されます。
	ErrInvalidPassword = errors.New("password must be at least 6 characters long")
	// ErrInvalidRole は未知のロールが指定された場合に返却されます。
	ErrInvalidRole = errors.New("invalid role")
	// ErrEmployeeRequired は一般ユーザー登録で社員が指定されていない場合に返却されます。
	ErrEmployeeRequired = errors.New("employee is required for regular user accounts")
	// ErrEmployeeNotFound は指定された社員が存在しない場合に返却されます。
	ErrEmployeeNotFound = errors.New("employee not found")
	// ErrEmployeeAlreadyLinked は社員に既にアカウントがある場合に返却されます。
	ErrEmployeeAlreadyLinked = errors.New("a user account already exists for this employee")
	// ErrInvalidCredentials はログイン失敗時に返却されます。
	ErrInvalidCredentials = errors.New("invalid credentials")
)
