package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/codex-task-review/internal/core/identity"
	pgdb "github.com/ogurasousui/codex-task-review/internal/platform/db/postgres"
)

const userSelect = `
        SELECT u.id, u.email, u.password_hash, u.role, u.employee_id, u.created_at, u.updated_at,
               e.name, e.email, e.department, e.position
          FROM users u
          LEFT JOIN employees e ON e.id = u.employee_id`

// UserRepository は PostgreSQL を利用したユーザー永続化の実装です。
type UserRepository struct {
	pool pgdb.Queryer
}

// NewUserRepository は UserRepository を生成します。
func NewUserRepository(pool pgdb.Queryer) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create はユーザーを新規作成し、紐づく社員情報を含めて返します。
func (r *UserRepository) Create(ctx context.Context, u *identity.User) (*identity.User, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        WITH inserted AS (
            INSERT INTO users (email, password_hash, role, employee_id, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6)
            RETURNING id, email, password_hash, role, employee_id, created_at, updated_at
        )
        SELECT u.id, u.email, u.password_hash, u.role, u.employee_id, u.created_at, u.updated_at,
               e.name, e.email, e.department, e.position
          FROM inserted u
          LEFT JOIN employees e ON e.id = u.employee_id
    `,
		u.Email,
		u.PasswordHash,
		string(u.Role),
		nullableString(u.EmployeeID),
		u.CreatedAt,
		u.UpdatedAt,
	)

	created, err := scanUser(row)
	if err != nil {
		return nil, translateUserPgError(err)
	}
	return created, nil
}

// FindByID は ID でユーザーを取得します。
func (r *UserRepository) FindByID(ctx context.Context, id string) (*identity.User, error) {
	return r.findOne(ctx, userSelect+` WHERE u.id = $1 LIMIT 1`, id)
}

// FindByEmail はメールアドレスでユーザーを取得します。
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	return r.findOne(ctx, userSelect+` WHERE u.email = $1 LIMIT 1`, email)
}

// FindByEmployeeID は社員に紐づくユーザーを取得します。
func (r *UserRepository) FindByEmployeeID(ctx context.Context, employeeID string) (*identity.User, error) {
	return r.findOne(ctx, userSelect+` WHERE u.employee_id = $1 LIMIT 1`, employeeID)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg any) (*identity.User, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	found, err := scanUser(exec.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, translateUserPgError(err)
	}
	return found, nil
}

func scanUser(row pgx.Row) (*identity.User, error) {
	var (
		id           string
		email        string
		passwordHash string
		role         string
		employeeID   sql.NullString
		createdAt    time.Time
		updatedAt    time.Time
		empName      sql.NullString
		empEmail     sql.NullString
		empDept      sql.NullString
		empPosition  sql.NullString
	)

	if err := row.Scan(
		&id,
		&email,
		&passwordHash,
		&role,
		&employeeID,
		&createdAt,
		&updatedAt,
		&empName,
		&empEmail,
		&empDept,
		&empPosition,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, identity.ErrUserNotFound
		}
		return nil, err
	}

	u := &identity.User{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         identity.Role(role),
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
	if employeeID.Valid {
		u.EmployeeID = employeeID.String
		u.Employee = &identity.EmployeeSnapshot{
			ID:         employeeID.String,
			Name:       empName.String,
			Email:      empEmail.String,
			Department: empDept.String,
			Position:   empPosition.String,
		}
	}
	return u, nil
}

func translateUserPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return identity.ErrUserNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			if pgErr.ConstraintName == "users_employee_id_key" {
				return identity.ErrEmployeeAlreadyLinked
			}
			return identity.ErrEmailAlreadyExists
		case foreignKeyViolationCode:
			return identity.ErrEmployeeNotFound
		case checkViolationCode:
			if pgErr.ConstraintName == "users_role_check" {
				return identity.ErrInvalidRole
			}
			return identity.ErrEmployeeRequired
		}
	}

	return err
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
