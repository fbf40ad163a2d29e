package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/ogurasousui/codex-task-review/internal/core/employee"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

const minPasswordLength = 6

// Service は登録・ログイン・呼び出し元解決のユースケースをまとめます。
type Service struct {
	repo      Repository
	employees EmployeeFinder
	hasher    PasswordHasher
	tokens    TokenIssuer
	clock     Clock
	tx        TransactionManager
}

// UseCase は認証ユースケースの公開インターフェースです。
type UseCase interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, in LoginInput) (*AuthResult, error)
	Resolve(ctx context.Context, userID string) (*User, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, employees EmployeeFinder, hasher PasswordHasher, tokens TokenIssuer, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, employees: employees, hasher: hasher, tokens: tokens, clock: clock, tx: tx}
}

// RegisterInput はアカウント登録の入力です。Role が空なら RoleUser です。
type RegisterInput struct {
	Email      string
	Password   string
	Role       Role
	EmployeeID string
}

// LoginInput はログインの入力です。
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult は登録・ログイン結果です。
type AuthResult struct {
	User  *User
	Token string
}

// Register はアカウントを登録しトークンを発行します。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLength {
		return nil, ErrInvalidPassword
	}

	role := in.Role
	if role == "" {
		role = RoleUser
	}
	if role != RoleAdmin && role != RoleUser {
		return nil, ErrInvalidRole
	}

	employeeID := ""
	if role == RoleUser {
		employeeID = strings.TrimSpace(in.EmployeeID)
		if employeeID == "" {
			return nil, ErrEmployeeRequired
		}
		if _, err := uuid.Parse(employeeID); err != nil {
			return nil, ErrEmployeeNotFound
		}
	}

	var created *User
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.ensureEmailNotExists(txCtx, email); err != nil {
			return err
		}

		var snapshot *EmployeeSnapshot
		if role == RoleUser {
			emp, err := s.employees.FindByID(txCtx, employeeID)
			if err != nil {
				if errors.Is(err, employee.ErrEmployeeNotFound) {
					return ErrEmployeeNotFound
				}
				return err
			}
			if err := s.ensureEmployeeNotLinked(txCtx, employeeID); err != nil {
				return err
			}
			snapshot = snapshotOf(emp)
		}

		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		result, err := s.repo.Create(txCtx, &User{
			Email:        email,
			PasswordHash: hash,
			Role:         role,
			EmployeeID:   employeeID,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return err
		}
		if result.Employee == nil {
			result.Employee = snapshot
		}
		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	return s.withToken(created)
}

// Login はメールアドレスとパスワードを照合しトークンを発行します。
func (s *Service) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil || in.Password == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := s.hasher.Matches(u.PasswordHash, in.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return s.withToken(u)
}

// Resolve はトークンのユーザー ID から現在のユーザーを取得します。
func (s *Service) Resolve(ctx context.Context, userID string) (*User, error) {
	if _, err := uuid.Parse(strings.TrimSpace(userID)); err != nil {
		return nil, ErrUserNotFound
	}
	return s.repo.FindByID(ctx, strings.TrimSpace(userID))
}

// HasAccountForEmployee は社員に紐づくアカウントがあるかを返します。
func (s *Service) HasAccountForEmployee(ctx context.Context, employeeID string) (bool, error) {
	_, err := s.repo.FindByEmployeeID(ctx, employeeID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrUserNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (s *Service) withToken(u *User) (*AuthResult, error) {
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{User: u, Token: token}, nil
}

func (s *Service) ensureEmailNotExists(ctx context.Context, email string) error {
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return err
	}
	if u != nil {
		return ErrEmailAlreadyExists
	}
	return nil
}

func (s *Service) ensureEmployeeNotLinked(ctx context.Context, employeeID string) error {
	linked, err := s.HasAccountForEmployee(ctx, employeeID)
	if err != nil {
		return err
	}
	if linked {
		return ErrEmployeeAlreadyLinked
	}
	return nil
}

func snapshotOf(emp *employee.Employee) *EmployeeSnapshot {
	if emp == nil {
		return nil
	}
	return &EmployeeSnapshot{
		ID:         emp.ID,
		Name:       emp.Name,
		Email:      emp.Email,
		Department: emp.Department,
		Position:   emp.Position,
	}
}

func normalizeEmail(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidEmail
	}

	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", ErrInvalidEmail
	}

	return strings.ToLower(addr.Address), nil
}
