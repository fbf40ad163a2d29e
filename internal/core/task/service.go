package task

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/ogurasousui/codex-task-review/internal/core/access"
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

const minTitleLength = 3

// Service はタスクの CRUD と完了レビューのユースケースをまとめます。
type Service struct {
	repo      Repository
	employees EmployeeFinder
	clock     Clock
	tx        TransactionManager
}

// UseCase はタスクユースケースの公開インターフェースです。
type UseCase interface {
	CreateTask(ctx context.Context, p access.Principal, in CreateTaskInput) (*Task, error)
	GetTask(ctx context.Context, p access.Principal, id string) (*Task, error)
	ListTasks(ctx context.Context, p access.Principal, in ListTasksInput) ([]*Task, error)
	UpdateTask(ctx context.Context, p access.Principal, in UpdateTaskInput) (*Task, error)
	DeleteTask(ctx context.Context, p access.Principal, id string) error
	RequestCompletion(ctx context.Context, p access.Principal, in RequestCompletionInput) (*Task, error)
	ApproveCompletion(ctx context.Context, p access.Principal, in ReviewInput) (*Task, error)
	RejectCompletion(ctx context.Context, p access.Principal, in ReviewInput) (*Task, error)
	ListReviewHistory(ctx context.Context, p access.Principal, taskID string) ([]*ReviewEvent, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, employees EmployeeFinder, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, employees: employees, clock: clock, tx: tx}
}

// CreateTaskInput はタスク作成時の入力です。
type CreateTaskInput struct {
	Title       string
	Description string
	Status      *Status
	Priority    *Priority
	AssignedTo  string
	DueDate     *time.Time
}

// UpdateTaskInput はタスク更新時の入力です。nil のフィールドは変更しません。
type UpdateTaskInput struct {
	ID          string
	Title       *string
	Description *string
	Status      *Status
	Priority    *Priority
	AssignedTo  *string
	DueDate     *time.Time
}

// ListTasksInput は一覧取得の条件です。
type ListTasksInput struct {
	Status     string
	Priority   string
	AssignedTo string
}

// CreateTask は管理者としてタスクを作成します。
func (s *Service) CreateTask(ctx context.Context, p access.Principal, in CreateTaskInput) (*Task, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}

	title, err := normalizeTitle(in.Title)
	if err != nil {
		return nil, err
	}
	assignee, err := normalizeAssignee(in.AssignedTo)
	if err != nil {
		return nil, err
	}
	if in.DueDate == nil || in.DueDate.IsZero() {
		return nil, ErrDueDateRequired
	}

	status := StatusPending
	if in.Status != nil {
		if !isValidStatus(*in.Status) {
			return nil, ErrInvalidStatus
		}
		if *in.Status == StatusAwaitingApproval {
			return nil, ErrReviewStatusReserved
		}
		status = *in.Status
	}

	priority := PriorityMedium
	if in.Priority != nil {
		if !isValidPriority(*in.Priority) {
			return nil, ErrInvalidPriority
		}
		priority = *in.Priority
	}

	var created *Task
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.ensureEmployeeExists(txCtx, assignee); err != nil {
			return err
		}

		now := s.clock.Now()
		t := &Task{
			Title:       title,
			Description: strings.TrimSpace(in.Description),
			Status:      status,
			Priority:    priority,
			AssignedTo:  assignee,
			DueDate:     in.DueDate.UTC(),
			Completion:  CompletionRequest{Status: CompletionNone},
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if status == StatusCompleted {
			t.CompletedAt = &now
		}

		result, err := s.repo.Create(txCtx, t)
		if err != nil {
			return err
		}
		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	return created, nil
}

// GetTask はタスクを取得します。社員は自分の担当タスクのみ参照できます。
func (s *Service) GetTask(ctx context.Context, p access.Principal, id string) (*Task, error) {
	if p == nil {
		return nil, access.ErrUnauthenticated
	}
	taskID, err := normalizeID(id)
	if err != nil {
		return nil, err
	}

	var result *Task
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindByID(txCtx, taskID)
		if err != nil {
			return err
		}
		if err := access.AuthorizeTaskRead(p, found.AssignedTo); err != nil {
			return err
		}
		result = found
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// ListTasks はタスクを作成日時の降順で返します。社員の場合は担当者条件が本人に固定されます。
func (s *Service) ListTasks(ctx context.Context, p access.Principal, in ListTasksInput) ([]*Task, error) {
	requested := strings.TrimSpace(in.AssignedTo)
	assignee, err := access.ScopeAssignee(p, requested)
	if err != nil {
		return nil, err
	}
	if assignee != "" {
		if _, err := uuid.Parse(assignee); err != nil {
			return nil, ErrInvalidID
		}
	}

	filter := ListTasksFilter{AssignedTo: assignee}
	if v := strings.TrimSpace(in.Status); v != "" {
		if !isValidStatus(Status(v)) {
			return nil, ErrInvalidStatus
		}
		filter.Status = Status(v)
	}
	if v := strings.TrimSpace(in.Priority); v != "" {
		if !isValidPriority(Priority(v)) {
			return nil, ErrInvalidPriority
		}
		filter.Priority = Priority(v)
	}

	var tasks []*Task
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.List(txCtx, filter)
		if err != nil {
			return err
		}
		tasks = found
		return nil
	}); err != nil {
		return nil, err
	}

	return tasks, nil
}

// UpdateTask は管理者によるタスクの直接編集です。
// 状態を completed にすると完了日時を設定し、それ以外の状態では完了日時をクリアします。
// レビュー待ちのタスクの状態は承認・却下でのみ変更できます。
func (s *Service) UpdateTask(ctx context.Context, p access.Principal, in UpdateTaskInput) (*Task, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	id, err := normalizeID(in.ID)
	if err != nil {
		return nil, err
	}

	var updated *Task
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		current, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		next, err := s.applyUpdate(txCtx, current, in, now)
		if err != nil {
			return err
		}

		result, err := s.repo.Update(txCtx, next)
		if err != nil {
			return err
		}
		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteTask は管理者としてタスクを削除します。
func (s *Service) DeleteTask(ctx context.Context, p access.Principal, id string) error {
	if err := access.RequireAdmin(p); err != nil {
		return err
	}
	taskID, err := normalizeID(id)
	if err != nil {
		return err
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		return s.repo.Delete(txCtx, taskID)
	})
}

func (s *Service) applyUpdate(ctx context.Context, current *Task, in UpdateTaskInput, now time.Time) (*Task, error) {
	next := current.clone()

	if in.Title != nil {
		title, err := normalizeTitle(*in.Title)
		if err != nil {
			return nil, err
		}
		next.Title = title
	}

	if in.Description != nil {
		next.Description = strings.TrimSpace(*in.Description)
	}

	if in.Priority != nil {
		if !isValidPriority(*in.Priority) {
			return nil, ErrInvalidPriority
		}
		next.Priority = *in.Priority
	}

	if in.DueDate != nil {
		if in.DueDate.IsZero() {
			return nil, ErrDueDateRequired
		}
		next.DueDate = in.DueDate.UTC()
	}

	if in.AssignedTo != nil {
		assignee, err := normalizeAssignee(*in.AssignedTo)
		if err != nil {
			return nil, err
		}
		if assignee != current.AssignedTo {
			if err := s.ensureEmployeeExists(ctx, assignee); err != nil {
				return nil, err
			}
			next.AssignedTo = assignee
			next.Assignee = nil
		}
	}

	if in.Status != nil {
		status := *in.Status
		if !isValidStatus(status) {
			return nil, ErrInvalidStatus
		}
		if status != current.Status {
			if current.Status == StatusAwaitingApproval {
				return nil, ErrAwaitingReview
			}
			if status == StatusAwaitingApproval {
				return nil, ErrReviewStatusReserved
			}
			next.Status = status
		}
		// 明示的なステータス指定では毎回 completedAt を付け直します。
		if status == StatusCompleted {
			next.CompletedAt = &now
		} else {
			next.CompletedAt = nil
		}
	}

	next.UpdatedAt = now

	if err := next.checkInvariants(); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *Service) ensureEmployeeExists(ctx context.Context, id string) error {
	if _, err := s.employees.FindByID(ctx, id); err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return ErrEmployeeNotFound
		}
		return err
	}
	return nil
}

func normalizeID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if _, err := uuid.Parse(trimmed); err != nil {
		return "", ErrInvalidID
	}
	return trimmed, nil
}

func normalizeAssignee(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrAssigneeRequired
	}
	if _, err := uuid.Parse(trimmed); err != nil {
		return "", ErrEmployeeNotFound
	}
	return trimmed, nil
}

func normalizeTitle(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if utf8.RuneCountInString(trimmed) < minTitleLength {
		return "", ErrInvalidTitle
	}
	return trimmed, nil
}
