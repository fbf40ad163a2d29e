package task

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ogurasousui/codex-task-review/internal/core/access"
)

const defaultApprovalNote = "Approved"

// RequestCompletionInput は完了申請の入力です。
type RequestCompletionInput struct {
	TaskID      string
	Note        string
	Attachments []Attachment
}

// ReviewInput は完了申請の承認・却下の入力です。
type ReviewInput struct {
	TaskID       string
	ResponseNote string
}

// RequestCompletion は担当社員または管理者としてタスクの完了申請を行います。
func (s *Service) RequestCompletion(ctx context.Context, p access.Principal, in RequestCompletionInput) (*Task, error) {
	if p == nil {
		return nil, access.ErrUnauthenticated
	}
	id, err := normalizeID(in.TaskID)
	if err != nil {
		return nil, err
	}

	return s.transition(ctx, id, func(current *Task, now time.Time) (*Task, *ReviewEvent, error) {
		if err := access.AuthorizeCompletionRequest(p, current.AssignedTo); err != nil {
			return nil, nil, err
		}
		next, err := requestCompletion(current, p.UserID(), in.Note, in.Attachments, now)
		if err != nil {
			return nil, nil, err
		}
		return next, &ReviewEvent{
			Action:      ReviewRequested,
			ActorID:     p.UserID(),
			Note:        next.Completion.Note,
			Attachments: next.Completion.Attachments,
		}, nil
	})
}

// ApproveCompletion は管理者として完了申請を承認し、タスクを完了にします。
func (s *Service) ApproveCompletion(ctx context.Context, p access.Principal, in ReviewInput) (*Task, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	id, err := normalizeID(in.TaskID)
	if err != nil {
		return nil, err
	}

	return s.transition(ctx, id, func(current *Task, now time.Time) (*Task, *ReviewEvent, error) {
		next, err := approveCompletion(current, p.UserID(), in.ResponseNote, now)
		if err != nil {
			return nil, nil, err
		}
		return next, &ReviewEvent{
			Action:  ReviewApproved,
			ActorID: p.UserID(),
			Note:    next.Completion.ResponseNote,
		}, nil
	})
}

// RejectCompletion は管理者として完了申請を却下し、タスクを作業中に戻します。理由の記入が必須です。
func (s *Service) RejectCompletion(ctx context.Context, p access.Principal, in ReviewInput) (*Task, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.ResponseNote) == "" {
		return nil, ErrResponseNoteRequired
	}
	id, err := normalizeID(in.TaskID)
	if err != nil {
		return nil, err
	}

	return s.transition(ctx, id, func(current *Task, now time.Time) (*Task, *ReviewEvent, error) {
		next, err := rejectCompletion(current, p.UserID(), in.ResponseNote, now)
		if err != nil {
			return nil, nil, err
		}
		return next, &ReviewEvent{
			Action:  ReviewRejected,
			ActorID: p.UserID(),
			Note:    next.Completion.ResponseNote,
		}, nil
	})
}

// ListReviewHistory はタスクのレビュー履歴を古い順に返します。参照権限は GetTask と同じです。
func (s *Service) ListReviewHistory(ctx context.Context, p access.Principal, taskID string) ([]*ReviewEvent, error) {
	if p == nil {
		return nil, access.ErrUnauthenticated
	}
	id, err := normalizeID(taskID)
	if err != nil {
		return nil, err
	}

	var events []*ReviewEvent
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		current, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := access.AuthorizeTaskRead(p, current.AssignedTo); err != nil {
			return err
		}
		found, err := s.repo.ListReviewEvents(txCtx, id)
		if err != nil {
			return err
		}
		events = found
		return nil
	}); err != nil {
		return nil, err
	}

	return events, nil
}

type transitionFunc func(current *Task, now time.Time) (*Task, *ReviewEvent, error)

// transition は読み込み・遷移・バージョン付き更新・履歴追記を一つのトランザクションで行います。
func (s *Service) transition(ctx context.Context, id string, fn transitionFunc) (*Task, error) {
	var saved *Task
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		current, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		next, event, err := fn(current, now)
		if err != nil {
			return err
		}

		result, err := s.repo.Update(txCtx, next)
		if err != nil {
			return err
		}

		event.ID = uuid.NewString()
		event.TaskID = id
		event.CreatedAt = now
		if err := s.repo.AppendReviewEvent(txCtx, event); err != nil {
			return err
		}

		saved = result
		return nil
	}); err != nil {
		return nil, err
	}

	return saved, nil
}

func requestCompletion(current *Task, requesterID, note string, attachments []Attachment, now time.Time) (*Task, error) {
	switch current.Status {
	case StatusCompleted, StatusAwaitingApproval:
		return nil, ErrInvalidTransition
	}

	next := current.clone()
	next.Status = StatusAwaitingApproval
	next.CompletedAt = nil
	next.Completion = CompletionRequest{
		Status:      CompletionPending,
		Note:        strings.TrimSpace(note),
		Attachments: normalizeAttachments(attachments),
		RequestedBy: &requesterID,
		RequestedAt: &now,
	}
	next.UpdatedAt = now

	if err := next.checkInvariants(); err != nil {
		return nil, err
	}
	return next, nil
}

func approveCompletion(current *Task, adminID, responseNote string, now time.Time) (*Task, error) {
	if current.Status != StatusAwaitingApproval {
		return nil, ErrInvalidTransition
	}

	note := strings.TrimSpace(responseNote)
	if note == "" {
		note = defaultApprovalNote
	}

	next := current.clone()
	next.Status = StatusCompleted
	next.CompletedAt = &now
	next.Completion.Status = CompletionApproved
	next.Completion.ResponseNote = note
	next.Completion.RespondedBy = &adminID
	next.Completion.RespondedAt = &now
	next.Completion.Responder = nil
	next.UpdatedAt = now

	if err := next.checkInvariants(); err != nil {
		return nil, err
	}
	return next, nil
}

func rejectCompletion(current *Task, adminID, responseNote string, now time.Time) (*Task, error) {
	note := strings.TrimSpace(responseNote)
	if note == "" {
		return nil, ErrResponseNoteRequired
	}
	if current.Status != StatusAwaitingApproval {
		return nil, ErrInvalidTransition
	}

	next := current.clone()
	next.Status = StatusInProgress
	next.CompletedAt = nil
	next.Completion.Status = CompletionRejected
	next.Completion.ResponseNote = note
	next.Completion.RespondedBy = &adminID
	next.Completion.RespondedAt = &now
	next.Completion.Responder = nil
	next.UpdatedAt = now

	if err := next.checkInvariants(); err != nil {
		return nil, err
	}
	return next, nil
}

// normalizeAttachments は URL が空の添付を除き、空の名前を既定値で補います。順序と重複は保持します。
func normalizeAttachments(in []Attachment) []Attachment {
	out := make([]Attachment, 0, len(in))
	for _, a := range in {
		url := strings.TrimSpace(a.URL)
		if url == "" {
			continue
		}
		name := strings.TrimSpace(a.Name)
		if name == "" {
			name = defaultAttachmentName
		}
		out = append(out, Attachment{Name: name, URL: url})
	}
	return out
}
