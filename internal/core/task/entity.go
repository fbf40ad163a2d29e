package task

import "time"

// Status はタスクの状態です。
type Status string

const (
	StatusPending          Status = "pending"
	StatusInProgress       Status = "in-progress"
	StatusAwaitingApproval Status = "awaiting-approval"
	StatusCompleted        Status = "completed"
)

// Priority はタスクの優先度です。
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// CompletionStatus は完了申請の状態です。
type CompletionStatus string

const (
	CompletionNone     CompletionStatus = "none"
	CompletionPending  CompletionStatus = "pending"
	CompletionApproved CompletionStatus = "approved"
	CompletionRejected CompletionStatus = "rejected"
)

// ReviewAction はレビュー履歴の操作種別です。
type ReviewAction string

const (
	ReviewRequested ReviewAction = "requested"
	ReviewApproved  ReviewAction = "approved"
	ReviewRejected  ReviewAction = "rejected"
)

const defaultAttachmentName = "Attachment"

// Attachment は完了申請に添付されるリンクです。
type Attachment struct {
	Name string
	URL  string
}

// ActorSnapshot は申請者・承認者の表示用情報です。
type ActorSnapshot struct {
	ID    string
	Email string
	Role  string
}

// AssigneeSnapshot は担当社員の表示用情報です。
type AssigneeSnapshot struct {
	ID    string
	Name  string
	Email string
}

// CompletionRequest はタスクに埋め込まれた現在のレビューラウンドです。
type CompletionRequest struct {
	Status       CompletionStatus
	Note         string
	Attachments  []Attachment
	RequestedBy  *string
	RequestedAt  *time.Time
	ResponseNote string
	RespondedBy  *string
	RespondedAt  *time.Time
	Requester    *ActorSnapshot
	Responder    *ActorSnapshot
}

// Task はタスクエンティティです。Version は楽観ロック用で、保存のたびに増加します。
type Task struct {
	ID          string
	Title       string
	Description string
	Status      Status
	Priority    Priority
	AssignedTo  string
	DueDate     time.Time
	CompletedAt *time.Time
	Completion  CompletionRequest
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Assignee    *AssigneeSnapshot
}

// ReviewEvent はレビュー操作の追記専用履歴です。
type ReviewEvent struct {
	ID          string
	TaskID      string
	Action      ReviewAction
	ActorID     string
	Note        string
	Attachments []Attachment
	CreatedAt   time.Time
}

func (t *Task) clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	if t.CompletedAt != nil {
		v := *t.CompletedAt
		c.CompletedAt = &v
	}
	if t.Completion.Attachments != nil {
		c.Completion.Attachments = append([]Attachment(nil), t.Completion.Attachments...)
	}
	return &c
}

// checkInvariants は状態と完了申請の整合性を検証します。
func (t *Task) checkInvariants() error {
	if (t.Status == StatusAwaitingApproval) != (t.Completion.Status == CompletionPending) {
		return ErrInconsistentState
	}
	if (t.CompletedAt != nil) != (t.Status == StatusCompleted) {
		return ErrInconsistentState
	}
	return nil
}

func isValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusAwaitingApproval, StatusCompleted:
		return true
	default:
		return false
	}
}

func isValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}
