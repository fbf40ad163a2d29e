package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/codex-task-review/internal/core/task"
	pgdb "github.com/ogurasousui/codex-task-review/internal/platform/db/postgres"
)

const taskProjection = `t.id, t.title, t.description, t.status, t.priority, t.assigned_to, t.due_date, t.completed_at,
               t.completion_status, t.completion_note, t.completion_attachments,
               t.requested_by, t.requested_at, t.response_note, t.responded_by, t.responded_at,
               t.version, t.created_at, t.updated_at,
               e.name, e.email, rq.email, rq.role, rs.email, rs.role`

// taskQuery は source をタスク行として担当者・申請者・承認者を結合した SELECT を返します。
func taskQuery(source string) string {
	return `
        SELECT ` + taskProjection + `
          FROM ` + source + ` t
          JOIN employees e ON e.id = t.assigned_to
          LEFT JOIN users rq ON rq.id = t.requested_by
          LEFT JOIN users rs ON rs.id = t.responded_by`
}

type attachmentRecord struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// TaskRepository は PostgreSQL を利用したタスク永続化の実装です。
type TaskRepository struct {
	pool pgdb.Queryer
}

// NewTaskRepository は TaskRepository を生成します。
func NewTaskRepository(pool pgdb.Queryer) *TaskRepository {
	return &TaskRepository{pool: pool}
}

// Create はタスクを新規作成します。
func (r *TaskRepository) Create(ctx context.Context, t *task.Task) (*task.Task, error) {
	attachments, err := encodeAttachments(t.Completion.Attachments)
	if err != nil {
		return nil, err
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        WITH inserted AS (
            INSERT INTO tasks (title, description, status, priority, assigned_to, due_date, completed_at,
                               completion_status, completion_note, completion_attachments, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
            RETURNING *
        )`+taskQuery("inserted"),
		t.Title,
		t.Description,
		string(t.Status),
		string(t.Priority),
		t.AssignedTo,
		t.DueDate,
		t.CompletedAt,
		string(completionStatusOrNone(t.Completion.Status)),
		t.Completion.Note,
		attachments,
		t.CreatedAt,
		t.UpdatedAt,
	)

	created, err := scanTask(row)
	if err != nil {
		return nil, translateTaskPgError(err)
	}
	return created, nil
}

// Update は t.Version が一致する場合のみタスクを更新し、バージョンを1つ進めます。
func (r *TaskRepository) Update(ctx context.Context, t *task.Task) (*task.Task, error) {
	attachments, err := encodeAttachments(t.Completion.Attachments)
	if err != nil {
		return nil, err
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        WITH updated AS (
            UPDATE tasks
               SET title = $1,
                   description = $2,
                   status = $3,
                   priority = $4,
                   assigned_to = $5,
                   due_date = $6,
                   completed_at = $7,
                   completion_status = $8,
                   completion_note = $9,
                   completion_attachments = $10,
                   requested_by = $11,
                   requested_at = $12,
                   response_note = $13,
                   responded_by = $14,
                   responded_at = $15,
                   updated_at = $16,
                   version = version + 1
             WHERE id = $17 AND version = $18
            RETURNING *
        )`+taskQuery("updated"),
		t.Title,
		t.Description,
		string(t.Status),
		string(t.Priority),
		t.AssignedTo,
		t.DueDate,
		t.CompletedAt,
		string(completionStatusOrNone(t.Completion.Status)),
		t.Completion.Note,
		attachments,
		t.Completion.RequestedBy,
		t.Completion.RequestedAt,
		t.Completion.ResponseNote,
		t.Completion.RespondedBy,
		t.Completion.RespondedAt,
		t.UpdatedAt,
		t.ID,
		t.Version,
	)

	updated, err := scanTask(row)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, task.ErrTaskNotFound) {
		return nil, translateTaskPgError(err)
	}

	var exists bool
	if err := exec.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1)`, t.ID).Scan(&exists); err != nil {
		return nil, translateTaskPgError(err)
	}
	if exists {
		return nil, task.ErrConcurrentUpdate
	}
	return nil, task.ErrTaskNotFound
}

// Delete はタスクを削除します。
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return translateTaskPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return task.ErrTaskNotFound
	}
	return nil
}

// DeleteByAssignee は社員に割り当てられたタスクをすべて削除し、削除件数を返します。
func (r *TaskRepository) DeleteByAssignee(ctx context.Context, employeeID string) (int64, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM tasks WHERE assigned_to = $1`, employeeID)
	if err != nil {
		return 0, translateTaskPgError(err)
	}
	return tag.RowsAffected(), nil
}

// FindByID は ID でタスクを取得します。
func (r *TaskRepository) FindByID(ctx context.Context, id string) (*task.Task, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, taskQuery("tasks")+`
         WHERE t.id = $1
         LIMIT 1
    `, id)

	found, err := scanTask(row)
	if err != nil {
		return nil, translateTaskPgError(err)
	}
	return found, nil
}

// List は条件に一致するタスクを作成日時の降順で返します。
func (r *TaskRepository) List(ctx context.Context, filter task.ListTasksFilter) ([]*task.Task, error) {
	args := make([]any, 0, 3)
	conditions := make([]string, 0, 3)

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conditions = append(conditions, "t.status = $"+strconv.Itoa(len(args)))
	}
	if filter.Priority != "" {
		args = append(args, string(filter.Priority))
		conditions = append(conditions, "t.priority = $"+strconv.Itoa(len(args)))
	}
	if filter.AssignedTo != "" {
		args = append(args, filter.AssignedTo)
		conditions = append(conditions, "t.assigned_to = $"+strconv.Itoa(len(args)))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "\n         WHERE " + strings.Join(conditions, " AND ")
	}

	query := taskQuery("tasks") + whereClause + `
         ORDER BY t.created_at DESC, t.id DESC
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, translateTaskPgError(err)
	}
	defer rows.Close()

	tasks := make([]*task.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, translateTaskPgError(err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, translateTaskPgError(err)
	}

	return tasks, nil
}

// AppendReviewEvent はレビュー履歴を追記します。
func (r *TaskRepository) AppendReviewEvent(ctx context.Context, event *task.ReviewEvent) error {
	attachments, err := encodeAttachments(event.Attachments)
	if err != nil {
		return err
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	if _, err := exec.Exec(ctx, `
        INSERT INTO task_review_events (id, task_id, action, actor_id, note, attachments, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `,
		event.ID,
		event.TaskID,
		string(event.Action),
		nullableString(event.ActorID),
		event.Note,
		attachments,
		event.CreatedAt,
	); err != nil {
		return translateTaskPgError(err)
	}
	return nil
}

// ListReviewEvents はタスクのレビュー履歴を古い順に返します。
func (r *TaskRepository) ListReviewEvents(ctx context.Context, taskID string) ([]*task.ReviewEvent, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT id, task_id, action, actor_id, note, attachments, created_at
          FROM task_review_events
         WHERE task_id = $1
         ORDER BY created_at ASC, id ASC
    `, taskID)
	if err != nil {
		return nil, translateTaskPgError(err)
	}
	defer rows.Close()

	events := make([]*task.ReviewEvent, 0)
	for rows.Next() {
		var (
			event       task.ReviewEvent
			action      string
			actorID     sql.NullString
			attachments []byte
		)
		if err := rows.Scan(&event.ID, &event.TaskID, &action, &actorID, &event.Note, &attachments, &event.CreatedAt); err != nil {
			return nil, translateTaskPgError(err)
		}
		decoded, err := decodeAttachments(attachments)
		if err != nil {
			return nil, err
		}
		event.Action = task.ReviewAction(action)
		event.ActorID = actorID.String
		event.Attachments = decoded
		events = append(events, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, translateTaskPgError(err)
	}

	return events, nil
}

func scanTask(row pgx.Row) (*task.Task, error) {
	var (
		id               string
		title            string
		description      string
		status           string
		priority         string
		assignedTo       string
		dueDate          time.Time
		completedAt      sql.NullTime
		completionStatus string
		completionNote   string
		attachments      []byte
		requestedBy      sql.NullString
		requestedAt      sql.NullTime
		responseNote     string
		respondedBy      sql.NullString
		respondedAt      sql.NullTime
		version          int64
		createdAt        time.Time
		updatedAt        time.Time
		assigneeName     string
		assigneeEmail    string
		requesterEmail   sql.NullString
		requesterRole    sql.NullString
		responderEmail   sql.NullString
		responderRole    sql.NullString
	)

	if err := row.Scan(
		&id,
		&title,
		&description,
		&status,
		&priority,
		&assignedTo,
		&dueDate,
		&completedAt,
		&completionStatus,
		&completionNote,
		&attachments,
		&requestedBy,
		&requestedAt,
		&responseNote,
		&respondedBy,
		&respondedAt,
		&version,
		&createdAt,
		&updatedAt,
		&assigneeName,
		&assigneeEmail,
		&requesterEmail,
		&requesterRole,
		&responderEmail,
		&responderRole,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, task.ErrTaskNotFound
		}
		return nil, err
	}

	decoded, err := decodeAttachments(attachments)
	if err != nil {
		return nil, err
	}

	return &task.Task{
		ID:          id,
		Title:       title,
		Description: description,
		Status:      task.Status(status),
		Priority:    task.Priority(priority),
		AssignedTo:  assignedTo,
		DueDate:     dueDate,
		CompletedAt: nullTimePtr(completedAt),
		Completion: task.CompletionRequest{
			Status:       task.CompletionStatus(completionStatus),
			Note:         completionNote,
			Attachments:  decoded,
			RequestedBy:  nullStringPtr(requestedBy),
			RequestedAt:  nullTimePtr(requestedAt),
			ResponseNote: responseNote,
			RespondedBy:  nullStringPtr(respondedBy),
			RespondedAt:  nullTimePtr(respondedAt),
			Requester:    actorSnapshot(requestedBy, requesterEmail, requesterRole),
			Responder:    actorSnapshot(respondedBy, responderEmail, responderRole),
		},
		Version:   version,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
		Assignee: &task.AssigneeSnapshot{
			ID:    assignedTo,
			Name:  assigneeName,
			Email: assigneeEmail,
		},
	}, nil
}

func translateTaskPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return task.ErrTaskNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case foreignKeyViolationCode:
			switch pgErr.ConstraintName {
			case "tasks_assigned_to_fkey":
				return task.ErrEmployeeNotFound
			case "task_review_events_task_id_fkey":
				return task.ErrTaskNotFound
			}
		case checkViolationCode:
			switch pgErr.ConstraintName {
			case "tasks_title_check":
				return task.ErrInvalidTitle
			case "tasks_status_check":
				return task.ErrInvalidStatus
			case "tasks_priority_check":
				return task.ErrInvalidPriority
			case "tasks_review_state_check", "tasks_completed_at_check":
				return task.ErrInconsistentState
			}
		}
	}

	return err
}

func encodeAttachments(in []task.Attachment) ([]byte, error) {
	records := make([]attachmentRecord, 0, len(in))
	for _, a := range in {
		records = append(records, attachmentRecord{Name: a.Name, URL: a.URL})
	}
	b, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("postgres: encode attachments: %w", err)
	}
	return b, nil
}

func decodeAttachments(raw []byte) ([]task.Attachment, error) {
	if len(raw) == 0 {
		return []task.Attachment{}, nil
	}
	var records []attachmentRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("postgres: decode attachments: %w", err)
	}
	out := make([]task.Attachment, 0, len(records))
	for _, r := range records {
		out = append(out, task.Attachment{Name: r.Name, URL: r.URL})
	}
	return out, nil
}

func completionStatusOrNone(s task.CompletionStatus) task.CompletionStatus {
	if s == "" {
		return task.CompletionNone
	}
	return s
}

func actorSnapshot(id, email, role sql.NullString) *task.ActorSnapshot {
	if !id.Valid || !email.Valid {
		return nil
	}
	return &task.ActorSnapshot{ID: id.String, Email: email.String, Role: role.String}
}

func nullTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time.UTC()
	return &t
}

func nullStringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
