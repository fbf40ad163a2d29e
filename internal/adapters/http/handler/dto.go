package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/ogurasousui/codex-task-review/internal/core/dashboard"
	"github.com/ogurasousui/codex-task-review/internal/core/employee"
	"github.com/ogurasousui/codex-task-review/internal/core/identity"
	"github.com/ogurasousui/codex-task-review/internal/core/task"
)

const dateLayout = "2006-01-02"

type userResponse struct {
	ID       string                  `json:"_id"`
	Email    string                  `json:"email"`
	Role     string                  `json:"role"`
	Employee *employeeSnapshotResult `json:"employee"`
}

type employeeSnapshotResult struct {
	ID         string `json:"_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
	Position   string `json:"position"`
}

func toUserResponse(u *identity.User) userResponse {
	out := userResponse{ID: u.ID, Email: u.Email, Role: string(u.Role)}
	if u.Employee != nil {
		out.Employee = &employeeSnapshotResult{
			ID:         u.Employee.ID,
			Name:       u.Employee.Name,
			Email:      u.Employee.Email,
			Department: u.Employee.Department,
			Position:   u.Employee.Position,
		}
	}
	return out
}

type employeeResponse struct {
	ID         string    `json:"_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Department string    `json:"department"`
	Position   string    `json:"position"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type employeeDetailResponse struct {
	employeeResponse
	Tasks []taskResponse `json:"tasks,omitempty"`
}

func toEmployeeResponse(e *employee.Employee) employeeResponse {
	return employeeResponse{
		ID:         e.ID,
		Name:       e.Name,
		Email:      e.Email,
		Department: e.Department,
		Position:   e.Position,
		Status:     string(e.Status),
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

func toEmployeeResponses(in []*employee.Employee) []employeeResponse {
	out := make([]employeeResponse, 0, len(in))
	for _, e := range in {
		out = append(out, toEmployeeResponse(e))
	}
	return out
}

type attachmentPayload struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type actorResponse struct {
	ID    string `json:"_id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type assigneeResponse struct {
	ID    string `json:"_id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type completionResponse struct {
	Status       string              `json:"status"`
	Note         string              `json:"note"`
	Attachments  []attachmentPayload `json:"attachments"`
	RequestedBy  *actorResponse      `json:"requestedBy"`
	RequestedAt  *time.Time          `json:"requestedAt"`
	ResponseNote string              `json:"responseNote"`
	RespondedBy  *actorResponse      `json:"respondedBy"`
	RespondedAt  *time.Time          `json:"respondedAt"`
}

type taskResponse struct {
	ID                string             `json:"_id"`
	Title             string             `json:"title"`
	Description       string             `json:"description"`
	Status            string             `json:"status"`
	Priority          string             `json:"priority"`
	AssignedTo        assigneeResponse   `json:"assignedTo"`
	DueDate           time.Time          `json:"dueDate"`
	CompletedAt       *time.Time         `json:"completedAt"`
	CompletionRequest completionResponse `json:"completionRequest"`
	Version           int64              `json:"version"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}

func toTaskResponse(t *task.Task) taskResponse {
	assignee := assigneeResponse{ID: t.AssignedTo}
	if t.Assignee != nil {
		assignee.Name = t.Assignee.Name
		assignee.Email = t.Assignee.Email
	}
	return taskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		AssignedTo:  assignee,
		DueDate:     t.DueDate,
		CompletedAt: t.CompletedAt,
		CompletionRequest: completionResponse{
			Status:       string(t.Completion.Status),
			Note:         t.Completion.Note,
			Attachments:  toAttachmentPayloads(t.Completion.Attachments),
			RequestedBy:  toActorResponse(t.Completion.RequestedBy, t.Completion.Requester),
			RequestedAt:  t.Completion.RequestedAt,
			ResponseNote: t.Completion.ResponseNote,
			RespondedBy:  toActorResponse(t.Completion.RespondedBy, t.Completion.Responder),
			RespondedAt:  t.Completion.RespondedAt,
		},
		Version:   t.Version,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func toTaskResponses(in []*task.Task) []taskResponse {
	out := make([]taskResponse, 0, len(in))
	for _, t := range in {
		out = append(out, toTaskResponse(t))
	}
	return out
}

func toActorResponse(id *string, snapshot *task.ActorSnapshot) *actorResponse {
	if snapshot != nil {
		return &actorResponse{ID: snapshot.ID, Email: snapshot.Email, Role: snapshot.Role}
	}
	if id != nil {
		return &actorResponse{ID: *id}
	}
	return nil
}

func toAttachmentPayloads(in []task.Attachment) []attachmentPayload {
	out := make([]attachmentPayload, 0, len(in))
	for _, a := range in {
		out = append(out, attachmentPayload{Name: a.Name, URL: a.URL})
	}
	return out
}

func fromAttachmentPayloads(in []attachmentPayload) []task.Attachment {
	out := make([]task.Attachment, 0, len(in))
	for _, a := range in {
		out = append(out, task.Attachment{Name: a.Name, URL: a.URL})
	}
	return out
}

type reviewEventResponse struct {
	ID          string              `json:"_id"`
	TaskID      string              `json:"taskId"`
	Action      string              `json:"action"`
	ActorID     string              `json:"actorId,omitempty"`
	Note        string              `json:"note"`
	Attachments []attachmentPayload `json:"attachments"`
	CreatedAt   time.Time           `json:"createdAt"`
}

func toReviewEventResponses(in []*task.ReviewEvent) []reviewEventResponse {
	out := make([]reviewEventResponse, 0, len(in))
	for _, e := range in {
		out = append(out, reviewEventResponse{
			ID:          e.ID,
			TaskID:      e.TaskID,
			Action:      string(e.Action),
			ActorID:     e.ActorID,
			Note:        e.Note,
			Attachments: toAttachmentPayloads(e.Attachments),
			CreatedAt:   e.CreatedAt,
		})
	}
	return out
}

type dashboardSummaryResponse struct {
	TotalEmployees        int `json:"totalEmployees"`
	TotalTasks            int `json:"totalTasks"`
	CompletedTasks        int `json:"completedTasks"`
	PendingTasks          int `json:"pendingTasks"`
	InProgressTasks       int `json:"inProgressTasks"`
	AwaitingApprovalTasks int `json:"awaitingApprovalTasks"`
	CompletionRate        int `json:"completionRate"`
}

type employeeStatResponse struct {
	ID             string `json:"_id"`
	EmployeeName   string `json:"employeeName"`
	TotalTasks     int    `json:"totalTasks"`
	CompletedTasks int    `json:"completedTasks"`
	CompletionRate int    `json:"completionRate"`
}

type dashboardResponse struct {
	Summary         dashboardSummaryResponse `json:"summary"`
	TasksByPriority map[string]int           `json:"tasksByPriority"`
	TasksByEmployee []employeeStatResponse   `json:"tasksByEmployee"`
}

func toDashboardResponse(s *dashboard.Summary) dashboardResponse {
	byEmployee := make([]employeeStatResponse, 0, len(s.TasksByEmployee))
	for _, e := range s.TasksByEmployee {
		byEmployee = append(byEmployee, employeeStatResponse{
			ID:             e.EmployeeID,
			EmployeeName:   e.EmployeeName,
			TotalTasks:     e.TotalTasks,
			CompletedTasks: e.CompletedTasks,
			CompletionRate: e.CompletionRate,
		})
	}
	byPriority := s.TasksByPriority
	if byPriority == nil {
		byPriority = map[string]int{}
	}
	return dashboardResponse{
		Summary: dashboardSummaryResponse{
			TotalEmployees:        s.TotalEmployees,
			TotalTasks:            s.TotalTasks,
			CompletedTasks:        s.CompletedTasks,
			PendingTasks:          s.PendingTasks,
			InProgressTasks:       s.InProgressTasks,
			AwaitingApprovalTasks: s.AwaitingApprovalTasks,
			CompletionRate:        s.CompletionRate,
		},
		TasksByPriority: byPriority,
		TasksByEmployee: byEmployee,
	}
}

// parseDueDate は RFC3339 または YYYY-MM-DD 形式の日付を解釈します。
func parseDueDate(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("dueDate must be RFC3339 or %s", dateLayout)
	}
	return t, nil
}
