package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ogurasousui/codex-task-review/internal/adapters/http/middleware"
	"github.com/ogurasousui/codex-task-review/internal/core/task"
	"go.uber.org/zap"
)

// TaskHandler はタスクと完了レビューの HTTP 実装です。
type TaskHandler struct {
	svc task.UseCase
	responder
}

// NewTaskHandler は TaskHandler を生成します。
func NewTaskHandler(svc task.UseCase, logger *zap.Logger, exposeErrors bool) *TaskHandler {
	return &TaskHandler{svc: svc, responder: newResponder(logger, exposeErrors)}
}

type createTaskRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	AssignedTo  string  `json:"assignedTo"`
	DueDate     string  `json:"dueDate"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
}

type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	AssignedTo  *string `json:"assignedTo"`
	DueDate     *string `json:"dueDate"`
}

type requestCompletionRequest struct {
	Note        string              `json:"note"`
	Attachments []attachmentPayload `json:"attachments"`
}

type reviewRequest struct {
	ResponseNote string `json:"responseNote"`
}

// List は GET /tasks を処理します。社員は自分の担当分のみ取得できます。
func (h *TaskHandler) List(c *gin.Context) {
	tasks, err := h.svc.ListTasks(c.Request.Context(), middleware.PrincipalFrom(c), task.ListTasksInput{
		Status:     strings.TrimSpace(c.Query("status")),
		Priority:   strings.TrimSpace(c.Query("priority")),
		AssignedTo: strings.TrimSpace(c.Query("assignedTo")),
	})
	if err != nil {
		h.fail(c, err, "Failed to fetch tasks")
		return
	}
	h.list(c, toTaskResponses(tasks), len(tasks), "")
}

// Get は GET /tasks/:id を処理します。
func (h *TaskHandler) Get(c *gin.Context) {
	found, err := h.svc.GetTask(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Failed to fetch task")
		return
	}
	h.ok(c, http.StatusOK, "", toTaskResponse(found))
}

// History は GET /tasks/:id/history を処理します。
func (h *TaskHandler) History(c *gin.Context) {
	events, err := h.svc.ListReviewHistory(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Failed to fetch review history")
		return
	}
	h.list(c, toReviewEventResponses(events), len(events), "")
}

// Create は POST /tasks を処理します。
func (h *TaskHandler) Create(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}
	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		h.badRequest(c, err.Error())
		return
	}

	created, err := h.svc.CreateTask(c.Request.Context(), middleware.PrincipalFrom(c), task.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      taskStatusPtr(req.Status),
		Priority:    taskPriorityPtr(req.Priority),
		AssignedTo:  req.AssignedTo,
		DueDate:     &dueDate,
	})
	if err != nil {
		h.fail(c, err, "Failed to create task")
		return
	}
	h.ok(c, http.StatusCreated, "Task created successfully", toTaskResponse(created))
}

// Update は PUT /tasks/:id を処理します。
func (h *TaskHandler) Update(c *gin.Context) {
	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}

	var dueDate *time.Time
	if req.DueDate != nil {
		parsed, err := parseDueDate(*req.DueDate)
		if err != nil {
			h.badRequest(c, err.Error())
			return
		}
		dueDate = &parsed
	}

	updated, err := h.svc.UpdateTask(c.Request.Context(), middleware.PrincipalFrom(c), task.UpdateTaskInput{
		ID:          c.Param("id"),
		Title:       req.Title,
		Description: req.Description,
		Status:      taskStatusPtr(req.Status),
		Priority:    taskPriorityPtr(req.Priority),
		AssignedTo:  req.AssignedTo,
		DueDate:     dueDate,
	})
	if err != nil {
		h.fail(c, err, "Failed to update task")
		return
	}
	h.ok(c, http.StatusOK, "Task updated successfully", toTaskResponse(updated))
}

// Delete は DELETE /tasks/:id を処理します。
func (h *TaskHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteTask(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("id")); err != nil {
		h.fail(c, err, "Failed to delete task")
		return
	}
	h.ok(c, http.StatusOK, "Task deleted successfully", nil)
}

// RequestCompletion は POST /tasks/:id/request-completion を処理します。
func (h *TaskHandler) RequestCompletion(c *gin.Context) {
	var req requestCompletionRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}

	updated, err := h.svc.RequestCompletion(c.Request.Context(), middleware.PrincipalFrom(c), task.RequestCompletionInput{
		TaskID:      c.Param("id"),
		Note:        req.Note,
		Attachments: fromAttachmentPayloads(req.Attachments),
	})
	if err != nil {
		h.fail(c, err, "Failed to request completion")
		return
	}
	h.ok(c, http.StatusOK, "Completion request submitted", toTaskResponse(updated))
}

// ApproveCompletion は POST /tasks/:id/approve-completion を処理します。
func (h *TaskHandler) ApproveCompletion(c *gin.Context) {
	var req reviewRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}

	updated, err := h.svc.ApproveCompletion(c.Request.Context(), middleware.PrincipalFrom(c), task.ReviewInput{
		TaskID:       c.Param("id"),
		ResponseNote: req.ResponseNote,
	})
	if err != nil {
		h.fail(c, err, "Failed to approve completion")
		return
	}
	h.ok(c, http.StatusOK, "Completion approved", toTaskResponse(updated))
}

// RejectCompletion は POST /tasks/:id/reject-completion を処理します。
func (h *TaskHandler) RejectCompletion(c *gin.Context) {
	var req reviewRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}

	updated, err := h.svc.RejectCompletion(c.Request.Context(), middleware.PrincipalFrom(c), task.ReviewInput{
		TaskID:       c.Param("id"),
		ResponseNote: req.ResponseNote,
	})
	if err != nil {
		h.fail(c, err, "Failed to reject completion")
		return
	}
	h.ok(c, http.StatusOK, "Completion rejected", toTaskResponse(updated))
}

// bindOptionalJSON は空のボディを許容して JSON を読み込みます。
func bindOptionalJSON(c *gin.Context, dst any) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func taskStatusPtr(raw *string) *task.Status {
	if raw == nil {
		return nil
	}
	s := task.Status(strings.TrimSpace(*raw))
	return &s
}

func taskPriorityPtr(raw *string) *task.Priority {
	if raw == nil {
		return nil
	}
	p := task.Priority(strings.TrimSpace(*raw))
	return &p
}
