package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ogurasousui/codex-task-review/internal/adapters/http/middleware"
	"github.com/ogurasousui/codex-task-review/internal/core/access"
	"github.com/ogurasousui/codex-task-review/internal/core/employee"
	"github.com/ogurasousui/codex-task-review/internal/core/task"
	"go.uber.org/zap"
)

// EmployeeHandler は社員ディレクトリの HTTP 実装です。
type EmployeeHandler struct {
	svc   employee.UseCase
	tasks task.UseCase
	responder
}

// NewEmployeeHandler は EmployeeHandler を生成します。
func NewEmployeeHandler(svc employee.UseCase, tasks task.UseCase, logger *zap.Logger, exposeErrors bool) *EmployeeHandler {
	return &EmployeeHandler{
		svc:       svc,
		tasks:     tasks,
		responder: newResponder(logger, exposeErrors),
	}
}

type createEmployeeRequest struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Department string  `json:"department"`
	Position   string  `json:"position"`
	Status     *string `json:"status"`
}

type updateEmployeeRequest struct {
	Name       *string `json:"name"`
	Email      *string `json:"email"`
	Department *string `json:"department"`
	Position   *string `json:"position"`
	Status     *string `json:"status"`
}

type employeeDeleteResponse struct {
	employeeResponse
	DeletedTasks int64 `json:"deletedTasks"`
}

// List は GET /employees を処理します。
func (h *EmployeeHandler) List(c *gin.Context) {
	in := employee.ListEmployeesInput{PageToken: c.Query("pageToken")}
	if raw := c.Query("pageSize"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			h.fail(c, employee.ErrInvalidPageSize, "")
			return
		}
		in.PageSize = size
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := employee.Status(raw)
		in.Status = &status
	}

	res, err := h.svc.ListEmployees(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err, "Failed to fetch employees")
		return
	}

	h.list(c, toEmployeeResponses(res.Employees), len(res.Employees), res.NextPageToken)
}

// Get は GET /employees/:id を処理します。担当者本人か管理者にはタスク一覧も返します。
func (h *EmployeeHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	found, err := h.svc.GetEmployee(ctx, employee.GetEmployeeInput{ID: c.Param("id")})
	if err != nil {
		h.fail(c, err, "Failed to fetch employee")
		return
	}

	out := employeeDetailResponse{employeeResponse: toEmployeeResponse(found)}
	if p := middleware.PrincipalFrom(c); access.CanViewEmployeeTasks(p, found.ID) {
		tasks, err := h.tasks.ListTasks(ctx, p, task.ListTasksInput{AssignedTo: found.ID})
		if err != nil {
			h.fail(c, err, "Failed to fetch employee")
			return
		}
		out.Tasks = toTaskResponses(tasks)
	}

	h.ok(c, http.StatusOK, "", out)
}

// Create は POST /employees を処理します。
func (h *EmployeeHandler) Create(c *gin.Context) {
	var req createEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}

	created, err := h.svc.CreateEmployee(c.Request.Context(), employee.CreateEmployeeInput{
		Name:       req.Name,
		Email:      req.Email,
		Department: req.Department,
		Position:   req.Position,
		Status:     employeeStatusPtr(req.Status),
	})
	if err != nil {
		h.fail(c, err, "Failed to create employee")
		return
	}

	h.ok(c, http.StatusCreated, "Employee created successfully", toEmployeeResponse(created))
}

// Update は PUT /employees/:id を処理します。
func (h *EmployeeHandler) Update(c *gin.Context) {
	var req updateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}

	updated, err := h.svc.UpdateEmployee(c.Request.Context(), employee.UpdateEmployeeInput{
		ID:         c.Param("id"),
		Name:       req.Name,
		Email:      req.Email,
		Department: req.Department,
		Position:   req.Position,
		Status:     employeeStatusPtr(req.Status),
	})
	if err != nil {
		h.fail(c, err, "Failed to update employee")
		return
	}

	h.ok(c, http.StatusOK, "Employee updated successfully", toEmployeeResponse(updated))
}

// Delete は DELETE /employees/:id を処理し、担当タスクも削除します。
func (h *EmployeeHandler) Delete(c *gin.Context) {
	res, err := h.svc.DeleteEmployee(c.Request.Context(), employee.DeleteEmployeeInput{ID: c.Param("id")})
	if err != nil {
		h.fail(c, err, "Failed to delete employee")
		return
	}

	h.ok(c, http.StatusOK, "Employee deleted successfully", employeeDeleteResponse{
		employeeResponse: toEmployeeResponse(res.Employee),
		DeletedTasks:     res.DeletedTasks,
	})
}

func employeeStatusPtr(raw *string) *employee.Status {
	if raw == nil {
		return nil
	}
	s := employee.Status(strings.TrimSpace(*raw))
	return &s
}
