package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ogurasousui/codex-task-review/internal/adapters/http/middleware"
	"github.com/ogurasousui/codex-task-review/internal/core/dashboard"
	"go.uber.org/zap"
)

// DashboardHandler は集計サマリを返します。
type DashboardHandler struct {
	svc dashboard.UseCase
	responder
}

// NewDashboardHandler は DashboardHandler を生成します。
func NewDashboardHandler(svc dashboard.UseCase, logger *zap.Logger, exposeErrors bool) *DashboardHandler {
	return &DashboardHandler{svc: svc, responder: newResponder(logger, exposeErrors)}
}

// Get は GET /dashboard を処理します。
func (h *DashboardHandler) Get(c *gin.Context) {
	summary, err := h.svc.GetSummary(c.Request.Context(), middleware.PrincipalFrom(c))
	if err != nil {
		h.fail(c, err, "Failed to fetch dashboard data")
		return
	}
	h.ok(c, http.StatusOK, "", toDashboardResponse(summary))
}
