package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ogurasousui/codex-task-review/internal/adapters/http/middleware"
	"github.com/ogurasousui/codex-task-review/internal/core/identity"
	"go.uber.org/zap"
)

// TokenRevoker はログアウトしたトークンを失効させます。
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
}

// AuthHandler は登録・ログイン・ログアウトを扱います。
type AuthHandler struct {
	svc     identity.UseCase
	revoker TokenRevoker
	now     func() time.Time
	responder
}

// NewAuthHandler は AuthHandler を生成します。
func NewAuthHandler(svc identity.UseCase, revoker TokenRevoker, logger *zap.Logger, exposeErrors bool) *AuthHandler {
	return &AuthHandler{
		svc:       svc,
		revoker:   revoker,
		now:       func() time.Time { return time.Now().UTC() },
		responder: newResponder(logger, exposeErrors),
	}
}

type registerRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	EmployeeID string `json:"employeeId"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register は POST /auth/register を処理します。
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		h.badRequest(c, "Email and password are required")
		return
	}

	res, err := h.svc.Register(c.Request.Context(), identity.RegisterInput{
		Email:      req.Email,
		Password:   req.Password,
		Role:       identity.Role(strings.TrimSpace(req.Role)),
		EmployeeID: req.EmployeeID,
	})
	if err != nil {
		h.fail(c, err, "Registration failed")
		return
	}

	c.JSON(http.StatusCreated, envelope{Success: true, Data: toUserResponse(res.User), Token: res.Token})
}

// Login は POST /auth/login を処理します。
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		h.badRequest(c, "Email and password are required")
		return
	}

	res, err := h.svc.Login(c.Request.Context(), identity.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		h.fail(c, err, "Login failed")
		return
	}

	c.JSON(http.StatusOK, envelope{Success: true, Data: toUserResponse(res.User), Token: res.Token})
}

// Logout は POST /auth/logout を処理し、利用中のトークンを失効させます。
func (h *AuthHandler) Logout(c *gin.Context) {
	jti, ttl, ok := middleware.TokenExpiry(c, h.now())
	if ok && h.revoker != nil {
		if err := h.revoker.Revoke(c.Request.Context(), jti, ttl); err != nil {
			h.fail(c, err, "Logout failed")
			return
		}
	}
	h.ok(c, http.StatusOK, "Logged out", nil)
}

// Me は GET /auth/me を処理し、認証済みユーザーを返します。
func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.UserFrom(c)
	if user == nil {
		h.fail(c, identity.ErrUserNotFound, "")
		return
	}
	h.ok(c, http.StatusOK, "", toUserResponse(user))
}
