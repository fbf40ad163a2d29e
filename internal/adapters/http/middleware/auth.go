// Package middleware は認証・権限・リクエストログなど gin の共通処理を提供します。
package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ogurasousui/codex-task-review/internal/core/access"
	"github.com/ogurasousui/codex-task-review/internal/core/identity"
	"github.com/ogurasousui/codex-task-review/internal/platform/auth"
	"go.uber.org/zap"
)

const (
	principalKey = "task-review.principal"
	userKey      = "task-review.user"
	claimsKey    = "task-review.claims"

	notAuthorizedMessage = "Not authorized"
	forbiddenMessage     = "Forbidden"
)

// TokenParser は Bearer トークンを検証します。
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// Denylist はログアウト済みトークンを判定します。
type Denylist interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// UserResolver はトークンのユーザー ID から現在のユーザーを取得します。
type UserResolver interface {
	Resolve(ctx context.Context, userID string) (*identity.User, error)
}

// Authenticator はリクエストごとにトークンを検証し、呼び出し元をコンテキストへ格納します。
type Authenticator struct {
	tokens   TokenParser
	denylist Denylist
	users    UserResolver
	logger   *zap.Logger
}

// NewAuthenticator は Authenticator を生成します。
func NewAuthenticator(tokens TokenParser, denylist Denylist, users UserResolver, logger *zap.Logger) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{tokens: tokens, denylist: denylist, users: users, logger: logger}
}

// Authenticate はトークンがあれば検証します。不正なトークンは匿名として扱います。
func (a *Authenticator) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Next()
			return
		}

		user, claims, err := a.resolve(c.Request.Context(), raw)
		if err != nil {
			a.logger.Debug("ignore invalid bearer token", zap.Error(err), zap.String("path", c.FullPath()))
			c.Next()
			return
		}

		c.Set(userKey, user)
		c.Set(claimsKey, claims)
		c.Set(principalKey, user.Principal())
		c.Next()
	}
}

func (a *Authenticator) resolve(ctx context.Context, raw string) (*identity.User, *auth.Claims, error) {
	claims, err := a.tokens.Parse(raw)
	if err != nil {
		return nil, nil, err
	}
	if a.denylist != nil {
		revoked, err := a.denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			a.logger.Warn("token denylist unavailable", zap.Error(err))
			return nil, nil, err
		}
		if revoked {
			return nil, nil, auth.ErrInvalidToken
		}
	}
	user, err := a.users.Resolve(ctx, claims.UserID)
	if err != nil {
		return nil, nil, err
	}
	return user, claims, nil
}

// RequireAuth は認証済みでないリクエストを 401 で拒否します。
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if PrincipalFrom(c) == nil {
			abort(c, http.StatusUnauthorized, notAuthorizedMessage)
			return
		}
		c.Next()
	}
}

// RequireAdmin は管理者以外のリクエストを拒否します。
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := PrincipalFrom(c)
		if p == nil {
			abort(c, http.StatusUnauthorized, notAuthorizedMessage)
			return
		}
		if !access.IsAdmin(p) {
			abort(c, http.StatusForbidden, forbiddenMessage)
			return
		}
		c.Next()
	}
}

// PrincipalFrom は認証済みの呼び出し元を返します。匿名の場合は nil です。
func PrincipalFrom(c *gin.Context) access.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, _ := v.(access.Principal)
	return p
}

// UserFrom は認証済みユーザーを返します。
func UserFrom(c *gin.Context) *identity.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	u, _ := v.(*identity.User)
	return u
}

// TokenExpiry はリクエストのトークン ID と残り有効期間を返します。
func TokenExpiry(c *gin.Context, now time.Time) (string, time.Duration, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return "", 0, false
	}
	claims, ok := v.(*auth.Claims)
	if !ok {
		return "", 0, false
	}
	return claims.ID, claims.ExpiresIn(now), true
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}
