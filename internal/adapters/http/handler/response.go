package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// envelope は全レスポンス共通の形式です。
type envelope struct {
	Success       bool   `json:"success"`
	Message       string `json:"message,omitempty"`
	Data          any    `json:"data,omitempty"`
	Error         string `json:"error,omitempty"`
	Count         *int   `json:"count,omitempty"`
	NextPageToken string `json:"nextPageToken,omitempty"`
	Token         string `json:"token,omitempty"`
}

// responder はレスポンスの書き出しとエラー時のログ出力を担います。
type responder struct {
	logger       *zap.Logger
	exposeErrors bool
}

func newResponder(logger *zap.Logger, exposeErrors bool) responder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return responder{logger: logger, exposeErrors: exposeErrors}
}

func (r responder) ok(c *gin.Context, status int, message string, data any) {
	c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

func (r responder) list(c *gin.Context, data any, count int, nextPageToken string) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data, Count: &count, NextPageToken: nextPageToken})
}

func (r responder) badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, envelope{Success: false, Message: message})
}

// fail はドメインエラーを HTTP レスポンスに変換します。fallback は 500 時のメッセージです。
func (r responder) fail(c *gin.Context, err error, fallback string) {
	status, message := toHTTPError(err)
	body := envelope{Success: false, Message: message}

	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		r.logger.Error(fallback, zap.Error(err), zap.String("path", c.FullPath()))
		if fallback != "" {
			body.Message = fallback
		}
		if r.exposeErrors {
			body.Error = err.Error()
		}
	}

	c.JSON(status, body)
}
