// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "github.com/Be1newinner/ask-guruji/pkg/errors"
)

// ErrorResponse 错误响应结构
type ErrorResponse struct {
	Message string `json:"message"`
}

// Error 返回错误响应
func Error(c *gin.Context, httpCode int, message string) {
	c.JSON(httpCode, ErrorResponse{Message: message})
}

// Fail 按错误类型返回响应。
// 错误链上携带 AppError 时使用其状态码，并把底层原因一并透出；其余按 500 处理。
func Fail(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		msg := appErr.Message
		if appErr.Detail != "" {
			msg = msg + ": " + appErr.Detail
		} else if appErr.Err != nil {
			msg = msg + ": " + appErr.Err.Error()
		}
		Error(c, appErr.HTTPStatus, msg)
		return
	}
	Error(c, 500, err.Error())
}

// BadRequest 返回 400 错误
func BadRequest(c *gin.Context, message string) {
	Error(c, 400, message)
}

// NotFound 返回 404 错误
func NotFound(c *gin.Context, message string) {
	Error(c, 404, message)
}

// InternalError 返回 500 错误
func InternalError(c *gin.Context, message string) {
	Error(c, 500, message)
}
