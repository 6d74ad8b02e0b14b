// Package handler 提供 HTTP 请求处理器
package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Be1newinner/ask-guruji/internal/application/knowledge"
	"github.com/Be1newinner/ask-guruji/internal/interfaces/http/dto"
	apperrors "github.com/Be1newinner/ask-guruji/pkg/errors"
)

// renderError 把领域错误包装成带状态码的 AppError 后渲染。
// 提供商配额耗尽对应 429，向量能力未配置对应 503，其余交给 dto.Fail 兜底。
func renderError(c *gin.Context, err error) {
	switch {
	case knowledge.IsQuotaError(err):
		dto.Fail(c, apperrors.Wrap(err, apperrors.CodeEmbeddingQuota, "embedding quota exhausted"))
	case errors.Is(err, knowledge.ErrVectorDisabled):
		dto.Fail(c, apperrors.Wrap(err, apperrors.CodeServiceUnavailable, "vector store unavailable"))
	default:
		dto.Fail(c, err)
	}
}
