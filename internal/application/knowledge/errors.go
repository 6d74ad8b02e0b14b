package knowledge

import (
	"errors"
	"fmt"
)

var (
	// ErrVectorDisabled 表示向量检索/索引能力未配置（Milvus 或 Embedder 不可用）。
	ErrVectorDisabled = errors.New("vector retrieval is disabled")
)

// QuotaError 表示嵌入/生成提供商返回了配额或限流类错误（HTTP 429 等）。
// 摄取流水线据此中止后续批次，避免继续撞限额。
type QuotaError struct {
	Provider string
	Err      error
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("%s quota exceeded: %v", e.Provider, e.Err)
}

func (e *QuotaError) Unwrap() error {
	return e.Err
}

// IsQuotaError 判断错误链中是否存在 QuotaError。
func IsQuotaError(err error) bool {
	var qe *QuotaError
	return errors.As(err, &qe)
}
