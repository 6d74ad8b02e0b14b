package dto

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "github.com/Be1newinner/ask-guruji/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func failWith(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	Fail(c, err)
	return w
}

func TestFailUsesAppErrorStatus(t *testing.T) {
	w := failWith(t, apperrors.ErrDocumentNotFound)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "document not found") {
		t.Fatalf("expected message in body, got %s", w.Body.String())
	}
}

func TestFailUnwrapsWrappedAppError(t *testing.T) {
	// 外层再包一层 fmt.Errorf 也必须能取到状态码
	inner := apperrors.Wrap(errors.New("429 too many requests"), apperrors.CodeEmbeddingQuota, "embedding quota exhausted")
	w := failWith(t, fmt.Errorf("retrieve query: %w", inner))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 from the wrapped error, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "embedding quota exhausted") {
		t.Fatalf("expected quota message, got %s", w.Body.String())
	}
}

func TestFailDefaultsToInternalError(t *testing.T) {
	w := failWith(t, errors.New("boom"))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "boom") {
		t.Fatalf("expected raw message, got %s", w.Body.String())
	}
}
