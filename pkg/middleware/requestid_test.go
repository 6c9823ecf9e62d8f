package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// TestRequestID はRequestIDミドルウェアを検証する。
func TestRequestID(t *testing.T) {
	t.Parallel()

	t.Run("ヘッダーがない場合にUUIDを新規採番すること", func(t *testing.T) {
		t.Parallel()

		router := gin.New()
		router.Use(RequestID())

		var captured string
		router.GET("/", func(c *gin.Context) {
			captured = GetRequestID(c)
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		router.ServeHTTP(w, req)

		if captured == "" {
			t.Fatal("リクエストIDが採番されていない")
		}
		if _, err := uuid.Parse(captured); err != nil {
			t.Errorf("リクエストIDがUUID形式ではない: %q", captured)
		}
		if got := w.Header().Get("X-Request-ID"); got != captured {
			t.Errorf("レスポンスヘッダーのX-Request-ID = %q, want %q", got, captured)
		}
	})

	t.Run("クライアント指定のIDを引き継ぐこと", func(t *testing.T) {
		t.Parallel()

		router := gin.New()
		router.Use(RequestID())
		router.GET("/", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "client-supplied-id")
		router.ServeHTTP(w, req)

		if got := w.Header().Get("X-Request-ID"); got != "client-supplied-id" {
			t.Errorf("X-Request-ID = %q, want %q", got, "client-supplied-id")
		}
	})

	t.Run("ミドルウェア未適用の場合に空文字列を返すこと", func(t *testing.T) {
		t.Parallel()

		router := gin.New()
		var captured string
		router.GET("/", func(c *gin.Context) {
			captured = GetRequestID(c)
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		if captured != "" {
			t.Errorf("GetRequestID() = %q, want 空文字列", captured)
		}
	})
}
