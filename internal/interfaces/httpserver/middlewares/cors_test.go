package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newCORSEngine(origins []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(CORSMiddleware(origins))
	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return engine
}

func doCORSRequest(engine *gin.Engine, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/ping", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestCORSWildcardAllowsAnyOrigin(t *testing.T) {
	engine := newCORSEngine([]string{"*"})

	rec := doCORSRequest(engine, http.MethodGet, "http://example.com")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard allow-origin, got %q", got)
	}
	if rec.Header().Get("Access-Control-Allow-Credentials") != "" {
		t.Error("wildcard responses must not allow credentials")
	}
}

func TestCORSExactOriginEchoedWithCredentials(t *testing.T) {
	engine := newCORSEngine([]string{"http://localhost:3000"})

	rec := doCORSRequest(engine, http.MethodGet, "http://localhost:3000")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("expected origin echoed back, got %q", got)
	}
	if rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Error("expected credentials allowed for listed origin")
	}
}

func TestCORSUnknownOriginGetsNoHeader(t *testing.T) {
	engine := newCORSEngine([]string{"http://localhost:3000"})

	rec := doCORSRequest(engine, http.MethodGet, "http://evil.example.com")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected allow-origin for unlisted origin: %q", got)
	}
}

func TestCORSPreflightShortCircuits(t *testing.T) {
	engine := newCORSEngine([]string{"*"})

	rec := doCORSRequest(engine, http.MethodOptions, "http://example.com")
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204 for preflight, got %d", rec.Code)
	}
}
