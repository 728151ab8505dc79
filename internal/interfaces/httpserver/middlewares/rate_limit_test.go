package middlewares

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newTestEngine(limitPerMinute float64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(Session(time.Hour))
	engine.Use(RateLimitMiddleware(limitPerMinute))
	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": UserIDFromContext(c)})
	})
	return engine
}

func doRequest(engine *gin.Engine, cookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitAllowsWithinBudget(t *testing.T) {
	engine := newTestEngine(5)

	rec := doRequest(engine, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRateLimitRejectsAfterBudget(t *testing.T) {
	engine := newTestEngine(3)
	cookie := "assistant_session=fixed-session"

	for i := 0; i < 3; i++ {
		if rec := doRequest(engine, cookie); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}

	rec := doRequest(engine, cookie)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after budget exhausted, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("expected Retry-After header, got %q", rec.Header().Get("Retry-After"))
	}
}

func TestRateLimitKeysBySession(t *testing.T) {
	engine := newTestEngine(1)

	if rec := doRequest(engine, "assistant_session=user-a"); rec.Code != http.StatusOK {
		t.Fatalf("user-a first request: expected 200, got %d", rec.Code)
	}
	if rec := doRequest(engine, "assistant_session=user-a"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("user-a second request: expected 429, got %d", rec.Code)
	}
	if rec := doRequest(engine, "assistant_session=user-b"); rec.Code != http.StatusOK {
		t.Fatalf("user-b should have a fresh budget, got %d", rec.Code)
	}
}

func TestSessionAssignsCookie(t *testing.T) {
	engine := newTestEngine(10)

	rec := doRequest(engine, "")
	setCookie := rec.Header().Get("Set-Cookie")
	if !strings.Contains(setCookie, "assistant_session=") {
		t.Fatalf("expected session cookie to be set, got %q", setCookie)
	}
}

func TestSessionReusesExistingCookie(t *testing.T) {
	engine := newTestEngine(10)

	rec := doRequest(engine, "assistant_session=existing-id")
	if strings.Contains(rec.Header().Get("Set-Cookie"), "assistant_session=") {
		t.Error("existing session should not be replaced")
	}
	if !strings.Contains(rec.Body.String(), "existing-id") {
		t.Errorf("expected user id from cookie, got %s", rec.Body.String())
	}
}
