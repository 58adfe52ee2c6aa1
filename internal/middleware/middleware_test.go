package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func init() { gin.SetMode(gin.TestMode) }

func TestRequireRole(t *testing.T) {
	auth := NewAuth("test-secret", time.Hour)
	r := gin.New()
	r.GET("/admin", auth.RequireRole(RoleAdmin, RoleCoordinator), func(c *gin.Context) {
		if id := ActorID(c); id == nil || *id != 4 {
			t.Errorf("expected actor 4, got %v", id)
		}
		c.Status(http.StatusOK)
	})

	coordinator, _ := auth.GenerateToken(4, RoleCoordinator)
	driver, _ := auth.GenerateToken(4, "driver")
	other, _ := NewAuth("other-secret", time.Hour).GenerateToken(4, RoleAdmin)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"foreign signature", "Bearer " + other, http.StatusUnauthorized},
		{"wrong role", "Bearer " + driver, http.StatusForbidden},
		{"coordinator", "Bearer " + coordinator, http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, w.Code)
			}
		})
	}
}

func TestExpiredToken(t *testing.T) {
	auth := NewAuth("test-secret", time.Hour)
	auth.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, _ := auth.GenerateToken(1, RoleAdmin)
	if _, err := auth.ValidateToken(tok); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if _, err := uuid.Parse(w.Header().Get(HeaderXRequestID)); err != nil {
		t.Fatalf("expected minted uuid, got %q", w.Header().Get(HeaderXRequestID))
	}

	keep := uuid.NewString()
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, keep)
	r.ServeHTTP(w, req)
	if got := w.Header().Get(HeaderXRequestID); got != keep {
		t.Fatalf("expected %s to be kept, got %s", keep, got)
	}
}

type memCounter struct {
	counts map[string]int64
	err    error
}

func (m *memCounter) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.counts[key]++
	return m.counts[key], nil
}

func TestRateLimit(t *testing.T) {
	counter := &memCounter{counts: map[string]int64{}}
	r := gin.New()
	r.POST("/scan", RateLimit(counter, "scan", 2, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/scan", nil))
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("expected 200,200,429, got %v", codes)
	}
}

func TestRateLimitFailsOpen(t *testing.T) {
	counter := &memCounter{counts: map[string]int64{}, err: errors.New("redis down")}
	r := gin.New()
	r.POST("/scan", RateLimit(counter, "scan", 1, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/scan", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 while counter is down, got %d", w.Code)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://kiosk.local")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://kiosk.local" {
		t.Fatalf("expected echoed origin, got %q", got)
	}
}
