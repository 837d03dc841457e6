package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRateLimiterKeysByIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(NewClientRateLimiter(1, 2).Middleware())
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	hit := func(ip string) int {
		req := httptest.NewRequest("GET", "/ping", nil)
		req.RemoteAddr = ip + ":12345"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	// Burst of 2, then the bucket is empty.
	if code := hit("10.0.0.1"); code != http.StatusOK {
		t.Fatalf("first request = %d, want 200", code)
	}
	if code := hit("10.0.0.1"); code != http.StatusOK {
		t.Fatalf("second request = %d, want 200", code)
	}
	if code := hit("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("third request = %d, want 429", code)
	}

	// A different client gets its own bucket.
	if code := hit("10.0.0.2"); code != http.StatusOK {
		t.Fatalf("other client = %d, want 200", code)
	}
}
