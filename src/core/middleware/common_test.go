package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"voice-relay-server/src/core/auth"
	"voice-relay-server/src/core/utils"

	"github.com/gin-gonic/gin"
)

func newRouter(enabled bool, at *auth.AuthToken) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS())
	r.GET("/monitor", BearerTokenAuth(enabled, at, utils.NewWriterLogger(io.Discard, utils.INFO)), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("operator"))
	})
	return r
}

func TestBearerTokenAuth(t *testing.T) {
	at := auth.NewAuthToken("secret")
	good, _ := at.GenerateToken("ops")

	tests := []struct {
		name    string
		enabled bool
		header  string
		want    int
	}{
		{"disabled passes", false, "", http.StatusOK},
		{"missing header", true, "", http.StatusUnauthorized},
		{"bad token", true, "Bearer nope", http.StatusUnauthorized},
		{"valid token", true, "Bearer " + good, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(tt.enabled, at)
			req := httptest.NewRequest(http.MethodGet, "/monitor", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("status=%d, want %d", w.Code, tt.want)
			}
			if tt.name == "valid token" && w.Body.String() != "ops" {
				t.Fatalf("operator=%q", w.Body.String())
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	r := newRouter(false, nil)
	req := httptest.NewRequest(http.MethodOptions, "/monitor", nil)
	req.Header.Set("Origin", "https://flex.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status=%d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://flex.example.com" {
		t.Fatalf("allow-origin=%q", got)
	}
}
