package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func preflight(r http.Handler, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodOptions, "/api/login", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCORSOrigins(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name    string
		config  []string
		origin  string
		allowed bool
	}{
		{"default dev origin", nil, "http://localhost:5173", true},
		{"default rejects unknown", nil, "https://labels.example.com", false},
		{"configured origin", []string{"https://labels.example.com"}, "https://labels.example.com", true},
		{"configured replaces defaults", []string{"https://labels.example.com"}, "http://localhost:5173", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(CORS(tc.config...))
			r.POST("/api/login", func(c *gin.Context) { c.Status(http.StatusOK) })

			rec := preflight(r, tc.origin)
			got := rec.Header().Get("Access-Control-Allow-Origin")
			if tc.allowed && got != tc.origin {
				t.Fatalf("expected allow-origin %q, got %q (status %d)", tc.origin, got, rec.Code)
			}
			if !tc.allowed && got != "" {
				t.Fatalf("expected no allow-origin, got %q", got)
			}
		})
	}
}
