package middleware_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"layout-builder/config"
	"layout-builder/internal/app/http/middleware"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func adminRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin", middleware.AuthMiddleware(), middleware.RequireRole("admin"), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("user"))
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	config.JWT_SECRET = "test-secret"
	t.Cleanup(func() { config.JWT_SECRET = "" })
	r := adminRouter()
	exp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Token abc", http.StatusUnauthorized},
		{"bad signature", "Bearer " + sign(t, "other", jwt.MapClaims{"role": "admin", "exp": exp}), http.StatusUnauthorized},
		{"expired", "Bearer " + sign(t, "test-secret", jwt.MapClaims{"role": "admin", "exp": time.Now().Add(-time.Hour).Unix()}), http.StatusUnauthorized},
		{"no role", "Bearer " + sign(t, "test-secret", jwt.MapClaims{"exp": exp}), http.StatusUnauthorized},
		{"editor", "Bearer " + sign(t, "test-secret", jwt.MapClaims{"role": "editor", "exp": exp}), http.StatusForbidden},
		{"admin", "Bearer " + sign(t, "test-secret", jwt.MapClaims{"sub": "u1", "role": "admin", "exp": exp}), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, "u1", w.Body.String())
			}
		})
	}
}

func TestAuthMiddlewareWithoutSecret(t *testing.T) {
	config.JWT_SECRET = ""
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer x")
	w := httptest.NewRecorder()
	adminRouter().ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestSanitizeFieldsOnlyTouchesNamedFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/", middleware.SanitizeFields("name"), func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		c.String(http.StatusOK, string(body))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(
		`{"name":"<b>Home</b>","fields":"elements%5Bs%5D%5Be%5D%5Boptions%5D%5Bhtml%5D=%3Cb%3Ex%3C%2Fb%3E","n":3}`)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"name":"Home","fields":"elements%5Bs%5D%5Be%5D%5Boptions%5D%5Bhtml%5D=%3Cb%3Ex%3C%2Fb%3E","n":3}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code, "empty bodies pass through")
}
