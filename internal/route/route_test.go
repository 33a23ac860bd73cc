package route

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"terminal-terrace/testmaker/config"
	"terminal-terrace/testmaker/internal/answer"
	"terminal-terrace/testmaker/internal/auth"
	"terminal-terrace/testmaker/internal/code"
	"terminal-terrace/testmaker/internal/task"
	"terminal-terrace/testmaker/internal/user"
)

func denyAll(c *gin.Context) {
	c.AbortWithStatus(http.StatusUnauthorized)
}

func setupRouter(ping func(context.Context) error, origins ...string) *gin.Engine {
	return SetupRouter(config.ServerConfig{Mode: gin.TestMode, CORSOrigins: origins}, Handlers{
		Auth:    auth.NewAuthHandler(nil),
		User:    user.NewUserHandler(nil),
		Task:    task.NewTaskHandler(nil),
		Answer:  answer.NewAnswerHandler(nil),
		Code:    code.NewCodeHandler(nil),
		JWTAuth: denyAll,
		Ping:    ping,
	})
}

func TestSetupRouter_ProtectedRoutes(t *testing.T) {
	r := setupRouter(nil)

	for _, path := range []string{"/api/v1/tasks", "/api/v1/answers/my", "/api/v1/users/me", "/api/v1/auth/me"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	for _, path := range []string{"/api/v1/users/me/verify-email/code", "/api/v1/users/me/verify-email"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSetupRouter_Healthz(t *testing.T) {
	w := httptest.NewRecorder()
	setupRouter(nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	setupRouter(func(context.Context) error { return errors.New("redis down") }).
		ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "redis down")
}

func TestSetupRouter_CORS(t *testing.T) {
	r := setupRouter(nil, "http://localhost:3000")

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/tasks", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/tasks", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
