package server_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "taskhub/docs"
	"taskhub/internal/auth"
	"taskhub/internal/handler"
	"taskhub/internal/realtime"
	"taskhub/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	tokens := auth.NewTokenService("test-secret", time.Hour)
	return server.NewRouter(server.Handlers{
		User:         handler.NewUserHandler(nil, tokens, false),
		Task:         handler.NewTaskHandler(nil, nil, nil, nil),
		Notification: handler.NewNotificationHandler(nil),
		WS:           handler.NewWSHandler(realtime.NewHub(nil), tokens, realtime.JoinPolicy{}),
	}, tokens)
}

func TestNewRouter_Health(t *testing.T) {
	router := newRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"status":"ok"}`, resp.Body.String())
}

func TestNewRouter_Swagger(t *testing.T) {
	router := newRouter()

	req := httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Taskhub API")
	assert.Contains(t, resp.Body.String(), "/notifications/read-all")
}

func TestNewRouter_ProtectedRoutes(t *testing.T) {
	router := newRouter()

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/tasks"},
		{http.MethodPost, "/api/tasks"},
		{http.MethodPut, "/api/tasks/00000000-0000-0000-0000-000000000000"},
		{http.MethodDelete, "/api/tasks/00000000-0000-0000-0000-000000000000"},
		{http.MethodGet, "/api/notifications"},
		{http.MethodPut, "/api/notifications/read-all"},
		{http.MethodGet, "/api/auth/me"},
	} {
		req := httptest.NewRequest(route.method, route.path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		assert.Equal(t, http.StatusUnauthorized, resp.Code, "%s %s", route.method, route.path)
	}
}
