package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskhub/internal/auth"
	"taskhub/internal/handler"
	"taskhub/internal/model"
	"taskhub/internal/notify"
	"taskhub/internal/realtime"
	"taskhub/internal/repository"
	"taskhub/internal/server"
	"taskhub/internal/taskevents"
	"taskhub/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// testAPI is the full router backed by an in-memory database. Realtime
// deliveries are recorded instead of sent.
type testAPI struct {
	t      *testing.T
	router *gin.Engine
	db     *gorm.DB
	events *testutil.RecordingRouter
	tokens *auth.TokenService
	hub    *realtime.Hub
	tasks  *repository.TaskRepository
}

type apiOption func(*apiOptions)

type apiOptions struct {
	wrapTasks func(handler.TaskStore) handler.TaskStore
	policy    realtime.JoinPolicy
}

func withTaskStore(wrap func(handler.TaskStore) handler.TaskStore) apiOption {
	return func(o *apiOptions) { o.wrapTasks = wrap }
}

func withJoinPolicy(policy realtime.JoinPolicy) apiOption {
	return func(o *apiOptions) { o.policy = policy }
}

func newTestAPI(t *testing.T, opts ...apiOption) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	options := apiOptions{wrapTasks: func(s handler.TaskStore) handler.TaskStore { return s }}
	for _, opt := range opts {
		opt(&options)
	}

	db := testutil.NewTestDB(t)
	events := &testutil.RecordingRouter{}
	tokens := auth.NewTokenService("test-secret", time.Hour)
	hub := realtime.NewHub(nil)
	t.Cleanup(hub.Close)

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	router := server.NewRouter(server.Handlers{
		User: handler.NewUserHandler(userRepo, tokens, false),
		Task: handler.NewTaskHandler(
			options.wrapTasks(taskRepo),
			userRepo,
			taskevents.NewPublisher(events),
			notify.NewNotifier(notificationRepo, events),
		),
		Notification: handler.NewNotificationHandler(notificationRepo),
		WS:           handler.NewWSHandler(hub, tokens, options.policy),
	}, tokens)

	return &testAPI{
		t:      t,
		router: router,
		db:     db,
		events: events,
		tokens: tokens,
		hub:    hub,
		tasks:  taskRepo,
	}
}

func (a *testAPI) tokenFor(user *model.User) string {
	a.t.Helper()
	token, err := a.tokens.GenerateToken(user.ID.String())
	require.NoError(a.t, err)
	return token
}

func (a *testAPI) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	a.t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		payload, err := json.Marshal(b)
		require.NoError(a.t, err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp := httptest.NewRecorder()
	a.router.ServeHTTP(resp, req)
	return resp
}

func (a *testAPI) notificationsFor(user *model.User) []model.Notification {
	a.t.Helper()
	var out []model.Notification
	require.NoError(a.t, a.db.Where("recipient_id = ?", user.ID).Find(&out).Error)
	return out
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out), resp.Body.String())
	return out
}
