package handler_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"taskhub/internal/realtime"
	"taskhub/internal/testutil"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wsURL(srv *httptest.Server, query string) string {
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	if query != "" {
		url += "?" + query
	}
	return url
}

func TestWSHandler_AnonymousJoinReceivesNotification(t *testing.T) {
	api := newTestAPI(t)
	srv := httptest.NewServer(api.router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, ""), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(realtime.Message{Event: realtime.EventJoin, Data: []byte(`"user-42"`)}))
	assert.Eventually(t, func() bool { return api.hub.ChannelSize("user-42") == 1 }, time.Second, 10*time.Millisecond)

	api.hub.SendToChannel("user-42", realtime.EventNotification, map[string]string{"message": "hello"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg realtime.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, realtime.EventNotification, msg.Event)
	assert.JSONEq(t, `{"message":"hello"}`, string(msg.Data))
}

func TestWSHandler_RequireIdentity(t *testing.T) {
	api := newTestAPI(t, withJoinPolicy(realtime.JoinPolicy{RequireIdentity: true}))
	alice := testutil.CreateUser(t, api.db, "alice")
	srv := httptest.NewServer(api.router)
	defer srv.Close()

	// Без токена соединение отклоняется
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, ""), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "token="+api.tokenFor(alice)), nil)
	require.NoError(t, err)
	defer conn.Close()

	// Пустой join привязывает к собственному каналу
	require.NoError(t, conn.WriteJSON(realtime.Message{Event: realtime.EventJoin}))
	assert.Eventually(t, func() bool { return api.hub.ChannelSize(alice.ID.String()) == 1 }, time.Second, 10*time.Millisecond)
}
