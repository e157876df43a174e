package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/wricardo/connect6-live/game/engine"
	"github.com/wricardo/connect6-live/game/hub"
	"github.com/wricardo/connect6-live/game/service"
	"github.com/wricardo/connect6-live/game/session"
)

func newTestServer(t *testing.T, opts Options) (*httptest.Server, service.GameService, *hub.Hub) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	h := hub.NewHub(logger, 16)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(cancel)

	svc := service.NewGameService(session.New(h, logger), h, logger)
	handler := NewHandler(svc, logger, opts)
	srv := httptest.NewServer(http.HandlerFunc(handler.ServeWS))
	t.Cleanup(srv.Close)
	return srv, svc, h
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func intp(v int) *int { return &v }

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

// readUntil skips messages until one with the given event arrives
func readUntil(t *testing.T, conn *websocket.Conn, event string) Message {
	t.Helper()
	for {
		msg := readMessage(t, conn)
		if msg.Event == event {
			return msg
		}
	}
}

func TestInitialStateAndUpdates(t *testing.T) {
	srv, svc, h := newTestServer(t, Options{})
	conn := dial(t, srv, "")

	msg := readMessage(t, conn)
	assert.Equal(t, EventStateUpdate, msg.Event)
	require.NotNil(t, msg.State)
	assert.Equal(t, uint64(0), msg.State.Version)
	assert.Equal(t, 1, h.Count())

	ctx := context.Background()
	_, _ = svc.ChooseColor(ctx, "alice", 1)
	_, _ = svc.ChooseColor(ctx, "bob", 2)

	msg = readMessage(t, conn)
	assert.Equal(t, uint64(1), msg.State.Version)
	msg = readMessage(t, conn)
	assert.Equal(t, uint64(2), msg.State.Version)
	assert.True(t, msg.State.GameStarted)
}

func TestParticipantCommands(t *testing.T) {
	srv, _, _ := newTestServer(t, Options{})
	alice := dial(t, srv, "?playerId=alice")
	bob := dial(t, srv, "?playerId=bob")
	readMessage(t, alice)
	readMessage(t, bob)

	require.NoError(t, alice.WriteJSON(Command{Action: "choose", Choice: 1}))
	res := readUntil(t, alice, EventResult)
	require.NotNil(t, res.Result)
	assert.True(t, res.Result.Accepted)

	require.NoError(t, bob.WriteJSON(Command{Action: "choose", Choice: 1}))
	res = readUntil(t, bob, EventResult)
	assert.False(t, res.Result.Accepted)
	assert.Contains(t, res.Result.Reason, "color already taken")

	require.NoError(t, bob.WriteJSON(Command{Action: "choose", Choice: 2}))
	res = readUntil(t, bob, EventResult)
	assert.True(t, res.Result.Accepted)

	require.NoError(t, alice.WriteJSON(Command{Action: "move", X: intp(9), Y: intp(9)}))
	res = readUntil(t, alice, EventResult)
	require.True(t, res.Result.Accepted)
	assert.Equal(t, engine.Player1, res.Result.State.Board[9][9])

	// bob sees the stone as a state update
	for {
		msg := readUntil(t, bob, EventStateUpdate)
		if msg.State.Board[9][9] == engine.Player1 {
			assert.Equal(t, engine.Player2, msg.State.CurrentPlayer)
			break
		}
	}
}

func TestObserverCannotMove(t *testing.T) {
	srv, _, _ := newTestServer(t, Options{})
	conn := dial(t, srv, "")
	readMessage(t, conn)

	require.NoError(t, conn.WriteJSON(Command{Action: "move", X: intp(1), Y: intp(1)}))
	msg := readUntil(t, conn, EventError)
	assert.Contains(t, msg.Error, "playerId")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	msg = readUntil(t, conn, EventError)
	assert.Equal(t, "invalid message", msg.Error)

	require.NoError(t, conn.WriteJSON(Command{Action: "state"}))
	msg = readUntil(t, conn, EventStateUpdate)
	assert.NotNil(t, msg.State)
}

func TestMoveWithoutCoordinates(t *testing.T) {
	srv, svc, _ := newTestServer(t, Options{})
	ctx := context.Background()
	_, _ = svc.ChooseColor(ctx, "alice", 1)
	_, _ = svc.ChooseColor(ctx, "bob", 2)

	conn := dial(t, srv, "?playerId=alice")
	readMessage(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"move"}`)))
	msg := readUntil(t, conn, EventError)
	assert.Equal(t, "x and y are required", msg.Error)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"move","x":3}`)))
	msg = readUntil(t, conn, EventError)
	assert.Equal(t, "x and y are required", msg.Error)

	state, err := svc.GetState(ctx)
	require.NoError(t, err)
	assert.Equal(t, engine.Empty, state.Board[0][0])
	assert.Equal(t, engine.Empty, state.Board[3][0])
	assert.Equal(t, engine.Player1, state.CurrentPlayer)

	// an explicit origin is a real move
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"move","x":0,"y":0}`)))
	res := readUntil(t, conn, EventResult)
	require.True(t, res.Result.Accepted)
	assert.Equal(t, engine.Player1, res.Result.State.Board[0][0])
}

func TestResetReplyCarriesState(t *testing.T) {
	srv, svc, _ := newTestServer(t, Options{})
	ctx := context.Background()
	_, _ = svc.ChooseColor(ctx, "alice", 1)
	_, _ = svc.ChooseColor(ctx, "bob", 2)
	_, _ = svc.MakeMove(ctx, "alice", 9, 9)

	conn := dial(t, srv, "")
	readMessage(t, conn)

	require.NoError(t, conn.WriteJSON(Command{Action: "reset"}))
	res := readUntil(t, conn, EventResult)
	require.True(t, res.Result.Accepted)
	require.NotNil(t, res.Result.State)
	assert.Equal(t, engine.StatusNotStarted, res.Result.State.Status)
	assert.Equal(t, engine.Empty, res.Result.State.Board[9][9])
	assert.Equal(t, uint64(4), res.Result.State.Version)
}

func TestDisconnectRemovesSubscription(t *testing.T) {
	srv, _, h := newTestServer(t, Options{})
	conn := dial(t, srv, "")
	readMessage(t, conn)
	require.Equal(t, 1, h.Count())

	conn.Close()
	assert.Eventually(t, func() bool { return h.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestSubscriptionTimeoutClosesConnection(t *testing.T) {
	srv, _, h := newTestServer(t, Options{Timeout: 100 * time.Millisecond})
	conn := dial(t, srv, "")
	readMessage(t, conn)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNoStatusReceived, websocket.CloseNormalClosure) ||
		strings.Contains(err.Error(), "close"), "unexpected error: %v", err)
	assert.Eventually(t, func() bool { return h.Count() == 0 }, time.Second, 10*time.Millisecond)
}
