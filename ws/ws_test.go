package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/akinalp/unread/models"
	"github.com/akinalp/unread/pkg"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeValidator struct{}

func (fakeValidator) ValidateAccessToken(token string) (*models.TokenClaims, error) {
	if !strings.HasPrefix(token, "ok-") {
		return nil, fmt.Errorf("%w: invalid token", pkg.ErrUnauthorized)
	}
	return &models.TokenClaims{UserID: strings.TrimPrefix(token, "ok-")}, nil
}

type fakeTracker struct {
	mu          sync.Mutex
	connects    int
	disconnects int
	count       int
	limited     bool
	connectErr  error
}

func (f *fakeTracker) Connect(ctx context.Context, userID string) (models.UnreadCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connectErr != nil {
		return models.UnreadCount{}, f.connectErr
	}
	f.connects++
	return models.UnreadCount{Count: f.count, Seq: 1}, nil
}

func (f *fakeTracker) Disconnect(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
}

func (f *fakeTracker) Refresh(ctx context.Context, userID string) (models.UnreadCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.limited {
		return models.UnreadCount{}, pkg.ErrTooManyRequests
	}
	f.count++
	return models.UnreadCount{Count: f.count, Seq: 2}, nil
}

func (f *fakeTracker) disconnected() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disconnects
}

type wsEnv struct {
	hub     *Hub
	tracker *fakeTracker
	server  *httptest.Server
}

func newWSEnv(t *testing.T) *wsEnv {
	t.Helper()
	hub := NewHub(nil)
	go hub.Run()

	tracker := &fakeTracker{count: 4}
	h := NewHandler(hub, fakeValidator{}, tracker, nil, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", h.HandleConnection)
	server := httptest.NewServer(mux)

	t.Cleanup(func() {
		hub.Shutdown()
		server.Close()
	})
	return &wsEnv{hub: hub, tracker: tracker, server: server}
}

func (e *wsEnv) dial(t *testing.T, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/ws?token=" + token
	return websocket.DefaultDialer.Dial(url, nil)
}

type inbound struct {
	Op   string          `json:"op"`
	Data json.RawMessage `json:"d"`
	Seq  int64           `json:"seq"`
}

func readEvent(t *testing.T, conn *websocket.Conn) inbound {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev inbound
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestHandler_RejectsBadToken(t *testing.T) {
	env := newWSEnv(t)

	_, resp, err := env.dial(t, "bad")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandler_ReadyHeartbeatAndRefresh(t *testing.T) {
	env := newWSEnv(t)

	conn, _, err := env.dial(t, "ok-alice")
	require.NoError(t, err)
	defer conn.Close()

	ready := readEvent(t, conn)
	require.Equal(t, OpReady, ready.Op)
	var data ReadyData
	require.NoError(t, json.Unmarshal(ready.Data, &data))
	assert.Equal(t, "alice", data.UserID)
	assert.Equal(t, 4, data.Unread.Count)

	require.NoError(t, conn.WriteJSON(Event{Op: OpHeartbeat}))
	assert.Equal(t, OpHeartbeatAck, readEvent(t, conn).Op)

	require.NoError(t, conn.WriteJSON(Event{Op: OpUnreadRefresh}))
	update := readEvent(t, conn)
	require.Equal(t, OpUnreadUpdate, update.Op)
	var count models.UnreadCount
	require.NoError(t, json.Unmarshal(update.Data, &count))
	assert.Equal(t, 5, count.Count)
	assert.Greater(t, update.Seq, ready.Seq)
}

func TestHub_BroadcastToUserReachesAllConnections(t *testing.T) {
	env := newWSEnv(t)

	a1, _, err := env.dial(t, "ok-alice")
	require.NoError(t, err)
	defer a1.Close()
	a2, _, err := env.dial(t, "ok-alice")
	require.NoError(t, err)
	defer a2.Close()
	bob, _, err := env.dial(t, "ok-bob")
	require.NoError(t, err)
	defer bob.Close()

	for _, c := range []*websocket.Conn{a1, a2, bob} {
		require.Equal(t, OpReady, readEvent(t, c).Op)
	}
	assert.Equal(t, 2, env.hub.ConnectionCount("alice"))
	assert.ElementsMatch(t, []string{"alice", "bob"}, env.hub.GetOnlineUserIDs())

	env.hub.BroadcastToUser("alice", Event{Op: OpUnreadUpdate, Data: models.UnreadCount{Count: 9}})

	for _, c := range []*websocket.Conn{a1, a2} {
		ev := readEvent(t, c)
		assert.Equal(t, OpUnreadUpdate, ev.Op)
	}

	// bob'a hiçbir şey gitmemeli
	require.NoError(t, bob.SetReadDeadline(time.Now().Add(50*time.Millisecond)))
	_, _, err = bob.ReadMessage()
	assert.Error(t, err)
}

func TestHandler_DisconnectReleasesSession(t *testing.T) {
	env := newWSEnv(t)

	conn, _, err := env.dial(t, "ok-alice")
	require.NoError(t, err)
	require.Equal(t, OpReady, readEvent(t, conn).Op)

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool { return env.tracker.disconnected() == 1 }, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return env.hub.ConnectionCount("alice") == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestHandler_RateLimitedRefreshIgnored(t *testing.T) {
	env := newWSEnv(t)
	env.tracker.mu.Lock()
	env.tracker.limited = true
	env.tracker.mu.Unlock()

	conn, _, err := env.dial(t, "ok-alice")
	require.NoError(t, err)
	defer conn.Close()
	require.Equal(t, OpReady, readEvent(t, conn).Op)

	require.NoError(t, conn.WriteJSON(Event{Op: OpUnreadRefresh}))
	require.NoError(t, conn.WriteJSON(Event{Op: OpHeartbeat}))
	assert.Equal(t, OpHeartbeatAck, readEvent(t, conn).Op)
}

func TestHandler_ConnectFailureStillReady(t *testing.T) {
	env := newWSEnv(t)
	env.tracker.mu.Lock()
	env.tracker.connectErr = fmt.Errorf("feed closed")
	env.tracker.mu.Unlock()

	conn, _, err := env.dial(t, "ok-alice")
	require.NoError(t, err)
	defer conn.Close()

	ready := readEvent(t, conn)
	require.Equal(t, OpReady, ready.Op)
	var data ReadyData
	require.NoError(t, json.Unmarshal(ready.Data, &data))
	assert.Equal(t, 0, data.Unread.Count)

	require.NoError(t, conn.Close())
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, env.tracker.disconnected())
}

func TestHub_ShutdownClosesConnections(t *testing.T) {
	env := newWSEnv(t)

	conn, _, err := env.dial(t, "ok-alice")
	require.NoError(t, err)
	defer conn.Close()
	require.Equal(t, OpReady, readEvent(t, conn).Op)

	env.hub.Shutdown()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}
