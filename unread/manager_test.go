package unread

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_SharesSessionPerUser(t *testing.T) {
	env := newSessionEnv(t)
	seedScenario(env.src)
	m := NewManager(env.deps(), Options{}, nil)
	defer m.Close()

	a1, err := m.Acquire(context.Background(), "alice")
	require.NoError(t, err)
	a2, err := m.Acquire(context.Background(), "alice")
	require.NoError(t, err)
	assert.Same(t, a1, a2)
	assert.Equal(t, 1, m.Len())

	got, ok := m.Get("alice")
	require.True(t, ok)
	assert.Same(t, a1, got)
	assert.Equal(t, 5, got.Count())

	m.Release("alice")
	_, ok = m.Get("alice")
	assert.True(t, ok, "session stays while a reference remains")

	m.Release("alice")
	_, ok = m.Get("alice")
	assert.False(t, ok)
	assert.Equal(t, 0, a1.Count(), "last release resets the count")
	assert.Zero(t, env.broker.Len())
}

func TestManager_ConcurrentAcquire(t *testing.T) {
	env := newSessionEnv(t)
	seedScenario(env.src)
	m := NewManager(env.deps(), Options{}, nil)
	defer m.Close()

	const n = 8
	sessions := make([]*Session, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := m.Acquire(context.Background(), "alice")
			assert.NoError(t, err)
			sessions[i] = s
		}()
	}
	wg.Wait()

	for _, s := range sessions {
		assert.Same(t, sessions[0], s)
	}
	assert.Equal(t, 1, m.Len())
	// 3 kullanıcı aboneliği + 2 grup, tek session
	assert.Equal(t, 5, env.broker.Len())
}

func TestManager_ReleaseUnknownIsNoop(t *testing.T) {
	env := newSessionEnv(t)
	m := NewManager(env.deps(), Options{}, nil)
	defer m.Close()

	m.Release("nobody")
	assert.Zero(t, m.Len())
}

func TestManager_StartFailureNotCached(t *testing.T) {
	env := newSessionEnv(t)
	env.broker.Close()
	m := NewManager(env.deps(), Options{}, nil)
	defer m.Close()

	_, err := m.Acquire(context.Background(), "alice")
	require.Error(t, err)
	assert.Zero(t, m.Len())
}

func TestManager_CloseClosesAllSessions(t *testing.T) {
	env := newSessionEnv(t)
	seedScenario(env.src)
	env.src.setDMs("bob", 2)
	m := NewManager(env.deps(), Options{}, nil)

	alice, err := m.Acquire(context.Background(), "alice")
	require.NoError(t, err)
	bob, err := m.Acquire(context.Background(), "bob")
	require.NoError(t, err)
	require.Equal(t, 2, bob.Count())

	m.Close()
	assert.Equal(t, 0, alice.Count())
	assert.Equal(t, 0, bob.Count())
	assert.Zero(t, env.broker.Len())

	_, err = m.Acquire(context.Background(), "alice")
	assert.ErrorIs(t, err, ErrManagerClosed)
}

// heldComputer, hold numaralı çağrıyı release kapanana kadar bekletir;
// diğer çağrılar total'i hemen döner.
type heldComputer struct {
	total   int
	hold    int
	held    chan struct{}
	release chan struct{}

	mu    sync.Mutex
	calls int
}

func (h *heldComputer) Compute(ctx context.Context, userID string) (Result, error) {
	h.mu.Lock()
	h.calls++
	call := h.calls
	h.mu.Unlock()

	if call == h.hold {
		close(h.held)
		<-h.release
	}
	return Result{Total: h.total, Path: PathFast}, nil
}

func TestManager_ReconnectDuringReleaseKeepsLiveCount(t *testing.T) {
	env := newSessionEnv(t)
	seedScenario(env.src)

	hc := &heldComputer{total: 5, hold: 2, held: make(chan struct{}), release: make(chan struct{})}

	var (
		mu     sync.Mutex
		pushed []int
	)
	m := NewManager(Deps{Counter: hc, Groups: env.src, Feed: env.broker}, Options{
		OnChange: func(snap Snapshot) {
			mu.Lock()
			defer mu.Unlock()
			pushed = append(pushed, snap.Count)
		},
	}, nil)
	defer m.Close()

	old, err := m.Acquire(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, 5, old.Count())

	// Worker'daki yenileme Compute içinde asılı kalır, Close onu bekler.
	old.Refresh()
	<-hc.held

	released := make(chan struct{})
	go func() {
		m.Release("alice")
		close(released)
	}()
	require.Eventually(t, func() bool {
		_, ok := m.Get("alice")
		return !ok
	}, waitFor, tick)

	type acquired struct {
		session *Session
		err     error
	}
	reconnect := make(chan acquired, 1)
	go func() {
		s, err := m.Acquire(context.Background(), "alice")
		reconnect <- acquired{s, err}
	}()

	select {
	case <-reconnect:
		t.Fatal("reconnect must wait until the previous session is closed")
	case <-time.After(50 * time.Millisecond):
	}

	close(hc.release)
	<-released

	got := <-reconnect
	require.NoError(t, got.err)
	assert.NotSame(t, old, got.session)
	assert.Equal(t, 5, got.session.Count())
	assert.Equal(t, 0, old.Count())
	assert.Equal(t, 1, m.Len())

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, pushed)
	assert.Equal(t, got.session.Count(), pushed[len(pushed)-1], "last pushed count must match the live session")
	assert.Equal(t, []int{5, 0, 5}, pushed)
}

func TestManager_AcquireWaitingOnCloseHonoursContext(t *testing.T) {
	env := newSessionEnv(t)
	seedScenario(env.src)

	hc := &heldComputer{total: 5, hold: 2, held: make(chan struct{}), release: make(chan struct{})}
	m := NewManager(Deps{Counter: hc, Groups: env.src, Feed: env.broker}, Options{}, nil)
	defer m.Close()

	old, err := m.Acquire(context.Background(), "alice")
	require.NoError(t, err)
	old.Refresh()
	<-hc.held

	released := make(chan struct{})
	go func() {
		m.Release("alice")
		close(released)
	}()
	require.Eventually(t, func() bool {
		_, ok := m.Get("alice")
		return !ok
	}, waitFor, tick)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = m.Acquire(ctx, "alice")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(hc.release)
	<-released
	assert.Zero(t, m.Len())
}
