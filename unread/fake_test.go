package unread

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

var errBoom = errors.New("boom")

type fakeMsg struct {
	sender string
	at     time.Time
}

// fakeSource, tüm kaynak interface'lerini bellek içi veriyle karşılar.
// TotalUnread aynı veriden hesaplanır: fast path ve fallback aynı sonucu vermeli.
type fakeSource struct {
	mu      sync.Mutex
	dms     map[string]int
	members map[string][]string
	markers map[string]time.Time
	msgs    map[string][]fakeMsg

	aggErr    error
	directErr error
	groupErr  error
	delay     time.Duration

	aggCalls    atomic.Int32
	directCalls atomic.Int32
	inflight    atomic.Int32
	maxInflight atomic.Int32
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		dms:     make(map[string]int),
		members: make(map[string][]string),
		markers: make(map[string]time.Time),
		msgs:    make(map[string][]fakeMsg),
	}
}

func markerKey(groupID, userID string) string { return groupID + "/" + userID }

func (f *fakeSource) sources() Sources {
	return Sources{
		Aggregate:     f,
		Direct:        f,
		Groups:        f,
		Markers:       f,
		GroupMessages: f,
	}
}

func (f *fakeSource) setDMs(user string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dms[user] = n
}

func (f *fakeSource) join(user string, groups ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[user] = append(f.members[user], groups...)
}

func (f *fakeSource) leave(user, group string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.members[user][:0]
	for _, g := range f.members[user] {
		if g != group {
			kept = append(kept, g)
		}
	}
	f.members[user] = kept
}

func (f *fakeSource) mark(group, user string, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markers[markerKey(group, user)] = at
}

func (f *fakeSource) post(group, sender string, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs[group] = append(f.msgs[group], fakeMsg{sender: sender, at: at})
}

func (f *fakeSource) setAggErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aggErr = err
}

func (f *fakeSource) setDirectErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.directErr = err
}

func (f *fakeSource) TotalUnread(ctx context.Context, userID string) (int, error) {
	f.aggCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.aggErr != nil {
		return 0, f.aggErr
	}
	total := f.dms[userID]
	for _, g := range f.members[userID] {
		since, ok := f.markers[markerKey(g, userID)]
		if !ok {
			continue
		}
		total += f.countLocked(g, since, userID)
	}
	return total, nil
}

func (f *fakeSource) CountUnreadDirect(ctx context.Context, receiverID string) (int, error) {
	f.directCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.directErr != nil {
		return 0, f.directErr
	}
	return f.dms[receiverID], nil
}

func (f *fakeSource) ListUserGroupIDs(ctx context.Context, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := append([]string(nil), f.members[userID]...)
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeSource) Get(ctx context.Context, groupID, userID string) (time.Time, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	at, ok := f.markers[markerKey(groupID, userID)]
	return at, ok, nil
}

func (f *fakeSource) CountGroupMessagesSince(ctx context.Context, groupID string, since time.Time, excludeSenderID string) (int, error) {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		cur := f.maxInflight.Load()
		if n <= cur || f.maxInflight.CompareAndSwap(cur, n) {
			break
		}
	}

	f.mu.Lock()
	delay, groupErr := f.delay, f.groupErr
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	if groupErr != nil {
		return 0, groupErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.countLocked(groupID, since, excludeSenderID), nil
}

func (f *fakeSource) countLocked(groupID string, since time.Time, exclude string) int {
	n := 0
	for _, m := range f.msgs[groupID] {
		if m.sender != exclude && m.at.After(since) {
			n++
		}
	}
	return n
}
