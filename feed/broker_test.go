package feed

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func receive(t *testing.T, sub *Subscription) Change {
	t.Helper()
	select {
	case c, ok := <-sub.C():
		require.True(t, ok, "channel closed unexpectedly")
		return c
	case <-time.After(time.Second):
		t.Fatal("no change received")
		return Change{}
	}
}

func assertEmpty(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case c := <-sub.C():
		t.Fatalf("unexpected change: %+v", c)
	default:
	}
}

func TestFilter_Matches(t *testing.T) {
	c := Change{
		Table: TableDirectMessages,
		Op:    OpInsert,
		Row:   map[string]string{"receiver_id": "u1", "sender_id": "u2"},
	}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"table only", Filter{Table: TableDirectMessages}, true},
		{"other table", Filter{Table: TableGroupMessages}, false},
		{"matching op", Filter{Table: TableDirectMessages, Ops: []Op{OpUpdate, OpInsert}}, true},
		{"non matching op", Filter{Table: TableDirectMessages, Ops: []Op{OpUpdate}}, false},
		{"matching column", Filter{Table: TableDirectMessages, Column: "receiver_id", Value: "u1"}, true},
		{"other value", Filter{Table: TableDirectMessages, Column: "receiver_id", Value: "u2"}, false},
		{"missing column", Filter{Table: TableDirectMessages, Column: "group_id", Value: "g1"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(c))
		})
	}
}

func TestBroker_DeliversToMatchingSubscribers(t *testing.T) {
	b := NewBroker(8, nil)
	defer b.Close()

	mine, err := b.Subscribe(Filter{Table: TableDirectMessages, Column: "receiver_id", Value: "u1"})
	require.NoError(t, err)
	other, err := b.Subscribe(Filter{Table: TableDirectMessages, Column: "receiver_id", Value: "u2"})
	require.NoError(t, err)

	b.Publish(Change{Table: TableDirectMessages, Op: OpInsert, Row: map[string]string{"receiver_id": "u1"}})

	got := receive(t, mine)
	assert.Equal(t, int64(1), got.Seq)
	assert.False(t, got.At.IsZero())
	assertEmpty(t, other)
}

func TestBroker_UnsubscribeClosesChannel(t *testing.T) {
	b := NewBroker(8, nil)
	defer b.Close()

	sub, err := b.Subscribe(Filter{Table: TableGroupMessages})
	require.NoError(t, err)
	require.Equal(t, 1, b.Len())

	sub.Unsubscribe()
	sub.Unsubscribe() // idempotent

	_, ok := <-sub.C()
	assert.False(t, ok)
	assert.Equal(t, 0, b.Len())

	// Kapalı aboneliğe yayın panic etmemeli
	b.Publish(Change{Table: TableGroupMessages, Op: OpInsert})
}

func TestBroker_FullBufferDropsWithoutBlocking(t *testing.T) {
	b := NewBroker(2, nil)
	defer b.Close()

	sub, err := b.Subscribe(Filter{Table: TableGroupMessages})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 5; i++ {
			b.Publish(Change{Table: TableGroupMessages, Op: OpInsert})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	assert.Equal(t, int64(3), sub.Dropped())
	assert.Equal(t, int64(1), receive(t, sub).Seq)
	assert.Equal(t, int64(2), receive(t, sub).Seq)
}

func TestBroker_Close(t *testing.T) {
	b := NewBroker(8, nil)

	sub, err := b.Subscribe(Filter{Table: TableGroupReads})
	require.NoError(t, err)

	b.Close()
	b.Close()

	_, ok := <-sub.C()
	assert.False(t, ok)
	sub.Unsubscribe() // Close sonrası güvenli

	_, err = b.Subscribe(Filter{Table: TableGroupReads})
	assert.ErrorIs(t, err, ErrClosed)

	b.Publish(Change{Table: TableGroupReads}) // no-op
}

func TestBroker_SubscribeValidatesFilter(t *testing.T) {
	b := NewBroker(8, nil)
	defer b.Close()

	_, err := b.Subscribe(Filter{})
	assert.Error(t, err)
}

func TestBroker_ConcurrentPublishAndUnsubscribe(t *testing.T) {
	b := NewBroker(1, nil)
	defer b.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		sub, err := b.Subscribe(Filter{Table: TableDirectMessages})
		require.NoError(t, err)

		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				b.Publish(Change{Table: TableDirectMessages, Op: OpInsert})
			}
		}()
		go func() {
			defer wg.Done()
			sub.Unsubscribe()
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, b.Len())
}
