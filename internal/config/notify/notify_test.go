package notify

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	n := New()
	require.NotNil(t, n)
	defer n.Close()
	assert.False(t, n.async)
}

func TestNew_WithAsync(t *testing.T) {
	n := New(WithAsync(100))
	defer n.Close()
	assert.True(t, n.async)
}

func TestChangeType_String(t *testing.T) {
	tests := []struct {
		ct   ChangeType
		want string
	}{
		{ChangeSet, "set"},
		{ChangeCreate, "create"},
		{ChangeReload, "reload"},
		{ChangeType(99), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.ct.String())
	}
}

func TestChange_Path(t *testing.T) {
	assert.Equal(t, "service.port", Change{Namespace: "service", Key: "port"}.Path())
	assert.Equal(t, "port", Change{Key: "port"}.Path())
	assert.Equal(t, "service", Change{Namespace: "service"}.Path())
	assert.Equal(t, "", Change{}.Path())
}

func TestNotifier_Subscribe(t *testing.T) {
	n := New()
	defer n.Close()

	var received atomic.Bool
	sub := n.Subscribe(func(change Change) {
		received.Store(true)
	})

	n.NotifySet("", "debug", nil, true, "set")
	assert.True(t, received.Load())

	sub.Unsubscribe()
	received.Store(false)
	n.NotifySet("", "debug", true, false, "set")
	assert.False(t, received.Load(), "unsubscribed observer received notification")

	// Unsubscribing twice is harmless.
	sub.Unsubscribe()
}

func TestNotifier_SubscribePath(t *testing.T) {
	n := New()
	defer n.Close()

	var service, database, portKey, everything atomic.Int32

	n.SubscribePath("service", func(Change) { service.Add(1) })
	n.SubscribePath("service.database", func(Change) { database.Add(1) })
	n.SubscribePath("service.port", func(Change) { portKey.Add(1) })
	n.SubscribePath("", func(Change) { everything.Add(1) })

	n.NotifySet("service", "port", nil, 8080, "load")
	n.NotifySet("service.database", "host", nil, "db", "load")
	n.NotifyCreate("servicex")
	n.NotifySet("", "debug", nil, true, "set")

	assert.EqualValues(t, 2, service.Load())
	assert.EqualValues(t, 1, database.Load())
	assert.EqualValues(t, 1, portKey.Load())
	assert.EqualValues(t, 4, everything.Load())
}

func TestNotifier_NotifySet(t *testing.T) {
	n := New()
	defer n.Close()

	var got Change
	n.Subscribe(func(change Change) { got = change })

	n.NotifySet("service", "port", 80, 8080, "load")

	assert.Equal(t, "service", got.Namespace)
	assert.Equal(t, "port", got.Key)
	assert.Equal(t, ChangeSet, got.Type)
	assert.Equal(t, 80, got.OldValue)
	assert.Equal(t, 8080, got.NewValue)
	assert.Equal(t, "load", got.Source)
}

func TestNotifier_NotifyCreateAndReload(t *testing.T) {
	n := New()
	defer n.Close()

	var got []Change
	n.SubscribePath("a", func(change Change) { got = append(got, change) })

	n.NotifyCreate("a.b")
	n.NotifyReload("a", "/etc/app/*.json")

	require.Len(t, got, 2)
	assert.Equal(t, ChangeCreate, got[0].Type)
	assert.Equal(t, "a.b", got[0].Namespace)
	assert.Equal(t, ChangeReload, got[1].Type)
	assert.Equal(t, "/etc/app/*.json", got[1].Source)
}

func TestNotifier_Async(t *testing.T) {
	n := New(WithAsync(100))
	defer n.Close()

	received := make(chan Change, 1)
	n.Subscribe(func(change Change) { received <- change })

	n.NotifySet("", "k", nil, 1, "set")

	select {
	case change := <-received:
		assert.Equal(t, "k", change.Key)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for async notification")
	}
}

func TestNotifier_AsyncDrainsOnClose(t *testing.T) {
	n := New(WithAsync(10))

	var count atomic.Int32
	n.Subscribe(func(Change) { count.Add(1) })

	for i := 0; i < 5; i++ {
		n.NotifySet("", "k", nil, i, "set")
	}
	n.Close()

	assert.EqualValues(t, 5, count.Load())
}

func TestBatch(t *testing.T) {
	n := New()
	defer n.Close()

	var mu sync.Mutex
	var changes []Change
	n.Subscribe(func(change Change) {
		mu.Lock()
		changes = append(changes, change)
		mu.Unlock()
	})

	batch := n.NewBatch()
	batch.Set("x", "a", nil, 1, "load")
	batch.Set("x", "b", nil, 2, "load")
	batch.Add(Change{Namespace: "x", Type: ChangeReload})
	assert.Equal(t, 3, batch.Len())

	mu.Lock()
	assert.Empty(t, changes, "changes sent before Commit")
	mu.Unlock()

	batch.Commit()

	mu.Lock()
	assert.Len(t, changes, 3)
	mu.Unlock()
	assert.Equal(t, 0, batch.Len())
}

func TestBatch_Discard(t *testing.T) {
	n := New()
	defer n.Close()

	var count atomic.Int32
	n.Subscribe(func(Change) { count.Add(1) })

	batch := n.NewBatch()
	batch.Set("", "a", nil, 1, "set")
	batch.Discard()
	batch.Commit()

	assert.Equal(t, 0, batch.Len())
	assert.EqualValues(t, 0, count.Load())
}

func TestCovers(t *testing.T) {
	tests := []struct {
		prefix    string
		namespace string
		want      bool
	}{
		{"service", "service", true},
		{"service", "service.database", true},
		{"service", "service.database.pool", true},
		{"", "service", true},
		{"", "", true},
		{"service", "", false},
		{"service", "services", false},
		{"service.db", "service.database", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, covers(tt.prefix, tt.namespace), "covers(%q, %q)", tt.prefix, tt.namespace)
	}
}

func TestNotifier_ConcurrentAccess(t *testing.T) {
	n := New()
	defer n.Close()

	var count atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n.Subscribe(func(Change) { count.Add(1) })
		}()
	}
	wg.Wait()

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			n.NotifySet("", "k", nil, i, "set")
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 100, count.Load())
}

func TestNotifier_CloseIdempotent(t *testing.T) {
	for _, n := range []*Notifier{New(), New(WithAsync(10))} {
		n.Close()
		n.Close()
		// Notify after close must neither panic nor block.
		n.NotifySet("", "k", nil, 1, "set")
	}
}

func TestNotifier_DeliveryOrder(t *testing.T) {
	n := New()
	defer n.Close()

	var order []string
	n.SubscribePath("svc", func(Change) { order = append(order, "path") })
	n.Subscribe(func(Change) { order = append(order, "all") })
	sub := n.SubscribePath("svc.port", func(Change) { order = append(order, "item") })

	n.NotifySet("svc", "port", nil, 1, "set")
	assert.Equal(t, []string{"path", "all", "item"}, order)

	sub.Unsubscribe()
	order = nil
	n.NotifySet("svc", "port", 1, 2, "set")
	assert.Equal(t, []string{"path", "all"}, order)
}
