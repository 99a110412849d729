package arena

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStrdupRoundTrip(t *testing.T) {
	ma := Create()
	defer ma.Destroy()

	h := ma.Strdup(Null, "hello world")
	require.False(t, h.IsNull())

	buf := ma.Pin(h)
	require.Equal(t, "hello world", string(buf))
	ma.Unpin(h)
}

func TestStrdupReassignment(t *testing.T) {
	ma := Create()
	defer ma.Destroy()

	h := ma.Strdup(Null, "first")
	require.Equal(t, 1, ma.LiveCount())

	h = ma.Strdup(h, "second")
	require.Equal(t, 1, ma.LiveCount())
	require.Equal(t, 1, ma.DeadCount())

	buf := ma.Pin(h)
	require.Equal(t, "second", string(buf))
	ma.Unpin(h)
}

func TestStrdupEmpty(t *testing.T) {
	ma := Create()
	defer ma.Destroy()

	h := ma.Strdup(Null, "")
	require.False(t, h.IsNull())
	buf := ma.Pin(h)
	require.Len(t, buf, 0)
	ma.Unpin(h)
}

func TestStrndupTruncates(t *testing.T) {
	ma := Create()
	defer ma.Destroy()

	h := ma.Strndup(Null, "hello world", 5)
	require.Equal(t, "hello", string(ma.Pin(h)))
	ma.Unpin(h)

	h2 := ma.Strndup(Null, "short", 100)
	require.Equal(t, "short", string(ma.Pin(h2)))
	ma.Unpin(h2)
}

func TestPromoteStringSurvivesChildDestroy(t *testing.T) {
	root := Create()
	defer root.Destroy()
	child := CreateChild(root)

	ch := child.Strdup(Null, "escape-me")
	rh := Promote(root, child, ch)
	require.False(t, rh.IsNull())

	require.NoError(t, DestroyChild(child))

	buf := root.Pin(rh)
	require.Equal(t, "escape-me", string(buf))
	root.Unpin(rh)
}

func TestCleanupOnDestroy(t *testing.T) {
	ma := Create()
	var count int
	ma.OnCleanup(&count, func(data any) {
		*data.(*int)++
	}, 50)
	ma.OnCleanup(&count, func(data any) {
		*data.(*int)++
	}, 50)
	ma.Destroy()
	require.Equal(t, 2, count)
}

func TestCleanupPriorityOrder(t *testing.T) {
	ma := Create()
	var order []int
	record := func(n int) CleanupFunc {
		return func(any) { order = append(order, n) }
	}
	ma.OnCleanup(nil, record(20), 50)
	ma.OnCleanup(nil, record(30), 100)
	ma.OnCleanup(nil, record(10), 0)
	ma.Destroy()
	require.Equal(t, []int{10, 20, 30}, order)
}

func TestCleanupPriorityOrderOnReset(t *testing.T) {
	ma := Create()
	defer ma.Destroy()
	var order []int
	record := func(n int) CleanupFunc {
		return func(any) { order = append(order, n) }
	}
	ma.OnCleanup(nil, record(20), 50)
	ma.OnCleanup(nil, record(30), 100)
	ma.OnCleanup(nil, record(10), 0)
	ma.Reset()
	require.Equal(t, []int{10, 20, 30}, order)

	// Reset must also clear the cleanup list the same way Destroy does,
	// so a cleanup registered before Reset does not fire a second time
	// when the arena is later destroyed.
	ma.Destroy()
	require.Equal(t, []int{10, 20, 30}, order)
}

func TestCleanupOnChildDestroy(t *testing.T) {
	root := Create()
	defer root.Destroy()
	child := CreateChild(root)

	var fired bool
	child.OnCleanup(nil, func(any) { fired = true }, 50)
	require.NoError(t, DestroyChild(child))
	require.True(t, fired)
}

func TestCleanupRemove(t *testing.T) {
	ma := Create()
	defer ma.Destroy()

	var a, b int
	ma.OnCleanup(&a, func(data any) { *data.(*int)++ }, 50)
	ma.OnCleanup(&b, func(data any) { *data.(*int)++ }, 50)
	ma.RemoveCleanup(&a)
	ma.Destroy()

	require.Equal(t, 0, a)
	require.Equal(t, 1, b)
}

func TestResetMarksAllDead(t *testing.T) {
	ma := Create()
	defer ma.Destroy()

	for i := 0; i < 10; i++ {
		h, buf := ma.AllocPinned(64)
		copy(buf, "entry")
		ma.Unpin(h)
	}
	require.Equal(t, 10, ma.LiveCount())

	ma.Reset()
	require.Equal(t, 0, ma.LiveCount())
}

func TestPinUnpin(t *testing.T) {
	ma := Create()
	defer ma.Destroy()

	h := ma.Alloc(Null, 64)
	buf := ma.Pin(h)
	require.NotNil(t, buf)
	require.Len(t, buf, 64)
	ma.Unpin(h)
}

func TestPinReadWritePersists(t *testing.T) {
	ma := Create()
	defer ma.Destroy()

	h := ma.Alloc(Null, 128)
	buf := ma.Pin(h)
	copy(buf, "Hello, Managed Arena!")
	ma.Unpin(h)

	buf = ma.Pin(h)
	require.Equal(t, "Hello, Managed Arena!", string(buf[:len("Hello, Managed Arena!")]))
	ma.Unpin(h)
}

func TestMultiplePinsSameHandle(t *testing.T) {
	ma := Create()
	defer ma.Destroy()

	h := ma.Alloc(Null, 32)
	p1 := ma.Pin(h)
	p2 := ma.Pin(h)
	require.Same(t, &p1[0], &p2[0])
	ma.Unpin(h)
	ma.Unpin(h)
}

func TestPinNullHandle(t *testing.T) {
	ma := Create()
	defer ma.Destroy()

	require.Nil(t, ma.Pin(Null))
	ma.Unpin(Null) // must not panic
}

func TestGCFlushReclaimsDead(t *testing.T) {
	ma := Create()
	defer ma.Destroy()

	h := Null
	for i := 0; i < 10; i++ {
		h = ma.Alloc(h, 64)
	}
	require.Equal(t, 9, ma.DeadCount())

	ma.GCFlush()
	require.Less(t, ma.DeadCount(), 9)
}

func TestGCFlushPreservesLive(t *testing.T) {
	ma := Create()
	defer ma.Destroy()

	handles := make([]Handle, 5)
	for i := range handles {
		h, buf := ma.AllocPinned(64)
		copy(buf, "live-data")
		ma.Unpin(h)
		handles[i] = h
	}

	ma.GCFlush()
	require.Equal(t, 5, ma.LiveCount())
	for _, h := range handles {
		buf := ma.Pin(h)
		require.Equal(t, "live-data", string(buf[:len("live-data")]))
		ma.Unpin(h)
	}
}

func TestGCFlushRespectsLeases(t *testing.T) {
	ma := Create()
	defer ma.Destroy()

	h1 := ma.Alloc(Null, 64)
	pinned := ma.Pin(h1)
	copy(pinned, "pinned-data")

	ma.Alloc(h1, 64) // reassignment marks h1 dead while still pinned

	ma.GCFlush()
	require.Equal(t, "pinned-data", string(pinned[:len("pinned-data")]))
	ma.Unpin(h1)
}

func TestCompactSkipsPinned(t *testing.T) {
	ma := Create()
	defer ma.Destroy()

	h1, p1 := ma.AllocPinned(64)
	copy(p1, "pinned-entry")

	h2, p2 := ma.AllocPinned(64)
	copy(p2, "unpinned-entry")
	ma.Unpin(h2)

	ma.Compact()
	require.Equal(t, "pinned-entry", string(p1[:len("pinned-entry")]))

	newP2 := ma.Pin(h2)
	require.Equal(t, "unpinned-entry", string(newP2[:len("unpinned-entry")]))
	ma.Unpin(h2)
	ma.Unpin(h1)
}

func TestHandleRecycling(t *testing.T) {
	ma := Create()
	defer ma.Destroy()

	h := Null
	for i := 0; i < 500; i++ {
		h = ma.Alloc(h, 32)
	}
	ma.GCFlush()
	require.Equal(t, 1, ma.LiveCount())
}

func TestHierarchyCreateChild(t *testing.T) {
	root := Create()
	defer root.Destroy()

	child := CreateChild(root)
	require.NotNil(t, child)
}

func TestHierarchyChildIndependentAlloc(t *testing.T) {
	root := Create()
	defer root.Destroy()
	child := CreateChild(root)

	rh := root.Strdup(Null, "root-data")
	ch := child.Strdup(Null, "child-data")

	require.Equal(t, 1, root.LiveCount())
	require.Equal(t, 1, child.LiveCount())

	require.Equal(t, "root-data", string(root.Pin(rh)))
	root.Unpin(rh)
	require.Equal(t, "child-data", string(child.Pin(ch)))
	child.Unpin(ch)
}

func TestHierarchyDestroyChildMarksDead(t *testing.T) {
	root := Create()
	defer root.Destroy()
	child := CreateChild(root)

	for i := 0; i < 5; i++ {
		child.Strdup(Null, "child-entry")
	}
	require.Equal(t, 5, child.LiveCount())

	rh := root.Strdup(Null, "root-survives")

	require.NoError(t, DestroyChild(child))

	require.Equal(t, 1, root.LiveCount())
	require.Equal(t, "root-survives", string(root.Pin(rh)))
	root.Unpin(rh)
}

func TestSharedArenaConcurrentAlloc(t *testing.T) {
	root := Create()
	defer root.Destroy()
	shared := CreateShared(root)
	require.True(t, shared.Shared())

	var wg sync.WaitGroup
	n := 64
	handles := make([]Handle, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			handles[i] = shared.Strdup(Null, "payload")
		}(i)
	}
	wg.Wait()

	require.Equal(t, n, shared.LiveCount())
	for _, h := range handles {
		require.False(t, h.IsNull())
	}
}

func TestDefaultArenaPerGoroutine(t *testing.T) {
	a1 := Default()
	a2 := Default()
	require.Same(t, a1, a2)

	var other *Arena
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		other = Default()
	}()
	wg.Wait()

	require.NotSame(t, a1, other)
}

func TestStatsTracksLiveDeadAndFragmentation(t *testing.T) {
	a := Create()
	defer a.Destroy()

	h1 := a.Alloc(Null, 10)
	a.Alloc(Null, 20)
	stats := a.Stats()
	require.Equal(t, int64(30), stats.LiveBytes)
	require.Equal(t, int64(0), stats.DeadBytes)
	require.Equal(t, 2, stats.LiveCount)
	require.Equal(t, int64(30), stats.TotalAllocated)
	require.Equal(t, 0.0, stats.Fragmentation)

	a.MarkDead(h1)
	stats = a.Stats()
	require.Equal(t, int64(20), stats.LiveBytes)
	require.Equal(t, int64(10), stats.DeadBytes)
	require.Equal(t, 1, stats.DeadCount)
	require.InDelta(t, 1.0/3.0, stats.Fragmentation, 0.001)
}
