package arena

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestGCFlushTreeSweepsAllDescendants(t *testing.T) {
	root := Create()
	defer root.Destroy()

	var kids []*Arena
	for i := 0; i < 4; i++ {
		c := CreateChild(root)
		c.Strdup(Null, "payload")
		kids = append(kids, c)
	}

	require.NoError(t, root.GCFlushTree())
	for _, c := range kids {
		require.Equal(t, 1, c.LiveCount())
	}
}

// TestConcurrentPinUnpinCompactUnderErrgroup spawns one worker per child
// arena pinning, unpinning, and compacting concurrently, matching the
// shape of spec.md's §8 scenario 3 — workers share no arena state across
// goroutines, so errgroup.Group only needs to surface the first error.
func TestConcurrentPinUnpinCompactUnderErrgroup(t *testing.T) {
	root := Create()
	defer root.Destroy()

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		child := CreateChild(root)
		g.Go(func() error {
			h := child.Strdup(Null, "worker payload")
			buf := child.Pin(h)
			if string(buf) != "worker payload" {
				return fmt.Errorf("arena %p: pin returned unexpected payload", child)
			}
			child.Unpin(h)
			child.Compact()
			return nil
		})
	}
	require.NoError(t, g.Wait())
}
