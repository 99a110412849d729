package arena

import "golang.org/x/sync/errgroup"

// backgroundCleaner sweeps an arena tree's dead entries concurrently: one
// worker per arena, fanned out under a single errgroup.Group so a caller
// managing many independent subtrees (e.g. one per in-flight request) can
// reclaim all of them in one call instead of walking the tree serially.
// Sibling subtrees touch disjoint arenas, so there is nothing for the
// workers to coordinate beyond reporting the first error back.
type backgroundCleaner struct {
	root *Arena
}

func newBackgroundCleaner(root *Arena) *backgroundCleaner {
	return &backgroundCleaner{root: root}
}

// sweep runs GCFlush on every arena in the tree rooted at c.root and waits
// for all of them to finish.
func (c *backgroundCleaner) sweep() error {
	var g errgroup.Group
	sweepSubtree(c.root, &g)
	return g.Wait()
}

// GCFlushTree is the exported entry point to a backgroundCleaner's sweep,
// kept as a method on Arena so callers don't need to know the cleaner
// type exists.
func (a *Arena) GCFlushTree() error {
	return newBackgroundCleaner(a).sweep()
}

func sweepSubtree(a *Arena, g *errgroup.Group) {
	a.mu.Lock()
	kids := make([]*Arena, 0, len(a.children))
	for c := range a.children {
		kids = append(kids, c)
	}
	a.mu.Unlock()

	g.Go(func() error {
		a.GCFlush()
		return nil
	})
	for _, c := range kids {
		sweepSubtree(c, g)
	}
}
