package arena

import "github.com/timandy/routine"

// defaultArenas gives every goroutine its own root arena, the target for
// top-level allocations that were never written inside an explicit
// `arena { ... }` block. Grounded on the goroutine-local-storage idiom
// the pack's debug logger uses routine.Goid() for, lifted here from
// merely tagging log lines to actually partitioning state per goroutine.
var defaultArenas = routine.NewThreadLocalWithInitial(func() any {
	return Create()
})

// Default returns the calling goroutine's default arena, creating it on
// first use.
func Default() *Arena {
	return defaultArenas.Get().(*Arena)
}

// ResetDefault destroys and replaces the calling goroutine's default
// arena. Used between independent top-level compilations run in the
// same worker goroutine (e.g. a long-lived build-server process).
func ResetDefault() {
	if a, ok := defaultArenas.Get().(*Arena); ok {
		a.Destroy()
	}
	defaultArenas.Set(Create())
}
