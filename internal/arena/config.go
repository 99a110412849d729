package arena

import "github.com/xyproto/env/v2"

// Tunables, overridable by environment so the same binary can be run
// under a tighter or looser memory budget without a rebuild.
var (
	// DefaultBlockSize is carried in Config and reported by
	// CurrentConfig. Arena creation does not read it: a new arena's
	// handle table starts empty and grows one slot at a time.
	DefaultBlockSize = env.Int("SDC_ARENA_BLOCK_SIZE", 256)

	// SparseThreshold is the allocation size, in bytes, at or above which a
	// slot is backed by an anonymous mmap region instead of a Go heap
	// slice — large scratch buffers (parser token arrays, string
	// builders) skip the garbage collector entirely.
	SparseThreshold = env.Int("SDC_ARENA_SPARSE_THRESHOLD", 64*1024)

	// DestroyTimeoutMS bounds how long Destroy waits for outstanding
	// pins on a shared arena to drain before it gives up and reports
	// ErrPinsOutstanding.
	DestroyTimeoutMS = env.Int("SDC_ARENA_DESTROY_TIMEOUT_MS", 2000)
)

// Config snapshots the environment-tunable knobs above for a caller that
// wants to read or override them as a single value rather than through
// the package-level vars directly.
type Config struct {
	BlockSize       int
	SparseThreshold int
	DestroyTimeout  int
}

// CurrentConfig returns the tunables currently in effect.
func CurrentConfig() Config {
	return Config{
		BlockSize:       DefaultBlockSize,
		SparseThreshold: SparseThreshold,
		DestroyTimeout:  DestroyTimeoutMS,
	}
}

// Apply overwrites the package-level tunables from cfg, for callers that
// resolved a Config once (e.g. from flags) and want every subsequently
// created arena to see it.
func (cfg Config) Apply() {
	DefaultBlockSize = cfg.BlockSize
	SparseThreshold = cfg.SparseThreshold
	DestroyTimeoutMS = cfg.DestroyTimeout
}
