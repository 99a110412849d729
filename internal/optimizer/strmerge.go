package optimizer

import (
	"sync"

	"github.com/dolthub/maphash"
	"github.com/sindarin-lang/sdc/internal/ast"
)

// StringPool interns string literal content so the generator emits one
// read-only C string constant per distinct value and every duplicate
// literal references it, instead of materializing a fresh arena
// allocation at every occurrence. It buckets by maphash's fast string
// hash rather than using a plain Go map, since a typical program
// produces one pool per compilation and the same pool is consulted
// once per literal across every function.
type StringPool struct {
	mu      sync.Mutex
	hasher  maphash.Hasher[string]
	buckets map[uint64][]int
	values  []string
}

// NewStringPool creates an empty pool.
func NewStringPool() *StringPool {
	return &StringPool{
		hasher:  maphash.NewHasher[string](),
		buckets: make(map[uint64][]int),
	}
}

// Intern returns the stable index for s, reusing an existing entry if
// one with identical content was already interned.
func (p *StringPool) Intern(s string) (idx int, wasNew bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	h := p.hasher.Hash(s)
	for _, i := range p.buckets[h] {
		if p.values[i] == s {
			return i, false
		}
	}
	idx = len(p.values)
	p.values = append(p.values, s)
	p.buckets[h] = append(p.buckets[h], idx)
	return idx, true
}

// Values returns the interned strings in first-seen order, the order
// the generator emits them as C string constants.
func (p *StringPool) Values() []string {
	return p.values
}

// MergeStringLiterals interns every string literal reachable from
// stmts into pool, counting duplicates in stats (spec.md §4.3 pass 4).
// It does not rewrite the AST — LiteralExpr nodes keep their raw value
// — the pool is threaded to the generator so it can decide emit-once
// vs. reuse when lowering each literal.
func MergeStringLiterals(stmts []ast.Statement, pool *StringPool, stats *Stats) {
	WalkStmt(stmts, func(e ast.Expression) {
		lit, ok := e.(*ast.LiteralExpr)
		if !ok {
			return
		}
		s, ok := lit.Raw.(string)
		if !ok {
			return
		}
		if _, wasNew := pool.Intern(s); !wasNew {
			stats.StringLiteralsMerged++
		}
	}, nil)
}
