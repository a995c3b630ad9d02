package rowdb

import "rowdb/internal/bitset"

// Result is the outcome of a successful Query.Execute: an immutable view
// over the rows whose bit is set. It borrows its DB's row vector; see the
// DB lifetime contract in db.go.
type Result[T any] struct {
	db   *DB[T]
	bits bitset.BitSet
}

// CountOnes returns the number of matching rows.
func (r *Result[T]) CountOnes() int {
	return r.bits.CountOnes()
}

// First returns the lowest-indexed matching row.
func (r *Result[T]) First() (*T, bool) {
	var row *T
	r.bits.IterOnes(func(i int) bool {
		row = &r.db.rows[i]
		return false
	})
	if row == nil {
		return nil, false
	}
	return row, true
}

// Any picks a uniformly random matching row. intn is called with the match
// count and must return a value in [0, n); callers typically pass
// rand.IntN bound to a *rand.Rand, or math/rand/v2's package-level IntN,
// as the "host-provided uniform integer generator" of distilled spec §4.4.
// Drawing from [0, CountOnes()) rather than [0, len(rows)) avoids biasing
// toward runs of consecutive matches.
func (r *Result[T]) Any(intn func(n int) int) (*T, bool) {
	count := r.bits.CountOnes()
	if count == 0 {
		return nil, false
	}
	target := intn(count)

	var row *T
	seen := 0
	r.bits.IterOnes(func(i int) bool {
		if seen == target {
			row = &r.db.rows[i]
			return false
		}
		seen++
		return true
	})
	return row, row != nil
}

// Iter returns a range-over-func iterator yielding every matching row in
// ascending index order.
func (r *Result[T]) Iter() func(yield func(*T) bool) {
	return func(yield func(*T) bool) {
		r.bits.IterOnes(func(i int) bool {
			return yield(&r.db.rows[i])
		})
	}
}

// Filter narrows the result to rows additionally satisfying pred, returning
// a new Result and leaving r unmodified. It reports false (and a nil
// Result) if no row satisfies pred, mirroring Query.Execute's
// Some(Result)/None shape (distilled spec §4.4).
func (r *Result[T]) Filter(pred func(*T) bool) (*Result[T], bool) {
	narrowed := r.bits.Clone()
	r.bits.IterOnes(func(i int) bool {
		if !pred(&r.db.rows[i]) {
			narrowed.Set(i, false)
		}
		return true
	})
	if !narrowed.Any() {
		return nil, false
	}
	return &Result[T]{db: r.db, bits: narrowed}, true
}
