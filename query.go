package rowdb

import "rowdb/internal/bitset"

// Query accumulates per-field predicates against a DB and executes them as a
// single bitset intersection (distilled spec §4.4). A Query is reusable:
// Reset clears every slot without reallocating.
//
// Setter calls commute: the predicates a Query holds are a set, not a
// sequence, so Execute's result does not depend on call order (distilled
// spec Q5).
type Query[T any] struct {
	db *DB[T]

	boolWant []*bool
	mapWant  []mapWant
}

type mapWant struct {
	set   bool
	any   bool
	value any
}

func newQuery[T any](db *DB[T]) *Query[T] {
	return &Query[T]{
		db:       db,
		boolWant: make([]*bool, len(db.desc.BoolFilters)),
		mapWant:  make([]mapWant, len(db.desc.MapFilters)),
	}
}

// Reset clears every predicate slot and returns q for chaining.
func (q *Query[T]) Reset() *Query[T] {
	for i := range q.boolWant {
		q.boolWant[i] = nil
	}
	for i := range q.mapWant {
		q.mapWant[i] = mapWant{}
	}
	return q
}

// Bool constrains a BOOL_FILTER field to want. field must name a BOOL_FILTER
// field of T; an unknown name is a programmer error and panics.
func (q *Query[T]) Bool(field string, want bool) *Query[T] {
	for i, bf := range q.db.desc.BoolFilters {
		if bf.Name == field {
			w := want
			q.boolWant[i] = &w
			return q
		}
	}
	panic("rowdb: no such bool filter field " + field)
}

// Map constrains a MAP_FILTER field to value. If field is declared `any`
// and value satisfies the Any capability, this is a wildcard constraint
// matching every row with any
// concrete (non-None) value of field, per distilled spec §4.6. field must
// name a MAP_FILTER field of T; an unknown name is a programmer error and
// panics.
func (q *Query[T]) Map(field string, value any) *Query[T] {
	for i, mf := range q.db.desc.MapFilters {
		if mf.Name != field {
			continue
		}
		if mf.AnyCapable && isAnyValue(value) {
			q.mapWant[i] = mapWant{set: true, any: true}
		} else {
			q.mapWant[i] = mapWant{set: true, value: value}
		}
		return q
	}
	panic("rowdb: no such map filter field " + field)
}

// Execute intersects every set predicate and returns the matching Result. It
// reports false (and a nil Result) if no row matches, per distilled spec
// §4.4's "Some(Result)/None" shape. A Query with no predicate set at all
// matches every row.
func (q *Query[T]) Execute() (*Result[T], bool) {
	acc := bitset.Repeat(true, q.db.Len())

	for i, want := range q.boolWant {
		if want == nil {
			continue
		}
		if *want {
			acc.And(&q.db.boolPos[i])
		} else {
			acc.And(&q.db.boolNeg[i])
		}
	}

	for i, mw := range q.mapWant {
		if !mw.set {
			continue
		}
		view := bitset.Repeat(false, q.db.Len())
		if mw.any {
			for _, cat := range q.db.mapCats[i] {
				view.Or(cat)
			}
			view.Or(&q.db.mapAny[i])
		} else {
			if cat, ok := q.db.mapCats[i][mw.value]; ok {
				view.Or(cat)
			}
			view.Or(&q.db.mapAny[i])
		}
		acc.And(&view)
	}

	if !acc.Any() {
		return nil, false
	}
	return &Result[T]{db: q.db, bits: acc}, true
}
