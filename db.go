// Package rowdb is an in-memory, append-only, typed row store whose
// indexes are derived from a row type's `rowdb:"..."` struct tags. It is
// the Go rendition of the Runtime Core and DB Synthesizer described by this
// repository's SPEC_FULL.md: a generic engine (DB[T]) driven by a Schema
// Model built once per row type via reflection (package internal/schema),
// plus an optional offline generator (cmd/rowdbgen) that emits a
// strongly-typed, field-named wrapper around it.
//
// DB[T] is not safe for concurrent mutation; see the package-level
// Concurrency note in SPEC_FULL.md §10.6.
package rowdb

import (
	"reflect"

	"rowdb/internal/bitset"
	"rowdb/internal/schema"
)

// DB is an in-memory database of rows of type T. The zero value is not
// usable; construct one with New, WithCapacity, FromRows or FromSeq.
//
// Lifetime contract: *T pointers and Result[T] values returned by DB methods
// alias DB's internal storage. They remain valid only until the next
// mutating call (Append/Extend) on the same DB — mirroring the single-owner,
// multiple-read-only-borrower discipline of distilled spec §5; Go has no
// borrow checker to enforce this, so it is a caller contract instead of a
// compile error.
type DB[T any] struct {
	desc      *schema.Descriptor
	validator func(T) bool

	rows []T

	keyMaps []map[any]int

	boolPos []bitset.BitSet
	boolNeg []bitset.BitSet

	mapCats []map[any]*bitset.BitSet
	mapAny  []bitset.BitSet
}

// Option configures a DB at construction time.
type Option[T any] func(*DB[T])

// WithValidator registers a row-level predicate; Append/Extend/FromRows
// reject any row for which it returns false with ErrorKind InvalidRow.
// Per distilled spec §7, a DB with no validator and no KEY fields makes
// Append infallible in spirit (errors can still never occur), but this Go
// rendition always returns an error value for API uniformity — see
// SPEC_FULL.md §7/§10 and DESIGN.md for the rationale.
func WithValidator[T any](fn func(T) bool) Option[T] {
	return func(db *DB[T]) { db.validator = fn }
}

// New constructs an empty DB.
func New[T any](opts ...Option[T]) (*DB[T], error) {
	return WithCapacity[T](0, opts...)
}

// WithCapacity constructs an empty DB whose storage is pre-sized for n rows.
func WithCapacity[T any](n int, opts ...Option[T]) (*DB[T], error) {
	desc, err := describeRowType[T]()
	if err != nil {
		return nil, err
	}

	db := &DB[T]{desc: desc}
	for _, opt := range opts {
		opt(db)
	}

	db.rows = make([]T, 0, n)

	db.keyMaps = make([]map[any]int, len(desc.Keys))
	for i := range db.keyMaps {
		db.keyMaps[i] = make(map[any]int, n)
	}

	db.boolPos = make([]bitset.BitSet, len(desc.BoolFilters))
	db.boolNeg = make([]bitset.BitSet, len(desc.BoolFilters))
	for i := range db.boolPos {
		db.boolPos[i] = bitset.WithCapacity(n)
		db.boolNeg[i] = bitset.WithCapacity(n)
	}

	db.mapCats = make([]map[any]*bitset.BitSet, len(desc.MapFilters))
	db.mapAny = make([]bitset.BitSet, len(desc.MapFilters))
	for i := range db.mapCats {
		db.mapCats[i] = make(map[any]*bitset.BitSet)
		db.mapAny[i] = bitset.WithCapacity(n)
	}

	return db, nil
}

func describeRowType[T any]() (*schema.Descriptor, error) {
	var zero T
	return schema.Build(reflect.TypeOf(&zero).Elem())
}

// Len returns the number of rows.
func (db *DB[T]) Len() int { return len(db.rows) }

// Capacity returns the current backing-storage capacity, which grows
// automatically as needed.
func (db *DB[T]) Capacity() int { return cap(db.rows) }

// IsEmpty reports whether the DB has no rows.
func (db *DB[T]) IsEmpty() bool { return len(db.rows) == 0 }

// Rows returns the rows in insertion order. The returned slice aliases DB's
// storage; see the DB lifetime contract above.
func (db *DB[T]) Rows() []T { return db.rows }

// GetByKey looks up a row by one of its KEY fields. fieldName must name a
// KEY field of T (typically supplied by a generated, typed wrapper method);
// an unknown field name is a programmer error and panics.
func (db *DB[T]) GetByKey(fieldName string, key any) (*T, bool) {
	for i, kf := range db.desc.Keys {
		if kf.Name != fieldName {
			continue
		}
		idx, ok := db.keyMaps[i][key]
		if !ok {
			return nil, false
		}
		return &db.rows[idx], true
	}
	panic("rowdb: no such key field " + fieldName)
}

// Append validates and inserts row, maintaining every key map and filter
// bitset. On failure (duplicate key or failed validator) the DB is left
// bit-for-bit identical to its pre-call state (distilled spec I6/Q2) and a
// *Error[T] is returned.
func (db *DB[T]) Append(row T) error {
	index := len(db.rows)

	if db.validator != nil && !db.validator(row) {
		return &Error[T]{Kind: InvalidRow, Row: row, Index: index}
	}

	rv := reflect.ValueOf(row)

	for i, kf := range db.desc.Keys {
		key := rv.Field(kf.Index).Interface()
		if _, exists := db.keyMaps[i][key]; exists {
			return &Error[T]{Kind: DuplicateKey, Row: row, Index: index}
		}
	}

	// All checks passed: commit. Nothing below this line may fail.
	for i, kf := range db.desc.Keys {
		key := rv.Field(kf.Index).Interface()
		db.keyMaps[i][key] = index
	}

	for i, bf := range db.desc.BoolFilters {
		fv := rv.Field(bf.Index)
		var present, val bool
		if bf.Optional {
			if !fv.IsNil() {
				present = true
				val = fv.Elem().Bool()
			}
		} else {
			present = true
			val = fv.Bool()
		}
		db.boolPos[i].Push(present && val)
		db.boolNeg[i].Push(present && !val)
	}

	for i, mf := range db.desc.MapFilters {
		fv := rv.Field(mf.Index)
		var present bool
		var val any
		if mf.Optional {
			if !fv.IsNil() {
				present = true
				val = fv.Elem().Interface()
			}
		} else {
			present = true
			val = fv.Interface()
		}
		isAny := present && mf.AnyCapable && isAnyValue(val)

		if present && !isAny {
			if _, ok := db.mapCats[i][val]; !ok {
				cat := bitset.Repeat(false, index)
				db.mapCats[i][val] = &cat
			}
		}
		for cv, cat := range db.mapCats[i] {
			cat.Push(present && !isAny && cv == val)
		}
		db.mapAny[i].Push(isAny)
	}

	db.rows = append(db.rows, row)
	return nil
}

// Extend appends each row in order, stopping at the first failure. The
// returned *BulkError[T] carries the offending row and every row after it
// that was never attempted, so the caller can retry with BulkError.Rest.
func (db *DB[T]) Extend(rows []T) error {
	for i, row := range rows {
		if err := db.Append(row); err != nil {
			ae := err.(*Error[T])
			rest := make([]T, len(rows)-i-1)
			copy(rest, rows[i+1:])
			return &BulkError[T]{Kind: ae.Kind, Row: ae.Row, Rest: rest, Index: ae.Index}
		}
	}
	return nil
}

// IntoRows destructively returns the row vector, leaving db unusable for
// further mutation (distilled spec's Frozen lifecycle state).
func (db *DB[T]) IntoRows() []T {
	rows := db.rows
	db.rows = nil
	return rows
}

// Query constructs a new query over db with every filter slot unset.
func (db *DB[T]) Query() *Query[T] {
	return newQuery(db)
}

// FromRows constructs a DB containing exactly rows, in order. On failure,
// the returned *BulkError[T].Rest is the complete, unmodified input slice
// (distilled spec's from_rows container-preservation guarantee).
func FromRows[T any](rows []T, opts ...Option[T]) (*DB[T], error) {
	db, err := WithCapacity[T](len(rows), opts...)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := db.Append(row); err != nil {
			ae := err.(*Error[T])
			orig := make([]T, len(rows))
			copy(orig, rows)
			return nil, &BulkError[T]{Kind: ae.Kind, Row: ae.Row, Rest: orig, Index: ae.Index}
		}
	}
	return db, nil
}

// FromSeq constructs a DB from a sequence of rows, equivalent to collecting
// seq into a slice and calling FromRows.
func FromSeq[T any](seq func(func(T) bool), opts ...Option[T]) (*DB[T], error) {
	var rows []T
	seq(func(t T) bool {
		rows = append(rows, t)
		return true
	})
	return FromRows(rows, opts...)
}
