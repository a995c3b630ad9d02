// Package reference is a deliberately naive, unindexed row scanner used to
// cross-check package rowdb's bitset-indexed query engine in tests: it
// re-derives the same Schema Model but answers every query with an O(rows ×
// predicates) linear scan instead of bitset intersection, so the two
// implementations can disagree only if the indexed engine's bookkeeping
// (not the query semantics) is wrong.
package reference

import (
	"fmt"
	"reflect"

	"rowdb/internal/schema"
)

// BoolPredicate constrains a BOOL_FILTER field.
type BoolPredicate struct {
	Field string
	Want  bool
}

// MapPredicate constrains a MAP_FILTER field. Any requests wildcard
// semantics (distilled spec §4.6's "query matches every row with any
// concrete value of M"); Value is ignored when Any is true.
type MapPredicate struct {
	Field string
	Value any
	Any   bool
}

// Scan returns the indices of every row in rows matching every predicate in
// bools and maps (AND semantics, matching Query.Execute).
func Scan[T any](rows []T, bools []BoolPredicate, maps []MapPredicate) []int {
	var zero T
	desc, err := schema.Build(reflect.TypeOf(&zero).Elem())
	if err != nil {
		panic(err)
	}

	boolIndex := make(map[string]int, len(desc.BoolFilters))
	for _, f := range desc.BoolFilters {
		boolIndex[f.Name] = f.Index
	}
	mapIndex := make(map[string]schema.Field, len(desc.MapFilters))
	for _, f := range desc.MapFilters {
		mapIndex[f.Name] = f
	}

	var out []int
	for i, row := range rows {
		if rowMatches(reflect.ValueOf(row), boolIndex, mapIndex, bools, maps) {
			out = append(out, i)
		}
	}
	return out
}

func rowMatches(rv reflect.Value, boolIndex map[string]int, mapIndex map[string]schema.Field, bools []BoolPredicate, maps []MapPredicate) bool {
	for _, p := range bools {
		idx, ok := boolIndex[p.Field]
		if !ok {
			panic(fmt.Sprintf("reference: no such bool filter field %q", p.Field))
		}
		fv := rv.Field(idx)
		var present, val bool
		if fv.Kind() == reflect.Ptr {
			if fv.IsNil() {
				return false
			}
			present, val = true, fv.Elem().Bool()
		} else {
			present, val = true, fv.Bool()
		}
		if !present || val != p.Want {
			return false
		}
	}

	for _, p := range maps {
		f, ok := mapIndex[p.Field]
		if !ok {
			panic(fmt.Sprintf("reference: no such map filter field %q", p.Field))
		}
		fv := rv.Field(f.Index)
		var present bool
		var val any
		if fv.Kind() == reflect.Ptr {
			if !fv.IsNil() {
				present, val = true, fv.Elem().Interface()
			}
		} else {
			present, val = true, fv.Interface()
		}
		if !present {
			return false
		}
		if p.Any {
			continue // presence alone satisfies a wildcard query
		}
		if isAny := f.AnyCapable && isAnyValue(val); !isAny && val != p.Value {
			return false
		}
	}
	return true
}

type anyCapable interface{ IsAny() bool }

func isAnyValue(v any) bool {
	a, ok := v.(anyCapable)
	return ok && a.IsAny()
}
