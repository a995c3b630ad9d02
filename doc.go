// Package rowdb provides an in-memory, append-only, indexed row store.
//
// A row type is any exported struct whose fields carry `rowdb:"..."` tags
// naming each field's role:
//
//	type Employee struct {
//		ID         uint32 `rowdb:"key"`
//		IsManager  bool
//		Department Department `rowdb:"filter,any"`
//		Notes      string `rowdb:"skip"`
//	}
//
// DB[T] keeps one bitset per BOOL_FILTER value and per observed MAP_FILTER
// enumerant, so Query.Execute answers a multi-field query by ANDing a
// handful of machine words together rather than scanning rows. See
// SPEC_FULL.md for the full design and internal/reference for a naive
// linear-scan implementation used to cross-check this one.
//
// Most applications should not call reflect-driven methods like GetByKey and
// Query(...).Bool(name, ...) directly; run `go generate` over a row type
// with a `//go:generate go run rowdb/cmd/rowdbgen -type=...` line (see
// cmd/rowdbgen) to get a strongly-typed wrapper with field-named methods
// instead.
package rowdb
