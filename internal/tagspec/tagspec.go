// Package tagspec parses the `rowdb:"..."` struct tag grammar shared by the
// reflection-based schema builder (internal/schema) and the offline source
// generator (cmd/rowdbgen), so the two never drift on what a tag means.
//
// Grammar: a comma-separated list drawn from the closed set
// {key, filter, any, skip}. An empty or absent tag means "no annotation";
// role inference for that case is left to the caller (a plain bool field
// defaults to filter, everything else defaults to skip — see internal/schema
// and distilled spec §4.2).
package tagspec

import (
	"fmt"
	"strings"
)

// Tag is the parsed form of one field's `rowdb` struct tag.
type Tag struct {
	Key    bool
	Filter bool
	Any    bool
	Skip   bool
}

// Parse parses the contents of a `rowdb:"..."` struct tag (without the
// surrounding quotes or the leading "rowdb:" key). An empty string is a
// valid, no-op tag.
func Parse(raw string) (Tag, error) {
	var t Tag
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return t, nil
	}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		switch part {
		case "key":
			t.Key = true
		case "filter":
			t.Filter = true
		case "any":
			t.Any = true
		case "skip":
			t.Skip = true
		default:
			return Tag{}, fmt.Errorf("tagspec: unknown rowdb tag option %q (expected one of: key, filter, any, skip)", part)
		}
	}
	return t, nil
}

// Validate enforces the role-exclusivity rules from distilled spec §4.2 that
// can be decided from the tag alone (role-vs-type checks, such as "any
// requires an IsAny() implementation", need the field's type and are
// performed by the caller).
func (t Tag) Validate() error {
	switch {
	case t.Skip && (t.Key || t.Filter || t.Any):
		return fmt.Errorf("tagspec: skip is exclusive with key/filter/any")
	case t.Key && t.Filter:
		return fmt.Errorf("tagspec: key and filter are mutually exclusive")
	case t.Key && t.Any:
		return fmt.Errorf("tagspec: key and any are mutually exclusive")
	}
	return nil
}

// DBDirective is the parsed form of a top-level `//rowdb:db ...` directive
// (the Go rendition of `#[venndb(name = "...", validator = "...")]`).
type DBDirective struct {
	Name      string
	Validator string
}

// ParseDirective parses the argument text following `//rowdb:db`, a
// space-separated list of `key=value` pairs drawn from {name, validator}.
func ParseDirective(raw string) (DBDirective, error) {
	var d DBDirective
	for _, field := range strings.Fields(raw) {
		k, v, ok := strings.Cut(field, "=")
		if !ok {
			return DBDirective{}, fmt.Errorf("tagspec: malformed directive field %q (expected key=value)", field)
		}
		switch k {
		case "name":
			d.Name = v
		case "validator":
			d.Validator = v
		default:
			return DBDirective{}, fmt.Errorf("tagspec: unknown directive key %q (expected one of: name, validator)", k)
		}
	}
	return d, nil
}
