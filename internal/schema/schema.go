// Package schema is the Schema Model: a pure, reflection-built description
// of a row type's fields and their roles (KEY, BOOL_FILTER, MAP_FILTER,
// SKIPPED), produced once per row type and consumed by package rowdb's
// generic runtime engine.
//
// In the original venndb crate this description is produced by a proc-macro
// reading `#[venndb(...)]` attributes at compile time. Go has no macros, so
// this package plays the same role at a type's first use, reading the
// `rowdb:"..."` struct tag via reflection (distilled spec §9, Design Notes,
// option (a)).
package schema

import (
	"fmt"
	"io"
	"reflect"
	"sync"

	"github.com/BurntSushi/toml"

	"rowdb/internal/tagspec"
)

// Role classifies a row field exactly as distilled spec §3 describes.
type Role int

const (
	RoleSkipped Role = iota
	RoleKey
	RoleBoolFilter
	RoleMapFilter
)

func (r Role) String() string {
	switch r {
	case RoleKey:
		return "key"
	case RoleBoolFilter:
		return "bool_filter"
	case RoleMapFilter:
		return "map_filter"
	default:
		return "skipped"
	}
}

// Field describes one field of a row type.
type Field struct {
	Name       string       // Go struct field name
	Index      int          // field index within the struct, for reflect.Value.Field
	Type       reflect.Type // the field's declared type (possibly a pointer, for Optional)
	ElemType   reflect.Type // Type with the Optional pointer unwrapped; equals Type otherwise
	Role       Role
	Optional   bool
	AnyCapable bool // only meaningful when Role == RoleMapFilter
}

// Descriptor is the Schema Model for one row type: an ordered field list
// plus convenience subsets by role. It carries no behavior of its own —
// package rowdb's DB[T] is the Runtime Core that acts on it.
type Descriptor struct {
	RowType     reflect.Type
	Fields      []Field
	Keys        []Field
	BoolFilters []Field
	MapFilters  []Field
}

// ValidationError reports a Schema Model rule violation (distilled spec
// §4.2). Mirrors the {Entity, Name, Field, Message} shape used elsewhere in
// this codebase for structured, greppable error text.
type ValidationError struct {
	Entity  string
	Name    string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("schema: %s %q field %q: %s", e.Entity, e.Name, e.Field, e.Message)
	}
	return fmt.Sprintf("schema: %s %q: %s", e.Entity, e.Name, e.Message)
}

// anyCapable mirrors rowdb.Any structurally (same single method), so schema
// can check implementation via reflection without importing package rowdb
// and creating an import cycle.
type anyCapable interface {
	IsAny() bool
}

var anyCapableType = reflect.TypeOf((*anyCapable)(nil)).Elem()

// descriptorCache memoizes Build results per reflect.Type, since schema
// construction is a compile-time activity conceptually, but happens at a
// Go type's first runtime use.
var descriptorCache sync.Map

// Build parses t's fields into a Descriptor, enforcing the validation rules
// of distilled spec §4.2. t must be a (non-pointer) struct type.
func Build(t reflect.Type) (*Descriptor, error) {
	if cached, ok := descriptorCache.Load(t); ok {
		return cached.(*Descriptor), nil
	}

	if t.Kind() != reflect.Struct {
		return nil, &ValidationError{
			Entity:  "row type",
			Name:    t.String(),
			Message: "only record-with-named-fields row types are supported (found " + t.Kind().String() + ")",
		}
	}

	desc := &Descriptor{RowType: t}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" {
			// unexported: reflect cannot read its value via Interface(),
			// so it is implicitly SKIPPED and must carry no tag.
			if _, ok := sf.Tag.Lookup("rowdb"); ok {
				return nil, &ValidationError{
					Entity:  "row type",
					Name:    t.String(),
					Field:   sf.Name,
					Message: "unexported fields cannot carry a rowdb tag",
				}
			}
			continue
		}

		field, err := buildField(t, sf, i)
		if err != nil {
			return nil, err
		}
		desc.Fields = append(desc.Fields, field)
		switch field.Role {
		case RoleKey:
			desc.Keys = append(desc.Keys, field)
		case RoleBoolFilter:
			desc.BoolFilters = append(desc.BoolFilters, field)
		case RoleMapFilter:
			desc.MapFilters = append(desc.MapFilters, field)
		}
	}

	descriptorCache.Store(t, desc)
	return desc, nil
}

func buildField(t reflect.Type, sf reflect.StructField, index int) (Field, error) {
	tag, err := tagspec.Parse(sf.Tag.Get("rowdb"))
	if err != nil {
		return Field{}, &ValidationError{Entity: "row type", Name: t.String(), Field: sf.Name, Message: err.Error()}
	}
	if err := tag.Validate(); err != nil {
		return Field{}, &ValidationError{Entity: "row type", Name: t.String(), Field: sf.Name, Message: err.Error()}
	}

	field := Field{Name: sf.Name, Index: index, Type: sf.Type}
	if sf.Type.Kind() == reflect.Ptr {
		field.Optional = true
		field.ElemType = sf.Type.Elem()
	} else {
		field.ElemType = sf.Type
	}

	switch {
	case tag.Skip:
		field.Role = RoleSkipped

	case tag.Key:
		if field.Optional {
			return Field{}, &ValidationError{Entity: "row type", Name: t.String(), Field: sf.Name, Message: "a key field must not be OPTIONAL"}
		}
		if !field.ElemType.Comparable() {
			return Field{}, &ValidationError{Entity: "row type", Name: t.String(), Field: sf.Name, Message: "a key field must be hashable/comparable"}
		}
		field.Role = RoleKey

	case tag.Filter:
		if tag.Any {
			if field.ElemType.Kind() == reflect.Bool {
				return Field{}, &ValidationError{Entity: "row type", Name: t.String(), Field: sf.Name, Message: "any is not allowed on a boolean filter (booleans are already two-valued)"}
			}
			if !implementsAny(field.ElemType) {
				return Field{}, &ValidationError{Entity: "row type", Name: t.String(), Field: sf.Name, Message: fmt.Sprintf("any requires %s to implement IsAny() bool", field.ElemType)}
			}
			field.AnyCapable = true
			field.Role = RoleMapFilter
		} else if field.ElemType.Kind() == reflect.Bool {
			field.Role = RoleBoolFilter
		} else {
			// Resolves distilled spec §9's Open Question: filter without any
			// on a non-boolean is a map filter.
			field.Role = RoleMapFilter
		}
		if field.Role == RoleMapFilter && !field.ElemType.Comparable() {
			return Field{}, &ValidationError{Entity: "row type", Name: t.String(), Field: sf.Name, Message: "a map filter field must be hashable/comparable"}
		}

	case tag.Any:
		return Field{}, &ValidationError{Entity: "row type", Name: t.String(), Field: sf.Name, Message: "any requires filter"}

	default:
		// No annotation: a bare bool (or *bool) defaults to BOOL_FILTER;
		// everything else defaults to SKIPPED.
		if field.ElemType.Kind() == reflect.Bool {
			field.Role = RoleBoolFilter
		} else {
			field.Role = RoleSkipped
		}
	}

	return field, nil
}

// dumpField is the TOML-shaped rendition of one Field, used only for
// diagnostic output (WriteTOML); it carries no behavior.
type dumpField struct {
	Name       string `toml:"name"`
	Type       string `toml:"type"`
	Role       string `toml:"role"`
	Optional   bool   `toml:"optional"`
	AnyCapable bool   `toml:"any_capable,omitempty"`
}

type dump struct {
	RowType string      `toml:"row_type"`
	Fields  []dumpField `toml:"fields"`
}

// WriteTOML dumps d as a human-readable TOML document — a diagnostic
// rendition of the Schema Model, playing the role distilled spec §1 assigns
// to an external "diagnostic formatting for schema errors" collaborator,
// using this codebase's own config-decoding library in reverse (encoding
// rather than decoding).
func (d *Descriptor) WriteTOML(w io.Writer) error {
	out := dump{RowType: d.RowType.String()}
	for _, f := range d.Fields {
		out.Fields = append(out.Fields, dumpField{
			Name:       f.Name,
			Type:       f.Type.String(),
			Role:       f.Role.String(),
			Optional:   f.Optional,
			AnyCapable: f.AnyCapable,
		})
	}
	return toml.NewEncoder(w).Encode(out)
}

func implementsAny(t reflect.Type) bool {
	if t.Implements(anyCapableType) {
		return true
	}
	return reflect.PointerTo(t).Implements(anyCapableType)
}
