// Package object defines the closed set of runtime values the interpreter
// binds to variables: the four primitive kinds, opaque constructed-object
// handles, and homogeneous sequences of any of these.
package object

import (
	"fmt"
	"strconv"
	"strings"
)

type Kind string

const (
	BOOL_OBJ     Kind = "BOOL"
	INT_OBJ      Kind = "INT"
	DOUBLE_OBJ   Kind = "DOUBLE"
	STRING_OBJ   Kind = "STRING"
	HANDLE_OBJ   Kind = "HANDLE"
	SEQUENCE_OBJ Kind = "SEQUENCE"
)

type Object interface {
	Kind() Kind
	// TypeName is the effective type of the value as written in a type
	// specifier: "bool", "int", "double", "string", the handle's base
	// type, or "<elem>[]" for sequences.
	TypeName() string
	Inspect() string
}

type Boolean struct {
	Value bool
}

func (b *Boolean) Kind() Kind       { return BOOL_OBJ }
func (b *Boolean) TypeName() string { return "bool" }
func (b *Boolean) Inspect() string  { return strconv.FormatBool(b.Value) }

type Integer struct {
	Value int64
}

func (i *Integer) Kind() Kind       { return INT_OBJ }
func (i *Integer) TypeName() string { return "int" }
func (i *Integer) Inspect() string  { return strconv.FormatInt(i.Value, 10) }

type Double struct {
	Value float64
}

func (d *Double) Kind() Kind       { return DOUBLE_OBJ }
func (d *Double) TypeName() string { return "double" }
func (d *Double) Inspect() string  { return strconv.FormatFloat(d.Value, 'g', -1, 64) }

type String struct {
	Value string
}

func (s *String) Kind() Kind       { return STRING_OBJ }
func (s *String) TypeName() string { return "string" }
func (s *String) Inspect() string  { return strconv.Quote(s.Value) }

// Handle is an opaque reference to a factory-constructed object. Type is
// the abstract type the constructor was registered under, Concrete the
// constructor name, ID a unique identifier assigned at construction.
// A Handle with nil Value is the empty handle produced by a null literal.
type Handle struct {
	Type     string
	Concrete string
	ID       string
	Value    interface{}
}

func (h *Handle) Kind() Kind       { return HANDLE_OBJ }
func (h *Handle) TypeName() string { return h.Type }
func (h *Handle) Inspect() string {
	if h.Value == nil {
		return "null"
	}
	return fmt.Sprintf("%s<%s>#%s", h.Concrete, h.Type, h.ID)
}

// IsNull reports whether the handle is the empty handle.
func (h *Handle) IsNull() bool { return h.Value == nil }

// Sequence is an ordered, homogeneous list. Elem is the TypeName shared
// by every element.
type Sequence struct {
	Elem     string
	Elements []Object
}

func (s *Sequence) Kind() Kind       { return SEQUENCE_OBJ }
func (s *Sequence) TypeName() string { return s.Elem + "[]" }
func (s *Sequence) Inspect() string {
	parts := make([]string, len(s.Elements))
	for i, el := range s.Elements {
		parts[i] = el.Inspect()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Compatible reports whether a value of the same effective type as b may
// replace a. Rebinding a name never changes its type.
func Compatible(a, b Object) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	return a.TypeName() == b.TypeName()
}
