// Package factory resolves construction specs to live objects. The
// interpreter only depends on the Resolver contract; the Registry below is
// the default name-indexed implementation a host fills with constructors.
package factory

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/facto-lang/facto/internal/object"
)

// Param is one named, fully-resolved constructor argument.
type Param struct {
	Name  string
	Value object.Object
}

// Params is the ordered argument list handed to a constructor.
type Params []Param

// Resolver turns a type name and an ordered list of named parameters into
// a constructed object handle, or fails with a *ConstructionError.
type Resolver interface {
	Construct(typeName string, params Params) (*object.Handle, error)
	Has(typeName string) bool
	Known() []string
}

// Reason classifies why a construction failed.
type Reason string

const (
	UnknownType     Reason = "unknown type"
	MissingParam    Reason = "missing required parameter"
	UnexpectedParam Reason = "unexpected parameter"
	WrongParamKind  Reason = "wrong parameter kind"
	CtorFailed      Reason = "constructor failed"
)

type ConstructionError struct {
	Type   string
	Param  string
	Reason Reason
	Detail string
}

func (e *ConstructionError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Reason, e.Type)
	if e.Param != "" {
		msg = fmt.Sprintf("%s, parameter '%s'", msg, e.Param)
	}
	if e.Detail != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Detail)
	}
	return msg
}

// ConstructorFunc builds the opaque host object for one concrete type.
type ConstructorFunc func(params Params) (interface{}, error)

type entry struct {
	base string
	fn   ConstructorFunc
}

// Registry maps concrete constructor names to constructor functions, each
// registered under an abstract base type name. It implements Resolver.
type Registry struct {
	entries map[string]entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register binds a concrete constructor name to fn under baseType. A later
// registration with the same name replaces the earlier one.
func (r *Registry) Register(baseType, name string, fn ConstructorFunc) {
	r.entries[name] = entry{base: baseType, fn: fn}
}

func (r *Registry) Has(typeName string) bool {
	_, ok := r.entries[typeName]
	return ok
}

// Known returns the sorted concrete constructor names.
func (r *Registry) Known() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Construct(typeName string, params Params) (*object.Handle, error) {
	ent, ok := r.entries[typeName]
	if !ok {
		return nil, &ConstructionError{Type: typeName, Reason: UnknownType}
	}
	val, err := ent.fn(params)
	if err != nil {
		if cerr, ok := err.(*ConstructionError); ok {
			if cerr.Type == "" {
				cerr.Type = typeName
			}
			return nil, cerr
		}
		return nil, &ConstructionError{Type: typeName, Reason: CtorFailed, Detail: err.Error()}
	}
	return &object.Handle{
		Type:     ent.base,
		Concrete: typeName,
		ID:       uuid.NewString(),
		Value:    val,
	}, nil
}

// Lookup returns the parameter named name, or ok=false.
func (ps Params) Lookup(name string) (object.Object, bool) {
	for _, p := range ps {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

// Names returns parameter names in their original order.
func (ps Params) Names() []string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.Name
	}
	return names
}

// CheckNames fails with an UnexpectedParam error if any parameter is not
// in allowed. Constructors call it before reading parameters.
func (ps Params) CheckNames(allowed ...string) error {
	ok := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		ok[a] = true
	}
	for _, p := range ps {
		if !ok[p.Name] {
			return &ConstructionError{Param: p.Name, Reason: UnexpectedParam}
		}
	}
	return nil
}

func (ps Params) Bool(name string) (bool, bool, error) {
	v, ok := ps.Lookup(name)
	if !ok {
		return false, false, nil
	}
	b, ok := v.(*object.Boolean)
	if !ok {
		return false, true, wrongKind(name, "bool", v)
	}
	return b.Value, true, nil
}

func (ps Params) Int(name string) (int64, bool, error) {
	v, ok := ps.Lookup(name)
	if !ok {
		return 0, false, nil
	}
	i, ok := v.(*object.Integer)
	if !ok {
		return 0, true, wrongKind(name, "int", v)
	}
	return i.Value, true, nil
}

func (ps Params) Double(name string) (float64, bool, error) {
	v, ok := ps.Lookup(name)
	if !ok {
		return 0, false, nil
	}
	d, ok := v.(*object.Double)
	if !ok {
		return 0, true, wrongKind(name, "double", v)
	}
	return d.Value, true, nil
}

func (ps Params) String(name string) (string, bool, error) {
	v, ok := ps.Lookup(name)
	if !ok {
		return "", false, nil
	}
	s, ok := v.(*object.String)
	if !ok {
		return "", true, wrongKind(name, "string", v)
	}
	return s.Value, true, nil
}

func (ps Params) Handle(name string) (*object.Handle, bool, error) {
	v, ok := ps.Lookup(name)
	if !ok {
		return nil, false, nil
	}
	h, ok := v.(*object.Handle)
	if !ok {
		return nil, true, wrongKind(name, "object", v)
	}
	return h, true, nil
}

func (ps Params) Strings(name string) ([]string, bool, error) {
	v, ok := ps.Lookup(name)
	if !ok {
		return nil, false, nil
	}
	seq, ok := v.(*object.Sequence)
	if !ok || seq.Elem != "string" {
		return nil, true, wrongKind(name, "string[]", v)
	}
	out := make([]string, len(seq.Elements))
	for i, el := range seq.Elements {
		out[i] = el.(*object.String).Value
	}
	return out, true, nil
}

// Required converts a not-found result from a typed accessor into a
// MissingParam error.
func Required(name string, found bool, err error) error {
	if err != nil {
		return err
	}
	if !found {
		return &ConstructionError{Param: name, Reason: MissingParam}
	}
	return nil
}

func wrongKind(name, want string, got object.Object) error {
	return &ConstructionError{
		Param:  name,
		Reason: WrongParamKind,
		Detail: fmt.Sprintf("want %s, got %s", want, got.TypeName()),
	}
}
