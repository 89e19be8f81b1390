package evaluator

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"sync"

	"github.com/facto-lang/facto/internal/diagnostics"
	"github.com/facto-lang/facto/internal/object"
	"github.com/facto-lang/facto/internal/token"
)

// Environment is the flat symbol table shared by an interpreter and every
// file it imports. The statement-commit step is the only writer during
// evaluation; the lock additionally makes host-side reads safe afterwards.
type Environment struct {
	mu    sync.RWMutex
	store map[string]object.Object
	debug int
	trace io.Writer
}

func NewEnvironment() *Environment {
	return &Environment{store: make(map[string]object.Object), trace: os.Stderr}
}

func (e *Environment) SetDebug(level int) { e.debug = level }

func (e *Environment) Get(name string) (object.Object, bool) {
	e.mu.RLock()
	obj, ok := e.store[name]
	e.mu.RUnlock()
	return obj, ok
}

// Set binds name to val. A name keeps the type of its first assignment:
// rebinding with an incompatible value fails.
func (e *Environment) Set(name string, val object.Object) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if prev, ok := e.store[name]; ok && !object.Compatible(prev, val) {
		return fmt.Errorf("variable '%s' already holds %s, cannot rebind to %s",
			name, prev.TypeName(), val.TypeName())
	}
	e.store[name] = val
	if e.debug >= 2 {
		fmt.Fprintf(e.trace, "facto: env: %s = %s\n", name, val.Inspect())
	}
	return nil
}

// Names returns the bound variable names, sorted.
func (e *Environment) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.store))
	for name := range e.store {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns a copy of the store.
func (e *Environment) Snapshot() map[string]object.Object {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]object.Object, len(e.store))
	for k, v := range e.store {
		out[k] = v
	}
	return out
}

// Print renders the current bindings, one per line, sorted by name.
func (e *Environment) Print(w io.Writer) {
	for _, name := range e.Names() {
		obj, _ := e.Get(name)
		fmt.Fprintf(w, "%s %s = %s;\n", obj.TypeName(), name, obj.Inspect())
	}
}

// Bind assigns the value of name to the typed slot out. The first result
// reports whether the name is bound at all; an unbound name is not an
// error. A bound value whose variant does not fit out is a contract
// violation reported as a distinct retrieval type error.
func (e *Environment) Bind(name string, out interface{}) (bool, error) {
	val, ok := e.Get(name)
	if !ok {
		return false, nil
	}

	switch ptr := out.(type) {
	case *bool:
		if b, ok := val.(*object.Boolean); ok {
			*ptr = b.Value
			return true, nil
		}
	case *int64:
		if i, ok := val.(*object.Integer); ok {
			*ptr = i.Value
			return true, nil
		}
	case *int:
		if i, ok := val.(*object.Integer); ok {
			// Out of range on 32-bit platforms is a mismatch, not a
			// silent truncation.
			if int64(int(i.Value)) != i.Value {
				return true, mismatch(name, val, out)
			}
			*ptr = int(i.Value)
			return true, nil
		}
	case *float64:
		if d, ok := val.(*object.Double); ok {
			*ptr = d.Value
			return true, nil
		}
	case *string:
		if s, ok := val.(*object.String); ok {
			*ptr = s.Value
			return true, nil
		}
	case **object.Handle:
		if h, ok := val.(*object.Handle); ok {
			*ptr = h
			return true, nil
		}
	case *[]bool:
		if seq, ok := val.(*object.Sequence); ok && seq.Elem == "bool" {
			res := make([]bool, len(seq.Elements))
			for i, el := range seq.Elements {
				res[i] = el.(*object.Boolean).Value
			}
			*ptr = res
			return true, nil
		}
	case *[]int64:
		if seq, ok := val.(*object.Sequence); ok && seq.Elem == "int" {
			res := make([]int64, len(seq.Elements))
			for i, el := range seq.Elements {
				res[i] = el.(*object.Integer).Value
			}
			*ptr = res
			return true, nil
		}
	case *[]int:
		if seq, ok := val.(*object.Sequence); ok && seq.Elem == "int" {
			res := make([]int, len(seq.Elements))
			for i, el := range seq.Elements {
				v := el.(*object.Integer).Value
				if int64(int(v)) != v {
					return true, mismatch(name, val, out)
				}
				res[i] = int(v)
			}
			*ptr = res
			return true, nil
		}
	case *[]float64:
		if seq, ok := val.(*object.Sequence); ok && seq.Elem == "double" {
			res := make([]float64, len(seq.Elements))
			for i, el := range seq.Elements {
				res[i] = el.(*object.Double).Value
			}
			*ptr = res
			return true, nil
		}
	case *[]string:
		if seq, ok := val.(*object.Sequence); ok && seq.Elem == "string" {
			res := make([]string, len(seq.Elements))
			for i, el := range seq.Elements {
				res[i] = el.(*object.String).Value
			}
			*ptr = res
			return true, nil
		}
	case *object.Object:
		*ptr = val
		return true, nil
	default:
		if done, err := bindReflect(name, val, out); done {
			return true, err
		}
	}

	return true, mismatch(name, val, out)
}

// bindReflect handles handle unwrapping into arbitrary host pointer types
// and sequences of handles into host slices.
func bindReflect(name string, val object.Object, out interface{}) (bool, error) {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return false, nil
	}
	target := rv.Elem()

	switch v := val.(type) {
	case *object.Handle:
		if v.Value == nil {
			target.Set(reflect.Zero(target.Type()))
			return true, nil
		}
		hv := reflect.ValueOf(v.Value)
		if hv.Type().AssignableTo(target.Type()) {
			target.Set(hv)
			return true, nil
		}
		return true, mismatch(name, val, out)
	case *object.Sequence:
		if target.Kind() != reflect.Slice {
			return false, nil
		}
		res := reflect.MakeSlice(target.Type(), len(v.Elements), len(v.Elements))
		for i, el := range v.Elements {
			h, ok := el.(*object.Handle)
			if !ok {
				return true, mismatch(name, val, out)
			}
			if h.Value == nil {
				continue
			}
			hv := reflect.ValueOf(h.Value)
			if !hv.Type().AssignableTo(target.Type().Elem()) {
				return true, mismatch(name, val, out)
			}
			res.Index(i).Set(hv)
		}
		target.Set(res)
		return true, nil
	}
	return false, nil
}

func mismatch(name string, val object.Object, out interface{}) error {
	return diagnostics.NewError(diagnostics.ErrT003, token.Token{},
		name, val.TypeName(), fmt.Sprintf("%T", out))
}
