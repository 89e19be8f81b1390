// Package facto is the embedding API for the facto configuration
// language. A host registers object constructors, evaluates configuration
// text from files, strings or streams, and retrieves the resulting typed
// bindings.
//
//	reg := factory.NewRegistry()
//	reg.Register("Model", "PerceptronModel", newPerceptron)
//
//	in := facto.New(facto.WithRegistry(reg))
//	if err := in.EvalFile("example.facto"); err != nil { ... }
//
//	var name string
//	var model *Perceptron
//	err := in.GetMany("name", &name, "m1", &model)
package facto

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/facto-lang/facto/internal/evaluator"
	"github.com/facto-lang/facto/internal/factory"
	"github.com/facto-lang/facto/internal/modules"
	"github.com/facto-lang/facto/internal/object"
)

// Interp is one interpreter instance with its own environment. It is not
// safe to evaluate concurrently; reads are safe once evaluation returns.
type Interp struct {
	core *evaluator.Interpreter
}

type Option func(*options)

type options struct {
	registry factory.Resolver
	opener   modules.Opener
	debug    int
}

// WithRegistry installs the construction resolver used for object specs.
func WithRegistry(r factory.Resolver) Option {
	return func(o *options) { o.registry = r }
}

// WithOpener substitutes the stream-opening capability used for files and
// imports. The default opens local files.
func WithOpener(op modules.Opener) Option {
	return func(o *options) { o.opener = op }
}

// WithDebug sets the debug level. At level 2 and above every binding
// commit is traced to stderr.
func WithDebug(level int) Option {
	return func(o *options) { o.debug = level }
}

func New(opts ...Option) *Interp {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Interp{core: evaluator.New(o.registry, o.opener, o.debug)}
}

// EvalFile evaluates the statements in the named file.
func (in *Interp) EvalFile(path string) error { return in.core.EvalFile(path) }

// EvalString evaluates the statements in the given string.
func (in *Interp) EvalString(src string) error { return in.core.EvalString(src) }

// Eval evaluates the statements in the given stream.
func (in *Interp) Eval(r io.Reader) error { return in.core.Eval(r) }

// Lookup assigns the value bound to name into the typed slot out. It
// returns (false, nil) when no such binding exists, and (true, err) when
// the binding exists but its type does not fit out.
func (in *Interp) Lookup(name string, out interface{}) (bool, error) {
	return in.core.Env().Bind(name, out)
}

// Get is the boolean convenience form of Lookup: true only when the name
// is bound and was assigned to out.
func (in *Interp) Get(name string, out interface{}) bool {
	ok, err := in.Lookup(name, out)
	return ok && err == nil
}

// GetMany retrieves several variables at once from alternating
// name/pointer pairs, stopping at the first failure and naming the
// variable that caused it. Slots already assigned by earlier pairs keep
// their values.
func (in *Interp) GetMany(pairs ...interface{}) error {
	if len(pairs)%2 != 0 {
		return fmt.Errorf("GetMany requires an even number of arguments, got %d", len(pairs))
	}
	for n := 0; n < len(pairs); n += 2 {
		name, ok := pairs[n].(string)
		if !ok {
			return fmt.Errorf("GetMany argument %d is not a variable name", n)
		}
		found, err := in.Lookup(name, pairs[n+1])
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("no variable with name '%s'", name)
		}
	}
	return nil
}

// Names returns the currently bound variable names, sorted.
func (in *Interp) Names() []string { return in.core.Env().Names() }

// Types returns the constructible type names known to the registry.
func (in *Interp) Types() []string { return in.core.Types() }

// PrintEnv writes the current bindings to w, one statement per line.
func (in *Interp) PrintEnv(w io.Writer) { in.core.Env().Print(w) }

// Snapshot returns a plain-Go rendition of the environment: primitives as
// their Go values, sequences as slices, handles as their Inspect form.
func (in *Interp) Snapshot() map[string]interface{} {
	store := in.core.Env().Snapshot()
	out := make(map[string]interface{}, len(store))
	for name, val := range store {
		out[name] = plain(val)
	}
	return out
}

// DumpYAML writes the Snapshot to w as YAML.
func (in *Interp) DumpYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(in.Snapshot())
}

func plain(val object.Object) interface{} {
	switch v := val.(type) {
	case *object.Boolean:
		return v.Value
	case *object.Integer:
		return v.Value
	case *object.Double:
		return v.Value
	case *object.String:
		return v.Value
	case *object.Sequence:
		els := make([]interface{}, len(v.Elements))
		for i, el := range v.Elements {
			els[i] = plain(el)
		}
		return els
	default:
		return val.Inspect()
	}
}
