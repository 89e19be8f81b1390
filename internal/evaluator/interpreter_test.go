package evaluator

import (
	"strings"
	"testing"

	"github.com/facto-lang/facto/internal/diagnostics"
	"github.com/facto-lang/facto/internal/factory"
	"github.com/facto-lang/facto/internal/modules"
	"github.com/facto-lang/facto/internal/object"
)

type model struct {
	name    string
	weights []float64
	inner   *model
}

// testRegistry registers two Model constructors and records the order of
// constructor invocations, so tests can assert innermost-first resolution.
func testRegistry(calls *[]string) *factory.Registry {
	r := factory.NewRegistry()
	build := func(concrete string) factory.ConstructorFunc {
		return func(params factory.Params) (interface{}, error) {
			if err := params.CheckNames("name", "weights", "inner"); err != nil {
				return nil, err
			}
			m := &model{}
			name, found, err := params.String("name")
			if err := factory.Required("name", found, err); err != nil {
				return nil, err
			}
			m.name = name
			if h, found, err := params.Handle("inner"); err != nil {
				return nil, err
			} else if found && !h.IsNull() {
				m.inner = h.Value.(*model)
			}
			if calls != nil {
				*calls = append(*calls, concrete+":"+name)
			}
			return m, nil
		}
	}
	r.Register("Model", "PerceptronModel", build("PerceptronModel"))
	r.Register("Model", "LinearModel", build("LinearModel"))
	return r
}

func newTestInterp(sources modules.MapOpener) *Interpreter {
	var op modules.Opener
	if sources != nil {
		op = sources
	}
	return New(testRegistry(nil), op, 0)
}

func evalErr(t *testing.T, src string) *diagnostics.DiagnosticError {
	t.Helper()
	err := newTestInterp(nil).EvalString(src)
	if err == nil {
		t.Fatalf("expected error for %q", src)
	}
	derr, ok := err.(*diagnostics.DiagnosticError)
	if !ok {
		t.Fatalf("expected *diagnostics.DiagnosticError, got %T: %v", err, err)
	}
	return derr
}

func TestPrimitiveAssignments(t *testing.T) {
	in := newTestInterp(nil)
	err := in.EvalString(`
		bool b = true;
		int f = 1;
		double g = 2.4;
		string n = "foo";
	`)
	if err != nil {
		t.Fatal(err)
	}

	var b bool
	var f int64
	var g float64
	var n string
	for name, out := range map[string]interface{}{"b": &b, "f": &f, "g": &g, "n": &n} {
		found, berr := in.Env().Bind(name, out)
		if !found || berr != nil {
			t.Fatalf("Bind(%q) = %v, %v", name, found, berr)
		}
	}
	if b != true || f != 1 || g != 2.4 || n != "foo" {
		t.Fatalf("wrong values: %v %v %v %v", b, f, g, n)
	}
}

func TestTypeInference(t *testing.T) {
	in := newTestInterp(nil)
	if err := in.EvalString(`b = true; f = 6; g = 0.5; n = "x"; xs = {1, 2};`); err != nil {
		t.Fatal(err)
	}
	want := map[string]object.Kind{
		"b":  object.BOOL_OBJ,
		"f":  object.INT_OBJ,
		"g":  object.DOUBLE_OBJ,
		"n":  object.STRING_OBJ,
		"xs": object.SEQUENCE_OBJ,
	}
	for name, kind := range want {
		val, ok := in.Env().Get(name)
		if !ok || val.Kind() != kind {
			t.Fatalf("%s: want %s, got %v", name, kind, val)
		}
	}
}

func TestSequenceOrderPreserved(t *testing.T) {
	in := newTestInterp(nil)
	if err := in.EvalString(`int[] xs = {3, 1, 2};`); err != nil {
		t.Fatal(err)
	}
	var xs []int64
	if found, err := in.Env().Bind("xs", &xs); !found || err != nil {
		t.Fatalf("Bind failed: %v %v", found, err)
	}
	if len(xs) != 3 || xs[0] != 3 || xs[1] != 1 || xs[2] != 2 {
		t.Fatalf("order not preserved: %v", xs)
	}
}

func TestHeterogeneousSequence(t *testing.T) {
	derr := evalErr(t, `xs = {true, "x"};`)
	if derr.Code != diagnostics.ErrT002 {
		t.Fatalf("want T002, got %s: %v", derr.Code, derr)
	}
	// The error points at the offending element, not the brace.
	if derr.Line != 1 || derr.Column != 13 {
		t.Fatalf("wrong position %d:%d", derr.Line, derr.Column)
	}
}

func TestEmptySequenceNeedsSpecifier(t *testing.T) {
	in := newTestInterp(nil)
	if err := in.EvalString(`int[] xs = {};`); err != nil {
		t.Fatal(err)
	}
	if derr := evalErr(t, `xs = {};`); derr.Code != diagnostics.ErrT001 {
		t.Fatalf("want T001, got %s", derr.Code)
	}
}

func TestRebinding(t *testing.T) {
	in := newTestInterp(nil)
	if err := in.EvalString(`x = 1; x = 2;`); err != nil {
		t.Fatal(err)
	}
	var x int64
	if found, err := in.Env().Bind("x", &x); !found || err != nil || x != 2 {
		t.Fatalf("rebinding with same type failed: %v %v %v", found, err, x)
	}

	derr := evalErr(t, `x = 1; x = "s";`)
	if derr.Code != diagnostics.ErrT001 {
		t.Fatalf("want T001 for cross-type rebinding, got %s", derr.Code)
	}
}

func TestNoNumericWidening(t *testing.T) {
	if derr := evalErr(t, `double d = 1;`); derr.Code != diagnostics.ErrT001 {
		t.Fatalf("int literal must not widen to double, got %s", derr.Code)
	}
	if derr := evalErr(t, `int i = 1.5;`); derr.Code != diagnostics.ErrT001 {
		t.Fatalf("double literal must not narrow to int, got %s", derr.Code)
	}
}

func TestUnresolvedReference(t *testing.T) {
	derr := evalErr(t, `x = missing;`)
	if derr.Code != diagnostics.ErrR001 {
		t.Fatalf("want R001, got %s", derr.Code)
	}
	if !strings.Contains(derr.Message, "missing") {
		t.Fatalf("error does not name the identifier: %v", derr)
	}
}

func TestVariableReference(t *testing.T) {
	in := newTestInterp(nil)
	err := in.EvalString(`
		n = "shared";
		Model m = PerceptronModel(name(n));
		string n2 = n;
	`)
	if err != nil {
		t.Fatal(err)
	}
	var m *model
	if found, berr := in.Env().Bind("m", &m); !found || berr != nil {
		t.Fatalf("Bind(m) = %v, %v", found, berr)
	}
	if m.name != "shared" {
		t.Fatalf("variable reference not passed through spec: %q", m.name)
	}
}

func TestConstruction(t *testing.T) {
	in := newTestInterp(nil)
	err := in.EvalString(`Model m1 = PerceptronModel(name("foo"));`)
	if err != nil {
		t.Fatal(err)
	}
	val, ok := in.Env().Get("m1")
	if !ok {
		t.Fatal("m1 not bound")
	}
	h, ok := val.(*object.Handle)
	if !ok {
		t.Fatalf("m1 is %T", val)
	}
	if h.Type != "Model" || h.Concrete != "PerceptronModel" {
		t.Fatalf("wrong handle tags: %+v", h)
	}
}

func TestNestedSpecsResolveInnermostFirst(t *testing.T) {
	var calls []string
	in := New(testRegistry(&calls), nil, 0)
	err := in.EvalString(`m = PerceptronModel(name("outer"), inner(LinearModel(name("inner"))));`)
	if err != nil {
		t.Fatal(err)
	}
	if len(calls) != 2 || calls[0] != "LinearModel:inner" || calls[1] != "PerceptronModel:outer" {
		t.Fatalf("wrong resolution order: %v", calls)
	}

	var m *model
	if found, berr := in.Env().Bind("m", &m); !found || berr != nil {
		t.Fatal(berr)
	}
	if m.inner == nil || m.inner.name != "inner" {
		t.Fatalf("nested handle not wired: %+v", m)
	}
}

func TestInnerSpecFailureSkipsOuterConstructor(t *testing.T) {
	var calls []string
	in := New(testRegistry(&calls), nil, 0)
	err := in.EvalString(`m = PerceptronModel(name("outer"), inner(LinearModel(label("bad"))));`)
	if err == nil {
		t.Fatal("expected error")
	}
	derr := err.(*diagnostics.DiagnosticError)
	if derr.Code != diagnostics.ErrC001 {
		t.Fatalf("want C001, got %s", derr.Code)
	}
	if len(calls) != 0 {
		t.Fatalf("outer constructor must not run after inner failure: %v", calls)
	}
}

func TestConstructionErrorsSurface(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"unknown type", `m = NoSuchModel(name("x"));`, "unknown type"},
		{"missing param", `m = PerceptronModel();`, "missing required parameter"},
		{"extra param", `m = PerceptronModel(name("x"), color("red"));`, "unexpected parameter"},
		{"wrong kind", `m = PerceptronModel(name(7));`, "wrong parameter kind"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			derr := evalErr(t, tc.src)
			if derr.Code != diagnostics.ErrC001 {
				t.Fatalf("want C001, got %s", derr.Code)
			}
			if !strings.Contains(derr.Message, tc.want) {
				t.Fatalf("message %q does not mention %q", derr.Message, tc.want)
			}
		})
	}
}

func TestSpecNestingDepthLimit(t *testing.T) {
	var calls []string
	depth := 80
	var src strings.Builder
	src.WriteString("m = ")
	for n := 0; n < depth; n++ {
		src.WriteString("PerceptronModel(inner(")
	}
	src.WriteString(`LinearModel(name("leaf"))`)
	for n := 0; n < depth; n++ {
		src.WriteString("))")
	}
	src.WriteString(";")

	in := New(testRegistry(&calls), nil, 0)
	err := in.EvalString(src.String())
	if err == nil {
		t.Fatal("expected depth error")
	}
	derr := err.(*diagnostics.DiagnosticError)
	if derr.Code != diagnostics.ErrP003 {
		t.Fatalf("want P003, got %s: %v", derr.Code, derr)
	}
	if len(calls) != 0 {
		t.Fatalf("no constructor may run once the depth limit fires: %v", calls)
	}
}

func TestNullHandle(t *testing.T) {
	in := newTestInterp(nil)
	if err := in.EvalString(`Model m = null;`); err != nil {
		t.Fatal(err)
	}
	val, _ := in.Env().Get("m")
	h, ok := val.(*object.Handle)
	if !ok || !h.IsNull() || h.Type != "Model" {
		t.Fatalf("wrong null handle: %v", val)
	}

	if derr := evalErr(t, `m = null;`); derr.Code != diagnostics.ErrT001 {
		t.Fatalf("null without specifier: want T001, got %s", derr.Code)
	}
	if derr := evalErr(t, `int m = null;`); derr.Code != diagnostics.ErrT001 {
		t.Fatalf("null with primitive specifier: want T001, got %s", derr.Code)
	}
}

func TestSpecSequences(t *testing.T) {
	in := newTestInterp(nil)
	err := in.EvalString(`
		m2 = PerceptronModel(name("m2"));
		Model[] m_vec = {m2, LinearModel(name("bar"))};
	`)
	if err != nil {
		t.Fatal(err)
	}
	var ms []*model
	if found, berr := in.Env().Bind("m_vec", &ms); !found || berr != nil {
		t.Fatalf("Bind(m_vec) = %v, %v", found, berr)
	}
	if len(ms) != 2 || ms[0].name != "m2" || ms[1].name != "bar" {
		t.Fatalf("wrong models: %+v", ms)
	}
}

func TestSyntaxErrors(t *testing.T) {
	cases := []struct {
		src  string
		code diagnostics.ErrorCode
	}{
		{`x = 1`, diagnostics.ErrP002},                      // missing semicolon at EOF
		{`x = ;`, diagnostics.ErrP001},                      // missing value
		{`= 5;`, diagnostics.ErrP001},                       // missing name
		{`x = {1, 2;`, diagnostics.ErrP001},                 // bad list delimiter
		{`m = PerceptronModel(name("x");`, diagnostics.ErrP001}, // unbalanced spec
		{`m = PerceptronModel(name("x")`, diagnostics.ErrP002},  // EOF inside spec
		{`x = "unterminated;`, diagnostics.ErrL001},
		{`x = {1, {2}};`, diagnostics.ErrP001}, // nested braces are not values
		{`m = PerceptronModel(name("a") inner(null));`, diagnostics.ErrP001}, // missing comma
		{`m = PerceptronModel(name("a"),);`, diagnostics.ErrP001},            // trailing comma
		{`x @ 1;`, diagnostics.ErrL001}, // lexical error where '=' was expected
	}
	for _, tc := range cases {
		derr := evalErr(t, tc.src)
		if derr.Code != tc.code {
			t.Fatalf("%q: want %s, got %s (%v)", tc.src, tc.code, derr.Code, derr)
		}
	}
}

func TestErrorsCarryPosition(t *testing.T) {
	derr := evalErr(t, "x = 1;\ny = bad;")
	if derr.Line != 2 || derr.Column != 5 {
		t.Fatalf("wrong position %d:%d", derr.Line, derr.Column)
	}
	if derr.File != "" {
		t.Fatalf("string evaluation must report an empty file name, got %q", derr.File)
	}
}

func TestImportsShareEnvironment(t *testing.T) {
	sources := modules.MapOpener{
		"main.facto": `
			base = "prefix";
			import "lib.facto";
			string copy = fromLib;
		`,
		"lib.facto": `
			// Uses a variable the importer set before the import line.
			fromLib = base;
		`,
	}
	in := newTestInterp(sources)
	if err := in.EvalFile("main.facto"); err != nil {
		t.Fatal(err)
	}
	var copied string
	if found, err := in.Env().Bind("copy", &copied); !found || err != nil || copied != "prefix" {
		t.Fatalf("flat namespace broken: %v %v %q", found, err, copied)
	}
}

func TestImportCycle(t *testing.T) {
	sources := modules.MapOpener{
		"b.facto": `import "a.facto";`,
		"a.facto": `import "b.facto";`,
	}
	in := newTestInterp(sources)
	err := in.EvalFile("b.facto")
	if err == nil {
		t.Fatal("expected cycle error")
	}
	derr := err.(*diagnostics.DiagnosticError)
	if derr.Code != diagnostics.ErrI002 {
		t.Fatalf("want I002, got %s: %v", derr.Code, derr)
	}
	want := []string{"b.facto", "a.facto", "b.facto"}
	if len(derr.Chain) != 3 {
		t.Fatalf("wrong chain: %v", derr.Chain)
	}
	for i := range want {
		if derr.Chain[i] != want[i] {
			t.Fatalf("wrong chain %v, want %v", derr.Chain, want)
		}
	}
}

func TestImportNotFound(t *testing.T) {
	in := newTestInterp(modules.MapOpener{"main.facto": `import "gone.facto";`})
	err := in.EvalFile("main.facto")
	derr, ok := err.(*diagnostics.DiagnosticError)
	if !ok || derr.Code != diagnostics.ErrI001 {
		t.Fatalf("want I001, got %v", err)
	}
	if derr.File != "main.facto" {
		t.Fatalf("error not attributed to the importing file: %q", derr.File)
	}
}

func TestNestedImportErrorNamesInnerFile(t *testing.T) {
	sources := modules.MapOpener{
		"main.facto": `import "lib.facto";`,
		"lib.facto":  "x = 1;\ny = undefined_var;",
	}
	in := newTestInterp(sources)
	err := in.EvalFile("main.facto")
	derr, ok := err.(*diagnostics.DiagnosticError)
	if !ok || derr.Code != diagnostics.ErrR001 {
		t.Fatalf("want R001, got %v", err)
	}
	if derr.File != "lib.facto" || derr.Line != 2 {
		t.Fatalf("wrong attribution: %s:%d", derr.File, derr.Line)
	}
	if len(derr.Chain) != 2 || derr.Chain[0] != "main.facto" || derr.Chain[1] != "lib.facto" {
		t.Fatalf("wrong import chain: %v", derr.Chain)
	}
}

func TestSiblingImportAfterCycleRejection(t *testing.T) {
	// A rejected import must leave the stack consistent: the same file can
	// be imported again as a sibling once the first evaluation unwound.
	sources := modules.MapOpener{
		"main.facto": `import "lib.facto"; import "lib.facto";`,
		"lib.facto":  `v = 1;`,
	}
	in := newTestInterp(sources)
	if err := in.EvalFile("main.facto"); err != nil {
		t.Fatal(err)
	}
	var v int64
	if found, err := in.Env().Bind("v", &v); !found || err != nil || v != 1 {
		t.Fatalf("sibling import failed: %v %v %v", found, err, v)
	}
}
