package evaluator

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/facto-lang/facto/internal/diagnostics"
	"github.com/facto-lang/facto/internal/object"
)

func TestBindNotFoundIsBenign(t *testing.T) {
	env := NewEnvironment()
	var out int64
	found, err := env.Bind("nope", &out)
	if found || err != nil {
		t.Fatalf("unbound name must be (false, nil), got (%v, %v)", found, err)
	}
}

func TestBindMismatchIsDistinctFromNotFound(t *testing.T) {
	env := NewEnvironment()
	if err := env.Set("s", &object.String{Value: "x"}); err != nil {
		t.Fatal(err)
	}
	var out int64
	found, err := env.Bind("s", &out)
	if !found {
		t.Fatal("mismatch must still report the binding as found")
	}
	if err == nil {
		t.Fatal("mismatch must surface an error")
	}
	derr, ok := err.(*diagnostics.DiagnosticError)
	if !ok || derr.Code != diagnostics.ErrT003 {
		t.Fatalf("want T003, got %v", err)
	}
}

func TestBindPrimitiveSlices(t *testing.T) {
	env := NewEnvironment()
	seq := &object.Sequence{Elem: "double", Elements: []object.Object{
		&object.Double{Value: 0.5},
		&object.Double{Value: 1.5},
	}}
	if err := env.Set("ws", seq); err != nil {
		t.Fatal(err)
	}
	var ws []float64
	if found, err := env.Bind("ws", &ws); !found || err != nil {
		t.Fatalf("Bind failed: %v %v", found, err)
	}
	if len(ws) != 2 || ws[0] != 0.5 || ws[1] != 1.5 {
		t.Fatalf("wrong slice: %v", ws)
	}

	var wrong []string
	if _, err := env.Bind("ws", &wrong); err == nil {
		t.Fatal("double sequence must not bind to []string")
	}
}

func TestBindIntRange(t *testing.T) {
	env := NewEnvironment()
	if err := env.Set("big", &object.Integer{Value: math.MaxInt64}); err != nil {
		t.Fatal(err)
	}

	var out int
	found, err := env.Bind("big", &out)
	if !found {
		t.Fatal("binding exists")
	}
	if strconv.IntSize == 64 {
		if err != nil || int64(out) != math.MaxInt64 {
			t.Fatalf("in-range value must bind: %v %v", err, out)
		}
	} else if err == nil {
		t.Fatal("out-of-range value must not truncate into int")
	}
}

func TestSetRejectsTypeChange(t *testing.T) {
	env := NewEnvironment()
	if err := env.Set("x", &object.Integer{Value: 1}); err != nil {
		t.Fatal(err)
	}
	if err := env.Set("x", &object.Integer{Value: 2}); err != nil {
		t.Fatalf("same-type rebinding must succeed: %v", err)
	}
	if err := env.Set("x", &object.Boolean{Value: true}); err == nil {
		t.Fatal("cross-type rebinding must fail")
	}

	if err := env.Set("m", &object.Handle{Type: "Model", Concrete: "A", Value: 1}); err != nil {
		t.Fatal(err)
	}
	if err := env.Set("m", &object.Handle{Type: "Optimizer", Concrete: "B", Value: 2}); err == nil {
		t.Fatal("handle rebinding must keep the base type")
	}
}

func TestNamesAndPrint(t *testing.T) {
	env := NewEnvironment()
	env.Set("b", &object.Boolean{Value: true})
	env.Set("a", &object.Integer{Value: 7})

	names := env.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("names not sorted: %v", names)
	}

	var buf bytes.Buffer
	env.Print(&buf)
	out := buf.String()
	if !strings.Contains(out, "int a = 7;") || !strings.Contains(out, "bool b = true;") {
		t.Fatalf("unexpected Print output:\n%s", out)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	env := NewEnvironment()
	env.Set("a", &object.Integer{Value: 1})
	snap := env.Snapshot()
	snap["b"] = &object.Integer{Value: 2}
	if _, ok := env.Get("b"); ok {
		t.Fatal("snapshot mutation leaked into the environment")
	}
}
