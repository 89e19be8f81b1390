package evaluator

import (
	"github.com/facto-lang/facto/internal/config"
	"github.com/facto-lang/facto/internal/diagnostics"
	"github.com/facto-lang/facto/internal/factory"
	"github.com/facto-lang/facto/internal/object"
	"github.com/facto-lang/facto/internal/token"
)

// typeSpec is a parsed type specifier. It constrains value parsing and is
// discarded once the statement has been committed.
type typeSpec struct {
	Name string // "bool", "int", "double", "string" or an object type name
	Seq  bool
}

func (ts *typeSpec) prim() bool {
	switch ts.Name {
	case config.BoolTypeName, config.IntTypeName, config.DoubleTypeName, config.StringTypeName:
		return true
	}
	return false
}

func (ts *typeSpec) typeName() string {
	if ts.Seq {
		return ts.Name + "[]"
	}
	return ts.Name
}

// elem returns the scalar specifier for one element of a sequence
// specifier.
func (ts *typeSpec) elem() *typeSpec {
	return &typeSpec{Name: ts.Name}
}

// parseValue parses one value expression. When expected is non-nil the
// parse is constrained: mismatches fail immediately. When it is nil the
// value's own discriminant becomes the effective type.
func (i *Interpreter) parseValue(st *stream, expected *typeSpec, depth int) (object.Object, *diagnostics.DiagnosticError) {
	switch st.cur.Type {
	case token.LBRACE:
		return i.parseSequence(st, expected, depth)

	case token.TRUE, token.FALSE:
		val := &object.Boolean{Value: st.cur.Literal.(bool)}
		return i.literal(st, val, expected)
	case token.INT:
		val := &object.Integer{Value: st.cur.Literal.(int64)}
		return i.literal(st, val, expected)
	case token.DOUBLE:
		val := &object.Double{Value: st.cur.Literal.(float64)}
		return i.literal(st, val, expected)
	case token.STRING:
		val := &object.String{Value: st.cur.Literal.(string)}
		return i.literal(st, val, expected)

	case token.NULL:
		tok := st.cur
		if expected == nil || expected.Seq || expected.prim() {
			return nil, i.fail(st, diagnostics.NewError(diagnostics.ErrT001, tok,
				"null requires an object-typed specifier"))
		}
		st.next()
		return &object.Handle{Type: expected.Name}, nil

	case token.IDENT:
		if st.peek.Type == token.LPAREN {
			return i.parseSpecCall(st, expected, depth)
		}
		return i.variableRef(st, expected)

	case token.ILLEGAL:
		return nil, i.fail(st, diagnostics.NewError(diagnostics.ErrL001, st.cur, st.cur.Literal))
	case token.EOF:
		return nil, i.fail(st, diagnostics.NewError(diagnostics.ErrP002, st.cur, ";"))
	default:
		return nil, i.fail(st, diagnostics.NewError(diagnostics.ErrP001, st.cur,
			"a value", string(st.cur.Type), st.cur.Lexeme))
	}
}

// literal commits a scalar literal, checking it against the expected kind.
// Numeric kinds never widen: an int literal does not satisfy a double
// specifier and vice versa.
func (i *Interpreter) literal(st *stream, val object.Object, expected *typeSpec) (object.Object, *diagnostics.DiagnosticError) {
	tok := st.cur
	if expected != nil {
		if expected.Seq {
			return nil, i.fail(st, diagnostics.NewError(diagnostics.ErrT001, tok,
				"scalar "+val.TypeName()+" literal assigned to sequence type "+expected.typeName()))
		}
		if expected.Name != val.TypeName() {
			return nil, i.fail(st, diagnostics.NewError(diagnostics.ErrT001, tok,
				val.TypeName()+" literal assigned to "+expected.Name))
		}
	}
	st.next()
	return val, nil
}

// variableRef resolves a bare identifier against the environment.
func (i *Interpreter) variableRef(st *stream, expected *typeSpec) (object.Object, *diagnostics.DiagnosticError) {
	tok := st.cur
	val, ok := i.env.Get(tok.Lexeme)
	if !ok {
		return nil, i.fail(st, diagnostics.NewError(diagnostics.ErrR001, tok, tok.Lexeme))
	}
	if expected != nil {
		if err := i.checkAgainst(st, tok, val, expected); err != nil {
			return nil, err
		}
	}
	st.next()
	return val, nil
}

// checkAgainst verifies a resolved value against a specifier. Object
// values match when the specifier names either their base type or their
// concrete constructor.
func (i *Interpreter) checkAgainst(st *stream, tok token.Token, val object.Object, expected *typeSpec) *diagnostics.DiagnosticError {
	if expected.Seq {
		seq, ok := val.(*object.Sequence)
		if !ok || seq.Elem != expected.Name {
			return i.fail(st, diagnostics.NewError(diagnostics.ErrT001, tok,
				val.TypeName()+" value assigned to "+expected.typeName()))
		}
		return nil
	}
	if h, ok := val.(*object.Handle); ok {
		if !expected.prim() && (h.Type == expected.Name || h.Concrete == expected.Name) {
			return nil
		}
	} else if val.TypeName() == expected.Name {
		return nil
	}
	return i.fail(st, diagnostics.NewError(diagnostics.ErrT001, tok,
		val.TypeName()+" value assigned to "+expected.typeName()))
}

// parseSequence parses `{ ... }` into a homogeneous Sequence. With a
// sequence specifier every element is parsed under the element kind; with
// no specifier the first element fixes the kind and any later deviation is
// a heterogeneity error at the deviating element.
func (i *Interpreter) parseSequence(st *stream, expected *typeSpec, depth int) (object.Object, *diagnostics.DiagnosticError) {
	open := st.cur
	if expected != nil && !expected.Seq {
		return nil, i.fail(st, diagnostics.NewError(diagnostics.ErrT001, open,
			"sequence value assigned to scalar type "+expected.Name))
	}
	st.next() // consume '{'

	var elemSpec *typeSpec
	if expected != nil {
		elemSpec = expected.elem()
	}

	seq := &object.Sequence{}
	if elemSpec != nil {
		seq.Elem = elemSpec.Name
	}

	if st.cur.Type == token.RBRACE {
		if elemSpec == nil {
			return nil, i.fail(st, diagnostics.NewError(diagnostics.ErrT001, open,
				"cannot infer the element type of an empty sequence without a specifier"))
		}
		st.next()
		return seq, nil
	}

	for {
		if st.cur.Type == token.LBRACE {
			return nil, i.fail(st, diagnostics.NewError(diagnostics.ErrP001, st.cur,
				"a literal, spec or variable", string(st.cur.Type), st.cur.Lexeme))
		}
		elemTok := st.cur
		el, err := i.parseValue(st, elemSpec, depth)
		if err != nil {
			return nil, err
		}
		if seq.Elem == "" {
			// First element fixes the sequence kind.
			seq.Elem = el.TypeName()
		} else if elemSpec == nil && el.TypeName() != seq.Elem {
			return nil, i.fail(st, diagnostics.NewError(diagnostics.ErrT002, elemTok,
				len(seq.Elements), el.TypeName(), seq.Elem))
		}
		seq.Elements = append(seq.Elements, el)

		switch st.cur.Type {
		case token.COMMA:
			st.next()
		case token.RBRACE:
			st.next()
			return seq, nil
		case token.EOF:
			return nil, i.fail(st, diagnostics.NewError(diagnostics.ErrP002, st.cur, "}"))
		default:
			return nil, i.fail(st, diagnostics.NewError(diagnostics.ErrP001, st.cur,
				"',' or '}'", string(st.cur.Type), st.cur.Lexeme))
		}
	}
}

// parseSpecCall parses `Type(param(value), ...)` and resolves it through
// the factory. Nested specs resolve depth-first: a failure in an inner
// spec aborts the statement before the outer constructor is invoked.
func (i *Interpreter) parseSpecCall(st *stream, expected *typeSpec, depth int) (object.Object, *diagnostics.DiagnosticError) {
	if depth >= config.MaxSpecDepth {
		return nil, i.fail(st, diagnostics.NewError(diagnostics.ErrP003, st.cur, config.MaxSpecDepth))
	}

	specTok := st.cur
	typeName := specTok.Lexeme
	st.next() // onto '('
	st.next() // past '('

	var params factory.Params
	for st.cur.Type != token.RPAREN {
		if st.cur.Type == token.EOF {
			return nil, i.fail(st, diagnostics.NewError(diagnostics.ErrP002, st.cur, ")"))
		}
		if st.cur.Type != token.IDENT {
			return nil, i.fail(st, diagnostics.NewError(diagnostics.ErrP001, st.cur,
				"a parameter name", string(st.cur.Type), st.cur.Lexeme))
		}
		paramName := st.cur.Lexeme
		st.next()
		if err := i.expect(st, token.LPAREN); err != nil {
			return nil, err
		}
		val, err := i.parseValue(st, nil, depth+1)
		if err != nil {
			return nil, err
		}
		if st.cur.Type != token.RPAREN {
			if st.cur.Type == token.EOF {
				return nil, i.fail(st, diagnostics.NewError(diagnostics.ErrP002, st.cur, ")"))
			}
			return nil, i.fail(st, diagnostics.NewError(diagnostics.ErrP001, st.cur,
				"')'", string(st.cur.Type), st.cur.Lexeme))
		}
		st.next() // past param ')'
		params = append(params, factory.Param{Name: paramName, Value: val})

		switch st.cur.Type {
		case token.COMMA:
			st.next()
			if st.cur.Type == token.RPAREN {
				return nil, i.fail(st, diagnostics.NewError(diagnostics.ErrP001, st.cur,
					"a parameter name", string(st.cur.Type), st.cur.Lexeme))
			}
		case token.RPAREN:
		case token.EOF:
			return nil, i.fail(st, diagnostics.NewError(diagnostics.ErrP002, st.cur, ")"))
		default:
			return nil, i.fail(st, diagnostics.NewError(diagnostics.ErrP001, st.cur,
				"',' or ')'", string(st.cur.Type), st.cur.Lexeme))
		}
	}
	st.next() // past spec ')'

	if i.registry == nil {
		return nil, i.fail(st, diagnostics.NewError(diagnostics.ErrC001, specTok,
			typeName, "no construction resolver installed"))
	}
	handle, cerr := i.registry.Construct(typeName, params)
	if cerr != nil {
		return nil, i.fail(st, diagnostics.NewError(diagnostics.ErrC001, specTok, typeName, cerr.Error()))
	}

	if expected != nil {
		if err := i.checkAgainst(st, specTok, handle, expected); err != nil {
			return nil, err
		}
	}
	return handle, nil
}
