// Package evaluator implements the statement interpreter: it drives the
// lexer over a source, recognizes assignment and import statements,
// performs type checking and inference, routes construction specs through
// the factory resolver, and commits bindings into a shared Environment.
package evaluator

import (
	"io"

	"github.com/facto-lang/facto/internal/diagnostics"
	"github.com/facto-lang/facto/internal/factory"
	"github.com/facto-lang/facto/internal/lexer"
	"github.com/facto-lang/facto/internal/modules"
	"github.com/facto-lang/facto/internal/token"
)

// Interpreter evaluates facto sources. All files evaluated through one
// Interpreter, including imports, share a single flat Environment: an
// imported file sees variables set before the import line, and variables
// it sets remain visible afterwards.
type Interpreter struct {
	env      *Environment
	registry factory.Resolver
	imports  *modules.Resolver
	debug    int
}

func New(registry factory.Resolver, opener modules.Opener, debug int) *Interpreter {
	env := NewEnvironment()
	env.SetDebug(debug)
	return &Interpreter{
		env:      env,
		registry: registry,
		imports:  modules.NewResolver(opener),
		debug:    debug,
	}
}

func (i *Interpreter) Env() *Environment { return i.env }

// Types returns the constructible type names known to the registry.
func (i *Interpreter) Types() []string {
	if i.registry == nil {
		return nil
	}
	return i.registry.Known()
}

// EvalString evaluates statements from an in-memory string.
func (i *Interpreter) EvalString(src string) error {
	if err := i.run(newStream(src, "")); err != nil {
		return err
	}
	return nil
}

// Eval evaluates statements from an open byte stream.
func (i *Interpreter) Eval(r io.Reader) error {
	src, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return i.EvalString(string(src))
}

// EvalFile resolves, opens and evaluates the named file. The file is
// pushed onto the import stack so that its own imports resolve relative
// to it, and its stream is closed before EvalFile returns.
func (i *Interpreter) EvalFile(path string) error {
	if err := i.evalFile(path, token.Token{Line: 1, Column: 1}); err != nil {
		return err
	}
	return nil
}

func (i *Interpreter) evalFile(path string, tok token.Token) *diagnostics.DiagnosticError {
	name, rc, derr := i.imports.Resolve(path, tok)
	if derr != nil {
		return derr
	}

	if derr := i.imports.Enter(name, tok); derr != nil {
		rc.Close()
		return derr
	}
	defer i.imports.Leave()

	src, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return i.imports.Decorate(diagnostics.NewError(diagnostics.ErrI001, tok, path, name, name))
	}

	return i.run(newStream(string(src), name))
}

// stream is the token cursor for one source. Each file in an import chain
// has its own stream; they all commit into the interpreter's Environment.
type stream struct {
	file string
	lex  *lexer.Lexer
	cur  token.Token
	peek token.Token
}

func newStream(src, file string) *stream {
	st := &stream{file: file, lex: lexer.New(src)}
	st.cur = st.lex.NextToken()
	st.peek = st.lex.NextToken()
	return st
}

func (st *stream) next() {
	st.cur = st.peek
	st.peek = st.lex.NextToken()
}

// run consumes import and assignment statements to end of stream,
// halting at the first error.
func (i *Interpreter) run(st *stream) *diagnostics.DiagnosticError {
	for st.cur.Type != token.EOF {
		var err *diagnostics.DiagnosticError
		switch st.cur.Type {
		case token.ILLEGAL:
			err = i.fail(st, diagnostics.NewError(diagnostics.ErrL001, st.cur, st.cur.Literal))
		case token.IMPORT:
			err = i.evalImport(st)
		case token.IDENT:
			err = i.statement(st)
		default:
			err = i.fail(st, diagnostics.NewError(diagnostics.ErrP001, st.cur,
				"a statement", string(st.cur.Type), st.cur.Lexeme))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// evalImport handles `import "<path>";`, recursing into the imported file
// with the shared environment.
func (i *Interpreter) evalImport(st *stream) *diagnostics.DiagnosticError {
	st.next() // consume 'import'
	if st.cur.Type != token.STRING {
		return i.fail(st, diagnostics.NewError(diagnostics.ErrP001, st.cur,
			"a quoted import path", string(st.cur.Type), st.cur.Lexeme))
	}
	pathTok := st.cur
	path := pathTok.Literal.(string)
	st.next()
	if err := i.expect(st, token.SEMICOLON); err != nil {
		return err
	}

	if err := i.evalFile(path, pathTok); err != nil {
		return i.fail(st, err)
	}
	return nil
}

// statement handles `[type_spec] IDENT '=' value ';'`.
func (i *Interpreter) statement(st *stream) *diagnostics.DiagnosticError {
	spec, err := i.typeSpecifier(st)
	if err != nil {
		return err
	}

	if st.cur.Type != token.IDENT {
		return i.fail(st, diagnostics.NewError(diagnostics.ErrP001, st.cur,
			"a variable name", string(st.cur.Type), st.cur.Lexeme))
	}
	nameTok := st.cur
	st.next()

	if err := i.expect(st, token.ASSIGN); err != nil {
		return err
	}

	val, err := i.parseValue(st, spec, 0)
	if err != nil {
		return err
	}

	if err := i.expect(st, token.SEMICOLON); err != nil {
		return err
	}

	if serr := i.env.Set(nameTok.Lexeme, val); serr != nil {
		return i.fail(st, diagnostics.NewError(diagnostics.ErrT001, nameTok, serr.Error()))
	}
	return nil
}

// typeSpecifier parses an optional leading type specifier. The statement
// starts with one exactly when the first identifier is followed by another
// identifier or by '[]'.
func (i *Interpreter) typeSpecifier(st *stream) (*typeSpec, *diagnostics.DiagnosticError) {
	if st.cur.Type != token.IDENT {
		return nil, nil
	}
	switch st.peek.Type {
	case token.IDENT:
		spec := &typeSpec{Name: st.cur.Lexeme}
		st.next()
		return spec, nil
	case token.LBRACKET:
		spec := &typeSpec{Name: st.cur.Lexeme, Seq: true}
		st.next() // onto '['
		st.next() // onto ']'
		if st.cur.Type != token.RBRACKET {
			return nil, i.fail(st, diagnostics.NewError(diagnostics.ErrP001, st.cur,
				"']'", string(st.cur.Type), st.cur.Lexeme))
		}
		st.next()
		return spec, nil
	default:
		return nil, nil
	}
}

func (i *Interpreter) expect(st *stream, t token.TokenType) *diagnostics.DiagnosticError {
	if st.cur.Type != t {
		switch st.cur.Type {
		case token.EOF:
			return i.fail(st, diagnostics.NewError(diagnostics.ErrP002, st.cur, string(t)))
		case token.ILLEGAL:
			return i.fail(st, diagnostics.NewError(diagnostics.ErrL001, st.cur, st.cur.Literal))
		}
		return i.fail(st, diagnostics.NewError(diagnostics.ErrP001, st.cur,
			"'"+string(t)+"'", string(st.cur.Type), st.cur.Lexeme))
	}
	st.next()
	return nil
}

// fail stamps an error with the stream's file and the import chain before
// it propagates. Fields already set by a nested evaluation are kept.
func (i *Interpreter) fail(st *stream, err *diagnostics.DiagnosticError) *diagnostics.DiagnosticError {
	if err.File == "" {
		err.File = st.file
	}
	return i.imports.Decorate(err)
}
