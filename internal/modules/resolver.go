// Package modules resolves import paths to readable streams and tracks
// the stack of files currently being evaluated for cycle detection and
// diagnostics.
package modules

import (
	"io"
	"os"
	"path/filepath"

	"github.com/facto-lang/facto/internal/config"
	"github.com/facto-lang/facto/internal/diagnostics"
	"github.com/facto-lang/facto/internal/token"
)

// Resolver locates imported files and maintains the import stack. One
// Resolver serves one interpreter; it is not safe for concurrent use and
// does not need to be.
type Resolver struct {
	opener   Opener
	stack    []string
	maxDepth int
}

func NewResolver(opener Opener) *Resolver {
	if opener == nil {
		opener = OSOpener{}
	}
	return &Resolver{opener: opener, maxDepth: config.MaxImportDepth}
}

// Opener returns the stream-opening capability in use.
func (r *Resolver) Opener() Opener { return r.opener }

// Resolve opens the stream for an import path. Absolute paths are tried
// directly with no fallback. Relative paths are tried against the
// directory of the file currently being evaluated first, then exactly as
// written. A path without the source extension is also tried with it
// appended. The returned name is canonical and the stream is open; the
// caller owns closing it.
func (r *Resolver) Resolve(path string, tok token.Token) (string, io.ReadCloser, *diagnostics.DiagnosticError) {
	if filepath.IsAbs(path) {
		if name, rc, ok := r.open(path); ok {
			return name, rc, nil
		}
		return "", nil, r.notFound(tok, path, path, path)
	}

	first := path
	if top := r.Current(); top != "" {
		first = filepath.Join(filepath.Dir(top), path)
	}
	if name, rc, ok := r.open(first); ok {
		return name, rc, nil
	}
	if first != path {
		if name, rc, ok := r.open(path); ok {
			return name, rc, nil
		}
	}
	return "", nil, r.notFound(tok, path, first, path)
}

// open tries name as written, then with the source extension appended
// when name does not already carry it.
func (r *Resolver) open(name string) (string, io.ReadCloser, bool) {
	if rc, err := r.opener.Open(name); err == nil {
		return canonical(name), rc, true
	}
	if filepath.Ext(name) != config.SourceFileExt {
		withExt := name + config.SourceFileExt
		if rc, err := r.opener.Open(withExt); err == nil {
			return canonical(withExt), rc, true
		}
	}
	return "", nil, false
}

// Enter pushes name onto the import stack after checking for a cycle and
// for excessive depth. Leave must be called once per successful Enter,
// including on error paths of the nested evaluation.
func (r *Resolver) Enter(name string, tok token.Token) *diagnostics.DiagnosticError {
	if len(r.stack) >= r.maxDepth {
		return r.decorate(diagnostics.NewError(diagnostics.ErrI003, tok, r.maxDepth))
	}
	for _, f := range r.stack {
		if f == name {
			err := diagnostics.NewError(diagnostics.ErrI002, tok, name)
			err.Chain = append(append([]string{}, r.stack...), name)
			return err
		}
	}
	r.stack = append(r.stack, name)
	return nil
}

func (r *Resolver) Leave() {
	if len(r.stack) > 0 {
		r.stack = r.stack[:len(r.stack)-1]
	}
}

// Current returns the file on top of the import stack, or "" when
// evaluating a raw string or stream.
func (r *Resolver) Current() string {
	if len(r.stack) == 0 {
		return ""
	}
	return r.stack[len(r.stack)-1]
}

// Chain returns a copy of the import stack, outermost file first.
func (r *Resolver) Chain() []string {
	return append([]string{}, r.stack...)
}

// Decorate fills err with the current file and import chain context.
func (r *Resolver) Decorate(err *diagnostics.DiagnosticError) *diagnostics.DiagnosticError {
	return r.decorate(err)
}

func (r *Resolver) decorate(err *diagnostics.DiagnosticError) *diagnostics.DiagnosticError {
	if err.File == "" {
		err.File = r.Current()
	}
	if len(err.Chain) == 0 && len(r.stack) > 1 {
		err.Chain = r.Chain()
	}
	return err
}

func (r *Resolver) notFound(tok token.Token, path, first, second string) *diagnostics.DiagnosticError {
	return r.decorate(diagnostics.NewError(diagnostics.ErrI001, tok, path, first, second))
}

// canonical normalizes a resolved name so that one file always pushes the
// same identifier onto the import stack. Names that exist on disk become
// absolute; virtual names (in-memory openers) are cleaned as written.
func canonical(name string) string {
	if _, err := os.Stat(name); err == nil {
		if abs, err := filepath.Abs(name); err == nil {
			return filepath.Clean(abs)
		}
	}
	return filepath.Clean(name)
}
