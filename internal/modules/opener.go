package modules

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// Opener builds readable streams for named sources. The default opens
// local files; hosts substitute in-memory bundles or virtual filesystems
// without touching the language or the parser.
type Opener interface {
	Open(name string) (io.ReadCloser, error)
}

// OSOpener opens local files in text mode.
type OSOpener struct{}

func (OSOpener) Open(name string) (io.ReadCloser, error) {
	return os.Open(name)
}

// MapOpener serves sources from an in-memory map of name to content.
// Used by tests and by hosts that bundle their configuration.
type MapOpener map[string]string

func (m MapOpener) Open(name string) (io.ReadCloser, error) {
	src, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("no source named %q", name)
	}
	return io.NopCloser(bytes.NewReader([]byte(src))), nil
}
