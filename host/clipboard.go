package host

import (
	"sync"

	"github.com/atotto/clipboard"

	"github.com/wippyai/browsher/errors"
)

// ClipboardBackend is the system clipboard seam.
type ClipboardBackend interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// SystemClipboard uses the platform clipboard tools (pbcopy, xclip,
// xsel, wl-copy, clip.exe).
type SystemClipboard struct{}

func (SystemClipboard) ReadAll() (string, error) {
	if clipboard.Unsupported {
		return "", errors.InvalidState("clipboard read", "unsupported")
	}
	return clipboard.ReadAll()
}

func (SystemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return errors.InvalidState("clipboard write", "unsupported")
	}
	return clipboard.WriteAll(text)
}

// MemoryClipboard keeps the clipboard in process. Used on headless hosts
// and in tests.
type MemoryClipboard struct {
	mu   sync.Mutex
	text string
}

func (m *MemoryClipboard) ReadAll() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}

func (m *MemoryClipboard) WriteAll(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	return nil
}

// Clipboard lets scripts copy generated URLs.
type Clipboard struct {
	backend ClipboardBackend
}

// NewClipboard wraps backend; nil selects the system clipboard, falling
// back to memory when the platform has no clipboard tool.
func NewClipboard(backend ClipboardBackend) *Clipboard {
	if backend == nil {
		if clipboard.Unsupported {
			Logger().Warn("system clipboard unsupported, using in-memory clipboard")
			backend = &MemoryClipboard{}
		} else {
			backend = SystemClipboard{}
		}
	}
	return &Clipboard{backend: backend}
}

func (*Clipboard) Namespace() string { return "clipboard" }

// Write replaces the clipboard contents.
func (c *Clipboard) Write(text string) error {
	return c.backend.WriteAll(text)
}

// Read returns the clipboard contents.
func (c *Clipboard) Read() (string, error) {
	return c.backend.ReadAll()
}
