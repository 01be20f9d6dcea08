package golog

import (
	"io"
	"sync"
)

type Handler interface {
	Log(e *Entry) error
}

type HandlerFunc func(e *Entry) error

func (h HandlerFunc) Log(e *Entry) error {
	return h(e)
}

// IOHandler writes WARN and more severe entries to err and everything else to out.
func IOHandler(out, err io.Writer, fmtr Formatter) Handler {
	return &ioHandler{out: out, err: err, fmtr: fmtr}
}

// WriterHandler writes every entry to the one writer.
func WriterHandler(w io.Writer, fmtr Formatter) Handler {
	return &ioHandler{out: w, err: w, fmtr: fmtr}
}

type ioHandler struct {
	mu       sync.Mutex
	out, err io.Writer
	fmtr     Formatter
}

func (o *ioHandler) Log(e *Entry) error {
	m := o.fmtr.Format(e)
	w := o.out
	if e.Lvl <= WARN {
		w = o.err
	}
	o.mu.Lock()
	_, err := w.Write(m)
	o.mu.Unlock()
	return err
}

// CaptureHandler keeps every entry in memory. It's meant for tests.
type CaptureHandler struct {
	mu      sync.Mutex
	entries []*Entry
}

func (h *CaptureHandler) Log(e *Entry) error {
	h.mu.Lock()
	h.entries = append(h.entries, e)
	h.mu.Unlock()
	return nil
}

// Entries returns a copy of the captured entries.
func (h *CaptureHandler) Entries() []*Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*Entry(nil), h.entries...)
}

// Count returns the number of captured entries at the given level.
func (h *CaptureHandler) Count(lvl Level) int {
	n := 0
	for _, e := range h.Entries() {
		if e.Lvl == lvl {
			n++
		}
	}
	return n
}
