package ffmpeg

import (
	"strings"
	"sync"
)

// maxLineBytes caps a single buffered stderr line.
const maxLineBytes = 64 * 1024

// lineWriter splits a byte stream into lines ending at \r or \n. ffmpeg
// rewrites its status line with \r, so both count as terminators. Write and
// flush may be called from different goroutines.
type lineWriter struct {
	mu     sync.Mutex
	onLine func(string)
	buf    []byte
}

func newLineWriter(onLine func(string)) *lineWriter {
	return &lineWriter{onLine: onLine}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, b := range p {
		if b == '\r' || b == '\n' {
			w.emit()
			continue
		}
		if len(w.buf) < maxLineBytes {
			w.buf = append(w.buf, b)
		}
	}
	return len(p), nil
}

// flush emits any trailing unterminated line.
func (w *lineWriter) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.emit()
}

func (w *lineWriter) emit() {
	if len(w.buf) == 0 {
		return
	}
	line := strings.TrimSpace(string(w.buf))
	w.buf = w.buf[:0]
	if line != "" {
		w.onLine(line)
	}
}

// tailBuffer keeps the last n lines.
type tailBuffer struct {
	mu    sync.Mutex
	lines []string
	next  int
	full  bool
}

func newTailBuffer(n int) *tailBuffer {
	return &tailBuffer{lines: make([]string, n)}
}

func (t *tailBuffer) add(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines[t.next] = line
	t.next = (t.next + 1) % len(t.lines)
	if t.next == 0 {
		t.full = true
	}
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var ordered []string
	if t.full {
		ordered = append(ordered, t.lines[t.next:]...)
	}
	ordered = append(ordered, t.lines[:t.next]...)
	return strings.Join(ordered, "\n")
}
