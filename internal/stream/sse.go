package stream

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/r3labs/sse/v2"
)

// Event is one dispatched server-sent event.
type Event struct {
	Name string
	Data string
	ID   string
}

const (
	defaultEventName = "message"
	maxEventSize     = 1 << 20
)

// Reader splits a text/event-stream body into events. Block framing is done by
// sse.EventStreamReader; Reader parses the fields of each block.
type Reader struct {
	body   *tailReader
	events *sse.EventStreamReader
	lastID string

	// Blocks still buffered once the body hit EOF.
	queue     [][]byte
	drained   bool
	truncated bool
}

func NewReader(r io.Reader) *Reader {
	body := &tailReader{r: r}
	return &Reader{body: body, events: sse.NewEventStreamReader(body, maxEventSize)}
}

// Next returns the next event carrying data. A clean end of stream returns io.EOF;
// a stream cut inside an event returns io.ErrUnexpectedEOF.
func (r *Reader) Next() (Event, error) {
	for {
		block, err := r.nextBlock()
		if err != nil {
			return Event{}, err
		}
		if ev, ok := r.parse(block); ok {
			return ev, nil
		}
	}
}

func (r *Reader) nextBlock() ([]byte, error) {
	if len(r.queue) == 0 && !r.body.eof {
		raw, err := r.events.ReadEvent()
		if err != nil {
			return nil, err
		}
		block := bytes.Clone(raw)
		if !r.body.eof {
			return block, nil
		}
		r.queue = append(r.queue, block)
	}
	if r.body.eof && !r.drained {
		r.drain()
	}
	if len(r.queue) > 0 {
		block := r.queue[0]
		r.queue = r.queue[1:]
		return block, nil
	}
	if r.truncated {
		r.truncated = false
		return nil, io.ErrUnexpectedEOF
	}
	return nil, io.EOF
}

// drain buffers what is left after EOF. The final block only counts when the
// body ended on a blank line.
func (r *Reader) drain() {
	r.drained = true
	for {
		raw, err := r.events.ReadEvent()
		if err != nil {
			break
		}
		r.queue = append(r.queue, bytes.Clone(raw))
	}
	n := len(r.queue)
	if n == 0 || r.body.terminated() {
		return
	}
	last := r.queue[n-1]
	r.queue = r.queue[:n-1]
	if hasFields(last) {
		r.truncated = true
	}
}

// parse applies the fields of one block. Blocks without data are skipped but
// still update the last event ID.
func (r *Reader) parse(block []byte) (Event, bool) {
	var (
		name    string
		data    []string
		hasData bool
	)
	for _, line := range splitLines(block) {
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		field, value, found := strings.Cut(line, ":")
		if found {
			value = strings.TrimPrefix(value, " ")
		}
		switch field {
		case "event":
			name = value
		case "data":
			data = append(data, value)
			hasData = true
		case "id":
			if !strings.ContainsRune(value, 0) {
				r.lastID = value
			}
		}
	}
	if !hasData {
		return Event{}, false
	}
	if name == "" {
		name = defaultEventName
	}
	return Event{Name: name, Data: strings.Join(data, "\n"), ID: r.lastID}, true
}

func splitLines(block []byte) []string {
	s := strings.ReplaceAll(string(block), "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Split(s, "\n")
}

// hasFields reports whether a block holds anything besides blank lines and comments.
func hasFields(block []byte) bool {
	for _, line := range splitLines(block) {
		if line != "" && !strings.HasPrefix(line, ":") {
			return true
		}
	}
	return false
}

// tailReader remembers whether the body reached EOF and its last few bytes.
type tailReader struct {
	r    io.Reader
	tail []byte
	eof  bool
}

func (t *tailReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if n > 0 {
		t.tail = append(t.tail, p[:n]...)
		if len(t.tail) > 4 {
			t.tail = append(t.tail[:0], t.tail[len(t.tail)-4:]...)
		}
	}
	if errors.Is(err, io.EOF) {
		t.eof = true
	}
	return n, err
}

func (t *tailReader) terminated() bool {
	for _, end := range []string{"\n\n", "\r\r", "\r\n\r\n", "\n\r\n", "\r\n\n"} {
		if bytes.HasSuffix(t.tail, []byte(end)) {
			return true
		}
	}
	return false
}
