package backend

import (
	"bytes"
	"strings"
)

// Event is one decoded frame from the session event stream.
type Event struct {
	Name string
	Data string
}

// Decoder incrementally parses an event stream from raw byte chunks. Frames
// are delimited by a blank line; `event:` names the frame, multiple `data:`
// lines are joined with \n, the default event name is "message". A decoder is
// restartable per connection: use a fresh one for each subscribe.
type Decoder struct {
	buf  []byte
	name string
	data []string
}

func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends chunk to the internal buffer and returns every event completed
// by it. Partial lines stay buffered for the next chunk.
func (d *Decoder) Feed(chunk []byte) []Event {
	d.buf = append(d.buf, chunk...)

	var events []Event
	for {
		i := bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimSuffix(string(d.buf[:i]), "\r")
		d.buf = d.buf[i+1:]

		if line == "" { // frame boundary
			if ev, ok := d.flush(); ok {
				events = append(events, ev)
			}
			continue
		}
		if strings.HasPrefix(line, ":") { // comment / keep-alive
			continue
		}

		field, value := line, ""
		if j := strings.Index(line, ":"); j >= 0 {
			field = line[:j]
			value = strings.TrimPrefix(line[j+1:], " ")
		}
		switch field {
		case "event":
			d.name = value
		case "data":
			d.data = append(d.data, value)
		}
		// other fields (id, retry) are not used by this protocol
	}
	return events
}

func (d *Decoder) flush() (Event, bool) {
	if d.name == "" && len(d.data) == 0 {
		return Event{}, false
	}
	ev := Event{Name: d.name, Data: strings.Join(d.data, "\n")}
	if ev.Name == "" {
		ev.Name = "message"
	}
	d.name = ""
	d.data = nil
	return ev, true
}
