package chatclient

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"github.com/abhisek/calctutor/internal/assistant"
)

// errTruncated reports a stream that closed before its done frame.
var errTruncated = errors.New("event stream closed before done")

const maxFrame = 1 << 20

// readEvents parses Server-Sent Events from r and passes each decoded
// event to emit until the done frame. emit returns false to stop early.
func readEvents(r io.Reader, emit func(assistant.Event) bool) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxFrame)

	var (
		event string
		data  []string
	)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if event == "" && len(data) == 0 {
				continue
			}
			if event == "" {
				event = "message"
			}
			if event == assistant.EventDone {
				return nil
			}
			ev, err := assistant.DecodeEvent(event, []byte(strings.Join(data, "\n")))
			if err != nil {
				return err
			}
			if !emit(ev) {
				return nil
			}
			event, data = "", nil
		case strings.HasPrefix(line, ":"):
			// comment
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			v := strings.TrimPrefix(line, "data:")
			data = append(data, strings.TrimPrefix(v, " "))
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return errTruncated
}
