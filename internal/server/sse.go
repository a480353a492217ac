package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/calctutor/internal/assistant"
)

// DoneData is the payload of the frame that ends every stream.
const DoneData = "[DONE]"

// sseWriter writes Server-Sent Events frames, flushing after each.
type sseWriter struct {
	w gin.ResponseWriter
}

func newSSEWriter(c *gin.Context) *sseWriter {
	h := c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()
	return &sseWriter{w: c.Writer}
}

func (s *sseWriter) send(event string, data []byte) error {
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	s.w.Flush()
	return nil
}

func (s *sseWriter) sendJSON(event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event, err)
	}
	return s.send(event, data)
}

// stream copies relay events to the response until the channel closes,
// then writes the done frame.
func stream(c *gin.Context, events <-chan assistant.Event) {
	w := newSSEWriter(c)
	for ev := range events {
		data := ev.Data
		if data == nil {
			data = struct{}{}
		}
		if err := w.sendJSON(ev.Type, data); err != nil {
			// Drain so the relay goroutine can exit once the request
			// context is cancelled.
			for range events {
			}
			return
		}
	}
	_ = w.send(assistant.EventDone, []byte(DoneData))
}
