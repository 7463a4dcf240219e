package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/alnah/go-javaprint/internal/jobs"
)

type donePayload struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
}

type failedPayload struct {
	Error string `json:"error"`
}

// payload is the data of an SSE event.
func payload(ev jobs.Event) any {
	switch ev.Type {
	case jobs.EventDone:
		return donePayload{Filename: ev.Filename, ContentType: ev.ContentType}
	case jobs.EventFailed:
		return failedPayload{Error: ev.Error}
	default:
		return ev.Progress
	}
}

// wsMessage is the websocket form of an event: the SSE payload flattened
// next to its type.
type wsMessage struct {
	Type string `json:"type"`
	*jobs.Progress
	*donePayload
	*failedPayload
}

func newWSMessage(ev jobs.Event) wsMessage {
	msg := wsMessage{Type: string(ev.Type)}
	switch p := payload(ev).(type) {
	case donePayload:
		msg.donePayload = &p
	case failedPayload:
		msg.failedPayload = &p
	case jobs.Progress:
		msg.Progress = &p
	}
	return msg
}

// writeSSE writes one event frame.
func writeSSE(w *bufio.Writer, ev jobs.Event) error {
	data, err := json.Marshal(payload(ev))
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
		return err
	}
	return w.Flush()
}

// handleProgress streams a job's events as server-sent events until the
// job ends or the client goes away.
func (s *Server) handleProgress(c *fiber.Ctx) error {
	sub, err := s.manager.Subscribe(c.Params("jobId"))
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	beat := s.beat
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer s.manager.Unsubscribe(sub)

		ticker := time.NewTicker(beat)
		defer ticker.Stop()
		for {
			select {
			case ev, ok := <-sub.C:
				if !ok {
					return
				}
				if err := writeSSE(w, ev); err != nil {
					return
				}
			case <-ticker.C:
				// A failed flush means the client disconnected.
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})
	return nil
}

// handleWebSocket streams a job's events as JSON messages. Clients may send
// {"type":"ping"} and get {"type":"pong"} back.
//
// The Conn is pooled and reset once the handler returns, so the reader
// goroutine must be gone by then: closing the socket unblocks its read and
// the handler waits for it.
func (s *Server) handleWebSocket(c *websocket.Conn) {
	sub, err := s.manager.Subscribe(c.Params("jobId"))
	if err != nil {
		_ = c.WriteJSON(wsMessage{Type: string(jobs.EventFailed), failedPayload: &failedPayload{Error: msgJobNotFound}})
		return
	}
	defer s.manager.Unsubscribe(sub)

	pings := make(chan struct{}, 1)
	gone := make(chan struct{})
	defer func() {
		_ = c.Close()
		<-gone
	}()
	go func() {
		defer close(gone)
		for {
			_, data, err := c.ReadMessage()
			if err != nil {
				return
			}
			var msg struct {
				Type string `json:"type"`
			}
			if json.Unmarshal(data, &msg) == nil && msg.Type == "ping" {
				select {
				case pings <- struct{}{}:
				default:
				}
			}
		}
	}()

	ticker := time.NewTicker(s.beat)
	defer ticker.Stop()
	for {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.WriteJSON(newWSMessage(ev)); err != nil {
				return
			}
		case <-pings:
			if err := c.WriteJSON(wsMessage{Type: "pong"}); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-gone:
			return
		}
	}
}
