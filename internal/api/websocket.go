package api

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/settlement-form/backend/internal/upload"
)

// WebSocket message types for job watching
const (
	MsgTypeJob   = "job"
	MsgTypeError = "error"
)

// WSMessage is one server-to-client frame
type WSMessage struct {
	Type      string      `json:"type"`
	Job       *upload.Job `json:"job,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// HandleWatchJob upgrades to a WebSocket and pushes a snapshot on every status
// change until the job finishes, then closes the connection.
func (h *JobHandlerImpl) HandleWatchJob(c echo.Context) error {
	id := c.Param("id")
	if _, ok := h.jobs.GetJob(id); !ok {
		return NewNotFoundError("job", id)
	}

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	log := slog.With("component", "websocket", "job", id)
	log.Debug("client watching job")

	// Drain client frames so close messages are noticed.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Debug("connection error", "error", err)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	var last upload.Status
	for {
		job, ok := h.jobs.GetJob(id)
		if !ok {
			h.send(ws, log, WSMessage{Type: MsgTypeError, Message: "job no longer tracked"})
			break
		}
		if job.Status != last {
			if !h.send(ws, log, WSMessage{Type: MsgTypeJob, Job: job}) {
				return nil
			}
			last = job.Status
		}
		if job.Status.Terminal() {
			break
		}

		select {
		case <-ticker.C:
		case <-closed:
			return nil
		case <-c.Request().Context().Done():
			return nil
		}
	}

	_ = ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"),
		time.Now().Add(time.Second))
	return nil
}

func (h *JobHandlerImpl) send(ws *websocket.Conn, log *slog.Logger, msg WSMessage) bool {
	msg.Timestamp = time.Now().UnixMilli()
	if err := ws.WriteJSON(msg); err != nil {
		log.Debug("failed to send message", "error", err)
		return false
	}
	return true
}
