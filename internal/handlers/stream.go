package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/pandeptwidyaop/sndctl/internal/models"
	"github.com/pandeptwidyaop/sndctl/internal/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// pollInterval bounds how long a follower waits if a broadcast was dropped.
const pollInterval = time.Second

// StreamHandler streams execution progress over SSE or WebSocket.
type StreamHandler struct {
	executorService *services.ExecutorService
}

func NewStreamHandler(executorService *services.ExecutorService) *StreamHandler {
	return &StreamHandler{
		executorService: executorService,
	}
}

// Stream sends step and complete events as server-sent events.
// GET /api/macro/executions/:id/stream
func (h *StreamHandler) Stream(c *gin.Context) {
	id := c.Param("id")
	if !h.exists(c, id) {
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	err := h.follow(c.Request.Context(), id, func(event string, data []byte) error {
		if _, err := fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, data); err != nil {
			return err
		}
		c.Writer.Flush()
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("[Stream] Execution %s: %v", id, err)
	}
}

// wsMessage is the envelope for WebSocket events.
type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// WebSocket sends the same events as Stream and accepts {"type":"cancel"}.
// GET /api/macro/executions/:id/ws
func (h *StreamHandler) WebSocket(c *gin.Context) {
	id := c.Param("id")
	if !h.exists(c, id) {
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[Stream] Failed to upgrade to WebSocket: %v", err)
		return
	}
	defer func() { _ = ws.Close() }()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	go func() {
		defer cancel()
		for {
			var msg wsMessage
			if err := ws.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("[Stream] WebSocket read error: %v", err)
				}
				return
			}
			if msg.Type == "cancel" {
				if err := h.executorService.Cancel(id); err != nil {
					log.Printf("[Stream] Cancel %s: %v", id, err)
				}
			}
		}
	}()

	err = h.follow(ctx, id, func(event string, data []byte) error {
		return ws.WriteJSON(wsMessage{Type: event, Data: data})
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("[Stream] Execution %s: %v", id, err)
		return
	}

	_ = ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}

func (h *StreamHandler) exists(c *gin.Context, id string) bool {
	if _, err := h.executorService.Get(id); err != nil {
		if errors.Is(err, services.ErrExecutionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "execution not found"})
			return false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// follow replays finished steps, then relays new ones until the execution
// completes. Each step is emitted once.
func (h *StreamHandler) follow(ctx context.Context, id string, emit func(event string, data []byte) error) error {
	ch := h.executorService.Subscribe(id)
	defer h.executorService.Unsubscribe(id, ch)

	current, err := h.executorService.Get(id)
	if err != nil {
		return err
	}

	sent := make(map[int]bool)
	emitStep := func(step models.StepResult) error {
		if sent[step.Index] {
			return nil
		}
		sent[step.Index] = true
		data, err := json.Marshal(step)
		if err != nil {
			return err
		}
		return emit("step", data)
	}
	complete := func() error {
		final, err := h.executorService.Get(id)
		if err != nil {
			return err
		}
		for _, step := range final.Steps {
			if err := emitStep(step); err != nil {
				return err
			}
		}
		data, err := json.Marshal(final)
		if err != nil {
			return err
		}
		return emit("complete", data)
	}

	for _, step := range current.Steps {
		if err := emitStep(step); err != nil {
			return err
		}
	}
	if current.Done() {
		return complete()
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			switch {
			case strings.HasPrefix(msg, "step:"):
				var step models.StepResult
				if err := json.Unmarshal([]byte(strings.TrimPrefix(msg, "step:")), &step); err != nil {
					continue
				}
				if err := emitStep(step); err != nil {
					return err
				}
			case strings.HasPrefix(msg, "complete:"):
				return complete()
			}
		case <-ticker.C:
			latest, err := h.executorService.Get(id)
			if err != nil {
				return err
			}
			if latest.Done() {
				return complete()
			}
		}
	}
}
