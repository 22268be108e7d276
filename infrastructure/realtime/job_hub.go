package realtime

import (
	"encoding/json"
	"net/http"
	"sync"

	"social-publisher/domain/model"

	"github.com/gin-gonic/gin"
)

const eventBuffer = 16

// Hub fans job state changes out to per-tenant SSE subscribers.
type Hub struct {
	mu      sync.RWMutex
	tenants map[string]map[chan model.JobEvent]struct{}
}

func NewJobHub() *Hub {
	return &Hub{tenants: make(map[string]map[chan model.JobEvent]struct{})}
}

// Serve registers an SSE stream for the authenticated tenant (tenant_id set by middleware).
func (h *Hub) Serve(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	if tenantID == "" {
		c.Status(http.StatusUnauthorized)
		return
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ch := h.Subscribe(tenantID)
	defer h.Unsubscribe(tenantID, ch)

	_, _ = c.Writer.Write([]byte(":ok\n\n"))
	c.Writer.Flush()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			data, _ := json.Marshal(evt)
			_, _ = c.Writer.Write([]byte("event: " + evt.Type + "\n"))
			_, _ = c.Writer.Write([]byte("data: "))
			_, _ = c.Writer.Write(data)
			_, _ = c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		}
	}
}

func (h *Hub) Subscribe(tenantID string) chan model.JobEvent {
	ch := make(chan model.JobEvent, eventBuffer)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.tenants[tenantID] == nil {
		h.tenants[tenantID] = make(map[chan model.JobEvent]struct{})
	}
	h.tenants[tenantID][ch] = struct{}{}
	return ch
}

func (h *Hub) Unsubscribe(tenantID string, ch chan model.JobEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.tenants[tenantID]
	if _, ok := subs[ch]; !ok {
		return
	}
	delete(subs, ch)
	close(ch)
	if len(subs) == 0 {
		delete(h.tenants, tenantID)
	}
}

func (h *Hub) Subscribers(tenantID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.tenants[tenantID])
}

// Broadcast never blocks; slow subscribers miss events.
func (h *Hub) Broadcast(evt model.JobEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.tenants[evt.TenantID] {
		select {
		case ch <- evt:
		default:
		}
	}
}
