package http

import (
	"net/http"

	"social-publisher/domain/repository"

	"github.com/gin-gonic/gin"
)

type IHealthHandler interface {
	Healthz(c *gin.Context)
}

type HealthHandler struct {
	queue      repository.IJobQueue
	publishers repository.IPublisherRegistry
}

func NewHealthHandler(queue repository.IJobQueue, publishers repository.IPublisherRegistry) IHealthHandler {
	return &HealthHandler{queue: queue, publishers: publishers}
}

func (h *HealthHandler) Healthz(c *gin.Context) {
	stats, err := h.queue.GetStats(c.Request.Context())
	if err != nil {
		respond(c, http.StatusServiceUnavailable, "queue unavailable: "+err.Error(), nil)
		return
	}
	respond(c, http.StatusOK, "OK", gin.H{"status": "ok", "queue": stats, "platforms": h.publishers.Platforms()})
}
