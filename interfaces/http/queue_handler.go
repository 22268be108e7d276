package http

import (
	"context"
	"net/http"

	"social-publisher/domain/model"
	"social-publisher/usecase"

	"github.com/gin-gonic/gin"
)

type IQueueHandler interface {
	Stats(c *gin.Context)
	Pause(c *gin.Context)
	Resume(c *gin.Context)
	Drain(c *gin.Context)
}

type QueueHandler struct {
	jobUsecase usecase.IJobUsecase
}

func NewQueueHandler(jobUsecase usecase.IJobUsecase) IQueueHandler {
	return &QueueHandler{jobUsecase: jobUsecase}
}

func (h *QueueHandler) Stats(c *gin.Context) {
	stats, err := h.jobUsecase.Stats(c.Request.Context(), c.GetString("tenant_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "OK", stats)
}

// queue controls act on the queue every tenant shares, so a tenant admin cannot use them
func (h *QueueHandler) control(c *gin.Context, op func(context.Context) error, message string) {
	if c.GetString("role") != model.RoleOperator {
		respond(c, http.StatusForbidden, "operator role required", nil)
		return
	}
	if err := op(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, message, nil)
}

func (h *QueueHandler) Pause(c *gin.Context) {
	h.control(c, h.jobUsecase.PauseQueue, "Queue paused")
}

func (h *QueueHandler) Resume(c *gin.Context) {
	h.control(c, h.jobUsecase.ResumeQueue, "Queue resumed")
}

func (h *QueueHandler) Drain(c *gin.Context) {
	h.control(c, h.jobUsecase.DrainQueue, "Queue drained")
}
