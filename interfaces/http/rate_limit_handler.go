package http

import (
	"net/http"

	"social-publisher/usecase"

	"github.com/gin-gonic/gin"
)

type IRateLimitHandler interface {
	Status(c *gin.Context)
	Reset(c *gin.Context)
}

type RateLimitHandler struct {
	jobUsecase usecase.IJobUsecase
}

func NewRateLimitHandler(jobUsecase usecase.IJobUsecase) IRateLimitHandler {
	return &RateLimitHandler{jobUsecase: jobUsecase}
}

func (h *RateLimitHandler) Status(c *gin.Context) {
	platform, ok := platformParam(c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, "OK", h.jobUsecase.RateLimitStatus(c.GetString("tenant_id"), platform))
}

func (h *RateLimitHandler) Reset(c *gin.Context) {
	platform, ok := platformParam(c)
	if !ok {
		return
	}
	h.jobUsecase.ResetRateLimit(c.GetString("tenant_id"), platform)
	respond(c, http.StatusOK, "Rate limit reset", nil)
}
