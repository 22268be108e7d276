package http

import (
	"fmt"
	"net/http"

	"social-publisher/domain/dto"
	"social-publisher/infrastructure/logger"
	"social-publisher/usecase"

	"github.com/gin-gonic/gin"
)

type IJobHandler interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	Cancel(c *gin.Context)
	Retry(c *gin.Context)
}

type JobHandler struct {
	jobUsecase usecase.IJobUsecase
}

func NewJobHandler(jobUsecase usecase.IJobUsecase) IJobHandler {
	return &JobHandler{jobUsecase: jobUsecase}
}

func (h *JobHandler) Create(c *gin.Context) {
	var req dto.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithField("error", err).Error(ErrorUnmarshal)
		respond(c, http.StatusBadRequest, fmt.Sprintf("%s %v", ErrorUnmarshal, err.Error()), nil)
		return
	}
	jobs, err := h.jobUsecase.CreateJobs(c.Request.Context(), c.GetString("tenant_id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Jobs created", jobs)
}

func (h *JobHandler) Get(c *gin.Context) {
	job, err := h.jobUsecase.GetJob(c.Request.Context(), c.GetString("tenant_id"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "OK", job)
}

func (h *JobHandler) Cancel(c *gin.Context) {
	if err := h.jobUsecase.CancelJob(c.Request.Context(), c.GetString("tenant_id"), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Job cancelled", gin.H{"id": c.Param("id")})
}

func (h *JobHandler) Retry(c *gin.Context) {
	if err := h.jobUsecase.RetryJob(c.Request.Context(), c.GetString("tenant_id"), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusAccepted, "Job requeued", gin.H{"id": c.Param("id")})
}
