package http

import (
	"fmt"
	"net/http"

	"social-publisher/domain/dto"
	"social-publisher/infrastructure/logger"
	"social-publisher/usecase"

	"github.com/gin-gonic/gin"
)

type IConnectionHandler interface {
	Connect(c *gin.Context)
}

type ConnectionHandler struct {
	credentialUsecase usecase.ICredentialUsecase
}

func NewConnectionHandler(credentialUsecase usecase.ICredentialUsecase) IConnectionHandler {
	return &ConnectionHandler{credentialUsecase: credentialUsecase}
}

func (h *ConnectionHandler) Connect(c *gin.Context) {
	var req dto.ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithField("error", err).Error(ErrorUnmarshal)
		respond(c, http.StatusBadRequest, fmt.Sprintf("%s %v", ErrorUnmarshal, err.Error()), nil)
		return
	}
	conn, err := h.credentialUsecase.Connect(c.Request.Context(), c.GetString("tenant_id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	// tokens are never echoed back; the json tags on the model hide them
	respond(c, http.StatusCreated, "Connection stored", conn)
}
