package http

import (
	"errors"
	"net/http"
	"strconv"

	"social-publisher/domain/dto"
	"social-publisher/domain/model"
	"social-publisher/infrastructure/logger"

	"github.com/gin-gonic/gin"
)

const (
	ErrorUnmarshal = "Error while unmarshal"
)

func respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, dto.Res{ResponseCode: strconv.Itoa(status), ResponseMessage: message, Data: data})
}

// respondError maps domain sentinels onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrJobNotFound), errors.Is(err, model.ErrContentNotFound),
		errors.Is(err, model.ErrConnectionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrJobNotCancellable), errors.Is(err, model.ErrJobNotRetryable):
		status = http.StatusConflict
	case errors.Is(err, model.ErrUnsupportedPlatform), errors.Is(err, model.ErrNoPlatforms):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		logger.GetLogger().WithField("path", c.FullPath()).WithField("error", err).Error("Request failed")
	}
	respond(c, status, err.Error(), nil)
}

func platformParam(c *gin.Context) (model.Platform, bool) {
	p, ok := model.ParsePlatform(c.Param("platform"))
	if !ok {
		respond(c, http.StatusBadRequest, "unsupported platform: "+c.Param("platform"), nil)
	}
	return p, ok
}
