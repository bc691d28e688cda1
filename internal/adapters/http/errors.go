package http

import (
	"errors"
	"net/http"

	"github.com/dkeye/Board/internal/core"
	"github.com/dkeye/Board/internal/domain"
	"github.com/dkeye/Board/internal/persist"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

var errBadRequest = errors.New("bad request")

func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrRoomNotFound), errors.Is(err, persist.ErrSnapshotNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrNotMember):
		return http.StatusForbidden
	case errors.Is(err, errBadRequest),
		errors.Is(err, domain.ErrInvalidDraw),
		errors.Is(err, domain.ErrDisplayNameTooLong),
		errors.Is(err, domain.ErrParticipantIDEmpty),
		errors.Is(err, domain.ErrParticipantIDLong):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrCodeSpaceExhausted):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respond writes body with status, or the error mapping. A partial
// broadcast still answers 202: the operation took effect.
func respond(c *gin.Context, status int, body gin.H, err error) {
	if err != nil && errors.Is(err, core.ErrTransportDelivery) {
		if body == nil {
			body = gin.H{}
		}
		body["delivery"] = "partial"
		c.JSON(http.StatusAccepted, body)
		return
	}
	if err != nil {
		code := statusFor(err)
		if code == http.StatusInternalServerError {
			log.Error().Err(err).Str("module", "adapters.http").Str("path", c.FullPath()).Msg("request failed")
		}
		c.AbortWithStatusJSON(code, gin.H{"error": err.Error()})
		return
	}
	if body == nil {
		c.Status(status)
		return
	}
	c.JSON(status, body)
}
