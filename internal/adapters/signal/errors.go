package signal

import (
	"errors"

	"github.com/dkeye/Board/internal/core"
	"github.com/dkeye/Board/internal/domain"
)

var (
	errBadPayload    = errors.New("bad_payload")
	errUnknownType   = errors.New("unknown_type")
	errNotInRoom     = errors.New("not_in_room")
	errAlreadyInRoom = errors.New("already_in_room")
	errRateLimited   = errors.New("rate_limited")
)

// errorCode is the stable string clients switch on.
func errorCode(err error) string {
	switch {
	case errors.Is(err, core.ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, core.ErrNotMember):
		return "not_member"
	case errors.Is(err, core.ErrCodeSpaceExhausted):
		return "no_free_code"
	case errors.Is(err, domain.ErrInvalidDraw):
		return "invalid_draw"
	case errors.Is(err, domain.ErrDisplayNameTooLong):
		return "name_too_long"
	case errors.Is(err, errBadPayload), errors.Is(err, errUnknownType),
		errors.Is(err, errNotInRoom), errors.Is(err, errAlreadyInRoom),
		errors.Is(err, errRateLimited):
		return err.Error()
	}
	return "internal"
}

func (ctl *SignalWSController) sendError(c *WsSignalConn, err error) {
	ctl.sendJSON(c, map[string]any{
		"type":  "error",
		"error": errorCode(err),
	})
}
