package signal

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dkeye/Board/internal/app/orch"
	"github.com/dkeye/Board/internal/core"
	"github.com/dkeye/Board/internal/domain"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleDraw(ctx context.Context, sid core.SessionID, conn *WsSignalConn, data []byte) {
	var p struct {
		Type string `json:"type"`
		orch.DrawSubmission
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(conn, errBadPayload)
		return
	}
	b, ok := ctl.Registry.Get(sid)
	if !ok {
		return
	}
	if b.Room == "" {
		ctl.sendError(conn, errNotInRoom)
		return
	}
	if !ctl.limiter.Allow(b.Identity) {
		ctl.sendError(conn, errRateLimited)
		return
	}

	err := ctl.Orch.SubmitDrawEvent(ctx, b.Room, b.Identity, p.DrawSubmission)
	switch {
	case err == nil:
	case errors.Is(err, core.ErrTransportDelivery):
		log.Debug().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("draw partially delivered")
	default:
		ctl.sendError(conn, err)
	}
}

func (ctl *SignalWSController) handleRequestState(sid core.SessionID, conn *WsSignalConn, data []byte) {
	var p struct {
		Type   string `json:"type"`
		Target string `json:"target"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(conn, errBadPayload)
		return
	}
	target, err := domain.ParseParticipantID(p.Target)
	if err != nil {
		ctl.sendError(conn, errBadPayload)
		return
	}
	b, ok := ctl.Registry.Get(sid)
	if !ok {
		return
	}
	if b.Room == "" {
		ctl.sendError(conn, errNotInRoom)
		return
	}
	if err := ctl.Orch.RequestState(b.Room, b.Identity, target); err != nil && !errors.Is(err, core.ErrTransportDelivery) {
		ctl.sendError(conn, err)
	}
}
