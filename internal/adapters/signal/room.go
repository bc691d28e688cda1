package signal

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dkeye/Board/internal/app"
	"github.com/dkeye/Board/internal/core"
	"github.com/dkeye/Board/internal/domain"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleCreate(sid core.SessionID, conn *WsSignalConn) {
	b, ok := ctl.Registry.Get(sid)
	if !ok {
		return
	}
	if b.Room != "" {
		ctl.sendError(conn, errAlreadyInRoom)
		return
	}
	code, err := ctl.Orch.CreateRoom(b.Identity, b.Sub)
	if err != nil && !errors.Is(err, core.ErrTransportDelivery) {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("create room")
		ctl.sendError(conn, err)
		return
	}
	ctl.Registry.SetRoom(sid, code)
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", string(code)).Msg("create")
}

func (ctl *SignalWSController) handleJoin(ctx context.Context, sid core.SessionID, conn *WsSignalConn, data []byte) {
	type joinPayload struct {
		Type string `json:"type"`
		Room string `json:"room"`
		Name string `json:"name,omitempty"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil || p.Room == "" {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendError(conn, errBadPayload)
		return
	}
	b, ok := ctl.Registry.Get(sid)
	if !ok {
		return
	}
	code := domain.ParseRoomCode(p.Room)
	if b.Room != "" && b.Room != code {
		ctl.leaveRoom(ctx, sid, b)
	}

	res, err := ctl.Orch.Join(code, b.Identity, p.Name, b.Sub)
	if err != nil && !errors.Is(err, core.ErrTransportDelivery) {
		log.Info().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("room", string(code)).Msg("join rejected")
		ctl.sendError(conn, err)
		return
	}
	ctl.Registry.SetRoom(sid, code)
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", string(code)).Msg("join")

	ctl.sendJSON(conn, struct {
		Type string          `json:"type"`
		Room domain.RoomCode `json:"room"`
		core.JoinResult
	}{
		Type:       "joined",
		Room:       code,
		JoinResult: res,
	})
}

// handleLeave leaves the current room; the connection stays open.
func (ctl *SignalWSController) handleLeave(ctx context.Context, sid core.SessionID, conn *WsSignalConn) {
	b, ok := ctl.Registry.Get(sid)
	if !ok {
		return
	}
	if b.Room != "" {
		ctl.leaveRoom(ctx, sid, b)
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("leave")
	ctl.sendJSON(conn, map[string]any{
		"type": "left",
	})
}

func (ctl *SignalWSController) leaveRoom(ctx context.Context, sid core.SessionID, b app.Binding) {
	ctl.Registry.ClearRoom(sid, b.Room)
	if err := ctl.Orch.Leave(ctx, b.Room, b.Identity); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("room", string(b.Room)).Msg("leave")
	}
}
