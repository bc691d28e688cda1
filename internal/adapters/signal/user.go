package signal

import (
	"encoding/json"
	"errors"

	"github.com/dkeye/Board/internal/core"
	"github.com/dkeye/Board/internal/domain"
	"github.com/rs/zerolog/log"
)

// handleRename rejoins the current room under a new display name.
func (ctl *SignalWSController) handleRename(sid core.SessionID, conn *WsSignalConn, data []byte) {
	type renamePayload struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}
	var p renamePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad rename payload")
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

	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("name", p.Name).Msg("rename")
	if _, err := ctl.Orch.Join(b.Room, b.Identity, p.Name, b.Sub); err != nil && !errors.Is(err, core.ErrTransportDelivery) {
		ctl.sendError(conn, err)
		return
	}
	ctl.handleWhoAmI(sid, conn)
}

func (ctl *SignalWSController) handleWhoAmI(sid core.SessionID, conn *WsSignalConn) {
	b, ok := ctl.Registry.Get(sid)
	if !ok {
		return
	}
	resp := struct {
		Type        string               `json:"type"`
		Identity    domain.ParticipantID `json:"identity"`
		Room        domain.RoomCode      `json:"room,omitempty"`
		DisplayName string               `json:"displayName,omitempty"`
		Coordinator bool                 `json:"coordinator,omitempty"`
	}{
		Type:     "whoami",
		Identity: b.Identity,
	}
	if b.Room != "" {
		if room, err := ctl.Orch.Rooms.GetRoom(b.Room); err == nil {
			resp.Room = b.Room
			resp.Coordinator = room.Room().Coordinator == b.Identity
			for _, m := range room.Roster() {
				if m.ID == b.Identity {
					resp.DisplayName = m.DisplayName
				}
			}
		}
	}
	ctl.sendJSON(conn, resp)
}
