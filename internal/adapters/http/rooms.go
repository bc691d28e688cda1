package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dkeye/Board/internal/adapters/pubsub"
	"github.com/dkeye/Board/internal/app/orch"
	"github.com/dkeye/Board/internal/core"
	"github.com/dkeye/Board/internal/domain"
	"github.com/dkeye/Board/internal/persist"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type roomHandlers struct {
	orch      *orch.Orchestrator
	pubsub    *pubsub.Publisher
	snapshots persist.SnapshotReader
}

func (h *roomHandlers) register(api *gin.RouterGroup) {
	api.POST("/rooms", h.create)
	api.GET("/rooms", h.list)
	rooms := api.Group("/rooms/:code")
	rooms.GET("/roster", h.roster)
	rooms.POST("/join", h.join)
	rooms.POST("/leave", h.leave)
	rooms.POST("/draw", h.draw)
	rooms.POST("/state", h.state)
	if h.snapshots != nil {
		rooms.GET("/snapshots", h.archived)
		rooms.GET("/snapshots/:id", h.archivedOne)
	}
}

// identity prefers an explicit id in the body over the client token.
func identity(c *gin.Context, explicit string) (domain.ParticipantID, error) {
	raw := explicit
	if raw == "" {
		raw = c.GetString("client_token")
	}
	id, err := domain.ParseParticipantID(raw)
	if err != nil {
		return "", fmt.Errorf("%w: identity: %w", errBadRequest, err)
	}
	return id, nil
}

func roomCode(c *gin.Context) domain.RoomCode {
	return domain.ParseRoomCode(c.Param("code"))
}

func (h *roomHandlers) subscriber(code domain.RoomCode, id domain.ParticipantID) core.Subscriber {
	if h.pubsub == nil {
		return nil
	}
	return h.pubsub.SubscriberFor(code, id)
}

func remember(c *gin.Context, code domain.RoomCode) {
	s := sessions.Default(c)
	if code == "" {
		s.Delete("room")
	} else {
		s.Set("room", string(code))
	}
	_ = s.Save()
}

type identityBody struct {
	Identity string `json:"identity"`
}

func bindOptional(c *gin.Context, v any) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(v); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}

func (h *roomHandlers) create(c *gin.Context) {
	var body identityBody
	if err := bindOptional(c, &body); err != nil {
		respond(c, 0, nil, err)
		return
	}
	id, err := identity(c, body.Identity)
	if err != nil {
		respond(c, 0, nil, err)
		return
	}
	code, err := h.orch.CreateRoom(id, nil)
	if err != nil {
		respond(c, 0, nil, err)
		return
	}
	if sub := h.subscriber(code, id); sub != nil {
		_ = h.orch.Attach(code, id, sub)
	}
	remember(c, code)
	respond(c, http.StatusCreated, gin.H{"code": code, "coordinator": id}, nil)
}

func (h *roomHandlers) list(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.orch.List()})
}

func (h *roomHandlers) roster(c *gin.Context) {
	code := roomCode(c)
	roster, err := h.orch.Roster(code)
	if err != nil {
		respond(c, 0, nil, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"room": code, "roster": roster}, nil)
}

func (h *roomHandlers) join(c *gin.Context) {
	var body struct {
		Name     string `json:"name"`
		Identity string `json:"identity"`
	}
	if err := bindOptional(c, &body); err != nil {
		respond(c, 0, nil, err)
		return
	}
	id, err := identity(c, body.Identity)
	if err != nil {
		respond(c, 0, nil, err)
		return
	}
	code := roomCode(c)
	res, err := h.orch.Join(code, id, body.Name, h.subscriber(code, id))
	if err == nil || errors.Is(err, core.ErrTransportDelivery) {
		remember(c, code)
	}
	respond(c, http.StatusOK, gin.H{
		"room":        code,
		"displayName": res.DisplayName,
		"renamed":     res.Renamed,
		"roster":      res.Roster,
	}, err)
}

func (h *roomHandlers) leave(c *gin.Context) {
	var body identityBody
	if err := bindOptional(c, &body); err != nil {
		respond(c, 0, nil, err)
		return
	}
	id, err := identity(c, body.Identity)
	if err != nil {
		respond(c, 0, nil, err)
		return
	}
	err = h.orch.Leave(c.Request.Context(), roomCode(c), id)
	remember(c, "")
	respond(c, http.StatusNoContent, nil, err)
}

func (h *roomHandlers) draw(c *gin.Context) {
	var body struct {
		orch.DrawSubmission
		Identity string `json:"identity"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respond(c, 0, nil, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	id, err := identity(c, body.Identity)
	if err != nil {
		respond(c, 0, nil, err)
		return
	}
	err = h.orch.SubmitDrawEvent(c.Request.Context(), roomCode(c), id, body.DrawSubmission)
	respond(c, http.StatusAccepted, gin.H{"status": "accepted"}, err)
}

func (h *roomHandlers) state(c *gin.Context) {
	var body struct {
		Target   string `json:"target" binding:"required"`
		Identity string `json:"identity"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respond(c, 0, nil, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	id, err := identity(c, body.Identity)
	if err != nil {
		respond(c, 0, nil, err)
		return
	}
	target, err := domain.ParseParticipantID(body.Target)
	if err != nil {
		respond(c, 0, nil, fmt.Errorf("%w: target: %w", errBadRequest, err))
		return
	}
	err = h.orch.RequestState(roomCode(c), id, target)
	respond(c, http.StatusAccepted, gin.H{"status": "accepted"}, err)
}

// coordinatorOf checks that the caller coordinates the room in the path.
func (h *roomHandlers) coordinatorOf(c *gin.Context) (domain.RoomCode, error) {
	id, err := identity(c, c.Query("identity"))
	if err != nil {
		return "", err
	}
	code := roomCode(c)
	room, err := h.orch.Rooms.GetRoom(code)
	if err != nil {
		return "", err
	}
	if room.Room().Coordinator != id {
		return "", core.ErrNotMember
	}
	return code, nil
}

func (h *roomHandlers) archived(c *gin.Context) {
	code, err := h.coordinatorOf(c)
	if err != nil {
		respond(c, 0, nil, err)
		return
	}
	snaps, err := h.snapshots.Room(c.Request.Context(), code)
	if err != nil {
		respond(c, 0, nil, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"room": code, "snapshots": snaps}, nil)
}

func (h *roomHandlers) archivedOne(c *gin.Context) {
	code, err := h.coordinatorOf(c)
	if err != nil {
		respond(c, 0, nil, err)
		return
	}
	target, err := domain.ParseParticipantID(c.Param("id"))
	if err != nil {
		respond(c, 0, nil, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	snap, err := h.snapshots.Latest(c.Request.Context(), code, target)
	if err != nil {
		respond(c, 0, nil, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"snapshot": snap}, nil)
}
