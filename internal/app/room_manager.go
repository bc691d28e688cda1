package app

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dkeye/Board/internal/core"
	"github.com/dkeye/Board/internal/domain"
	"github.com/rs/zerolog/log"
)

const DefaultMaxCodeAttempts = 32

type RoomManagerOptions struct {
	Codes       core.CodeGenerator
	MaxAttempts int
	Room        core.RoomOptions
}

// RoomManagerImpl guards only the code map. Each room carries its own lock.
type RoomManagerImpl struct {
	codes       core.CodeGenerator
	maxAttempts int
	roomOpts    core.RoomOptions

	mu    sync.RWMutex
	rooms map[domain.RoomCode]core.RoomService
}

func NewRoomManager(opts RoomManagerOptions) *RoomManagerImpl {
	if opts.Codes == nil {
		opts.Codes = core.RandomCodes{}
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxCodeAttempts
	}
	return &RoomManagerImpl{
		codes:       opts.Codes,
		maxAttempts: opts.MaxAttempts,
		roomOpts:    opts.Room,
		rooms:       make(map[domain.RoomCode]core.RoomService),
	}
}

func (m *RoomManagerImpl) CreateRoom(coordinator domain.ParticipantID) (core.RoomService, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		code := domain.ParseRoomCode(string(m.codes.Generate()))
		if code == "" {
			continue
		}
		if _, taken := m.rooms[code]; taken {
			log.Debug().Str("module", "app.rooms").Str("code", string(code)).Int("attempt", attempt).Msg("code collision")
			continue
		}
		room := core.NewRoomService(domain.NewRoom(code, coordinator), m.roomOpts)
		m.rooms[code] = room
		log.Info().
			Str("module", "app.rooms").
			Str("code", string(code)).
			Str("coordinator", string(coordinator)).
			Msg("room created")
		return room, nil
	}
	return nil, fmt.Errorf("create room after %d attempts: %w", m.maxAttempts, core.ErrCodeSpaceExhausted)
}

func (m *RoomManagerImpl) GetRoom(code domain.RoomCode) (core.RoomService, error) {
	code = domain.ParseRoomCode(string(code))
	m.mu.RLock()
	room, ok := m.rooms[code]
	m.mu.RUnlock()
	if !ok {
		return nil, core.ErrRoomNotFound
	}
	return room, nil
}

func (m *RoomManagerImpl) RemoveRoom(code domain.RoomCode) {
	code = domain.ParseRoomCode(string(code))
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[code]
	if !ok {
		return
	}
	delete(m.rooms, code)
	log.Info().
		Str("module", "app.rooms").
		Str("code", string(code)).
		Dur("age", time.Since(room.Room().CreatedAt)).
		Msg("room removed")
}

func (m *RoomManagerImpl) List() []core.RoomInfo {
	m.mu.RLock()
	rooms := make([]core.RoomService, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	out := make([]core.RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, core.RoomInfo{
			Code:            r.Room().Code,
			Coordinator:     r.Room().Coordinator,
			MemberCount:     r.MemberCount(),
			SubscriberCount: r.SubscriberCount(),
		})
	}
	slices.SortFunc(out, func(a, b core.RoomInfo) int { return strings.Compare(string(a.Code), string(b.Code)) })
	return out
}
