package core_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/dkeye/Board/internal/core"
	"github.com/dkeye/Board/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRoom() core.RoomService {
	return core.NewRoomService(domain.NewRoom("AB12CD", "T"), core.RoomOptions{UniqueNames: true})
}

func TestRoomJoinBroadcastsRosterToEveryone(t *testing.T) {
	room := newRoom()
	tutor, s1, s2 := &sink{}, &sink{}, &sink{}
	room.Attach("T", tutor)

	res, err := room.Join("S1", "Fox", s1)
	require.NoError(t, err)
	assert.Equal(t, "Fox", res.DisplayName)

	res, err = room.Join("S2", "Fox", s2)
	require.NoError(t, err)
	assert.Equal(t, "Fox1", res.DisplayName)
	assert.True(t, res.Renamed)

	assert.Equal(t, []core.EventType{core.EventJoined, core.EventJoined}, tutor.Types())
	assert.Equal(t, []core.EventType{core.EventJoined, core.EventJoined}, s1.Types())
	assert.Equal(t, []core.EventType{core.EventJoined}, s2.Types(), "the joiner sees its own join")

	last := s2.Events()[0]
	assert.Equal(t, []domain.Member{{ID: "S1", DisplayName: "Fox"}, {ID: "S2", DisplayName: "Fox1"}}, last.Roster)
}

func TestRoomCoordinatorIsNotListed(t *testing.T) {
	room := newRoom()
	res, err := room.Join("T", "Teacher", &sink{})
	require.NoError(t, err)
	assert.Empty(t, res.Roster)
	assert.Equal(t, 0, room.MemberCount())
	assert.Equal(t, 1, room.SubscriberCount())
	assert.True(t, room.IsMember("T"))
}

func TestRoomConcurrentJoinsAreAllKept(t *testing.T) {
	room := newRoom()
	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := room.Join(domain.ParticipantID(fmt.Sprintf("S%03d", i)), "Fox", &sink{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	roster := room.Roster()
	require.Len(t, roster, 100)
	names := map[string]bool{}
	for _, m := range roster {
		assert.False(t, names[m.DisplayName], "duplicate display name %s", m.DisplayName)
		names[m.DisplayName] = true
	}
}

func TestRoomConcurrentJoinLeave(t *testing.T) {
	room := newRoom()
	for i := range 50 {
		_, err := room.Join(domain.ParticipantID(fmt.Sprintf("old%02d", i)), "Owl", nil)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := room.Leave(domain.ParticipantID(fmt.Sprintf("old%02d", i)), core.ReapWhenEmptyAfterCoordinator)
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := room.Join(domain.ParticipantID(fmt.Sprintf("new%02d", i)), "Owl", nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	roster := room.Roster()
	require.Len(t, roster, 50)
	for _, m := range roster {
		assert.Contains(t, string(m.ID), "new")
	}
	assert.False(t, room.Closed())
}

func TestRoomEveryBroadcastRosterExisted(t *testing.T) {
	room := newRoom()
	watcher := &sink{}
	room.Attach("T", watcher)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = room.Join(domain.ParticipantID(fmt.Sprintf("S%02d", i)), "Cat", nil)
		}()
	}
	wg.Wait()

	// each join event grows the roster by exactly one
	for i, ev := range watcher.Events() {
		assert.Len(t, ev.Roster, i+1)
	}
}

func TestRoomLeaveIsIdempotent(t *testing.T) {
	room := newRoom()
	tutor := &sink{}
	room.Attach("T", tutor)
	_, err := room.Join("S1", "Fox", nil)
	require.NoError(t, err)

	out, err := room.Leave("S1", core.ReapWhenEmptyAfterCoordinator)
	require.NoError(t, err)
	assert.True(t, out.WasMember)

	out, err = room.Leave("S1", core.ReapWhenEmptyAfterCoordinator)
	require.NoError(t, err)
	assert.False(t, out.WasMember)

	_, err = room.Leave("ghost", core.ReapWhenEmptyAfterCoordinator)
	require.NoError(t, err)

	assert.Equal(t, []core.EventType{core.EventJoined, core.EventLeft}, tutor.Types())
	assert.Empty(t, room.Roster())
	assert.False(t, room.Closed())
}

func TestRoomReapWhenEmptyAfterCoordinator(t *testing.T) {
	room := newRoom()
	_, err := room.Join("S1", "Fox", nil)
	require.NoError(t, err)

	out, err := room.Leave("T", core.ReapWhenEmptyAfterCoordinator)
	require.NoError(t, err)
	assert.False(t, out.Closed, "participants remain")

	out, err = room.Leave("S1", core.ReapWhenEmptyAfterCoordinator)
	require.NoError(t, err)
	assert.False(t, out.Closed, "a participant never closes the room")

	out, err = room.Leave("T", core.ReapWhenEmptyAfterCoordinator)
	require.NoError(t, err)
	assert.True(t, out.Closed)
	assert.True(t, room.Closed())
}

func TestRoomReapOnCoordinatorLeaveNotifiesRemaining(t *testing.T) {
	room := newRoom()
	s1 := &sink{}
	_, err := room.Join("S1", "Fox", s1)
	require.NoError(t, err)

	out, err := room.Leave("T", core.ReapOnCoordinatorLeave)
	require.NoError(t, err)
	assert.True(t, out.Closed)
	assert.True(t, out.Reaped)
	assert.Equal(t, 1, out.Remaining)
	assert.Equal(t, []core.EventType{core.EventJoined, core.EventRoomClosed}, s1.Types())
	assert.Equal(t, 0, room.SubscriberCount())

	_, err = room.Join("S2", "Owl", nil)
	assert.ErrorIs(t, err, core.ErrRoomNotFound)
	_, err = room.Publish(strokeEvent(""), "S1")
	assert.ErrorIs(t, err, core.ErrRoomNotFound)

	out, err = room.Leave("S1", core.ReapOnCoordinatorLeave)
	require.NoError(t, err)
	assert.True(t, out.Closed)
	assert.False(t, out.Reaped)
}

func TestRoomPublishRequiresMembership(t *testing.T) {
	room := newRoom()
	_, err := room.Publish(strokeEvent(""), "stranger")
	assert.ErrorIs(t, err, core.ErrNotMember)
}

func TestRoomPublishEchoSuppression(t *testing.T) {
	room := newRoom()
	tutor, s1, s2 := &sink{}, &sink{}, &sink{}
	room.Attach("T", tutor)
	_, _ = room.Join("S1", "Fox", s1)
	_, _ = room.Join("S2", "Owl", s2)

	res, err := room.Publish(strokeEvent(""), "S1")
	require.NoError(t, err)
	assert.Equal(t, 2, res.SendTo)

	assert.NotContains(t, s1.Types()[1:], core.EventDraw)
	assert.Contains(t, tutor.Types(), core.EventDraw)
	assert.Contains(t, s2.Types(), core.EventDraw)
}

func TestRoomDeliveryFailureKeepsMutation(t *testing.T) {
	room := newRoom()
	broken := &sink{err: core.ErrSubscriberClosed}
	room.Attach("T", broken)

	res, err := room.Join("S1", "Fox", &sink{})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrTransportDelivery)
	assert.ErrorIs(t, err, core.ErrSubscriberClosed)
	assert.Equal(t, "Fox", res.DisplayName)
	assert.Equal(t, []domain.Member{{ID: "S1", DisplayName: "Fox"}}, room.Roster())
}

func TestRoomSendTo(t *testing.T) {
	room := newRoom()
	s1 := &sink{}
	_, _ = room.Join("S1", "Fox", s1)

	require.NoError(t, room.SendTo("S1", core.Event{Type: core.EventStateRequested, Room: "AB12CD", Requester: "T"}))
	assert.Equal(t, core.EventStateRequested, s1.Events()[1].Type)

	err := room.SendTo("T", core.Event{Type: core.EventSnapshot})
	assert.ErrorIs(t, err, core.ErrNoSubscriber)
	var de *core.DeliveryError
	assert.True(t, errors.As(err, &de))
}

func TestRoomDetachOnlyMatchingSubscriber(t *testing.T) {
	room := newRoom()
	oldConn, newConn := &sink{}, &sink{}
	room.Attach("T", oldConn)
	room.Attach("T", newConn)

	assert.False(t, room.Detach("T", oldConn), "a stale connection must not drop its replacement")
	assert.Equal(t, 1, room.SubscriberCount())
	assert.True(t, room.Detach("T", newConn))
	assert.Equal(t, 0, room.SubscriberCount())
}

func TestRoomSnapshotsAreForgottenOnLeave(t *testing.T) {
	room := newRoom()
	_, _ = room.Join("S1", "Fox", nil)
	require.True(t, room.StoreSnapshot("S1", "data:image/png;base64,AAAA"))

	snap, ok := room.LatestSnapshot("S1")
	require.True(t, ok)
	assert.Equal(t, "data:image/png;base64,AAAA", snap.Raster)
	assert.Equal(t, domain.RoomCode("AB12CD"), snap.Room)

	_, _ = room.Leave("S1", nil)
	_, ok = room.LatestSnapshot("S1")
	assert.False(t, ok)

	assert.False(t, room.StoreSnapshot("S1", "data:image/png;base64,BBBB"), "a departed participant stores nothing")
	_, ok = room.LatestSnapshot("S1")
	assert.False(t, ok)
}

func TestRoomSnapshotRacingLeave(t *testing.T) {
	for range 50 {
		room := newRoom()
		_, _ = room.Join("S1", "Fox", nil)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			room.StoreSnapshot("S1", "data:image/png;base64,AAAA")
		}()
		go func() {
			defer wg.Done()
			_, _ = room.Leave("S1", nil)
		}()
		wg.Wait()

		_, ok := room.LatestSnapshot("S1")
		assert.False(t, ok)
	}
}
