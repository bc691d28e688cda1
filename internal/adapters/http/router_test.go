package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	boardhttp "github.com/dkeye/Board/internal/adapters/http"
	"github.com/dkeye/Board/internal/app"
	"github.com/dkeye/Board/internal/app/orch"
	"github.com/dkeye/Board/internal/config"
	"github.com/dkeye/Board/internal/core"
	"github.com/dkeye/Board/internal/domain"
	"github.com/dkeye/Board/internal/persist"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) (*gin.Engine, *orch.Orchestrator) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rooms := app.NewRoomManager(app.RoomManagerOptions{
		Codes: core.CodeFunc(func() domain.RoomCode { return "AB12CD" }),
		Room:  core.RoomOptions{UniqueNames: true},
	})
	o := &orch.Orchestrator{
		Rooms:   rooms,
		Reaper:  app.NewReaper(rooms, core.ReapOnCoordinatorLeave, nil),
		Payload: core.PayloadPolicy{MaxBytes: core.DefaultMaxPayloadBytes},
		Policy:  app.DetachClosed{},
	}
	cfg := &config.Config{Mode: "test", StaticPath: t.TempDir(), Secret: "test-secret"}
	return boardhttp.SetupRouter(context.Background(), cfg, boardhttp.Deps{Orch: o}), o
}

func do(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "ct", Value: token})
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestRoomLifecycleOverREST(t *testing.T) {
	r, o := newRouter(t)

	w := do(t, r, http.MethodPost, "/api/rooms", "T", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "AB12CD", decode(t, w)["code"])

	w = do(t, r, http.MethodPost, "/api/rooms/ab12cd/join", "S1", map[string]any{"name": "Fox"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Fox", decode(t, w)["displayName"])

	w = do(t, r, http.MethodPost, "/api/rooms/AB12CD/join", "", map[string]any{"name": "Fox", "identity": "S2"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Fox1", body["displayName"])
	assert.Equal(t, true, body["renamed"])

	w = do(t, r, http.MethodGet, "/api/rooms/AB12CD/roster", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["roster"], 2)

	w = do(t, r, http.MethodPost, "/api/rooms/AB12CD/draw", "S1", map[string]any{
		"stroke": map[string]any{"kind": "stroke", "points": []map[string]any{{"x": 1, "y": 1}}, "style": map[string]any{"width": 2}},
	})
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = do(t, r, http.MethodPost, "/api/rooms/AB12CD/state", "T", map[string]any{"target": "S1"})
	assert.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Equal(t, "partial", decode(t, w)["delivery"], "S1 has no subscription over REST")

	w = do(t, r, http.MethodGet, "/api/rooms", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["rooms"], 1)

	w = do(t, r, http.MethodPost, "/api/rooms/AB12CD/leave", "S1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, r, http.MethodPost, "/api/rooms/AB12CD/leave", "S1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, r, http.MethodPost, "/api/rooms/AB12CD/leave", "T", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, o.List())
}

func TestRESTErrorMapping(t *testing.T) {
	r, _ := newRouter(t)
	require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/api/rooms", "T", nil).Code)

	w := do(t, r, http.MethodPost, "/api/rooms/NOPE00/join", "S1", map[string]any{"name": "Fox"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodGet, "/api/rooms/NOPE00/roster", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodPost, "/api/rooms/AB12CD/draw", "stranger", map[string]any{
		"stroke": map[string]any{"kind": "clear"},
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, http.MethodPost, "/api/rooms/AB12CD/draw", "T", map[string]any{
		"stroke": map[string]any{"kind": "stroke"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/rooms/AB12CD/draw", "T", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/rooms/AB12CD/state", "T", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/rooms/NOPE00/leave", "S1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestClientTokenCookieIsIssued(t *testing.T) {
	r, _ := newRouter(t)
	w := do(t, r, http.MethodGet, "/api/rooms", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var found bool
	for _, c := range w.Result().Cookies() {
		if c.Name == "ct" {
			found = true
			assert.NotEmpty(t, c.Value)
			assert.True(t, c.HttpOnly)
		}
	}
	assert.True(t, found)
}

func TestArchivedSnapshotsForCoordinator(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := persist.NewRedisStore(client, "test:", time.Hour)

	rooms := app.NewRoomManager(app.RoomManagerOptions{
		Codes: core.CodeFunc(func() domain.RoomCode { return "AB12CD" }),
		Room:  core.RoomOptions{UniqueNames: true},
	})
	o := &orch.Orchestrator{
		Rooms:   rooms,
		Reaper:  app.NewReaper(rooms, core.ReapOnCoordinatorLeave, store),
		Payload: core.PayloadPolicy{MaxBytes: core.DefaultMaxPayloadBytes},
		Policy:  app.DetachClosed{},
		Archive: store,
	}
	cfg := &config.Config{Mode: "test", StaticPath: t.TempDir(), Secret: "test-secret"}
	r := boardhttp.SetupRouter(context.Background(), cfg, boardhttp.Deps{Orch: o, Snapshots: store})

	require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/api/rooms", "T", nil).Code)
	require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/api/rooms/AB12CD/join", "S1", map[string]any{"name": "Fox"}).Code)
	w := do(t, r, http.MethodPost, "/api/rooms/AB12CD/draw", "S1", map[string]any{"raster": "data:image/png;base64,AAAA"})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	w = do(t, r, http.MethodGet, "/api/rooms/AB12CD/snapshots/S1", "T", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	snap := decode(t, w)["snapshot"].(map[string]any)
	assert.Equal(t, "data:image/png;base64,AAAA", snap["raster"])

	w = do(t, r, http.MethodGet, "/api/rooms/AB12CD/snapshots", "T", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["snapshots"], 1)

	assert.Equal(t, http.StatusForbidden, do(t, r, http.MethodGet, "/api/rooms/AB12CD/snapshots/S1", "S1", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/api/rooms/AB12CD/snapshots/S2", "T", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/api/rooms/NOPE00/snapshots", "T", nil).Code)
}
