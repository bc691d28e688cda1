package signal

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/Board/internal/app"
	"github.com/dkeye/Board/internal/app/orch"
	"github.com/dkeye/Board/internal/core"
	"github.com/dkeye/Board/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type Options struct {
	SendBuffer int
	ReadLimit  int64
	PingPeriod time.Duration
	DrawLimit  int
	DrawWindow time.Duration
}

func (o Options) withDefaults() Options {
	if o.SendBuffer <= 0 {
		o.SendBuffer = 64
	}
	if o.ReadLimit <= 0 {
		o.ReadLimit = 64 * 1024
	}
	if o.PingPeriod <= 0 {
		o.PingPeriod = 54 * time.Second
	}
	if o.DrawLimit <= 0 {
		o.DrawLimit = 120
	}
	if o.DrawWindow <= 0 {
		o.DrawWindow = time.Second
	}
	return o
}

type SignalWSController struct {
	Orch     *orch.Orchestrator
	Registry *app.Registry

	opts    Options
	limiter *DrawRateLimiter
}

func NewSignalWSController(o *orch.Orchestrator, reg *app.Registry, opts Options) *SignalWSController {
	opts = opts.withDefaults()
	return &SignalWSController{
		Orch:     o,
		Registry: reg,
		opts:     opts,
		limiter:  NewDrawRateLimiter(opts.DrawLimit, opts.DrawWindow),
	}
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrSubscriberClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
}

// connSubscriber is how the rooms see one websocket connection.
type connSubscriber struct {
	sid  core.SessionID
	conn *WsSignalConn
	reg  *app.Registry
}

func (s *connSubscriber) Notify(ev core.Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if ev.Type == core.EventRoomClosed {
		s.reg.ClearRoom(s.sid, ev.Room)
	}
	return s.conn.TrySend(b)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	identity, err := domain.ParseParticipantID(c.GetString("client_token"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing client token"})
		return
	}
	sid := core.SessionID(uuid.NewString())
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("identity", string(identity)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, ctl.opts.SendBuffer),
	}
	sub := &connSubscriber{sid: sid, conn: conn, reg: ctl.Registry}
	ctx, cancel := context.WithCancel(ctx)
	ctl.Registry.Bind(sid, identity, sub, cancel)
	log.Debug().Str("module", "signal").Int("connections", ctl.Registry.Len()).Msg("connection registered")

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, sid, conn)
}

// disconnect leaves the bound room unless the same identity is still
// connected to it through another connection. Unbind also cancels the
// connection context.
func (ctl *SignalWSController) disconnect(ctx context.Context, sid core.SessionID) {
	b, ok := ctl.Registry.Unbind(sid)
	if !ok || b.Room == "" {
		return
	}
	if peer, ok := ctl.Registry.Peer(b.Identity, b.Room); ok {
		// hand the room subscription to the tab that is still open
		if err := ctl.Orch.Attach(b.Room, b.Identity, peer.Sub); err != nil {
			log.Debug().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("reattach peer")
		}
		return
	}
	ctl.limiter.Forget(b.Identity)
	if err := ctl.Orch.Leave(context.WithoutCancel(ctx), b.Room, b.Identity); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("leave on disconnect")
	}
}

func (ctl *SignalWSController) sendJSON(c *WsSignalConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	if err := c.TrySend(b); err != nil {
		log.Debug().Err(err).Str("module", "signal").Msg("sendJSON dropped")
	}
}
