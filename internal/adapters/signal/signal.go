package signal

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/Duet/internal/app/orch"
	"github.com/dkeye/Duet/internal/config"
	"github.com/dkeye/Duet/internal/core"
	"github.com/dkeye/Duet/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// SessionNameKey is the cookie-session key holding the last display name
// approved by the username check.
const SessionNameKey = "displayName"

type Options struct {
	ReadLimit  int64
	PingPeriod time.Duration
	PongWait   time.Duration
	WriteWait  time.Duration
	SendBuffer int
	RateLimit  float64
	RateBurst  int
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
		PongWait:   cfg.PongWait,
		WriteWait:  cfg.WriteWait,
		SendBuffer: cfg.SendBuffer,
		RateLimit:  cfg.RateLimit,
		RateBurst:  cfg.RateBurst,
	}
}

type SignalWSController struct {
	Orch *orch.Orchestrator
	Opts Options
}

func NewSignalWSController(o *orch.Orchestrator, opts Options) *SignalWSController {
	return &SignalWSController{Orch: o, Opts: opts}
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newWsSignalConn(ws *websocket.Conn, buffer int) *WsSignalConn {
	return &WsSignalConn{conn: ws, send: make(chan core.Frame, buffer)}
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrConnClosed
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
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal performs the handshake. The display name comes from the
// displayName query parameter, or from the cookie session when absent.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	name := c.Query("displayName")
	if name == "" {
		if v, ok := sessions.Default(c).Get(SessionNameKey).(string); ok {
			name = v
		}
	}
	if err := domain.ValidateName(name, ctl.Orch.MaxNameLen); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": domain.ErrorCode(err), "error": err.Error()})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.Opts.ReadLimit)

	id := core.ConnID(uuid.NewString())
	conn := newWsSignalConn(ws, ctl.Opts.SendBuffer)
	log.Info().Str("module", "signal").Str("conn", string(id)).Str("name", name).Str("ct", c.GetString("client_token")).Msg("new WS connection")

	sess, err := ctl.Orch.Connect(id, name, conn)
	if err != nil {
		ctl.rejectHandshake(ws, err)
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, sess, conn)
}

// rejectHandshake tells the client why and closes with a policy violation.
// The connection was never registered, so no cleanup follows.
func (ctl *SignalWSController) rejectHandshake(ws *websocket.Conn, err error) {
	log.Warn().Err(err).Str("module", "signal").Msg("handshake rejected")
	deadline := time.Now().Add(ctl.Opts.WriteWait)
	_ = ws.SetWriteDeadline(deadline)
	_ = ws.WriteJSON(core.NewErrorMsg(core.TypeConnectError, err))
	_ = ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, domain.ErrorCode(err)), deadline)
	_ = ws.Close()
}
