package signal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dkeye/Duet/internal/core"
	"github.com/dkeye/Duet/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.Opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.Opts.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctl.Opts.WriteWait)); err != nil {
				log.Debug().Err(err).Str("module", "signal").Msg("writePump ping failed")
				return
			}
		}
	}
}

// readPump is the only reader of the connection. When it returns the
// participant goes through the disconnect cascade before the socket closes.
func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, sess *core.Session, c *WsSignalConn) {
	limiter := NewConnRateLimiter(ctl.Opts.RateLimit, ctl.Opts.RateBurst)
	defer func() {
		log.Info().Str("module", "signal").Str("conn", string(sess.ID)).Str("name", sess.Name).
			Int("rate_dropped", limiter.Dropped()).Msg("readPump closing")
		ctl.Orch.Disconnect(sess)
		c.Close()
		cancel()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.Opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.Opts.PongWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("module", "signal").Str("name", sess.Name).Msg("readPump read error")
			}
			return
		}
		if !limiter.Allow() {
			ctl.sendError(c, domain.ErrRateLimited)
			continue
		}
		ctl.handleSignal(sess, c, data)
	}
}

func (ctl *SignalWSController) handleSignal(sess *core.Session, c *WsSignalConn, data []byte) {
	var env core.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("name", sess.Name).Msg("bad json")
		ctl.sendError(c, domain.ErrBadPayload)
		return
	}

	switch {
	case env.Type == core.TypeCreateRoom:
		ctl.handleCreateRoom(sess, env)
	case env.Type == core.TypeJoinRoom:
		ctl.handleJoinRoom(sess, env)
	case env.Type == core.TypeLeaveRoom:
		ctl.handleLeaveRoom(sess, env)
	case env.Type == core.TypeDeleteRoom:
		ctl.handleDeleteRoom(sess, env)
	case core.RelayTypes[env.Type]:
		ctl.handleRelay(sess, env)
	case env.Type == core.TypeChatJoin:
		ctl.handleChatJoin(sess)
	case env.Type == core.TypeChatLeave:
		ctl.handleChatLeave(sess)
	case env.Type == core.TypeChat:
		ctl.handleChat(sess, c, env)
	case env.Type == core.TypeWhoAmI:
		ctl.handleWhoAmI(sess, c)
	case env.Type == core.TypePing:
		ctl.handlePing(c)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
		ctl.sendError(c, fmt.Errorf("%w: unknown type %q", domain.ErrBadPayload, env.Type))
	}
}

func (ctl *SignalWSController) sendJSON(c *WsSignalConn, v any) {
	b, err := core.Encode(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

func (ctl *SignalWSController) sendError(c *WsSignalConn, err error) {
	ctl.sendJSON(c, core.NewErrorMsg(core.TypeError, err))
}
