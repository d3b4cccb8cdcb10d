package signal

import (
	"fmt"

	"github.com/dkeye/Duet/internal/core"
	"github.com/dkeye/Duet/internal/domain"
)

func (ctl *SignalWSController) handleChatJoin(sess *core.Session) {
	_ = ctl.Orch.ChatJoin(sess)
}

func (ctl *SignalWSController) handleChatLeave(sess *core.Session) {
	_ = ctl.Orch.ChatLeave(sess)
}

func (ctl *SignalWSController) handleChat(sess *core.Session, c *WsSignalConn, env core.Envelope) {
	if len(env.Message) == 0 {
		ctl.sendError(c, fmt.Errorf("%w: empty chat message", domain.ErrBadPayload))
		return
	}
	_ = ctl.Orch.Chat(sess, env.Message)
}

func (ctl *SignalWSController) handleWhoAmI(sess *core.Session, c *WsSignalConn) {
	resp, ok := ctl.Orch.WhoAmI(sess)
	if !ok {
		return
	}
	ctl.sendJSON(c, resp)
}
