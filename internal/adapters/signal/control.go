package signal

import "github.com/dkeye/Duet/internal/core"

func (ctl *SignalWSController) handlePing(c *WsSignalConn) {
	ctl.sendJSON(c, core.PongMsg{Type: core.TypePong})
}
