package signal

import (
	"github.com/dkeye/Duet/internal/core"
)

// handleRelay forwards offer/answer/candidate and media-state notices to the
// room peer. Failures are not reported back; WebRTC has its own timeouts.
func (ctl *SignalWSController) handleRelay(sess *core.Session, env core.Envelope) {
	_ = ctl.Orch.Relay(sess, env.Type, env.RoomID, env.Payload)
}
