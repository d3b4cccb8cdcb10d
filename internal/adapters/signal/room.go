package signal

import (
	"github.com/dkeye/Duet/internal/core"
	"github.com/rs/zerolog/log"
)

// Room requests carry only a room id; who is asking is always sess.
// Rejections are answered with room-error by the orchestrator.

func (ctl *SignalWSController) handleCreateRoom(sess *core.Session, env core.Envelope) {
	if err := ctl.Orch.CreateRoom(sess, env.RoomID); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("name", sess.Name).Msg("create-room")
	}
}

func (ctl *SignalWSController) handleJoinRoom(sess *core.Session, env core.Envelope) {
	if err := ctl.Orch.JoinRoom(sess, env.RoomID); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("name", sess.Name).Str("room", env.RoomID).Msg("join-room")
	}
}

func (ctl *SignalWSController) handleLeaveRoom(sess *core.Session, env core.Envelope) {
	_ = ctl.Orch.LeaveRoom(sess, env.RoomID)
}

func (ctl *SignalWSController) handleDeleteRoom(sess *core.Session, env core.Envelope) {
	if err := ctl.Orch.DeleteRoom(sess, env.RoomID); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("name", sess.Name).Str("room", env.RoomID).Msg("delete-room")
	}
}
