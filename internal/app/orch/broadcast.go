package orch

import (
	"github.com/dkeye/Duet/internal/core"
	"github.com/rs/zerolog/log"
)

// BroadcastRoomList pushes the current room list to every connection.
// One stuck connection never holds up the others.
func (o *Orchestrator) BroadcastRoomList() {
	o.broadcast(core.RoomListMsg{Type: core.TypeRoomList, Rooms: o.Rooms.ListPublic()})
}

func (o *Orchestrator) notifyRoomList(ev core.Event) {
	if ev.RoomStateChanged() {
		o.BroadcastRoomList()
	}
}

func (o *Orchestrator) broadcast(v any) {
	b, err := core.Encode(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.orch").Msg("marshal broadcast")
		return
	}
	sent, failed := 0, 0
	for _, sess := range o.Registry.Sessions() {
		if err := o.deliver(sess, b); err != nil {
			failed++
			continue
		}
		sent++
	}
	log.Debug().Str("module", "app.orch").Int("sent_to", sent).Int("failed", failed).Msg("broadcast result")
}
