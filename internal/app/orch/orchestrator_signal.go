package orch

import (
	"encoding/json"

	"github.com/dkeye/Duet/internal/core"
	"github.com/dkeye/Duet/internal/domain"
	"github.com/rs/zerolog/log"
)

// Relay forwards payload, byte for byte, to the other party of roomID.
// The sender must be in that room. Nothing is ever echoed to the sender and
// undeliverable messages are dropped; the returned error is for logging only.
//
// Messages from one sender are relayed in the order its read loop hands them
// over and land in the peer's single outbound queue, so each directed pair is
// FIFO.
func (o *Orchestrator) Relay(sess *core.Session, typ, roomID string, payload json.RawMessage) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	p, ok := o.current(sess)
	if !ok {
		return domain.ErrNotConnected
	}
	room, ok := o.Rooms.Get(domain.RoomID(roomID))
	if !ok || !room.Has(p.Name) {
		log.Debug().Str("module", "app.orch").Str("name", p.Name).Str("room", roomID).Str("type", typ).Msg("relay dropped, sender not in room")
		return domain.ErrNotInRoom
	}
	peer, ok := room.Peer(p.Name)
	if !ok {
		log.Debug().Str("module", "app.orch").Str("name", p.Name).Str("room", roomID).Str("type", typ).Msg("relay dropped, no peer")
		return domain.ErrPeerUnreachable
	}

	err := o.sendTo(peer, core.RelayMsg{Type: typ, RoomID: room.ID, From: p.Name, Payload: payload})
	if err != nil {
		log.Debug().Err(err).Str("module", "app.orch").Str("name", p.Name).Str("peer", peer).Str("type", typ).Msg("relay dropped")
		return domain.ErrPeerUnreachable
	}
	log.Debug().Str("module", "app.orch").Str("from", p.Name).Str("to", peer).Str("type", typ).Msg("relayed")
	return nil
}
