package orch

import (
	"github.com/dkeye/Duet/internal/core"
	"github.com/dkeye/Duet/internal/domain"
	"github.com/rs/zerolog/log"
)

// CreateRoom opens the room named after the caller. A non-empty roomID must
// match the caller's display name.
func (o *Orchestrator) CreateRoom(sess *core.Session, roomID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	p, ok := o.current(sess)
	if !ok {
		return domain.ErrNotConnected
	}
	id := domain.RoomID(p.Name)
	if roomID != "" && domain.RoomID(roomID) != id {
		return o.reject(sess, domain.ErrRoomIDMismatch)
	}
	switch p.JoinedRoom {
	case "":
	case id:
		return o.reject(sess, domain.ErrRoomAlreadyExists)
	default:
		return o.reject(sess, domain.ErrAlreadyInRoom)
	}

	room, err := o.Rooms.Create(id, p.Name)
	if err != nil {
		return o.reject(sess, err)
	}
	o.Registry.SetJoinedRoom(p.Name, room.ID)
	_ = o.send(sess, core.RoomMsg{Type: core.TypeRoomCreated, RoomID: room.ID})
	o.Events.Publish(core.Event{Kind: core.RoomCreated, Name: p.Name, Room: room.ID})
	return nil
}

func (o *Orchestrator) JoinRoom(sess *core.Session, roomID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	p, ok := o.current(sess)
	if !ok {
		return domain.ErrNotConnected
	}
	if roomID == "" {
		return o.reject(sess, domain.ErrRoomNotFound)
	}
	if p.JoinedRoom != "" {
		return o.reject(sess, domain.ErrAlreadyInRoom)
	}

	room, err := o.Rooms.Join(domain.RoomID(roomID), p.Name)
	if err != nil {
		return o.reject(sess, err)
	}
	o.Registry.SetJoinedRoom(p.Name, room.ID)

	msg := core.RoomMsg{Type: core.TypeRoomJoined, RoomID: room.ID, JoinerName: p.Name}
	_ = o.send(sess, msg)
	_ = o.sendTo(room.Creator, msg)
	o.Events.Publish(core.Event{Kind: core.RoomJoined, Name: p.Name, Room: room.ID, Peer: room.Creator})
	return nil
}

// LeaveRoom takes the caller out of its current room. The creator leaving
// terminates the room for both parties; the occupant leaving vacates it.
// Leaving while in no room, or naming a room the caller is not in, does
// nothing at all.
func (o *Orchestrator) LeaveRoom(sess *core.Session, roomID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	p, ok := o.current(sess)
	if !ok {
		return domain.ErrNotConnected
	}
	id := p.JoinedRoom
	if id == "" || (roomID != "" && domain.RoomID(roomID) != id) {
		log.Debug().Str("module", "app.orch").Str("name", p.Name).Str("room", roomID).Msg("leave ignored, not in room")
		return nil
	}

	outcome, room, err := o.Rooms.Leave(id, p.Name)
	if err != nil {
		log.Warn().Err(err).Str("module", "app.orch").Str("name", p.Name).Str("room", string(id)).Msg("stale room link cleared")
		o.Registry.SetJoinedRoom(p.Name, "")
		return nil
	}

	switch outcome {
	case domain.Terminated:
		o.teardown(room, p.Name)
		o.Events.Publish(core.Event{Kind: core.RoomDeleted, Name: p.Name, Room: id, Peer: room.Occupant})
	case domain.Vacated:
		o.Registry.SetJoinedRoom(p.Name, "")
		msg := core.RoomMsg{Type: core.TypeRoomLeft, RoomID: id, UserName: p.Name}
		_ = o.send(sess, msg)
		_ = o.sendTo(room.Creator, msg)
		o.Events.Publish(core.Event{Kind: core.RoomLeft, Name: p.Name, Room: id, Peer: room.Creator})
	}
	return nil
}

// DeleteRoom lets the creator close its room explicitly.
func (o *Orchestrator) DeleteRoom(sess *core.Session, roomID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	p, ok := o.current(sess)
	if !ok {
		return domain.ErrNotConnected
	}
	room, ok := o.Rooms.Get(domain.RoomID(roomID))
	if !ok {
		return o.reject(sess, domain.ErrRoomNotFound)
	}
	if room.Creator != p.Name {
		return o.reject(sess, domain.ErrNotRoomCreator)
	}

	o.Rooms.Remove(room.ID)
	o.teardown(room, p.Name)
	o.Events.Publish(core.Event{Kind: core.RoomDeleted, Name: p.Name, Room: room.ID, Peer: room.Occupant})
	return nil
}

// teardown unlinks both parties of a removed room and tells each of them.
func (o *Orchestrator) teardown(room domain.Room, by string) {
	msg := core.RoomMsg{Type: core.TypeRoomDeleted, RoomID: room.ID, UserName: by}
	for _, name := range []string{room.Occupant, room.Creator} {
		if name == "" {
			continue
		}
		o.Registry.SetJoinedRoom(name, "")
		if err := o.sendTo(name, msg); err != nil {
			log.Debug().Err(err).Str("module", "app.orch").Str("name", name).Str("room", string(room.ID)).Msg("room-deleted not delivered")
		}
	}
}
