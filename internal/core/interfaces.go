package core

import "github.com/dkeye/Duet/internal/domain"

type EventKind int

const (
	ParticipantConnected EventKind = iota + 1
	ParticipantDisconnected
	RoomCreated
	RoomJoined
	RoomLeft
	RoomDeleted
	ChatJoined
	ChatLeft
	ChatMessage
)

var eventNames = map[EventKind]string{
	ParticipantConnected:    "participant_connected",
	ParticipantDisconnected: "participant_disconnected",
	RoomCreated:             "room_created",
	RoomJoined:              "room_joined",
	RoomLeft:                "room_left",
	RoomDeleted:             "room_deleted",
	ChatJoined:              "chat_joined",
	ChatLeft:                "chat_left",
	ChatMessage:             "chat_message",
}

func (k EventKind) String() string {
	if s, ok := eventNames[k]; ok {
		return s
	}
	return "unknown"
}

// Event is published by the orchestrator after a state transition has been
// applied. Room is set for room events and for disconnects that tore down or
// vacated a room.
type Event struct {
	Kind EventKind
	Name string
	Room domain.RoomID
	Peer string
}

// RoomStateChanged reports whether the public room list may differ after ev.
func (ev Event) RoomStateChanged() bool {
	switch ev.Kind {
	case RoomCreated, RoomJoined, RoomLeft, RoomDeleted, ParticipantDisconnected:
		return true
	}
	return false
}
