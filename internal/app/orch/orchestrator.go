package orch

import (
	"errors"
	"sync"

	"github.com/dkeye/Duet/internal/app"
	"github.com/dkeye/Duet/internal/core"
	"github.com/dkeye/Duet/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// Orchestrator owns every state transition of the presence and room
// registries. All transitions run under mu, so a request never observes a
// room that is half torn down.
type Orchestrator struct {
	Registry   *app.Registry
	Rooms      *app.RoomRegistry
	Policy     app.Policy
	Events     *app.Bus
	ICEServers []webrtc.ICEServer
	MaxNameLen int

	mu sync.Mutex
}

// New wires the orchestrator and subscribes the room-list notifier to its bus.
func New(reg *app.Registry, rooms *app.RoomRegistry, policy app.Policy, bus *app.Bus) *Orchestrator {
	if bus == nil {
		bus = app.NewBus()
	}
	o := &Orchestrator{
		Registry: reg,
		Rooms:    rooms,
		Policy:   policy,
		Events:   bus,
	}
	bus.Subscribe(o.notifyRoomList)
	return o
}

// Connect moves a connection from CONNECTING to CONNECTED. On error nothing
// was registered and the caller must reject the connection.
func (o *Orchestrator) Connect(id core.ConnID, name string, conn core.SignalConnection) (*core.Session, error) {
	if err := domain.ValidateName(name, o.MaxNameLen); err != nil {
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	sess, err := o.Registry.Register(id, name, conn)
	if err != nil {
		return nil, err
	}
	_ = o.send(sess, core.ConnectedMsg{
		Type:        core.TypeConnected,
		DisplayName: name,
		ConnID:      id,
		ICEServers:  o.ICEServers,
	})
	_ = o.send(sess, core.RoomListMsg{Type: core.TypeRoomList, Rooms: o.Rooms.ListPublic()})
	o.Events.Publish(core.Event{Kind: core.ParticipantConnected, Name: name})
	return sess, nil
}

// Disconnect runs the whole cleanup cascade for sess as one critical section:
// rooms created by the participant are removed, rooms it occupies are
// vacated, then the name is released and the room list is rebroadcast.
// It is a no-op for a session that is not the live registration of its name.
func (o *Orchestrator) Disconnect(sess *core.Session) {
	o.mu.Lock()
	defer o.mu.Unlock()

	p, ok := o.current(sess)
	if !ok {
		return
	}
	ev := core.Event{Kind: core.ParticipantDisconnected, Name: p.Name}

	for _, id := range o.Rooms.FindRoomsContaining(p.Name) {
		room, ok := o.Rooms.Get(id)
		if !ok {
			continue
		}
		ev.Room = id
		if room.Creator == p.Name {
			o.Rooms.Remove(id)
			ev.Peer = room.Occupant
			o.teardown(room, p.Name)
			continue
		}
		if _, _, err := o.Rooms.Leave(id, p.Name); err != nil {
			log.Error().Err(err).Str("module", "app.orch").Str("room", string(id)).Str("name", p.Name).Msg("leave on disconnect")
		}
		ev.Peer = room.Creator
		o.Registry.SetJoinedRoom(p.Name, "")
		_ = o.sendTo(room.Creator, core.RoomMsg{Type: core.TypeRoomLeft, RoomID: id, UserName: p.Name})
	}

	o.Registry.Unregister(p.Name)
	if p.InChat {
		o.broadcast(core.ChatPresenceMsg{Type: core.TypeChatLeave, Sender: p.Name, Users: o.Registry.ChatNames()})
	}
	log.Info().Str("module", "app.orch").Str("name", p.Name).Str("room", string(ev.Room)).Msg("disconnected")
	o.Events.Publish(ev)
}

// WhoAmI describes sess as the registry currently sees it.
func (o *Orchestrator) WhoAmI(sess *core.Session) (core.WhoAmIMsg, bool) {
	p, ok := o.current(sess)
	if !ok {
		return core.WhoAmIMsg{}, false
	}
	return core.WhoAmIMsg{
		Type:        core.TypeWhoAmI,
		DisplayName: p.Name,
		RoomID:      p.JoinedRoom,
		InChat:      p.InChat,
	}, true
}

// current resolves the identity of sess from the registry. Identity always
// comes from here, never from a client supplied field.
func (o *Orchestrator) current(sess *core.Session) (domain.Participant, bool) {
	if sess == nil {
		return domain.Participant{}, false
	}
	live, ok := o.Registry.Lookup(sess.Name)
	if !ok || live != sess {
		return domain.Participant{}, false
	}
	return o.Registry.Participant(sess.Name)
}

func (o *Orchestrator) sendTo(name string, v any) error {
	sess, ok := o.Registry.Lookup(name)
	if !ok {
		return domain.ErrPeerUnreachable
	}
	return o.send(sess, v)
}

func (o *Orchestrator) send(sess *core.Session, v any) error {
	b, err := core.Encode(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.orch").Msg("marshal outbound")
		return err
	}
	return o.deliver(sess, b)
}

func (o *Orchestrator) deliver(sess *core.Session, frame core.Frame) error {
	err := sess.Conn.TrySend(frame)
	if errors.Is(err, core.ErrBackpressure) {
		app.Apply(o.Policy, sess)
	}
	return err
}

// reject answers a refused room request to the requester only.
func (o *Orchestrator) reject(sess *core.Session, err error) error {
	log.Warn().Err(err).Str("module", "app.orch").Str("name", sess.Name).Msg("room request rejected")
	_ = o.send(sess, core.NewErrorMsg(core.TypeRoomError, err))
	return err
}
