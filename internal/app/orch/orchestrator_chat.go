package orch

import (
	"encoding/json"

	"github.com/dkeye/Duet/internal/core"
	"github.com/dkeye/Duet/internal/domain"
)

// ChatJoin adds the caller to the chat presence set and echoes the set to all.
func (o *Orchestrator) ChatJoin(sess *core.Session) error {
	return o.setChatPresence(sess, true, core.TypeChatJoin, core.ChatJoined)
}

func (o *Orchestrator) ChatLeave(sess *core.Session) error {
	return o.setChatPresence(sess, false, core.TypeChatLeave, core.ChatLeft)
}

func (o *Orchestrator) setChatPresence(sess *core.Session, in bool, typ string, kind core.EventKind) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	p, ok := o.current(sess)
	if !ok {
		return domain.ErrNotConnected
	}
	o.Registry.SetInChat(p.Name, in)
	o.broadcast(core.ChatPresenceMsg{Type: typ, Sender: p.Name, Users: o.Registry.ChatNames()})
	o.Events.Publish(core.Event{Kind: kind, Name: p.Name})
	return nil
}

// Chat relays message verbatim to every connection, the sender included.
func (o *Orchestrator) Chat(sess *core.Session, message json.RawMessage) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	p, ok := o.current(sess)
	if !ok {
		return domain.ErrNotConnected
	}
	o.broadcast(core.ChatMsg{Type: core.TypeChat, Sender: p.Name, Message: message})
	o.Events.Publish(core.Event{Kind: core.ChatMessage, Name: p.Name})
	return nil
}
