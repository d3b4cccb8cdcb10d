package app

import (
	"slices"
	"sync"

	"github.com/dkeye/Duet/internal/core"
	"github.com/dkeye/Duet/internal/domain"
	"github.com/rs/zerolog/log"
)

type participantEntry struct {
	Session    *core.Session
	JoinedRoom domain.RoomID
	InChat     bool
}

// Registry is the connection registry: the single active connection for
// each display name. It never notifies anyone; callers orchestrate cascades.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*participantEntry
	order  []string
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*participantEntry)}
}

// Register binds name to conn. A second register for a live name fails with
// domain.ErrIdentityConflict and leaves the first registration untouched.
func (r *Registry) Register(id core.ConnID, name string, conn core.SignalConnection) (*core.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[name]; ok {
		log.Warn().Str("module", "app.registry").Str("name", name).Str("conn", string(id)).Msg("name already connected")
		return nil, domain.ErrIdentityConflict
	}
	sess := core.NewSession(id, name, conn)
	r.byName[name] = &participantEntry{Session: sess}
	r.order = append(r.order, name)
	log.Info().Str("module", "app.registry").Str("name", name).Str("conn", string(id)).Msg("registered")
	return sess, nil
}

func (r *Registry) Lookup(name string) (*core.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.byName[name]; ok {
		return e.Session, true
	}
	return nil, false
}

// Unregister is idempotent; it returns false if name was not registered.
func (r *Registry) Unregister(name string) (*core.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	delete(r.byName, name)
	if i := slices.Index(r.order, name); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
	log.Info().Str("module", "app.registry").Str("name", name).Str("conn", string(e.Session.ID)).Msg("unregistered")
	return e.Session, true
}

// ListNames returns the registered names in registration order.
func (r *Registry) ListNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Sessions returns all live sessions in registration order.
func (r *Registry) Sessions() []*core.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*core.Session, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name].Session)
	}
	return out
}

func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byName[name]
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}

// Participant returns a copy of the participant registered under name.
func (r *Registry) Participant(name string) (domain.Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byName[name]
	if !ok {
		return domain.Participant{}, false
	}
	return domain.Participant{
		Name:       name,
		ConnID:     string(e.Session.ID),
		JoinedRoom: e.JoinedRoom,
		InChat:     e.InChat,
	}, true
}

// SetJoinedRoom records the room name belongs to; an empty id clears it.
func (r *Registry) SetJoinedRoom(name string, id domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byName[name]
	if !ok {
		return false
	}
	e.JoinedRoom = id
	log.Debug().Str("module", "app.registry").Str("name", name).Str("room", string(id)).Msg("updated room")
	return true
}

func (r *Registry) SetInChat(name string, in bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byName[name]
	if !ok {
		return false
	}
	e.InChat = in
	return true
}

// ChatNames returns the chat presence set in registration order.
func (r *Registry) ChatNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.order))
	for _, name := range r.order {
		if r.byName[name].InChat {
			out = append(out, name)
		}
	}
	return out
}
