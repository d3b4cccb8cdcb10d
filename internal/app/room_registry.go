package app

import (
	"slices"
	"sync"

	"github.com/dkeye/Duet/internal/domain"
	"github.com/rs/zerolog/log"
)

// RoomRegistry tracks every live room and its occupancy.
// Iteration order is creation order.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*domain.Room
	order []domain.RoomID
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{rooms: make(map[domain.RoomID]*domain.Room)}
}

func (rr *RoomRegistry) Create(id domain.RoomID, creator string) (domain.Room, error) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	if _, ok := rr.rooms[id]; ok {
		return domain.Room{}, domain.ErrRoomAlreadyExists
	}
	room := &domain.Room{ID: id, Creator: creator}
	rr.rooms[id] = room
	rr.order = append(rr.order, id)
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Str("creator", creator).Msg("room created")
	return *room, nil
}

func (rr *RoomRegistry) Join(id domain.RoomID, occupant string) (domain.Room, error) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	room, ok := rr.rooms[id]
	if !ok {
		return domain.Room{}, domain.ErrRoomNotFound
	}
	if room.IsFull() {
		return domain.Room{}, domain.ErrRoomFull
	}
	room.Occupant = occupant
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Str("occupant", occupant).Msg("room joined")
	return *room, nil
}

// Leave vacates the room when the occupant leaves and removes it when the
// creator leaves. The returned room is the state before the leave.
func (rr *RoomRegistry) Leave(id domain.RoomID, name string) (domain.LeaveOutcome, domain.Room, error) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	room, ok := rr.rooms[id]
	if !ok {
		return 0, domain.Room{}, domain.ErrRoomNotFound
	}
	before := *room
	switch name {
	case room.Creator:
		rr.removeLocked(id)
		log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("creator left, room terminated")
		return domain.Terminated, before, nil
	case room.Occupant:
		room.Occupant = ""
		log.Info().Str("module", "app.rooms").Str("room", string(id)).Str("occupant", name).Msg("occupant left")
		return domain.Vacated, before, nil
	}
	return 0, before, domain.ErrNotInRoom
}

// Remove deletes the room unconditionally.
func (rr *RoomRegistry) Remove(id domain.RoomID) (domain.Room, bool) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	room, ok := rr.rooms[id]
	if !ok {
		return domain.Room{}, false
	}
	rr.removeLocked(id)
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room removed")
	return *room, true
}

func (rr *RoomRegistry) removeLocked(id domain.RoomID) {
	delete(rr.rooms, id)
	if i := slices.Index(rr.order, id); i >= 0 {
		rr.order = slices.Delete(rr.order, i, i+1)
	}
}

func (rr *RoomRegistry) Get(id domain.RoomID) (domain.Room, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	room, ok := rr.rooms[id]
	if !ok {
		return domain.Room{}, false
	}
	return *room, true
}

// FindRoomsContaining returns every room where name is creator or occupant.
func (rr *RoomRegistry) FindRoomsContaining(name string) []domain.RoomID {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	var out []domain.RoomID
	for _, id := range rr.order {
		if rr.rooms[id].Has(name) {
			out = append(out, id)
		}
	}
	return out
}

// ListPublic is the room-list snapshot, in creation order.
func (rr *RoomRegistry) ListPublic() []domain.RoomInfo {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	out := make([]domain.RoomInfo, 0, len(rr.order))
	for _, id := range rr.order {
		out = append(out, rr.rooms[id].Info())
	}
	return out
}

func (rr *RoomRegistry) Len() int {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	return len(rr.rooms)
}
