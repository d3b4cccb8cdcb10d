package domain

// RoomID equals the display name of the room's creator.
type RoomID string

type Room struct {
	ID       RoomID
	Creator  string
	Occupant string
}

func (r Room) IsFull() bool { return r.Occupant != "" }

// Has reports whether name is the creator or the occupant.
func (r Room) Has(name string) bool {
	return name != "" && (r.Creator == name || r.Occupant == name)
}

// Peer returns the other party of name, if any.
func (r Room) Peer(name string) (string, bool) {
	switch name {
	case r.Creator:
		return r.Occupant, r.Occupant != ""
	case r.Occupant:
		return r.Creator, true
	}
	return "", false
}

// RoomInfo is the public view pushed in room-list broadcasts.
type RoomInfo struct {
	RoomName string `json:"roomName"`
	IsFull   bool   `json:"isFull"`
}

func (r Room) Info() RoomInfo {
	return RoomInfo{RoomName: r.Creator, IsFull: r.IsFull()}
}

// LeaveOutcome tells the caller what a leave did to the room.
type LeaveOutcome int

const (
	// Vacated means the occupant left and the room is joinable again.
	Vacated LeaveOutcome = iota + 1
	// Terminated means the creator left and the room no longer exists.
	Terminated
)
