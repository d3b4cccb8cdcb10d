package core

type ConnID string

// Session binds a registered display name and its transport endpoint.
// It is the connection handle handed out by the connection registry;
// two sessions are the same connection only if they are the same pointer.
type Session struct {
	ID   ConnID
	Name string
	Conn SignalConnection
}

func NewSession(id ConnID, name string, conn SignalConnection) *Session {
	return &Session{ID: id, Name: name, Conn: conn}
}
