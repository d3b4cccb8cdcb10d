package core

import (
	"bytes"
	"encoding/json"

	"github.com/dkeye/Duet/internal/domain"
	"github.com/pion/webrtc/v4"
)

// Client -> server message types.
const (
	TypeCreateRoom = "create-room"
	TypeJoinRoom   = "join-room"
	TypeLeaveRoom  = "leave-room"
	TypeDeleteRoom = "delete-room"

	TypeOffer              = "offer"
	TypeAnswer             = "answer"
	TypeICECandidate       = "ice-candidate"
	TypeSessionStart       = "webrtc-session-start"
	TypeEnabledLocalMedia  = "enabled-local-media"
	TypeToggledMedia       = "toggled-media"
	TypeToggledScreenShare = "toggled-screen-share"

	TypeChatJoin  = "join"
	TypeChat      = "chat"
	TypeChatLeave = "leave"

	TypePing   = "ping"
	TypeWhoAmI = "whoami"
)

// Server -> client message types.
const (
	TypeConnected    = "connected"
	TypeConnectError = "connect-error"
	TypeRoomList     = "room-list"
	TypeRoomCreated  = "room-created"
	TypeRoomJoined   = "room-joined"
	TypeRoomLeft     = "room-left"
	TypeRoomDeleted  = "room-deleted"
	TypeRoomError    = "room-error"
	TypeError        = "error"
	TypePong         = "pong"
)

// RelayTypes are forwarded to the room peer untouched.
var RelayTypes = map[string]bool{
	TypeOffer:              true,
	TypeAnswer:             true,
	TypeICECandidate:       true,
	TypeSessionStart:       true,
	TypeEnabledLocalMedia:  true,
	TypeToggledMedia:       true,
	TypeToggledScreenShare: true,
}

// Envelope is the inbound shape shared by every client message.
// Fields a given type does not use are left zero.
type Envelope struct {
	Type    string          `json:"type"`
	RoomID  string          `json:"roomId,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Message json.RawMessage `json:"message,omitempty"`
}

type ConnectedMsg struct {
	Type        string             `json:"type"`
	DisplayName string             `json:"displayName"`
	ConnID      ConnID             `json:"connId"`
	ICEServers  []webrtc.ICEServer `json:"iceServers"`
}

type RoomListMsg struct {
	Type  string            `json:"type"`
	Rooms []domain.RoomInfo `json:"rooms"`
}

type RoomMsg struct {
	Type       string        `json:"type"`
	RoomID     domain.RoomID `json:"roomId"`
	JoinerName string        `json:"joinerName,omitempty"`
	UserName   string        `json:"userName,omitempty"`
}

type ErrorMsg struct {
	Type  string `json:"type"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

func NewErrorMsg(typ string, err error) ErrorMsg {
	return ErrorMsg{Type: typ, Code: domain.ErrorCode(err), Error: err.Error()}
}

type RelayMsg struct {
	Type    string          `json:"type"`
	RoomID  domain.RoomID   `json:"roomId"`
	From    string          `json:"from"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type ChatPresenceMsg struct {
	Type   string   `json:"type"`
	Sender string   `json:"sender"`
	Users  []string `json:"users"`
}

type ChatMsg struct {
	Type    string          `json:"type"`
	Sender  string          `json:"sender"`
	Message json.RawMessage `json:"message"`
}

type WhoAmIMsg struct {
	Type        string        `json:"type"`
	DisplayName string        `json:"displayName"`
	RoomID      domain.RoomID `json:"roomId,omitempty"`
	InChat      bool          `json:"inChat"`
}

type PongMsg struct {
	Type string `json:"type"`
}

// Encode marshals an outbound frame. HTML escaping is off so relayed
// payloads keep their characters as sent.
func Encode(v any) (Frame, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return Frame(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
