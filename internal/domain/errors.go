package domain

import "errors"

var (
	ErrNameEmpty   = errors.New("display name empty")
	ErrNameTooLong = errors.New("display name too long")
	ErrNameInvalid = errors.New("display name is not valid UTF-8")

	ErrIdentityConflict  = errors.New("display name already connected")
	ErrNotConnected      = errors.New("not connected")
	ErrRoomAlreadyExists = errors.New("room already exists")
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomFull          = errors.New("room is full")
	ErrAlreadyInRoom     = errors.New("already in a room")
	ErrNotInRoom         = errors.New("not part of this room")
	ErrNotRoomCreator    = errors.New("only the room creator can do this")
	ErrRoomIDMismatch    = errors.New("room id must match display name")
	ErrPeerUnreachable   = errors.New("peer unreachable")

	ErrBadPayload  = errors.New("bad payload")
	ErrRateLimited = errors.New("rate limited")
)

var codes = []struct {
	err  error
	code string
}{
	{ErrNameEmpty, "invalid_name"},
	{ErrNameTooLong, "invalid_name"},
	{ErrNameInvalid, "invalid_name"},
	{ErrIdentityConflict, "identity_conflict"},
	{ErrNotConnected, "not_connected"},
	{ErrRoomAlreadyExists, "room_exists"},
	{ErrRoomNotFound, "room_not_found"},
	{ErrRoomFull, "room_full"},
	{ErrAlreadyInRoom, "already_in_room"},
	{ErrNotInRoom, "not_in_room"},
	{ErrNotRoomCreator, "not_creator"},
	{ErrRoomIDMismatch, "room_id_mismatch"},
	{ErrPeerUnreachable, "peer_unreachable"},
	{ErrBadPayload, "bad_payload"},
	{ErrRateLimited, "rate_limited"},
}

// ErrorCode maps an error to the stable code sent to clients.
func ErrorCode(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "internal"
}
