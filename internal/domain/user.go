// Package domain contains entity without logic, just meta-data
package domain

import "unicode/utf8"

const MaxNameLen = 36

// Participant is a connected, uniquely named actor.
// JoinedRoom is empty while the participant is in no room.
type Participant struct {
	Name       string
	ConnID     string
	JoinedRoom RoomID
	InChat     bool
}

// ValidateName checks a client-chosen display name. Names are case-sensitive
// and compared byte-for-byte, so no normalisation happens here.
func ValidateName(name string, maxLen int) error {
	if maxLen <= 0 {
		maxLen = MaxNameLen
	}
	if len(name) == 0 {
		return ErrNameEmpty
	}
	if !utf8.ValidString(name) {
		return ErrNameInvalid
	}
	if utf8.RuneCountInString(name) > maxLen {
		return ErrNameTooLong
	}
	return nil
}
