package domain

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"plain", "alice", nil},
		{"case kept", "Alice", nil},
		{"empty", "", ErrNameEmpty},
		{"at limit", strings.Repeat("a", MaxNameLen), nil},
		{"over limit", strings.Repeat("a", MaxNameLen+1), ErrNameTooLong},
		{"multibyte counted as runes", strings.Repeat("é", MaxNameLen), nil},
		{"invalid utf8", "A\xff", ErrNameInvalid},
		{"truncated multibyte", "bob\xc3", ErrNameInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input, 0)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRoomPeer(t *testing.T) {
	r := Room{ID: "A", Creator: "A"}
	_, ok := r.Peer("A")
	assert.False(t, ok, "creator alone has no peer")
	assert.False(t, r.IsFull())

	r.Occupant = "B"
	peer, ok := r.Peer("A")
	require.True(t, ok)
	assert.Equal(t, "B", peer)
	peer, ok = r.Peer("B")
	require.True(t, ok)
	assert.Equal(t, "A", peer)
	_, ok = r.Peer("C")
	assert.False(t, ok)

	assert.True(t, r.Has("B"))
	assert.False(t, r.Has(""))
	assert.Equal(t, RoomInfo{RoomName: "A", IsFull: true}, r.Info())
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "room_full", ErrorCode(ErrRoomFull))
	assert.Equal(t, "room_not_found", ErrorCode(fmt.Errorf("join r1: %w", ErrRoomNotFound)))
	assert.Equal(t, "invalid_name", ErrorCode(ErrNameTooLong))
	assert.Equal(t, "invalid_name", ErrorCode(ErrNameInvalid))
	assert.Equal(t, "internal", ErrorCode(fmt.Errorf("boom")))
}
