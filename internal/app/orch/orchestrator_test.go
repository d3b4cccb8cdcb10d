package orch

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/dkeye/Duet/internal/core"
	"github.com/dkeye/Duet/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectSendsGreetingAndRoomList(t *testing.T) {
	o := newTestOrch()
	a := connect(t, o, "A")
	require.NoError(t, o.CreateRoom(a.sess, ""))

	b := connect(t, o, "B")
	assert.Equal(t, []string{core.TypeConnected, core.TypeRoomList}, b.conn.types(t))
	list := b.conn.ofType(t, core.TypeRoomList)[0]["rooms"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, map[string]any{"roomName": "A", "isFull": false}, list[0])
}

func TestConnectRejectsDuplicateName(t *testing.T) {
	o := newTestOrch()
	first := connect(t, o, "A")

	_, err := o.Connect("other", "A", &fakeConn{})
	assert.ErrorIs(t, err, domain.ErrIdentityConflict)

	live, ok := o.Registry.Lookup("A")
	require.True(t, ok)
	assert.Same(t, first.sess, live)
}

func TestConnectRejectsInvalidName(t *testing.T) {
	o := newTestOrch()
	_, err := o.Connect("c", "", &fakeConn{})
	assert.ErrorIs(t, err, domain.ErrNameEmpty)

	_, err = o.Connect("c", "A\xff", &fakeConn{})
	assert.ErrorIs(t, err, domain.ErrNameInvalid)
	assert.Equal(t, 0, o.Registry.Len())
}

func TestCreateRoom(t *testing.T) {
	o := newTestOrch()
	a := connect(t, o, "A")
	b := connect(t, o, "B")
	resetAll(a, b)

	require.NoError(t, o.CreateRoom(a.sess, "A"))
	assert.Equal(t, []string{core.TypeRoomCreated, core.TypeRoomList}, a.conn.types(t))
	assert.Equal(t, []string{core.TypeRoomList}, b.conn.types(t))

	p, _ := o.Registry.Participant("A")
	assert.Equal(t, domain.RoomID("A"), p.JoinedRoom)
}

func TestCreateRoomRejections(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(o *Orchestrator, a, b peer)
		roomID  string
		wantErr error
	}{
		{
			name:    "room id must be own name",
			roomID:  "someone-else",
			wantErr: domain.ErrRoomIDMismatch,
		},
		{
			name:    "already created",
			setup:   func(o *Orchestrator, a, _ peer) { _ = o.CreateRoom(a.sess, "") },
			wantErr: domain.ErrRoomAlreadyExists,
		},
		{
			name: "already occupant elsewhere",
			setup: func(o *Orchestrator, a, b peer) {
				_ = o.CreateRoom(b.sess, "")
				_ = o.JoinRoom(a.sess, "B")
			},
			wantErr: domain.ErrAlreadyInRoom,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newTestOrch()
			a := connect(t, o, "A")
			b := connect(t, o, "B")
			if tt.setup != nil {
				tt.setup(o, a, b)
			}
			resetAll(a, b)

			err := o.CreateRoom(a.sess, tt.roomID)
			assert.ErrorIs(t, err, tt.wantErr)

			errs := a.conn.ofType(t, core.TypeRoomError)
			require.Len(t, errs, 1)
			assert.Equal(t, domain.ErrorCode(tt.wantErr), errs[0]["code"])
			assert.Empty(t, a.conn.ofType(t, core.TypeRoomList), "no broadcast on rejection")
			assert.Empty(t, b.conn.messages(t))
		})
	}
}

func TestJoinRoomCapacity(t *testing.T) {
	o := newTestOrch()
	a := connect(t, o, "A")
	b := connect(t, o, "B")
	c := connect(t, o, "C")
	require.NoError(t, o.CreateRoom(a.sess, ""))
	resetAll(a, b, c)

	require.NoError(t, o.JoinRoom(b.sess, "A"))
	assert.Equal(t, []domain.RoomInfo{{RoomName: "A", IsFull: true}}, o.Rooms.ListPublic())

	for _, p := range []peer{a, b} {
		joined := p.conn.ofType(t, core.TypeRoomJoined)
		require.Len(t, joined, 1)
		assert.Equal(t, "A", joined[0]["roomId"])
		assert.Equal(t, "B", joined[0]["joinerName"])
	}
	assert.Len(t, c.conn.ofType(t, core.TypeRoomList), 1)
	c.conn.reset()

	err := o.JoinRoom(c.sess, "A")
	assert.ErrorIs(t, err, domain.ErrRoomFull)
	assert.Equal(t, []string{core.TypeRoomError}, c.conn.types(t))
}

func TestJoinRoomRejections(t *testing.T) {
	o := newTestOrch()
	a := connect(t, o, "A")
	b := connect(t, o, "B")
	require.NoError(t, o.CreateRoom(a.sess, ""))

	assert.ErrorIs(t, o.JoinRoom(b.sess, "missing"), domain.ErrRoomNotFound)
	assert.ErrorIs(t, o.JoinRoom(b.sess, ""), domain.ErrRoomNotFound)
	assert.ErrorIs(t, o.JoinRoom(a.sess, "A"), domain.ErrAlreadyInRoom, "creator cannot join its own room")

	require.NoError(t, o.CreateRoom(b.sess, ""))
	assert.ErrorIs(t, o.JoinRoom(b.sess, "A"), domain.ErrAlreadyInRoom)
}

func TestCreatorDisconnectRemovesRoom(t *testing.T) {
	o := newTestOrch()
	a := connect(t, o, "A")
	b := connect(t, o, "B")
	require.NoError(t, o.CreateRoom(a.sess, ""))
	require.NoError(t, o.JoinRoom(b.sess, "A"))
	resetAll(a, b)

	o.Disconnect(a.sess)

	assert.Empty(t, o.Rooms.ListPublic())
	assert.False(t, o.Registry.Has("A"))
	deleted := b.conn.ofType(t, core.TypeRoomDeleted)
	require.Len(t, deleted, 1)
	assert.Equal(t, "A", deleted[0]["roomId"])
	assert.Len(t, a.conn.ofType(t, core.TypeRoomDeleted), 1, "departing creator is told too")
	assert.Len(t, b.conn.ofType(t, core.TypeRoomList), 1)

	p, _ := o.Registry.Participant("B")
	assert.Empty(t, p.JoinedRoom)
	require.NoError(t, o.CreateRoom(b.sess, ""), "occupant is free to open its own room")
}

func TestOccupantDisconnectVacatesRoom(t *testing.T) {
	o := newTestOrch()
	a := connect(t, o, "A")
	b := connect(t, o, "B")
	require.NoError(t, o.CreateRoom(a.sess, ""))
	require.NoError(t, o.JoinRoom(b.sess, "A"))
	resetAll(a, b)

	o.Disconnect(b.sess)

	assert.Equal(t, []domain.RoomInfo{{RoomName: "A", IsFull: false}}, o.Rooms.ListPublic())
	assert.Empty(t, a.conn.ofType(t, core.TypeRoomDeleted))
	left := a.conn.ofType(t, core.TypeRoomLeft)
	require.Len(t, left, 1)
	assert.Equal(t, "B", left[0]["userName"])

	c := connect(t, o, "C")
	require.NoError(t, o.JoinRoom(c.sess, "A"))
}

func TestDisconnectOfStaleSessionIsNoop(t *testing.T) {
	o := newTestOrch()
	a := connect(t, o, "A")
	o.Disconnect(a.sess)
	a2 := connect(t, o, "A")

	o.Disconnect(a.sess)
	assert.True(t, o.Registry.Has("A"))
	live, _ := o.Registry.Lookup("A")
	assert.Same(t, a2.sess, live)
}

func TestLeaveRoom(t *testing.T) {
	t.Run("occupant leaves", func(t *testing.T) {
		o := newTestOrch()
		a := connect(t, o, "A")
		b := connect(t, o, "B")
		require.NoError(t, o.CreateRoom(a.sess, ""))
		require.NoError(t, o.JoinRoom(b.sess, "A"))
		resetAll(a, b)

		require.NoError(t, o.LeaveRoom(b.sess, "A"))
		assert.Equal(t, []domain.RoomInfo{{RoomName: "A"}}, o.Rooms.ListPublic())
		assert.Len(t, a.conn.ofType(t, core.TypeRoomLeft), 1)
		assert.Len(t, b.conn.ofType(t, core.TypeRoomLeft), 1)
		assert.Len(t, a.conn.ofType(t, core.TypeRoomList), 1)
	})

	t.Run("creator leaves", func(t *testing.T) {
		o := newTestOrch()
		a := connect(t, o, "A")
		b := connect(t, o, "B")
		require.NoError(t, o.CreateRoom(a.sess, ""))
		require.NoError(t, o.JoinRoom(b.sess, "A"))
		resetAll(a, b)

		require.NoError(t, o.LeaveRoom(a.sess, ""))
		assert.Empty(t, o.Rooms.ListPublic())
		assert.Len(t, b.conn.ofType(t, core.TypeRoomDeleted), 1)
		pa, _ := o.Registry.Participant("A")
		pb, _ := o.Registry.Participant("B")
		assert.Empty(t, pa.JoinedRoom)
		assert.Empty(t, pb.JoinedRoom)
	})

	t.Run("not in room is a silent no-op", func(t *testing.T) {
		o := newTestOrch()
		a := connect(t, o, "A")
		b := connect(t, o, "B")
		c := connect(t, o, "C")
		require.NoError(t, o.CreateRoom(a.sess, ""))
		require.NoError(t, o.JoinRoom(b.sess, "A"))
		resetAll(a, b, c)
		before := o.Rooms.ListPublic()

		require.NoError(t, o.LeaveRoom(c.sess, "A"))
		require.NoError(t, o.LeaveRoom(c.sess, ""))
		require.NoError(t, o.LeaveRoom(b.sess, "other"))

		assert.Equal(t, before, o.Rooms.ListPublic())
		for _, p := range []peer{a, b, c} {
			assert.Empty(t, p.conn.messages(t))
		}
	})
}

func TestDeleteRoom(t *testing.T) {
	o := newTestOrch()
	a := connect(t, o, "A")
	b := connect(t, o, "B")
	require.NoError(t, o.CreateRoom(a.sess, ""))
	require.NoError(t, o.JoinRoom(b.sess, "A"))
	resetAll(a, b)

	assert.ErrorIs(t, o.DeleteRoom(b.sess, "A"), domain.ErrNotRoomCreator)
	assert.ErrorIs(t, o.DeleteRoom(a.sess, "zzz"), domain.ErrRoomNotFound)
	assert.Len(t, o.Rooms.ListPublic(), 1)

	require.NoError(t, o.DeleteRoom(a.sess, "A"))
	assert.Empty(t, o.Rooms.ListPublic())
	assert.Len(t, a.conn.ofType(t, core.TypeRoomDeleted), 1)
	assert.Len(t, b.conn.ofType(t, core.TypeRoomDeleted), 1)
}

func TestRelayIsolation(t *testing.T) {
	o := newTestOrch()
	a := connect(t, o, "A")
	b := connect(t, o, "B")
	c := connect(t, o, "C")
	d := connect(t, o, "D")
	require.NoError(t, o.CreateRoom(a.sess, ""))
	require.NoError(t, o.JoinRoom(b.sess, "A"))
	require.NoError(t, o.CreateRoom(c.sess, ""))
	require.NoError(t, o.JoinRoom(d.sess, "C"))
	resetAll(a, b, c, d)

	payload := json.RawMessage(`{"type":"offer","sdp":"v=0\r\n"}`)
	require.NoError(t, o.Relay(a.sess, core.TypeOffer, "A", payload))

	offers := b.conn.ofType(t, core.TypeOffer)
	require.Len(t, offers, 1)
	assert.Equal(t, "A", offers[0]["from"])
	assert.Empty(t, a.conn.messages(t), "never echoed to sender")
	assert.Empty(t, c.conn.messages(t))
	assert.Empty(t, d.conn.messages(t))

	raw := b.conn.frames[0]
	var env struct {
		Payload json.RawMessage `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.JSONEq(t, string(payload), string(env.Payload))

	assert.ErrorIs(t, o.Relay(c.sess, core.TypeOffer, "A", payload), domain.ErrNotInRoom, "outsider cannot inject")
	assert.Len(t, b.conn.ofType(t, core.TypeOffer), 1)
}

func TestRelayWithoutPeerIsDropped(t *testing.T) {
	o := newTestOrch()
	a := connect(t, o, "A")
	require.NoError(t, o.CreateRoom(a.sess, ""))
	a.conn.reset()

	err := o.Relay(a.sess, core.TypeICECandidate, "A", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, domain.ErrPeerUnreachable)
	assert.Empty(t, a.conn.messages(t))
}

func TestRelayKeepsOrderPerPair(t *testing.T) {
	o := newTestOrch()
	a := connect(t, o, "A")
	b := connect(t, o, "B")
	require.NoError(t, o.CreateRoom(a.sess, ""))
	require.NoError(t, o.JoinRoom(b.sess, "A"))
	b.conn.reset()

	require.NoError(t, o.Relay(a.sess, core.TypeOffer, "A", json.RawMessage(`0`)))
	for i := 1; i <= 20; i++ {
		require.NoError(t, o.Relay(a.sess, core.TypeICECandidate, "A", json.RawMessage(jsonInt(i))))
	}
	msgs := b.conn.messages(t)
	require.Len(t, msgs, 21)
	assert.Equal(t, core.TypeOffer, msgs[0]["type"])
	for i, m := range msgs {
		assert.EqualValues(t, i, m["payload"])
	}
}

func jsonInt(i int) string {
	b, _ := json.Marshal(i)
	return string(b)
}

func TestBackpressureKicksSlowConnection(t *testing.T) {
	o := newTestOrch()
	a := connect(t, o, "A")
	b := connect(t, o, "B")
	b.conn.mu.Lock()
	b.conn.full = true
	b.conn.mu.Unlock()

	require.NoError(t, o.CreateRoom(a.sess, ""))

	assert.True(t, b.conn.isClosed())
	assert.False(t, a.conn.isClosed())
	assert.Len(t, a.conn.ofType(t, core.TypeRoomCreated), 1, "other connections unaffected")
}

func TestChatPresence(t *testing.T) {
	o := newTestOrch()
	a := connect(t, o, "A")
	b := connect(t, o, "B")
	resetAll(a, b)

	require.NoError(t, o.ChatJoin(a.sess))
	require.NoError(t, o.ChatJoin(b.sess))
	joins := a.conn.ofType(t, core.TypeChatJoin)
	require.Len(t, joins, 2)
	assert.Equal(t, []any{"A", "B"}, joins[1]["users"])

	require.NoError(t, o.Chat(b.sess, json.RawMessage(`"hello"`)))
	for _, p := range []peer{a, b} {
		chats := p.conn.ofType(t, core.TypeChat)
		require.Len(t, chats, 1)
		assert.Equal(t, "B", chats[0]["sender"])
		assert.Equal(t, "hello", chats[0]["message"])
	}

	o.Disconnect(b.sess)
	leaves := a.conn.ofType(t, core.TypeChatLeave)
	require.Len(t, leaves, 1)
	assert.Equal(t, "B", leaves[0]["sender"])
	assert.Equal(t, []any{"A"}, leaves[0]["users"])
}

func TestWhoAmI(t *testing.T) {
	o := newTestOrch()
	a := connect(t, o, "A")
	require.NoError(t, o.CreateRoom(a.sess, ""))

	msg, ok := o.WhoAmI(a.sess)
	require.True(t, ok)
	assert.Equal(t, "A", msg.DisplayName)
	assert.Equal(t, domain.RoomID("A"), msg.RoomID)

	o.Disconnect(a.sess)
	_, ok = o.WhoAmI(a.sess)
	assert.False(t, ok)
}

func TestEventsPublished(t *testing.T) {
	o := newTestOrch()
	var mu sync.Mutex
	var kinds []core.EventKind
	unsub := o.Events.Subscribe(func(ev core.Event) {
		mu.Lock()
		defer mu.Unlock()
		kinds = append(kinds, ev.Kind)
	})
	defer unsub()

	a := connect(t, o, "A")
	b := connect(t, o, "B")
	require.NoError(t, o.CreateRoom(a.sess, ""))
	require.NoError(t, o.JoinRoom(b.sess, "A"))
	_ = o.JoinRoom(b.sess, "A")
	o.Disconnect(a.sess)

	assert.Equal(t, []core.EventKind{
		core.ParticipantConnected,
		core.ParticipantConnected,
		core.RoomCreated,
		core.RoomJoined,
		core.ParticipantDisconnected,
	}, kinds)
}

// A join racing the creator's disconnect either lands before the cascade
// (and is then cleaned up by it) or fails with room_not_found. It never
// leaves a room without its creator or an occupant linked to a missing room.
func TestJoinRacingCreatorDisconnect(t *testing.T) {
	for i := 0; i < 200; i++ {
		o := newTestOrch()
		a := connect(t, o, "A")
		b := connect(t, o, "B")
		require.NoError(t, o.CreateRoom(a.sess, ""))

		var wg sync.WaitGroup
		var joinErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			o.Disconnect(a.sess)
		}()
		go func() {
			defer wg.Done()
			joinErr = o.JoinRoom(b.sess, "A")
		}()
		wg.Wait()

		if joinErr != nil {
			require.ErrorIs(t, joinErr, domain.ErrRoomNotFound)
		} else {
			require.Len(t, b.conn.ofType(t, core.TypeRoomDeleted), 1)
		}
		assert.Empty(t, o.Rooms.ListPublic())
		p, ok := o.Registry.Participant("B")
		require.True(t, ok)
		assert.Empty(t, p.JoinedRoom)
	}
}

// A connects and opens room A, B joins, they exchange offer and answer, then
// B disconnects: the room stays open and vacant and A gets room-left.
func TestEndToEndScenario(t *testing.T) {
	o := newTestOrch()
	a := connect(t, o, "A")
	require.NoError(t, o.CreateRoom(a.sess, "A"))
	b := connect(t, o, "B")
	require.NoError(t, o.JoinRoom(b.sess, "A"))

	assert.Len(t, a.conn.ofType(t, core.TypeRoomJoined), 1)
	assert.Len(t, b.conn.ofType(t, core.TypeRoomJoined), 1)

	require.NoError(t, o.Relay(a.sess, core.TypeOffer, "A", json.RawMessage(`{"sdp":"offer"}`)))
	require.Len(t, b.conn.ofType(t, core.TypeOffer), 1)
	require.NoError(t, o.Relay(b.sess, core.TypeAnswer, "A", json.RawMessage(`{"sdp":"answer"}`)))
	require.Len(t, a.conn.ofType(t, core.TypeAnswer), 1)

	o.Disconnect(b.sess)
	assert.Empty(t, a.conn.ofType(t, core.TypeRoomDeleted))
	assert.Len(t, a.conn.ofType(t, core.TypeRoomLeft), 1)
	assert.Equal(t, []domain.RoomInfo{{RoomName: "A", IsFull: false}}, o.Rooms.ListPublic())
}
