package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/AaronDB2/zoom-clone-backend/internal/core"
	"github.com/AaronDB2/zoom-clone-backend/internal/domain"
)

// fakeSender records every frame the orchestrator pushes at a connection.
type fakeSender struct {
	mu     sync.Mutex
	frames []core.Frame
}

func (f *fakeSender) TrySend(fr core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeSender) Close() {}

// events decodes every captured frame of the given type.
func (f *fakeSender) events(t *testing.T, eventType string) []core.Envelope {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.Envelope
	for _, fr := range f.frames {
		var env core.Envelope
		if err := json.Unmarshal(fr, &env); err != nil {
			t.Fatalf("bad frame %q: %v", fr, err)
		}
		if env.Type == eventType {
			out = append(out, env)
		}
	}
	return out
}

func decode[T any](t *testing.T, env core.Envelope) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("decode %s payload: %v", env.Type, err)
	}
	return v
}

func newTestOrch() *Orchestrator {
	return &Orchestrator{Registry: NewRegistry(), Rooms: NewRoomManager()}
}

func connect(o *Orchestrator, sid domain.SocketID) *fakeSender {
	s := &fakeSender{}
	o.Registry.Register(sid, s)
	return s
}

// createRoom runs CreateRoom and returns the room id reported to the caller.
func createRoom(t *testing.T, o *Orchestrator, sid domain.SocketID, sender *fakeSender, identity string) domain.RoomID {
	t.Helper()
	if err := o.CreateRoom(sid, identity); err != nil {
		t.Fatalf("CreateRoom(%s): %v", sid, err)
	}
	ids := sender.events(t, core.EventRoomID)
	if len(ids) != 1 {
		t.Fatalf("room-id events=%d, want 1", len(ids))
	}
	return decode[core.RoomIDPayload](t, ids[0]).RoomID
}

// assertNoEmptyRooms checks the directory invariant: rooms are deleted, not
// left empty.
func assertNoEmptyRooms(t *testing.T, o *Orchestrator) {
	t.Helper()
	for _, info := range o.Rooms.List() {
		if info.MemberCount == 0 {
			t.Fatalf("room %s is empty but still in directory", info.ID)
		}
	}
}

func TestCreateRoom_ReportsIDAndMemberList(t *testing.T) {
	o := newTestOrch()
	host := connect(o, "host")

	roomID := createRoom(t, o, "host", host, "Alice")

	status := o.Rooms.Status(roomID)
	if !status.Exists || status.Full {
		t.Fatalf("status=%+v, want exists and not full", status)
	}

	updates := host.events(t, core.EventRoomUpdate)
	if len(updates) != 1 {
		t.Fatalf("room-update events=%d, want 1", len(updates))
	}
	members := decode[core.RoomUpdatePayload](t, updates[0]).ConnectedUsers
	if len(members) != 1 {
		t.Fatalf("members=%d, want 1", len(members))
	}
	if members[0].Identity != "Alice" || members[0].SocketID != "host" || members[0].RoomID != roomID {
		t.Fatalf("unexpected member: %+v", members[0])
	}
	if members[0].ID == "" {
		t.Fatal("member has no generated user id")
	}
	assertNoEmptyRooms(t, o)
}

func TestCreateRoom_TwiceOnOneConnection(t *testing.T) {
	o := newTestOrch()
	host := connect(o, "host")
	createRoom(t, o, "host", host, "Alice")

	if err := o.CreateRoom("host", "Alice again"); !errors.Is(err, domain.ErrAlreadyInRoom) {
		t.Fatalf("second create: err=%v, want ErrAlreadyInRoom", err)
	}
	if got := len(o.Rooms.List()); got != 1 {
		t.Fatalf("rooms=%d, want 1", got)
	}
}

func TestJoinRoom_NotifiesExistingMembersOnly(t *testing.T) {
	o := newTestOrch()
	host := connect(o, "A")
	roomID := createRoom(t, o, "A", host, "Alice")

	b := connect(o, "B")
	if err := o.JoinRoom("B", "Bob", roomID); err != nil {
		t.Fatalf("join B: %v", err)
	}
	c := connect(o, "C")
	if err := o.JoinRoom("C", "Carol", roomID); err != nil {
		t.Fatalf("join C: %v", err)
	}

	// C joined with 2 existing members: each of them gets exactly one
	// conn-prepare naming C; C itself gets none.
	for _, tc := range []struct {
		sender *fakeSender
		want   int
		name   string
	}{
		{host, 2, "A"}, // one for B's join, one for C's
		{b, 1, "B"},
		{c, 0, "C"},
	} {
		prepares := tc.sender.events(t, core.EventConnPrepare)
		if len(prepares) != tc.want {
			t.Fatalf("%s conn-prepare events=%d, want %d", tc.name, len(prepares), tc.want)
		}
	}
	last := host.events(t, core.EventConnPrepare)[1]
	if got := decode[core.ConnPreparePayload](t, last).ConnUserSocketID; got != "C" {
		t.Fatalf("conn-prepare names %s, want C", got)
	}

	// Everyone, joiner included, got the updated list in join order.
	for _, s := range []*fakeSender{host, b, c} {
		updates := s.events(t, core.EventRoomUpdate)
		members := decode[core.RoomUpdatePayload](t, updates[len(updates)-1]).ConnectedUsers
		if len(members) != 3 {
			t.Fatalf("members=%d, want 3", len(members))
		}
		for i, want := range []domain.SocketID{"A", "B", "C"} {
			if members[i].SocketID != want {
				t.Fatalf("member[%d]=%s, want %s", i, members[i].SocketID, want)
			}
		}
	}
	assertNoEmptyRooms(t, o)
}

func TestJoinRoom_MissingRoom(t *testing.T) {
	o := newTestOrch()
	connect(o, "B")

	err := o.JoinRoom("B", "Bob", "no-such-room")
	if !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("err=%v, want ErrRoomNotFound", err)
	}
	if _, bound := o.Registry.User("B"); bound {
		t.Fatal("failed join must not bind a user")
	}
}

func TestJoinRoom_FullRoomRejected(t *testing.T) {
	o := newTestOrch()
	host := connect(o, "s0")
	roomID := createRoom(t, o, "s0", host, "host")

	for i := 1; i < domain.RoomCapacity; i++ {
		sid := domain.SocketID(fmt.Sprintf("s%d", i))
		connect(o, sid)
		if err := o.JoinRoom(sid, "guest", roomID); err != nil {
			t.Fatalf("join %s: %v", sid, err)
		}
	}

	if status := o.Rooms.Status(roomID); !status.Full {
		t.Fatalf("status=%+v, want full", status)
	}

	late := connect(o, "late")
	if err := o.JoinRoom("late", "late", roomID); !errors.Is(err, domain.ErrRoomFull) {
		t.Fatalf("5th join: err=%v, want ErrRoomFull", err)
	}
	if len(late.events(t, core.EventRoomUpdate)) != 0 {
		t.Fatal("rejected joiner must not receive room-update")
	}
	room, _ := o.Rooms.Get(roomID)
	if room.MemberCount() != domain.RoomCapacity {
		t.Fatalf("members=%d, want %d", room.MemberCount(), domain.RoomCapacity)
	}
}

func TestDisconnect_NotifiesRemainingMembers(t *testing.T) {
	o := newTestOrch()
	host := connect(o, "A")
	roomID := createRoom(t, o, "A", host, "Alice")
	connect(o, "B")
	if err := o.JoinRoom("B", "Bob", roomID); err != nil {
		t.Fatal(err)
	}

	o.Disconnect("B")

	gone := host.events(t, core.EventUserDisconnected)
	if len(gone) != 1 {
		t.Fatalf("user-disconnected events=%d, want 1", len(gone))
	}
	if got := decode[core.UserDisconnectedPayload](t, gone[0]).SocketID; got != "B" {
		t.Fatalf("departed socket=%s, want B", got)
	}

	updates := host.events(t, core.EventRoomUpdate)
	members := decode[core.RoomUpdatePayload](t, updates[len(updates)-1]).ConnectedUsers
	if len(members) != 1 || members[0].SocketID != "A" {
		t.Fatalf("members after disconnect: %+v", members)
	}
	if status := o.Rooms.Status(roomID); !status.Exists {
		t.Fatal("room must survive while a member remains")
	}
	assertNoEmptyRooms(t, o)
}

func TestDisconnect_LastMemberDeletesRoom(t *testing.T) {
	o := newTestOrch()
	host := connect(o, "A")
	roomID := createRoom(t, o, "A", host, "Alice")

	o.Disconnect("A")

	if status := o.Rooms.Status(roomID); status.Exists {
		t.Fatal("room must be deleted with its last member")
	}
	if got := len(o.Rooms.List()); got != 0 {
		t.Fatalf("rooms=%d, want 0", got)
	}
}

func TestDisconnect_UnknownConnectionIsNoop(t *testing.T) {
	o := newTestOrch()
	o.Disconnect("never-seen")

	connect(o, "idle")
	o.Disconnect("idle") // registered but never joined
}

func TestRelaySignal_AddressedDeliveryRoundTrip(t *testing.T) {
	o := newTestOrch()
	a := connect(o, "A")
	b := connect(o, "B")
	c := connect(o, "C")

	payload := json.RawMessage(`{"sdp":"v=0 o=- 46117 2","type":"offer","ice":[1,2,3]}`)
	o.RelaySignal("A", "B", payload)

	sigs := b.events(t, core.EventConnSignal)
	if len(sigs) != 1 {
		t.Fatalf("B conn-signal events=%d, want 1", len(sigs))
	}
	got := decode[core.SignalPayload](t, sigs[0])
	if got.ConnUserSocketID != "A" {
		t.Fatalf("from=%s, want A", got.ConnUserSocketID)
	}
	if string(got.Signal) != string(payload) {
		t.Fatalf("signal mutated: got=%s, want %s", got.Signal, payload)
	}
	if len(a.events(t, core.EventConnSignal))+len(c.events(t, core.EventConnSignal)) != 0 {
		t.Fatal("signal leaked to a connection other than the target")
	}
}

func TestRelayInit_TargetsOnlyAddressedPeer(t *testing.T) {
	o := newTestOrch()
	a := connect(o, "A")
	b := connect(o, "B")

	o.RelayInit("B", "A")

	inits := a.events(t, core.EventConnInit)
	if len(inits) != 1 {
		t.Fatalf("A conn-init events=%d, want 1", len(inits))
	}
	if got := decode[core.InitPayload](t, inits[0]).ConnUserSocketID; got != "B" {
		t.Fatalf("from=%s, want B", got)
	}
	if len(b.events(t, core.EventConnInit)) != 0 {
		t.Fatal("initiator must not receive its own conn-init")
	}
}

func TestRelay_UnknownTargetDroppedSilently(t *testing.T) {
	o := newTestOrch()
	connect(o, "A")

	o.RelaySignal("A", "vanished", json.RawMessage(`{}`))
	o.RelayInit("A", "vanished")
}

func TestDirectoryInvariant_AcrossOperationSequence(t *testing.T) {
	o := newTestOrch()

	host := connect(o, "h")
	roomID := createRoom(t, o, "h", host, "host")
	assertNoEmptyRooms(t, o)

	guests := []domain.SocketID{"g1", "g2", "g3"}
	for _, sid := range guests {
		connect(o, sid)
		if err := o.JoinRoom(sid, string(sid), roomID); err != nil {
			t.Fatalf("join %s: %v", sid, err)
		}
		assertNoEmptyRooms(t, o)
	}

	for _, sid := range []domain.SocketID{"g2", "h", "g1", "g3"} {
		o.Disconnect(sid)
		assertNoEmptyRooms(t, o)
	}
	if got := len(o.Rooms.List()); got != 0 {
		t.Fatalf("rooms=%d, want 0 after everyone left", got)
	}
}
