package party_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/guildtools/partyhub/internal/app/system/party"
	"github.com/guildtools/partyhub/internal/domain/models"
	"github.com/guildtools/partyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newAllocator(store *testutil.MemStore, rec *testutil.EventRecorder) *party.Allocator {
	return party.NewAllocator(store, rec, zap.NewNop())
}

func TestJoin_FirstOpenSlot(t *testing.T) {
	ctx := testutil.TestContext(t)
	store := testutil.NewMemStore()
	rec := testutil.NewEventRecorder()
	alloc := newAllocator(store, rec)

	g := testutil.NewGroup("raid", "leader", "tank", "healer", "dps")
	g = testutil.Seat(g, 0, "leader")
	if err := store.Insert(ctx, g); err != nil {
		t.Fatal(err)
	}

	got, err := alloc.Join(ctx, g.ID, models.UserRef{Nick: "bob"})
	if err != nil {
		t.Fatalf("Join: %v", err)
	}

	// First open slot in sequence order is the healer slot.
	if got.Slots[1].User == nil || got.Slots[1].User.Nick != "bob" {
		t.Errorf("bob should hold slot 1, slots: %+v", got.Slots)
	}
	if got.Slots[2].User != nil {
		t.Errorf("slot 2 should stay open")
	}

	want := []string{"user_joined_group", "group_slots_updated", "group_updated"}
	names := rec.Names()
	if len(names) != len(want) {
		t.Fatalf("events: got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("event[%d]: got %q, want %q", i, names[i], want[i])
		}
	}
}

func TestJoin_GroupFull(t *testing.T) {
	ctx := testutil.TestContext(t)
	store := testutil.NewMemStore()
	rec := testutil.NewEventRecorder()
	alloc := newAllocator(store, rec)

	g := testutil.NewGroup("duo", "leader", "tank", "healer")
	g = testutil.Seat(g, 0, "leader")
	g = testutil.Seat(g, 1, "alice")
	if err := store.Insert(ctx, g); err != nil {
		t.Fatal(err)
	}

	_, err := alloc.Join(ctx, g.ID, models.UserRef{Nick: "bob"})
	if !errors.Is(err, party.ErrGroupFull) {
		t.Fatalf("err: got %v, want ErrGroupFull", err)
	}
	if len(rec.Names()) != 0 {
		t.Errorf("no events should be emitted on a rejected join, got %v", rec.Names())
	}
}

func TestJoin_AlreadyInOtherGroup(t *testing.T) {
	ctx := testutil.TestContext(t)
	store := testutil.NewMemStore()
	rec := testutil.NewEventRecorder()
	alloc := newAllocator(store, rec)

	first := testutil.NewGroup("first", "leader", "tank", "dps")
	first = testutil.Seat(first, 1, "bob")
	second := testutil.NewGroup("second", "other", "tank", "dps")
	for _, g := range []models.Group{first, second} {
		if err := store.Insert(ctx, g); err != nil {
			t.Fatal(err)
		}
	}

	_, err := alloc.Join(ctx, second.ID, models.UserRef{Nick: "bob"})

	var inGroup *party.AlreadyInGroupError
	if !errors.As(err, &inGroup) {
		t.Fatalf("err: got %v, want AlreadyInGroupError", err)
	}
	if inGroup.Group.ID != first.ID {
		t.Errorf("existing group: got %s, want %s", inGroup.Group.ID.Hex(), first.ID.Hex())
	}
	if inGroup.Nick != "bob" {
		t.Errorf("nick: got %q, want %q", inGroup.Nick, "bob")
	}
}

func TestJoin_SameGroupMovesSlot(t *testing.T) {
	ctx := testutil.TestContext(t)
	store := testutil.NewMemStore()
	rec := testutil.NewEventRecorder()
	alloc := newAllocator(store, rec)

	g := testutil.NewGroup("raid", "leader", "tank", "healer", "dps")
	g = testutil.Seat(g, 1, "bob")
	if err := store.Insert(ctx, g); err != nil {
		t.Fatal(err)
	}

	got, err := alloc.Join(ctx, g.ID, models.UserRef{Nick: "bob"})
	if err != nil {
		t.Fatalf("Join: %v", err)
	}

	// Bob moves to the first open slot; his old slot is vacated in the same
	// update, so he never holds two at once.
	if got.Slots[0].User == nil || got.Slots[0].User.Nick != "bob" {
		t.Errorf("bob should hold slot 0, slots: %+v", got.Slots)
	}
	if got.Slots[1].User != nil {
		t.Errorf("slot 1 should be vacated, slots: %+v", got.Slots)
	}
	occupied := 0
	for _, s := range got.Slots {
		if s.User != nil {
			occupied++
		}
	}
	if occupied != 1 {
		t.Errorf("bob should hold exactly one slot, holds %d", occupied)
	}
}

func TestJoin_MissingOrInactiveGroup(t *testing.T) {
	ctx := testutil.TestContext(t)
	store := testutil.NewMemStore()
	alloc := newAllocator(store, testutil.NewEventRecorder())

	_, err := alloc.Join(ctx, primitive.NewObjectID(), models.UserRef{Nick: "bob"})
	if !errors.Is(err, party.ErrNotFound) {
		t.Errorf("missing group: got %v, want ErrNotFound", err)
	}

	g := testutil.NewGroup("done", "leader", "tank")
	g.Status = models.StatusCompleted
	if err := store.Insert(ctx, g); err != nil {
		t.Fatal(err)
	}
	_, err = alloc.Join(ctx, g.ID, models.UserRef{Nick: "bob"})
	if !errors.Is(err, party.ErrInvalidTransition) {
		t.Errorf("completed group: got %v, want ErrInvalidTransition", err)
	}
}

func TestJoin_RaceForLastSlot(t *testing.T) {
	ctx := testutil.TestContext(t)
	store := testutil.NewMemStore()
	rec := testutil.NewEventRecorder()
	alloc := newAllocator(store, rec)

	g := testutil.NewGroup("solo", "leader", "dps")
	if err := store.Insert(ctx, g); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, nick := range []string{"alice", "bob"} {
		wg.Add(1)
		go func(i int, nick string) {
			defer wg.Done()
			_, errs[i] = alloc.Join(ctx, g.ID, models.UserRef{Nick: nick})
		}(i, nick)
	}
	wg.Wait()

	// Exactly one join wins the single slot. The loser sees either a full
	// group or, if it raced the winner's membership check, the
	// already-in-group rejection.
	var won, lost int
	var inGroup *party.AlreadyInGroupError
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, party.ErrGroupFull), errors.As(err, &inGroup):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != 1 || lost != 1 {
		t.Fatalf("want exactly one winner and one loser, got %d/%d (errs=%v)", won, lost, errs)
	}

	final, err := store.GetByID(ctx, g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if final.Slots[0].User == nil {
		t.Fatal("slot should be occupied")
	}
}

func TestLeave_MemberVacatesSlot(t *testing.T) {
	ctx := testutil.TestContext(t)
	store := testutil.NewMemStore()
	rec := testutil.NewEventRecorder()
	alloc := newAllocator(store, rec)

	g := testutil.NewGroup("raid", "leader", "tank", "healer")
	g = testutil.Seat(g, 0, "leader")
	g = testutil.Seat(g, 1, "bob")
	if err := store.Insert(ctx, g); err != nil {
		t.Fatal(err)
	}

	got, deleted, err := alloc.Leave(ctx, g.ID, "bob")
	if err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if deleted {
		t.Fatal("member leave must not delete the group")
	}
	if got.Slots[1].User != nil {
		t.Errorf("slot 1 should be open after leave")
	}
	// Role label survives the occupant.
	if got.Slots[1].Role != "healer" {
		t.Errorf("role label: got %q, want %q", got.Slots[1].Role, "healer")
	}

	want := []string{"user_left_group", "group_slots_updated", "group_updated"}
	names := rec.Names()
	if len(names) != len(want) {
		t.Fatalf("events: got %v, want %v", names, want)
	}
}

func TestLeave_CreatorDeletesGroup(t *testing.T) {
	ctx := testutil.TestContext(t)
	store := testutil.NewMemStore()
	rec := testutil.NewEventRecorder()
	alloc := newAllocator(store, rec)

	g := testutil.NewGroup("raid", "leader", "tank", "healer")
	g = testutil.Seat(g, 0, "leader")
	g = testutil.Seat(g, 1, "bob")
	if err := store.Insert(ctx, g); err != nil {
		t.Fatal(err)
	}

	_, deleted, err := alloc.Leave(ctx, g.ID, "leader")
	if err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if !deleted {
		t.Fatal("creator leave should delete the group")
	}

	if _, err := store.GetByID(ctx, g.ID); err == nil {
		t.Error("group should be gone from the store")
	}

	events := rec.Events()
	if len(events) != 1 || events[0].Name != "group_deleted" {
		t.Fatalf("events: got %v, want single group_deleted", rec.Names())
	}
	if events[0].GroupID != g.ID.Hex() {
		t.Errorf("deleted id: got %q, want %q", events[0].GroupID, g.ID.Hex())
	}
	if events[0].Reason != "" {
		t.Errorf("manual deletion must carry no reason, got %q", events[0].Reason)
	}
}

func TestLeave_NonMemberIsNoop(t *testing.T) {
	ctx := testutil.TestContext(t)
	store := testutil.NewMemStore()
	rec := testutil.NewEventRecorder()
	alloc := newAllocator(store, rec)

	g := testutil.NewGroup("raid", "leader", "tank")
	g = testutil.Seat(g, 0, "leader")
	if err := store.Insert(ctx, g); err != nil {
		t.Fatal(err)
	}

	got, deleted, err := alloc.Leave(ctx, g.ID, "stranger")
	if err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if deleted {
		t.Fatal("no-op leave must not delete")
	}
	if got.Slots[0].User == nil {
		t.Error("existing occupant must be untouched")
	}
	if len(rec.Names()) != 0 {
		t.Errorf("no events for a no-op leave, got %v", rec.Names())
	}
}

func TestLeave_MissingGroup(t *testing.T) {
	ctx := testutil.TestContext(t)
	alloc := newAllocator(testutil.NewMemStore(), testutil.NewEventRecorder())

	_, _, err := alloc.Leave(ctx, primitive.NewObjectID(), "bob")
	if !errors.Is(err, party.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}
