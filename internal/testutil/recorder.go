package testutil

import (
	"sync"

	"github.com/guildtools/partyhub/internal/domain/models"
)

// Event is one recorded broadcast or announcement.
type Event struct {
	Name      string
	Group     models.Group
	GroupID   string
	Reason    string
	NewStatus string
	User      models.UserRef
}

// EventRecorder captures every event the engine emits, in order. It stands
// in for both the broadcast hub and the webhook notifier in tests.
type EventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func NewEventRecorder() *EventRecorder {
	return &EventRecorder{}
}

func (r *EventRecorder) add(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a snapshot of everything recorded so far.
func (r *EventRecorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Names returns just the event names, in emission order.
func (r *EventRecorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.events))
	for i, e := range r.events {
		names[i] = e.Name
	}
	return names
}

func (r *EventRecorder) GroupCreated(g models.Group) {
	r.add(Event{Name: "group_created", Group: g})
}

func (r *EventRecorder) GroupUpdated(g models.Group) {
	r.add(Event{Name: "group_updated", Group: g})
}

func (r *EventRecorder) GroupSlotsUpdated(g models.Group) {
	r.add(Event{Name: "group_slots_updated", Group: g})
}

func (r *EventRecorder) GroupDeleted(groupID string, reason string) {
	r.add(Event{Name: "group_deleted", GroupID: groupID, Reason: reason})
}

func (r *EventRecorder) GroupStatusChanged(g models.Group, newStatus string) {
	r.add(Event{Name: "group_status_changed", Group: g, NewStatus: newStatus})
}

func (r *EventRecorder) UserJoined(g models.Group, u models.UserRef) {
	r.add(Event{Name: "user_joined_group", Group: g, User: u})
}

func (r *EventRecorder) UserLeft(g models.Group, u models.UserRef) {
	r.add(Event{Name: "user_left_group", Group: g, User: u})
}

// Announce implements the notifier boundary.
func (r *EventRecorder) Announce(g models.Group) {
	r.add(Event{Name: "announce", Group: g})
}
