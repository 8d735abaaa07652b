// internal/app/system/hub/events.go
package hub

import (
	"github.com/guildtools/partyhub/internal/domain/models"
)

// Wire event names. Browser clients depend on these names and payload
// shapes; they must stay stable.
const (
	EventGroupsInit         = "groups_init"
	EventGroupCreated       = "group_created"
	EventGroupUpdated       = "group_updated"
	EventGroupSlotsUpdated  = "group_slots_updated"
	EventGroupDeleted       = "group_deleted"
	EventGroupStatusChanged = "group_status_changed"
	EventUserJoined         = "user_joined_group"
	EventUserLeft           = "user_left_group"
)

// Envelope is the frame written to every socket: the event name plus its
// JSON payload.
type Envelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// GroupsInitPayload is the full-state snapshot sent to a socket right after
// it connects, before any later per-group event reaches it.
type GroupsInitPayload struct {
	Groups []models.Group `json:"groups"`
}

// GroupPayload carries the full post-mutation group, so an observer can
// rebuild its state from the last message alone.
type GroupPayload struct {
	Group models.Group `json:"group"`
}

type GroupDeletedPayload struct {
	GroupID string `json:"groupId"`
	Reason  string `json:"reason,omitempty"`
}

type StatusChangedPayload struct {
	Group     models.Group `json:"group"`
	NewStatus string       `json:"newStatus"`
}

// MemberPayload identifies the acting user of a join/leave alongside the
// full post-mutation group.
type MemberPayload struct {
	GroupID   string         `json:"groupId"`
	Group     models.Group   `json:"group"`
	User      models.UserRef `json:"user"`
	Timestamp string         `json:"timestamp"`
}
