// internal/app/system/party/errors.go
package party

import (
	"errors"
	"fmt"

	"github.com/guildtools/partyhub/internal/domain/models"
)

var (
	// ErrNotFound is returned when the target group does not exist
	// (or was already deleted by the time the operation ran).
	ErrNotFound = errors.New("group not found")

	// ErrGroupFull is returned by Join when the group has no open slot.
	ErrGroupFull = errors.New("group is full")

	// ErrInvalidTransition is returned for any mutation against a group in
	// a terminal status, including invalid status changes.
	ErrInvalidTransition = errors.New("group status does not permit this operation")

	// ErrValidation wraps malformed-input failures. Callers match it with
	// errors.Is and read the wrapped message for detail.
	ErrValidation = errors.New("invalid input")

	// ErrConflict is returned when a revision-guarded save kept losing to
	// concurrent writers after the retry budget was spent.
	ErrConflict = errors.New("group was modified concurrently")
)

// AlreadyInGroupError reports a cross-group exclusivity violation: the user
// already occupies a slot in another active group. It carries that group so
// callers can redirect the user there.
type AlreadyInGroupError struct {
	Nick  string
	Group models.Group
}

func (e *AlreadyInGroupError) Error() string {
	return fmt.Sprintf("%s already belongs to active group %q", e.Nick, e.Group.Name)
}

func errValidation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
