package matchmaking

import (
	"errors"

	"campusmatch/backend/internal/models"
)

// Error kinds surfaced by the engine. Handlers map these to HTTP statuses;
// anything else bubbles up as an internal error.
var (
	// ErrNotFound means a referenced profile, group, or match is absent.
	ErrNotFound = errors.New("not found")

	// ErrPreconditionNotMet means the action's preconditions do not hold:
	// the viewer is missing the age or location the feed needs, or a group
	// member aimed a like at their own group.
	ErrPreconditionNotMet = errors.New("precondition not met")

	// ErrUnauthorized means the actor is not a party to the match or group
	// action being performed.
	ErrUnauthorized = errors.New("unauthorized")
)

// EnsureReadyForFeed rejects profiles that cannot enter the swipe flow yet.
func EnsureReadyForFeed(p *models.Profile) error {
	if !p.HasResolvedAge() || !p.HasResolvedLocation() {
		return ErrPreconditionNotMet
	}
	return nil
}
