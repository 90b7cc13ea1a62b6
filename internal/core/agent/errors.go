package agent

import "errors"

var (
	// ErrUnknownIdentity is returned when resolving a retired or
	// never-issued handle.
	ErrUnknownIdentity = errors.New("unknown agent identity")

	// ErrCapacityExceeded is returned by Add when a hard slot ceiling is
	// configured and reached.
	ErrCapacityExceeded = errors.New("agent capacity exceeded")

	// ErrUnknownArchetype is returned when a record carries no committed
	// archetype tag. Unknown is never defaulted away.
	ErrUnknownArchetype = errors.New("unknown archetype")

	// ErrConfigMismatch is returned when a record's config variant does not
	// match its archetype tag.
	ErrConfigMismatch = errors.New("archetype config mismatch")
)
