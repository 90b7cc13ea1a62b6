package agent

import "fmt"

// Archetype classifies an agent's behavioral category. A committed slot is
// never Unknown: Add rejects it instead of defaulting.
type Archetype uint8

const (
	ArchetypeUnknown Archetype = iota
	ArchetypeDrone
	ArchetypeAutonomous
)

func (a Archetype) String() string {
	switch a {
	case ArchetypeDrone:
		return "drone"
	case ArchetypeAutonomous:
		return "autonomous"
	default:
		return "unknown"
	}
}

// ParseArchetype maps a catalog tag to an Archetype. Unrecognized tags fail
// rather than falling back to a default.
func ParseArchetype(s string) (Archetype, error) {
	switch s {
	case "drone":
		return ArchetypeDrone, nil
	case "autonomous":
		return ArchetypeAutonomous, nil
	default:
		return ArchetypeUnknown, fmt.Errorf("%w: %q", ErrUnknownArchetype, s)
	}
}
