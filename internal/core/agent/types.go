package agent

import "github.com/agentsim/server/internal/vmath"

// Identity is the stable external handle for an agent. Identities are
// assigned monotonically and never reused, so a retired handle can never
// alias a later agent.
type Identity uint64

// OwnerToken is an opaque, non-owning back-reference to the external world
// object that spawned the agent. Zero means unowned. The registry never
// dereferences it; collaborators resolve it on their side.
type OwnerToken uint64

// Motion holds an agent's velocity state. Hot: written every tick.
type Motion struct {
	Velocity   vmath.Vec3
	SpeedScale float32 // last applied scale, clamped to [0,1]
	MaxSpeed   float32
}

// Flag bits for Health.Flags.
const (
	FlagAlert uint8 = 1 << iota
	FlagDisabled
	FlagDefensive
)

// Health holds hit points and state flags. Warm: read every tick, written on
// transitions.
type Health struct {
	HP    int32
	MaxHP int32
	Flags uint8
}

func (h *Health) Has(flag uint8) bool { return h.Flags&flag != 0 }
func (h *Health) Set(flag uint8)      { h.Flags |= flag }
func (h *Health) Clear(flag uint8)    { h.Flags &^= flag }

// ArchetypeConfig is the per-archetype cold config variant. Exactly one
// concrete type exists per archetype tag.
type ArchetypeConfig interface {
	Archetype() Archetype
}

// DroneConfig is the cold config for ArchetypeDrone.
type DroneConfig struct {
	Captain       bool
	HasTaser      bool
	FlightCeiling float32
}

func (*DroneConfig) Archetype() Archetype { return ArchetypeDrone }

// AutonomousConfig is the cold config for ArchetypeAutonomous.
type AutonomousConfig struct {
	MeleeRange        float32
	JumpCooldownTicks int
}

func (*AutonomousConfig) Archetype() Archetype { return ArchetypeAutonomous }

// Record is the input to Registry.Add: one logical agent row before it is
// scattered across the columns.
type Record struct {
	Archetype Archetype
	Position  vmath.Vec3
	Facing    vmath.Vec3 // normalized by Add; zero defaults to +X
	MaxSpeed  float32
	Health    Health
	Config    ArchetypeConfig
	Owner     OwnerToken
}
