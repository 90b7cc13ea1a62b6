// Package behavior defines the pluggable per-archetype strategy contract and
// its dispatch registry. Behaviors read registry state broadly (e.g. for
// target selection) but write nothing: all effects flow through the returned
// outputs, which the processors apply.
package behavior

import (
	"errors"

	"github.com/agentsim/server/internal/core/agent"
	"github.com/agentsim/server/internal/vmath"
)

var (
	// ErrNoDecision signals that a behavior could not produce a valid
	// output this tick (e.g. no valid target). The processor leaves the
	// agent untouched; the failure never aborts the batch.
	ErrNoDecision = errors.New("behavior produced no decision")

	// ErrNoBehaviorRegistered reports a missing dispatch target for an
	// archetype. Logged at error severity by processors — never papered
	// over with a default behavior.
	ErrNoBehaviorRegistered = errors.New("no behavior registered for archetype")
)

// MovementInput is a behavior's movement intent for one agent.
type MovementInput struct {
	Move       vmath.Vec3 // direction intent; scaled by MaxSpeed * SpeedScale
	SpeedScale float32    // clamped to [0,1] by the movement processor
	Face       vmath.Vec3 // desired facing; zero keeps the current facing
}

// CombatParams carries the world-sourced inputs for a combat decision:
// assembled by the caller from the spatial index and world collaborators,
// opaque to the behavior's own state.
type CombatParams struct {
	TargetIdentity agent.Identity
	TargetPosition vmath.Vec3
	DistToTarget   float32
	LineOfSight    bool
}

// ActionType enumerates the archetype-appropriate combat actions.
type ActionType uint8

const (
	ActionNone ActionType = iota
	ActionRangedTrace
	ActionMelee
	ActionTaser
)

func (a ActionType) String() string {
	switch a {
	case ActionRangedTrace:
		return "ranged_trace"
	case ActionMelee:
		return "melee"
	case ActionTaser:
		return "taser"
	default:
		return "none"
	}
}

// CombatDecision is advisory: the combat processor is the sole authority that
// turns it into an observable world effect.
type CombatDecision struct {
	ShouldAttack bool
	Action       ActionType
	Target       agent.Identity
	AimPoint     vmath.Vec3
}

// Behavior is the strategy contract for one archetype. Implementations must
// be side-effect-free with respect to every agent other than the one indexed.
type Behavior interface {
	ComputeMovement(reg *agent.Registry, slot int, dt float32) (MovementInput, error)
	ComputeCombat(reg *agent.Registry, slot int, dt float32, params CombatParams) CombatDecision
}

// StateAssist is the optional state-phase hook. Processors type-assert for it
// and treat a missing implementation as a constant false answer.
type StateAssist interface {
	WantsSpecialAction(reg *agent.Registry, slot int) bool
}
