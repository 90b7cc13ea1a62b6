package behavior

import (
	"github.com/agentsim/server/internal/core/agent"
	"github.com/agentsim/server/internal/vmath"
)

// Autonomous walks toward a goal point and melees targets that come inside
// the unit's configured melee range.
type Autonomous struct {
	Goal vmath.Vec3
}

func NewAutonomous(goal vmath.Vec3) *Autonomous {
	return &Autonomous{Goal: goal}
}

func (a *Autonomous) ComputeMovement(reg *agent.Registry, slot int, _ float32) (MovementInput, error) {
	pos := reg.Pos(slot)
	to := a.Goal.Sub(pos)
	to.Z = 0 // ground unit: never generates vertical intent
	if to.Length() < 1e-3 {
		return MovementInput{}, nil
	}
	dir := to.Normalize()
	return MovementInput{Move: dir, SpeedScale: 1, Face: dir}, nil
}

func (a *Autonomous) ComputeCombat(reg *agent.Registry, slot int, _ float32, params CombatParams) CombatDecision {
	if params.TargetIdentity == 0 {
		return CombatDecision{}
	}
	meleeRange := float32(2)
	if cfg, ok := reg.Config(slot).(*agent.AutonomousConfig); ok && cfg.MeleeRange > 0 {
		meleeRange = cfg.MeleeRange
	}
	if params.DistToTarget > meleeRange {
		return CombatDecision{}
	}
	return CombatDecision{
		ShouldAttack: true,
		Action:       ActionMelee,
		Target:       params.TargetIdentity,
		AimPoint:     params.TargetPosition,
	}
}
