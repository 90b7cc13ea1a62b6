package behavior

import (
	"github.com/agentsim/server/internal/core/agent"
	"github.com/agentsim/server/internal/vmath"
)

// Drone patrols toward an anchor point, keeping its altitude under the
// drone's configured flight ceiling. Combat prefers the taser when the drone
// carries one and the target is close; otherwise a ranged trace.
type Drone struct {
	Anchor      vmath.Vec3
	ArriveDist  float32 // slow to a stop inside this distance of the anchor
	TaserRange  float32
	AttackRange float32
}

// NewDrone returns a drone behavior with workable default ranges.
func NewDrone(anchor vmath.Vec3) *Drone {
	return &Drone{
		Anchor:      anchor,
		ArriveDist:  2,
		TaserRange:  3,
		AttackRange: 40,
	}
}

func (d *Drone) ComputeMovement(reg *agent.Registry, slot int, _ float32) (MovementInput, error) {
	pos := reg.Pos(slot)
	goal := d.Anchor
	if cfg, ok := reg.Config(slot).(*agent.DroneConfig); ok && cfg.FlightCeiling > 0 && goal.Z > cfg.FlightCeiling {
		goal.Z = cfg.FlightCeiling
	}

	to := goal.Sub(pos)
	dist := to.Length()
	if dist < 1e-3 {
		// On station: hover, keep facing.
		return MovementInput{}, nil
	}

	scale := float32(1)
	if d.ArriveDist > 0 && dist < d.ArriveDist {
		scale = dist / d.ArriveDist
	}
	dir := to.Normalize()
	return MovementInput{Move: dir, SpeedScale: scale, Face: dir}, nil
}

func (d *Drone) ComputeCombat(reg *agent.Registry, slot int, _ float32, params CombatParams) CombatDecision {
	if params.TargetIdentity == 0 || !params.LineOfSight {
		return CombatDecision{}
	}
	if params.DistToTarget > d.AttackRange {
		return CombatDecision{}
	}
	action := ActionRangedTrace
	if cfg, ok := reg.Config(slot).(*agent.DroneConfig); ok && cfg.HasTaser && params.DistToTarget <= d.TaserRange {
		action = ActionTaser
	}
	return CombatDecision{
		ShouldAttack: true,
		Action:       action,
		Target:       params.TargetIdentity,
		AimPoint:     params.TargetPosition,
	}
}

// WantsSpecialAction implements the optional state-assist hook: captains
// raise the alert flag for their patrol.
func (d *Drone) WantsSpecialAction(reg *agent.Registry, slot int) bool {
	cfg, ok := reg.Config(slot).(*agent.DroneConfig)
	return ok && cfg.Captain
}
