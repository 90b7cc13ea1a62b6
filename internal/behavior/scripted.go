package behavior

import (
	"fmt"

	"github.com/agentsim/server/internal/core/agent"
	"github.com/agentsim/server/internal/scripting"
	"github.com/agentsim/server/internal/vmath"
)

// Scripted delegates movement and combat decisions to Lua functions named
// <prefix>_movement and <prefix>_combat. The Go side packs agent state into
// the call context and applies nothing itself — script failures surface as
// ErrNoDecision and the agent simply makes no progress that tick.
type Scripted struct {
	eng        *scripting.Engine
	movementFn string
	combatFn   string
}

func NewScripted(eng *scripting.Engine, prefix string) *Scripted {
	return &Scripted{
		eng:        eng,
		movementFn: prefix + "_movement",
		combatFn:   prefix + "_combat",
	}
}

func (s *Scripted) ComputeMovement(reg *agent.Registry, slot int, _ float32) (MovementInput, error) {
	pos := reg.Pos(slot)
	h := reg.Health(slot)
	res, err := s.eng.RunMovement(s.movementFn, scripting.MovementContext{
		Archetype: reg.ArchetypeAt(slot).String(),
		X:         float64(pos.X),
		Y:         float64(pos.Y),
		Z:         float64(pos.Z),
		HP:        int(h.HP),
		MaxHP:     int(h.MaxHP),
		MaxSpeed:  float64(reg.Motion(slot).MaxSpeed),
		Alert:     h.Has(agent.FlagAlert),
		Defensive: h.Has(agent.FlagDefensive),
	})
	if err != nil {
		return MovementInput{}, fmt.Errorf("%w: %v", ErrNoDecision, err)
	}
	return MovementInput{
		Move: vmath.Vec3{
			X: float32(res.MoveX),
			Y: float32(res.MoveY),
			Z: float32(res.MoveZ),
		},
		SpeedScale: float32(res.SpeedScale),
		Face: vmath.Vec3{
			X: float32(res.FaceX),
			Y: float32(res.FaceY),
			Z: float32(res.FaceZ),
		},
	}, nil
}

func (s *Scripted) ComputeCombat(reg *agent.Registry, slot int, _ float32, params CombatParams) CombatDecision {
	pos := reg.Pos(slot)
	h := reg.Health(slot)
	res, err := s.eng.RunCombat(s.combatFn, scripting.CombatContext{
		Archetype:   reg.ArchetypeAt(slot).String(),
		X:           float64(pos.X),
		Y:           float64(pos.Y),
		Z:           float64(pos.Z),
		HP:          int(h.HP),
		MaxHP:       int(h.MaxHP),
		TargetID:    uint64(params.TargetIdentity),
		TargetX:     float64(params.TargetPosition.X),
		TargetY:     float64(params.TargetPosition.Y),
		TargetZ:     float64(params.TargetPosition.Z),
		TargetDist:  float64(params.DistToTarget),
		LineOfSight: params.LineOfSight,
	})
	if err != nil || !res.Attack {
		return CombatDecision{}
	}
	return CombatDecision{
		ShouldAttack: true,
		Action:       parseAction(res.Action),
		Target:       params.TargetIdentity,
		AimPoint: vmath.Vec3{
			X: float32(res.AimX),
			Y: float32(res.AimY),
			Z: float32(res.AimZ),
		},
	}
}

func parseAction(s string) ActionType {
	switch s {
	case "melee":
		return ActionMelee
	case "ranged_trace":
		return ActionRangedTrace
	case "taser":
		return ActionTaser
	default:
		return ActionNone
	}
}
