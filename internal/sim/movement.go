package sim

import (
	"go.uber.org/zap"

	"github.com/agentsim/server/internal/behavior"
	"github.com/agentsim/server/internal/core/agent"
	"github.com/agentsim/server/internal/core/event"
	"github.com/agentsim/server/internal/vmath"
)

// MovementProcessor applies behavior-computed movement intents to the
// transform columns. A failed or missing behavior leaves the transform
// unchanged this tick — explicit no-progress, not a crash.
type MovementProcessor struct {
	reg       *agent.Registry
	behaviors *behavior.Registry
	hub       *event.Hub
	log       *zap.Logger
	maxTurn   float32 // max facing rotation, radians per second
}

func NewMovementProcessor(reg *agent.Registry, behaviors *behavior.Registry, hub *event.Hub, log *zap.Logger, maxTurnRate float32) *MovementProcessor {
	return &MovementProcessor{
		reg:       reg,
		behaviors: behaviors,
		hub:       hub,
		log:       log,
		maxTurn:   maxTurnRate,
	}
}

// Process integrates one tick of movement for every slot in the batch.
func (p *MovementProcessor) Process(slots []int, dt float32) {
	for _, slot := range slots {
		if p.reg.Health(slot).Has(agent.FlagDisabled) {
			continue
		}

		arch := p.reg.ArchetypeAt(slot)
		b, ok := p.behaviors.Lookup(arch)
		if !ok {
			p.log.Error("no behavior registered",
				zap.String("archetype", arch.String()),
				zap.Uint64("identity", uint64(p.reg.IdentityAt(slot))))
			event.Publish(p.hub, event.BehaviorFault{
				Identity:  p.reg.IdentityAt(slot),
				Archetype: arch,
				Phase:     "movement",
				Reason:    behavior.ErrNoBehaviorRegistered.Error(),
			})
			continue
		}

		in, err := b.ComputeMovement(p.reg, slot, dt)
		if err != nil {
			p.log.Debug("movement computation failed",
				zap.Uint64("identity", uint64(p.reg.IdentityAt(slot))),
				zap.Error(err))
			continue
		}

		m := p.reg.Motion(slot)
		m.SpeedScale = vmath.Clamp01(in.SpeedScale)
		m.Velocity = in.Move.Scale(m.MaxSpeed * m.SpeedScale)
		p.reg.SetPos(slot, p.reg.Pos(slot).Add(m.Velocity.Scale(dt)))

		if !in.Face.IsZero() {
			face := vmath.RotateToward(p.reg.Facing(slot), in.Face.Normalize(), p.maxTurn*dt)
			p.reg.SetFacing(slot, face)
		}
	}
}
