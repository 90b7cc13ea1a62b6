package sim

import (
	"go.uber.org/zap"

	"github.com/agentsim/server/internal/behavior"
	"github.com/agentsim/server/internal/core/agent"
	"github.com/agentsim/server/internal/core/event"
)

// StateProcessor evaluates per-agent state transitions: health thresholds
// plus the optional behavior-provided assist hook. Pure function of current
// state and the behavior answer. Never fatal: a behavior problem for one
// agent skips only that agent.
type StateProcessor struct {
	reg           *agent.Registry
	behaviors     *behavior.Registry
	hub           *event.Hub
	log           *zap.Logger
	defensiveFrac float32 // HP fraction below which the defensive flag raises
}

func NewStateProcessor(reg *agent.Registry, behaviors *behavior.Registry, hub *event.Hub, log *zap.Logger, defensiveFrac float32) *StateProcessor {
	return &StateProcessor{
		reg:           reg,
		behaviors:     behaviors,
		hub:           hub,
		log:           log,
		defensiveFrac: defensiveFrac,
	}
}

// Process advances the state flags for every slot in the batch.
func (p *StateProcessor) Process(slots []int, _ float32) {
	for _, slot := range slots {
		h := p.reg.Health(slot)

		if h.HP <= 0 {
			if !h.Has(agent.FlagDisabled) {
				h.Set(agent.FlagDisabled)
				event.Publish(p.hub, event.AgentDisabled{
					Identity: p.reg.IdentityAt(slot),
					Owner:    p.reg.OwnerAt(slot),
				})
			}
			continue
		}

		if p.defensiveFrac > 0 && float32(h.HP) < p.defensiveFrac*float32(h.MaxHP) {
			h.Set(agent.FlagDefensive)
		} else {
			h.Clear(agent.FlagDefensive)
		}

		// Optional state-assist hook. A missing behavior means no assist
		// answer here; movement and combat report the dispatch failure.
		b, ok := p.behaviors.Lookup(p.reg.ArchetypeAt(slot))
		if !ok {
			continue
		}
		if assist, ok := b.(behavior.StateAssist); ok && assist.WantsSpecialAction(p.reg, slot) {
			h.Set(agent.FlagAlert)
		} else {
			h.Clear(agent.FlagAlert)
		}
	}
}
