package sim

import (
	"go.uber.org/zap"

	"github.com/agentsim/server/internal/behavior"
	"github.com/agentsim/server/internal/core/agent"
	"github.com/agentsim/server/internal/core/event"
	"github.com/agentsim/server/internal/spatial"
	"github.com/agentsim/server/internal/vmath"
)

// TargetProvider assembles the world-sourced combat inputs for one agent.
// The core treats target designation and line of sight as opaque collaborator
// data; it never computes them itself.
type TargetProvider interface {
	Params(reg *agent.Registry, slot int) (behavior.CombatParams, bool)
}

// NearestTargetProvider designates the nearest other live agent within Radius
// using the spatial index, with unconditional line of sight. It is the
// default stand-in for a real world-query collaborator.
type NearestTargetProvider struct {
	Grid   *spatial.Grid
	Radius float32
}

func (p *NearestTargetProvider) Params(reg *agent.Registry, slot int) (behavior.CombatParams, bool) {
	self := reg.IdentityAt(slot)
	pos := reg.Pos(slot)

	var best agent.Identity
	var bestPos vmath.Vec3
	bestDist := p.Radius
	for _, id := range p.Grid.QueryRadius(pos, p.Radius) {
		if id == self {
			continue
		}
		other, err := reg.Resolve(id)
		if err != nil {
			continue // removed this tick; the index catches up at tick end
		}
		if reg.Health(other).Has(agent.FlagDisabled) {
			continue
		}
		d := vmath.Dist(pos, reg.Pos(other))
		if d <= bestDist {
			best = id
			bestPos = reg.Pos(other)
			bestDist = d
		}
	}
	if best == 0 {
		return behavior.CombatParams{}, false
	}
	return behavior.CombatParams{
		TargetIdentity: best,
		TargetPosition: bestPos,
		DistToTarget:   bestDist,
		LineOfSight:    true,
	}, true
}

// CombatProcessor requests combat decisions and is the sole authority that
// turns them into observable effects: exactly one dispatched action per agent
// per tick, gated by the per-slot attack cooldown.
type CombatProcessor struct {
	reg           *agent.Registry
	behaviors     *behavior.Registry
	hub           *event.Hub
	log           *zap.Logger
	targets       TargetProvider
	cooldownTicks int32
}

func NewCombatProcessor(reg *agent.Registry, behaviors *behavior.Registry, hub *event.Hub, log *zap.Logger, targets TargetProvider, cooldownTicks int32) *CombatProcessor {
	return &CombatProcessor{
		reg:           reg,
		behaviors:     behaviors,
		hub:           hub,
		log:           log,
		targets:       targets,
		cooldownTicks: cooldownTicks,
	}
}

// Process runs combat decisions for every slot in the batch.
func (p *CombatProcessor) Process(slots []int, dt float32) {
	for _, slot := range slots {
		cd := p.reg.Cooldown(slot)
		if *cd > 0 {
			*cd--
		}
		if p.reg.Health(slot).Has(agent.FlagDisabled) {
			continue
		}

		arch := p.reg.ArchetypeAt(slot)
		b, ok := p.behaviors.Lookup(arch)
		if !ok {
			p.log.Error("no behavior registered",
				zap.String("archetype", arch.String()),
				zap.Uint64("identity", uint64(p.reg.IdentityAt(slot))))
			continue
		}

		params, ok := p.targets.Params(p.reg, slot)
		if !ok {
			continue // nothing designated this tick
		}

		dec := b.ComputeCombat(p.reg, slot, dt, params)
		if !dec.ShouldAttack || dec.Action == behavior.ActionNone {
			continue
		}
		if *cd > 0 {
			continue // still recovering from the last action
		}

		*cd = p.cooldownTicks
		event.Publish(p.hub, event.CombatAction{
			Attacker: p.reg.IdentityAt(slot),
			Target:   dec.Target,
			Action:   dec.Action,
			AimPoint: dec.AimPoint,
		})
	}
}
