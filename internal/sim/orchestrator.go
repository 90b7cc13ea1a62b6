// Package sim contains the per-tick batch pipeline: the three processors and
// the Orchestrator that runs them in fixed order over the agent registry.
package sim

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/agentsim/server/internal/behavior"
	"github.com/agentsim/server/internal/core/agent"
	"github.com/agentsim/server/internal/core/event"
	"github.com/agentsim/server/internal/spatial"
	"github.com/agentsim/server/internal/vmath"
)

// Options tunes the orchestrator. Zero values pick workable defaults.
type Options struct {
	MaxAgents           int     // registry slot ceiling; 0 = unbounded
	CellSize            float32 // spatial grid cell edge
	MaxTurnRate         float32 // facing rotation bound, rad/s
	DefensiveHealthFrac float32 // HP fraction for the defensive flag
	AttackCooldownTicks int32   // ticks between dispatched combat actions
	TargetRadius        float32 // default target designation radius
	Targets             TargetProvider
}

func (o *Options) defaults() {
	if o.CellSize <= 0 {
		o.CellSize = 20
	}
	if o.MaxTurnRate <= 0 {
		o.MaxTurnRate = 2 * math.Pi
	}
	if o.DefensiveHealthFrac <= 0 {
		o.DefensiveHealthFrac = 0.25
	}
	if o.AttackCooldownTicks <= 0 {
		o.AttackCooldownTicks = 5
	}
	if o.TargetRadius <= 0 {
		o.TargetRadius = 50
	}
}

// Stats is the informational diagnostic dump. Never load-bearing.
type Stats struct {
	Active      int
	Ticks       uint64
	StateAvg    time.Duration
	MovementAvg time.Duration
	CombatAvg   time.Duration
}

// Orchestrator owns the registries, the spatial index, and the event hub, and
// drives the fixed State → Movement → Combat pipeline once per RunTick call.
// All methods must be called from the same goroutine; columns are exclusively
// owned by the orchestrator for the duration of a tick. Despawns queue and
// apply at tick boundaries so no iterator is invalidated mid-phase.
type Orchestrator struct {
	log       *zap.Logger
	reg       *agent.Registry
	behaviors *behavior.Registry
	grid      *spatial.Grid
	hub       *event.Hub

	state    *StateProcessor
	movement *MovementProcessor
	combat   *CombatProcessor

	despawns []agent.Identity

	ticks    uint64
	phaseAvg [3]time.Duration
}

func New(log *zap.Logger, opts Options) *Orchestrator {
	opts.defaults()

	reg := agent.NewRegistry(opts.MaxAgents)
	behaviors := behavior.NewRegistry()
	grid := spatial.NewGrid(opts.CellSize)
	hub := event.NewHub()

	targets := opts.Targets
	if targets == nil {
		targets = &NearestTargetProvider{Grid: grid, Radius: opts.TargetRadius}
	}

	return &Orchestrator{
		log:       log,
		reg:       reg,
		behaviors: behaviors,
		grid:      grid,
		hub:       hub,
		state:     NewStateProcessor(reg, behaviors, hub, log, opts.DefensiveHealthFrac),
		movement:  NewMovementProcessor(reg, behaviors, hub, log, opts.MaxTurnRate),
		combat:    NewCombatProcessor(reg, behaviors, hub, log, targets, opts.AttackCooldownTicks),
		despawns:  make([]agent.Identity, 0, 32),
	}
}

func (o *Orchestrator) Registry() *agent.Registry     { return o.reg }
func (o *Orchestrator) Behaviors() *behavior.Registry { return o.behaviors }
func (o *Orchestrator) Grid() *spatial.Grid           { return o.grid }
func (o *Orchestrator) Hub() *event.Hub               { return o.hub }

// Spawn commits an agent and inserts it into the spatial index. Must be
// called between ticks (same goroutine as RunTick), which puts it on a tick
// boundary by construction. Errors propagate to the caller unswallowed.
func (o *Orchestrator) Spawn(rec agent.Record) (agent.Identity, error) {
	id, err := o.reg.Add(rec)
	if err != nil {
		return 0, err
	}
	o.grid.Insert(id, rec.Position)
	event.Publish(o.hub, event.AgentSpawned{
		Identity:  id,
		Archetype: rec.Archetype,
		Owner:     rec.Owner,
		Position:  rec.Position,
	})
	return id, nil
}

// Despawn queues removal for the next tick boundary. Returns whether the
// identity was live at call time; a second call for the same identity is a
// harmless no-op.
func (o *Orchestrator) Despawn(id agent.Identity) bool {
	if !o.IsValidIdentity(id) {
		return false
	}
	o.despawns = append(o.despawns, id)
	return true
}

func (o *Orchestrator) applyDespawns() {
	for _, id := range o.despawns {
		slot, err := o.reg.Resolve(id)
		if err != nil {
			continue // already despawned (duplicate queue entry)
		}
		owner := o.reg.OwnerAt(slot)
		o.grid.Remove(id)
		o.reg.Remove(id)
		event.Publish(o.hub, event.AgentDespawned{Identity: id, Owner: owner})
	}
	o.despawns = o.despawns[:0]
}

// RunTick advances the simulation one step: boundary despawns, last tick's
// event delivery, then State → Movement → Combat in that literal order
// (Movement reads flags State wrote; Combat reads positions Movement just
// committed), then the spatial index commit for next tick's queries.
func (o *Orchestrator) RunTick(dt float32) {
	o.applyDespawns()

	o.hub.SwapBuffers()
	o.hub.DispatchAll()

	slots := o.reg.Active()
	o.reg.Prefetch(slots)

	t0 := time.Now()
	o.state.Process(slots, dt)
	t1 := time.Now()
	o.movement.Process(slots, dt)
	t2 := time.Now()
	o.combat.Process(slots, dt)
	t3 := time.Now()

	ids := make([]agent.Identity, len(slots))
	positions := make([]vmath.Vec3, len(slots))
	for i, s := range slots {
		ids[i] = o.reg.IdentityAt(s)
		positions[i] = o.reg.Pos(s)
	}
	o.grid.BatchUpdate(ids, positions)

	o.ticks++
	o.recordPhase(0, t1.Sub(t0))
	o.recordPhase(1, t2.Sub(t1))
	o.recordPhase(2, t3.Sub(t2))
}

func (o *Orchestrator) recordPhase(i int, d time.Duration) {
	// Running average over all ticks.
	o.phaseAvg[i] += (d - o.phaseAvg[i]) / time.Duration(o.ticks)
}

// Position returns the committed position of a live agent.
func (o *Orchestrator) Position(id agent.Identity) (vmath.Vec3, error) {
	slot, err := o.reg.Resolve(id)
	if err != nil {
		return vmath.Vec3{}, err
	}
	return o.reg.Pos(slot), nil
}

// ArchetypeOf returns a live agent's archetype tag.
func (o *Orchestrator) ArchetypeOf(id agent.Identity) (agent.Archetype, error) {
	slot, err := o.reg.Resolve(id)
	if err != nil {
		return agent.ArchetypeUnknown, err
	}
	return o.reg.ArchetypeAt(slot), nil
}

// IsValidIdentity reports whether the handle refers to a live agent.
func (o *Orchestrator) IsValidIdentity(id agent.Identity) bool {
	_, err := o.reg.Resolve(id)
	return err == nil
}

// Stats returns the informational aggregate snapshot.
func (o *Orchestrator) Stats() Stats {
	return Stats{
		Active:      o.reg.Len(),
		Ticks:       o.ticks,
		StateAvg:    o.phaseAvg[0],
		MovementAvg: o.phaseAvg[1],
		CombatAvg:   o.phaseAvg[2],
	}
}
