package sim

import (
	"errors"
	"math"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/agentsim/server/internal/behavior"
	"github.com/agentsim/server/internal/core/agent"
	"github.com/agentsim/server/internal/core/event"
	"github.com/agentsim/server/internal/vmath"
)

// stubBehavior returns fixed outputs. wantsSpecial makes it implement the
// optional state-assist hook.
type stubBehavior struct {
	move    behavior.MovementInput
	moveErr error
	dec     behavior.CombatDecision
}

func (s *stubBehavior) ComputeMovement(*agent.Registry, int, float32) (behavior.MovementInput, error) {
	return s.move, s.moveErr
}

func (s *stubBehavior) ComputeCombat(*agent.Registry, int, float32, behavior.CombatParams) behavior.CombatDecision {
	return s.dec
}

type assistBehavior struct {
	stubBehavior
	wants bool
}

func (a *assistBehavior) WantsSpecialAction(*agent.Registry, int) bool { return a.wants }

func droneRec(pos vmath.Vec3) agent.Record {
	return agent.Record{
		Archetype: agent.ArchetypeDrone,
		Position:  pos,
		MaxSpeed:  10,
		Health:    agent.Health{HP: 100, MaxHP: 100},
		Config:    &agent.DroneConfig{},
	}
}

func autoRec(pos vmath.Vec3, maxSpeed float32) agent.Record {
	return agent.Record{
		Archetype: agent.ArchetypeAutonomous,
		Position:  pos,
		MaxSpeed:  maxSpeed,
		Health:    agent.Health{HP: 100, MaxHP: 100},
		Config:    &agent.AutonomousConfig{MeleeRange: 2},
	}
}

func TestNoBehaviorRegisteredIsLoggedAndContained(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	o := New(zap.New(core), Options{})

	id, err := o.Spawn(droneRec(vmath.Vec3{}))
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	o.RunTick(0.1)

	pos, err := o.Position(id)
	if err != nil {
		t.Fatalf("agent must still be resolvable: %v", err)
	}
	if !pos.IsZero() {
		t.Fatalf("position must be unchanged without a behavior, got %+v", pos)
	}
	if logs.FilterMessage("no behavior registered").Len() == 0 {
		t.Fatalf("expected 'no behavior registered' at error severity")
	}
}

func TestMovementIntegration(t *testing.T) {
	o := New(zap.NewNop(), Options{})
	o.Behaviors().Register(agent.ArchetypeAutonomous, &stubBehavior{
		move: behavior.MovementInput{Move: vmath.Vec3{X: 1}, SpeedScale: 1},
	})

	id, err := o.Spawn(autoRec(vmath.Vec3{}, 100))
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	o.RunTick(1.0)

	pos, _ := o.Position(id)
	if math.Abs(float64(pos.X-100)) > 1e-3 || pos.Y != 0 || pos.Z != 0 {
		t.Fatalf("expected ~(100,0,0), got %+v", pos)
	}
}

func TestSpeedScaleClamped(t *testing.T) {
	o := New(zap.NewNop(), Options{})
	o.Behaviors().Register(agent.ArchetypeAutonomous, &stubBehavior{
		move: behavior.MovementInput{Move: vmath.Vec3{X: 1}, SpeedScale: 7},
	})
	id, _ := o.Spawn(autoRec(vmath.Vec3{}, 10))

	o.RunTick(1.0)

	pos, _ := o.Position(id)
	if pos.X > 10.001 {
		t.Fatalf("speed scale not clamped to 1: moved %f", pos.X)
	}
}

func TestBehaviorFailureLeavesTransformUntouched(t *testing.T) {
	o := New(zap.NewNop(), Options{})
	o.Behaviors().Register(agent.ArchetypeAutonomous, &stubBehavior{
		moveErr: behavior.ErrNoDecision,
	})
	id, _ := o.Spawn(autoRec(vmath.Vec3{X: 3}, 100))

	o.RunTick(1.0)

	pos, _ := o.Position(id)
	if pos.X != 3 {
		t.Fatalf("failed behavior must mean no progress, got %+v", pos)
	}
}

func TestFacingRotatesBoundedNotSnapped(t *testing.T) {
	o := New(zap.NewNop(), Options{MaxTurnRate: math.Pi / 4})
	o.Behaviors().Register(agent.ArchetypeAutonomous, &stubBehavior{
		move: behavior.MovementInput{Face: vmath.Vec3{Y: 1}},
	})
	rec := autoRec(vmath.Vec3{}, 10)
	rec.Facing = vmath.Vec3{X: 1}
	id, _ := o.Spawn(rec)
	slot, _ := o.Registry().Resolve(id)

	o.RunTick(0.5) // turn budget π/8 of the π/2 needed

	f := o.Registry().Facing(slot)
	turned := vmath.AngleBetween(vmath.Vec3{X: 1}, f)
	if turned > math.Pi/8+1e-3 {
		t.Fatalf("facing snapped: turned %f rad in one tick", turned)
	}
	if turned < 1e-4 {
		t.Fatalf("facing did not rotate at all")
	}
}

func TestSpatialConsistencyAfterTick(t *testing.T) {
	o := New(zap.NewNop(), Options{})
	o.Behaviors().Register(agent.ArchetypeAutonomous, &stubBehavior{
		move: behavior.MovementInput{Move: vmath.Vec3{X: 1}, SpeedScale: 1},
	})

	var ids []agent.Identity
	for i := 0; i < 5; i++ {
		id, _ := o.Spawn(autoRec(vmath.Vec3{Y: float32(i) * 30}, 50))
		ids = append(ids, id)
	}

	for tick := 0; tick < 3; tick++ {
		o.RunTick(1.0)
		for _, id := range ids {
			pos, err := o.Position(id)
			if err != nil {
				t.Fatalf("resolve %d: %v", id, err)
			}
			found := false
			for _, got := range o.Grid().QueryRadius(pos, 0) {
				if got == id {
					found = true
					break
				}
			}
			if !found {
				t.Fatalf("tick %d: index does not reflect agent %d at committed position %+v", tick, id, pos)
			}
		}
	}
}

func TestDespawnAppliesAtTickBoundary(t *testing.T) {
	o := New(zap.NewNop(), Options{})
	o.Behaviors().Register(agent.ArchetypeDrone, &stubBehavior{})

	id, _ := o.Spawn(droneRec(vmath.Vec3{X: 5}))
	keep, _ := o.Spawn(droneRec(vmath.Vec3{X: 40}))

	var despawned []agent.Identity
	event.Subscribe(o.Hub(), func(ev event.AgentDespawned) {
		despawned = append(despawned, ev.Identity)
	})

	if !o.Despawn(id) {
		t.Fatalf("despawn of live agent must report true")
	}
	if o.Despawn(9999) {
		t.Fatalf("despawn of unknown identity must report false")
	}
	// Still live until the boundary.
	if !o.IsValidIdentity(id) {
		t.Fatalf("despawn applied before tick boundary")
	}

	o.RunTick(0.1)

	if o.IsValidIdentity(id) {
		t.Fatalf("agent still live after boundary")
	}
	if !o.IsValidIdentity(keep) {
		t.Fatalf("unrelated agent removed")
	}
	for _, got := range o.Grid().QueryRadius(vmath.Vec3{X: 5}, 1) {
		if got == id {
			t.Fatalf("index still returns despawned identity")
		}
	}

	o.RunTick(0.1) // delivers the boundary's events
	if len(despawned) != 1 || despawned[0] != id {
		t.Fatalf("expected one despawn notification for %d, got %v", id, despawned)
	}
}

func TestSpawnEventsCarryOwnerToken(t *testing.T) {
	o := New(zap.NewNop(), Options{})
	var got []event.AgentSpawned
	event.Subscribe(o.Hub(), func(ev event.AgentSpawned) { got = append(got, ev) })

	rec := droneRec(vmath.Vec3{})
	rec.Owner = agent.OwnerToken(42)
	id, _ := o.Spawn(rec)

	o.RunTick(0.1)
	if len(got) != 1 || got[0].Identity != id || got[0].Owner != 42 {
		t.Fatalf("unexpected spawn events: %+v", got)
	}
}

func TestSpawnCapacityErrorPropagates(t *testing.T) {
	o := New(zap.NewNop(), Options{MaxAgents: 1})
	if _, err := o.Spawn(droneRec(vmath.Vec3{})); err != nil {
		t.Fatalf("first spawn: %v", err)
	}
	if _, err := o.Spawn(droneRec(vmath.Vec3{})); !errors.Is(err, agent.ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
}

func TestStatsInformational(t *testing.T) {
	o := New(zap.NewNop(), Options{})
	o.Behaviors().Register(agent.ArchetypeDrone, &stubBehavior{})
	o.Spawn(droneRec(vmath.Vec3{}))
	o.Spawn(droneRec(vmath.Vec3{X: 100}))

	o.RunTick(0.1)
	o.RunTick(0.1)

	st := o.Stats()
	if st.Active != 2 {
		t.Fatalf("active count: got %d want 2", st.Active)
	}
	if st.Ticks != 2 {
		t.Fatalf("tick count: got %d want 2", st.Ticks)
	}
}
