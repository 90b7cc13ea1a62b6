package behavior

import (
	"testing"

	"github.com/agentsim/server/internal/core/agent"
	"github.com/agentsim/server/internal/vmath"
)

func TestLookupAbsentIsNotDefaulted(t *testing.T) {
	r := NewRegistry()
	r.Register(agent.ArchetypeDrone, NewDrone(vmath.Vec3{}))

	if _, ok := r.Lookup(agent.ArchetypeAutonomous); ok {
		t.Fatalf("lookup must not substitute another archetype's behavior")
	}
	if b, ok := r.Lookup(agent.ArchetypeDrone); !ok || b == nil {
		t.Fatalf("registered behavior not found")
	}
}

func TestRegisterReplaces(t *testing.T) {
	r := NewRegistry()
	first := NewDrone(vmath.Vec3{X: 1})
	second := NewDrone(vmath.Vec3{X: 2})
	r.Register(agent.ArchetypeDrone, first)
	r.Register(agent.ArchetypeDrone, second)
	b, _ := r.Lookup(agent.ArchetypeDrone)
	if b != Behavior(second) {
		t.Fatalf("re-register should replace the binding")
	}
}

func newDroneAgent(t *testing.T, reg *agent.Registry, cfg *agent.DroneConfig, pos vmath.Vec3) int {
	t.Helper()
	id, err := reg.Add(agent.Record{
		Archetype: agent.ArchetypeDrone,
		Position:  pos,
		MaxSpeed:  10,
		Health:    agent.Health{HP: 100, MaxHP: 100},
		Config:    cfg,
	})
	if err != nil {
		t.Fatalf("add drone: %v", err)
	}
	slot, _ := reg.Resolve(id)
	return slot
}

func TestDroneMovementRespectsFlightCeiling(t *testing.T) {
	reg := agent.NewRegistry(0)
	slot := newDroneAgent(t, reg, &agent.DroneConfig{FlightCeiling: 10}, vmath.Vec3{})

	d := NewDrone(vmath.Vec3{X: 0, Y: 0, Z: 100})
	in, err := d.ComputeMovement(reg, slot, 0.1)
	if err != nil {
		t.Fatalf("compute movement: %v", err)
	}
	// Goal clamps from z=100 to the ceiling at z=10: the climb intent is
	// straight up.
	if in.Move.Z < 0.999 {
		t.Fatalf("expected unit climb intent toward ceiling, got %+v", in.Move)
	}
}

func TestDroneCombatPrefersTaserInRange(t *testing.T) {
	reg := agent.NewRegistry(0)
	slot := newDroneAgent(t, reg, &agent.DroneConfig{HasTaser: true}, vmath.Vec3{})
	d := NewDrone(vmath.Vec3{})

	dec := d.ComputeCombat(reg, slot, 0.1, CombatParams{
		TargetIdentity: 9,
		DistToTarget:   2,
		LineOfSight:    true,
	})
	if !dec.ShouldAttack || dec.Action != ActionTaser {
		t.Fatalf("expected taser at close range, got %+v", dec)
	}

	dec = d.ComputeCombat(reg, slot, 0.1, CombatParams{
		TargetIdentity: 9,
		DistToTarget:   20,
		LineOfSight:    true,
	})
	if !dec.ShouldAttack || dec.Action != ActionRangedTrace {
		t.Fatalf("expected ranged trace beyond taser range, got %+v", dec)
	}

	dec = d.ComputeCombat(reg, slot, 0.1, CombatParams{
		TargetIdentity: 9,
		DistToTarget:   2,
		LineOfSight:    false,
	})
	if dec.ShouldAttack {
		t.Fatalf("must not attack without line of sight")
	}
}

func TestDroneCaptainWantsSpecialAction(t *testing.T) {
	reg := agent.NewRegistry(0)
	captain := newDroneAgent(t, reg, &agent.DroneConfig{Captain: true}, vmath.Vec3{})
	grunt := newDroneAgent(t, reg, &agent.DroneConfig{}, vmath.Vec3{})

	d := NewDrone(vmath.Vec3{})
	if !d.WantsSpecialAction(reg, captain) {
		t.Fatalf("captain should want special action")
	}
	if d.WantsSpecialAction(reg, grunt) {
		t.Fatalf("non-captain should not")
	}
}

func TestAutonomousMeleeRange(t *testing.T) {
	reg := agent.NewRegistry(0)
	id, _ := reg.Add(agent.Record{
		Archetype: agent.ArchetypeAutonomous,
		MaxSpeed:  5,
		Health:    agent.Health{HP: 50, MaxHP: 50},
		Config:    &agent.AutonomousConfig{MeleeRange: 3},
	})
	slot, _ := reg.Resolve(id)
	a := NewAutonomous(vmath.Vec3{X: 10})

	dec := a.ComputeCombat(reg, slot, 0.1, CombatParams{TargetIdentity: 4, DistToTarget: 2.5})
	if !dec.ShouldAttack || dec.Action != ActionMelee {
		t.Fatalf("expected melee inside range, got %+v", dec)
	}
	dec = a.ComputeCombat(reg, slot, 0.1, CombatParams{TargetIdentity: 4, DistToTarget: 3.5})
	if dec.ShouldAttack {
		t.Fatalf("must not melee outside range")
	}

	in, err := a.ComputeMovement(reg, slot, 0.1)
	if err != nil {
		t.Fatalf("movement: %v", err)
	}
	if in.Move.Z != 0 {
		t.Fatalf("ground unit generated vertical intent: %+v", in.Move)
	}
	if in.Move.X <= 0 {
		t.Fatalf("expected intent toward goal, got %+v", in.Move)
	}
}
