package event

import (
	"github.com/agentsim/server/internal/behavior"
	"github.com/agentsim/server/internal/core/agent"
	"github.com/agentsim/server/internal/vmath"
)

// Core lifecycle and combat events. Owner tokens ride along so external
// collaborators can route notifications without holding registry references.

type AgentSpawned struct {
	Identity  agent.Identity
	Archetype agent.Archetype
	Owner     agent.OwnerToken
	Position  vmath.Vec3
}

type AgentDespawned struct {
	Identity agent.Identity
	Owner    agent.OwnerToken
}

// AgentDisabled fires once, on the tick the state phase observes HP <= 0.
type AgentDisabled struct {
	Identity agent.Identity
	Owner    agent.OwnerToken
}

// CombatAction records one dispatched action. At most one per agent per tick.
type CombatAction struct {
	Attacker agent.Identity
	Target   agent.Identity
	Action   behavior.ActionType
	AimPoint vmath.Vec3
}

// BehaviorFault reports a contained per-agent behavior failure.
type BehaviorFault struct {
	Identity  agent.Identity
	Archetype agent.Archetype
	Phase     string
	Reason    string
}
