package behavior

import "github.com/agentsim/server/internal/core/agent"

// Registry is the archetype → behavior dispatch table. Lookup is total but
// not defaulting: a missing entry is a reportable per-agent failure, never a
// silent substitution of another archetype's behavior.
type Registry struct {
	byArchetype map[agent.Archetype]Behavior
}

func NewRegistry() *Registry {
	return &Registry{
		byArchetype: make(map[agent.Archetype]Behavior, 8),
	}
}

// Register binds a behavior to an archetype, replacing any previous binding.
func (r *Registry) Register(a agent.Archetype, b Behavior) {
	r.byArchetype[a] = b
}

// Lookup returns the behavior for an archetype, or false when none is bound.
func (r *Registry) Lookup(a agent.Archetype) (Behavior, bool) {
	b, ok := r.byArchetype[a]
	return b, ok
}
