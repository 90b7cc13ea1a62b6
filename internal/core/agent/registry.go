package agent

import (
	"fmt"

	"github.com/agentsim/server/internal/vmath"
)

// Registry is the columnar agent store. Each attribute lives in its own
// parallel slice indexed by slot; column[i] always refers to the same logical
// agent across all columns. Slots are dense and reused through a free list,
// identities are monotonic and retired forever on removal.
//
// Accessed only from the simulation goroutine — no locks.
type Registry struct {
	capacity     int // 0 = unbounded
	nextIdentity Identity

	slots map[Identity]int // live identity → slot
	free  []int            // invalid slots available for reuse
	order []int            // live slots in insertion order

	archetypes []Archetype
	identities []Identity
	positions  []vmath.Vec3
	facings    []vmath.Vec3
	motions    []Motion
	healths    []Health
	configs    []ArchetypeConfig
	owners     []OwnerToken
	cooldowns  []int32 // attack cooldown ticks, owned by the combat phase
	valid      []bool
}

// NewRegistry creates an empty registry. capacity 0 means unbounded.
func NewRegistry(capacity int) *Registry {
	return &Registry{
		capacity:     capacity,
		nextIdentity: 1,
		slots:        make(map[Identity]int, 256),
		free:         make([]int, 0, 64),
		order:        make([]int, 0, 256),
	}
}

// Add commits a record, allocating a slot (reusing a freed one if available,
// else appending) and assigning a fresh identity. The record's archetype must
// be committed and must match its config variant.
func (r *Registry) Add(rec Record) (Identity, error) {
	if rec.Archetype == ArchetypeUnknown {
		return 0, ErrUnknownArchetype
	}
	if rec.Config != nil && rec.Config.Archetype() != rec.Archetype {
		return 0, fmt.Errorf("%w: record %s, config %s",
			ErrConfigMismatch, rec.Archetype, rec.Config.Archetype())
	}
	if r.capacity > 0 && len(r.slots) >= r.capacity {
		return 0, fmt.Errorf("%w: ceiling %d", ErrCapacityExceeded, r.capacity)
	}

	id := r.nextIdentity
	r.nextIdentity++

	facing := rec.Facing.Normalize()
	if facing.IsZero() {
		facing = vmath.Vec3{X: 1}
	}

	var slot int
	if n := len(r.free); n > 0 {
		slot = r.free[n-1]
		r.free = r.free[:n-1]
		r.archetypes[slot] = rec.Archetype
		r.identities[slot] = id
		r.positions[slot] = rec.Position
		r.facings[slot] = facing
		r.motions[slot] = Motion{MaxSpeed: rec.MaxSpeed}
		r.healths[slot] = rec.Health
		r.configs[slot] = rec.Config
		r.owners[slot] = rec.Owner
		r.cooldowns[slot] = 0
		r.valid[slot] = true
	} else {
		slot = len(r.valid)
		r.archetypes = append(r.archetypes, rec.Archetype)
		r.identities = append(r.identities, id)
		r.positions = append(r.positions, rec.Position)
		r.facings = append(r.facings, facing)
		r.motions = append(r.motions, Motion{MaxSpeed: rec.MaxSpeed})
		r.healths = append(r.healths, rec.Health)
		r.configs = append(r.configs, rec.Config)
		r.owners = append(r.owners, rec.Owner)
		r.cooldowns = append(r.cooldowns, 0)
		r.valid = append(r.valid, true)
	}

	r.slots[id] = slot
	r.order = append(r.order, slot)
	return id, nil
}

// Remove marks the agent's slot invalid, frees it for reuse, and retires the
// identity. Idempotent: returns false when the identity is not live.
func (r *Registry) Remove(id Identity) bool {
	slot, ok := r.slots[id]
	if !ok {
		return false
	}
	delete(r.slots, id)
	r.valid[slot] = false
	r.configs[slot] = nil
	r.free = append(r.free, slot)

	for i, s := range r.order {
		if s == slot {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Resolve maps a live identity to its current slot.
func (r *Registry) Resolve(id Identity) (int, error) {
	slot, ok := r.slots[id]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownIdentity, id)
	}
	return slot, nil
}

// Active returns the live slots in insertion-stable relative order: removing
// one agent never reorders the others. The returned slice is a copy and stays
// valid across mutations.
func (r *Registry) Active() []int {
	out := make([]int, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of live agents.
func (r *Registry) Len() int { return len(r.slots) }

var prefetchSink float32

// Prefetch touches the hot columns for the given slots ahead of batch
// processing. Purely a memory-latency hint: no observable semantic effect.
func (r *Registry) Prefetch(slots []int) {
	var acc float32
	for _, s := range slots {
		acc += r.positions[s].X + r.motions[s].MaxSpeed + float32(r.healths[s].HP)
	}
	prefetchSink = acc
}

// Column accessors. Slot arguments must come from Active or Resolve; hot
// columns hand out pointers for in-place mutation by the owning phase.

func (r *Registry) ArchetypeAt(slot int) Archetype    { return r.archetypes[slot] }
func (r *Registry) IdentityAt(slot int) Identity      { return r.identities[slot] }
func (r *Registry) Pos(slot int) vmath.Vec3           { return r.positions[slot] }
func (r *Registry) SetPos(slot int, p vmath.Vec3)     { r.positions[slot] = p }
func (r *Registry) Facing(slot int) vmath.Vec3        { return r.facings[slot] }
func (r *Registry) SetFacing(slot int, f vmath.Vec3)  { r.facings[slot] = f }
func (r *Registry) Motion(slot int) *Motion           { return &r.motions[slot] }
func (r *Registry) Health(slot int) *Health           { return &r.healths[slot] }
func (r *Registry) Config(slot int) ArchetypeConfig   { return r.configs[slot] }
func (r *Registry) OwnerAt(slot int) OwnerToken       { return r.owners[slot] }
func (r *Registry) Cooldown(slot int) *int32          { return &r.cooldowns[slot] }

// Owner returns the owner token for a live identity.
func (r *Registry) Owner(id Identity) (OwnerToken, error) {
	slot, err := r.Resolve(id)
	if err != nil {
		return 0, err
	}
	return r.owners[slot], nil
}

// Validate walks all live slots and asserts the identity↔slot bijection and
// that no live slot carries an Unknown archetype. Diagnostics only — never
// required for correctness in production.
func (r *Registry) Validate() error {
	seen := make(map[int]Identity, len(r.slots))
	for id, slot := range r.slots {
		if slot < 0 || slot >= len(r.valid) || !r.valid[slot] {
			return fmt.Errorf("identity %d maps to dead slot %d", id, slot)
		}
		if r.identities[slot] != id {
			return fmt.Errorf("slot %d identity column says %d, map says %d",
				slot, r.identities[slot], id)
		}
		if prev, dup := seen[slot]; dup {
			return fmt.Errorf("slot %d claimed by identities %d and %d", slot, prev, id)
		}
		seen[slot] = id
		if r.archetypes[slot] == ArchetypeUnknown {
			return fmt.Errorf("live slot %d has unknown archetype (identity %d)", slot, id)
		}
	}
	if len(r.order) != len(r.slots) {
		return fmt.Errorf("order list has %d entries, %d agents live",
			len(r.order), len(r.slots))
	}
	for _, slot := range r.order {
		if !r.valid[slot] {
			return fmt.Errorf("order list contains dead slot %d", slot)
		}
	}
	return nil
}
