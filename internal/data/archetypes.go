// Package data loads static archetype templates from YAML catalog files.
// Templates are definition-time data; the registry columns hold runtime state.
package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/agentsim/server/internal/core/agent"
	"github.com/agentsim/server/internal/vmath"
)

// Template holds static data for one agent archetype variant.
type Template struct {
	Name      string  `yaml:"name"`
	Archetype string  `yaml:"archetype"` // "drone" or "autonomous"
	MaxHealth int32   `yaml:"max_health"`
	MaxSpeed  float32 `yaml:"max_speed"`

	// Drone fields
	Captain       bool    `yaml:"captain"`
	HasTaser      bool    `yaml:"has_taser"`
	FlightCeiling float32 `yaml:"flight_ceiling"`

	// Autonomous fields
	MeleeRange        float32 `yaml:"melee_range"`
	JumpCooldownTicks int     `yaml:"jump_cooldown_ticks"`
}

// SpawnEntry defines where and how many agents to place at startup.
type SpawnEntry struct {
	Template string  `yaml:"template"`
	Count    int     `yaml:"count"`
	X        float32 `yaml:"x"`
	Y        float32 `yaml:"y"`
	Z        float32 `yaml:"z"`
	SpreadX  float32 `yaml:"spread_x"`
	SpreadY  float32 `yaml:"spread_y"`
}

type catalogFile struct {
	Archetypes []Template   `yaml:"archetypes"`
	Spawns     []SpawnEntry `yaml:"spawns"`
}

// Catalog holds all templates indexed by name, plus the startup spawn list.
type Catalog struct {
	templates map[string]*Template
	spawns    []SpawnEntry
}

// LoadCatalog loads archetype templates from a YAML file. Unknown archetype
// tags fail the load: inference-or-fail, never a silent default.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read archetype catalog: %w", err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse archetype catalog: %w", err)
	}
	c := &Catalog{templates: make(map[string]*Template, len(f.Archetypes))}
	for i := range f.Archetypes {
		t := &f.Archetypes[i]
		if t.Name == "" {
			return nil, fmt.Errorf("archetype catalog entry %d has no name", i)
		}
		if _, err := agent.ParseArchetype(t.Archetype); err != nil {
			return nil, fmt.Errorf("template %q: %w", t.Name, err)
		}
		if _, dup := c.templates[t.Name]; dup {
			return nil, fmt.Errorf("duplicate template name %q", t.Name)
		}
		c.templates[t.Name] = t
	}
	for i := range f.Spawns {
		sp := f.Spawns[i]
		if _, ok := c.templates[sp.Template]; !ok {
			return nil, fmt.Errorf("spawn entry %d references unknown template %q", i, sp.Template)
		}
		if sp.Count <= 0 {
			sp.Count = 1
		}
		c.spawns = append(c.spawns, sp)
	}
	return c, nil
}

// SpawnList returns the startup spawn entries in file order.
func (c *Catalog) SpawnList() []SpawnEntry { return c.spawns }

// Get returns the template for a name.
func (c *Catalog) Get(name string) (*Template, bool) {
	t, ok := c.templates[name]
	return t, ok
}

// Len returns the number of loaded templates.
func (c *Catalog) Len() int { return len(c.templates) }

// Names returns all template names (unordered).
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.templates))
	for name := range c.templates {
		out = append(out, name)
	}
	return out
}

// Record builds a registry record from the template at a spawn position.
func (t *Template) Record(pos vmath.Vec3, owner agent.OwnerToken) (agent.Record, error) {
	arch, err := agent.ParseArchetype(t.Archetype)
	if err != nil {
		return agent.Record{}, err
	}
	var cfg agent.ArchetypeConfig
	switch arch {
	case agent.ArchetypeDrone:
		cfg = &agent.DroneConfig{
			Captain:       t.Captain,
			HasTaser:      t.HasTaser,
			FlightCeiling: t.FlightCeiling,
		}
	case agent.ArchetypeAutonomous:
		cfg = &agent.AutonomousConfig{
			MeleeRange:        t.MeleeRange,
			JumpCooldownTicks: t.JumpCooldownTicks,
		}
	}
	return agent.Record{
		Archetype: arch,
		Position:  pos,
		MaxSpeed:  t.MaxSpeed,
		Health:    agent.Health{HP: t.MaxHealth, MaxHP: t.MaxHealth},
		Config:    cfg,
		Owner:     owner,
	}, nil
}
