package spatial

import (
	"math"

	"github.com/agentsim/server/internal/core/agent"
	"github.com/agentsim/server/internal/vmath"
)

// Grid is a uniform cell grid mapping world cells to the agent identities
// inside them. Queries return cell-level supersets; callers refine with
// exact distance. Accessed only from the simulation goroutine — no locks.
type Grid struct {
	cellSize float32
	cells    map[cellKey]map[agent.Identity]struct{}
	where    map[agent.Identity]cellKey // current cell per identity
}

type cellKey struct {
	cx, cy, cz int32
}

// NewGrid creates a grid with the given cell edge length.
func NewGrid(cellSize float32) *Grid {
	if cellSize <= 0 {
		cellSize = 1
	}
	return &Grid{
		cellSize: cellSize,
		cells:    make(map[cellKey]map[agent.Identity]struct{}),
		where:    make(map[agent.Identity]cellKey),
	}
}

func (g *Grid) coord(v float32) int32 {
	return int32(math.Floor(float64(v / g.cellSize)))
}

func (g *Grid) key(p vmath.Vec3) cellKey {
	return cellKey{cx: g.coord(p.X), cy: g.coord(p.Y), cz: g.coord(p.Z)}
}

// Insert places an identity into the cell containing p. Re-inserting an
// already-tracked identity behaves like UpdatePosition.
func (g *Grid) Insert(id agent.Identity, p vmath.Vec3) {
	k := g.key(p)
	if old, ok := g.where[id]; ok {
		if old == k {
			return
		}
		g.removeFromCell(id, old)
	}
	cell := g.cells[k]
	if cell == nil {
		cell = make(map[agent.Identity]struct{})
		g.cells[k] = cell
	}
	cell[id] = struct{}{}
	g.where[id] = k
}

// Remove takes an identity out of the grid. No-op if untracked.
func (g *Grid) Remove(id agent.Identity) {
	k, ok := g.where[id]
	if !ok {
		return
	}
	g.removeFromCell(id, k)
	delete(g.where, id)
}

func (g *Grid) removeFromCell(id agent.Identity, k cellKey) {
	if cell := g.cells[k]; cell != nil {
		delete(cell, id)
		if len(cell) == 0 {
			delete(g.cells, k)
		}
	}
}

// UpdatePosition moves an identity to the cell containing p. O(1) amortized:
// a fast path returns when the cell is unchanged.
func (g *Grid) UpdatePosition(id agent.Identity, p vmath.Vec3) {
	g.Insert(id, p)
}

// BatchUpdate applies parallel identity/position arrays in one pass.
// Panics on length mismatch — the caller owns the parallel-array invariant.
func (g *Grid) BatchUpdate(ids []agent.Identity, positions []vmath.Vec3) {
	if len(ids) != len(positions) {
		panic("spatial: BatchUpdate parallel array length mismatch")
	}
	for i, id := range ids {
		g.UpdatePosition(id, positions[i])
	}
}

// Len returns the number of tracked identities.
func (g *Grid) Len() int { return len(g.where) }

// QueryRadius returns the identities in all cells overlapping the sphere at
// center with the given radius. A superset: callers must refine with exact
// distance.
func (g *Grid) QueryRadius(center vmath.Vec3, radius float32) []agent.Identity {
	if radius < 0 {
		return nil
	}
	x0, x1 := g.coord(center.X-radius), g.coord(center.X+radius)
	y0, y1 := g.coord(center.Y-radius), g.coord(center.Y+radius)
	z0, z1 := g.coord(center.Z-radius), g.coord(center.Z+radius)

	var out []agent.Identity
	for cx := x0; cx <= x1; cx++ {
		for cy := y0; cy <= y1; cy++ {
			for cz := z0; cz <= z1; cz++ {
				for id := range g.cells[cellKey{cx, cy, cz}] {
					out = append(out, id)
				}
			}
		}
	}
	return out
}
