// Package systems provides the resource field and the per-step criterion modules.
package systems

import "github.com/pthm-cable/lifecriteria/components"

// Direction offsets for von Neumann moves: N, E, S, W.
var vonNeumann = [4][2]int{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}

// Moore offsets for spawn placement.
var moore = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// OccupancyGrid records which organism occupies each cell. At most one per cell.
type OccupancyGrid struct {
	W, H  int
	cells []uint64 // organism ID, 0 = free
	count int
}

// NewOccupancyGrid creates an empty grid.
func NewOccupancyGrid(w, h int) *OccupancyGrid {
	return &OccupancyGrid{W: w, H: h, cells: make([]uint64, w*h)}
}

// Wrap returns the toroidal equivalent of (x, y).
func (g *OccupancyGrid) Wrap(x, y int) components.Position {
	return components.Position{X: modInt(x, g.W), Y: modInt(y, g.H)}
}

func (g *OccupancyGrid) index(p components.Position) int {
	return modInt(p.Y, g.H)*g.W + modInt(p.X, g.W)
}

// Occupant returns the ID in a cell, 0 if free.
func (g *OccupancyGrid) Occupant(p components.Position) uint64 {
	return g.cells[g.index(p)]
}

// Free reports whether a cell is empty.
func (g *OccupancyGrid) Free(p components.Position) bool {
	return g.cells[g.index(p)] == 0
}

// Place puts id into a free cell. Returns false if the cell is taken.
func (g *OccupancyGrid) Place(p components.Position, id uint64) bool {
	i := g.index(p)
	if g.cells[i] != 0 {
		return false
	}
	g.cells[i] = id
	g.count++
	return true
}

// Vacate clears a cell.
func (g *OccupancyGrid) Vacate(p components.Position) {
	i := g.index(p)
	if g.cells[i] != 0 {
		g.cells[i] = 0
		g.count--
	}
}

// Move relocates the occupant of from into a free cell to.
func (g *OccupancyGrid) Move(from, to components.Position) bool {
	fi, ti := g.index(from), g.index(to)
	if g.cells[ti] != 0 || g.cells[fi] == 0 {
		return false
	}
	g.cells[ti] = g.cells[fi]
	g.cells[fi] = 0
	return true
}

// Count returns the number of occupied cells.
func (g *OccupancyGrid) Count() int {
	return g.count
}
