// Package components defines ECS components for organisms.
package components

// Position is the grid cell an organism occupies.
type Position struct {
	X, Y int
}
