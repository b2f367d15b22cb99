package components

// RegulatoryDims is the length of the regulatory state vector.
const RegulatoryDims = 2

// Regulation is the internal state Homeostasis pursues toward genome setpoints.
type Regulation struct {
	State [RegulatoryDims]float64
}

// Boundary holds membrane integrity in [0, 1]. Zero is a death condition.
type Boundary struct {
	Integrity float64
}

// Clamp keeps integrity inside [0, 1].
func (b *Boundary) Clamp() {
	if b.Integrity < 0 {
		b.Integrity = 0
	} else if b.Integrity > 1 {
		b.Integrity = 1
	}
}
