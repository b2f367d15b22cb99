package telemetry

// LifetimeStats tracks per-organism statistics over its lifetime.
type LifetimeStats struct {
	BirthStep  int
	ParentID   uint64
	Generation uint32

	Children   int
	PeakEnergy float64
	Consumed   float64 // Cumulative energy gained from metabolism
}

// LifetimeTracker manages per-organism lifetime statistics.
type LifetimeTracker struct {
	stats map[uint64]*LifetimeStats
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		stats: make(map[uint64]*LifetimeStats),
	}
}

// Register creates lifetime stats for a new organism.
func (lt *LifetimeTracker) Register(id uint64, birthStep int, parentID uint64, generation uint32) {
	lt.stats[id] = &LifetimeStats{
		BirthStep:  birthStep,
		ParentID:   parentID,
		Generation: generation,
	}
}

// Get returns the lifetime stats for an organism, or nil if not found.
func (lt *LifetimeTracker) Get(id uint64) *LifetimeStats {
	return lt.stats[id]
}

// Remove removes an organism's stats and returns them.
func (lt *LifetimeTracker) Remove(id uint64) *LifetimeStats {
	stats := lt.stats[id]
	delete(lt.stats, id)
	return stats
}

// RecordChild increments the parent's child count.
func (lt *LifetimeTracker) RecordChild(parentID uint64) {
	if s := lt.stats[parentID]; s != nil {
		s.Children++
	}
}

// RecordConsumed adds metabolic gain and tracks peak energy.
func (lt *LifetimeTracker) RecordConsumed(id uint64, gained, energy float64) {
	if s := lt.stats[id]; s != nil {
		s.Consumed += gained
		if energy > s.PeakEnergy {
			s.PeakEnergy = energy
		}
	}
}

// Count returns the number of tracked organisms.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}
