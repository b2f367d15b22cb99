// Package experiment fans replicate runs out over a bounded worker pool and
// collects their summaries in a stable order.
package experiment

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/lifecriteria/config"
)

// Partition labels.
const (
	PartitionCalibration = "calibration"
	PartitionTest        = "test"
	PartitionOther       = "other"
)

// ErrInsufficientSeeds is wrapped when the seed partition cannot support analysis.
var ErrInsufficientSeeds = errors.New("insufficient seeds")

// SeedPartition splits seeds into a calibration range used for tuning and
// a disjoint test range used for analysis.
type SeedPartition struct {
	Calibration config.SeedRange
	Test        config.SeedRange
	MinTest     int
}

// NewSeedPartition builds a partition from the experiment config.
func NewSeedPartition(cfg config.SeedsConfig) SeedPartition {
	return SeedPartition{Calibration: cfg.Calibration, Test: cfg.Test, MinTest: cfg.MinTest}
}

// Validate rejects overlapping ranges and test ranges below MinTest.
func (p SeedPartition) Validate() error {
	if p.Test.Count < p.MinTest || p.Test.Count == 0 {
		return fmt.Errorf("%w: %d test seeds, need at least %d", ErrInsufficientSeeds, p.Test.Count, max(p.MinTest, 1))
	}
	if p.Calibration.Count > 0 && overlaps(p.Calibration, p.Test) {
		return fmt.Errorf("%w: calibration seeds [%d, %d) overlap test seeds [%d, %d)",
			config.ErrInvalid,
			p.Calibration.Start, p.Calibration.Start+int64(p.Calibration.Count),
			p.Test.Start, p.Test.Start+int64(p.Test.Count))
	}
	return nil
}

func overlaps(a, b config.SeedRange) bool {
	aEnd := a.Start + int64(a.Count)
	bEnd := b.Start + int64(b.Count)
	return a.Start < bEnd && b.Start < aEnd
}

// Classify names the partition a seed belongs to.
func (p SeedPartition) Classify(seed int64) string {
	switch {
	case p.Test.Contains(seed):
		return PartitionTest
	case p.Calibration.Contains(seed):
		return PartitionCalibration
	default:
		return PartitionOther
	}
}

// TestSeeds returns the analysis seeds in ascending order.
func (p SeedPartition) TestSeeds() []int64 {
	return p.Test.Seeds()
}

// CalibrationSeeds returns the tuning seeds in ascending order.
func (p SeedPartition) CalibrationSeeds() []int64 {
	return p.Calibration.Seeds()
}
