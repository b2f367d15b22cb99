package world

import (
	"log/slog"

	"github.com/pthm-cable/lifecriteria/components"
	"github.com/pthm-cable/lifecriteria/systems"
	"github.com/pthm-cable/lifecriteria/telemetry"
)

// gatherPopulation refills w.pop from the living organisms.
func (w *World) gatherPopulation() {
	w.pop.Reset()

	query := w.filter.Query()
	for query.Next() {
		_, energy, reg, boundary, org, her := query.Get()
		if org.Dead {
			continue
		}
		w.pop.Energies = append(w.pop.Energies, energy.Value)
		w.pop.Integrities = append(w.pop.Integrities, boundary.Integrity)
		w.pop.Deviations = append(w.pop.Deviations, systems.Deviation(reg, her.Genome))
		w.pop.Ages = append(w.pop.Ages, float64(org.Age))
		w.pop.Generations = append(w.pop.Generations, float64(org.Generation))
		if org.Stage == components.Mature {
			w.pop.Mature++
		}
		w.pop.Genomes = append(w.pop.Genomes, her.Genome)
		w.pop.Founders = append(w.pop.Founders, her.Founder)
	}
}

// recordSample takes a population sample for st.
func (w *World) recordSample(st telemetry.StepStats) telemetry.Sample {
	w.gatherPopulation()
	return w.collector.RecordSample(st, &w.pop)
}

// Summary returns the run summary so far. A final sample is taken if the
// current step has not been sampled yet.
func (w *World) Summary() telemetry.RunSummary {
	if w.step > 0 && w.collector.LastSampleStep() != w.step {
		w.recordSample(w.last)
	}
	s := w.collector.Summary()
	if w.cfg.Telemetry.Snapshots {
		s.Snapshot = w.Snapshot()
	}
	return s
}

// Snapshot captures every living organism in ascending ID order.
func (w *World) Snapshot() *telemetry.SnapshotFrame {
	frame := &telemetry.SnapshotFrame{
		Version:   telemetry.SnapshotVersion,
		Condition: w.cond.Name,
		Seed:      w.seed,
		Step:      w.step,
		Organisms: make([]telemetry.OrganismState, 0, len(w.order)),
	}
	for _, e := range w.order {
		pos, energy, reg, boundary, org, her := w.mapper.Get(e)
		frame.Organisms = append(frame.Organisms, telemetry.OrganismState{
			ID:           org.ID,
			ParentID:     org.ParentID,
			Generation:   org.Generation,
			Age:          org.Age,
			X:            pos.X,
			Y:            pos.Y,
			Energy:       energy.Value,
			Integrity:    boundary.Integrity,
			Regulation:   reg.State,
			Mature:       org.Stage == components.Mature,
			GrowthSignal: org.GrowthSignal,
			Genes:        her.Genome.Values(),
			Lifetime:     w.lifetime.Get(org.ID).ToJSON(),
		})
	}
	return frame
}

// logProgressLine logs the latest sample-style stats.
func (w *World) logProgressLine() {
	w.gatherPopulation()
	e := telemetry.Describe(w.pop.Energies)
	attrs := []any{
		"step", w.step,
		"alive", w.alive,
		"births", w.last.Births,
		"deaths", w.last.Deaths,
		"energy_mean", e.Mean,
		"energy_p50", e.P50,
		"resource_total", w.last.ResourceTotal,
	}
	if w.perf != nil {
		attrs = append(attrs, slog.Any("perf", w.perf.Interval()))
	}
	w.logger.Info("progress", attrs...)
}
