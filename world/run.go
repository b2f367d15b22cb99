package world

import (
	"context"

	"github.com/pthm-cable/lifecriteria/telemetry"
)

// Run steps the world until it has taken steps steps in total, the population
// goes extinct, or ctx ends. steps <= 0 runs the full budget. The returned
// summary covers whatever ran; the error is ctx.Err() when the context ended first.
func (w *World) Run(ctx context.Context, steps int) (telemetry.RunSummary, error) {
	if steps <= 0 {
		steps = w.budget
	}

	for w.step < steps && w.alive > 0 {
		if err := ctx.Err(); err != nil {
			w.logger.Debug("run interrupted", "step", w.step, "error", err)
			return w.Summary(), err
		}
		w.Step()

		if w.logProgress && w.cfg.Telemetry.LogInterval > 0 && w.step%w.cfg.Telemetry.LogInterval == 0 {
			w.logProgressLine()
		}
	}

	if w.alive == 0 {
		w.logger.Debug("extinct", "step", w.step)
	}
	return w.Summary(), nil
}

// Extinct reports whether no organisms remain.
func (w *World) Extinct() bool {
	return w.alive == 0
}
