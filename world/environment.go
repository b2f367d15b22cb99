package world

import "github.com/pthm-cable/lifecriteria/config"

// InjectionRate returns the per-cell injection rate at step under the environment schedule.
// A shift multiplies the rate from ShiftStep on; a cycle runs the second half of each
// period at CycleLowFactor. Both may apply at once.
func InjectionRate(base float64, env config.EnvironmentConfig, step int) float64 {
	rate := base
	if env.ShiftStep > 0 && step >= env.ShiftStep {
		rate *= env.ShiftFactor
	}
	if env.CyclePeriod > 1 {
		if step%env.CyclePeriod >= env.CyclePeriod/2 {
			rate *= env.CycleLowFactor
		}
	}
	return rate
}

// PerturbDue reports whether a periodic perturbation fires at step.
func PerturbDue(env config.EnvironmentConfig, step int) bool {
	return env.PerturbInterval > 0 && env.PerturbFraction > 0 && step > 0 && step%env.PerturbInterval == 0
}
