// Package config provides configuration loading and validation for ablation experiments.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Validation limits.
const (
	MaxSteps   = 1_000_000
	MaxSamples = 50_000
)

// Config holds all simulation and experiment parameters.
type Config struct {
	World        WorldConfig        `yaml:"world"`
	Resource     ResourceConfig     `yaml:"resource"`
	Environment  EnvironmentConfig  `yaml:"environment"`
	Organism     OrganismConfig     `yaml:"organism"`
	Metabolism   MetabolismConfig   `yaml:"metabolism"`
	Homeostasis  HomeostasisConfig  `yaml:"homeostasis"`
	Boundary     BoundaryConfig     `yaml:"boundary"`
	Growth       GrowthConfig       `yaml:"growth"`
	Response     ResponseConfig     `yaml:"response"`
	Reproduction ReproductionConfig `yaml:"reproduction"`
	Mutation     MutationConfig     `yaml:"mutation"`
	Experiment   ExperimentConfig   `yaml:"experiment"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds grid dimensions and the founding population.
type WorldConfig struct {
	Width             int `yaml:"width"`
	Height            int `yaml:"height"`
	InitialPopulation int `yaml:"initial_population"`
}

// ResourceConfig holds resource field parameters.
type ResourceConfig struct {
	MaxConcentration float64 `yaml:"max_concentration"`
	InitialLevel     float64 `yaml:"initial_level"`  // Starting concentration at patch weight 1
	Patchiness       float64 `yaml:"patchiness"`     // 0 = flat, 1 = all injection falls on patches
	PatchFraction    float64 `yaml:"patch_fraction"` // Share of cells inside a patch
	NoiseScale       float64 `yaml:"noise_scale"`    // Noise frequency per cell
	InjectionRate    float64 `yaml:"injection_rate"`
	Diffusion        float64 `yaml:"diffusion"`
}

// EnvironmentConfig holds the environmental schedule. Zero values disable each feature.
type EnvironmentConfig struct {
	ShiftStep       int     `yaml:"shift_step"`       // Step at which injection is scaled by ShiftFactor
	ShiftFactor     float64 `yaml:"shift_factor"`     // e.g. 0.5 halves injection
	CyclePeriod     int     `yaml:"cycle_period"`     // Second half of each period runs at CycleLowFactor
	CycleLowFactor  float64 `yaml:"cycle_low_factor"` //
	PerturbInterval int     `yaml:"perturb_interval"` // Every N steps remove PerturbFraction of each cell
	PerturbFraction float64 `yaml:"perturb_fraction"`
}

// OrganismConfig holds per-organism limits.
type OrganismConfig struct {
	InitialEnergy float64 `yaml:"initial_energy"`
	MaxEnergy     float64 `yaml:"max_energy"`
	MaxAge        int     `yaml:"max_age"` // 0 disables age death
}

// MetabolismConfig holds uptake and upkeep parameters.
type MetabolismConfig struct {
	UptakeRate         float64 `yaml:"uptake_rate"`
	Conversion         float64 `yaml:"conversion"`
	UpkeepCost         float64 `yaml:"upkeep_cost"`
	ImmatureEfficiency float64 `yaml:"immature_efficiency"`
}

// HomeostasisConfig holds regulatory drift and regulation parameters.
type HomeostasisConfig struct {
	DecayRate      float64 `yaml:"decay_rate"`
	DriftSigma     float64 `yaml:"drift_sigma"`
	StateLimit     float64 `yaml:"state_limit"`
	RegulationStep float64 `yaml:"regulation_step"`
	RegulationCost float64 `yaml:"regulation_cost"`
	Tolerance      float64 `yaml:"tolerance"` // Deviation at which alignment halves
}

// BoundaryConfig holds integrity decay and repair parameters.
type BoundaryConfig struct {
	DecayBase      float64 `yaml:"decay_base"`
	DeficitDecay   float64 `yaml:"deficit_decay"`
	ViabilityFloor float64 `yaml:"viability_floor"`
	RepairRate     float64 `yaml:"repair_rate"`
	RepairCost     float64 `yaml:"repair_cost"`
}

// GrowthConfig holds maturation parameters.
type GrowthConfig struct {
	Rate    float64 `yaml:"rate"`
	Reserve float64 `yaml:"reserve"` // Energy kept back from growth investment
}

// ResponseConfig holds movement and sensing costs.
type ResponseConfig struct {
	MoveCost    float64 `yaml:"move_cost"`
	SensingCost float64 `yaml:"sensing_cost"` // Per cell of sensing radius
}

// ReproductionConfig holds reproduction parameters.
type ReproductionConfig struct {
	Cost        float64 `yaml:"cost"`
	ChildEnergy float64 `yaml:"child_energy"`
	Cooldown    int     `yaml:"cooldown"`
}

// MutationConfig holds genome mutation parameters.
type MutationConfig struct {
	Tau           float64 `yaml:"tau"`            // Log-normal learning rate of the mutation rate gene
	NoiseBound    float64 `yaml:"noise_bound"`    // Gaussian draws are clamped to +/- this
	InitialRate   float64 `yaml:"initial_rate"`   // Founder mutation rate gene
	FounderJitter float64 `yaml:"founder_jitter"` // Founder gene spread as a fraction of range
}

// SeedRange is a contiguous block of seeds.
type SeedRange struct {
	Start int64 `yaml:"start"`
	Count int   `yaml:"count"`
}

// Seeds returns the seeds in the range.
func (r SeedRange) Seeds() []int64 {
	seeds := make([]int64, r.Count)
	for i := range seeds {
		seeds[i] = r.Start + int64(i)
	}
	return seeds
}

// Contains reports whether seed falls in the range.
func (r SeedRange) Contains(seed int64) bool {
	return seed >= r.Start && seed < r.Start+int64(r.Count)
}

// SeedsConfig holds the calibration/test seed partition.
type SeedsConfig struct {
	Calibration SeedRange `yaml:"calibration"`
	Test        SeedRange `yaml:"test"`
	MinTest     int       `yaml:"min_test"`
}

// ExperimentConfig holds runner and analysis parameters.
type ExperimentConfig struct {
	Steps       int           `yaml:"steps"`
	SampleEvery int           `yaml:"sample_every"`
	Workers     int           `yaml:"workers"` // 0 = GOMAXPROCS
	Timeout     time.Duration `yaml:"timeout"` // Per replicate wall clock, 0 = none
	StepCeiling int           `yaml:"step_ceiling"`
	Family      string        `yaml:"family"`
	Metric      string        `yaml:"metric"`
	Alpha       float64       `yaml:"alpha"`
	Alternative string        `yaml:"alternative"`
	Seeds       SeedsConfig   `yaml:"seeds"`
}

// TelemetryConfig holds logging and output parameters.
type TelemetryConfig struct {
	Snapshots   bool `yaml:"snapshots"`    // Capture organism snapshots at run end
	Lineage     bool `yaml:"lineage"`      // Keep birth/death events in run summaries
	LogInterval int  `yaml:"log_interval"` // Steps between progress logs in single runs
}

// DerivedConfig holds values computed from loaded config.
type DerivedConfig struct {
	Cells       int
	Diffusion   float64 // Diffusion constant after the stability clamp
	SampleCount int     // Samples per full-length run
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad is like Load but panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("config: failed to load: %v", err))
	}
	return cfg
}

// Clone returns a deep copy. Config holds no reference types, so a value copy suffices.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// Refresh recomputes derived values and validates after fields were changed in code.
func (c *Config) Refresh() error {
	c.computeDerived()
	return c.Validate()
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.Cells = c.World.Width * c.World.Height

	d := c.Resource.Diffusion
	if d > 0.25 {
		d = 0.25
	}
	c.Derived.Diffusion = d

	if c.Experiment.SampleEvery > 0 {
		c.Derived.SampleCount = c.Experiment.Steps/c.Experiment.SampleEvery + 1
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// YAML returns the configuration as YAML text.
func (c *Config) YAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}
	return string(data), nil
}
