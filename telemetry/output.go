package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/lifecriteria/config"
)

// Output file names.
const (
	RunsFile     = "runs.csv"
	SamplesFile  = "samples.csv"
	VerdictsFile = "verdicts.csv"
	ConfigFile   = "config.yaml"
)

// OutputManager handles structured experiment output with CSV logging.
// Safe for use from multiple goroutines.
type OutputManager struct {
	dir string

	mu          sync.Mutex
	runsFile    *os.File
	samplesFile *os.File

	// Track if headers have been written
	runsHeaderWritten    bool
	samplesHeaderWritten bool
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, RunsFile))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", RunsFile, err)
	}
	om.runsFile = f

	f, err = os.Create(filepath.Join(dir, SamplesFile))
	if err != nil {
		om.runsFile.Close()
		return nil, fmt.Errorf("creating %s: %w", SamplesFile, err)
	}
	om.samplesFile = f

	return om, nil
}

// WriteConfig saves the effective configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, ConfigFile))
}

// appendRecords writes records to f, with a header on the first write.
func appendRecords(f *os.File, headerWritten *bool, records any) error {
	if !*headerWritten {
		if err := gocsv.Marshal(records, f); err != nil {
			return err
		}
		*headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, f)
}

// WriteRun appends a run summary to runs.csv and its samples to samples.csv.
func (om *OutputManager) WriteRun(run RunSummary) error {
	if om == nil {
		return nil
	}
	om.mu.Lock()
	defer om.mu.Unlock()

	if err := appendRecords(om.runsFile, &om.runsHeaderWritten, []RunSummary{run}); err != nil {
		return fmt.Errorf("writing run: %w", err)
	}
	if len(run.Samples) > 0 {
		if err := appendRecords(om.samplesFile, &om.samplesHeaderWritten, run.Samples); err != nil {
			return fmt.Errorf("writing samples: %w", err)
		}
	}
	return nil
}

// WriteTable writes rows (a slice of csv-tagged structs) to a new file in the output directory.
func (om *OutputManager) WriteTable(name string, rows any) error {
	if om == nil {
		return nil
	}
	f, err := os.Create(filepath.Join(om.dir, name))
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(rows, f); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

// WriteJSON writes v as indented JSON to a file in the output directory.
func (om *OutputManager) WriteJSON(name string, v any) error {
	if om == nil {
		return nil
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(om.dir, name), data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	om.mu.Lock()
	defer om.mu.Unlock()

	var firstErr error
	for _, f := range []*os.File{om.runsFile, om.samplesFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ReadRuns loads run summaries from a runs.csv file.
func ReadRuns(path string) ([]RunSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening runs: %w", err)
	}
	defer f.Close()

	var runs []RunSummary
	if err := gocsv.UnmarshalFile(f, &runs); err != nil {
		return nil, fmt.Errorf("parsing runs: %w", err)
	}
	return runs, nil
}

// ReadSamples loads samples from a samples.csv file.
func ReadSamples(path string) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening samples: %w", err)
	}
	defer f.Close()

	var samples []Sample
	if err := gocsv.UnmarshalFile(f, &samples); err != nil {
		return nil, fmt.Errorf("parsing samples: %w", err)
	}
	return samples, nil
}
