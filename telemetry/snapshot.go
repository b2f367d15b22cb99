package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pthm-cable/lifecriteria/genome"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// SnapshotFrame holds the state of every living organism at one step.
type SnapshotFrame struct {
	Version   int    `json:"version"`
	Condition string `json:"condition"`
	Seed      int64  `json:"seed"`
	Step      int    `json:"step"`

	Organisms []OrganismState `json:"organisms"`
}

// OrganismState holds one organism's observable state.
type OrganismState struct {
	ID         uint64 `json:"id"`
	ParentID   uint64 `json:"parent_id"`
	Generation uint32 `json:"generation"`
	Age        int    `json:"age"`

	X int `json:"x"`
	Y int `json:"y"`

	Energy       float64    `json:"energy"`
	Integrity    float64    `json:"integrity"`
	Regulation   [2]float64 `json:"regulation"`
	Mature       bool       `json:"mature"`
	GrowthSignal float64    `json:"growth_signal"`

	Genes [genome.NumGenes]float64 `json:"genes"`

	Lifetime *LifetimeStatsJSON `json:"lifetime,omitempty"`
}

// LifetimeStatsJSON is the JSON-serializable form of LifetimeStats.
type LifetimeStatsJSON struct {
	BirthStep  int     `json:"birth_step"`
	Children   int     `json:"children"`
	PeakEnergy float64 `json:"peak_energy"`
	Consumed   float64 `json:"consumed"`
}

// ToJSON converts LifetimeStats to its JSON form.
func (ls *LifetimeStats) ToJSON() *LifetimeStatsJSON {
	if ls == nil {
		return nil
	}
	return &LifetimeStatsJSON{
		BirthStep:  ls.BirthStep,
		Children:   ls.Children,
		PeakEnergy: ls.PeakEnergy,
		Consumed:   ls.Consumed,
	}
}

// SaveSnapshot writes a frame to dir and returns the file path.
func SaveSnapshot(frame *SnapshotFrame, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%s_%d_%d.json", frame.Condition, frame.Seed, frame.Step)
	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(frame, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// LoadSnapshot reads a frame from disk.
func LoadSnapshot(path string) (*SnapshotFrame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var frame SnapshotFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if frame.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", frame.Version, SnapshotVersion)
	}
	return &frame, nil
}
