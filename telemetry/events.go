// Package telemetry provides per-run sampling, run summaries, lineage tracking, and CSV output.
package telemetry

// EventType identifies lineage events.
type EventType uint8

const (
	EventBirth EventType = iota
	EventDeath
)

func (t EventType) String() string {
	if t == EventDeath {
		return "death"
	}
	return "birth"
}

// Event is a single lineage event.
type Event struct {
	Type       EventType `json:"type"`
	Step       int       `json:"step"`
	ID         uint64    `json:"id"`
	ParentID   uint64    `json:"parent_id,omitempty"` // births only
	Generation uint32    `json:"generation"`
	Cause      string    `json:"cause,omitempty"` // deaths only
	Age        int       `json:"age,omitempty"`   // deaths only
}

// NewBirthEvent creates a birth event.
func NewBirthEvent(step int, childID, parentID uint64, generation uint32) Event {
	return Event{
		Type:       EventBirth,
		Step:       step,
		ID:         childID,
		ParentID:   parentID,
		Generation: generation,
	}
}

// NewDeathEvent creates a death event.
func NewDeathEvent(step int, id uint64, generation uint32, age int, cause string) Event {
	return Event{
		Type:       EventDeath,
		Step:       step,
		ID:         id,
		Generation: generation,
		Cause:      cause,
		Age:        age,
	}
}
