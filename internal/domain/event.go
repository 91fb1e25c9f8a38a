package domain

import "time"

// BuildEvent announces one pipeline output so downstream consumers
// (cache invalidators, deploy hooks) can react to fresh tiles.
type BuildEvent struct {
	RunID       string    `json:"run_id"`
	Dataset     Dataset   `json:"dataset"`
	Step        string    `json:"step"`
	Status      string    `json:"status"`
	OutputFile  string    `json:"output_file,omitempty"`
	SizeBytes   int64     `json:"size_bytes,omitempty"`
	SourceFiles []string  `json:"source_files,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// NewBuildEvent stamps an event with the pipeline clock.
func NewBuildEvent(runID string, dataset Dataset, step, status string) BuildEvent {
	return BuildEvent{
		RunID:       runID,
		Dataset:     dataset,
		Step:        step,
		Status:      status,
		GeneratedAt: Now(),
	}
}
