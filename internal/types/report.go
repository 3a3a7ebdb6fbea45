// internal/types/report.go
package types

const (
	StageIntraRecording = "intra_recording_dedup"
	StageEventMerge     = "event_merge"
	StageCompanyCleanup = "company_cleanup"
	StageTotal          = "total"
)

// --------------------------------------------
// Per-stage metrics
// --------------------------------------------
type StageMetrics struct {
	Stage               string `json:"stage_name"`
	RowsBefore          int    `json:"rows_before"`
	RowsAfter           int    `json:"rows_after"`
	DistinctTextsBefore int    `json:"distinct_texts_before"`
	DistinctTextsAfter  int    `json:"distinct_texts_after"`
	RowsDropped         int    `json:"rows_dropped"`
	GroupsMerged        int    `json:"groups_merged"` // event_merge and total only
	Skipped             bool   `json:"skipped,omitempty"`
}

// --------------------------------------------
// Data-quality anomalies (reported, never fatal)
// --------------------------------------------
type Anomalies struct {
	MissingKeyComponents      int `json:"missing_key_components"`
	MissingKeyRecordings      int `json:"missing_key_recordings"`
	InconsistentKeyRecordings int `json:"inconsistent_key_recordings"`
}

func (a Anomalies) Total() int {
	return a.MissingKeyRecordings + a.InconsistentKeyRecordings
}

// --------------------------------------------
// Run report returned next to the canonical store
// --------------------------------------------

// Report describes one pipeline run. Events counts events that still carry
// rows, so it is unchanged when the canonical output is fed back in.
// Recordings, RecordingsFolded and EventsEmptied describe the run's input
// and what this run removed; a rerun on canonical output reports zero folds
// and zero emptied events.
type Report struct {
	Stages              []StageMetrics `json:"stages"`
	Summary             StageMetrics   `json:"summary"`
	Anomalies           Anomalies      `json:"anomalies"`
	Recordings          int            `json:"recordings"`
	Events              int            `json:"events"`
	EventsEmptied       int            `json:"events_emptied"`
	RecordingsFolded    int            `json:"recordings_folded"`
	CompanyCleanupState string         `json:"company_cleanup"` // "enabled" | "disabled"
}

// Stage returns the metrics entry for name, if present.
func (r Report) Stage(name string) (StageMetrics, bool) {
	for _, s := range r.Stages {
		if s.Stage == name {
			return s, true
		}
	}
	return StageMetrics{}, false
}

// --------------------------------------------
// Event listing carried in published artifacts
// --------------------------------------------
type EventRecord struct {
	EventID              string   `json:"event_id"`
	CompanyID            string   `json:"company_id"`
	CompanyName          string   `json:"company_name,omitempty"`
	Headline             string   `json:"headline"`
	EventDate            string   `json:"event_date"`
	CanonicalRecordingID string   `json:"canonical_recording_id"`
	RecordingIDs         []string `json:"recording_ids"`
	Components           int      `json:"components"`
	Isolated             bool     `json:"isolated,omitempty"`
	Anomaly              string   `json:"anomaly,omitempty"`
}
