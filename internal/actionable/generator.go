package actionable

import (
	"fmt"

	"earnings-dedup-go/internal/types"
)

type ActionCard struct {
	Insight string `json:"insight"`
	Action  string `json:"action"`
	Impact  string `json:"impact"`
}

const (
	anomalyShareThreshold   = 0.05
	reductionShareThreshold = 0.25
)

// Generate turns a run report into advisory cards, most pressing first.
func Generate(r types.Report) []ActionCard {
	var cards []ActionCard

	if n := r.Anomalies.Total(); n > 0 && r.Recordings > 0 {
		share := float64(n) / float64(r.Recordings)
		card := ActionCard{
			Insight: fmt.Sprintf("%d of %d recordings (%.0f%%) could not be matched to an event: %d missing a key field, %d with inconsistent keys",
				n, r.Recordings, share*100, r.Anomalies.MissingKeyRecordings, r.Anomalies.InconsistentKeyRecordings),
			Action: "Backfill company_id, headline and event_date upstream; isolated recordings are kept but never merged",
			Impact: "Low immediate intervention",
		}
		if share >= anomalyShareThreshold {
			card.Impact = "Duplicate captures of these events are likely still present in the output"
		}
		cards = append(cards, card)
	}

	if r.RecordingsFolded > 0 {
		merge, _ := r.Stage(types.StageEventMerge)
		cards = append(cards, ActionCard{
			Insight: fmt.Sprintf("%d events were captured more than once; %d redundant recordings folded, %d rows removed",
				merge.GroupsMerged, r.RecordingsFolded, merge.RowsDropped),
			Action: "Deduplicate captures at ingestion so each event is recorded once",
			Impact: "Smaller raw dataset and cheaper downstream analysis",
		})
	}

	if cleanup, ok := r.Stage(types.StageCompanyCleanup); ok && !cleanup.Skipped && cleanup.RowsDropped > 0 {
		card := ActionCard{
			Insight: fmt.Sprintf("Company cleanup removed %d rows repeated across events of the same company", cleanup.RowsDropped),
			Action:  "Review boilerplate (safe-harbor statements, operator scripts) before analysis",
			Impact:  "Per-event text no longer double counts recurring statements",
		}
		if lost := cleanup.DistinctTextsBefore - cleanup.DistinctTextsAfter; lost > 0 {
			card.Impact = fmt.Sprintf("%d distinct texts are no longer attributed to every event that used them", lost)
		}
		if r.EventsEmptied > 0 {
			card.Insight += fmt.Sprintf("; %d events left with no rows", r.EventsEmptied)
		}
		cards = append(cards, card)
	}

	if s := r.Summary; s.RowsBefore > 0 {
		share := float64(s.RowsDropped) / float64(s.RowsBefore)
		if share >= reductionShareThreshold {
			cards = append(cards, ActionCard{
				Insight: fmt.Sprintf("Overall reduction of %.0f%% (%d -> %d rows)", share*100, s.RowsBefore, s.RowsAfter),
				Action:  "Use the canonical output for all sentiment and aggregation work",
				Impact:  "Prevents inflated statistics from duplicated speech",
			})
		}
	}

	if len(cards) == 0 {
		cards = append(cards, ActionCard{
			Insight: "No duplication pattern detected",
			Action:  "Monitor and collect more data",
			Impact:  "Low immediate intervention",
		})
	}
	return cards
}
