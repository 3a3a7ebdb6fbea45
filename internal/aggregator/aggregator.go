package aggregator

import (
	"strings"

	"earnings-dedup-go/internal/types"
)

// Passage is the text of one event joined for downstream analysis.
type Passage struct {
	EventID              string         `json:"event_id"`
	CompanyID            string         `json:"company_id"`
	CompanyName          string         `json:"company_name,omitempty"`
	Headline             string         `json:"headline"`
	EventDate            string         `json:"event_date"`
	CanonicalRecordingID string         `json:"canonical_recording_id"`
	Text                 string         `json:"text"`
	Components           int            `json:"components"`
	TotalWords           int            `json:"total_words"`
	SegmentCounts        map[string]int `json:"segment_counts"`
	Speakers             []string       `json:"speakers,omitempty"`
}

// Filter selects the rows that feed a passage.
type Filter func(types.CanonicalComponent) bool

// DefaultFilter keeps prepared executive remarks.
func DefaultFilter(c types.CanonicalComponent) bool {
	return c.SpeakerType == types.SpeakerExecutive && c.SegmentType == types.SegmentPresenterSpeech
}

func All(types.CanonicalComponent) bool { return true }

// Aggregate groups rows by event, in the order events first appear, and
// joins the selected texts with a blank line. Events with no selected rows
// are omitted. A nil filter keeps everything.
func Aggregate(rows []types.CanonicalComponent, filter Filter) []Passage {
	if filter == nil {
		filter = All
	}
	var order []string
	byEvent := map[string]*Passage{}
	texts := map[string][]string{}
	speakers := map[string]map[string]bool{}

	for _, r := range rows {
		if !filter(r) {
			continue
		}
		p, ok := byEvent[r.EventID]
		if !ok {
			p = &Passage{
				EventID:              r.EventID,
				CompanyID:            r.CompanyID,
				CompanyName:          r.CompanyName,
				Headline:             r.Headline,
				EventDate:            r.EventDate,
				CanonicalRecordingID: r.CanonicalRecordingID,
				SegmentCounts:        map[string]int{},
			}
			byEvent[r.EventID] = p
			speakers[r.EventID] = map[string]bool{}
			order = append(order, r.EventID)
		}
		texts[r.EventID] = append(texts[r.EventID], r.Text)
		p.Components++
		p.TotalWords += r.WordCount
		p.SegmentCounts[string(r.SegmentType)]++
		if r.SpeakerName != "" && !speakers[r.EventID][r.SpeakerName] {
			speakers[r.EventID][r.SpeakerName] = true
			p.Speakers = append(p.Speakers, r.SpeakerName)
		}
	}

	out := make([]Passage, 0, len(order))
	for _, id := range order {
		p := byEvent[id]
		p.Text = strings.Join(texts[id], "\n\n")
		out = append(out, *p)
	}
	return out
}
