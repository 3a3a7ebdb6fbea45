package dataset

import (
	"github.com/sirupsen/logrus"

	"earnings-dedup-go/internal/types"
)

type DatasetSummary struct {
	Components        int            `json:"components"`
	Companies         int            `json:"companies"`
	Recordings        int            `json:"recordings"`
	Events            int            `json:"events"`
	DistinctTexts     int            `json:"distinct_texts"`
	TotalWords        int            `json:"total_words"`
	AvgWordsPerRow    float64        `json:"avg_words_per_component"`
	BySpeakerType     map[string]int `json:"by_speaker_type"`
	BySegmentType     map[string]int `json:"by_segment_type"`
	MissingKeyComponents int         `json:"missing_key_components"`
}

// Summarize computes a compact profile of a component set. Events are counted
// by exact natural key; components missing a key field are not counted as an event.
func Summarize(components []types.Component, log *logrus.Entry) DatasetSummary {
	companies := map[string]struct{}{}
	recordings := map[string]struct{}{}
	events := map[[3]string]struct{}{}
	texts := map[string]struct{}{}
	ds := DatasetSummary{
		Components:    len(components),
		BySpeakerType: map[string]int{},
		BySegmentType: map[string]int{},
	}

	for _, c := range components {
		if c.CompanyID != "" {
			companies[c.CompanyID] = struct{}{}
		}
		recordings[c.RecordingID] = struct{}{}
		if len(c.MissingKeyFields()) == 0 {
			events[[3]string{c.CompanyID, c.Headline, c.EventDate}] = struct{}{}
		} else {
			ds.MissingKeyComponents++
		}
		texts[c.Text] = struct{}{}
		ds.TotalWords += c.WordCount
		ds.BySpeakerType[string(c.SpeakerType)]++
		ds.BySegmentType[string(c.SegmentType)]++
	}
	ds.Companies = len(companies)
	ds.Recordings = len(recordings)
	ds.Events = len(events)
	ds.DistinctTexts = len(texts)
	if ds.Components > 0 {
		ds.AvgWordsPerRow = float64(ds.TotalWords) / float64(ds.Components)
	}

	if log != nil {
		log.WithFields(logrus.Fields{
			"components":     ds.Components,
			"companies":      ds.Companies,
			"recordings":     ds.Recordings,
			"events":         ds.Events,
			"distinct_texts": ds.DistinctTexts,
		}).Info("dataset summarization complete")
	}
	return ds
}

// DuplicationRatio is the share of components whose text repeats another component's.
func (ds DatasetSummary) DuplicationRatio() float64 {
	if ds.Components == 0 {
		return 0
	}
	return float64(ds.Components-ds.DistinctTexts) / float64(ds.Components)
}
