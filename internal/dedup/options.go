package dedup

import (
	"runtime"
	"strings"

	"earnings-dedup-go/internal/types"
)

// MatchOptions controls how strings are compared. The zero value is exact
// byte-for-byte matching.
type MatchOptions struct {
	TrimSpace     bool `yaml:"trim_space" json:"trim_space"`
	CollapseSpace bool `yaml:"collapse_space" json:"collapse_space"` // implies TrimSpace
	FoldCase      bool `yaml:"fold_case" json:"fold_case"`
}

// Key returns the comparison key for s under o.
func (o MatchOptions) Key(s string) string {
	switch {
	case o.CollapseSpace:
		s = strings.Join(strings.Fields(s), " ")
	case o.TrimSpace:
		s = strings.TrimSpace(s)
	}
	if o.FoldCase {
		s = strings.ToLower(s)
	}
	return s
}

// EventKey is the natural key of an event.
type EventKey struct {
	CompanyID string `json:"company_id"`
	Headline  string `json:"headline"`
	EventDate string `json:"event_date"`
}

// EventKey returns the comparison key of the event c belongs to.
func (o MatchOptions) EventKey(c types.Component) EventKey {
	return EventKey{
		CompanyID: o.Key(c.CompanyID),
		Headline:  o.Key(c.Headline),
		EventDate: o.Key(c.EventDate),
	}
}

// Options configures a pipeline run.
type Options struct {
	// Text controls utterance matching in all three stages.
	Text MatchOptions
	// Key controls natural-key matching in Stage 2 and company scoping in Stage 3.
	Key MatchOptions
	// CompanyCleanup enables Stage 3.
	CompanyCleanup bool
	// Workers bounds per-recording, per-group and per-company parallelism.
	Workers int
}

func DefaultOptions() Options {
	return Options{
		CompanyCleanup: true,
		Workers:        runtime.GOMAXPROCS(0),
	}
}

func (o Options) workers() int {
	if o.Workers <= 0 {
		return 1
	}
	return o.Workers
}
