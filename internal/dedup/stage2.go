package dedup

import (
	"context"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"earnings-dedup-go/internal/types"
)

const (
	AnomalyMissingKey      = "missing_key_field"
	AnomalyInconsistentKey = "inconsistent_key"
)

// Event is one canonical event: a group of recordings sharing a natural key,
// or a single recording that could not be grouped.
type Event struct {
	ID  string
	Key EventKey // comparison key; zero for isolated events
	// CompanyKey scopes Stage 3. Empty when the company is unknown.
	CompanyKey string

	CompanyID   string
	CompanyName string
	Headline    string
	EventDate   string

	CanonicalRecordingID string
	RecordingIDs         []string // canonical first, then ascending
	Isolated             bool
	Anomaly              string

	Components []types.Component
}

func (e *Event) withComponents(cs []types.Component) *Event {
	cp := *e
	cp.RecordingIDs = slices.Clone(e.RecordingIDs)
	cp.Components = cs
	return &cp
}

// EventSet holds events in canonical order: company, then calendar event
// date (unknown last), then canonical recording id.
type EventSet struct {
	events []*Event
	index  map[string]int
}

func newEventSet(events []*Event) *EventSet {
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, compareEvents)
	idx := make(map[string]int, len(sorted))
	for i, e := range sorted {
		idx[e.ID] = i
	}
	return &EventSet{events: sorted, index: idx}
}

func compareEvents(a, b *Event) int {
	if c := compareEmptyLast(a.CompanyKey, b.CompanyKey, CompareIDs); c != 0 {
		return c
	}
	if c := compareEmptyLast(a.EventDate, b.EventDate, CompareDates); c != 0 {
		return c
	}
	if c := CompareIDs(a.CanonicalRecordingID, b.CanonicalRecordingID); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

func compareEmptyLast(a, b string, cmpFn func(a, b string) int) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	}
	return cmpFn(a, b)
}

func (s *EventSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.events)
}

// Events returns the events in canonical order. Callers must not modify them.
func (s *EventSet) Events() []*Event {
	if s == nil {
		return nil
	}
	return slices.Clone(s.events)
}

func (s *EventSet) Lookup(id string) (*Event, bool) {
	if s == nil {
		return nil, false
	}
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return s.events[i], true
}

// Rows is the number of components across all events.
func (s *EventSet) Rows() int {
	n := 0
	for _, e := range s.Events() {
		n += len(e.Components)
	}
	return n
}

func (s *EventSet) distinctTexts(text MatchOptions) int {
	seen := make(map[string]struct{})
	for _, e := range s.Events() {
		for _, c := range e.Components {
			seen[text.Key(c.Text)] = struct{}{}
		}
	}
	return len(seen)
}

// CanonicalRows flattens the set into canonical rows, event by event.
func (s *EventSet) CanonicalRows() []types.CanonicalComponent {
	rows := make([]types.CanonicalComponent, 0, s.Rows())
	for _, e := range s.Events() {
		for _, c := range e.Components {
			rows = append(rows, types.CanonicalComponent{
				Component:            c,
				EventID:              e.ID,
				CanonicalRecordingID: e.CanonicalRecordingID,
			})
		}
	}
	return rows
}

// EventRecords lists the events for publishing.
func (s *EventSet) EventRecords() []types.EventRecord {
	out := make([]types.EventRecord, 0, s.Len())
	for _, e := range s.Events() {
		out = append(out, types.EventRecord{
			EventID:              e.ID,
			CompanyID:            e.CompanyID,
			CompanyName:          e.CompanyName,
			Headline:             e.Headline,
			EventDate:            e.EventDate,
			CanonicalRecordingID: e.CanonicalRecordingID,
			RecordingIDs:         slices.Clone(e.RecordingIDs),
			Components:           len(e.Components),
			Isolated:             e.Isolated,
			Anomaly:              e.Anomaly,
		})
	}
	return out
}

// MergeEvents runs Stage 2. Recordings that share a natural key are folded
// into one event under the smallest recording id. A recording with a
// component missing a key field, or whose components disagree on the key,
// becomes an isolated event of its own and is counted in the anomalies.
func MergeEvents(ctx context.Context, recordings []Recording, opts Options) (*EventSet, types.Anomalies, types.StageMetrics, error) {
	var (
		anomalies types.Anomalies
		isolated  []*Event
		order     []EventKey
		before    []types.Component
	)
	groups := make(map[EventKey][]Recording)
	for _, rec := range recordings {
		if len(rec.Components) == 0 {
			continue
		}
		before = append(before, rec.Components...)

		key, anomaly, missing := recordingKey(rec, opts.Key)
		anomalies.MissingKeyComponents += missing
		switch anomaly {
		case AnomalyMissingKey:
			anomalies.MissingKeyRecordings++
		case AnomalyInconsistentKey:
			anomalies.InconsistentKeyRecordings++
		}
		if anomaly != "" {
			ev := buildEvent(IsolatedEventID(rec.ID), EventKey{}, []Recording{rec}, opts.Text)
			ev.CompanyKey = opts.Key.Key(ev.CompanyID)
			ev.Isolated = true
			ev.Anomaly = anomaly
			isolated = append(isolated, ev)
			continue
		}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], rec)
	}

	merged := make([]*Event, len(order))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers())
	for i, key := range order {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ev := buildEvent(EventID(key), key, groups[key], opts.Text)
			ev.CompanyKey = key.CompanyID
			merged[i] = ev
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, types.Anomalies{}, types.StageMetrics{}, err
	}

	set := newEventSet(append(merged, isolated...))
	m := types.StageMetrics{
		Stage:               types.StageEventMerge,
		RowsBefore:          len(before),
		RowsAfter:           set.Rows(),
		DistinctTextsBefore: distinctTexts(before, opts.Text),
		DistinctTextsAfter:  set.distinctTexts(opts.Text),
	}
	m.RowsDropped = m.RowsBefore - m.RowsAfter
	for _, key := range order {
		if len(groups[key]) > 1 {
			m.GroupsMerged++
		}
	}
	return set, anomalies, m, nil
}

// recordingKey returns the natural key shared by all components of rec, or
// the anomaly that prevents grouping it. missing counts components lacking a
// key field.
func recordingKey(rec Recording, km MatchOptions) (key EventKey, anomaly string, missing int) {
	for _, c := range rec.Components {
		if len(c.MissingKeyFields()) > 0 {
			missing++
		}
	}
	if missing > 0 {
		return EventKey{}, AnomalyMissingKey, missing
	}
	key = km.EventKey(rec.Components[0])
	for _, c := range rec.Components[1:] {
		if km.EventKey(c) != key {
			return EventKey{}, AnomalyInconsistentKey, 0
		}
	}
	return key, "", 0
}

// buildEvent folds recs into one event. The smallest recording id becomes
// canonical; texts are taken canonical first, then by ascending recording id,
// each recording in sequence order, keeping the first occurrence of each.
func buildEvent(id string, key EventKey, recs []Recording, text MatchOptions) *Event {
	sorted := slices.Clone(recs)
	slices.SortFunc(sorted, func(a, b Recording) int { return CompareIDs(a.ID, b.ID) })
	canonical := sorted[0]

	ids := make([]string, 0, len(sorted))
	seen := make(map[string]struct{})
	var comps []types.Component
	for _, r := range sorted {
		ids = append(ids, r.ID)
		cs := slices.Clone(r.Components)
		SortComponents(cs)
		for _, c := range cs {
			k := text.Key(c.Text)
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			c.RecordingID = canonical.ID
			c.SequenceIndex = len(comps)
			comps = append(comps, c)
		}
	}

	head := canonical.Components[0]
	return &Event{
		ID:                   id,
		Key:                  key,
		CompanyID:            head.CompanyID,
		CompanyName:          head.CompanyName,
		Headline:             head.Headline,
		EventDate:            head.EventDate,
		CanonicalRecordingID: canonical.ID,
		RecordingIDs:         ids,
		Components:           comps,
	}
}
