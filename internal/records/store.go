// Package records holds the immutable collections the pipeline reads and produces.
package records

import "earnings-dedup-go/internal/types"

// Store is an immutable collection of input components.
type Store struct {
	components []types.Component
}

// NewStore copies components into a new Store.
func NewStore(components []types.Component) *Store {
	cp := make([]types.Component, len(components))
	copy(cp, components)
	return &Store{components: cp}
}

func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.components)
}

// Components returns a copy of the stored components.
func (s *Store) Components() []types.Component {
	if s == nil {
		return nil
	}
	cp := make([]types.Component, len(s.components))
	copy(cp, s.components)
	return cp
}

// CanonicalStore is the immutable canonical output: one row per distinct utterance per event.
type CanonicalStore struct {
	rows   []types.CanonicalComponent
	events []types.EventRecord
}

// NewCanonicalStore copies rows and events into a new CanonicalStore.
func NewCanonicalStore(rows []types.CanonicalComponent, events []types.EventRecord) *CanonicalStore {
	r := make([]types.CanonicalComponent, len(rows))
	copy(r, rows)
	e := make([]types.EventRecord, len(events))
	for i, ev := range events {
		ev.RecordingIDs = append([]string(nil), ev.RecordingIDs...)
		e[i] = ev
	}
	return &CanonicalStore{rows: r, events: e}
}

func (c *CanonicalStore) Len() int {
	if c == nil {
		return 0
	}
	return len(c.rows)
}

// Rows returns a copy of the canonical rows in canonical order.
func (c *CanonicalStore) Rows() []types.CanonicalComponent {
	if c == nil {
		return []types.CanonicalComponent{}
	}
	cp := make([]types.CanonicalComponent, len(c.rows))
	copy(cp, c.rows)
	return cp
}

// Events returns a copy of the event listing.
func (c *CanonicalStore) Events() []types.EventRecord {
	if c == nil {
		return []types.EventRecord{}
	}
	cp := make([]types.EventRecord, len(c.events))
	for i, ev := range c.events {
		ev.RecordingIDs = append([]string(nil), ev.RecordingIDs...)
		cp[i] = ev
	}
	return cp
}

// AsInput projects the canonical rows back into an input Store, so the
// output can be fed through the pipeline again.
func (c *CanonicalStore) AsInput() *Store {
	comps := make([]types.Component, 0, c.Len())
	if c != nil {
		for _, r := range c.rows {
			comps = append(comps, r.Component)
		}
	}
	return &Store{components: comps}
}
