package dedup

import (
	"fmt"

	"earnings-dedup-go/internal/types"
)

// CheckNoTextLoss verifies that after Stage 2 every recording belongs to
// exactly one event and every event holds exactly the distinct texts of the
// recordings folded into it.
func CheckNoTextLoss(recordings []Recording, set *EventSet, text MatchOptions) error {
	byID := make(map[string]Recording, len(recordings))
	for _, r := range recordings {
		byID[r.ID] = r
	}

	owner := make(map[string]string, len(recordings))
	for _, ev := range set.Events() {
		want := make(map[string]string)
		for _, id := range ev.RecordingIDs {
			if prev, ok := owner[id]; ok {
				return &InvariantError{Invariant: InvariantNoTextLoss, EventID: ev.ID, Key: ev.Key,
					Detail: fmt.Sprintf("recording %s also folded into event %s", id, prev)}
			}
			owner[id] = ev.ID
			rec, ok := byID[id]
			if !ok {
				return &InvariantError{Invariant: InvariantNoTextLoss, EventID: ev.ID, Key: ev.Key,
					Detail: fmt.Sprintf("unknown recording %s", id)}
			}
			for _, c := range rec.Components {
				want[text.Key(c.Text)] = c.Text
			}
		}

		got := make(map[string]struct{}, len(ev.Components))
		for _, c := range ev.Components {
			got[text.Key(c.Text)] = struct{}{}
		}
		for k, raw := range want {
			if _, ok := got[k]; !ok {
				return &InvariantError{Invariant: InvariantNoTextLoss, EventID: ev.ID, Key: ev.Key,
					Detail: fmt.Sprintf("%d distinct texts before merge, %d after; missing %q", len(want), len(got), truncate(raw, 60))}
			}
		}
		if len(got) != len(want) || len(ev.Components) != len(got) {
			return &InvariantError{Invariant: InvariantNoTextLoss, EventID: ev.ID, Key: ev.Key,
				Detail: fmt.Sprintf("%d distinct texts before merge, %d after, %d rows", len(want), len(got), len(ev.Components))}
		}
	}

	for _, r := range recordings {
		if len(r.Components) == 0 {
			continue
		}
		if _, ok := owner[r.ID]; !ok {
			return &InvariantError{Invariant: InvariantNoTextLoss,
				Detail: fmt.Sprintf("recording %s is not part of any event", r.ID)}
		}
	}
	return nil
}

// CheckCanonicalReferences verifies that every row points at an event in set
// with a matching canonical recording id, and that canonical recording ids
// identify events one to one.
func CheckCanonicalReferences(rows []types.CanonicalComponent, set *EventSet) error {
	canonical := make(map[string]string, set.Len())
	for _, ev := range set.Events() {
		if prev, ok := canonical[ev.CanonicalRecordingID]; ok {
			return &InvariantError{Invariant: InvariantUniqueCanonical, EventID: ev.ID, Key: ev.Key,
				Detail: fmt.Sprintf("canonical recording %s also identifies event %s", ev.CanonicalRecordingID, prev)}
		}
		canonical[ev.CanonicalRecordingID] = ev.ID
	}

	for i, r := range rows {
		ev, ok := set.Lookup(r.EventID)
		if !ok {
			return &InvariantError{Invariant: InvariantCanonicalReference, EventID: r.EventID,
				Detail: fmt.Sprintf("row %d references an event that does not exist", i)}
		}
		if r.CanonicalRecordingID != ev.CanonicalRecordingID || r.RecordingID != ev.CanonicalRecordingID {
			return &InvariantError{Invariant: InvariantCanonicalReference, EventID: ev.ID, Key: ev.Key,
				Detail: fmt.Sprintf("row %d carries recording %s / canonical %s, event canonical is %s",
					i, r.RecordingID, r.CanonicalRecordingID, ev.CanonicalRecordingID)}
		}
	}
	return nil
}

// CheckDenseSequence verifies that sequence indices of every event run
// 0, 1, 2, ... in row order.
func CheckDenseSequence(rows []types.CanonicalComponent) error {
	next := make(map[string]int)
	for i, r := range rows {
		want := next[r.EventID]
		if r.SequenceIndex != want {
			return &InvariantError{Invariant: InvariantDenseSequence, EventID: r.EventID,
				Detail: fmt.Sprintf("row %d has sequence_index %d, want %d", i, r.SequenceIndex, want)}
		}
		next[r.EventID] = want + 1
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
