package dedup

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"earnings-dedup-go/internal/records"
	"earnings-dedup-go/internal/types"
)

// Recording is the Stage 1 output for one recording id.
type Recording struct {
	ID         string
	Components []types.Component // unique texts, ascending sequence order
	Dropped    int
}

// SortComponents sorts cs by sequence index. Ties are broken on the
// remaining fields so the result never depends on input order.
func SortComponents(cs []types.Component) {
	slices.SortStableFunc(cs, compareComponents)
}

func compareComponents(a, b types.Component) int {
	return cmp.Or(
		cmp.Compare(a.SequenceIndex, b.SequenceIndex),
		strings.Compare(a.Text, b.Text),
		strings.Compare(string(a.SpeakerType), string(b.SpeakerType)),
		strings.Compare(string(a.SegmentType), string(b.SegmentType)),
		strings.Compare(a.SpeakerName, b.SpeakerName),
		cmp.Compare(a.WordCount, b.WordCount),
		strings.Compare(a.CompanyID, b.CompanyID),
		strings.Compare(a.CompanyName, b.CompanyName),
		strings.Compare(a.Headline, b.Headline),
		strings.Compare(a.EventDate, b.EventDate),
	)
}

// DedupRecording keeps the first occurrence of every text of one recording.
// It returns the survivors in sequence order and the number dropped.
func DedupRecording(components []types.Component, text MatchOptions) ([]types.Component, int) {
	sorted := slices.Clone(components)
	SortComponents(sorted)

	seen := make(map[string]struct{}, len(sorted))
	out := make([]types.Component, 0, len(sorted))
	dropped := 0
	for _, c := range sorted {
		k := text.Key(c.Text)
		if _, ok := seen[k]; ok {
			dropped++
			continue
		}
		seen[k] = struct{}{}
		out = append(out, c)
	}
	return out, dropped
}

// RemoveIntraRecordingDuplicates runs Stage 1 over every recording in store.
// Recordings are returned in ascending id order.
func RemoveIntraRecordingDuplicates(ctx context.Context, store *records.Store, opts Options) ([]Recording, types.StageMetrics, error) {
	all := store.Components()
	groups := make(map[string][]types.Component)
	for _, c := range all {
		groups[c.RecordingID] = append(groups[c.RecordingID], c)
	}
	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, CompareIDs)

	out := make([]Recording, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers())
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			kept, dropped := DedupRecording(groups[id], opts.Text)
			out[i] = Recording{ID: id, Components: kept, Dropped: dropped}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, types.StageMetrics{}, err
	}

	m := types.StageMetrics{
		Stage:               types.StageIntraRecording,
		RowsBefore:          len(all),
		DistinctTextsBefore: distinctTexts(all, opts.Text),
	}
	after := 0
	seen := make(map[string]struct{})
	for _, r := range out {
		after += len(r.Components)
		for _, c := range r.Components {
			seen[opts.Text.Key(c.Text)] = struct{}{}
		}
	}
	m.RowsAfter = after
	m.DistinctTextsAfter = len(seen)
	m.RowsDropped = m.RowsBefore - m.RowsAfter
	return out, m, nil
}

func distinctTexts(cs []types.Component, text MatchOptions) int {
	seen := make(map[string]struct{}, len(cs))
	for _, c := range cs {
		seen[text.Key(c.Text)] = struct{}{}
	}
	return len(seen)
}
