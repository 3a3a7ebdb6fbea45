package dedup

import (
	"context"

	"golang.org/x/sync/errgroup"

	"earnings-dedup-go/internal/types"
)

// CleanupCompanies runs Stage 3. Within one company, events are visited in
// canonical order (earliest event date first) and a text already seen in an
// earlier event is dropped. Survivors are renumbered densely per event.
// Events left without components stay in the set.
//
// With opts.CompanyCleanup off the set is returned unchanged and the metrics
// are marked skipped.
func CleanupCompanies(ctx context.Context, set *EventSet, opts Options) (*EventSet, types.StageMetrics, error) {
	m := types.StageMetrics{
		Stage:               types.StageCompanyCleanup,
		RowsBefore:          set.Rows(),
		DistinctTextsBefore: set.distinctTexts(opts.Text),
	}
	if !opts.CompanyCleanup {
		m.RowsAfter = m.RowsBefore
		m.DistinctTextsAfter = m.DistinctTextsBefore
		m.Skipped = true
		return set, m, nil
	}

	events := set.Events()
	scopes := make(map[string][]int)
	var order []string
	for i, e := range events {
		s := companyScope(e)
		if _, ok := scopes[s]; !ok {
			order = append(order, s)
		}
		scopes[s] = append(scopes[s], i)
	}

	out := make([]*Event, len(events))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers())
	for _, s := range order {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			seen := make(map[string]struct{})
			for _, i := range scopes[s] {
				ev := events[i]
				kept := make([]types.Component, 0, len(ev.Components))
				for _, c := range ev.Components {
					k := opts.Text.Key(c.Text)
					if _, ok := seen[k]; ok {
						continue
					}
					seen[k] = struct{}{}
					c.SequenceIndex = len(kept)
					kept = append(kept, c)
				}
				out[i] = ev.withComponents(kept)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, types.StageMetrics{}, err
	}

	cleaned := newEventSet(out)
	m.RowsAfter = cleaned.Rows()
	m.DistinctTextsAfter = cleaned.distinctTexts(opts.Text)
	m.RowsDropped = m.RowsBefore - m.RowsAfter
	return cleaned, m, nil
}

// companyScope groups events of one company. Events without a company id
// are each their own scope.
func companyScope(e *Event) string {
	if e.CompanyKey == "" {
		return "event:" + e.ID
	}
	return "company:" + e.CompanyKey
}
