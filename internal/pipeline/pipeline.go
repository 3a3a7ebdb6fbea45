// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"earnings-dedup-go/internal/dedup"
	"earnings-dedup-go/internal/logger"
	"earnings-dedup-go/internal/records"
	"earnings-dedup-go/internal/types"
)

// Result is the canonical store plus the metrics report of one run.
type Result struct {
	Canonical *records.CanonicalStore
	Report    types.Report
}

type Pipeline struct {
	opts dedup.Options
	log  *logrus.Entry
}

// New returns a Pipeline. A nil log falls back to the default logger.
func New(opts dedup.Options, log *logrus.Entry) *Pipeline {
	if log == nil {
		log = logger.New().WithComponent("pipeline")
	}
	return &Pipeline{opts: opts, log: log}
}

// Run executes the three stages over store and verifies the invariants.
// Any invariant failure is returned as a *dedup.InvariantError and no result
// is produced. An empty store yields an empty result, not an error.
func (p *Pipeline) Run(ctx context.Context, store *records.Store) (*Result, error) {
	start := time.Now()
	if store.Len() == 0 {
		p.log.Warn("empty input, nothing to deduplicate")
		return emptyResult(p.opts), nil
	}

	recs, intra, err := dedup.RemoveIntraRecordingDuplicates(ctx, store, p.opts)
	if err != nil {
		return nil, fmt.Errorf("intra-recording dedup: %w", err)
	}
	p.logStage(intra)

	merged, anomalies, merge, err := dedup.MergeEvents(ctx, recs, p.opts)
	if err != nil {
		return nil, fmt.Errorf("event merge: %w", err)
	}
	p.logStage(merge)
	if anomalies.Total() > 0 {
		p.log.WithFields(logrus.Fields{
			"missing_key_components":      anomalies.MissingKeyComponents,
			"missing_key_recordings":      anomalies.MissingKeyRecordings,
			"inconsistent_key_recordings": anomalies.InconsistentKeyRecordings,
		}).Warn("recordings isolated because of natural-key anomalies")
	}
	if err := dedup.CheckNoTextLoss(recs, merged, p.opts.Text); err != nil {
		p.log.WithError(err).Error("invariant check failed after event merge")
		return nil, err
	}

	final, cleanup, err := dedup.CleanupCompanies(ctx, merged, p.opts)
	if err != nil {
		return nil, fmt.Errorf("company cleanup: %w", err)
	}
	p.logStage(cleanup)

	rows := final.CanonicalRows()
	if err := dedup.CheckCanonicalReferences(rows, final); err != nil {
		p.log.WithError(err).Error("invariant check failed on canonical rows")
		return nil, err
	}
	if err := dedup.CheckDenseSequence(rows); err != nil {
		p.log.WithError(err).Error("invariant check failed on canonical rows")
		return nil, err
	}

	report := types.Report{
		Stages:              []types.StageMetrics{intra, merge, cleanup},
		Summary:             summarize(intra, merge, cleanup),
		Anomalies:           anomalies,
		Recordings:          len(recs),
		CompanyCleanupState: cleanupState(p.opts),
	}
	for _, ev := range final.Events() {
		if len(ev.Components) == 0 {
			report.EventsEmptied++
		} else {
			report.Events++
		}
		report.RecordingsFolded += len(ev.RecordingIDs) - 1
	}

	p.log.WithFields(logger.StageFields(report.Summary)).
		WithField("events", report.Events).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("pipeline complete")

	return &Result{
		Canonical: records.NewCanonicalStore(rows, final.EventRecords()),
		Report:    report,
	}, nil
}

func (p *Pipeline) logStage(m types.StageMetrics) {
	p.log.WithFields(logger.StageFields(m)).Info("stage complete")
}

func summarize(intra, merge, cleanup types.StageMetrics) types.StageMetrics {
	s := types.StageMetrics{
		Stage:               types.StageTotal,
		RowsBefore:          intra.RowsBefore,
		RowsAfter:           cleanup.RowsAfter,
		DistinctTextsBefore: intra.DistinctTextsBefore,
		DistinctTextsAfter:  cleanup.DistinctTextsAfter,
		GroupsMerged:        merge.GroupsMerged,
	}
	s.RowsDropped = s.RowsBefore - s.RowsAfter
	return s
}

func cleanupState(opts dedup.Options) string {
	if opts.CompanyCleanup {
		return "enabled"
	}
	return "disabled"
}

func emptyResult(opts dedup.Options) *Result {
	return &Result{
		Canonical: records.NewCanonicalStore(nil, nil),
		Report: types.Report{
			Stages: []types.StageMetrics{
				{Stage: types.StageIntraRecording},
				{Stage: types.StageEventMerge},
				{Stage: types.StageCompanyCleanup, Skipped: !opts.CompanyCleanup},
			},
			Summary:             types.StageMetrics{Stage: types.StageTotal},
			CompanyCleanupState: cleanupState(opts),
		},
	}
}
