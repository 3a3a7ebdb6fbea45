// internal/processor/processor.go
package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"earnings-dedup-go/internal/actionable"
	"earnings-dedup-go/internal/config"
	"earnings-dedup-go/internal/dataset"
	"earnings-dedup-go/internal/dedup"
	"earnings-dedup-go/internal/logger"
	"earnings-dedup-go/internal/pipeline"
	"earnings-dedup-go/internal/publish"
	"earnings-dedup-go/internal/records"
	"earnings-dedup-go/internal/types"
)

// Job describes one end-to-end run.
type Job struct {
	Input        string
	Output       string // empty skips publishing
	CompanyLimit int
	IncludeRows  bool // copy events and canonical rows into the Result
}

// Result is returned by /run, /process and `dedup run`.
type Result struct {
	RunID         string                     `json:"run_id"`
	Input         string                     `json:"input,omitempty"`
	Output        string                     `json:"output,omitempty"`
	Report        types.Report               `json:"report"`
	InputSummary  dataset.DatasetSummary     `json:"input_summary"`
	OutputSummary dataset.DatasetSummary     `json:"output_summary"`
	Actions       []actionable.ActionCard    `json:"actions"`
	Events        []types.EventRecord        `json:"events,omitempty"`
	Components    []types.CanonicalComponent `json:"components,omitempty"`
	DurationMs    int64                      `json:"duration_ms"`
	Error         string                     `json:"error,omitempty"`
}

type Processor struct {
	opts   dedup.Options
	loader *dataset.Loader
	log    *logrus.Entry
}

func New(cfg config.Config, log *logger.Logger) *Processor {
	if log == nil {
		log = logger.New()
	}
	return &Processor{
		opts:   cfg.DedupOptions(),
		loader: dataset.NewLoader(log.WithComponent("dataset"), cfg.FetchTimeout),
		log:    log.WithComponent("processor"),
	}
}

// Process loads job.Input, runs the pipeline and publishes to job.Output.
// On failure the returned Result still carries the run id and the error text.
func (p *Processor) Process(ctx context.Context, job Job) (Result, error) {
	start := time.Now()
	runID := uuid.New().String()
	log := p.log.WithField("run_id", runID).WithField("input", job.Input)
	res := Result{RunID: runID, Input: job.Input, Output: job.Output}

	fail := func(err error) (Result, error) {
		res.Error = err.Error()
		res.DurationMs = time.Since(start).Milliseconds()
		log.WithError(err).Error("run failed")
		return res, err
	}

	comps, err := p.loader.Load(ctx, job.Input)
	if err != nil {
		return fail(fmt.Errorf("load input: %w", err))
	}
	if job.CompanyLimit > 0 {
		before := len(comps)
		comps = dataset.FilterCompanies(comps, job.CompanyLimit)
		log.WithFields(logrus.Fields{"company_limit": job.CompanyLimit, "before": before, "after": len(comps)}).Info("company filter applied")
	}

	out, canonical, err := p.run(ctx, runID, comps, log)
	if err != nil {
		return fail(err)
	}
	out.Input, out.Output = job.Input, job.Output

	if job.Output != "" {
		pub, err := publish.ForPath(job.Output)
		if err != nil {
			return fail(err)
		}
		artifact := publish.Artifact{
			RunID:  runID,
			Report: out.Report,
			Events: canonical.Events(),
			Rows:   canonical.Rows(),
		}
		if err := pub.Publish(ctx, artifact); err != nil {
			return fail(fmt.Errorf("publish %s: %w", job.Output, err))
		}
		log.WithField("output", job.Output).WithField("rows", canonical.Len()).Info("canonical artifact published")
	}

	if job.IncludeRows {
		out.Events = canonical.Events()
		out.Components = canonical.Rows()
	}
	out.DurationMs = time.Since(start).Milliseconds()
	return out, nil
}

// ProcessComponents runs the pipeline over in-memory components without
// touching the filesystem. Events and canonical rows are always included.
func (p *Processor) ProcessComponents(ctx context.Context, comps []types.Component) (Result, error) {
	start := time.Now()
	runID := uuid.New().String()
	log := p.log.WithField("run_id", runID)

	out, canonical, err := p.run(ctx, runID, comps, log)
	if err != nil {
		out.RunID = runID
		out.Error = err.Error()
		out.DurationMs = time.Since(start).Milliseconds()
		return out, err
	}
	out.Events = canonical.Events()
	out.Components = canonical.Rows()
	out.DurationMs = time.Since(start).Milliseconds()
	return out, nil
}

func (p *Processor) run(ctx context.Context, runID string, comps []types.Component, log *logrus.Entry) (Result, *records.CanonicalStore, error) {
	res := Result{RunID: runID}
	res.InputSummary = dataset.Summarize(comps, log.WithField("side", "input"))

	pr, err := pipeline.New(p.opts, log).Run(ctx, records.NewStore(comps))
	if err != nil {
		return res, nil, err
	}
	res.Report = pr.Report
	res.Actions = actionable.Generate(pr.Report)

	rows := pr.Canonical.Rows()
	outComps := make([]types.Component, len(rows))
	for i, r := range rows {
		outComps[i] = r.Component
	}
	res.OutputSummary = dataset.Summarize(outComps, log.WithField("side", "output"))
	return res, pr.Canonical, nil
}
