package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"earnings-dedup-go/internal/actionable"
	"earnings-dedup-go/internal/dedup"
	"earnings-dedup-go/internal/processor"
	"earnings-dedup-go/internal/types"
)

var runFlags struct {
	input, output     string
	companyLimit      int
	workers           int
	noCompanyCleanup  bool
	textTrim          bool
	textCollapseSpace bool
	textFoldCase      bool
	keyTrim           bool
	keyCollapseSpace  bool
	keyFoldCase       bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the deduplication pipeline and publish the canonical artifact",
	Long: `Load components from --input (xlsx, json, jsonl, sqlite or an http(s) URL),
run the three deduplication stages and publish the canonical set to --output.
The output format follows the extension: .json, .jsonl, .xlsx, .db/.sqlite.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyRunFlags(cmd)
		if cfg.Input == "" {
			return errors.New("no input: pass --input or set DEDUP_INPUT")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		res, err := processor.New(cfg, log).Process(cmd.Context(), processor.Job{
			Input:        cfg.Input,
			Output:       cfg.Output,
			CompanyLimit: cfg.CompanyLimit,
		})
		if err != nil {
			var ie *dedup.InvariantError
			if errors.As(err, &ie) {
				color.New(color.FgRed, color.Bold).Fprintf(cmd.ErrOrStderr(), "invariant %s violated for event %s\n", ie.Invariant, ie.EventID)
			}
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), res)
		}
		printRunResult(cmd.OutOrStdout(), res)
		return nil
	},
}

func init() {
	f := runCmd.Flags()
	f.StringVarP(&runFlags.input, "input", "i", "", "Input dataset path or URL")
	f.StringVarP(&runFlags.output, "output", "o", "", "Canonical artifact path (omit to skip publishing)")
	f.IntVar(&runFlags.companyLimit, "company-limit", 0, "Keep only the first N companies by id (0 = all)")
	f.IntVar(&runFlags.workers, "workers", 0, "Parallelism inside each stage (default GOMAXPROCS)")
	f.BoolVar(&runFlags.noCompanyCleanup, "no-company-cleanup", false, "Skip the company-level cleanup stage")
	f.BoolVar(&runFlags.textTrim, "text-trim", false, "Ignore leading and trailing whitespace when matching texts")
	f.BoolVar(&runFlags.textCollapseSpace, "text-collapse-space", false, "Collapse whitespace runs when matching texts")
	f.BoolVar(&runFlags.textFoldCase, "text-fold-case", false, "Match texts case-insensitively")
	f.BoolVar(&runFlags.keyTrim, "key-trim", false, "Ignore surrounding whitespace in company_id, headline and event_date")
	f.BoolVar(&runFlags.keyCollapseSpace, "key-collapse-space", false, "Collapse whitespace runs in natural-key fields")
	f.BoolVar(&runFlags.keyFoldCase, "key-fold-case", false, "Match natural-key fields case-insensitively")
	rootCmd.AddCommand(runCmd)
}

// applyRunFlags lets explicitly set flags override file and environment config.
func applyRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	if f.Changed("input") {
		cfg.Input = runFlags.input
	}
	if f.Changed("output") {
		cfg.Output = runFlags.output
	}
	if f.Changed("company-limit") {
		cfg.CompanyLimit = runFlags.companyLimit
	}
	if f.Changed("workers") {
		cfg.Workers = runFlags.workers
	}
	if f.Changed("no-company-cleanup") {
		cfg.CompanyCleanup = !runFlags.noCompanyCleanup
	}
	for name, dst := range map[string]*bool{
		"text-trim":           &cfg.Text.TrimSpace,
		"text-collapse-space": &cfg.Text.CollapseSpace,
		"text-fold-case":      &cfg.Text.FoldCase,
		"key-trim":            &cfg.Key.TrimSpace,
		"key-collapse-space":  &cfg.Key.CollapseSpace,
		"key-fold-case":       &cfg.Key.FoldCase,
	} {
		if f.Changed(name) {
			*dst, _ = f.GetBool(name)
		}
	}
}

func printRunResult(w io.Writer, res processor.Result) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Fprintf(w, "\n%s\n", cyan("=== Deduplication Run ==="))
	fmt.Fprintf(w, "  Run:    %s\n", res.RunID)
	fmt.Fprintf(w, "  Input:  %s\n", res.Input)
	if res.Output != "" {
		fmt.Fprintf(w, "  Output: %s\n", res.Output)
	} else {
		fmt.Fprintf(w, "  Output: %s\n", gray("(not published)"))
	}
	fmt.Fprintln(w)

	printStageTable(w, res.Report)

	r := res.Report
	fmt.Fprintf(w, "\n  Recordings: %d  Events: %d  Folded: %d  Emptied: %d  Company cleanup: %s\n",
		r.Recordings, r.Events, r.RecordingsFolded, r.EventsEmptied, r.CompanyCleanupState)
	if n := r.Anomalies.Total(); n > 0 {
		fmt.Fprintf(w, "  %s %d recordings isolated (%d missing key, %d inconsistent key)\n",
			yellow("⚠"), n, r.Anomalies.MissingKeyRecordings, r.Anomalies.InconsistentKeyRecordings)
	} else {
		fmt.Fprintf(w, "  %s no key anomalies\n", green("✓"))
	}

	printActions(w, res.Actions)
	fmt.Fprintf(w, "\n  %s\n", gray(fmt.Sprintf("completed in %dms", res.DurationMs)))
}

func printStageTable(w io.Writer, r types.Report) {
	yellow := color.New(color.FgYellow).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(w, "  %s\n", yellow("Stages:"))
	fmt.Fprintf(w, "  %-24s %10s %10s %10s %10s %10s %8s\n", "stage", "before", "after", "dropped", "distinct", "distinct'", "merged")
	row := func(m types.StageMetrics) string {
		return fmt.Sprintf("  %-24s %10d %10d %10d %10d %10d %8d",
			m.Stage, m.RowsBefore, m.RowsAfter, m.RowsDropped, m.DistinctTextsBefore, m.DistinctTextsAfter, m.GroupsMerged)
	}
	for _, m := range r.Stages {
		if m.Skipped {
			fmt.Fprintln(w, gray(row(m)+"  (skipped)"))
			continue
		}
		fmt.Fprintln(w, row(m))
	}
	fmt.Fprintln(w, bold(row(r.Summary)))
}

func printActions(w io.Writer, cards []actionable.ActionCard) {
	if len(cards) == 0 {
		return
	}
	yellow := color.New(color.FgYellow).SprintFunc()
	fmt.Fprintf(w, "\n  %s\n", yellow("Advisories:"))
	for i, c := range cards {
		fmt.Fprintf(w, "  %d. %s\n     -> %s\n     %s\n", i+1, c.Insight, c.Action, color.New(color.FgHiBlack).Sprint(c.Impact))
	}
}
