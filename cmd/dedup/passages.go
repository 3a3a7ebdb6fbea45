package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"earnings-dedup-go/internal/aggregator"
	"earnings-dedup-go/internal/dataset"
	"earnings-dedup-go/internal/processor"
)

var passagesFlags struct {
	input string
	all   bool
	limit int
}

var passagesCmd = &cobra.Command{
	Use:   "passages",
	Short: "Print one joined passage per canonical event",
	Long: `Deduplicate --input in memory and print one passage per event. By default
only prepared executive remarks are included; --all keeps every segment.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		input := passagesFlags.input
		if input == "" {
			input = cfg.Input
		}
		if input == "" {
			return errors.New("no input: pass --input or set DEDUP_INPUT")
		}
		comps, err := dataset.NewLoader(log.WithComponent("dataset"), cfg.FetchTimeout).Load(cmd.Context(), input)
		if err != nil {
			return err
		}
		comps = dataset.FilterCompanies(comps, cfg.CompanyLimit)

		res, err := processor.New(cfg, log).ProcessComponents(cmd.Context(), comps)
		if err != nil {
			return err
		}
		filter := aggregator.Filter(aggregator.DefaultFilter)
		if passagesFlags.all {
			filter = aggregator.All
		}
		passages := aggregator.Aggregate(res.Components, filter)
		if passagesFlags.limit > 0 && len(passages) > passagesFlags.limit {
			passages = passages[:passagesFlags.limit]
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), passages)
		}
		w := cmd.OutOrStdout()
		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()
		for _, p := range passages {
			fmt.Fprintf(w, "\n%s\n", cyan(fmt.Sprintf("%s - %s (%s)", firstNonEmpty(p.CompanyName, p.CompanyID), p.Headline, p.EventDate)))
			fmt.Fprintf(w, "%s\n\n", gray(fmt.Sprintf("event %s, recording %s, %d components, %d words",
				p.EventID, p.CanonicalRecordingID, p.Components, p.TotalWords)))
			fmt.Fprintln(w, p.Text)
		}
		return nil
	},
}

func init() {
	f := passagesCmd.Flags()
	f.StringVarP(&passagesFlags.input, "input", "i", "", "Input dataset path or URL")
	f.BoolVar(&passagesFlags.all, "all", false, "Include every speaker and segment type")
	f.IntVar(&passagesFlags.limit, "limit", 0, "Print at most N passages")
	rootCmd.AddCommand(passagesCmd)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
