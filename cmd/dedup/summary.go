package main

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"earnings-dedup-go/internal/dataset"
)

var summaryInput string

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Profile a component dataset without deduplicating it",
	RunE: func(cmd *cobra.Command, args []string) error {
		input := summaryInput
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
		ds := dataset.Summarize(comps, nil)
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), ds)
		}
		printSummary(cmd.OutOrStdout(), input, ds)
		return nil
	},
}

func init() {
	summaryCmd.Flags().StringVarP(&summaryInput, "input", "i", "", "Input dataset path or URL")
	rootCmd.AddCommand(summaryCmd)
}

func printSummary(w io.Writer, input string, ds dataset.DatasetSummary) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	fmt.Fprintf(w, "\n%s\n", cyan("=== Dataset Summary ==="))
	fmt.Fprintf(w, "  Input:          %s\n", input)
	fmt.Fprintf(w, "  Components:     %d\n", ds.Components)
	fmt.Fprintf(w, "  Companies:      %d\n", ds.Companies)
	fmt.Fprintf(w, "  Recordings:     %d\n", ds.Recordings)
	fmt.Fprintf(w, "  Events:         %d\n", ds.Events)
	fmt.Fprintf(w, "  Distinct texts: %d (%.1f%% duplicated)\n", ds.DistinctTexts, ds.DuplicationRatio()*100)
	fmt.Fprintf(w, "  Words:          %d (avg %.1f per component)\n", ds.TotalWords, ds.AvgWordsPerRow)
	if ds.MissingKeyComponents > 0 {
		fmt.Fprintf(w, "  Missing key:    %s\n", yellow(fmt.Sprintf("%d components", ds.MissingKeyComponents)))
	}
	printDistribution(w, "Speaker types:", ds.BySpeakerType)
	printDistribution(w, "Segment types:", ds.BySegmentType)
}

func printDistribution(w io.Writer, title string, m map[string]int) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(w, "\n  %s\n", color.New(color.FgYellow).Sprint(title))
	for _, k := range keys {
		fmt.Fprintf(w, "    %-20s %d\n", k, m[k])
	}
}
