package publish

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	sheetComponents = "Components"
	sheetEvents     = "Events"
	sheetMetrics    = "Metrics"
)

// XLSXPublisher writes a workbook with Components, Events and Metrics sheets.
type XLSXPublisher struct {
	path string
}

func (p *XLSXPublisher) Path() string { return p.path }

func (p *XLSXPublisher) Publish(ctx context.Context, a Artifact) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetComponents); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, s := range []string{sheetEvents, sheetMetrics} {
		if _, err := f.NewSheet(s); err != nil {
			return fmt.Errorf("new sheet %s: %w", s, err)
		}
	}

	rows := [][]any{{"event_id", "canonical_recording_id", "recording_id", "company_id", "company_name", "headline",
		"event_date", "speaker_type", "speaker_name", "segment_type", "sequence_index", "text", "word_count"}}
	for _, r := range a.Rows {
		rows = append(rows, []any{r.EventID, r.CanonicalRecordingID, r.RecordingID, r.CompanyID, r.CompanyName, r.Headline,
			r.EventDate, string(r.SpeakerType), r.SpeakerName, string(r.SegmentType), r.SequenceIndex, r.Text, r.WordCount})
	}
	if err := writeRows(f, sheetComponents, rows); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	rows = [][]any{{"event_id", "company_id", "company_name", "headline", "event_date", "canonical_recording_id",
		"recording_ids", "components", "isolated", "anomaly"}}
	for _, e := range a.Events {
		rows = append(rows, []any{e.EventID, e.CompanyID, e.CompanyName, e.Headline, e.EventDate, e.CanonicalRecordingID,
			strings.Join(e.RecordingIDs, ","), e.Components, e.Isolated, e.Anomaly})
	}
	if err := writeRows(f, sheetEvents, rows); err != nil {
		return err
	}

	rows = [][]any{{"stage_name", "rows_before", "rows_after", "distinct_texts_before", "distinct_texts_after",
		"rows_dropped", "groups_merged", "skipped"}}
	for _, m := range append(slices.Clone(a.Report.Stages), a.Report.Summary) {
		rows = append(rows, []any{m.Stage, m.RowsBefore, m.RowsAfter, m.DistinctTextsBefore, m.DistinctTextsAfter,
			m.RowsDropped, m.GroupsMerged, m.Skipped})
	}
	rows = append(rows, []any{}, []any{"run_id", a.RunID}, []any{"company_cleanup", a.Report.CompanyCleanupState})
	if err := writeRows(f, sheetMetrics, rows); err != nil {
		return err
	}

	return writeAtomic(p.path, func(w io.Writer) error {
		if _, err := f.WriteTo(w); err != nil {
			return fmt.Errorf("write workbook: %w", err)
		}
		return nil
	})
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("stream writer %s: %w", sheet, err)
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, r); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", sheet, err)
	}
	return nil
}
