package publish

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"earnings-dedup-go/internal/types"
)

func artifact(runID string, texts ...string) Artifact {
	a := Artifact{
		RunID: runID,
		Report: types.Report{
			Stages: []types.StageMetrics{
				{Stage: types.StageIntraRecording, RowsBefore: 4, RowsAfter: 3, RowsDropped: 1},
				{Stage: types.StageEventMerge, RowsBefore: 3, RowsAfter: 3},
				{Stage: types.StageCompanyCleanup, RowsBefore: 3, RowsAfter: 3},
			},
			Summary:             types.StageMetrics{Stage: types.StageTotal, RowsBefore: 4, RowsAfter: 3, RowsDropped: 1},
			Events:              1,
			CompanyCleanupState: "enabled",
		},
		Events: []types.EventRecord{{
			EventID: "e1", CompanyID: "42", Headline: "Q3", EventDate: "2024-10-24",
			CanonicalRecordingID: "101", RecordingIDs: []string{"101", "202"}, Components: len(texts),
		}},
	}
	for i, t := range texts {
		a.Rows = append(a.Rows, types.CanonicalComponent{
			Component: types.Component{RecordingID: "101", CompanyID: "42", Headline: "Q3", EventDate: "2024-10-24",
				SpeakerType: types.SpeakerExecutive, SegmentType: types.SegmentAnswer, SequenceIndex: i, Text: t, WordCount: 1},
			EventID:              "e1",
			CanonicalRecordingID: "101",
		})
	}
	return a
}

func TestForPath(t *testing.T) {
	for path, want := range map[string]any{
		"out.json":     &JSONPublisher{},
		"out.JSONL":    &JSONLPublisher{},
		"out.xlsx":     &XLSXPublisher{},
		"out.db":       &SQLitePublisher{},
		"out.sqlite":   &SQLitePublisher{},
		"dir/x.sqlite": &SQLitePublisher{},
	} {
		p, err := ForPath(path)
		require.NoError(t, err, path)
		assert.IsType(t, want, p, path)
		assert.Equal(t, path, p.Path())
	}
	_, err := ForPath("out.csv")
	assert.Error(t, err)
}

func TestJSONPublisherReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "canonical.json")
	p, err := ForPath(path)
	require.NoError(t, err)

	require.NoError(t, p.Publish(context.Background(), artifact("r1", "A", "B")))
	require.NoError(t, p.Publish(context.Background(), artifact("r2", "A", "B", "C")))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var got Artifact
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "r2", got.RunID)
	assert.Len(t, got.Rows, 3)
	assert.Equal(t, "e1", got.Rows[2].EventID)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestPublishFailureKeepsPreviousArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canonical.json")
	p := &JSONPublisher{path: path}
	require.NoError(t, p.Publish(context.Background(), artifact("r1", "A")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, p.Publish(ctx, artifact("r2", "B")))

	err := writeAtomic(path, func(w io.Writer) error { return assert.AnError })
	assert.ErrorIs(t, err, assert.AnError)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"run_id": "r1"`)
}

func TestJSONLPublishFailureKeepsPreviousReport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "canonical.jsonl")
	p := &JSONLPublisher{path: path}
	require.NoError(t, p.Publish(context.Background(), artifact("r1", "A")))

	// a non-empty directory at the rows path makes the final rename fail
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.MkdirAll(filepath.Join(path, "blocker"), 0o755))

	err := p.Publish(context.Background(), artifact("r2", "B"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "canonical.jsonl")

	b, err := os.ReadFile(p.ReportPath())
	require.NoError(t, err)
	assert.Contains(t, string(b), `"run_id": "r1"`)
	assert.NotContains(t, string(b), `"run_id": "r2"`)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"canonical.jsonl", "canonical.jsonl.report.json"}, names)
}

func TestJSONLPublishFailureWithoutPreviousReport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "canonical.jsonl")
	require.NoError(t, os.MkdirAll(filepath.Join(path, "blocker"), 0o755))

	p := &JSONLPublisher{path: path}
	require.Error(t, p.Publish(context.Background(), artifact("r1", "A")))
	assert.NoFileExists(t, p.ReportPath())
}

func TestJSONLPublisher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canonical.jsonl")
	p := &JSONLPublisher{path: path}
	require.NoError(t, p.Publish(context.Background(), artifact("r1", "A", "B")))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	sc := bufio.NewScanner(f)
	var rows []types.CanonicalComponent
	for sc.Scan() {
		var r types.CanonicalComponent
		require.NoError(t, json.Unmarshal(sc.Bytes(), &r))
		rows = append(rows, r)
	}
	require.Len(t, rows, 2)
	assert.Equal(t, "B", rows[1].Text)

	b, err := os.ReadFile(p.ReportPath())
	require.NoError(t, err)
	var side struct {
		RunID  string       `json:"run_id"`
		Report types.Report `json:"report"`
	}
	require.NoError(t, json.Unmarshal(b, &side))
	assert.Equal(t, "r1", side.RunID)
	assert.Equal(t, 1, side.Report.Summary.RowsDropped)
}

func TestXLSXPublisher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canonical.xlsx")
	require.NoError(t, (&XLSXPublisher{path: path}).Publish(context.Background(), artifact("r1", "A", "B")))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{sheetComponents, sheetEvents, sheetMetrics}, f.GetSheetList())

	rows, err := f.GetRows(sheetComponents)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "event_id", rows[0][0])
	assert.Equal(t, "A", rows[1][11])

	rows, err = f.GetRows(sheetEvents)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "101,202", rows[1][6])

	rows, err = f.GetRows(sheetMetrics)
	require.NoError(t, err)
	assert.Equal(t, types.StageIntraRecording, rows[1][0])
	assert.Equal(t, types.StageTotal, rows[4][0])
}

func TestSQLitePublisher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canonical.db")
	p := &SQLitePublisher{path: path}
	ctx := context.Background()
	require.NoError(t, p.Publish(ctx, artifact("r1", "A", "B", "C")))
	require.NoError(t, p.Publish(ctx, artifact("r2", "A", "B")))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM components`).Scan(&n))
	assert.Equal(t, 2, n)
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&n))
	assert.Equal(t, 1, n)
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM stage_metrics`).Scan(&n))
	assert.Equal(t, 4, n)
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&n))
	assert.Equal(t, 2, n)

	var text string
	require.NoError(t, db.QueryRow(`SELECT text FROM components WHERE sequence_index = 1`).Scan(&text))
	assert.Equal(t, "B", text)
}

func TestSQLitePublisherRollsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canonical.db")
	p := &SQLitePublisher{path: path}
	ctx := context.Background()
	require.NoError(t, p.Publish(ctx, artifact("r1", "A", "B")))

	// duplicate run id violates the runs primary key after all other tables were rewritten
	assert.Error(t, p.Publish(ctx, artifact("r1", "X")))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM components`).Scan(&n))
	assert.Equal(t, 2, n)
}
