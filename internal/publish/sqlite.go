package publish

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// SQLitePublisher replaces the components, events and stage_metrics tables
// in one transaction and appends a row to runs.
type SQLitePublisher struct {
	path string
}

func (p *SQLitePublisher) Path() string { return p.path }

func (p *SQLitePublisher) Publish(ctx context.Context, a Artifact) (err error) {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	db, err := sql.Open("sqlite", p.path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	report, err := json.Marshal(a.Report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, table := range []string{"components", "events", "stage_metrics"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO components (event_id, canonical_recording_id, recording_id,
		company_id, company_name, headline, event_date, speaker_type, speaker_name, segment_type, sequence_index,
		text, word_count) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare components insert: %w", err)
	}
	defer stmt.Close()
	for _, r := range a.Rows {
		if _, err = stmt.ExecContext(ctx, r.EventID, r.CanonicalRecordingID, r.RecordingID, r.CompanyID, r.CompanyName,
			r.Headline, r.EventDate, string(r.SpeakerType), r.SpeakerName, string(r.SegmentType), r.SequenceIndex,
			r.Text, r.WordCount); err != nil {
			return fmt.Errorf("insert component: %w", err)
		}
	}

	for _, e := range a.Events {
		if _, err = tx.ExecContext(ctx, `INSERT INTO events (event_id, company_id, company_name, headline, event_date,
			canonical_recording_id, recording_ids, components, isolated, anomaly) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.EventID, e.CompanyID, e.CompanyName, e.Headline, e.EventDate, e.CanonicalRecordingID,
			strings.Join(e.RecordingIDs, ","), e.Components, e.Isolated, e.Anomaly); err != nil {
			return fmt.Errorf("insert event %s: %w", e.EventID, err)
		}
	}

	for _, m := range append(slices.Clone(a.Report.Stages), a.Report.Summary) {
		if _, err = tx.ExecContext(ctx, `INSERT INTO stage_metrics (stage_name, rows_before, rows_after,
			distinct_texts_before, distinct_texts_after, rows_dropped, groups_merged, skipped)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			m.Stage, m.RowsBefore, m.RowsAfter, m.DistinctTextsBefore, m.DistinctTextsAfter,
			m.RowsDropped, m.GroupsMerged, m.Skipped); err != nil {
			return fmt.Errorf("insert stage metrics %s: %w", m.Stage, err)
		}
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO runs (run_id, published_at, report_json) VALUES (?, ?, ?)`,
		a.RunID, time.Now().UTC().Format(time.RFC3339Nano), string(report)); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
