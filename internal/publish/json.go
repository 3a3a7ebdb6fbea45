package publish

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// JSONPublisher writes the whole artifact as one indented document.
type JSONPublisher struct {
	path string
}

func (p *JSONPublisher) Path() string { return p.path }

func (p *JSONPublisher) Publish(ctx context.Context, a Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeAtomic(p.path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(a); err != nil {
			return fmt.Errorf("encode artifact: %w", err)
		}
		return nil
	})
}

// JSONLPublisher writes one canonical row per line. The report and event
// listing go to a <path>.report.json sidecar. Both files are staged before
// either is renamed, and the rows rename commits the run: if it fails the
// previous sidecar is put back.
type JSONLPublisher struct {
	path string
}

func (p *JSONLPublisher) Path() string { return p.path }

func (p *JSONLPublisher) ReportPath() string { return p.path + ".report.json" }

func (p *JSONLPublisher) Publish(ctx context.Context, a Artifact) (err error) {
	sidecar := struct {
		RunID  string `json:"run_id"`
		Report any    `json:"report"`
		Events any    `json:"events"`
	}{a.RunID, a.Report, a.Events}

	if err := ctx.Err(); err != nil {
		return err
	}
	rowsTmp, err := stageFile(p.path, func(w io.Writer) error {
		bw := bufio.NewWriter(w)
		enc := json.NewEncoder(bw)
		for i, r := range a.Rows {
			if err := enc.Encode(r); err != nil {
				return fmt.Errorf("encode row %d: %w", i, err)
			}
		}
		return bw.Flush()
	})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(rowsTmp)
		}
	}()

	reportTmp, err := stageFile(p.ReportPath(), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(sidecar)
	})
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	defer func() {
		if err != nil {
			os.Remove(reportTmp)
		}
	}()

	if err = ctx.Err(); err != nil {
		return err
	}
	prev, err := os.ReadFile(p.ReportPath())
	hadPrev := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read previous report: %w", err)
	}

	if err = os.Rename(reportTmp, p.ReportPath()); err != nil {
		return fmt.Errorf("publish %s: %w", p.ReportPath(), err)
	}
	if err = os.Rename(rowsTmp, p.path); err != nil {
		err = fmt.Errorf("publish %s: %w", p.path, err)
		if rerr := p.restoreReport(prev, hadPrev); rerr != nil {
			return errors.Join(err, rerr)
		}
		return err
	}
	return nil
}

func (p *JSONLPublisher) restoreReport(prev []byte, hadPrev bool) error {
	if !hadPrev {
		if err := os.Remove(p.ReportPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove report: %w", err)
		}
		return nil
	}
	if err := writeAtomic(p.ReportPath(), func(w io.Writer) error {
		_, err := w.Write(prev)
		return err
	}); err != nil {
		return fmt.Errorf("restore report: %w", err)
	}
	return nil
}
