package dataset

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"earnings-dedup-go/internal/logger"
	"earnings-dedup-go/internal/types"
)

// Loader reads component datasets from local files or http(s) URLs.
type Loader struct {
	fetcher *Fetcher
	log     *logrus.Entry
}

func NewLoader(log *logrus.Entry, fetchTimeout time.Duration) *Loader {
	if log == nil {
		log = logger.New().WithComponent("dataset")
	}
	return &Loader{fetcher: NewFetcher(log, fetchTimeout), log: log}
}

// Load reads components from path. The format follows the extension:
// .xlsx, .json, .jsonl, .db or .sqlite.
func (l *Loader) Load(ctx context.Context, path string) ([]types.Component, error) {
	if IsRemote(path) {
		local, cleanup, err := l.fetcher.Fetch(ctx, path)
		if err != nil {
			return nil, err
		}
		defer cleanup()
		path = local
	}

	log := l.log.WithField("path", path)
	log.Info("loading dataset")

	var (
		out []types.Component
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx":
		out, err = LoadXLSX(path)
	case ".json":
		out, err = loadFile(path, ReadJSON)
	case ".jsonl", ".ndjson":
		out, err = loadFile(path, ReadJSONL)
	case ".db", ".sqlite", ".sqlite3":
		out, err = LoadSQLite(ctx, path)
	default:
		return nil, fmt.Errorf("unsupported input format %q", ext)
	}
	if err != nil {
		log.WithError(err).Error("load failed")
		return nil, err
	}
	log.WithField("components", len(out)).Info("dataset loaded")
	return out, nil
}

func loadFile(path string, read func(io.Reader) ([]types.Component, error)) ([]types.Component, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	return read(f)
}

// LoadXLSX reads the first sheet of an Excel workbook. The header row decides
// which column feeds which field.
func LoadXLSX(path string) ([]types.Component, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no header row")
	}
	idx, err := columnIndex(rows[0])
	if err != nil {
		return nil, err
	}

	var out []types.Component
	for i, r := range rows[1:] {
		if blankRow(r) {
			continue
		}
		fields := make(map[string]string, len(idx))
		for name, col := range idx {
			if col < len(r) {
				fields[name] = r[col]
			}
		}
		c, err := buildComponent(fields)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func blankRow(r []string) bool {
	for _, v := range r {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ReadJSON decodes a JSON array of component objects.
func ReadJSON(r io.Reader) ([]types.Component, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var objs []map[string]any
	if err := dec.Decode(&objs); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	out := make([]types.Component, 0, len(objs))
	for i, o := range objs {
		c, err := componentFromObject(o)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// ReadJSONL decodes one component object per line. Blank lines are skipped.
func ReadJSONL(r io.Reader) ([]types.Component, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var out []types.Component
	line := 0
	for sc.Scan() {
		line++
		b := strings.TrimSpace(sc.Text())
		if b == "" {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(b))
		dec.UseNumber()
		var o map[string]any
		if err := dec.Decode(&o); err != nil {
			return nil, fmt.Errorf("line %d: decode json: %w", line, err)
		}
		c, err := componentFromObject(o)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, c)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read jsonl: %w", err)
	}
	return out, nil
}

func componentFromObject(o map[string]any) (types.Component, error) {
	fields := make(map[string]string, len(o))
	for k, v := range o {
		f := canonicalField(k)
		if f == "" {
			continue
		}
		if _, dup := fields[f]; dup {
			continue
		}
		fields[f] = stringify(v)
	}
	if _, ok := fields[fieldText]; !ok {
		return types.Component{}, fmt.Errorf("missing text field")
	}
	return buildComponent(fields)
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case []byte:
		return string(t)
	case time.Time:
		return t.Format("2006-01-02")
	default:
		return fmt.Sprint(t)
	}
}
