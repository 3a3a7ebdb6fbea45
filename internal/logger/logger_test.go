package logger

import (
	"bytes"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"earnings-dedup-go/internal/types"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]logrus.Level{
		"debug": logrus.DebugLevel,
		"warn":  logrus.WarnLevel,
		"error": logrus.ErrorLevel,
		"":      logrus.InfoLevel,
		"bogus": logrus.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestJSONOutputOutsideLocal(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	var buf bytes.Buffer
	l := NewWithOutput(&buf)

	l.WithComponent("pipeline").WithFields(StageFields(types.StageMetrics{Stage: types.StageEventMerge, RowsBefore: 4, RowsAfter: 3, RowsDropped: 1})).Info("stage complete")

	out := buf.String()
	assert.Contains(t, out, `"component":"pipeline"`)
	assert.Contains(t, out, `"stage":"event_merge"`)
	assert.Contains(t, out, `"rows_dropped":1`)
}

func TestWithRequestUsesHeader(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput(&buf)

	r := httptest.NewRequest("POST", "/process", nil)
	r.Header.Set("X-Request-ID", "abc-123")
	e := l.WithRequest(r)
	assert.Equal(t, "abc-123", e.Data["req_id"])
	assert.Equal(t, "/process", e.Data["path"])

	r = httptest.NewRequest("GET", "/healthz", nil)
	assert.NotEmpty(t, l.WithRequest(r).Data["req_id"])
}

func TestWithError(t *testing.T) {
	l := Discard()
	assert.Equal(t, l.Entry, l.WithError(nil))
	assert.Equal(t, "boom", l.WithError(errors.New("boom")).Data["error"])
}
