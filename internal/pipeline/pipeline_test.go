package pipeline

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"earnings-dedup-go/internal/dedup"
	"earnings-dedup-go/internal/logger"
	"earnings-dedup-go/internal/records"
	"earnings-dedup-go/internal/types"
)

func newPipeline(opts dedup.Options) *Pipeline {
	return New(opts, logger.Discard().WithComponent("pipeline"))
}

func comp(rec, company, headline, date string, seq int, text string) types.Component {
	return types.Component{
		RecordingID:   rec,
		CompanyID:     company,
		Headline:      headline,
		EventDate:     date,
		SpeakerType:   types.SpeakerExecutive,
		SegmentType:   types.SegmentPresenterSpeech,
		SequenceIndex: seq,
		Text:          text,
	}
}

func fixture() []types.Component {
	return []types.Component{
		// recording 101: A B A C -> A B C
		comp("101", "42", "Q3 Call", "2024-10-24", 0, "A"),
		comp("101", "42", "Q3 Call", "2024-10-24", 1, "B"),
		comp("101", "42", "Q3 Call", "2024-10-24", 2, "A"),
		comp("101", "42", "Q3 Call", "2024-10-24", 3, "C"),
		// recording 202: same event, second capture
		comp("202", "42", "Q3 Call", "2024-10-24", 0, "B"),
		comp("202", "42", "Q3 Call", "2024-10-24", 1, "D"),
		// recording 303: earlier event of the same company repeating "C"
		comp("303", "42", "Q2 Call", "2024-07-25", 0, "C"),
		comp("303", "42", "Q2 Call", "2024-07-25", 1, "E"),
		// recording 404: missing event date
		comp("404", "42", "Q4 Call", "", 0, "F"),
		// recording 505: another company
		comp("505", "7", "Q3 Call", "2024-10-24", 0, "A"),
	}
}

func TestRunEndToEnd(t *testing.T) {
	res, err := newPipeline(dedup.DefaultOptions()).Run(context.Background(), records.NewStore(fixture()))
	require.NoError(t, err)

	r := res.Report
	require.Len(t, r.Stages, 3)
	intra, _ := r.Stage(types.StageIntraRecording)
	assert.Equal(t, 10, intra.RowsBefore)
	assert.Equal(t, 9, intra.RowsAfter)

	merge, _ := r.Stage(types.StageEventMerge)
	assert.Equal(t, 9, merge.RowsBefore)
	assert.Equal(t, 8, merge.RowsAfter)
	assert.Equal(t, 1, merge.GroupsMerged)

	cleanup, _ := r.Stage(types.StageCompanyCleanup)
	assert.Equal(t, 8, cleanup.RowsBefore)
	assert.Equal(t, 7, cleanup.RowsAfter)
	assert.Equal(t, 1, cleanup.RowsDropped)

	assert.Equal(t, types.StageTotal, r.Summary.Stage)
	assert.Equal(t, 10, r.Summary.RowsBefore)
	assert.Equal(t, 7, r.Summary.RowsAfter)
	assert.Equal(t, 3, r.Summary.RowsDropped)
	assert.Equal(t, 6, r.Summary.DistinctTextsBefore)
	assert.Equal(t, 6, r.Summary.DistinctTextsAfter)

	assert.Equal(t, 1, r.Anomalies.MissingKeyRecordings)
	assert.Equal(t, 1, r.Anomalies.MissingKeyComponents)
	assert.Equal(t, 5, r.Recordings)
	assert.Equal(t, 4, r.Events)
	assert.Equal(t, 1, r.RecordingsFolded)
	assert.Equal(t, "enabled", r.CompanyCleanupState)

	// company 7 first, then company 42 by date with the undated event last
	var got []string
	for _, row := range res.Canonical.Rows() {
		got = append(got, row.RecordingID+":"+row.Text)
	}
	assert.Equal(t, []string{"505:A", "303:C", "303:E", "101:A", "101:B", "101:D", "404:F"}, got)
}

func TestRunWithoutCompanyCleanup(t *testing.T) {
	opts := dedup.DefaultOptions()
	opts.CompanyCleanup = false
	res, err := newPipeline(opts).Run(context.Background(), records.NewStore(fixture()))
	require.NoError(t, err)

	cleanup, ok := res.Report.Stage(types.StageCompanyCleanup)
	require.True(t, ok)
	assert.True(t, cleanup.Skipped)
	assert.Equal(t, cleanup.RowsBefore, cleanup.RowsAfter)
	assert.Equal(t, 8, res.Canonical.Len())
	assert.Equal(t, "disabled", res.Report.CompanyCleanupState)
}

func TestRunIsIdempotent(t *testing.T) {
	p := newPipeline(dedup.DefaultOptions())
	first, err := p.Run(context.Background(), records.NewStore(fixture()))
	require.NoError(t, err)

	second, err := p.Run(context.Background(), first.Canonical.AsInput())
	require.NoError(t, err)

	assert.Equal(t, first.Canonical.Rows(), second.Canonical.Rows())
	assert.Equal(t, 0, second.Report.Summary.RowsDropped)
	assert.Equal(t, first.Report.Summary.RowsAfter, second.Report.Summary.RowsAfter)
}

func TestRunEventCountSurvivesRerun(t *testing.T) {
	in := []types.Component{
		comp("601", "9", "Q1 Call", "2024-01-30", 0, "Safe harbor"),
		comp("601", "9", "Q1 Call", "2024-01-30", 1, "Revenue grew"),
		comp("602", "9", "Q2 Call", "2024-04-30", 0, "Safe harbor"),
	}
	p := newPipeline(dedup.DefaultOptions())
	first, err := p.Run(context.Background(), records.NewStore(in))
	require.NoError(t, err)
	assert.Equal(t, 1, first.Report.Events)
	assert.Equal(t, 1, first.Report.EventsEmptied)
	assert.Len(t, first.Canonical.Events(), 2)

	second, err := p.Run(context.Background(), first.Canonical.AsInput())
	require.NoError(t, err)
	assert.Equal(t, first.Report.Events, second.Report.Events)
	assert.Equal(t, 0, second.Report.EventsEmptied)
	assert.Equal(t, first.Canonical.Rows(), second.Canonical.Rows())
}

func TestRunIsDeterministic(t *testing.T) {
	in := fixture()
	p := newPipeline(dedup.Options{CompanyCleanup: true, Workers: 8})
	want, err := p.Run(context.Background(), records.NewStore(in))
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := append([]types.Component(nil), in...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got, err := p.Run(context.Background(), records.NewStore(shuffled))
		require.NoError(t, err)
		assert.Equal(t, want.Canonical.Rows(), got.Canonical.Rows())
		assert.Equal(t, want.Canonical.Events(), got.Canonical.Events())
		assert.Equal(t, want.Report, got.Report)
	}
}

func TestRunEmptyInput(t *testing.T) {
	res, err := newPipeline(dedup.DefaultOptions()).Run(context.Background(), records.NewStore(nil))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Canonical.Len())
	require.Len(t, res.Report.Stages, 3)
	for _, s := range res.Report.Stages {
		assert.Zero(t, s.RowsBefore)
		assert.Zero(t, s.RowsAfter)
	}
}

func TestRunPreservesSpeechOrder(t *testing.T) {
	in := []types.Component{
		comp("9", "1", "Call", "2024-01-01", 10, "third"),
		comp("9", "1", "Call", "2024-01-01", 2, "first"),
		comp("9", "1", "Call", "2024-01-01", 5, "second"),
	}
	res, err := newPipeline(dedup.DefaultOptions()).Run(context.Background(), records.NewStore(in))
	require.NoError(t, err)

	rows := res.Canonical.Rows()
	require.Len(t, rows, 3)
	for i, want := range []string{"first", "second", "third"} {
		assert.Equal(t, want, rows[i].Text)
		assert.Equal(t, i, rows[i].SequenceIndex)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newPipeline(dedup.DefaultOptions()).Run(ctx, records.NewStore(fixture()))
	assert.ErrorIs(t, err, context.Canceled)
}
