package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"earnings-dedup-go/internal/types"
)

func row(event string, st types.SpeakerType, seg types.SegmentType, speaker, text string, words int) types.CanonicalComponent {
	return types.CanonicalComponent{
		Component: types.Component{SpeakerType: st, SegmentType: seg, SpeakerName: speaker, Text: text, WordCount: words, CompanyID: "42"},
		EventID:   event,
	}
}

func TestAggregateDefaultFilter(t *testing.T) {
	rows := []types.CanonicalComponent{
		row("e2", types.SpeakerExecutive, types.SegmentPresenterSpeech, "CEO", "Revenue grew.", 2),
		row("e2", types.SpeakerOperator, types.SegmentOperatorMessage, "", "First question.", 2),
		row("e2", types.SpeakerExecutive, types.SegmentPresenterSpeech, "CFO", "Margins held.", 2),
		row("e1", types.SpeakerAnalyst, types.SegmentQuestion, "Analyst", "Why?", 1),
		row("e2", types.SpeakerExecutive, types.SegmentPresenterSpeech, "CEO", "Thanks.", 1),
	}
	out := Aggregate(rows, DefaultFilter)
	require.Len(t, out, 1)
	p := out[0]
	assert.Equal(t, "e2", p.EventID)
	assert.Equal(t, "Revenue grew.\n\nMargins held.\n\nThanks.", p.Text)
	assert.Equal(t, 3, p.Components)
	assert.Equal(t, 5, p.TotalWords)
	assert.Equal(t, []string{"CEO", "CFO"}, p.Speakers)
	assert.Equal(t, 3, p.SegmentCounts["presenter_speech"])
}

func TestAggregateAllKeepsEventOrder(t *testing.T) {
	rows := []types.CanonicalComponent{
		row("e2", types.SpeakerOperator, types.SegmentOperatorMessage, "", "Welcome.", 1),
		row("e1", types.SpeakerAnalyst, types.SegmentQuestion, "", "Why?", 1),
	}
	out := Aggregate(rows, nil)
	require.Len(t, out, 2)
	assert.Equal(t, "e2", out[0].EventID)
	assert.Equal(t, "e1", out[1].EventID)
	assert.Empty(t, Aggregate(nil, nil))
}
