package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSpeakerType(t *testing.T) {
	tests := []struct {
		in   string
		want SpeakerType
	}{
		{"Executives", SpeakerExecutive},
		{"executive", SpeakerExecutive},
		{"Analysts", SpeakerAnalyst},
		{"Operator", SpeakerOperator},
		{"Shareholders", SpeakerOther},
		{"", SpeakerOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseSpeakerType(tt.in), "input %q", tt.in)
	}
}

func TestParseSegmentType(t *testing.T) {
	tests := []struct {
		in   string
		want SegmentType
	}{
		{"Presenter Speech", SegmentPresenterSpeech},
		{"presenter_speech", SegmentPresenterSpeech},
		{"Answer", SegmentAnswer},
		{"Question", SegmentQuestion},
		{"Presentation Operator Message", SegmentOperatorMessage},
		{"Question and Answer Operator Message", SegmentOperatorMessage},
		{"Unknown Question and Answer Message", SegmentUnknown},
		{"", SegmentUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseSegmentType(tt.in), "input %q", tt.in)
	}
}

func TestMissingKeyFields(t *testing.T) {
	c := Component{CompanyID: "7", Headline: "Q1 2024 Earnings Call", EventDate: "2024-04-25"}
	assert.Empty(t, c.MissingKeyFields())

	c.EventDate = ""
	assert.Equal(t, []string{"event_date"}, c.MissingKeyFields())

	c.CompanyID = "  "
	c.Headline = ""
	assert.Equal(t, []string{"company_id", "headline", "event_date"}, c.MissingKeyFields())
}

func TestReportStageLookup(t *testing.T) {
	r := Report{Stages: []StageMetrics{{Stage: StageIntraRecording, RowsDropped: 2}, {Stage: StageEventMerge}}}
	s, ok := r.Stage(StageIntraRecording)
	assert.True(t, ok)
	assert.Equal(t, 2, s.RowsDropped)

	_, ok = r.Stage(StageCompanyCleanup)
	assert.False(t, ok)
}
