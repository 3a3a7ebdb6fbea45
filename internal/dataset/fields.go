package dataset

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"earnings-dedup-go/internal/dedup"
	"earnings-dedup-go/internal/types"
)

const (
	fieldRecordingID = "recording_id"
	fieldCompanyID   = "company_id"
	fieldCompanyName = "company_name"
	fieldHeadline    = "headline"
	fieldEventDate   = "event_date"
	fieldSpeakerType = "speaker_type"
	fieldSpeakerName = "speaker_name"
	fieldSegmentType = "segment_type"
	fieldSequence    = "sequence_index"
	fieldText        = "text"
	fieldWordCount   = "word_count"
)

// header aliases, lower-case with spaces folded to underscores
var fieldAliases = map[string]string{
	"recording_id":                fieldRecordingID,
	"transcriptid":                fieldRecordingID,
	"transcript_id":               fieldRecordingID,
	"company_id":                  fieldCompanyID,
	"companyid":                   fieldCompanyID,
	"company_name":                fieldCompanyName,
	"companyname":                 fieldCompanyName,
	"headline":                    fieldHeadline,
	"event_date":                  fieldEventDate,
	"mostimportantdateutc":        fieldEventDate,
	"speaker_type":                fieldSpeakerType,
	"speakertypename":             fieldSpeakerType,
	"speaker_name":                fieldSpeakerName,
	"transcriptpersonname":        fieldSpeakerName,
	"segment_type":                fieldSegmentType,
	"transcriptcomponenttypename": fieldSegmentType,
	"sequence_index":              fieldSequence,
	"componentorder":              fieldSequence,
	"text":                        fieldText,
	"componenttext":               fieldText,
	"word_count":                  fieldWordCount,
}

// canonicalField maps a source column name onto a component field, or "".
func canonicalField(name string) string {
	k := strings.ToLower(strings.TrimSpace(name))
	k = strings.ReplaceAll(k, " ", "_")
	return fieldAliases[k]
}

// columnIndex resolves header positions. recording_id and text are required.
func columnIndex(header []string) (map[string]int, error) {
	idx := map[string]int{}
	for i, h := range header {
		f := canonicalField(h)
		if f == "" {
			continue
		}
		if _, dup := idx[f]; !dup {
			idx[f] = i
		}
	}
	for _, req := range []string{fieldRecordingID, fieldText} {
		if _, ok := idx[req]; !ok {
			return nil, fmt.Errorf("required column %q not found in header", req)
		}
	}
	return idx, nil
}

// buildComponent converts one source row, already keyed by field, into a Component.
func buildComponent(fields map[string]string) (types.Component, error) {
	c := types.Component{
		RecordingID: normalizeID(fields[fieldRecordingID]),
		CompanyID:   normalizeID(fields[fieldCompanyID]),
		CompanyName: strings.TrimSpace(fields[fieldCompanyName]),
		Headline:    fields[fieldHeadline],
		EventDate:   NormalizeDate(fields[fieldEventDate]),
		SpeakerType: types.ParseSpeakerType(fields[fieldSpeakerType]),
		SpeakerName: strings.TrimSpace(fields[fieldSpeakerName]),
		SegmentType: types.ParseSegmentType(fields[fieldSegmentType]),
		Text:        fields[fieldText],
	}
	if c.RecordingID == "" {
		return types.Component{}, fmt.Errorf("empty recording_id")
	}

	if s := strings.TrimSpace(fields[fieldSequence]); s != "" {
		n, err := parseInt(s)
		if err != nil {
			return types.Component{}, fmt.Errorf("sequence_index %q: %w", s, err)
		}
		c.SequenceIndex = n
	}
	if s := strings.TrimSpace(fields[fieldWordCount]); s != "" {
		n, err := parseInt(s)
		if err != nil {
			return types.Component{}, fmt.Errorf("word_count %q: %w", s, err)
		}
		c.WordCount = n
	} else {
		c.WordCount = len(strings.Fields(c.Text))
	}
	return c, nil
}

var integralFloat = regexp.MustCompile(`^(-?\d+)\.0+$`)

// normalizeID trims an identifier and drops a zero fraction left by spreadsheet export ("123.0").
func normalizeID(s string) string {
	s = strings.TrimSpace(s)
	if m := integralFloat.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

func parseInt(s string) (int, error) {
	if m := integralFloat.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	return strconv.Atoi(s)
}

// NormalizeDate renders recognizable dates as YYYY-MM-DD. Excel serial dates
// between 1954 and 2173 are accepted. Anything else is returned trimmed but otherwise verbatim.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if t, ok := dedup.ParseDate(s); ok {
		return t.Format("2006-01-02")
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 20000 && f < 100000 {
		if t, err := excelize.ExcelDateToTime(f, false); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}
