package types

import "strings"

type SpeakerType string

const (
	SpeakerExecutive SpeakerType = "executive"
	SpeakerAnalyst   SpeakerType = "analyst"
	SpeakerOperator  SpeakerType = "operator"
	SpeakerOther     SpeakerType = "other"
)

type SegmentType string

const (
	SegmentPresenterSpeech SegmentType = "presenter_speech"
	SegmentAnswer          SegmentType = "answer"
	SegmentQuestion        SegmentType = "question"
	SegmentOperatorMessage SegmentType = "operator_message"
	SegmentUnknown         SegmentType = "unknown"
)

// Component is one spoken segment of a recording.
type Component struct {
	RecordingID   string      `json:"recording_id"`
	CompanyID     string      `json:"company_id"`
	CompanyName   string      `json:"company_name,omitempty"`
	Headline      string      `json:"headline"`
	EventDate     string      `json:"event_date"` // YYYY-MM-DD when parseable, empty when unknown
	SpeakerType   SpeakerType `json:"speaker_type"`
	SpeakerName   string      `json:"speaker_name,omitempty"`
	SegmentType   SegmentType `json:"segment_type"`
	SequenceIndex int         `json:"sequence_index"`
	Text          string      `json:"text"`
	WordCount     int         `json:"word_count"`
}

// MissingKeyFields lists the natural-key fields this component lacks.
func (c Component) MissingKeyFields() []string {
	var missing []string
	if strings.TrimSpace(c.CompanyID) == "" {
		missing = append(missing, "company_id")
	}
	if strings.TrimSpace(c.Headline) == "" {
		missing = append(missing, "headline")
	}
	if strings.TrimSpace(c.EventDate) == "" {
		missing = append(missing, "event_date")
	}
	return missing
}

// CanonicalComponent is a surviving component attributed to its event.
type CanonicalComponent struct {
	Component
	EventID              string `json:"event_id"`
	CanonicalRecordingID string `json:"canonical_recording_id"`
}

// ParseSpeakerType maps source vocabulary ("Executives", "Analysts", ...) onto SpeakerType.
func ParseSpeakerType(s string) SpeakerType {
	l := strings.ToLower(strings.TrimSpace(s))
	switch {
	case l == "":
		return SpeakerOther
	case strings.HasPrefix(l, "exec"):
		return SpeakerExecutive
	case strings.HasPrefix(l, "analyst"):
		return SpeakerAnalyst
	case strings.HasPrefix(l, "operator"):
		return SpeakerOperator
	default:
		return SpeakerOther
	}
}

// ParseSegmentType maps source vocabulary ("Presenter Speech", "Question", ...) onto SegmentType.
func ParseSegmentType(s string) SegmentType {
	l := strings.ToLower(strings.TrimSpace(s))
	l = strings.ReplaceAll(l, "_", " ")
	switch {
	case l == "":
		return SegmentUnknown
	case strings.Contains(l, "operator"):
		return SegmentOperatorMessage
	case strings.Contains(l, "presenter"):
		return SegmentPresenterSpeech
	case l == "answer":
		return SegmentAnswer
	case l == "question":
		return SegmentQuestion
	default:
		return SegmentUnknown
	}
}
