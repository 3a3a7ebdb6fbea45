package dedup

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	eventNamespace    = uuid.NewSHA1(uuid.NameSpaceOID, []byte("earnings-dedup/event"))
	isolatedNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("earnings-dedup/isolated-recording"))
)

// EventID derives a stable event id from a natural key.
func EventID(key EventKey) string {
	data := fmt.Sprintf("%d:%s|%d:%s|%d:%s",
		len(key.CompanyID), key.CompanyID,
		len(key.Headline), key.Headline,
		len(key.EventDate), key.EventDate)
	return uuid.NewSHA1(eventNamespace, []byte(data)).String()
}

// IsolatedEventID is the event id of a recording that could not be grouped.
func IsolatedEventID(recordingID string) string {
	return uuid.NewSHA1(isolatedNamespace, []byte(recordingID)).String()
}

// CompareIDs orders opaque identifiers. Base-10 integers compare numerically
// and sort before any other id; everything else compares byte-wise.
func CompareIDs(a, b string) int {
	na, aok := numericID(a)
	nb, bok := numericID(b)
	switch {
	case aok && bok:
		if len(na) != len(nb) {
			if len(na) < len(nb) {
				return -1
			}
			return 1
		}
		if c := strings.Compare(na, nb); c != 0 {
			return c
		}
	case aok:
		return -1
	case bok:
		return 1
	}
	return strings.Compare(a, b)
}

// numericID strips leading zeros from an all-digit id.
func numericID(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return "", false
		}
	}
	t := strings.TrimLeft(s, "0")
	if t == "" {
		t = "0"
	}
	return t, true
}
