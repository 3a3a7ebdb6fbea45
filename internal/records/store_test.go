package records

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"earnings-dedup-go/internal/types"
)

func TestStoreIsImmutable(t *testing.T) {
	in := []types.Component{{RecordingID: "1", Text: "A"}, {RecordingID: "1", Text: "B"}}
	s := NewStore(in)

	in[0].Text = "mutated"
	assert.Equal(t, "A", s.Components()[0].Text)

	out := s.Components()
	out[1].Text = "mutated"
	assert.Equal(t, "B", s.Components()[1].Text)
	assert.Equal(t, 2, s.Len())
}

func TestNilStores(t *testing.T) {
	var s *Store
	assert.Equal(t, 0, s.Len())
	assert.Nil(t, s.Components())

	var c *CanonicalStore
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Rows())
	assert.Empty(t, c.Events())
	assert.Equal(t, 0, c.AsInput().Len())
}

func TestCanonicalStoreAsInput(t *testing.T) {
	rows := []types.CanonicalComponent{
		{Component: types.Component{RecordingID: "101", Text: "A", SequenceIndex: 0}, EventID: "e1", CanonicalRecordingID: "101"},
		{Component: types.Component{RecordingID: "101", Text: "B", SequenceIndex: 1}, EventID: "e1", CanonicalRecordingID: "101"},
	}
	events := []types.EventRecord{{EventID: "e1", CanonicalRecordingID: "101", RecordingIDs: []string{"101", "202"}}}
	c := NewCanonicalStore(rows, events)

	events[0].RecordingIDs[1] = "mutated"
	require.Len(t, c.Events(), 1)
	assert.Equal(t, []string{"101", "202"}, c.Events()[0].RecordingIDs)

	in := c.AsInput()
	require.Equal(t, 2, in.Len())
	got := in.Components()
	assert.Equal(t, "A", got[0].Text)
	assert.Equal(t, 1, got[1].SequenceIndex)
}
