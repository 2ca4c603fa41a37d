package eventio

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/mctag/internal/event"
	"github.com/banshee-data/mctag/internal/strip"
)

func TestWriter_RoundTripsTaggedCollection(t *testing.T) {
	ev := event.New(event.ID{Run: 9, Lumi: 1, Event: 77})
	tagged := strip.NewDetSetVector()
	f := tagged.StartGroup(11)
	f.Push(strip.Cluster{FirstStrip: 3, Amplitudes: []uint8{1, 2}})
	f.Push(strip.Cluster{FirstStrip: 20, Amplitudes: []uint8{200, 255, 90}, Merged: true})
	require.NoError(t, ev.Put("taggedClusters", tagged))
	require.NoError(t, ev.Put("siStripClusters", strip.NewDetSetVector()))

	var buf bytes.Buffer
	w := NewWriter(&buf, "taggedClusters", "absent")
	require.NoError(t, w.Write(ev))
	assert.Equal(t, 1, w.Count())
	assert.NotContains(t, buf.String(), "siStripClusters")

	got, err := NewReader(&buf).Next()
	require.NoError(t, err)
	assert.Equal(t, ev.ID, got.ID)
	assert.Nil(t, got.Truth)
	assert.Equal(t, []string{"taggedClusters"}, got.Labels())

	back, ok := got.Clusters("taggedClusters")
	require.True(t, ok)
	want, _ := tagged.Find(11)
	have, ok := back.Find(11)
	require.True(t, ok)
	if diff := cmp.Diff(want, have); diff != "" {
		t.Errorf("clusters mismatch (-want +got):\n%s", diff)
	}
}

func TestWriter_AllLabels(t *testing.T) {
	r := NewReader(strings.NewReader(twoEvents))
	ev, err := r.Next()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).Write(ev))

	got, err := NewReader(&buf).Next()
	require.NoError(t, err)
	assert.Equal(t, ev.Labels(), got.Labels())

	_, err = NewReader(&buf).Next()
	assert.ErrorIs(t, err, io.EOF)
}
