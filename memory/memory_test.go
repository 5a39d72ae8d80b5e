package memory

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordID(t *testing.T) {
	a := RecordID("plugins", "FunPlugin.Joke")
	assert.Equal(t, a, RecordID("plugins", "FunPlugin.Joke"))
	assert.NotEqual(t, a, RecordID("plugins", "FunPlugin.Excuses"))
	assert.NotEqual(t, a, RecordID("other", "FunPlugin.Joke"))
	// The separator keeps the split between collection and key significant.
	assert.NotEqual(t, RecordID("ab", "c"), RecordID("a", "bc"))
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{name: "identical", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 1},
		{name: "scaled", a: []float32{1, 0}, b: []float32{5, 0}, want: 1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "opposite", a: []float32{1, 1}, b: []float32{-1, -1}, want: -1},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 1}, want: 0},
		{name: "empty", a: nil, b: []float32{1}, want: 0},
		{name: "common prefix", a: []float32{1, 0, 9}, b: []float32{1, 0}, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 1e-6)
		})
	}
}

func TestMarshalUnmarshalRecord(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	record := &Record{
		ID:          RecordID("plugins", "WriterPlugin.ShortPoem"),
		Collection:  "plugins",
		Key:         "WriterPlugin.ShortPoem",
		Text:        "ShortPoem: Turn a scenario into a short poem.",
		Description: "semantic function",
		Vector:      []float32{0.25, -0.5, 1, 0},
		Timestamp:   now,
	}

	decoded, err := UnmarshalRecord(MarshalRecord(record))
	require.NoError(t, err)
	assert.Equal(t, record, decoded)

	empty, err := UnmarshalRecord(MarshalRecord(&Record{Collection: "c"}))
	require.NoError(t, err)
	assert.True(t, empty.Timestamp.IsZero())
	assert.Nil(t, empty.Vector)
}

func TestUnmarshalRecordInvalid(t *testing.T) {
	_, err := UnmarshalRecord([]byte{})
	assert.ErrorIs(t, err, ErrCorruptRecord)

	data := MarshalRecord(&Record{Collection: "c", Vector: []float32{1, 2, 3}})
	_, err = UnmarshalRecord(data[:len(data)-3])
	assert.ErrorIs(t, err, ErrCorruptRecord)
}

func TestProgressTracker(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 10)

	tracker.Increment(5)
	assert.Empty(t, buf.String(), "not started")

	tracker.Start(100)
	tracker.Increment(5)
	assert.Empty(t, buf.String(), "below the report interval")

	tracker.Increment(20)
	assert.Contains(t, buf.String(), "25/100 (25.0%)")

	tracker.Increment(500)
	assert.Equal(t, 100, tracker.Current(), "capped at total")

	tracker.Finish()
	assert.Contains(t, buf.String(), "100/100 (100.0%)")
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}
