package loginfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logflow/alphaminer/pkg/classes"
	"github.com/logflow/alphaminer/pkg/eventlog"
)

func TestNew_Counts(t *testing.T) {
	log := eventlog.FromNames([][]string{
		{"A", "B", "C"},
		{"A", "C", "B"},
		{"A", "D", "D", "C"},
	})
	info := New(log)
	u := info.Universe()
	a, b, c, d := u.MustID("A"), u.MustID("B"), u.MustID("C"), u.MustID("D")

	assert.Equal(t, 3, info.TracesCount())
	assert.Equal(t, 10, info.EventsCount())
	assert.Equal(t, 3, info.EventCount(a))
	assert.Equal(t, 2, info.EventCount(d))

	tests := []struct {
		from, to string
		want     int
	}{
		{"A", "B", 1},
		{"A", "C", 1},
		{"B", "C", 1},
		{"C", "B", 1},
		{"D", "D", 1},
		{"B", "A", 0},
	}
	for _, tt := range tests {
		got := info.DirectlyFollows(u.MustID(tt.from), u.MustID(tt.to))
		if got != tt.want {
			t.Errorf("DirectlyFollows(%s, %s) = %d, want %d", tt.from, tt.to, got, tt.want)
		}
	}

	assert.Equal(t, "{A}", u.Format(info.StartEventClasses()))
	assert.Equal(t, "{B,C}", u.Format(info.EndEventClasses()))
	assert.Equal(t, "{D}", u.Format(info.OneLengthLoops()))
	assert.Equal(t, "{B,C,D}", u.Format(info.FollowedBySet(a)))
	assert.Equal(t, "{A,D}", u.Format(info.PrecededBySet(d)))
	assert.True(t, info.IsDirectlyFollowsRelated(c, b))

	followed, ok := info.FollowedBy(b)
	require.True(t, ok)
	assert.Equal(t, map[classes.ID]int{c: 1}, followed)
}

func TestNew_Ignored(t *testing.T) {
	log := eventlog.FromNames([][]string{
		{"A", "D", "D", "C"},
		{"D"},
	})
	info := New(log, WithIgnored("D"))
	u := info.Universe()

	assert.True(t, info.IsDirectlyFollowsRelated(u.MustID("A"), u.MustID("C")))
	assert.Equal(t, 0, info.EventCount(u.MustID("D")))
	assert.Equal(t, "{A,C}", u.Format(info.AllEventClasses()))
	assert.Equal(t, "{D}", u.Format(info.Ignored()))
	assert.Equal(t, 2, info.TracesCount())
	assert.Equal(t, 2, info.EventsCount())
	assert.True(t, info.OneLengthLoops().IsEmpty())
}

func TestNew_ArtificialBoundaries(t *testing.T) {
	info := New(eventlog.FromNames([][]string{{"A", "B"}, {}}), WithArtificialBoundaries("|>", "[]"))
	u := info.Universe()

	assert.Equal(t, "{|>}", u.Format(info.StartEventClasses()))
	assert.Equal(t, "{[]}", u.Format(info.EndEventClasses()))
	assert.True(t, info.IsDirectlyFollowsRelated(u.MustID("|>"), u.MustID("A")))
	assert.True(t, info.IsDirectlyFollowsRelated(u.MustID("B"), u.MustID("[]")))
	assert.Equal(t, 4, info.EventsCount())
}

func TestNew_ArtificialBoundariesOneSided(t *testing.T) {
	traces := [][]string{{"A", "B"}}

	info := New(eventlog.FromNames(traces), WithArtificialBoundaries("", "END"))
	u := info.Universe()
	assert.Equal(t, "{A}", u.Format(info.StartEventClasses()))
	assert.Equal(t, "{END}", u.Format(info.EndEventClasses()))
	assert.Equal(t, 3, info.EventsCount())

	info = New(eventlog.FromNames(traces), WithArtificialBoundaries("START", ""))
	u = info.Universe()
	assert.Equal(t, "{START}", u.Format(info.StartEventClasses()))
	assert.Equal(t, "{B}", u.Format(info.EndEventClasses()))
	_, ok := u.ID("")
	assert.False(t, ok)
}

func TestNew_EmptyLog(t *testing.T) {
	info := New(eventlog.FromNames(nil))

	assert.Equal(t, 0, info.TracesCount())
	assert.True(t, info.AllEventClasses().IsEmpty())
	assert.True(t, info.StartEventClasses().IsEmpty())
	assert.Empty(t, info.Edges())

	_, ok := info.FollowedBy(0)
	assert.False(t, ok)
}
