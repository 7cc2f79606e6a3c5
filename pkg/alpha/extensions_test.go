package alpha

import (
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logflow/alphaminer/pkg/classes"
	"github.com/logflow/alphaminer/pkg/eventlog"
	"github.com/logflow/alphaminer/pkg/loginfo"
	"github.com/logflow/alphaminer/pkg/relations"
)

func TestDiscoverAlphaPlusLog_ReattachesLoops(t *testing.T) {
	traces := [][]string{{"A", "B", "B", "C"}, {"A", "C"}, {"A", "B", "C"}}
	net := DiscoverAlphaPlusLog(eventlog.FromNames(traces), false)

	b, ok := net.FindTransitionByName("B")
	require.True(t, ok)
	assert.NotEmpty(t, b.IncomingArcs())
	assert.NotEmpty(t, b.OutgoingArcs())

	place, ok := net.FindPlaceIDByName("({A},{C})")
	require.True(t, ok)
	assert.True(t, hasInput(b, place))
	assert.True(t, hasOutput(b, place))

	assertReplays(t, net, traces)
}

func TestDiscoverAlphaPlusLog_LoopAtStart(t *testing.T) {
	traces := [][]string{{"A", "A", "B"}, {"A", "B"}}
	net := DiscoverAlphaPlusLog(eventlog.FromNames(traces), false)

	a, ok := net.FindTransitionByName("A")
	require.True(t, ok)
	start, _ := net.FindPlaceIDByName(StartPlace)
	assert.True(t, hasInput(a, start))
	assert.True(t, hasOutput(a, start))
}

func TestDiscoverAlphaPlusLog_LoopPlacesPlusPlus(t *testing.T) {
	tests := []struct {
		name    string
		traces  [][]string
		loop    string
		with    []string
		without []string
		replays [][]string
	}{
		{
			name:    "single neighbours",
			traces:  [][]string{{"A", "B", "B", "C"}, {"A", "C"}, {"A", "B", "C"}},
			loop:    "B",
			with:    []string{"({A},{C})"},
			replays: [][]string{{"A", "B", "B", "C"}, {"A", "C"}, {"A", "B", "C"}},
		},
		{
			// D sits between {B,C} and {E,F}; maximisation keeps ({B,C},{E}) and
			// ({C},{F}), both contained in that window.
			name:    "contained places",
			traces:  nfcTraces(),
			loop:    "D",
			with:    []string{"({B,C},{E,F})", "({B,C},{E})", "({C},{F})"},
			without: []string{"({A},{B,C})", "({E,F},{G})"},
			replays: [][]string{{"A", "B", "E", "G"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			net := DiscoverAlphaPlusLog(eventlog.FromNames(tt.traces), true)
			loop, ok := net.FindTransitionByName(tt.loop)
			require.True(t, ok)

			for _, name := range tt.with {
				place, ok := net.FindPlaceIDByName(name)
				require.True(t, ok, "missing place %s", name)
				assert.True(t, hasInput(loop, place), "%s does not consume from %s", tt.loop, name)
				assert.True(t, hasOutput(loop, place), "%s does not produce into %s", tt.loop, name)
			}
			for _, name := range tt.without {
				place, ok := net.FindPlaceIDByName(name)
				require.True(t, ok, "missing place %s", name)
				assert.False(t, hasInput(loop, place), "%s consumes from %s", tt.loop, name)
				assert.False(t, hasOutput(loop, place), "%s produces into %s", tt.loop, name)
			}
			assertReplays(t, net, tt.replays)
		})
	}

	// Without the extension only the window itself carries the loop.
	net := DiscoverAlphaPlusLog(eventlog.FromNames(nfcTraces()), false)
	d, ok := net.FindTransitionByName("D")
	require.True(t, ok)
	contained, ok := net.FindPlaceIDByName("({B,C},{E})")
	require.True(t, ok)
	assert.False(t, hasInput(d, contained))
	window, ok := net.FindPlaceIDByName("({B,C},{E,F})")
	require.True(t, ok)
	assert.True(t, hasInput(d, window))
}

func nfcTraces() [][]string {
	return [][]string{
		{"A", "B", "E", "G"},
		{"A", "C", "F", "G"},
		{"A", "B", "D", "D", "E", "G"},
		{"A", "C", "D", "F", "G"},
		{"A", "C", "D", "D", "E", "G"},
		{"A", "C", "D", "F", "G"},
	}
}

func TestDiscoverAlphaPlusPlusNFC(t *testing.T) {
	traces := nfcTraces()
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	net := DiscoverAlphaPlusPlusNFC(eventlog.FromNames(traces), WithLogger(logger))

	assert.ElementsMatch(t, []string{"A", "B", "C", "D", "E", "F", "G"}, net.TransitionNames())
	assert.ElementsMatch(t, []string{
		StartPlace, EndPlace, "({A},{B,C})", "({B,C},{E,F})", "({E,F},{G})",
	}, placeNames(net))

	d, ok := net.FindTransitionByName("D")
	require.True(t, ok)
	window, ok := net.FindPlaceIDByName("({B,C},{E,F})")
	require.True(t, ok)
	assert.True(t, hasInput(d, window))
	assert.True(t, hasOutput(d, window))

	assertReplays(t, net, traces)

	var done bool
	for _, e := range hook.AllEntries() {
		if e.Message == "alpha++: passes complete" {
			done = true
			assert.Equal(t, 1, e.Data["loop_windows"])
		}
	}
	assert.True(t, done)
}

func TestDiscoverAlphaPlusPlusNFC_NonFreeChoice(t *testing.T) {
	traces := [][]string{{"A", "C", "D"}, {"B", "C", "E"}}
	net := DiscoverAlphaPlusPlusNFC(eventlog.FromNames(traces))

	assert.Subset(t, placeNames(net), []string{"({A},{D})", "({B},{E})"})

	d, ok := net.FindTransitionByName("D")
	require.True(t, ok)
	ad, _ := net.FindPlaceIDByName("({A},{D})")
	assert.True(t, hasInput(d, ad))

	assertReplays(t, net, traces)
}

func TestReduceImplied(t *testing.T) {
	info := loginfo.New(eventlog.FromNames([][]string{{"A", "C", "D"}, {"B", "C", "E"}}))
	u := info.Universe()
	nfc := relations.NewNFCProvider(relations.NewPlusProvider(relations.NewAlphaProvider(info), nil))

	pair := func(a, b string) classes.Pair {
		return classes.Pair{First: u.MustID(a), Second: u.MustID(b)}
	}
	pairs := []classes.Pair{pair("A", "C"), pair("C", "D"), pair("A", "D"), pair("B", "E")}

	got := reduceImplied(nfc, info.AllEventClasses(), pairs)
	// (A, D) is explained by (A, C) with C concave D.
	assert.ElementsMatch(t, []classes.Pair{pair("A", "C"), pair("C", "D"), pair("B", "E")}, got)
}

func TestDiscoverAlphaPlusPlusNFC_EmptyLog(t *testing.T) {
	net := DiscoverAlphaPlusPlusNFC(eventlog.FromNames(nil))
	assert.Len(t, net.AllPlaces(), 2)
	assert.Empty(t, net.AllTransitions())
}

func TestReduceTransitive(t *testing.T) {
	pairs := []classes.Pair{
		{First: 0, Second: 1},
		{First: 1, Second: 2},
		{First: 0, Second: 2},
		{First: 2, Second: 0},
	}
	got := reduceTransitive(pairs)
	assert.ElementsMatch(t, []classes.Pair{
		{First: 0, Second: 1},
		{First: 1, Second: 2},
		{First: 2, Second: 0},
	}, got)
}

func TestDiscoverAlphaSharp(t *testing.T) {
	traces := [][]string{{"A", "B", "C", "D"}, {"A", "D"}}
	logger, hook := logtest.NewNullLogger()

	res := DiscoverAlphaSharp(eventlog.FromNames(traces), nil, WithLogger(logger))
	u := res.Universe

	require.Len(t, res.Orderings, 1)
	assert.Equal(t, "A", u.Name(res.Orderings[0].First))
	assert.Equal(t, "D", u.Name(res.Orderings[0].Second))
	assert.Empty(t, res.Redundant)

	require.Len(t, res.Tuples, 1)
	assert.Equal(t, "In[({A},{B})] Out[({C},{D})]", res.Tuples[0].Signature(u))

	var silent int
	for _, tr := range res.Net.AllTransitions() {
		if tr.Silent {
			silent++
		}
	}
	assert.Equal(t, 1, silent)
	assert.NotContains(t, placeNames(res.Net), "({A},{D})")
	assertReplays(t, res.Net, traces)

	var messages []string
	for _, e := range hook.AllEntries() {
		messages = append(messages, e.Message)
	}
	assert.Contains(t, messages, "alpha#: advanced ordering")
	assert.Contains(t, messages, "alpha#: tuple")
}

func TestDiscoverAlphaSharp_NoSkips(t *testing.T) {
	traces := [][]string{{"A", "B", "C"}}
	res := DiscoverAlphaSharp(eventlog.FromNames(traces), nil)

	assert.Empty(t, res.Orderings)
	assert.Empty(t, res.Tuples)
	assertReplays(t, res.Net, traces)
}
