package alpha

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logflow/alphaminer/pkg/classes"
	"github.com/logflow/alphaminer/pkg/eventlog"
	"github.com/logflow/alphaminer/pkg/loginfo"
	"github.com/logflow/alphaminer/pkg/petrinet"
	"github.com/logflow/alphaminer/pkg/relations"
)

func alphaProvider(traces [][]string) *relations.AlphaProvider {
	return relations.NewAlphaProvider(loginfo.New(eventlog.FromNames(traces)))
}

func placeNames(net *petrinet.Net) []string {
	var names []string
	for _, p := range net.AllPlaces() {
		names = append(names, p.Name)
	}
	return names
}

func assertReplays(t *testing.T, net *petrinet.Net, traces [][]string) {
	t.Helper()
	for _, tr := range traces {
		assert.True(t, replay(net, tr), "trace %v does not replay", tr)
	}
}

func TestDiscoverAlpha(t *testing.T) {
	tests := []struct {
		name   string
		traces [][]string
		places []string
	}{
		{
			name:   "sequence",
			traces: [][]string{{"A", "B", "C"}},
			places: []string{StartPlace, EndPlace, "({A},{B})", "({B},{C})"},
		},
		{
			name:   "exclusive choice",
			traces: [][]string{{"A", "B", "D"}, {"A", "C", "D"}},
			places: []string{StartPlace, EndPlace, "({A},{B,C})", "({B,C},{D})"},
		},
		{
			name:   "parallel split",
			traces: [][]string{{"A", "B", "C", "D"}, {"A", "C", "B", "D"}},
			places: []string{StartPlace, EndPlace, "({A},{B})", "({A},{C})", "({B},{D})", "({C},{D})"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			net := DiscoverAlpha(alphaProvider(tt.traces))
			assert.ElementsMatch(t, tt.places, placeNames(net))
			assertReplays(t, net, tt.traces)
		})
	}
}

func TestDiscoverAlpha_EmptyLog(t *testing.T) {
	net := DiscoverAlpha(alphaProvider(nil))

	assert.Len(t, net.AllPlaces(), 2)
	assert.Empty(t, net.AllTransitions())
	assert.Equal(t, 0, net.ArcCount())

	start, ok := net.FindPlaceIDByName(StartPlace)
	require.True(t, ok)
	end, ok := net.FindPlaceIDByName(EndPlace)
	require.True(t, ok)
	assert.Equal(t, petrinet.Marking{start: 1}, net.InitialMarking())
	assert.Equal(t, petrinet.Marking{end: 1}, net.FinalMarking())
}

func TestDiscoverAlpha_Boundaries(t *testing.T) {
	traces := [][]string{{"A", "C"}, {"B", "C"}, {"A", "D"}}
	net := DiscoverAlpha(alphaProvider(traces))

	start, _ := net.FindPlaceIDByName(StartPlace)
	end, _ := net.FindPlaceIDByName(EndPlace)

	var consumers, producers []string
	for _, tr := range net.GetOutgoingTransitions(start) {
		consumers = append(consumers, tr.Name)
	}
	for _, tr := range net.GetIncomingTransitions(end) {
		producers = append(producers, tr.Name)
	}
	assert.ElementsMatch(t, []string{"A", "B"}, consumers)
	assert.ElementsMatch(t, []string{"C", "D"}, producers)
}

func TestDiscoverAlpha_LogsPlaceCount(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	DiscoverAlpha(alphaProvider([][]string{{"A", "B"}}), WithLogger(logger))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "alpha: maximal sets", entry.Message)
	assert.Equal(t, 1, entry.Data["places"])
}

func TestAlphaSet(t *testing.T) {
	p := alphaProvider([][]string{{"A", "B", "D"}, {"A", "C", "D"}})
	u := p.Info().Universe()
	a, b, c, d := u.MustID("A"), u.MustID("B"), u.MustID("C"), u.MustID("D")

	ab, ac := NewAlphaSet(a, b), NewAlphaSet(a, c)
	assert.True(t, ab.CanExtend(ac, p))
	merged := ab.Extend(ac)
	assert.Equal(t, "({A},{B,C})", merged.Signature(u))
	assert.True(t, merged.IsValid(p))
	assert.True(t, ab.IsFullSubset(merged))
	assert.False(t, merged.IsFullSubset(ab))

	// A and D are not causally related, so ({A,B},{D}) is not a place.
	bd := NewAlphaSet(b, d)
	assert.False(t, ab.CanExtend(bd, p))
	assert.False(t, AlphaSet{Left: classes.NewSet(a, b), Right: classes.NewSet(d)}.IsValid(p))
}

func TestAlphaFamily_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 60
	properties := gopter.NewProperties(parameters)

	names := []string{"A", "B", "C", "D", "E"}
	toLog := func(raw [][]int) [][]string {
		traces := make([][]string, 0, len(raw))
		for _, tr := range raw {
			var seq []string
			for _, i := range tr {
				seq = append(seq, names[i])
			}
			traces = append(traces, seq)
		}
		return traces
	}
	logs := gen.SliceOfN(4, gen.SliceOfN(5, gen.IntRange(0, len(names)-1)))

	properties.Property("every maximal set satisfies the place invariant", prop.ForAll(
		func(raw [][]int) bool {
			p := alphaProvider(toLog(raw))
			for _, s := range alphaFamily(p) {
				if !s.IsValid(p) {
					return false
				}
			}
			return true
		},
		logs,
	))

	properties.Property("no maximal set contains another", prop.ForAll(
		func(raw [][]int) bool {
			family := alphaFamily(alphaProvider(toLog(raw)))
			for i, a := range family {
				for j, b := range family {
					if i != j && a.IsFullSubset(b) {
						return false
					}
				}
			}
			return true
		},
		logs,
	))

	properties.Property("start classes consume from the start place", prop.ForAll(
		func(raw [][]int) bool {
			p := alphaProvider(toLog(raw))
			net := DiscoverAlpha(p)
			u := p.Info().Universe()
			ok := true
			p.Info().StartEventClasses().Each(func(c classes.ID) bool {
				tr, found := net.FindTransitionByName(u.Name(c))
				ok = found && hasInput(tr, 0)
				return ok
			})
			return ok
		},
		logs,
	))

	properties.TestingRun(t)
}

func hasInput(t *petrinet.Transition, place int) bool {
	for _, a := range t.IncomingArcs() {
		if a.PlaceID() == place {
			return true
		}
	}
	return false
}

func hasOutput(t *petrinet.Transition, place int) bool {
	for _, a := range t.OutgoingArcs() {
		if a.PlaceID() == place {
			return true
		}
	}
	return false
}
