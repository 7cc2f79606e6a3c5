package petrinet

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// sequence builds start -> A -> p -> B -> end.
func sequence() *Net {
	n := New()
	start := n.AddPlace("start")
	p := n.AddPlace("({A},{B})")
	end := n.AddPlace("end")
	a := n.AddTransition("A", false)
	b := n.AddTransition("B", false)

	n.AddInputArc(start, a)
	n.AddOutputArc(a, p)
	n.AddOutputArc(a, p)
	n.AddInputArc(p, b)
	n.AddOutputArc(b, end)

	n.SetInitialMarking(Marking{start: 1})
	n.SetFinalMarking(Marking{end: 1})
	return n
}

func TestNet_Accessors(t *testing.T) {
	n := sequence()

	require.Len(t, n.AllPlaces(), 3)
	require.Len(t, n.AllTransitions(), 2)
	assert.Equal(t, 4, n.ArcCount(), "duplicate arcs must be ignored")

	a, ok := n.FindTransitionByName("A")
	require.True(t, ok)
	require.Len(t, a.OutgoingArcs(), 1)
	assert.Equal(t, 1, a.OutgoingArcs()[0].PlaceID())
	assert.Equal(t, 1, a.OutgoingArcs()[0].TokensCount())

	pid, ok := n.FindPlaceIDByName("({A},{B})")
	require.True(t, ok)

	incoming := n.GetIncomingTransitions(pid)
	outgoing := n.GetOutgoingTransitions(pid)
	require.Len(t, incoming, 1)
	require.Len(t, outgoing, 1)
	assert.Equal(t, "A", incoming[0].Name)
	assert.Equal(t, "B", outgoing[0].Name)

	assert.Equal(t, 1, n.InitialMarking().Tokens(0))
	assert.Equal(t, 1, n.FinalMarking().Tokens(2))
	assert.Equal(t, []string{"A", "B"}, n.TransitionNames())

	_, ok = n.FindTransitionByName("Z")
	assert.False(t, ok)
	_, ok = n.Place(42)
	assert.False(t, ok)
}

func TestNet_SilentTransitionsAreNotIndexed(t *testing.T) {
	n := New()
	n.AddTransition("tau", true)

	_, ok := n.FindTransitionByName("tau")
	assert.False(t, ok)
	assert.Empty(t, n.TransitionNames())
}

func TestDocument_RoundTrip(t *testing.T) {
	n := sequence()
	doc := n.ToDocument("seq")

	var buf bytes.Buffer
	require.NoError(t, doc.WriteJSON(&buf))

	var decoded Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	back := FromDocument(decoded)

	assert.Equal(t, n.ArcCount(), back.ArcCount())
	assert.Equal(t, n.InitialMarking(), back.InitialMarking())
	assert.Equal(t, doc, back.ToDocument("seq"))
}

func TestDocument_WriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sequence().ToDocument("seq").WriteYAML(&buf))

	var decoded Document
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "seq", decoded.Name)
	assert.Len(t, decoded.Transitions, 2)
	assert.Equal(t, []int{1}, decoded.Transitions[1].Inputs)
}
