// Package petrinet is the Petri net model produced by discovery.
//
// Places and transitions live in arenas indexed by integer id. Arcs are owned
// by transitions and reference places by id, so nets can be built and
// extended across passes without pointer aliasing between nets.
package petrinet

import "sort"

// Place is a condition of the net.
type Place struct {
	ID   int    `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Arc links a transition with a place. Whether it is an input or output arc
// depends on which list of the transition holds it.
type Arc struct {
	placeID int
	tokens  int
}

// PlaceID returns the id of the place at the other end of the arc.
func (a Arc) PlaceID() int { return a.placeID }

// TokensCount returns the arc weight.
func (a Arc) TokensCount() int { return a.tokens }

// Transition is an activity of the net. Silent transitions have no event class.
type Transition struct {
	ID       int
	Name     string
	Silent   bool
	incoming []Arc
	outgoing []Arc
}

// IncomingArcs returns the arcs from input places.
func (t *Transition) IncomingArcs() []Arc { return t.incoming }

// OutgoingArcs returns the arcs to output places.
func (t *Transition) OutgoingArcs() []Arc { return t.outgoing }

// Marking maps place ids to token counts.
type Marking map[int]int

// Tokens returns the token count on place id.
func (m Marking) Tokens(id int) int { return m[id] }

// Clone copies the marking.
func (m Marking) Clone() Marking {
	c := make(Marking, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// Net is a labelled place/transition net with optional markings.
type Net struct {
	places      []*Place
	transitions []*Transition

	placeByName      map[string]int
	transitionByName map[string]int

	initial Marking
	final   Marking
}

// New creates an empty net.
func New() *Net {
	return &Net{
		placeByName:      make(map[string]int),
		transitionByName: make(map[string]int),
	}
}

// AddPlace creates a place and returns its id.
func (n *Net) AddPlace(name string) int {
	id := len(n.places)
	n.places = append(n.places, &Place{ID: id, Name: name})
	if _, ok := n.placeByName[name]; !ok {
		n.placeByName[name] = id
	}
	return id
}

// AddTransition creates a transition and returns its id. Names of silent
// transitions are not indexed for lookup.
func (n *Net) AddTransition(name string, silent bool) int {
	id := len(n.transitions)
	n.transitions = append(n.transitions, &Transition{ID: id, Name: name, Silent: silent})
	if !silent {
		if _, ok := n.transitionByName[name]; !ok {
			n.transitionByName[name] = id
		}
	}
	return id
}

// AddInputArc makes place a precondition of transition. Existing arcs are not duplicated.
func (n *Net) AddInputArc(place, transition int) {
	t := n.transitions[transition]
	if hasArc(t.incoming, place) {
		return
	}
	t.incoming = append(t.incoming, Arc{placeID: place, tokens: 1})
}

// AddOutputArc makes place a postcondition of transition. Existing arcs are not duplicated.
func (n *Net) AddOutputArc(transition, place int) {
	t := n.transitions[transition]
	if hasArc(t.outgoing, place) {
		return
	}
	t.outgoing = append(t.outgoing, Arc{placeID: place, tokens: 1})
}

func hasArc(arcs []Arc, place int) bool {
	for _, a := range arcs {
		if a.placeID == place {
			return true
		}
	}
	return false
}

// Place returns the place with id.
func (n *Net) Place(id int) (*Place, bool) {
	if id < 0 || id >= len(n.places) {
		return nil, false
	}
	return n.places[id], true
}

// Transition returns the transition with id.
func (n *Net) Transition(id int) (*Transition, bool) {
	if id < 0 || id >= len(n.transitions) {
		return nil, false
	}
	return n.transitions[id], true
}

// AllPlaces returns every place in id order.
func (n *Net) AllPlaces() []*Place { return n.places }

// AllTransitions returns every transition in id order.
func (n *Net) AllTransitions() []*Transition { return n.transitions }

// FindTransitionByName returns the visible transition labelled name.
func (n *Net) FindTransitionByName(name string) (*Transition, bool) {
	id, ok := n.transitionByName[name]
	if !ok {
		return nil, false
	}
	return n.transitions[id], true
}

// FindPlaceIDByName returns the id of the place called name.
func (n *Net) FindPlaceIDByName(name string) (int, bool) {
	id, ok := n.placeByName[name]
	return id, ok
}

// GetIncomingTransitions returns the transitions producing into place.
func (n *Net) GetIncomingTransitions(place int) []*Transition {
	var out []*Transition
	for _, t := range n.transitions {
		if hasArc(t.outgoing, place) {
			out = append(out, t)
		}
	}
	return out
}

// GetOutgoingTransitions returns the transitions consuming from place.
func (n *Net) GetOutgoingTransitions(place int) []*Transition {
	var out []*Transition
	for _, t := range n.transitions {
		if hasArc(t.incoming, place) {
			out = append(out, t)
		}
	}
	return out
}

// SetInitialMarking attaches the initial marking.
func (n *Net) SetInitialMarking(m Marking) { n.initial = m }

// SetFinalMarking attaches the final marking.
func (n *Net) SetFinalMarking(m Marking) { n.final = m }

// InitialMarking returns the initial marking, or nil if none is attached.
func (n *Net) InitialMarking() Marking { return n.initial }

// FinalMarking returns the final marking, or nil if none is attached.
func (n *Net) FinalMarking() Marking { return n.final }

// TransitionNames returns the sorted labels of all visible transitions.
func (n *Net) TransitionNames() []string {
	names := make([]string, 0, len(n.transitionByName))
	for name := range n.transitionByName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ArcCount returns the total number of arcs.
func (n *Net) ArcCount() int {
	total := 0
	for _, t := range n.transitions {
		total += len(t.incoming) + len(t.outgoing)
	}
	return total
}
