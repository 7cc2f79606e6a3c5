package alpha

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/logflow/alphaminer/pkg/classes"
	"github.com/logflow/alphaminer/pkg/petrinet"
)

// Names of the synthetic boundary places.
const (
	StartPlace = "start"
	EndPlace   = "end"
)

// Option configures a discovery call.
type Option func(*options)

type options struct {
	logger logrus.FieldLogger
}

// WithLogger sends debug records about intermediate results to l.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func newOptions(opts []Option) *options {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	o := &options{logger: discard}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// netBuilder assembles a net whose places are AlphaSets.
type netBuilder struct {
	u   *classes.Universe
	net *petrinet.Net

	start int
	end   int

	transitions map[classes.ID]int
	places      map[int]AlphaSet
}

func newNetBuilder(u *classes.Universe) *netBuilder {
	n := petrinet.New()
	return &netBuilder{
		u:           u,
		net:         n,
		start:       n.AddPlace(StartPlace),
		end:         n.AddPlace(EndPlace),
		transitions: make(map[classes.ID]int),
		places:      make(map[int]AlphaSet),
	}
}

// transition returns the transition of class c, creating it if needed.
func (b *netBuilder) transition(c classes.ID) int {
	if id, ok := b.transitions[c]; ok {
		return id
	}
	id := b.net.AddTransition(b.u.Name(c), false)
	b.transitions[c] = id
	return id
}

func (b *netBuilder) addTransitions(cs classes.Set) {
	cs.Each(func(c classes.ID) bool {
		b.transition(c)
		return true
	})
}

// place returns the place named after s, creating and wiring it if needed.
func (b *netBuilder) place(s AlphaSet) int {
	if id, ok := b.net.FindPlaceIDByName(s.Signature(b.u)); ok {
		return id
	}
	id := b.net.AddPlace(s.Signature(b.u))
	b.places[id] = s
	s.Left.Each(func(c classes.ID) bool {
		b.net.AddOutputArc(b.transition(c), id)
		return true
	})
	s.Right.Each(func(c classes.ID) bool {
		b.net.AddInputArc(id, b.transition(c))
		return true
	})
	return id
}

// loop connects c to place in both directions.
func (b *netBuilder) loop(c classes.ID, place int) {
	t := b.transition(c)
	b.net.AddInputArc(place, t)
	b.net.AddOutputArc(t, place)
}

// attachLoop reattaches a one-length-loop class around the place between
// before and after. An empty side falls back to the start or end place. It
// returns the place used and the AlphaSet the loop derived.
func (b *netBuilder) attachLoop(c classes.ID, before, after classes.Set) (int, AlphaSet) {
	s := AlphaSet{Left: before.Difference(after), Right: after.Difference(before)}
	var place int
	switch {
	case s.Left.IsEmpty():
		place = b.start
	case s.Right.IsEmpty():
		place = b.end
	default:
		place = b.place(s)
	}
	b.loop(c, place)
	return place, s
}

// silent adds an invisible transition from the in places to the out places.
func (b *netBuilder) silent(name string, in, out []int) int {
	t := b.net.AddTransition(name, true)
	for _, p := range in {
		b.net.AddInputArc(p, t)
	}
	for _, p := range out {
		b.net.AddOutputArc(t, p)
	}
	return t
}

// finish wires the boundary places and attaches the markings.
func (b *netBuilder) finish(starts, ends classes.Set) *petrinet.Net {
	starts.Each(func(c classes.ID) bool {
		b.net.AddInputArc(b.start, b.transition(c))
		return true
	})
	ends.Each(func(c classes.ID) bool {
		b.net.AddOutputArc(b.transition(c), b.end)
		return true
	})
	b.net.SetInitialMarking(petrinet.Marking{b.start: 1})
	b.net.SetFinalMarking(petrinet.Marking{b.end: 1})
	return b.net
}
