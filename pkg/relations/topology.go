package relations

import (
	"github.com/logflow/alphaminer/pkg/classes"
	"github.com/logflow/alphaminer/pkg/petrinet"
)

// Topology is a class-level index of one net together with the W relation
// caches computed against it. Build a new Topology whenever the net changes.
type Topology struct {
	pre  map[classes.ID][]int
	post map[classes.ID][]int
	in   map[int]classes.Set
	out  map[int]classes.Set

	next  map[int][]int
	reach map[int]map[int]bool

	w1, w21, w22, w3 *pairCache
}

// NewTopology indexes net. Transitions that are silent, unknown to u, or in
// exclude do not contribute to place neighbourhoods.
func NewTopology(net *petrinet.Net, u *classes.Universe, exclude classes.Set) *Topology {
	top := &Topology{
		pre:   make(map[classes.ID][]int),
		post:  make(map[classes.ID][]int),
		in:    make(map[int]classes.Set),
		out:   make(map[int]classes.Set),
		next:  make(map[int][]int),
		reach: make(map[int]map[int]bool),
		w1:    newPairCache(),
		w21:   newPairCache(),
		w22:   newPairCache(),
		w3:    newPairCache(),
	}
	for _, p := range net.AllPlaces() {
		top.in[p.ID] = classes.NewSet()
		top.out[p.ID] = classes.NewSet()
	}

	for _, t := range net.AllTransitions() {
		for _, src := range t.IncomingArcs() {
			for _, dst := range t.OutgoingArcs() {
				top.next[src.PlaceID()] = append(top.next[src.PlaceID()], dst.PlaceID())
			}
		}

		if t.Silent {
			continue
		}
		id, ok := u.ID(t.Name)
		if !ok || exclude.Contains(id) {
			continue
		}
		for _, arc := range t.IncomingArcs() {
			top.pre[id] = append(top.pre[id], arc.PlaceID())
			top.out[arc.PlaceID()].Add(id)
		}
		for _, arc := range t.OutgoingArcs() {
			top.post[id] = append(top.post[id], arc.PlaceID())
			top.in[arc.PlaceID()].Add(id)
		}
	}
	return top
}

// Pre returns the input places of class c.
func (t *Topology) Pre(c classes.ID) []int { return t.pre[c] }

// Post returns the output places of class c.
func (t *Topology) Post(c classes.ID) []int { return t.post[c] }

// In returns the classes producing into place.
func (t *Topology) In(place int) classes.Set { return t.in[place] }

// Out returns the classes consuming from place.
func (t *Topology) Out(place int) classes.Set { return t.out[place] }

// connected reports a shared place between post(a) and pre(b).
func (t *Topology) connected(a, b classes.ID) bool {
	for _, x := range t.post[a] {
		for _, y := range t.pre[b] {
			if x == y {
				return true
			}
		}
	}
	return false
}

// reachable reports a path of at least one transition from place from to place to.
func (t *Topology) reachable(from, to int) bool {
	seen, ok := t.reach[from]
	if !ok {
		seen = make(map[int]bool)
		queue := append([]int(nil), t.next[from]...)
		for len(queue) > 0 {
			p := queue[0]
			queue = queue[1:]
			if seen[p] {
				continue
			}
			seen[p] = true
			queue = append(queue, t.next[p]...)
		}
		t.reach[from] = seen
	}
	return seen[to]
}

// CachedPairs returns how many W relation results are memoized.
func (t *Topology) CachedPairs() int {
	return t.w1.len() + t.w21.len() + t.w22.len() + t.w3.len()
}
