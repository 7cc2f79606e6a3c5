package relations

import (
	"github.com/logflow/alphaminer/pkg/classes"
	"github.com/logflow/alphaminer/pkg/loginfo"
	"github.com/logflow/alphaminer/pkg/petrinet"
)

// NFCProvider adds the non-free-choice relations of Alpha++.
//
// Pairs registered with AddAdditionalCausal become causal and stop being
// unrelated. The triangle and double-arrow relations are always derived from
// the unforced relations of the wrapped provider, so their caches stay valid
// while forced pairs accumulate.
type NFCProvider struct {
	plus   PlusRelations
	forced map[classes.Pair]struct{}

	leftTriangle  *pairCache
	rightTriangle *pairCache
	doubleArrow   *pairCache
}

// NewNFCProvider wraps plus.
func NewNFCProvider(plus PlusRelations) *NFCProvider {
	return &NFCProvider{
		plus:          plus,
		forced:        make(map[classes.Pair]struct{}),
		leftTriangle:  newPairCache(),
		rightTriangle: newPairCache(),
		doubleArrow:   newPairCache(),
	}
}

func (p *NFCProvider) Info() *loginfo.Info { return p.plus.Info() }

func (p *NFCProvider) DirectRelation(a, b classes.ID) bool { return p.plus.DirectRelation(a, b) }

func (p *NFCProvider) TriangleRelation(a, b classes.ID) bool { return p.plus.TriangleRelation(a, b) }

func (p *NFCProvider) RombRelation(a, b classes.ID) bool { return p.plus.RombRelation(a, b) }

func (p *NFCProvider) ParallelRelation(a, b classes.ID) bool { return p.plus.ParallelRelation(a, b) }

func (p *NFCProvider) isForced(a, b classes.ID) bool {
	_, ok := p.forced[classes.Pair{First: a, Second: b}]
	return ok
}

// CausalRelation is the loop-aware causality extended with forced pairs.
func (p *NFCProvider) CausalRelation(a, b classes.ID) bool {
	return p.isForced(a, b) || p.plus.CausalRelation(a, b)
}

// UnrelatedRelation is false for forced pairs in either direction.
func (p *NFCProvider) UnrelatedRelation(a, b classes.ID) bool {
	if p.isForced(a, b) || p.isForced(b, a) {
		return false
	}
	return p.plus.UnrelatedRelation(a, b)
}

// AddAdditionalCausal forces a to be causally related to b.
func (p *NFCProvider) AddAdditionalCausal(a, b classes.ID) {
	p.forced[classes.Pair{First: a, Second: b}] = struct{}{}
}

// ForcedCount returns how many pairs have been forced.
func (p *NFCProvider) ForcedCount() int { return len(p.forced) }

// LoopClasses are the one-length-loop classes projected out of the provider's log.
func (p *NFCProvider) LoopClasses() classes.Set { return p.Info().Ignored() }

// LeftTriangleRelation reports that a and b are unrelated but share a causal predecessor.
func (p *NFCProvider) LeftTriangleRelation(a, b classes.ID) bool {
	return p.leftTriangle.get(a, b, func() bool {
		if !p.plus.UnrelatedRelation(a, b) {
			return false
		}
		found := false
		p.Info().AllEventClasses().Each(func(c classes.ID) bool {
			found = p.plus.CausalRelation(c, a) && p.plus.CausalRelation(c, b)
			return !found
		})
		return found
	})
}

// RightTriangleRelation reports that a and b are unrelated but share a causal successor.
func (p *NFCProvider) RightTriangleRelation(a, b classes.ID) bool {
	return p.rightTriangle.get(a, b, func() bool {
		if !p.plus.UnrelatedRelation(a, b) {
			return false
		}
		found := false
		p.Info().AllEventClasses().Each(func(c classes.ID) bool {
			found = p.plus.CausalRelation(a, c) && p.plus.CausalRelation(b, c)
			return !found
		})
		return found
	})
}

// RightDoubleArrowRelation reports a => b: the classes are unrelated and some
// trace has a followed later by b with every event in between being neither
// a nor b nor in a triangle relation with a.
func (p *NFCProvider) RightDoubleArrowRelation(a, b classes.ID) bool {
	return p.doubleArrow.get(a, b, func() bool {
		if a == b || !p.plus.UnrelatedRelation(a, b) {
			return false
		}
		for _, seq := range p.Info().Traces() {
			if p.scanDoubleArrow(seq, a, b) {
				return true
			}
		}
		return false
	})
}

func (p *NFCProvider) scanDoubleArrow(seq []classes.ID, a, b classes.ID) bool {
	for i, x := range seq {
		if x != a {
			continue
		}
		for _, y := range seq[i+1:] {
			if y == b {
				return true
			}
			if y == a || p.LeftTriangleRelation(a, y) || p.RightTriangleRelation(a, y) {
				break
			}
		}
	}
	return false
}

// ConcaveArrowRelation reports causal(a, b) or a => b.
func (p *NFCProvider) ConcaveArrowRelation(a, b classes.ID) bool {
	return p.CausalRelation(a, b) || p.RightDoubleArrowRelation(a, b)
}

// Topology indexes net for the W relations. Loop classes are left out of the
// place neighbourhoods.
func (p *NFCProvider) Topology(net *petrinet.Net) *Topology {
	return NewTopology(net, p.Info().Universe(), p.LoopClasses())
}

// W1Relation reports the first non-free-choice pattern of a => b in top.
func (p *NFCProvider) W1Relation(a, b classes.ID, top *Topology) bool {
	return top.w1.get(a, b, func() bool {
		if !p.RightDoubleArrowRelation(a, b) || top.connected(a, b) {
			return false
		}
		for _, p1 := range top.post[a] {
			for _, p2 := range top.pre[b] {
				if !top.out[p1].Intersects(top.in[p2]) {
					continue
				}
				if p.existsIn(top.in[p1], a, func(x classes.ID) bool { return !p.RightDoubleArrowRelation(x, b) }) &&
					p.existsIn(top.out[p2], b, func(y classes.ID) bool { return !p.RightDoubleArrowRelation(a, y) }) {
					return true
				}
			}
		}
		return false
	})
}

// W21Relation looks for a place before b that a reaches only indirectly.
func (p *NFCProvider) W21Relation(a, b classes.ID, top *Topology) bool {
	return top.w21.get(a, b, func() bool {
		if !p.RightDoubleArrowRelation(a, b) || top.connected(a, b) {
			return false
		}
		for _, q := range top.pre[b] {
			if top.in[q].Contains(a) {
				continue
			}
			if p.existsIn(top.in[q], a, func(t classes.ID) bool { return p.ConcaveArrowRelation(a, t) }) &&
				p.existsIn(top.out[q], b, func(y classes.ID) bool { return !p.ConcaveArrowRelation(a, y) }) {
				return true
			}
		}
		return false
	})
}

// W22Relation looks for a place after a that reaches b only indirectly.
func (p *NFCProvider) W22Relation(a, b classes.ID, top *Topology) bool {
	return top.w22.get(a, b, func() bool {
		if !p.RightDoubleArrowRelation(a, b) || top.connected(a, b) {
			return false
		}
		for _, q := range top.post[a] {
			if top.out[q].Contains(b) {
				continue
			}
			if p.existsIn(top.out[q], b, func(t classes.ID) bool { return p.ConcaveArrowRelation(t, b) }) &&
				p.existsIn(top.in[q], a, func(x classes.ID) bool { return !p.ConcaveArrowRelation(x, b) }) {
				return true
			}
		}
		return false
	})
}

// W2Relation is W21 and W22.
func (p *NFCProvider) W2Relation(a, b classes.ID, top *Topology) bool {
	return p.W21Relation(a, b, top) && p.W22Relation(a, b, top)
}

// W3Relation reports a => b that the net already orders through a path of
// places but that neither W1 nor W2 explains.
func (p *NFCProvider) W3Relation(a, b classes.ID, top *Topology) bool {
	return top.w3.get(a, b, func() bool {
		if !p.RightDoubleArrowRelation(a, b) || top.connected(a, b) {
			return false
		}
		if p.W1Relation(a, b, top) || p.W2Relation(a, b, top) {
			return false
		}
		for _, from := range top.post[a] {
			if !p.existsIn(top.in[from], a, func(x classes.ID) bool { return !p.ConcaveArrowRelation(x, b) }) {
				continue
			}
			for _, to := range top.pre[b] {
				if !top.reachable(from, to) {
					continue
				}
				if p.existsIn(top.out[to], b, func(y classes.ID) bool { return !p.ConcaveArrowRelation(a, y) }) {
					return true
				}
			}
		}
		return false
	})
}

// existsIn reports whether some member of s other than skip satisfies fn.
func (p *NFCProvider) existsIn(s classes.Set, skip classes.ID, fn func(classes.ID) bool) bool {
	found := false
	s.Each(func(x classes.ID) bool {
		if x != skip && fn(x) {
			found = true
		}
		return !found
	})
	return found
}
