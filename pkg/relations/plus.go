package relations

import (
	"github.com/logflow/alphaminer/pkg/classes"
	"github.com/logflow/alphaminer/pkg/loginfo"
)

// TriangleRelation records the pairs (a, b) for which some trace contains
// a b a at consecutive positions.
type TriangleRelation struct {
	pairs map[classes.Pair]int
}

// NewTriangleRelation scans the traces of info.
func NewTriangleRelation(info *loginfo.Info) *TriangleRelation {
	tr := &TriangleRelation{pairs: make(map[classes.Pair]int)}
	for _, seq := range info.Traces() {
		for i := 2; i < len(seq); i++ {
			if seq[i] == seq[i-2] && seq[i] != seq[i-1] {
				tr.pairs[classes.Pair{First: seq[i], Second: seq[i-1]}]++
			}
		}
	}
	return tr
}

// Holds reports a triangle b.
func (t *TriangleRelation) Holds(a, b classes.ID) bool {
	return t.pairs[classes.Pair{First: a, Second: b}] > 0
}

// Count returns how often a b a was observed.
func (t *TriangleRelation) Count(a, b classes.ID) int {
	return t.pairs[classes.Pair{First: a, Second: b}]
}

// Len returns the number of related pairs.
func (t *TriangleRelation) Len() int { return len(t.pairs) }

// PlusRelations is the loop-aware capability used by Alpha+ and its successors.
type PlusRelations interface {
	Provider
	TriangleRelation(a, b classes.ID) bool
	RombRelation(a, b classes.ID) bool
}

// PlusProvider wraps a footprint provider so that length-two loops read as
// causal in both directions instead of parallel.
type PlusProvider struct {
	base     Provider
	triangle *TriangleRelation
}

// NewPlusProvider wraps base. A nil triangle is computed from base.Info().
func NewPlusProvider(base Provider, triangle *TriangleRelation) *PlusProvider {
	if triangle == nil {
		triangle = NewTriangleRelation(base.Info())
	}
	return &PlusProvider{base: base, triangle: triangle}
}

func (p *PlusProvider) Info() *loginfo.Info { return p.base.Info() }

// Triangle exposes the underlying triangle relation.
func (p *PlusProvider) Triangle() *TriangleRelation { return p.triangle }

func (p *PlusProvider) DirectRelation(a, b classes.ID) bool {
	return p.base.DirectRelation(a, b)
}

func (p *PlusProvider) UnrelatedRelation(a, b classes.ID) bool {
	return p.base.UnrelatedRelation(a, b)
}

// TriangleRelation reports a b a in some trace.
func (p *PlusProvider) TriangleRelation(a, b classes.ID) bool {
	return p.triangle.Holds(a, b)
}

// RombRelation reports triangle(a, b) and triangle(b, a).
func (p *PlusProvider) RombRelation(a, b classes.ID) bool {
	return p.triangle.Holds(a, b) && p.triangle.Holds(b, a)
}

// CausalRelation reports a > b where b > a is tolerated inside a length-two loop.
func (p *PlusProvider) CausalRelation(a, b classes.ID) bool {
	if !p.DirectRelation(a, b) {
		return false
	}
	return !p.DirectRelation(b, a) || p.RombRelation(a, b)
}

// ParallelRelation reports a > b and b > a outside a length-two loop.
func (p *PlusProvider) ParallelRelation(a, b classes.ID) bool {
	return p.DirectRelation(a, b) && p.DirectRelation(b, a) && !p.RombRelation(a, b)
}
