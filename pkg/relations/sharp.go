package relations

import (
	"github.com/logflow/alphaminer/pkg/classes"
	"github.com/logflow/alphaminer/pkg/loginfo"
)

// SharpProvider adds the mendacious-dependency relations of Alpha#, which
// reveal invisible transitions hidden behind a > b.
type SharpProvider struct {
	plus PlusRelations

	advanced  *pairCache
	redundant *pairCache
}

// NewSharpProvider wraps plus.
func NewSharpProvider(plus PlusRelations) *SharpProvider {
	return &SharpProvider{
		plus:      plus,
		advanced:  newPairCache(),
		redundant: newPairCache(),
	}
}

func (p *SharpProvider) Info() *loginfo.Info { return p.plus.Info() }

func (p *SharpProvider) DirectRelation(a, b classes.ID) bool { return p.plus.DirectRelation(a, b) }

func (p *SharpProvider) ParallelRelation(a, b classes.ID) bool { return p.plus.ParallelRelation(a, b) }

func (p *SharpProvider) UnrelatedRelation(a, b classes.ID) bool { return p.plus.UnrelatedRelation(a, b) }

func (p *SharpProvider) TriangleRelation(a, b classes.ID) bool { return p.plus.TriangleRelation(a, b) }

func (p *SharpProvider) RombRelation(a, b classes.ID) bool { return p.plus.RombRelation(a, b) }

// CausalRelation drops the pairs explained by an invisible transition.
func (p *SharpProvider) CausalRelation(a, b classes.ID) bool {
	return p.plus.CausalRelation(a, b) && !p.AdvancedOrderingRelation(a, b)
}

// AdvancedOrderingRelation reports a mendacious dependency a -> b: a is
// causally followed by b, but a also leads to some x and b is also reached
// from some y, where y never directly precedes x and neither x nor y runs
// concurrently with the pair.
func (p *SharpProvider) AdvancedOrderingRelation(a, b classes.ID) bool {
	return p.advanced.get(a, b, func() bool {
		if !p.plus.CausalRelation(a, b) {
			return false
		}
		all := p.Info().AllEventClasses()
		found := false
		all.Each(func(x classes.ID) bool {
			if x == b || !p.plus.CausalRelation(a, x) || p.plus.ParallelRelation(x, b) {
				return true
			}
			all.Each(func(y classes.ID) bool {
				if y == a || !p.plus.CausalRelation(y, b) {
					return true
				}
				found = !p.DirectRelation(y, x) && !p.plus.ParallelRelation(a, y)
				return !found
			})
			return !found
		})
		return found
	})
}

// RedundantAdvancedOrderingRelation reports a -> b that is implied by a -> c -> b.
func (p *SharpProvider) RedundantAdvancedOrderingRelation(a, b classes.ID) bool {
	return p.redundant.get(a, b, func() bool {
		if !p.AdvancedOrderingRelation(a, b) {
			return false
		}
		found := false
		p.Info().AllEventClasses().Each(func(c classes.ID) bool {
			if c != a && c != b {
				found = p.AdvancedOrderingRelation(a, c) && p.AdvancedOrderingRelation(c, b)
			}
			return !found
		})
		return found
	})
}
