package alpha

import (
	"strings"

	"github.com/logflow/alphaminer/pkg/classes"
	"github.com/logflow/alphaminer/pkg/relations"
)

// AlphaSet is a candidate place: every class in Left causally precedes every
// class in Right, and the classes on each side are pairwise unrelated.
// Sets are never mutated after construction.
type AlphaSet struct {
	Left  classes.Set
	Right classes.Set
}

// NewAlphaSet creates the singleton candidate for the causal pair a -> b.
func NewAlphaSet(a, b classes.ID) AlphaSet {
	return AlphaSet{Left: classes.NewSet(a), Right: classes.NewSet(b)}
}

// Key identifies the set by class ids.
func (s AlphaSet) Key() string {
	return s.Left.Key() + "|" + s.Right.Key()
}

// Signature renders the set as "({A,B},{C})"; places are named by it.
func (s AlphaSet) Signature(u *classes.Universe) string {
	return signature(u, s.Left, s.Right)
}

func signature(u *classes.Universe, sets ...classes.Set) string {
	parts := make([]string, len(sets))
	for i, s := range sets {
		parts[i] = u.Format(s)
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// IsFullSubset reports that both sides of s are contained in the sides of o.
func (s AlphaSet) IsFullSubset(o AlphaSet) bool {
	return s.Left.IsSubsetOf(o.Left) && s.Right.IsSubsetOf(o.Right)
}

// shareSide reports that one side of a contains or is contained in the same side of b.
func shareSide(aLeft, aRight, bLeft, bRight classes.Set) bool {
	return aLeft.IsSubsetOf(bLeft) || bLeft.IsSubsetOf(aLeft) ||
		aRight.IsSubsetOf(bRight) || bRight.IsSubsetOf(aRight)
}

// CanExtend reports whether s and o share a side and their union is still a
// valid candidate under p.
func (s AlphaSet) CanExtend(o AlphaSet, p relations.Provider) bool {
	if !shareSide(s.Left, s.Right, o.Left, o.Right) {
		return false
	}
	return validPlace(s.Left.Union(o.Left), s.Right.Union(o.Right), p.CausalRelation, p.UnrelatedRelation)
}

// Extend returns the union of s and o.
func (s AlphaSet) Extend(o AlphaSet) AlphaSet {
	return AlphaSet{Left: s.Left.Union(o.Left), Right: s.Right.Union(o.Right)}
}

// IsValid checks the AlphaSet invariant under p.
func (s AlphaSet) IsValid(p relations.Provider) bool {
	return validPlace(s.Left, s.Right, p.CausalRelation, p.UnrelatedRelation)
}

// merger adapts CanExtend/Extend to maximize.Maximize.
func merger(p relations.Provider) func(a, b AlphaSet) (AlphaSet, bool) {
	return func(a, b AlphaSet) (AlphaSet, bool) {
		if !a.CanExtend(b, p) {
			return AlphaSet{}, false
		}
		return a.Extend(b), true
	}
}

func validPlace(left, right classes.Set, causal, unrelated func(a, b classes.ID) bool) bool {
	if left.IsEmpty() || right.IsEmpty() || left.Intersects(right) {
		return false
	}
	l, r := left.IDs(), right.IDs()
	for _, a := range l {
		for _, b := range r {
			if !causal(a, b) {
				return false
			}
		}
	}
	return pairwiseUnrelated(l, unrelated) && pairwiseUnrelated(r, unrelated)
}

func pairwiseUnrelated(ids []classes.ID, unrelated func(a, b classes.ID) bool) bool {
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if !unrelated(ids[i], ids[j]) {
				return false
			}
		}
	}
	return true
}
