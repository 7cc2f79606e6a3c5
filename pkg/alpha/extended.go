package alpha

import (
	"sort"
	"strings"

	"github.com/logflow/alphaminer/pkg/classes"
	"github.com/logflow/alphaminer/pkg/relations"
)

// ExtendedAlphaSet is an AlphaSet found after non-free-choice pairs were
// forced into the causal relation. Extension holds the classes of the set that
// take part in at least one forced pair.
type ExtendedAlphaSet struct {
	AlphaSet
	Extension classes.Set
}

func (s ExtendedAlphaSet) Key() string {
	return s.AlphaSet.Key() + "|" + s.Extension.Key()
}

func extendedMerger(p relations.Provider) func(a, b ExtendedAlphaSet) (ExtendedAlphaSet, bool) {
	return func(a, b ExtendedAlphaSet) (ExtendedAlphaSet, bool) {
		if !a.CanExtend(b.AlphaSet, p) {
			return ExtendedAlphaSet{}, false
		}
		return ExtendedAlphaSet{
			AlphaSet:  a.Extend(b.AlphaSet),
			Extension: a.Extension.Union(b.Extension),
		}, true
	}
}

// LoopWindow is a place around one-length loops: the Loops classes consume
// from and produce into the place between Left and Right.
type LoopWindow struct {
	Left  classes.Set
	Right classes.Set
	Loops classes.Set
}

func (w LoopWindow) Key() string {
	return w.Left.Key() + "|" + w.Right.Key() + "|" + w.Loops.Key()
}

// Place returns the window without its loop classes.
func (w LoopWindow) Place() AlphaSet {
	return AlphaSet{Left: w.Left, Right: w.Right}
}

// loopNeighbours holds, per loop class, the non-loop classes that directly
// precede and follow it in the full log.
type loopNeighbours struct {
	before map[classes.ID]classes.Set
	after  map[classes.ID]classes.Set
}

func windowMerger(nb loopNeighbours, unrelated func(a, b classes.ID) bool) func(a, b LoopWindow) (LoopWindow, bool) {
	return func(a, b LoopWindow) (LoopWindow, bool) {
		shares := shareSide(a.Left, a.Right, b.Left, b.Right) ||
			a.Loops.IsSubsetOf(b.Loops) || b.Loops.IsSubsetOf(a.Loops)
		if !shares {
			return LoopWindow{}, false
		}
		w := LoopWindow{
			Left:  a.Left.Union(b.Left),
			Right: a.Right.Union(b.Right),
			Loops: a.Loops.Union(b.Loops),
		}
		if !w.valid(nb, unrelated) {
			return LoopWindow{}, false
		}
		return w, true
	}
}

func (w LoopWindow) valid(nb loopNeighbours, unrelated func(a, b classes.ID) bool) bool {
	if w.Left.Intersects(w.Right) {
		return false
	}
	ok := true
	w.Loops.Each(func(c classes.ID) bool {
		ok = w.Left.IsSubsetOf(nb.before[c]) && w.Right.IsSubsetOf(nb.after[c])
		return ok
	})
	if !ok {
		return false
	}
	return pairwiseUnrelated(w.Left.IDs(), unrelated) && pairwiseUnrelated(w.Right.IDs(), unrelated)
}

// W3Pair is a candidate place between classes linked by the W3 relation.
type W3Pair struct {
	Left  classes.Set
	Right classes.Set
}

func (w W3Pair) Key() string {
	return w.Left.Key() + "|" + w.Right.Key()
}

// Place returns the pair as an AlphaSet.
func (w W3Pair) Place() AlphaSet {
	return AlphaSet{Left: w.Left, Right: w.Right}
}

func w3Merger(w3 map[classes.Pair]bool, unrelated func(a, b classes.ID) bool) func(a, b W3Pair) (W3Pair, bool) {
	linked := func(a, b classes.ID) bool { return w3[classes.Pair{First: a, Second: b}] }
	return func(a, b W3Pair) (W3Pair, bool) {
		if !shareSide(a.Left, a.Right, b.Left, b.Right) {
			return W3Pair{}, false
		}
		w := W3Pair{Left: a.Left.Union(b.Left), Right: a.Right.Union(b.Right)}
		if !validPlace(w.Left, w.Right, linked, unrelated) {
			return W3Pair{}, false
		}
		return w, true
	}
}

// AlphaSharpTuple groups the places an invisible transition consumes from
// (In) and produces into (Out). Both lists are sorted by key.
type AlphaSharpTuple struct {
	In  []AlphaSet
	Out []AlphaSet
}

func (t AlphaSharpTuple) Key() string {
	return joinKeys(t.In) + "=>" + joinKeys(t.Out)
}

func joinKeys(sets []AlphaSet) string {
	keys := make([]string, len(sets))
	for i, s := range sets {
		keys[i] = s.Key()
	}
	return strings.Join(keys, ";")
}

// Signature renders the tuple as "In[({A},{B})] Out[({C},{D})]".
func (t AlphaSharpTuple) Signature(u *classes.Universe) string {
	render := func(sets []AlphaSet) string {
		parts := make([]string, len(sets))
		for i, s := range sets {
			parts[i] = s.Signature(u)
		}
		return strings.Join(parts, ",")
	}
	return "In[" + render(t.In) + "] Out[" + render(t.Out) + "]"
}

// coveredBy reports that every place of t appears in o on the same side.
func (t AlphaSharpTuple) coveredBy(o AlphaSharpTuple) bool {
	return subsetOfSets(t.In, o.In) && subsetOfSets(t.Out, o.Out)
}

func subsetOfSets(a, b []AlphaSet) bool {
	keys := make(map[string]struct{}, len(b))
	for _, s := range b {
		keys[s.Key()] = struct{}{}
	}
	for _, s := range a {
		if _, ok := keys[s.Key()]; !ok {
			return false
		}
	}
	return true
}

func unionSets(a, b []AlphaSet) []AlphaSet {
	seen := make(map[string]struct{}, len(a)+len(b))
	var out []AlphaSet
	for _, s := range append(append([]AlphaSet(nil), a...), b...) {
		if _, ok := seen[s.Key()]; ok {
			continue
		}
		seen[s.Key()] = struct{}{}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// sharpMerger merges tuples sharing their in or out places. The union is valid
// when every left class of an in place is in advanced ordering with every
// right class of an out place, and places on the same side are concurrent:
// the consumers of distinct in places, and the producers of distinct out
// places, are pairwise parallel.
func sharpMerger(p *relations.SharpProvider) func(a, b AlphaSharpTuple) (AlphaSharpTuple, bool) {
	return func(a, b AlphaSharpTuple) (AlphaSharpTuple, bool) {
		if !(subsetOfSets(a.In, b.In) || subsetOfSets(b.In, a.In) ||
			subsetOfSets(a.Out, b.Out) || subsetOfSets(b.Out, a.Out)) {
			return AlphaSharpTuple{}, false
		}
		t := AlphaSharpTuple{In: unionSets(a.In, b.In), Out: unionSets(a.Out, b.Out)}
		if !t.valid(p) {
			return AlphaSharpTuple{}, false
		}
		return t, true
	}
}

func (t AlphaSharpTuple) valid(p *relations.SharpProvider) bool {
	for _, in := range t.In {
		for _, out := range t.Out {
			if !allPairs(in.Left, out.Right, p.AdvancedOrderingRelation) {
				return false
			}
		}
	}
	for i := range t.In {
		for j := i + 1; j < len(t.In); j++ {
			if !allPairs(t.In[i].Right, t.In[j].Right, distinctParallel(p)) {
				return false
			}
		}
	}
	for i := range t.Out {
		for j := i + 1; j < len(t.Out); j++ {
			if !allPairs(t.Out[i].Left, t.Out[j].Left, distinctParallel(p)) {
				return false
			}
		}
	}
	return true
}

func distinctParallel(p relations.Provider) func(a, b classes.ID) bool {
	return func(a, b classes.ID) bool {
		return a == b || p.ParallelRelation(a, b)
	}
}

func allPairs(xs, ys classes.Set, rel func(a, b classes.ID) bool) bool {
	for _, x := range xs.IDs() {
		for _, y := range ys.IDs() {
			if !rel(x, y) {
				return false
			}
		}
	}
	return true
}
