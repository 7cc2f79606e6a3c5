package alpha

import (
	"github.com/sirupsen/logrus"

	"github.com/logflow/alphaminer/pkg/classes"
	"github.com/logflow/alphaminer/pkg/eventlog"
	"github.com/logflow/alphaminer/pkg/loginfo"
	"github.com/logflow/alphaminer/pkg/maximize"
	"github.com/logflow/alphaminer/pkg/petrinet"
	"github.com/logflow/alphaminer/pkg/relations"
)

// DiscoverAlphaPlusPlusNFC runs Alpha++, which recovers the non-free-choice
// dependencies the plain algorithm misses.
//
// The pipeline:
//  1. windows around one-length loops (L_W) are maximized from the full log
//  2. an Alpha+ net is built; its W1 pairs are forced causal and the net is rebuilt
//  3. W2 pairs of the rebuilt net are reduced and forced; the resulting
//     maximal sets form Y_W
//  4. the net of Y_W yields W3 pairs; after transitive reduction they form Z_W
//  5. every window becomes a place, and every Y_W or Z_W place not contained
//     in a window is added
//
// Each pass indexes its own net, so relation caches are never reused across nets.
func DiscoverAlphaPlusPlusNFC(log *eventlog.Log, opts ...Option) *petrinet.Net {
	o := newOptions(opts)

	full, projected := projectLoops(log)
	u := projected.Universe()
	loops := translate(full.OneLengthLoops(), full.Universe(), u)

	plus := relations.NewPlusProvider(relations.NewAlphaProvider(projected), relations.NewTriangleRelation(projected))
	nfc := relations.NewNFCProvider(plus)
	classSet := projected.AllEventClasses()

	windows := loopWindows(nfc, full, loops)

	net1 := alphaPlusNet(nfc, full, true, o)
	top1 := nfc.Topology(net1)
	w1 := relations.Pairs(classSet, func(a, b classes.ID) bool { return nfc.W1Relation(a, b, top1) })
	forced := make(map[classes.Pair]bool)
	for _, p := range w1 {
		nfc.AddAdditionalCausal(p.First, p.Second)
		forced[p] = true
	}

	net2 := alphaPlusNet(nfc, full, true, o)
	top2 := nfc.Topology(net2)
	w2 := relations.Pairs(classSet, func(a, b classes.ID) bool { return nfc.W2Relation(a, b, top2) })
	w2 = reduceImplied(nfc, classSet, w2)
	for _, p := range w2 {
		nfc.AddAdditionalCausal(p.First, p.Second)
		forced[p] = true
	}

	yw := extendedFamily(nfc, forced)

	b3 := netFromFamily(nfc, placesOf(yw))
	attachLoops(b3, full, full.OneLengthLoops(), true, o.logger)
	net3 := b3.finish(projected.StartEventClasses(), projected.EndEventClasses())
	top3 := nfc.Topology(net3)
	w3 := relations.Pairs(classSet, func(a, b classes.ID) bool { return nfc.W3Relation(a, b, top3) })
	w3 = reduceTransitive(w3)
	zw := w3Family(w3, nfc.UnrelatedRelation)

	o.logger.WithFields(logrus.Fields{
		"loop_windows": len(windows),
		"w1":           len(w1),
		"w2":           len(w2),
		"w3":           len(w3),
		"y_w":          len(yw),
		"z_w":          len(zw),
	}).Debug("alpha++: passes complete")

	b := newNetBuilder(u)
	b.addTransitions(classSet)
	b.addTransitions(loops)

	windowed := classes.NewSet()
	for _, w := range windows {
		pid := b.place(w.Place())
		w.Loops.Each(func(c classes.ID) bool {
			b.loop(c, pid)
			windowed.Add(c)
			return true
		})
	}

	candidates := placesOf(yw)
	for _, z := range zw {
		candidates = append(candidates, z.Place())
	}
	for _, s := range candidates {
		if !coveredByWindow(s, windows) {
			b.place(s)
		}
	}

	attachLoops(b, full, full.OneLengthLoops().Difference(translate(windowed, u, full.Universe())), false, o.logger)
	return b.finish(projected.StartEventClasses(), projected.EndEventClasses())
}

// loopWindows seeds (a, b, c) for every loop class c with a directly before
// and b directly after it, then maximizes the seeds.
func loopWindows(p relations.Provider, full *loginfo.Info, loops classes.Set) []LoopWindow {
	u := p.Info().Universe()
	nb := loopNeighbours{
		before: make(map[classes.ID]classes.Set),
		after:  make(map[classes.ID]classes.Set),
	}

	var seeds []LoopWindow
	loops.Each(func(c classes.ID) bool {
		fc := full.Universe().MustID(u.Name(c))
		before, after := loopNeighbourhood(full, fc)
		before = translate(before, full.Universe(), u)
		after = translate(after, full.Universe(), u)
		nb.before[c], nb.after[c] = before, after

		before.Each(func(a classes.ID) bool {
			after.Each(func(b classes.ID) bool {
				if a != b && p.UnrelatedRelation(a, a) && p.UnrelatedRelation(b, b) {
					seeds = append(seeds, LoopWindow{
						Left:  classes.NewSet(a),
						Right: classes.NewSet(b),
						Loops: classes.NewSet(c),
					})
				}
				return true
			})
			return true
		})
		return true
	})

	windows := maximize.Maximize(seeds, windowMerger(nb, p.UnrelatedRelation))
	return maximize.Filter(windows, func(a, b LoopWindow) bool {
		return a.Place().IsFullSubset(b.Place()) && a.Loops.IsSubsetOf(b.Loops)
	})
}

// extendedFamily maximizes the AlphaSets of the forced relation, tracking
// which classes entered through a forced pair.
func extendedFamily(p relations.Provider, forced map[classes.Pair]bool) []ExtendedAlphaSet {
	var seeds []ExtendedAlphaSet
	for _, s := range alphaSeeds(p) {
		ext := classes.NewSet()
		a, b := s.Left.IDs()[0], s.Right.IDs()[0]
		if forced[classes.Pair{First: a, Second: b}] {
			ext.Add(a)
			ext.Add(b)
		}
		seeds = append(seeds, ExtendedAlphaSet{AlphaSet: s, Extension: ext})
	}

	family := maximize.Maximize(seeds, extendedMerger(p))
	return maximize.Filter(family, func(a, b ExtendedAlphaSet) bool {
		return a.IsFullSubset(b.AlphaSet)
	})
}

func placesOf(family []ExtendedAlphaSet) []AlphaSet {
	out := make([]AlphaSet, len(family))
	for i, s := range family {
		out[i] = s.AlphaSet
	}
	return out
}

// reduceImplied drops (a, c) when some b gives a shorter explanation:
// (a, b) is kept with b concave c, or (b, c) is kept with a concave b.
func reduceImplied(p *relations.NFCProvider, all classes.Set, pairs []classes.Pair) []classes.Pair {
	in := make(map[classes.Pair]bool, len(pairs))
	for _, pr := range pairs {
		in[pr] = true
	}

	var out []classes.Pair
	for _, pr := range pairs {
		a, c := pr.First, pr.Second
		implied := false
		all.Each(func(b classes.ID) bool {
			if b == a || b == c {
				return true
			}
			implied = (in[classes.Pair{First: a, Second: b}] && p.ConcaveArrowRelation(b, c)) ||
				(in[classes.Pair{First: b, Second: c}] && p.ConcaveArrowRelation(a, b))
			return !implied
		})
		if !implied {
			out = append(out, pr)
		}
	}
	return out
}

// reduceTransitive drops (a, b) when b is reachable from a through at least
// two pairs.
func reduceTransitive(pairs []classes.Pair) []classes.Pair {
	succ := make(map[classes.ID][]classes.ID)
	for _, pr := range pairs {
		succ[pr.First] = append(succ[pr.First], pr.Second)
	}

	var out []classes.Pair
	for _, pr := range pairs {
		a, b := pr.First, pr.Second
		seen := map[classes.ID]bool{a: true}
		var queue []classes.ID
		for _, x := range succ[a] {
			if x != b && !seen[x] {
				seen[x] = true
				queue = append(queue, x)
			}
		}

		indirect := false
		for len(queue) > 0 && !indirect {
			x := queue[0]
			queue = queue[1:]
			for _, y := range succ[x] {
				if y == b {
					indirect = true
					break
				}
				if !seen[y] {
					seen[y] = true
					queue = append(queue, y)
				}
			}
		}
		if !indirect {
			out = append(out, pr)
		}
	}
	return out
}

func w3Family(pairs []classes.Pair, unrelated func(a, b classes.ID) bool) []W3Pair {
	linked := make(map[classes.Pair]bool, len(pairs))
	seeds := make([]W3Pair, 0, len(pairs))
	for _, pr := range pairs {
		linked[pr] = true
		seeds = append(seeds, W3Pair{Left: classes.NewSet(pr.First), Right: classes.NewSet(pr.Second)})
	}
	family := maximize.Maximize(seeds, w3Merger(linked, unrelated))
	return maximize.Filter(family, func(a, b W3Pair) bool {
		return a.Place().IsFullSubset(b.Place())
	})
}

// coveredByWindow also drops places strictly inside a window: the window
// already routes those classes, and a second place would strand a token.
func coveredByWindow(s AlphaSet, windows []LoopWindow) bool {
	for _, w := range windows {
		if s.IsFullSubset(w.Place()) {
			return true
		}
	}
	return false
}
