package alpha

import (
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/logflow/alphaminer/pkg/classes"
	"github.com/logflow/alphaminer/pkg/eventlog"
	"github.com/logflow/alphaminer/pkg/maximize"
	"github.com/logflow/alphaminer/pkg/petrinet"
	"github.com/logflow/alphaminer/pkg/relations"
)

// SharpResult is the outcome of Alpha#.
type SharpResult struct {
	Net *petrinet.Net

	// Universe names the ids used by the pairs and tuples below.
	Universe *classes.Universe

	// Orderings holds the non-redundant advanced ordering pairs, Redundant the
	// ones implied by longer chains.
	Orderings []classes.Pair
	Redundant []classes.Pair

	// Tuples holds the maximal AlphaSharpTuples; each became one silent
	// transition named "tau_<n>".
	Tuples []AlphaSharpTuple
}

// DiscoverAlphaSharp runs Alpha#, which models skippable behaviour with silent
// transitions.
//
// The net is built as Alpha+ over the sharp causal relation, with the advanced
// ordering pairs removed from causality. Each maximal tuple then contributes a
// silent transition that consumes from its In places and produces into its
// Out places. triangle may be nil, in which case it is computed from log.
func DiscoverAlphaSharp(log *eventlog.Log, triangle *relations.TriangleRelation, opts ...Option) SharpResult {
	o := newOptions(opts)

	full, projected := projectLoops(log)
	if triangle == nil {
		triangle = relations.NewTriangleRelation(projected)
	}
	sharp := relations.NewSharpProvider(relations.NewPlusProvider(relations.NewAlphaProvider(projected), triangle))
	u := projected.Universe()

	var orderings, redundant []classes.Pair
	for _, p := range relations.Pairs(projected.AllEventClasses(), sharp.AdvancedOrderingRelation) {
		if sharp.RedundantAdvancedOrderingRelation(p.First, p.Second) {
			redundant = append(redundant, p)
		} else {
			orderings = append(orderings, p)
		}
	}
	for _, p := range orderings {
		o.logger.WithFields(logrus.Fields{
			"from": u.Name(p.First),
			"to":   u.Name(p.Second),
		}).Info("alpha#: advanced ordering")
	}

	family := alphaFamily(sharp)
	b := netFromFamily(sharp, family)
	attachLoops(b, full, full.OneLengthLoops(), false, o.logger)

	tuples := sharpTuples(sharp, family, orderings)
	for i, t := range tuples {
		o.logger.WithField("tuple", t.Signature(u)).Info("alpha#: tuple")
		b.silent("tau_"+strconv.Itoa(i+1), placeIDs(b, t.In), placeIDs(b, t.Out))
	}

	o.logger.WithFields(logrus.Fields{
		"orderings": len(orderings),
		"redundant": len(redundant),
		"tuples":    len(tuples),
	}).Debug("alpha#: relations")

	return SharpResult{
		Net:       b.finish(projected.StartEventClasses(), projected.EndEventClasses()),
		Universe:  u,
		Orderings: orderings,
		Redundant: redundant,
		Tuples:    tuples,
	}
}

// sharpTuples seeds one tuple per ordering (a, b) and pair of places where a
// produces into the first and b consumes from the second.
func sharpTuples(p *relations.SharpProvider, family []AlphaSet, orderings []classes.Pair) []AlphaSharpTuple {
	var seeds []AlphaSharpTuple
	for _, ord := range orderings {
		for _, in := range family {
			if !in.Left.Contains(ord.First) {
				continue
			}
			for _, out := range family {
				if !out.Right.Contains(ord.Second) || in.Key() == out.Key() {
					continue
				}
				t := AlphaSharpTuple{In: []AlphaSet{in}, Out: []AlphaSet{out}}
				if t.valid(p) {
					seeds = append(seeds, t)
				}
			}
		}
	}

	tuples := maximize.Maximize(seeds, sharpMerger(p))
	return maximize.Filter(tuples, AlphaSharpTuple.coveredBy)
}

func placeIDs(b *netBuilder, sets []AlphaSet) []int {
	ids := make([]int, 0, len(sets))
	for _, s := range sets {
		ids = append(ids, b.place(s))
	}
	return ids
}
