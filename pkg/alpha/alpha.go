// Package alpha discovers Petri nets from event logs with the Alpha algorithm
// family: Alpha, Alpha+, Alpha++ with non-free-choice detection, and Alpha#.
//
// Every entry point is a pure, synchronous function of its inputs. Providers
// and caches are created per call, so independent calls may run concurrently
// as long as they do not share a provider.
package alpha

import (
	"github.com/logflow/alphaminer/pkg/classes"
	"github.com/logflow/alphaminer/pkg/maximize"
	"github.com/logflow/alphaminer/pkg/petrinet"
	"github.com/logflow/alphaminer/pkg/relations"
)

// DiscoverAlpha runs the classic Alpha algorithm over the relations of provider.
//
// One transition is created per event class and one place per maximal
// AlphaSet. A start place feeds the start classes, an end place is fed by the
// end classes, and the markings put one token on each. An empty log yields a
// net with only the two boundary places.
func DiscoverAlpha(provider relations.Provider, opts ...Option) *petrinet.Net {
	o := newOptions(opts)
	info := provider.Info()

	b := buildAlphaNet(provider, o)
	return b.finish(info.StartEventClasses(), info.EndEventClasses())
}

// buildAlphaNet creates the transitions and the maximal AlphaSet places.
func buildAlphaNet(provider relations.Provider, o *options) *netBuilder {
	family := alphaFamily(provider)
	o.logger.WithField("places", len(family)).Debug("alpha: maximal sets")
	return netFromFamily(provider, family)
}

func netFromFamily(provider relations.Provider, family []AlphaSet) *netBuilder {
	info := provider.Info()
	b := newNetBuilder(info.Universe())
	b.addTransitions(info.AllEventClasses())
	for _, s := range family {
		b.place(s)
	}
	return b
}

// alphaFamily seeds one AlphaSet per causal pair, maximizes the seeds and
// keeps the inclusion-maximal results.
func alphaFamily(provider relations.Provider) []AlphaSet {
	return maximalAlphaSets(alphaSeeds(provider), provider)
}

func alphaSeeds(provider relations.Provider) []AlphaSet {
	info := provider.Info()
	all := info.AllEventClasses()

	var seeds []AlphaSet
	all.Each(func(a classes.ID) bool {
		if _, ok := info.FollowedBy(a); !ok || !provider.UnrelatedRelation(a, a) {
			return true
		}
		all.Each(func(b classes.ID) bool {
			if provider.CausalRelation(a, b) && provider.UnrelatedRelation(b, b) {
				seeds = append(seeds, NewAlphaSet(a, b))
			}
			return true
		})
		return true
	})
	return seeds
}

func maximalAlphaSets(seeds []AlphaSet, provider relations.Provider) []AlphaSet {
	family := maximize.Maximize(seeds, merger(provider))
	return maximize.Filter(family, AlphaSet.IsFullSubset)
}
