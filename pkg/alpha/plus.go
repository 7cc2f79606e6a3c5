package alpha

import (
	"github.com/sirupsen/logrus"

	"github.com/logflow/alphaminer/pkg/classes"
	"github.com/logflow/alphaminer/pkg/eventlog"
	"github.com/logflow/alphaminer/pkg/loginfo"
	"github.com/logflow/alphaminer/pkg/petrinet"
	"github.com/logflow/alphaminer/pkg/relations"
)

// DiscoverAlphaPlus runs Alpha+.
//
// provider must be built on a projection of the log with the one-length-loop
// classes ignored; info is the unprojected snapshot of the same log. The
// Alpha net of provider is built first, then every loop class c is attached
// around the place between the non-loop classes directly before and after it.
// With alphaPlusPlus set, c is also connected to every place whose AlphaSet is
// contained in that derived set.
func DiscoverAlphaPlus(provider relations.Provider, info *loginfo.Info, alphaPlusPlus bool, opts ...Option) *petrinet.Net {
	return alphaPlusNet(provider, info, alphaPlusPlus, newOptions(opts))
}

func alphaPlusNet(provider relations.Provider, info *loginfo.Info, alphaPlusPlus bool, o *options) *petrinet.Net {
	b := buildAlphaNet(provider, o)
	attachLoops(b, info, info.OneLengthLoops(), alphaPlusPlus, o.logger)

	projected := provider.Info()
	return b.finish(projected.StartEventClasses(), projected.EndEventClasses())
}

// DiscoverAlphaPlusLog builds the projected provider for log and runs DiscoverAlphaPlus.
func DiscoverAlphaPlusLog(log *eventlog.Log, alphaPlusPlus bool, opts ...Option) *petrinet.Net {
	full, projected := projectLoops(log)
	provider := relations.NewPlusProvider(relations.NewAlphaProvider(projected), nil)
	return DiscoverAlphaPlus(provider, full, alphaPlusPlus, opts...)
}

// projectLoops returns the full snapshot of log and the one with its
// one-length-loop classes ignored.
func projectLoops(log *eventlog.Log) (full, projected *loginfo.Info) {
	full = loginfo.New(log)
	loops := full.Universe().Names(full.OneLengthLoops())
	return full, loginfo.New(log, loginfo.WithIgnored(loops...))
}

// translate maps a set of ids between universes by class name.
func translate(s classes.Set, from, to *classes.Universe) classes.Set {
	if from == to {
		return s
	}
	return to.SetOf(from.Names(s)...)
}

// loopNeighbourhood returns the non-loop classes directly before and after c.
func loopNeighbourhood(info *loginfo.Info, c classes.ID) (before, after classes.Set) {
	allLoops := info.OneLengthLoops()
	return info.PrecededBySet(c).Difference(allLoops), info.FollowedBySet(c).Difference(allLoops)
}

func attachLoops(b *netBuilder, info *loginfo.Info, loops classes.Set, alphaPlusPlus bool, log logrus.FieldLogger) {
	loops.Each(func(c classes.ID) bool {
		before, after := loopNeighbourhood(info, c)
		before = translate(before, info.Universe(), b.u)
		after = translate(after, info.Universe(), b.u)
		name := info.Universe().Name(c)
		id, ok := b.u.ID(name)
		if !ok {
			return true
		}

		place, derived := b.attachLoop(id, before, after)
		log.WithFields(logrus.Fields{"class": name, "place": place}).Debug("alpha+: loop attached")

		if !alphaPlusPlus {
			return true
		}
		for _, p := range b.net.AllPlaces() {
			if s, ok := b.places[p.ID]; ok && s.IsFullSubset(derived) {
				b.loop(id, p.ID)
			}
		}
		return true
	})
}
