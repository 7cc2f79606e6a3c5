// Package loginfo aggregates an event log into the directly-follows statistics
// every discovery algorithm starts from.
//
// An Info is built in a single pass over the log and is immutable afterwards:
//   - per-class occurrence counts
//   - directly-follows counts, indexed both forwards and backwards
//   - start and end classes
//   - the projected traces, kept as class ids for algorithms that scan sequences
package loginfo

import (
	"github.com/logflow/alphaminer/pkg/classes"
	"github.com/logflow/alphaminer/pkg/eventlog"
)

// Info is the immutable snapshot of one log.
type Info struct {
	universe *classes.Universe
	ignored  classes.Set
	present  classes.Set

	tracesCount int
	eventsCount int

	counts     []int
	dfg        map[classes.Pair]int
	followedBy []map[classes.ID]int
	precededBy []map[classes.ID]int

	starts classes.Set
	ends   classes.Set
	traces [][]classes.ID
}

// Option configures how the log is projected before aggregation.
type Option func(*settings)

type settings struct {
	ignored    []string
	startClass string
	endClass   string
}

// WithIgnored removes events of the named classes from every trace before the
// directly-follows relation is computed, so x c y with c ignored yields x > y.
func WithIgnored(names ...string) Option {
	return func(s *settings) {
		s.ignored = append(s.ignored, names...)
	}
}

// WithArtificialBoundaries wraps every non-empty trace with synthetic start and
// end events of the given classes. An empty name leaves that side unwrapped.
func WithArtificialBoundaries(start, end string) Option {
	return func(s *settings) {
		s.startClass = start
		s.endClass = end
	}
}

// New aggregates log.
func New(log *eventlog.Log, opts ...Option) *Info {
	var s settings
	for _, o := range opts {
		o(&s)
	}

	names := log.Classes()
	for _, c := range []string{s.startClass, s.endClass} {
		if c != "" {
			names = append(names, c)
		}
	}
	u := classes.NewUniverse(names)

	info := &Info{
		universe:   u,
		ignored:    u.SetOf(s.ignored...),
		present:    classes.NewSet(),
		counts:     make([]int, u.Len()),
		dfg:        make(map[classes.Pair]int),
		followedBy: make([]map[classes.ID]int, u.Len()),
		precededBy: make([]map[classes.ID]int, u.Len()),
		starts:     classes.NewSet(),
		ends:       classes.NewSet(),
	}

	for _, t := range log.Traces() {
		info.tracesCount++

		seq := make([]classes.ID, 0, t.Len()+2)
		if s.startClass != "" && t.Len() > 0 {
			seq = append(seq, u.MustID(s.startClass))
		}
		for _, e := range t.Events() {
			id := u.MustID(e.Name())
			if info.ignored.Contains(id) {
				continue
			}
			seq = append(seq, id)
		}
		if s.endClass != "" && t.Len() > 0 {
			seq = append(seq, u.MustID(s.endClass))
		}

		info.traces = append(info.traces, seq)
		if len(seq) == 0 {
			continue
		}

		info.starts.Add(seq[0])
		info.ends.Add(seq[len(seq)-1])
		for i, id := range seq {
			info.eventsCount++
			info.counts[id]++
			info.present.Add(id)
			if i > 0 {
				info.addFollows(seq[i-1], id)
			}
		}
	}

	return info
}

func (info *Info) addFollows(a, b classes.ID) {
	info.dfg[classes.Pair{First: a, Second: b}]++

	if info.followedBy[a] == nil {
		info.followedBy[a] = make(map[classes.ID]int)
	}
	info.followedBy[a][b]++

	if info.precededBy[b] == nil {
		info.precededBy[b] = make(map[classes.ID]int)
	}
	info.precededBy[b][a]++
}

// Universe returns the class interner shared by every set this Info hands out.
func (info *Info) Universe() *classes.Universe { return info.universe }

// TracesCount returns the number of traces, including ones that are empty after projection.
func (info *Info) TracesCount() int { return info.tracesCount }

// EventsCount returns the number of events that survived projection.
func (info *Info) EventsCount() int { return info.eventsCount }

// EventCount returns how often class c occurs.
func (info *Info) EventCount(c classes.ID) int {
	if int(c) >= len(info.counts) {
		return 0
	}
	return info.counts[c]
}

// AllEventClasses returns every class that occurs after projection.
func (info *Info) AllEventClasses() classes.Set { return info.present.Clone() }

// Ignored returns the classes projected away.
func (info *Info) Ignored() classes.Set { return info.ignored.Clone() }

// DirectlyFollows returns how often a is directly followed by b.
func (info *Info) DirectlyFollows(a, b classes.ID) int {
	return info.dfg[classes.Pair{First: a, Second: b}]
}

// IsDirectlyFollowsRelated reports a > b.
func (info *Info) IsDirectlyFollowsRelated(a, b classes.ID) bool {
	return info.DirectlyFollows(a, b) > 0
}

// FollowedBy returns the classes directly following a with their counts.
// The map must not be modified.
func (info *Info) FollowedBy(a classes.ID) (map[classes.ID]int, bool) {
	if int(a) >= len(info.followedBy) || info.followedBy[a] == nil {
		return nil, false
	}
	return info.followedBy[a], true
}

// PrecededBy returns the classes directly preceding a with their counts.
// The map must not be modified.
func (info *Info) PrecededBy(a classes.ID) (map[classes.ID]int, bool) {
	if int(a) >= len(info.precededBy) || info.precededBy[a] == nil {
		return nil, false
	}
	return info.precededBy[a], true
}

// FollowedBySet is FollowedBy as a class set.
func (info *Info) FollowedBySet(a classes.ID) classes.Set {
	s := classes.NewSet()
	m, _ := info.FollowedBy(a)
	for id := range m {
		s.Add(id)
	}
	return s
}

// PrecededBySet is PrecededBy as a class set.
func (info *Info) PrecededBySet(a classes.ID) classes.Set {
	s := classes.NewSet()
	m, _ := info.PrecededBy(a)
	for id := range m {
		s.Add(id)
	}
	return s
}

// StartEventClasses returns the classes that begin some trace.
func (info *Info) StartEventClasses() classes.Set { return info.starts.Clone() }

// EndEventClasses returns the classes that end some trace.
func (info *Info) EndEventClasses() classes.Set { return info.ends.Clone() }

// OneLengthLoops returns every class c with c > c.
func (info *Info) OneLengthLoops() classes.Set {
	s := classes.NewSet()
	for p := range info.dfg {
		if p.First == p.Second {
			s.Add(p.First)
		}
	}
	return s
}

// Traces returns the projected traces as class ids. The slices must not be modified.
func (info *Info) Traces() [][]classes.ID { return info.traces }

// Edges returns every directly-follows pair with its count.
func (info *Info) Edges() map[classes.Pair]int {
	out := make(map[classes.Pair]int, len(info.dfg))
	for p, n := range info.dfg {
		out[p] = n
	}
	return out
}
