// Package eventlog holds the in-memory event log consumed by discovery and the
// readers that build it from tabular sources.
//
// A Log is an arena of traces; traces own their events by value, so a Log can
// be shared read-only between concurrent discovery calls.
package eventlog

import (
	"sort"
	"time"
)

// Event is one executed activity.
type Event struct {
	name      string
	timestamp time.Time
}

// NewEvent creates an event.
func NewEvent(name string, ts time.Time) Event {
	return Event{name: name, timestamp: ts}
}

// Name is the event class of the event.
func (e Event) Name() string { return e.name }

// Timestamp is the time the event was recorded, zero if unknown.
func (e Event) Timestamp() time.Time { return e.timestamp }

// Trace is the ordered sequence of events of one case.
type Trace struct {
	caseID string
	events []Event
}

// NewTrace creates a trace from already ordered events.
func NewTrace(caseID string, events []Event) Trace {
	return Trace{caseID: caseID, events: events}
}

// CaseID identifies the case the trace belongs to.
func (t Trace) CaseID() string { return t.caseID }

// Events returns the events in execution order.
func (t Trace) Events() []Event { return t.events }

// Len returns the number of events.
func (t Trace) Len() int { return len(t.events) }

// Names returns the event class of every event in order.
func (t Trace) Names() []string {
	names := make([]string, len(t.events))
	for i, e := range t.events {
		names[i] = e.name
	}
	return names
}

// Log is an ordered collection of traces.
type Log struct {
	traces []Trace
}

// New creates a log from traces.
func New(traces []Trace) *Log {
	return &Log{traces: traces}
}

// FromNames builds a log where every inner slice is one trace of event class names.
// Cases are numbered from 1 and events carry no timestamps.
func FromNames(traces [][]string) *Log {
	l := &Log{traces: make([]Trace, 0, len(traces))}
	for i, names := range traces {
		events := make([]Event, len(names))
		for j, n := range names {
			events[j] = Event{name: n}
		}
		l.traces = append(l.traces, Trace{caseID: caseName(i + 1), events: events})
	}
	return l
}

// Traces returns the traces in log order.
func (l *Log) Traces() []Trace {
	if l == nil {
		return nil
	}
	return l.traces
}

// Len returns the number of traces.
func (l *Log) Len() int {
	if l == nil {
		return 0
	}
	return len(l.traces)
}

// EventCount returns the total number of events.
func (l *Log) EventCount() int {
	n := 0
	for _, t := range l.Traces() {
		n += len(t.events)
	}
	return n
}

// Classes returns the distinct event class names, sorted.
func (l *Log) Classes() []string {
	seen := make(map[string]struct{})
	for _, t := range l.Traces() {
		for _, e := range t.events {
			seen[e.name] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Variants returns how many traces share each distinct activity sequence,
// keyed by the sequence joined with "\x1f".
func (l *Log) Variants() map[string]int {
	out := make(map[string]int)
	for _, t := range l.Traces() {
		out[variantKey(t)]++
	}
	return out
}

func variantKey(t Trace) string {
	n := 0
	for _, e := range t.events {
		n += len(e.name) + 1
	}
	b := make([]byte, 0, n)
	for i, e := range t.events {
		if i > 0 {
			b = append(b, 0x1f)
		}
		b = append(b, e.name...)
	}
	return string(b)
}
