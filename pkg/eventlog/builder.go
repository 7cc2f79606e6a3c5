package eventlog

import (
	"sort"
	"strconv"
	"time"
)

// Builder groups flat (case, activity, timestamp) rows into traces.
//
// Traces appear in the order their case was first seen. Events inside a trace
// are ordered by timestamp; rows with equal timestamps keep their input order.
type Builder struct {
	order []string
	rows  map[string][]Event
	count int
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{rows: make(map[string][]Event)}
}

// Add records one event for caseID. Rows with an empty case or activity are ignored.
func (b *Builder) Add(caseID, activity string, ts time.Time) {
	if caseID == "" || activity == "" {
		return
	}
	if _, ok := b.rows[caseID]; !ok {
		b.order = append(b.order, caseID)
	}
	b.rows[caseID] = append(b.rows[caseID], Event{name: activity, timestamp: ts})
	b.count++
}

// Len returns the number of events added so far.
func (b *Builder) Len() int { return b.count }

// Build assembles the log. The builder may keep being used afterwards.
func (b *Builder) Build() *Log {
	l := &Log{traces: make([]Trace, 0, len(b.order))}
	for _, id := range b.order {
		events := make([]Event, len(b.rows[id]))
		copy(events, b.rows[id])
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].timestamp.Before(events[j].timestamp)
		})
		l.traces = append(l.traces, Trace{caseID: id, events: events})
	}
	return l
}

func caseName(i int) string {
	return "case-" + strconv.Itoa(i)
}
