package alpha

import (
	"fmt"
	"sort"
	"strings"

	"github.com/logflow/alphaminer/pkg/petrinet"
)

// replay plays the token game for trace on net. Silent transitions may fire
// freely between visible ones. It reports whether the final marking is
// reached exactly.
func replay(net *petrinet.Net, trace []string) bool {
	states := closeSilent(net, []petrinet.Marking{net.InitialMarking().Clone()})
	for _, name := range trace {
		t, ok := net.FindTransitionByName(name)
		if !ok {
			return false
		}
		var next []petrinet.Marking
		for _, m := range states {
			if enabled(t, m) {
				next = append(next, fire(t, m))
			}
		}
		if len(next) == 0 {
			return false
		}
		states = closeSilent(net, next)
	}
	final := markingKey(net.FinalMarking())
	for _, m := range states {
		if markingKey(m) == final {
			return true
		}
	}
	return false
}

func enabled(t *petrinet.Transition, m petrinet.Marking) bool {
	for _, a := range t.IncomingArcs() {
		if m.Tokens(a.PlaceID()) < a.TokensCount() {
			return false
		}
	}
	return true
}

func fire(t *petrinet.Transition, m petrinet.Marking) petrinet.Marking {
	out := m.Clone()
	for _, a := range t.IncomingArcs() {
		out[a.PlaceID()] -= a.TokensCount()
		if out[a.PlaceID()] == 0 {
			delete(out, a.PlaceID())
		}
	}
	for _, a := range t.OutgoingArcs() {
		out[a.PlaceID()] += a.TokensCount()
	}
	return out
}

func closeSilent(net *petrinet.Net, states []petrinet.Marking) []petrinet.Marking {
	seen := make(map[string]bool)
	var out []petrinet.Marking
	queue := append([]petrinet.Marking(nil), states...)
	for len(queue) > 0 && len(seen) < 1000 {
		m := queue[0]
		queue = queue[1:]
		k := markingKey(m)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, m)
		for _, t := range net.AllTransitions() {
			if t.Silent && enabled(t, m) {
				queue = append(queue, fire(t, m))
			}
		}
	}
	return out
}

func markingKey(m petrinet.Marking) string {
	ids := make([]int, 0, len(m))
	for id, n := range m {
		if n > 0 {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d:%d", id, m[id])
	}
	return strings.Join(parts, ",")
}
