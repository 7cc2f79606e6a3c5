// Package relations computes the ordering relations between event classes that
// the Alpha algorithm family is built on.
//
// Providers are layered by composition. AlphaProvider answers the basic
// footprint relations from directly-follows counts; PlusProvider wraps a
// provider and corrects causality for length-two loops; NFCProvider and
// SharpProvider wrap a PlusProvider and add the relations of Alpha++ and
// Alpha#. Every provider belongs to one discovery call and is not safe for
// concurrent use.
package relations

import (
	"github.com/logflow/alphaminer/pkg/classes"
	"github.com/logflow/alphaminer/pkg/loginfo"
)

// Provider is the footprint capability every discovery algorithm needs.
type Provider interface {
	// Info is the log snapshot the relations are computed from.
	Info() *loginfo.Info

	DirectRelation(a, b classes.ID) bool
	CausalRelation(a, b classes.ID) bool
	ParallelRelation(a, b classes.ID) bool
	UnrelatedRelation(a, b classes.ID) bool
}

// AlphaProvider derives relations straight from the directly-follows graph.
type AlphaProvider struct {
	info *loginfo.Info
}

// NewAlphaProvider creates the basic provider.
func NewAlphaProvider(info *loginfo.Info) *AlphaProvider {
	return &AlphaProvider{info: info}
}

func (p *AlphaProvider) Info() *loginfo.Info { return p.info }

// DirectRelation reports a > b.
func (p *AlphaProvider) DirectRelation(a, b classes.ID) bool {
	return p.info.IsDirectlyFollowsRelated(a, b)
}

// CausalRelation reports a > b and not b > a.
func (p *AlphaProvider) CausalRelation(a, b classes.ID) bool {
	return p.DirectRelation(a, b) && !p.DirectRelation(b, a)
}

// ParallelRelation reports a > b and b > a.
func (p *AlphaProvider) ParallelRelation(a, b classes.ID) bool {
	return p.DirectRelation(a, b) && p.DirectRelation(b, a)
}

// UnrelatedRelation reports that neither class directly follows the other.
func (p *AlphaProvider) UnrelatedRelation(a, b classes.ID) bool {
	return !p.DirectRelation(a, b) && !p.DirectRelation(b, a)
}

// pairCache memoizes one boolean relation per ordered class pair.
type pairCache struct {
	values map[classes.Pair]bool
}

func newPairCache() *pairCache {
	return &pairCache{values: make(map[classes.Pair]bool)}
}

func (c *pairCache) get(a, b classes.ID, compute func() bool) bool {
	key := classes.Pair{First: a, Second: b}
	if v, ok := c.values[key]; ok {
		return v
	}
	v := compute()
	c.values[key] = v
	return v
}

func (c *pairCache) len() int { return len(c.values) }

// Pairs lists the ordered pairs (a, b) of cs, a != b, for which rel holds.
func Pairs(cs classes.Set, rel func(a, b classes.ID) bool) []classes.Pair {
	ids := cs.IDs()
	var out []classes.Pair
	for _, a := range ids {
		for _, b := range ids {
			if a != b && rel(a, b) {
				out = append(out, classes.Pair{First: a, Second: b})
			}
		}
	}
	return out
}
