// Package classes interns event class names into dense integer ids and provides
// roaring-bitmap backed sets of classes.
//
// Ids are assigned in lexicographic order of the class names, so iterating a Set
// in id order is the same as iterating it in name order.
package classes

import (
	"sort"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring"
)

// ID identifies an event class inside one Universe.
type ID uint32

// Universe maps class names to ids and back.
type Universe struct {
	names []string
	index map[string]ID
}

// NewUniverse interns the distinct names in lexicographic order.
func NewUniverse(names []string) *Universe {
	distinct := make(map[string]struct{}, len(names))
	for _, n := range names {
		distinct[n] = struct{}{}
	}

	sorted := make([]string, 0, len(distinct))
	for n := range distinct {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	u := &Universe{
		names: sorted,
		index: make(map[string]ID, len(sorted)),
	}
	for i, n := range sorted {
		u.index[n] = ID(i)
	}
	return u
}

// ID returns the id of a class name.
func (u *Universe) ID(name string) (ID, bool) {
	id, ok := u.index[name]
	return id, ok
}

// MustID returns the id of a class name and panics if it is unknown.
func (u *Universe) MustID(name string) ID {
	id, ok := u.index[name]
	if !ok {
		panic("classes: unknown event class " + strconv.Quote(name))
	}
	return id
}

// Name returns the class name for an id.
func (u *Universe) Name(id ID) string {
	if int(id) >= len(u.names) {
		return ""
	}
	return u.names[id]
}

// Len returns the number of interned classes.
func (u *Universe) Len() int {
	return len(u.names)
}

// All returns a set holding every interned class.
func (u *Universe) All() Set {
	s := NewSet()
	if len(u.names) > 0 {
		s.bm.AddRange(0, uint64(len(u.names)))
	}
	return s
}

// SetOf builds a set from class names, skipping names the universe does not know.
func (u *Universe) SetOf(names ...string) Set {
	s := NewSet()
	for _, n := range names {
		if id, ok := u.index[n]; ok {
			s.Add(id)
		}
	}
	return s
}

// Names returns the names of the classes in s in lexicographic order.
func (u *Universe) Names(s Set) []string {
	ids := s.IDs()
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = u.Name(id)
	}
	return names
}

// Format renders s as "{A,B,C}".
func (u *Universe) Format(s Set) string {
	return "{" + strings.Join(u.Names(s), ",") + "}"
}

// Set is a set of class ids. The zero value is an empty, read-only set; use
// NewSet for a set that can be added to.
type Set struct {
	bm *roaring.Bitmap
}

// NewSet creates a set holding ids.
func NewSet(ids ...ID) Set {
	bm := roaring.New()
	for _, id := range ids {
		bm.Add(uint32(id))
	}
	return Set{bm: bm}
}

// Add inserts id into the set.
func (s Set) Add(id ID) {
	s.bm.Add(uint32(id))
}

// Contains reports whether id is in the set.
func (s Set) Contains(id ID) bool {
	return s.bm != nil && s.bm.Contains(uint32(id))
}

// Len returns the cardinality of the set.
func (s Set) Len() int {
	if s.bm == nil {
		return 0
	}
	return int(s.bm.GetCardinality())
}

// IsEmpty reports whether the set has no elements.
func (s Set) IsEmpty() bool {
	return s.bm == nil || s.bm.IsEmpty()
}

// IsSubsetOf reports whether every element of s is in o.
func (s Set) IsSubsetOf(o Set) bool {
	if s.IsEmpty() {
		return true
	}
	if o.IsEmpty() {
		return false
	}
	return s.bm.AndCardinality(o.bm) == s.bm.GetCardinality()
}

// Intersects reports whether s and o share an element.
func (s Set) Intersects(o Set) bool {
	if s.IsEmpty() || o.IsEmpty() {
		return false
	}
	return s.bm.Intersects(o.bm)
}

// Equal reports whether s and o hold the same elements.
func (s Set) Equal(o Set) bool {
	if s.IsEmpty() || o.IsEmpty() {
		return s.IsEmpty() == o.IsEmpty()
	}
	return s.bm.Equals(o.bm)
}

// Union returns a new set with the elements of s and o.
func (s Set) Union(o Set) Set {
	switch {
	case s.bm == nil && o.bm == nil:
		return NewSet()
	case s.bm == nil:
		return o.Clone()
	case o.bm == nil:
		return s.Clone()
	}
	return Set{bm: roaring.Or(s.bm, o.bm)}
}

// Intersection returns a new set with the elements both s and o hold.
func (s Set) Intersection(o Set) Set {
	if s.bm == nil || o.bm == nil {
		return NewSet()
	}
	return Set{bm: roaring.And(s.bm, o.bm)}
}

// Difference returns a new set with the elements of s that are not in o.
func (s Set) Difference(o Set) Set {
	if s.bm == nil {
		return NewSet()
	}
	if o.bm == nil {
		return s.Clone()
	}
	return Set{bm: roaring.AndNot(s.bm, o.bm)}
}

// Without returns a copy of s with id removed.
func (s Set) Without(id ID) Set {
	c := s.Clone()
	c.bm.Remove(uint32(id))
	return c
}

// Clone returns an independent copy of s.
func (s Set) Clone() Set {
	if s.bm == nil {
		return NewSet()
	}
	return Set{bm: s.bm.Clone()}
}

// IDs returns the elements in ascending order.
func (s Set) IDs() []ID {
	if s.bm == nil {
		return nil
	}
	raw := s.bm.ToArray()
	ids := make([]ID, len(raw))
	for i, v := range raw {
		ids[i] = ID(v)
	}
	return ids
}

// Each calls fn for every element in ascending order until fn returns false.
func (s Set) Each(fn func(ID) bool) {
	if s.bm == nil {
		return
	}
	s.bm.Iterate(func(x uint32) bool {
		return fn(ID(x))
	})
}

// Key is a canonical string form of the set, e.g. "0,3,7".
func (s Set) Key() string {
	var sb strings.Builder
	for i, id := range s.IDs() {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatUint(uint64(id), 10))
	}
	return sb.String()
}

// Pair is an ordered pair of classes, used as a relation cache key.
type Pair struct {
	First  ID
	Second ID
}
