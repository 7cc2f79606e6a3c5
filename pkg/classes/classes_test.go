package classes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniverse_SortedIDs(t *testing.T) {
	u := NewUniverse([]string{"C", "A", "B", "A"})

	require.Equal(t, 3, u.Len())
	assert.Equal(t, ID(0), u.MustID("A"))
	assert.Equal(t, ID(1), u.MustID("B"))
	assert.Equal(t, ID(2), u.MustID("C"))
	assert.Equal(t, "C", u.Name(2))
	assert.Equal(t, "", u.Name(10))

	_, ok := u.ID("missing")
	assert.False(t, ok)
}

func TestUniverse_Format(t *testing.T) {
	u := NewUniverse([]string{"register", "check", "decide"})
	s := u.SetOf("decide", "check", "unknown")

	assert.Equal(t, []string{"check", "decide"}, u.Names(s))
	assert.Equal(t, "{check,decide}", u.Format(s))
	assert.Equal(t, 3, u.All().Len())
}

func TestSet_Algebra(t *testing.T) {
	a := NewSet(1, 2)
	b := NewSet(1, 2, 3)
	c := NewSet(4)

	tests := []struct {
		name string
		got  bool
		want bool
	}{
		{"subset", a.IsSubsetOf(b), true},
		{"not superset", b.IsSubsetOf(a), false},
		{"empty subset", Set{}.IsSubsetOf(a), true},
		{"intersects", a.Intersects(b), true},
		{"disjoint", a.Intersects(c), false},
		{"equal clone", a.Equal(a.Clone()), true},
		{"zero equals empty", Set{}.Equal(NewSet()), true},
		{"contains", b.Contains(3), true},
		{"zero contains", Set{}.Contains(0), false},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}

	assert.Equal(t, "1,2,3,4", b.Union(c).Key())
	assert.Equal(t, "3", b.Difference(a).Key())
	assert.Equal(t, "1,2", b.Intersection(a).Key())
	assert.Equal(t, "1,3", b.Without(2).Key())
	assert.Equal(t, "1,2,3", b.Key(), "Without must not mutate the receiver")
}

func TestSet_Each(t *testing.T) {
	s := NewSet(5, 1, 3)

	var seen []ID
	s.Each(func(id ID) bool {
		seen = append(seen, id)
		return id < 3
	})

	assert.Equal(t, []ID{1, 3}, seen)
	assert.Equal(t, []ID{1, 3, 5}, s.IDs())
}
