package model

import (
	"sort"
	"testing"
)

func kr(left, right string) KeyRange {
	return NewKeyRange([]byte(left), []byte(right))
}

func TestKeyRangeCompare(t *testing.T) {
	cases := []struct {
		a, b KeyRange
		want int
	}{
		{kr("a", "m"), kr("a", "m"), 0},
		{kr("a", "m"), kr("b", "c"), -1},
		{kr("b", "c"), kr("a", "m"), 1},
		{kr("a", "c"), kr("a", "m"), -1},
		{FullKeyRange(), kr("a", "m"), -1},
		{kr("a", ""), kr("a", "m"), 1},
		{FullKeyRange(), FullKeyRange(), 0},
	}
	for _, c := range cases {
		if got := c.a.Compare(c.b); got != c.want {
			t.Errorf("Compare(%v, %v) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestKeyRangeOverlaps(t *testing.T) {
	cases := []struct {
		a, b KeyRange
		want bool
	}{
		{kr("a", "m"), kr("g", "z"), true},
		{kr("a", "b"), kr("y", "z"), false},
		// closed-open: touching endpoints do not overlap
		{kr("a", "g"), kr("g", "z"), false},
		{kr("a", "m"), kr("a", "m"), true},
		{FullKeyRange(), kr("g", "z"), true},
		{kr("a", ""), kr("y", "z"), true},
		{kr("", "b"), kr("y", "z"), false},
	}
	for _, c := range cases {
		if got := c.a.Overlaps(c.b); got != c.want {
			t.Errorf("Overlaps(%v, %v) = %v, want %v", c.a, c.b, got, c.want)
		}
		// symmetric
		if got := c.b.Overlaps(c.a); got != c.want {
			t.Errorf("Overlaps(%v, %v) = %v, want %v", c.b, c.a, got, c.want)
		}
	}
}

func TestKeyRangeUnion(t *testing.T) {
	u := kr("g", "m").Union(kr("a", "z"))
	if u.Compare(kr("a", "z")) != 0 {
		t.Errorf("union = %v, want [a, z)", u)
	}
	u = kr("a", "m").Union(kr("g", ""))
	if string(u.Left) != "a" || !u.RightUnbounded() {
		t.Errorf("union = %v, want [a, +inf)", u)
	}
}

func TestTablesSortByKeyRange(t *testing.T) {
	tables := []*SstableInfo{
		{Id: 3, KeyRange: kr("x", "z")},
		{Id: 1, KeyRange: kr("a", "c")},
		{Id: 2, KeyRange: kr("m", "p")},
	}
	sort.Sort(TablesByKeyRangeSlice(tables))
	for i, want := range []uint64{1, 2, 3} {
		if tables[i].Id != want {
			t.Errorf("tables[%d].Id = %d, want %d", i, tables[i].Id, want)
		}
	}
}
