package model

import (
	"bytes"
	"fmt"
)

// KeyRange is a closed-open interval [Left, Right) over opaque user keys.
// An empty Left means negative infinity, an empty Right means positive
// infinity, so the zero value covers the whole key space.
type KeyRange struct {
	Left  []byte `msgpack:"left"`
	Right []byte `msgpack:"right"`
}

func NewKeyRange(left, right []byte) KeyRange {
	return KeyRange{Left: left, Right: right}
}

// FullKeyRange covers (-inf, +inf).
func FullKeyRange() KeyRange {
	return KeyRange{}
}

func (r KeyRange) LeftUnbounded() bool {
	return len(r.Left) == 0
}

func (r KeyRange) RightUnbounded() bool {
	return len(r.Right) == 0
}

// compareLeftBound treats an empty bound as negative infinity.
func compareLeftBound(a, b []byte) int {
	if len(a) == 0 || len(b) == 0 {
		if len(a) == len(b) {
			return 0
		}
		if len(a) == 0 {
			return -1
		}
		return 1
	}
	return bytes.Compare(a, b)
}

// compareRightBound treats an empty bound as positive infinity.
func compareRightBound(a, b []byte) int {
	if len(a) == 0 || len(b) == 0 {
		if len(a) == len(b) {
			return 0
		}
		if len(a) == 0 {
			return 1
		}
		return -1
	}
	return bytes.Compare(a, b)
}

// Compare orders ranges by left bound, then by right bound.
func (r KeyRange) Compare(o KeyRange) int {
	if c := compareLeftBound(r.Left, o.Left); c != 0 {
		return c
	}
	return compareRightBound(r.Right, o.Right)
}

// Overlaps reports whether the two closed-open intervals intersect.
// It is symmetric, and reflexive for any non-empty range.
func (r KeyRange) Overlaps(o KeyRange) bool {
	if !r.RightUnbounded() && compareLeftBound(o.Left, r.Right) >= 0 {
		return false
	}
	if !o.RightUnbounded() && compareLeftBound(r.Left, o.Right) >= 0 {
		return false
	}
	return true
}

// Union extends r to the smallest range covering both r and o.
func (r KeyRange) Union(o KeyRange) KeyRange {
	out := r
	if compareLeftBound(o.Left, r.Left) < 0 {
		out.Left = o.Left
	}
	if compareRightBound(o.Right, r.Right) > 0 {
		out.Right = o.Right
	}
	return out
}

func (r KeyRange) Clone() KeyRange {
	return KeyRange{
		Left:  append([]byte(nil), r.Left...),
		Right: append([]byte(nil), r.Right...),
	}
}

func (r KeyRange) String() string {
	left, right := "-inf", "+inf"
	if !r.LeftUnbounded() {
		left = fmt.Sprintf("%q", r.Left)
	}
	if !r.RightUnbounded() {
		right = fmt.Sprintf("%q", r.Right)
	}
	return fmt.Sprintf("[%s, %s)", left, right)
}
