package types

import (
	"fmt"
	"strings"
)

// LevelIndex locates a node on one axis: the hierarchical level and the
// position of the node within that level.
type LevelIndex struct {
	Level, Index int
}

func (li LevelIndex) String() string {
	return fmt.Sprintf("(%d,%d)", li.Level, li.Index)
}

/*
A MultiIndex holds one LevelIndex per dimension and is the identity of a sparse
grid node. The coordinates of a node are derived from it and never stored as
the identity.
*/
type MultiIndex []LevelIndex

func NewMultiIndex(levels, indices []int) (mi MultiIndex) {
	if len(levels) != len(indices) {
		panic(fmt.Errorf("level and index counts differ: %d != %d", len(levels), len(indices)))
	}
	mi = make(MultiIndex, len(levels))
	for d := range levels {
		mi[d] = LevelIndex{levels[d], indices[d]}
	}
	return
}

// RootMultiIndex is the level zero node of every rule in dims dimensions.
func RootMultiIndex(dims int) MultiIndex {
	return make(MultiIndex, dims)
}

func (mi MultiIndex) Dims() int { return len(mi) }

func (mi MultiIndex) Copy() (R MultiIndex) {
	R = make(MultiIndex, len(mi))
	copy(R, mi)
	return
}

// With returns a copy of mi with dimension dim replaced by li.
func (mi MultiIndex) With(dim int, li LevelIndex) (R MultiIndex) {
	R = mi.Copy()
	R[dim] = li
	return
}

func (mi MultiIndex) TotalLevel() (sum int) {
	for _, li := range mi {
		sum += li.Level
	}
	return
}

func (mi MultiIndex) Levels() (levels []int) {
	levels = make([]int, len(mi))
	for d, li := range mi {
		levels[d] = li.Level
	}
	return
}

// Dominates is true when every level of mi is at least the level of other.
func (mi MultiIndex) Dominates(other MultiIndex) bool {
	for d := range mi {
		if mi[d].Level < other[d].Level {
			return false
		}
	}
	return true
}

func (mi MultiIndex) Equal(other MultiIndex) bool {
	if len(mi) != len(other) {
		return false
	}
	for d := range mi {
		if mi[d] != other[d] {
			return false
		}
	}
	return true
}

// HasNegative reports the first dimension holding a negative level or index.
func (mi MultiIndex) HasNegative() (dim int, found bool) {
	for d, li := range mi {
		if li.Level < 0 || li.Index < 0 {
			return d, true
		}
	}
	return -1, false
}

func (mi MultiIndex) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for d, li := range mi {
		if d != 0 {
			b.WriteByte(' ')
		}
		b.WriteString(li.String())
	}
	b.WriteByte(']')
	return b.String()
}
