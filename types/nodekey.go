package types

import (
	"encoding/binary"
	"fmt"
)

const (
	// MaxLevel bounds the level of a single axis so the index fits in the packed key
	MaxLevel  = 48
	levelBits = 8
	indexBits = 64 - levelBits
)

/*
NodeKey is a comparable packing of a MultiIndex, used to address nodes by content.
Each dimension occupies eight bytes, the level in the top byte and the index in
the remaining 56 bits, so equal multi-indices always produce equal keys and a
key can be unpacked back into the multi-index.
*/
type NodeKey string

func NewNodeKey(mi MultiIndex) NodeKey {
	var (
		buf = make([]byte, 8*len(mi))
	)
	for d, li := range mi {
		if li.Level < 0 || li.Level > MaxLevel || li.Index < 0 || li.Index >= 1<<indexBits {
			panic(fmt.Errorf("unable to pack level %d, index %d of dimension %d into a node key",
				li.Level, li.Index, d))
		}
		packed := uint64(li.Level)<<indexBits | uint64(li.Index)
		binary.BigEndian.PutUint64(buf[8*d:], packed)
	}
	return NodeKey(buf)
}

func (mi MultiIndex) Key() NodeKey { return NewNodeKey(mi) }

func (nk NodeKey) Dims() int { return len(nk) / 8 }

func (nk NodeKey) MultiIndex() (mi MultiIndex) {
	var (
		dims = nk.Dims()
		mask = uint64(1)<<indexBits - 1
	)
	mi = make(MultiIndex, dims)
	for d := 0; d < dims; d++ {
		packed := binary.BigEndian.Uint64([]byte(nk[8*d : 8*d+8]))
		mi[d] = LevelIndex{
			Level: int(packed >> indexBits),
			Index: int(packed & mask),
		}
	}
	return
}
