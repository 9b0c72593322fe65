package nodestore

import (
	"fmt"
	"sort"

	"github.com/tidwall/btree"

	"github.com/notargets/sparsegrid/basis"
	"github.com/notargets/sparsegrid/types"
)

// NodeID is a stable arena index, ids are dense and never reused.
type NodeID int

const NoNode NodeID = -1

type levelItem struct {
	total int
	id    NodeID
}

func levelLess(a, b levelItem) bool {
	if a.total != b.total {
		return a.total < b.total
	}
	return a.id < b.id
}

/*
Store holds the nodes of one sparse grid. Nodes live in parallel slices
addressed by NodeID and are found by content through their packed key. A
B-tree ordered by (total level, id) yields the nodes in an order where every
ancestor precedes its descendants.

A Store is not safe for concurrent mutation, the owning grid serializes writes.
*/
type Store struct {
	rule   basis.Rule
	dims   int
	domain *Domain
	keys   []types.NodeKey
	mis    []types.MultiIndex
	coords [][]float64 // canonical coordinates
	lookup map[types.NodeKey]NodeID
	levels *btree.BTreeG[levelItem]
}

// New creates an empty store, a nil domain keeps the canonical cube.
func New(rule basis.Rule, dims int, domain *Domain) (s *Store) {
	if domain != nil && domain.Dims() != dims {
		panic(fmt.Errorf("domain has %d dimensions, store has %d", domain.Dims(), dims))
	}
	s = &Store{
		rule:   rule,
		dims:   dims,
		domain: domain,
	}
	s.Reset()
	return
}

func (s *Store) Reset() {
	s.keys = nil
	s.mis = nil
	s.coords = nil
	s.lookup = make(map[types.NodeKey]NodeID)
	s.levels = btree.NewBTreeG[levelItem](levelLess)
}

func (s *Store) Rule() basis.Rule { return s.rule }
func (s *Store) Dims() int        { return s.dims }
func (s *Store) Domain() *Domain  { return s.domain }
func (s *Store) Len() int         { return len(s.mis) }

/*
AddNode inserts mi and returns its id. Adding a multi-index that is already
stored returns the existing id with added set to false.
*/
func (s *Store) AddNode(mi types.MultiIndex) (id NodeID, added bool, err error) {
	if len(mi) != s.dims {
		err = types.NewNodeError(types.InvalidIndex, "AddNode", mi,
			fmt.Sprintf("multi-index has %d dimensions, grid has %d", len(mi), s.dims))
		return
	}
	if d, neg := mi.HasNegative(); neg {
		err = types.NewNodeError(types.InvalidIndex, "AddNode", mi,
			fmt.Sprintf("negative level or index in dimension %d", d))
		return
	}
	if err = basis.CheckMultiIndex(s.rule, mi); err != nil {
		return
	}
	key := mi.Key()
	if existing, ok := s.lookup[key]; ok {
		return existing, false, nil
	}
	id = NodeID(len(s.mis))
	s.keys = append(s.keys, key)
	s.mis = append(s.mis, mi.Copy())
	s.coords = append(s.coords, basis.Coordinates(s.rule, mi))
	s.lookup[key] = id
	s.levels.Set(levelItem{total: mi.TotalLevel(), id: id})
	return id, true, nil
}

func (s *Store) Lookup(mi types.MultiIndex) (id NodeID, ok bool) {
	if len(mi) != s.dims {
		return NoNode, false
	}
	if _, neg := mi.HasNegative(); neg {
		return NoNode, false
	}
	id, ok = s.lookup[mi.Key()]
	if !ok {
		id = NoNode
	}
	return
}

func (s *Store) check(id NodeID) {
	if id < 0 || int(id) >= len(s.mis) {
		panic(fmt.Errorf("node id %d out of range [0,%d)", id, len(s.mis)))
	}
}

// MultiIndex returns the stored multi-index, callers must not modify it.
func (s *Store) MultiIndex(id NodeID) types.MultiIndex {
	s.check(id)
	return s.mis[id]
}

func (s *Store) Key(id NodeID) types.NodeKey {
	s.check(id)
	return s.keys[id]
}

// Canonical returns the stored coordinates in [-1,1]^d, callers must not modify them.
func (s *Store) Canonical(id NodeID) []float64 {
	s.check(id)
	return s.coords[id]
}

// Coordinates returns a fresh copy of the node coordinates in the grid domain.
func (s *Store) Coordinates(id NodeID) []float64 {
	s.check(id)
	return s.domain.ToPhysical(s.coords[id])
}

func (s *Store) ListPoints() (points [][]float64) {
	points = make([][]float64, len(s.coords))
	for i, x := range s.coords {
		points[i] = s.domain.ToPhysical(x)
	}
	return
}

// ParentIndex is the multi-index of the parent of mi along dim, whether stored or not.
func (s *Store) ParentIndex(mi types.MultiIndex, dim int) (parent types.MultiIndex, ok bool) {
	var p types.LevelIndex
	if p, ok = s.rule.Parent(mi[dim]); !ok {
		return
	}
	return mi.With(dim, p), true
}

func (s *Store) Parent(id NodeID, dim int) (parent NodeID, ok bool) {
	s.check(id)
	pmi, hasParent := s.ParentIndex(s.mis[id], dim)
	if !hasParent {
		return NoNode, false
	}
	return s.Lookup(pmi)
}

// ChildIndices lists every child multi-index of id along dim allowed by the rule.
func (s *Store) ChildIndices(id NodeID, dim int) (children []types.MultiIndex) {
	s.check(id)
	mi := s.mis[id]
	for _, c := range s.rule.Children(mi[dim]) {
		if c.Level > types.MaxLevel {
			continue
		}
		children = append(children, mi.With(dim, c))
	}
	return
}

// Children lists the stored children of id along dim.
func (s *Store) Children(id NodeID, dim int) (children []NodeID) {
	for _, cmi := range s.ChildIndices(id, dim) {
		if cid, ok := s.Lookup(cmi); ok {
			children = append(children, cid)
		}
	}
	return
}

/*
MissingAncestors lists the ancestors of mi along every dimension that are not
stored, coarsest first, so that inserting them in order keeps the store
parent closed. The store content itself is assumed parent closed, the search
only continues through missing nodes.
*/
func (s *Store) MissingAncestors(mi types.MultiIndex) (missing []types.MultiIndex) {
	var (
		queue   = []types.MultiIndex{mi}
		visited = map[types.NodeKey]bool{mi.Key(): true}
	)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for d := 0; d < s.dims; d++ {
			pmi, ok := s.ParentIndex(cur, d)
			if !ok {
				continue
			}
			key := pmi.Key()
			if visited[key] {
				continue
			}
			visited[key] = true
			if _, stored := s.lookup[key]; stored {
				continue
			}
			missing = append(missing, pmi)
			queue = append(queue, pmi)
		}
	}
	sort.SliceStable(missing, func(i, j int) bool {
		return missing[i].TotalLevel() < missing[j].TotalLevel()
	})
	return
}

// IsParentClosed reports the first node with a parent missing along some dimension.
func (s *Store) IsParentClosed() (closed bool, offender NodeID) {
	for id := range s.mis {
		for d := 0; d < s.dims; d++ {
			pmi, ok := s.ParentIndex(s.mis[id], d)
			if !ok {
				continue
			}
			if _, stored := s.lookup[pmi.Key()]; !stored {
				return false, NodeID(id)
			}
		}
	}
	return true, NoNode
}

// AscendFrom visits nodes by increasing total level starting at totalLevel,
// ties by id, until fn returns false.
func (s *Store) AscendFrom(totalLevel int, fn func(id NodeID, totalLevel int) bool) {
	s.levels.Ascend(levelItem{total: totalLevel, id: NoNode}, func(item levelItem) bool {
		return fn(item.id, item.total)
	})
}

/*
LevelBuckets groups the given ids by total level, buckets ordered coarse to
fine and ids ascending within a bucket. The walk follows the level index from
the coarsest total among ids.
*/
func (s *Store) LevelBuckets(ids []NodeID) (buckets [][]NodeID) {
	if len(ids) == 0 {
		return
	}
	var (
		want     = make([]bool, len(s.mis))
		minTotal = types.MaxLevel * s.dims
		left     = len(ids)
		last     = -1
	)
	for _, id := range ids {
		s.check(id)
		if want[id] {
			left--
			continue
		}
		want[id] = true
		minTotal = min(minTotal, s.mis[id].TotalLevel())
	}
	s.AscendFrom(minTotal, func(id NodeID, total int) bool {
		if !want[id] {
			return true
		}
		if total != last {
			buckets = append(buckets, nil)
			last = total
		}
		buckets[len(buckets)-1] = append(buckets[len(buckets)-1], id)
		left--
		return left > 0
	})
	return
}

// MaxLevels is the largest level stored along each dimension.
func (s *Store) MaxLevels() (levels []int) {
	levels = make([]int, s.dims)
	for _, mi := range s.mis {
		for d, li := range mi {
			if li.Level > levels[d] {
				levels[d] = li.Level
			}
		}
	}
	return
}
