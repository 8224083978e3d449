package scene

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/milk9111/mapworld/common"
)

// ErrStaleNode is returned when a handle refers to a removed node.
var ErrStaleNode = errors.New("scene: stale node")

// NodeID is a generational handle. The zero NodeID is the graph root and never
// names a node of its own.
type NodeID uint64

type slot uint32
type generation uint32

const slotBits = 32

// Root is the parent of top-level nodes.
const Root NodeID = 0

func makeNode(s slot, gen generation) NodeID {
	return NodeID(uint64(gen)<<slotBits | uint64(s))
}

func (n NodeID) slot() slot {
	return slot(uint32(n))
}

func (n NodeID) generation() generation {
	return generation(uint32(uint64(n) >> slotBits))
}

func (n NodeID) String() string {
	if n == Root {
		return "root"
	}
	return strconv.FormatUint(uint64(n.slot()), 10) + "@" + strconv.FormatUint(uint64(n.generation()), 10)
}

func (n NodeID) Valid() bool {
	return n.slot() > 0
}

type node struct {
	gen      generation
	alive    bool
	parent   NodeID
	children []NodeID
	z        int
	seq      uint64
	pos      common.Vec2
	payload  any
}

// Graph is a tree of positioned nodes. Children draw in ascending z; nodes with
// equal z keep insertion order.
type Graph struct {
	nodes []node // slot 0 is unused
	free  []slot
	roots []NodeID
	seq   uint64
	count int
}

func NewGraph() *Graph {
	return &Graph{nodes: make([]node, 1)}
}

func (g *Graph) lookup(id NodeID) *node {
	if g == nil || !id.Valid() || int(id.slot()) >= len(g.nodes) {
		return nil
	}
	n := &g.nodes[id.slot()]
	if !n.alive || n.gen != id.generation() {
		return nil
	}
	return n
}

// Alive reports whether id names a node that has not been removed.
func (g *Graph) Alive(id NodeID) bool {
	return g.lookup(id) != nil
}

// Len returns the number of live nodes.
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return g.count
}

// Add creates a node under parent at local position pos.
func (g *Graph) Add(parent NodeID, z int, pos common.Vec2, payload any) (NodeID, error) {
	if parent != Root && g.lookup(parent) == nil {
		return 0, fmt.Errorf("%w: parent %s", ErrStaleNode, parent)
	}

	var s slot
	if len(g.free) > 0 {
		s = g.free[len(g.free)-1]
		g.free = g.free[:len(g.free)-1]
	} else {
		g.nodes = append(g.nodes, node{})
		s = slot(len(g.nodes) - 1)
	}

	g.seq++
	n := &g.nodes[s]
	*n = node{
		gen:     n.gen,
		alive:   true,
		parent:  parent,
		z:       z,
		seq:     g.seq,
		pos:     pos,
		payload: payload,
	}
	id := makeNode(s, n.gen)

	if parent == Root {
		g.roots = append(g.roots, id)
	} else {
		p := g.lookup(parent)
		p.children = append(p.children, id)
	}
	g.count++
	return id, nil
}

// Remove deletes id and its whole subtree. Handles to removed nodes stay stale
// even after their slots are reused.
func (g *Graph) Remove(id NodeID) bool {
	n := g.lookup(id)
	if n == nil {
		return false
	}
	if n.parent == Root {
		g.roots = without(g.roots, id)
	} else if p := g.lookup(n.parent); p != nil {
		p.children = without(p.children, id)
	}
	g.release(id)
	return true
}

// RemoveChildren deletes every descendant of id but keeps id itself.
func (g *Graph) RemoveChildren(id NodeID) int {
	if id == Root {
		removed := 0
		for _, c := range g.roots {
			removed += g.release(c)
		}
		g.roots = nil
		return removed
	}
	n := g.lookup(id)
	if n == nil {
		return 0
	}
	removed := 0
	for _, c := range n.children {
		removed += g.release(c)
	}
	n.children = nil
	return removed
}

func (g *Graph) release(id NodeID) int {
	n := g.lookup(id)
	if n == nil {
		return 0
	}
	removed := 1
	for _, c := range n.children {
		removed += g.release(c)
	}
	n.alive = false
	n.gen++
	n.children = nil
	n.payload = nil
	g.free = append(g.free, id.slot())
	g.count--
	return removed
}

func without(ids []NodeID, id NodeID) []NodeID {
	for i, c := range ids {
		if c == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// Get returns the payload stored with id.
func (g *Graph) Get(id NodeID) (any, bool) {
	n := g.lookup(id)
	if n == nil {
		return nil, false
	}
	return n.payload, true
}

// SetPayload replaces the payload stored with id.
func (g *Graph) SetPayload(id NodeID, payload any) bool {
	n := g.lookup(id)
	if n == nil {
		return false
	}
	n.payload = payload
	return true
}

// Parent returns the parent of id, Root for top-level nodes.
func (g *Graph) Parent(id NodeID) (NodeID, bool) {
	n := g.lookup(id)
	if n == nil {
		return Root, false
	}
	return n.parent, true
}

// Z returns the draw order of id among its siblings.
func (g *Graph) Z(id NodeID) (int, bool) {
	n := g.lookup(id)
	if n == nil {
		return 0, false
	}
	return n.z, true
}

// SetPosition moves id relative to its parent.
func (g *Graph) SetPosition(id NodeID, pos common.Vec2) bool {
	n := g.lookup(id)
	if n == nil {
		return false
	}
	n.pos = pos
	return true
}

// Position returns the local position of id.
func (g *Graph) Position(id NodeID) (common.Vec2, bool) {
	n := g.lookup(id)
	if n == nil {
		return common.Vec2{}, false
	}
	return n.pos, true
}

// WorldPosition sums the local positions of id and all its ancestors.
func (g *Graph) WorldPosition(id NodeID) (common.Vec2, bool) {
	n := g.lookup(id)
	if n == nil {
		return common.Vec2{}, false
	}
	pos := n.pos
	for p := g.lookup(n.parent); p != nil; p = g.lookup(p.parent) {
		pos = pos.Add(p.pos)
	}
	return pos, true
}

// Children returns the children of id in draw order. Children(Root) returns
// the top-level nodes.
func (g *Graph) Children(id NodeID) []NodeID {
	var src []NodeID
	if id == Root {
		if g == nil {
			return nil
		}
		src = g.roots
	} else {
		n := g.lookup(id)
		if n == nil {
			return nil
		}
		src = n.children
	}
	out := make([]NodeID, len(src))
	copy(out, src)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := &g.nodes[out[i].slot()], &g.nodes[out[j].slot()]
		if a.z != b.z {
			return a.z < b.z
		}
		return a.seq < b.seq
	})
	return out
}

// Walk visits every node depth first in draw order, parents before their
// children, with the node's world position. Returning false from fn skips the
// node's subtree.
func (g *Graph) Walk(fn func(id NodeID, world common.Vec2) bool) {
	g.walk(Root, common.Vec2{}, fn)
}

func (g *Graph) walk(parent NodeID, origin common.Vec2, fn func(NodeID, common.Vec2) bool) {
	for _, id := range g.Children(parent) {
		n := g.lookup(id)
		if n == nil {
			continue
		}
		world := origin.Add(n.pos)
		if fn(id, world) {
			g.walk(id, world, fn)
		}
	}
}
