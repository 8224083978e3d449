package parallax

import (
	"fmt"

	"github.com/milk9111/mapworld/common"
	"github.com/milk9111/mapworld/scene"
)

// Entry holds the scroll parameters of one child. Child is a back reference;
// the graph owns the node.
type Entry struct {
	Ratio      common.Vec2
	Offset     common.Vec2
	Autoscroll common.Vec2
	Child      scene.NodeID
}

// Container is a scene node whose children scroll at their own rate relative
// to the camera.
type Container struct {
	graph   *scene.Graph
	node    scene.NodeID
	entries []Entry
	visits  int
}

// NewContainer adds the container node under parent.
func NewContainer(g *scene.Graph, parent scene.NodeID, z int) (*Container, error) {
	if g == nil {
		return nil, fmt.Errorf("parallax: nil graph")
	}
	id, err := g.Add(parent, z, common.Vec2{}, nil)
	if err != nil {
		return nil, fmt.Errorf("parallax: %w", err)
	}
	c := &Container{graph: g, node: id}
	// the container node carries itself so walkers can find its entries
	g.SetPayload(id, c)
	return c, nil
}

// Node returns the container's own node.
func (c *Container) Node() scene.NodeID {
	return c.node
}

// AddChild attaches a new child node at draw order z, initially placed at offset.
func (c *Container) AddChild(z int, ratio, offset, autoscroll common.Vec2, payload any) (scene.NodeID, error) {
	id, err := c.graph.Add(c.node, z, offset, payload)
	if err != nil {
		return 0, fmt.Errorf("parallax: %w", err)
	}
	c.entries = append(c.entries, Entry{
		Ratio:      ratio,
		Offset:     offset,
		Autoscroll: autoscroll,
		Child:      id,
	})
	return id, nil
}

// RemoveChild detaches a child and drops its entry.
func (c *Container) RemoveChild(id scene.NodeID) bool {
	for i, e := range c.entries {
		if e.Child != id {
			continue
		}
		c.entries = append(c.entries[:i], c.entries[i+1:]...)
		return c.graph.Remove(id)
	}
	return false
}

func (c *Container) RemoveAllChildren() {
	for _, e := range c.entries {
		c.graph.Remove(e.Child)
	}
	c.entries = nil
}

// Entries returns a copy of the current entries.
func (c *Container) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Visits returns how many times Visit ran.
func (c *Container) Visits() int {
	return c.visits
}

// Visit advances every entry by its autoscroll and moves its child to
// camera*ratio + offset. It runs once per frame; there is no time step.
func (c *Container) Visit(camera common.Vec2) {
	c.visits++
	live := c.entries[:0]
	for _, e := range c.entries {
		if !c.graph.Alive(e.Child) {
			continue
		}
		e.Offset = e.Offset.Add(e.Autoscroll)
		c.graph.SetPosition(e.Child, camera.Mul(e.Ratio).Add(e.Offset))
		live = append(live, e)
	}
	for i := len(live); i < len(c.entries); i++ {
		c.entries[i] = Entry{}
	}
	c.entries = live
}
