// Package netmodel is the data model of §3: links, nodes, topology, frames,
// traffic, the offset arena, and the self-healing reservation. Links,
// nodes, topology, and frame skeletons are immutable after ingestion;
// offset cells are the only mutable state, and are set at most once per
// scheduling run.
package netmodel

import "github.com/signalsfoundry/shsched/internal/schederr"

// LinkKind is the physical medium of a Link.
type LinkKind int

const (
	Wired LinkKind = iota
	Wireless
)

// Link is an immutable network link.
type Link struct {
	ID       int
	Kind     LinkKind
	SpeedMBs float64 // MB/s
}

// NodeRole is the function a Node performs in the topology.
type NodeRole int

const (
	EndSystem NodeRole = iota
	Switch
	AccessPoint
)

// Node is an immutable network node.
type Node struct {
	ID   int
	Role NodeRole
}

// Connection is one outgoing edge of a Node: a peer node reached over a
// specific link.
type Connection struct {
	PeerNodeID int
	LinkID     int
}

// Topology is the static network graph: nodes, links, and per-node outgoing
// connections. It never mutates after ingestion.
type Topology struct {
	Nodes     map[int]*Node
	Links     map[int]*Link
	Outgoing  map[int][]Connection
	maxLinkID int
}

// NewTopology constructs an empty topology.
func NewTopology() *Topology {
	return &Topology{
		Nodes:     make(map[int]*Node),
		Links:     make(map[int]*Link),
		Outgoing:  make(map[int][]Connection),
		maxLinkID: -1,
	}
}

// AddNode registers a node. Returns TopologyError on a duplicate id.
func (t *Topology) AddNode(n *Node) error {
	if n.ID < 0 {
		return schederr.New(schederr.InvalidInput, "Topology.AddNode", "node id must be non-negative")
	}
	if _, exists := t.Nodes[n.ID]; exists {
		return schederr.New(schederr.TopologyError, "Topology.AddNode", "duplicate node id")
	}
	t.Nodes[n.ID] = n
	return nil
}

// AddLink registers a link. Returns TopologyError on a duplicate id.
func (t *Topology) AddLink(l *Link) error {
	if l.ID < 0 {
		return schederr.New(schederr.InvalidInput, "Topology.AddLink", "link id must be non-negative")
	}
	if _, exists := t.Links[l.ID]; exists {
		return schederr.New(schederr.TopologyError, "Topology.AddLink", "duplicate link id")
	}
	t.Links[l.ID] = l
	if l.ID > t.maxLinkID {
		t.maxLinkID = l.ID
	}
	return nil
}

// Connect adds an outgoing connection from nodeID to a peer over linkID.
// Returns TopologyError on a self-loop or a link id already used on this
// node's outgoing connections, InvalidInput if either id is unknown.
func (t *Topology) Connect(nodeID int, c Connection) error {
	if _, ok := t.Nodes[nodeID]; !ok {
		return schederr.New(schederr.InvalidInput, "Topology.Connect", "unknown source node id")
	}
	if _, ok := t.Nodes[c.PeerNodeID]; !ok {
		return schederr.New(schederr.InvalidInput, "Topology.Connect", "unknown peer node id")
	}
	if _, ok := t.Links[c.LinkID]; !ok {
		return schederr.New(schederr.InvalidInput, "Topology.Connect", "unknown link id")
	}
	if nodeID == c.PeerNodeID {
		return schederr.New(schederr.TopologyError, "Topology.Connect", "node cannot connect to itself")
	}
	for _, existing := range t.Outgoing[nodeID] {
		if existing.LinkID == c.LinkID {
			return schederr.New(schederr.TopologyError, "Topology.Connect", "duplicate link id on node")
		}
	}
	t.Outgoing[nodeID] = append(t.Outgoing[nodeID], c)
	return nil
}

// MaxLinkID returns the largest link id registered, or -1 if none.
func (t *Topology) MaxLinkID() int { return t.maxLinkID }

// HasLink reports whether a link id exists.
func (t *Topology) HasLink(id int) bool {
	_, ok := t.Links[id]
	return ok
}

// HasNode reports whether a node id exists.
func (t *Topology) HasNode(id int) bool {
	_, ok := t.Nodes[id]
	return ok
}
