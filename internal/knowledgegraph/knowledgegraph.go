package knowledgegraph

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/xkilldash9x/matrix-engine/api/schemas"
)

// InMemoryGraph is a fast, ephemeral graph store. The production platform
// keeps its graph in an Elasticsearch-backed pipeline; this implementation
// serves tests, fixtures and short-lived embedded callers, and doubles as
// the reference implementation of the snapshot contract.
type InMemoryGraph struct {
	mu       sync.RWMutex
	nodes    map[string]schemas.Node
	edges    []schemas.Edge
	touching map[string][]int // node id -> indices into edges
	log      *zap.Logger
}

// NewInMemoryGraph creates a new, empty in-memory graph.
func NewInMemoryGraph(logger *zap.Logger) *InMemoryGraph {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryGraph{
		nodes:    make(map[string]schemas.Node),
		touching: make(map[string][]int),
		log:      logger.Named("inmemory_graph"),
	}
}

// AddNode adds a node to the graph. An existing node with the same ID is
// overwritten.
func (g *InMemoryGraph) AddNode(node schemas.Node) error {
	if node.ID == "" {
		return fmt.Errorf("node must have an id")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.nodes[node.ID] = node
	g.log.Debug("Node added or updated",
		zap.String("id", node.ID), zap.String("class", string(node.Class)))
	return nil
}

// AddEdge adds an edge to the graph. Both endpoints must already exist.
func (g *InMemoryGraph) AddEdge(edge schemas.Edge) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[edge.SourceID]; !exists {
		return fmt.Errorf("source node with id '%s' not found for edge", edge.SourceID)
	}
	if _, exists := g.nodes[edge.TargetID]; !exists {
		return fmt.Errorf("target node with id '%s' not found for edge", edge.TargetID)
	}

	idx := len(g.edges)
	g.edges = append(g.edges, edge)
	g.touching[edge.SourceID] = append(g.touching[edge.SourceID], idx)
	if edge.TargetID != edge.SourceID {
		g.touching[edge.TargetID] = append(g.touching[edge.TargetID], idx)
	}

	g.log.Debug("Edge added",
		zap.String("source", edge.SourceID),
		zap.String("target", edge.TargetID),
		zap.String("relationship", string(edge.Relationship)))
	return nil
}

// Node retrieves a node by its ID.
func (g *InMemoryGraph) Node(id string) (schemas.Node, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	node, ok := g.nodes[id]
	if !ok {
		return schemas.Node{}, fmt.Errorf("node with id '%s' not found", id)
	}
	return node, nil
}

// EdgesTouching returns every edge that has the node as either endpoint, in
// insertion order.
func (g *InMemoryGraph) EdgesTouching(id string) []schemas.Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	indices := g.touching[id]
	out := make([]schemas.Edge, 0, len(indices))
	for _, idx := range indices {
		out = append(out, g.edges[idx])
	}
	return out
}

// Snapshot freezes the current graph state into an immutable view satisfying
// the snapshot contract. Later writes to the graph do not leak into it.
func (g *InMemoryGraph) Snapshot() schemas.GraphSnapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	nodes := make(map[string]schemas.Node, len(g.nodes))
	for id, node := range g.nodes {
		nodes[id] = node
	}
	edges := make([]schemas.Edge, len(g.edges))
	copy(edges, g.edges)

	return &snapshotView{nodes: nodes, edges: edges}
}

// snapshotView is the frozen read-only view handed to the assessor and
// resolver.
type snapshotView struct {
	nodes map[string]schemas.Node
	edges []schemas.Edge
}

func (s *snapshotView) Nodes() map[string]schemas.Node { return s.nodes }
func (s *snapshotView) Edges() []schemas.Edge          { return s.edges }
