// Package graph implements the Graph Store (spec §4.2, C4): the canonical
// node/edge collections plus adjacency, cycle detection, and execution
// ordering derived on demand.
//
// Grounded on the teacher's internal/engine.Graph (id-keyed adjacency maps,
// Kahn's-algorithm cycle check) and internal/engine.Executor (topological
// dispatch). The cycle check is rewritten as a DFS with an explicit
// recursion stack because spec §4.2 requires that specific algorithm
// ("DFS with recursion stack; returns true on first back edge") rather
// than Kahn's in-degree count, and because DFS gives us pre-order node
// visitation for free, which the scheduler's ordering rule (§4.3) needs.
package graph

import (
	"fmt"
	"sort"
	"sync"

	"github.com/bacflow/dataflow/internal/domain"
	"github.com/bacflow/dataflow/internal/registry"
)

// Mode tags which execution path currently owns a Graph, enforcing §5 and
// §9's "forbid interleaving" requirement.
type Mode int

const (
	ModeIdle Mode = iota
	ModeSynchronous
	ModeAsynchronous
)

// Graph is the canonical state of a workflow: exactly two keyed
// collections (nodes, edges). Everything else — adjacency, reverse
// adjacency, source set, execution order — is derived on demand (§4.2's
// "Canonical state is exactly two keyed collections" invariant).
type Graph struct {
	mu       sync.RWMutex
	registry *registry.Registry

	nodes map[string]*domain.Node
	edges map[string]*domain.Edge

	// insertOrder preserves node-map insertion order for the scheduler's
	// "DFS from each [source] in insertion order of the node map" rule and
	// for deterministic serialization.
	insertOrder []string

	version int
	mode    Mode
}

// New creates an empty Graph bound to the given registry.
func New(reg *registry.Registry) *Graph {
	return &Graph{
		registry: reg,
		nodes:    make(map[string]*domain.Node),
		edges:    make(map[string]*domain.Edge),
	}
}

// Mode reports which execution path currently owns the graph.
func (g *Graph) Mode() Mode {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.mode
}

// SetMode transitions the graph's owning mode. Returns ErrWrongMode if
// another mode is already active, enforcing the no-interleaving rule.
func (g *Graph) SetMode(m Mode) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.mode != ModeIdle && m != ModeIdle && g.mode != m {
		return ErrWrongMode
	}
	g.mode = m
	return nil
}

// ErrWrongMode is returned when a caller attempts to run the synchronous
// tick path and the asynchronous message path concurrently on one graph.
var ErrWrongMode = fmt.Errorf("graph: synchronous tick and asynchronous message path cannot interleave")

// Version returns a monotonically increasing counter bumped on every
// structural mutation (add/remove node or edge), usable as a cache key for
// derived adjacency per §4.2's "Implementers may cache derivations keyed on
// a monotonically incremented graph version" note.
func (g *Graph) Version() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.version
}

// AddNode inserts a node at the given position. Overwriting an existing id
// is rejected to keep ids stable graph keys.
func (g *Graph) AddNode(n *domain.Node, pos domain.Position) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if n.ID == "" {
		return fmt.Errorf("node id cannot be empty")
	}
	if _, exists := g.nodes[n.ID]; exists {
		return fmt.Errorf("node %s already exists", n.ID)
	}
	n.Position = pos
	g.nodes[n.ID] = n
	g.insertOrder = append(g.insertOrder, n.ID)
	g.version++
	return nil
}

// RemoveNode deletes a node and, atomically, every edge incident to it
// (§4.2 invariant iii).
func (g *Graph) RemoveNode(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.nodes[id]; !exists {
		return fmt.Errorf("node %s does not exist", id)
	}
	delete(g.nodes, id)
	for idx, nodeID := range g.insertOrder {
		if nodeID == id {
			g.insertOrder = append(g.insertOrder[:idx], g.insertOrder[idx+1:]...)
			break
		}
	}
	for edgeID, e := range g.edges {
		if e.SourceNodeID == id || e.TargetNodeID == id {
			delete(g.edges, edgeID)
		}
	}
	g.version++
	return nil
}

// GetNode returns the node by id.
func (g *Graph) GetNode(id string) (*domain.Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in node-map insertion order.
func (g *Graph) Nodes() []*domain.Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*domain.Node, 0, len(g.insertOrder))
	for _, id := range g.insertOrder {
		out = append(out, g.nodes[id])
	}
	return out
}

// AddEdge synthesises the deterministic edge id and materializes the edge
// iff both endpoints exist and canConnect holds (§4.2 invariant iv).
func (g *Graph) AddEdge(sourceID string, sourceHandle domain.Handle, targetID string, targetHandle domain.Handle) (*domain.Edge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	src, ok := g.nodes[sourceID]
	if !ok {
		return nil, fmt.Errorf("source node %s does not exist", sourceID)
	}
	tgt, ok := g.nodes[targetID]
	if !ok {
		return nil, fmt.Errorf("target node %s does not exist", targetID)
	}

	if ok, err := g.registry.CanConnect(src, sourceHandle, tgt, targetHandle); !ok {
		return nil, err
	}

	id := domain.EdgeID(sourceID, sourceHandle, targetID, targetHandle)
	if existing, ok := g.edges[id]; ok {
		return existing, nil
	}

	e := &domain.Edge{
		ID:           id,
		SourceNodeID: sourceID,
		SourceHandle: sourceHandle,
		TargetNodeID: targetID,
		TargetHandle: targetHandle,
		Category:     domain.CategoryOf(tgt.Kind),
		Active:       true,
	}
	g.edges[id] = e
	g.version++
	return e, nil
}

// RemoveEdge deletes an edge by id.
func (g *Graph) RemoveEdge(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.edges[id]; !exists {
		return fmt.Errorf("edge %s does not exist", id)
	}
	delete(g.edges, id)
	g.version++
	return nil
}

// HasEdge reports whether an edge with the deterministic id for the given
// endpoints exists.
func (g *Graph) HasEdge(sourceID string, sourceHandle domain.Handle, targetID string, targetHandle domain.Handle) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.edges[domain.EdgeID(sourceID, sourceHandle, targetID, targetHandle)]
	return ok
}

// EdgesBetween returns every edge (any handles) between a and b.
func (g *Graph) EdgesBetween(a, b string) []*domain.Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []*domain.Edge
	for _, e := range g.edges {
		if e.SourceNodeID == a && e.TargetNodeID == b {
			out = append(out, e)
		}
	}
	sortEdgesByID(out)
	return out
}

// Edges returns all edges, sorted by id for deterministic iteration.
func (g *Graph) Edges() []*domain.Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*domain.Edge, 0, len(g.edges))
	for _, e := range g.edges {
		out = append(out, e)
	}
	sortEdgesByID(out)
	return out
}

func sortEdgesByID(edges []*domain.Edge) {
	sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })
}

// Upstream returns the direct predecessor node ids of id (edges with
// id as target), sorted by edge id for determinism.
func (g *Graph) Upstream(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	edges := make([]*domain.Edge, 0)
	for _, e := range g.edges {
		if e.TargetNodeID == id {
			edges = append(edges, e)
		}
	}
	sortEdgesByID(edges)
	out := make([]string, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.SourceNodeID)
	}
	return out
}

// Downstream returns the direct successor node ids of id (edges with id
// as source), sorted by edge id for determinism.
func (g *Graph) Downstream(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	edges := make([]*domain.Edge, 0)
	for _, e := range g.edges {
		if e.SourceNodeID == id {
			edges = append(edges, e)
		}
	}
	sortEdgesByID(edges)
	out := make([]string, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.TargetNodeID)
	}
	return out
}

// forwardAdjacencyLocked derives the outgoing-edges-by-source map once, under
// the read lock the caller already holds.
func (g *Graph) forwardAdjacencyLocked() map[string][]*domain.Edge {
	adj := make(map[string][]*domain.Edge, len(g.nodes))
	for _, e := range g.edges {
		adj[e.SourceNodeID] = append(adj[e.SourceNodeID], e)
	}
	for _, edges := range adj {
		sortEdgesByID(edges)
	}
	return adj
}

// HasCycles runs a DFS with an explicit recursion stack and returns true
// on the first back edge found (§4.2).
func (g *Graph) HasCycles() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	adj := g.forwardAdjacencyLocked()

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(g.nodes))
	for _, id := range g.insertOrder {
		color[id] = white
	}

	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = gray
		for _, e := range adj[id] {
			switch color[e.TargetNodeID] {
			case gray:
				return true
			case white:
				if visit(e.TargetNodeID) {
					return true
				}
			}
		}
		color[id] = black
		return false
	}

	for _, id := range g.insertOrder {
		if color[id] == white {
			if visit(id) {
				return true
			}
		}
	}
	return false
}

// SourceNodes returns the ids of nodes with zero in-degree, in node-map
// insertion order.
func (g *Graph) SourceNodes() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	indeg := make(map[string]int, len(g.nodes))
	for _, id := range g.insertOrder {
		indeg[id] = 0
	}
	for _, e := range g.edges {
		indeg[e.TargetNodeID]++
	}
	var out []string
	for _, id := range g.insertOrder {
		if indeg[id] == 0 {
			out = append(out, id)
		}
	}
	return out
}

// ExecutionOrder computes the scheduler's DFS topological order (§4.3):
// DFS from each source node in node-map insertion order, pushing nodes on
// entry (pre-order), tie-broken by node-id lexicographic order. A node is
// entered only after every one of its predecessors has been pushed, so
// each edge's source precedes its target. Nodes unreachable from any
// source are appended at the end in insertion order so their reset hooks
// still run.
func (g *Graph) ExecutionOrder() ([]string, error) {
	if g.HasCycles() {
		return nil, fmt.Errorf("graph contains a cycle")
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	adj := g.forwardAdjacencyLocked()
	for _, edges := range adj {
		sort.Slice(edges, func(i, j int) bool { return edges[i].TargetNodeID < edges[j].TargetNodeID })
	}

	visited := make(map[string]bool, len(g.nodes))
	order := make([]string, 0, len(g.nodes))

	indeg := make(map[string]int, len(g.nodes))
	for _, id := range g.insertOrder {
		indeg[id] = 0
	}
	for _, e := range g.edges {
		indeg[e.TargetNodeID]++
	}
	// remaining counts the incoming edges whose source has not been pushed
	// yet; a node is entered only once it reaches zero.
	remaining := make(map[string]int, len(indeg))
	for id, d := range indeg {
		remaining[id] = d
	}

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		order = append(order, id)
		for _, e := range adj[id] {
			remaining[e.TargetNodeID]--
			if remaining[e.TargetNodeID] == 0 {
				visit(e.TargetNodeID)
			}
		}
	}

	for _, id := range g.insertOrder {
		if indeg[id] == 0 {
			visit(id)
		}
	}
	for _, id := range g.insertOrder {
		if !visited[id] {
			visit(id)
		}
	}

	return order, nil
}
