// Package dataflow is the public facade for host applications: build a
// graph with a fluent builder, run it synchronously or asynchronously,
// and serialize it, without reaching into internal/ packages.
//
// Grounded on the teacher's pkg/workflow/builder.go (a fluent
// DefinitionBuilder/NodeDefBuilder/EdgeDefBuilder triad over a JSON-able
// Definition), adapted from the teacher's trigger/handler workflow
// vocabulary to node/edge/metadata graph construction, and on the deleted
// root factory.go/adapter.go (a kind-keyed node construction factory),
// folded into NodeBuilder.Build's domain.Node{} construction.
package dataflow

import (
	"context"

	"github.com/bacflow/dataflow/internal/bus"
	"github.com/bacflow/dataflow/internal/domain"
	"github.com/bacflow/dataflow/internal/graph"
	"github.com/bacflow/dataflow/internal/metrics"
	"github.com/bacflow/dataflow/internal/registry"
	"github.com/bacflow/dataflow/internal/runtime"
	"github.com/bacflow/dataflow/internal/sandbox"
	"github.com/bacflow/dataflow/internal/scheduler"
	"github.com/bacflow/dataflow/internal/serializer"
)

// Engine bundles a Graph with the scheduler/bus that can run it and the
// registry that governs its connection legality, the unit a host
// application constructs once and drives for the lifetime of one design.
type Engine struct {
	Registry   *registry.Registry
	Graph      *graph.Graph
	Scheduler  *scheduler.Scheduler
	Bus        *bus.Bus
	state      *runtime.Store
	dispatcher *runtime.Dispatcher
}

// NewEngine wires a fresh Engine: a Node Kind Registry, an empty Graph, a
// Script Sandbox, and both execution paths sharing one NodeState store so
// a host can alternate tick()/bus runs (never concurrently — Graph.Mode
// enforces this) without losing memory/timer state between them.
func NewEngine(sink domain.FieldWriteSink) *Engine {
	reg := registry.New()
	dispatcher := runtime.NewDispatcher(sandbox.New())
	state := runtime.NewStore()
	return &Engine{
		Registry:   reg,
		Graph:      graph.New(reg),
		Scheduler:  scheduler.New(reg, dispatcher, state, sink),
		Bus:        bus.New(reg, dispatcher, state),
		state:      state,
		dispatcher: dispatcher,
	}
}

// WithFunctionRetry opts the engine into bounded retry of Function node
// sandbox failures.
func (e *Engine) WithFunctionRetry(policy runtime.RetryPolicy) *Engine {
	e.dispatcher.WithFunctionRetry(policy)
	return e
}

// WithMetrics attaches a Collector so the engine's ticks and per-node
// dispatches report duration/outcome counters a host can poll.
func (e *Engine) WithMetrics(c *metrics.Collector) *Engine {
	e.Scheduler.WithMetrics(c)
	return e
}

// WithTracing gates the otel span instrumentation around ticks and
// per-node dispatch; off by default.
func (e *Engine) WithTracing(enabled bool) *Engine {
	e.Scheduler.WithTracing(enabled)
	return e
}

// Tick runs one synchronous execution pass (§4.3).
func (e *Engine) Tick(ctx context.Context) error {
	return e.Scheduler.Tick(ctx, e.Graph)
}

// Start begins asynchronous message-passing execution (§4.5).
func (e *Engine) Start(ctx context.Context) error {
	return e.Bus.Start(ctx, e.Graph)
}

// Stop cancels the asynchronous execution path (§5).
func (e *Engine) Stop() {
	e.Bus.Stop()
	e.Scheduler.Stop()
}

// HasCycles reports whether the graph currently contains a cycle (§6's
// execution controls: hasCycles()).
func (e *Engine) HasCycles() bool {
	return e.Graph.HasCycles()
}

// Marshal serializes the engine's graph to its wire form (§4.8, §6).
func (e *Engine) Marshal() (serializer.GraphWire, error) {
	return serializer.Marshal(e.Graph)
}

// MarshalJSON serializes the engine's graph directly to JSON bytes.
func (e *Engine) MarshalJSON() ([]byte, error) {
	return serializer.MarshalJSON(e.Graph)
}

// LoadJSON replaces the engine's graph with one deserialized from JSON.
func (e *Engine) LoadJSON(data []byte) error {
	g, err := serializer.UnmarshalJSON(data, e.Registry)
	if err != nil {
		return err
	}
	e.Graph = g
	return nil
}

// NodeBuilder fluently assembles a domain.Node before it is added to a
// graph, mirroring the teacher's NodeDefBuilder field-by-field pattern.
type NodeBuilder struct {
	n   domain.Node
	pos domain.Position
}

// NewNode starts a NodeBuilder for the given id/kind.
func NewNode(id string, kind domain.NodeKind) *NodeBuilder {
	return &NodeBuilder{n: domain.Node{ID: id, Kind: kind, Category: domain.CategoryOf(kind), Metadata: map[string]any{}}}
}

// Label sets the node's display label.
func (b *NodeBuilder) Label(label string) *NodeBuilder { b.n.Label = label; return b }

// At sets the node's canvas position.
func (b *NodeBuilder) At(x, y float64) *NodeBuilder { b.pos = domain.Position{X: x, Y: y}; return b }

// Meta sets one metadata key.
func (b *NodeBuilder) Meta(key string, value any) *NodeBuilder {
	b.n.Metadata[key] = value
	return b
}

// Build finalizes the node and its position.
func (b *NodeBuilder) Build() (*domain.Node, domain.Position) {
	n := b.n
	return &n, b.pos
}

// AddNode builds and inserts a node into the engine's graph in one call.
func (e *Engine) AddNode(b *NodeBuilder) error {
	n, pos := b.Build()
	return e.Graph.AddNode(n, pos)
}

// Connect adds an edge between two nodes' handles, enforcing canConnect.
func (e *Engine) Connect(sourceID string, sourceHandle domain.Handle, targetID string, targetHandle domain.Handle) (*domain.Edge, error) {
	return e.Graph.AddEdge(sourceID, sourceHandle, targetID, targetHandle)
}
