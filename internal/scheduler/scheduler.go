// Package scheduler implements the Execution Scheduler and Edge
// Activation Manager (spec §4.3-4.4, C5+C6): the synchronous tick path.
//
// Grounded on the teacher's internal/engine.Executor (topological
// dispatch loop) and internal/application/executor/engine.go (per-node
// dispatch with captured errors), generalized to the gather-inputs /
// dispatch-by-category / propagate-activation procedure spec §4.3 spells
// out precisely, and rewritten to require Graph.ExecutionOrder's DFS order
// rather than the teacher's Kahn's-algorithm order.
package scheduler

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"

	"github.com/bacflow/dataflow/internal/domain"
	domainerrors "github.com/bacflow/dataflow/internal/domain/errors"
	"github.com/bacflow/dataflow/internal/graph"
	"github.com/bacflow/dataflow/internal/metrics"
	"github.com/bacflow/dataflow/internal/registry"
	"github.com/bacflow/dataflow/internal/runtime"
	"github.com/bacflow/dataflow/internal/tracing"
)

// Scheduler drives one Graph through synchronous ticks. It owns the node
// lifecycle state store and the field-write queue; it does not own the
// Graph itself, so a host may swap graphs between runs.
type Scheduler struct {
	reg        *registry.Registry
	dispatcher *runtime.Dispatcher
	state      *runtime.Store
	sink       domain.FieldWriteSink
	logger     zerolog.Logger
	metrics    *metrics.Collector
	tracing    bool
}

// New constructs a Scheduler bound to a node kind registry, node executor
// dispatcher, node lifecycle state store, and the downstream field-write
// collaborator (§6); pass domain.NoopFieldWriteSink{} when the host has
// none. The state store is shared with the Message Bus by the caller so a
// host can alternate tick()/bus runs without losing memory/timer state.
func New(reg *registry.Registry, dispatcher *runtime.Dispatcher, state *runtime.Store, sink domain.FieldWriteSink) *Scheduler {
	return &Scheduler{reg: reg, dispatcher: dispatcher, state: state, sink: sink, logger: log.Logger}
}

// WithLogger overrides the scheduler's logger, e.g. to attach request-scoped fields.
func (s *Scheduler) WithLogger(l zerolog.Logger) *Scheduler {
	s.logger = l
	return s
}

// WithMetrics attaches a Collector so every tick and node dispatch reports
// its duration and outcome; nil by default, leaving metrics collection opt-in.
func (s *Scheduler) WithMetrics(c *metrics.Collector) *Scheduler {
	s.metrics = c
	return s
}

// WithTracing gates the otel span instrumentation around ticks and
// per-node dispatch, mirroring the host's config.EnableTracing switch;
// off by default.
func (s *Scheduler) WithTracing(enabled bool) *Scheduler {
	s.tracing = enabled
	return s
}

// Stop clears every node's lifecycle state, per §5's cancellation
// contract applied to the synchronous path.
func (s *Scheduler) Stop() {
	s.state.Clear()
}

// Tick runs one synchronous execution pass over g, implementing §4.3's
// five-step procedure.
func (s *Scheduler) Tick(ctx context.Context, g *graph.Graph) (err error) {
	if err := g.SetMode(graph.ModeSynchronous); err != nil {
		return err
	}
	defer g.SetMode(graph.ModeIdle)

	if s.tracing {
		var span trace.Span
		ctx, span = tracing.StartTick(ctx, g.Version(), len(g.Nodes()))
		defer func() { tracing.EndWithError(span, err) }()
	}

	tickStart := time.Now()

	// Step 1: abort on cycle without mutating any node.
	if g.HasCycles() {
		if s.metrics != nil {
			s.metrics.RecordTick(time.Since(tickStart), true)
		}
		return domainerrors.NewCycleDetected(firstCyclicNode(g))
	}

	order, err := g.ExecutionOrder()
	if err != nil {
		return err
	}

	// Step 2: reset every node's transient output/error.
	for _, id := range order {
		n, ok := g.GetNode(id)
		if !ok {
			continue
		}
		ex, err := s.dispatcher.For(n.Kind)
		if err != nil {
			continue
		}
		ex.Reset(n, s.state.Get(id))
	}

	// Step 3: initialize edge activation — every edge starts active.
	activation := make(map[string]bool, len(g.Edges()))
	for _, e := range g.Edges() {
		activation[e.ID] = true
	}

	var writes []domain.FieldWrite

	// Step 4: dispatch each node in DFS order.
	for _, id := range order {
		n, ok := g.GetNode(id)
		if !ok {
			continue
		}
		// Step 4a: reachability under the activation as it stands now, after
		// every switch dispatched so far has deactivated its unchosen edges.
		if !computeReachable(g, activation)[id] {
			continue
		}

		ex, err := s.dispatcher.For(n.Kind)
		if err != nil {
			s.logger.Error().Str("node", id).Err(err).Msg("no executor for node kind")
			continue
		}

		inputs := gatherInputs(g, n, activation, s.reg)

		state := s.state.Get(id)
		nodeCtx := ctx
		var nodeSpan trace.Span
		if s.tracing {
			nodeCtx, nodeSpan = tracing.StartNodeDispatch(ctx, id, string(n.Kind))
		}
		nodeStart := time.Now()
		output, execErr := ex.Execute(nodeCtx, n, state, inputs)
		if s.tracing {
			tracing.EndWithError(nodeSpan, execErr)
		}
		if s.metrics != nil {
			s.metrics.RecordNode(string(n.Kind), time.Since(nodeStart), execErr == nil)
		}
		if execErr != nil {
			n.LastError = execErr.Error()
			n.Output = domain.Undefined
			s.logger.Warn().Str("node", id).Err(execErr).Msg("node execution error")
		} else {
			n.Output = output
		}

		// Step 4d: switch deactivates edges on the un-chosen handle.
		outputHandles := s.reg.OutputHandlesOf(n)
		active := ex.ActiveOutputHandles(n, state, outputHandles)
		deactivateUnchosenEdges(g, n.ID, outputHandles, active, activation)

		if domain.CategoryOf(n.Kind) == domain.CategoryCommand && execErr == nil && output.IsDefined() {
			writes = append(writes, fieldWriteFrom(n, output))
		}
	}

	// Step 5: enqueue field writes without awaiting the physical write.
	for _, w := range writes {
		if err := s.sink.Write(ctx, w); err != nil {
			s.logger.Warn().Str("point", w.PointID).Err(err).Msg("field write enqueue failed")
		}
	}

	if s.metrics != nil {
		s.metrics.RecordTick(time.Since(tickStart), false)
	}

	return nil
}

// firstCyclicNode returns the first node, in graph insertion order, that
// can reach itself along forward edges.
func firstCyclicNode(g *graph.Graph) string {
	for _, n := range g.Nodes() {
		seen := make(map[string]bool)
		queue := g.Downstream(n.ID)
		for i := 0; i < len(queue); i++ {
			if queue[i] == n.ID {
				return n.ID
			}
			if !seen[queue[i]] {
				seen[queue[i]] = true
				queue = append(queue, g.Downstream(queue[i])...)
			}
		}
	}
	return ""
}

// gatherInputs implements §4.3 step 4b: for each declared input handle,
// pick the single active incoming edge, breaking ties by edge-id
// lexicographic minimum, and read the source's output. Missing resolves
// to domain.Undefined; numeric defaulting to 0 is the executor's concern
// (see runtime.numericInput), since only calculation-style kinds want it.
func gatherInputs(g *graph.Graph, n *domain.Node, activation map[string]bool, reg *registry.Registry) map[domain.Handle]domain.Value {
	inputs := make(map[domain.Handle]domain.Value)
	for _, handle := range reg.InputHandlesOf(n) {
		var candidates []*domain.Edge
		for _, e := range g.Edges() {
			if e.TargetNodeID == n.ID && e.TargetHandle == handle && activation[e.ID] {
				candidates = append(candidates, e)
			}
		}
		if len(candidates) == 0 {
			continue
		}
		sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })
		chosen := candidates[0]
		src, ok := g.GetNode(chosen.SourceNodeID)
		if !ok {
			continue
		}
		inputs[handle] = src.Output
	}
	return inputs
}

// computeReachable implements §4.4: a node is reachable if it has no
// predecessors in the original graph, or if at least one incoming edge is
// active and its source is reachable. Computed by forward BFS from source
// nodes over active edges.
func computeReachable(g *graph.Graph, activation map[string]bool) map[string]bool {
	reachable := make(map[string]bool)
	queue := append([]string{}, g.SourceNodes()...)
	for _, id := range queue {
		reachable[id] = true
	}

	for i := 0; i < len(queue); i++ {
		current := queue[i]
		for _, nextID := range g.Downstream(current) {
			if reachable[nextID] {
				continue
			}
			if hasActiveIncoming(g, nextID, activation, reachable) {
				reachable[nextID] = true
				queue = append(queue, nextID)
			}
		}
	}
	return reachable
}

func hasActiveIncoming(g *graph.Graph, id string, activation, reachable map[string]bool) bool {
	for _, e := range g.Edges() {
		if e.TargetNodeID == id && activation[e.ID] && reachable[e.SourceNodeID] {
			return true
		}
	}
	return false
}

// deactivateUnchosenEdges sets activation[e.ID]=false for every outgoing
// edge leaving an output handle that is not in active, per §4.4.
func deactivateUnchosenEdges(g *graph.Graph, nodeID string, allOutputs, active []domain.Handle, activation map[string]bool) {
	if len(active) == len(allOutputs) {
		// No handle was deselected (every non-switch kind); nothing to do.
		return
	}
	activeSet := make(map[domain.Handle]bool, len(active))
	for _, h := range active {
		activeSet[h] = true
	}
	for _, e := range g.Edges() {
		if e.SourceNodeID != nodeID {
			continue
		}
		if !activeSet[e.SourceHandle] {
			activation[e.ID] = false
		}
	}
}

func fieldWriteFrom(n *domain.Node, output domain.Value) domain.FieldWrite {
	priority := 8
	if p, ok := n.Metadata["priority"]; ok {
		priority = int(toFloat(p))
	}
	writeMode, _ := n.Metadata["write-mode"].(string)
	if writeMode == "" {
		writeMode = string(domain.WriteModeNormal)
	}
	pointID, _ := n.Metadata["target-point-id"].(string)
	objectType, _ := n.Metadata["target-object-type"].(string)
	objectID := int(toFloat(n.Metadata["target-object-id"]))

	return domain.FieldWrite{
		PointID:    pointID,
		ObjectType: objectType,
		ObjectID:   objectID,
		Value:      output,
		Priority:   priority,
		WriteMode:  domain.WriteMode(writeMode),
	}
}

func toFloat(raw any) float64 {
	switch v := raw.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}
