// Package bus implements the Message Bus (spec §4.5, C7): the
// asynchronous alternative to the synchronous tick path, routing typed
// messages between nodes and firing a target once every declared input
// handle has a buffered message.
//
// Grounded on the teacher's internal/infrastructure/websocket/hub.go
// (register/unregister/broadcast over channels, single goroutine owning
// the fan-out map) — adapted from network clients to in-process node
// receive queues, since the bus here routes between nodes in one engine
// rather than to external websocket clients.
package bus

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bacflow/dataflow/internal/domain"
	"github.com/bacflow/dataflow/internal/graph"
	"github.com/bacflow/dataflow/internal/registry"
	"github.com/bacflow/dataflow/internal/runtime"
)

// Message is the payload the Bus routes between nodes (§4.5).
type Message struct {
	Payload   domain.Value
	ID        string
	Timestamp time.Time
	Metadata  map[string]any
}

// Bus drains sent messages cooperatively: at most one receive runs at a
// time per node, and delivery order between distinct source nodes is the
// order send completed.
type Bus struct {
	mu sync.Mutex

	reg        *registry.Registry
	dispatcher *runtime.Dispatcher
	state      *runtime.Store
	logger     zerolog.Logger

	running bool
	graph   *graph.Graph
	timers  map[string]*time.Timer
	cancel  context.CancelFunc
}

// New constructs a Bus bound to a node kind registry and executor
// dispatcher, sharing the same NodeState store the scheduler would use so
// a host can alternate runs (never concurrently, per Graph.Mode) without
// losing memory/timer state between them.
func New(reg *registry.Registry, dispatcher *runtime.Dispatcher, state *runtime.Store) *Bus {
	return &Bus{reg: reg, dispatcher: dispatcher, state: state, logger: log.Logger, timers: make(map[string]*time.Timer)}
}

// Start begins routing on g: it arms a background task for every
// Timer/Schedule node, per §4.5. A Timer's task emits only while the node
// is running (started by a truthy trigger message).
func (b *Bus) Start(ctx context.Context, g *graph.Graph) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := g.SetMode(graph.ModeAsynchronous); err != nil {
		return err
	}
	b.running = true
	b.graph = g
	runCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel

	for _, n := range g.Nodes() {
		if n.Kind == domain.KindTimer || n.Kind == domain.KindSchedule {
			b.armPeriodic(runCtx, n)
		}
	}
	return nil
}

// Stop implements §5's cancellation contract: clears every buffer,
// cancels timer/schedule intervals, and detaches the bus from the graph.
func (b *Bus) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.running {
		return
	}
	if b.cancel != nil {
		b.cancel()
	}
	for id, t := range b.timers {
		t.Stop()
		delete(b.timers, id)
	}
	b.state.Clear()
	if b.graph != nil {
		_ = b.graph.SetMode(graph.ModeIdle)
	}
	b.running = false
	b.graph = nil
}

// Send routes a message sent from (fromNodeID, fromHandle) to every edge
// whose source end matches, invoking the target's receive synchronously
// (cooperative single-threaded delivery — at most one receive runs at a
// time per node, enforced by holding the bus lock for the duration).
func (b *Bus) Send(ctx context.Context, fromNodeID string, fromHandle domain.Handle, msg Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sendLocked(ctx, fromNodeID, fromHandle, msg)
}

// sendLocked is Send's routing with b.mu already held, so a receive that
// emits downstream does not try to take the lock a second time.
func (b *Bus) sendLocked(ctx context.Context, fromNodeID string, fromHandle domain.Handle, msg Message) {
	if !b.running || b.graph == nil {
		return
	}

	var targets []*domain.Edge
	for _, e := range b.graph.Edges() {
		if e.SourceNodeID == fromNodeID && e.SourceHandle == fromHandle {
			targets = append(targets, e)
		}
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].ID < targets[j].ID })

	for _, e := range targets {
		b.receive(ctx, e.TargetNodeID, e.TargetHandle, msg)
	}
}

// receive implements the input-buffering/fire-when-complete rule of §4.5:
// buffer the latest message per handle (coalescing late duplicates),
// execute once every declared input has a buffered message, emit, and
// clear the buffer.
func (b *Bus) receive(ctx context.Context, nodeID string, handle domain.Handle, msg Message) {
	node, ok := b.graph.GetNode(nodeID)
	if !ok {
		return
	}
	state := b.state.Get(nodeID)
	if state.Buffer == nil {
		state.Buffer = make(map[domain.Handle]domain.Value)
	}
	state.Buffer[handle] = msg.Payload

	declared := b.reg.InputHandlesOf(node)
	for _, h := range declared {
		if _, ok := state.Buffer[h]; !ok {
			return // not all declared inputs present yet
		}
	}

	ex, err := b.dispatcher.For(node.Kind)
	if err != nil {
		b.logger.Error().Str("node", nodeID).Err(err).Msg("no executor for node kind")
		return
	}

	inputs := make(map[domain.Handle]domain.Value, len(state.Buffer))
	for h, v := range state.Buffer {
		inputs[h] = v
	}
	state.Buffer = make(map[domain.Handle]domain.Value)

	output, execErr := ex.Execute(ctx, node, state, inputs)
	if execErr != nil {
		node.LastError = execErr.Error()
		node.Output = domain.Undefined
		b.logger.Warn().Str("node", nodeID).Err(execErr).Msg("node execution error")
		return
	}
	node.Output = output

	outputHandles := b.reg.OutputHandlesOf(node)
	for _, h := range ex.ActiveOutputHandles(node, state, outputHandles) {
		b.sendLocked(ctx, nodeID, h, Message{Payload: output, Timestamp: time.Now()})
	}
}

// armPeriodic starts the background task backing Timer/Schedule nodes.
// Both run on real time.AfterFunc timers: a Timer at its clamped
// duration, a Schedule every 60s. The Schedule window itself reads the
// clock through the runtime package's timeNow variable.
func (b *Bus) armPeriodic(ctx context.Context, node *domain.Node) {
	var interval time.Duration
	switch node.Kind {
	case domain.KindTimer:
		interval = runtime.TimerDuration(node)
	case domain.KindSchedule:
		interval = 60 * time.Second
	default:
		return
	}

	t := time.AfterFunc(interval, func() { b.firePeriodic(ctx, node, interval) })
	b.timers[node.ID] = t
}

func (b *Bus) firePeriodic(ctx context.Context, node *domain.Node, interval time.Duration) {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return
	}
	state := b.state.Get(node.ID)
	var payload domain.Value
	shouldEmit := false

	switch node.Kind {
	case domain.KindTimer:
		if state.TimerRunning {
			state.TimerTickCount++
			if state.TimerLastInput.IsDefined() {
				payload = state.TimerLastInput
			} else {
				payload = domain.Num(float64(state.TimerTickCount))
			}
			shouldEmit = true
		}
	case domain.KindSchedule:
		ex, err := b.dispatcher.For(domain.KindSchedule)
		if err == nil {
			out, execErr := ex.Execute(ctx, node, state, map[domain.Handle]domain.Value{})
			if execErr == nil && out.IsDefined() {
				payload = out
				shouldEmit = true
			}
		}
	}
	b.mu.Unlock()

	if shouldEmit {
		node.Output = payload
		b.Send(ctx, node.ID, registry.HandleOutput, Message{Payload: payload, Timestamp: time.Now()})
	}

	b.mu.Lock()
	if b.running {
		t := time.AfterFunc(interval, func() { b.firePeriodic(ctx, node, interval) })
		b.timers[node.ID] = t
	}
	b.mu.Unlock()
}
