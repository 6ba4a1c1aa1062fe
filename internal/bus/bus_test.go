package bus_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bacflow/dataflow/internal/bus"
	"github.com/bacflow/dataflow/internal/domain"
	"github.com/bacflow/dataflow/internal/graph"
	"github.com/bacflow/dataflow/internal/registry"
	"github.com/bacflow/dataflow/internal/runtime"
	"github.com/bacflow/dataflow/internal/sandbox"
)

func newBus() (*graph.Graph, *bus.Bus) {
	reg := registry.New()
	store := runtime.NewStore()
	dispatcher := runtime.NewDispatcher(sandbox.New())
	b := bus.New(reg, dispatcher, store)
	g := graph.New(reg)
	return g, b
}

func constantNode(id string, value float64) *domain.Node {
	return &domain.Node{ID: id, Kind: domain.KindConstant, Metadata: map[string]any{"value-type": "number", "value": value}}
}

func TestBus_Send_WaitsForEveryDeclaredInputBeforeFiring(t *testing.T) {
	g, b := newBus()
	require.NoError(t, g.AddNode(constantNode("c1", 4), domain.Position{}))
	require.NoError(t, g.AddNode(constantNode("c2", 5), domain.Position{}))
	sum := &domain.Node{ID: "sum", Kind: domain.KindCalculation, Metadata: map[string]any{"operation": "add"}}
	require.NoError(t, g.AddNode(sum, domain.Position{}))

	_, err := g.AddEdge("c1", registry.HandleOutput, "sum", registry.HandleInput1)
	require.NoError(t, err)
	_, err = g.AddEdge("c2", registry.HandleOutput, "sum", registry.HandleInput2)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, b.Start(ctx, g))
	defer b.Stop()

	b.Send(ctx, "c1", registry.HandleOutput, bus.Message{Payload: domain.Num(4)})

	n, _ := g.GetNode("sum")
	assert.False(t, n.Output.IsDefined(), "only one of two declared inputs has arrived")

	b.Send(ctx, "c2", registry.HandleOutput, bus.Message{Payload: domain.Num(5)})

	n, _ = g.GetNode("sum")
	assert.Equal(t, domain.Num(9), n.Output)
}

func TestBus_Send_CoalescesRepeatedMessagesOnSameHandle(t *testing.T) {
	g, b := newBus()
	require.NoError(t, g.AddNode(constantNode("c1", 1), domain.Position{}))
	require.NoError(t, g.AddNode(constantNode("c2", 1), domain.Position{}))
	sum := &domain.Node{ID: "sum", Kind: domain.KindCalculation, Metadata: map[string]any{"operation": "add"}}
	require.NoError(t, g.AddNode(sum, domain.Position{}))
	_, err := g.AddEdge("c1", registry.HandleOutput, "sum", registry.HandleInput1)
	require.NoError(t, err)
	_, err = g.AddEdge("c2", registry.HandleOutput, "sum", registry.HandleInput2)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, b.Start(ctx, g))
	defer b.Stop()

	b.Send(ctx, "c1", registry.HandleOutput, bus.Message{Payload: domain.Num(1)})
	b.Send(ctx, "c1", registry.HandleOutput, bus.Message{Payload: domain.Num(100)})

	n, _ := g.GetNode("sum")
	assert.False(t, n.Output.IsDefined(), "input2 has still never arrived")

	b.Send(ctx, "c2", registry.HandleOutput, bus.Message{Payload: domain.Num(1)})
	n, _ = g.GetNode("sum")
	assert.Equal(t, domain.Num(101), n.Output, "the later duplicate on input1 overwrote the earlier buffered value")
}

func TestBus_Send_FansOutToDownstreamNodes(t *testing.T) {
	g, b := newBus()
	require.NoError(t, g.AddNode(constantNode("c1", 3), domain.Position{}))
	ao1 := &domain.Node{ID: "ao1", Kind: domain.KindAnalogOutput}
	ao2 := &domain.Node{ID: "ao2", Kind: domain.KindAnalogOutput}
	require.NoError(t, g.AddNode(ao1, domain.Position{}))
	require.NoError(t, g.AddNode(ao2, domain.Position{}))

	_, err := g.AddEdge("c1", registry.HandleOutput, "ao1", registry.HandleValue)
	require.NoError(t, err)
	_, err = g.AddEdge("c1", registry.HandleOutput, "ao2", registry.HandleValue)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, b.Start(ctx, g))
	defer b.Stop()

	b.Send(ctx, "c1", registry.HandleOutput, bus.Message{Payload: domain.Num(3)})

	got1, _ := g.GetNode("ao1")
	got2, _ := g.GetNode("ao2")
	assert.Equal(t, domain.Num(3), got1.Output, "a single-input sink fires on its only declared handle")
	assert.Equal(t, domain.Num(3), got2.Output, "the same send fans out to every edge on that source handle")
}

func TestBus_Start_RejectsWhenGraphAlreadySynchronous(t *testing.T) {
	reg := registry.New()
	g := graph.New(reg)
	require.NoError(t, g.SetMode(graph.ModeSynchronous))

	store := runtime.NewStore()
	dispatcher := runtime.NewDispatcher(sandbox.New())
	b := bus.New(reg, dispatcher, store)

	err := b.Start(context.Background(), g)
	assert.ErrorIs(t, err, graph.ErrWrongMode)
}

func TestBus_Stop_ReturnsGraphToIdle(t *testing.T) {
	g, b := newBus()
	require.NoError(t, g.AddNode(constantNode("c1", 1), domain.Position{}))

	ctx := context.Background()
	require.NoError(t, b.Start(ctx, g))
	assert.Equal(t, graph.ModeAsynchronous, g.Mode())

	b.Stop()
	assert.Equal(t, graph.ModeIdle, g.Mode())

	// A graph detached from a stopped bus can be picked up synchronously.
	require.NoError(t, g.SetMode(graph.ModeSynchronous))
	require.NoError(t, g.SetMode(graph.ModeIdle))
}
