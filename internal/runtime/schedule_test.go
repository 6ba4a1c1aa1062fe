package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bacflow/dataflow/internal/domain"
	"github.com/bacflow/dataflow/internal/registry"
)

func scheduleNode(start, end string, days []any) *domain.Node {
	return &domain.Node{
		ID:   "sched1",
		Kind: domain.KindSchedule,
		Metadata: map[string]any{
			"start-time": start,
			"end-time":   end,
			"day-set":    days,
		},
	}
}

func TestScheduleExecutor_EvaluateWindow_SimpleRange(t *testing.T) {
	e := &scheduleExecutor{}
	node := scheduleNode("08:00", "17:00", []any{"Mon", "Tue", "Wed", "Thu", "Fri"})

	monday := time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC) // a Monday
	active, err := e.EvaluateWindow(node, monday)
	require.NoError(t, err)
	assert.True(t, active)

	evening := time.Date(2026, 8, 3, 20, 0, 0, 0, time.UTC)
	active, err = e.EvaluateWindow(node, evening)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestScheduleExecutor_EvaluateWindow_WrapsMidnight(t *testing.T) {
	e := &scheduleExecutor{}
	node := scheduleNode("22:00", "06:00", []any{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"})

	lateNight := time.Date(2026, 8, 3, 23, 30, 0, 0, time.UTC)
	active, err := e.EvaluateWindow(node, lateNight)
	require.NoError(t, err)
	assert.True(t, active)

	earlyMorning := time.Date(2026, 8, 4, 3, 0, 0, 0, time.UTC)
	active, err = e.EvaluateWindow(node, earlyMorning)
	require.NoError(t, err)
	assert.True(t, active)

	midday := time.Date(2026, 8, 4, 12, 0, 0, 0, time.UTC)
	active, err = e.EvaluateWindow(node, midday)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestScheduleExecutor_EvaluateWindow_DayNotInSet(t *testing.T) {
	e := &scheduleExecutor{}
	node := scheduleNode("00:00", "23:59", []any{"Sat", "Sun"})
	weekday := time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC) // Monday
	active, err := e.EvaluateWindow(node, weekday)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestScheduleExecutor_EvaluateWindow_InvalidTimeFormat(t *testing.T) {
	e := &scheduleExecutor{}
	node := scheduleNode("8am", "17:00", nil)
	_, err := e.EvaluateWindow(node, time.Now())
	assert.Error(t, err)
}

func TestScheduleExecutor_Execute_EmitsOnlyOnTransition(t *testing.T) {
	e := &scheduleExecutor{}
	node := scheduleNode("00:00", "23:59", []any{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"})
	state := &NodeState{}

	orig := timeNow
	timeNow = func() time.Time { return time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC) }
	defer func() { timeNow = orig }()

	out, err := e.Execute(context.Background(), node, state, map[domain.Handle]domain.Value{registry.HandleInput1: domain.Bool(true)})
	require.NoError(t, err)
	assert.Equal(t, domain.Bool(true), out, "first evaluation after arming is a transition into active")

	out, err = e.Execute(context.Background(), node, state, map[domain.Handle]domain.Value{})
	require.NoError(t, err)
	assert.False(t, out.IsDefined(), "no transition on the second evaluation, so no emission")
}

func TestScheduleExecutor_Reset_ClearsOutputErrorOnlyNotArmedState(t *testing.T) {
	e := &scheduleExecutor{}
	node := &domain.Node{ID: "sched1", Kind: domain.KindSchedule, Output: domain.Bool(true), LastError: "boom"}
	state := &NodeState{ScheduleArmed: true, ScheduleActive: true, Initialized: true}
	e.Reset(node, state)
	assert.False(t, node.Output.IsDefined(), "per-tick reset clears the node's transient output")
	assert.Empty(t, node.LastError, "per-tick reset clears the node's transient error")
	assert.True(t, state.ScheduleArmed, "armed state must survive the scheduler's per-tick reset")
	assert.True(t, state.ScheduleActive, "active state must survive so the next tick can detect a transition")
	assert.True(t, state.Initialized)
}
