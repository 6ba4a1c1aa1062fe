// Package observer implements the downstream websocket interface exposed
// to the UI (spec §6): state-change callbacks per stateful node (timer
// {running, tickCount}; schedule ScheduleState; function {result, error,
// consoleLogs}).
//
// Grounded on the teacher's internal/infrastructure/websocket package
// (hub.go, client.go, message.go, auth.go), adapted from workflow
// execution events to per-node state-change events, and from
// workflow/execution subscription keys to a single graph-id subscription
// since this engine runs one graph per hub.
package observer

import "time"

// Event types pushed to subscribed UI clients, mirroring §6's three
// state-change callback shapes.
const (
	EventTimerState    = "timer.state"
	EventScheduleState = "schedule.state"
	EventFunctionState = "function.state"
	EventNodeError     = "node.error"
)

// Command types accepted from the client.
const (
	CmdSubscribe   = "subscribe"
	CmdUnsubscribe = "unsubscribe"
)

// StateEvent is pushed to every client subscribed to a node's graph.
type StateEvent struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	GraphID   string    `json:"graphId"`
	NodeID    string    `json:"nodeId"`

	// Timer
	Running   *bool `json:"running,omitempty"`
	TickCount *int  `json:"tickCount,omitempty"`

	// Schedule
	Active *bool `json:"active,omitempty"`

	// Function
	Result      any      `json:"result,omitempty"`
	Error       string   `json:"error,omitempty"`
	ConsoleLogs []string `json:"consoleLogs,omitempty"`
}

// Command is a client->server subscription request.
type Command struct {
	Action  string `json:"action"`
	GraphID string `json:"graphId"`
}

// Response acknowledges a Command.
type Response struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func newSuccess(responseType, message string) *Response {
	return &Response{Type: responseType, Success: true, Message: message}
}

func newError(responseType, errMsg string) *Response {
	return &Response{Type: responseType, Success: false, Error: errMsg}
}

// TimerStateEvent constructs the timer state-change payload of §6.
func TimerStateEvent(graphID, nodeID string, running bool, tickCount int) StateEvent {
	return StateEvent{Type: EventTimerState, Timestamp: time.Now(), GraphID: graphID, NodeID: nodeID, Running: &running, TickCount: &tickCount}
}

// ScheduleStateEvent constructs the schedule state-change payload of §6.
func ScheduleStateEvent(graphID, nodeID string, active bool) StateEvent {
	return StateEvent{Type: EventScheduleState, Timestamp: time.Now(), GraphID: graphID, NodeID: nodeID, Active: &active}
}

// FunctionStateEvent constructs the function state-change payload of §6.
func FunctionStateEvent(graphID, nodeID string, result any, errMsg string, logs []string) StateEvent {
	return StateEvent{Type: EventFunctionState, Timestamp: time.Now(), GraphID: graphID, NodeID: nodeID, Result: result, Error: errMsg, ConsoleLogs: logs}
}
