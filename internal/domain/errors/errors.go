// Package errors defines the typed error kinds of spec §7, adapted from
// the teacher's internal/domain/errors package (ExecutionError,
// NodeExecutionError, ValidationError, ConfigurationError, StateError).
package errors

import "fmt"

// ConnectionRejectedError is returned synchronously at edit time when
// canConnect fails for a proposed edge.
type ConnectionRejectedError struct {
	SourceNodeID string
	TargetNodeID string
	Reason       string
}

func (e *ConnectionRejectedError) Error() string {
	return fmt.Sprintf("connection rejected %s -> %s: %s", e.SourceNodeID, e.TargetNodeID, e.Reason)
}

// CycleDetectedError is raised by Scheduler.Tick when the graph contains a
// directed cycle; the tick aborts without mutating any node.
type CycleDetectedError struct {
	NodeID string // a node id on the detected cycle ("" if none was located)
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("cycle detected involving node %s", e.NodeID)
}

// NodeExecutionError is a per-node execution failure. It is captured on the
// node's LastError and does not poison the rest of the tick.
type NodeExecutionError struct {
	NodeID   string
	NodeKind string
	Message  string
	Cause    error
}

func (e *NodeExecutionError) Error() string {
	return fmt.Sprintf("node %s (%s) execution error: %s", e.NodeID, e.NodeKind, e.Message)
}

func (e *NodeExecutionError) Unwrap() error { return e.Cause }

// SandboxError specializes NodeExecutionError for script sandbox failures
// (timeout or thrown exception), preserving captured console logs.
type SandboxError struct {
	NodeExecutionError
	Logs    []string
	Timeout bool
}

func (e *SandboxError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("node %s sandbox timeout: %s", e.NodeID, e.Message)
	}
	return fmt.Sprintf("node %s sandbox error: %s", e.NodeID, e.Message)
}

// SchemaViolationError is fatal for a whole deserialize operation.
type SchemaViolationError struct {
	Field   string
	Message string
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("schema violation at %s: %s", e.Field, e.Message)
}

// InvalidMetadataUpdateError is rejected at the action boundary; the
// node's prior state is preserved.
type InvalidMetadataUpdateError struct {
	NodeID  string
	Field   string
	Message string
}

func (e *InvalidMetadataUpdateError) Error() string {
	return fmt.Sprintf("invalid metadata update on node %s field %s: %s", e.NodeID, e.Field, e.Message)
}

// NewCycleDetected constructs a CycleDetectedError.
func NewCycleDetected(nodeID string) *CycleDetectedError {
	return &CycleDetectedError{NodeID: nodeID}
}

// NewConnectionRejected constructs a ConnectionRejectedError.
func NewConnectionRejected(sourceNodeID, targetNodeID, reason string) *ConnectionRejectedError {
	return &ConnectionRejectedError{SourceNodeID: sourceNodeID, TargetNodeID: targetNodeID, Reason: reason}
}

// NewNodeExecutionError constructs a NodeExecutionError.
func NewNodeExecutionError(nodeID, nodeKind, message string, cause error) *NodeExecutionError {
	return &NodeExecutionError{NodeID: nodeID, NodeKind: nodeKind, Message: message, Cause: cause}
}

// NewSandboxError constructs a SandboxError.
func NewSandboxError(nodeID, message string, logs []string, timeout bool, cause error) *SandboxError {
	return &SandboxError{
		NodeExecutionError: NodeExecutionError{NodeID: nodeID, NodeKind: "function", Message: message, Cause: cause},
		Logs:               logs,
		Timeout:            timeout,
	}
}
