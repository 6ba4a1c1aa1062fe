package domain

import "fmt"

// Edge is a directed connection between a source node's output handle and
// a target node's input handle. Id is deterministic from its endpoints so
// duplicate addEdge calls are idempotent and serialization round-trips
// exactly (§6).
type Edge struct {
	ID           string
	SourceNodeID string
	SourceHandle Handle
	TargetNodeID string
	TargetHandle Handle
	Category     Category

	// Active is a transient flag the Edge Activation Manager sets each
	// tick; it is not part of the persisted graph.
	Active bool
}

// EdgeID synthesizes the deterministic id "{src}:{srcHandle|_}->{tgt}:{tgtHandle|_}"
// per spec §4.2 / §6.
func EdgeID(sourceNodeID string, sourceHandle Handle, targetNodeID string, targetHandle Handle) string {
	sh := string(sourceHandle)
	if sh == "" {
		sh = "_"
	}
	th := string(targetHandle)
	if th == "" {
		th = "_"
	}
	return fmt.Sprintf("%s:%s->%s:%s", sourceNodeID, sh, targetNodeID, th)
}
