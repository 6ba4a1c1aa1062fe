// Package serializer implements the Serializer (spec §4.8, §6, C10): the
// symmetric JSON round-trip between the in-memory graph and its stable
// on-wire representation.
//
// Grounded on the teacher's internal/application/executor/config_parser.go
// (JSON decode into domain structs via a typed intermediate) and
// domain.Workflow's MarshalJSON/UnmarshalJSON pairing, adapted to the
// node/edge wire shape spec §6 defines exactly.
package serializer

import (
	"encoding/json"
	"fmt"

	"github.com/bacflow/dataflow/internal/domain"
	domainerrors "github.com/bacflow/dataflow/internal/domain/errors"
	"github.com/bacflow/dataflow/internal/graph"
	"github.com/bacflow/dataflow/internal/registry"
)

// NodeWire is the on-wire node shape of §6.
type NodeWire struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Category string          `json:"category"`
	Label    string          `json:"label"`
	Position domain.Position `json:"position"`
	Metadata map[string]any  `json:"metadata"`
}

// EdgeWire is the on-wire edge shape of §6.
type EdgeWire struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// GraphWire is the whole-graph on-wire form: `{nodes: [...], edges: [...]}`.
type GraphWire struct {
	Nodes []NodeWire `json:"nodes"`
	Edges []EdgeWire `json:"edges"`
}

// wireCategory maps a domain.Category to the wire vocabulary's "bacnet"
// spelling for field nodes, per §6's `"bacnet"|"logic"|"command"|"control-flow"`.
func wireCategory(c domain.Category) string {
	if c == domain.CategoryField {
		return "bacnet"
	}
	return string(c)
}

func categoryFromWire(s string) domain.Category {
	if s == "bacnet" {
		return domain.CategoryField
	}
	return domain.Category(s)
}

// ToSerializable produces a node's wire form. Metadata is kind-specific
// and must never carry function references (§4.8); since domain.Node's
// Metadata is already a plain JSON-able map, this is a direct projection.
func ToSerializable(n *domain.Node) NodeWire {
	return NodeWire{
		ID:       n.ID,
		Type:     string(n.Kind),
		Category: wireCategory(n.Category),
		Label:    n.Label,
		Position: n.Position,
		Metadata: n.Metadata,
	}
}

// Marshal serializes the whole graph to its wire form.
func Marshal(g *graph.Graph) (GraphWire, error) {
	var wire GraphWire
	for _, n := range g.Nodes() {
		wire.Nodes = append(wire.Nodes, ToSerializable(n))
	}
	for _, e := range g.Edges() {
		wire.Edges = append(wire.Edges, EdgeWire{
			ID:           e.ID,
			Source:       e.SourceNodeID,
			Target:       e.TargetNodeID,
			SourceHandle: string(e.SourceHandle),
			TargetHandle: string(e.TargetHandle),
		})
	}
	return wire, nil
}

// MarshalJSON serializes the whole graph directly to JSON bytes.
func MarshalJSON(g *graph.Graph) ([]byte, error) {
	wire, err := Marshal(g)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wire)
}

// Unmarshal deserializes wire into a fresh Graph, dispatching node
// construction on (category, type) through the factory. Unknown kinds are
// a fatal SchemaViolationError, per §4.8.
func Unmarshal(wire GraphWire, reg *registry.Registry) (*graph.Graph, error) {
	g := graph.New(reg)

	for _, nw := range wire.Nodes {
		kind := domain.NodeKind(nw.Type)
		if !isKnownKind(reg, kind) {
			return nil, &domainerrors.SchemaViolationError{Field: "nodes[].type", Message: fmt.Sprintf("unknown node kind %q", nw.Type)}
		}
		cat := categoryFromWire(nw.Category)
		if cat != domain.CategoryOf(kind) {
			return nil, &domainerrors.SchemaViolationError{Field: "nodes[].category", Message: fmt.Sprintf("category %q does not match kind %q", nw.Category, nw.Type)}
		}
		n := &domain.Node{
			ID:       nw.ID,
			Kind:     kind,
			Category: cat,
			Label:    nw.Label,
			Metadata: nw.Metadata,
		}
		if err := g.AddNode(n, nw.Position); err != nil {
			return nil, err
		}
	}

	for _, ew := range wire.Edges {
		expectedID := domain.EdgeID(ew.Source, domain.Handle(ew.SourceHandle), ew.Target, domain.Handle(ew.TargetHandle))
		if ew.ID != "" && ew.ID != expectedID {
			return nil, &domainerrors.SchemaViolationError{Field: "edges[].id", Message: fmt.Sprintf("edge id %q does not match endpoints (expected %q)", ew.ID, expectedID)}
		}
		if _, err := g.AddEdge(ew.Source, domain.Handle(ew.SourceHandle), ew.Target, domain.Handle(ew.TargetHandle)); err != nil {
			return nil, err
		}
	}

	return g, nil
}

// UnmarshalJSON deserializes JSON bytes directly into a fresh Graph.
func UnmarshalJSON(data []byte, reg *registry.Registry) (*graph.Graph, error) {
	var wire GraphWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, &domainerrors.SchemaViolationError{Field: "", Message: err.Error()}
	}
	return Unmarshal(wire, reg)
}

func isKnownKind(reg *registry.Registry, kind domain.NodeKind) bool {
	for _, k := range reg.Kinds() {
		if k == kind {
			return true
		}
	}
	return false
}
