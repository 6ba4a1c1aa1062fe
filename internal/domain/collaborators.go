package domain

import "context"

// BacnetConfig is a discovered point record supplied by the upstream point
// discovery feed (§6). The core only reads it when constructing field point
// nodes; it never dials the feed itself.
type BacnetConfig struct {
	PointID             string
	ObjectType          string
	ObjectID            int
	SupervisorID        string
	ControllerID        string
	Name                string
	DiscoveredProperties map[string]any
}

// PointFeed is the interface the core consumes to learn about field points.
// The real implementation (HTTP polling, caching, retries) lives outside
// this repo's scope per spec §1; tests use an in-memory stub.
type PointFeed interface {
	DiscoverPoints(ctx context.Context) ([]BacnetConfig, error)
}

// FieldWrite is a single setpoint write request produced by a Write-setpoint
// node's execution, queued for the external field-write sink (§4.3 step 5).
type FieldWrite struct {
	PointID    string
	ObjectType string
	ObjectID   int
	Value      Value
	Priority   int
	WriteMode  WriteMode
}

// FieldWriteSink is the downstream collaborator that performs the physical
// BACnet write. The core enqueues requests and does not await a response
// (§4.3: "the core does not await the physical write").
type FieldWriteSink interface {
	Write(ctx context.Context, w FieldWrite) error
}

// NoopFieldWriteSink discards every write; useful as a default and in tests
// that only assert on what was enqueued, not on an external effect.
type NoopFieldWriteSink struct{}

func (NoopFieldWriteSink) Write(context.Context, FieldWrite) error { return nil }

// RecordingFieldWriteSink captures writes in-memory for assertions.
type RecordingFieldWriteSink struct {
	Writes []FieldWrite
}

func (s *RecordingFieldWriteSink) Write(_ context.Context, w FieldWrite) error {
	s.Writes = append(s.Writes, w)
	return nil
}
