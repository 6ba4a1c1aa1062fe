package domain

import "github.com/google/uuid"

// businessIDNamespace is the fixed namespace UUID field points hang their
// version-5 business identifiers off. Stable across process restarts so
// reimported graphs recompute the same business ID for the same point.
var businessIDNamespace = uuid.MustParse("6f6e1d6e-2e6b-4e6a-9c4b-3a7e9a2b9f10")

// NewInstanceID returns a freshly unique instance identifier (v4), used as
// the graph's node-map key. Unstable across serialization round-trips.
func NewInstanceID() string {
	return uuid.New().String()
}

// BusinessID computes the deterministic, serialization-stable identifier
// for a field point from the triple (supervisor, controller, object
// number), per spec §3: a version-5 UUID under a fixed namespace.
func BusinessID(supervisorID, controllerID string, objectNumber int) string {
	name := supervisorID + ":" + controllerID + ":" + itoa(objectNumber)
	return uuid.NewSHA1(businessIDNamespace, []byte(name)).String()
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
