package domain

import "fmt"

// Value is the quantity that flows on a wire: a number or a boolean.
// Strings are legal only as node configuration (constant value-type,
// function source code, metadata) — never as a wire payload.
type Value struct {
	kind ValueKind
	num  float64
	b    bool
}

// ValueKind tags which variant of Value is populated.
type ValueKind int

const (
	// ValueUndefined marks a missing value: an unconnected input, a node
	// that has not yet produced output, or a node that errored this tick.
	ValueUndefined ValueKind = iota
	ValueNumber
	ValueBoolean
)

// Undefined is the zero Value, representing "no value this tick".
var Undefined = Value{kind: ValueUndefined}

// Num constructs a numeric Value.
func Num(f float64) Value { return Value{kind: ValueNumber, num: f} }

// Bool constructs a boolean Value.
func Bool(b bool) Value { return Value{kind: ValueBoolean, b: b} }

// IsDefined reports whether the value carries a number or boolean.
func (v Value) IsDefined() bool { return v.kind != ValueUndefined }

// Kind returns the value's kind.
func (v Value) Kind() ValueKind { return v.kind }

// Float returns the value as a float64. Booleans convert to 1/0; undefined
// converts to 0, matching the "default 0 for numeric calculators" rule in
// the scheduler's input-gathering step.
func (v Value) Float() float64 {
	switch v.kind {
	case ValueNumber:
		return v.num
	case ValueBoolean:
		if v.b {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// Truthy returns the value as a boolean using the truthiness rule: nonzero
// numbers and true booleans are truthy; undefined is falsy.
func (v Value) Truthy() bool {
	switch v.kind {
	case ValueNumber:
		return v.num != 0
	case ValueBoolean:
		return v.b
	default:
		return false
	}
}

// Raw returns the value boxed as an `any` for serialization and sandbox
// hand-off: float64, bool, or nil for undefined.
func (v Value) Raw() any {
	switch v.kind {
	case ValueNumber:
		return v.num
	case ValueBoolean:
		return v.b
	default:
		return nil
	}
}

// ValueFromRaw reconstructs a Value from a decoded JSON/script result.
// Returns an error if raw is neither a number nor a boolean.
func ValueFromRaw(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Undefined, nil
	case bool:
		return Bool(t), nil
	case float64:
		return Num(t), nil
	case int:
		return Num(float64(t)), nil
	case int64:
		return Num(float64(t)), nil
	default:
		return Undefined, fmt.Errorf("value must be number or boolean, got %T", raw)
	}
}

func (v Value) String() string {
	switch v.kind {
	case ValueNumber:
		return fmt.Sprintf("%g", v.num)
	case ValueBoolean:
		return fmt.Sprintf("%t", v.b)
	default:
		return "undefined"
	}
}
