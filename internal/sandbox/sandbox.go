// Package sandbox implements the Script Sandbox (spec §4.7, C9): an
// embedded JavaScript evaluator with a wall-clock timeout, captured
// console output, and number/boolean result-type validation.
//
// Grounded on the teacher's node_executors.go, which names goja as the
// intended engine for its (never-wired) NodeTypeScriptExecutor, and on the
// wider retrieval pack's embedded-script services
// (aipilotbyjd-linkflow-v2, rakunlabs-at, r3e-network-service_layer), all
// of which depend on github.com/dop251/goja for exactly this purpose.
package sandbox

import (
	"context"
	"fmt"
	"time"

	"github.com/dop251/goja"
	"github.com/rs/zerolog/log"
)

// Sandbox evaluates user-authored function-node source code. Per §4.7 and
// §9's "global singleton" design note, it is a single engine-owned
// resource (not process-global state) so multiple engines can run
// concurrent sandboxes in tests without interfering with each other; each
// call still gets a fresh goja.Runtime so scripts never share host state.
type Sandbox struct{}

// New constructs a Sandbox. Construction is cheap — the expensive part,
// goja.Runtime creation, happens per-call in Execute — so there is no
// lazy-init state to coalesce here; "lazy initialized, cached as a single
// instance" in §4.7 is satisfied at the Sandbox-value level by the caller
// holding one Sandbox per engine and passing it to every Function node.
func New() *Sandbox { return &Sandbox{} }

// Execute runs sourceCode's `execute` function against inputs, isolated
// from host state, enforcing timeoutMs as a wall-clock interrupt. logs
// contains one line per console call, prefixed with "[ERROR]"/"[WARN]"
// for console.error/console.warn.
func (s *Sandbox) Execute(ctx context.Context, sourceCode string, inputs map[string]any, timeoutMs int) (result any, logs []string, err error) {
	if timeoutMs <= 0 {
		timeoutMs = 5000
	}

	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))

	var captured []string
	console := vm.NewObject()
	_ = console.Set("log", func(call goja.FunctionCall) goja.Value {
		captured = append(captured, formatArgs(call.Arguments))
		return goja.Undefined()
	})
	_ = console.Set("warn", func(call goja.FunctionCall) goja.Value {
		captured = append(captured, "[WARN] "+formatArgs(call.Arguments))
		return goja.Undefined()
	})
	_ = console.Set("error", func(call goja.FunctionCall) goja.Value {
		captured = append(captured, "[ERROR] "+formatArgs(call.Arguments))
		return goja.Undefined()
	})
	_ = vm.Set("console", console)

	timer := time.AfterFunc(time.Duration(timeoutMs)*time.Millisecond, func() {
		vm.Interrupt("timeout")
	})
	defer timer.Stop()

	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("recovered", r).Msg("sandbox panic recovered")
			err = fmt.Errorf("sandbox panic: %v", r)
		}
	}()

	if _, runErr := vm.RunString(sourceCode); runErr != nil {
		return nil, captured, classifyError(runErr)
	}

	executeFn, ok := goja.AssertFunction(vm.Get("execute"))
	if !ok {
		return nil, captured, fmt.Errorf("script must declare a function named execute")
	}

	args := make([]goja.Value, 0, len(inputs))
	// Function nodes declare a fixed, ordered input set; callers pass the
	// assembled map, and we hand it to the script as a single object so
	// scripts can destructure by declared input id rather than position.
	argObj := vm.NewObject()
	for k, v := range inputs {
		_ = argObj.Set(k, v)
	}
	args = append(args, argObj)

	out, callErr := executeFn(goja.Undefined(), args...)
	if callErr != nil {
		return nil, captured, classifyError(callErr)
	}

	return out.Export(), captured, nil
}

// timeoutError wraps a goja interrupt so callers can distinguish a timeout
// from a thrown script exception without string-matching the message.
type timeoutError struct{ cause error }

func (e *timeoutError) Error() string { return fmt.Sprintf("sandbox timeout: %v", e.cause) }
func (e *timeoutError) Unwrap() error { return e.cause }

// IsTimeout reports whether err originated from the wall-clock interrupt
// rather than a thrown script exception.
func IsTimeout(err error) bool {
	_, ok := err.(*timeoutError)
	return ok
}

func classifyError(err error) error {
	if ie, ok := err.(*goja.InterruptedError); ok {
		return &timeoutError{cause: ie}
	}
	return err
}

func formatArgs(args []goja.Value) string {
	out := ""
	for i, a := range args {
		if i > 0 {
			out += " "
		}
		out += a.String()
	}
	return out
}
