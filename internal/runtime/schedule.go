package runtime

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bacflow/dataflow/internal/domain"
	"github.com/bacflow/dataflow/internal/registry"
)

var timeFormatRE = regexp.MustCompile(`^\d{2}:\d{2}$`)

// scheduleExecutor implements the Schedule node (§3, §4.6): active iff the
// current local wall-clock day is in the configured day-set and time lies
// in [start, end), wrapping through midnight when end < start. The 60s
// re-evaluation cadence is driven by the Message Bus in asynchronous mode;
// Execute here evaluates the window against a supplied clock time and
// reports the active flag, emitting only on transitions (Execute compares
// against state.ScheduleActive and returns undefined when nothing changed).
type scheduleExecutor struct{}

// parseTimeOfDay parses "HH:MM", rejecting anything that does not match
// the two-digit:two-digit format (§4.6).
func parseTimeOfDay(s string) (hour, minute int, err error) {
	if !timeFormatRE.MatchString(s) {
		return 0, 0, fmt.Errorf("time %q does not match HH:MM", s)
	}
	parts := strings.SplitN(s, ":", 2)
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return h, m, nil
}

func daySetContains(daySet []any, weekday time.Weekday) bool {
	name := weekday.String()[:3]
	for _, d := range daySet {
		s, ok := d.(string)
		if !ok {
			continue
		}
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

// EvaluateWindow reports whether now falls within [start, end) on a day in
// day-set, wrapping through midnight when end < start.
func (e *scheduleExecutor) EvaluateWindow(node *domain.Node, now time.Time) (bool, error) {
	startRaw, _ := node.Metadata["start-time"].(string)
	endRaw, _ := node.Metadata["end-time"].(string)
	sh, sm, err := parseTimeOfDay(startRaw)
	if err != nil {
		return false, executionError(node, "invalid start-time", err)
	}
	eh, em, err := parseTimeOfDay(endRaw)
	if err != nil {
		return false, executionError(node, "invalid end-time", err)
	}

	daySet, _ := node.Metadata["day-set"].([]any)
	if !daySetContains(daySet, now.Weekday()) {
		return false, nil
	}

	minuteOfDay := now.Hour()*60 + now.Minute()
	start := sh*60 + sm
	end := eh*60 + em

	if start <= end {
		return minuteOfDay >= start && minuteOfDay < end, nil
	}
	// Wrap-around window, e.g. 22:00-06:00.
	return minuteOfDay >= start || minuteOfDay < end, nil
}

func (e *scheduleExecutor) Execute(_ context.Context, node *domain.Node, state *NodeState, inputs map[domain.Handle]domain.Value) (domain.Value, error) {
	trigger := rawInput(inputs, registry.HandleInput1)
	if trigger.Truthy() {
		state.ScheduleArmed = true
	}
	if !state.ScheduleArmed {
		return domain.Undefined, nil
	}

	active, err := e.EvaluateWindow(node, timeNow())
	if err != nil {
		return domain.Undefined, err
	}

	transitioned := active != state.ScheduleActive || !state.Initialized
	state.ScheduleActive = active
	state.Initialized = true

	if buffered, ok := inputs[registry.HandleInput1]; ok && buffered.IsDefined() && !trigger.Truthy() {
		return buffered, nil
	}
	if !transitioned {
		return domain.Undefined, nil
	}
	return domain.Bool(active), nil
}

// timeNow is a package-level indirection so tests can substitute a fixed
// clock without threading one through every call, mirroring the teacher's
// injected-clock pattern at the package boundary rather than per node.
var timeNow = time.Now

func (e *scheduleExecutor) ActiveOutputHandles(n *domain.Node, s *NodeState, outputHandles []domain.Handle) []domain.Handle {
	return defaultActiveOutputHandles(n, s, outputHandles)
}

// Reset implements §4.3 step 2's per-tick reset: clear only the node's
// transient output/error. Armed/active/initialized persist across ticks
// so the "emit on transitions only" rule can compare against the prior
// tick's active flag — they are cleared on teardown (Store.Clear, called
// from Scheduler.Stop/Bus.Stop), not on every tick.
func (e *scheduleExecutor) Reset(n *domain.Node, _ *NodeState) {
	n.Reset()
}
