package observability

import (
	"fmt"

	"github.com/agentwf/pulse/pkg/models"
)

// ObserveScript runs fn inside a script observation scope: a
// script_started event on entry and exactly one terminal event on exit.
// An error return or a panic produces script_failed; the error (or
// panic value) is propagated to the caller unchanged. A nil return
// produces script_completed. The scope never swallows the body's failure,
// it only annotates it.
func (h *Hub) ObserveScript(name, directive string, fn func() error) error {
	h.ScriptStarted(name, directive, nil)
	return h.runScope(fn,
		func(err error) { h.ScriptFailed(name, err, nil) },
		func() { h.ScriptCompleted(name, nil) },
	)
}

// ObserveDirective is ObserveScript at directive granularity. Scripts
// nested inside share the directive by naming convention, not structure.
func (h *Hub) ObserveDirective(name string, context map[string]any, fn func() error) error {
	h.DirectiveStarted(name, context)
	return h.runScope(fn,
		func(err error) { h.DirectiveFailed(name, err) },
		func() { h.DirectiveCompleted(name, nil) },
	)
}

// runScope executes the scope body and guarantees exactly one of the
// terminal callbacks fires, including when the body panics.
func (h *Hub) runScope(fn func() error, failed func(error), completed func()) (err error) {
	terminated := false
	defer func() {
		if terminated {
			return
		}
		r := recover()
		failed(fmt.Errorf("panic: %v", r))
		panic(r)
	}()

	err = fn()
	terminated = true
	if err != nil {
		failed(err)
		return err
	}
	completed()
	return nil
}

// Observed wraps fn so every invocation runs inside a script scope. It
// is the function-decorator form of ObserveScript for call sites that
// compose handlers up front.
func Observed(h *Hub, name, directive string, fn func() error) func() error {
	return func() error {
		return h.ObserveScript(name, directive, fn)
	}
}

// AgentObserver provides the started/completed/failed/progress/warning/
// learning vocabulary through direct method calls, for callers that
// cannot wrap their work in a scope. It delegates to the same hub and
// produces equivalent events.
type AgentObserver struct {
	hub       *Hub
	script    string
	directive string
}

// NewAgentObserver creates an observer for the named script. A nil hub
// selects the process-wide default.
func NewAgentObserver(hub *Hub, script, directive string) *AgentObserver {
	if hub == nil {
		hub = Default()
	}
	return &AgentObserver{hub: hub, script: script, directive: directive}
}

// ScriptStarted records the start of the observed script.
func (o *AgentObserver) ScriptStarted(context map[string]any) {
	o.hub.ScriptStarted(o.script, o.directive, context)
}

// ScriptCompleted records successful completion with optional results.
func (o *AgentObserver) ScriptCompleted(results map[string]any) {
	o.hub.ScriptCompleted(o.script, results)
}

// ScriptFailed records a failure with error details plus any
// caller-supplied context.
func (o *AgentObserver) ScriptFailed(cause error, context map[string]any) {
	o.hub.ScriptFailed(o.script, cause, context)
}

// Progress records a progress update for long-running work. A negative
// percent omits the percentage field.
func (o *AgentObserver) Progress(message string, percent float64) {
	o.hub.Progress(o.script, message, percent)
}

// Warning records a warning event. Warnings are notified.
func (o *AgentObserver) Warning(message string, details map[string]any) {
	o.hub.Emit(models.KindTaskProgress, o.script, message, details, models.LevelWarning, true)
}

// Learning records a self-annealing learning event.
func (o *AgentObserver) Learning(learning string, directiveUpdated bool) {
	o.hub.Learning(o.script, learning, directiveUpdated)
}
