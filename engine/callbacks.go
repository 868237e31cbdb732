package engine

import (
	"fmt"

	"github.com/hupe1980/resistance/core"
	"github.com/hupe1980/resistance/logging"
)

// CallbackType defines the lifecycle points where callbacks run.
//
// Every broadcast the engine makes to the players is mirrored to the
// callbacks registered for the matching type, after all players have been
// notified. Callbacks observe; they never reach the players.
//
// Available callback types:
//   - one per core.EventKind (new game, proposal, vote/mission/round/game outcome)
//   - CallbackAnyEvent: every event, after the kind-specific callbacks
//   - CallbackOnError: configuration or protocol errors that abort a game
type CallbackType string

const (
	CallbackNewGame        CallbackType = CallbackType(core.EventNewGame)
	CallbackProposal       CallbackType = CallbackType(core.EventProposal)
	CallbackVoteOutcome    CallbackType = CallbackType(core.EventVoteOutcome)
	CallbackMissionOutcome CallbackType = CallbackType(core.EventMissionOutcome)
	CallbackRoundOutcome   CallbackType = CallbackType(core.EventRoundOutcome)
	CallbackGameOutcome    CallbackType = CallbackType(core.EventGameOutcome)

	// CallbackAnyEvent is triggered for every event regardless of kind.
	CallbackAnyEvent CallbackType = "any_event"

	// CallbackOnError is triggered when a game aborts with an error.
	CallbackOnError CallbackType = "on_error"
)

// CallbackContext carries what a callback may inspect.
type CallbackContext struct {
	// GameID identifies the game that produced the event.
	GameID string

	// Event is the event being processed. Nil for CallbackOnError.
	Event *core.Event

	// Err is the aborting error for CallbackOnError.
	Err error

	// CallbackType indicates which callback type triggered this execution.
	CallbackType CallbackType
}

// Callback defines the interface for game lifecycle hooks.
//
// Callbacks run synchronously on the game's goroutine. A callback returning
// an error aborts the game with that error.
type Callback interface {
	Type() CallbackType
	Execute(callbackCtx *CallbackContext) error
}

// FunctionCallback wraps a function as a callback implementation.
//
// Example:
//
//	cb := NewFunctionCallback(CallbackMissionOutcome, func(c *CallbackContext) error {
//	    fmt.Println("betrayals:", c.Event.Betrayals)
//	    return nil
//	})
type FunctionCallback struct {
	callbackType CallbackType
	fn           func(callbackCtx *CallbackContext) error
}

// NewFunctionCallback creates a new function-based callback.
func NewFunctionCallback(callbackType CallbackType, fn func(callbackCtx *CallbackContext) error) *FunctionCallback {
	return &FunctionCallback{callbackType: callbackType, fn: fn}
}

// Type returns the callback type this function handles.
func (c *FunctionCallback) Type() CallbackType { return c.callbackType }

// Execute calls the wrapped function with the provided context.
func (c *FunctionCallback) Execute(callbackCtx *CallbackContext) error {
	return c.fn(callbackCtx)
}

// CallbackManager routes events to the registered callbacks.
//
// Callbacks are executed in registration order, and any callback returning an
// error stops execution of the remaining ones. The manager is not safe for
// concurrent registration; a game uses it from a single goroutine.
type CallbackManager struct {
	callbacks map[CallbackType][]Callback
}

// NewCallbackManager creates a new callback manager instance.
func NewCallbackManager(callbacks ...Callback) *CallbackManager {
	cm := &CallbackManager{callbacks: make(map[CallbackType][]Callback)}
	for _, cb := range callbacks {
		cm.RegisterCallback(cb)
	}
	return cm
}

// RegisterCallback adds a callback to the manager for its type.
func (cm *CallbackManager) RegisterCallback(callback Callback) {
	callbackType := callback.Type()
	cm.callbacks[callbackType] = append(cm.callbacks[callbackType], callback)
}

// ExecuteCallbacks executes all registered callbacks for the specified type.
func (cm *CallbackManager) ExecuteCallbacks(callbackType CallbackType, callbackCtx *CallbackContext) error {
	callbacks, exists := cm.callbacks[callbackType]
	if !exists {
		return nil
	}

	callbackCtx.CallbackType = callbackType
	for _, callback := range callbacks {
		if err := callback.Execute(callbackCtx); err != nil {
			return err
		}
	}

	return nil
}

// dispatch runs the kind-specific callbacks followed by CallbackAnyEvent ones.
func (cm *CallbackManager) dispatch(gameID string, ev *core.Event) error {
	cbCtx := &CallbackContext{GameID: gameID, Event: ev}
	if err := cm.ExecuteCallbacks(CallbackType(ev.Kind), cbCtx); err != nil {
		return fmt.Errorf("%s callback: %w", ev.Kind, err)
	}
	if err := cm.ExecuteCallbacks(CallbackAnyEvent, cbCtx); err != nil {
		return fmt.Errorf("%s callback: %w", CallbackAnyEvent, err)
	}
	return nil
}

// LoggingCallback writes every event it receives to a logging.Logger at debug level.
type LoggingCallback struct {
	callbackType CallbackType
	logger       logging.Logger
}

// NewLoggingCallback creates a new logging callback.
func NewLoggingCallback(callbackType CallbackType, logger logging.Logger) *LoggingCallback {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &LoggingCallback{callbackType: callbackType, logger: logger}
}

// Type returns the callback type this logger handles.
func (c *LoggingCallback) Type() CallbackType { return c.callbackType }

// Execute logs the event.
func (c *LoggingCallback) Execute(callbackCtx *CallbackContext) error {
	if callbackCtx.Err != nil {
		c.logger.Error("game aborted", "game_id", callbackCtx.GameID, "error", callbackCtx.Err)
		return nil
	}
	ev := callbackCtx.Event
	if ev == nil {
		return nil
	}
	c.logger.Debug("game event",
		"game_id", callbackCtx.GameID,
		"seq", ev.Seq,
		"kind", string(ev.Kind),
		"round", ev.Round,
		"attempt", ev.Attempt,
		"proposer", int(ev.Proposer),
		"team", ev.Team.String(),
		"betrayals", ev.Betrayals,
		"missions_failed", ev.Failed,
	)
	return nil
}

// EventSink receives finished events; history.InMemoryStore implements it.
type EventSink interface {
	AppendEvent(gameID string, ev core.Event) error
}

// RecorderCallback forwards every event to an EventSink.
type RecorderCallback struct {
	sink EventSink
}

// NewRecorderCallback creates a CallbackAnyEvent callback appending to sink.
func NewRecorderCallback(sink EventSink) *RecorderCallback {
	return &RecorderCallback{sink: sink}
}

// Type returns CallbackAnyEvent.
func (c *RecorderCallback) Type() CallbackType { return CallbackAnyEvent }

// Execute appends the event to the sink.
func (c *RecorderCallback) Execute(callbackCtx *CallbackContext) error {
	if callbackCtx.Event == nil {
		return nil
	}
	return c.sink.AppendEvent(callbackCtx.GameID, *callbackCtx.Event)
}
