package core

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks every configuration error (roster size, spy
	// allocation, play before allocation).
	ErrConfiguration = errors.New("configuration error")

	// ErrProtocolViolation marks every protocol violation by a player.
	ErrProtocolViolation = errors.New("protocol violation")
)

// ConfigError is a fatal setup error. No usable game state remains after it.
type ConfigError struct {
	Op  string
	Err error
}

// NewConfigError wraps err as a configuration error raised by op.
func NewConfigError(op string, err error) *ConfigError {
	return &ConfigError{Op: op, Err: err}
}

// Error implements error.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrConfiguration, e.Op, e.Err)
}

// Unwrap exposes the underlying sentinel.
func (e *ConfigError) Unwrap() []error { return []error{ErrConfiguration, e.Err} }

// Call names a Player callback in protocol diagnostics.
type Call string

const (
	CallProposeMission Call = "ProposeMission"
	CallVote           Call = "Vote"
	CallBetray         Call = "Betray"
)

// ProtocolError identifies the player and callback that returned a
// non-conforming value. The engine aborts the game on the first one.
type ProtocolError struct {
	Player PlayerID
	Name   string
	Call   Call
	Reason string
}

// Error implements error.
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: player %d (%s) %s: %s", ErrProtocolViolation, e.Player, e.Name, e.Call, e.Reason)
}

// Unwrap lets errors.Is match ErrProtocolViolation.
func (e *ProtocolError) Unwrap() error { return ErrProtocolViolation }
