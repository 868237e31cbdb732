package history

import "fmt"

var (
	// ErrNotFound is returned when no transcript exists for a game ID.
	ErrNotFound = fmt.Errorf("game transcript not found")
)
