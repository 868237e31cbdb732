// Package config loads YAML experiment files for the simulator.
//
// An experiment names the matchups to play, the roster sizes, the batch
// size and seed, strategy parameters, optional evolution settings and the
// language model backing "model" agents. Default returns a runnable
// experiment; Load and Parse overlay a file on top of it and validate the
// result.
package config
