package resistance

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/resistance/agent"
	"github.com/hupe1980/resistance/config"
	"github.com/hupe1980/resistance/core"
	"github.com/hupe1980/resistance/history"
	"github.com/hupe1980/resistance/model"
)

func smallConfig() *config.Config {
	cfg := config.Default()
	cfg.Games = 3
	cfg.Players = []int{5, 6}
	cfg.Workers = 2
	cfg.Seed = 11
	return cfg
}

func TestSimulator_Batch(t *testing.T) {
	sim, err := New(smallConfig())
	require.NoError(t, err)

	rep, err := sim.Batch(context.Background())
	require.NoError(t, err)
	assert.Len(t, rep.Games, len(sim.Config().Matchups)*2*3)
	assert.Empty(t, rep.Errors())

	events, err := sim.Transcript(rep.Games[0].GameID)
	require.NoError(t, err)
	assert.True(t, history.Summarize(events).Finished)
}

func TestSimulator_BatchWithMockModel(t *testing.T) {
	cfg := smallConfig()
	cfg.Matchups = []config.MatchupConfig{{Resistance: "model", Spy: "reflex"}}
	cfg.Model.Provider = "mock"
	cfg.Model.MaxCallsPerGame = 5

	mock := model.NewMockModel("scripted", "mock")
	sim, err := New(cfg, func(o *Options) { o.Model = mock })
	require.NoError(t, err)

	rep, err := sim.Batch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rep.Errors())
	assert.NotEmpty(t, mock.Requests())
}

func TestSimulator_Evolve(t *testing.T) {
	cfg := smallConfig()
	cfg.Mode = config.ModeEvolve
	cfg.Evolution.Population = 6
	cfg.Evolution.Generations = 2
	cfg.Evolution.Games = 10
	cfg.Evolution.Survivors = 2

	sim, err := New(cfg)
	require.NoError(t, err)
	gens, err := sim.Evolve()
	require.NoError(t, err)
	require.Len(t, gens, 2)
	for _, g := range gens {
		assert.Len(t, g.Standings, 6)
	}
}

func TestSimulator_PlayGame(t *testing.T) {
	sim, err := New(smallConfig())
	require.NoError(t, err)

	players := make([]core.Player, 7)
	for i := range players {
		players[i] = agent.NewReflexAgent(string(rune('a' + i)))
	}
	res, err := sim.PlayGame(players)
	require.NoError(t, err)
	assert.Len(t, res.Spies, 3)

	events, err := sim.Transcript(res.GameID)
	require.NoError(t, err)
	assert.Equal(t, res.SpiesWin, history.Summarize(events).SpiesWin)

	_, err = sim.PlayGame(players[:4])
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := smallConfig()
	cfg.Games = 0
	_, err := New(cfg)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestNewModel(t *testing.T) {
	m, err := NewModel(config.ModelConfig{Provider: "mock", Name: "m"})
	require.NoError(t, err)
	assert.Equal(t, "mock", m.Info().Provider)

	_, err = NewModel(config.ModelConfig{Provider: "gemini"})
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(config.LogConfig{Level: "warn", Format: "text"}, &buf)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
