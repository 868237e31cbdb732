package history

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/resistance/core"
	"github.com/hupe1980/resistance/engine"
	"github.com/hupe1980/resistance/internal/testutil"
)

// Interface compliance (compile-time assertion)
var _ engine.EventSink = (*InMemoryStore)(nil)

func TestInMemoryStore_AppendAndTranscript(t *testing.T) {
	s := NewInMemoryStore()

	ev := testutil.NewEventBuilder(core.EventProposal).Seq(1).Proposer(2).Team(2, 3).Build()
	require.NoError(t, s.AppendEvent("g1", ev))
	require.NoError(t, s.AppendEvent("g1", testutil.NewEventBuilder(core.EventVoteOutcome).Seq(2).Votes(true, false, true).Build()))
	require.NoError(t, s.AppendEvent("g2", ev))

	got, err := s.Transcript("g1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, core.EventProposal, got[0].Kind)
	assert.Equal(t, core.EventVoteOutcome, got[1].Kind)

	// Returned transcripts are copies.
	got[0].Team[0] = 9
	got[1].Votes[0] = false
	again, _ := s.Transcript("g1")
	assert.Equal(t, core.Team{2, 3}, again[0].Team)
	assert.True(t, again[1].Votes[0])

	found, err := s.Search("g1", core.EventVoteOutcome)
	require.NoError(t, err)
	found[0].Votes[2] = false
	again, _ = s.Transcript("g1")
	assert.True(t, again[1].Votes[2])

	// So are stored events.
	ev.Team[0] = 7
	again, _ = s.Transcript("g2")
	assert.Equal(t, core.Team{2, 3}, again[0].Team)

	assert.Equal(t, []string{"g1", "g2"}, s.Games())
	assert.Equal(t, 2, s.Len())

	_, err = s.Transcript("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryStore_Search(t *testing.T) {
	s := NewInMemoryStore()
	for i, kind := range []core.EventKind{core.EventNewGame, core.EventProposal, core.EventVoteOutcome, core.EventProposal} {
		require.NoError(t, s.AppendEvent("g", testutil.NewEventBuilder(kind).Seq(i+1).Build()))
	}

	proposals, err := s.Search("g", core.EventProposal)
	require.NoError(t, err)
	require.Len(t, proposals, 2)
	assert.Equal(t, 2, proposals[0].Seq)
	assert.Equal(t, 4, proposals[1].Seq)

	all, err := s.Search("g")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	_, err = s.Search("nope", core.EventProposal)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryStore_DeleteClearEvict(t *testing.T) {
	s := NewInMemoryStore(func(o *Options) { o.MaxGames = 2 })
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.AppendEvent(id, core.Event{Kind: core.EventNewGame}))
	}
	assert.Equal(t, []string{"b", "c"}, s.Games())
	assert.Equal(t, 1, s.Evicted())

	require.NoError(t, s.Delete("b"))
	assert.ErrorIs(t, s.Delete("b"), ErrNotFound)
	assert.Equal(t, []string{"c"}, s.Games())

	s.Clear()
	assert.Zero(t, s.Len())
	assert.Empty(t, s.Games())
}

func TestInMemoryStore_Concurrent(t *testing.T) {
	s := NewInMemoryStore()
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			id := fmt.Sprintf("game-%d", g)
			for i := range 50 {
				_ = s.AppendEvent(id, core.Event{Seq: i + 1, Kind: core.EventProposal})
				_, _ = s.Transcript(id)
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, 8, s.Len())
	for _, id := range s.Games() {
		events, err := s.Transcript(id)
		require.NoError(t, err)
		require.Len(t, events, 50)
		for i, ev := range events {
			assert.Equal(t, i+1, ev.Seq)
		}
	}
}

func TestRecordedGame(t *testing.T) {
	s := NewInMemoryStore()
	ps := testutil.Players(5)
	g, err := engine.NewGame(testutil.AsPlayers(ps),
		engine.WithGameID("recorded"),
		engine.WithRand(rand.New(rand.NewPCG(3, 4))),
		engine.WithCallbacks(engine.NewRecorderCallback(s)),
	)
	require.NoError(t, err)
	require.NoError(t, g.AllocateSpiesRandomly())

	res, err := g.Play()
	require.NoError(t, err)

	events, err := s.Transcript("recorded")
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, core.EventNewGame, events[0].Kind)
	assert.Equal(t, core.EventGameOutcome, events[len(events)-1].Kind)
	for i, ev := range events {
		assert.Equal(t, i+1, ev.Seq)
		assert.Equal(t, "recorded", ev.GameID)
	}

	sum := Summarize(events)
	assert.Equal(t, "recorded", sum.GameID)
	assert.Equal(t, 5, sum.Players)
	assert.Equal(t, 5, sum.Rounds)
	assert.True(t, sum.Finished)
	assert.Equal(t, res.SpiesWin, sum.SpiesWin)
	assert.Equal(t, res.MissionsFailed, sum.MissionsFailed)
	// Scripted players approve everything, so every first proposal runs.
	assert.Equal(t, 5, sum.Proposals)
	assert.Zero(t, sum.Rejected)
	assert.Equal(t, 5, sum.Missions)
}

func TestSummarize_Rejections(t *testing.T) {
	events := []core.Event{
		testutil.NewEventBuilder(core.EventNewGame).Seq(1).Build(),
		testutil.NewEventBuilder(core.EventProposal).Seq(2).Build(),
		testutil.NewEventBuilder(core.EventVoteOutcome).Seq(3).Votes(false, false, false, true, true).Build(),
		testutil.NewEventBuilder(core.EventProposal).Seq(4).Build(),
		testutil.NewEventBuilder(core.EventVoteOutcome).Seq(5).Votes(true, true, true, false, false).Build(),
		testutil.NewEventBuilder(core.EventMissionOutcome).Seq(6).Betrayals(1, 1).Build(),
	}

	sum := Summarize(events)
	assert.Equal(t, 5, sum.Players)
	assert.Equal(t, 2, sum.Proposals)
	assert.Equal(t, 1, sum.Rejected)
	assert.Equal(t, 1, sum.Missions)
	assert.Equal(t, 1, sum.Betrayals)
	assert.Equal(t, 1, sum.MissionsFailed)
	assert.False(t, sum.Finished)
}
