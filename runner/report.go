package runner

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/hupe1980/resistance/core"
)

// GameRecord is the outcome of one batch game.
type GameRecord struct {
	RunID          string
	GameID         string
	Index          int
	Matchup        Matchup
	Players        int
	Spies          []core.PlayerID
	SpiesWin       bool
	MissionsFailed int
	Proposals      int
	Rejected       int
	Betrayals      int
	Duration       time.Duration
	Err            error
}

// Stats aggregates the games of one matchup at one player count.
type Stats struct {
	Matchup        Matchup
	Players        int
	Games          int
	ResistanceWins int
	SpyWins        int
	Errors         int
	MissionsFailed int
	Proposals      int
	Rejected       int
}

// Completed returns the number of games that finished without error.
func (s Stats) Completed() int { return s.Games - s.Errors }

// ResistanceWinRate is the share of completed games the resistance won.
func (s Stats) ResistanceWinRate() float64 {
	if s.Completed() == 0 {
		return 0
	}
	return float64(s.ResistanceWins) / float64(s.Completed())
}

// AvgMissionsFailed is the mean failed missions per completed game.
func (s Stats) AvgMissionsFailed() float64 {
	if s.Completed() == 0 {
		return 0
	}
	return float64(s.MissionsFailed) / float64(s.Completed())
}

// AvgProposals is the mean number of proposals per completed game.
func (s Stats) AvgProposals() float64 {
	if s.Completed() == 0 {
		return 0
	}
	return float64(s.Proposals) / float64(s.Completed())
}

// Report is the result of a batch run.
type Report struct {
	RunID    string
	Games    []GameRecord
	Stats    []Stats
	Duration time.Duration
}

type statsKey struct {
	matchup Matchup
	players int
}

func newReport(runID string, games []GameRecord, dur time.Duration) *Report {
	agg := map[statsKey]*Stats{}
	var keys []statsKey
	for _, g := range games {
		k := statsKey{g.Matchup, g.Players}
		s, ok := agg[k]
		if !ok {
			s = &Stats{Matchup: g.Matchup, Players: g.Players}
			agg[k] = s
			keys = append(keys, k)
		}
		s.Games++
		if g.Err != nil {
			s.Errors++
			continue
		}
		if g.SpiesWin {
			s.SpyWins++
		} else {
			s.ResistanceWins++
		}
		s.MissionsFailed += g.MissionsFailed
		s.Proposals += g.Proposals
		s.Rejected += g.Rejected
	}

	// Jobs are generated matchup-major, so first-seen order is stable.
	rep := &Report{RunID: runID, Games: games, Duration: dur}
	for _, k := range keys {
		rep.Stats = append(rep.Stats, *agg[k])
	}
	return rep
}

// Stat returns the stats for m at n players.
func (r *Report) Stat(m Matchup, n int) (Stats, bool) {
	for _, s := range r.Stats {
		if s.Matchup == m && s.Players == n {
			return s, true
		}
	}
	return Stats{}, false
}

// Overall merges the stats of m across all player counts.
func (r *Report) Overall(m Matchup) Stats {
	out := Stats{Matchup: m}
	for _, s := range r.Stats {
		if s.Matchup != m {
			continue
		}
		out.Games += s.Games
		out.ResistanceWins += s.ResistanceWins
		out.SpyWins += s.SpyWins
		out.Errors += s.Errors
		out.MissionsFailed += s.MissionsFailed
		out.Proposals += s.Proposals
		out.Rejected += s.Rejected
	}
	return out
}

// Errors returns the failed games.
func (r *Report) Errors() []GameRecord {
	var out []GameRecord
	for _, g := range r.Games {
		if g.Err != nil {
			out = append(out, g)
		}
	}
	return out
}

var statsHeader = []string{
	"resistance", "spy", "allocation", "players", "games", "errors",
	"resistance_wins", "spy_wins", "resistance_win_rate", "avg_missions_failed", "avg_proposals",
}

// WriteCSV writes one row per matchup and player count.
func (r *Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(statsHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	stats := append([]Stats(nil), r.Stats...)
	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].Matchup.String() != stats[j].Matchup.String() {
			return stats[i].Matchup.String() < stats[j].Matchup.String()
		}
		return stats[i].Players < stats[j].Players
	})

	for _, s := range stats {
		alloc := s.Matchup.Allocation
		if alloc == "" {
			alloc = AllocateRoles
		}
		row := []string{
			string(s.Matchup.Resistance),
			string(s.Matchup.Spy),
			string(alloc),
			strconv.Itoa(s.Players),
			strconv.Itoa(s.Games),
			strconv.Itoa(s.Errors),
			strconv.Itoa(s.ResistanceWins),
			strconv.Itoa(s.SpyWins),
			strconv.FormatFloat(s.ResistanceWinRate(), 'f', 4, 64),
			strconv.FormatFloat(s.AvgMissionsFailed(), 'f', 4, 64),
			strconv.FormatFloat(s.AvgProposals(), 'f', 4, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

var gamesHeader = []string{
	"run_id", "game_id", "resistance", "spy", "players", "spies_win",
	"missions_failed", "proposals", "rejected", "betrayals", "duration_ms", "error",
}

// WriteGamesCSV writes one row per game in job order.
func (r *Report) WriteGamesCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(gamesHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, g := range r.Games {
		errText := ""
		if g.Err != nil {
			errText = g.Err.Error()
		}
		row := []string{
			g.RunID,
			g.GameID,
			string(g.Matchup.Resistance),
			string(g.Matchup.Spy),
			strconv.Itoa(g.Players),
			strconv.FormatBool(g.SpiesWin),
			strconv.Itoa(g.MissionsFailed),
			strconv.Itoa(g.Proposals),
			strconv.Itoa(g.Rejected),
			strconv.Itoa(g.Betrayals),
			strconv.FormatInt(g.Duration.Milliseconds(), 10),
			errText,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
