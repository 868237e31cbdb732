package history

import "github.com/hupe1980/resistance/core"

// Summary condenses one game transcript.
type Summary struct {
	GameID         string
	Players        int // taken from the first vote
	Rounds         int
	Proposals      int
	Rejected       int
	Missions       int
	MissionsFailed int
	Betrayals      int
	SpiesWin       bool
	Finished       bool
}

// Summarize folds a transcript into a Summary. Transcripts of aborted games
// yield Finished == false.
func Summarize(events []core.Event) Summary {
	var s Summary
	for _, ev := range events {
		if s.GameID == "" {
			s.GameID = ev.GameID
		}
		switch ev.Kind {
		case core.EventProposal:
			s.Proposals++
		case core.EventVoteOutcome:
			if s.Players == 0 {
				s.Players = len(ev.Votes)
			}
			if !ev.Approved {
				s.Rejected++
			}
		case core.EventMissionOutcome:
			s.Missions++
			s.Betrayals += ev.Betrayals
			if !ev.Succeeded {
				s.MissionsFailed++
			}
		case core.EventRoundOutcome:
			s.Rounds++
		case core.EventGameOutcome:
			s.Finished = true
			s.SpiesWin = ev.SpiesWin
			s.MissionsFailed = ev.Failed
		}
	}
	return s
}
