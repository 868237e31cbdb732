package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/hupe1980/resistance/core"
	"github.com/hupe1980/resistance/logging"
	"github.com/hupe1980/resistance/model"
	"github.com/hupe1980/resistance/rules"
)

// ErrInvalidDecision is returned internally when a model reply does not
// match the decision schema. The agent falls back instead of surfacing it.
var ErrInvalidDecision = errors.New("invalid model decision")

// ModelAgentOptions configures a ModelAgent instance.
//
// Use functional options with NewModelAgent to override defaults.
type ModelAgentOptions struct {
	// Instruction is the system prompt. Defaults to a rules summary that
	// adapts to the player's role.
	Instruction Instruction

	// EnableStreaming requests streamed completions from the model.
	EnableStreaming bool

	// CallTimeout bounds a single model call. Defaults to 30s.
	CallTimeout time.Duration

	// MaxCallsPerGame caps model calls per game; 0 means unlimited. Once
	// exhausted every decision is made by the fallback.
	MaxCallsPerGame int

	// MaxHistoryLines limits how much of the public transcript is sent with
	// every decision; 0 sends everything.
	MaxHistoryLines int

	// Fallback decides whenever the model cannot. It receives every
	// callback so its own state stays current. Defaults to a BayesianAgent.
	Fallback core.Player

	Logger logging.Logger
}

// ModelAgent is a strategy that asks a language model for every decision.
//
// Each decision sends the public game transcript plus a question and expects
// a JSON object back. Replies are validated against a JSON schema; anything
// that fails validation, times out or exceeds the call budget is decided by
// the fallback strategy instead, so the engine never sees an invalid move.
type ModelAgent struct {
	BaseAgent

	model    model.Model
	opts     ModelAgentOptions
	limiter  *core.CallLimiter
	fallback core.Player

	mu         sync.Mutex
	transcript []string
	calls      int
	fallbacks  int
	usage      model.TokenUsage
	schemas    map[string]*jsonschema.Schema
}

// NewModelAgent creates a ModelAgent backed by llm.
func NewModelAgent(name string, llm model.Model, optFns ...func(o *ModelAgentOptions)) *ModelAgent {
	opts := ModelAgentOptions{
		Instruction: NewInstructionFromFunc(DefaultInstruction),
		CallTimeout: 30 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Fallback == nil {
		opts.Fallback = NewBayesianAgent(name, WithLogger(opts.Logger))
	}

	return &ModelAgent{
		BaseAgent: NewBaseAgent(name, resolveOptions([]func(o *Options){WithLogger(opts.Logger)})),
		model:     llm,
		opts:      opts,
		limiter:   core.NewCallLimiter(opts.MaxCallsPerGame),
		fallback:  opts.Fallback,
		schemas:   make(map[string]*jsonschema.Schema),
	}
}

// Model returns the underlying model.
func (a *ModelAgent) Model() model.Model { return a.model }

// ModelCalls returns the number of model calls made in the current game.
func (a *ModelAgent) ModelCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// Fallbacks returns how many decisions in the current game were delegated.
func (a *ModelAgent) Fallbacks() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fallbacks
}

// Usage returns the token usage accumulated across all games.
func (a *ModelAgent) Usage() model.TokenUsage {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.usage
}

// Transcript returns the public history recorded in the current game.
func (a *ModelAgent) Transcript() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.transcript)
}

// View returns what the agent currently shows its model.
func (a *ModelAgent) View() View {
	lines := a.Transcript()
	if n := a.opts.MaxHistoryLines; n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return View{
		Name:           a.Name(),
		Players:        a.Players(),
		Self:           a.Self(),
		Spies:          a.Spies(),
		Round:          a.Round(),
		Attempt:        a.Attempt(),
		MissionsFailed: a.MissionsFailed(),
		Transcript:     lines,
	}
}

// NewGame resets per-game state and the call budget.
func (a *ModelAgent) NewGame(players int, self core.PlayerID, spies []core.PlayerID) {
	a.BaseAgent.NewGame(players, self, spies)
	a.fallback.NewGame(players, self, spies)
	a.limiter.Reset()

	a.mu.Lock()
	a.transcript = nil
	a.calls = 0
	a.fallbacks = 0
	a.mu.Unlock()
}

type teamDecision struct {
	Team []int `json:"team"`
}

type voteDecision struct {
	Approve bool `json:"approve"`
}

type betrayDecision struct {
	Betray bool `json:"betray"`
}

// ProposeMission asks the model for a team.
func (a *ModelAgent) ProposeMission(teamSize, betrayalsRequired int) core.Team {
	question := fmt.Sprintf(
		"You are the proposer for round %d, attempt %d. Propose a team of exactly %d distinct players (seats 0 to %d). "+
			"%d betrayal(s) fail this mission. Reply with JSON only: {\"team\": [seat, ...]}.",
		a.Round()+1, a.Attempt()+1, teamSize, a.Players()-1, betrayalsRequired)

	var out teamDecision
	if err := a.ask("propose", question, a.teamSchema(teamSize), &out); err != nil {
		a.delegated("propose", err)
		return a.fallback.ProposeMission(teamSize, betrayalsRequired)
	}

	team := make(core.Team, len(out.Team))
	for i, p := range out.Team {
		team[i] = core.PlayerID(p)
	}
	return team
}

// Vote asks the model whether to approve team.
func (a *ModelAgent) Vote(team core.Team, proposer core.PlayerID) bool {
	question := fmt.Sprintf(
		"Player %d proposed team %s for round %d (attempt %d of %d). Do you approve? Reply with JSON only: {\"approve\": true|false}.",
		proposer, team, a.Round()+1, a.Attempt()+1, rules.MaxProposals)

	var out voteDecision
	if err := a.ask("vote", question, a.schema("vote", voteSchema), &out); err != nil {
		a.delegated("vote", err)
		return a.fallback.Vote(team, proposer)
	}
	return out.Approve
}

// VoteOutcome records the public vote.
func (a *ModelAgent) VoteOutcome(team core.Team, proposer core.PlayerID, votes core.Votes) {
	approved := votes.Approvals()*2 > a.Players()
	a.record(fmt.Sprintf("Round %d attempt %d: player %d proposed %s; approved by %s, rejected by %s -> %s",
		a.Round()+1, a.Attempt()+1, proposer, team, voters(votes, true), voters(votes, false), verdict(approved, "approved", "rejected")))

	a.BaseAgent.VoteOutcome(team, proposer, votes)
	a.fallback.VoteOutcome(team, proposer, votes)
}

// Betray asks the model whether to sabotage. Resistance never betrays and
// never spends a model call on it.
func (a *ModelAgent) Betray(team core.Team, proposer core.PlayerID) bool {
	if !a.betrayCheck() {
		return false
	}

	question := fmt.Sprintf(
		"You are on mission team %s proposed by player %d. %d betrayal(s) fail it; spies on the team: %s. "+
			"Do you betray? Reply with JSON only: {\"betray\": true|false}.",
		team, proposer, a.BetrayalsRequired(), core.Team(a.SpiesOn(team)))

	var out betrayDecision
	if err := a.ask("betray", question, a.schema("betray", betraySchema), &out); err != nil {
		a.delegated("betray", err)
		return a.fallback.Betray(team, proposer)
	}
	return out.Betray
}

// MissionOutcome records the mission result.
func (a *ModelAgent) MissionOutcome(team core.Team, proposer core.PlayerID, betrayals int, succeeded bool) {
	a.record(fmt.Sprintf("Round %d mission %s (proposed by %d): %d betrayal(s) -> %s",
		a.Round()+1, team, proposer, betrayals, verdict(succeeded, "succeeded", "failed")))
	a.fallback.MissionOutcome(team, proposer, betrayals, succeeded)
}

// RoundOutcome records progress.
func (a *ModelAgent) RoundOutcome(roundsCompleted, missionsFailed int) {
	a.BaseAgent.RoundOutcome(roundsCompleted, missionsFailed)
	a.fallback.RoundOutcome(roundsCompleted, missionsFailed)
}

// GameOutcome forwards the result to the fallback.
func (a *ModelAgent) GameOutcome(spiesWin bool, spies []core.PlayerID) {
	a.Logger().Debug("game finished",
		"agent", a.Name(),
		"model", a.model.Info().Name,
		"calls", a.ModelCalls(),
		"fallbacks", a.Fallbacks(),
		"spies_win", spiesWin)
	a.fallback.GameOutcome(spiesWin, spies)
}

// ask runs one model call and decodes a schema-valid reply into out.
func (a *ModelAgent) ask(kind, question string, schema *jsonschema.Schema, out any) error {
	if err := a.limiter.Increment(); err != nil {
		return err
	}

	view := a.View()
	instructions, err := a.opts.Instruction.Resolve(view)
	if err != nil {
		return fmt.Errorf("failed to resolve instruction: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.opts.CallTimeout)
	defer cancel()

	req := model.Request{
		Instructions: instructions,
		Messages:     []model.Message{{Role: model.RoleUser, Text: renderPrompt(view, question)}},
		Stream:       a.opts.EnableStreaming,
	}

	text, usage, err := model.Complete(ctx, a.model, req)
	a.mu.Lock()
	a.calls++
	if usage != nil {
		a.usage.PromptTokens += usage.PromptTokens
		a.usage.CompletionTokens += usage.CompletionTokens
		a.usage.TotalTokens += usage.TotalTokens
	}
	a.mu.Unlock()
	if err != nil {
		return fmt.Errorf("model call failed: %w", err)
	}

	a.Logger().Debug("model decision", "agent", a.Name(), "kind", kind, "reply", text)
	return decodeDecision(text, schema, out)
}

func (a *ModelAgent) delegated(kind string, err error) {
	a.mu.Lock()
	a.fallbacks++
	a.mu.Unlock()
	if errors.Is(err, core.ErrCallBudgetExhausted) {
		a.Logger().Debug("call budget spent, using fallback", "agent", a.Name(), "kind", kind)
		return
	}
	a.Logger().Warn("model decision unavailable, using fallback",
		"agent", a.Name(), "kind", kind, "fallback", a.fallback.Name(), "error", err)
}

func (a *ModelAgent) record(line string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.transcript = append(a.transcript, line)
}

const (
	voteSchema   = `{"type":"object","required":["approve"],"properties":{"approve":{"type":"boolean"}}}`
	betraySchema = `{"type":"object","required":["betray"],"properties":{"betray":{"type":"boolean"}}}`
)

func (a *ModelAgent) teamSchema(teamSize int) *jsonschema.Schema {
	src := fmt.Sprintf(`{"type":"object","required":["team"],"properties":{"team":{"type":"array",`+
		`"items":{"type":"integer","minimum":0,"maximum":%d},"minItems":%d,"maxItems":%d,"uniqueItems":true}}}`,
		a.Players()-1, teamSize, teamSize)
	return a.schema(fmt.Sprintf("team-%d-%d", a.Players(), teamSize), src)
}

func (a *ModelAgent) schema(key, src string) *jsonschema.Schema {
	a.mu.Lock()
	defer a.mu.Unlock()
	if s, ok := a.schemas[key]; ok {
		return s
	}
	s := jsonschema.MustCompileString(key+".json", src)
	a.schemas[key] = s
	return s
}

// decodeDecision extracts the JSON object from a reply, validates it and
// decodes it into out.
func decodeDecision(text string, schema *jsonschema.Schema, out any) error {
	raw, err := extractJSON(text)
	if err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDecision, err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDecision, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDecision, err)
	}
	return nil
}

// extractJSON returns the outermost {...} span of text; models tend to wrap
// replies in prose or code fences.
func extractJSON(text string) ([]byte, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: no JSON object in reply", ErrInvalidDecision)
	}
	return []byte(text[start : end+1]), nil
}

func renderPrompt(v View, question string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are player %d of %d.", v.Self, v.Players)
	if v.IsSpy() {
		fmt.Fprintf(&sb, " You are a SPY. The spies are %s.", core.Team(v.Spies))
	} else {
		sb.WriteString(" You are a member of the RESISTANCE.")
	}
	fmt.Fprintf(&sb, "\nRounds completed: %d. Missions failed: %d of %d needed by the spies.\n",
		v.Round, v.MissionsFailed, rules.FailsToLose)

	if len(v.Transcript) > 0 {
		sb.WriteString("\nHistory:\n")
		for _, line := range v.Transcript {
			sb.WriteString("- ")
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}

	sb.WriteByte('\n')
	sb.WriteString(question)
	return sb.String()
}

// DefaultInstruction is the system prompt used unless overridden.
func DefaultInstruction(v View) (string, error) {
	goal := "You are in the resistance. Get three missions to succeed by keeping spies off mission teams."
	if v.IsSpy() {
		goal = "You are a spy. Get three missions to fail without revealing yourself or your fellow spies."
	}
	return fmt.Sprintf(`You are %s, playing The Resistance with %d players.
Each round a leader proposes a mission team and everyone votes; a strict majority approves.
Five rejected proposals in a row lose the round without a mission.
On an approved mission, spies may secretly betray; enough betrayals fail the mission.
%s
Always answer with a single JSON object and nothing else.`, v.Name, v.Players, goal), nil
}

func voters(votes core.Votes, approve bool) string {
	var ids core.Team
	for p, yes := range votes {
		if yes == approve {
			ids = append(ids, p)
		}
	}
	slices.Sort(ids)
	return ids.String()
}

func verdict(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}
