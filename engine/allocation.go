package engine

import (
	"fmt"
	"slices"

	"github.com/hupe1980/resistance/core"
	"github.com/hupe1980/resistance/rules"
)

// AllocateSpiesRandomly picks rules.SpyCount(n) spies uniformly at random
// using the game's random source.
func (g *Game) AllocateSpiesRandomly() error {
	return g.allocate("AllocateSpiesRandomly", func() ([]core.PlayerID, error) {
		k := rules.MustSpyCount(len(g.players))
		return g.sample(k, nil), nil
	})
}

// AllocateSpiesByType makes every player satisfying pred a spy. The number
// of matching players must equal the spy count for the roster size.
func (g *Game) AllocateSpiesByType(pred func(core.Player) bool) error {
	return g.allocate("AllocateSpiesByType", func() ([]core.PlayerID, error) {
		var ids []core.PlayerID
		for i, p := range g.players {
			if pred(p) {
				ids = append(ids, core.PlayerID(i))
			}
		}
		return ids, nil
	})
}

// AllocateSpies makes exactly the given seats spies.
func (g *Game) AllocateSpies(ids ...core.PlayerID) error {
	return g.allocate("AllocateSpies", func() ([]core.PlayerID, error) {
		for _, id := range ids {
			if id < 0 || int(id) >= len(g.players) {
				return nil, fmt.Errorf("%w: seat %d", ErrUnknownPlayer, id)
			}
		}
		return slices.Clone(ids), nil
	})
}

// AllocateSingleSpy makes the uniquely named player a spy and fills the
// remaining spy seats at random.
func (g *Game) AllocateSingleSpy(name string) error {
	return g.allocate("AllocateSingleSpy", func() ([]core.PlayerID, error) {
		id, err := g.lookup(name)
		if err != nil {
			return nil, err
		}
		k := rules.MustSpyCount(len(g.players))
		rest := g.sample(k-1, func(p core.PlayerID) bool { return p == id })
		return append([]core.PlayerID{id}, rest...), nil
	})
}

// AllocateSingleResistance keeps the uniquely named player in the
// resistance and picks every spy at random from the others.
func (g *Game) AllocateSingleResistance(name string) error {
	return g.allocate("AllocateSingleResistance", func() ([]core.PlayerID, error) {
		id, err := g.lookup(name)
		if err != nil {
			return nil, err
		}
		k := rules.MustSpyCount(len(g.players))
		return g.sample(k, func(p core.PlayerID) bool { return p == id }), nil
	})
}

func (g *Game) allocate(op string, pick func() ([]core.PlayerID, error)) error {
	if g.allocated {
		return core.NewConfigError(op, ErrSpiesAlreadyAllocated)
	}

	ids, err := pick()
	if err != nil {
		return core.NewConfigError(op, err)
	}

	want := rules.MustSpyCount(len(g.players))
	set := core.NewSpySet(ids)
	if len(set) != want || len(ids) != want {
		return core.NewConfigError(op, fmt.Errorf("%w: got %d, want %d", ErrSpyCountMismatch, len(ids), want))
	}

	g.spies = set
	g.spyList = set.Sorted()
	g.allocated = true
	return nil
}

// sample draws k distinct seats, skipping those for which exclude is true.
func (g *Game) sample(k int, exclude func(core.PlayerID) bool) []core.PlayerID {
	out := make([]core.PlayerID, 0, k)
	for _, i := range g.opts.Rand.Perm(len(g.players)) {
		if len(out) == k {
			break
		}
		id := core.PlayerID(i)
		if exclude != nil && exclude(id) {
			continue
		}
		out = append(out, id)
	}
	return out
}

func (g *Game) lookup(name string) (core.PlayerID, error) {
	found := core.PlayerID(-1)
	for i, p := range g.players {
		if p.Name() != name {
			continue
		}
		if found >= 0 {
			return -1, fmt.Errorf("player name %q is not unique", name)
		}
		found = core.PlayerID(i)
	}
	if found < 0 {
		return -1, fmt.Errorf("%w: %q", ErrUnknownPlayer, name)
	}
	return found, nil
}
