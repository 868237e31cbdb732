// Command resistance plays batches of The Resistance between strategy
// implementations, or evolves Bayesian agent genetics, and reports the
// results as a table and optional CSV files.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/hupe1980/resistance"
	"github.com/hupe1980/resistance/config"
	"github.com/hupe1980/resistance/evolution"
	"github.com/hupe1980/resistance/runner"
)

func main() {
	var (
		configPath = flag.String("config", "", "experiment YAML file (defaults built in)")
		mode       = flag.String("mode", "", "batch or evolve (overrides config)")
		games      = flag.Int("games", 0, "games per matchup and player count (overrides config)")
		players    = flag.String("players", "", "comma separated player counts, e.g. 5,7,10")
		seed       = flag.Uint64("seed", 0, "random seed (overrides config)")
		workers    = flag.Int("workers", 0, "concurrent games (overrides config)")
		csvPath    = flag.String("csv", "", "write per-matchup stats CSV to this path")
		gamesCSV   = flag.String("games-csv", "", "write per-game CSV to this path")
		logLevel   = flag.String("log-level", "", "debug, info, warn or error")
		logFormat  = flag.String("log-format", "", "text or json")
		dump       = flag.Bool("dump-config", false, "print the effective config and exit")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("load config: %v", err)
		}
	}

	if *mode != "" {
		cfg.Mode = config.Mode(*mode)
	}
	if *games > 0 {
		cfg.Games = *games
		cfg.Evolution.Games = *games
	}
	if *players != "" {
		counts, err := parseCounts(*players)
		if err != nil {
			log.Fatalf("players: %v", err)
		}
		cfg.Players = counts
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if *csvPath != "" {
		cfg.CSV = *csvPath
	}
	if *gamesCSV != "" {
		cfg.GamesCSV = *gamesCSV
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}

	if *dump {
		raw, err := cfg.Marshal()
		if err != nil {
			log.Fatalf("marshal config: %v", err)
		}
		_, _ = os.Stdout.Write(raw)
		return
	}

	logger := resistance.NewLogger(cfg.Log, os.Stderr).WithComponent("resistance")
	sim, err := resistance.New(cfg, func(o *resistance.Options) {
		o.Logger = logger
	})
	if err != nil {
		log.Fatalf("setup: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cfg.Mode {
	case config.ModeEvolve:
		gens, err := sim.Evolve()
		if err != nil {
			log.Fatalf("evolve: %v", err)
		}
		printGenerations(os.Stdout, gens)
	default:
		rep, err := sim.Batch(ctx)
		if err != nil {
			log.Fatalf("batch: %v", err)
		}
		printReport(os.Stdout, rep)
		if err := writeFile(cfg.CSV, rep.WriteCSV); err != nil {
			log.Fatalf("write csv: %v", err)
		}
		if err := writeFile(cfg.GamesCSV, rep.WriteGamesCSV); err != nil {
			log.Fatalf("write games csv: %v", err)
		}
	}
}

func parseCounts(s string) ([]int, error) {
	var out []int
	for _, f := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	if path == "" {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func printReport(w io.Writer, rep *runner.Report) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MATCHUP\tPLAYERS\tGAMES\tRESISTANCE WIN %\tAVG FAILED\tAVG PROPOSALS\tERRORS")
	for _, s := range rep.Stats {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.1f\t%.2f\t%.2f\t%d\n",
			s.Matchup, s.Players, s.Games, 100*s.ResistanceWinRate(), s.AvgMissionsFailed(), s.AvgProposals(), s.Errors)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "\nrun %s: %d games in %s\n", rep.RunID, len(rep.Games), rep.Duration)
}

func printGenerations(w io.Writer, gens []evolution.Generation) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "GENERATION\tCHAMPION\tWINS\tWIN %\tGENETICS")
	for _, g := range gens {
		c := g.Champion()
		fmt.Fprintf(tw, "%d\t%s\t%d/%d\t%.1f\t%s\n",
			g.Index, c.Specimen.ID, c.Wins(), c.Games(), 100*c.WinRate(), c.Specimen.Genetics)
	}
	_ = tw.Flush()
}
