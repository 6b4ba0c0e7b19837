// Command villagesim drives the tribal-village kernel from the terminal:
// random-policy rollouts for smoke testing, a throughput benchmark, and an
// ASCII map dump. Controller policies live outside this repo; the uniform
// random policy here is the neutral stand-in.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/tribal-village/internal/config"
	"github.com/talgya/tribal-village/internal/engine"
	"github.com/talgya/tribal-village/internal/entropy"
	"github.com/talgya/tribal-village/internal/persistence"
)

var (
	flagConfig string
	flagSeed   uint64
	flagSteps  int
	flagDB     string
)

func main() {
	root := &cobra.Command{
		Use:   "villagesim",
		Short: "Tribal-village simulation kernel driver",
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "TOML config file (defaults used when empty)")
	root.PersistentFlags().Uint64Var(&flagSeed, "seed", 42, "environment seed")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a random-policy rollout",
		RunE:  runRollout,
	}
	runCmd.Flags().IntVar(&flagSteps, "steps", 1000, "maximum steps to run")
	runCmd.Flags().StringVar(&flagDB, "db", "", "optional SQLite path to record the episode")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure kernel throughput",
		RunE:  runBench,
	}
	benchCmd.Flags().IntVar(&flagSteps, "steps", 2000, "steps to time")

	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "Print the generated map as ASCII",
		RunE:  runRender,
	}

	root.AddCommand(runCmd, benchCmd, renderCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup() (*engine.Env, error) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.MustLoadOrDefault(flagConfig)
	env, err := engine.NewEnvironment(cfg)
	if err != nil {
		return nil, fmt.Errorf("new environment: %w", err)
	}
	env.Reset(flagSeed)
	return env, nil
}

// randomActions fills the action buffer from a policy stream independent
// of the kernel's own randomness.
func randomActions(rng *entropy.Stream, buf []uint8) {
	for i := range buf {
		buf[i] = uint8(rng.Intn(engine.ARGC * int(engine.NumVerbs)))
	}
}

func runRollout(cmd *cobra.Command, args []string) error {
	env, err := setup()
	if err != nil {
		return err
	}
	cfg := env.Config()
	policy := entropy.NewStream(flagSeed ^ 0xdeadbeef)
	actions := make([]uint8, cfg.NumAgents())
	totals := make([]float32, cfg.NumAgents())

	start := time.Now()
	steps := 0
	for ; steps < flagSteps && !env.Done(); steps++ {
		randomActions(policy, actions)
		env.Step(actions)
		for i, r := range env.Rewards() {
			totals[i] += r
		}
		if steps%200 == 199 {
			slog.Info("rollout progress",
				"step", steps+1,
				"elapsed", time.Since(start).Round(time.Millisecond),
			)
		}
	}
	elapsed := time.Since(start)

	live := 0
	for _, t := range env.Terminated() {
		if t == 0 {
			live++
		}
	}
	slog.Info("rollout finished",
		"steps", steps,
		"live_agents", live,
		"elapsed", elapsed.Round(time.Millisecond),
		"ticks_per_sec", fmt.Sprintf("%.1f", float64(steps)/elapsed.Seconds()),
	)

	if flagDB != "" {
		db, err := persistence.Open(flagDB)
		if err != nil {
			return err
		}
		defer db.Close()
		id, err := db.RecordEpisode(env, flagSeed, totals)
		if err != nil {
			return fmt.Errorf("record episode: %w", err)
		}
		slog.Info("episode recorded", "id", id, "db", flagDB)
	}
	return nil
}

func runBench(cmd *cobra.Command, args []string) error {
	env, err := setup()
	if err != nil {
		return err
	}
	cfg := env.Config()
	policy := entropy.NewStream(flagSeed ^ 0xdeadbeef)
	actions := make([]uint8, cfg.NumAgents())

	start := time.Now()
	for i := 0; i < flagSteps && !env.Done(); i++ {
		randomActions(policy, actions)
		env.Step(actions)
	}
	elapsed := time.Since(start)

	agentSteps := uint64(flagSteps) * uint64(cfg.NumAgents())
	fmt.Printf("%s steps, %s agent-steps in %s (%.1f ticks/s)\n",
		humanize.Comma(int64(flagSteps)),
		humanize.Comma(int64(agentSteps)),
		elapsed.Round(time.Millisecond),
		float64(flagSteps)/elapsed.Seconds(),
	)
	return nil
}

func runRender(cmd *cobra.Command, args []string) error {
	env, err := setup()
	if err != nil {
		return err
	}
	fmt.Print(env.Render())
	return nil
}
