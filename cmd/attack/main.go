package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"halfloop24-keyrecovery/internal/config"
	"halfloop24-keyrecovery/internal/driver"
	"halfloop24-keyrecovery/pkg/obslog"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

const banner = `halfloop24-keyrecovery %s (built %s)
differential key-recovery attack against HALFLOOP-24
`

var runCommand = &cli.Command{
	Name:        "run",
	Usage:       "runs the HALFLOOP-24 differential key-recovery attack",
	UsageText:   "attack run [options]",
	Description: "loads configuration, then runs the configured number of end-to-end attack repetitions, printing a Report per run.",
	Action:      runCmd,
}

func runCmd(c *cli.Context) error {
	fmt.Printf(banner, Version, BuildTime)
	obslog.SetStd()

	cfg, err := config.LoadConfig()
	if err != nil {
		obslog.Fatal().Err(err).Msg("failed to load configuration")
	}
	obslog.Info().
		Uint32("max_rk10", cfg.MaxRK10).
		Uint32("max_rk9", cfg.MaxRK9).
		Int("n_pairs", cfg.NPairs).
		Int("reps", cfg.Reps).
		Bool("parallel", cfg.Parallel).
		Msg("starting attack")

	reports, err := driver.RunRepeated(cfg.ToDriverConfig(), cfg.Reps)
	for _, r := range reports {
		r.Print(os.Stdout)
	}
	if err != nil {
		obslog.Fatal().Err(err).Msg("attack run failed")
	}

	obslog.Info().Int("reports", len(reports)).Msg("attack finished")
	return nil
}

func main() {
	app := &cli.App{
		Name:     "attack",
		Usage:    "HALFLOOP-24 differential key-recovery attack",
		Commands: []*cli.Command{runCommand},
		Action:   runCmd,
	}
	if err := app.Run(os.Args); err != nil {
		obslog.Fatal().Err(err).Msg("fatal error")
	}
}
