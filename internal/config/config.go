// Package config loads internal/driver's attack parameters the way the
// teacher's pkg/supernode loads its daemon configuration: defaults,
// layered with an optional YAML file and HALFLOOP_-prefixed environment
// variables via viper, then command-line flags, which win last.
package config

import (
	"flag"

	"github.com/spf13/viper"

	"halfloop24-keyrecovery/internal/driver"
	"halfloop24-keyrecovery/pkg/appdir"
)

// Config is the full set of knobs cmd/attack exposes. ToDriverConfig
// strips it down to what a single Attack call needs.
type Config struct {
	MaxRK10           uint32 `mapstructure:"max_rk10"`
	MaxRK9            uint32 `mapstructure:"max_rk9"`
	NPairs            int    `mapstructure:"n_pairs"`
	Reps              int    `mapstructure:"reps"`
	CheckCorrectFirst bool   `mapstructure:"check_correct_first"`
	Counters          bool   `mapstructure:"counters"`
	Parallel          bool   `mapstructure:"parallel"`
	Workers           int    `mapstructure:"workers"`
	ConfigFile        string `mapstructure:"config_file"`
}

// DefaultConfig mirrors the reference implementation's reduced-range test
// defaults (MAX_RK10 = MAX_RK9 = 0x010000, not the full 0x1000000 of a
// complete attack), so a first run finishes in seconds rather than days.
func DefaultConfig() *Config {
	return &Config{
		MaxRK10:           0x010000,
		MaxRK9:            0x010000,
		NPairs:            3,
		Reps:              5,
		CheckCorrectFirst: false,
		Counters:          true,
		Parallel:          true,
		Workers:           0,
		ConfigFile:        "halfloop.yaml",
	}
}

// LoadConfig loads configuration from file, environment, and flags, in
// that order of increasing priority.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName(cfg.ConfigFile)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/halfloop24/")
	viper.AddConfigPath(appdir.AppDir())
	viper.SetEnvPrefix("HALFLOOP")
	viper.AutomaticEnv()
	for _, key := range []string{"max_rk10", "max_rk9", "n_pairs", "reps", "check_correct_first", "counters", "parallel", "workers"} {
		_ = viper.BindEnv(key)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	maxRK10 := flag.Uint("max-rk10", uint(cfg.MaxRK10), "upper bound (exclusive) on the rk10_norm search axis")
	maxRK9 := flag.Uint("max-rk9", uint(cfg.MaxRK9), "upper bound (exclusive) on the L_inv_rk9_norm search axis")
	flag.IntVar(&cfg.NPairs, "npairs", cfg.NPairs, "number of chosen-plaintext/chosen-tweak pairs")
	flag.IntVar(&cfg.Reps, "reps", cfg.Reps, "number of independent end-to-end attack repetitions")
	flag.BoolVar(&cfg.CheckCorrectFirst, "check-correct-first", cfg.CheckCorrectFirst, "verify the engine recovers the true key before sweeping")
	flag.BoolVar(&cfg.Counters, "counters", cfg.Counters, "accumulate per-filter survival counters")
	flag.BoolVar(&cfg.Parallel, "parallel", cfg.Parallel, "shard the outer search loop across workers")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "worker count when -parallel is set (0 = GOMAXPROCS)")
	flag.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "path to the YAML configuration file")

	flag.Parse()

	cfg.MaxRK10 = uint32(*maxRK10)
	cfg.MaxRK9 = uint32(*maxRK9)

	return cfg, nil
}

// ToDriverConfig projects the run-level Config down to the fields a
// single driver.Attack call consumes.
func (c *Config) ToDriverConfig() driver.Config {
	return driver.Config{
		MaxRK10:           c.MaxRK10,
		MaxRK9:            c.MaxRK9,
		NPairs:            c.NPairs,
		CheckCorrectFirst: c.CheckCorrectFirst,
		Counters:          c.Counters,
		Parallel:          c.Parallel,
		Workers:           c.Workers,
	}
}
