// Package commands implements the oresat-configs subcommands.
package commands

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/oresat/oresat-configs/pkg/mission"
)

const (
	exitSuccess      = 0
	exitCommandError = 1
)

// settings are the tool-level options every subcommand shares. Flags win
// over environment variables (ORESAT_ prefix), which win over the optional
// config file, which wins over defaults.
type settings struct {
	Mission  string
	CacheDir string
	NoCache  bool
	Verbose  bool
}

func loadSettings() *settings {
	v := viper.New()
	v.SetConfigName("oresat-configs")
	v.SetConfigType("yaml")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "oresat-configs"))
	}
	v.SetEnvPrefix("ORESAT")
	v.AutomaticEnv()

	v.SetDefault("mission", mission.Default().Arg())
	v.SetDefault("cache_dir", "")
	v.SetDefault("no_cache", false)
	v.SetDefault("verbose", false)

	// The config file is optional.
	_ = v.ReadInConfig()

	return &settings{
		Mission:  v.GetString("mission"),
		CacheDir: v.GetString("cache_dir"),
		NoCache:  v.GetBool("no_cache"),
		Verbose:  v.GetBool("verbose"),
	}
}

// bindCommonFlags registers the shared flags on a subcommand's flag set,
// defaulted from the tool settings.
func (s *settings) bindCommonFlags(fs *flag.FlagSet) {
	fs.StringVar(&s.Mission, "mission", s.Mission, "Mission (0, 0.5, oresat0, ...)")
	fs.BoolVar(&s.NoCache, "no-cache", s.NoCache, "Regenerate instead of using the OD cache")
	fs.BoolVar(&s.Verbose, "verbose", s.Verbose, "Verbose generation logging")
}

func (s *settings) logger() *zap.Logger {
	if !s.Verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// loadMission resolves the configured mission and loads its full config set.
func (s *settings) loadMission() (*mission.Config, error) {
	m, err := mission.FromString(s.Mission)
	if err != nil {
		return nil, err
	}
	return mission.Load(m, &mission.Options{
		UseCache: !s.NoCache,
		CacheDir: s.CacheDir,
		Logger:   s.logger(),
	})
}

func commandError(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return exitCommandError
}
