package commands

import (
	"flag"
	"fmt"
	"io"

	"github.com/oresat/oresat-configs/pkg/gen"
	"github.com/oresat/oresat-configs/pkg/mission"
	"github.com/oresat/oresat-configs/pkg/odcache"
)

// RunCache manages the on-disk OD cache: info, clear and export.
func RunCache(args []string, stdout, stderr io.Writer) int {
	s := loadSettings()
	fs := flag.NewFlagSet("cache", flag.ContinueOnError)
	fs.SetOutput(stderr)
	s.bindCommonFlags(fs)
	cacheDir := fs.String("cache-dir", s.CacheDir, "Cache directory (default is the user cache dir)")
	if err := fs.Parse(args); err != nil {
		return exitCommandError
	}

	m, err := mission.FromString(s.Mission)
	if err != nil {
		return commandError(stderr, err)
	}

	dir := *cacheDir
	if dir == "" {
		dir = mission.CacheDir()
	}
	store := odcache.NewStore(dir)

	sub := "info"
	if fs.NArg() > 0 {
		sub = fs.Arg(0)
	}

	switch sub {
	case "info":
		return runCacheInfo(store, m, dir, stdout, stderr)
	case "clear":
		if err := store.Clear(m.Filename()); err != nil {
			return commandError(stderr, err)
		}
		fmt.Fprintf(stdout, "Cleared cache for mission %s\n", m)
		return exitSuccess
	case "export":
		s.CacheDir = dir
		cfg, err := s.loadMission()
		if err != nil {
			return commandError(stderr, err)
		}
		result := &gen.Result{
			ODs:        cfg.ODs,
			BeaconDefs: cfg.BeaconDefs,
			FramDefs:   cfg.FramDefs,
		}
		if err := store.ExportJSON(m.Filename(), result); err != nil {
			return commandError(stderr, err)
		}
		fmt.Fprintf(stdout, "Exported %d card ODs as JSON to %s\n", len(result.ODs), dir)
		return exitSuccess
	}
	return commandError(stderr, fmt.Errorf("unknown cache subcommand %q (want info, clear or export)", sub))
}

func runCacheInfo(store *odcache.Store, m mission.Mission, dir string, stdout, stderr io.Writer) int {
	manifest, err := store.Manifest(m.Filename())
	if err != nil {
		return commandError(stderr, err)
	}
	if manifest == nil {
		fmt.Fprintf(stdout, "Mission %s is not cached under %s\n", m, dir)
		return exitSuccess
	}
	fmt.Fprintf(stdout, "Mission:          %s\n", m)
	fmt.Fprintf(stdout, "Cache directory:  %s\n", dir)
	fmt.Fprintf(stdout, "Layout version:   %d\n", manifest.Version)
	fmt.Fprintf(stdout, "Configs version:  %s\n", manifest.ConfigsVersion)
	fmt.Fprintf(stdout, "Saved at:         %s\n", manifest.SavedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(stdout, "Cards:            %d\n", len(manifest.Cards))
	for _, name := range manifest.Cards {
		fmt.Fprintf(stdout, "  %s\n", name)
	}
	fmt.Fprintf(stdout, "Beacon fields:    %d\n", len(manifest.Beacon))
	fmt.Fprintf(stdout, "FRAM fields:      %d\n", len(manifest.Fram))
	return exitSuccess
}
