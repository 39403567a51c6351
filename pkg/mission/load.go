package mission

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/oresat/oresat-configs/pkg/card"
	"github.com/oresat/oresat-configs/pkg/gen"
	"github.com/oresat/oresat-configs/pkg/od"
	"github.com/oresat/oresat-configs/pkg/odcache"
)

// Options controls the load facade.
type Options struct {
	// UseCache loads a previously generated OD set from disk when present
	// and caches fresh generations. Cache failures are never fatal; the set
	// is regenerated from the embedded configs instead.
	UseCache bool

	// CacheDir overrides the cache location. Default is
	// <user cache dir>/oresat-configs/<ConfigsVersion>.
	CacheDir string

	Logger *zap.Logger
}

// Config is everything loaded and generated for one mission.
type Config struct {
	Mission Mission
	Cards   *card.Cards

	// Configs holds the merged per-card configurations the ODs were (or
	// would be) generated from.
	Configs map[string]*card.Config

	Beacon *card.BeaconConfig

	// ODs is the generated Object Dictionary per card name.
	ODs map[string]*od.ObjectDictionary

	// BeaconDefs and FramDefs are the beacon payload and C3 FRAM layouts
	// resolved against the C3 OD, in definition order.
	BeaconDefs []*od.Variable
	FramDefs   []*od.Variable

	// FwBase is the generic OD that card firmware builds against.
	FwBase *od.ObjectDictionary
}

// CacheDir returns the default on-disk cache location for the current
// config tree version.
func CacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "oresat-configs", ConfigsVersion)
}

// Load assembles one mission's full configuration: embedded documents are
// parsed and merged, then the OD set is either loaded from the cache or
// generated and cached. A nil opts means cache enabled with defaults.
func Load(m Mission, opts *Options) (*Config, error) {
	if opts == nil {
		opts = &Options{UseCache: true}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Sugar()

	cards, err := m.Cards()
	if err != nil {
		return nil, err
	}
	beacon, err := m.Beacon()
	if err != nil {
		return nil, err
	}
	stdObjects, err := StdObjects()
	if err != nil {
		return nil, err
	}
	configs, err := m.Configs(cards)
	if err != nil {
		return nil, err
	}
	fwCommon, err := FwCommon()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Mission: m,
		Cards:   cards,
		Configs: configs,
		Beacon:  beacon,
	}
	cfg.FwBase, err = gen.BuildFwBase(fwCommon, stdObjects, ConfigsVersion, m.ID())
	if err != nil {
		return nil, err
	}

	cacheDir := opts.CacheDir
	if cacheDir == "" {
		cacheDir = CacheDir()
	}
	store := odcache.NewStore(cacheDir)

	if opts.UseCache {
		cached, err := store.Load(m.Filename())
		if err != nil {
			log.Warnw("od cache unreadable, regenerating", "mission", m.Filename(), "error", err)
		} else if cached != nil {
			cfg.ODs = cached.ODs
			cfg.BeaconDefs = cached.BeaconDefs
			cfg.FramDefs = cached.FramDefs
			log.Debugw("loaded od set from cache", "mission", m.Filename(), "cards", len(cfg.ODs))
			return cfg, nil
		}
	}

	result, err := gen.Build(&gen.Request{
		Cards:          cards,
		Configs:        configs,
		StdObjects:     stdObjects,
		Beacon:         beacon,
		SatelliteID:    m.ID(),
		SatelliteIDs:   SatelliteIDs(),
		ConfigsVersion: ConfigsVersion,
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}
	cfg.ODs = result.ODs
	cfg.BeaconDefs = result.BeaconDefs
	cfg.FramDefs = result.FramDefs

	if opts.UseCache {
		if err := store.Save(m.Filename(), ConfigsVersion, result); err != nil {
			log.Warnw("od cache write failed", "mission", m.Filename(), "error", err)
		}
	}
	return cfg, nil
}
