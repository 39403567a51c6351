package odcache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/oresat/oresat-configs/pkg/gen"
	"github.com/oresat/oresat-configs/pkg/od"
)

// CacheVersion is the current version of the cache layout. A version bump
// invalidates every cached mission.
const CacheVersion = 1

// Manifest describes one cached mission: which cards were generated and
// where the beacon and FRAM fields live in the core card's OD.
type Manifest struct {
	// Version is the cache layout version.
	Version int `json:"version"`

	// SavedAt is when the mission was cached.
	SavedAt time.Time `json:"saved_at"`

	// ConfigsVersion is the config tree version the ODs were generated from.
	ConfigsVersion string `json:"configs_version,omitempty"`

	// Cards lists the cached card names; each has a <name>.cbor document.
	Cards []string `json:"cards"`

	// Beacon and Fram record the resolved field layouts as OD addresses in
	// the core card's dictionary.
	Beacon []Address `json:"beacon,omitempty"`
	Fram   []Address `json:"fram,omitempty"`
}

// Address locates a variable in an Object Dictionary.
type Address struct {
	Index    uint16 `json:"index"`
	Subindex uint8  `json:"subindex"`
}

// Store persists generated mission artifacts under a cache directory, one
// subdirectory per mission.
type Store struct {
	mu  sync.Mutex
	dir string
}

// NewStore creates a store rooted at dir. The directory is created on first
// save.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) missionDir(mission string) string {
	return filepath.Join(s.dir, mission)
}

// Save caches one mission's generation result: a CBOR snapshot per card and
// a JSON manifest.
func (s *Store) Save(mission, configsVersion string, result *gen.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.missionDir(mission)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	manifest := &Manifest{
		Version:        CacheVersion,
		SavedAt:        time.Now(),
		ConfigsVersion: configsVersion,
		Beacon:         addresses(result.BeaconDefs),
		Fram:           addresses(result.FramDefs),
	}

	for name, dict := range result.ODs {
		data, err := MarshalCBOR(FromOD(dict))
		if err != nil {
			return fmt.Errorf("cache %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name+".cbor"), data, 0644); err != nil {
			return err
		}
		manifest.Cards = append(manifest.Cards, name)
	}
	sort.Strings(manifest.Cards)

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "manifest.json"), data, 0644)
}

// Load restores a cached mission. Returns nil, nil when the mission has not
// been cached or was cached by an incompatible layout version.
func (s *Store) Load(mission string) (*gen.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.missionDir(mission)
	data, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	manifest, err := unmarshalManifest(data)
	if err != nil {
		return nil, err
	}
	if manifest.Version != CacheVersion {
		return nil, nil
	}

	result := &gen.Result{ODs: make(map[string]*od.ObjectDictionary, len(manifest.Cards))}
	for _, name := range manifest.Cards {
		raw, err := os.ReadFile(filepath.Join(dir, name+".cbor"))
		if err != nil {
			return nil, fmt.Errorf("cached card %s: %w", name, err)
		}
		snap, err := UnmarshalCBOR(raw)
		if err != nil {
			return nil, fmt.Errorf("cached card %s: %w", name, err)
		}
		dict, err := ToOD(snap)
		if err != nil {
			return nil, fmt.Errorf("cached card %s: %w", name, err)
		}
		result.ODs[name] = dict
	}

	core, ok := result.ODs[gen.CoreCard]
	if ok {
		if result.BeaconDefs, err = resolveAddresses(core, "beacon", manifest.Beacon); err != nil {
			return nil, err
		}
		if result.FramDefs, err = resolveAddresses(core, "fram", manifest.Fram); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Manifest reads a cached mission's manifest without loading the ODs.
// Returns nil, nil when the mission has not been cached.
func (s *Store) Manifest(mission string) (*Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(s.missionDir(mission), "manifest.json"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return unmarshalManifest(data)
}

// ExportJSON writes every cached card of a mission as indented JSON next to
// its CBOR document, for inspection and external tooling.
func (s *Store) ExportJSON(mission string, result *gen.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.missionDir(mission)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for name, dict := range result.ODs {
		data, err := MarshalJSON(FromOD(dict))
		if err != nil {
			return fmt.Errorf("export %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name+".json"), data, 0644); err != nil {
			return err
		}
	}
	return nil
}

// Clear removes one mission's cache directory. Missing directories are not
// an error.
func (s *Store) Clear(mission string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.RemoveAll(s.missionDir(mission))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func unmarshalManifest(data []byte) (*Manifest, error) {
	manifest := &Manifest{}
	if err := json.Unmarshal(data, manifest); err != nil {
		return nil, fmt.Errorf("decode cache manifest: %w", err)
	}
	return manifest, nil
}

func addresses(vars []*od.Variable) []Address {
	if len(vars) == 0 {
		return nil
	}
	addrs := make([]Address, 0, len(vars))
	for _, v := range vars {
		addrs = append(addrs, Address{Index: v.Index, Subindex: v.Subindex})
	}
	return addrs
}

func resolveAddresses(dict *od.ObjectDictionary, what string, addrs []Address) ([]*od.Variable, error) {
	if len(addrs) == 0 {
		return nil, nil
	}
	vars := make([]*od.Variable, 0, len(addrs))
	for _, a := range addrs {
		v, ok := dict.Variable(a.Index, a.Subindex)
		if !ok {
			return nil, fmt.Errorf("cached %s layout: no variable at 0x%04X.%d", what, a.Index, a.Subindex)
		}
		vars = append(vars, v)
	}
	return vars, nil
}
