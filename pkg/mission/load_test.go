package mission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oresat/oresat-configs/pkg/gen"
	"github.com/oresat/oresat-configs/pkg/od"
)

func TestLoad_FullGeneration(t *testing.T) {
	for _, m := range All() {
		t.Run(m.Filename(), func(t *testing.T) {
			cfg, err := Load(m, &Options{UseCache: false})
			require.NoError(t, err)

			// One OD per card with a processor.
			for _, name := range cfg.Cards.Names() {
				c, _ := cfg.Cards.Get(name)
				if c.Processor == "none" {
					_, ok := cfg.ODs[name]
					assert.False(t, ok, name)
					continue
				}
				dict, ok := cfg.ODs[name]
				require.True(t, ok, name)
				assert.Equal(t, c.NodeID, dict.NodeID, name)

				satID, ok := dict.Variable(0x3002, 0)
				require.True(t, ok, name)
				assert.Equal(t, uint64(m.ID()), satID.Default, name)
				version, ok := dict.Variable(0x3001, 1)
				require.True(t, ok, name)
				assert.Equal(t, ConfigsVersion, version.Default, name)
			}

			// Every beacon and FRAM reference resolved.
			assert.Len(t, cfg.BeaconDefs, len(cfg.Beacon.Fields))
			assert.NotEmpty(t, cfg.FramDefs)

			// The beacon header is stamped into the C3 OD.
			c3 := cfg.ODs[gen.CoreCard]
			src, ok := c3.EntryNamed("beacon")
			require.True(t, ok)
			callsign, ok := src.(*od.Record).SubNamed("src_callsign")
			require.True(t, ok)
			assert.Equal(t, "KJ7SAT", callsign.Default)

			// GPS backup time broadcast is pinned to the time sync id.
			gpsOD := cfg.ODs["gps"]
			cob, ok := gpsOD.Variable(gen.TPDOCommStart+15, 1)
			require.True(t, ok)
			assert.Equal(t, uint64(gen.TimeSyncCOBID), cob.Default)

			// The firmware base OD exists alongside the card ODs.
			require.NotNil(t, cfg.FwBase)
			assert.Equal(t, gen.FwBaseNodeID, cfg.FwBase.NodeID)
		})
	}
}

func TestLoad_CoreConsumesEveryProducer(t *testing.T) {
	cfg, err := Load(OreSat0_5, &Options{UseCache: false})
	require.NoError(t, err)

	c3 := cfg.ODs[gen.CoreCard]
	for _, name := range cfg.Cards.Names() {
		if name == gen.CoreCard {
			continue
		}
		c, _ := cfg.Cards.Get(name)
		if c.Processor == "none" {
			continue
		}
		shadow, ok := c3.EntryNamed(name)
		require.True(t, ok, "shadow record for %s", name)
		assert.Equal(t, od.KindRecord, shadow.Kind(), name)
	}

	// Overlay-added field shows up in the consumer's shadow record.
	battery, _ := c3.EntryNamed("battery_1")
	_, ok := battery.(*od.Record).SubNamed("battery_full_capacity")
	assert.True(t, ok)
}

func TestLoad_Cache(t *testing.T) {
	opts := &Options{UseCache: true, CacheDir: t.TempDir()}

	first, err := Load(OreSat0, opts)
	require.NoError(t, err)
	second, err := Load(OreSat0, opts)
	require.NoError(t, err)

	assert.Equal(t, len(first.ODs), len(second.ODs))
	for name, dict := range first.ODs {
		cached, ok := second.ODs[name]
		require.True(t, ok, name)
		assert.Equal(t, dict.NodeID, cached.NodeID, name)
		assert.Equal(t, dict.Indexes(), cached.Indexes(), name)
		assert.Equal(t, dict.TPDOCount, cached.TPDOCount, name)
		assert.Equal(t, dict.RPDOCount, cached.RPDOCount, name)
	}

	require.Len(t, second.BeaconDefs, len(first.BeaconDefs))
	for i, v := range first.BeaconDefs {
		assert.Equal(t, v.Index, second.BeaconDefs[i].Index)
		assert.Equal(t, v.Subindex, second.BeaconDefs[i].Subindex)
		assert.Equal(t, v.Name, second.BeaconDefs[i].Name)
	}
	require.Len(t, second.FramDefs, len(first.FramDefs))
}
