package mission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMission_Names(t *testing.T) {
	assert.Equal(t, "OreSat0", OreSat0.String())
	assert.Equal(t, "OreSat0.5", OreSat0_5.String())
	assert.Equal(t, "oresat0", OreSat0.Filename())
	assert.Equal(t, "oresat0_5", OreSat0_5.Filename())
	assert.Equal(t, uint8(1), OreSat0.ID())
	assert.Equal(t, uint8(2), OreSat0_5.ID())
	assert.Equal(t, OreSat0_5, Default())
}

func TestFromString(t *testing.T) {
	tests := []struct {
		in   string
		want Mission
	}{
		{"0", OreSat0},
		{"0.5", OreSat0_5},
		{"oresat0", OreSat0},
		{"OreSat0.5", OreSat0_5},
		{"oresat0_5", OreSat0_5},
	}
	for _, tt := range tests {
		m, err := FromString(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, m, tt.in)
	}

	_, err := FromString("oresat9")
	assert.Error(t, err)
}

func TestFromID(t *testing.T) {
	m, err := FromID(2)
	require.NoError(t, err)
	assert.Equal(t, OreSat0_5, m)

	_, err = FromID(0)
	assert.Error(t, err)
}

func TestSatelliteIDs(t *testing.T) {
	assert.Equal(t, map[string]int64{"oresat0": 1, "oresat0_5": 2}, SatelliteIDs())
}

func TestStdObjects(t *testing.T) {
	objs, err := StdObjects()
	require.NoError(t, err)

	names := make(map[string]bool, len(objs))
	for _, obj := range objs {
		names[obj.Name] = true
	}
	for _, want := range []string{
		"cob_id_emergency_message", "scet", "versions", "satellite_id",
	} {
		assert.True(t, names[want], "standard object %s", want)
	}
}

func TestEDL(t *testing.T) {
	defs, err := EDL()
	require.NoError(t, err)

	ping, ok := defs.ByName("ping")
	require.True(t, ok)
	assert.Equal(t, uint8(0x12), ping.UID)

	fwrite, ok := defs.ByUID(0x20)
	require.True(t, ok)
	assert.Equal(t, "fwrite", fwrite.Name)

	// The factory reset description is folded to one line.
	reset, _ := defs.ByUID(0x04)
	assert.NotContains(t, reset.Description, "\n")
}

func TestCards(t *testing.T) {
	for _, m := range All() {
		cards, err := m.Cards()
		require.NoError(t, err, m)

		c3, ok := cards.Get("c3")
		require.True(t, ok, m)
		assert.Equal(t, uint8(0x01), c3.NodeID)

		gps, ok := cards.Get("gps")
		require.True(t, ok, m)
		assert.Equal(t, "GPS", gps.NiceName, "time sync pin keys off the product name")
	}
}

func TestConfigs_MergeAndOverlay(t *testing.T) {
	cards, err := OreSat0_5.Cards()
	require.NoError(t, err)
	configs, err := OreSat0_5.Configs(cards)
	require.NoError(t, err)

	// Cards without a processor have no OD config.
	_, ok := configs["cfc_sensor"]
	assert.False(t, ok)

	// Firmware cards pick up the common std objects and the time sync wire.
	battery := configs["battery_1"]
	require.NotNil(t, battery)
	assert.Contains(t, battery.StdObjects, "scet")
	require.Len(t, battery.RPDOsGen, 1)
	assert.Equal(t, "c3", battery.RPDOsGen[0].Card)

	// The mission overlay adds the gas gauge field and retunes TPDO 2.
	foundRecord, foundField := false, false
	for _, obj := range battery.Objects {
		if obj.Name != "battery" {
			continue
		}
		foundRecord = true
		for _, sub := range obj.Subindexes {
			if sub.Name == "full_capacity" {
				foundField = true
			}
		}
	}
	require.True(t, foundRecord)
	assert.True(t, foundField, "overlay adds full_capacity")
	for _, pdo := range battery.TPDOs {
		if pdo.Num == 2 {
			assert.Len(t, pdo.Fields, 3)
		}
	}

	// The core card keeps only its own TPDO list and FRAM layout.
	c3 := configs["c3"]
	require.NotNil(t, c3)
	require.Len(t, c3.TPDOs, 1)
	assert.NotEmpty(t, c3.Fram)
}

func TestConfigs_BaseNotMutatedAcrossMissions(t *testing.T) {
	cards0, err := OreSat0.Cards()
	require.NoError(t, err)
	cards05, err := OreSat0_5.Cards()
	require.NoError(t, err)

	// OreSat0.5's battery overlay must not leak into OreSat0's configs,
	// regardless of load order.
	_, err = OreSat0_5.Configs(cards05)
	require.NoError(t, err)
	configs0, err := OreSat0.Configs(cards0)
	require.NoError(t, err)

	for _, obj := range configs0["battery_1"].Objects {
		if obj.Name != "battery" {
			continue
		}
		for _, sub := range obj.Subindexes {
			assert.NotEqual(t, "full_capacity", sub.Name)
		}
	}
}
