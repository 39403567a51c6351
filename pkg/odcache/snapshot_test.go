package odcache

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oresat/oresat-configs/pkg/od"
)

func int64Ptr(v int64) *int64 { return &v }

// testOD builds a dictionary with one of every entry kind and a full spread
// of variable attributes.
func testOD(t *testing.T) *od.ObjectDictionary {
	t.Helper()
	dict := od.New(0x04, "Battery 1")
	dict.TPDOCount = 2
	dict.RPDOCount = 1

	mode := &od.Variable{
		Index:       0x4000,
		Name:        "mode",
		Description: "subsystem state machine state",
		DataType:    od.TypeUint8,
		Access:      od.AccessRW,
		Default:     uint64(1),
		Factor:      1,
		Min:         int64Ptr(0),
		Max:         int64Ptr(3),
		ValueDescriptions: map[string]int64{
			"off":  0,
			"boot": 1,
			"run":  2,
		},
		PDOMappable: true,
	}
	require.NoError(t, dict.Add(mode))

	rec := od.NewRecord(0x4001, "battery")
	require.NoError(t, rec.Add(&od.Variable{
		Subindex:    1,
		Name:        "vbatt",
		DataType:    od.TypeUint16,
		Access:      od.AccessRO,
		Default:     uint64(0),
		Unit:        "mV",
		Factor:      1,
		PDOMappable: true,
	}))
	require.NoError(t, rec.Add(&od.Variable{
		Subindex: 2,
		Name:     "status",
		DataType: od.TypeUint8,
		Access:   od.AccessRO,
		Default:  uint64(0),
		Factor:   1,
		BitDefinitions: map[string][]int{
			"charging":  {0},
			"heater_on": {1, 2},
		},
		PDOMappable: true,
	}))
	require.NoError(t, dict.Add(rec))

	arr := od.NewArray(0x4002, "cell_voltages")
	for i := uint8(1); i <= 3; i++ {
		require.NoError(t, arr.Add(&od.Variable{
			Subindex:    i,
			Name:        "cell",
			DataType:    od.TypeUint16,
			Access:      od.AccessRO,
			Default:     uint64(0),
			Unit:        "mV",
			Factor:      1,
			PDOMappable: true,
		}))
	}
	require.NoError(t, dict.Add(arr))

	require.NoError(t, dict.Add(&od.Variable{
		Index:    0x4003,
		Name:     "key",
		DataType: od.TypeOctetStr,
		Access:   od.AccessRW,
		Default:  []byte{0xDE, 0xAD, 0xBE, 0xEF},
		Factor:   1,
	}))

	dict.MaterializeDefaults()
	return dict
}

func TestSnapshotRoundTrip(t *testing.T) {
	dict := testOD(t)

	snap := FromOD(dict)
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, uint8(0x04), snap.NodeID)
	assert.Equal(t, "Battery 1", snap.ProductName)
	assert.Equal(t, 2, snap.TPDOs)
	require.Len(t, snap.Objects, 4)

	back, err := ToOD(snap)
	require.NoError(t, err)
	assert.Equal(t, dict.NodeID, back.NodeID)
	assert.Equal(t, dict.ProductName, back.ProductName)
	assert.Equal(t, dict.TPDOCount, back.TPDOCount)
	assert.Equal(t, dict.RPDOCount, back.RPDOCount)
	assert.Equal(t, dict.Indexes(), back.Indexes())

	mode, ok := back.Variable(0x4000, 0)
	require.True(t, ok)
	want, _ := dict.Variable(0x4000, 0)
	assert.Equal(t, want.Name, mode.Name)
	assert.Equal(t, want.Description, mode.Description)
	assert.Equal(t, want.DataType, mode.DataType)
	assert.Equal(t, want.Access, mode.Access)
	assert.Equal(t, want.Default, mode.Default)
	assert.Equal(t, mode.Default, mode.Value)
	assert.Equal(t, want.Min, mode.Min)
	assert.Equal(t, want.Max, mode.Max)
	assert.Equal(t, want.ValueDescriptions, mode.ValueDescriptions)
	assert.True(t, mode.PDOMappable)

	rec, ok := back.Entry(0x4001)
	require.True(t, ok)
	recRec := rec.(*od.Record)
	assert.Equal(t, uint8(2), recRec.Highest())
	vbatt, ok := recRec.Sub(1)
	require.True(t, ok)
	assert.Equal(t, "mV", vbatt.Unit)
	status, _ := recRec.Sub(2)
	assert.Equal(t, map[string][]int{"charging": {0}, "heater_on": {1, 2}}, status.BitDefinitions)

	arr, ok := back.Entry(0x4002)
	require.True(t, ok)
	arrArr := arr.(*od.Array)
	assert.Equal(t, uint8(3), arrArr.Highest())
	assert.Equal(t, od.TypeUint16, arrArr.ElemType)

	key, ok := back.Variable(0x4003, 0)
	require.True(t, ok)
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, key.Default)
}

func TestSnapshotRoundTrip_CBOR(t *testing.T) {
	dict := testOD(t)
	snap := FromOD(dict)

	data, err := MarshalCBOR(snap)
	require.NoError(t, err)

	decoded, err := UnmarshalCBOR(data)
	require.NoError(t, err)
	assert.Equal(t, snap.ID, decoded.ID)

	back, err := ToOD(decoded)
	require.NoError(t, err)
	mode, ok := back.Variable(0x4000, 0)
	require.True(t, ok)
	assert.Equal(t, uint64(1), mode.Default)
	key, _ := back.Variable(0x4003, 0)
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, key.Default)
}

func TestSnapshotCBOR_Deterministic(t *testing.T) {
	snap := FromOD(testOD(t))

	first, err := MarshalCBOR(snap)
	require.NoError(t, err)
	second, err := MarshalCBOR(snap)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSnapshotRoundTrip_JSON(t *testing.T) {
	dict := testOD(t)
	snap := FromOD(dict)

	data, err := MarshalJSON(snap)
	require.NoError(t, err)

	// Octet defaults travel as hex text.
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	objects := doc["objects"].([]any)
	key := objects[len(objects)-1].(map[string]any)
	assert.Equal(t, "deadbeef", key["variable"].(map[string]any)["default"])

	decoded, err := UnmarshalJSON(data)
	require.NoError(t, err)
	back, err := ToOD(decoded)
	require.NoError(t, err)

	// JSON numbers come back as float64 and must renormalize.
	mode, ok := back.Variable(0x4000, 0)
	require.True(t, ok)
	assert.Equal(t, uint64(1), mode.Default)
	keyVar, _ := back.Variable(0x4003, 0)
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, keyVar.Default)
	rec, _ := back.Entry(0x4001)
	assert.Equal(t, uint8(2), rec.(*od.Record).Highest())
}

func TestToOD_BadSnapshots(t *testing.T) {
	tests := []struct {
		name string
		snap *Snapshot
	}{
		{
			name: "unknown entry type",
			snap: &Snapshot{Objects: []EntrySnapshot{{Type: "matrix", Index: 0x4000, Name: "x"}}},
		},
		{
			name: "variable without attributes",
			snap: &Snapshot{Objects: []EntrySnapshot{{Type: "variable", Index: 0x4000, Name: "x"}}},
		},
		{
			name: "unknown data type",
			snap: &Snapshot{Objects: []EntrySnapshot{{
				Type: "variable", Index: 0x4000, Name: "x",
				Variable: &VariableSnapshot{Name: "x", DataType: "quaternion", Access: "rw"},
			}}},
		},
		{
			name: "octet default not hex",
			snap: &Snapshot{Objects: []EntrySnapshot{{
				Type: "variable", Index: 0x4000, Name: "x",
				Variable: &VariableSnapshot{Name: "x", DataType: "octet_str", Access: "rw", Default: "zz"},
			}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToOD(tt.snap)
			assert.Error(t, err)
		})
	}
}
