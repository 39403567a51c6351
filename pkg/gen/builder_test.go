package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oresat/oresat-configs/pkg/card"
	"github.com/oresat/oresat-configs/pkg/od"
)

func TestBuildVariable_Defaults(t *testing.T) {
	tests := []struct {
		name  string
		attrs card.Attributes
		want  any
	}{
		{"explicit int", card.Attributes{Name: "a", DataType: "uint8", Default: 5}, uint64(5)},
		{"zero value int", card.Attributes{Name: "a", DataType: "int16"}, int64(0)},
		{"zero value str", card.Attributes{Name: "a", DataType: "str"}, ""},
		{"hex string default", card.Attributes{Name: "a", DataType: "uint32", Default: "0x180"}, uint64(0x180)},
		{"node id placeholder suffix", card.Attributes{Name: "a", DataType: "uint32", Default: "0x180+$NODE_ID"}, uint64(0x180)},
		{"node id placeholder prefix", card.Attributes{Name: "a", DataType: "uint32", Default: "$NODE_ID+0x200"}, uint64(0x200)},
		{"octet str zero filled", card.Attributes{Name: "a", DataType: "octet_str", Length: 4}, []byte{0, 0, 0, 0}},
		{"bool", card.Attributes{Name: "a", DataType: "bool", Default: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := BuildVariable(&tt.attrs, 0x4000, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Default)
		})
	}
}

func TestBuildVariable_Attributes(t *testing.T) {
	lo := int64(-10)
	attrs := card.Attributes{
		Name:        "current",
		DataType:    "int16",
		AccessType:  "ro",
		Description: "output current",
		Unit:        "mA",
		ScaleFactor: 0.5,
		LowLimit:    &lo,
		BitDefinitions: map[string]card.BitField{
			"fault": {7},
		},
	}

	v, err := BuildVariable(&attrs, 0x4000, 3)
	require.NoError(t, err)
	assert.Equal(t, od.TypeInt16, v.DataType)
	assert.Equal(t, od.AccessRO, v.Access)
	assert.Equal(t, 0.5, v.Factor)
	assert.Equal(t, "mA", v.Unit)
	require.NotNil(t, v.Min)
	assert.Equal(t, int64(-10), *v.Min)
	assert.Nil(t, v.Max)
	assert.Equal(t, []int{7}, v.BitDefinitions["fault"])
	assert.True(t, v.PDOMappable)
}

func TestBuildVariable_EnumLimits(t *testing.T) {
	attrs := card.Attributes{
		Name:     "state",
		DataType: "uint8",
		ValueDescriptions: map[string]int64{
			"off": 0, "standby": 1, "active": 4,
		},
	}

	v, err := BuildVariable(&attrs, 0x4000, 0)
	require.NoError(t, err)
	require.NotNil(t, v.Min)
	require.NotNil(t, v.Max)
	assert.Equal(t, int64(0), *v.Min)
	assert.Equal(t, int64(4), *v.Max)

	// Explicit limits beat the enum span.
	hi := int64(10)
	attrs.HighLimit = &hi
	v, err = BuildVariable(&attrs, 0x4000, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(10), *v.Max)
}

func TestBuildVariable_NotMappable(t *testing.T) {
	v, err := BuildVariable(&card.Attributes{Name: "log", DataType: "str"}, 0x4000, 0)
	require.NoError(t, err)
	assert.False(t, v.PDOMappable)

	_, err = BuildVariable(&card.Attributes{Name: "x", DataType: "quaternion"}, 0x4000, 0)
	var verr *od.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestBuildRecord(t *testing.T) {
	obj := &card.Object{
		Attributes: card.Attributes{Name: "battery"},
		ObjectType: "record",
		Index:      0x4000,
		Subindexes: []card.Subobject{
			{Attributes: card.Attributes{Name: "vbatt", DataType: "uint16"}, Subindex: 1},
			{Attributes: card.Attributes{Name: "status", DataType: "uint8"}, Subindex: 3},
		},
	}

	rec, err := BuildRecord(obj)
	require.NoError(t, err)
	assert.Equal(t, uint8(3), rec.Highest())
	v, ok := rec.SubNamed("vbatt")
	require.True(t, ok)
	assert.Equal(t, uint8(1), v.Subindex)
}

func TestBuildArray_FixedLength(t *testing.T) {
	obj := &card.Object{
		Attributes: card.Attributes{Name: "cell_voltages"},
		ObjectType: "array",
		Index:      0x4100,
		GenerateSubindexes: &card.GenSub{
			Attributes: card.Attributes{Name: "cell", DataType: "uint16", Unit: "mV", Length: 3},
			Mode:       card.GenFixedLength,
		},
	}

	arr, err := BuildArray(obj, nil)
	require.NoError(t, err)
	assert.Equal(t, uint8(3), arr.Highest())
	assert.Equal(t, od.TypeUint16, arr.ElemType)

	v, ok := arr.Sub(2)
	require.True(t, ok)
	assert.Equal(t, "cell_2", v.Name)
	assert.Equal(t, "mV", v.Unit)
}

func TestBuildArray_NodeIDs(t *testing.T) {
	obj := &card.Object{
		Attributes: card.Attributes{Name: "consumer_heartbeat_times"},
		ObjectType: "array",
		Index:      0x1016,
		GenerateSubindexes: &card.GenSub{
			Attributes: card.Attributes{Name: "heartbeat_time", DataType: "uint32"},
			Mode:       card.GenNodeIDs,
		},
	}
	nodeIDs := map[string]uint8{
		"c3":        0x01,
		"battery_1": 0x04,
		"solar_sim": 0x00, // not on the bus
	}

	arr, err := BuildArray(obj, nodeIDs)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 0x01, 0x04}, arr.Subindexes())

	v, ok := arr.Sub(0x04)
	require.True(t, ok)
	assert.Equal(t, "battery_1", v.Name)
	_, ok = arr.Sub(0)
	assert.True(t, ok, "subindex 0 counter present")
}

func TestAddObjects_DuplicateIndex(t *testing.T) {
	dict := od.New(0x04, "Battery 1")
	objects := []card.Object{
		{Attributes: card.Attributes{Name: "a", DataType: "uint8"}, ObjectType: "variable", Index: 0x4000},
		{Attributes: card.Attributes{Name: "b", DataType: "uint8"}, ObjectType: "variable", Index: 0x4000},
	}

	err := AddObjects(dict, objects, nil)
	var verr *od.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, uint16(0x4000), verr.Index)
}
