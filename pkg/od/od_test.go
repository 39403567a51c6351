package od

import (
	"errors"
	"testing"
)

func newTestVar(index uint16, sub uint8, name string, dt DataType) *Variable {
	return &Variable{
		Index:       index,
		Subindex:    sub,
		Name:        name,
		DataType:    dt,
		Access:      AccessRW,
		Default:     dt.Zero(),
		Factor:      1,
		PDOMappable: !dt.IsDynamicLength(),
	}
}

func TestRecord_AddTracksHighestSubindex(t *testing.T) {
	rec := NewRecord(0x4000, "status")

	if rec.Highest() != 0 {
		t.Fatalf("new record highest = %d, want 0", rec.Highest())
	}

	for _, sub := range []uint8{1, 2, 5} {
		if err := rec.Add(newTestVar(0x4000, sub, "field", TypeUint8)); err != nil {
			t.Fatalf("Add(sub %d) error: %v", sub, err)
		}
	}

	if rec.Highest() != 5 {
		t.Errorf("highest = %d, want 5", rec.Highest())
	}
	if got := rec.Subindexes(); len(got) != 4 || got[0] != 0 || got[3] != 5 {
		t.Errorf("Subindexes() = %v, want [0 1 2 5]", got)
	}
}

func TestRecord_DuplicateSubindex(t *testing.T) {
	rec := NewRecord(0x4000, "status")
	if err := rec.Add(newTestVar(0x4000, 1, "a", TypeUint8)); err != nil {
		t.Fatal(err)
	}

	err := rec.Add(newTestVar(0x4000, 1, "b", TypeUint8))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Index != 0x4000 || verr.Subindex != 1 {
		t.Errorf("error context = 0x%04X/%d, want 0x4000/1", verr.Index, verr.Subindex)
	}
}

func TestArray_ElementTypeEnforced(t *testing.T) {
	arr := NewArray(0x5000, "temperatures")
	if err := arr.Add(newTestVar(0x5000, 1, "cell_1", TypeInt16)); err != nil {
		t.Fatal(err)
	}
	if arr.ElemType != TypeInt16 {
		t.Errorf("ElemType = %v, want int16", arr.ElemType)
	}

	err := arr.Add(newTestVar(0x5000, 2, "cell_2", TypeFloat32))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for mixed types, got %v", err)
	}
}

func TestObjectDictionary_AddAndLookup(t *testing.T) {
	d := New(0x04, "Battery 1")

	v := newTestVar(0x6000, 0, "vbatt", TypeUint16)
	if err := d.Add(v); err != nil {
		t.Fatal(err)
	}
	rec := NewRecord(0x6001, "pack_1")
	if err := rec.Add(newTestVar(0x6001, 1, "current", TypeInt16)); err != nil {
		t.Fatal(err)
	}
	if err := d.Add(rec); err != nil {
		t.Fatal(err)
	}

	if err := d.Add(newTestVar(0x6000, 0, "dup", TypeUint8)); err == nil {
		t.Error("expected duplicate index error")
	}

	if got, ok := d.Entry(0x6000); !ok || got.EntryName() != "vbatt" {
		t.Errorf("Entry(0x6000) = %v, %v", got, ok)
	}
	if got, ok := d.EntryNamed("pack_1"); !ok || got.EntryIndex() != 0x6001 {
		t.Errorf("EntryNamed(pack_1) = %v, %v", got, ok)
	}

	if got, ok := d.Variable(0x6001, 1); !ok || got.Name != "current" {
		t.Errorf("Variable(0x6001, 1) = %v, %v", got, ok)
	}
	if _, ok := d.Variable(0x6000, 1); ok {
		t.Error("bare variable must not resolve at subindex 1")
	}
	if _, ok := d.Variable(0x7000, 0); ok {
		t.Error("missing index must not resolve")
	}
}

func TestObjectDictionary_IndexesAscending(t *testing.T) {
	d := New(0x04, "Battery 1")
	for _, index := range []uint16{0x6002, 0x1017, 0x4000} {
		if err := d.Add(newTestVar(index, 0, "x", TypeUint8)); err != nil {
			t.Fatal(err)
		}
	}

	got := d.Indexes()
	want := []uint16{0x1017, 0x4000, 0x6002}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Indexes() = %v, want %v", got, want)
		}
	}
}

func TestObjectDictionary_MaterializeDefaults(t *testing.T) {
	d := New(0x04, "Battery 1")

	v := newTestVar(0x6000, 0, "vbatt", TypeUint16)
	v.Default = uint64(3300)
	if err := d.Add(v); err != nil {
		t.Fatal(err)
	}

	rec := NewRecord(0x6001, "pack_1")
	sub := newTestVar(0x6001, 1, "current", TypeInt16)
	sub.Default = int64(-12)
	if err := rec.Add(sub); err != nil {
		t.Fatal(err)
	}
	if err := d.Add(rec); err != nil {
		t.Fatal(err)
	}

	d.MaterializeDefaults()

	if v.Value != uint64(3300) {
		t.Errorf("vbatt value = %v, want 3300", v.Value)
	}
	if sub.Value != int64(-12) {
		t.Errorf("current value = %v, want -12", sub.Value)
	}
	if s, _ := rec.Sub(0); s.Value != uint64(1) {
		t.Errorf("highest counter value = %v, want 1", s.Value)
	}
}

func TestVariable_Clone(t *testing.T) {
	mn, mx := int64(0), int64(100)
	v := &Variable{
		Index:             0x4000,
		Name:              "mode",
		DataType:          TypeUint8,
		Access:            AccessRW,
		Default:           uint64(2),
		Min:               &mn,
		Max:               &mx,
		ValueDescriptions: map[string]int64{"off": 0, "on": 1},
		BitDefinitions:    map[string][]int{"flags": {0, 1, 2}},
		Factor:            1,
	}

	c := v.Clone()
	c.ValueDescriptions["standby"] = 2
	c.BitDefinitions["flags"][0] = 7
	*c.Max = 50

	if len(v.ValueDescriptions) != 2 {
		t.Error("clone shares value descriptions map")
	}
	if v.BitDefinitions["flags"][0] != 0 {
		t.Error("clone shares bit definitions slice")
	}
	if *v.Max != 100 {
		t.Error("clone shares limit pointer")
	}
}
