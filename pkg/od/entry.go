package od

import (
	"fmt"
	"sort"
)

// Access is an entry access mode.
type Access string

const (
	AccessRO    Access = "ro"
	AccessWO    Access = "wo"
	AccessRW    Access = "rw"
	AccessConst Access = "const"
)

// ParseAccess validates an access mode string from a configuration document.
func ParseAccess(s string) (Access, error) {
	switch Access(s) {
	case AccessRO, AccessWO, AccessRW, AccessConst:
		return Access(s), nil
	}
	return "", fmt.Errorf("unknown access type %q", s)
}

// EntryKind discriminates the Entry union.
type EntryKind uint8

const (
	KindVariable EntryKind = iota + 1
	KindRecord
	KindArray
)

// String returns the configuration name of the entry kind.
func (k EntryKind) String() string {
	switch k {
	case KindVariable:
		return "variable"
	case KindRecord:
		return "record"
	case KindArray:
		return "array"
	}
	return fmt.Sprintf("EntryKind(%d)", uint8(k))
}

// Entry is the closed union of Object Dictionary entry kinds. The only
// implementations are *Variable, *Record and *Array; switch over Kind() or
// the concrete type to dispatch exhaustively.
type Entry interface {
	EntryIndex() uint16
	EntryName() string
	Kind() EntryKind

	isEntry()
}

// Variable is a single typed value at an (index, subindex) address.
type Variable struct {
	Index       uint16
	Subindex    uint8
	Name        string
	Description string
	DataType    DataType
	Access      Access

	// Default is the configured default in canonical form (see
	// DataType.Normalize). Value holds the materialized current value.
	Default any
	Value   any

	Unit   string
	Factor float64 // scale factor, 1 when unset

	Min *int64
	Max *int64

	// ValueDescriptions maps enumerated value labels to values.
	ValueDescriptions map[string]int64

	// BitDefinitions maps bit-field names to the bit positions they cover.
	BitDefinitions map[string][]int

	// PDOMappable is computed from the data type, never set by configs.
	PDOMappable bool
}

func (v *Variable) EntryIndex() uint16 { return v.Index }
func (v *Variable) EntryName() string  { return v.Name }
func (v *Variable) Kind() EntryKind    { return KindVariable }
func (v *Variable) isEntry()           {}

// Clone returns a deep copy of the variable.
func (v *Variable) Clone() *Variable {
	c := *v
	if v.Min != nil {
		m := *v.Min
		c.Min = &m
	}
	if v.Max != nil {
		m := *v.Max
		c.Max = &m
	}
	if v.ValueDescriptions != nil {
		c.ValueDescriptions = make(map[string]int64, len(v.ValueDescriptions))
		for k, val := range v.ValueDescriptions {
			c.ValueDescriptions[k] = val
		}
	}
	if v.BitDefinitions != nil {
		c.BitDefinitions = make(map[string][]int, len(v.BitDefinitions))
		for k, bits := range v.BitDefinitions {
			c.BitDefinitions[k] = append([]int(nil), bits...)
		}
	}
	if b, ok := v.Default.([]byte); ok {
		c.Default = append([]byte(nil), b...)
	}
	if b, ok := v.Value.([]byte); ok {
		c.Value = append([]byte(nil), b...)
	}
	return &c
}

// HighestSubName is the name of the reserved subindex 0 variable of every
// composite entry.
const HighestSubName = "highest_index_supported"

// composite is the shared subindex table of Record and Array.
type composite struct {
	vars  map[uint8]*Variable
	order []uint8
}

func newComposite(index uint16) composite {
	c := composite{vars: make(map[uint8]*Variable)}
	c.vars[0] = &Variable{
		Index:    index,
		Subindex: 0,
		Name:     HighestSubName,
		DataType: TypeUint8,
		Access:   AccessConst,
		Default:  uint64(0),
		Factor:   1,
	}
	c.order = append(c.order, 0)
	return c
}

func (c *composite) add(name string, index uint16, v *Variable) error {
	if _, dup := c.vars[v.Subindex]; dup {
		return &ValidationError{
			Name:     name,
			Index:    index,
			Subindex: v.Subindex,
			Msg:      "subindex already present",
		}
	}
	v.Index = index
	c.vars[v.Subindex] = v
	c.order = append(c.order, v.Subindex)
	if v.Subindex > c.highest() {
		c.setHighest(v.Subindex)
	}
	return nil
}

func (c *composite) highest() uint8 {
	h, _ := toUint64(c.vars[0].Default)
	return uint8(h)
}

func (c *composite) setHighest(h uint8) {
	c.vars[0].Default = uint64(h)
}

// Sub returns the variable at the given subindex.
func (c *composite) Sub(subindex uint8) (*Variable, bool) {
	v, ok := c.vars[subindex]
	return v, ok
}

// SubNamed returns the variable with the given name.
func (c *composite) SubNamed(name string) (*Variable, bool) {
	for _, sub := range c.order {
		if c.vars[sub].Name == name {
			return c.vars[sub], true
		}
	}
	return nil, false
}

// Subindexes returns every populated subindex in ascending order.
func (c *composite) Subindexes() []uint8 {
	subs := append([]uint8(nil), c.order...)
	sort.Slice(subs, func(i, j int) bool { return subs[i] < subs[j] })
	return subs
}

// Len returns the number of populated subindexes, subindex 0 included.
func (c *composite) Len() int { return len(c.vars) }

// Highest returns the value of the subindex 0 "highest index supported"
// counter.
func (c *composite) Highest() uint8 { return c.highest() }

// SetHighest overrides the subindex 0 counter. The cross-node wiring engine
// advances it explicitly while appending shadow fields.
func (c *composite) SetHighest(h uint8) { c.setHighest(h) }

// Record is a composite entry of heterogeneously typed variables.
// Subindex 0 is reserved for the auto-maintained highest-subindex counter.
type Record struct {
	Index       uint16
	Name        string
	Description string
	composite
}

// NewRecord creates an empty record with its subindex 0 counter seeded.
func NewRecord(index uint16, name string) *Record {
	return &Record{Index: index, Name: name, composite: newComposite(index)}
}

// Add inserts a variable at its subindex. Reusing a subindex fails with a
// ValidationError.
func (r *Record) Add(v *Variable) error {
	return r.add(r.Name, r.Index, v)
}

func (r *Record) EntryIndex() uint16 { return r.Index }
func (r *Record) EntryName() string  { return r.Name }
func (r *Record) Kind() EntryKind    { return KindRecord }
func (r *Record) isEntry()           {}

// Array is a composite entry whose non-zero subindexes share one data type.
type Array struct {
	Index       uint16
	Name        string
	Description string

	// ElemType is the element data type, fixed by the first element added.
	ElemType DataType

	composite
}

// NewArray creates an empty array with its subindex 0 counter seeded.
func NewArray(index uint16, name string) *Array {
	return &Array{Index: index, Name: name, composite: newComposite(index)}
}

// Add inserts an element variable. All elements must share one data type.
func (a *Array) Add(v *Variable) error {
	if a.ElemType == 0 {
		a.ElemType = v.DataType
	} else if v.DataType != a.ElemType {
		return &ValidationError{
			Name:     a.Name,
			Index:    a.Index,
			Subindex: v.Subindex,
			Msg: fmt.Sprintf("array element type %s does not match %s",
				v.DataType, a.ElemType),
		}
	}
	return a.add(a.Name, a.Index, v)
}

func (a *Array) EntryIndex() uint16 { return a.Index }
func (a *Array) EntryName() string  { return a.Name }
func (a *Array) Kind() EntryKind    { return KindArray }
func (a *Array) isEntry()           {}
