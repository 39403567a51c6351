package card

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// BitField is the set of bit positions covered by one named bit definition.
// Configuration documents may write it as a single bit (3), an explicit
// list ([0, 1, 2]) or a textual range ("0-3"); all forms normalize to the
// explicit list at parse time.
type BitField []int

// UnmarshalYAML accepts the three configuration forms of a bit definition.
func (b *BitField) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if i, err := strconv.Atoi(node.Value); err == nil {
			*b = BitField{i}
			return nil
		}
		bits, err := parseBitRange(node.Value)
		if err != nil {
			return err
		}
		*b = bits
		return nil
	case yaml.SequenceNode:
		var bits []int
		if err := node.Decode(&bits); err != nil {
			return err
		}
		*b = bits
		return nil
	}
	return fmt.Errorf("invalid bit definition (line %d)", node.Line)
}

// UnmarshalJSON accepts the same three forms from JSON configs.
func (b *BitField) UnmarshalJSON(data []byte) error {
	var i int
	if err := json.Unmarshal(data, &i); err == nil {
		*b = BitField{i}
		return nil
	}
	var bits []int
	if err := json.Unmarshal(data, &bits); err == nil {
		*b = bits
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := parseBitRange(s)
		if err != nil {
			return err
		}
		*b = parsed
		return nil
	}
	return fmt.Errorf("invalid bit definition %s", string(data))
}

// parseBitRange expands a "low-high" range into the explicit position list.
func parseBitRange(s string) (BitField, error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid bit range %q", s)
	}
	lo, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return nil, fmt.Errorf("invalid bit range %q", s)
	}
	hi, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, fmt.Errorf("invalid bit range %q", s)
	}
	if hi < lo {
		lo, hi = hi, lo
	}
	bits := make(BitField, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		bits = append(bits, i)
	}
	return bits, nil
}

func (b BitField) clone() BitField {
	return append(BitField(nil), b...)
}

// FieldRef addresses an OD entry by name, optionally narrowed to one
// subindexed variable: [entry] or [entry, subindex_name].
type FieldRef []string

// Validate checks the reference arity.
func (f FieldRef) Validate() error {
	if len(f) != 1 && len(f) != 2 {
		return fmt.Errorf("field reference %v must have 1 or 2 elements", []string(f))
	}
	return nil
}

func (f FieldRef) String() string {
	return strings.Join(f, ".")
}

// Attributes is the shared attribute vocabulary of every configurable
// variable: top-level objects, record/array subindexes and generated array
// elements all carry this set.
type Attributes struct {
	Name              string              `yaml:"name" json:"name"`
	DataType          string              `yaml:"data_type" json:"data_type"`
	Description       string              `yaml:"description,omitempty" json:"description,omitempty"`
	AccessType        string              `yaml:"access_type,omitempty" json:"access_type,omitempty"`
	Default           any                 `yaml:"default,omitempty" json:"default,omitempty"`
	Unit              string              `yaml:"unit,omitempty" json:"unit,omitempty"`
	ScaleFactor       float64             `yaml:"scale_factor,omitempty" json:"scale_factor,omitempty"`
	Length            int                 `yaml:"length,omitempty" json:"length,omitempty"`
	LowLimit          *int64              `yaml:"low_limit,omitempty" json:"low_limit,omitempty"`
	HighLimit         *int64              `yaml:"high_limit,omitempty" json:"high_limit,omitempty"`
	ValueDescriptions map[string]int64    `yaml:"value_descriptions,omitempty" json:"value_descriptions,omitempty"`
	BitDefinitions    map[string]BitField `yaml:"bit_definitions,omitempty" json:"bit_definitions,omitempty"`
}

func (a Attributes) clone() Attributes {
	c := a
	if a.LowLimit != nil {
		v := *a.LowLimit
		c.LowLimit = &v
	}
	if a.HighLimit != nil {
		v := *a.HighLimit
		c.HighLimit = &v
	}
	if a.ValueDescriptions != nil {
		c.ValueDescriptions = make(map[string]int64, len(a.ValueDescriptions))
		for k, v := range a.ValueDescriptions {
			c.ValueDescriptions[k] = v
		}
	}
	if a.BitDefinitions != nil {
		c.BitDefinitions = make(map[string]BitField, len(a.BitDefinitions))
		for k, v := range a.BitDefinitions {
			c.BitDefinitions[k] = v.clone()
		}
	}
	return c
}

// Object describes one OD entry: a variable, record or array.
type Object struct {
	Attributes `yaml:",inline" json:",inline"`

	ObjectType string      `yaml:"object_type" json:"object_type"`
	Index      uint16      `yaml:"index" json:"index"`
	Subindexes []Subobject `yaml:"subindexes,omitempty" json:"subindexes,omitempty"`

	// GenerateSubindexes, on arrays, derives the subindex set instead of
	// listing it: either a fixed-length run or one subindex per bus node.
	GenerateSubindexes *GenSub `yaml:"generate_subindexes,omitempty" json:"generate_subindexes,omitempty"`
}

// Subobject describes one subindexed variable of a record or array.
type Subobject struct {
	Attributes `yaml:",inline" json:",inline"`

	Subindex uint8 `yaml:"subindex" json:"subindex"`
}

// Subindex-generation strategies for arrays.
const (
	GenFixedLength = "fixed_length"
	GenNodeIDs     = "node_ids"
)

// GenSub describes generated array subindexes. With GenFixedLength, Length
// sequential subindexes are created and named <name>_<subindex>; with
// GenNodeIDs one subindex per known bus node is created, subindex = node id,
// skipping nodes with id 0 (not on the CAN bus).
type GenSub struct {
	Attributes `yaml:",inline" json:",inline"`

	Mode string `yaml:"subindexes" json:"subindexes"`
}

// PDO describes one hand-configured TPDO or RPDO slot.
type PDO struct {
	Num    int        `yaml:"num" json:"num"`
	Fields []FieldRef `yaml:"fields" json:"fields"`

	// TransmissionType is "sync" for sync-driven slots; anything else is
	// event driven (254).
	TransmissionType string `yaml:"transmission_type,omitempty" json:"transmission_type,omitempty"`
	Sync             int    `yaml:"sync,omitempty" json:"sync,omitempty"`
	RTR              bool   `yaml:"rtr,omitempty" json:"rtr,omitempty"`
	InhibitTimeMS    int    `yaml:"inhibit_time_ms,omitempty" json:"inhibit_time_ms,omitempty"`
	EventTimerMS     int    `yaml:"event_timer_ms,omitempty" json:"event_timer_ms,omitempty"`
	SyncStartValue   int    `yaml:"sync_start_value,omitempty" json:"sync_start_value,omitempty"`
}

func (p PDO) clone() PDO {
	c := p
	c.Fields = cloneFieldRefs(p.Fields)
	return c
}

// TPDOGen directs the wiring engine to mirror a remote card's RPDO slot as
// a generated TPDO on this card (the "control" direction).
type TPDOGen struct {
	Card    string `yaml:"card" json:"card"`
	RPDONum int    `yaml:"rpdo_num" json:"rpdo_num"`
}

// RPDOGen directs the wiring engine to consume a remote card's TPDO slot as
// a generated RPDO on this card.
type RPDOGen struct {
	Card    string `yaml:"card" json:"card"`
	TPDONum int    `yaml:"tpdo_num" json:"tpdo_num"`
}

// Config is one card's declarative configuration. Values of this type are
// immutable once parsed; use Merge and Overlay to derive new ones.
type Config struct {
	StdObjects []string  `yaml:"std_objects,omitempty" json:"std_objects,omitempty"`
	Objects    []Object  `yaml:"objects,omitempty" json:"objects,omitempty"`
	TPDOs      []PDO     `yaml:"tpdos,omitempty" json:"tpdos,omitempty"`
	RPDOs      []PDO     `yaml:"rpdos,omitempty" json:"rpdos,omitempty"`
	TPDOsGen   []TPDOGen `yaml:"tpdos_gen,omitempty" json:"tpdos_gen,omitempty"`
	RPDOsGen   []RPDOGen `yaml:"rpdos_gen,omitempty" json:"rpdos_gen,omitempty"`

	// Fram lists the core card's OD fields persisted to FRAM.
	Fram []FieldRef `yaml:"fram,omitempty" json:"fram,omitempty"`
}

// Clone returns a deep copy of the config.
func (c *Config) Clone() *Config {
	out := &Config{
		StdObjects: append([]string(nil), c.StdObjects...),
		Objects:    make([]Object, 0, len(c.Objects)),
		TPDOs:      make([]PDO, 0, len(c.TPDOs)),
		RPDOs:      make([]PDO, 0, len(c.RPDOs)),
		TPDOsGen:   append([]TPDOGen(nil), c.TPDOsGen...),
		RPDOsGen:   append([]RPDOGen(nil), c.RPDOsGen...),
		Fram:       cloneFieldRefs(c.Fram),
	}
	for _, obj := range c.Objects {
		out.Objects = append(out.Objects, obj.cloneObject())
	}
	for _, pdo := range c.TPDOs {
		out.TPDOs = append(out.TPDOs, pdo.clone())
	}
	for _, pdo := range c.RPDOs {
		out.RPDOs = append(out.RPDOs, pdo.clone())
	}
	return out
}

func (o Object) cloneObject() Object {
	c := o
	c.Attributes = o.Attributes.clone()
	if o.Subindexes != nil {
		c.Subindexes = make([]Subobject, 0, len(o.Subindexes))
		for _, sub := range o.Subindexes {
			cs := sub
			cs.Attributes = sub.Attributes.clone()
			c.Subindexes = append(c.Subindexes, cs)
		}
	}
	if o.GenerateSubindexes != nil {
		gs := *o.GenerateSubindexes
		gs.Attributes = o.GenerateSubindexes.Attributes.clone()
		c.GenerateSubindexes = &gs
	}
	return c
}

func cloneFieldRefs(refs []FieldRef) []FieldRef {
	if refs == nil {
		return nil
	}
	out := make([]FieldRef, 0, len(refs))
	for _, ref := range refs {
		out = append(out, append(FieldRef(nil), ref...))
	}
	return out
}

// dedupeSorted returns the sorted union of two string lists.
func dedupeSorted(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, s := range a {
		seen[s] = struct{}{}
	}
	for _, s := range b {
		seen[s] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
