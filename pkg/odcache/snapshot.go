package odcache

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	"github.com/oresat/oresat-configs/pkg/od"
)

// Snapshot is the flat persisted form of one Object Dictionary.
type Snapshot struct {
	// ID tags one serialization; every snapshot gets a fresh one.
	ID          string          `json:"id" cbor:"id"`
	NodeID      uint8           `json:"node_id" cbor:"node_id"`
	ProductName string          `json:"product_name" cbor:"product_name"`
	TPDOs       int             `json:"tpdos" cbor:"tpdos"`
	RPDOs       int             `json:"rpdos" cbor:"rpdos"`
	Objects     []EntrySnapshot `json:"objects" cbor:"objects"`
}

// EntrySnapshot is one entry, tagged by kind. Variable entries carry their
// attributes in Variable; composite entries list their subindexed variables.
type EntrySnapshot struct {
	Type        string             `json:"type" cbor:"type"`
	Index       uint16             `json:"index" cbor:"index"`
	Name        string             `json:"name" cbor:"name"`
	Description string             `json:"description,omitempty" cbor:"description,omitempty"`
	Variable    *VariableSnapshot  `json:"variable,omitempty" cbor:"variable,omitempty"`
	Subindexes  []VariableSnapshot `json:"subindexes,omitempty" cbor:"subindexes,omitempty"`
}

// VariableSnapshot carries the full variable attribute set. Octet string
// defaults are hex encoded for text safety.
type VariableSnapshot struct {
	Index             uint16           `json:"index" cbor:"index"`
	Subindex          uint8            `json:"subindex" cbor:"subindex"`
	Name              string           `json:"name" cbor:"name"`
	Description       string           `json:"description,omitempty" cbor:"description,omitempty"`
	DataType          string           `json:"data_type" cbor:"data_type"`
	Access            string           `json:"access_type" cbor:"access_type"`
	Default           any              `json:"default" cbor:"default"`
	Unit              string           `json:"unit,omitempty" cbor:"unit,omitempty"`
	Factor            float64          `json:"factor,omitempty" cbor:"factor,omitempty"`
	Min               *int64           `json:"min,omitempty" cbor:"min,omitempty"`
	Max               *int64           `json:"max,omitempty" cbor:"max,omitempty"`
	ValueDescriptions map[string]int64 `json:"value_descriptions,omitempty" cbor:"value_descriptions,omitempty"`
	BitDefinitions    map[string][]int `json:"bit_definitions,omitempty" cbor:"bit_definitions,omitempty"`
}

// FromOD converts an Object Dictionary into its snapshot form, entries in
// ascending index order.
func FromOD(dict *od.ObjectDictionary) *Snapshot {
	snap := &Snapshot{
		ID:          uuid.NewString(),
		NodeID:      dict.NodeID,
		ProductName: dict.ProductName,
		TPDOs:       dict.TPDOCount,
		RPDOs:       dict.RPDOCount,
		Objects:     make([]EntrySnapshot, 0, dict.Len()),
	}
	for _, index := range dict.Indexes() {
		entry, _ := dict.Entry(index)
		snap.Objects = append(snap.Objects, fromEntry(entry))
	}
	return snap
}

func fromEntry(entry od.Entry) EntrySnapshot {
	es := EntrySnapshot{
		Type:  entry.Kind().String(),
		Index: entry.EntryIndex(),
		Name:  entry.EntryName(),
	}
	switch e := entry.(type) {
	case *od.Variable:
		es.Description = e.Description
		vs := fromVariable(e)
		es.Variable = &vs
	case *od.Record:
		es.Description = e.Description
		for _, sub := range e.Subindexes() {
			v, _ := e.Sub(sub)
			es.Subindexes = append(es.Subindexes, fromVariable(v))
		}
	case *od.Array:
		es.Description = e.Description
		for _, sub := range e.Subindexes() {
			v, _ := e.Sub(sub)
			es.Subindexes = append(es.Subindexes, fromVariable(v))
		}
	}
	return es
}

func fromVariable(v *od.Variable) VariableSnapshot {
	vs := VariableSnapshot{
		Index:       v.Index,
		Subindex:    v.Subindex,
		Name:        v.Name,
		Description: v.Description,
		DataType:    v.DataType.String(),
		Access:      string(v.Access),
		Default:     v.Default,
		Unit:        v.Unit,
		Factor:      v.Factor,
		Min:         cloneLimit(v.Min),
		Max:         cloneLimit(v.Max),
	}
	if b, ok := v.Default.([]byte); ok {
		vs.Default = hex.EncodeToString(b)
	}
	if len(v.ValueDescriptions) > 0 {
		vs.ValueDescriptions = make(map[string]int64, len(v.ValueDescriptions))
		for k, val := range v.ValueDescriptions {
			vs.ValueDescriptions[k] = val
		}
	}
	if len(v.BitDefinitions) > 0 {
		vs.BitDefinitions = make(map[string][]int, len(v.BitDefinitions))
		for k, bits := range v.BitDefinitions {
			vs.BitDefinitions[k] = append([]int(nil), bits...)
		}
	}
	return vs
}

// ToOD rebuilds an Object Dictionary from its snapshot form. Values are
// materialized from the stored defaults.
func ToOD(snap *Snapshot) (*od.ObjectDictionary, error) {
	dict := od.New(snap.NodeID, snap.ProductName)
	dict.TPDOCount = snap.TPDOs
	dict.RPDOCount = snap.RPDOs

	for i := range snap.Objects {
		es := &snap.Objects[i]
		switch es.Type {
		case "variable":
			if es.Variable == nil {
				return nil, fmt.Errorf("entry 0x%04X: variable snapshot missing attributes", es.Index)
			}
			v, err := toVariable(es.Variable)
			if err != nil {
				return nil, err
			}
			v.Description = es.Description
			if err := dict.Add(v); err != nil {
				return nil, err
			}
		case "record":
			rec := od.NewRecord(es.Index, es.Name)
			rec.Description = es.Description
			if err := fillComposite(es, rec.Add, rec.SetHighest); err != nil {
				return nil, err
			}
			if err := dict.Add(rec); err != nil {
				return nil, err
			}
		case "array":
			arr := od.NewArray(es.Index, es.Name)
			arr.Description = es.Description
			if err := fillComposite(es, arr.Add, arr.SetHighest); err != nil {
				return nil, err
			}
			if err := dict.Add(arr); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("entry 0x%04X: unknown entry type %q", es.Index, es.Type)
		}
	}
	// Snapshots persist defaults only; current values are rebuilt the same
	// way generation does.
	dict.MaterializeDefaults()
	return dict, nil
}

// fillComposite restores a composite's subindexes, replaying the persisted
// subindex 0 counter instead of recomputing it.
func fillComposite(es *EntrySnapshot, add func(*od.Variable) error, setHighest func(uint8)) error {
	var highest uint8
	var counter any
	for i := range es.Subindexes {
		vs := &es.Subindexes[i]
		if vs.Subindex == 0 {
			counter = vs.Default
			continue
		}
		v, err := toVariable(vs)
		if err != nil {
			return err
		}
		if err := add(v); err != nil {
			return err
		}
		if vs.Subindex > highest {
			highest = vs.Subindex
		}
	}
	if counter != nil {
		if h, err := od.TypeUint8.Normalize(counter); err == nil {
			setHighest(uint8(h.(uint64)))
			return nil
		}
	}
	setHighest(highest)
	return nil
}

func toVariable(vs *VariableSnapshot) (*od.Variable, error) {
	dt, err := od.ParseDataType(vs.DataType)
	if err != nil {
		return nil, fmt.Errorf("variable %s at 0x%04X.%d: %w", vs.Name, vs.Index, vs.Subindex, err)
	}
	access, err := od.ParseAccess(vs.Access)
	if err != nil {
		return nil, fmt.Errorf("variable %s at 0x%04X.%d: %w", vs.Name, vs.Index, vs.Subindex, err)
	}

	def := vs.Default
	if dt == od.TypeOctetStr {
		s, ok := def.(string)
		if !ok {
			return nil, fmt.Errorf("variable %s: octet default is %T, want hex string", vs.Name, def)
		}
		def, err = hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("variable %s: bad hex default: %w", vs.Name, err)
		}
	} else {
		def, err = dt.Normalize(def)
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", vs.Name, err)
		}
	}

	v := &od.Variable{
		Index:       vs.Index,
		Subindex:    vs.Subindex,
		Name:        vs.Name,
		Description: vs.Description,
		DataType:    dt,
		Access:      access,
		Default:     def,
		Value:       def,
		Unit:        vs.Unit,
		Factor:      vs.Factor,
		Min:         cloneLimit(vs.Min),
		Max:         cloneLimit(vs.Max),
		PDOMappable: !dt.IsDynamicLength(),
	}
	if v.Factor == 0 {
		v.Factor = 1
	}
	if len(vs.ValueDescriptions) > 0 {
		v.ValueDescriptions = make(map[string]int64, len(vs.ValueDescriptions))
		for k, val := range vs.ValueDescriptions {
			v.ValueDescriptions[k] = val
		}
	}
	if len(vs.BitDefinitions) > 0 {
		v.BitDefinitions = make(map[string][]int, len(vs.BitDefinitions))
		for k, bits := range vs.BitDefinitions {
			v.BitDefinitions[k] = append([]int(nil), bits...)
		}
	}
	return v, nil
}

func cloneLimit(l *int64) *int64 {
	if l == nil {
		return nil
	}
	v := *l
	return &v
}
