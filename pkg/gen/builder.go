package gen

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/oresat/oresat-configs/pkg/card"
	"github.com/oresat/oresat-configs/pkg/od"
)

// BuildVariable constructs a single OD variable from configuration
// attributes. The default value is resolved against the data type: explicit
// defaults are normalized, octet strings get a zero-filled buffer of the
// configured length, and everything else falls back to the type's zero
// value. Enumerated variables without explicit limits take their range from
// the enum values.
func BuildVariable(a *card.Attributes, index uint16, subindex uint8) (*od.Variable, error) {
	dt, err := od.ParseDataType(a.DataType)
	if err != nil {
		return nil, &od.ValidationError{Name: a.Name, Index: index, Subindex: subindex, Msg: err.Error()}
	}
	access := od.AccessRW
	if a.AccessType != "" {
		access, err = od.ParseAccess(a.AccessType)
		if err != nil {
			return nil, &od.ValidationError{Name: a.Name, Index: index, Subindex: subindex, Msg: err.Error()}
		}
	}

	v := &od.Variable{
		Index:       index,
		Subindex:    subindex,
		Name:        a.Name,
		Description: a.Description,
		DataType:    dt,
		Access:      access,
		Unit:        a.Unit,
		Factor:      1,
		PDOMappable: !dt.IsDynamicLength(),
	}
	if a.ScaleFactor != 0 {
		v.Factor = a.ScaleFactor
	}
	if len(a.ValueDescriptions) > 0 {
		v.ValueDescriptions = make(map[string]int64, len(a.ValueDescriptions))
		for name, val := range a.ValueDescriptions {
			v.ValueDescriptions[name] = val
		}
	}
	if len(a.BitDefinitions) > 0 {
		v.BitDefinitions = make(map[string][]int, len(a.BitDefinitions))
		for name, bits := range a.BitDefinitions {
			v.BitDefinitions[name] = append([]int(nil), bits...)
		}
	}

	v.Default, err = resolveDefault(a, dt)
	if err != nil {
		return nil, &od.ValidationError{Name: a.Name, Index: index, Subindex: subindex, Msg: err.Error()}
	}

	v.Min, v.Max = limits(a)
	return v, nil
}

func resolveDefault(a *card.Attributes, dt od.DataType) (any, error) {
	if dt == od.TypeOctetStr {
		return make([]byte, a.Length), nil
	}
	if a.Default == nil {
		return dt.Zero(), nil
	}
	if s, ok := a.Default.(string); ok && dt.IsInteger() {
		return parseIntDefault(s, dt)
	}
	return dt.Normalize(a.Default)
}

// parseIntDefault handles string defaults on integer variables. A
// "$NODE_ID" placeholder term is stripped and the literal remainder used
// as-is; no node id arithmetic happens here.
func parseIntDefault(s string, dt od.DataType) (any, error) {
	if strings.Contains(s, "+$NODE_ID") {
		s = strings.SplitN(s, "+", 2)[0]
	} else if strings.Contains(s, "$NODE_ID+") {
		s = strings.SplitN(s, "+", 2)[1]
	}
	s = strings.TrimSpace(s)

	if dt.IsUnsigned() {
		u, err := strconv.ParseUint(s, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer default %q", s)
		}
		return dt.Normalize(u)
	}
	i, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid integer default %q", s)
	}
	return dt.Normalize(i)
}

// limits resolves the [min, max] range. Explicit limits win; enumerated
// variables default to the span of their enum values.
func limits(a *card.Attributes) (*int64, *int64) {
	lo, hi := cloneLimit(a.LowLimit), cloneLimit(a.HighLimit)
	if len(a.ValueDescriptions) == 0 {
		return lo, hi
	}
	if lo == nil || hi == nil {
		first := true
		var emin, emax int64
		for _, val := range a.ValueDescriptions {
			if first || val < emin {
				emin = val
			}
			if first || val > emax {
				emax = val
			}
			first = false
		}
		if lo == nil {
			lo = &emin
		}
		if hi == nil {
			hi = &emax
		}
	}
	return lo, hi
}

func cloneLimit(l *int64) *int64 {
	if l == nil {
		return nil
	}
	v := *l
	return &v
}

// BuildRecord constructs a record entry, subindex 0 counter included.
func BuildRecord(obj *card.Object) (*od.Record, error) {
	rec := od.NewRecord(obj.Index, obj.Name)
	rec.Description = obj.Description
	for i := range obj.Subindexes {
		sub := &obj.Subindexes[i]
		v, err := BuildVariable(&sub.Attributes, obj.Index, sub.Subindex)
		if err != nil {
			return nil, err
		}
		if err := rec.Add(v); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// BuildArray constructs an array entry. With a generate_subindexes strategy
// the subindex set is derived: a fixed-length run of numbered elements, or
// one element per bus node with subindex = node id (nodes with id 0 are not
// on the bus and are skipped).
func BuildArray(obj *card.Object, nodeIDs map[string]uint8) (*od.Array, error) {
	arr := od.NewArray(obj.Index, obj.Name)
	arr.Description = obj.Description

	gs := obj.GenerateSubindexes
	if gs == nil {
		for i := range obj.Subindexes {
			sub := &obj.Subindexes[i]
			v, err := BuildVariable(&sub.Attributes, obj.Index, sub.Subindex)
			if err != nil {
				return nil, err
			}
			if err := arr.Add(v); err != nil {
				return nil, err
			}
		}
		return arr, nil
	}

	switch gs.Mode {
	case card.GenFixedLength:
		for i := 1; i <= gs.Length; i++ {
			attrs := gs.Attributes
			attrs.Name = fmt.Sprintf("%s_%d", gs.Name, i)
			v, err := BuildVariable(&attrs, obj.Index, uint8(i))
			if err != nil {
				return nil, err
			}
			if err := arr.Add(v); err != nil {
				return nil, err
			}
		}
	case card.GenNodeIDs:
		for _, name := range sortedByNodeID(nodeIDs) {
			attrs := gs.Attributes
			attrs.Name = name
			v, err := BuildVariable(&attrs, obj.Index, nodeIDs[name])
			if err != nil {
				return nil, err
			}
			if err := arr.Add(v); err != nil {
				return nil, err
			}
		}
	default:
		return nil, &od.ValidationError{Name: obj.Name, Index: obj.Index,
			Msg: fmt.Sprintf("unknown subindex generation mode %q", gs.Mode)}
	}
	return arr, nil
}

// sortedByNodeID orders card names by node id for deterministic array
// element placement, skipping off-bus nodes (id 0).
func sortedByNodeID(nodeIDs map[string]uint8) []string {
	names := make([]string, 0, len(nodeIDs))
	for name, id := range nodeIDs {
		if id == 0 {
			continue
		}
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return nodeIDs[names[i]] < nodeIDs[names[j]] })
	return names
}

// BuildEntry dispatches on the configured object type.
func BuildEntry(obj *card.Object, nodeIDs map[string]uint8) (od.Entry, error) {
	switch obj.ObjectType {
	case "variable":
		v, err := BuildVariable(&obj.Attributes, obj.Index, 0)
		if err != nil {
			return nil, err
		}
		return v, nil
	case "record":
		rec, err := BuildRecord(obj)
		if err != nil {
			return nil, err
		}
		return rec, nil
	case "array":
		arr, err := BuildArray(obj, nodeIDs)
		if err != nil {
			return nil, err
		}
		return arr, nil
	}
	return nil, &od.ValidationError{Name: obj.Name, Index: obj.Index,
		Msg: fmt.Sprintf("unknown object type %q", obj.ObjectType)}
}

// AddObjects builds every configured object and inserts it into the OD.
func AddObjects(dict *od.ObjectDictionary, objects []card.Object, nodeIDs map[string]uint8) error {
	for i := range objects {
		entry, err := BuildEntry(&objects[i], nodeIDs)
		if err != nil {
			return err
		}
		if err := dict.Add(entry); err != nil {
			return err
		}
	}
	return nil
}
