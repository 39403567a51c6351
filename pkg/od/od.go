package od

import (
	"fmt"
	"sort"
)

// DefaultBitrate is the CAN bus bitrate shared by every OreSat node.
const DefaultBitrate = 1_000_000 // bps

// ObjectDictionary is the finished per-node model: an indexed collection of
// entries plus the device metadata artifact generators need.
type ObjectDictionary struct {
	NodeID      uint8
	ProductName string
	Bitrate     uint32

	// TPDOCount and RPDOCount only grow during generation; cross-node
	// wiring keeps adding receive PDOs after the node's own are placed.
	TPDOCount int
	RPDOCount int

	entries map[uint16]Entry
	names   map[string]uint16
}

// New creates an empty Object Dictionary for one node.
func New(nodeID uint8, productName string) *ObjectDictionary {
	return &ObjectDictionary{
		NodeID:      nodeID,
		ProductName: productName,
		Bitrate:     DefaultBitrate,
		entries:     make(map[uint16]Entry),
		names:       make(map[string]uint16),
	}
}

// Add inserts an entry. Reusing an index fails with a ValidationError.
func (od *ObjectDictionary) Add(e Entry) error {
	index := e.EntryIndex()
	if _, dup := od.entries[index]; dup {
		return &ValidationError{
			Name:  e.EntryName(),
			Index: index,
			Msg:   "index already in OD",
		}
	}
	od.entries[index] = e
	od.names[e.EntryName()] = index
	return nil
}

// Entry returns the entry at an index.
func (od *ObjectDictionary) Entry(index uint16) (Entry, bool) {
	e, ok := od.entries[index]
	return e, ok
}

// EntryNamed returns the entry with the given name.
func (od *ObjectDictionary) EntryNamed(name string) (Entry, bool) {
	index, ok := od.names[name]
	if !ok {
		return nil, false
	}
	return od.entries[index], true
}

// Variable resolves an (index, subindex) address to a variable. A bare
// Variable entry only resolves at subindex 0.
func (od *ObjectDictionary) Variable(index uint16, subindex uint8) (*Variable, bool) {
	e, ok := od.entries[index]
	if !ok {
		return nil, false
	}
	switch entry := e.(type) {
	case *Variable:
		if subindex != 0 {
			return nil, false
		}
		return entry, true
	case *Record:
		return entry.Sub(subindex)
	case *Array:
		return entry.Sub(subindex)
	}
	return nil, false
}

// Indexes returns every populated index in ascending order. Iterating the
// returned slice with Entry gives the generation-order traversal required
// by downstream artifact generators.
func (od *ObjectDictionary) Indexes() []uint16 {
	indexes := make([]uint16, 0, len(od.entries))
	for index := range od.entries {
		indexes = append(indexes, index)
	}
	sort.Slice(indexes, func(i, j int) bool { return indexes[i] < indexes[j] })
	return indexes
}

// Len returns the number of entries.
func (od *ObjectDictionary) Len() int { return len(od.entries) }

// MaterializeDefaults sets every variable's current value to its default.
// Called once after generation completes, since own and cross-node-generated
// entries interleave while the OD is being built.
func (od *ObjectDictionary) MaterializeDefaults() {
	for _, e := range od.entries {
		switch entry := e.(type) {
		case *Variable:
			entry.Value = entry.Default
		case *Record:
			for _, sub := range entry.Subindexes() {
				v, _ := entry.Sub(sub)
				v.Value = v.Default
			}
		case *Array:
			for _, sub := range entry.Subindexes() {
				v, _ := entry.Sub(sub)
				v.Value = v.Default
			}
		}
	}
}

// String implements fmt.Stringer for log and shell output.
func (od *ObjectDictionary) String() string {
	return fmt.Sprintf("%s (node 0x%02X, %d entries)", od.ProductName, od.NodeID, len(od.entries))
}
