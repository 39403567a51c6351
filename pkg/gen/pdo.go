package gen

import (
	"fmt"

	"github.com/oresat/oresat-configs/pkg/card"
	"github.com/oresat/oresat-configs/pkg/od"
)

// Index ranges for PDO communication and mapping records, per CiA 301.
const (
	RPDOCommStart uint16 = 0x1400
	RPDOMapStart  uint16 = 0x1600
	TPDOCommStart uint16 = 0x1800
	TPDOMapStart  uint16 = 0x1A00
)

// MaxPDOBits is the CAN frame payload limit one mapping record may cover.
const MaxPDOBits = 64

// TimeSyncCOBID is the arbitration id of the bus-wide time sync broadcast,
// the bus master's TPDO 1. The GPS card's TPDO 16 aliases it.
const TimeSyncCOBID uint32 = 0x181

// rtrDisableBit marks a TPDO COB-ID as not answering remote transmission
// requests.
const rtrDisableBit uint32 = 1 << 30

// eventDriven is the transmission type of non-sync PDOs.
const eventDriven uint64 = 254

// Direction discriminates transmit from receive PDOs.
type Direction int

const (
	TPDO Direction = iota
	RPDO
)

func (d Direction) String() string {
	if d == TPDO {
		return "tpdo"
	}
	return "rpdo"
}

func (d Direction) commStart() uint16 {
	if d == TPDO {
		return TPDOCommStart
	}
	return RPDOCommStart
}

func (d Direction) mapStart() uint16 {
	if d == TPDO {
		return TPDOMapStart
	}
	return RPDOMapStart
}

// Range returns the communication record index range of the direction:
// [commStart, mapStart).
func (d Direction) Range() (commStart, mapStart uint16) {
	return d.commStart(), d.mapStart()
}

// cobID computes the CAN arbitration id for a node's PDO slot. Consecutive
// slots cycle through the four standard PDO COB-ID blocks before advancing
// to the next id offset.
func cobID(nodeID uint8, num int) uint32 {
	return uint32(nodeID) + uint32((num-1)%4)*0x100 + uint32(num-1)/4 + 0x180
}

// AddPDOs allocates communication and mapping records for a node's own PDO
// slots. Mapped fields must already exist in the OD.
func AddPDOs(dict *od.ObjectDictionary, pdos []card.PDO, dir Direction) error {
	for i := range pdos {
		if err := addPDO(dict, &pdos[i], dir); err != nil {
			return err
		}
	}
	return nil
}

func addPDO(dict *od.ObjectDictionary, pdo *card.PDO, dir Direction) error {
	pdoName := fmt.Sprintf("%s %d", dir, pdo.Num)
	commIndex := dir.commStart() + uint16(pdo.Num) - 1
	mapIndex := dir.mapStart() + uint16(pdo.Num) - 1

	mapRec := od.NewRecord(mapIndex, fmt.Sprintf("%s_%d_mapping_parameters", dir, pdo.Num))
	bits := 0
	for i, ref := range pdo.Fields {
		target, err := resolveField(dict, ref)
		if err != nil {
			return &ResolutionError{Node: dict.ProductName, What: pdoName, Ref: ref.String(), Msg: err.Error()}
		}
		if !target.PDOMappable {
			return &MappingError{Node: dict.ProductName, PDO: pdoName,
				Msg: fmt.Sprintf("field %s has dynamic-length type %s and cannot be mapped", ref, target.DataType)}
		}
		bits += target.DataType.BitSize()
		if bits > MaxPDOBits {
			return &MappingError{Node: dict.ProductName, PDO: pdoName,
				Msg: fmt.Sprintf("mapped fields total %d bits, limit is %d", bits, MaxPDOBits)}
		}
		if err := mapRec.Add(mappingObject(mapIndex, uint8(i+1), target.Index, target.Subindex, target.DataType)); err != nil {
			return err
		}
	}

	commRec := od.NewRecord(commIndex, fmt.Sprintf("%s_%d_communication_parameters", dir, pdo.Num))

	cob := cobID(dict.NodeID, pdo.Num)
	if dir == TPDO && dict.ProductName == "GPS" && pdo.Num == 16 {
		// The GPS time sync TPDO shares the bus master's TPDO 1 wire id.
		cob = TimeSyncCOBID
	}
	if dir == TPDO && pdo.RTR {
		cob |= rtrDisableBit
	}
	if err := commRec.Add(&od.Variable{
		Index: commIndex, Subindex: 0x1, Name: "cob_id",
		DataType: od.TypeUint32, Access: od.AccessConst, Default: uint64(cob), Factor: 1,
	}); err != nil {
		return err
	}

	transmission := eventDriven
	if pdo.TransmissionType == "sync" {
		transmission = uint64(pdo.Sync)
	}
	if err := commRec.Add(&od.Variable{
		Index: commIndex, Subindex: 0x2, Name: "transmission_type",
		DataType: od.TypeUint8, Access: od.AccessConst, Default: transmission, Factor: 1,
	}); err != nil {
		return err
	}

	if dir == TPDO {
		if err := commRec.Add(&od.Variable{
			Index: commIndex, Subindex: 0x3, Name: "inhibit_time",
			DataType: od.TypeUint16, Access: od.AccessConst, Default: uint64(pdo.InhibitTimeMS), Factor: 1,
		}); err != nil {
			return err
		}
	}

	// Subindex 4 is reserved by the protocol.
	if err := commRec.Add(&od.Variable{
		Index: commIndex, Subindex: 0x5, Name: "event_timer",
		DataType: od.TypeUint16, Access: od.AccessRW, Default: uint64(pdo.EventTimerMS), Factor: 1,
	}); err != nil {
		return err
	}

	if dir == TPDO {
		if err := commRec.Add(&od.Variable{
			Index: commIndex, Subindex: 0x6, Name: "sync_start_value",
			DataType: od.TypeUint8, Access: od.AccessConst, Default: uint64(pdo.SyncStartValue), Factor: 1,
		}); err != nil {
			return err
		}
	}
	// The comm record always reports 6 supported subindexes, even in the
	// receive direction where 3 and 6 are absent.
	commRec.SetHighest(0x6)

	if err := dict.Add(mapRec); err != nil {
		return err
	}
	if err := dict.Add(commRec); err != nil {
		return err
	}

	if dir == TPDO {
		dict.TPDOCount++
	} else {
		dict.RPDOCount++
	}
	return nil
}

// mappingObject packs one (index, subindex, bit length) mapping value.
func mappingObject(mapIndex uint16, subindex uint8, targetIndex uint16, targetSub uint8, dt od.DataType) *od.Variable {
	value := uint64(targetIndex)<<16 | uint64(targetSub)<<8 | uint64(dt.BitSize())
	return &od.Variable{
		Index:    mapIndex,
		Subindex: subindex,
		Name:     fmt.Sprintf("mapping_object_%d", subindex),
		DataType: od.TypeUint32,
		Access:   od.AccessConst,
		Default:  value,
		Factor:   1,
	}
}

// resolveField resolves a [entry] or [entry, subentry] reference against the
// OD being built.
func resolveField(dict *od.ObjectDictionary, ref card.FieldRef) (*od.Variable, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	entry, ok := dict.EntryNamed(ref[0])
	if !ok {
		return nil, fmt.Errorf("no entry named %q", ref[0])
	}
	if len(ref) == 1 {
		v, ok := entry.(*od.Variable)
		if !ok {
			return nil, fmt.Errorf("entry %q is a %s, reference needs a subindex name", ref[0], entry.Kind())
		}
		return v, nil
	}
	switch e := entry.(type) {
	case *od.Record:
		if v, ok := e.SubNamed(ref[1]); ok {
			return v, nil
		}
	case *od.Array:
		if v, ok := e.SubNamed(ref[1]); ok {
			return v, nil
		}
	default:
		return nil, fmt.Errorf("entry %q is a variable, reference takes no subindex name", ref[0])
	}
	return nil, fmt.Errorf("entry %q has no subentry named %q", ref[0], ref[1])
}
