package gen

import (
	"fmt"

	"github.com/oresat/oresat-configs/pkg/od"
)

// Shadow record index bases. A consumer holds one shadow record per remote
// node it is wired to, at base + the remote node's id.
const (
	rpdoShadowBase uint16 = 0x5000
	tpdoShadowBase uint16 = 0x5100
)

// timeSyncIndex is the well-known index of the SCET time keeping object.
// Time sync broadcasts land there directly instead of in a shadow record.
const timeSyncIndex uint16 = 0x2010

// CrossWire materializes a remote node's PDO slot in the consumer OD.
//
// dir is the direction of the PDO generated on the consumer: RPDO consumes
// the remote node's TPDO num, TPDO mirrors the remote node's RPDO num (the
// control direction). The consumer gains a communication/mapping record
// pair in the slot range past 16, with the COB-ID copied verbatim from the
// remote definition, plus one shadow field per remote mapped value. The
// shadow record is created on first use and extended by later calls for the
// same remote node; its subindex 0 counter advances with every field.
//
// The one exception is the time sync broadcast (COB-ID 0x181): its single
// field routes to the consumer's own SCET object instead of a shadow record.
func CrossWire(consumer *od.ObjectDictionary, remoteName string, remote *od.ObjectDictionary, num int, dir Direction) error {
	what := fmt.Sprintf("%s %s %d", remoteName, dir.remote(), num)

	remoteComm := dir.remote().commStart() + uint16(num) - 1
	remoteMap := dir.remote().mapStart() + uint16(num) - 1

	cobVar, ok := remote.Variable(remoteComm, 0x1)
	if !ok {
		return &ResolutionError{Node: consumer.ProductName, What: what,
			Ref: remoteName, Msg: fmt.Sprintf("remote node has no %s %d", dir.remote(), num)}
	}
	remoteMapEntry, ok := remote.Entry(remoteMap)
	if !ok {
		return &ResolutionError{Node: consumer.ProductName, What: what,
			Ref: remoteName, Msg: fmt.Sprintf("remote node has no %s %d mapping record", dir.remote(), num)}
	}
	remoteMapRec, ok := remoteMapEntry.(*od.Record)
	if !ok {
		return &ResolutionError{Node: consumer.ProductName, What: what,
			Ref: remoteName, Msg: "remote mapping entry is not a record"}
	}
	remoteCOB, _ := asUint64(cobVar.Default)

	timeSync := dir == RPDO && uint32(remoteCOB) == TimeSyncCOBID

	var shadow *od.Record
	if !timeSync {
		shadowBase := rpdoShadowBase
		shadowName := remoteName
		if dir == TPDO {
			shadowBase = tpdoShadowBase
			shadowName = remoteName + "_control"
		}
		shadowIndex := shadowBase + uint16(remote.NodeID)
		if existing, ok := consumer.Entry(shadowIndex); ok {
			shadow, ok = existing.(*od.Record)
			if !ok {
				return &ResolutionError{Node: consumer.ProductName, What: what,
					Ref: shadowName, Msg: fmt.Sprintf("index 0x%04X is already a %s", shadowIndex, existing.Kind())}
			}
		} else {
			shadow = od.NewRecord(shadowIndex, shadowName)
			shadow.Description = fmt.Sprintf("%s %s %d mapped data", remoteName, dir, num)
			if err := consumer.Add(shadow); err != nil {
				return err
			}
		}
	}

	// Generated slots are allocated past the 16 reserved for the node's own
	// hand-configured PDOs, in creation order.
	slot := 17
	for _, index := range consumer.Indexes() {
		if index >= dir.commStart()+16 && index < dir.mapStart() {
			slot++
		}
	}
	commIndex := dir.commStart() + uint16(slot) - 1
	mapIndex := dir.mapStart() + uint16(slot) - 1

	commRec := od.NewRecord(commIndex, fmt.Sprintf("%s_%s_%d_communication_parameters", remoteName, dir, num))
	commSubs := []*od.Variable{
		{Index: commIndex, Subindex: 0x1, Name: "cob_id",
			DataType: od.TypeUint32, Access: od.AccessConst, Default: remoteCOB, Factor: 1},
		{Index: commIndex, Subindex: 0x2, Name: "transmission_type",
			DataType: od.TypeUint8, Access: od.AccessConst, Default: eventDriven, Factor: 1},
		{Index: commIndex, Subindex: 0x5, Name: "event_timer",
			DataType: od.TypeUint16, Access: od.AccessConst, Default: uint64(0), Factor: 1},
	}
	for _, v := range commSubs {
		if err := commRec.Add(v); err != nil {
			return err
		}
	}
	if err := consumer.Add(commRec); err != nil {
		return err
	}

	mapRec := od.NewRecord(mapIndex, fmt.Sprintf("%s_%s_%d_mapping_parameters", remoteName, dir, num))
	if err := consumer.Add(mapRec); err != nil {
		return err
	}

	for _, sub := range remoteMapRec.Subindexes() {
		if sub == 0 {
			continue
		}
		mv, _ := remoteMapRec.Sub(sub)
		raw, _ := asUint64(mv.Default)
		srcIndex := uint16(raw >> 16)
		srcSub := uint8(raw >> 8)

		mappedIndex := timeSyncIndex
		var mappedSub uint8
		if !timeSync {
			field, err := shadowField(remote, srcIndex, srcSub)
			if err != nil {
				return &ResolutionError{Node: consumer.ProductName, What: what,
					Ref: fmt.Sprintf("0x%04X.%d", srcIndex, srcSub), Msg: err.Error()}
			}
			mappedSub = shadow.Highest() + 1
			field.Index = shadow.Index
			field.Subindex = mappedSub
			if err := shadow.Add(field); err != nil {
				return err
			}
			mappedIndex = shadow.Index
		}

		mapped, ok := consumer.Variable(mappedIndex, mappedSub)
		if !ok {
			return &ResolutionError{Node: consumer.ProductName, What: what,
				Ref: fmt.Sprintf("0x%04X.%d", mappedIndex, mappedSub),
				Msg: "mapped object missing from consumer OD"}
		}
		mappingSub := mapRec.Highest() + 1
		if err := mapRec.Add(mappingObject(mapIndex, mappingSub, mappedIndex, mappedSub, mapped.DataType)); err != nil {
			return err
		}
	}

	if dir == TPDO {
		consumer.TPDOCount++
	} else {
		consumer.RPDOCount++
	}
	return nil
}

// shadowField copies the remote source variable a mapped value points at,
// ready to be re-addressed into the consumer's shadow record.
func shadowField(remote *od.ObjectDictionary, srcIndex uint16, srcSub uint8) (*od.Variable, error) {
	entry, ok := remote.Entry(srcIndex)
	if !ok {
		return nil, fmt.Errorf("remote OD has no entry at 0x%04X", srcIndex)
	}

	var src *od.Variable
	var name string
	if v, isVar := entry.(*od.Variable); isVar {
		src = v
		name = v.Name
	} else {
		v, ok := remote.Variable(srcIndex, srcSub)
		if !ok {
			return nil, fmt.Errorf("remote OD has no variable at 0x%04X.%d", srcIndex, srcSub)
		}
		src = v
		name = entry.EntryName() + "_" + v.Name
	}

	field := src.Clone()
	field.Name = name
	field.Access = od.AccessRW
	field.PDOMappable = true
	field.Value = nil
	return field, nil
}

// remote returns the opposite direction: the kind of PDO consumed on the
// remote node when generating a local PDO of this direction.
func (d Direction) remote() Direction {
	if d == TPDO {
		return RPDO
	}
	return TPDO
}

func asUint64(v any) (uint64, bool) {
	switch n := v.(type) {
	case uint64:
		return n, true
	case int64:
		if n >= 0 {
			return uint64(n), true
		}
	case int:
		if n >= 0 {
			return uint64(n), true
		}
	}
	return 0, false
}
