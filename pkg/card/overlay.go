package card

import "fmt"

// MergeError reports an overlay patch that cannot be applied unambiguously,
// e.g. a variable patch aimed at a composite base entry.
type MergeError struct {
	Index uint16
	Slot  int
	Msg   string
}

func (e *MergeError) Error() string {
	if e.Slot != 0 {
		return fmt.Sprintf("overlay slot %d: %s", e.Slot, e.Msg)
	}
	return fmt.Sprintf("overlay 0x%04X: %s", e.Index, e.Msg)
}

// Overlay applies a mission-specific patch on top of a base config and
// returns the patched result. The base is never modified: the same parsed
// base document is cached and shared across missions, so patching operates
// on a deep copy only.
//
// Objects match by index; on a match the patch's name, data type, access
// type and limits replace the base's (per matching subindex for composite
// entries, appending patch subindexes the base lacks). Unmatched patch
// objects append. PDOs match by slot number; on a match the patch's fields
// and timing replace the base's, otherwise the slot appends. Cross-node
// wiring directives always append.
func Overlay(base, patch *Config) (*Config, error) {
	out := base.Clone()

	for _, pobj := range patch.Objects {
		matched := false
		for i := range out.Objects {
			bobj := &out.Objects[i]
			if bobj.Index != pobj.Index {
				continue
			}
			if err := overlayObject(bobj, pobj); err != nil {
				return nil, err
			}
			matched = true
			break
		}
		if !matched {
			out.Objects = append(out.Objects, pobj.cloneObject())
		}
	}

	for _, ppdo := range patch.TPDOs {
		matched := false
		for i := range out.TPDOs {
			if out.TPDOs[i].Num != ppdo.Num {
				continue
			}
			out.TPDOs[i].Fields = cloneFieldRefs(ppdo.Fields)
			out.TPDOs[i].TransmissionType = ppdo.TransmissionType
			out.TPDOs[i].Sync = ppdo.Sync
			out.TPDOs[i].EventTimerMS = ppdo.EventTimerMS
			out.TPDOs[i].InhibitTimeMS = ppdo.InhibitTimeMS
			matched = true
			break
		}
		if !matched {
			out.TPDOs = append(out.TPDOs, ppdo.clone())
		}
	}

	for _, ppdo := range patch.RPDOs {
		matched := false
		for i := range out.RPDOs {
			if out.RPDOs[i].Num != ppdo.Num {
				continue
			}
			out.RPDOs[i].Fields = cloneFieldRefs(ppdo.Fields)
			out.RPDOs[i].EventTimerMS = ppdo.EventTimerMS
			matched = true
			break
		}
		if !matched {
			out.RPDOs = append(out.RPDOs, ppdo.clone())
		}
	}

	out.TPDOsGen = append(out.TPDOsGen, patch.TPDOsGen...)
	out.RPDOsGen = append(out.RPDOsGen, patch.RPDOsGen...)

	return out, nil
}

// overlayObject patches one matched entry in place (bobj is already a copy
// owned by the result).
func overlayObject(bobj *Object, pobj Object) error {
	baseComposite := bobj.ObjectType != "variable"
	patchComposite := pobj.ObjectType != "variable"
	if baseComposite != patchComposite {
		return &MergeError{
			Index: pobj.Index,
			Msg: fmt.Sprintf("patch kind %q does not match base kind %q",
				pobj.ObjectType, bobj.ObjectType),
		}
	}

	bobj.Name = pobj.Name
	if !patchComposite {
		bobj.DataType = pobj.DataType
		bobj.AccessType = pobj.AccessType
		bobj.LowLimit = cloneLimit(pobj.LowLimit)
		bobj.HighLimit = cloneLimit(pobj.HighLimit)
		return nil
	}

	for _, psub := range pobj.Subindexes {
		matched := false
		for i := range bobj.Subindexes {
			bsub := &bobj.Subindexes[i]
			if bsub.Subindex != psub.Subindex {
				continue
			}
			bsub.Name = psub.Name
			bsub.DataType = psub.DataType
			bsub.AccessType = psub.AccessType
			bsub.LowLimit = cloneLimit(psub.LowLimit)
			bsub.HighLimit = cloneLimit(psub.HighLimit)
			matched = true
			break
		}
		if !matched {
			cs := psub
			cs.Attributes = psub.Attributes.clone()
			bobj.Subindexes = append(bobj.Subindexes, cs)
		}
	}
	return nil
}

func cloneLimit(l *int64) *int64 {
	if l == nil {
		return nil
	}
	v := *l
	return &v
}
