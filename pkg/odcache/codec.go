package odcache

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder mode for cache documents, configured for
// deterministic output so identical ODs produce identical bytes.
var encMode cbor.EncMode

// decMode is lenient about extras for forward compatibility with documents
// written by newer tool versions.
var decMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

// MarshalCBOR encodes a snapshot to its cache wire form.
func MarshalCBOR(snap *Snapshot) ([]byte, error) {
	return encMode.Marshal(snap)
}

// UnmarshalCBOR decodes a snapshot from its cache wire form.
func UnmarshalCBOR(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := decMode.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode od snapshot: %w", err)
	}
	return &snap, nil
}

// MarshalJSON encodes a snapshot for human inspection and external tooling.
func MarshalJSON(snap *Snapshot) ([]byte, error) {
	return json.MarshalIndent(snap, "", "  ")
}

// UnmarshalJSON decodes a snapshot from its JSON form.
func UnmarshalJSON(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode od snapshot: %w", err)
	}
	return &snap, nil
}
