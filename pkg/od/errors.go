package od

import "fmt"

// ValidationError reports a malformed entry: a reused subindex, an unknown
// data type name, or an attribute that cannot apply to the entry's kind.
// It is always fatal to the construction of that entry.
type ValidationError struct {
	Name     string
	Index    uint16
	Subindex uint8
	Msg      string
}

func (e *ValidationError) Error() string {
	if e.Subindex != 0 {
		return fmt.Sprintf("invalid entry %q (0x%04X sub 0x%02X): %s",
			e.Name, e.Index, e.Subindex, e.Msg)
	}
	return fmt.Sprintf("invalid entry %q (0x%04X): %s", e.Name, e.Index, e.Msg)
}
