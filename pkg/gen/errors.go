package gen

import "fmt"

// ResolutionError reports a field reference that does not resolve against
// the Object Dictionary being built. It is fatal to that node's generation.
type ResolutionError struct {
	// Node is the card name or product name of the OD under construction.
	Node string
	// What names the referencing definition, e.g. "tpdo 3" or "beacon".
	What string
	// Ref is the unresolved reference, as written in the configuration.
	Ref string
	Msg string
}

func (e *ResolutionError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = "not in the OD"
	}
	return fmt.Sprintf("%s: %s references %q: %s", e.Node, e.What, e.Ref, msg)
}

// MappingError reports a PDO mapping record that violates the CAN frame
// payload limit or maps an unmappable entry.
type MappingError struct {
	Node string
	PDO  string
	Msg  string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Node, e.PDO, e.Msg)
}
