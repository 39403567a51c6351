package mission

import (
	"fmt"
	"strings"
)

// ConfigsVersion is the version of the embedded configuration tree. It is
// stamped into every generated OD and keys the on-disk cache layout.
const ConfigsVersion = "1.1.0"

// Mission identifies one OreSat mission. The numeric value is the mission's
// satellite id, stamped into every OD's satellite_id object.
type Mission uint8

const (
	OreSat0 Mission = iota + 1
	OreSat0_5
)

// All returns every known mission in launch order.
func All() []Mission {
	return []Mission{OreSat0, OreSat0_5}
}

// Default returns the currently active mission.
func Default() Mission {
	return OreSat0_5
}

// ID returns the mission's satellite id.
func (m Mission) ID() uint8 { return uint8(m) }

// Arg returns the short mission argument: "0", "0.5", ...
func (m Mission) Arg() string {
	switch m {
	case OreSat0:
		return "0"
	case OreSat0_5:
		return "0.5"
	}
	return fmt.Sprintf("Mission(%d)", uint8(m))
}

func (m Mission) String() string {
	return "OreSat" + m.Arg()
}

// Filename returns a name safe for file paths and other restricted settings:
// all lower case, dots replaced with underscores.
func (m Mission) Filename() string {
	return strings.ReplaceAll(strings.ToLower(m.String()), ".", "_")
}

// FromString returns the mission for a short or long name: "0.5", "oresat0",
// "OreSat0.5" and so on.
func FromString(s string) (Mission, error) {
	arg := strings.TrimPrefix(strings.ToLower(s), "oresat")
	arg = strings.ReplaceAll(arg, "_", ".")
	for _, m := range All() {
		if m.Arg() == arg {
			return m, nil
		}
	}
	return 0, fmt.Errorf("invalid oresat mission %q", s)
}

// FromID returns the mission with the given satellite id.
func FromID(id uint8) (Mission, error) {
	for _, m := range All() {
		if m.ID() == id {
			return m, nil
		}
	}
	return 0, fmt.Errorf("invalid oresat mission id %d", id)
}

// SatelliteIDs returns the full mission name -> satellite id table, used for
// the satellite_id object's value descriptions.
func SatelliteIDs() map[string]int64 {
	ids := make(map[string]int64, len(All()))
	for _, m := range All() {
		ids[m.Filename()] = int64(m.ID())
	}
	return ids
}
