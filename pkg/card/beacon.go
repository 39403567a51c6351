package card

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// AX25Config is the AX.25 framing header of the beacon downlink.
type AX25Config struct {
	DestCallsign string `yaml:"dest_callsign" json:"dest_callsign"`
	DestSSID     uint8  `yaml:"dest_ssid" json:"dest_ssid"`
	SrcCallsign  string `yaml:"src_callsign" json:"src_callsign"`
	SrcSSID      uint8  `yaml:"src_ssid" json:"src_ssid"`
	Control      uint8  `yaml:"control" json:"control"`
	PID          uint8  `yaml:"pid" json:"pid"`
	Command      bool   `yaml:"command" json:"command"`
	Response     bool   `yaml:"response" json:"response"`
}

// BeaconConfig describes the mission beacon: the AX.25 header plus the
// ordered list of core-card OD fields broadcast in the payload.
type BeaconConfig struct {
	Revision int        `yaml:"revision" json:"revision"`
	Ax25     AX25Config `yaml:"ax25" json:"ax25"`
	Fields   []FieldRef `yaml:"fields" json:"fields"`
}

// ParseBeacon parses a beacon definition document.
func ParseBeacon(data []byte) (*BeaconConfig, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg BeaconConfig
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse beacon config: %w", err)
	}
	for _, ref := range cfg.Fields {
		if err := ref.Validate(); err != nil {
			return nil, fmt.Errorf("beacon fields: %w", err)
		}
	}
	// Callsigns are fixed six-character AX.25 address fields.
	for _, cs := range []string{cfg.Ax25.DestCallsign, cfg.Ax25.SrcCallsign} {
		if len(cs) > 6 {
			return nil, fmt.Errorf("callsign %q longer than 6 characters", cs)
		}
	}
	return &cfg, nil
}
