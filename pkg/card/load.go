package card

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ParseConfig parses one card configuration document. Decoding is strict:
// unknown keys are a load-time error.
func ParseConfig(data []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			// empty document, e.g. a card with no extra objects
			return &Config{}, nil
		}
		return nil, fmt.Errorf("parse card config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig reads and parses a card configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// validate applies the load-time checks that do not need an OD: object
// kinds are known, PDO slot numbers are in range and field references are
// well formed. Reference resolution happens later against the built OD.
func (c *Config) validate() error {
	for _, obj := range c.Objects {
		switch obj.ObjectType {
		case "variable", "record", "array":
		default:
			return fmt.Errorf("object %q (0x%04X): unknown object_type %q",
				obj.Name, obj.Index, obj.ObjectType)
		}
	}
	if err := validatePDOs("tpdo", c.TPDOs); err != nil {
		return err
	}
	if err := validatePDOs("rpdo", c.RPDOs); err != nil {
		return err
	}
	for _, ref := range c.Fram {
		if err := ref.Validate(); err != nil {
			return fmt.Errorf("fram: %w", err)
		}
	}
	return nil
}

// MaxOwnPDOs is the number of hand-configurable PDO slots per card.
// Cross-node generated PDOs are numbered after this range.
const MaxOwnPDOs = 16

func validatePDOs(kind string, pdos []PDO) error {
	seen := make(map[int]struct{}, len(pdos))
	for _, pdo := range pdos {
		if pdo.Num < 1 || pdo.Num > MaxOwnPDOs {
			return fmt.Errorf("%s num %d out of range 1..%d", kind, pdo.Num, MaxOwnPDOs)
		}
		if _, dup := seen[pdo.Num]; dup {
			return fmt.Errorf("duplicate %s num %d", kind, pdo.Num)
		}
		seen[pdo.Num] = struct{}{}
		for _, ref := range pdo.Fields {
			if err := ref.Validate(); err != nil {
				return fmt.Errorf("%s %d: %w", kind, pdo.Num, err)
			}
		}
	}
	return nil
}

// ParseStdObjects parses the shared standard-object catalog: a YAML list of
// objects keyed by name, instantiated per node by the generation engine.
func ParseStdObjects(data []byte) ([]Object, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var objs []Object
	if err := dec.Decode(&objs); err != nil {
		return nil, fmt.Errorf("parse standard objects: %w", err)
	}
	seen := make(map[string]struct{}, len(objs))
	for _, obj := range objs {
		if _, dup := seen[obj.Name]; dup {
			return nil, fmt.Errorf("duplicate standard object %q", obj.Name)
		}
		seen[obj.Name] = struct{}{}
	}
	return objs, nil
}
