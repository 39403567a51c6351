package edl

import (
	"fmt"
	"regexp"
)

// Field describes one field of a command request or response.
//
// Scalar fields ("bool", "int8".."int64", "uint8".."uint64", "float32",
// "float64") have a fixed width and set none of the sizing attributes.
// "bytes" fields set exactly one of FixedSize or SizePrefix; "str" fields
// set exactly one of FixedSize or MaxSize.
type Field struct {
	// Name is unique within the field list it belongs to, not globally.
	Name        string           `yaml:"name"`
	DataType    string           `yaml:"data_type"`
	Description string           `yaml:"description"`
	Enums       map[string]int64 `yaml:"enums"`

	// MaxSize bounds a variable-length "str" field in bytes. The encoded
	// string ends with a single null byte.
	MaxSize int `yaml:"max_size"`
	// SizePrefix is the unsigned data type ("uint8", "uint16" or "uint32")
	// of the length prefix leading a variable-length "bytes" field.
	SizePrefix string `yaml:"size_prefix"`
	// FixedSize is the exact encoded size in bytes for fixed-length "bytes"
	// and "str" fields. Short values are zero padded.
	FixedSize int `yaml:"fixed_size"`

	Unit string `yaml:"unit"`
}

// EnumValue resolves a named enum value for the field.
func (f *Field) EnumValue(name string) (int64, bool) {
	v, ok := f.Enums[name]
	return v, ok
}

// EnumName resolves a raw value back to its enum name.
func (f *Field) EnumName(value int64) (string, bool) {
	for name, v := range f.Enums {
		if v == value {
			return name, true
		}
	}
	return "", false
}

func (f *Field) validate() error {
	if f.Name == "" {
		return fmt.Errorf("field has no name")
	}
	if !snakeCaseRe.MatchString(f.Name) {
		return fmt.Errorf("field %s: name is not snake_case", f.Name)
	}
	if _, ok := scalarSizes[f.DataType]; ok {
		if f.FixedSize != 0 || f.MaxSize != 0 || f.SizePrefix != "" {
			return fmt.Errorf("field %s: scalar type %s takes no sizing attributes", f.Name, f.DataType)
		}
		return nil
	}
	switch f.DataType {
	case "bytes":
		if (f.FixedSize == 0) == (f.SizePrefix == "") {
			return fmt.Errorf("field %s: bytes needs exactly one of fixed_size or size_prefix", f.Name)
		}
		switch f.SizePrefix {
		case "", "uint8", "uint16", "uint32":
		default:
			return fmt.Errorf("field %s: size_prefix %q is not uint8, uint16 or uint32", f.Name, f.SizePrefix)
		}
		if f.MaxSize != 0 {
			return fmt.Errorf("field %s: max_size does not apply to bytes", f.Name)
		}
	case "str":
		if (f.FixedSize == 0) == (f.MaxSize == 0) {
			return fmt.Errorf("field %s: str needs exactly one of fixed_size or max_size", f.Name)
		}
		if f.SizePrefix != "" {
			return fmt.Errorf("field %s: size_prefix does not apply to str", f.Name)
		}
	default:
		return fmt.Errorf("field %s: unknown data type %q", f.Name, f.DataType)
	}
	return nil
}

var snakeCaseRe = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)

// Command is one entry of the command set: a uid, a name and the request and
// response field lists. Either list may be empty for commands that carry no
// payload in that direction.
type Command struct {
	UID         uint8   `yaml:"uid"`
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Request     []Field `yaml:"request"`
	Response    []Field `yaml:"response"`
}

// EncodeRequest packs values into a request payload, in field order.
func (c *Command) EncodeRequest(values []any) ([]byte, error) {
	return encodeFields(c.Name, "request", c.Request, values)
}

// DecodeRequest unpacks a request payload into one value per field.
func (c *Command) DecodeRequest(raw []byte) ([]any, error) {
	return decodeFields(c.Name, "request", c.Request, raw)
}

// EncodeResponse packs values into a response payload, in field order.
func (c *Command) EncodeResponse(values []any) ([]byte, error) {
	return encodeFields(c.Name, "response", c.Response, values)
}

// DecodeResponse unpacks a response payload into one value per field.
func (c *Command) DecodeResponse(raw []byte) ([]any, error) {
	return decodeFields(c.Name, "response", c.Response, raw)
}

func (c *Command) validate() error {
	if c.Name == "" {
		return fmt.Errorf("command 0x%02X has no name", c.UID)
	}
	if !snakeCaseRe.MatchString(c.Name) {
		return fmt.Errorf("command %s: name is not snake_case", c.Name)
	}
	for part, fields := range map[string][]Field{"request": c.Request, "response": c.Response} {
		seen := make(map[string]struct{}, len(fields))
		for i := range fields {
			f := &fields[i]
			if err := f.validate(); err != nil {
				return fmt.Errorf("command %s %s: %w", c.Name, part, err)
			}
			if _, dup := seen[f.Name]; dup {
				return fmt.Errorf("command %s %s: duplicate field name %s", c.Name, part, f.Name)
			}
			seen[f.Name] = struct{}{}
		}
	}
	return nil
}
