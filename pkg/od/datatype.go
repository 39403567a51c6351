package od

import (
	"fmt"
	"math"
)

// DataType identifies a CANopen data type. Values match the type codes from
// CiA 301 (the indexes of the static data type objects).
type DataType uint8

const (
	TypeBool    DataType = 0x01
	TypeInt8    DataType = 0x02
	TypeInt16   DataType = 0x03
	TypeInt32   DataType = 0x04
	TypeUint8   DataType = 0x05
	TypeUint16  DataType = 0x06
	TypeUint32  DataType = 0x07
	TypeFloat32 DataType = 0x08
	TypeStr     DataType = 0x09 // visible string
	TypeOctetStr DataType = 0x0A
	TypeDomain  DataType = 0x0F
	TypeFloat64 DataType = 0x11
	TypeInt64   DataType = 0x15
	TypeUint64  DataType = 0x1B
)

// typeNames maps configuration type names to data types. The names are the
// vocabulary used by all YAML/JSON configuration documents.
var typeNames = map[string]DataType{
	"bool":      TypeBool,
	"int8":      TypeInt8,
	"int16":     TypeInt16,
	"int32":     TypeInt32,
	"int64":     TypeInt64,
	"uint8":     TypeUint8,
	"uint16":    TypeUint16,
	"uint32":    TypeUint32,
	"uint64":    TypeUint64,
	"float32":   TypeFloat32,
	"float64":   TypeFloat64,
	"str":       TypeStr,
	"octet_str": TypeOctetStr,
	"domain":    TypeDomain,
}

// ParseDataType resolves a configuration type name like "uint8" or
// "octet_str" to a DataType.
func ParseDataType(name string) (DataType, error) {
	dt, ok := typeNames[name]
	if !ok {
		return 0, fmt.Errorf("unknown data type %q", name)
	}
	return dt, nil
}

// String returns the configuration name of the data type.
func (dt DataType) String() string {
	for name, t := range typeNames {
		if t == dt {
			return name
		}
	}
	return fmt.Sprintf("DataType(0x%02X)", uint8(dt))
}

// BitSize returns the canonical bit width of the data type, or 0 for the
// dynamic-length types (str, octet_str, domain).
func (dt DataType) BitSize() int {
	switch dt {
	case TypeBool, TypeInt8, TypeUint8:
		return 8
	case TypeInt16, TypeUint16:
		return 16
	case TypeInt32, TypeUint32, TypeFloat32:
		return 32
	case TypeInt64, TypeUint64, TypeFloat64:
		return 64
	default:
		return 0
	}
}

// Zero returns the canonical zero value of the data type. Signed integers
// normalize to int64, unsigned to uint64.
func (dt DataType) Zero() any {
	switch {
	case dt == TypeBool:
		return false
	case dt.IsSigned():
		return int64(0)
	case dt.IsUnsigned():
		return uint64(0)
	case dt.IsFloat():
		return float64(0)
	case dt == TypeStr:
		return ""
	case dt == TypeOctetStr:
		return []byte{}
	default: // domain
		return nil
	}
}

// Range returns the representable numeric range of an integer data type.
// ok is false for non-integer types.
func (dt DataType) Range() (lo int64, hi uint64, ok bool) {
	switch dt {
	case TypeInt8:
		return math.MinInt8, math.MaxInt8, true
	case TypeInt16:
		return math.MinInt16, math.MaxInt16, true
	case TypeInt32:
		return math.MinInt32, math.MaxInt32, true
	case TypeInt64:
		return math.MinInt64, math.MaxInt64, true
	case TypeUint8:
		return 0, math.MaxUint8, true
	case TypeUint16:
		return 0, math.MaxUint16, true
	case TypeUint32:
		return 0, math.MaxUint32, true
	case TypeUint64:
		return 0, math.MaxUint64, true
	}
	return 0, 0, false
}

// IsSigned reports whether the data type is a signed integer.
func (dt DataType) IsSigned() bool {
	switch dt {
	case TypeInt8, TypeInt16, TypeInt32, TypeInt64:
		return true
	}
	return false
}

// IsUnsigned reports whether the data type is an unsigned integer.
func (dt DataType) IsUnsigned() bool {
	switch dt {
	case TypeUint8, TypeUint16, TypeUint32, TypeUint64:
		return true
	}
	return false
}

// IsInteger reports whether the data type is a signed or unsigned integer.
func (dt DataType) IsInteger() bool {
	return dt.IsSigned() || dt.IsUnsigned()
}

// IsFloat reports whether the data type is a floating point type.
func (dt DataType) IsFloat() bool {
	return dt == TypeFloat32 || dt == TypeFloat64
}

// IsDynamicLength reports whether the data type has no fixed bit width.
// Dynamic-length values can never be mapped into a PDO.
func (dt DataType) IsDynamicLength() bool {
	switch dt {
	case TypeStr, TypeOctetStr, TypeDomain:
		return true
	}
	return false
}

// Normalize coerces v into the canonical Go representation for the data
// type: int64 for signed integers, uint64 for unsigned, float64 for floats,
// bool, string and []byte otherwise. Decoded configuration and cache values
// arrive as assorted Go types depending on the source format; normalizing
// once here keeps equality checks and serialization deterministic.
func (dt DataType) Normalize(v any) (any, error) {
	if v == nil {
		return dt.Zero(), nil
	}
	switch {
	case dt == TypeBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case dt.IsSigned():
		if i, ok := toInt64(v); ok {
			if lo, hi, _ := dt.Range(); i >= lo && (i < 0 || uint64(i) <= hi) {
				return i, nil
			}
			return nil, fmt.Errorf("value %d out of range for %s", i, dt)
		}
	case dt.IsUnsigned():
		if u, ok := toUint64(v); ok {
			if _, hi, _ := dt.Range(); u <= hi {
				return u, nil
			}
			return nil, fmt.Errorf("value %d out of range for %s", u, dt)
		}
	case dt.IsFloat():
		if f, ok := toFloat64(v); ok {
			return f, nil
		}
	case dt == TypeStr:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case dt == TypeOctetStr:
		if b, ok := v.([]byte); ok {
			return b, nil
		}
	case dt == TypeDomain:
		return nil, nil
	}
	return nil, fmt.Errorf("value %v (%T) is not a valid %s", v, v, dt)
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		if n <= math.MaxInt64 {
			return int64(n), true
		}
	case float64:
		if n == math.Trunc(n) {
			return int64(n), true
		}
	}
	return 0, false
}

func toUint64(v any) (uint64, bool) {
	switch n := v.(type) {
	case int:
		if n >= 0 {
			return uint64(n), true
		}
	case int64:
		if n >= 0 {
			return uint64(n), true
		}
	case uint:
		return uint64(n), true
	case uint8:
		return uint64(n), true
	case uint16:
		return uint64(n), true
	case uint32:
		return uint64(n), true
	case uint64:
		return n, true
	case float64:
		if n >= 0 && n == math.Trunc(n) {
			return uint64(n), true
		}
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
