package edl

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

var scalarSizes = map[string]int{
	"bool":    1,
	"int8":    1,
	"uint8":   1,
	"int16":   2,
	"uint16":  2,
	"int32":   4,
	"uint32":  4,
	"float32": 4,
	"int64":   8,
	"uint64":  8,
	"float64": 8,
}

func allScalar(fields []Field) bool {
	for i := range fields {
		if _, ok := scalarSizes[fields[i].DataType]; !ok {
			return false
		}
	}
	return true
}

func fixedWidth(fields []Field) int {
	total := 0
	for i := range fields {
		total += scalarSizes[fields[i].DataType]
	}
	return total
}

func encodeFields(command, part string, fields []Field, values []any) ([]byte, error) {
	if len(values) != len(fields) {
		return nil, &EncodeError{Command: command, Part: part,
			Msg: fmt.Sprintf("got %d values, want %d", len(values), len(fields))}
	}
	var buf bytes.Buffer
	for i := range fields {
		if err := encodeField(&buf, &fields[i], values[i]); err != nil {
			return nil, &EncodeError{Command: command, Part: part, Field: fields[i].Name, Msg: err.Error()}
		}
	}
	return buf.Bytes(), nil
}

func encodeField(buf *bytes.Buffer, f *Field, v any) error {
	if size, ok := scalarSizes[f.DataType]; ok {
		return encodeScalar(buf, f.DataType, size, v)
	}
	switch f.DataType {
	case "bytes":
		b, ok := v.([]byte)
		if !ok {
			return fmt.Errorf("want []byte, got %T", v)
		}
		if f.SizePrefix != "" {
			// The length prefix counts bits, not bytes. The radio side of
			// the protocol has always framed it that way.
			err := encodeScalar(buf, f.SizePrefix, scalarSizes[f.SizePrefix], uint64(len(b))*8)
			if err != nil {
				return err
			}
			buf.Write(b)
			return nil
		}
		if len(b) > f.FixedSize {
			return fmt.Errorf("%d bytes does not fit fixed size %d", len(b), f.FixedSize)
		}
		buf.Write(b)
		buf.Write(make([]byte, f.FixedSize-len(b)))
		return nil
	case "str":
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("want string, got %T", v)
		}
		if f.MaxSize > 0 {
			buf.WriteString(s)
			buf.WriteByte(0)
			return nil
		}
		if len(s) > f.FixedSize {
			return fmt.Errorf("%d bytes does not fit fixed size %d", len(s), f.FixedSize)
		}
		buf.WriteString(s)
		buf.Write(make([]byte, f.FixedSize-len(s)))
		return nil
	}
	return fmt.Errorf("unsupported data type %q", f.DataType)
}

func encodeScalar(buf *bytes.Buffer, dataType string, size int, v any) error {
	switch dataType {
	case "bool":
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("want bool, got %T", v)
		}
		if b {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
		return nil
	case "float32":
		f, err := toFloat64(v)
		if err != nil {
			return err
		}
		writeLE(buf, uint64(math.Float32bits(float32(f))), size)
		return nil
	case "float64":
		f, err := toFloat64(v)
		if err != nil {
			return err
		}
		writeLE(buf, math.Float64bits(f), size)
		return nil
	}
	if strings.HasPrefix(dataType, "int") {
		n, err := toInt64(v)
		if err != nil {
			return err
		}
		if size < 8 {
			lo, hi := int64(-1)<<(size*8-1), int64(1)<<(size*8-1)-1
			if n < lo || n > hi {
				return fmt.Errorf("value %d out of range for %s", n, dataType)
			}
		}
		writeLE(buf, uint64(n), size)
		return nil
	}
	u, err := toUint64(v)
	if err != nil {
		return err
	}
	if size < 8 && u > uint64(1)<<(size*8)-1 {
		return fmt.Errorf("value %d out of range for %s", u, dataType)
	}
	writeLE(buf, u, size)
	return nil
}

func writeLE(buf *bytes.Buffer, u uint64, size int) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], u)
	buf.Write(tmp[:size])
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("value %d overflows int64", n)
		}
		return int64(n), nil
	}
	return 0, fmt.Errorf("want integer, got %T", v)
}

func toUint64(v any) (uint64, error) {
	switch n := v.(type) {
	case uint:
		return uint64(n), nil
	case uint8:
		return uint64(n), nil
	case uint16:
		return uint64(n), nil
	case uint32:
		return uint64(n), nil
	case uint64:
		return n, nil
	case int:
		if n < 0 {
			return 0, fmt.Errorf("negative value %d for unsigned field", n)
		}
		return uint64(n), nil
	case int64:
		if n < 0 {
			return 0, fmt.Errorf("negative value %d for unsigned field", n)
		}
		return uint64(n), nil
	}
	return 0, fmt.Errorf("want unsigned integer, got %T", v)
}

func toFloat64(v any) (float64, error) {
	switch f := v.(type) {
	case float32:
		return float64(f), nil
	case float64:
		return f, nil
	}
	return 0, fmt.Errorf("want float, got %T", v)
}

func decodeFields(command, part string, fields []Field, raw []byte) ([]any, error) {
	if len(fields) > 0 && len(raw) == 0 {
		return nil, &DecodeError{Command: command, Part: part, Msg: "empty payload"}
	}
	// Payloads made only of fixed-width scalars must match the schema width
	// exactly. Variable payloads are walked field by field instead.
	if allScalar(fields) {
		if want := fixedWidth(fields); len(raw) != want {
			return nil, &DecodeError{Command: command, Part: part,
				Msg: fmt.Sprintf("payload is %d bytes, want %d", len(raw), want)}
		}
	}
	values := make([]any, 0, len(fields))
	offset := 0
	for i := range fields {
		v, n, err := decodeField(&fields[i], raw[offset:])
		if err != nil {
			return nil, &DecodeError{Command: command, Part: part, Field: fields[i].Name, Msg: err.Error()}
		}
		values = append(values, v)
		offset += n
	}
	return values, nil
}

func decodeField(f *Field, raw []byte) (any, int, error) {
	if size, ok := scalarSizes[f.DataType]; ok {
		if len(raw) < size {
			return nil, 0, fmt.Errorf("%d bytes left, want %d", len(raw), size)
		}
		return decodeScalar(f.DataType, size, raw), size, nil
	}
	switch f.DataType {
	case "bytes":
		if f.SizePrefix != "" {
			psize := scalarSizes[f.SizePrefix]
			if len(raw) < psize {
				return nil, 0, fmt.Errorf("%d bytes left, want %d byte size prefix", len(raw), psize)
			}
			n := int(readLE(raw, psize) / 8)
			if len(raw) < psize+n {
				return nil, 0, fmt.Errorf("%d bytes left, size prefix says %d", len(raw)-psize, n)
			}
			return bytes.Clone(raw[psize : psize+n]), psize + n, nil
		}
		if len(raw) < f.FixedSize {
			return nil, 0, fmt.Errorf("%d bytes left, want %d", len(raw), f.FixedSize)
		}
		return bytes.Clone(raw[:f.FixedSize]), f.FixedSize, nil
	case "str":
		if f.MaxSize > 0 {
			i := bytes.IndexByte(raw, 0)
			if i < 0 {
				return nil, 0, fmt.Errorf("string terminator not found in %d bytes", len(raw))
			}
			return string(raw[:i]), i + 1, nil
		}
		if len(raw) < f.FixedSize {
			return nil, 0, fmt.Errorf("%d bytes left, want %d", len(raw), f.FixedSize)
		}
		return strings.TrimRight(string(raw[:f.FixedSize]), "\x00"), f.FixedSize, nil
	}
	return nil, 0, fmt.Errorf("unsupported data type %q", f.DataType)
}

func decodeScalar(dataType string, size int, raw []byte) any {
	u := readLE(raw, size)
	switch dataType {
	case "bool":
		return u != 0
	case "int8":
		return int8(u)
	case "int16":
		return int16(u)
	case "int32":
		return int32(u)
	case "int64":
		return int64(u)
	case "uint8":
		return uint8(u)
	case "uint16":
		return uint16(u)
	case "uint32":
		return uint32(u)
	case "uint64":
		return u
	case "float32":
		return math.Float32frombits(uint32(u))
	case "float64":
		return math.Float64frombits(u)
	}
	return nil
}

func readLE(raw []byte, size int) uint64 {
	var tmp [8]byte
	copy(tmp[:], raw[:size])
	return binary.LittleEndian.Uint64(tmp[:])
}
