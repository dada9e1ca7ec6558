package orm

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// baseType reduces a column type clause to its lower-case base name, e.g.
// "VARCHAR(255)" to "varchar" and "bigint unsigned" to "bigint". tinyint(1)
// is kept whole since it is the conventional boolean column.
func baseType(ddl string) string {
	t := strings.ToLower(strings.TrimSpace(ddl))
	if strings.HasPrefix(t, "tinyint(1)") {
		return "tinyint(1)"
	}
	if i := strings.IndexAny(t, "( "); i > 0 {
		t = t[:i]
	}
	return t
}

// ConvertValue coerces v, as read from a driver or decoded from JSON, into
// the Go type that matches f's column type: int64 for integer columns,
// float64 for real columns, bool, string, or []byte. NULL stays nil and
// values of unrecognized column types pass through unchanged.
func ConvertValue(f *Field, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	var (
		out any
		err error
	)
	switch columnClasses[baseType(f.ddl)] {
	case classInt:
		out, err = toInt64(v)
	case classFloat:
		out, err = toFloat64(v)
	case classBool:
		out, err = toBool(v)
	case classString:
		out, err = toString(v)
	case classBytes:
		out, err = toBytes(v)
	default:
		return v, nil
	}
	if err != nil {
		return nil, convertError(f, err)
	}
	return out, nil
}

// ConvertJSONValue is ConvertValue for values decoded from JSON with
// json.Decoder.UseNumber. Strings bound for binary columns hold base64, the
// encoding Record.MarshalJSON writes []byte values in. Numbers for columns
// of unrecognized type become int64 when integral and float64 otherwise.
func ConvertJSONValue(f *Field, v any) (any, error) {
	switch x := v.(type) {
	case string:
		if columnClasses[baseType(f.ddl)] == classBytes {
			b, err := base64.StdEncoding.DecodeString(x)
			if err != nil {
				return nil, convertError(f, err)
			}
			return b, nil
		}
	case json.Number:
		if _, known := columnClasses[baseType(f.ddl)]; !known {
			if i, err := x.Int64(); err == nil {
				return i, nil
			}
			fv, err := x.Float64()
			if err != nil {
				return nil, convertError(f, err)
			}
			return fv, nil
		}
	}
	return ConvertValue(f, v)
}

func convertError(f *Field, err error) error {
	return fmt.Errorf("%w: field %q (%s): %v", ErrConvert, f.name, f.ddl, err)
}

type columnClass int

const (
	classInt columnClass = iota + 1
	classFloat
	classBool
	classString
	classBytes
)

// columnClasses maps base column types to the Go type values are coerced to.
var columnClasses = map[string]columnClass{
	"bigint": classInt, "int": classInt, "integer": classInt,
	"smallint": classInt, "mediumint": classInt, "tinyint": classInt,
	"real": classFloat, "float": classFloat, "double": classFloat,
	"bool": classBool, "boolean": classBool, "tinyint(1)": classBool,
	"varchar": classString, "char": classString, "text": classString,
	"tinytext": classString, "mediumtext": classString, "longtext": classString,
	"blob": classBytes, "tinyblob": classBytes, "mediumblob": classBytes,
	"longblob": classBytes, "binary": classBytes, "varbinary": classBytes,
}

func toInt64(value any) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("%d overflows int64", v)
		}
		return int64(v), nil
	case float32:
		return floatToInt64(float64(v))
	case float64:
		return floatToInt64(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		f, err := v.Float64()
		if err != nil {
			return 0, err
		}
		return floatToInt64(f)
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	case []byte:
		return strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to int64", value)
	}
}

func floatToInt64(f float64) (int64, error) {
	if f != math.Trunc(f) || f >= 0x1p63 || f < -0x1p63 {
		return 0, fmt.Errorf("%v is not an integer", f)
	}
	return int64(f), nil
}

func toFloat64(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	case []byte:
		return strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to float64", value)
	}
}

func toBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case int64:
		return v != 0, nil
	case int:
		return v != 0, nil
	case float64:
		return v != 0, nil
	case json.Number:
		return parseBool(string(v))
	case string:
		return parseBool(v)
	case []byte:
		return parseBool(string(v))
	default:
		return false, fmt.Errorf("cannot convert %T to bool", value)
	}
}

func parseBool(s string) (bool, error) {
	s = strings.TrimSpace(s)
	if b, err := strconv.ParseBool(s); err == nil {
		return b, nil
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return false, fmt.Errorf("cannot convert %q to bool", s)
	}
	return i != 0, nil
}

func toString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case json.Number:
		return v.String(), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v), nil
	case float32, float64:
		return fmt.Sprintf("%g", v), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", fmt.Errorf("cannot convert %T to string", value)
	}
}

func toBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("cannot convert %T to []byte", value)
	}
}
