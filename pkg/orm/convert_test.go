package orm

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseType(t *testing.T) {
	tests := []struct {
		ddl  string
		want string
	}{
		{"varchar(255)", "varchar"},
		{"VARCHAR(50)", "varchar"},
		{"bigint unsigned", "bigint"},
		{"tinyint(1)", "tinyint(1)"},
		{"tinyint(4)", "tinyint"},
		{" real ", "real"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.ddl, func(t *testing.T) {
			assert.Equal(t, tt.want, baseType(tt.ddl))
		})
	}
}

func TestConvertValue(t *testing.T) {
	tests := []struct {
		name  string
		field *Field
		in    any
		want  any
	}{
		{"nil stays nil", IntegerField(), nil, nil},
		{"int to int64", IntegerField(), 5, int64(5)},
		{"integral float to int64", IntegerField(), float64(12), int64(12)},
		{"numeric string to int64", IntegerField(), "42", int64(42)},
		{"bytes to int64", IntegerField(), []byte("7"), int64(7)},
		{"bool to int64", IntegerField(), true, int64(1)},
		{"int64 to float64", FloatField(), int64(3), float64(3)},
		{"string to float64", FloatField(), "1.5", 1.5},
		{"int64 to bool", BooleanField(), int64(1), true},
		{"zero to bool", BooleanField(), int64(0), false},
		{"string to bool", BooleanField(), "true", true},
		{"tinyint(1) as bool", BooleanField(DDL("tinyint(1)")), []byte("1"), true},
		{"bytes to string", StringField(), []byte("hi"), "hi"},
		{"int to string", TextField(), int64(9), "9"},
		{"string to bytes", BlobField(), "raw", []byte("raw")},
		{"unknown type passes through", NewField(DDL("json")), map[string]any{"a": 1}, map[string]any{"a": 1}},
		{"no ddl passes through", NewField(), 3, 3},
		{"json number to int64 keeps precision", IntegerField(), json.Number("9007199254740993"), int64(9007199254740993)},
		{"json exponent to int64", IntegerField(), json.Number("1e3"), int64(1000)},
		{"json number to float64", FloatField(), json.Number("2.25"), 2.25},
		{"json number to string", StringField(), json.Number("12"), "12"},
		{"json number to bool", BooleanField(), json.Number("1"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConvertValue(tt.field, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConvertValueErrors(t *testing.T) {
	tests := []struct {
		name  string
		field *Field
		in    any
	}{
		{"fractional float to int", IntegerField(), 1.5},
		{"word to int", IntegerField(Name("age")), "old"},
		{"word to bool", BooleanField(), "maybe"},
		{"struct to string", StringField(), struct{}{}},
		{"int to bytes", BlobField(), 5},
		{"uint64 overflow", IntegerField(), ^uint64(0)},
		{"float at 2^63", IntegerField(), float64(1 << 63)},
		{"float below -2^63", IntegerField(), -0x1p64},
		{"json number overflow", IntegerField(), json.Number("9223372036854775808")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ConvertValue(tt.field, tt.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConvert))
		})
	}
}

func TestConvertJSONValue(t *testing.T) {
	tests := []struct {
		name  string
		field *Field
		in    any
		want  any
	}{
		{"base64 to bytes", BlobField(), "aGVsbG8=", []byte("hello")},
		{"empty base64", BlobField(), "", []byte{}},
		{"string column unchanged", StringField(), "aGVsbG8=", "aGVsbG8="},
		{"bigint keeps precision", IntegerField(), json.Number("9007199254740993"), int64(9007199254740993)},
		{"integral number for untyped column", NewField(), json.Number("7"), int64(7)},
		{"fractional number for untyped column", NewField(DDL("decimal(10,2)")), json.Number("7.5"), 7.5},
		{"nil stays nil", BlobField(Nullable()), nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConvertJSONValue(tt.field, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConvertJSONValueInvalidBase64(t *testing.T) {
	_, err := ConvertJSONValue(BlobField(Name("body")), "not base64!")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConvert))
	assert.Contains(t, err.Error(), `"body"`)
}
