package graph

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrUnserializable is returned when an attribute value falls outside the
// set of types every graph encoding can represent.
var ErrUnserializable = errors.New("unserializable attribute value")

// ValueType names the encoding type of an attribute value.
type ValueType string

const (
	TypeString  ValueType = "string"
	TypeInteger ValueType = "integer"
	TypeReal    ValueType = "real"
	TypeList    ValueType = "list"
)

// Value is an attribute value. The set of implementations is closed:
// String, Integer, Real, StringList and IntegerList.
type Value interface {
	Type() ValueType
	isValue()
}

type (
	String      string
	Integer     int64
	Real        float64
	StringList  []string
	IntegerList []int64
)

func (String) Type() ValueType      { return TypeString }
func (Integer) Type() ValueType     { return TypeInteger }
func (Real) Type() ValueType        { return TypeReal }
func (StringList) Type() ValueType  { return TypeList }
func (IntegerList) Type() ValueType { return TypeList }

func (String) isValue()      {}
func (Integer) isValue()     {}
func (Real) isValue()        {}
func (StringList) isValue()  {}
func (IntegerList) isValue() {}

// ValueOf converts a Go value into an attribute Value.
// Maps, structs, nested lists and other shapes yield ErrUnserializable.
func ValueOf(v any) (Value, error) {
	switch x := v.(type) {
	case Value:
		return x, nil
	case string:
		return String(x), nil
	case int:
		return Integer(x), nil
	case int32:
		return Integer(x), nil
	case int64:
		return Integer(x), nil
	case float32:
		return Real(x), nil
	case float64:
		return Real(x), nil
	case []string:
		return StringList(append([]string(nil), x...)), nil
	case []int:
		out := make(IntegerList, len(x))
		for i, n := range x {
			out[i] = int64(n)
		}
		return out, nil
	case []int64:
		return IntegerList(append([]int64(nil), x...)), nil
	default:
		return nil, errors.Wrapf(ErrUnserializable, "type %T", v)
	}
}

// Attribute is a named attribute value.
type Attribute struct {
	Name  string
	Value Value
}

// Attributes holds extra attributes keyed by name.
type Attributes map[string]Value

// FormatValue renders scalar values as text; list values render their
// items joined by commas.
func FormatValue(v Value) string {
	switch x := v.(type) {
	case String:
		return string(x)
	case Integer:
		return fmt.Sprintf("%d", int64(x))
	case Real:
		return fmt.Sprintf("%g", float64(x))
	case StringList:
		return fmt.Sprint([]string(x))
	case IntegerList:
		return fmt.Sprint([]int64(x))
	default:
		return ""
	}
}
