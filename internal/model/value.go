package model

import "github.com/zclconf/go-cty/cty"

// Value is a literal assigned to a port: a scalar, or the path/URI of an
// asset together with its declared type and mount mode.
type Value struct {
	Type PortType
	Val  cty.Value
	// Mode is the optional asset access mode (ro_mount, download, ...).
	Mode string
}

// StringValue builds a string-typed literal.
func StringValue(s string) Value {
	return Value{Type: TypeString, Val: cty.StringVal(s)}
}

// IsNull reports whether the value carries no data.
func (v Value) IsNull() bool {
	return v.Val.IsNull()
}

func (v Value) String() string {
	if v.IsNull() {
		return "null"
	}
	return FormatValue(v.Val)
}

// Equal compares type, mode and payload.
func (v Value) Equal(other Value) bool {
	if v.Type != other.Type || v.Mode != other.Mode {
		return false
	}
	if v.IsNull() || other.IsNull() {
		return v.IsNull() == other.IsNull()
	}
	return v.Val.RawEquals(other.Val)
}
