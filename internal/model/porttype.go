package model

import (
	"fmt"
	"math/big"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// PortType is the declared type of a pipeline input, a job output or a
// component port.
type PortType string

const (
	TypeString      PortType = "string"
	TypeInteger     PortType = "integer"
	TypeNumber      PortType = "number"
	TypeBoolean     PortType = "boolean"
	TypeFile        PortType = "uri_file"
	TypeFolder      PortType = "uri_folder"
	TypeTable       PortType = "mltable"
	TypeCustomModel PortType = "custom_model"
	TypeMLflowModel PortType = "mlflow_model"
	TypeTritonModel PortType = "triton_model"

	// TypeUnknown marks a port whose type could not be determined, typically
	// because the owning component is not in the catalog. It accepts any binding.
	TypeUnknown PortType = ""
)

// Kind groups port types by the shape of data they carry.
type Kind int

const (
	KindUnknown Kind = iota
	KindScalar
	KindFile
	KindFolder
	KindTable
	KindModel
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindFile:
		return "file"
	case KindFolder:
		return "folder"
	case KindTable:
		return "table"
	case KindModel:
		return "model"
	default:
		return "unknown"
	}
}

// ParsePortType maps a manifest type keyword to a PortType.
func ParsePortType(s string) (PortType, error) {
	switch t := PortType(s); t {
	case TypeString, TypeInteger, TypeNumber, TypeBoolean,
		TypeFile, TypeFolder, TypeTable,
		TypeCustomModel, TypeMLflowModel, TypeTritonModel:
		return t, nil
	}
	return TypeUnknown, fmt.Errorf("unknown port type %q", s)
}

// Kind returns the data shape of the port type.
func (t PortType) Kind() Kind {
	switch t {
	case TypeString, TypeInteger, TypeNumber, TypeBoolean:
		return KindScalar
	case TypeFile:
		return KindFile
	case TypeFolder:
		return KindFolder
	case TypeTable:
		return KindTable
	case TypeCustomModel, TypeMLflowModel, TypeTritonModel:
		return KindModel
	default:
		return KindUnknown
	}
}

// IsScalar reports whether values of this type are plain literals.
func (t PortType) IsScalar() bool {
	return t.Kind() == KindScalar
}

func (t PortType) String() string {
	if t == TypeUnknown {
		return "unknown"
	}
	return string(t)
}

// CtyType returns the cty type used to hold values of the port. Asset ports
// carry their path or URI as a string.
func (t PortType) CtyType() cty.Type {
	switch t {
	case TypeInteger, TypeNumber:
		return cty.Number
	case TypeBoolean:
		return cty.Bool
	case TypeUnknown:
		return cty.DynamicPseudoType
	default:
		return cty.String
	}
}

// Accepts reports whether a value produced with type src may be bound to a
// port of type t.
func (t PortType) Accepts(src PortType) bool {
	if t == TypeUnknown || src == TypeUnknown || t == src {
		return true
	}
	return t == TypeNumber && src == TypeInteger
}

// Convert coerces a literal value into the representation of the port type.
// Scalar conversion follows cty's safe conversion rules, so "5" is accepted
// for an integer port but "five" is not.
func (t PortType) Convert(v cty.Value) (cty.Value, error) {
	if t == TypeUnknown || v.IsNull() {
		return v, nil
	}
	out, err := convert.Convert(v, t.CtyType())
	if err != nil {
		return cty.NilVal, fmt.Errorf("cannot use %s value as %s: %w", v.Type().FriendlyName(), t, err)
	}
	if t == TypeInteger && out.IsKnown() {
		if !out.AsBigFloat().IsInt() {
			return cty.NilVal, fmt.Errorf("cannot use %s as integer: not a whole number", FormatValue(out))
		}
	}
	return out, nil
}

// FormatValue renders a primitive cty value the way it would appear on a
// command line.
func FormatValue(v cty.Value) string {
	if v.IsNull() || !v.IsKnown() {
		return ""
	}
	switch v.Type() {
	case cty.String:
		return v.AsString()
	case cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			i, _ := bf.Int(nil)
			return i.String()
		}
		return bf.Text('g', -1)
	case cty.Bool:
		if v.True() {
			return "true"
		}
		return "false"
	default:
		return v.GoString()
	}
}

// NumberValue is a small helper for building numeric values in tests and
// defaults.
func NumberValue(f float64) cty.Value {
	return cty.NumberVal(new(big.Float).SetFloat64(f))
}
