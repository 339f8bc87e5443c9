package schema

import (
	"fmt"
	"math"
	"strconv"

	"github.com/specialistvlad/pipegraph/internal/model"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"
)

// Entry is one key/value pair of a mapping node.
type Entry struct {
	Key   *yaml.Node
	Value *yaml.Node
}

// Parse decodes a YAML document and returns its root content node. An empty
// document yields nil.
func Parse(src []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil
	}
	return Deref(doc.Content[0]), nil
}

// Deref follows alias nodes to their anchor.
func Deref(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

// IsAbsent reports whether a node was not present or holds an explicit null.
func IsAbsent(n *yaml.Node) bool {
	n = Deref(n)
	return n == nil || n.Kind == 0 || (n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null")
}

// Entries lists the pairs of a mapping node in document order. Keys are
// returned as written, duplicates included.
func Entries(n *yaml.Node) []Entry {
	n = Deref(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	out := make([]Entry, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		out = append(out, Entry{Key: n.Content[i], Value: Deref(n.Content[i+1])})
	}
	return out
}

// Lookup returns the value stored under key in a mapping node.
func Lookup(n *yaml.Node, key string) (*yaml.Node, bool) {
	for _, e := range Entries(n) {
		if e.Key.Value == key {
			return e.Value, true
		}
	}
	return nil, false
}

// KindName describes a node for error messages.
func KindName(n *yaml.Node) string {
	n = Deref(n)
	switch {
	case IsAbsent(n):
		return "null"
	case n.Kind == yaml.MappingNode:
		return "mapping"
	case n.Kind == yaml.SequenceNode:
		return "sequence"
	default:
		return "scalar"
	}
}

// Literal converts a scalar node into a cty value and infers its port type
// from the YAML tag. Null nodes yield a null value of unknown type.
func Literal(n *yaml.Node) (cty.Value, model.PortType, error) {
	n = Deref(n)
	if IsAbsent(n) {
		return cty.NullVal(cty.DynamicPseudoType), model.TypeUnknown, nil
	}
	if n.Kind != yaml.ScalarNode {
		return cty.NilVal, model.TypeUnknown, fmt.Errorf("expected a scalar, got %s", KindName(n))
	}

	switch n.ShortTag() {
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return cty.NilVal, model.TypeUnknown, err
		}
		return cty.BoolVal(b), model.TypeBoolean, nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return cty.NilVal, model.TypeUnknown, err
		}
		return cty.NumberIntVal(i), model.TypeInteger, nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return cty.NilVal, model.TypeUnknown, err
		}
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return cty.NilVal, model.TypeUnknown, fmt.Errorf("number %s is not finite", n.Value)
		}
		v, err := cty.ParseNumberVal(strconv.FormatFloat(f, 'g', -1, 64))
		if err != nil {
			return cty.NilVal, model.TypeUnknown, err
		}
		return v, model.TypeNumber, nil
	default:
		return cty.StringVal(n.Value), model.TypeString, nil
	}
}

// Decode decodes a node into out, reporting failures with the node's line.
func Decode(n *yaml.Node, out any) error {
	n = Deref(n)
	if IsAbsent(n) {
		return nil
	}
	return n.Decode(out)
}
