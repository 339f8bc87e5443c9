package catalog

import (
	"fmt"

	"github.com/specialistvlad/pipegraph/internal/command"
	"github.com/specialistvlad/pipegraph/internal/fieldpath"
	"github.com/specialistvlad/pipegraph/internal/model"
	"github.com/specialistvlad/pipegraph/internal/schema"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// ParseComponent decodes a component spec document.
func ParseComponent(src []byte, source string) (*model.ComponentSpec, error) {
	root, err := schema.Parse(src)
	if err != nil {
		return nil, &model.SchemaError{Reason: err.Error()}
	}
	if root == nil {
		return nil, &model.SchemaError{Reason: "empty component document"}
	}
	return DecodeComponent(root, source)
}

// DecodeComponent builds a ComponentSpec from a component mapping, checking
// port declarations and the command template. All problems found are
// returned together.
func DecodeComponent(root *yaml.Node, source string) (*model.ComponentSpec, error) {
	if root.Kind != yaml.MappingNode {
		return nil, &model.SchemaError{Location: model.Location{Line: root.Line}, Reason: "component must be a mapping, got " + schema.KindName(root)}
	}
	var doc schema.ComponentDoc
	if err := schema.Decode(root, &doc); err != nil {
		return nil, &model.SchemaError{Location: model.Location{Line: root.Line}, Reason: err.Error()}
	}

	spec := &model.ComponentSpec{
		Name:        doc.Name,
		Version:     doc.Version,
		Type:        doc.Type,
		DisplayName: doc.DisplayName,
		Command:     doc.Command,
		Source:      source,
		Inputs:      make(map[string]*model.Port),
		Outputs:     make(map[string]*model.Port),
	}
	if spec.Type == "" {
		spec.Type = "command"
	}
	if doc.Environment.Kind == yaml.ScalarNode {
		spec.Environment = doc.Environment.Value
	}

	var errs error
	for _, section := range []struct {
		key string
		n   *yaml.Node
	}{{"inputs", &doc.Inputs}, {"outputs", &doc.Outputs}} {
		key, n := section.key, section.n
		if !schema.IsAbsent(n) && schema.Deref(n).Kind != yaml.MappingNode {
			errs = multierr.Append(errs, &model.SchemaError{
				Location: model.Location{Path: fieldpath.New(key), Line: n.Line},
				Reason:   key + " must be a mapping, got " + schema.KindName(n),
			})
		}
	}
	for _, e := range schema.Entries(&doc.Inputs) {
		port, err := decodePort(e, fieldpath.New("inputs", e.Key.Value), true)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		spec.Inputs[port.Name] = port
		spec.InputOrder = append(spec.InputOrder, port.Name)
	}
	for _, e := range schema.Entries(&doc.Outputs) {
		port, err := decodePort(e, fieldpath.New("outputs", e.Key.Value), false)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		spec.Outputs[port.Name] = port
		spec.OutputOrder = append(spec.OutputOrder, port.Name)
	}
	if errs != nil {
		return nil, errs
	}

	if spec.Command != "" {
		if err := validateCommand(spec, root); err != nil {
			return nil, err
		}
	}
	return spec, nil
}

func decodePort(e schema.Entry, path fieldpath.Path, isInput bool) (*model.Port, error) {
	loc := model.Location{Path: path, Line: e.Key.Line}
	if e.Value.Kind != yaml.MappingNode {
		return nil, &model.SchemaError{Location: loc, Reason: "port must be a mapping with a type, got " + schema.KindName(e.Value)}
	}
	var doc schema.PortDoc
	if err := schema.Decode(e.Value, &doc); err != nil {
		return nil, &model.SchemaError{Location: loc, Reason: err.Error()}
	}
	typ, err := model.ParsePortType(doc.Type)
	if err != nil {
		return nil, &model.SchemaError{Location: loc, Reason: err.Error()}
	}

	port := &model.Port{
		Name:        e.Key.Value,
		Type:        typ,
		Optional:    doc.Optional,
		Enum:        doc.Enum,
		Description: doc.Description,
	}
	if len(port.Enum) > 0 && typ != model.TypeString {
		return nil, &model.SchemaError{Location: loc, Reason: fmt.Sprintf("enum is only allowed on string ports, not %s", typ)}
	}
	if !isInput || schema.IsAbsent(&doc.Default) {
		return port, nil
	}

	defLoc := model.Location{Path: path.Child("default"), Line: doc.Default.Line}
	raw, rawType, err := schema.Literal(&doc.Default)
	if err != nil {
		return nil, &model.SchemaError{Location: defLoc, Reason: err.Error()}
	}
	val, err := schema.Coerce(raw, rawType, typ, port.Enum, defLoc)
	if err != nil {
		return nil, err
	}
	port.Default = &val
	return port, nil
}

func validateCommand(spec *model.ComponentSpec, root *yaml.Node) error {
	loc := model.Location{Path: fieldpath.New("command")}
	if n, ok := schema.Lookup(root, "command"); ok {
		loc.Line = n.Line
	}
	tmpl, err := command.Parse(spec.Command)
	if err != nil {
		return &model.SchemaError{Location: loc, Reason: err.Error()}
	}

	ports := command.PortSet{
		Inputs:  make(map[string]command.PortInfo, len(spec.Inputs)),
		Outputs: make(map[string]struct{}, len(spec.Outputs)),
	}
	for name, p := range spec.Inputs {
		ports.Inputs[name] = command.PortInfo{MayBeAbsent: p.Optional && p.Default == nil}
	}
	for name := range spec.Outputs {
		ports.Outputs[name] = struct{}{}
	}

	var errs error
	for _, e := range tmpl.Validate(ports) {
		errs = multierr.Append(errs, &model.SchemaError{Location: loc, Reason: e.Error()})
	}
	return errs
}
