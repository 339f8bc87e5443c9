package model

import (
	"fmt"
	"regexp"
)

// SystemRegistry is the registry that hosts platform-provided components.
const SystemRegistry = "azureml"

// LatestLabel selects the highest available version of a component.
const LatestLabel = "latest"

var (
	registryRefRegex  = regexp.MustCompile(`^azureml://registries/([^/]+)/components/([^/]+)/(?:versions/([^/]+)|labels/([^/]+))$`)
	workspaceRefRegex = regexp.MustCompile(`^(?:azureml:)?([^:@/]+)(?::([^:@/]+)|@([^:@/]+))$`)
)

// ComponentRef is a parsed reference to an externally registered component.
// Exactly one of Version and Label is set.
type ComponentRef struct {
	Raw      string
	Registry string // empty for workspace references
	Name     string
	Version  string
	Label    string
}

// ParseComponentRef parses the registry form
// `azureml://registries/<r>/components/<name>/versions/<v>` (or `labels/<l>`)
// and the workspace forms `azureml:<name>:<v>`, `<name>:<v>` and `<name>@<label>`.
func ParseComponentRef(raw string) (ComponentRef, error) {
	if m := registryRefRegex.FindStringSubmatch(raw); m != nil {
		return ComponentRef{Raw: raw, Registry: m[1], Name: m[2], Version: m[3], Label: m[4]}, nil
	}
	if m := workspaceRefRegex.FindStringSubmatch(raw); m != nil {
		return ComponentRef{Raw: raw, Name: m[1], Version: m[2], Label: m[3]}, nil
	}
	return ComponentRef{}, fmt.Errorf("%q doesn't match workspace or registry component pattern", raw)
}

// Key identifies the referenced component inside a catalog: name@version
// or name@label.
func (r ComponentRef) Key() string {
	if r.Version != "" {
		return r.Name + ":" + r.Version
	}
	return r.Name + "@" + r.Label
}

func (r ComponentRef) String() string {
	if r.Raw != "" {
		return r.Raw
	}
	return r.Key()
}

// AssetID formats the fully qualified registry id of a component version.
func AssetID(registry, name, version string) string {
	return fmt.Sprintf("azureml://registries/%s/components/%s/versions/%s", registry, name, version)
}

// Port is a typed input or output declared by a component.
type Port struct {
	Name        string
	Type        PortType
	Optional    bool
	Default     *Value
	Enum        []string
	Description string
}

// Required reports whether a job must bind the port.
func (p *Port) Required() bool {
	return !p.Optional && p.Default == nil
}

// ComponentSpec is the input/output schema of a registered component.
type ComponentSpec struct {
	Name        string
	Version     string
	Type        string
	DisplayName string
	Environment string
	Command     string
	Source      string

	Inputs      map[string]*Port
	InputOrder  []string
	Outputs     map[string]*Port
	OutputOrder []string
}

// Input returns the declared input port with the given name.
func (c *ComponentSpec) Input(name string) (*Port, bool) {
	p, ok := c.Inputs[name]
	return p, ok
}

// Output returns the declared output port with the given name.
func (c *ComponentSpec) Output(name string) (*Port, bool) {
	p, ok := c.Outputs[name]
	return p, ok
}
