package schema

import "gopkg.in/yaml.v3"

// PipelineDoc is the top level of a pipeline manifest.
type PipelineDoc struct {
	Schema      string       `yaml:"$schema"`
	Type        string       `yaml:"type"`
	Name        string       `yaml:"name"`
	DisplayName string       `yaml:"display_name"`
	Description string       `yaml:"description"`
	Settings    *SettingsDoc `yaml:"settings"`
	Inputs      yaml.Node    `yaml:"inputs"`
	Outputs     yaml.Node    `yaml:"outputs"`
	Jobs        yaml.Node    `yaml:"jobs"`
}

// SettingsDoc holds pipeline-wide defaults.
type SettingsDoc struct {
	DefaultCompute string `yaml:"default_compute"`
}

// JobDoc is a single entry of the `jobs` mapping. Component is either a
// reference string or an inline component mapping.
type JobDoc struct {
	Type        string        `yaml:"type"`
	DisplayName string        `yaml:"display_name"`
	Component   yaml.Node     `yaml:"component"`
	Compute     string        `yaml:"compute"`
	Resources   *ResourcesDoc `yaml:"resources"`
	Inputs      yaml.Node     `yaml:"inputs"`
	Outputs     yaml.Node     `yaml:"outputs"`
}

// ResourcesDoc is the `resources` block of a job.
type ResourcesDoc struct {
	InstanceType  string `yaml:"instance_type"`
	InstanceCount int    `yaml:"instance_count"`
}

// PortDoc is the long form of an input or output declaration. Inside a job
// it may also carry the bound path of an asset.
type PortDoc struct {
	Type        string    `yaml:"type"`
	Optional    bool      `yaml:"optional"`
	Default     yaml.Node `yaml:"default"`
	Enum        []string  `yaml:"enum"`
	Description string    `yaml:"description"`
	Mode        string    `yaml:"mode"`
	Path        string    `yaml:"path"`
	Value       yaml.Node `yaml:"value"`
}

// ComponentDoc is a component spec file.
type ComponentDoc struct {
	Schema      string    `yaml:"$schema"`
	Name        string    `yaml:"name"`
	Version     string    `yaml:"version"`
	Type        string    `yaml:"type"`
	DisplayName string    `yaml:"display_name"`
	Description string    `yaml:"description"`
	Environment yaml.Node `yaml:"environment"`
	Command     string    `yaml:"command"`
	Inputs      yaml.Node `yaml:"inputs"`
	Outputs     yaml.Node `yaml:"outputs"`
}
