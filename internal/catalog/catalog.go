package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/coreos/go-semver/semver"
	"github.com/specialistvlad/pipegraph/internal/model"
)

// ErrNotFound is returned when a reference matches no loaded component.
var ErrNotFound = errors.New("component not found")

// Catalog indexes component specs by name and version.
type Catalog struct {
	mu       sync.RWMutex
	versions map[string]map[string]*model.ComponentSpec
	labels   map[string]map[string]string
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		versions: make(map[string]map[string]*model.ComponentSpec),
		labels:   make(map[string]map[string]string),
	}
}

// Add registers a component version. Registering the same name and version
// twice is an error.
func (c *Catalog) Add(spec *model.ComponentSpec) error {
	if spec.Name == "" || spec.Version == "" {
		return fmt.Errorf("component from %s: name and version are required", spec.Source)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	byVersion, ok := c.versions[spec.Name]
	if !ok {
		byVersion = make(map[string]*model.ComponentSpec)
		c.versions[spec.Name] = byVersion
	}
	if prev, ok := byVersion[spec.Version]; ok {
		return fmt.Errorf("component %s:%s declared twice (%s and %s)", spec.Name, spec.Version, prev.Source, spec.Source)
	}
	byVersion[spec.Version] = spec
	return nil
}

// SetLabel points a label of a component at one of its versions. The
// `latest` label is computed and cannot be set.
func (c *Catalog) SetLabel(name, label, version string) error {
	if label == model.LatestLabel {
		return fmt.Errorf("label %q is reserved", label)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.versions[name][version]; !ok {
		return fmt.Errorf("%w: %s:%s", ErrNotFound, name, version)
	}
	if c.labels[name] == nil {
		c.labels[name] = make(map[string]string)
	}
	c.labels[name][label] = version
	return nil
}

// Resolve returns the component spec a reference points at. Registry references are
// matched by name and version only.
func (c *Catalog) Resolve(ref model.ComponentRef) (*model.ComponentSpec, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	byVersion, ok := c.versions[ref.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref.Key())
	}
	version := ref.Version
	if version == "" {
		switch ref.Label {
		case model.LatestLabel:
			version = latestVersion(byVersion)
		default:
			version = c.labels[ref.Name][ref.Label]
		}
	}
	spec, ok := byVersion[version]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref.Key())
	}
	return spec, nil
}

// Versions lists the known versions of a component, lowest first.
func (c *Catalog) Versions(name string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.versions[name]))
	for v := range c.versions[name] {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return compareVersions(out[i], out[j]) < 0 })
	return out
}

// Names lists component names in lexical order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.versions))
	for name := range c.versions {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered component versions.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, byVersion := range c.versions {
		n += len(byVersion)
	}
	return n
}

func latestVersion(byVersion map[string]*model.ComponentSpec) string {
	var best string
	for v := range byVersion {
		if best == "" || compareVersions(v, best) > 0 {
			best = v
		}
	}
	return best
}

// compareVersions orders versions semantically. Short versions such as "2"
// or "1.4" are padded with zeros. Versions that still fail to parse sort
// below every valid version and among themselves by string comparison.
func compareVersions(a, b string) int {
	va, errA := parseVersion(a)
	vb, errB := parseVersion(b)
	switch {
	case errA == nil && errB == nil:
		if c := va.Compare(*vb); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	case errA == nil:
		return 1
	case errB == nil:
		return -1
	default:
		return strings.Compare(a, b)
	}
}

func parseVersion(s string) (*semver.Version, error) {
	core, rest := s, ""
	if i := strings.IndexAny(s, "-+"); i >= 0 {
		core, rest = s[:i], s[i:]
	}
	parts := strings.Split(core, ".")
	for len(parts) < 3 {
		parts = append(parts, "0")
	}
	return semver.NewVersion(strings.Join(parts, ".") + rest)
}
