package catalog

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
)

var (
	projectNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)
	scenarioPattern    = regexp.MustCompile(`^[a-z][a-z0-9]*(_[a-z0-9]+)*$`)
)

// ReservedScenarioNames are stems already owned by built-in classes. A
// scenario named X yields the classes X_seq and X_test, so "base" would
// clash with base_seq and base_test.
var ReservedScenarioNames = []string{"base"}

const (
	maxProjectNameLen = 64
	maxScenarioLen    = 48
)

// Request is an unresolved generation request.
type Request struct {
	ProjectName string
	Protocol    string
	Simulator   string   // empty selects the protocol default
	Features    []string // empty keeps the template's features, if any
	Scenarios   []string // empty selects the template's or protocol's defaults
	Template    string   // optional named template supplying defaults
}

// FeatureSet is a sorted set of enabled feature flags.
type FeatureSet struct {
	names []string
}

// NewFeatureSet returns a set of the given flags, deduplicated and sorted.
func NewFeatureSet(flags ...string) FeatureSet {
	seen := make(map[string]bool, len(flags))
	names := make([]string, 0, len(flags))
	for _, f := range flags {
		k := normalizeKey(f)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		names = append(names, k)
	}
	sort.Strings(names)
	return FeatureSet{names: names}
}

// Has reports whether flag is enabled.
func (s FeatureSet) Has(flag string) bool {
	k := normalizeKey(flag)
	i := sort.SearchStrings(s.names, k)
	return i < len(s.names) && s.names[i] == k
}

// Names returns the enabled flags, sorted.
func (s FeatureSet) Names() []string {
	return append([]string(nil), s.names...)
}

// Len returns the number of enabled flags.
func (s FeatureSet) Len() int { return len(s.names) }

// TemplateSpec is the resolved parameter set of one generation run.
type TemplateSpec struct {
	projectName string
	protocol    Protocol
	simulator   SimulatorProfile
	features    FeatureSet
	scenarios   []string
}

// ProjectName returns the validated project name.
func (s TemplateSpec) ProjectName() string { return s.projectName }

// Protocol returns the resolved protocol variant.
func (s TemplateSpec) Protocol() Protocol { return s.protocol }

// Simulator returns the resolved simulator profile.
func (s TemplateSpec) Simulator() SimulatorProfile {
	sim := s.simulator
	sim.CompileFlags = append([]string(nil), sim.CompileFlags...)
	return sim
}

// Features returns the enabled feature set.
func (s TemplateSpec) Features() FeatureSet { return s.features }

// HasFeature reports whether flag is enabled.
func (s TemplateSpec) HasFeature(flag string) bool { return s.features.Has(flag) }

// Scenarios returns the ordered scenario names.
func (s TemplateSpec) Scenarios() []string {
	return append([]string(nil), s.scenarios...)
}

// Resolve validates req against the catalog and returns the TemplateSpec.
// It has no side effects and may be called repeatedly.
func (c *Catalog) Resolve(req Request) (TemplateSpec, error) {
	if err := ValidateProjectName(req.ProjectName); err != nil {
		return TemplateSpec{}, err
	}

	protocolName := req.Protocol
	simulatorName := req.Simulator
	features := req.Features
	scenarios := req.Scenarios

	if req.Template != "" {
		t, err := c.Template(req.Template)
		if err != nil {
			return TemplateSpec{}, err
		}
		if protocolName == "" {
			protocolName = t.Protocol
		}
		if simulatorName == "" {
			simulatorName = t.Simulator
		}
		if len(features) == 0 {
			features = t.Features
		}
		if len(scenarios) == 0 {
			scenarios = t.Scenarios
		}
	}

	protocol, err := c.Protocol(protocolName)
	if err != nil {
		return TemplateSpec{}, err
	}
	if simulatorName == "" {
		simulatorName = protocol.profile.defaultSimulator
	}
	sim, err := c.Simulator(simulatorName)
	if err != nil {
		return TemplateSpec{}, err
	}

	set := NewFeatureSet(features...)
	if err := c.checkFeatures(protocol, set); err != nil {
		return TemplateSpec{}, err
	}

	if len(scenarios) == 0 {
		scenarios = protocol.profile.defaultScenarios
	}
	if err := validateScenarios(scenarios); err != nil {
		return TemplateSpec{}, err
	}

	return TemplateSpec{
		projectName: req.ProjectName,
		protocol:    protocol,
		simulator:   sim,
		features:    set,
		scenarios:   append([]string(nil), scenarios...),
	}, nil
}

func (c *Catalog) checkFeatures(p Protocol, set FeatureSet) error {
	for _, f := range set.Names() {
		def, known := c.features[f]
		if !known {
			return &UnsupportedFeatureError{Feature: f, Protocol: p.Name(), Reason: "not a catalog feature"}
		}
		if !p.profile.Supports(f) {
			return &UnsupportedFeatureError{Feature: f, Protocol: p.Name(), Reason: "not in supported_features"}
		}
		for _, req := range def.Requires {
			if !set.Has(req) {
				return &UnsupportedFeatureError{Feature: f, Protocol: p.Name(), Reason: fmt.Sprintf("requires %q", normalizeKey(req))}
			}
		}
	}
	return nil
}

// ValidateProjectName enforces the identifier-safety rule: non-empty,
// starts with a letter, only letters, digits, '_' and '-', bounded length.
func ValidateProjectName(name string) error {
	switch {
	case name == "":
		return &InvalidProjectNameError{Name: name, Reason: "must not be empty"}
	case len(name) > maxProjectNameLen:
		return &InvalidProjectNameError{Name: name, Reason: fmt.Sprintf("longer than %d characters", maxProjectNameLen)}
	case !projectNamePattern.MatchString(name):
		return &InvalidProjectNameError{Name: name, Reason: "must start with a letter and contain only letters, digits, '_' or '-'"}
	}
	return nil
}

func validateScenarios(scenarios []string) error {
	seen := make(map[string]bool, len(scenarios))
	for _, s := range scenarios {
		if len(s) > maxScenarioLen || !scenarioPattern.MatchString(s) {
			return &InvalidScenarioError{Name: s, Reason: "must be a lower snake_case identifier"}
		}
		if slices.Contains(ReservedScenarioNames, s) {
			return &InvalidScenarioError{Name: s, Reason: "reserved for the built-in base sequence and test"}
		}
		if seen[s] {
			return &InvalidScenarioError{Name: s, Reason: "listed more than once"}
		}
		seen[s] = true
	}
	return nil
}
