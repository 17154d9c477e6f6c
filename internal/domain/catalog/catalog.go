package catalog

import (
	"fmt"
	"sort"
)

// Definition is the decoded, not yet validated content of one catalog document.
type Definition struct {
	Naming     *NamingConventions // required in the base document, forbidden in overlays
	Features   []Feature
	Protocols  []ProtocolDef
	Simulators []SimulatorProfile
	Templates  []NamedTemplate
}

// ProtocolDef is the decoded form of a protocol entry.
type ProtocolDef struct {
	Name              string
	DefaultSimulator  string
	Signals           []SignalDecl
	SupportedFeatures []string
	DefaultScenarios  []string
	BurstCapable      bool
}

// Catalog is the immutable configuration registry.
type Catalog struct {
	naming NamingConventions

	features     map[string]Feature
	featureOrder []string

	protocols     map[string]Protocol
	protocolOrder []string

	simulators map[string]SimulatorProfile
	simOrder   []string

	templates     map[string]NamedTemplate
	templateOrder []string
}

// NewCatalog validates base plus any overlays and returns the combined
// catalog. Overlays may add features, protocols, simulators and templates
// but may not redefine a name or set naming conventions.
func NewCatalog(base Definition, overlays ...Definition) (*Catalog, error) {
	if base.Naming == nil {
		return nil, &SchemaError{Key: "naming", Reason: "naming conventions are required"}
	}
	if err := validateNaming(*base.Naming); err != nil {
		return nil, err
	}

	c := &Catalog{
		naming:     *base.Naming,
		features:   make(map[string]Feature),
		protocols:  make(map[string]Protocol),
		simulators: make(map[string]SimulatorProfile),
		templates:  make(map[string]NamedTemplate),
	}

	parts := append([]Definition{base}, overlays...)
	for i, def := range parts {
		if i > 0 && def.Naming != nil {
			return nil, &SchemaError{Key: "naming", Reason: "overlays cannot change naming conventions"}
		}
		if err := c.addFeatures(def.Features); err != nil {
			return nil, err
		}
		if err := c.addSimulators(def.Simulators); err != nil {
			return nil, err
		}
	}
	// Protocols and templates reference features and simulators from any part.
	for _, def := range parts {
		if err := c.addProtocols(def.Protocols); err != nil {
			return nil, err
		}
	}
	for _, def := range parts {
		if err := c.addTemplates(def.Templates); err != nil {
			return nil, err
		}
	}
	if err := c.checkFeatureRequires(); err != nil {
		return nil, err
	}
	return c, nil
}

func validateNaming(n NamingConventions) error {
	fields := []struct {
		key string
		c   Casing
	}{
		{"naming.module_case", n.Module},
		{"naming.file_case", n.File},
		{"naming.class_case", n.Class},
		{"naming.signal_case", n.Signal},
	}
	for _, f := range fields {
		if !f.c.Valid() {
			return &SchemaError{Key: f.key, Reason: fmt.Sprintf("unknown casing %q", f.c)}
		}
	}
	return nil
}

func (c *Catalog) addFeatures(features []Feature) error {
	for _, f := range features {
		key := normalizeKey(f.Name)
		if key == "" {
			return &SchemaError{Key: "features", Reason: "feature name cannot be empty"}
		}
		if _, dup := c.features[key]; dup {
			return &SchemaError{Key: "features." + f.Name, Reason: "already defined"}
		}
		f.Name = key
		c.features[key] = f
		c.featureOrder = append(c.featureOrder, key)
	}
	return nil
}

func (c *Catalog) addSimulators(sims []SimulatorProfile) error {
	for _, s := range sims {
		key := normalizeKey(s.Name)
		if key == "" {
			return &SchemaError{Key: "simulators", Reason: "simulator name cannot be empty"}
		}
		if _, dup := c.simulators[key]; dup {
			return &SchemaError{Key: "simulators." + s.Name, Reason: "already defined"}
		}
		if s.WaveFormat == "" {
			return &SchemaError{Key: "simulators." + s.Name + ".wave_format", Reason: "required"}
		}
		s.Name = key
		s.CompileFlags = append([]string(nil), s.CompileFlags...)
		c.simulators[key] = s
		c.simOrder = append(c.simOrder, key)
	}
	return nil
}

func (c *Catalog) addProtocols(defs []ProtocolDef) error {
	for _, d := range defs {
		key := normalizeKey(d.Name)
		base := "protocols." + d.Name
		if key == "" {
			return &SchemaError{Key: "protocols", Reason: "protocol name cannot be empty"}
		}
		if _, dup := c.protocols[key]; dup {
			return &SchemaError{Key: base, Reason: "already defined"}
		}
		if _, ok := c.simulators[normalizeKey(d.DefaultSimulator)]; !ok {
			return &SchemaError{Key: base + ".default_simulator", Reason: fmt.Sprintf("unknown simulator %q", d.DefaultSimulator)}
		}
		if len(d.Signals) == 0 {
			return &SchemaError{Key: base + ".signals", Reason: "at least one signal is required"}
		}
		seen := make(map[string]bool, len(d.Signals))
		for i, s := range d.Signals {
			sigKey := fmt.Sprintf("%s.signals[%d]", base, i)
			if s.Name == "" {
				return &SchemaError{Key: sigKey + ".name", Reason: "required"}
			}
			if seen[s.Name] {
				return &SchemaError{Key: sigKey + ".name", Reason: fmt.Sprintf("duplicate signal %q", s.Name)}
			}
			seen[s.Name] = true
			if s.Width < 1 {
				return &SchemaError{Key: sigKey + ".width", Reason: "must be at least 1"}
			}
			if !s.Direction.Valid() {
				return &SchemaError{Key: sigKey + ".direction", Reason: fmt.Sprintf("unknown direction %q", s.Direction)}
			}
		}
		features := make([]string, 0, len(d.SupportedFeatures))
		for _, f := range d.SupportedFeatures {
			fk := normalizeKey(f)
			if _, ok := c.features[fk]; !ok {
				return &SchemaError{Key: base + ".supported_features", Reason: fmt.Sprintf("unknown feature %q", f)}
			}
			features = append(features, fk)
		}

		kind, ok := KindForName(d.Name)
		if !ok {
			kind = KindCustom
		}
		profile := &ProtocolProfile{
			name:              d.Name,
			defaultSimulator:  normalizeKey(d.DefaultSimulator),
			signals:           append([]SignalDecl(nil), d.Signals...),
			supportedFeatures: features,
			defaultScenarios:  append([]string(nil), d.DefaultScenarios...),
			burstCapable:      d.BurstCapable,
		}
		c.protocols[key] = Protocol{kind: kind, profile: profile}
		c.protocolOrder = append(c.protocolOrder, key)
	}
	return nil
}

func (c *Catalog) addTemplates(tmpls []NamedTemplate) error {
	for _, t := range tmpls {
		base := "templates." + t.Name
		if t.Name == "" {
			return &SchemaError{Key: "templates", Reason: "template name cannot be empty"}
		}
		if _, dup := c.templates[t.Name]; dup {
			return &SchemaError{Key: base, Reason: "already defined"}
		}
		p, ok := c.protocols[normalizeKey(t.Protocol)]
		if !ok {
			return &SchemaError{Key: base + ".protocol", Reason: fmt.Sprintf("unknown protocol %q", t.Protocol)}
		}
		if t.Simulator != "" {
			if _, ok := c.simulators[normalizeKey(t.Simulator)]; !ok {
				return &SchemaError{Key: base + ".simulator", Reason: fmt.Sprintf("unknown simulator %q", t.Simulator)}
			}
		}
		for _, f := range t.Features {
			if !p.profile.Supports(normalizeKey(f)) {
				return &SchemaError{Key: base + ".features", Reason: fmt.Sprintf("feature %q not supported by %s", f, p.Name())}
			}
		}
		c.templates[t.Name] = t
		c.templateOrder = append(c.templateOrder, t.Name)
	}
	return nil
}

func (c *Catalog) checkFeatureRequires() error {
	for _, name := range c.featureOrder {
		for _, req := range c.features[name].Requires {
			if _, ok := c.features[normalizeKey(req)]; !ok {
				return &SchemaError{Key: "features." + name + ".requires", Reason: fmt.Sprintf("unknown feature %q", req)}
			}
		}
	}
	return nil
}

// Naming returns the naming conventions.
func (c *Catalog) Naming() NamingConventions { return c.naming }

// Protocol looks up a protocol by name (case-insensitive).
func (c *Catalog) Protocol(name string) (Protocol, error) {
	p, ok := c.protocols[normalizeKey(name)]
	if !ok {
		return Protocol{}, &UnknownProtocolError{Name: name, Valid: c.ProtocolNames()}
	}
	return p, nil
}

// Simulator looks up a simulator by name (case-insensitive).
func (c *Catalog) Simulator(name string) (SimulatorProfile, error) {
	s, ok := c.simulators[normalizeKey(name)]
	if !ok {
		return SimulatorProfile{}, &UnknownSimulatorError{Name: name, Valid: c.SimulatorNames()}
	}
	s.CompileFlags = append([]string(nil), s.CompileFlags...)
	return s, nil
}

// Template looks up a named template.
func (c *Catalog) Template(name string) (NamedTemplate, error) {
	t, ok := c.templates[name]
	if !ok {
		return NamedTemplate{}, &UnknownTemplateError{Name: name, Valid: c.TemplateNames()}
	}
	return t, nil
}

// Feature looks up a feature definition.
func (c *Catalog) Feature(name string) (Feature, bool) {
	f, ok := c.features[normalizeKey(name)]
	return f, ok
}

// Protocols returns all protocols in declaration order.
func (c *Catalog) Protocols() []Protocol {
	out := make([]Protocol, 0, len(c.protocolOrder))
	for _, k := range c.protocolOrder {
		out = append(out, c.protocols[k])
	}
	return out
}

// Simulators returns all simulators in declaration order.
func (c *Catalog) Simulators() []SimulatorProfile {
	out := make([]SimulatorProfile, 0, len(c.simOrder))
	for _, k := range c.simOrder {
		out = append(out, c.simulators[k])
	}
	return out
}

// Templates returns all named templates in declaration order.
func (c *Catalog) Templates() []NamedTemplate {
	out := make([]NamedTemplate, 0, len(c.templateOrder))
	for _, k := range c.templateOrder {
		out = append(out, c.templates[k])
	}
	return out
}

// Features returns all features in declaration order.
func (c *Catalog) Features() []Feature {
	out := make([]Feature, 0, len(c.featureOrder))
	for _, k := range c.featureOrder {
		out = append(out, c.features[k])
	}
	return out
}

// FeatureNames returns the feature vocabulary, sorted.
func (c *Catalog) FeatureNames() []string {
	return sortedCopy(c.featureOrder)
}

// ProtocolNames returns declared protocol names, sorted.
func (c *Catalog) ProtocolNames() []string {
	names := make([]string, 0, len(c.protocols))
	for _, p := range c.protocols {
		names = append(names, p.Name())
	}
	sort.Strings(names)
	return names
}

// SimulatorNames returns simulator names, sorted.
func (c *Catalog) SimulatorNames() []string {
	return sortedCopy(c.simOrder)
}

// TemplateNames returns named template names, sorted.
func (c *Catalog) TemplateNames() []string {
	return sortedCopy(c.templateOrder)
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
