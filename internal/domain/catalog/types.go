package catalog

import (
	"fmt"
	"strings"
)

// Direction is a signal direction seen from the master (driver) side.
type Direction string

const (
	DirInput  Direction = "input"
	DirOutput Direction = "output"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirInput || d == DirOutput
}

// SignalDecl is one signal of a protocol's canonical vocabulary.
type SignalDecl struct {
	Name      string
	Width     int
	Direction Direction
	Role      string // "clock", "reset", "reset_n" or free text
}

const (
	RoleClock       = "clock"
	RoleReset       = "reset"
	RoleResetActLow = "reset_n"
)

// IsClock reports whether the signal is the protocol clock.
func (s SignalDecl) IsClock() bool { return s.Role == RoleClock }

// IsReset reports whether the signal is a reset of either polarity.
func (s SignalDecl) IsReset() bool { return s.Role == RoleReset || s.Role == RoleResetActLow }

// TypeDecl returns the SystemVerilog type for the signal, e.g. "logic [31:0]".
func (s SignalDecl) TypeDecl() string {
	if s.Width <= 1 {
		return "logic"
	}
	return fmt.Sprintf("logic [%d:0]", s.Width-1)
}

// ProtocolKind enumerates the protocols the synthesizer knows natively.
type ProtocolKind int

const (
	// KindCustom is a user-supplied protocol from the catalog overlay.
	KindCustom ProtocolKind = iota
	KindAXI4
	KindAXI4Lite
	KindAPB
	KindUART
)

var builtinKinds = map[string]ProtocolKind{
	"axi4":      KindAXI4,
	"axi4_lite": KindAXI4Lite,
	"apb":       KindAPB,
	"uart":      KindUART,
}

// String returns the template directory name for the kind.
func (k ProtocolKind) String() string {
	switch k {
	case KindAXI4:
		return "axi4"
	case KindAXI4Lite:
		return "axi4_lite"
	case KindAPB:
		return "apb"
	case KindUART:
		return "uart"
	default:
		return "custom"
	}
}

// KindForName returns the built-in kind for a protocol name.
// The lookup is case-insensitive and treats '-' as '_'.
func KindForName(name string) (ProtocolKind, bool) {
	k, ok := builtinKinds[normalizeKey(name)]
	return k, ok
}

// ProtocolProfile is the static descriptor of a protocol. Read-only after
// catalog construction; accessors return copies.
type ProtocolProfile struct {
	name              string
	defaultSimulator  string
	signals           []SignalDecl
	supportedFeatures []string
	defaultScenarios  []string
	burstCapable      bool
}

// Name returns the protocol name as declared in the catalog.
func (p *ProtocolProfile) Name() string { return p.name }

// DefaultSimulator returns the simulator used when a request names none.
func (p *ProtocolProfile) DefaultSimulator() string { return p.defaultSimulator }

// Signals returns the ordered signal set.
func (p *ProtocolProfile) Signals() []SignalDecl {
	out := make([]SignalDecl, len(p.signals))
	copy(out, p.signals)
	return out
}

// SupportedFeatures returns the feature flags this protocol accepts.
func (p *ProtocolProfile) SupportedFeatures() []string {
	return append([]string(nil), p.supportedFeatures...)
}

// Supports reports whether feature is supported by the protocol.
func (p *ProtocolProfile) Supports(feature string) bool {
	for _, f := range p.supportedFeatures {
		if f == feature {
			return true
		}
	}
	return false
}

// DefaultScenarios returns the scenarios used when a request names none.
func (p *ProtocolProfile) DefaultScenarios() []string {
	return append([]string(nil), p.defaultScenarios...)
}

// BurstCapable reports whether the protocol supports multi-beat bursts.
func (p *ProtocolProfile) BurstCapable() bool { return p.burstCapable }

// Protocol is the tagged variant over known protocols plus Custom.
type Protocol struct {
	kind    ProtocolKind
	profile *ProtocolProfile
}

// Kind returns the protocol kind.
func (p Protocol) Kind() ProtocolKind { return p.kind }

// Profile returns the protocol profile.
func (p Protocol) Profile() *ProtocolProfile { return p.profile }

// Name returns the declared protocol name.
func (p Protocol) Name() string {
	if p.profile == nil {
		return ""
	}
	return p.profile.name
}

// IsCustom reports whether the protocol came from a user overlay.
func (p Protocol) IsCustom() bool { return p.kind == KindCustom }

// SimulatorProfile describes one simulator.
type SimulatorProfile struct {
	Name         string
	CompileFlags []string
	WaveFormat   string
}

// Feature is one optional feature flag in the catalog vocabulary.
type Feature struct {
	Name        string
	Description string
	Requires    []string
}

// NamedTemplate is a preset request stored in the catalog.
type NamedTemplate struct {
	Name      string
	Protocol  string
	Simulator string
	Features  []string
	Scenarios []string
}

// Casing is a naming convention.
type Casing string

const (
	CaseSnake      Casing = "snake"       // sample_project
	CaseUpperSnake Casing = "upper_snake" // SAMPLE_PROJECT
	CasePascal     Casing = "pascal"      // SampleProject
	CaseCamel      Casing = "camel"       // sampleProject
	CaseTitleSnake Casing = "title_snake" // Sample_Project
)

// Valid reports whether c is a known casing.
func (c Casing) Valid() bool {
	switch c {
	case CaseSnake, CaseUpperSnake, CasePascal, CaseCamel, CaseTitleSnake:
		return true
	}
	return false
}

// NamingConventions selects the casing for each identifier family.
type NamingConventions struct {
	Module Casing
	File   Casing
	Class  Casing
	Signal Casing
}

func normalizeKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
}
