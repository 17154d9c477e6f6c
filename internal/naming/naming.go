// Package naming is the single naming authority of a generation run. Every
// module, class, file and signal identifier is derived here once and then
// consumed verbatim by the renderer and synthesizer.
package naming

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/veriforge/veriforge/internal/domain/catalog"
	vferrors "github.com/veriforge/veriforge/internal/errors"
	"github.com/veriforge/veriforge/internal/log"
)

// IdentifierSet is the authoritative mapping of logical names to rendered
// names for one run.
type IdentifierSet struct {
	ModuleName    string            `json:"module_name"`
	ClassPrefix   string            `json:"class_prefix"`
	FileStem      string            `json:"file_stem"`
	InterfaceName string            `json:"interface_name"`
	AgentDir      string            `json:"agent_dir"`
	ProtocolTag   string            `json:"protocol_tag"`
	SignalNames   map[string]string `json:"signal_names"`
	SignalOrder   []string          `json:"signal_order"` // logical names in profile order
	ClassCase     catalog.Casing    `json:"class_case"`
}

// ClassName returns the class identifier for a component suffix, e.g.
// "driver" -> "axi4_driver" under snake casing.
func (ids IdentifierSet) ClassName(suffix string) string {
	words := append(SplitWords(ids.ClassPrefix), SplitWords(suffix)...)
	return Apply(ids.ClassCase, words)
}

// Signal returns the rendered name for a logical signal.
func (ids IdentifierSet) Signal(logical string) (string, bool) {
	name, ok := ids.SignalNames[logical]
	return name, ok
}

// RenderedSignals returns rendered signal names in profile order.
func (ids IdentifierSet) RenderedSignals() []string {
	out := make([]string, 0, len(ids.SignalOrder))
	for _, l := range ids.SignalOrder {
		out = append(out, ids.SignalNames[l])
	}
	return out
}

// Canonical returns a stable byte encoding of the set. json.Marshal sorts
// map keys, so equal sets always encode identically.
func (ids IdentifierSet) Canonical() []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(ids)
	return buf.Bytes()
}

// NamingCollisionError reports two logical names that render identically,
// or a rendered name that is a reserved word.
type NamingCollisionError struct {
	Rendered string
	First    string
	Second   string
}

func (e *NamingCollisionError) Error() string {
	if e.Second == "" {
		return fmt.Sprintf("signal %q renders to reserved word %q", e.First, e.Rendered)
	}
	return fmt.Sprintf("signals %q and %q both render to %q", e.First, e.Second, e.Rendered)
}

func (e *NamingCollisionError) Code() vferrors.Code { return vferrors.ENamingCollision }
func (e *NamingCollisionError) Subject() string     { return e.Rendered }

// Derive computes the IdentifierSet for a project and protocol profile.
// The result depends only on its inputs.
func Derive(projectName string, profile *catalog.ProtocolProfile, conv catalog.NamingConventions) (IdentifierSet, error) {
	if err := catalog.ValidateProjectName(projectName); err != nil {
		return IdentifierSet{}, err
	}

	project := SplitWords(projectName)
	proto := SplitWords(profile.Name())

	classPrefix := Apply(conv.Class, proto)
	ids := IdentifierSet{
		ModuleName:    Apply(conv.Module, append(append([]string(nil), project...), "core")),
		ClassPrefix:   classPrefix,
		FileStem:      Apply(conv.File, project),
		InterfaceName: Apply(conv.Class, append(append([]string(nil), proto...), "if")),
		AgentDir:      Apply(conv.File, append(append([]string(nil), proto...), "agent")),
		ProtocolTag:   Apply(catalog.CaseUpperSnake, proto),
		SignalNames:   make(map[string]string),
		ClassCase:     conv.Class,
	}

	owner := make(map[string]string)
	for _, sig := range profile.Signals() {
		rendered := Apply(conv.Signal, SplitWords(sig.Name))
		if rendered == "" {
			return IdentifierSet{}, &NamingCollisionError{Rendered: rendered, First: sig.Name, Second: "<empty>"}
		}
		if prev, dup := owner[rendered]; dup {
			return IdentifierSet{}, &NamingCollisionError{Rendered: rendered, First: prev, Second: sig.Name}
		}
		if IsReserved(rendered) {
			return IdentifierSet{}, &NamingCollisionError{Rendered: rendered, First: sig.Name}
		}
		owner[rendered] = sig.Name
		ids.SignalNames[sig.Name] = rendered
		ids.SignalOrder = append(ids.SignalOrder, sig.Name)
	}

	log.Debug(log.CatNaming, "derived identifiers",
		"project", projectName, "protocol", profile.Name(),
		"class_prefix", ids.ClassPrefix, "signals", len(ids.SignalOrder))
	return ids, nil
}

// SplitWords breaks an identifier into lower-case words on '_', '-', spaces,
// lower→upper transitions and the end of an upper-case run ("AXIBus" →
// axi, bus). Digits stay attached to the preceding word ("AXI4" → axi4).
func SplitWords(s string) []string {
	var words []string
	var cur []rune
	runes := []rune(s)
	flush := func() {
		if len(cur) > 0 {
			words = append(words, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || unicode.IsSpace(r):
			flush()
			continue
		case unicode.IsUpper(r) && len(cur) > 0:
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return words
}

// Apply joins lower-case words using casing c.
func Apply(c catalog.Casing, words []string) string {
	switch c {
	case catalog.CaseUpperSnake:
		return strings.ToUpper(strings.Join(words, "_"))
	case catalog.CasePascal:
		return joinTitled(words, "", true)
	case catalog.CaseCamel:
		return joinTitled(words, "", false)
	case catalog.CaseTitleSnake:
		return joinTitled(words, "_", true)
	default:
		return strings.Join(words, "_")
	}
}

func joinTitled(words []string, sep string, titleFirst bool) string {
	parts := make([]string, len(words))
	for i, w := range words {
		if i == 0 && !titleFirst {
			parts[i] = w
			continue
		}
		r := []rune(w)
		if len(r) > 0 {
			r[0] = unicode.ToUpper(r[0])
		}
		parts[i] = string(r)
	}
	return strings.Join(parts, sep)
}
