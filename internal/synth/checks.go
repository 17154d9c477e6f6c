package synth

import (
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"

	vferrors "github.com/veriforge/veriforge/internal/errors"
	"github.com/veriforge/veriforge/internal/naming"
)

var vifRef = regexp.MustCompile(`\bvif\.([A-Za-z_][A-Za-z0-9_]*)`)

// checkVIF fails when content drives or samples an interface member that is
// not one of the rendered signal names.
func checkVIF(rel, content string, ids naming.IdentifierSet) error {
	known := make(map[string]bool, len(ids.SignalNames))
	for _, name := range ids.SignalNames {
		known[name] = true
	}
	for _, m := range vifRef.FindAllStringSubmatch(content, -1) {
		if !known[m[1]] {
			return vferrors.InternalConsistency(rel, fmt.Sprintf("vif.%s does not name an interface signal", m[1]))
		}
	}
	return nil
}

// checkYAML fails when content is not a YAML mapping.
func checkYAML(rel, content string) error {
	var doc map[string]any
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		return vferrors.Wrap(vferrors.EInternalConsistency, rel, "generated YAML does not parse", err)
	}
	if len(doc) == 0 {
		return vferrors.InternalConsistency(rel, "generated YAML is empty")
	}
	return nil
}
