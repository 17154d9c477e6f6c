package synth

import (
	"strconv"
	"strings"

	"github.com/veriforge/veriforge/internal/artifact"
	"github.com/veriforge/veriforge/internal/domain/catalog"
	"github.com/veriforge/veriforge/internal/naming"
	"github.com/veriforge/veriforge/internal/render"
)

// classSuffixes are the per-run classes exposed as class.<suffix>.
var classSuffixes = []string{
	"transaction", "driver", "monitor", "sequencer", "agent",
	"base_seq", "scoreboard", "coverage", "env", "base_test",
}

// rootFromFilelist is the path from sim/config/filelists back to the
// project root.
const rootFromFilelist = "../../../"

// scenarioPlan is a requested scenario resolved against the catalog.
type scenarioPlan struct {
	Scenario
	stub bool
}

func (p scenarioPlan) seqClass(ids naming.IdentifierSet) string {
	return ids.ClassName(p.Name + "_seq")
}

func (p scenarioPlan) testClass(ids naming.IdentifierSet) string {
	return ids.ClassName(p.Name + "_test")
}

// buildEnv assembles the render environment shared by every component.
func buildEnv(spec catalog.TemplateSpec, ids naming.IdentifierSet, plans []scenarioPlan, vocabulary map[string]bool) render.Env {
	profile := spec.Protocol().Profile()
	sim := spec.Simulator()

	values := map[string]string{
		"ident.module_name":    ids.ModuleName,
		"ident.class_prefix":   ids.ClassPrefix,
		"ident.file_stem":      ids.FileStem,
		"ident.interface_name": ids.InterfaceName,
		"ident.agent_dir":      ids.AgentDir,
		"ident.protocol_tag":   ids.ProtocolTag,

		"spec.project_name": spec.ProjectName(),
		"spec.protocol":     profile.Name(),
		"spec.simulator":    sim.Name,
		"spec.kind":         spec.Protocol().Kind().String(),

		"sim.name":          sim.Name,
		"sim.compile_flags": strings.Join(sim.CompileFlags, " "),
		"sim.wave_format":   sim.WaveFormat,

		"role.clock":          "",
		"role.reset":          "",
		"role.reset_active":   "",
		"role.reset_inactive": "",
	}
	for _, suffix := range classSuffixes {
		values["class."+suffix] = ids.ClassName(suffix)
	}

	lists := map[string][]render.Item{}
	for _, key := range []string{"signals", "signals.input", "signals.output", "signals.request", "signals.response", "signals.data"} {
		lists[key] = []render.Item{}
	}
	for _, sig := range profile.Signals() {
		rendered := ids.SignalNames[sig.Name]
		values["sig."+sig.Name] = rendered

		switch {
		case sig.IsClock() && values["role.clock"] == "":
			values["role.clock"] = rendered
		case sig.IsReset() && values["role.reset"] == "":
			values["role.reset"] = rendered
			if sig.Role == catalog.RoleResetActLow {
				values["role.reset_active"], values["role.reset_inactive"] = "1'b0", "1'b1"
			} else {
				values["role.reset_active"], values["role.reset_inactive"] = "1'b1", "1'b0"
			}
		}

		item := signalItem(sig, rendered)
		lists["signals"] = append(lists["signals"], item)
		lists["signals."+string(sig.Direction)] = append(lists["signals."+string(sig.Direction)], item)
		if sig.IsClock() || sig.IsReset() {
			continue
		}
		lists["signals.data"] = append(lists["signals.data"], item)
		if sig.Direction == catalog.DirOutput {
			lists["signals.request"] = append(lists["signals.request"], item)
		} else {
			lists["signals.response"] = append(lists["signals.response"], item)
		}
	}

	scenarios := make([]render.Item, 0, len(plans))
	tests := []render.Item{{
		"name":        "base",
		"class":       values["class.base_test"],
		"description": "Base environment smoke test",
	}}
	for _, p := range plans {
		scenarios = append(scenarios, render.Item{
			"name":        p.Name,
			"description": p.Description,
			"seq_class":   p.seqClass(ids),
			"test_class":  p.testClass(ids),
			"stub":        strconv.FormatBool(p.stub),
		})
		tests = append(tests, render.Item{
			"name":        p.Name,
			"class":       p.testClass(ids),
			"description": p.Description,
		})
	}
	lists["scenarios"] = scenarios
	lists["tests"] = tests

	flags := make([]render.Item, 0, len(sim.CompileFlags))
	for _, f := range sim.CompileFlags {
		flags = append(flags, render.Item{"flag": f})
	}
	lists["compile_flags"] = flags
	lists["sources.rtl"] = []render.Item{}
	lists["sources.all"] = []render.Item{}

	features := make(map[string]bool)
	for _, f := range spec.Features().Names() {
		features[f] = true
	}

	return render.Env{Values: values, Lists: lists, Features: features, Vocabulary: vocabulary}
}

func signalItem(sig catalog.SignalDecl, rendered string) render.Item {
	slave := sig.Direction
	if !sig.IsClock() && !sig.IsReset() {
		if slave == catalog.DirInput {
			slave = catalog.DirOutput
		} else {
			slave = catalog.DirInput
		}
	}
	return render.Item{
		"name":            rendered,
		"logical":         sig.Name,
		"type":            sig.TypeDecl(),
		"width":           strconv.Itoa(sig.Width),
		"msb":             strconv.Itoa(sig.Width - 1),
		"direction":       string(sig.Direction),
		"slave_direction": string(slave),
		"role":            sig.Role,
	}
}

// withScenario returns a copy of env with scenario.* bound to p.
func withScenario(env render.Env, ids naming.IdentifierSet, p scenarioPlan) render.Env {
	values := make(map[string]string, len(env.Values)+12)
	for k, v := range env.Values {
		values[k] = v
	}
	values["scenario.name"] = p.Name
	values["scenario.description"] = p.Description
	values["scenario.seq_class"] = p.seqClass(ids)
	values["scenario.test_class"] = p.testClass(ids)
	values["scenario.stub"] = strconv.FormatBool(p.stub)
	values["scenario.reset"] = strconv.FormatBool(p.Reset)
	values["scenario.reads"] = strconv.Itoa(p.Reads)
	values["scenario.writes"] = strconv.Itoa(p.Writes)
	values["scenario.has_reads"] = strconv.FormatBool(p.Reads > 0)
	values["scenario.has_writes"] = strconv.FormatBool(p.Writes > 0)
	values["scenario.burst"] = strconv.FormatBool(p.Burst)
	values["scenario.back_to_back"] = strconv.FormatBool(p.BackToBack)
	env.Values = values
	return env
}

// withSources returns a copy of env whose sources lists name the
// SystemVerilog files emitted so far: rtl/ first, then verification/ in
// emission order, with the testbench top last.
func withSources(env render.Env, arts []artifact.FileArtifact) render.Env {
	var rtl, verif, tb []render.Item
	for _, a := range arts {
		if !strings.HasSuffix(a.RelativePath, ".sv") {
			continue
		}
		item := render.Item{"path": rootFromFilelist + a.RelativePath}
		switch {
		case strings.HasPrefix(a.RelativePath, "rtl/"):
			rtl = append(rtl, item)
		case strings.HasPrefix(a.RelativePath, "verification/testbench/"):
			tb = append(tb, item)
		default:
			verif = append(verif, item)
		}
	}

	lists := make(map[string][]render.Item, len(env.Lists))
	for k, v := range env.Lists {
		lists[k] = v
	}
	all := make([]render.Item, 0, len(rtl)+len(verif)+len(tb))
	all = append(append(append(all, rtl...), verif...), tb...)
	if rtl == nil {
		rtl = []render.Item{}
	}
	lists["sources.rtl"] = rtl
	lists["sources.all"] = all
	env.Lists = lists
	return env
}
