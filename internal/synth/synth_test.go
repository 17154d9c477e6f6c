package synth

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/veriforge/veriforge/internal/artifact"
	"github.com/veriforge/veriforge/internal/cachemanager"
	loader "github.com/veriforge/veriforge/internal/catalog"
	"github.com/veriforge/veriforge/internal/domain/catalog"
	vferrors "github.com/veriforge/veriforge/internal/errors"
	"github.com/veriforge/veriforge/internal/naming"
	"github.com/veriforge/veriforge/internal/render"
)

func builtinCatalog(t *testing.T, overlays ...string) *catalog.Catalog {
	t.Helper()
	base, err := loader.LoadBuiltin()
	require.NoError(t, err)
	var defs []catalog.Definition
	for i, o := range overlays {
		def, err := loader.ParseDefinition("overlay"+string(rune('a'+i))+".yaml", []byte(o))
		require.NoError(t, err)
		defs = append(defs, def)
	}
	c, err := catalog.NewCatalog(base, defs...)
	require.NoError(t, err)
	return c
}

func synthesize(t *testing.T, c *catalog.Catalog, req catalog.Request) (Result, naming.IdentifierSet) {
	t.Helper()
	spec, err := c.Resolve(req)
	require.NoError(t, err)
	ids, err := naming.Derive(spec.ProjectName(), spec.Protocol().Profile(), c.Naming())
	require.NoError(t, err)

	s, err := NewBuiltin(c.FeatureNames())
	require.NoError(t, err)
	res, err := s.Synthesize(context.Background(), spec, ids)
	require.NoError(t, err)
	return res, ids
}

func find(t *testing.T, arts []artifact.FileArtifact, rel string) string {
	t.Helper()
	for _, a := range arts {
		if a.RelativePath == rel {
			return string(a.Content)
		}
	}
	t.Fatalf("artifact %s not emitted", rel)
	return ""
}

func paths(arts []artifact.FileArtifact) []string {
	out := make([]string, 0, len(arts))
	for _, a := range arts {
		out = append(out, a.RelativePath)
	}
	return out
}

func TestSynthesize_SampleAXI4(t *testing.T) {
	c := builtinCatalog(t)
	res, ids := synthesize(t, c, catalog.Request{
		ProjectName: "Sample",
		Protocol:    "AXI4",
		Simulator:   "dsim",
		Features:    []string{"uvm_environment", "scoreboard"},
		Scenarios:   []string{"reset_test", "burst_transactions"},
	})

	require.Empty(t, res.Warnings)
	require.Equal(t, []string{
		"rtl/interfaces/axi4_if.sv",
		"verification/common/axi4_transaction.sv",
		"verification/uvm/agents/axi4_agent/axi4_driver.sv",
		"verification/uvm/agents/axi4_agent/axi4_monitor.sv",
		"verification/uvm/agents/axi4_agent/axi4_sequencer.sv",
		"verification/uvm/sequences/axi4_base_seq.sv",
		"verification/uvm/sequences/axi4_reset_test_seq.sv",
		"verification/uvm/sequences/axi4_burst_transactions_seq.sv",
		"verification/uvm/agents/axi4_agent/axi4_agent.sv",
		"verification/uvm/env/axi4_scoreboard.sv",
		"verification/uvm/env/axi4_env.sv",
		"verification/uvm/tests/axi4_base_test.sv",
		"verification/uvm/tests/axi4_reset_test_test.sv",
		"verification/uvm/tests/axi4_burst_transactions_test.sv",
		"verification/testbench/tb_top.sv",
		"rtl/sample_core.sv",
		"sim/config/test_config.cfg",
		"sim/config/filelists/axi4_base.f",
		"sim/config/filelists/axi4_full.f",
		".github/workflows/ci.yml",
		".gitignore",
	}, paths(res.Artifacts))

	iface := find(t, res.Artifacts, "rtl/interfaces/axi4_if.sv")
	for _, name := range ids.RenderedSignals() {
		require.Contains(t, iface, " "+name+";")
	}

	burst := find(t, res.Artifacts, "verification/uvm/sequences/axi4_burst_transactions_seq.sv")
	require.Contains(t, burst, "class axi4_burst_transactions_seq extends axi4_base_seq;")
	require.Contains(t, burst, "len inside")
	require.NotContains(t, burst, "needs manual implementation")

	core := find(t, res.Artifacts, "rtl/sample_core.sv")
	require.Contains(t, core, "module Sample_Core")

	full := find(t, res.Artifacts, "sim/config/filelists/axi4_full.f")
	require.Contains(t, full, "../../../rtl/interfaces/axi4_if.sv")
	require.Less(t, strings.Index(full, "../../../rtl/sample_core.sv"), strings.Index(full, "../../../verification/common/axi4_transaction.sv"))
	require.True(t, strings.HasSuffix(strings.TrimSpace(full), "../../../verification/testbench/tb_top.sv"))

	base := find(t, res.Artifacts, "sim/config/filelists/axi4_base.f")
	require.NotContains(t, base, "verification/")

	cfg := find(t, res.Artifacts, "sim/config/test_config.cfg")
	require.Contains(t, cfg, "burst_transactions|Multi-beat write and read bursts|filelists/axi4_full.f|axi4_burst_transactions_test|burst_transactions.mxd|UVM_MEDIUM")
}

var vifToken = regexp.MustCompile(`\bvif\.([A-Za-z_][A-Za-z0-9_]*)`)

// Every signal the driver and monitor touch is declared by the interface.
func TestSynthesize_SignalReferencesMatchInterface(t *testing.T) {
	c := builtinCatalog(t)
	for _, proto := range c.ProtocolNames() {
		t.Run(proto, func(t *testing.T) {
			p, err := c.Protocol(proto)
			require.NoError(t, err)
			res, ids := synthesize(t, c, catalog.Request{
				ProjectName: "Sample",
				Protocol:    proto,
				Features:    p.Profile().SupportedFeatures(),
			})

			declared := map[string]bool{}
			for _, name := range ids.RenderedSignals() {
				declared[name] = true
			}
			for _, a := range res.Artifacts {
				if a.Component != "driver" && a.Component != "monitor" {
					continue
				}
				refs := vifToken.FindAllStringSubmatch(string(a.Content), -1)
				require.NotEmpty(t, refs, a.RelativePath)
				for _, m := range refs {
					require.True(t, declared[m[1]], "%s references undeclared vif.%s", a.RelativePath, m[1])
				}
			}
		})
	}
}

func TestSynthesize_EveryNamedTemplateRenders(t *testing.T) {
	c := builtinCatalog(t)
	for _, name := range c.TemplateNames() {
		t.Run(name, func(t *testing.T) {
			res, _ := synthesize(t, c, catalog.Request{ProjectName: "Demo_Proj", Template: name})
			require.NotEmpty(t, res.Artifacts)

			for _, a := range res.Artifacts {
				body := strings.ReplaceAll(string(a.Content), "${{ matrix.test }}", "")
				require.NotContains(t, body, "{{", a.RelativePath)
			}

			var ci map[string]any
			require.NoError(t, yaml.Unmarshal([]byte(find(t, res.Artifacts, ".github/workflows/ci.yml")), &ci))
			require.Contains(t, ci, "jobs")
		})
	}
}

func TestSynthesize_InapplicableScenarioBecomesStub(t *testing.T) {
	c := builtinCatalog(t)
	res, _ := synthesize(t, c, catalog.Request{
		ProjectName: "Periph",
		Protocol:    "APB",
		Features:    []string{"uvm_environment"},
		Scenarios:   []string{"single_write", "burst_transactions", "power_down"},
	})

	require.Equal(t, []string{
		"scenario burst_transactions needs manual implementation",
		"scenario power_down needs manual implementation",
	}, res.Warnings)

	stub := find(t, res.Artifacts, "verification/uvm/sequences/apb_power_down_seq.sv")
	require.Contains(t, stub, "scenario power_down needs manual implementation")
	require.NotContains(t, stub, "randomize")

	write := find(t, res.Artifacts, "verification/uvm/sequences/apb_single_write_seq.sv")
	require.Contains(t, write, "::WRITE")
	require.NotContains(t, write, "needs manual implementation")

	find(t, res.Artifacts, "verification/uvm/tests/apb_power_down_test.sv")
}

func TestSynthesize_FeatureGating(t *testing.T) {
	c := builtinCatalog(t)
	res, _ := synthesize(t, c, catalog.Request{ProjectName: "Lint_Only", Protocol: "UART"})

	for _, p := range paths(res.Artifacts) {
		require.NotContains(t, p, "verification/uvm/env/")
		require.NotContains(t, p, "verification/uvm/tests/")
		require.NotEqual(t, "verification/testbench/tb_top.sv", p)
	}
	cfg := find(t, res.Artifacts, "sim/config/test_config.cfg")
	require.Contains(t, cfg, "uart_lint|RTL elaboration only")

	ci := find(t, res.Artifacts, ".github/workflows/ci.yml")
	require.NotContains(t, ci, "matrix")
	require.NotContains(t, ci, "schedule")
}

const customBus = `
protocols:
  - name: MyBus
    default_simulator: verilator
    supported_features: [uvm_environment, scoreboard]
    signals:
      - {name: clk, width: 1, direction: input, role: clock}
      - {name: req, width: 1, direction: output}
      - {name: addr, width: 16, direction: output}
      - {name: gnt, width: 1, direction: input}
`

func TestSynthesize_CustomProtocolUsesGenericTemplates(t *testing.T) {
	c := builtinCatalog(t, customBus)
	res, ids := synthesize(t, c, catalog.Request{
		ProjectName: "Custom",
		Protocol:    "MyBus",
		Features:    []string{"uvm_environment", "scoreboard"},
		Scenarios:   []string{"single_write"},
	})
	require.Empty(t, res.Warnings)
	require.Equal(t, "my_bus", ids.ClassPrefix)

	driver := find(t, res.Artifacts, "verification/uvm/agents/my_bus_agent/my_bus_driver.sv")
	require.Contains(t, driver, "drive() needs a protocol-specific implementation")
	require.Contains(t, driver, "vif.addr <= '0;")
	require.NotContains(t, driver, "wait (vif.")

	iface := find(t, res.Artifacts, "rtl/interfaces/my_bus_if.sv")
	require.Contains(t, iface, "logic [15:0] addr;")
	require.Contains(t, iface, "input clk,")
}

func TestSynthesize_Deterministic(t *testing.T) {
	c := builtinCatalog(t)
	req := catalog.Request{ProjectName: "Sample", Template: "axi4-full"}
	first, _ := synthesize(t, c, req)
	second, _ := synthesize(t, c, req)
	require.Equal(t, first, second)
}

func TestSynthesize_SharedCacheReusesParsedTemplates(t *testing.T) {
	c := builtinCatalog(t)
	spec, err := c.Resolve(catalog.Request{ProjectName: "Sample", Template: "axi4-full"})
	require.NoError(t, err)
	ids, err := naming.Derive(spec.ProjectName(), spec.Protocol().Profile(), c.Naming())
	require.NoError(t, err)

	cache := cachemanager.NewInMemoryCacheManager[string, *render.Template]("templates", cachemanager.NoExpiration, cachemanager.DefaultCleanupInterval)
	first, err := NewBuiltin(c.FeatureNames(), WithCache(cache))
	require.NoError(t, err)
	require.NotEmpty(t, first.Manifest().Components)

	want, err := first.Synthesize(context.Background(), spec, ids)
	require.NoError(t, err)
	filled := cache.Len()
	require.Positive(t, filled)

	second, err := NewBuiltin(c.FeatureNames(), WithCache(cache))
	require.NoError(t, err)
	got, err := second.Synthesize(context.Background(), spec, ids)
	require.NoError(t, err)
	require.Equal(t, want, got)
	require.Equal(t, filled, cache.Len())
}

func TestSynthesize_DuplicatePathIsInternalConsistency(t *testing.T) {
	fsys := builtinFSWithManifest(t, `
stages: [project]
components:
  - {name: one, stage: project, template: gitignore.tmpl, path: out/{{ident.file_stem}}.txt}
  - {name: two, stage: project, template: gitignore.tmpl, path: out/{{ident.file_stem}}.txt}
`)
	c := builtinCatalog(t)
	spec, err := c.Resolve(catalog.Request{ProjectName: "Dup", Protocol: "UART"})
	require.NoError(t, err)
	ids, err := naming.Derive(spec.ProjectName(), spec.Protocol().Profile(), c.Naming())
	require.NoError(t, err)

	s, err := New(fsys, c.FeatureNames())
	require.NoError(t, err)
	_, err = s.Synthesize(context.Background(), spec, ids)
	require.Error(t, err)
	require.Equal(t, vferrors.EInternalConsistency, vferrors.GetCode(err))
	require.Contains(t, err.Error(), "out/dup.txt")
}

func TestSynthesize_UnresolvedPlaceholder(t *testing.T) {
	fsys := builtinFSWithManifest(t, `
stages: [project]
components:
  - {name: broken, stage: project, template: broken.tmpl, path: broken.txt}
`)
	fsys["components/broken.tmpl"] = &fstest.MapFile{Data: []byte("module {{ident.no_such_thing}};\n")}

	c := builtinCatalog(t)
	spec, err := c.Resolve(catalog.Request{ProjectName: "Broken", Protocol: "UART"})
	require.NoError(t, err)
	ids, err := naming.Derive(spec.ProjectName(), spec.Protocol().Profile(), c.Naming())
	require.NoError(t, err)

	s, err := New(fsys, c.FeatureNames())
	require.NoError(t, err)
	_, err = s.Synthesize(context.Background(), spec, ids)
	require.Equal(t, vferrors.EUnresolvedPlaceholder, vferrors.GetCode(err))
}

func TestClassSuffixStemsAreReservedScenarios(t *testing.T) {
	for _, suffix := range classSuffixes {
		for _, kind := range []string{"_seq", "_test"} {
			if stem, ok := strings.CutSuffix(suffix, kind); ok {
				require.Contains(t, catalog.ReservedScenarioNames, stem, suffix)
			}
		}
	}
}

func TestLoadManifest_OrdersByStage(t *testing.T) {
	fsys := builtinFSWithManifest(t, `
stages: [first, second]
components:
  - {name: late, stage: second, template: a.tmpl, path: a}
  - {name: early, stage: first, template: b.tmpl, path: b}
  - {name: early2, stage: first, template: c.tmpl, path: c}
`)
	m, err := LoadManifest(fsys)
	require.NoError(t, err)
	var names []string
	for _, c := range m.Components {
		names = append(names, c.Name)
	}
	require.Equal(t, []string{"early", "early2", "late"}, names)
}

func TestLoadManifest_UnknownStage(t *testing.T) {
	fsys := builtinFSWithManifest(t, `
stages: [only]
components:
  - {name: x, stage: elsewhere, template: a.tmpl, path: a}
`)
	_, err := LoadManifest(fsys)
	require.Equal(t, vferrors.EInternalConsistency, vferrors.GetCode(err))
}

func TestCheckVIF(t *testing.T) {
	ids := naming.IdentifierSet{SignalNames: map[string]string{"clk": "clk", "data": "data_q"}}
	require.NoError(t, checkVIF("d.sv", "vif.clk <= 0; vif.data_q <= 1; my_vif.other = 2;", ids))

	err := checkVIF("d.sv", "vif.data <= 1;", ids)
	require.Equal(t, vferrors.EInternalConsistency, vferrors.GetCode(err))
	require.Contains(t, err.Error(), "vif.data")
}

func TestCheckYAML(t *testing.T) {
	require.NoError(t, checkYAML("ci.yml", "name: x\njobs: {}\n"))
	require.Error(t, checkYAML("ci.yml", "name: [unclosed\n"))
	require.Error(t, checkYAML("ci.yml", "# only a comment\n"))
}

// builtinFSWithManifest copies the scenario catalog and generic bodies the
// tests reference into a MapFS with a replacement manifest.
func builtinFSWithManifest(t *testing.T, manifest string) fstest.MapFS {
	t.Helper()
	return fstest.MapFS{
		"manifest.yaml":             &fstest.MapFile{Data: []byte(manifest)},
		"scenarios.yaml":            &fstest.MapFile{Data: []byte("scenarios: []\n")},
		"components/gitignore.tmpl": &fstest.MapFile{Data: []byte("sim/output/\n")},
	}
}
