package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	loader "github.com/veriforge/veriforge/internal/catalog"
	"github.com/veriforge/veriforge/internal/domain/catalog"
	"github.com/veriforge/veriforge/internal/engine"
	"github.com/veriforge/veriforge/internal/log"
	"github.com/veriforge/veriforge/internal/materialize"
	"github.com/veriforge/veriforge/internal/presentation"
	"github.com/veriforge/veriforge/internal/synth"
	"github.com/veriforge/veriforge/internal/tracing"
)

var (
	newProtocol  string
	newSimulator string
	newFeatures  []string
	newScenarios []string
	newTemplate  string
	newJSON      bool
	newDryRun    bool
)

var newCmd = &cobra.Command{
	Use:   "new <project>",
	Short: "Generate a verification project",
	Long: `Generate a verification project under <output>/<project>.

Every file is validated and rendered before anything is written. When a
target file already exists the run aborts without writing, unless
--on-conflict overwrite is given.

Examples:
  # AXI4 project with a scoreboard, simulated with dsim
  veriforge new Sample -p AXI4 -s dsim -f uvm_environment,scoreboard

  # Start from a named template and add a scenario
  veriforge new Bridge -t axi4-full --scenario back_to_back

  # Show what would change in an existing project
  veriforge new Sample -p AXI4 --dry-run

  # Machine-readable result
  veriforge new Sample -p AXI4 --json | jq .artifacts_written`,
	Args: cobra.ExactArgs(1),
	RunE: runNew,
}

func init() {
	newCmd.Flags().StringVarP(&newProtocol, "protocol", "p", "", "protocol name (see catalog:list)")
	newCmd.Flags().StringVarP(&newSimulator, "simulator", "s", "", "simulator (default: the protocol's default)")
	newCmd.Flags().StringSliceVarP(&newFeatures, "feature", "f", nil, "feature flag (repeatable or comma separated)")
	newCmd.Flags().StringSliceVar(&newScenarios, "scenario", nil, "test scenario (repeatable or comma separated)")
	newCmd.Flags().StringVarP(&newTemplate, "template", "t", "", "named template supplying defaults")
	newCmd.Flags().String("on-conflict", "", "abort or overwrite (default from config: abort)")
	newCmd.Flags().StringP("output", "o", "", "directory the project is created under (default from config)")
	newCmd.Flags().BoolVar(&newJSON, "json", false, "print the result as JSON")
	newCmd.Flags().BoolVar(&newDryRun, "dry-run", false, "show the planned changes without writing")

	_ = viper.BindPFlag("on_conflict", newCmd.Flags().Lookup("on-conflict"))
	_ = viper.BindPFlag("output_dir", newCmd.Flags().Lookup("output"))
	rootCmd.AddCommand(newCmd)
}

func runNew(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cat, err := loader.Load(cfg.CatalogDir)
	if err != nil {
		return err
	}
	s, err := synth.NewBuiltin(cat.FeatureNames())
	if err != nil {
		return err
	}
	tp, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.ErrorErr(log.CatTrace, "tracer shutdown failed", err)
		}
	}()

	root, err := filepath.Abs(cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("resolving output directory: %w", err)
	}

	eng := engine.New(cat, s, engine.WithTracer(tp.Tracer()))
	res, genErr := eng.Generate(cmd.Context(), engine.Request{
		Request: catalog.Request{
			ProjectName: args[0],
			Protocol:    newProtocol,
			Simulator:   newSimulator,
			Features:    newFeatures,
			Scenarios:   newScenarios,
			Template:    newTemplate,
		},
		Root:       root,
		OnConflict: materialize.ConflictPolicy(cfg.OnConflict),
		DryRun:     newDryRun,
	})

	out := cmd.OutOrStdout()
	if newJSON {
		err = presentation.NewFormatter(out).FormatResult(res)
	} else {
		err = presentation.WriteSummary(out, res)
	}
	if err != nil {
		return err
	}

	switch {
	case genErr != nil:
		return genErr
	case res.Status == materialize.StatusConflict:
		return fmt.Errorf("%d files already exist in %s", len(res.Conflicts), res.ProjectDir)
	}
	return nil
}
