package cmd

import (
	"github.com/spf13/cobra"

	loader "github.com/veriforge/veriforge/internal/catalog"
	"github.com/veriforge/veriforge/internal/presentation"
)

var catalogJSON bool

var catalogListCmd = &cobra.Command{
	Use:   "catalog:list",
	Short: "List protocols, simulators, features and named templates",
	Long: `List the catalog: the built-in entries plus any user overlays found in
catalog_dir.

Examples:
  veriforge catalog:list

  # Signals of one protocol
  veriforge catalog:list --json | jq '.protocols[] | select(.name == "APB") | .signals'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loader.Load(cfg.CatalogDir)
		if err != nil {
			return err
		}
		dto := presentation.FromCatalog(c)
		if catalogJSON {
			return presentation.NewFormatter(cmd.OutOrStdout()).FormatCatalog(dto)
		}
		return presentation.WriteCatalog(cmd.OutOrStdout(), dto)
	},
}

func init() {
	catalogListCmd.Flags().BoolVar(&catalogJSON, "json", false, "print the catalog as JSON")
	rootCmd.AddCommand(catalogListCmd)
}
