package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/veriforge/veriforge/internal/config"
	"github.com/veriforge/veriforge/internal/log"
)

var (
	version    = "dev"
	cfgFile    string
	debug      bool
	cfg        config.Config
	logCleanup func()
)

var rootCmd = &cobra.Command{
	Use:   "veriforge",
	Short: "Scaffold FPGA verification projects",
	Long: `veriforge generates a consistent verification project skeleton
(RTL interface, UVM components, simulation config and CI pipeline) from a
project name, a protocol, a simulator and a set of features.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCleanup != nil {
			logCleanup()
			logCleanup = nil
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .veriforge/config.yaml, then ~/.config/veriforge/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false,
		"write debug logs to log_file")
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("output_dir", defaults.OutputDir)
	viper.SetDefault("on_conflict", defaults.OnConflict)
	viper.SetDefault("catalog_dir", defaults.CatalogDir)
	viper.SetDefault("debug", defaults.Debug)
	viper.SetDefault("log_file", defaults.LogFile)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.file_path", defaults.Tracing.FilePath)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .veriforge/config.yaml (current directory)
		// 2. ~/.config/veriforge/config.yaml (user config)
		if _, err := os.Stat(config.DefaultConfigPath); err == nil {
			viper.SetConfigFile(config.DefaultConfigPath)
		} else if dir := config.UserConfigDir(); dir != "" {
			viper.AddConfigPath(dir)
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	// A missing config file is fine; defaults apply.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			fmt.Fprintf(os.Stderr, "warning: reading config %s: %v\n", cfgFile, err)
		}
	}

	cfg = config.Config{}
	_ = viper.Unmarshal(&cfg)
	if debug {
		cfg.Debug = true
	}
	initLogging()
	log.Debug(log.CatConfig, "config loaded", "file", viper.ConfigFileUsed())
}

// initLogging enables the debug log when requested by flag, config or the
// VERIFORGE_DEBUG environment variable.
func initLogging() {
	if !cfg.Debug && os.Getenv("VERIFORGE_DEBUG") == "" {
		return
	}
	path := cfg.LogFile
	if path == "" {
		path = config.Defaults().LogFile
	}
	if dir := filepath.Dir(path); dir != "." {
		_ = os.MkdirAll(dir, 0o750)
	}
	cleanup, err := log.Init(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: debug log disabled: %v\n", err)
		return
	}
	logCleanup = cleanup
	if level := os.Getenv("VERIFORGE_LOG_LEVEL"); level != "" {
		log.SetMinLevel(log.ParseLevel(level))
	}
}

// Execute runs the root command
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
	}
	return err
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
