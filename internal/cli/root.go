package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/kaelvex/frontier/internal/build"
	"github.com/kaelvex/frontier/internal/config"
	"github.com/kaelvex/frontier/internal/crawl"
	"github.com/kaelvex/frontier/internal/metadata"
	"github.com/spf13/cobra"
)

var (
	cfgFile     string
	restart     bool
	showVersion bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "frontier",
	Short: "A polite, restart-safe web crawler.",
	Long: `frontier crawls a seeded set of hosts, respecting a per-host
politeness delay and an admission policy, persisting discovery state so a
crash or restart resumes without re-crawling completed URLs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Fprintln(os.Stdout, build.FullVersion())
			return nil
		}

		cfg, err := InitConfigWithError()
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "loaded config: %d seed(s), %d worker(s), save_file=%s, restart=%t\n",
			len(cfg.SeedURLs()), cfg.ThreadsCount(), cfg.SaveFile(), cfg.Restart())

		sink := metadata.NewRecorder(slog.Default())
		return crawl.Run(cmd.Context(), cfg, sink)
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen
// once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config_file", "config.ini", "configuration file path")
	rootCmd.PersistentFlags().BoolVar(&restart, "restart", false, "wipe existing discovery state and reseed")
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "print the build version and exit")
}

// InitConfig loads the configuration from the --config_file flag, applying
// --restart, and exits the process on error.
func InitConfig() config.Config {
	cfg, err := InitConfigWithError()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	return cfg
}

// InitConfigWithError loads the configuration from the --config_file flag,
// applying --restart, returning any error instead of exiting. This makes it
// easier to test error cases.
func InitConfigWithError() (config.Config, error) {
	cfg, err := config.WithConfigFile(cfgFile)
	if err != nil {
		return config.Config{}, fmt.Errorf("error initializing config from file: %w", err)
	}
	built, err := cfg.WithRestart(restart).Build()
	if err != nil {
		return config.Config{}, err
	}
	return built, nil
}

func ResetFlags() {
	cfgFile = "config.ini"
	restart = false
	showVersion = false
}

// Test helper functions to set flag values from tests.
func SetConfigFileForTest(path string) {
	cfgFile = path
}

func SetRestartForTest(r bool) {
	restart = r
}
