// Command mnemographd is the CLI entry point for the graph-native vector
// memory engine: open a store, run an integrity scan, or print size stats.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mnemograph/mnemograph/pkg/config"
	"github.com/mnemograph/mnemograph/pkg/engine"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "mnemographd",
		Short: "mnemograph - graph-native vector memory engine",
		Long: `mnemograph fuses a knowledge graph, a vector index, and a
temporal version history behind a single transactional store.`,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (env vars always override)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("mnemographd v%s (%s)\n", version, commit)
		},
	})

	openCmd := &cobra.Command{
		Use:   "open",
		Short: "Open the store and report its node, edge, embedding, and version counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(configPath, func(e *engine.Engine) error {
				fmt.Println("store opened successfully")
				stats, err := e.Stats()
				if err != nil {
					return fmt.Errorf("collecting stats: %w", err)
				}
				fmt.Println(stats.String())
				return nil
			})
		},
	}
	rootCmd.AddCommand(openCmd)

	validateCmd := &cobra.Command{
		Use:   "validate-integrity",
		Short: "Run a full consistency scan over the persisted state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(configPath, func(e *engine.Engine) error {
				report, err := e.ValidateIntegrity()
				if err != nil {
					return fmt.Errorf("validating integrity: %w", err)
				}
				if report.OK() {
					fmt.Println("no issues found")
					return nil
				}
				for _, issue := range report.Issues {
					fmt.Println(issue.String())
				}
				return fmt.Errorf("%d issue(s) found", len(report.Issues))
			})
		},
	}
	rootCmd.AddCommand(validateCmd)

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Print node, edge, embedding, and version counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(configPath, func(e *engine.Engine) error {
				stats, err := e.Stats()
				if err != nil {
					return fmt.Errorf("collecting stats: %w", err)
				}
				fmt.Println(stats.String())
				return nil
			})
		},
	}
	rootCmd.AddCommand(statsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withEngine loads configuration (from configPath if given, else the
// environment), opens the engine, runs fn, and always closes the engine
// before returning.
func withEngine(configPath string, fn func(*engine.Engine) error) error {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.LoadFromEnv()
	}

	e, err := engine.Open(cfg)
	if err != nil {
		return fmt.Errorf("opening engine: %w", err)
	}
	defer e.Close()

	return fn(e)
}
