// Package cmd implements the sndctl commands.
package cmd

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/pandeptwidyaop/sndctl/internal/config"
	"github.com/pandeptwidyaop/sndctl/internal/services"
	"github.com/pandeptwidyaop/sndctl/internal/storage"
)

var (
	cfgFile    string
	macrosPath string
	socoURL    string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "sndctl",
	Short: "Run Sonos macros from the command line",
	Long: `sndctl manages and runs macros: named scripts of speaker commands
sent to a soco-cli HTTP API server.

Macros are read from the same document the server uses, so edits made
here are picked up by a running server.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if !verbose {
			log.SetOutput(io.Discard)
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: built-in defaults)")
	rootCmd.PersistentFlags().StringVar(&macrosPath, "macros", "", "macro file, overrides macros.path")
	rootCmd.PersistentFlags().StringVar(&socoURL, "url", "", "soco-cli HTTP API URL, overrides sococli.url")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if macrosPath != "" {
		cfg.Macros.Path = macrosPath
		cfg.Macros.Storage = "file"
	}
	if socoURL != "" {
		cfg.SocoCLI.URL = socoURL
	}
	return cfg, nil
}

// openMacros loads the macro repository. The returned func releases the store.
func openMacros(cfg *config.Config) (*services.MacroService, func(), error) {
	store, err := storage.Open(cfg.Macros.Storage, cfg.Macros.Path, cfg.Macros.BoltPath)
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if closer, ok := store.(io.Closer); ok {
			_ = closer.Close()
		}
	}

	svc, err := services.NewMacroService(store)
	if err != nil {
		release()
		return nil, nil, err
	}
	return svc, release, nil
}

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
}
