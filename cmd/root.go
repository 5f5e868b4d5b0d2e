package cmd

import (
	"fmt"
	"io"
	"os"

	"match-highlights/infrastructure/config"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	envFiles []string
	cfg      *config.Config
	cfgErr   error
)

var rootCmd = &cobra.Command{
	Use:   "match-highlights",
	Short: "Cut highlight clips out of recorded match segments",
	Long: `match-highlights turns a live match recording into highlight clips:

  - Store raw recording segments in Google Drive, tagged by match
  - Resolve tagged actions to the segment(s) covering them
  - Cut and merge clips with ffmpeg stream copy
  - Upload, tag and share the clips
  - Track batches as jobs in a local SQLite database

Example:
  match-highlights serve
  match-highlights clip --file batch.json`,
	SilenceUsage: true,
}

// OutputWriter allows capturing output in tests
type OutputWriter = io.Writer

// DefaultOutput is the writer used by commands in production
var DefaultOutput OutputWriter = os.Stdout

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml)")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, ".env files to load before reading the config (default is ./.env)")
}

func initConfig() {
	if cfgFile == "" {
		cfgFile = config.DefaultPath
	}

	if err := config.LoadDotEnv(envFiles...); err != nil {
		cfg, cfgErr = nil, err
		return
	}

	// A missing file yields defaults; only unreadable or malformed files fail
	cfg, cfgErr = config.Load(cfgFile)
}

// GetConfig returns the loaded configuration
func GetConfig() *config.Config {
	return cfg
}

// requireConfig returns the loaded configuration or the reason it failed to load
func requireConfig() (*config.Config, error) {
	if cfgErr != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded; run 'match-highlights setup' first")
	}
	return cfg, nil
}
