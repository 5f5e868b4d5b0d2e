package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"match-highlights/infrastructure/config"
	"match-highlights/infrastructure/drive"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
)

// Prompter interface for interactive prompts (allows mocking in tests)
type Prompter interface {
	Input(message string, defaultValue string) (string, error)
	Confirm(message string, defaultValue bool) (bool, error)
	Select(message string, options []string, defaultValue string) (string, error)
}

// SurveyPrompter implements Prompter using the survey library
type SurveyPrompter struct{}

func (p *SurveyPrompter) Input(message string, defaultValue string) (string, error) {
	result := ""
	prompt := &survey.Input{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

func (p *SurveyPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	result := defaultValue
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return false, err
	}
	return result, nil
}

func (p *SurveyPrompter) Select(message string, options []string, defaultValue string) (string, error) {
	result := ""
	prompt := &survey.Select{
		Message: message,
		Options: options,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

// DefaultPrompter is the prompter used in production
var DefaultPrompter Prompter = &SurveyPrompter{}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create configuration file interactively",
	Long: `Prompts for configuration values and creates config.yaml.

This command guides you through setting up your configuration file
with the Google Drive folders, credentials, local paths and clip timing.`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		path = config.DefaultPath
	}
	return RunSetupWithPrompter(DefaultPrompter, path)
}

// RunSetupWithPrompter runs the setup with a given prompter (for testing)
func RunSetupWithPrompter(prompter Prompter, configPath string) error {
	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		overwrite, err := prompter.Confirm("config.yaml already exists. Overwrite?", false)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if !overwrite {
			fmt.Fprintln(DefaultOutput, "Setup cancelled.")
			return nil
		}
	}

	fmt.Fprintln(DefaultOutput, "Welcome to match-highlights setup!")
	fmt.Fprintln(DefaultOutput)

	cfg := config.Default()

	// Google section
	if err := promptGoogle(prompter, cfg); err != nil {
		return err
	}

	// Paths section
	if err := promptPaths(prompter, cfg); err != nil {
		return err
	}

	// Clip timing and server
	if err := promptClips(prompter, cfg); err != nil {
		return err
	}
	if err := promptServer(prompter, cfg); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	// Ensure config directory exists
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Save configuration
	if err := config.Save(cfg, configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Fprintln(DefaultOutput)
	fmt.Fprintf(DefaultOutput, "Configuration saved to %s\n", configPath)
	return nil
}

func promptGoogle(prompter Prompter, cfg *config.Config) error {
	mode, err := prompter.Select("How should the service sign in to Google Drive?",
		[]string{drive.AuthServiceAccount, drive.AuthOAuth}, cfg.Google.AuthMode)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Google.AuthMode = mode

	credentials, err := prompter.Input("Path to Google credentials file?", cfg.Google.CredentialsFile)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if credentials != "" {
		cfg.Google.CredentialsFile = credentials
	}

	if mode == drive.AuthOAuth {
		token, err := prompter.Input("Where should the OAuth token be stored?", cfg.Google.TokenFile)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if token != "" {
			cfg.Google.TokenFile = token
		}
	}

	full, err := prompter.Input("Google Drive folder ID for full segments?", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if full == "" {
		return fmt.Errorf("full segments folder ID is required")
	}
	cfg.Google.FullFolderID = full

	short, err := prompter.Input("Google Drive folder ID for highlight clips?", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if short == "" {
		return fmt.Errorf("highlight clips folder ID is required")
	}
	cfg.Google.ShortFolderID = short

	return nil
}

func promptPaths(prompter Prompter, cfg *config.Config) error {
	scratch, err := prompter.Input("Scratch directory for clip assembly?", cfg.Paths.ScratchDirectory)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if scratch != "" {
		cfg.Paths.ScratchDirectory = scratch
	}

	db, err := prompter.Input("Path to the job database?", cfg.Paths.JobDatabase)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if db != "" {
		cfg.Paths.JobDatabase = db
	}

	return nil
}

func promptClips(prompter Prompter, cfg *config.Config) error {
	offset, err := promptFloat(prompter, "Seconds of video before the action?", cfg.Clips.BackwardOffset)
	if err != nil {
		return err
	}
	cfg.Clips.BackwardOffset = offset

	duration, err := promptFloat(prompter, "Clip duration in seconds?", cfg.Clips.ClipDuration)
	if err != nil {
		return err
	}
	cfg.Clips.ClipDuration = duration

	return nil
}

func promptServer(prompter Prompter, cfg *config.Config) error {
	port, err := prompter.Input("HTTP port?", strconv.Itoa(cfg.Server.Port))
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if port == "" {
		return nil
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("invalid port %q", port)
	}
	cfg.Server.Port = n
	return nil
}

func promptFloat(prompter Prompter, message string, defaultValue float64) (float64, error) {
	answer, err := prompter.Input(message, strconv.FormatFloat(defaultValue, 'f', -1, 64))
	if err != nil {
		return 0, fmt.Errorf("prompt cancelled")
	}
	if answer == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(answer, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%q is not a positive number", answer)
	}
	return v, nil
}
