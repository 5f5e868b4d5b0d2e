package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"match-highlights/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedPrompter answers prompts from queues, in order
type scriptedPrompter struct {
	inputs   []string
	confirms []bool
	selects  []string
	messages []string
	failOn   string
}

func (p *scriptedPrompter) Input(message string, defaultValue string) (string, error) {
	p.messages = append(p.messages, message)
	if message == p.failOn || len(p.inputs) == 0 {
		return "", errors.New("interrupt")
	}
	answer := p.inputs[0]
	p.inputs = p.inputs[1:]
	return answer, nil
}

func (p *scriptedPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	p.messages = append(p.messages, message)
	if len(p.confirms) == 0 {
		return false, errors.New("interrupt")
	}
	answer := p.confirms[0]
	p.confirms = p.confirms[1:]
	return answer, nil
}

func (p *scriptedPrompter) Select(message string, options []string, defaultValue string) (string, error) {
	p.messages = append(p.messages, message)
	if len(p.selects) == 0 {
		return "", errors.New("interrupt")
	}
	answer := p.selects[0]
	p.selects = p.selects[1:]
	return answer, nil
}

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := DefaultOutput
	DefaultOutput = &buf
	t.Cleanup(func() { DefaultOutput = prev })
	return &buf
}

func TestRunSetup_ServiceAccount(t *testing.T) {
	out := captureOutput(t)
	path := filepath.Join(t.TempDir(), "config", "config.yaml")

	prompter := &scriptedPrompter{
		selects: []string{"service_account"},
		inputs: []string{
			"sa.json",     // credentials
			"full-folder", // full segments folder
			"short-folder",
			"",      // scratch: keep default
			"db.db", // job database
			"10",    // backward offset
			"",      // clip duration: keep default
			"8080",  // port
		},
	}

	require.NoError(t, RunSetupWithPrompter(prompter, path))
	assert.Contains(t, out.String(), "Configuration saved to "+path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "service_account", cfg.Google.AuthMode)
	assert.Equal(t, "sa.json", cfg.Google.CredentialsFile)
	assert.Equal(t, "full-folder", cfg.Google.FullFolderID)
	assert.Equal(t, "short-folder", cfg.Google.ShortFolderID)
	assert.Equal(t, "tmp", cfg.Paths.ScratchDirectory)
	assert.Equal(t, "db.db", cfg.Paths.JobDatabase)
	assert.Equal(t, 10.0, cfg.Clips.BackwardOffset)
	assert.Equal(t, 8.0, cfg.Clips.ClipDuration)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestRunSetup_OAuthAsksForToken(t *testing.T) {
	captureOutput(t)
	path := filepath.Join(t.TempDir(), "config.yaml")

	prompter := &scriptedPrompter{
		selects: []string{"oauth"},
		inputs:  []string{"client.json", "tok.json", "full", "short", "", "", "", "", ""},
	}

	require.NoError(t, RunSetupWithPrompter(prompter, path))
	assert.Contains(t, prompter.messages, "Where should the OAuth token be stored?")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "oauth", cfg.Google.AuthMode)
	assert.Equal(t, "tok.json", cfg.Google.TokenFile)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestRunSetup_RequiresFolders(t *testing.T) {
	captureOutput(t)
	path := filepath.Join(t.TempDir(), "config.yaml")

	prompter := &scriptedPrompter{
		selects: []string{"service_account"},
		inputs:  []string{"", ""},
	}

	err := RunSetupWithPrompter(prompter, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "full segments folder ID is required")

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "config must not be written")
}

func TestRunSetup_RejectsBadNumbers(t *testing.T) {
	captureOutput(t)
	path := filepath.Join(t.TempDir(), "config.yaml")

	prompter := &scriptedPrompter{
		selects: []string{"service_account"},
		inputs:  []string{"", "full", "short", "", "", "-3"},
	}

	err := RunSetupWithPrompter(prompter, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a positive number")
}

func TestRunSetup_KeepsExistingConfig(t *testing.T) {
	out := captureOutput(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0644))

	prompter := &scriptedPrompter{confirms: []bool{false}}

	require.NoError(t, RunSetupWithPrompter(prompter, path))
	assert.Contains(t, out.String(), "Setup cancelled.")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "server:\n  port: 9000\n", string(data))
}

func TestRunSetup_Cancelled(t *testing.T) {
	captureOutput(t)
	prompter := &scriptedPrompter{selects: []string{"service_account"}, failOn: "Path to Google credentials file?"}

	err := RunSetupWithPrompter(prompter, filepath.Join(t.TempDir(), "config.yaml"))
	require.Error(t, err)
	assert.Equal(t, "prompt cancelled", err.Error())
}
