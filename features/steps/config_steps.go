//go:build integration

package steps

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"match-highlights/infrastructure/config"

	"github.com/cucumber/godog"
)

type configContext struct {
	dir        string
	configPath string
	cfg        *config.Config
	loadErr    error
	restoreEnv []func()
}

// SharedConfigContext is reset before each scenario via Before hook
var SharedConfigContext *configContext

func InitializeConfigScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		dir, err := os.MkdirTemp("", "mh-config-")
		if err != nil {
			return c, err
		}
		SharedConfigContext = &configContext{dir: dir, configPath: filepath.Join(dir, "config.yaml")}
		return c, nil
	})

	// Reset environment and temp files after each scenario
	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		for _, restore := range SharedConfigContext.restoreEnv {
			restore()
		}
		os.RemoveAll(SharedConfigContext.dir)
		return c, nil
	})

	ctx.Step(`^a configuration file containing:$`, aConfigurationFileContaining)
	ctx.Step(`^no configuration file$`, noConfigurationFile)
	ctx.Step(`^the environment variable "([^"]*)" is "([^"]*)"$`, theEnvironmentVariableIs)
	ctx.Step(`^I load the configuration$`, iLoadTheConfiguration)
	ctx.Step(`^I attempt to load the configuration$`, iAttemptToLoadTheConfiguration)
	ctx.Step(`^"([^"]*)" is "([^"]*)"$`, settingIs)
	ctx.Step(`^the configuration is valid$`, theConfigurationIsValid)
	ctx.Step(`^the configuration is invalid because "([^"]*)"$`, theConfigurationIsInvalidBecause)
	ctx.Step(`^loading fails with "([^"]*)"$`, loadingFailsWith)
}

func aConfigurationFileContaining(doc *godog.DocString) error {
	return os.WriteFile(SharedConfigContext.configPath, []byte(doc.Content), 0644)
}

func noConfigurationFile() error {
	return nil
}

func theEnvironmentVariableIs(key, value string) error {
	c := SharedConfigContext
	prev, had := os.LookupEnv(key)
	c.restoreEnv = append(c.restoreEnv, func() {
		if had {
			os.Setenv(key, prev)
		} else {
			os.Unsetenv(key)
		}
	})
	return os.Setenv(key, value)
}

func iLoadTheConfiguration() error {
	c := SharedConfigContext
	c.cfg, c.loadErr = config.Load(c.configPath)
	if c.loadErr != nil {
		return fmt.Errorf("failed to load config: %w", c.loadErr)
	}
	return nil
}

func iAttemptToLoadTheConfiguration() error {
	c := SharedConfigContext
	c.cfg, c.loadErr = config.Load(c.configPath)
	return nil
}

func settingIs(key, expected string) error {
	got, err := config.NewManager(SharedConfigContext.cfg, SharedConfigContext.configPath).Get(key)
	if err != nil {
		return err
	}
	if got != expected {
		return fmt.Errorf("expected %s to be %q, got %q", key, expected, got)
	}
	return nil
}

func theConfigurationIsValid() error {
	return SharedConfigContext.cfg.Validate()
}

func theConfigurationIsInvalidBecause(reason string) error {
	err := SharedConfigContext.cfg.Validate()
	if err == nil {
		return fmt.Errorf("expected validation error")
	}
	if !strings.Contains(err.Error(), reason) {
		return fmt.Errorf("expected error containing %q, got %q", reason, err.Error())
	}
	return nil
}

func loadingFailsWith(msg string) error {
	err := SharedConfigContext.loadErr
	if err == nil {
		return fmt.Errorf("expected load error")
	}
	if !strings.Contains(err.Error(), msg) {
		return fmt.Errorf("expected error containing %q, got %q", msg, err.Error())
	}
	return nil
}
