package commands

import (
	"context"
	"strings"

	"github.com/maksimkurb/fw-ipsets/src/internal/config"
	"github.com/maksimkurb/fw-ipsets/src/internal/core"
	"github.com/maksimkurb/fw-ipsets/src/internal/errors"
)

type Runner interface {
	Init(args []string, globalArgs *AppContext) error
	Run() error
	Name() string
}

type AppContext struct {
	ConfigPath string
	Verbose    bool
	// Ctx is cancelled on SIGINT/SIGTERM.
	Ctx context.Context
}

func (c *AppContext) context() context.Context {
	if c == nil || c.Ctx == nil {
		return context.Background()
	}
	return c.Ctx
}

// loadAndValidateConfigOrFail loads configuration from file, validates it and
// fills in defaults.
func loadAndValidateConfigOrFail(configPath string) (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, errors.NewConfigError("failed to load configuration", err)
	}

	if err := cfg.ValidateConfig(); err != nil {
		return nil, errors.NewValidationError("configuration validation failed", err)
	}
	cfg.ApplyDefaults()

	return cfg, nil
}

func newDependencies(cfg *config.Config) *core.AppDependencies {
	return core.NewAppDependencies(core.AppConfig{
		CommandTimeout: cfg.GetCommandTimeout(),
		TempSuffix:     cfg.TempSuffix,
	})
}

// splitNames parses a comma-separated -only value.
func splitNames(value string) []string {
	var names []string
	for _, name := range strings.Split(value, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}
