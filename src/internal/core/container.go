package core

import (
	"fmt"
	"time"

	"github.com/maksimkurb/fw-ipsets/src/internal/config"
	"github.com/maksimkurb/fw-ipsets/src/internal/domain"
	"github.com/maksimkurb/fw-ipsets/src/internal/errors"
	"github.com/maksimkurb/fw-ipsets/src/internal/networking"
)

// AppDependencies is a dependency injection container that holds all application dependencies.
//
// This container provides a centralized place to manage dependencies and enables:
//   - Easy testing with mock backends
//   - Configuration-driven dependency creation
//   - Explicit dependency management instead of global state
//
// Usage:
//
//	deps := core.NewAppDependencies(core.AppConfig{
//	    CommandTimeout: cfg.GetCommandTimeout(),
//	    TempSuffix:     cfg.TempSuffix,
//	})
//	backend, err := deps.Backend(def)
type AppDependencies struct {
	runner networking.CommandRunner

	ipsetBackend domain.SetBackend
	nftBackend   domain.SetBackend
}

// AppConfig holds configuration for creating application dependencies.
type AppConfig struct {
	// CommandTimeout bounds every ipset/nft invocation. Zero disables the timeout.
	CommandTimeout time.Duration

	// TempSuffix names the scratch ipset used for the atomic swap.
	TempSuffix string

	// Runner overrides the command runner. If nil, an ExecRunner is used.
	Runner networking.CommandRunner
}

// NewAppDependencies creates a new dependency container with production implementations.
func NewAppDependencies(cfg AppConfig) *AppDependencies {
	runner := cfg.Runner
	if runner == nil {
		runner = networking.NewExecRunner(cfg.CommandTimeout)
	}

	return &AppDependencies{
		runner:       runner,
		ipsetBackend: networking.NewIPSetBackend(runner, cfg.TempSuffix),
		nftBackend:   networking.NewNFTablesBackend(runner),
	}
}

// NewTestDependencies creates a container with the given backends, typically mocks.
func NewTestDependencies(ipsetBackend, nftBackend domain.SetBackend) *AppDependencies {
	return &AppDependencies{
		ipsetBackend: ipsetBackend,
		nftBackend:   nftBackend,
	}
}

// Runner returns the command runner shared by the backends.
func (d *AppDependencies) Runner() networking.CommandRunner {
	return d.runner
}

// IPSetBackend returns the ipset backend.
func (d *AppDependencies) IPSetBackend() domain.SetBackend {
	return d.ipsetBackend
}

// NFTBackend returns the nftables backend.
func (d *AppDependencies) NFTBackend() domain.SetBackend {
	return d.nftBackend
}

// Backend selects the backend that stores def.
func (d *AppDependencies) Backend(def *config.SetDefinition) (domain.SetBackend, error) {
	var backend domain.SetBackend
	switch {
	case def.IsIPSet():
		backend = d.ipsetBackend
	case def.IsNFT():
		backend = d.nftBackend
	default:
		return nil, errors.New(errors.ErrCodeConfig, fmt.Sprintf("unknown backend %q for set %s", def.Backend, def.Name))
	}

	if backend == nil {
		return nil, errors.NewInternalError(fmt.Sprintf("backend %s is not configured", def.Backend.Normalized()), nil)
	}
	return backend, nil
}
