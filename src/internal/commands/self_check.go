package commands

import (
	"flag"
	"fmt"

	"github.com/maksimkurb/fw-ipsets/src/internal/config"
	"github.com/maksimkurb/fw-ipsets/src/internal/log"
	"github.com/maksimkurb/fw-ipsets/src/internal/service"
)

func CreateSelfCheckCommand() *SelfCheckCommand {
	gc := &SelfCheckCommand{
		fs: flag.NewFlagSet("self-check", flag.ExitOnError),
	}

	gc.fs.StringVar(&gc.Only, "only", "", "Comma-separated list of set names to check (default: all)")

	return gc
}

type SelfCheckCommand struct {
	fs  *flag.FlagSet
	cfg *config.Config

	Only string
}

func (g *SelfCheckCommand) Name() string {
	return g.fs.Name()
}

func (g *SelfCheckCommand) Init(args []string, ctx *AppContext) error {
	if err := g.fs.Parse(args); err != nil {
		return err
	}

	if cfg, err := loadAndValidateConfigOrFail(ctx.ConfigPath); err != nil {
		return err
	} else {
		g.cfg = cfg
	}

	return nil
}

func (g *SelfCheckCommand) Run() error {
	defs, err := g.cfg.FilterIPSets(splitNames(g.Only))
	if err != nil {
		return err
	}

	log.Infof("Running self-check...")
	results := service.NewSelfCheckService().Run(g.cfg, defs)

	for _, r := range results {
		scope := "system"
		if r.Set != "" {
			scope = r.Set
		}
		switch r.Status {
		case service.CheckOK:
			log.Infof("[%s] %s: %s", r.Check, scope, r.Message)
		case service.CheckWarn:
			log.Warnf("[%s] %s: %s", r.Check, scope, r.Message)
		default:
			log.Errorf("[%s] %s: %s", r.Check, scope, r.Message)
		}
	}

	if service.HasFailures(results) {
		log.Errorf("Self-check completed with failures")
		return fmt.Errorf("self-check failed")
	}

	log.Infof("Self-check completed successfully")
	return nil
}
