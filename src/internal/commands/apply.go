package commands

import (
	"context"
	"flag"

	"github.com/maksimkurb/fw-ipsets/src/internal/config"
	"github.com/maksimkurb/fw-ipsets/src/internal/log"
	"github.com/maksimkurb/fw-ipsets/src/internal/service"
)

func CreateApplyCommand() *ApplyCommand {
	gc := &ApplyCommand{
		fs: flag.NewFlagSet("apply", flag.ExitOnError),
	}

	gc.fs.StringVar(&gc.Only, "only", "", "Comma-separated list of set names to apply (default: all)")
	gc.fs.BoolVar(&gc.ContinueOnError, "continue-on-error", false, "Keep applying remaining sets after a failure and report all errors at the end")

	return gc
}

type ApplyCommand struct {
	fs  *flag.FlagSet
	ctx context.Context
	cfg *config.Config

	Only            string
	ContinueOnError bool
}

func (g *ApplyCommand) Name() string {
	return g.fs.Name()
}

func (g *ApplyCommand) Init(args []string, ctx *AppContext) error {
	g.ctx = ctx.context()

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

func (g *ApplyCommand) Run() error {
	svc := service.NewReconcileService(newDependencies(g.cfg))

	reports, err := svc.Reconcile(g.ctx, g.cfg, service.ReconcileOptions{
		Only:            splitNames(g.Only),
		ContinueOnError: g.ContinueOnError,
	})

	applied := 0
	for _, r := range reports {
		if r.Applied {
			applied++
		}
	}

	if err != nil {
		log.Errorf("Applied %d of %d set(s)", applied, len(reports))
		return err
	}

	log.Infof("Applied %d set(s)", applied)
	return nil
}
