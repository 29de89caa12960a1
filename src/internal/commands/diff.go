package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/maksimkurb/fw-ipsets/src/internal/config"
	"github.com/maksimkurb/fw-ipsets/src/internal/core"
	"github.com/maksimkurb/fw-ipsets/src/internal/errors"
	"github.com/maksimkurb/fw-ipsets/src/internal/log"
	"github.com/maksimkurb/fw-ipsets/src/internal/service"
)

func CreateDiffCommand() *DiffCommand {
	gc := &DiffCommand{
		fs:  flag.NewFlagSet("diff", flag.ExitOnError),
		out: os.Stdout,
	}

	gc.fs.StringVar(&gc.Only, "only", "", "Comma-separated list of set names to compare (default: all)")
	gc.fs.BoolVar(&gc.ShowItems, "show-items", false, "Print the items that would be added and removed")

	return gc
}

// DiffCommand shows what apply would change. Missing sets are still created (empty).
// Sets that cannot be compared are logged and skipped. An invalid selection or
// cancellation fails the command.
type DiffCommand struct {
	fs   *flag.FlagSet
	ctx  context.Context
	cfg  *config.Config
	deps *core.AppDependencies
	out  io.Writer

	Only      string
	ShowItems bool
}

func (g *DiffCommand) Name() string {
	return g.fs.Name()
}

func (g *DiffCommand) Init(args []string, ctx *AppContext) error {
	// stdout carries the command output
	log.SetForceStdErr(true)

	g.ctx = ctx.context()

	if err := g.fs.Parse(args); err != nil {
		return err
	}

	if cfg, err := loadAndValidateConfigOrFail(ctx.ConfigPath); err != nil {
		return err
	} else {
		g.cfg = cfg
	}
	g.deps = newDependencies(g.cfg)

	return nil
}

func (g *DiffCommand) Run() error {
	svc := service.NewReconcileService(g.deps)

	reports, err := svc.Plan(g.ctx, g.cfg, service.ReconcileOptions{
		Only:            splitNames(g.Only),
		ContinueOnError: true,
	})
	writeReports(g.out, reports, g.ShowItems)

	if err != nil {
		if g.ctx.Err() != nil || !errors.HasCode(err, errors.ErrCodeReconcile) {
			return err
		}
		log.Warnf("Some sets could not be compared, see errors above")
	}
	return nil
}

func writeReports(w io.Writer, reports []*service.SetReport, showItems bool) {
	for _, r := range reports {
		state := "up to date"
		if r.Changed() {
			state = "changed"
		}
		fmt.Fprintf(w, "%s (%s): %s, current %d, desired %d, +%d -%d\n",
			r.Name, r.Backend, state, r.Current.Len(), r.Desired.Len(), r.Additions.Len(), r.Removals.Len())

		if !showItems {
			continue
		}
		for _, item := range r.Additions.Sorted() {
			fmt.Fprintf(w, "  + %s\n", item)
		}
		for _, item := range r.Removals.Sorted() {
			fmt.Fprintf(w, "  - %s\n", item)
		}
	}
}
