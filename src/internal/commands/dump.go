package commands

import (
	"flag"
	"io"
	"os"

	"github.com/maksimkurb/fw-ipsets/src/internal/config"
	"github.com/maksimkurb/fw-ipsets/src/internal/log"
)

func CreateDumpCommand() *DumpCommand {
	return &DumpCommand{
		fs:  flag.NewFlagSet("dump", flag.ExitOnError),
		out: os.Stdout,
	}
}

// DumpCommand prints the effective configuration, defaults included, as TOML.
type DumpCommand struct {
	fs  *flag.FlagSet
	cfg *config.Config
	out io.Writer
}

func (g *DumpCommand) Name() string {
	return g.fs.Name()
}

func (g *DumpCommand) Init(args []string, ctx *AppContext) error {
	// stdout carries the command output
	log.SetForceStdErr(true)

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

func (g *DumpCommand) Run() error {
	buf, err := g.cfg.SerializeConfig()
	if err != nil {
		return err
	}
	_, err = g.out.Write(buf.Bytes())
	return err
}
