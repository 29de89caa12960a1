package networking

import (
	"context"
	"os"
	"strings"
	"syscall"

	"github.com/vishvananda/netlink"

	"github.com/maksimkurb/fw-ipsets/src/internal/log"
)

func init() {
	log.DisableLogs()
}

type runnerCall struct {
	name   string
	args   []string
	script string
}

func (c runnerCall) cmdline() string {
	return cmdline(c.name, c.args)
}

// fakeRunner records invocations and returns canned outputs keyed by command line prefix.
type fakeRunner struct {
	calls   []runnerCall
	outputs map[string]string
	errs    map[string]error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		outputs: make(map[string]string),
		errs:    make(map[string]error),
	}
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return f.record(name, args)
}

func (f *fakeRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return f.record(name, args)
}

func (f *fakeRunner) record(name string, args []string) ([]byte, error) {
	call := runnerCall{name: name, args: append([]string(nil), args...)}

	// Scripts are passed as the last argument; capture them before the caller removes the file.
	if len(args) > 0 {
		last := args[len(args)-1]
		if strings.HasPrefix(last, os.TempDir()) {
			if data, err := os.ReadFile(last); err == nil {
				call.script = string(data)
			}
		}
	}
	f.calls = append(f.calls, call)

	line := call.cmdline()
	for prefix, err := range f.errs {
		if strings.HasPrefix(line, prefix) {
			return []byte("simulated failure"), &CommandError{Cmdline: line, Output: "simulated failure", Err: err}
		}
	}
	for prefix, out := range f.outputs {
		if strings.HasPrefix(line, prefix) {
			return []byte(out), nil
		}
	}
	return nil, nil
}

type fakeIPSetKernel struct {
	existing   map[string]bool
	destroyed  []string
	destroyErr error
}

func (k *fakeIPSetKernel) IpsetList(name string) (*netlink.IPSetResult, error) {
	if k.existing[name] {
		return &netlink.IPSetResult{SetName: name}, nil
	}
	return nil, syscall.ENOENT
}

func (k *fakeIPSetKernel) IpsetDestroy(name string) error {
	k.destroyed = append(k.destroyed, name)
	if k.destroyErr != nil {
		return k.destroyErr
	}
	delete(k.existing, name)
	return nil
}
