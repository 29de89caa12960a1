package service

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/maksimkurb/fw-ipsets/src/internal/config"
	"github.com/maksimkurb/fw-ipsets/src/internal/core"
	"github.com/maksimkurb/fw-ipsets/src/internal/errors"
	"github.com/maksimkurb/fw-ipsets/src/internal/items"
	"github.com/maksimkurb/fw-ipsets/src/internal/log"
	"github.com/maksimkurb/fw-ipsets/src/internal/mocks"
)

func init() {
	log.DisableLogs()
}

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write source: %v", err)
	}
	return path
}

func parseSet(kind items.Kind, texts ...string) items.Set {
	s := items.NewSet()
	for _, t := range texts {
		s.Add(items.MustParse(kind, t))
	}
	return s
}

type fixture struct {
	ipset *mocks.MockSetBackend
	nft   *mocks.MockSetBackend
	svc   *ReconcileService
}

func newFixture() *fixture {
	ipset := mocks.NewMockSetBackend()
	nft := mocks.NewMockSetBackend()
	return &fixture{
		ipset: ipset,
		nft:   nft,
		svc:   NewReconcileService(core.NewTestDependencies(ipset, nft)),
	}
}

func TestReconcileService_Idempotent(t *testing.T) {
	dir := t.TempDir()
	source := writeSource(t, dir, "blocklist.txt", "# blocked\n10.0.0.0/24\n10.0.1.0/24\n\n192.168.1.7 # host\n")

	cfg := &config.Config{
		TempSuffix: "_tmp",
		IPSets: []*config.SetDefinition{
			{Backend: config.BackendIPSet, Name: "blocklist", Type: items.Network, Source: source},
		},
	}
	f := newFixture()

	first, err := f.svc.Reconcile(context.Background(), cfg, ReconcileOptions{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	expected := parseSet(items.Network, "10.0.0.0/23", "192.168.1.7/32")
	if !f.ipset.Sets["blocklist"].Equal(expected) {
		t.Errorf("Kernel set = %v, want %v", f.ipset.Sets["blocklist"].Strings(), expected.Strings())
	}
	if first[0].Additions.Len() != 2 || first[0].Removals.Len() != 0 {
		t.Errorf("Unexpected first diff: +%d -%d", first[0].Additions.Len(), first[0].Removals.Len())
	}

	second, err := f.svc.Reconcile(context.Background(), cfg, ReconcileOptions{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if second[0].Changed() {
		t.Errorf("Expected zero diff on second run, got +%d -%d", second[0].Additions.Len(), second[0].Removals.Len())
	}
	if f.ipset.ReplaceAllCalls != 2 {
		t.Errorf("Expected ReplaceAll on every run, got %d calls", f.ipset.ReplaceAllCalls)
	}
	if !second[0].Applied {
		t.Errorf("Expected report to be marked applied")
	}
}

func TestReconcileService_DiffSizing(t *testing.T) {
	f := newFixture()
	f.nft.Sets["hosts"] = parseSet(items.Address, "1.1.1.1", "2.2.2.2", "3.3.3.3")
	f.svc.WithSourceReader(func(path string, kind items.Kind, family config.IPFamily) (items.Set, error) {
		return parseSet(items.Address, "2.2.2.2", "3.3.3.3", "4.4.4.4", "5.5.5.5"), nil
	})

	cfg := &config.Config{
		IPSets: []*config.SetDefinition{
			{Backend: config.BackendNFT, Name: "hosts", Type: items.Address, Family: "inet", Table: "filter", Source: "hosts.txt"},
		},
	}

	reports, err := f.svc.Reconcile(context.Background(), cfg, ReconcileOptions{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	r := reports[0]
	if r.Current.Len() != 3 || r.Desired.Len() != 4 {
		t.Errorf("Unexpected sizes: current=%d desired=%d", r.Current.Len(), r.Desired.Len())
	}
	if !r.Additions.Equal(parseSet(items.Address, "4.4.4.4", "5.5.5.5")) {
		t.Errorf("Additions = %v", r.Additions.Strings())
	}
	if !r.Removals.Equal(parseSet(items.Address, "1.1.1.1")) {
		t.Errorf("Removals = %v", r.Removals.Strings())
	}
	if r.Backend != config.BackendNFT {
		t.Errorf("Backend = %v, want nft", r.Backend)
	}
	if f.ipset.EnsureTargetCalls != 0 {
		t.Errorf("Expected ipset backend to be untouched by nft definition")
	}
}

func threeDefinitions() *config.Config {
	return &config.Config{
		IPSets: []*config.SetDefinition{
			{Backend: config.BackendIPSet, Name: "first", Type: items.Network, Source: "first.txt"},
			{Backend: config.BackendNFT, Name: "second", Type: items.Network, Family: "ip", Table: "filter", Source: "second.txt"},
			{Backend: config.BackendIPSet, Name: "third", Type: items.Network, Source: "third.txt"},
		},
	}
}

func failingNFT(f *fixture) {
	f.nft.EnsureTargetFunc = func(ctx context.Context, def *config.SetDefinition) error {
		return errors.NewBackendCommandError("failed to list sets", stderrors.New("exit status 1"))
	}
	f.svc.WithSourceReader(func(path string, kind items.Kind, family config.IPFamily) (items.Set, error) {
		return parseSet(kind, "10.0.0.0/8"), nil
	})
}

func TestReconcileService_AbortsOnFirstFailure(t *testing.T) {
	f := newFixture()
	failingNFT(f)

	reports, err := f.svc.Reconcile(context.Background(), threeDefinitions(), ReconcileOptions{})
	if err == nil {
		t.Fatalf("Expected error")
	}
	if !errors.HasCode(err, errors.ErrCodeReconcile) || !errors.HasCode(err, errors.ErrCodeBackendCommand) {
		t.Errorf("Expected reconcile error wrapping backend command error, got %v", err)
	}
	if !strings.Contains(err.Error(), `set "second" (backend nft)`) {
		t.Errorf("Expected failing set identity in error, got %v", err)
	}

	if len(f.ipset.Replaced) != 1 || f.ipset.Replaced[0] != "first" {
		t.Errorf("Expected only the first set to be replaced, got %v", f.ipset.Replaced)
	}
	if len(reports) != 1 {
		t.Errorf("Expected 1 report, got %d", len(reports))
	}
}

func TestReconcileService_ContinueOnError(t *testing.T) {
	tests := []struct {
		name string
		opts ReconcileOptions
		cfg  func() *config.Config
	}{
		{
			name: "option",
			opts: ReconcileOptions{ContinueOnError: true},
			cfg:  threeDefinitions,
		},
		{
			name: "config",
			cfg: func() *config.Config {
				cfg := threeDefinitions()
				cfg.ContinueOnError = true
				return cfg
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			failingNFT(f)

			reports, err := f.svc.Reconcile(context.Background(), tt.cfg(), tt.opts)
			if err == nil || !strings.Contains(err.Error(), `set "second"`) {
				t.Fatalf("Expected joined error naming the failed set, got %v", err)
			}
			if len(f.ipset.Replaced) != 2 || f.ipset.Replaced[1] != "third" {
				t.Errorf("Expected first and third to be replaced, got %v", f.ipset.Replaced)
			}
			if len(reports) != 2 {
				t.Errorf("Expected 2 reports, got %d", len(reports))
			}
		})
	}
}

func TestReconcileService_SourceErrorSkipsReplace(t *testing.T) {
	dir := t.TempDir()
	source := writeSource(t, dir, "bad.txt", "10.0.0.0/24\n10.0.0.300\n")

	cfg := &config.Config{
		IPSets: []*config.SetDefinition{
			{Backend: config.BackendIPSet, Name: "bad", Type: items.Network, Source: source},
		},
	}
	f := newFixture()

	_, err := f.svc.Reconcile(context.Background(), cfg, ReconcileOptions{})
	if !errors.HasCode(err, errors.ErrCodeParse) {
		t.Fatalf("Expected parse error, got %v", err)
	}
	if !strings.Contains(err.Error(), "bad.txt:2:") {
		t.Errorf("Expected file and line in error, got %v", err)
	}
	if f.ipset.ReplaceAllCalls != 0 {
		t.Errorf("Expected no ReplaceAll after a source error")
	}
}

func TestReconcileService_MissingSource(t *testing.T) {
	cfg := &config.Config{
		IPSets: []*config.SetDefinition{
			{Backend: config.BackendIPSet, Name: "gone", Type: items.Address, Source: filepath.Join(t.TempDir(), "missing.txt")},
		},
	}
	f := newFixture()

	_, err := f.svc.Reconcile(context.Background(), cfg, ReconcileOptions{})
	if !errors.HasCode(err, errors.ErrCodeSourceRead) {
		t.Errorf("Expected source read error, got %v", err)
	}
}

func TestReconcileService_Plan(t *testing.T) {
	f := newFixture()
	f.ipset.Sets["first"] = parseSet(items.Network, "192.168.0.0/16")
	f.svc.WithSourceReader(func(path string, kind items.Kind, family config.IPFamily) (items.Set, error) {
		return parseSet(kind, "10.0.0.0/8"), nil
	})

	reports, err := f.svc.Plan(context.Background(), threeDefinitions(), ReconcileOptions{Only: []string{"first"}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(reports) != 1 || reports[0].Name != "first" {
		t.Fatalf("Expected a single report for first, got %d", len(reports))
	}
	if reports[0].Applied {
		t.Errorf("Expected dry run report not to be applied")
	}
	if reports[0].Additions.Len() != 1 || reports[0].Removals.Len() != 1 {
		t.Errorf("Unexpected diff: +%d -%d", reports[0].Additions.Len(), reports[0].Removals.Len())
	}
	if f.ipset.ReplaceAllCalls != 0 || f.nft.EnsureTargetCalls != 0 {
		t.Errorf("Expected no replace and no nft calls in filtered dry run")
	}
}

func TestReconcileService_RepeatedSelection(t *testing.T) {
	f := newFixture()
	f.svc.WithSourceReader(func(path string, kind items.Kind, family config.IPFamily) (items.Set, error) {
		return parseSet(kind, "10.0.0.0/8"), nil
	})

	reports, err := f.svc.Reconcile(context.Background(), threeDefinitions(), ReconcileOptions{Only: []string{"first", "first"}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(reports) != 1 || f.ipset.ReplaceAllCalls != 1 {
		t.Errorf("Expected first to be reconciled once, got %d reports and %d replaces", len(reports), f.ipset.ReplaceAllCalls)
	}
}

func TestReconcileService_UnknownSelection(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Reconcile(context.Background(), threeDefinitions(), ReconcileOptions{Only: []string{"nope"}})
	if !errors.HasCode(err, errors.ErrCodeConfig) {
		t.Errorf("Expected config error, got %v", err)
	}
}

func TestReconcileService_Cancelled(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.Reconcile(ctx, threeDefinitions(), ReconcileOptions{ContinueOnError: true})
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if f.ipset.EnsureTargetCalls != 0 {
		t.Errorf("Expected no backend calls after cancellation")
	}
}
