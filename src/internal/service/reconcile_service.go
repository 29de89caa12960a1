package service

import (
	"context"
	stderrors "errors"

	"github.com/maksimkurb/fw-ipsets/src/internal/config"
	"github.com/maksimkurb/fw-ipsets/src/internal/domain"
	"github.com/maksimkurb/fw-ipsets/src/internal/errors"
	"github.com/maksimkurb/fw-ipsets/src/internal/items"
	"github.com/maksimkurb/fw-ipsets/src/internal/lists"
	"github.com/maksimkurb/fw-ipsets/src/internal/log"
)

// BackendProvider selects the backend that stores a set definition.
type BackendProvider interface {
	Backend(def *config.SetDefinition) (domain.SetBackend, error)
}

// SourceReader loads the desired members of a set.
type SourceReader func(path string, kind items.Kind, family config.IPFamily) (items.Set, error)

// SetReport describes one reconciled set.
type SetReport struct {
	Name    string
	Backend config.BackendType

	Current   items.Set
	Desired   items.Set
	Additions items.Set
	Removals  items.Set

	// Applied is false for dry runs and for sets that failed before the replace.
	Applied bool
}

// Changed reports whether the kernel membership differs from the desired one.
func (r *SetReport) Changed() bool {
	return r.Additions.Len() > 0 || r.Removals.Len() > 0
}

// ReconcileOptions tunes a reconciliation run.
type ReconcileOptions struct {
	// Only restricts the run to the named definitions. Empty means all.
	Only []string

	// ContinueOnError keeps going after a failed definition.
	// The config option of the same name enables it as well.
	ContinueOnError bool
}

// ReconcileService makes kernel sets match their source files.
//
// Definitions are processed sequentially in configuration order. Each one
// goes through EnsureTarget, ReadCurrent, source read and normalization, and
// finally an unconditional ReplaceAll. The diff is computed for reporting only.
type ReconcileService struct {
	backends   BackendProvider
	readSource SourceReader
}

// NewReconcileService creates a new reconcile service.
//
// Parameters:
//   - backends: Selects the ipset or nftables backend per definition
func NewReconcileService(backends BackendProvider) *ReconcileService {
	return &ReconcileService{
		backends:   backends,
		readSource: lists.ReadSource,
	}
}

// WithSourceReader replaces the source file reader. Used by tests.
func (s *ReconcileService) WithSourceReader(reader SourceReader) *ReconcileService {
	s.readSource = reader
	return s
}

// Reconcile applies the desired membership of every selected definition.
//
// By default the first failure aborts the run and is returned wrapped with the
// set name and backend. With ContinueOnError the remaining definitions still
// run and all failures are returned joined. Reports are returned for every
// definition that got as far as computing its diff.
func (s *ReconcileService) Reconcile(ctx context.Context, cfg *config.Config, opts ReconcileOptions) ([]*SetReport, error) {
	return s.run(ctx, cfg, opts, true)
}

// Plan computes the same reports as Reconcile without modifying any set membership.
//
// EnsureTarget still runs, so missing sets are created empty.
func (s *ReconcileService) Plan(ctx context.Context, cfg *config.Config, opts ReconcileOptions) ([]*SetReport, error) {
	return s.run(ctx, cfg, opts, false)
}

func (s *ReconcileService) run(ctx context.Context, cfg *config.Config, opts ReconcileOptions, apply bool) ([]*SetReport, error) {
	defs, err := cfg.FilterIPSets(opts.Only)
	if err != nil {
		return nil, errors.NewConfigError("invalid set selection", err)
	}

	continueOnError := opts.ContinueOnError || cfg.ContinueOnError

	var reports []*SetReport
	var errs []error
	for _, def := range defs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		report, err := s.reconcileOne(ctx, cfg, def, apply)
		if report != nil {
			reports = append(reports, report)
		}
		if err != nil {
			err = errors.NewReconcileError(def.Name, string(def.Backend.Normalized()), err)
			if !continueOnError {
				return reports, err
			}
			log.Errorf("%v", err)
			errs = append(errs, err)
		}
	}

	return reports, stderrors.Join(errs...)
}

func (s *ReconcileService) reconcileOne(ctx context.Context, cfg *config.Config, def *config.SetDefinition, apply bool) (*SetReport, error) {
	log.Infof("Processing %s", def)

	backend, err := s.backends.Backend(def)
	if err != nil {
		return nil, err
	}

	if err := backend.EnsureTarget(ctx, def); err != nil {
		return nil, err
	}

	current, err := backend.ReadCurrent(ctx, def)
	if err != nil {
		return nil, err
	}

	source, err := s.readSource(cfg.GetAbsSourcePath(def), def.Type, def.GetIPVersion())
	if err != nil {
		return nil, err
	}

	desired, err := items.Normalize(def.Type, source)
	if err != nil {
		return nil, err
	}

	additions, removals := items.Diff(current, desired)
	report := &SetReport{
		Name:      def.Name,
		Backend:   def.Backend.Normalized(),
		Current:   current,
		Desired:   desired,
		Additions: additions,
		Removals:  removals,
	}

	log.Infof("Current set: %d items, new set: %d items (+%d, -%d)",
		current.Len(), desired.Len(), additions.Len(), removals.Len())

	if !apply {
		return report, nil
	}

	if err := backend.ReplaceAll(ctx, def, desired); err != nil {
		return report, err
	}
	report.Applied = true
	return report, nil
}
