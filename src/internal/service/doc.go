// Package service provides business logic orchestration layer for fw-ipsets.
//
// Services sit between the command layer and the backends. They enforce the
// processing order and error policy and never talk to the kernel directly.
//
// # Key Services
//
// ReconcileService: Makes each kernel set match its source file (Reconcile) or
// reports what would change (Plan).
//
// SelfCheckService: Verifies that tools, privileges, tables and sources are in
// place before a run.
//
// # Example Usage
//
//	deps := core.NewAppDependencies(core.AppConfig{TempSuffix: cfg.TempSuffix})
//	svc := service.NewReconcileService(deps)
//
//	reports, err := svc.Reconcile(ctx, cfg, service.ReconcileOptions{})
//	if err != nil {
//	    log.Fatalf("%v", err)
//	}
package service
