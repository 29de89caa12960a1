// Package commands implements CLI command handlers for fw-ipsets.
//
// Each command implements the Runner interface and delegates business logic to
// the service layer.
//
// # Command Structure
//
// All commands follow a consistent pattern:
//   - Init(): Parse arguments, load and validate configuration
//   - Run(): Execute command using service layer
//   - Name(): Return command name for routing
//
// # Available Commands
//
//   - apply: Make every configured set match its source file
//   - diff: Show what apply would add and remove
//   - self-check: Verify tools, privileges, tables and sources
//   - dump: Print the effective configuration
//
// # Example Usage
//
// Creating and running a command:
//
//	cmd := commands.CreateApplyCommand()
//	ctx := &commands.AppContext{
//	    ConfigPath: "/etc/fw-ipsets/fw-ipsets.toml",
//	    Ctx:        context.Background(),
//	}
//
//	if err := cmd.Init([]string{"-only", "blocklist"}, ctx); err != nil {
//	    log.Fatalf("%v", err)
//	}
//	if err := cmd.Run(); err != nil {
//	    log.Fatalf("%v", err)
//	}
package commands
