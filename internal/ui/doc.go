// Package ui provides terminal output components for the topology-cfg CLI.
//
// The interactive wizard lives in internal/wizard/tui. This package covers
// the non-interactive commands (render, sessions, scan, walk) which print
// styled output once and exit.
//
// # Components
//
//   - Header: Command banner showing operation name and parameters
//   - Progress: Progress bar with step list for multi-file rendering
//   - Result: Success, failure and warning boxes with details and hints
//   - Snippet: Boxed generated configuration (homeserver.yaml, nginx, ...)
//   - Confirm: Yes/no prompt before overwriting files
//
// Commands print through a Printer so output can be captured in tests:
//
//	p := ui.NewPrinter(cmd.OutOrStdout())
//	p.PrintHeader("Render configuration", "topology-cfg render",
//	    ui.P("Session", "default"),
//	    ui.P("Output", "./out"),
//	)
//	p.PrintSnippet("homeserver.yaml", string(data))
//	p.PrintSuccess("Configuration written", ui.P("Files", "3"))
//
// # Logging Integration
//
// zap logging is silent unless TOPOLOGY_LOG_LEVEL is set, so the curated
// output here is not interleaved with log lines.
package ui
