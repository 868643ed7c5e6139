// Package tui implements the terminal user interface for the Synapse
// topology wizard.
//
// The wizard is a single Bubble Tea model, AppModel. It never decides which
// screen comes next: every key that navigates is turned into a flow.Action
// and applied to the flow.State it holds. The model's own job is collecting
// answers into a baseconfig.Builder and drawing the current screen.
//
// # Screens
//
// Screens fall into four kinds:
//
//   - Information: intro, key-export. Enter advances.
//   - Input: server-name, delegation-server-name, delegation-port-selection,
//     tls-certpath, port-selection. Answers are validated with
//     baseconfig.ValidateScreen before advancing; a bad answer shows an
//     error box and the screen does not change.
//   - Choice: stats-report, delegation-options, tls, reverse-proxy, database.
//     The highlighted option is carried in the Advance action.
//   - Template: reverse-proxy-template, delegation-template, well-known, dns.
//     These show the rendered reverse proxy or delegation snippet.
//
// Accepting the database screen validates the whole answer set and ends the
// program with Finished set; the caller then renders and writes files.
//
// # Keys
//
//	enter        advance
//	esc          back (only where the flow defines a previous screen)
//	↑ / ↓ / tab  move between options or inputs
//	ctrl+r       review answers on the intro screen
//	ctrl+c       quit
//
// # Usage Example
//
//	app := tui.NewAppModel(session.State(), session.Answers)
//	app.Persist = func(st flow.State, answers *baseconfig.BaseConfig) error {
//	    session.Answers = answers
//	    session.SetState(st)
//	    return registry.Save()
//	}
//
//	final, err := tea.NewProgram(app, tea.WithAltScreen()).Run()
//	if err != nil {
//	    return err
//	}
//	if m := final.(tui.AppModel); m.Finished {
//	    // render m.Result
//	}
//
// # Logging
//
// Transitions are logged at debug level through internal/logging, which is
// silent unless TOPOLOGY_LOG_LEVEL is set. Set TOPOLOGY_LOG_FILE as well so
// log lines do not draw over the alternate screen.
package tui
