// Package config persists wizard sessions and user preferences.
//
// The registry is a YAML file holding any number of named sessions. A session
// records the screen the operator is on, the routing context and the answers
// collected so far, so that both the terminal wizard and the configuration
// server can resume where the operator left off.
//
// # Configuration File Location
//
//   - Linux: $XDG_CONFIG_HOME/synapse-topology/config.yaml or $HOME/.config/synapse-topology/config.yaml
//   - macOS: $HOME/.config/synapse-topology/config.yaml
//   - Windows: %LOCALAPPDATA%\synapse-topology\config.yaml
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	session := registry.EnsureSession("home")
//	session.SetState(session.State().Apply(flow.Advance()))
//	registry.SaveSession("home", session)
//
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for initialization. Writes go to a
// temporary file that is renamed into place under a package mutex. The
// Registry value itself is not synchronized; callers sharing one between
// goroutines must guard it.
package config
