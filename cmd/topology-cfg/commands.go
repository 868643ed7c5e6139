package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/synapse-topology/internal/baseconfig"
	"github.com/muurk/synapse-topology/internal/config"
	"github.com/muurk/synapse-topology/internal/discovery"
	"github.com/muurk/synapse-topology/internal/flow"
	"github.com/muurk/synapse-topology/internal/logging"
	"github.com/muurk/synapse-topology/internal/ui"
	"github.com/muurk/synapse-topology/internal/wizard/tui"
)

// loadRegistry loads the session registry from --config or the default
// location.
func loadRegistry(opts *options) (*config.Registry, error) {
	if opts.configPath != "" {
		return config.LoadRegistryFrom(opts.configPath)
	}
	return config.LoadRegistry()
}

// sessionName resolves the session to use: the --session flag, then the
// preferred default, then "default".
func sessionName(opts *options, reg *config.Registry) string {
	if opts.session != "" {
		return opts.session
	}
	if reg.Preferences != nil && reg.Preferences.DefaultSession != "" {
		return reg.Preferences.DefaultSession
	}
	return config.DefaultSessionName
}

// wizardCmd launches the interactive TUI wizard
func newWizardCmd(opts *options) *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "wizard",
		Short: "Launch the interactive wizard",
		Long: `Launch the interactive terminal wizard.

Answers are saved after every screen, so quitting and running the wizard
again resumes where you left off. Use --reset to start the session over.`,
		Example: `  # Launch the wizard (wizard is the default command)
  topology-cfg

  # Plan a second deployment in its own session
  topology-cfg wizard --session staging

  # Start the default session from scratch
  topology-cfg wizard --reset`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWizard(cmd, opts, reset)
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "Discard saved answers and start over")
	return cmd
}

func runWizard(cmd *cobra.Command, opts *options, reset bool) error {
	reg, err := loadRegistry(opts)
	if err != nil {
		return err
	}
	name := sessionName(opts, reg)

	if reset {
		reg.DeleteSession(name)
	}
	session := reg.EnsureSession(name)

	var mu sync.Mutex
	app := tui.NewAppModel(session.State(), session.Answers)
	// the first WindowSizeMsg can arrive after the first frame
	app.SetSize(ui.GetTerminalSize())
	app.Persist = func(st flow.State, answers *baseconfig.BaseConfig) error {
		mu.Lock()
		defer mu.Unlock()
		session.Answers = answers
		session.SetState(st)
		reg.SaveSession(name, session)
		return reg.Save()
	}

	logging.Debug("Starting wizard",
		zap.String("session", name),
		zap.String("screen", string(session.Screen)),
	)

	final, err := tea.NewProgram(app, tea.WithAltScreen()).Run()
	if err != nil {
		return fmt.Errorf("wizard error: %w", err)
	}

	m, ok := final.(tui.AppModel)
	if !ok || !m.Finished {
		return nil
	}

	p := ui.NewPrinter(cmd.OutOrStdout())
	result := ui.NewSuccessResult("Answers complete",
		ui.P("Session", name),
		ui.P("Server name", m.Result.ServerName),
		ui.P("Topology", m.Result.FormatCompact()),
	)
	for _, w := range m.Warnings {
		result.AddHint(w.Error())
	}
	result.AddHint(fmt.Sprintf("Write the files with: topology-cfg render --session %s --out DIR", name))
	p.PrintResult(result)
	return nil
}

// newNextCmd exposes the screen transition function for scripting.
func newNextCmd() *cobra.Command {
	var (
		tlsFlag        string
		delegationFlag string
		asJSON         bool
	)

	cmd := &cobra.Command{
		Use:   "next <screen> <action> [option]",
		Short: "Print the screen that follows an action",
		Long: `Print the screen the wizard shows after applying an action on a screen.

Actions are advance, back and check-base-config. Advance from the
delegation-options and tls screens takes the chosen option. The --tls and
--delegation flags supply earlier answers that later screens branch on.`,
		Example: `  topology-cfg next tls advance reverse_proxy
  topology-cfg next port-selection advance --tls none --delegation dns
  topology-cfg next stats-report back --json`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			screen, err := flow.ParseScreen(args[0])
			if err != nil {
				return err
			}
			option := ""
			if len(args) == 3 {
				option = args[2]
			}
			action, err := flow.ParseAction(args[1], option)
			if err != nil {
				return err
			}
			ctx, err := parseContext(tlsFlag, delegationFlag)
			if err != nil {
				return err
			}

			next := flow.Next(screen, action, ctx)
			logging.LogTransition(string(screen), string(next), string(action.Type), action.Option)

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), describe(next))
			}
			fmt.Fprintln(cmd.OutOrStdout(), next)
			return nil
		},
	}
	addContextFlags(cmd, &tlsFlag, &delegationFlag)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

// newWalkCmd replays a list of actions and prints every screen visited.
func newWalkCmd() *cobra.Command {
	var (
		from           string
		tlsFlag        string
		delegationFlag string
		asJSON         bool
	)

	cmd := &cobra.Command{
		Use:   "walk <action>...",
		Short: "Replay actions and print the screens visited",
		Long: `Replay a sequence of actions starting from a screen and print every screen
visited. Each action is advance, back or check; an advance that carries an
option is written advance:OPTION. Options chosen along the way are
remembered for later branches, as in the wizard.`,
		Example: `  # The shortest path through the wizard
  topology-cfg walk advance advance advance advance advance:local advance:acme advance

  # Start part way through with earlier answers supplied
  topology-cfg walk --from port-selection --tls reverse_proxy --delegation dns advance advance`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := flow.ParseScreen(from)
			if err != nil {
				return err
			}
			ctx, err := parseContext(tlsFlag, delegationFlag)
			if err != nil {
				return err
			}

			actions := make([]flow.Action, 0, len(args))
			for _, arg := range args {
				a, err := parseStep(arg)
				if err != nil {
					return err
				}
				actions = append(actions, a)
			}

			visited := flow.Walk(flow.State{Screen: start, Context: ctx}, actions...)

			if asJSON {
				out := make([]screenDescription, 0, len(visited))
				for _, s := range visited {
					out = append(out, describe(s))
				}
				return writeJSON(cmd.OutOrStdout(), out)
			}
			for i, s := range visited {
				fmt.Fprintf(cmd.OutOrStdout(), "%2d. %-26s %s\n", i, s, s.Title())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", string(flow.ScreenIntro), "Screen to start from")
	addContextFlags(cmd, &tlsFlag, &delegationFlag)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func addContextFlags(cmd *cobra.Command, tlsFlag, delegationFlag *string) {
	cmd.Flags().StringVar(tlsFlag, "tls", "", "Earlier TLS answer (acme, tls, none, reverse_proxy)")
	cmd.Flags().StringVar(delegationFlag, "delegation", "", "Earlier delegation answer (local, well_known, dns)")
}

func parseContext(tlsFlag, delegationFlag string) (flow.Context, error) {
	var ctx flow.Context
	if tlsFlag != "" {
		t, err := flow.ParseTLSType(tlsFlag)
		if err != nil {
			return ctx, err
		}
		ctx.TLS = t
	}
	if delegationFlag != "" {
		d, err := flow.ParseDelegationType(delegationFlag)
		if err != nil {
			return ctx, err
		}
		ctx.Delegation = d
	}
	return ctx, nil
}

// parseStep parses "advance", "advance:OPTION", "back" or "check".
func parseStep(s string) (flow.Action, error) {
	name, option, _ := strings.Cut(s, ":")
	switch name {
	case "check":
		name = string(flow.ActionCheckBaseConfig)
	case string(flow.ActionBack), string(flow.ActionCheckBaseConfig):
	case string(flow.ActionAdvance):
		return flow.Action{Type: flow.ActionAdvance, Option: option}, nil
	default:
		return flow.Action{}, fmt.Errorf("unknown action %q (use advance, advance:OPTION, back or check)", s)
	}
	if option != "" {
		return flow.Action{}, fmt.Errorf("action %q does not take an option", name)
	}
	return flow.Action{Type: flow.ActionType(name)}, nil
}

type screenDescription struct {
	Screen  flow.Screen `json:"screen"`
	Title   string      `json:"title"`
	HasBack bool        `json:"has_back"`
}

func describe(s flow.Screen) screenDescription {
	return screenDescription{Screen: s, Title: s.Title(), HasBack: flow.HasBack(s)}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newSessionsCmd lists and removes saved sessions.
func newSessionsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List saved wizard sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry(opts)
			if err != nil {
				return err
			}
			return printSessions(cmd.OutOrStdout(), reg, sessionName(opts, reg))
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry(opts)
			if err != nil {
				return err
			}
			if !reg.DeleteSession(args[0]) {
				return fmt.Errorf("no session named %q", args[0])
			}
			if err := reg.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %q\n", args[0])
			return nil
		},
	})

	return cmd
}

func printSessions(w io.Writer, reg *config.Registry, current string) error {
	names := reg.SessionNames()
	if len(names) == 0 {
		fmt.Fprintln(w, "No saved sessions. Run 'topology-cfg' to start one.")
		return nil
	}

	t := table.New().
		Headers("", "SESSION", "SCREEN", "SERVER NAME", "UPDATED")
	for _, name := range names {
		s := reg.GetSession(name)
		marker := ""
		if name == current {
			marker = "*"
		}
		serverName := "(not set)"
		if s.Answers != nil && s.Answers.ServerName != "" {
			serverName = s.Answers.ServerName
		}
		updated := "-"
		if !s.UpdatedAt.IsZero() {
			updated = s.UpdatedAt.Local().Format("2006-01-02 15:04")
		}
		t.Row(marker, name, string(s.State().Screen), serverName, updated)
	}

	fmt.Fprintln(w, t.Render())
	return nil
}

// newScanCmd discovers configuration servers on the local network
func printNoServers(out io.Writer, timeout int) {
	ui.NewPrinter(out).PrintResult(
		ui.NewWarningResult("No configuration servers found",
			ui.P("Service", discovery.ServiceType),
			ui.P("Timeout", strconv.Itoa(timeout)+"s"),
		).AddHint("Start a server with: topology-server server --announce").
			AddHint("Check that multicast is allowed on this network").
			AddHint("Try increasing --timeout"),
	)
}

func newScanCmd() *cobra.Command {
	var timeout int

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Find topology-server instances on the network",
		Long: `Browse mDNS for topology-server instances started with --announce and
print the URL of each one's API.`,
		Example: `  # Scan for 5 seconds (default)
  topology-cfg scan

  # Longer scan for slow networks
  topology-cfg scan --timeout 15`,
		RunE: func(cmd *cobra.Command, args []string) error {
			scanner := discovery.NewScanner()
			scanner.Timeout = time.Duration(timeout) * time.Second

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Scanning for configuration servers (timeout: %ds)...\n\n", timeout)

			instances, err := scanner.Scan(context.Background())
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}

			if len(instances) == 0 {
				printNoServers(out, timeout)
				return nil
			}

			t := table.New().Headers("NAME", "ADDRESS", "SESSION", "VERSION", "API")
			for _, inst := range instances {
				t.Row(
					inst.Name,
					fmt.Sprintf("%s:%d", inst.IP, inst.Port),
					inst.GetMetadata("session"),
					inst.GetMetadata(discovery.TXTVersion),
					inst.BaseURL(),
				)
			}
			fmt.Fprintf(out, "Found %d server(s):\n\n%s\n", len(instances), t.Render())
			return nil
		},
	}
	cmd.Flags().IntVar(&timeout, "timeout", int(discovery.DefaultScanTimeout/time.Second), "Scan timeout in seconds")
	return cmd
}
