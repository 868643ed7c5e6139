package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/synapse-topology/internal/apiclient"
	"github.com/muurk/synapse-topology/internal/discovery"
	"github.com/muurk/synapse-topology/internal/ui"
)

// errRemoteFailed is returned after the failure has already been printed.
var errRemoteFailed = errors.New("remote operation failed")

type remoteOptions struct {
	timeout int
}

// newRemoteCmd groups the commands that work against a running
// topology-server.
func newRemoteCmd(opts *options) *cobra.Command {
	ropts := &remoteOptions{}

	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Work with a running topology-server",
		Long: `Read and update the wizard session of a running topology-server.

SERVER is either the API URL (http://host:8888/api) or the mDNS instance
name printed by 'topology-cfg scan'.`,
	}
	cmd.PersistentFlags().IntVar(&ropts.timeout, "timeout", int(discovery.DefaultScanTimeout/time.Second),
		"Seconds to wait for the server (and for mDNS lookups)")

	cmd.AddCommand(
		newRemoteStateCmd(ropts),
		newRemotePullCmd(opts, ropts),
		newRemotePushCmd(opts, ropts),
	)
	return cmd
}

// resolveServer turns SERVER into an API client.
func resolveServer(ctx context.Context, target string, ropts *remoteOptions) (*apiclient.Client, error) {
	timeout := time.Duration(ropts.timeout) * time.Second

	baseURL := target
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		scanner := discovery.NewScanner()
		scanner.Timeout = timeout
		inst, err := scanner.Find(ctx, target)
		if err != nil {
			return nil, err
		}
		baseURL = inst.BaseURL()
	}

	c := apiclient.NewClient(baseURL)
	c.SetTimeout(timeout)
	return c, nil
}

func printRemoteError(p *ui.Printer, title string, err error) error {
	p.PrintError(title, errors.New(apiclient.GetShortErrorMessage(err)), apiclient.GetTroubleshootingHint(err))
	return errRemoteFailed
}

func newRemoteStateCmd(ropts *remoteOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "state <server>",
		Short: "Show the wizard state of a server",
		Example: `  topology-cfg remote state http://192.168.1.20:8888/api
  topology-cfg remote state topology-staging`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p := ui.NewPrinter(cmd.OutOrStdout())

			c, err := resolveServer(ctx, args[0], ropts)
			if err != nil {
				return err
			}
			st, err := c.GetState(ctx)
			if err != nil {
				return printRemoteError(p, "Could not read server state", err)
			}

			result := ui.NewSuccessResult("Server state",
				ui.P("Server", c.BaseURL),
				ui.P("Screen", fmt.Sprintf("%s (%s)", st.Screen, st.Title)),
				ui.P("Topology", st.Answers.FormatCompact()),
			)
			for _, e := range st.Errors {
				result.AddHint(e)
			}
			for _, w := range st.Warnings {
				result.AddHint(w)
			}
			p.PrintResult(result)
			return nil
		},
	}
}

func newRemotePullCmd(opts *options, ropts *remoteOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pull <server>",
		Short: "Copy a server's session into a local session",
		Long: `Copy the screen and answers of a server's wizard session into the local
session named by --session, replacing what it held.`,
		Example: `  topology-cfg remote pull topology-staging --session staging`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p := ui.NewPrinter(cmd.OutOrStdout())

			reg, err := loadRegistry(opts)
			if err != nil {
				return err
			}
			name := sessionName(opts, reg)

			c, err := resolveServer(ctx, args[0], ropts)
			if err != nil {
				return err
			}
			st, err := c.GetState(ctx)
			if err != nil {
				return printRemoteError(p, "Could not read server state", err)
			}

			session := reg.EnsureSession(name)
			session.Answers = st.Answers
			session.Screen = st.Screen
			session.Context = st.Context
			reg.SaveSession(name, session)
			if err := reg.Save(); err != nil {
				return err
			}

			p.PrintSuccess("Session pulled",
				ui.P("Server", c.BaseURL),
				ui.P("Session", name),
				ui.P("Screen", string(st.Screen)),
				ui.P("Server name", st.Answers.ServerName),
			)
			return nil
		},
	}
}

func newRemotePushCmd(opts *options, ropts *remoteOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "push <server>",
		Short: "Send a local session's answers to a server",
		Long: `Merge the answers of the local session named by --session onto a server's
session. The answers are read back afterwards; if the server did not keep
them its previous answers are restored.`,
		Example: `  topology-cfg remote push http://192.168.1.20:8888/api --session staging`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p := ui.NewPrinter(cmd.OutOrStdout())

			reg, err := loadRegistry(opts)
			if err != nil {
				return err
			}
			name := sessionName(opts, reg)
			session := reg.GetSession(name)
			if session == nil || session.Answers == nil {
				return fmt.Errorf("no session named %q", name)
			}

			c, err := resolveServer(ctx, args[0], ropts)
			if err != nil {
				return err
			}

			result, err := c.Push(ctx, session.Answers)
			if err != nil {
				if result == nil {
					return printRemoteError(p, "Push failed", err)
				}
				r := ui.NewFailureResult("Push did not stick", err, result.Mismatches...)
				if result.RolledBack {
					r.AddDetail("Rolled back", "yes")
				}
				p.PrintResult(r)
				return errRemoteFailed
			}

			p.PrintSuccess("Answers pushed",
				ui.P("Server", c.BaseURL),
				ui.P("Session", name),
				ui.P("Server screen", string(result.State.Screen)),
			)
			return nil
		},
	}
}
