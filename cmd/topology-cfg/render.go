package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/synapse-topology/internal/baseconfig"
	"github.com/muurk/synapse-topology/internal/logging"
	"github.com/muurk/synapse-topology/internal/ui"
)

// errRenderFailed is returned after the failure has already been printed.
var errRenderFailed = errors.New("render failed")

func newRenderCmd(opts *options) *cobra.Command {
	var (
		outDir string
		write  bool
		yes    bool
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Generate configuration files from a session",
		Long: `Generate homeserver.yaml and the reverse proxy and delegation files the
session's answers call for.

Without --out or --write the files are printed. With --out they are written
below that directory, and --write uses the output_dir preference from the
registry. Existing files are only replaced after confirmation.`,
		Example: `  # Preview the files for the default session
  topology-cfg render

  # Write them to ./deploy
  topology-cfg render --out deploy

  # Write them to the output_dir preference
  topology-cfg render --write

  # Overwrite without asking
  topology-cfg render --session staging --out deploy --yes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry(opts)
			if err != nil {
				return err
			}
			name := sessionName(opts, reg)
			p := ui.NewPrinter(cmd.OutOrStdout())

			session := reg.GetSession(name)
			if session == nil {
				p.PrintError("No such session", fmt.Errorf("session %q has not been started", name),
					"Run 'topology-cfg wizard --session "+name+"' first",
					"List saved sessions with 'topology-cfg sessions'")
				return errRenderFailed
			}

			cfg, err := baseconfig.NewBuilder(session.Answers).Build()
			if err != nil {
				hints := []string{"Resume the wizard with 'topology-cfg wizard --session " + name + "'"}
				if hint := baseconfig.GetTroubleshootingHint(err); hint != "" {
					hints = append([]string{hint}, hints...)
				}
				p.PrintError("Answers are incomplete", errors.New(baseconfig.GetShortErrorMessage(err)), hints...)
				return errRenderFailed
			}

			artifacts, err := baseconfig.Artifacts(cfg)
			if err != nil {
				p.PrintError("Rendering failed", err)
				return errRenderFailed
			}

			if write && outDir == "" {
				outDir = "."
				if reg.Preferences != nil && reg.Preferences.OutputDir != "" {
					outDir = reg.Preferences.OutputDir
				}
			}

			p.PrintHeader("Render Configuration", "topology-cfg render",
				ui.P("Session", name),
				ui.P("Server name", cfg.ServerName),
				ui.P("Output", outputLabel(outDir)),
			)

			if outDir == "" {
				for _, a := range artifacts {
					for _, f := range a.Files {
						p.PrintSnippet(f.Path, strings.TrimRight(string(f.Content), "\n"))
					}
				}
				return nil
			}

			return writeArtifacts(cmd, p, outDir, artifacts, yes)
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory to write the files to (prints them when empty)")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write to the preferred output directory")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Overwrite existing files without asking")
	return cmd
}

func outputLabel(dir string) string {
	if dir == "" {
		return "stdout"
	}
	return dir
}

// writeArtifacts writes every file below dir, one progress step per artifact.
func writeArtifacts(cmd *cobra.Command, p *ui.Printer, dir string, artifacts []baseconfig.Artifact, yes bool) error {
	var existing []string
	for _, a := range artifacts {
		for _, f := range a.Files {
			path := filepath.Join(dir, filepath.FromSlash(f.Path))
			if _, err := os.Stat(path); err == nil {
				existing = append(existing, path)
			}
		}
	}
	if len(existing) > 0 && !yes {
		if !ui.ConfirmOverwrite(cmd.InOrStdin(), cmd.OutOrStdout(), existing) {
			p.PrintWarning("Nothing written", ui.P("Existing files", fmt.Sprintf("%d", len(existing))))
			return nil
		}
	}

	names := make([]string, len(artifacts))
	for i, a := range artifacts {
		names[i] = a.Name
	}
	progress := ui.NewProgress("Writing files", names...)

	var written []string
	for i, a := range artifacts {
		step := i + 1
		if a.Skipped != "" {
			progress.SkipStep(step, a.Skipped)
			continue
		}
		progress.StartStep(step, "")
		paths, err := writeFiles(dir, a.Files)
		written = append(written, paths...)
		if err != nil {
			progress.FailStep(step, err.Error())
			break
		}
		progress.CompleteStep(step, strings.Join(relative(dir, paths), ", "))
	}
	p.PrintProgress(progress)

	if progress.Failed() {
		p.PrintError("Writing files failed", fmt.Errorf("wrote %d file(s) before the failure", len(written)),
			"Check that "+dir+" is writable")
		return errRenderFailed
	}

	logging.Info("Rendered configuration",
		zap.String("dir", dir),
		zap.Int("files", len(written)),
	)
	p.PrintSuccess("Configuration written",
		ui.P("Directory", dir),
		ui.P("Files", fmt.Sprintf("%d", len(written))),
	)
	return nil
}

func writeFiles(dir string, files []baseconfig.File) ([]string, error) {
	var paths []string
	for _, f := range files {
		path := filepath.Join(dir, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return paths, fmt.Errorf("failed to create directory: %w", err)
		}
		if err := os.WriteFile(path, f.Content, 0o644); err != nil {
			return paths, fmt.Errorf("failed to write %s: %w", f.Path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func relative(dir string, paths []string) []string {
	out := make([]string, len(paths))
	for i, path := range paths {
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}
		out[i] = filepath.ToSlash(rel)
	}
	return out
}
