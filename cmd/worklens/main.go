package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"worklens/internal/bootstrap"
	tasksdto "worklens/internal/modules/tasks/dto"
	"worklens/internal/platform/config"
	apperrors "worklens/internal/platform/errors"
	"worklens/internal/platform/logging"
)

func main() {
	// A missing .env is the common case.
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globals struct {
	dataDir string
	viper   *viper.Viper
}

func newRootCmd() *cobra.Command {
	g := &globals{viper: viper.New()}

	root := &cobra.Command{
		Use:           "worklens",
		Short:         "Desktop activity tracker with model-written work summaries",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.dataDir, "data-dir", "", "data directory (default $WORKLENS_DATA_DIR or ~/.worklens)")

	root.AddCommand(newTrackCmd(g))
	root.AddCommand(newFinalizeCmd(g))
	root.AddCommand(newAnalysesCmd(g))
	root.AddCommand(newTasksCmd(g))
	root.AddCommand(newPrivacyCmd(g))
	root.AddCommand(newStatusCmd(g))
	root.AddCommand(newHelperCmd(g))
	return root
}

func (g *globals) resolveDataDir() (string, error) {
	if g.dataDir != "" {
		return g.dataDir, nil
	}
	if dir := os.Getenv("WORKLENS_DATA_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve data dir: %w", err)
	}
	return filepath.Join(home, ".worklens"), nil
}

func (g *globals) loadConfig() (config.Config, error) {
	dir, err := g.resolveDataDir()
	if err != nil {
		return config.Config{}, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return config.Config{}, fmt.Errorf("create data dir: %w", err)
	}
	return config.Load(dir, g.viper)
}

// withApp builds the application for one command and tears it down after.
func (g *globals) withApp(ctx context.Context, run func(context.Context, *bootstrap.App) error) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("close app", zap.Error(err))
		}
	}()
	return run(ctx, app)
}

func newTrackCmd(g *globals) *cobra.Command {
	var prompt string
	var private []string
	cmd := &cobra.Command{
		Use:   "track",
		Short: "Capture activity until interrupted, then write the session report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return g.withApp(ctx, func(ctx context.Context, app *bootstrap.App) error {
				for _, pattern := range private {
					if _, err := app.CaptureCLI.AddPrivacy(ctx, pattern, true); err != nil {
						return err
					}
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "tracking every %s, press Ctrl+C to stop\n", app.Config.Capture.Interval)
				path, err := app.Track(ctx, prompt)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "session report: %s\n", path)
				return nil
			})
		},
	}
	cmd.Flags().String("feed", "", "JSONL activity feed to replay (- for stdin)")
	cmd.Flags().String("backend", "", "capture backend: local|plugin")
	cmd.Flags().StringVar(&prompt, "prompt", "", "extra instruction for the final summary")
	cmd.Flags().StringSliceVar(&private, "private", nil, "window-title pattern kept private for this run only (repeatable)")
	_ = g.viper.BindPFlag("capture.feed", cmd.Flags().Lookup("feed"))
	_ = g.viper.BindPFlag("capture.backend", cmd.Flags().Lookup("backend"))
	return cmd
}

func newFinalizeCmd(g *globals) *cobra.Command {
	var sessionID, prompt string
	cmd := &cobra.Command{
		Use:   "finalize",
		Short: "Write the final summary and report of a past session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withApp(cmd.Context(), func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.SessionCLI.Finalize(ctx, sessionID, prompt)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "session %s (%s, %d analyses)\nreport: %s\n\n%s\n",
					out.SessionID, out.Duration.Round(time.Second), out.Analyses, out.Path, out.Summary)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "session id (default: latest session)")
	cmd.Flags().StringVar(&prompt, "prompt", "", "extra instruction for the final summary")
	return cmd
}

func newAnalysesCmd(g *globals) *cobra.Command {
	analyses := &cobra.Command{Use: "analyses", Short: "Inspect stored analyses"}
	var sessionID, analysisType string
	var limit int
	var asJSON bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List the analyses of a session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withApp(cmd.Context(), func(ctx context.Context, app *bootstrap.App) error {
				id := sessionID
				if id == "" {
					active, err := app.SessionCLI.GetActive(ctx)
					if err != nil {
						if errors.Is(err, apperrors.ErrNoActiveSession) {
							return fmt.Errorf("--session is required when no session is active")
						}
						return err
					}
					id = active.SessionID
				}
				records, err := app.AnalysisCLI.List(ctx, id, analysisType, limit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), records)
				}
				if len(records) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no analyses")
					return nil
				}
				for _, r := range records {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", r.Start.Local().Format(time.TimeOnly), r.End.Local().Format(time.TimeOnly), r.Type, oneLine(r.Response))
				}
				return nil
			})
		},
	}
	list.Flags().StringVar(&sessionID, "session", "", "session id (default: active session)")
	list.Flags().StringVar(&analysisType, "type", "", "regular|special|final")
	list.Flags().IntVar(&limit, "limit", 0, "newest N analyses")
	list.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	analyses.AddCommand(list)
	return analyses
}

func newTasksCmd(g *globals) *cobra.Command {
	tasks := &cobra.Command{Use: "tasks", Short: "Manage tasks"}

	var status, project string
	list := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withApp(cmd.Context(), func(ctx context.Context, app *bootstrap.App) error {
				items, err := app.TasksCLI.List(ctx, status, project)
				if err != nil {
					return err
				}
				if len(items) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no tasks")
					return nil
				}
				for _, t := range items {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", t.ID, t.Status, t.Project, t.Title)
				}
				return nil
			})
		},
	}
	list.Flags().StringVar(&status, "status", "", "to_do|doing|paused|completed|abandoned")
	list.Flags().StringVar(&project, "project", "", "project name")

	var addProject string
	add := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(cmd.Context(), func(ctx context.Context, app *bootstrap.App) error {
				t, err := app.TasksCLI.Add(ctx, strings.Join(args, " "), addProject)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "added %s to %s: %s\n", t.ID, t.Project, t.Title)
				return nil
			})
		},
	}
	add.Flags().StringVar(&addProject, "project", "", "project name (default inbox)")

	tasks.AddCommand(list, add)
	for _, move := range []struct {
		use, short string
		pick       func(*bootstrap.App) func(context.Context, string) (tasksdto.TaskOutput, error)
	}{
		{"start", "Mark a task as doing", func(a *bootstrap.App) func(context.Context, string) (tasksdto.TaskOutput, error) { return a.TasksCLI.Start }},
		{"pause", "Pause a task", func(a *bootstrap.App) func(context.Context, string) (tasksdto.TaskOutput, error) { return a.TasksCLI.Pause }},
		{"complete", "Mark a task as completed", func(a *bootstrap.App) func(context.Context, string) (tasksdto.TaskOutput, error) { return a.TasksCLI.Complete }},
		{"abandon", "Abandon a task", func(a *bootstrap.App) func(context.Context, string) (tasksdto.TaskOutput, error) { return a.TasksCLI.Abandon }},
	} {
		tasks.AddCommand(&cobra.Command{
			Use:   move.use + " <id>",
			Short: move.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return g.withApp(cmd.Context(), func(ctx context.Context, app *bootstrap.App) error {
					t, err := move.pick(app)(ctx, args[0])
					if err != nil {
						return err
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", t.ID, t.Status)
					return nil
				})
			},
		})
	}
	return tasks
}

func newPrivacyCmd(g *globals) *cobra.Command {
	privacy := &cobra.Command{Use: "privacy", Short: "Manage window-title privacy patterns"}
	privacy.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List privacy patterns",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withApp(cmd.Context(), func(ctx context.Context, app *bootstrap.App) error {
				rules, err := app.CaptureCLI.ListPrivacy(ctx)
				if err != nil {
					return err
				}
				for _, p := range rules.AlwaysPrivate {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), p)
				}
				return nil
			})
		},
	})

	for _, op := range []string{"add", "remove"} {
		cmd := &cobra.Command{
			Use:   op + " <pattern>",
			Short: strings.ToUpper(op[:1]) + op[1:] + " a privacy pattern",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return g.withApp(cmd.Context(), func(ctx context.Context, app *bootstrap.App) error {
					apply := app.CaptureCLI.AddPrivacy
					if op == "remove" {
						apply = app.CaptureCLI.RemovePrivacy
					}
					rules, err := apply(ctx, args[0], false)
					if err != nil {
						return err
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d patterns\n", len(rules.AlwaysPrivate))
					return nil
				})
			},
		}
		privacy.AddCommand(cmd)
	}
	return privacy
}

func newStatusCmd(g *globals) *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the active session, its analyses and the task list",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withApp(cmd.Context(), func(ctx context.Context, app *bootstrap.App) error {
				if !plain {
					return bootstrap.RunDashboard(ctx, app)
				}
				active, err := app.SessionCLI.GetActive(ctx)
				if errors.Is(err, apperrors.ErrNoActiveSession) {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "idle")
					return nil
				}
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s session=%s since=%s\n", active.Phase, active.SessionID, active.StartedAt.Local().Format(time.RFC3339))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "print one line instead of the dashboard")
	return cmd
}

func newHelperCmd(g *globals) *cobra.Command {
	helper := &cobra.Command{Use: "helper", Short: "Out-of-process capture helper"}
	helper.AddCommand(&cobra.Command{
		Use:   "check <binary>",
		Short: "Launch a capture helper and print its metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			meta, err := bootstrap.CheckHelper(cmd.Context(), args[0], logger)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s@%s ok\n", meta.Name, meta.Version)
			return nil
		},
	})
	return helper
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func oneLine(text string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	if len(line) > 100 {
		return line[:97] + "..."
	}
	return line
}
