package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	activityoutadapter "worklens/internal/modules/activity/adapter/out"
	capturerpc "worklens/internal/modules/activity/adapter/out/rpc"
	activitydto "worklens/internal/modules/activity/dto"
	activityin "worklens/internal/modules/activity/port/in"
	activityout "worklens/internal/modules/activity/port/out"
	activityservice "worklens/internal/modules/activity/service"
	activityusecase "worklens/internal/modules/activity/usecase"
	analysisinadapter "worklens/internal/modules/analysis/adapter/in"
	analysisoutadapter "worklens/internal/modules/analysis/adapter/out"
	analysisservice "worklens/internal/modules/analysis/service"
	analysisusecase "worklens/internal/modules/analysis/usecase"
	captureinadapter "worklens/internal/modules/capture/adapter/in"
	captureoutadapter "worklens/internal/modules/capture/adapter/out"
	capturein "worklens/internal/modules/capture/port/in"
	captureout "worklens/internal/modules/capture/port/out"
	captureservice "worklens/internal/modules/capture/service"
	captureusecase "worklens/internal/modules/capture/usecase"
	sessioninadapter "worklens/internal/modules/session/adapter/in"
	sessionoutadapter "worklens/internal/modules/session/adapter/out"
	sessionservice "worklens/internal/modules/session/service"
	sessionusecase "worklens/internal/modules/session/usecase"
	tasksinadapter "worklens/internal/modules/tasks/adapter/in"
	tasksoutadapter "worklens/internal/modules/tasks/adapter/out"
	tasksservice "worklens/internal/modules/tasks/service"
	tasksusecase "worklens/internal/modules/tasks/usecase"
	"worklens/internal/platform/clock"
	"worklens/internal/platform/config"
	"worklens/internal/platform/entitystore"
	"worklens/internal/platform/eventbus"
	"worklens/internal/platform/id"
	"worklens/internal/platform/llm"
	uiapp "worklens/internal/ui/app"
)

const stopTimeout = 2 * time.Minute

type App struct {
	Config      config.Config
	Logger      *zap.Logger
	SessionCLI  sessioninadapter.CLIHandler
	AnalysisCLI analysisinadapter.CLIHandler
	TasksCLI    tasksinadapter.CLIHandler
	CaptureCLI  captureinadapter.CLIHandler

	capture  capturein.Usecase
	privacy  *captureoutadapter.FilePrivacyStore
	activity activityin.Usecase
	bus      *eventbus.Bus[eventbus.ActivityEvent]
	closers  []func() error
}

type options struct {
	clock clock.Clock
	model llm.Client
}

type Option func(*options)

// WithClock replaces the system clock for every component.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithModel replaces the configured model provider.
func WithModel(m llm.Client) Option {
	return func(o *options) { o.model = m }
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	o := options{clock: clock.SystemClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if o.model == nil {
		model, err := llm.New(cfg.Model)
		if err != nil {
			return nil, fmt.Errorf("new model client: %w", err)
		}
		o.model = model
	}
	clk := o.clock
	ids := id.UUID{}

	store, err := entitystore.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open entity store: %w", err)
	}
	app := &App{Config: cfg, Logger: logger, closers: []func() error{store.Close}}

	activityBus := eventbus.New[eventbus.ActivityEvent](logger.Named("activity_bus"))
	hotkeyBus := eventbus.New[eventbus.HotkeyEvent](logger.Named("hotkey_bus"))
	hotkeyBus.Subscribe(string(eventbus.HotkeySpeak), func(_ context.Context, event eventbus.HotkeyEvent) error {
		logger.Info("speak hotkey pressed", zap.Time("at", event.Timestamp))
		return nil
	})
	app.bus = activityBus

	tracker := captureservice.NewSessionTracker(clk, map[eventbus.EventType][]string{eventbus.HotkeySpeak: cfg.Capture.SpeakHotkey}, hotkeyBus)
	var screenshotter captureout.Screenshotter
	if cfg.Capture.Screenshots {
		screenshotter = captureoutadapter.NewDisplayScreenshotter(0)
	}
	app.privacy = captureoutadapter.NewFilePrivacyStore(cfg.PrivacyPath, logger)
	app.capture = captureusecase.NewInteractor(tracker, screenshotter, app.privacy, logger.Named("capture"))
	if err := app.capture.ReloadPrivacyRules(ctx); err != nil {
		logger.Warn("load privacy rules", zap.Error(err))
	}

	var source activityout.CaptureSource
	switch cfg.Capture.Backend {
	case config.BackendPlugin:
		args := []string{}
		if cfg.Capture.Feed != "" {
			args = append(args, cfg.Capture.Feed)
		}
		helper := activityoutadapter.NewGRPCCaptureSource(cfg.Capture.PluginBinary, args, app.capture, logger)
		app.closers = append(app.closers, helper.Close)
		source = helper
	default:
		source = activityoutadapter.NewLocalCaptureSource(app.capture)
	}
	snapshots := activityoutadapter.NewSQLiteSnapshotStore(store)
	activityUC := activityusecase.NewInteractor(
		activityservice.NewRecorder(clk, source, snapshots, activityBus),
		source,
		snapshots,
		cfg.Capture.Interval,
		logger.Named("activity"),
	)
	app.activity = activityUC

	settings := analysisservice.Settings{
		ShortWindow:    cfg.Analysis.ShortWindow,
		RepeatInterval: cfg.Analysis.RepeatInterval,
		Temperature:    cfg.Analysis.Temperature,
	}
	reader := analysisoutadapter.NewActivitySnapshotReader(activityUC)
	records := analysisoutadapter.NewSQLiteRecordStore(store)
	model := analysisoutadapter.NewLLMModel(o.model, cfg.Model.MaxTokens)
	analysisLogger := logger.Named("analysis")
	analysisUC := analysisusecase.NewInteractor(
		analysisservice.NewShortTermAnalyzer(settings, reader, records, model, activityBus, clk, analysisLogger),
		analysisservice.NewMediumTermAnalyzer(settings, reader, records, model, activityBus, clk, analysisLogger),
		analysisservice.NewSessionFinalizer(settings, reader, records, model, clk, analysisLogger),
		records,
		clk,
	)
	analysisinadapter.NewBusHandler(analysisUC).Register(activityBus)

	manager := tasksservice.NewTaskManager(tasksoutadapter.NewSQLiteTaskStore(store), store, ids, clk)
	reactor := tasksservice.NewTaskReactor(
		tasksservice.ReactorSettings{MaxIterations: cfg.Tasks.MaxIterations, Temperature: cfg.Analysis.Temperature, MaxTokens: cfg.Model.MaxTokens},
		manager,
		tasksoutadapter.NewAnalysisReader(analysisUC),
		o.model,
		logger,
	)
	tasksUC := tasksusecase.NewInteractor(manager, reactor)
	tasksinadapter.NewBusHandler(tasksUC).Register(activityBus)

	sessionUC := sessionusecase.NewInteractor(
		sessionservice.NewSessionService(clk, ids, sessionoutadapter.NewAnalysisPipeline(analysisUC), sessionoutadapter.NewMarkdownReportStore(cfg.ReportsDir)),
		sessionoutadapter.NewActivityRecorder(activityUC),
		sessionoutadapter.NewAnalysisPipeline(analysisUC),
		activityBus,
		sessionoutadapter.NewFileActiveSessionStore(cfg.DataDir),
		logger,
	)

	app.SessionCLI = sessioninadapter.NewCLIHandler(sessionUC)
	app.AnalysisCLI = analysisinadapter.NewCLIHandler(analysisUC)
	app.TasksCLI = tasksinadapter.NewCLIHandler(tasksUC)
	app.CaptureCLI = captureinadapter.NewCLIHandler(app.capture)
	return app, nil
}

// Close releases the store and any capture helper process.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Feed applies a JSONL activity feed to the in-process tracker.
func (a *App) Feed(ctx context.Context, r io.Reader) error {
	reader := captureinadapter.NewFeedReader(a.capture, func(line int, err error) {
		a.Logger.Warn("skip feed line", zap.Int("line", line), zap.Error(err))
	})
	return reader.Run(ctx, r)
}

// Track captures one session until ctx is cancelled, then stops the
// pipeline and writes the session report.
func (a *App) Track(ctx context.Context, prompt string) (string, error) {
	started, err := a.SessionCLI.Start(ctx, prompt)
	if err != nil {
		return "", err
	}
	a.Logger.Info("tracking", zap.String("session_id", started.SessionID), zap.Duration("interval", a.Config.Capture.Interval))

	background, cancel := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(background)
	group.Go(func() error {
		return a.privacy.Watch(groupCtx, func(ctx context.Context) {
			if err := a.capture.ReloadPrivacyRules(ctx); err != nil {
				a.Logger.Warn("reload privacy rules", zap.Error(err))
			}
		})
	})
	if a.Config.Capture.Backend == config.BackendLocal && a.Config.Capture.Feed != "" {
		group.Go(func() error {
			return a.runFeed(groupCtx, a.Config.Capture.Feed)
		})
	}

	<-ctx.Done()
	cancel()
	if err := group.Wait(); err != nil {
		a.Logger.Warn("background capture task", zap.Error(err))
	}

	stopCtx, stopCancel := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
	defer stopCancel()
	report, err := a.SessionCLI.Stop(stopCtx, "")
	if err != nil {
		return "", err
	}
	return report.Path, nil
}

func (a *App) runFeed(ctx context.Context, path string) error {
	if path == "-" {
		return a.Feed(ctx, os.Stdin)
	}
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open feed: %w", err)
	}
	defer file.Close()
	return a.Feed(ctx, file)
}

// Drain waits for every queued pipeline event to be handled.
func (a *App) Drain(ctx context.Context) error {
	return a.bus.Drain(ctx)
}

// Flush records one snapshot outside the capture schedule.
func (a *App) Flush(ctx context.Context) (activitydto.SnapshotOutput, error) {
	return a.activity.Flush(ctx)
}

// CheckHelper launches a capture helper binary and asks for its metadata.
func CheckHelper(ctx context.Context, binary string, logger *zap.Logger) (capturerpc.Metadata, error) {
	helper := activityoutadapter.NewGRPCCaptureSource(binary, nil, nil, logger)
	defer func() { _ = helper.Close() }()
	return helper.Metadata(ctx)
}

func RunDashboard(ctx context.Context, app *App) error {
	model := uiapp.NewModel(app.SessionCLI, app.AnalysisCLI, app.TasksCLI, app.Config.Capture.Interval)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}
