package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/mohanavadivelu2/automation-framework/pkg/action"
	"github.com/mohanavadivelu2/automation-framework/pkg/config"
	"github.com/mohanavadivelu2/automation-framework/pkg/driver/mock"
	"github.com/mohanavadivelu2/automation-framework/pkg/executor"
	"github.com/mohanavadivelu2/automation-framework/pkg/handler"
	"github.com/mohanavadivelu2/automation-framework/pkg/logger"
	"github.com/mohanavadivelu2/automation-framework/pkg/recorder"
	"github.com/mohanavadivelu2/automation-framework/pkg/session"
)

// AppLogFile is the application log written under the log directory.
const AppLogFile = "automation.log"

// loadConfig reads --config, or the workspace config found by
// config.GetHome.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
		return cfg, nil
	}
	cfg, err := config.LoadFromHome()
	if err != nil {
		return nil, fmt.Errorf("load config from %s: %w", config.GetHome(), err)
	}
	return cfg, nil
}

// openAppLogger initialises the application log at <logDir>/automation.log.
// With --verbose every line is mirrored to stderr at debug level.
func openAppLogger(c *cli.Context, cfg *config.Config) (*logger.Logger, error) {
	logDir := cfg.LogPath()
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	level := logger.ParseLevel(cfg.LogLevel)
	if c.Bool("verbose") {
		level = logger.LevelDebug
	}
	if err := logger.Init(filepath.Join(logDir, AppLogFile), level); err != nil {
		return nil, fmt.Errorf("open application log: %w", err)
	}

	log := logger.App()
	if c.Bool("verbose") {
		log.WithMirror(c.App.ErrWriter)
	}
	return log, nil
}

// engine bundles what a run needs besides the documents.
type engine struct {
	registry  *action.Registry
	recorders executor.RecorderFactory
	dryRun    *mock.Driver
	close     func()
}

func handlerConfig(cfg *config.Config) handler.Config {
	return handler.Config{
		CaptureDir: cfg.LogPath(),
		ScriptDir:  cfg.ScriptPath(),
		Options:    cfg.Options,
	}
}

// offlineRegistry registers the built-in handlers with no devices behind
// them. It is only used to enumerate action types and operations.
func offlineRegistry(cfg *config.Config) (*action.Registry, error) {
	reg := action.NewRegistry()
	none := handler.ProviderFunc(func(string) (handler.Device, bool) { return nil, false })
	if err := handler.RegisterDefaults(reg, none, handlerConfig(cfg)); err != nil {
		return nil, err
	}
	return reg, nil
}

// newEngine connects every configured device and registers the built-in
// handlers against those sessions. With dryRun no device is contacted and
// every action type resolves to the mock driver.
func newEngine(ctx context.Context, cfg *config.Config, dryRun bool, log *logger.Logger) (*engine, error) {
	if dryRun {
		known, err := offlineRegistry(cfg)
		if err != nil {
			return nil, err
		}
		d := mock.New(mock.Config{})
		reg := action.NewRegistry()
		if err := d.Mirror(reg, known); err != nil {
			return nil, err
		}
		log.Info("Dry run: %d action types backed by the mock driver", len(reg.Types()))
		return &engine{registry: reg, dryRun: d, close: func() {}}, nil
	}

	sessions := session.NewManager(cfg.Devices, log)
	if err := sessions.Connect(ctx); err != nil {
		return nil, err
	}

	reg := action.NewRegistry()
	if err := handler.RegisterDefaults(reg, handler.Sessions(sessions), handlerConfig(cfg)); err != nil {
		sessions.Close()
		return nil, err
	}
	return &engine{
		registry:  reg,
		recorders: recorder.NewFactory(sessions, log),
		close:     sessions.Close,
	}, nil
}
