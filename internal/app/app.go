package app

import (
	"os"
	"strings"
	"time"

	"ai-interview-orchestrator/internal/config"
	"ai-interview-orchestrator/internal/observability/logging"

	"github.com/rs/zerolog"
)

// Application holds process-wide state for the service.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Configuration
}

// New constructs a new Application from the provided configuration.
func New(cfg *config.Configuration) *Application {
	a := &Application{
		Cfg: cfg,
	}
	a.setupLogger()

	appLogger := a.Logger.With().
		Str("component", "application").
		Str("method", "New").
		Logger()

	appLogger.Info().Msg("AI Interview Orchestrator application created")
	return a
}

// setupLogger configures the global zerolog logger for the service.
func (a *Application) setupLogger() {
	logging.Init(logging.Config{
		Level:      strings.ToLower(a.Cfg.Observability.LogLevel),
		Format:     a.Cfg.Observability.LogFormat,
		TimeFormat: time.RFC3339,
	})

	a.Logger = logging.Logger().With().
		Str("service", "ai-interview-orchestrator").
		Logger()

	a.Logger.Info().
		Str("logLevel", a.Cfg.Observability.LogLevel).
		Str("environment", os.Getenv("ENV")).
		Msg("Logger setup completed")
}

// Start performs any startup work required before serving traffic.
func (a *Application) Start() error {
	startLogger := a.Logger.With().
		Str("method", "Start").
		Logger()

	a.StartupTime = time.Now().UTC()
	startLogger.Info().
		Time("startupTime", a.StartupTime).
		Msg("AI Interview Orchestrator starting")

	return nil
}

// Shutdown performs a best-effort cleanup before process exit.
func (a *Application) Shutdown() {
	shutdownLogger := a.Logger.With().
		Str("method", "Shutdown").
		Logger()

	shutdownLogger.Info().Msg("AI Interview Orchestrator shutting down")
}
