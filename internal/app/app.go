package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/stagepass/stagepass/config"
	"github.com/stagepass/stagepass/internal/database"
	"github.com/stagepass/stagepass/internal/domain"
	httpHandler "github.com/stagepass/stagepass/internal/http"
	"github.com/stagepass/stagepass/internal/repository"
	"github.com/stagepass/stagepass/internal/service"
	"github.com/stagepass/stagepass/pkg/logger"
	"github.com/stagepass/stagepass/pkg/mailer"
)

// App encapsulates the application dependencies and configuration
type App struct {
	config *config.Config
	logger logger.Logger
	db     *sql.DB
	mailer mailer.Mailer

	templateRepo domain.TemplateRepository

	templateService *service.TemplateService
	autosaver       *service.Autosaver

	mux    *http.ServeMux
	server *http.Server
}

// AppOption defines a function signature for configuring the App
type AppOption func(*App)

// WithLogger sets a custom logger
func WithLogger(logger logger.Logger) AppOption {
	return func(a *App) {
		a.logger = logger
	}
}

// WithMailer sets a custom mailer
func WithMailer(m mailer.Mailer) AppOption {
	return func(a *App) {
		a.mailer = m
	}
}

// NewApp creates a new application instance
func NewApp(cfg *config.Config, opts ...AppOption) *App {
	a := &App{
		config: cfg,
		mux:    http.NewServeMux(),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		a.logger = logger.NewLogger(cfg.LogLevel)
	}

	return a
}

// InitDB opens the database connection and ensures the schema exists
func (a *App) InitDB() error {
	db, err := sql.Open("postgres", a.config.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if err := database.InitializeDatabase(db); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	a.db = db
	return nil
}

// InitMailer configures the outbound mailer. Without an SMTP host the app
// falls back to console delivery so test sends still work in development.
func (a *App) InitMailer() error {
	if a.mailer != nil {
		return nil
	}

	if a.config.SMTP.Host == "" {
		a.logger.Warn("SMTP_HOST not set, using console mailer")
		a.mailer = mailer.NewConsoleMailer(a.logger)
		return nil
	}

	a.mailer = mailer.NewSMTPMailer(&a.config.SMTP, a.logger)
	return nil
}

// InitRepositories initializes all repositories
func (a *App) InitRepositories() error {
	if a.db == nil {
		return fmt.Errorf("database not initialized")
	}
	a.templateRepo = repository.NewTemplateRepository(a.db)
	return nil
}

// InitServices initializes all services
func (a *App) InitServices() error {
	a.templateService = service.NewTemplateService(a.templateRepo, a.mailer, a.logger)
	a.autosaver = service.NewAutosaver(a.templateService, a.logger, a.config.AutosaveInterval)
	return nil
}

// InitHandlers initializes the HTTP handlers and routes
func (a *App) InitHandlers() error {
	templateHandler := httpHandler.NewTemplateHandler(a.templateService, a.logger)
	templateHandler.RegisterRoutes(a.mux)

	rootHandler := httpHandler.NewRootHandler(a.config, a.logger)
	rootHandler.RegisterRoutes(a.mux)

	return nil
}

// Initialize sets up all application components in order
func (a *App) Initialize() error {
	if err := a.InitDB(); err != nil {
		return err
	}
	if err := a.InitMailer(); err != nil {
		return err
	}
	if err := a.InitRepositories(); err != nil {
		return err
	}
	if err := a.InitServices(); err != nil {
		return err
	}
	if err := a.InitHandlers(); err != nil {
		return err
	}
	return nil
}

// Start starts the HTTP server and blocks until it stops
func (a *App) Start() error {
	addr := fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port)
	a.server = &http.Server{
		Addr:              addr,
		Handler:           a.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.logger.WithField("addr", addr).Info("HTTP server listening")
	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown flushes pending autosaves and gracefully stops the server
func (a *App) Shutdown(ctx context.Context) error {
	if a.autosaver != nil {
		a.autosaver.Close(ctx)
	}

	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}

	a.logger.Info("Server shut down gracefully")
	return nil
}

// Getters for app components accessed in tests

func (a *App) GetConfig() *config.Config                        { return a.config }
func (a *App) GetLogger() logger.Logger                         { return a.logger }
func (a *App) GetMux() *http.ServeMux                           { return a.mux }
func (a *App) GetDB() *sql.DB                                   { return a.db }
func (a *App) GetMailer() mailer.Mailer                         { return a.mailer }
func (a *App) GetTemplateRepository() domain.TemplateRepository { return a.templateRepo }
func (a *App) GetTemplateService() *service.TemplateService     { return a.templateService }
func (a *App) GetAutosaver() *service.Autosaver                 { return a.autosaver }
