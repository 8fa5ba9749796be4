package bootstrap

import (
	"context"
	"database/sql"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"

	"ascend-backend/internal/extraction"
	"ascend-backend/internal/forms"
	"ascend-backend/internal/llm"
	"ascend-backend/internal/llm/gemini"
	"ascend-backend/internal/llm/openai"
	"ascend-backend/internal/notify"
	"ascend-backend/internal/reminders"
	"ascend-backend/internal/shared/config"
	"ascend-backend/internal/shared/server"
	"ascend-backend/internal/shared/server/middleware"
	"ascend-backend/internal/shared/storage/db"
	"ascend-backend/internal/shared/storage/object"
	localstore "ascend-backend/internal/shared/storage/object/local"
	s3store "ascend-backend/internal/shared/storage/object/s3"
	"ascend-backend/internal/shared/telemetry"
	"ascend-backend/internal/subcontractors"
)

// App holds shared dependencies. Collaborators that are not configured stay
// nil and the services that use them run in degraded mode.
type App struct {
	Config    config.Config
	Router    *gin.Engine
	DB        *sql.DB
	Repo      subcontractors.Repo
	Archive   object.Store
	Extractor *extraction.Adapter
	Sender    notify.Sender
	Location  *time.Location

	IntakeService *subcontractors.IntakeService
	FormsService  *forms.Service
	ReminderJob   *reminders.Job
}

// Build wires every collaborator once and mounts the router. Only a broken
// configuration is returned as an error; unreachable services are logged.
func Build(cfg config.Config) (*App, error) {
	ctx := context.Background()

	app := &App{Config: cfg, Location: buildLocation(cfg.ReminderTimezone)}
	app.DB, app.Repo = buildRepo(ctx, cfg)

	archive, err := buildArchive(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Archive = archive
	app.Extractor = buildExtractor(ctx, cfg)
	app.Sender = buildSender(cfg)

	app.IntakeService = &subcontractors.IntakeService{
		Extractor: app.Extractor,
		Repo:      app.Repo,
		Archive:   app.Archive,
		Sender:    app.Sender,
		From:      cfg.FromEmail,
		To:        cfg.BusinessEmail,
		Location:  app.Location,
		Now:       time.Now,
	}
	app.FormsService = &forms.Service{
		Sender: app.Sender,
		From:   cfg.FromEmail,
		To:     cfg.BusinessEmail,
	}
	app.ReminderJob = &reminders.Job{
		Sender:          app.Sender,
		From:            cfg.FromEmail,
		BusinessEmail:   cfg.BusinessEmail,
		ToSubcontractor: cfg.RemindersToSubcontractor,
		WindowDays:      cfg.ReminderWindowDays,
		Location:        app.Location,
		Now:             time.Now,
	}
	if app.Repo != nil {
		app.ReminderJob.Store = app.Repo
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:           cfg,
		DB:               app.DB,
		IntakeHandler:    subcontractors.NewHandler(app.IntakeService, !cfg.IsProduction()),
		FormsHandler:     forms.NewHandler(app.FormsService),
		RemindersHandler: &reminders.Handler{Job: app.ReminderJob, ExposeErrors: !cfg.IsProduction()},
		Limiter:          middleware.NewRateLimiter(nil),
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":          cfg.Env,
		"data_store":   orNone(cfg.DataStore, app.Repo != nil),
		"object_store": cfg.ObjectStoreType,
		"llm":          orNone(cfg.LLMProvider, app.Extractor.Configured()),
		"email":        orNone(cfg.EmailProvider, app.Sender != nil),
		"timezone":     app.Location.String(),
	})
	return app, nil
}

// buildRepo returns a nil repo when persistence is off or the database is
// unreachable, so submissions still reach the inbox.
func buildRepo(ctx context.Context, cfg config.Config) (*sql.DB, subcontractors.Repo) {
	switch cfg.DataStore {
	case "memory":
		return nil, subcontractors.NewMemoryRepo()
	case "postgres":
	default:
		telemetry.Warn("bootstrap.store_unconfigured", nil)
		return nil, nil
	}

	role := db.CurrentRole(db.RoleServer)
	sqlDB, err := db.Open(ctx, cfg.DatabaseURL, role)
	if err == nil && role == db.RoleServer {
		err = db.RunMigrations(ctx, sqlDB)
	}
	if err != nil {
		telemetry.Error("bootstrap.store_unavailable", map[string]any{"error": err.Error()})
		return nil, nil
	}
	return sqlDB, &subcontractors.PGRepo{DB: sqlDB}
}

func buildArchive(ctx context.Context, cfg config.Config) (object.Store, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	case "local":
		return localstore.New(cfg.LocalStoreDir), nil
	default:
		return nil, nil
	}
}

func buildExtractor(ctx context.Context, cfg config.Config) *extraction.Adapter {
	var (
		client llm.VisionClient
		opts   []extraction.Option
		err    error
	)
	switch cfg.LLMProvider {
	case "gemini":
		if cfg.GeminiAPIKey != "" {
			client, err = gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.LLMModel)
		}
	default:
		if cfg.OpenAIAPIKey != "" {
			client, err = openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel)
			opts = append(opts, extraction.WithPDFText())
		}
	}
	if err != nil {
		telemetry.Error("bootstrap.llm_unavailable", map[string]any{"provider": cfg.LLMProvider, "error": err.Error()})
		client = nil
	}
	if client == nil {
		telemetry.Warn("bootstrap.llm_unconfigured", map[string]any{"provider": cfg.LLMProvider})
	}
	return extraction.NewAdapter(client, opts...)
}

func buildSender(cfg config.Config) notify.Sender {
	var (
		sender notify.Sender
		err    error
	)
	switch cfg.EmailProvider {
	case "smtp":
		if cfg.SMTPHost != "" {
			sender, err = notify.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
		}
	default:
		if cfg.ResendAPIKey != "" {
			sender, err = notify.NewResendSender(cfg.ResendAPIKey)
		}
	}
	if err != nil || sender == nil {
		telemetry.Warn("bootstrap.email_unconfigured", map[string]any{"provider": cfg.EmailProvider})
		return nil
	}
	return sender
}

func buildLocation(name string) *time.Location {
	loc, err := time.LoadLocation(strings.TrimSpace(name))
	if err != nil {
		telemetry.Warn("bootstrap.bad_timezone", map[string]any{"timezone": name, "error": err.Error()})
		return time.UTC
	}
	return loc
}

func orNone(name string, ok bool) string {
	if !ok || name == "" {
		return "none"
	}
	return name
}
