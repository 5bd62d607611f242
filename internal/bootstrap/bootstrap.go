// Package bootstrap is the composition root shared by the API server and the
// leadctl CLI. It turns configuration into wired services and HTTP modules.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lead_automation_backend/internal/adapters/storage"
	"lead_automation_backend/internal/email"
	"lead_automation_backend/internal/events"
	apphttp "lead_automation_backend/internal/http"
	"lead_automation_backend/internal/leads"
	"lead_automation_backend/internal/leads/repository"
	"lead_automation_backend/internal/notification"
	"lead_automation_backend/internal/outbox"
	"lead_automation_backend/internal/proposals"
	"lead_automation_backend/internal/settings"
	"lead_automation_backend/internal/webhook"
	"lead_automation_backend/platform/ai/openaicompat"
	"lead_automation_backend/platform/config"
	"lead_automation_backend/platform/db"
	"lead_automation_backend/platform/httpkit"
	"lead_automation_backend/platform/logger"
	"lead_automation_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/time/rate"
)

// Container holds the fully wired application.
type Container struct {
	Config *config.Config
	Log    *logger.Logger

	EventBus  *events.InMemoryBus
	Store     *repository.Store
	Sink      *outbox.Sink
	Settings  *settings.Service
	Proposals *proposals.Service
	Webhook   *webhook.Processor

	LeadsModule     *leads.Module
	ProposalsModule *proposals.Module
	WebhookModule   *webhook.Module
	OutboxModule    *outbox.Module
	SettingsModule  *settings.Module

	pool *pgxpool.Pool
}

// New wires every component from cfg. Restored leads are loaded before New
// returns.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Container, error) {
	c := &Container{Config: cfg, Log: log}

	snapshot, err := c.openSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	var opts []repository.Option
	if snapshot != nil {
		opts = append(opts, repository.WithSnapshot(snapshot))
	}
	c.Store = repository.NewStore(log, opts...)
	restored, err := c.Store.Load(ctx)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("load lead snapshot: %w", err)
	}
	log.Info("lead store ready", "backend", cfg.GetLeadSnapshotBackend(), "restored", restored)

	objects, err := c.openOutbox(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Sink = outbox.NewSink(objects, log)

	// Event bus for decoupled communication between modules
	c.EventBus = events.NewInMemoryBus(log)
	notifier := notification.New(c.Sink, log)
	notifier.RegisterHandlers(c.EventBus)

	// Shared validator instance for dependency injection
	val := validator.New()
	mailer := email.NewOutboxSender(c.Sink, cfg)

	generator, err := c.newGenerator()
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Settings = settings.New(cfg.GetQualificationThreshold(), generator, val, c.EventBus, log)
	c.Proposals = proposals.NewService(generator, c.Sink, mailer, c.Store, notifier, c.EventBus, log)
	c.Webhook = webhook.NewProcessor(c.Store, mailer, c.Proposals, notifier, webhook.NewPhraseDetector(cfg.GetProposalIntentPhrases()...), c.EventBus, log)

	c.LeadsModule = leads.NewModule(c.Store, c.Sink, c.Settings, notifier, c.EventBus, val, cfg, log)
	c.ProposalsModule = proposals.NewModule(c.Proposals)
	c.WebhookModule = webhook.NewModule(c.Webhook, httpkit.NewIPRateLimiter(rate.Limit(cfg.GetWebhookRateLimit()), cfg.GetWebhookRateBurst(), log))
	c.OutboxModule = outbox.NewModule(c.Sink)
	c.SettingsModule = settings.NewModule(c.Settings)

	return c, nil
}

// Modules returns the HTTP-facing modules in mount order.
func (c *Container) Modules() []apphttp.Module {
	return []apphttp.Module{
		c.LeadsModule,
		c.ProposalsModule,
		c.WebhookModule,
		c.OutboxModule,
		c.SettingsModule,
	}
}

// Health returns a readiness probe, or nil when no database is in use.
func (c *Container) Health() apphttp.HealthChecker {
	if c.pool == nil {
		return nil
	}
	return db.NewPoolAdapter(c.pool)
}

// Close releases the database pool, if any.
func (c *Container) Close() {
	if c.pool != nil {
		c.pool.Close()
		c.pool = nil
	}
}

func (c *Container) openSnapshot(ctx context.Context) (repository.Snapshotter, error) {
	switch c.Config.GetLeadSnapshotBackend() {
	case config.SnapshotBackendNone:
		return nil, nil
	case config.SnapshotBackendPostgres:
		if err := WithRetry(ctx, c.Log, "database connection", 5, 2*time.Second, func() error {
			p, err := db.NewPool(ctx, c.Config)
			if err != nil {
				return err
			}
			c.pool = p
			return nil
		}); err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := db.RunMigrations(ctx, c.pool); err != nil {
			c.Close()
			return nil, fmt.Errorf("run database migrations: %w", err)
		}
		c.Log.Info("database migrations complete")
		return repository.NewPostgresSnapshot(c.pool), nil
	default:
		return repository.NewFileSnapshot(c.Config.GetLeadSnapshotPath()), nil
	}
}

func (c *Container) openOutbox(ctx context.Context) (outbox.ObjectStore, error) {
	if c.Config.GetOutboxBackend() != config.OutboxBackendMinIO {
		store, err := outbox.NewFileStore(c.Config.GetOutboxDir())
		if err != nil {
			return nil, fmt.Errorf("prepare outbox directory: %w", err)
		}
		c.Log.Info("outbox ready", "backend", config.OutboxBackendFilesystem, "root", store.Root())
		return store, nil
	}

	storageSvc, err := storage.NewMinIOService(c.Config)
	if err != nil {
		return nil, fmt.Errorf("initialize storage service: %w", err)
	}
	var store *outbox.MinIOStore
	if err := WithRetry(ctx, c.Log, "ensure outbox bucket", 5, 2*time.Second, func() error {
		s, err := outbox.NewMinIOStore(ctx, storageSvc, c.Config.GetOutboxMinIOBucket())
		if err != nil {
			return err
		}
		store = s
		return nil
	}); err != nil {
		return nil, fmt.Errorf("ensure outbox bucket: %w", err)
	}
	c.Log.Info("outbox ready", "backend", config.OutboxBackendMinIO, "bucket", c.Config.GetOutboxMinIOBucket())
	return store, nil
}

// newGenerator registers the generative backend when selected, so switching
// at runtime is possible only if it was configured at startup.
func (c *Container) newGenerator() (*proposals.Generator, error) {
	generator := proposals.NewGenerator(proposals.NewStaticBackend(), c.Log)

	kind, err := proposals.ParseBackendKind(c.Config.GetProposalBackend())
	if err != nil {
		return nil, err
	}
	if kind != proposals.BackendGenerative {
		return generator, nil
	}

	temperature := c.Config.GetGenerativeTemperature()
	llm := openaicompat.NewModel(openaicompat.Config{
		APIKey:      c.Config.GetGenerativeAPIKey(),
		BaseURL:     c.Config.GetGenerativeBaseURL(),
		Model:       c.Config.GetGenerativeModel(),
		Temperature: &temperature,
	})
	backend, err := proposals.NewGenerativeBackend(llm, c.Config.GetGenerativeTimeout(), c.Log)
	if err != nil {
		return nil, fmt.Errorf("initialize generative backend: %w", err)
	}
	generator.Register(backend)
	if err := generator.Use(proposals.BackendGenerative); err != nil {
		return nil, err
	}
	c.Log.Info("generative proposal backend enabled", "model", c.Config.GetGenerativeModel(), "baseUrl", c.Config.GetGenerativeBaseURL())
	return generator, nil
}

// WithRetry runs fn up to attempts times with quadratic backoff.
func WithRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
