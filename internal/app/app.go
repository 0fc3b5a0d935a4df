// Package app wires the stores, transport and services shared by the dashboard and the CLI.
package app

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"docdesk/internal/apiclient"
	"docdesk/internal/cache"
	"docdesk/internal/config"
	"docdesk/internal/credential"
	"docdesk/internal/email/noop"
	"docdesk/internal/email/ses"
	"docdesk/internal/env"
	"docdesk/internal/port"
	"docdesk/internal/repository/sqlstore"
	"docdesk/internal/service"
	"docdesk/internal/storage/local"
	s3storage "docdesk/internal/storage/s3"
	"docdesk/internal/store/memory"
)

const (
	DriverMemory = "memory"

	// localNamespace holds values that outlive cache sessions: credentials and the session id.
	localNamespace = "local"
)

// App holds the long-lived dependencies of one process.
type App struct {
	Config    *config.Config
	DB        *sqlx.DB
	SessionID string
	Client    service.ClientContext

	Jobs    service.JobLifecycle
	Batches service.BatchLifecycle
	Exports service.ExportService
	Insight service.InsightService
	Keys    service.KeyService

	local    port.KeyValueStore
	newStore func(namespace string) port.KeyValueStore
}

// New opens the configured store, resolves the cache session and builds the services.
// environment is consulted on every request; pass nil to resolve from configuration only.
func New(ctx context.Context, cfg *config.Config, environment env.Source) (*App, error) {
	a := &App{Config: cfg}

	switch cfg.Cache.Driver {
	case DriverMemory:
		stores := map[string]port.KeyValueStore{}
		a.newStore = func(ns string) port.KeyValueStore {
			if s, ok := stores[ns]; ok {
				return s
			}
			s := memory.NewStore()
			stores[ns] = s
			return s
		}
	default:
		db, err := sqlstore.NewDB(&cfg.Cache)
		if err != nil {
			return nil, fmt.Errorf("failed to open local store: %w", err)
		}
		a.DB = db
		a.newStore = func(ns string) port.KeyValueStore { return sqlstore.NewKVRepo(db, ns) }
	}
	a.local = a.newStore(localNamespace)

	sessionID, err := cache.CurrentSession(ctx, a.local, cfg.Cache.SessionID)
	if err != nil {
		a.Close()
		return nil, err
	}

	sink, err := NewSink(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	notifier, err := NewNotifier(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	if environment == nil {
		environment = env.Static(env.Snapshot{
			ConfiguredBase: cfg.API.BaseURL,
			Development:    cfg.App.IsDevelopment(),
		})
	}

	a.SessionID = sessionID
	a.Client = service.ClientContext{
		Environment: environment,
		Credentials: credential.NewProvider(a.local, cfg.API.DefaultKey, cfg.API.AuthHeader),
		Cache:       cache.New(a.newStore(cache.Namespace(sessionID))),
		Notices:     service.NewNoticeBoard(),
	}

	api := apiclient.NewClient(&cfg.API)
	a.Batches = service.NewBatchLifecycle(api, sink, notifier)
	a.Jobs = service.NewJobLifecycle(api, cfg.API.ListLimit, a.Batches)
	a.Exports = service.NewExportService(api, sink)
	a.Insight = service.NewInsightService(api)
	a.Keys = service.NewKeyService(api)

	log.Printf("app: cache driver %s, session %s", cfg.Cache.Driver, sessionID)
	return a, nil
}

// ResetSession stops every poll and switches to a fresh, empty cache session.
func (a *App) ResetSession(ctx context.Context) (string, error) {
	a.Jobs.StopAll()
	a.Batches.StopAll()
	id, err := cache.ResetSession(ctx, a.local)
	if err != nil {
		return "", err
	}
	a.SessionID = id
	a.Client.Cache = cache.New(a.newStore(cache.Namespace(id)))
	return id, nil
}

// Close stops polling and releases the store.
func (a *App) Close() {
	if a.Jobs != nil {
		a.Jobs.StopAll()
	}
	if a.Batches != nil {
		a.Batches.StopAll()
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			log.Printf("app: closing store: %v", err)
		}
	}
}

// NewSink selects where downloaded files are handed over.
func NewSink(cfg *config.Config) (port.DownloadSink, error) {
	switch cfg.Downloads.Sink {
	case "s3":
		sink, err := s3storage.NewS3Sink(&cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 sink: %w", err)
		}
		return sink, nil
	case "local", "":
		sink, err := local.NewLocalSink(cfg.Downloads.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize download directory: %w", err)
		}
		return sink, nil
	default:
		return nil, fmt.Errorf("unsupported download sink %q", cfg.Downloads.Sink)
	}
}

// NewNotifier selects how finished batches are announced.
func NewNotifier(cfg *config.Config) (port.Notifier, error) {
	switch cfg.Notify.Provider {
	case "ses":
		n, err := ses.NewSESNotifier(cfg.Notify.Region, cfg.Notify.FromAddress, cfg.Notify.FromName, cfg.Notify.Recipient)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SES notifier: %w", err)
		}
		return n, nil
	case "noop", "":
		return noop.NewNoopNotifier(), nil
	default:
		return nil, fmt.Errorf("unsupported notify provider %q", cfg.Notify.Provider)
	}
}
