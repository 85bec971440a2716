package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"resume-analyzer/analysis"
	"resume-analyzer/config"
	"resume-analyzer/infrastructure"
	"resume-analyzer/logger"
	"resume-analyzer/metrics"
	"resume-analyzer/platform"
	"resume-analyzer/rasterizer"
	"resume-analyzer/utils"
)

// application holds every long-lived component of a command run.
type application struct {
	cfg       *config.Config
	logger    *zap.Logger
	metrics   *metrics.Manager
	client    *platform.Client
	converter *rasterizer.Converter
	analyzer  *analysis.Orchestrator
	events    *infrastructure.RabbitMQ

	closers []func() error
}

func newLogger() *zap.Logger {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}

// newApplication builds every component. extra options are applied to the
// orchestrator after the configured ones.
func newApplication(ctx context.Context, l *zap.Logger, extra ...analysis.Option) (*application, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	a := &application{
		cfg:     cfg,
		logger:  l,
		metrics: metrics.NewManager(),
	}

	backends, err := a.backends(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	a.client = platform.New(backends,
		platform.WithPollInterval(cfg.Platform.PollInterval),
		platform.WithBootstrapTimeout(cfg.Platform.BootstrapTimeout),
		platform.WithFeedbackModel(cfg.AI.FeedbackModel),
		platform.WithLogger(l),
		platform.WithMetrics(a.metrics),
	)

	load, err := rasterizer.LoaderFor(cfg.Rasterizer.Engine, cfg.Rasterizer.LicenseKey)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("rasterizer %q: %w", cfg.Rasterizer.Engine, err)
	}
	a.converter = rasterizer.NewConverter(load, rasterizer.NewPreviews(),
		rasterizer.WithScale(cfg.Rasterizer.Scale),
		rasterizer.WithLogger(l),
		rasterizer.WithMetrics(a.metrics),
	)

	opts := []analysis.Option{
		analysis.WithLogger(l),
		analysis.WithMaxLogLength(cfg.AI.MaxLogLength),
	}
	a.analyzer = analysis.NewOrchestrator(
		analysis.FromPlatform(a.client, a.converter),
		append(opts, extra...)...,
	)

	if url := strings.TrimSpace(cfg.Events.RabbitMQURL); url != "" {
		events, err := infrastructure.NewRabbitMQ(url, cfg.Events.Queue, l)
		if err != nil {
			a.close()
			return nil, err
		}
		a.events = events
		a.closers = append(a.closers, events.Close)
	}

	return a, nil
}

func (a *application) backends(ctx context.Context) (platform.Backends, error) {
	var (
		b   platform.Backends
		err error
	)

	if b.FS, err = a.blobStore(); err != nil {
		return b, err
	}
	if b.KV, err = a.kvStore(); err != nil {
		return b, err
	}
	if b.AI, err = a.aiProvider(ctx); err != nil {
		return b, err
	}
	if b.Session, err = a.session(); err != nil {
		return b, err
	}
	return b, nil
}

func (a *application) blobStore() (platform.BlobStore, error) {
	root := strings.TrimSpace(a.cfg.Storage.Root)
	if root == "" {
		a.logger.Info("keeping blobs in memory")
		return infrastructure.NewMemoryBlobStore(a.logger), nil
	}
	return infrastructure.NewDiskBlobStore(root, a.logger)
}

func (a *application) kvStore() (platform.KVStore, error) {
	kv := a.cfg.KV
	switch kv.Backend {
	case "redis":
		store := infrastructure.NewRedisKV(infrastructure.RedisConfig{
			Addr:     kv.Redis.Addr,
			Password: kv.Redis.Password,
			DB:       kv.Redis.DB,
			Prefix:   kv.Prefix,
		})
		a.closers = append(a.closers, store.Close)
		return store, nil
	case "mysql":
		db, err := infrastructure.NewMySQLConnection(kv.MySQL.DSN)
		if err != nil {
			return nil, err
		}
		if sqlDB, err := db.DB(); err == nil {
			a.closers = append(a.closers, sqlDB.Close)
		}
		return infrastructure.NewSQLKV(db, kv.Prefix)
	default:
		return infrastructure.NewMemoryKV(), nil
	}
}

func (a *application) aiProvider(ctx context.Context) (platform.AIProvider, error) {
	ai := a.cfg.AI
	retry := infrastructure.RetryPolicy{MaxRetries: ai.MaxRetries}

	switch ai.Provider {
	case "openai":
		key, err := config.LoadSecret(config.Secret{Name: "openai api key", Value: ai.OpenAI.APIKey, File: ai.OpenAI.APIKeyFile})
		if err != nil {
			return nil, err
		}
		return infrastructure.NewOpenAIProvider(infrastructure.OpenAIConfig{
			APIKey:       key,
			BaseURL:      ai.OpenAI.BaseURL,
			Model:        ai.OpenAI.Model,
			MaxLogLength: ai.MaxLogLength,
			Retry:        retry,
		}, a.logger)
	default:
		key, err := config.LoadSecret(config.Secret{Name: "gemini api key", Value: ai.Gemini.APIKey, File: ai.Gemini.APIKeyFile})
		if err != nil {
			return nil, err
		}
		return infrastructure.NewGeminiProvider(ctx, infrastructure.GeminiConfig{
			APIKey:       key,
			Model:        ai.Gemini.Model,
			MaxLogLength: ai.MaxLogLength,
			Retry:        retry,
		}, a.logger)
	}
}

func (a *application) session() (platform.SessionProvider, error) {
	s := a.cfg.Session

	secret := strings.TrimSpace(s.Secret)
	if secret == "" {
		secret = utils.NewID()
		a.logger.Warn("session.secret is not set, sessions will not survive a restart")
	}

	var token string
	if strings.TrimSpace(s.Token) != "" || strings.TrimSpace(s.TokenFile) != "" {
		var err error
		token, err = config.LoadSecret(config.Secret{Name: "session token", Value: s.Token, File: s.TokenFile})
		if err != nil {
			return nil, err
		}
	}

	return infrastructure.NewJWTSession(infrastructure.SessionConfig{
		Secret: secret,
		Issuer: s.Issuer,
		Token:  token,
	}), nil
}

// eventPublisher returns the configured publisher or a nil interface.
func (a *application) eventPublisher() analysis.EventPublisher {
	if a.events == nil {
		return nil
	}
	return a.events
}

// waitPlatform blocks until bootstrap settles and fails when the platform is
// unusable.
func (a *application) waitPlatform(ctx context.Context) error {
	select {
	case <-a.client.Init(ctx):
		if !a.client.Available() {
			return fmt.Errorf("platform %s: %s", a.client.State(), a.client.Err())
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *application) close() {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("closing resources", zap.Error(err))
	}
}
