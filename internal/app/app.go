// Package app assembles the resolution engine and its backing stores from
// configuration. Both the worker manager and the probe CLI start from here.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"

	"intent-engine/internal/common/config"
	"intent-engine/internal/common/database"
	"intent-engine/internal/common/logger"
	"intent-engine/internal/engine/classifier"
	"intent-engine/internal/engine/conversation"
	"intent-engine/internal/engine/entities"
	"intent-engine/internal/engine/resolver"
	"intent-engine/internal/engine/scoring"
	"intent-engine/internal/vocabulary"
)

// Components is a wired engine plus the connections and background loops it
// depends on.
type Components struct {
	Engine     *resolver.Engine
	Scorer     *scoring.Scorer
	Store      *conversation.Store
	Vocabulary *vocabulary.Store
	Classifier classifier.Classifier

	DB    *sql.DB
	Redis *redis.Client
	ES    *elasticsearch.Client

	reloader  *scoring.Reloader
	refresher *vocabulary.Refresher
	logger    logger.Logger
}

// Options tunes how Build reaches its dependencies.
type Options struct {
	// ConnectRetries bounds the startup retries per backing store. 1 means a
	// single attempt.
	ConnectRetries int
	RetryDelay     time.Duration
	// Dispatcher runs data intents inside Engine.Handle. Workers leave it nil and
	// dispatch through the process instead.
	Dispatcher resolver.Dispatcher
}

func (o Options) withDefaults() Options {
	if o.ConnectRetries <= 0 {
		o.ConnectRetries = 1
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 2 * time.Second
	}
	return o
}

// Build connects the configured stores and returns a ready engine. Background
// refresh loops are not running until Start is called.
func Build(ctx context.Context, cfg *config.Config, log logger.Logger, opts Options) (*Components, error) {
	opts = opts.withDefaults()
	c := &Components{logger: logger.ForComponent(log, "app")}

	var catalog *scoring.Catalog
	if cfg.Engine.KeywordsFile != "" {
		loaded, err := scoring.LoadCatalog(cfg.Engine.KeywordsFile)
		if err != nil {
			return nil, err
		}
		catalog = loaded
	}
	c.Scorer = scoring.New(catalog)

	if err := c.connect(ctx, cfg, opts); err != nil {
		c.Close()
		return nil, err
	}

	storeOpts := []conversation.Option{conversation.WithStatusField(cfg.Engine.StatusField)}
	if cfg.Engine.PersistContext && c.Redis != nil {
		storeOpts = append(storeOpts, conversation.WithPersister(conversation.NewRedisPersister(c.Redis)))
	}
	c.Store = conversation.NewStore(cfg.Engine.ContextTTLDuration(), cfg.Engine.HistorySize, log, storeOpts...)

	c.Vocabulary = vocabulary.NewStore(nil)
	if loader := c.vocabularyLoader(cfg.Vocabulary); loader != nil {
		c.refresher = vocabulary.NewRefresher(loader, c.Vocabulary, time.Duration(cfg.Vocabulary.RefreshInterval)*time.Second, log)
	}

	cls, err := classifier.New(ctx, cfg.Classifier, log)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Classifier = cls

	engineOpts := []resolver.Option{
		resolver.WithVocabulary(c.Vocabulary),
		resolver.WithStatusField(cfg.Engine.StatusField),
		resolver.WithConfirmationMaxTokens(cfg.Engine.ConfirmationMaxTokens),
	}
	if cls != nil {
		engineOpts = append(engineOpts, resolver.WithClassifier(cls))
	}
	if opts.Dispatcher != nil {
		engineOpts = append(engineOpts, resolver.WithDispatcher(opts.Dispatcher))
	}
	if c.DB != nil {
		repo := scoring.NewPostgresLearnedRepository(c.DB)
		if cfg.Engine.LearningEnabled {
			engineOpts = append(engineOpts, resolver.WithLearning(repo))
		}
		if cfg.Engine.LearnedReloadInterval > 0 {
			c.reloader = scoring.NewReloader(repo, c.Scorer, time.Duration(cfg.Engine.LearnedReloadInterval)*time.Second, log)
		}
	}

	c.Engine = resolver.New(c.Scorer, entities.New(), c.Store, log, engineOpts...)

	c.logger.Info("engine assembled", map[string]interface{}{
		"classifier":     cfg.Classifier.Provider,
		"vocabulary":     cfg.Vocabulary.Source,
		"persistContext": cfg.Engine.PersistContext,
		"learning":       cfg.Engine.LearningEnabled,
		"postgres":       c.DB != nil,
		"redis":          c.Redis != nil,
		"elasticsearch":  c.ES != nil,
	})
	return c, nil
}

func (c *Components) connect(ctx context.Context, cfg *config.Config, opts Options) error {
	needPostgres := cfg.Vocabulary.Source == "postgres" || cfg.Engine.LearnedReloadInterval > 0 || cfg.Engine.LearningEnabled
	if needPostgres && cfg.Database.Postgres.Enabled() {
		db, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		c.DB = db
		err = retryWithBackoff(func() error { return database.PingPostgres(ctx, db) },
			opts.ConnectRetries, opts.RetryDelay, c.logger, "PostgreSQL connection")
		if err != nil {
			return err
		}
	}

	if cfg.Engine.PersistContext && cfg.Database.Redis.Enabled() {
		c.Redis = database.NewRedis(cfg.Database.Redis)
		err := retryWithBackoff(func() error { return database.PingRedis(ctx, c.Redis) },
			opts.ConnectRetries, opts.RetryDelay, c.logger, "Redis connection")
		if err != nil {
			return err
		}
	}

	if cfg.Vocabulary.Source == "elasticsearch" {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		c.ES = es
		err = retryWithBackoff(func() error { return database.PingElasticsearch(ctx, es) },
			opts.ConnectRetries, opts.RetryDelay, c.logger, "Elasticsearch connection")
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Components) vocabularyLoader(cfg config.VocabularyConfig) vocabulary.Loader {
	switch {
	case cfg.Source == "postgres" && c.DB != nil:
		return vocabulary.NewPostgresLoader(c.DB, cfg.BrandsQuery, cfg.BranchesQuery, cfg.BuyersQuery, cfg.MaxTerms)
	case cfg.Source == "elasticsearch" && c.ES != nil:
		return vocabulary.NewElasticsearchLoader(c.ES, cfg.Index, cfg.BrandsField, cfg.BranchesField, cfg.BuyersField, cfg.MaxTerms)
	}
	return nil
}

// Warm performs one synchronous keyword and vocabulary load.
func (c *Components) Warm(ctx context.Context) {
	if c.reloader != nil {
		_ = c.reloader.ReloadOnce(ctx)
	}
	if c.refresher != nil {
		_ = c.refresher.RefreshOnce(ctx)
	}
}

// Start runs the learned keyword reloader and the vocabulary refresher until ctx
// is done. Both load once immediately.
func (c *Components) Start(ctx context.Context) {
	if c.reloader != nil {
		go c.reloader.Run(ctx)
	}
	if c.refresher != nil {
		go c.refresher.Run(ctx)
	}
}

// Ready pings every connected backing store.
func (c *Components) Ready(ctx context.Context) error {
	if c.DB != nil {
		if err := database.PingPostgres(ctx, c.DB); err != nil {
			return err
		}
	}
	if c.Redis != nil {
		if err := database.PingRedis(ctx, c.Redis); err != nil {
			return err
		}
	}
	if c.ES != nil {
		if err := database.PingElasticsearch(ctx, c.ES); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the connections opened by Build.
func (c *Components) Close() error {
	var firstErr error
	if c.DB != nil {
		if err := c.DB.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close postgres: %w", err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close redis: %w", err)
		}
	}
	return firstErr
}
