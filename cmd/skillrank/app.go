package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/skillrank/internal/config"
	"github.com/kailas-cloud/skillrank/internal/db"
	dbValkey "github.com/kailas-cloud/skillrank/internal/db/valkey"
	"github.com/kailas-cloud/skillrank/internal/domain"
	"github.com/kailas-cloud/skillrank/internal/domain/ontology"
	logpkg "github.com/kailas-cloud/skillrank/internal/logger"
	"github.com/kailas-cloud/skillrank/internal/metrics"
	analyticsrepo "github.com/kailas-cloud/skillrank/internal/repository/analytics"
	candidaterepo "github.com/kailas-cloud/skillrank/internal/repository/candidate"
	correctionsrepo "github.com/kailas-cloud/skillrank/internal/repository/corrections"
	"github.com/kailas-cloud/skillrank/internal/repository/embcache"
	resumerepo "github.com/kailas-cloud/skillrank/internal/repository/resume"
	geminiTransport "github.com/kailas-cloud/skillrank/internal/transport/gemini"
	openaiTransport "github.com/kailas-cloud/skillrank/internal/transport/openai"
	"github.com/kailas-cloud/skillrank/internal/usecase/correction"
	embeddinguc "github.com/kailas-cloud/skillrank/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/skillrank/internal/usecase/health"
	"github.com/kailas-cloud/skillrank/internal/usecase/parser"
	"github.com/kailas-cloud/skillrank/internal/usecase/scoring"
	searchuc "github.com/kailas-cloud/skillrank/internal/usecase/search"
)

const embeddingProvider = "openai"

// app is the composition root shared by every command.
type app struct {
	env    string
	cfg    config.Config
	logger *zap.Logger

	store      db.Store
	resumes    *resumerepo.Repo
	candidates *candidaterepo.Repo

	// queryEmbedder prepends the query instruction; docEmbedder embeds profile text as is.
	queryEmbedder domain.Embedder
	docEmbedder   domain.Embedder

	corrector *correction.Corrector
	search    *searchuc.Service
	health    *healthuc.Service
}

// newApp loads config, connects to Valkey and Postgres and wires the services.
func newApp(ctx context.Context, env string) (*app, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	a := &app{env: env, cfg: cfg, logger: logger}
	if err := a.connect(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.wire(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) connect(ctx context.Context) error {
	store, err := dbValkey.NewStore(dbValkey.Config{
		Addrs:    a.cfg.Database.Addrs,
		Username: a.cfg.Database.Username,
		Password: a.cfg.Database.Password,
	})
	if err != nil {
		return fmt.Errorf("create valkey store: %w", err)
	}
	a.store = store

	if err := store.WaitForReady(ctx, time.Duration(a.cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("valkey not ready: %w", err)
	}
	a.logger.Info("Connected to valkey", zap.Strings("addrs", a.cfg.Database.Addrs))

	resumes, err := resumerepo.Open(ctx, resumerepo.Config{
		URL:      a.cfg.Postgres.URL,
		MaxConns: a.cfg.Postgres.MaxConns,
		View:     a.cfg.Postgres.View,
	})
	if err != nil {
		return fmt.Errorf("open resume store: %w", err)
	}
	a.resumes = resumes
	a.logger.Info("Connected to postgres", zap.String("view", a.cfg.Postgres.View))
	return nil
}

func (a *app) wire(ctx context.Context) error {
	metrics.RegisterHTTPMetrics()
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	ont, err := loadOntology(a.cfg.Ontology)
	if err != nil {
		return err
	}

	mode, err := scoring.ParseMode(a.cfg.Scoring.TierMode)
	if err != nil {
		return fmt.Errorf("scoring: %w", err)
	}

	a.candidates = candidaterepo.New(a.store, candidaterepo.IndexConfig{
		Dimensions:  a.cfg.Embedding.Dimensions,
		M:           a.cfg.Database.HNSWM,
		EFConstruct: a.cfg.Database.HNSWEFConstruct,
	})

	a.docEmbedder = buildEmbedder(a.cfg.Embedding, a.store, a.logger)
	a.queryEmbedder = domain.WithInstruction(a.docEmbedder, a.cfg.Embedding.QueryInstruction)

	corrector, err := buildCorrector(ctx, a.cfg.Correction, ont, a.store)
	if err != nil {
		return err
	}
	a.corrector = corrector

	a.search = searchuc.New(searchuc.Deps{
		Ontology:  ont,
		Corrector: corrector,
		Parser:    parser.New(ont),
		Scorer:    scoring.New(mode, ont),
		Store:     a.resumes,
		Embedder:  a.queryEmbedder,
		Vectors:   a.candidates,
		Enricher:  analyticsrepo.New(a.store),
	}, searchConfig(a.cfg.Search))

	a.health = healthuc.New(
		healthuc.Ping(healthuc.ComponentValkey, a.store),
		healthuc.Ping(healthuc.ComponentPostgres, a.resumes),
		embeddingProbe(a.docEmbedder),
	)

	a.logger.Info("Services wired",
		zap.String("tier_mode", a.cfg.Scoring.TierMode),
		zap.String("ai_corrector", a.cfg.Correction.AIProvider),
		zap.String("embedding_model", a.cfg.Embedding.Model),
		zap.Int("dimensions", a.cfg.Embedding.Dimensions),
	)
	return nil
}

// Close releases connections in reverse order of creation.
func (a *app) Close() {
	if a.resumes != nil {
		a.resumes.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
	_ = a.logger.Sync()
}

func loadOntology(cfg config.OntologyConfig) (*ontology.Ontology, error) {
	if cfg.Path == "" {
		return ontology.Default(), nil
	}
	ont, err := ontology.LoadFile(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("load ontology %s: %w", cfg.Path, err)
	}
	return ont, nil
}

func searchConfig(c config.SearchConfig) searchuc.Config {
	ms := func(v int) time.Duration { return time.Duration(v) * time.Millisecond }
	return searchuc.Config{
		DefaultLimit:      c.DefaultLimit,
		MaxLimit:          c.MaxLimit,
		StoreTimeout:      ms(c.StoreTimeoutMs),
		EmbedTimeout:      ms(c.EmbedTimeoutMs),
		VectorTimeout:     ms(c.VectorTimeoutMs),
		EnrichTimeout:     ms(c.EnrichTimeoutMs),
		EnrichTopN:        c.EnrichTopN,
		KeywordOnlyWeight: c.KeywordOnlyWeight,
	}
}

// buildEmbedder assembles the chain: OpenAI, then the valkey cache, then the dimension check.
func buildEmbedder(cfg config.EmbeddingConfig, store db.Store, logger *zap.Logger) domain.Embedder {
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   embeddingProvider,
	})

	var embedder domain.Embedder = base
	if store != nil {
		embedder = embcache.New(base, store, embcache.Config{
			Model:   cfg.Model,
			TTL:     time.Duration(cfg.CacheTTLHours) * time.Hour,
			Lookups: metrics.EmbeddingCacheTotal,
			Logger:  logger,
		})
	}

	return embeddinguc.NewChecked(embedder, cfg.Dimensions, embeddingProvider, cfg.Model)
}

// buildCorrector wires the rule pass, the optional AI strategy and the learned-corrections store.
func buildCorrector(
	ctx context.Context, cfg config.CorrectionConfig, ont *ontology.Ontology, store db.Store,
) (*correction.Corrector, error) {
	opts := []correction.Option{correction.WithThreshold(cfg.Threshold)}

	strategy, err := buildAIStrategy(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if strategy != nil {
		opts = append(opts, correction.WithAI(strategy, cfg.Timeout()))
	}
	if cfg.LearnedStore && store != nil {
		opts = append(opts, correction.WithLearnedStore(correctionsrepo.New(store)))
	}
	return correction.New(ont, opts...), nil
}

// buildAIStrategy returns nil when AI correction is disabled.
func buildAIStrategy(ctx context.Context, cfg config.CorrectionConfig) (correction.Strategy, error) {
	switch cfg.AIProvider {
	case config.AIProviderOpenAI:
		return openaiTransport.NewCorrector(&openaiTransport.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		}), nil
	case config.AIProviderGemini:
		c, err := geminiTransport.NewCorrector(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, fmt.Errorf("gemini corrector: %w", err)
		}
		return c, nil
	}
	return nil, nil
}

// embeddingProbe checks the provider at the root of the embedder chain.
func embeddingProbe(e domain.Embedder) healthuc.Probe {
	return healthuc.Probe{
		Name: healthuc.ComponentEmbedding,
		Check: func(ctx context.Context) error {
			if err := domain.CheckEmbedder(ctx, e); err != nil {
				return fmt.Errorf("embedding health check: %w", err)
			}
			return nil
		},
	}
}
