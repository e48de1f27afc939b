package bootstrap

import (
	"context"
	"time"

	"agent_server/adapter/out/llm"
	"agent_server/adapter/out/mongodb"
	"agent_server/config"
	"agent_server/core/agent"
	"agent_server/core/catalog"
	"agent_server/core/service/order"
	"agent_server/core/service/triage"
	"agent_server/pkg/logger"

	"go.mongodb.org/mongo-driver/mongo"
)

// Dependencies holds every wired component of the service.
type Dependencies struct {
	Config  *config.Config
	MongoDB *mongo.Client

	// Repositories
	CatalogRepo *mongodb.CatalogAdapter
	PromptRepo  *mongodb.PromptAdapter

	// Collaborators
	LLM *llm.Client

	// Catalog
	Index *catalog.Index

	// Services
	Classifier  *triage.Classifier
	Verifier    *triage.Verifier
	Extractor   *triage.Extractor
	Responder   *triage.Responder
	Resolver    *order.Resolver
	Allocator   *order.Allocator
	Recommender *order.Recommender

	Orchestrator *agent.Orchestrator
}

// NewDependencies wires the full dependency graph. Startup fails hard when
// the prompt store or catalog is empty: a pipeline without prompts or
// products cannot degrade, only misbehave.
func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	client, err := mongodb.NewClient(cfg.MongoDBURL)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			logger.WithError(err).Warn("Failed to disconnect MongoDB")
		}
	}

	db := client.Database(cfg.MongoDBName)
	catalogRepo := mongodb.NewCatalogAdapter(db, cfg.CatalogCollection)
	promptRepo := mongodb.NewPromptAdapter(db, cfg.PromptCollection)

	startupCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := catalogRepo.EnsureIndexes(startupCtx); err != nil {
		logger.WithError(err).Warn("Failed to ensure catalog indexes")
	}
	if err := promptRepo.Preload(startupCtx); err != nil {
		cleanup()
		return nil, nil, err
	}

	llmClient := llm.NewClient(llm.ClientConfig{
		APIKey:         cfg.OpenAIAPIKey,
		Model:          cfg.LLMModel,
		EmbeddingModel: cfg.LLMEmbeddingModel,
		MaxTokens:      cfg.LLMMaxTokens,
		Temperature:    cfg.LLMTemperature,
		Timeout:        time.Duration(cfg.LLMTimeoutSec) * time.Second,
	})

	index := catalog.NewIndex(catalogRepo, llmClient)
	if err := index.Load(startupCtx); err != nil {
		cleanup()
		return nil, nil, err
	}
	logger.Info("Catalog index loaded: %d products", index.Len())

	if cfg.CatalogRefreshInterval > 0 {
		index.StartRefresher(context.Background(), cfg.CatalogRefreshInterval)
	}

	deps := &Dependencies{
		Config:      cfg,
		MongoDB:     client,
		CatalogRepo: catalogRepo,
		PromptRepo:  promptRepo,
		LLM:         llmClient,
		Index:       index,
		Classifier:  triage.NewClassifier(llmClient, promptRepo),
		Verifier:    triage.NewVerifier(llmClient, promptRepo),
		Extractor:   triage.NewExtractor(llmClient, promptRepo),
		Responder:   triage.NewResponder(llmClient, promptRepo),
		Resolver:    order.NewResolver(index, llmClient),
		Allocator:   order.NewAllocator(index),
		Recommender: order.NewRecommender(index, llmClient, order.RecommenderConfig{
			K:           cfg.RecommendK,
			MaxDistance: cfg.RecommendMaxDistance,
			MinStock:    cfg.RecommendMinStock,
		}),
	}

	deps.Orchestrator = agent.NewOrchestrator(
		deps.Classifier,
		deps.Verifier,
		deps.Extractor,
		deps.Resolver,
		deps.Allocator,
		deps.Recommender,
		deps.Responder,
	)

	return deps, cleanup, nil
}
