package cli

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/knowme/internal/agent"
	"github.com/kailas-cloud/knowme/internal/chat"
	"github.com/kailas-cloud/knowme/internal/config"
	"github.com/kailas-cloud/knowme/internal/db/redis"
	"github.com/kailas-cloud/knowme/internal/domain"
	"github.com/kailas-cloud/knowme/internal/index"
	"github.com/kailas-cloud/knowme/internal/ingest"
	"github.com/kailas-cloud/knowme/internal/logger"
	"github.com/kailas-cloud/knowme/internal/metrics"
	chunkrepo "github.com/kailas-cloud/knowme/internal/repository/chunk"
	"github.com/kailas-cloud/knowme/internal/session"
	openaiT "github.com/kailas-cloud/knowme/internal/transport/openai"
)

// app holds the wired application components shared by the commands.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	embedder *openaiT.Embedder
	site     *chat.Service
	cv       *chat.Service
	agent    *agent.Service
	close    func()
}

// buildApp assembles the full stack. sitePath and cvPath are only needed
// when the corresponding index has not been built yet (or rebuild is set).
func buildApp(ctx context.Context, sitePath, cvPath string, rebuild bool) (*app, error) {
	cfg, err := config.LoadOrDefault(config.GetEnv())
	if err != nil {
		return nil, err
	}

	log, err := logger.New(config.GetEnv(), cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterChatMetrics()

	embedder := openaiT.NewEmbedder(&openaiT.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     log,
	})
	chatModel := openaiT.NewChat(&openaiT.ChatConfig{
		APIKey:         cfg.Chat.APIKey,
		BaseURL:        cfg.Chat.BaseURL,
		Model:          cfg.Chat.Model,
		Temperature:    cfg.Chat.Temperature,
		RequestTimeout: time.Duration(cfg.Chat.RequestTimeout) * time.Second,
		Logger:         log,
	})

	splitter, err := ingest.NewSplitter(cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	var cleanups []func()
	closeAll := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	fail := func(err error) (*app, error) {
		closeAll()
		return nil, err
	}

	builder := index.NewBuilder(embedder, log).WithDimensions(cfg.Embedding.Dimensions)

	siteRepo, err := chunkrepo.Open(cfg.Stores.SiteDir)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, func() { _ = siteRepo.Close() })

	siteRet, err := buildIndex(ctx, builder, siteRepo, rebuild, func() ([]domain.Chunk, error) {
		if sitePath == "" {
			return nil, fmt.Errorf("%w: site index at %s is empty and no site path given, run \"knowme ingest\"",
				domain.ErrIngest, cfg.Stores.SiteDir)
		}
		return ingest.NewSiteIngestor(sitePath, splitter, log).Ingest()
	})
	if err != nil {
		return fail(err)
	}

	cvRepo, err := chunkrepo.Open(cfg.Stores.CVDir)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, func() { _ = cvRepo.Close() })

	cvRet, err := buildIndex(ctx, builder, cvRepo, rebuild, func() ([]domain.Chunk, error) {
		if cvPath == "" {
			return nil, fmt.Errorf("%w: cv index at %s is empty and no cv path given, run \"knowme ingest\"",
				domain.ErrIngest, cfg.Stores.CVDir)
		}
		return ingest.NewCVIngestor(cvPath, splitter, log).Ingest()
	})
	if err != nil {
		return fail(err)
	}

	sessions, sessionClose, err := buildSessions(ctx, cfg.Sessions)
	if err != nil {
		return fail(err)
	}
	if sessionClose != nil {
		cleanups = append(cleanups, sessionClose)
	}

	// Each component keeps its own history scope for the same session ID.
	siteChat := chat.NewService("website", siteRet, chatModel, session.WithNamespace("site", sessions),
		cfg.Retrieval.TopK, log)
	cvChat := chat.NewService("cv", cvRet, chatModel, session.WithNamespace("cv", sessions),
		cfg.Retrieval.TopK, log)
	router := agent.NewService(chatModel, siteChat, cvChat, session.WithNamespace("agent", sessions), log).
		WithMaxIterations(cfg.Agent.MaxToolIterations)

	return &app{
		cfg:      cfg,
		logger:   log,
		embedder: embedder,
		site:     siteChat,
		cv:       cvChat,
		agent:    router,
		close:    closeAll,
	}, nil
}

// buildIndex loads a populated index or ingests and builds a fresh one.
func buildIndex(
	ctx context.Context,
	builder *index.Builder,
	repo *chunkrepo.Repo,
	rebuild bool,
	loadChunks func() ([]domain.Chunk, error),
) (*index.Retriever, error) {
	count, err := repo.Count(ctx)
	if err != nil {
		return nil, err
	}

	var chunks []domain.Chunk
	if count == 0 || rebuild {
		if chunks, err = loadChunks(); err != nil {
			return nil, err
		}
	}

	if rebuild {
		return builder.Rebuild(ctx, repo, chunks)
	}
	return builder.BuildOrLoad(ctx, repo, chunks)
}

// sessionReadyTimeout bounds the wait for Redis before the first answer.
const sessionReadyTimeout = 10 * time.Second

// buildSessions creates the configured session store and its cleanup.
func buildSessions(ctx context.Context, cfg config.SessionsConfig) (session.Store, func(), error) {
	idleTTL := time.Duration(cfg.IdleTTLSec) * time.Second

	switch cfg.Driver {
	case "redis":
		store, err := redis.NewStore(redis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect session store: %w", err)
		}
		if err := store.WaitForReady(ctx, sessionReadyTimeout); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("session store not ready: %w", err)
		}
		rs := session.NewRedis(store)
		if idleTTL > 0 {
			rs.WithIdleTTL(idleTTL)
		}
		return rs, store.Close, nil
	default:
		ms := session.NewMemory(cfg.MaxSessions)
		if idleTTL > 0 {
			ms.WithIdleTTL(idleTTL)
		}
		return ms, nil, nil
	}
}
