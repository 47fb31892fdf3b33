package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/markdave123-py/papernotes/internal/config"
	"github.com/markdave123-py/papernotes/internal/core"
	db "github.com/markdave123-py/papernotes/internal/core/database"
	"github.com/markdave123-py/papernotes/internal/core/extraction"
	"github.com/markdave123-py/papernotes/internal/core/ingestion_engine"
	"github.com/markdave123-py/papernotes/internal/core/llm"
	objectclient "github.com/markdave123-py/papernotes/internal/core/object-client"
	"github.com/markdave123-py/papernotes/internal/core/pdfdoc"
	"github.com/markdave123-py/papernotes/internal/logger"
	"github.com/markdave123-py/papernotes/internal/services"
)

const (
	geminiChatModel  = "gemini-1.5-flash"
	geminiEmbedModel = "text-embedding-004"
)

type App struct {
	Log      logger.Logger
	DBClient core.DbClient
	Server   *Server

	closers []io.Closer
}

// providers bundles the model-backed collaborators for one LLM provider.
type providers struct {
	embedder core.EmbeddingProvider
	notes    core.NoteSynthesizer
	answerer core.QuestionAnswerer
	closers  []io.Closer
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	log, err := logger.New(logger.LogConfig{Output: cfg.LogOutput, Level: cfg.LogLevel})
	if err != nil {
		return nil, core.ConfigError("logger", err)
	}

	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Info("database initialized and ready")

	a := &App{Log: log, DBClient: dbClient}

	prov, err := newProviders(appCtx, cfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, prov.closers...)
	log.Info("llm provider %s ready (chat=%s embed=%s)", cfg.LLMProvider, cfg.ChatModel, cfg.EmbedModel)

	extractor, err := newExtractor(cfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	log.Info("extractor %s ready", cfg.Extractor)

	var archive core.PaperArchive
	if cfg.ArchiveEnabled() {
		s3Client, err := objectclient.NewS3Client(appCtx, cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		archive = objectclient.NewArchiver(s3Client, cfg.ArchiveBucket)
		log.Info("archiving PDFs to s3://%s", cfg.ArchiveBucket)
	}

	index := ingestion_engine.NewIndexer(dbClient, prov.embedder, ingestion_engine.IngestConfig{
		BatchSize: cfg.EmbedBatchSize,
	}, log)

	notesSvc := services.NewNotesService(
		pdfdoc.NewFetcher(cfg.FetchTimeout, cfg.MaxPDFBytes),
		extractor, prov.notes, dbClient, index, archive, log,
	)
	qaSvc := services.NewQAService(index, dbClient, prov.answerer, dbClient, cfg.QATopK, log)
	paperSvc := services.NewPaperService(dbClient)

	a.Server = NewServer(cfg, log, notesSvc, qaSvc, paperSvc)
	return a, nil
}

func newProviders(ctx context.Context, cfg *config.Config, log logger.Logger) (*providers, error) {
	limiter := llm.NewLimiter(cfg.LLMRequestsPerSecond)

	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		embedder, err := llm.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.EmbedModel, cfg.EmbedDim, limiter)
		if err != nil {
			return nil, fmt.Errorf("couldn't initialize the embedder: %w", err)
		}
		client, err := llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.ChatModel, limiter, log)
		if err != nil {
			return nil, fmt.Errorf("couldn't initialize the llm: %w", err)
		}
		return &providers{embedder: embedder, notes: client, answerer: client}, nil

	case config.ProviderGemini:
		chatModel, embedModel := cfg.ChatModel, cfg.EmbedModel
		if chatModel == config.Defaults().ChatModel {
			chatModel = geminiChatModel
		}
		if embedModel == config.Defaults().EmbedModel {
			embedModel = geminiEmbedModel
		}
		embedder, err := llm.NewGeminiEmbedder(ctx, cfg.GeminiAPIKey, embedModel, limiter)
		if err != nil {
			return nil, fmt.Errorf("couldn't initialize the embedder: %w", err)
		}
		gen, err := llm.NewGeminiLLM(ctx, cfg.GeminiAPIKey, chatModel, limiter, log)
		if err != nil {
			_ = embedder.Close()
			return nil, fmt.Errorf("couldn't initialize the llm: %w", err)
		}
		return &providers{embedder: embedder, notes: gen, answerer: gen, closers: []io.Closer{embedder, gen}}, nil

	default:
		return nil, core.ConfigError("llm", fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider))
	}
}

func newExtractor(cfg *config.Config, log logger.Logger) (core.DocumentExtractor, error) {
	switch cfg.Extractor {
	case config.ExtractorUnstructured:
		ex, err := extraction.NewUnstructuredExtractor(extraction.UnstructuredConfig{
			APIKey:     cfg.UnstructuredAPIKey,
			URL:        cfg.UnstructuredURL,
			Strategy:   cfg.UnstructuredStrategy,
			StagingDir: cfg.StagingDir,
		}, log)
		if err != nil {
			return nil, err
		}
		return ex, nil
	case config.ExtractorDocconv:
		return extraction.NewDocconvExtractor(extraction.DocconvConfig{
			TargetTokens:  cfg.ChunkTargetTokens,
			OverlapTokens: cfg.ChunkOverlapTokens,
		}, log), nil
	default:
		return nil, core.ConfigError("extractor", fmt.Errorf("unknown EXTRACTOR %q", cfg.Extractor))
	}
}

func (a *App) Close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
