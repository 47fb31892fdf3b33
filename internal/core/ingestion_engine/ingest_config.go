package ingestion_engine

import (
	"github.com/markdave123-py/papernotes/internal/core"
	"github.com/markdave123-py/papernotes/internal/logger"
	"github.com/markdave123-py/papernotes/internal/models"
)

// IngestConfig tunes indexing.
//
// BatchSize: how many segments to embed and write in one batch.
type IngestConfig struct {
	BatchSize int
}

// Indexer embeds paper segments into the embeddings table and serves
// similarity search over them. It implements core.VectorIndex.
//
// store:    row-level embedding persistence.
// embedder: embedding provider (OpenAI/Gemini).
type Indexer struct {
	store    core.EmbeddingStore
	embedder core.EmbeddingProvider
	cfg      IngestConfig
	log      logger.Logger
}

var _ core.VectorIndex = (*Indexer)(nil)

func NewIndexer(store core.EmbeddingStore, emb core.EmbeddingProvider, cfg IngestConfig, log logger.Logger) *Indexer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 16
	}
	return &Indexer{store: store, embedder: emb, cfg: cfg, log: log}
}

// item is one segment travelling through the indexing pipeline.
type item struct {
	Pos     int
	Segment models.Segment
}
