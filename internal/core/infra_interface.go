package core

import (
	"context"

	"github.com/markdave123-py/papernotes/internal/models"
)

// PaperStore persists papers and their notes.
type PaperStore interface {
	InsertPaper(ctx context.Context, paper *models.Paper) error
	// GetPaper returns nil, nil when no paper matches url.
	GetPaper(ctx context.Context, url string) (*models.Paper, error)
	ListPapers(ctx context.Context, limit int) ([]models.PaperSummary, error)
}

// EmbeddingStore is the row-level access to the embeddings table.
type EmbeddingStore interface {
	InsertEmbeddings(ctx context.Context, records []models.EmbeddingRecord) error
	SearchEmbeddings(ctx context.Context, url string, queryVec []float32, limit int) ([]models.EmbeddingRecord, error)
}

// VectorIndex embeds and indexes segments, and retrieves them by similarity.
type VectorIndex interface {
	AddSegments(ctx context.Context, url string, segments []models.Segment) error
	SimilaritySearch(ctx context.Context, query, url string, k int) ([]models.Segment, error)
}

type QAStore interface {
	InsertQA(ctx context.Context, record *models.QARecord) error
	// ListQA returns earlier answers to exactly this question, newest first.
	ListQA(ctx context.Context, question string) ([]models.QARecord, error)
}

// DbClient is everything the Postgres client provides.
type DbClient interface {
	PaperStore
	EmbeddingStore
	QAStore
	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (url string, err error)
	GetFile(ctx context.Context, bucket, key string) ([]byte, error)
}

// PaperArchive keeps copies of ingested PDFs keyed by their source URL.
type PaperArchive interface {
	Archive(ctx context.Context, pdfURL string, pdf []byte) (location string, err error)
	Fetch(ctx context.Context, pdfURL string) ([]byte, error)
}
