package core

import (
	"context"

	"github.com/markdave123-py/papernotes/internal/models"
)

// DocumentExtractor turns PDF bytes into ordered text segments.
type DocumentExtractor interface {
	Extract(ctx context.Context, pdf []byte) ([]models.Segment, error)
}

// PDFFetcher downloads the document behind a URL.
type PDFFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}
