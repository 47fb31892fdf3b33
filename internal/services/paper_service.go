package services

import (
	"context"

	"github.com/markdave123-py/papernotes/internal/core"
	"github.com/markdave123-py/papernotes/internal/models"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type PaperService struct {
	papers core.PaperStore
}

func NewPaperService(papers core.PaperStore) *PaperService {
	return &PaperService{papers: papers}
}

// ListPapers returns the newest papers; limit is clamped to 1..100 with 20 as default.
func (s *PaperService) ListPapers(ctx context.Context, limit int) ([]models.PaperSummary, error) {
	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}
	out, err := s.papers.ListPapers(ctx, limit)
	if err != nil {
		return nil, classify("list papers", err)
	}
	return out, nil
}
