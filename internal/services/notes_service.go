package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/papernotes/internal/core"
	"github.com/markdave123-py/papernotes/internal/core/llm"
	"github.com/markdave123-py/papernotes/internal/core/pdfdoc"
	"github.com/markdave123-py/papernotes/internal/logger"
	"github.com/markdave123-py/papernotes/internal/models"
)

// TakeNotesInput is one ingestion request. PagesToDelete is treated as a
// set of 1-based page numbers in the fetched document.
type TakeNotesInput struct {
	PdfURL        string
	Name          string
	PagesToDelete []int
}

type NotesService struct {
	fetcher   core.PDFFetcher
	extractor core.DocumentExtractor
	notes     core.NoteSynthesizer
	papers    core.PaperStore
	index     core.VectorIndex
	archive   core.PaperArchive // optional
	log       logger.Logger
}

func NewNotesService(
	fetcher core.PDFFetcher,
	extractor core.DocumentExtractor,
	notes core.NoteSynthesizer,
	papers core.PaperStore,
	index core.VectorIndex,
	archive core.PaperArchive,
	log logger.Logger,
) *NotesService {
	return &NotesService{
		fetcher: fetcher, extractor: extractor, notes: notes,
		papers: papers, index: index, archive: archive, log: log,
	}
}

// TakeNotes fetches the PDF, removes the requested pages, extracts text,
// synthesizes notes and stores the paper and its embeddings side by side.
// The two writes are not atomic: if one fails the other may still land.
func (s *NotesService) TakeNotes(ctx context.Context, in TakeNotesInput) ([]models.Note, error) {
	s.log.Info("take_notes %s: validating", in.PdfURL)
	if strings.TrimSpace(in.Name) == "" {
		return nil, core.InputError("take notes", errors.New("name is required"))
	}
	if err := pdfdoc.ValidateURL(in.PdfURL); err != nil {
		return nil, err
	}

	s.log.Info("take_notes %s: fetching", in.PdfURL)
	pdf, err := s.fetch(ctx, in.PdfURL)
	if err != nil {
		return nil, err
	}

	if pages := pdfdoc.NormalizePages(in.PagesToDelete); len(pages) > 0 {
		s.log.Info("take_notes %s: editing (removing pages %v)", in.PdfURL, pages)
		if pdf, err = pdfdoc.RemovePages(pdf, pages); err != nil {
			return nil, err
		}
	}

	s.log.Info("take_notes %s: extracting", in.PdfURL)
	segments, err := s.extractor.Extract(ctx, pdf)
	if err != nil {
		return nil, classify("extract", err)
	}

	s.log.Info("take_notes %s: synthesizing notes from %d segments", in.PdfURL, len(segments))
	notes, err := s.notes.SynthesizeNotes(ctx, segments)
	if err != nil {
		return nil, classify("synthesize notes", err)
	}

	s.log.Info("take_notes %s: persisting", in.PdfURL)
	paper := &models.Paper{
		Name:      in.Name,
		PdfURL:    in.PdfURL,
		PaperText: llm.FormatSegments(segments),
		Notes:     notes,
	}

	// Siblings are not cancelled on failure; every write runs to completion.
	var g errgroup.Group
	g.Go(func() error {
		if err := s.papers.InsertPaper(ctx, paper); err != nil {
			return classify("insert paper", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := s.index.AddSegments(ctx, in.PdfURL, segments); err != nil {
			return classify("index segments", err)
		}
		return nil
	})
	if s.archive != nil {
		g.Go(func() error {
			loc, err := s.archive.Archive(ctx, in.PdfURL, pdf)
			if err != nil {
				s.log.Warn("take_notes %s: archive failed: %v", in.PdfURL, err)
				return nil
			}
			s.log.Debug("take_notes %s: archived at %s", in.PdfURL, loc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Error("take_notes %s: persisting failed: %v", in.PdfURL, err)
		return nil, err
	}

	s.log.Info("take_notes %s: done (%d notes)", in.PdfURL, len(notes))
	return notes, nil
}

// fetch downloads the PDF, falling back to the archived copy when the
// origin is unreachable and an archive is configured.
func (s *NotesService) fetch(ctx context.Context, url string) ([]byte, error) {
	pdf, err := s.fetcher.Fetch(ctx, url)
	if err == nil {
		return pdf, nil
	}
	if s.archive == nil || core.KindOf(err) != core.KindUpstream {
		return nil, classify("fetch pdf", err)
	}

	archived, archErr := s.archive.Fetch(ctx, url)
	if archErr != nil || len(archived) == 0 {
		return nil, classify("fetch pdf", err)
	}
	s.log.Warn("take_notes %s: origin failed (%v), using archived copy", url, err)
	return archived, nil
}

// classify leaves classified errors alone and marks the rest as upstream failures.
func classify(op string, err error) error {
	if err == nil || core.IsClassified(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return core.UpstreamError(op, err)
}
