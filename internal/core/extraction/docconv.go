package extraction

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"code.sajari.com/docconv"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/papernotes/internal/core"
	"github.com/markdave123-py/papernotes/internal/core/pdfdoc"
	"github.com/markdave123-py/papernotes/internal/logger"
	"github.com/markdave123-py/papernotes/internal/models"
)

// DocconvConfig tunes local extraction.
//
// TargetTokens:  approximate tokens per segment.
// OverlapTokens: tokens carried from the end of one segment into the next on the same page.
type DocconvConfig struct {
	TargetTokens   int
	OverlapTokens  int
	UseReadability bool
}

// DocconvExtractor extracts text locally: the PDF is split into single
// pages with pdfcpu and each page is converted with docconv (pdftotext).
type DocconvExtractor struct {
	cfg DocconvConfig
	log logger.Logger
}

var _ core.DocumentExtractor = (*DocconvExtractor)(nil)

func NewDocconvExtractor(cfg DocconvConfig, log logger.Logger) *DocconvExtractor {
	if cfg.TargetTokens <= 0 {
		cfg.TargetTokens = 250
	}
	return &DocconvExtractor{cfg: cfg, log: log}
}

func (e *DocconvExtractor) Extract(ctx context.Context, pdf []byte) ([]models.Segment, error) {
	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(pdf), pdfdoc.PDFCPUConfig())
	if err != nil {
		return nil, core.InputError("extract", fmt.Errorf("%w: %v", core.ErrNotPDF, err))
	}

	g, gctx := errgroup.WithContext(ctx)
	frags := make(chan fragment, 32)

	g.Go(func() error {
		defer close(frags)
		for pageNum := 1; pageNum <= pdfCtx.PageCount; pageNum++ {
			text, err := convertPage(pdfCtx, pageNum, e.cfg.UseReadability)
			if err != nil {
				return core.UpstreamError("docconv", fmt.Errorf("page %d: %w", pageNum, err))
			}
			for _, line := range strings.Split(text, "\n") {
				if line = strings.TrimSpace(line); line == "" {
					continue
				}
				select {
				case frags <- fragment{Page: pageNum, Text: line}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
		}
		return nil
	})

	chunks := streamChunk(gctx, g, frags, e.cfg.TargetTokens, e.cfg.OverlapTokens)

	var segments []models.Segment
	g.Go(func() error {
		for ch := range chunks {
			segments = append(segments, models.Segment{
				Text:       ch.Text,
				PageNumber: ch.Page,
				Metadata: map[string]any{
					"page_number": ch.Page,
					"position":    ch.Pos,
					"token_count": ch.TokenCnt,
				},
			})
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	e.log.Debug("docconv produced %d segments from %d pages", len(segments), pdfCtx.PageCount)
	return segments, nil
}

func convertPage(pdfCtx *model.Context, pageNum int, readability bool) (string, error) {
	r, err := api.ExtractPage(pdfCtx, pageNum)
	if err != nil {
		return "", err
	}
	page, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	res, err := docconv.Convert(bytes.NewReader(page), "application/pdf", readability)
	if err != nil {
		return "", err
	}
	return res.Body, nil
}
