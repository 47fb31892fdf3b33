package ingestion_engine

import (
	"context"
	"fmt"
	"maps"

	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/papernotes/internal/core"
	"github.com/markdave123-py/papernotes/internal/models"
)

// AddSegments embeds segments in batches and stores one record per segment,
// tagged with url so searches can be scoped to the paper.
func (i *Indexer) AddSegments(ctx context.Context, url string, segments []models.Segment) error {
	if len(segments) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	items := make(chan item, i.cfg.BatchSize)

	g.Go(func() error {
		defer close(items)
		for pos, s := range segments {
			select {
			case items <- item{Pos: pos, Segment: s}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	g.Go(func() error {
		return i.embedAndPersist(gctx, url, items)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	i.log.Debug("indexed %d segments for %s", len(segments), url)
	return nil
}

// embedAndPersist consumes items, embeds them in batches and writes each batch.
func (i *Indexer) embedAndPersist(ctx context.Context, url string, in <-chan item) error {
	batch := make([]item, 0, i.cfg.BatchSize)

	flush := func(items []item) error {
		if len(items) == 0 {
			return nil
		}

		texts := make([]string, len(items))
		for k := range items {
			texts[k] = items[k].Segment.Text
		}

		vecs, err := i.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed: %w", err)
		}
		if len(vecs) != len(items) {
			return core.UpstreamError("embed", fmt.Errorf("embed size mismatch: got %d want %d", len(vecs), len(items)))
		}

		rows := make([]models.EmbeddingRecord, len(items))
		for k, it := range items {
			rows[k] = models.EmbeddingRecord{
				Content:   it.Segment.Text,
				Embedding: vecs[k],
				Metadata:  recordMetadata(url, it),
			}
		}
		if err := i.store.InsertEmbeddings(ctx, rows); err != nil {
			return fmt.Errorf("insert embeddings: %w", err)
		}
		return nil
	}

	for it := range in {
		batch = append(batch, it)
		if len(batch) == i.cfg.BatchSize {
			if err := flush(batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	return flush(batch)
}

func recordMetadata(url string, it item) map[string]any {
	meta := make(map[string]any, len(it.Segment.Metadata)+3)
	maps.Copy(meta, it.Segment.Metadata)
	meta["url"] = url
	meta["pageNumber"] = it.Segment.PageNumber
	meta["position"] = it.Pos
	return meta
}

// SimilaritySearch returns the k segments of url closest to query.
func (i *Indexer) SimilaritySearch(ctx context.Context, query, url string, k int) ([]models.Segment, error) {
	vecs, err := i.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, core.UpstreamError("embed query", fmt.Errorf("embed size mismatch: got %d want 1", len(vecs)))
	}

	records, err := i.store.SearchEmbeddings(ctx, url, vecs[0], k)
	if err != nil {
		return nil, fmt.Errorf("search embeddings: %w", err)
	}

	out := make([]models.Segment, 0, len(records))
	for _, r := range records {
		out = append(out, models.Segment{
			Text:       r.Content,
			PageNumber: pageFromMetadata(r.Metadata),
			Metadata:   r.Metadata,
		})
	}
	return out, nil
}

func pageFromMetadata(meta map[string]any) int {
	if v, ok := meta["pageNumber"].(float64); ok {
		return int(v)
	}
	if v, ok := meta["pageNumber"].(int); ok {
		return v
	}
	return 0
}
