package ingestion_engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/markdave123-py/papernotes/internal/core"
	"github.com/markdave123-py/papernotes/internal/logger"
	"github.com/markdave123-py/papernotes/internal/models"
)

type fakeEmbedder struct {
	mu      sync.Mutex
	batches [][]string
	short   bool
	err     error
}

func (f *fakeEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.batches = append(f.batches, texts)
	n := len(texts)
	if f.short {
		n--
	}
	out := make([][]float32, n)
	for i := range out {
		out[i] = []float32{float32(len(texts[i])), 1}
	}
	return out, nil
}

type fakeStore struct {
	mu       sync.Mutex
	inserts  int
	records  []models.EmbeddingRecord
	searchTo string
	searchK  int
}

func (s *fakeStore) InsertEmbeddings(ctx context.Context, recs []models.EmbeddingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserts++
	s.records = append(s.records, recs...)
	return nil
}

func (s *fakeStore) SearchEmbeddings(ctx context.Context, url string, vec []float32, limit int) ([]models.EmbeddingRecord, error) {
	s.searchTo, s.searchK = url, limit
	return []models.EmbeddingRecord{
		{Content: "hit", Metadata: map[string]any{"url": url, "pageNumber": float64(3)}},
	}, nil
}

func segments(n int) []models.Segment {
	out := make([]models.Segment, n)
	for i := range out {
		out[i] = models.Segment{Text: "segment text", PageNumber: i + 1, Metadata: map[string]any{"type": "NarrativeText"}}
	}
	return out
}

func TestAddSegmentsBatches(t *testing.T) {
	emb := &fakeEmbedder{}
	store := &fakeStore{}
	idx := NewIndexer(store, emb, IngestConfig{BatchSize: 4}, logger.NewNoOpLogger())

	url := "https://example.com/p.pdf"
	if err := idx.AddSegments(context.Background(), url, segments(10)); err != nil {
		t.Fatalf("AddSegments: %v", err)
	}

	if len(emb.batches) != 3 || len(emb.batches[2]) != 2 {
		t.Errorf("embed batches = %d (last %d), want 3 batches ending with 2", len(emb.batches), len(emb.batches[len(emb.batches)-1]))
	}
	if len(store.records) != 10 {
		t.Fatalf("stored %d records, want 10", len(store.records))
	}
	for i, r := range store.records {
		if r.Metadata["url"] != url {
			t.Errorf("record %d url = %v", i, r.Metadata["url"])
		}
		if r.Metadata["pageNumber"] != i+1 || r.Metadata["position"] != i {
			t.Errorf("record %d metadata = %v", i, r.Metadata)
		}
		if r.Metadata["type"] != "NarrativeText" {
			t.Errorf("segment metadata not carried over: %v", r.Metadata)
		}
	}
}

func TestAddSegmentsEmbedMismatch(t *testing.T) {
	idx := NewIndexer(&fakeStore{}, &fakeEmbedder{short: true}, IngestConfig{BatchSize: 4}, logger.NewNoOpLogger())
	err := idx.AddSegments(context.Background(), "u", segments(3))
	if core.KindOf(err) != core.KindUpstream {
		t.Fatalf("kind = %v, want upstream (%v)", core.KindOf(err), err)
	}
}

func TestAddSegmentsEmbedError(t *testing.T) {
	boom := errors.New("boom")
	store := &fakeStore{}
	idx := NewIndexer(store, &fakeEmbedder{err: boom}, IngestConfig{}, logger.NewNoOpLogger())
	if err := idx.AddSegments(context.Background(), "u", segments(3)); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if store.inserts != 0 {
		t.Errorf("inserted %d batches after embed failure", store.inserts)
	}
}

func TestSimilaritySearch(t *testing.T) {
	store := &fakeStore{}
	idx := NewIndexer(store, &fakeEmbedder{}, IngestConfig{}, logger.NewNoOpLogger())

	got, err := idx.SimilaritySearch(context.Background(), "what?", "https://example.com/p.pdf", 5)
	if err != nil {
		t.Fatalf("SimilaritySearch: %v", err)
	}
	if store.searchTo != "https://example.com/p.pdf" || store.searchK != 5 {
		t.Errorf("search scoped to %q k=%d", store.searchTo, store.searchK)
	}
	if len(got) != 1 || got[0].PageNumber != 3 {
		t.Errorf("segments = %+v", got)
	}
}
