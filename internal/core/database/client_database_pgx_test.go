package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/papernotes/internal/config"
	"github.com/markdave123-py/papernotes/internal/models"
)

// newTestClient connects to TEST_DATABASE_URL, a Postgres with pgvector available.
func newTestClient(t *testing.T) *DatabaseClient {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	c, err := NewDatabaseClient(ctx, &config.Config{DatabaseURL: dsn})
	if err != nil {
		t.Fatalf("NewDatabaseClient: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewDatabaseClientRequiresURL(t *testing.T) {
	if _, err := NewDatabaseClient(context.Background(), &config.Config{}); err == nil {
		t.Fatal("expected error for empty DATABASE_URL")
	}
}

func TestPaperRoundTripKeepsDuplicates(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	url := "https://example.com/" + uuid.NewString() + ".pdf"

	first := &models.Paper{Name: "v1", PdfURL: url, PaperText: "text", Notes: []models.Note{{Note: "n1", PageNumbers: []int{1}}}}
	second := &models.Paper{Name: "v2", PdfURL: url, PaperText: "text", Notes: []models.Note{{Note: "n2", PageNumbers: []int{2}}},
		CreatedAt: time.Now().Add(time.Second)}
	for _, p := range []*models.Paper{first, second} {
		if err := c.InsertPaper(ctx, p); err != nil {
			t.Fatalf("InsertPaper: %v", err)
		}
	}
	if first.ID == second.ID {
		t.Fatal("duplicate url should create a new row")
	}

	got, err := c.GetPaper(ctx, url)
	if err != nil {
		t.Fatalf("GetPaper: %v", err)
	}
	if got == nil || got.Name != "v2" || got.Notes[0].Note != "n2" {
		t.Errorf("GetPaper = %+v, want newest row", got)
	}

	missing, err := c.GetPaper(ctx, url+"?missing")
	if err != nil || missing != nil {
		t.Errorf("GetPaper(missing) = %v, %v; want nil, nil", missing, err)
	}
}

func TestEmbeddingSearchFiltersByURL(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	url := "https://example.com/" + uuid.NewString() + ".pdf"
	other := url + "-other.pdf"

	recs := []models.EmbeddingRecord{
		{Content: "near", Embedding: []float32{1, 0, 0}, Metadata: map[string]any{"url": url, "pageNumber": 1}},
		{Content: "far", Embedding: []float32{0, 1, 0}, Metadata: map[string]any{"url": url, "pageNumber": 2}},
		{Content: "other paper", Embedding: []float32{1, 0, 0}, Metadata: map[string]any{"url": other, "pageNumber": 1}},
	}
	if err := c.InsertEmbeddings(ctx, recs); err != nil {
		t.Fatalf("InsertEmbeddings: %v", err)
	}

	got, err := c.SearchEmbeddings(ctx, url, []float32{1, 0.1, 0}, 5)
	if err != nil {
		t.Fatalf("SearchEmbeddings: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got[0].Content != "near" {
		t.Errorf("nearest = %q, want near", got[0].Content)
	}
	for _, r := range got {
		if r.Metadata["url"] != url {
			t.Errorf("record from other paper returned: %+v", r)
		}
	}
}

func TestInsertQA(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	question := "what is attention? " + uuid.NewString()

	for _, a := range []string{"a1", "a2"} {
		if err := c.InsertQA(ctx, &models.QARecord{Question: question, Answer: a, Context: "ctx",
			FollowupQuestions: []string{"why?", "how?"}}); err != nil {
			t.Fatalf("InsertQA: %v", err)
		}
	}
	got, err := c.ListQA(ctx, question)
	if err != nil {
		t.Fatalf("ListQA: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if len(got[0].FollowupQuestions) != 2 {
		t.Errorf("followups = %v", got[0].FollowupQuestions)
	}
}
