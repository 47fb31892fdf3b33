package services

import (
	"context"
	"sync"

	"github.com/markdave123-py/papernotes/internal/core/pdfdoc"
	"github.com/markdave123-py/papernotes/internal/models"
)

type fakeFetcher struct {
	pdf   []byte
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.calls++
	return f.pdf, f.err
}

type fakeExtractor struct {
	segments  []models.Segment
	err       error
	calls     int
	pageCount int
}

func (f *fakeExtractor) Extract(ctx context.Context, pdf []byte) ([]models.Segment, error) {
	f.calls++
	f.pageCount, _ = pdfdoc.PageCount(pdf)
	return f.segments, f.err
}

type fakeLLM struct {
	notes       []models.Note
	answers     []models.Answer
	err         error
	noteCalls   int
	answerCalls int
	gotNotes    []models.Note
}

func (f *fakeLLM) SynthesizeNotes(ctx context.Context, segments []models.Segment) ([]models.Note, error) {
	f.noteCalls++
	return f.notes, f.err
}

func (f *fakeLLM) Answer(ctx context.Context, question string, segments []models.Segment, notes []models.Note) ([]models.Answer, error) {
	f.answerCalls++
	f.gotNotes = notes
	return f.answers, f.err
}

type fakePapers struct {
	mu      sync.Mutex
	papers  []*models.Paper
	inserts int
	err     error
}

func (f *fakePapers) InsertPaper(ctx context.Context, p *models.Paper) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts++
	if f.err != nil {
		return f.err
	}
	f.papers = append(f.papers, p)
	return nil
}

func (f *fakePapers) GetPaper(ctx context.Context, url string) (*models.Paper, error) {
	for i := len(f.papers) - 1; i >= 0; i-- {
		if f.papers[i].PdfURL == url {
			return f.papers[i], nil
		}
	}
	return nil, nil
}

func (f *fakePapers) ListPapers(ctx context.Context, limit int) ([]models.PaperSummary, error) {
	var out []models.PaperSummary
	for _, p := range f.papers {
		out = append(out, models.PaperSummary{ID: p.ID, Name: p.Name, PdfURL: p.PdfURL, NoteCount: len(p.Notes)})
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeIndex struct {
	mu       sync.Mutex
	adds     int
	added    []models.Segment
	results  []models.Segment
	err      error
	searches int
	lastK    int
}

func (f *fakeIndex) AddSegments(ctx context.Context, url string, segs []models.Segment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adds++
	f.added = append(f.added, segs...)
	return f.err
}

func (f *fakeIndex) SimilaritySearch(ctx context.Context, query, url string, k int) ([]models.Segment, error) {
	f.searches++
	f.lastK = k
	return f.results, nil
}

type fakeQA struct {
	mu      sync.Mutex
	records []*models.QARecord
}

func (f *fakeQA) InsertQA(ctx context.Context, r *models.QARecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, r)
	return nil
}

type fakeArchive struct {
	mu       sync.Mutex
	stored   map[string][]byte
	archives int
}

func (f *fakeArchive) Archive(ctx context.Context, url string, pdf []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.archives++
	if f.stored == nil {
		f.stored = map[string][]byte{}
	}
	f.stored[url] = pdf
	return "mem://" + url, nil
}

func (f *fakeArchive) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f.stored[url], nil
}

func (f *fakeQA) ListQA(ctx context.Context, question string) ([]models.QARecord, error) {
	var out []models.QARecord
	for i := len(f.records) - 1; i >= 0; i-- {
		if f.records[i].Question == question {
			out = append(out, *f.records[i])
		}
	}
	return out, nil
}
