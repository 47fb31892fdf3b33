package models

import (
	"time"
)

// Note is one structured note produced for a paper.
type Note struct {
	Note        string `json:"note" jsonschema:"the note text"`
	PageNumbers []int  `json:"pageNumbers" jsonschema:"the page number(s) the note was taken from"`
}

// Paper is one ingested research paper together with its notes.
type Paper struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	PdfURL    string    `db:"pdf_url" json:"pdfUrl"`
	PaperText string    `db:"paper" json:"paper"` // extracted text, segments joined by blank lines
	Notes     []Note    `db:"notes" json:"notes"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// PaperSummary is the list view of a stored paper.
type PaperSummary struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	PdfURL    string    `db:"pdf_url" json:"pdfUrl"`
	NoteCount int       `db:"note_count" json:"noteCount"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Segment is a text unit returned by the extraction backend.
type Segment struct {
	Text       string
	PageNumber int // 1-based page in the (possibly page-reduced) document, 0 when unknown
	Metadata   map[string]any
}

// EmbeddingRecord is one row of the embeddings table.
type EmbeddingRecord struct {
	ID        string         `db:"id" json:"id"`
	Content   string         `db:"content" json:"content"`
	Embedding []float32      `db:"embedding" json:"-"` // pgvector column
	Metadata  map[string]any `db:"metadata" json:"metadata"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
}

// Answer is one answer candidate with suggested follow-up questions.
type Answer struct {
	Answer            string   `json:"answer" jsonschema:"the answer to the question"`
	FollowupQuestions []string `json:"followupQuestions" jsonschema:"follow-up questions the user could ask next"`
}

// QARecord is one persisted question/answer exchange.
type QARecord struct {
	ID                string    `db:"id" json:"id"`
	Question          string    `db:"question" json:"question"`
	Answer            string    `db:"answer" json:"answer"`
	Context           string    `db:"context" json:"context"`
	FollowupQuestions []string  `db:"followup_questions" json:"followupQuestions"`
	CreatedAt         time.Time `db:"created_at" json:"createdAt"`
}
