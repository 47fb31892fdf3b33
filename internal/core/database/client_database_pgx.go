package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/markdave123-py/papernotes/internal/config"
	"github.com/markdave123-py/papernotes/internal/core"
	"github.com/markdave123-py/papernotes/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

var _ core.DbClient = (*DatabaseClient)(nil)

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (*DatabaseClient, error) {
	if cfg == nil {
		return nil, core.ConfigError("database", errors.New("database client configuration is nil"))
	}
	if cfg.DatabaseURL == "" {
		return nil, core.ConfigError("database", fmt.Errorf("DATABASE_URL is empty: %w", core.ErrMissingCredential))
	}
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, core.ConfigError("database", err)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, core.UpstreamError("database", fmt.Errorf("ping db: %w", err))
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Papers

func (c *DatabaseClient) InsertPaper(ctx context.Context, paper *models.Paper) error {
	if paper == nil {
		return errors.New("nil paper")
	}
	if paper.ID == "" {
		paper.ID = uuid.NewString()
	}
	notes := paper.Notes
	if notes == nil {
		notes = []models.Note{}
	}
	notesJSON, err := json.Marshal(notes)
	if err != nil {
		return fmt.Errorf("marshal notes: %w", err)
	}

	const q = `
		INSERT INTO pdf_papers (id, name, pdf_url, paper, notes, created_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, COALESCE($6, now()))
	`
	if _, err := c.db.ExecContext(ctx, q,
		paper.ID, paper.Name, paper.PdfURL, paper.PaperText, string(notesJSON), nullTime(paper.CreatedAt)); err != nil {
		return core.UpstreamError("insert paper", err)
	}
	return nil
}

// GetPaper returns the newest paper stored for url, or nil, nil.
func (c *DatabaseClient) GetPaper(ctx context.Context, url string) (*models.Paper, error) {
	const q = `
		SELECT id, name, pdf_url, paper, notes, created_at
		FROM pdf_papers
		WHERE pdf_url = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	var (
		p     models.Paper
		notes []byte
	)
	err := c.db.QueryRowContext(ctx, q, url).Scan(&p.ID, &p.Name, &p.PdfURL, &p.PaperText, &notes, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, core.UpstreamError("get paper", err)
	}
	if err := json.Unmarshal(notes, &p.Notes); err != nil {
		return nil, core.UpstreamError("get paper", fmt.Errorf("decode notes: %w", err))
	}
	return &p, nil
}

func (c *DatabaseClient) ListPapers(ctx context.Context, limit int) ([]models.PaperSummary, error) {
	const q = `
		SELECT id, name, pdf_url, jsonb_array_length(notes), created_at
		FROM pdf_papers
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := c.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, core.UpstreamError("list papers", err)
	}
	defer rows.Close()

	out := []models.PaperSummary{}
	for rows.Next() {
		var s models.PaperSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.PdfURL, &s.NoteCount, &s.CreatedAt); err != nil {
			return nil, core.UpstreamError("list papers", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, core.UpstreamError("list papers", err)
	}
	return out, nil
}

// Embeddings

// InsertEmbeddings inserts records in a single transaction.
func (c *DatabaseClient) InsertEmbeddings(ctx context.Context, records []models.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return core.UpstreamError("insert embeddings", err)
	}

	const q = `
		INSERT INTO pdf_embeddings (id, content, metadata, embedding, created_at)
		VALUES ($1, $2, $3::jsonb, $4, COALESCE($5, now()))
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return core.UpstreamError("insert embeddings", err)
	}
	defer stmt.Close()

	for i := range records {
		rec := &records[i]
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		meta, err := json.Marshal(rec.Metadata)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("marshal metadata: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			rec.ID, rec.Content, string(meta), pgvector.NewVector(rec.Embedding), nullTime(rec.CreatedAt),
		); err != nil {
			_ = tx.Rollback()
			return core.UpstreamError("insert embeddings", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return core.UpstreamError("insert embeddings", err)
	}
	return nil
}

// SearchEmbeddings returns the limit records for url closest to queryVec by cosine distance.
func (c *DatabaseClient) SearchEmbeddings(ctx context.Context, url string, queryVec []float32, limit int) ([]models.EmbeddingRecord, error) {
	const q = `
		SELECT id, content, metadata, created_at
		FROM pdf_embeddings
		WHERE metadata->>'url' = $1
		ORDER BY embedding <=> $2
		LIMIT $3
	`
	rows, err := c.db.QueryContext(ctx, q, url, pgvector.NewVector(queryVec), limit)
	if err != nil {
		return nil, core.UpstreamError("search embeddings", err)
	}
	defer rows.Close()

	var out []models.EmbeddingRecord
	for rows.Next() {
		var (
			rec  models.EmbeddingRecord
			meta []byte
		)
		if err := rows.Scan(&rec.ID, &rec.Content, &meta, &rec.CreatedAt); err != nil {
			return nil, core.UpstreamError("search embeddings", err)
		}
		if err := json.Unmarshal(meta, &rec.Metadata); err != nil {
			return nil, core.UpstreamError("search embeddings", fmt.Errorf("decode metadata: %w", err))
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, core.UpstreamError("search embeddings", err)
	}
	return out, nil
}

// Question answering

func (c *DatabaseClient) InsertQA(ctx context.Context, record *models.QARecord) error {
	if record == nil {
		return errors.New("nil qa record")
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	followups := record.FollowupQuestions
	if followups == nil {
		followups = []string{}
	}
	const q = `
		INSERT INTO pdf_question_answering (id, question, answer, context, followup_questions, created_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()))
	`
	if _, err := c.db.ExecContext(ctx, q,
		record.ID, record.Question, record.Answer, record.Context, followups, nullTime(record.CreatedAt)); err != nil {
		return core.UpstreamError("insert qa", err)
	}
	return nil
}

// ListQA returns the records stored for question, newest first.
func (c *DatabaseClient) ListQA(ctx context.Context, question string) ([]models.QARecord, error) {
	const q = `
		SELECT id, question, answer, context, array_to_json(followup_questions)::text, created_at
		FROM pdf_question_answering
		WHERE question = $1
		ORDER BY created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, q, question)
	if err != nil {
		return nil, core.UpstreamError("list qa", err)
	}
	defer rows.Close()

	var out []models.QARecord
	for rows.Next() {
		var (
			r         models.QARecord
			followups string
		)
		if err := rows.Scan(&r.ID, &r.Question, &r.Answer, &r.Context, &followups, &r.CreatedAt); err != nil {
			return nil, core.UpstreamError("list qa", err)
		}
		if err := json.Unmarshal([]byte(followups), &r.FollowupQuestions); err != nil {
			return nil, core.UpstreamError("list qa", fmt.Errorf("decode followups: %w", err))
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
