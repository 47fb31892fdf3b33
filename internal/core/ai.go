package core

import (
	"context"

	"github.com/markdave123-py/papernotes/internal/models"
)

type EmbeddingProvider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// NoteSynthesizer turns extracted segments into structured notes.
type NoteSynthesizer interface {
	SynthesizeNotes(ctx context.Context, segments []models.Segment) ([]models.Note, error)
}

// QuestionAnswerer answers a question from retrieved segments and prior notes.
// More than one answer candidate may be returned.
type QuestionAnswerer interface {
	Answer(ctx context.Context, question string, segments []models.Segment, notes []models.Note) ([]models.Answer, error)
}
