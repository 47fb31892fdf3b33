package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/papernotes/internal/core"
	"github.com/markdave123-py/papernotes/internal/core/llm"
	"github.com/markdave123-py/papernotes/internal/logger"
	"github.com/markdave123-py/papernotes/internal/models"
)

const DefaultTopK = 5

type QAService struct {
	index    core.VectorIndex
	papers   core.PaperStore
	answerer core.QuestionAnswerer
	qa       core.QAStore
	topK     int
	log      logger.Logger
}

func NewQAService(index core.VectorIndex, papers core.PaperStore, answerer core.QuestionAnswerer, qa core.QAStore, topK int, log logger.Logger) *QAService {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &QAService{index: index, papers: papers, answerer: answerer, qa: qa, topK: topK, log: log}
}

// QAOnPdf answers question about the paper stored for pdfURL and records
// one QA row per answer. A paper that was never ingested is a NotFound
// error and triggers neither a model call nor a write.
func (s *QAService) QAOnPdf(ctx context.Context, question, pdfURL string) ([]models.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, core.InputError("qa", errors.New("question is required"))
	}
	if strings.TrimSpace(pdfURL) == "" {
		return nil, core.InputError("qa", errors.New("pdfUrl is required"))
	}

	s.log.Info("qa %s: retrieving top %d segments", pdfURL, s.topK)
	segments, err := s.index.SimilaritySearch(ctx, question, pdfURL, s.topK)
	if err != nil {
		return nil, classify("retrieve", err)
	}

	s.log.Info("qa %s: looking up paper", pdfURL)
	paper, err := s.papers.GetPaper(ctx, pdfURL)
	if err != nil {
		return nil, classify("get paper", err)
	}
	if paper == nil {
		return nil, core.NotFoundError("qa", fmt.Errorf("no paper found for url %s: %w", pdfURL, core.ErrPaperNotFound))
	}

	s.log.Info("qa %s: generating answers from %d segments", pdfURL, len(segments))
	answers, err := s.answerer.Answer(ctx, question, segments, paper.Notes)
	if err != nil {
		return nil, classify("answer question", err)
	}

	s.log.Info("qa %s: persisting %d answers", pdfURL, len(answers))
	qaContext := llm.FormatSegments(segments)
	var g errgroup.Group
	for _, a := range answers {
		g.Go(func() error {
			rec := &models.QARecord{
				Question:          question,
				Answer:            a.Answer,
				Context:           qaContext,
				FollowupQuestions: a.FollowupQuestions,
			}
			if err := s.qa.InsertQA(ctx, rec); err != nil {
				return classify("insert qa", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.log.Info("qa %s: done", pdfURL)
	return answers, nil
}

// History returns the answers previously recorded for question.
func (s *QAService) History(ctx context.Context, question string) ([]models.QARecord, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, core.InputError("qa history", errors.New("question is required"))
	}
	out, err := s.qa.ListQA(ctx, question)
	if err != nil {
		return nil, classify("qa history", err)
	}
	return out, nil
}
