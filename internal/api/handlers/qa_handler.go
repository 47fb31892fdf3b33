package handlers

import (
	"context"
	"net/http"

	"github.com/markdave123-py/papernotes/internal/models"
)

type QuestionAnswerer interface {
	QAOnPdf(ctx context.Context, question, pdfURL string) ([]models.Answer, error)
	History(ctx context.Context, question string) ([]models.QARecord, error)
}

type QAHandler struct {
	qa QuestionAnswerer
}

func NewQAHandler(qa QuestionAnswerer) *QAHandler {
	return &QAHandler{qa: qa}
}

type qaRequest struct {
	PdfURL   string `json:"pdfUrl"`
	Question string `json:"question"`
}

// Ask handles POST /qa.
func (h *QAHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req qaRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	answers, err := h.qa.QAOnPdf(r.Context(), req.Question, req.PdfURL)
	if err != nil {
		writeError(w, err)
		return
	}
	if answers == nil {
		answers = []models.Answer{}
	}
	writeJSON(w, http.StatusOK, answers)
}

// History handles GET /qa/history?question=.
func (h *QAHandler) History(w http.ResponseWriter, r *http.Request) {
	records, err := h.qa.History(r.Context(), r.URL.Query().Get("question"))
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []models.QARecord{}
	}
	writeJSON(w, http.StatusOK, records)
}
