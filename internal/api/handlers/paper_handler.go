package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/markdave123-py/papernotes/internal/core"
	"github.com/markdave123-py/papernotes/internal/models"
)

type PaperLister interface {
	ListPapers(ctx context.Context, limit int) ([]models.PaperSummary, error)
}

type PaperHandler struct {
	papers PaperLister
}

func NewPaperHandler(papers PaperLister) *PaperHandler {
	return &PaperHandler{papers: papers}
}

// ListPapers handles GET /papers?limit=.
func (h *PaperHandler) ListPapers(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, core.InputError("list papers", fmt.Errorf("invalid limit %q", raw)))
			return
		}
		limit = n
	}

	papers, err := h.papers.ListPapers(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if papers == nil {
		papers = []models.PaperSummary{}
	}
	writeJSON(w, http.StatusOK, papers)
}

// Liveness handles GET /.
func Liveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("papernotes api is running"))
}
