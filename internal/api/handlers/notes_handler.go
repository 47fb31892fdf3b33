package handlers

import (
	"context"
	"net/http"

	"github.com/markdave123-py/papernotes/internal/models"
	"github.com/markdave123-py/papernotes/internal/services"
)

type NoteTaker interface {
	TakeNotes(ctx context.Context, in services.TakeNotesInput) ([]models.Note, error)
}

type NotesHandler struct {
	notes NoteTaker
}

func NewNotesHandler(notes NoteTaker) *NotesHandler {
	return &NotesHandler{notes: notes}
}

type takeNotesRequest struct {
	PdfURL        string `json:"pdfUrl"`
	Name          string `json:"name"`
	PdfsToDelete  []int  `json:"pdfsToDelete"`
	PagesToDelete []int  `json:"pagesToDelete"`
}

// TakeNotes handles POST /take_notes.
func (h *NotesHandler) TakeNotes(w http.ResponseWriter, r *http.Request) {
	var req takeNotesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	pages := req.PdfsToDelete
	if len(pages) == 0 {
		pages = req.PagesToDelete
	}

	notes, err := h.notes.TakeNotes(r.Context(), services.TakeNotesInput{
		PdfURL:        req.PdfURL,
		Name:          req.Name,
		PagesToDelete: pages,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if notes == nil {
		notes = []models.Note{}
	}
	writeJSON(w, http.StatusOK, notes)
}
