package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/markdave123-py/papernotes/internal/config"
	"github.com/markdave123-py/papernotes/internal/models"
	"github.com/markdave123-py/papernotes/internal/services"
)

type nopNotes struct{}

func (nopNotes) TakeNotes(ctx context.Context, in services.TakeNotesInput) ([]models.Note, error) {
	return []models.Note{{Note: "n", PageNumbers: []int{1}}}, nil
}

type nopQA struct{}

func (nopQA) QAOnPdf(ctx context.Context, question, pdfURL string) ([]models.Answer, error) {
	return []models.Answer{{Answer: "a", FollowupQuestions: []string{}}}, nil
}

func (nopQA) History(ctx context.Context, question string) ([]models.QARecord, error) {
	return nil, nil
}

type nopPapers struct{}

func (nopPapers) ListPapers(ctx context.Context, limit int) ([]models.PaperSummary, error) {
	return nil, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.WebDir = t.TempDir()
	if err := os.WriteFile(filepath.Join(cfg.WebDir, "index.html"), []byte("<html>papernotes</html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func serve(h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouterPublicRoutes(t *testing.T) {
	h := NewRouter(testConfig(t), nopNotes{}, nopQA{}, nopPapers{})

	tests := []struct {
		method, path, body string
		status             int
		contains           string
	}{
		{http.MethodGet, "/", "", http.StatusOK, "papernotes api is running"},
		{http.MethodGet, "/ui/", "", http.StatusOK, "papernotes"},
		{http.MethodPost, "/take_notes", `{"pdfUrl":"https://x.org/a.pdf","name":"a"}`, http.StatusOK, `"pageNumbers"`},
		{http.MethodPost, "/qa", `{"pdfUrl":"https://x.org/a.pdf","question":"q"}`, http.StatusOK, `"followupQuestions"`},
		{http.MethodGet, "/papers", "", http.StatusOK, "[]"},
		{http.MethodGet, "/take_notes", "", http.StatusMethodNotAllowed, ""},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := serve(h, tt.method, tt.path, tt.body, "")
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body)
			}
			if !strings.Contains(rec.Body.String(), tt.contains) {
				t.Errorf("body %q does not contain %q", rec.Body, tt.contains)
			}
		})
	}
}

func TestRouterRequiresTokenWhenAuthEnabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.JWTSecret = "s3cret"
	h := NewRouter(cfg, nopNotes{}, nopQA{}, nopPapers{})

	if rec := serve(h, http.MethodGet, "/", "", ""); rec.Code != http.StatusOK {
		t.Errorf("liveness behind auth: %d", rec.Code)
	}
	if rec := serve(h, http.MethodPost, "/qa", `{}`, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("qa without token: %d", rec.Code)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "reader",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		t.Fatal(err)
	}
	rec := serve(h, http.MethodPost, "/qa", `{"pdfUrl":"https://x.org/a.pdf","question":"q"}`, token)
	if rec.Code != http.StatusOK {
		t.Errorf("qa with token: %d %s", rec.Code, rec.Body)
	}
}
