package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/markdave123-py/papernotes/internal/core"
	"github.com/markdave123-py/papernotes/internal/logger"
	"github.com/markdave123-py/papernotes/internal/models"
)

const DefaultUnstructuredURL = "https://api.unstructuredapp.io/general/v0/general"

// UnstructuredConfig configures the hosted partition API client.
type UnstructuredConfig struct {
	APIKey     string
	URL        string
	Strategy   string // "hi_res", "fast", "auto"
	StagingDir string
	Timeout    time.Duration
}

// UnstructuredExtractor sends PDFs to the Unstructured partition endpoint
// and turns the returned elements into segments.
type UnstructuredExtractor struct {
	cfg    UnstructuredConfig
	client *http.Client
	log    logger.Logger
}

var _ core.DocumentExtractor = (*UnstructuredExtractor)(nil)

func NewUnstructuredExtractor(cfg UnstructuredConfig, log logger.Logger) (*UnstructuredExtractor, error) {
	if cfg.APIKey == "" {
		return nil, core.ConfigError("unstructured", fmt.Errorf("UNSTRUCTURED_API_KEY is not set: %w", core.ErrMissingCredential))
	}
	if cfg.URL == "" {
		cfg.URL = DefaultUnstructuredURL
	}
	if cfg.Strategy == "" {
		cfg.Strategy = "hi_res"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Minute
	}
	return &UnstructuredExtractor{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log,
	}, nil
}

type element struct {
	Type      string         `json:"type"`
	ElementID string         `json:"element_id"`
	Text      string         `json:"text"`
	Metadata  map[string]any `json:"metadata"`
}

func (e *UnstructuredExtractor) Extract(ctx context.Context, pdf []byte) ([]models.Segment, error) {
	var segments []models.Segment
	err := WithStagedFile(e.cfg.StagingDir, "papernotes-*.pdf", pdf, func(path string) error {
		elements, err := e.partition(ctx, path)
		if err != nil {
			return err
		}
		segments = toSegments(elements)
		return nil
	})
	if err != nil {
		if core.IsClassified(err) {
			return nil, err
		}
		return nil, core.UpstreamError("extract", err)
	}
	e.log.Debug("unstructured returned %d segments", len(segments))
	return segments, nil
}

func (e *UnstructuredExtractor) partition(ctx context.Context, path string) ([]element, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open staged pdf: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("files", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("build multipart: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("copy staged pdf: %w", err)
	}
	if err := mw.WriteField("strategy", e.cfg.Strategy); err != nil {
		return nil, fmt.Errorf("build multipart: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.URL, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("unstructured-api-key", e.cfg.APIKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, core.UpstreamError("unstructured partition", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, core.UpstreamError("unstructured partition",
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))))
	}

	var elements []element
	if err := json.NewDecoder(resp.Body).Decode(&elements); err != nil {
		return nil, core.UpstreamError("unstructured partition", fmt.Errorf("decode elements: %w", err))
	}
	return elements, nil
}

func toSegments(elements []element) []models.Segment {
	out := make([]models.Segment, 0, len(elements))
	for _, el := range elements {
		text := strings.TrimSpace(el.Text)
		if text == "" {
			continue
		}
		meta := make(map[string]any, len(el.Metadata)+2)
		for k, v := range el.Metadata {
			meta[k] = v
		}
		meta["type"] = el.Type
		meta["element_id"] = el.ElementID
		out = append(out, models.Segment{
			Text:       text,
			PageNumber: pageNumber(el.Metadata),
			Metadata:   meta,
		})
	}
	return out
}

func pageNumber(meta map[string]any) int {
	switch v := meta["page_number"].(type) {
	case float64:
		return int(v)
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	default:
		return 0
	}
}
