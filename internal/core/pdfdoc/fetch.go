package pdfdoc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/markdave123-py/papernotes/internal/core"
)

var pdfMagic = []byte("%PDF")

// Fetcher downloads PDFs over HTTP.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
}

func NewFetcher(timeout time.Duration, maxBytes int64) *Fetcher {
	return &Fetcher{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
	}
}

var _ core.PDFFetcher = (*Fetcher)(nil)

// ValidateURL accepts absolute http(s) URLs whose path ends in "pdf".
func ValidateURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return core.InputError("validate url", fmt.Errorf("%q is not an http(s) url: %w", raw, core.ErrNotPDF))
	}
	if !strings.HasSuffix(strings.ToLower(u.Path), "pdf") {
		return core.InputError("validate url", fmt.Errorf("%q: %w", raw, core.ErrNotPDF))
	}
	return nil
}

// Fetch GETs rawURL and returns the body once it looks like a PDF.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, core.InputError("fetch pdf", err)
	}
	req.Header.Set("Accept", "application/pdf")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, core.UpstreamError("fetch pdf", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, core.UpstreamError("fetch pdf", fmt.Errorf("GET %s: status %d", rawURL, resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, core.UpstreamError("fetch pdf", fmt.Errorf("read body: %w", err))
	}
	if int64(len(body)) > f.maxBytes {
		return nil, core.InputError("fetch pdf", fmt.Errorf("document larger than %d bytes", f.maxBytes))
	}
	if !bytes.HasPrefix(bytes.TrimLeft(body, "\x00\t\r\n "), pdfMagic) {
		return nil, core.InputError("fetch pdf", fmt.Errorf("%s: %w", rawURL, core.ErrNotPDF))
	}
	return body, nil
}
