package pdfdoc

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/markdave123-py/papernotes/internal/core"
)

var confOnce sync.Once

// PDFCPUConfig returns an in-memory configuration; pdfcpu would otherwise
// create a config dir under the user's home on first use.
func PDFCPUConfig() *model.Configuration {
	confOnce.Do(func() { model.ConfigPath = "disable" })
	return model.NewDefaultConfiguration()
}

// PageCount returns the number of pages in pdf.
func PageCount(pdf []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(pdf), PDFCPUConfig())
	if err != nil {
		return 0, core.InputError("read pdf", fmt.Errorf("%w: %v", core.ErrNotPDF, err))
	}
	return n, nil
}

// NormalizePages sorts pages ascending and drops duplicates. Callers that
// treat a deletion list as a set run it through here before RemovePages.
func NormalizePages(pages []int) []int {
	if len(pages) == 0 {
		return nil
	}
	out := slices.Clone(pages)
	slices.Sort(out)
	return slices.Compact(out)
}

// RemovePages deletes the given 1-based pages from pdf and returns the new
// document. pages must be strictly ascending and refer to the original
// page numbering; each removal shifts later pages down by one, so the k-th
// listed page is removed at position pages[k]-k of the shrinking document.
// An empty list returns pdf unchanged.
func RemovePages(pdf []byte, pages []int) ([]byte, error) {
	if len(pages) == 0 {
		return pdf, nil
	}

	count, err := PageCount(pdf)
	if err != nil {
		return nil, err
	}

	selected := make([]string, 0, len(pages))
	for offset, p := range pages {
		if p <= 0 || p > count {
			return nil, core.InputError("remove pages",
				fmt.Errorf("page %d outside 1..%d: %w", p, count, core.ErrInvalidPageNumber))
		}
		if offset > 0 && p <= pages[offset-1] {
			return nil, core.InputError("remove pages",
				fmt.Errorf("pages must be strictly ascending, got %d after %d: %w", p, pages[offset-1], core.ErrInvalidPageNumber))
		}
		// position in the shrinking document is p-offset; pdfcpu addresses the original numbering.
		selected = append(selected, strconv.Itoa(p))
	}
	if len(selected) >= count {
		return nil, core.InputError("remove pages",
			fmt.Errorf("cannot remove all %d pages: %w", count, core.ErrInvalidPageNumber))
	}

	var out bytes.Buffer
	if err := api.RemovePages(bytes.NewReader(pdf), &out, selected, PDFCPUConfig()); err != nil {
		return nil, core.InputError("remove pages", fmt.Errorf("%w: %v", core.ErrNotPDF, err))
	}
	return out.Bytes(), nil
}
