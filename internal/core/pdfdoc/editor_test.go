package pdfdoc

import (
	"bytes"
	"errors"
	"slices"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/markdave123-py/papernotes/internal/core"
	"github.com/markdave123-py/papernotes/internal/core/pdfdoc/pdfdoctest"
)

func pageWidths(t *testing.T, pdf []byte) []int {
	t.Helper()
	dims, err := api.PageDims(bytes.NewReader(pdf), PDFCPUConfig())
	if err != nil {
		t.Fatalf("PageDims: %v", err)
	}
	out := make([]int, len(dims))
	for i, d := range dims {
		out[i] = int(d.Width)
	}
	return out
}

func TestRemovePages(t *testing.T) {
	src := pdfdoctest.BuildPDF(10)

	tests := []struct {
		name       string
		pages      []int
		wantWidths []int
	}{
		{"two pages", []int{3, 5}, []int{101, 102, 104, 106, 107, 108, 109, 110}},
		{"first page", []int{1}, []int{102, 103, 104, 105, 106, 107, 108, 109, 110}},
		{"last page", []int{10}, []int{101, 102, 103, 104, 105, 106, 107, 108, 109}},
		{"adjacent run", []int{2, 3, 4}, []int{101, 105, 106, 107, 108, 109, 110}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := RemovePages(src, tt.pages)
			if err != nil {
				t.Fatalf("RemovePages(%v): %v", tt.pages, err)
			}
			n, err := PageCount(out)
			if err != nil {
				t.Fatalf("PageCount: %v", err)
			}
			if want := 10 - len(tt.pages); n != want {
				t.Fatalf("page count = %d, want %d", n, want)
			}
			if got := pageWidths(t, out); !slices.Equal(got, tt.wantWidths) {
				t.Errorf("remaining pages = %v, want %v", got, tt.wantWidths)
			}
		})
	}
}

func TestRemovePagesEmptyIsIdentity(t *testing.T) {
	src := pdfdoctest.BuildPDF(4)
	for _, pages := range [][]int{nil, {}} {
		out, err := RemovePages(src, pages)
		if err != nil {
			t.Fatalf("RemovePages(%v): %v", pages, err)
		}
		if !bytes.Equal(out, src) {
			t.Errorf("RemovePages(%v) modified the document", pages)
		}
	}
}

func TestRemovePagesInvalid(t *testing.T) {
	src := pdfdoctest.BuildPDF(10)
	tests := []struct {
		name  string
		pages []int
	}{
		{"zero", []int{0}},
		{"negative", []int{-2}},
		{"past end", []int{11}},
		{"descending", []int{5, 3}},
		{"duplicate", []int{4, 4}},
		{"all pages", []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := RemovePages(src, tt.pages)
			if err == nil {
				t.Fatalf("expected error, got %d bytes", len(out))
			}
			if !errors.Is(err, core.ErrInvalidPageNumber) {
				t.Errorf("err = %v, want ErrInvalidPageNumber", err)
			}
			if core.KindOf(err) != core.KindInputValidation {
				t.Errorf("kind = %v, want input validation", core.KindOf(err))
			}
		})
	}
}

func TestRemovePagesRejectsNonPDF(t *testing.T) {
	_, err := RemovePages([]byte("hello, not a pdf"), []int{1})
	if !errors.Is(err, core.ErrNotPDF) {
		t.Fatalf("err = %v, want ErrNotPDF", err)
	}
}

func TestNormalizePages(t *testing.T) {
	got := NormalizePages([]int{5, 3, 5, 1})
	if want := []int{1, 3, 5}; !slices.Equal(got, want) {
		t.Errorf("NormalizePages = %v, want %v", got, want)
	}
	if NormalizePages(nil) != nil {
		t.Error("NormalizePages(nil) should be nil")
	}
}
