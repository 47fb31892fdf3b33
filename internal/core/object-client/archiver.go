package objectclient

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/markdave123-py/papernotes/internal/core"
)

// Archiver keeps a copy of every ingested PDF in object storage.
type Archiver struct {
	obj    core.ObjectClient
	bucket string
}

var _ core.PaperArchive = (*Archiver)(nil)

func NewArchiver(obj core.ObjectClient, bucket string) *Archiver {
	return &Archiver{obj: obj, bucket: bucket}
}

// Archive stores pdf under a key derived from pdfURL and returns the object URL.
// The same URL always maps to the same key, so re-ingesting overwrites the copy.
func (a *Archiver) Archive(ctx context.Context, pdfURL string, pdf []byte) (string, error) {
	return a.obj.UploadFile(ctx, a.bucket, ArchiveKey(pdfURL), pdf, "application/pdf")
}

// Fetch returns the archived copy of pdfURL.
func (a *Archiver) Fetch(ctx context.Context, pdfURL string) ([]byte, error) {
	return a.obj.GetFile(ctx, a.bucket, ArchiveKey(pdfURL))
}

// ArchiveKey is papers/<first 16 hex of sha256(url)>/<file name>.
func ArchiveKey(pdfURL string) string {
	sum := sha256.Sum256([]byte(pdfURL))
	name := "paper.pdf"
	if u, err := url.Parse(pdfURL); err == nil {
		if base := path.Base(u.Path); base != "." && base != "/" && base != "" {
			name = base
		}
	}
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name += ".pdf"
	}
	return fmt.Sprintf("papers/%s/%s", hex.EncodeToString(sum[:])[:16], name)
}
