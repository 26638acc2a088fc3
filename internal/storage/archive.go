package storage

import (
	"context"
	"net/http"
	"path"
	"strings"
)

const rawPrefix = "raw/"

// RawKey is the object key under which a document's original bytes are kept.
func RawKey(docID string) string {
	return rawPrefix + docID
}

// RawArchive stores original uploads keyed by document ID.
type RawArchive struct {
	client *S3Client
}

func NewRawArchive(client *S3Client) *RawArchive {
	return &RawArchive{client: client}
}

func (a *RawArchive) Put(ctx context.Context, docID, filename string, raw []byte) error {
	return a.client.PutObject(ctx, RawKey(docID), raw, contentTypeFor(filename, raw))
}

func (a *RawArchive) Delete(ctx context.Context, docID string) error {
	return a.client.DeleteObject(ctx, RawKey(docID))
}

// DownloadURL returns a presigned URL for the original upload.
func (a *RawArchive) DownloadURL(ctx context.Context, docID string) (string, error) {
	if _, err := a.client.HeadObject(ctx, RawKey(docID)); err != nil {
		return "", err
	}
	return a.client.GenerateDownloadURL(ctx, RawKey(docID))
}

func contentTypeFor(filename string, raw []byte) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".txt", ".text":
		return "text/plain; charset=utf-8"
	case ".md":
		return "text/markdown; charset=utf-8"
	}
	return http.DetectContentType(raw)
}
