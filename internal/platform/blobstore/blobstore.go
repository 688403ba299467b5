// Package blobstore provides file-attachment storage for form submissions.
// It defines the BlobStore interface, an in-memory implementation suitable
// for testing and development, and an Echo handler for downloads.
package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

var (
	ErrBlobNotFound       = errors.New("blob not found")
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrInvalidContentType = errors.New("content type is not allowed")
	ErrMissingPath        = errors.New("blob path is required")
)

// DefaultMaxFileSize is the default per-file size limit (10 MB).
const DefaultMaxFileSize = 10 * 1024 * 1024

// AllowedContentTypes lists MIME types accepted for form attachments.
var AllowedContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// Blob describes a stored attachment.
type Blob struct {
	Path        string    `json:"path"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

// BlobStore is the storage contract consumed by the submission pipeline:
// upload bytes under a path, get back a retrievable public URL.
type BlobStore interface {
	Upload(ctx context.Context, path, contentType string, content io.Reader) (*Blob, error)
	Open(ctx context.Context, path string) (io.ReadCloser, *Blob, error)
	Delete(ctx context.Context, path string) error
}

type storedBlob struct {
	meta    Blob
	content []byte
}

// InMemoryBlobStore is a thread-safe, in-memory BlobStore for testing/dev.
// URLs are formed from the configured base URL and the blob path.
type InMemoryBlobStore struct {
	baseURL string
	maxSize int64

	mu    sync.RWMutex
	blobs map[string]*storedBlob
}

// NewInMemoryBlobStore returns a ready-to-use InMemoryBlobStore. Blobs are
// served under baseURL + "/blobs/".
func NewInMemoryBlobStore(baseURL string, maxSize int64) *InMemoryBlobStore {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &InMemoryBlobStore{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		maxSize: maxSize,
		blobs:   make(map[string]*storedBlob),
	}
}

// Upload validates inputs, reads the content, and stores the blob in memory.
func (s *InMemoryBlobStore) Upload(_ context.Context, path, contentType string, content io.Reader) (*Blob, error) {
	if path == "" {
		return nil, ErrMissingPath
	}
	if !AllowedContentTypes[contentType] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidContentType, contentType)
	}

	data, err := io.ReadAll(io.LimitReader(content, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading content: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return nil, ErrFileTooLarge
	}

	meta := Blob{
		Path:        path,
		URL:         fmt.Sprintf("%s/blobs/%s", s.baseURL, path),
		ContentType: contentType,
		Size:        int64(len(data)),
		CreatedAt:   time.Now().UTC(),
	}

	s.mu.Lock()
	s.blobs[path] = &storedBlob{meta: meta, content: data}
	s.mu.Unlock()

	out := meta // copy
	return &out, nil
}

// Open returns an io.ReadCloser over the blob content and its metadata.
func (s *InMemoryBlobStore) Open(_ context.Context, path string) (io.ReadCloser, *Blob, error) {
	s.mu.RLock()
	blob, ok := s.blobs[path]
	s.mu.RUnlock()

	if !ok {
		return nil, nil, ErrBlobNotFound
	}

	meta := blob.meta // copy
	return io.NopCloser(bytes.NewReader(blob.content)), &meta, nil
}

// Delete removes a blob by path.
func (s *InMemoryBlobStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[path]; !ok {
		return ErrBlobNotFound
	}
	delete(s.blobs, path)
	return nil
}

// Handler serves stored blobs over HTTP.
type Handler struct {
	store BlobStore
}

// NewHandler creates a new blob download Handler.
func NewHandler(store BlobStore) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes mounts the download route on the supplied Echo instance.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/blobs/*", h.handleDownload)
}

func (h *Handler) handleDownload(c echo.Context) error {
	path := c.Param("*")

	rc, meta, err := h.store.Open(c.Request().Context(), path)
	if err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	defer rc.Close()

	name := path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		name = path[i+1:]
	}
	c.Response().Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	return c.Stream(http.StatusOK, meta.ContentType, rc)
}
