// Package storage is the blob-storage client used for uploaded documents.
package storage

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
)

var (
	// ErrInvalidFile is returned for uploads rejected by size or content checks.
	ErrInvalidFile = errors.New("invalid file")
	// ErrNotFound is returned when deleting an object that does not exist.
	ErrNotFound = errors.New("object not found")
)

// File is an upload waiting to be stored.
type File struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// FromMultipart adapts a multipart form file.
func FromMultipart(fh *multipart.FileHeader) File {
	return File{
		Name: fh.Filename,
		Size: fh.Size,
		Open: func() (io.ReadCloser, error) { return fh.Open() },
	}
}

// Object is a stored blob: PublicID is the stable reference used for
// deletion, URL is where clients can fetch it.
type Object struct {
	PublicID string
	URL      string
}

//go:generate mockgen -source=storage.go -destination=../mocks/mock_storage.go -package=mocks

// Store uploads and deletes blobs.
type Store interface {
	Upload(ctx context.Context, file File, folder string) (Object, error)
	Delete(ctx context.Context, publicID string) error
}
