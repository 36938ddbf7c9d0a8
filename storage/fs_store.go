package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

const defaultMaxFileSize = 10 << 20 // 10 MB

// DefaultAllowedTypes are the document formats accepted for driver documents.
var DefaultAllowedTypes = []string{"image/jpeg", "image/png", "image/webp", "application/pdf"}

// FSStore keeps blobs in an afero filesystem (a base-path OS filesystem
// in production, an in-memory one in tests), served at baseURL.
type FSStore struct {
	fs           afero.Fs
	baseURL      string
	maxSize      int64
	allowedTypes map[string]bool
}

type Option func(*FSStore)

func WithMaxSize(n int64) Option {
	return func(s *FSStore) {
		if n > 0 {
			s.maxSize = n
		}
	}
}

func WithAllowedTypes(types ...string) Option {
	return func(s *FSStore) {
		s.allowedTypes = make(map[string]bool, len(types))
		for _, t := range types {
			s.allowedTypes[t] = true
		}
	}
}

// NewFSStore creates a store writing to fs.
func NewFSStore(fs afero.Fs, baseURL string, opts ...Option) *FSStore {
	s := &FSStore{
		fs:      fs,
		baseURL: strings.TrimRight(baseURL, "/"),
		maxSize: defaultMaxFileSize,
	}
	WithAllowedTypes(DefaultAllowedTypes...)(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload validates the file size and sniffed content type, then writes it
// under folder with a fresh id.
func (s *FSStore) Upload(ctx context.Context, file File, folder string) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	if file.Open == nil || file.Size <= 0 {
		return Object{}, fmt.Errorf("%w: %q is empty", ErrInvalidFile, file.Name)
	}
	if file.Size > s.maxSize {
		return Object{}, fmt.Errorf("%w: %q is %s, limit is %s",
			ErrInvalidFile, file.Name, humanize.IBytes(uint64(file.Size)), humanize.IBytes(uint64(s.maxSize)))
	}

	src, err := file.Open()
	if err != nil {
		return Object{}, fmt.Errorf("open upload %q: %w", file.Name, err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, s.maxSize+1))
	if err != nil {
		return Object{}, fmt.Errorf("read upload %q: %w", file.Name, err)
	}
	if int64(len(data)) > s.maxSize {
		return Object{}, fmt.Errorf("%w: %q exceeds %s", ErrInvalidFile, file.Name, humanize.IBytes(uint64(s.maxSize)))
	}

	mt := mimetype.Detect(data)
	if !s.allowed(mt) {
		return Object{}, fmt.Errorf("%w: %q has unsupported type %s", ErrInvalidFile, file.Name, mt.String())
	}

	publicID := path.Join(cleanFolder(folder), uuid.NewString()+mt.Extension())
	full := "/" + publicID
	if err := s.fs.MkdirAll(path.Dir(full), 0o755); err != nil {
		return Object{}, fmt.Errorf("create folder for %q: %w", publicID, err)
	}
	if err := afero.WriteReader(s.fs, full, bytes.NewReader(data)); err != nil {
		return Object{}, fmt.Errorf("write %q: %w", publicID, err)
	}
	return Object{PublicID: publicID, URL: s.baseURL + "/" + publicID}, nil
}

// Delete removes the blob with the given public id.
func (s *FSStore) Delete(ctx context.Context, publicID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full := path.Clean("/" + publicID)
	if err := s.fs.Remove(full); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, publicID)
		}
		return fmt.Errorf("delete %q: %w", publicID, err)
	}
	return nil
}

// HTTPFileSystem exposes the stored blobs for static serving.
func (s *FSStore) HTTPFileSystem() http.FileSystem {
	return afero.NewHttpFs(s.fs).Dir("/")
}

// allowed matches mt or one of its parents, ignoring parameters such as
// charset.
func (s *FSStore) allowed(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		for t := range s.allowedTypes {
			if m.Is(t) {
				return true
			}
		}
	}
	return false
}

func cleanFolder(folder string) string {
	return strings.TrimPrefix(path.Clean("/"+folder), "/")
}
