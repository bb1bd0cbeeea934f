package feed

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
)

// Store reads and writes generated files below a static root. The root is a
// local directory or any URL afs understands (file://, mem://, s3://, gs://).
type Store struct {
	fs   afs.Service
	root string
}

// NewStore creates a store rooted at root. Relative local paths are resolved
// against the working directory.
func NewStore(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("static root is empty")
	}
	if !strings.Contains(root, "://") {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolve static root: %w", err)
		}
		root = abs
	}
	return &Store{fs: afs.New(), root: root}, nil
}

// Root returns the resolved root location.
func (s *Store) Root() string {
	return s.root
}

// URL returns the location of rel below the root.
func (s *Store) URL(rel string) string {
	return url.Join(s.root, rel)
}

// Exists reports whether rel is present.
func (s *Store) Exists(ctx context.Context, rel string) (bool, error) {
	ok, err := s.fs.Exists(ctx, s.URL(rel))
	if err != nil {
		return false, fmt.Errorf("check %s: %w", rel, err)
	}
	return ok, nil
}

// Read downloads rel.
func (s *Store) Read(ctx context.Context, rel string) ([]byte, error) {
	data, err := s.fs.DownloadWithURL(ctx, s.URL(rel))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rel, err)
	}
	return data, nil
}

// Write replaces rel with data, creating parent folders as needed.
func (s *Store) Write(ctx context.Context, rel string, data []byte) error {
	if err := s.fs.Upload(ctx, s.URL(rel), file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	return nil
}
