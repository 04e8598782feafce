package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalStore keeps objects on the local filesystem under dir, with the key
// as the relative path. baseURL is where the server serves dir from.
type LocalStore struct {
	dir     string
	baseURL string
}

var _ Store = (*LocalStore)(nil)

func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("media: creating %s: %w", dir, err)
	}
	return &LocalStore{dir: dir, baseURL: baseURL}, nil
}

// Dir is the root directory, for mounting a file server.
func (s *LocalStore) Dir() string { return s.dir }

// Put streams the body to a temp file and renames it into place, so a
// failed upload never leaves a partial file under a real key.
func (s *LocalStore) Put(ctx context.Context, obj Object) (Asset, error) {
	key := NewKey(obj.Kind, obj.Filename)
	dst := filepath.Join(s.dir, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return Asset{}, fmt.Errorf("media: creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return Asset{}, fmt.Errorf("media: creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := io.Copy(tmp, contextReader{ctx: ctx, r: obj.Body}); err != nil {
		tmp.Close()
		return Asset{}, fmt.Errorf("media: writing %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return Asset{}, fmt.Errorf("media: closing %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return Asset{}, fmt.Errorf("media: storing %s: %w", key, err)
	}

	return Asset{URL: joinURL(s.baseURL, key), Key: key}, nil
}

func (s *LocalStore) Delete(_ context.Context, key string) error {
	if !validKey(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("media: deleting %s: %w", key, err)
	}
	return nil
}

// contextReader stops a copy once ctx is cancelled.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
