package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalURLPrefix is where the server mounts MEDIA_DIR.
const LocalURLPrefix = "/media/"

// LocalStore writes images below a directory served as static files.
type LocalStore struct {
	dir       string
	urlPrefix string
}

// NewLocalStore returns a store rooted at dir whose refs start with urlPrefix.
func NewLocalStore(dir, urlPrefix string) *LocalStore {
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	return &LocalStore{dir: dir, urlPrefix: urlPrefix}
}

func (s *LocalStore) Save(_ context.Context, name string, data []byte) (string, error) {
	path, err := s.resolve(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return s.urlPrefix + filepath.ToSlash(name), nil
}

// Delete removes the file behind ref. Missing files are not an error.
func (s *LocalStore) Delete(_ context.Context, ref string) error {
	name, ok := strings.CutPrefix(ref, s.urlPrefix)
	if !ok {
		return fmt.Errorf("media ref %q is not local", ref)
	}
	path, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStore) resolve(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid media name %q", name)
	}
	return filepath.Join(s.dir, clean), nil
}
