package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// LocalImageStorage stores profile images on the local filesystem and serves
// them under a static base URL.
type LocalImageStorage struct {
	baseDir string
	baseURL string
	log     zerolog.Logger
}

// NewLocalImageStorage creates a local image store rooted at baseDir
func NewLocalImageStorage(baseDir, baseURL string, log zerolog.Logger) *LocalImageStorage {
	return &LocalImageStorage{
		baseDir: baseDir,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log.With().Str("service", "storage").Logger(),
	}
}

// Upload writes the image bytes under path and returns its public URL
func (s *LocalImageStorage) Upload(ctx context.Context, data []byte, path string) (string, error) {
	if len(data) == 0 || path == "" || strings.Contains(path, "..") {
		return "", fmt.Errorf("invalid upload path %q", path)
	}

	full := filepath.Join(s.baseDir, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", err
	}

	url := s.baseURL + "/" + path
	s.log.Debug().Str("path", path).Int("bytes", len(data)).Msg("image stored")
	return url, nil
}

// Delete removes a previously uploaded image. Deleting an object that no
// longer exists succeeds.
func (s *LocalImageStorage) Delete(ctx context.Context, url string) error {
	if !strings.HasPrefix(url, s.baseURL+"/") {
		return fmt.Errorf("url %q is not managed by this store", url)
	}
	rel := strings.TrimPrefix(url, s.baseURL+"/")
	if strings.Contains(rel, "..") {
		return fmt.Errorf("invalid object path %q", rel)
	}

	full := filepath.Join(s.baseDir, filepath.FromSlash(rel))
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
