// Package media stores recorded attachments so messages carry references that
// outlive the client process.
package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/PabloGalante/messenger/internal/domain"
)

// FileStore copies attachments into a content-addressed directory.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	return &FileStore{dir: abs}, nil
}

// Put copies sourcePath into the store and returns a file:// reference named after
// the sha256 of the content. Storing the same content twice yields the same reference.
func (s *FileStore) Put(ctx context.Context, kind domain.MediaKind, sourcePath string) (domain.MediaRef, error) {
	if kind != domain.MediaAudio && kind != domain.MediaVideo {
		return "", fmt.Errorf("unknown media kind %q", kind)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	src, err := os.Open(sourcePath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", sourcePath, err)
	}
	defer src.Close()

	kindDir := filepath.Join(s.dir, string(kind))
	if err := os.MkdirAll(kindDir, 0o700); err != nil {
		return "", fmt.Errorf("create %s dir: %w", kind, err)
	}

	tmp, err := os.CreateTemp(kindDir, "upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(tmp, h), src); err != nil {
		tmp.Close()
		return "", fmt.Errorf("copy %s: %w", sourcePath, err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	name := hex.EncodeToString(h.Sum(nil)) + strings.ToLower(filepath.Ext(sourcePath))
	dst := filepath.Join(kindDir, name)
	if _, err := os.Stat(dst); err != nil {
		if err := os.Rename(tmp.Name(), dst); err != nil {
			return "", fmt.Errorf("store %s: %w", name, err)
		}
	}

	u := url.URL{Scheme: "file", Path: filepath.ToSlash(dst)}
	return domain.MediaRef(u.String()), nil
}
