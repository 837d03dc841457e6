package filestore

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store writes uploaded documents to a local directory and resolves stored
// relative paths into fetchable URLs.
type Store struct {
	root    string
	baseURL string
	maxSize int64
}

// New creates a Store rooted at dir. Uploaded files larger than maxSize are
// refused; a maxSize of 0 disables the check.
func New(dir, baseURL string, maxSize int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &Store{root: dir, baseURL: strings.TrimRight(baseURL, "/"), maxSize: maxSize}, nil
}

// Root returns the local directory files are stored under.
func (s *Store) Root() string {
	return s.root
}

// allowedExtensions lists the document types accepted for upload: quotes,
// invoices and their supporting scans.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".doc":  true,
	".docx": true,
	".xls":  true,
	".xlsx": true,
}

// Save streams a multipart upload under subdir and returns the stored
// relative path. File names are randomized to avoid collisions; the original
// extension is kept and must be on the allow-list.
func (s *Store) Save(file *multipart.FileHeader, subdir string) (string, error) {
	if s.maxSize > 0 && file.Size > s.maxSize {
		return "", fmt.Errorf("file %q exceeds the %d byte upload limit", file.Filename, s.maxSize)
	}
	if ext := strings.ToLower(filepath.Ext(file.Filename)); !allowedExtensions[ext] {
		return "", fmt.Errorf("file type %q is not allowed", ext)
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	name := time.Now().Format("20060102") + "-" + uuid.NewString() + filepath.Ext(file.Filename)
	rel := path.Join(subdir, name)

	dstPath := filepath.Join(s.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return rel, nil
}

// SaveBytes stores generated content (e.g. a rendered purchase order) under
// subdir with the given file name and returns the stored relative path.
func (s *Store) SaveBytes(data []byte, subdir, name string) (string, error) {
	rel := path.Join(subdir, name)
	dstPath := filepath.Join(s.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create dir: %w", err)
	}
	if err := os.WriteFile(dstPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return rel, nil
}

// Remove deletes a stored file. Missing files are not an error.
func (s *Store) Remove(rel string) error {
	if rel == "" || isAbsoluteURL(rel) {
		return nil
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(rel)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// URL resolves a stored path to a fetchable URL. Paths that are already
// absolute http(s) URLs pass through unchanged.
func (s *Store) URL(stored string) string {
	if stored == "" {
		return ""
	}
	if isAbsoluteURL(stored) {
		return stored
	}
	return s.baseURL + "/" + strings.TrimLeft(stored, "/")
}

func isAbsoluteURL(p string) bool {
	return strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://")
}
