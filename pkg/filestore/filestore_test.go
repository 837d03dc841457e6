package filestore

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), "/files", 1<<20)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func multipartFixture(t *testing.T, field, name, content string) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile(field, name)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	w.Close()

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		t.Fatalf("parse multipart: %v", err)
	}
	return req.MultipartForm.File[field][0]
}

func TestSaveKeepsExtension(t *testing.T) {
	s := newTestStore(t)
	fh := multipartFixture(t, "file", "devis.pdf", "pdf-bytes")

	rel, err := s.Save(fh, "quotes")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(rel, "quotes/") || !strings.HasSuffix(rel, ".pdf") {
		t.Errorf("unexpected stored path %q", rel)
	}

	data, err := os.ReadFile(filepath.Join(s.Root(), filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "pdf-bytes" {
		t.Errorf("content mismatch: %q", data)
	}
}

func TestSaveRespectsSizeLimit(t *testing.T) {
	s, err := New(t.TempDir(), "/files", 4)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	fh := multipartFixture(t, "file", "big.pdf", "more than four bytes")
	if _, err := s.Save(fh, "quotes"); err == nil {
		t.Error("oversized upload should be refused")
	}
}

func TestSaveRejectsDisallowedExtensions(t *testing.T) {
	s := newTestStore(t)

	for _, name := range []string{"shell.sh", "payload.exe", "noext", "script.pdf.js"} {
		fh := multipartFixture(t, "file", name, "x")
		if _, err := s.Save(fh, "quotes"); err == nil {
			t.Errorf("upload %q should be refused", name)
		}
	}

	for _, name := range []string{"scan.PDF", "photo.JPEG", "devis.docx"} {
		fh := multipartFixture(t, "file", name, "x")
		if _, err := s.Save(fh, "quotes"); err != nil {
			t.Errorf("upload %q should be accepted: %v", name, err)
		}
	}
}

func TestURLResolution(t *testing.T) {
	s := newTestStore(t)

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"quotes/a.pdf", "/files/quotes/a.pdf"},
		{"/quotes/a.pdf", "/files/quotes/a.pdf"},
		{"http://cdn.example.com/a.pdf", "http://cdn.example.com/a.pdf"},
		{"https://cdn.example.com/a.pdf", "https://cdn.example.com/a.pdf"},
	}
	for _, tc := range tests {
		if got := s.URL(tc.in); got != tc.want {
			t.Errorf("URL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRemoveMissingIsNoError(t *testing.T) {
	s := newTestStore(t)
	if err := s.Remove("quotes/gone.pdf"); err != nil {
		t.Errorf("remove missing: %v", err)
	}
	if err := s.Remove("https://cdn.example.com/a.pdf"); err != nil {
		t.Errorf("remove absolute URL should be a no-op: %v", err)
	}
}
