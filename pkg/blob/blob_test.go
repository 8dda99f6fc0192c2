package blob

import (
	"io"
	"io/fs"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
)

func TestStore(t *testing.T) {
	s := New()
	h := s.Create([]byte("video bytes"), "video/mp4")

	if !strings.HasPrefix(string(h), Scheme) {
		t.Fatalf("expected handle %q to carry the %q scheme", h, Scheme)
	}
	if !s.Has(h) {
		t.Fatal("expected the new handle to resolve")
	}
	data, ok := s.Bytes(h)
	if !ok || string(data) != "video bytes" {
		t.Errorf("Bytes = %q, %v", data, ok)
	}
	if ct := s.ContentType(h); ct != "video/mp4" {
		t.Errorf("ContentType = %q, want video/mp4", ct)
	}
	if s.Len() != 1 || s.Size() != int64(len("video bytes")) {
		t.Errorf("Len = %d, Size = %d", s.Len(), s.Size())
	}

	// Open via the fs view.
	f, err := s.Open(h.ID())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	content, err := io.ReadAll(f)
	f.Close()
	if err != nil || string(content) != "video bytes" {
		t.Errorf("read %q, %v", content, err)
	}

	if !s.Revoke(h) {
		t.Error("expected the first Revoke to report a live handle")
	}
	if s.Revoke(h) {
		t.Error("expected a second Revoke to be a no-op")
	}
	if s.Has(h) || s.Len() != 0 || s.Size() != 0 {
		t.Errorf("handle still live after revoke: Len = %d, Size = %d", s.Len(), s.Size())
	}
	if _, err := s.Open(h.ID()); err == nil {
		t.Error("expected Open to fail for a revoked handle")
	}
}

func TestStore_Unique(t *testing.T) {
	s := New()
	a := s.Create([]byte("a"), "")
	b := s.Create([]byte("a"), "")
	if a == b {
		t.Fatal("expected distinct handles for distinct Create calls")
	}
}

func TestStore_FS(t *testing.T) {
	s := New()
	a := s.Create([]byte("alpha"), "audio/wav")
	b := s.Create([]byte("beta"), "video/mp4")

	if err := fstest.TestFS(s, a.ID(), b.ID()); err != nil {
		t.Fatalf("fstest.TestFS: %v", err)
	}

	entries, err := fs.ReadDir(s, ".")
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(entries))
	}
	if _, err := s.ReadDir("nested"); err == nil {
		t.Error("expected an error reading a non-root directory")
	}
}

func TestStore_Concurrent(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	handles := make(chan Handle, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			handles <- s.Create([]byte("x"), "")
		}()
	}
	wg.Wait()
	close(handles)

	if s.Len() != 64 {
		t.Fatalf("expected 64 handles, got %d", s.Len())
	}
	for h := range handles {
		s.Revoke(h)
	}
	if s.Len() != 0 {
		t.Errorf("expected an empty store, got %d", s.Len())
	}
}
