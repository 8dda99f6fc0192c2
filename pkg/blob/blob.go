// Package blob keeps loaded media in memory behind opaque handles, the way a
// browser keeps object URLs. A Store is compatible with io/fs so handles can
// be served or walked with the standard library.
package blob

import (
	"bytes"
	"io"
	"io/fs"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Scheme prefixes every handle.
const Scheme = "blob:"

// Handle is an opaque reference to data held by a Store.
type Handle string

// ID returns the handle without its scheme. It is also the handle's file
// name inside the Store's fs.FS view.
func (h Handle) ID() string {
	return strings.TrimPrefix(string(h), Scheme)
}

func (h Handle) String() string { return string(h) }

// Store is an in-memory registry of blobs. It is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	blobs map[string]*blobFile
	size  int64
}

// New creates and returns a new, empty Store.
//
// Example:
//
//	store := blob.New()
//	h := store.Create(data, "video/mp4")
//	defer store.Revoke(h)
func New() *Store {
	return &Store{blobs: make(map[string]*blobFile)}
}

// Create stores data under a fresh handle. The Store takes ownership of
// data; callers must not modify it afterwards.
func (s *Store) Create(data []byte, contentType string) Handle {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[id] = &blobFile{
		name:        id,
		content:     data,
		contentType: contentType,
		modTime:     time.Now(),
	}
	s.size += int64(len(data))
	return Handle(Scheme + id)
}

// Revoke releases the data behind h. It reports whether h was live;
// revoking an unknown or already revoked handle is a no-op.
func (s *Store) Revoke(h Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[h.ID()]
	if !ok {
		return false
	}
	delete(s.blobs, h.ID())
	s.size -= int64(len(b.content))
	return true
}

// Has reports whether h resolves to live data.
func (s *Store) Has(h Handle) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[h.ID()]
	return ok
}

// Bytes returns the data behind h. The returned slice must not be modified.
func (s *Store) Bytes(h Handle) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[h.ID()]
	if !ok {
		return nil, false
	}
	return b.content, true
}

// ContentType returns the media type recorded when h was created.
func (s *Store) ContentType(h Handle) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b, ok := s.blobs[h.ID()]; ok {
		return b.contentType
	}
	return ""
}

// Len returns the number of live handles.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

// Size returns the total number of bytes held by live handles.
func (s *Store) Size() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// Open opens the blob named by a handle ID. This method is part of the
// fs.FS interface implementation; "." opens the flat root directory.
func (s *Store) Open(name string) (fs.File, error) {
	if name == "." {
		return &dirFile{store: s}, nil
	}
	if !fs.ValidPath(name) || strings.Contains(name, "/") {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	s.mu.RLock()
	b, ok := s.blobs[strings.TrimPrefix(name, Scheme)]
	s.mu.RUnlock()
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return &blobReader{file: b, reader: bytes.NewReader(b.content)}, nil
}

// Stat returns the fs.FileInfo for a handle ID.
// This method is part of the fs.StatFS interface implementation.
func (s *Store) Stat(name string) (fs.FileInfo, error) {
	f, err := s.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.Stat()
}

// ReadDir lists every live blob, sorted by ID. Only the root directory
// exists. This method is part of the fs.ReadDirFS interface implementation.
func (s *Store) ReadDir(name string) ([]fs.DirEntry, error) {
	if name != "." {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}
	s.mu.RLock()
	entries := make([]fs.DirEntry, 0, len(s.blobs))
	for _, b := range s.blobs {
		entries = append(entries, fs.FileInfoToDirEntry(&blobInfo{file: b}))
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	return entries, nil
}

// blobFile is one stored blob. It is immutable once created.
type blobFile struct {
	name        string
	content     []byte
	contentType string
	modTime     time.Time
}

// blobInfo implements fs.FileInfo for a blobFile.
type blobInfo struct{ file *blobFile }

func (b *blobInfo) Name() string       { return b.file.name }
func (b *blobInfo) Size() int64        { return int64(len(b.file.content)) }
func (b *blobInfo) Mode() fs.FileMode  { return 0444 }
func (b *blobInfo) ModTime() time.Time { return b.file.modTime }
func (b *blobInfo) IsDir() bool        { return false }
func (b *blobInfo) Sys() interface{}   { return b.file.contentType }

// blobReader implements fs.File and io.Seeker for a blobFile, which lets
// http.FileServer answer range requests for media playback.
type blobReader struct {
	file   *blobFile
	reader *bytes.Reader
}

func (b *blobReader) Stat() (fs.FileInfo, error) { return &blobInfo{file: b.file}, nil }
func (b *blobReader) Read(p []byte) (int, error) { return b.reader.Read(p) }
func (b *blobReader) Seek(offset int64, whence int) (int64, error) {
	return b.reader.Seek(offset, whence)
}
func (b *blobReader) Close() error { return nil }

var _ io.ReadSeeker = (*blobReader)(nil)

// rootInfo implements fs.FileInfo for the root directory.
type rootInfo struct{}

func (rootInfo) Name() string       { return "." }
func (rootInfo) Size() int64        { return 0 }
func (rootInfo) Mode() fs.FileMode  { return fs.ModeDir | 0555 }
func (rootInfo) ModTime() time.Time { return time.Time{} }
func (rootInfo) IsDir() bool        { return true }
func (rootInfo) Sys() interface{}   { return nil }

// dirFile implements fs.ReadDirFile for the root directory.
type dirFile struct {
	store   *Store
	entries []fs.DirEntry
	offset  int
}

func (d *dirFile) Stat() (fs.FileInfo, error) { return rootInfo{}, nil }
func (d *dirFile) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: ".", Err: fs.ErrInvalid}
}
func (d *dirFile) Close() error { return nil }

func (d *dirFile) ReadDir(n int) ([]fs.DirEntry, error) {
	if d.entries == nil {
		d.entries, _ = d.store.ReadDir(".")
	}
	rest := d.entries[d.offset:]
	if n <= 0 {
		d.offset = len(d.entries)
		return rest, nil
	}
	if len(rest) == 0 {
		return nil, io.EOF
	}
	if n > len(rest) {
		n = len(rest)
	}
	d.offset += n
	return rest[:n], nil
}
