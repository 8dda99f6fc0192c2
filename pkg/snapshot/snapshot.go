// Package snapshot packages a settled preload run into a tar archive: the
// media behind every live handle plus a report.json describing the run.
package snapshot

import (
	"archive/tar"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/Snider/Preloader/pkg/blob"
	"github.com/Snider/Preloader/pkg/compress"
	"github.com/Snider/Preloader/pkg/preload"
)

// ReportName is the archive entry holding the run report.
const ReportName = "report.json"

// MediaDir prefixes every media entry.
const MediaDir = "media/"

// Report is the JSON summary stored alongside the media.
type Report struct {
	CreatedAt time.Time       `json:"created_at"`
	Progress  float64         `json:"progress"`
	Total     int             `json:"total"`
	Loaded    int             `json:"loaded"`
	Cancelled bool            `json:"cancelled"`
	Handles   []HandleRecord  `json:"handles"`
	Failures  []FailureRecord `json:"failures"`
}

// HandleRecord places one loaded asset in the archive.
type HandleRecord struct {
	URL         string `json:"url"`
	Handle      string `json:"handle"`
	Path        string `json:"path"`
	ContentType string `json:"content_type,omitempty"`
	Size        int    `json:"size"`
}

// FailureRecord is one failed asset.
type FailureRecord struct {
	URL    string `json:"url"`
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
	Error  string `json:"error"`
}

// NewReport summarizes res. Handles whose bytes are no longer in store are
// left out.
func NewReport(res preload.Result, store *blob.Store, now time.Time) Report {
	rep := Report{
		CreatedAt: now.UTC(),
		Progress:  res.Progress,
		Total:     res.Total,
		Loaded:    res.Loaded(),
		Cancelled: res.Cancelled,
		Handles:   []HandleRecord{},
		Failures:  []FailureRecord{},
	}

	urls := make([]string, 0, len(res.Handles))
	for u := range res.Handles {
		urls = append(urls, u)
	}
	sort.Strings(urls)

	used := map[string]bool{}
	for _, u := range urls {
		h := res.Handles[u]
		data, ok := store.Bytes(h)
		if !ok {
			continue
		}
		name := mediaPath(u, h)
		if used[name] {
			name = MediaDir + h.ID() + path.Ext(name)
		}
		used[name] = true
		rep.Handles = append(rep.Handles, HandleRecord{
			URL:         u,
			Handle:      string(h),
			Path:        name,
			ContentType: store.ContentType(h),
			Size:        len(data),
		})
	}

	for _, f := range res.Failures {
		rep.Failures = append(rep.Failures, FailureRecord{
			URL:    f.URL,
			Kind:   f.Kind.String(),
			Reason: preload.Reason(f),
			Error:  f.Err.Error(),
		})
	}
	return rep
}

// mediaPath maps an asset URL to its archive entry, media/<url path>.
func mediaPath(rawURL string, h blob.Handle) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	if p == "" || p == "." {
		p = h.ID()
	}
	return MediaDir + p
}

// Build writes res as a tar archive to w.
func Build(w io.Writer, res preload.Result, store *blob.Store) error {
	now := time.Now()
	rep := NewReport(res, store, now)
	tw := tar.NewWriter(w)

	for _, rec := range rep.Handles {
		data, ok := store.Bytes(blob.Handle(rec.Handle))
		if !ok {
			return fmt.Errorf("handle %s was released while archiving", rec.Handle)
		}
		if err := writeEntry(tw, rec.Path, data, now); err != nil {
			return err
		}
	}

	report, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := writeEntry(tw, ReportName, report, now); err != nil {
		return err
	}
	return tw.Close()
}

func writeEntry(tw *tar.Writer, name string, data []byte, modTime time.Time) error {
	hdr := &tar.Header{
		Name:    name,
		Mode:    0600,
		Size:    int64(len(data)),
		ModTime: modTime,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("write %s header: %w", name, err)
	}
	if _, err := tw.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// WriteFile builds the archive, compresses it with format and writes it to
// the named file.
func WriteFile(name string, res preload.Result, store *blob.Store, format string) error {
	var buf bytes.Buffer
	if err := Build(&buf, res, store); err != nil {
		return err
	}
	data, err := compress.Compress(buf.Bytes(), format)
	if err != nil {
		return fmt.Errorf("compress snapshot: %w", err)
	}
	if err := os.WriteFile(name, data, 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// ReadReport decompresses an archive produced by WriteFile and returns its
// report and media entries keyed by archive path.
func ReadReport(data []byte) (Report, map[string][]byte, error) {
	var rep Report
	raw, err := compress.Decompress(data)
	if err != nil {
		return rep, nil, fmt.Errorf("decompress snapshot: %w", err)
	}

	media := map[string][]byte{}
	found := false
	tr := tar.NewReader(bytes.NewReader(raw))
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rep, nil, fmt.Errorf("read snapshot: %w", err)
		}
		content, err := io.ReadAll(tr)
		if err != nil {
			return rep, nil, fmt.Errorf("read %s: %w", hdr.Name, err)
		}
		if hdr.Name == ReportName {
			if err := json.Unmarshal(content, &rep); err != nil {
				return rep, nil, fmt.Errorf("decode report: %w", err)
			}
			found = true
			continue
		}
		media[hdr.Name] = content
	}
	if !found {
		return rep, nil, fmt.Errorf("snapshot has no %s", ReportName)
	}
	return rep, media, nil
}
