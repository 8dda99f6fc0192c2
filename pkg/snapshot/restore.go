package snapshot

import (
	"fmt"
	"os"

	"github.com/Snider/Preloader/pkg/blob"
	"github.com/Snider/Preloader/pkg/preload"
)

// Restore loads the media of a snapshot archive into store under fresh
// handles and returns them keyed by original URL, alongside the report.
func Restore(data []byte, store *blob.Store) (preload.HandleMap, Report, error) {
	rep, media, err := ReadReport(data)
	if err != nil {
		return nil, rep, err
	}
	handles := make(preload.HandleMap, len(rep.Handles))
	for _, rec := range rep.Handles {
		content, ok := media[rec.Path]
		if !ok {
			for _, h := range handles {
				store.Revoke(h)
			}
			return nil, rep, fmt.Errorf("snapshot is missing %s for %s", rec.Path, rec.URL)
		}
		handles[rec.URL] = store.Create(content, rec.ContentType)
	}
	return handles, rep, nil
}

// RestoreFile is Restore for an archive on disk.
func RestoreFile(name string, store *blob.Store) (preload.HandleMap, Report, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, Report{}, fmt.Errorf("read snapshot: %w", err)
	}
	return Restore(data, store)
}
