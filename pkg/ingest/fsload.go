package ingest

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
)

// LoadFiles walks root (a local path or any afs-supported URL scheme — s3://,
// gs://, mem://, ...) and reads every regular file into memory, keyed by its
// path relative to root. It is the bridge between a filesystem (or object
// store) and Pipeline.Run's in-memory file-set shape.
func LoadFiles(ctx context.Context, fs afs.Service, root string) (map[string][]byte, error) {
	files := make(map[string][]byte)

	var walkErr error
	visitor := func(ctx context.Context, baseURL, parent string, info os.FileInfo, reader io.Reader) (bool, error) {
		if info.IsDir() {
			return true, nil
		}
		content, err := io.ReadAll(reader)
		if err != nil {
			walkErr = fmt.Errorf("ingest: read %s: %w", url.Join(parent, info.Name()), err)
			return false, walkErr
		}
		relPath := url.Join(parent, info.Name())
		files[relPath] = content
		return true, nil
	}

	var onVisit storage.OnVisit = visitor
	if err := fs.Walk(ctx, root, onVisit); err != nil {
		return nil, fmt.Errorf("ingest: walk %s: %w", root, err)
	}
	return files, nil
}
