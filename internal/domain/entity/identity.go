package entity

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// VideoIdentity names a specific version of a video. Two identities with the
// same CacheKey refer to the same bytes as far as the cache is concerned.
type VideoIdentity struct {
	Key     string
	ETag    string
	Size    int64
	ModTime time.Time
}

func (v VideoIdentity) CacheKey() string {
	return fmt.Sprintf("%s|%s|%d|%d", v.Key, v.ETag, v.Size, v.ModTime.UnixNano())
}

// LocalVideoIdentity stats a file on disk and keys it by absolute path, size and mtime.
func LocalVideoIdentity(path string) (VideoIdentity, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return VideoIdentity{}, fmt.Errorf("resolve video path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return VideoIdentity{}, fmt.Errorf("stat video: %w", err)
	}
	if info.IsDir() {
		return VideoIdentity{}, fmt.Errorf("video path %q is a directory", abs)
	}
	return VideoIdentity{
		Key:     filepath.Clean(abs),
		Size:    info.Size(),
		ModTime: info.ModTime().UTC(),
	}, nil
}
