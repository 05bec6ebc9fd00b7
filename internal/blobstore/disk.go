// Package blobstore provides blob storage backends for uploaded media.
package blobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"Picfeed/internal/core/blobs"
)

// ErrInvalidBasePath is returned when the store root is empty
var ErrInvalidBasePath = errors.New("blob store base path cannot be empty")

const metaSuffix = ".meta.json"

// objectMeta is persisted next to each object so the content type survives restarts.
type objectMeta struct {
	CreatedAt   time.Time `json:"createdAt"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
}

// DiskStore implements blobs.Store on the local filesystem.
// Object path format: {basePath}/{key}, with the metadata at {basePath}/{key}.meta.json
type DiskStore struct {
	basePath      string
	publicBaseURL string
	logger        *slog.Logger
}

// NewDiskStore creates a DiskStore rooted at basePath. Public URLs are built as
// {publicBaseURL}/media/{key}.
func NewDiskStore(basePath, publicBaseURL string, logger *slog.Logger) (*DiskStore, error) {
	if basePath == "" {
		return nil, ErrInvalidBasePath
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &DiskStore{
		basePath:      basePath,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
		logger:        logger,
	}, nil
}

func (s *DiskStore) objectPath(key string) string {
	return filepath.Join(s.basePath, filepath.FromSlash(key))
}

// Put writes the object atomically. Without Overwrite, the final path is created
// with a hard link so a concurrent writer of the same key loses with ErrObjectExists.
func (s *DiskStore) Put(ctx context.Context, key string, data []byte, opts blobs.PutOptions) error {
	if err := blobs.ValidateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	path := s.objectPath(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp object: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if removeErr := os.Remove(tmpPath); removeErr != nil && !os.IsNotExist(removeErr) {
			s.logger.Warn("failed to remove temp object", "path", tmpPath, "error", removeErr)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write object: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close object: %w", err)
	}

	if opts.Overwrite {
		if err := os.Rename(tmpPath, path); err != nil {
			return fmt.Errorf("failed to store object: %w", err)
		}
	} else {
		if err := os.Link(tmpPath, path); err != nil {
			if errors.Is(err, os.ErrExist) {
				return blobs.ErrObjectExists
			}
			return fmt.Errorf("failed to store object: %w", err)
		}
	}

	meta := objectMeta{
		CreatedAt:   time.Now().UTC(),
		ContentType: opts.ContentType,
		Size:        int64(len(data)),
	}
	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to encode object metadata: %w", err)
	}
	if err := os.WriteFile(path+metaSuffix, metaBytes, 0o644); err != nil {
		// An object without metadata is not servable with the right type; undo it.
		_ = os.Remove(path)
		return fmt.Errorf("failed to write object metadata: %w", err)
	}

	return nil
}

// PublicURL returns the URL under which the media route serves the key.
func (s *DiskStore) PublicURL(key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return s.publicBaseURL + "/media/" + strings.Join(segments, "/")
}

// Delete removes the object and its metadata. Returns nil if the object doesn't exist.
func (s *DiskStore) Delete(ctx context.Context, key string) error {
	if err := blobs.ValidateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	path := s.objectPath(key)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	if err := os.Remove(path + metaSuffix); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete object metadata: %w", err)
	}

	s.cleanEmptyDirs(filepath.Dir(path))
	return nil
}

// Exists reports whether an object is stored at key.
func (s *DiskStore) Exists(key string) (bool, error) {
	if err := blobs.ValidateKey(key); err != nil {
		return false, err
	}
	_, err := os.Stat(s.objectPath(key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Object is an open stored object.
type Object struct {
	io.ReadSeekCloser
	ModTime     time.Time
	ContentType string
	Size        int64
}

// Open returns the stored object for serving. Missing keys yield blobs.ErrObjectNotFound.
func (s *DiskStore) Open(key string) (*Object, error) {
	if err := blobs.ValidateKey(key); err != nil {
		return nil, err
	}
	if strings.HasSuffix(key, metaSuffix) {
		return nil, blobs.ErrObjectNotFound
	}

	path := s.objectPath(key)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, blobs.ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to open object: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to stat object: %w", err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, blobs.ErrObjectNotFound
	}

	obj := &Object{
		ReadSeekCloser: f,
		ModTime:        info.ModTime(),
		Size:           info.Size(),
	}

	metaBytes, err := os.ReadFile(path + metaSuffix)
	if err != nil {
		s.logger.Warn("object metadata missing, serving without content type", "key", key, "error", err)
		return obj, nil
	}
	var meta objectMeta
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		s.logger.Warn("object metadata unreadable", "key", key, "error", err)
		return obj, nil
	}
	obj.ContentType = meta.ContentType
	return obj, nil
}

// cleanEmptyDirs removes now-empty owner directories up to (not including) basePath.
func (s *DiskStore) cleanEmptyDirs(dir string) {
	base := filepath.Clean(s.basePath)
	for dir = filepath.Clean(dir); dir != base && strings.HasPrefix(dir, base); dir = filepath.Dir(dir) {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
	}
}
