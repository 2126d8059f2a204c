package output

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"geomancer/core/merge"
	"geomancer/core/storage"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// ErrNotFound is returned by Open for unknown artifacts.
var ErrNotFound = errors.New("artifact not found")

// Artifact is an opened result file.
type Artifact struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.ReadCloser
}

// Store writes merged tables and serves them back.
type Store interface {
	merge.TableWriter
	Open(ctx context.Context, name string) (*Artifact, error)
	Expire(ctx context.Context, olderThan time.Duration) (int, error)
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ArtifactName builds "<base>_<UTC timestamp>_<short id><ext>".
func ArtifactName(filename string, now time.Time, id string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base = strings.Trim(unsafeChars.ReplaceAllString(base, "_"), "_")
	if base == "" || base == "." {
		base = "geomancer"
	}
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s_%s_%s%s", base, now.UTC().Format("20060102T150405Z"), id, FormatFor(filename))
}

// validName rejects names that could escape the result prefix.
func validName(name string) bool {
	return name != "" && !strings.ContainsAny(name, `/\`) && name != "." && name != ".."
}

// naming is shared by both stores.
type naming struct {
	urlFor func(name string) string
	now    func() time.Time
	newID  func() string
}

func newNaming(urlFor func(string) string) naming {
	if urlFor == nil {
		urlFor = func(name string) string { return "/download/" + name }
	}
	return naming{urlFor: urlFor, now: time.Now, newID: uuid.NewString}
}

// StorageStore keeps artifacts in object storage under a prefix.
type StorageStore struct {
	naming
	client storage.Client
	bucket string
	prefix string
	log    *zap.Logger
}

// NewStorageStore creates a store writing to bucket/prefix.
func NewStorageStore(client storage.Client, bucket, prefix string, urlFor func(string) string, log *zap.Logger) *StorageStore {
	if log == nil {
		log = zap.NewNop()
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &StorageStore{naming: newNaming(urlFor), client: client, bucket: bucket, prefix: prefix, log: log}
}

// WriteTable encodes and uploads the table and returns its locator.
func (s *StorageStore) WriteTable(ctx context.Context, filename string, t *merge.Table) (string, error) {
	name := ArtifactName(filename, s.now(), s.newID())
	data, err := Encode(FormatFor(filename), t)
	if err != nil {
		return "", err
	}
	_, err = s.client.PutObject(ctx, s.bucket, s.prefix+name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: ContentType(name),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", name, err)
	}
	s.log.Debug("Result uploaded", zap.String("object", s.prefix+name), zap.Int("bytes", len(data)))
	return s.urlFor(name), nil
}

// Open returns the artifact stream.
func (s *StorageStore) Open(ctx context.Context, name string) (*Artifact, error) {
	if !validName(name) {
		return nil, ErrNotFound
	}
	info, err := s.client.StatObject(ctx, s.bucket, s.prefix+name, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to stat %s: %w", name, err)
	}
	body, err := s.client.GetObject(ctx, s.bucket, s.prefix+name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	return &Artifact{Name: name, ContentType: ContentType(name), Size: info.Size, Body: body}, nil
}

// Expire removes artifacts last modified more than olderThan ago.
func (s *StorageStore) Expire(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := s.now().Add(-olderThan)
	var stale []minio.ObjectInfo
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: s.prefix, Recursive: true}) {
		if obj.Err != nil {
			return 0, fmt.Errorf("failed to list results: %w", obj.Err)
		}
		if obj.LastModified.Before(cutoff) {
			stale = append(stale, obj)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	objectsCh := make(chan minio.ObjectInfo, len(stale))
	for _, obj := range stale {
		objectsCh <- obj
	}
	close(objectsCh)

	removed := len(stale)
	for rerr := range s.client.RemoveObjects(ctx, s.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		s.log.Warn("Failed to remove result", zap.String("object", rerr.ObjectName), zap.Error(rerr.Err))
		removed--
	}
	return removed, nil
}

// LocalStore keeps artifacts in a directory.
type LocalStore struct {
	naming
	dir string
}

// NewLocalStore creates a store in dir, creating it when missing.
func NewLocalStore(dir string, urlFor func(string) string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create result dir %s: %w", dir, err)
	}
	return &LocalStore{naming: newNaming(urlFor), dir: dir}, nil
}

// WriteTable encodes the table into the directory and returns its locator.
func (s *LocalStore) WriteTable(ctx context.Context, filename string, t *merge.Table) (string, error) {
	name := ArtifactName(filename, s.now(), s.newID())
	data, err := Encode(FormatFor(filename), t)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	return s.urlFor(name), nil
}

// Path returns the on-disk path of an artifact.
func (s *LocalStore) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

// Open returns the artifact stream.
func (s *LocalStore) Open(ctx context.Context, name string) (*Artifact, error) {
	if !validName(name) {
		return nil, ErrNotFound
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Artifact{Name: name, ContentType: ContentType(name), Size: info.Size(), Body: f}, nil
}

// Expire removes artifacts modified more than olderThan ago.
func (s *LocalStore) Expire(ctx context.Context, olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}
	cutoff := s.now().Add(-olderThan)
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, e.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}
