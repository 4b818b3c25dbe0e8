// Package content implements the content-addressed blob store.
//
// Blobs are laid out on a local filesystem under a configured base path,
// fanned out by hash prefix as <base>/<h[0:2]>/<h[2:4]>/<h> where h is the
// lowercase hex SHA-256 of the stored bytes. Identical content stores once;
// later stores of the same bytes are deduplicated by path existence.
//
// Writes are crash-safe: content goes to a temporary file first and is
// renamed into place, so readers never observe a partially written blob.
package content

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hubvault/hubvault/internal/telemetry"
	vaulterrors "github.com/hubvault/hubvault/pkg/engine/errors"
)

// copyBufferSize is the buffer used for streaming hash and copy operations.
const copyBufferSize = 64 * 1024

// HashSize is the length of a content hash in hex characters.
const HashSize = 64

// Config holds configuration for the content store.
type Config struct {
	// BasePath is the root directory for blob storage.
	BasePath string

	// CreateDir creates the base directory if it doesn't exist.
	// Default: true
	CreateDir bool

	// DirMode is the permission mode for created directories.
	// Default: 0755
	DirMode os.FileMode

	// FileMode is the permission mode for created files.
	// Default: 0644
	FileMode os.FileMode
}

// DefaultConfig returns the default configuration rooted at basePath.
func DefaultConfig(basePath string) Config {
	return Config{
		BasePath:  basePath,
		CreateDir: true,
		DirMode:   0755,
		FileMode:  0644,
	}
}

// Store is a filesystem-backed content-addressed blob store.
//
// The store holds no in-process state: concurrent Puts of the same content
// each write their own temporary file and race to the rename, which is atomic
// and leaves identical bytes in place whichever wins.
type Store struct {
	basePath string
	dirMode  os.FileMode
	fileMode os.FileMode
}

// StorageStats summarizes the blobs currently on disk.
type StorageStats struct {
	BlobCount  uint64 `json:"blob_count"`
	TotalBytes uint64 `json:"total_bytes"`
}

// New creates a content store with the given configuration.
func New(cfg Config) (*Store, error) {
	if cfg.BasePath == "" {
		return nil, errors.New("base path is required")
	}

	if cfg.DirMode == 0 {
		cfg.DirMode = 0755
	}
	if cfg.FileMode == 0 {
		cfg.FileMode = 0644
	}

	if cfg.CreateDir {
		if err := os.MkdirAll(cfg.BasePath, cfg.DirMode); err != nil {
			return nil, err
		}
	}

	info, err := os.Stat(cfg.BasePath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("base path is not a directory")
	}

	return &Store{
		basePath: cfg.BasePath,
		dirMode:  cfg.DirMode,
		fileMode: cfg.FileMode,
	}, nil
}

// NewWithPath creates a content store with default configuration.
func NewWithPath(basePath string) (*Store, error) {
	return New(DefaultConfig(basePath))
}

// BasePath returns the root directory of the store.
func (s *Store) BasePath() string {
	return s.basePath
}

// BlobPath returns the filesystem path a hash maps to. It does not check
// whether the blob exists.
func (s *Store) BlobPath(hash string) string {
	return filepath.Join(s.basePath, hash[0:2], hash[2:4], hash)
}

// ValidHash reports whether h is a well-formed content hash: 64 lowercase
// hex characters.
func ValidHash(h string) bool {
	if len(h) != HashSize {
		return false
	}
	for _, c := range h {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// HashFile computes the lowercase hex SHA-256 of a file's contents, streaming
// with a fixed-size buffer so arbitrarily large files hash in constant memory.
func HashFile(path string) (hash string, size uint64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, copyBufferSize)
	n, err := io.CopyBuffer(h, f, buf)
	if err != nil {
		return "", 0, err
	}

	return hex.EncodeToString(h.Sum(nil)), uint64(n), nil
}

// Put stores the file at sourcePath and returns its content hash and size.
//
// If a blob with the same hash already exists the existing blob is kept and
// its size returned; the source is not rewritten. Otherwise the content is
// copied to a temporary file beside the final path and renamed into place.
func (s *Store) Put(ctx context.Context, sourcePath string) (hash string, size uint64, err error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	hash, size, err = HashFile(sourcePath)
	if err != nil {
		return "", 0, fmt.Errorf("hashing %s: %w", sourcePath, err)
	}

	_, span := telemetry.StartContentSpan(ctx, telemetry.SpanContentWrite, hash)
	defer span.End()

	blobPath := s.BlobPath(hash)

	// Deduplication: an existing blob with this hash already holds these bytes.
	if info, err := os.Stat(blobPath); err == nil {
		return hash, uint64(info.Size()), nil
	}

	dir := filepath.Dir(blobPath)
	if err := os.MkdirAll(dir, s.dirMode); err != nil {
		return "", 0, err
	}

	if err := s.writeBlob(sourcePath, blobPath, dir); err != nil {
		return "", 0, err
	}

	return hash, size, nil
}

// writeBlob copies sourcePath to blobPath via a temporary file in the same
// directory. The temp file carries a leading dot so directory walks skip it.
func (s *Store) writeBlob(sourcePath, blobPath, dir string) error {
	src, err := os.Open(sourcePath)
	if err != nil {
		return err
	}
	defer src.Close()

	tmp, err := os.CreateTemp(dir, ".put-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	buf := make([]byte, copyBufferSize)
	if _, err := io.CopyBuffer(tmp, src, buf); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, s.fileMode); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, blobPath); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// Open returns a reader over the blob with the given hash. The caller owns
// the returned ReadCloser.
func (s *Store) Open(ctx context.Context, hash string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ValidHash(hash) {
		return nil, vaulterrors.NewInvalidArgumentError(fmt.Sprintf("malformed content hash %q", hash))
	}

	_, span := telemetry.StartContentSpan(ctx, telemetry.SpanContentRead, hash)
	defer span.End()

	f, err := os.Open(s.BlobPath(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, vaulterrors.NewNotFoundError(hash, "content blob")
		}
		return nil, err
	}
	return f, nil
}

// Exists reports whether a blob with the given hash is present.
func (s *Store) Exists(ctx context.Context, hash string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if !ValidHash(hash) {
		return false, vaulterrors.NewInvalidArgumentError(fmt.Sprintf("malformed content hash %q", hash))
	}

	_, err := os.Stat(s.BlobPath(hash))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Size returns the on-disk size of a blob.
func (s *Store) Size(ctx context.Context, hash string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if !ValidHash(hash) {
		return 0, vaulterrors.NewInvalidArgumentError(fmt.Sprintf("malformed content hash %q", hash))
	}

	info, err := os.Stat(s.BlobPath(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, vaulterrors.NewNotFoundError(hash, "content blob")
		}
		return 0, err
	}
	return uint64(info.Size()), nil
}

// Delete removes a blob. Deleting a blob that does not exist is a success;
// delete is idempotent. Empty fan-out directories left behind are cleaned up.
func (s *Store) Delete(ctx context.Context, hash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !ValidHash(hash) {
		return vaulterrors.NewInvalidArgumentError(fmt.Sprintf("malformed content hash %q", hash))
	}

	blobPath := s.BlobPath(hash)
	if err := os.Remove(blobPath); err != nil && !os.IsNotExist(err) {
		return err
	}

	s.cleanEmptyDirs(filepath.Dir(blobPath))
	return nil
}

// cleanEmptyDirs removes empty directories up to the base path.
func (s *Store) cleanEmptyDirs(dir string) {
	for dir != s.basePath && strings.HasPrefix(dir, s.basePath) {
		if err := os.Remove(dir); err != nil {
			// Directory not empty or other error, stop
			break
		}
		dir = filepath.Dir(dir)
	}
}

// Stats walks the store and returns blob count and total bytes. Temporary
// files from in-flight writes are excluded.
func (s *Store) Stats(ctx context.Context) (*StorageStats, error) {
	stats := &StorageStats{}

	err := filepath.WalkDir(s.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			// Blob deleted between listing and stat; skip it.
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}

		stats.BlobCount++
		stats.TotalBytes += uint64(info.Size())
		return nil
	})
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// ListHashes walks the store and returns the hash of every blob on disk.
// Used by the orphan sweep to reconcile disk contents against the database.
func (s *Store) ListHashes(ctx context.Context) ([]string, error) {
	var hashes []string

	err := filepath.WalkDir(s.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if d.IsDir() {
			return nil
		}
		if !ValidHash(d.Name()) {
			return nil
		}
		hashes = append(hashes, d.Name())
		return nil
	})
	if err != nil {
		return nil, err
	}

	return hashes, nil
}

// HealthCheck verifies the base path is still accessible.
func (s *Store) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := os.Stat(s.basePath)
	return err
}
