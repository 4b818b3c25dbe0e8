package content

import (
	"context"
	"io"
)

// Backend is the project-keyed surface the lifecycle engine consumes. The
// encrypted store implements it directly; the plain store implements it
// through Standard, which ignores the project id.
type Backend interface {
	// Put stores the file at sourcePath for the given project and returns
	// the content hash and stored size.
	Put(ctx context.Context, sourcePath, projectID string) (hash string, size uint64, err error)

	// Open returns a reader over the stored plaintext.
	Open(ctx context.Context, hash, projectID string) (io.ReadCloser, error)

	// Exists reports whether a blob with the given hash is present.
	Exists(ctx context.Context, hash string) (bool, error)

	// BlobPath returns the filesystem path a hash maps to.
	BlobPath(hash string) string

	// PlaintextSize maps a stored blob size to the byte count a reader
	// of that blob yields. Encrypting backends store more than Open
	// returns, and Content-Length must describe the returned bytes.
	PlaintextSize(stored uint64) uint64
}

// Standard adapts the plain Store to Backend. Blobs are stored as-is and
// the project id plays no role; hashes are hashes of the plaintext.
type Standard struct {
	*Store
}

// NewStandard wraps a plain store for use as an engine backend.
func NewStandard(s *Store) Standard {
	return Standard{Store: s}
}

// Put implements Backend, discarding the project id.
func (b Standard) Put(ctx context.Context, sourcePath, _ string) (string, uint64, error) {
	return b.Store.Put(ctx, sourcePath)
}

// Open implements Backend, discarding the project id.
func (b Standard) Open(ctx context.Context, hash, _ string) (io.ReadCloser, error) {
	return b.Store.Open(ctx, hash)
}

// PlaintextSize implements Backend. Blobs are stored as-is, so the stored
// size is the readable size.
func (b Standard) PlaintextSize(stored uint64) uint64 {
	return stored
}
