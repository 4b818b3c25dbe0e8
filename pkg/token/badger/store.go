// Package badger backs the token store with an embedded BadgerDB. It is the
// default backend: single-node deployments get TTL expiry and atomic
// consumption without running any external service.
package badger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/hubvault/hubvault/pkg/token"
)

// Config holds the BadgerDB backend configuration.
type Config struct {
	// Path is the directory for the database files. Ignored when InMemory
	// is set.
	Path string

	// InMemory keeps everything in RAM. Tokens do not survive a restart,
	// which for short-lived download tickets is usually acceptable.
	InMemory bool
}

// TokenStore implements token.Store on BadgerDB.
type TokenStore struct {
	db *badger.DB
}

var _ token.Store = (*TokenStore)(nil)

// New opens the BadgerDB backend.
func New(cfg Config) (*TokenStore, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, fmt.Errorf("badger token store: path is required for persistent mode")
		}
		if err := os.MkdirAll(cfg.Path, 0o700); err != nil {
			return nil, fmt.Errorf("creating token store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	// Badger's own chatter drowns the service logs; token traffic is logged
	// at the service layer where it has context.
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger token store: %w", err)
	}
	return &TokenStore{db: db}, nil
}

// Put stores value under key. Badger drops the entry on its own once ttl
// elapses; expired entries read as absent even before compaction collects
// them.
func (s *TokenStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(key), value).WithTTL(ttl))
	})
}

// Get returns the value stored under key.
func (s *TokenStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return token.ErrTokenNotFound
		}
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Del removes key. The read inside the transaction puts the key in the
// conflict set, so of several racing deleters exactly one commits; the
// others fail with ErrConflict and report false.
func (s *TokenStore) Del(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(key)); err != nil {
			return err
		}
		return txn.Delete([]byte(key))
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, badger.ErrKeyNotFound), errors.Is(err, badger.ErrConflict):
		return false, nil
	default:
		return false, err
	}
}

// Close closes the database.
func (s *TokenStore) Close() error {
	return s.db.Close()
}
