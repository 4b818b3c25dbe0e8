// Package lock implements the exclusive check-out claim on vault files.
//
// One lock exists per file at most; the file id is the primary key of the
// lock table, so concurrent acquirers contend on row identity inside the
// database and exactly one wins. The manager composes the store's
// single-statement primitives and never holds a process mutex across I/O,
// which keeps its behavior identical on SQLite and PostgreSQL and across
// multiple server replicas.
//
// Expiry is logical: a lock whose expires-at has passed is treated as absent
// by readers, may be taken over by acquirers, and is physically removed by
// opportunistic reaping or the periodic sweep.
package lock

import (
	"context"
	"errors"
	"time"

	"github.com/hubvault/hubvault/internal/logger"
	vaulterrors "github.com/hubvault/hubvault/pkg/engine/errors"
	"github.com/hubvault/hubvault/pkg/models"
	"github.com/hubvault/hubvault/pkg/store"
)

// DefaultTTL is how long a check-out lasts unless configured otherwise.
const DefaultTTL = 24 * time.Hour

// acquireAttempts bounds how often Acquire re-reads after losing a race.
// Two passes settle any single concurrent writer; more than that means the
// row is churning and the caller gets a Locked error like any other loser.
const acquireAttempts = 3

// nowFunc returns the current time (allows mocking in tests).
var nowFunc = time.Now

// Manager serializes file check-outs through the lock table.
type Manager struct {
	store *store.Store
	ttl   time.Duration
}

// NewManager creates a lock manager issuing locks that last ttl.
//
// The TTL is used as given: a zero or negative value produces locks that
// have already lapsed when read back. The configuration layer supplies the
// 24 hour default.
func NewManager(s *store.Store, ttl time.Duration) *Manager {
	return &Manager{store: s, ttl: ttl}
}

// WithStore returns a manager bound to a different store, typically the
// transaction-scoped store inside store.Transaction, so lock release can
// commit atomically with other writes.
func (m *Manager) WithStore(s *store.Store) *Manager {
	return &Manager{store: s, ttl: m.ttl}
}

// TTL returns the configured lock lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Acquire checks the file out to userID.
//
// Holding the lock already refreshes it: the expiry restarts and the reason
// is updated. A live foreign lock yields a Locked error carrying the holder
// and expiry. An expired foreign lock is taken over in place. Racing
// acquirers resolve on the database row; the loser observes the winner.
func (m *Manager) Acquire(ctx context.Context, fileID, userID string, reason *string) (*models.FileLock, error) {
	var lastSeen *models.FileLock

	for attempt := 0; attempt < acquireAttempts; attempt++ {
		lock, seen, err := m.tryAcquire(ctx, fileID, userID, reason)
		if err != nil || lock != nil {
			return lock, err
		}
		// The row changed between our read and our write. Re-read and try
		// again; the next pass observes the settled state.
		lastSeen = seen
	}

	return nil, lockedError(fileID, lastSeen)
}

// tryAcquire performs one read-then-write pass. A (nil, seen, nil) return
// means the pass went stale and should be repeated.
func (m *Manager) tryAcquire(ctx context.Context, fileID, userID string, reason *string) (*models.FileLock, *models.FileLock, error) {
	now := nowFunc().UTC()
	expiry := now.Add(m.ttl)

	existing, err := m.store.GetLock(ctx, fileID)
	switch {
	case errors.Is(err, models.ErrLockNotFound):
		claim := &models.FileLock{
			FileID:    fileID,
			LockedBy:  userID,
			LockedAt:  now,
			ExpiresAt: &expiry,
			Reason:    reason,
		}
		inserted, err := m.store.InsertLockIfAbsent(ctx, claim)
		if err != nil {
			return nil, nil, err
		}
		if inserted {
			logger.DebugCtx(ctx, "lock acquired",
				logger.File(fileID), logger.LockOwner(userID))
			return claim, nil, nil
		}
		// Lost the insert race; the winner's row decides the outcome.
		winner, gerr := m.store.GetLock(ctx, fileID)
		if errors.Is(gerr, models.ErrLockNotFound) {
			return nil, nil, nil // winner already released, go again
		}
		if gerr != nil {
			return nil, nil, gerr
		}
		if winner.HeldBy(userID, now) {
			return winner, nil, nil
		}
		return nil, nil, lockedError(fileID, winner)

	case err != nil:
		return nil, nil, err
	}

	if existing.LockedBy == userID {
		refreshed, err := m.store.RefreshLock(ctx, fileID, userID, now, &expiry, reason)
		if err != nil {
			return nil, nil, err
		}
		if !refreshed {
			return nil, existing, nil // force-released under us
		}
		logger.DebugCtx(ctx, "lock refreshed",
			logger.File(fileID), logger.LockOwner(userID))
		return m.readBack(ctx, fileID)
	}

	if !existing.Expired(now) {
		return nil, nil, lockedError(fileID, existing)
	}

	takeover := &models.FileLock{
		FileID:    fileID,
		LockedBy:  userID,
		LockedAt:  now,
		ExpiresAt: &expiry,
		Reason:    reason,
	}
	taken, err := m.store.TakeOverExpiredLock(ctx, takeover, now)
	if err != nil {
		return nil, nil, err
	}
	if !taken {
		return nil, existing, nil // reaped or stolen under us
	}
	logger.InfoCtx(ctx, "expired lock taken over",
		logger.File(fileID), logger.LockOwner(userID),
		logger.Reason("previous holder "+existing.LockedBy))
	return takeover, nil, nil
}

// readBack fetches the row just written so the caller sees stored values.
func (m *Manager) readBack(ctx context.Context, fileID string) (*models.FileLock, *models.FileLock, error) {
	lock, err := m.store.GetLock(ctx, fileID)
	if errors.Is(err, models.ErrLockNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return lock, nil, nil
}

// lockedError builds the contention error callers act on. The holder details
// may be absent when the competing row kept changing.
func lockedError(fileID string, lock *models.FileLock) error {
	if lock == nil {
		return vaulterrors.NewLockedError(fileID, "", time.Time{}, time.Time{})
	}
	var expiresAt time.Time
	if lock.ExpiresAt != nil {
		expiresAt = *lock.ExpiresAt
	}
	return vaulterrors.NewLockedError(fileID, lock.LockedBy, lock.LockedAt, expiresAt)
}

// Release checks the file back in. Only the holder may release; anyone else
// gets a NotLockOwner error and an absent lock yields LockNotFound.
//
// An expired lock still releases if the caller owns it. Expiry exists to
// unblock other acquirers, not to fail an owner who is finishing up.
func (m *Manager) Release(ctx context.Context, fileID, userID string) error {
	deleted, err := m.store.DeleteLockIfOwner(ctx, fileID, userID)
	if err != nil {
		return err
	}
	if deleted {
		logger.DebugCtx(ctx, "lock released",
			logger.File(fileID), logger.LockOwner(userID))
		return nil
	}

	_, err = m.store.GetLock(ctx, fileID)
	if errors.Is(err, models.ErrLockNotFound) {
		return vaulterrors.NewLockNotFoundError(fileID)
	}
	if err != nil {
		return err
	}
	return vaulterrors.NewNotLockOwnerError(fileID, userID)
}

// ForceRelease removes the lock regardless of holder. Administrative path;
// the caller is responsible for auditing the override.
func (m *Manager) ForceRelease(ctx context.Context, fileID string) error {
	err := m.store.DeleteLock(ctx, fileID)
	if errors.Is(err, models.ErrLockNotFound) {
		return vaulterrors.NewLockNotFoundError(fileID)
	}
	if err != nil {
		return err
	}
	logger.InfoCtx(ctx, "lock force released", logger.File(fileID))
	return nil
}

// Get returns the live lock on a file. Expired locks are reported as absent
// and opportunistically reaped.
func (m *Manager) Get(ctx context.Context, fileID string) (*models.FileLock, error) {
	lock, err := m.store.GetLock(ctx, fileID)
	if errors.Is(err, models.ErrLockNotFound) {
		return nil, vaulterrors.NewLockNotFoundError(fileID)
	}
	if err != nil {
		return nil, err
	}

	now := nowFunc().UTC()
	if lock.Expired(now) {
		m.reapOne(ctx, fileID, now)
		return nil, vaulterrors.NewLockNotFoundError(fileID)
	}
	return lock, nil
}

// List returns the live locks held on files in a project. Expired locks
// are filtered out but left for the reaper.
func (m *Manager) List(ctx context.Context, projectID string) ([]*models.FileLock, error) {
	locks, err := m.store.ListLocksByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	now := nowFunc().UTC()
	live := locks[:0]
	for _, lock := range locks {
		if !lock.Expired(now) {
			live = append(live, lock)
		}
	}
	return live, nil
}

// IsLocked reports whether a live lock exists on the file.
func (m *Manager) IsLocked(ctx context.Context, fileID string) (bool, error) {
	_, err := m.Get(ctx, fileID)
	if err == nil {
		return true, nil
	}
	if vaulterrors.CodeOf(err) == vaulterrors.ErrLockNotFound {
		return false, nil
	}
	return false, err
}

// IsLockedBy reports whether userID holds a live lock on the file.
func (m *Manager) IsLockedBy(ctx context.Context, fileID, userID string) (bool, error) {
	lock, err := m.Get(ctx, fileID)
	if err == nil {
		return lock.LockedBy == userID, nil
	}
	if vaulterrors.CodeOf(err) == vaulterrors.ErrLockNotFound {
		return false, nil
	}
	return false, err
}

// Extend pushes the expiry to now + d without restarting the hold. Only the
// holder may extend.
func (m *Manager) Extend(ctx context.Context, fileID, userID string, d time.Duration) (*models.FileLock, error) {
	if d <= 0 {
		return nil, vaulterrors.NewInvalidArgumentError("lock extension must be positive")
	}

	expiry := nowFunc().UTC().Add(d)
	extended, err := m.store.ExtendLock(ctx, fileID, userID, expiry)
	if err != nil {
		return nil, err
	}
	if !extended {
		_, err = m.store.GetLock(ctx, fileID)
		if errors.Is(err, models.ErrLockNotFound) {
			return nil, vaulterrors.NewLockNotFoundError(fileID)
		}
		if err != nil {
			return nil, err
		}
		return nil, vaulterrors.NewNotLockOwnerError(fileID, userID)
	}

	logger.DebugCtx(ctx, "lock extended",
		logger.File(fileID), logger.LockOwner(userID))
	lock, err := m.store.GetLock(ctx, fileID)
	if errors.Is(err, models.ErrLockNotFound) {
		return nil, vaulterrors.NewLockNotFoundError(fileID)
	}
	return lock, err
}

// ReapExpired sweeps away every lapsed lock. Run periodically and at
// shutdown; also safe to invoke at any time.
func (m *Manager) ReapExpired(ctx context.Context) (int64, error) {
	reaped, err := m.store.DeleteExpiredLocks(ctx, nowFunc().UTC())
	if err != nil {
		return 0, err
	}
	if reaped > 0 {
		logger.InfoCtx(ctx, "expired locks reaped", logger.Count(int(reaped)))
	}
	return reaped, nil
}

// reapOne removes a single expired lock without letting a reap failure
// disturb the read path that noticed it.
func (m *Manager) reapOne(ctx context.Context, fileID string, now time.Time) {
	if _, err := m.store.DeleteLockIfExpired(ctx, fileID, now); err != nil {
		logger.WarnCtx(ctx, "expired lock reap failed",
			logger.File(fileID), logger.Err(err))
	}
}
