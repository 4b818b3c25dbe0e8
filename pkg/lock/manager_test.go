package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vaulterrors "github.com/hubvault/hubvault/pkg/engine/errors"
	"github.com/hubvault/hubvault/pkg/models"
	"github.com/hubvault/hubvault/pkg/store"
)

func newTestManager(t *testing.T, ttl time.Duration) *Manager {
	t.Helper()

	s, err := store.New(&store.Config{
		Type:   store.DatabaseTypeSQLite,
		SQLite: store.SQLiteConfig{Path: ":memory:"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return NewManager(s, ttl)
}

func setNow(t *testing.T, at time.Time) {
	t.Helper()
	nowFunc = func() time.Time { return at }
	t.Cleanup(func() { nowFunc = time.Now })
}

func strPtr(s string) *string { return &s }

func TestAcquire_Fresh(t *testing.T) {
	m := newTestManager(t, DefaultTTL)
	t0 := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	setNow(t, t0)
	ctx := context.Background()

	lock, err := m.Acquire(ctx, "file-1", "alice", strPtr("editing intro"))
	require.NoError(t, err)

	assert.Equal(t, "file-1", lock.FileID)
	assert.Equal(t, "alice", lock.LockedBy)
	assert.Equal(t, t0, lock.LockedAt)
	require.NotNil(t, lock.ExpiresAt)
	assert.Equal(t, t0.Add(DefaultTTL), *lock.ExpiresAt)
	require.NotNil(t, lock.Reason)
	assert.Equal(t, "editing intro", *lock.Reason)
}

func TestAcquire_OwnerRefreshes(t *testing.T) {
	m := newTestManager(t, DefaultTTL)
	t0 := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	setNow(t, t0)
	ctx := context.Background()

	_, err := m.Acquire(ctx, "file-1", "alice", nil)
	require.NoError(t, err)

	setNow(t, t0.Add(time.Hour))
	lock, err := m.Acquire(ctx, "file-1", "alice", strPtr("still at it"))
	require.NoError(t, err)

	require.NotNil(t, lock.ExpiresAt)
	assert.WithinDuration(t, t0.Add(time.Hour+DefaultTTL), *lock.ExpiresAt, time.Millisecond,
		"refresh should restart the TTL")
	require.NotNil(t, lock.Reason)
	assert.Equal(t, "still at it", *lock.Reason)
}

func TestAcquire_ForeignLiveLockRejected(t *testing.T) {
	m := newTestManager(t, DefaultTTL)
	t0 := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	setNow(t, t0)
	ctx := context.Background()

	_, err := m.Acquire(ctx, "file-1", "alice", nil)
	require.NoError(t, err)

	_, err = m.Acquire(ctx, "file-1", "bob", nil)
	require.Error(t, err)

	var ve *vaulterrors.VaultError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, vaulterrors.ErrLocked, ve.Code)
	assert.Equal(t, "alice", ve.LockedBy)
	assert.WithinDuration(t, t0, ve.LockedAt, time.Millisecond)
	assert.WithinDuration(t, t0.Add(DefaultTTL), ve.ExpiresAt, time.Millisecond)
}

func TestAcquire_ExpiredForeignLockTakenOver(t *testing.T) {
	m := newTestManager(t, time.Hour)
	t0 := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	setNow(t, t0)
	ctx := context.Background()

	_, err := m.Acquire(ctx, "file-1", "alice", nil)
	require.NoError(t, err)

	// One hour later alice's lock has lapsed and bob may claim the file.
	setNow(t, t0.Add(time.Hour))
	lock, err := m.Acquire(ctx, "file-1", "bob", nil)
	require.NoError(t, err)

	assert.Equal(t, "bob", lock.LockedBy)
	assert.Equal(t, t0.Add(time.Hour), lock.LockedAt)
}

func TestAcquire_ExpiryBoundaryIsExclusive(t *testing.T) {
	m := newTestManager(t, time.Hour)
	t0 := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	setNow(t, t0)
	ctx := context.Background()

	_, err := m.Acquire(ctx, "file-1", "alice", nil)
	require.NoError(t, err)

	// At exactly expires-at the lock is already lapsed.
	setNow(t, t0.Add(time.Hour))
	locked, err := m.IsLocked(ctx, "file-1")
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestRelease(t *testing.T) {
	m := newTestManager(t, DefaultTTL)
	setNow(t, time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	_, err := m.Acquire(ctx, "file-1", "alice", nil)
	require.NoError(t, err)

	t.Run("stranger cannot release", func(t *testing.T) {
		err := m.Release(ctx, "file-1", "bob")
		assert.Equal(t, vaulterrors.ErrNotLockOwner, vaulterrors.CodeOf(err))
	})

	t.Run("owner releases", func(t *testing.T) {
		require.NoError(t, m.Release(ctx, "file-1", "alice"))

		locked, err := m.IsLocked(ctx, "file-1")
		require.NoError(t, err)
		assert.False(t, locked)
	})

	t.Run("releasing again reports no lock", func(t *testing.T) {
		err := m.Release(ctx, "file-1", "alice")
		assert.Equal(t, vaulterrors.ErrLockNotFound, vaulterrors.CodeOf(err))
	})
}

func TestRelease_ExpiredOwnLockStillReleases(t *testing.T) {
	m := newTestManager(t, time.Hour)
	t0 := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	setNow(t, t0)
	ctx := context.Background()

	_, err := m.Acquire(ctx, "file-1", "alice", nil)
	require.NoError(t, err)

	// Past the TTL but nobody has taken the lock over; alice finishing her
	// check-in still releases cleanly.
	setNow(t, t0.Add(2*time.Hour))
	assert.NoError(t, m.Release(ctx, "file-1", "alice"))
}

func TestForceRelease(t *testing.T) {
	m := newTestManager(t, DefaultTTL)
	setNow(t, time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	_, err := m.Acquire(ctx, "file-1", "alice", nil)
	require.NoError(t, err)

	require.NoError(t, m.ForceRelease(ctx, "file-1"))

	locked, err := m.IsLocked(ctx, "file-1")
	require.NoError(t, err)
	assert.False(t, locked)

	err = m.ForceRelease(ctx, "file-1")
	assert.Equal(t, vaulterrors.ErrLockNotFound, vaulterrors.CodeOf(err))
}

func TestIsLockedBy(t *testing.T) {
	m := newTestManager(t, DefaultTTL)
	setNow(t, time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	_, err := m.Acquire(ctx, "file-1", "alice", nil)
	require.NoError(t, err)

	byAlice, err := m.IsLockedBy(ctx, "file-1", "alice")
	require.NoError(t, err)
	assert.True(t, byAlice)

	byBob, err := m.IsLockedBy(ctx, "file-1", "bob")
	require.NoError(t, err)
	assert.False(t, byBob)

	byAnyone, err := m.IsLockedBy(ctx, "file-2", "alice")
	require.NoError(t, err)
	assert.False(t, byAnyone)
}

func TestExpiredLockReadReapsIt(t *testing.T) {
	m := newTestManager(t, time.Hour)
	t0 := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	setNow(t, t0)
	ctx := context.Background()

	_, err := m.Acquire(ctx, "file-1", "alice", nil)
	require.NoError(t, err)

	setNow(t, t0.Add(2*time.Hour))
	locked, err := m.IsLocked(ctx, "file-1")
	require.NoError(t, err)
	assert.False(t, locked)

	// The read reaped the row, so a sweep finds nothing left.
	reaped, err := m.ReapExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, reaped)
}

func TestExtend(t *testing.T) {
	m := newTestManager(t, time.Hour)
	t0 := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	setNow(t, t0)
	ctx := context.Background()

	_, err := m.Acquire(ctx, "file-1", "alice", nil)
	require.NoError(t, err)

	t.Run("owner extends", func(t *testing.T) {
		lock, err := m.Extend(ctx, "file-1", "alice", 8*time.Hour)
		require.NoError(t, err)
		require.NotNil(t, lock.ExpiresAt)
		assert.WithinDuration(t, t0.Add(8*time.Hour), *lock.ExpiresAt, time.Millisecond)
		assert.WithinDuration(t, t0, lock.LockedAt, time.Millisecond, "extend must not restart the hold")
	})

	t.Run("stranger cannot extend", func(t *testing.T) {
		_, err := m.Extend(ctx, "file-1", "bob", time.Hour)
		assert.Equal(t, vaulterrors.ErrNotLockOwner, vaulterrors.CodeOf(err))
	})

	t.Run("missing lock", func(t *testing.T) {
		_, err := m.Extend(ctx, "file-9", "alice", time.Hour)
		assert.Equal(t, vaulterrors.ErrLockNotFound, vaulterrors.CodeOf(err))
	})

	t.Run("non-positive extension rejected", func(t *testing.T) {
		_, err := m.Extend(ctx, "file-1", "alice", 0)
		assert.Equal(t, vaulterrors.ErrInvalidArgument, vaulterrors.CodeOf(err))
	})
}

func TestReapExpired(t *testing.T) {
	m := newTestManager(t, time.Hour)
	t0 := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	setNow(t, t0)
	ctx := context.Background()

	for _, f := range []string{"file-1", "file-2", "file-3"} {
		_, err := m.Acquire(ctx, f, "alice", nil)
		require.NoError(t, err)
	}

	// Two locks lapse; the third was extended beyond the sweep time.
	_, err := m.Extend(ctx, "file-3", "alice", 48*time.Hour)
	require.NoError(t, err)

	setNow(t, t0.Add(2*time.Hour))
	reaped, err := m.ReapExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), reaped)

	stillLocked, err := m.IsLocked(ctx, "file-3")
	require.NoError(t, err)
	assert.True(t, stillLocked)
}

func TestAcquire_ManyFilesIndependent(t *testing.T) {
	m := newTestManager(t, DefaultTTL)
	setNow(t, time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	_, err := m.Acquire(ctx, "file-1", "alice", nil)
	require.NoError(t, err)

	// A lock on one file says nothing about another.
	lock, err := m.Acquire(ctx, "file-2", "bob", nil)
	require.NoError(t, err)
	assert.Equal(t, "bob", lock.LockedBy)
}

func TestZeroTTLMeansImmediateExpiry(t *testing.T) {
	m := newTestManager(t, 0)
	t0 := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	setNow(t, t0)
	ctx := context.Background()

	_, err := m.Acquire(ctx, "file-1", "alice", nil)
	require.NoError(t, err)

	locked, err := m.IsLocked(ctx, "file-1")
	require.NoError(t, err)
	assert.False(t, locked, "a zero TTL lock is lapsed the moment it exists")
}

func TestList(t *testing.T) {
	m := newTestManager(t, time.Hour)
	t0 := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	setNow(t, t0)
	ctx := context.Background()

	project := &models.Project{Name: "apollo", TeamID: "T1", ChannelID: "C-lock-list"}
	_, err := m.store.CreateProject(ctx, project)
	require.NoError(t, err)

	var fileIDs []string
	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		file := &models.File{
			ProjectID:      project.ID,
			Name:           name,
			Path:           "/docs",
			ContentHash:    "aa11",
			SizeBytes:      16,
			CurrentVersion: 1,
		}
		_, err := m.store.CreateFile(ctx, file)
		require.NoError(t, err)
		fileIDs = append(fileIDs, file.ID)
	}

	_, err = m.Acquire(ctx, fileIDs[0], "alice", nil)
	require.NoError(t, err)
	_, err = m.Acquire(ctx, fileIDs[1], "bob", nil)
	require.NoError(t, err)

	locks, err := m.List(ctx, project.ID)
	require.NoError(t, err)
	assert.Len(t, locks, 2)

	// An expired lock drops out of the listing
	setNow(t, t0.Add(2*time.Hour))
	locks, err = m.List(ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, locks)
}
