package version

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vaulterrors "github.com/hubvault/hubvault/pkg/engine/errors"
	"github.com/hubvault/hubvault/pkg/models"
	"github.com/hubvault/hubvault/pkg/store"
)

func newTestManager(t *testing.T) (*Manager, *store.Store) {
	t.Helper()

	s, err := store.New(&store.Config{
		Type:   store.DatabaseTypeSQLite,
		SQLite: store.SQLiteConfig{Path: ":memory:"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return NewManager(s), s
}

// seedFile creates a file that already has its first version, which is the
// smallest state a file can be in.
func seedFile(t *testing.T, s *store.Store, name string) *models.File {
	t.Helper()
	ctx := context.Background()

	file := &models.File{
		ProjectID:      "proj-1",
		Name:           name,
		Path:           "/" + name,
		ContentHash:    fakeHash(name, 1),
		SizeBytes:      100,
		CurrentVersion: 1,
	}
	_, err := s.CreateFile(ctx, file)
	require.NoError(t, err)

	_, err = s.CreateVersion(ctx, &models.FileVersion{
		FileID:        file.ID,
		VersionNumber: 1,
		ContentHash:   file.ContentHash,
		SizeBytes:     file.SizeBytes,
		UploadedBy:    "alice",
	})
	require.NoError(t, err)
	return file
}

// fakeHash produces a distinct well-formed sha256 hex string per input.
func fakeHash(name string, n int) string {
	h := fmt.Sprintf("%x", []byte(fmt.Sprintf("%s-%d", name, n)))
	for len(h) < 64 {
		h += "0"
	}
	return h[:64]
}

func strPtr(s string) *string { return &s }

func timePtr(at time.Time) *time.Time { return &at }

func TestAddVersion_Monotonic(t *testing.T) {
	m, s := newTestManager(t)
	ctx := context.Background()
	file := seedFile(t, s, "report.docx")

	v2, err := m.AddVersion(ctx, AddVersionParams{
		FileID:      file.ID,
		UploaderID:  "bob",
		ContentHash: fakeHash("report.docx", 2),
		Size:        222,
		Message:     strPtr("tightened the summary"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, v2.ID)
	assert.Equal(t, int32(2), v2.VersionNumber)
	assert.Equal(t, "bob", v2.UploadedBy)
	require.NotNil(t, v2.Message)
	assert.Equal(t, "tightened the summary", *v2.Message)

	v3, err := m.AddVersion(ctx, AddVersionParams{
		FileID:      file.ID,
		UploaderID:  "carol",
		ContentHash: fakeHash("report.docx", 3),
		Size:        333,
	})
	require.NoError(t, err)
	assert.Equal(t, int32(3), v3.VersionNumber)

	updated, err := s.GetFile(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(3), updated.CurrentVersion)
	assert.Equal(t, fakeHash("report.docx", 3), updated.ContentHash)
	assert.Equal(t, uint64(333), updated.SizeBytes)
}

func TestAddVersion_FileNotFound(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.AddVersion(context.Background(), AddVersionParams{
		FileID:      "no-such-file",
		UploaderID:  "bob",
		ContentHash: fakeHash("x", 1),
		Size:        1,
	})
	assert.Equal(t, vaulterrors.ErrNotFound, vaulterrors.CodeOf(err))
}

func TestAddVersion_ConcurrentWriterSurfacesConflict(t *testing.T) {
	m, s := newTestManager(t)
	ctx := context.Background()
	file := seedFile(t, s, "plan.xlsx")

	// Another writer appended version 2 between our read and our insert.
	_, err := s.CreateVersion(ctx, &models.FileVersion{
		FileID:        file.ID,
		VersionNumber: 2,
		ContentHash:   fakeHash("plan.xlsx", 99),
		SizeBytes:     1,
		UploadedBy:    "mallory",
	})
	require.NoError(t, err)

	_, err = m.AddVersion(ctx, AddVersionParams{
		FileID:      file.ID,
		UploaderID:  "bob",
		ContentHash: fakeHash("plan.xlsx", 2),
		Size:        2,
	})
	assert.ErrorIs(t, err, models.ErrVersionConflict)
}

func TestAddVersion_ReleaseLock(t *testing.T) {
	t.Run("owner releases on check-in", func(t *testing.T) {
		m, s := newTestManager(t)
		ctx := context.Background()
		file := seedFile(t, s, "deck.pptx")

		now := time.Now().UTC()
		inserted, err := s.InsertLockIfAbsent(ctx, &models.FileLock{
			FileID:    file.ID,
			LockedBy:  "bob",
			LockedAt:  now,
			ExpiresAt: timePtr(now.Add(time.Hour)),
		})
		require.NoError(t, err)
		require.True(t, inserted)

		_, err = m.AddVersion(ctx, AddVersionParams{
			FileID:      file.ID,
			UploaderID:  "bob",
			ContentHash: fakeHash("deck.pptx", 2),
			Size:        2,
			ReleaseLock: true,
		})
		require.NoError(t, err)

		_, err = s.GetLock(ctx, file.ID)
		assert.ErrorIs(t, err, models.ErrLockNotFound)
	})

	t.Run("expired lock still releases for its owner", func(t *testing.T) {
		m, s := newTestManager(t)
		ctx := context.Background()
		file := seedFile(t, s, "deck.pptx")

		now := time.Now().UTC()
		inserted, err := s.InsertLockIfAbsent(ctx, &models.FileLock{
			FileID:    file.ID,
			LockedBy:  "bob",
			LockedAt:  now.Add(-25 * time.Hour),
			ExpiresAt: timePtr(now.Add(-time.Hour)),
		})
		require.NoError(t, err)
		require.True(t, inserted)

		_, err = m.AddVersion(ctx, AddVersionParams{
			FileID:      file.ID,
			UploaderID:  "bob",
			ContentHash: fakeHash("deck.pptx", 2),
			Size:        2,
			ReleaseLock: true,
		})
		require.NoError(t, err)
	})

	t.Run("missing lock aborts the append", func(t *testing.T) {
		m, s := newTestManager(t)
		ctx := context.Background()
		file := seedFile(t, s, "deck.pptx")

		err := s.Transaction(ctx, func(tx *store.Store) error {
			_, err := m.WithStore(tx).AddVersion(ctx, AddVersionParams{
				FileID:      file.ID,
				UploaderID:  "bob",
				ContentHash: fakeHash("deck.pptx", 2),
				Size:        2,
				ReleaseLock: true,
			})
			return err
		})
		assert.Equal(t, vaulterrors.ErrLockNotFound, vaulterrors.CodeOf(err))

		// The rollback must take the version row and the pointer update with it.
		_, err = s.GetVersion(ctx, file.ID, 2)
		assert.ErrorIs(t, err, models.ErrVersionNotFound)
		unchanged, err := s.GetFile(ctx, file.ID)
		require.NoError(t, err)
		assert.Equal(t, int32(1), unchanged.CurrentVersion)
	})

	t.Run("foreign lock aborts the append", func(t *testing.T) {
		m, s := newTestManager(t)
		ctx := context.Background()
		file := seedFile(t, s, "deck.pptx")

		now := time.Now().UTC()
		inserted, err := s.InsertLockIfAbsent(ctx, &models.FileLock{
			FileID:    file.ID,
			LockedBy:  "carol",
			LockedAt:  now,
			ExpiresAt: timePtr(now.Add(time.Hour)),
		})
		require.NoError(t, err)
		require.True(t, inserted)

		err = s.Transaction(ctx, func(tx *store.Store) error {
			_, err := m.WithStore(tx).AddVersion(ctx, AddVersionParams{
				FileID:      file.ID,
				UploaderID:  "bob",
				ContentHash: fakeHash("deck.pptx", 2),
				Size:        2,
				ReleaseLock: true,
			})
			return err
		})
		assert.Equal(t, vaulterrors.ErrNotLockOwner, vaulterrors.CodeOf(err))

		unchanged, err := s.GetFile(ctx, file.ID)
		require.NoError(t, err)
		assert.Equal(t, int32(1), unchanged.CurrentVersion)

		// Carol's lock survives the failed check-in.
		lock, err := s.GetLock(ctx, file.ID)
		require.NoError(t, err)
		assert.Equal(t, "carol", lock.LockedBy)
	})
}

func TestGetVersion(t *testing.T) {
	m, s := newTestManager(t)
	ctx := context.Background()
	file := seedFile(t, s, "notes.md")

	got, err := m.GetVersion(ctx, file.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, fakeHash("notes.md", 1), got.ContentHash)

	_, err = m.GetVersion(ctx, file.ID, 7)
	assert.Equal(t, vaulterrors.ErrVersionNotFound, vaulterrors.CodeOf(err))
}

func TestGetCurrent(t *testing.T) {
	m, s := newTestManager(t)
	ctx := context.Background()
	file := seedFile(t, s, "notes.md")

	_, err := m.AddVersion(ctx, AddVersionParams{
		FileID:      file.ID,
		UploaderID:  "bob",
		ContentHash: fakeHash("notes.md", 2),
		Size:        2,
	})
	require.NoError(t, err)

	current, err := m.GetCurrent(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(2), current.VersionNumber)
	assert.Equal(t, fakeHash("notes.md", 2), current.ContentHash)
}

func TestListVersions_HistoryStaysIntact(t *testing.T) {
	m, s := newTestManager(t)
	ctx := context.Background()
	file := seedFile(t, s, "draft.txt")

	for n := 2; n <= 4; n++ {
		_, err := m.AddVersion(ctx, AddVersionParams{
			FileID:      file.ID,
			UploaderID:  "bob",
			ContentHash: fakeHash("draft.txt", n),
			Size:        uint64(n * 10),
		})
		require.NoError(t, err)
	}

	history, err := m.ListVersions(ctx, file.ID)
	require.NoError(t, err)
	require.Len(t, history, 4)
	for i, ver := range history {
		assert.Equal(t, int32(i+1), ver.VersionNumber)
		assert.Equal(t, fakeHash("draft.txt", i+1), ver.ContentHash)
	}
}
