//go:build integration

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hubvault/hubvault/pkg/models"
)

// createTestStore creates an in-memory SQLite store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(&Config{
		Type: DatabaseTypeSQLite,
		SQLite: SQLiteConfig{
			Path: ":memory:",
		},
	})
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	return store
}

// seedProjectFile creates a project with one file and returns both.
func seedProjectFile(t *testing.T, s *Store) (*models.Project, *models.File) {
	t.Helper()
	ctx := context.Background()

	project := &models.Project{Name: "apollo", TeamID: "T1", ChannelID: "C" + t.Name()}
	if _, err := s.CreateProject(ctx, project); err != nil {
		t.Fatalf("failed to create project: %v", err)
	}

	file := &models.File{
		ProjectID:      project.ID,
		Name:           "Design.pdf",
		Path:           "/docs",
		ContentHash:    "aa11",
		SizeBytes:      128,
		CurrentVersion: 1,
	}
	if _, err := s.CreateFile(ctx, file); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	return project, file
}

func TestNew(t *testing.T) {
	t.Run("default config uses sqlite", func(t *testing.T) {
		config := &Config{}
		config.ApplyDefaults()

		if config.Type != DatabaseTypeSQLite {
			t.Errorf("expected SQLite, got %s", config.Type)
		}
		if config.AutoMigrate == nil || !*config.AutoMigrate {
			t.Error("sqlite should default to auto-migration")
		}
	})

	t.Run("postgres defaults disable auto-migration", func(t *testing.T) {
		config := &Config{Type: DatabaseTypePostgres}
		config.ApplyDefaults()

		if config.AutoMigrate == nil || *config.AutoMigrate {
			t.Error("postgres should default to versioned migrations")
		}
	})

	t.Run("invalid config returns error", func(t *testing.T) {
		_, err := New(&Config{Type: "invalid"})
		if err == nil {
			t.Error("expected error for invalid config")
		}
	})

	t.Run("creates in-memory store", func(t *testing.T) {
		store := createTestStore(t)
		defer store.Close()

		if err := store.HealthCheck(context.Background()); err != nil {
			t.Errorf("healthcheck failed: %v", err)
		}
	})
}

func TestUserOperations(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	t.Run("ensure creates on first observation", func(t *testing.T) {
		user, err := store.EnsureUser(ctx, &models.User{
			PlatformUserID: "U100",
			PlatformTeamID: "T1",
			DisplayName:    "Ada",
		})
		if err != nil {
			t.Fatalf("ensure failed: %v", err)
		}
		if user.ID == "" {
			t.Error("expected generated id")
		}
	})

	t.Run("ensure returns existing on second observation", func(t *testing.T) {
		first, _ := store.GetUserByPlatformID(ctx, "U100", "T1")
		again, err := store.EnsureUser(ctx, &models.User{
			PlatformUserID: "U100",
			PlatformTeamID: "T1",
		})
		if err != nil {
			t.Fatalf("ensure failed: %v", err)
		}
		if again.ID != first.ID {
			t.Errorf("expected same id %s, got %s", first.ID, again.ID)
		}
	})

	t.Run("same platform user in another team is distinct", func(t *testing.T) {
		other, err := store.EnsureUser(ctx, &models.User{
			PlatformUserID: "U100",
			PlatformTeamID: "T2",
		})
		if err != nil {
			t.Fatalf("ensure failed: %v", err)
		}
		first, _ := store.GetUserByPlatformID(ctx, "U100", "T1")
		if other.ID == first.ID {
			t.Error("users in different teams must not collide")
		}
	})

	t.Run("get missing user", func(t *testing.T) {
		_, err := store.GetUserByID(ctx, "nope")
		if !errors.Is(err, models.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})
}

func TestProjectOperations(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	t.Run("create and fetch by channel", func(t *testing.T) {
		project := &models.Project{Name: "apollo", TeamID: "T1", ChannelID: "C1"}
		id, err := store.CreateProject(ctx, project)
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}

		byChannel, err := store.GetProjectByChannel(ctx, "C1")
		if err != nil {
			t.Fatalf("get by channel failed: %v", err)
		}
		if byChannel.ID != id {
			t.Errorf("expected %s, got %s", id, byChannel.ID)
		}
	})

	t.Run("second project on same channel fails", func(t *testing.T) {
		_, err := store.CreateProject(ctx, &models.Project{Name: "zeus", TeamID: "T1", ChannelID: "C1"})
		if !errors.Is(err, models.ErrDuplicateProject) {
			t.Errorf("expected ErrDuplicateProject, got %v", err)
		}
	})
}

func TestFileOperations(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()
	project, file := seedProjectFile(t, store)

	t.Run("duplicate name differs only by case", func(t *testing.T) {
		_, err := store.CreateFile(ctx, &models.File{
			ProjectID:      project.ID,
			Name:           "DESIGN.PDF",
			Path:           "/other",
			ContentHash:    "bb22",
			SizeBytes:      64,
			CurrentVersion: 1,
		})
		if !errors.Is(err, models.ErrDuplicateFile) {
			t.Errorf("expected ErrDuplicateFile, got %v", err)
		}
	})

	t.Run("lookup by name is case-insensitive", func(t *testing.T) {
		found, err := store.GetFileByName(ctx, project.ID, "design.PDF")
		if err != nil {
			t.Fatalf("lookup failed: %v", err)
		}
		if found.ID != file.ID {
			t.Errorf("expected %s, got %s", file.ID, found.ID)
		}
		if found.Name != "Design.pdf" {
			t.Errorf("display name should keep original casing, got %q", found.Name)
		}
	})

	t.Run("path is normalized on create", func(t *testing.T) {
		created := &models.File{
			ProjectID:      project.ID,
			Name:           "notes.txt",
			Path:           "docs//archive/",
			ContentHash:    "cc33",
			SizeBytes:      10,
			CurrentVersion: 1,
		}
		if _, err := store.CreateFile(ctx, created); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if created.Path != "/docs/archive" {
			t.Errorf("expected normalized path, got %q", created.Path)
		}
	})

	t.Run("update current version", func(t *testing.T) {
		if err := store.UpdateFileCurrent(ctx, file.ID, 2, "dd44", 256); err != nil {
			t.Fatalf("update failed: %v", err)
		}
		reloaded, _ := store.GetFile(ctx, file.ID)
		if reloaded.CurrentVersion != 2 || reloaded.ContentHash != "dd44" || reloaded.SizeBytes != 256 {
			t.Errorf("unexpected file state: %+v", reloaded)
		}
	})

	t.Run("update missing file", func(t *testing.T) {
		err := store.UpdateFileCurrent(ctx, "nope", 2, "x", 1)
		if !errors.Is(err, models.ErrFileNotFound) {
			t.Errorf("expected ErrFileNotFound, got %v", err)
		}
	})
}

func TestVersionOperations(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()
	project, file := seedProjectFile(t, store)

	v1 := &models.FileVersion{FileID: file.ID, VersionNumber: 1, ContentHash: "aa11", SizeBytes: 128, UploadedBy: "u-1"}
	if _, err := store.CreateVersion(ctx, v1); err != nil {
		t.Fatalf("create version failed: %v", err)
	}

	t.Run("duplicate version number fails", func(t *testing.T) {
		dup := &models.FileVersion{FileID: file.ID, VersionNumber: 1, ContentHash: "zz99", SizeBytes: 1, UploadedBy: "u-2"}
		_, err := store.CreateVersion(ctx, dup)
		if !errors.Is(err, models.ErrVersionConflict) {
			t.Errorf("expected ErrVersionConflict, got %v", err)
		}
	})

	t.Run("count references by hash", func(t *testing.T) {
		v2 := &models.FileVersion{FileID: file.ID, VersionNumber: 2, ContentHash: "aa11", SizeBytes: 128, UploadedBy: "u-1"}
		if _, err := store.CreateVersion(ctx, v2); err != nil {
			t.Fatalf("create v2 failed: %v", err)
		}

		count, err := store.CountVersionsByHash(ctx, "aa11")
		if err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if count != 2 {
			t.Errorf("expected 2 references, got %d", count)
		}
	})

	t.Run("distinct hashes by project", func(t *testing.T) {
		hashes, err := store.ListDistinctHashesByProject(ctx, project.ID)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(hashes) != 1 || hashes[0] != "aa11" {
			t.Errorf("expected [aa11], got %v", hashes)
		}
	})

	t.Run("hash referenced only inside project", func(t *testing.T) {
		outside, err := store.CountVersionsByHashOutsideProject(ctx, "aa11", project.ID)
		if err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if outside != 0 {
			t.Errorf("expected 0 outside references, got %d", outside)
		}
	})

	t.Run("missing version", func(t *testing.T) {
		_, err := store.GetVersion(ctx, file.ID, 99)
		if !errors.Is(err, models.ErrVersionNotFound) {
			t.Errorf("expected ErrVersionNotFound, got %v", err)
		}
	})
}

func TestLockOperations(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()
	_, file := seedProjectFile(t, store)
	now := time.Now()

	expiry := now.Add(time.Hour)
	lock := &models.FileLock{FileID: file.ID, LockedBy: "u-1", LockedAt: now, ExpiresAt: &expiry}

	t.Run("first insert wins", func(t *testing.T) {
		inserted, err := store.InsertLockIfAbsent(ctx, lock)
		if err != nil {
			t.Fatalf("insert failed: %v", err)
		}
		if !inserted {
			t.Error("expected insert to win")
		}
	})

	t.Run("second insert loses silently", func(t *testing.T) {
		rival := &models.FileLock{FileID: file.ID, LockedBy: "u-2", LockedAt: now, ExpiresAt: &expiry}
		inserted, err := store.InsertLockIfAbsent(ctx, rival)
		if err != nil {
			t.Fatalf("insert failed: %v", err)
		}
		if inserted {
			t.Error("expected insert to lose")
		}
		current, _ := store.GetLock(ctx, file.ID)
		if current.LockedBy != "u-1" {
			t.Errorf("lock owner changed to %s", current.LockedBy)
		}
	})

	t.Run("refresh by owner", func(t *testing.T) {
		later := now.Add(2 * time.Hour)
		ok, err := store.RefreshLock(ctx, file.ID, "u-1", now, &later, nil)
		if err != nil || !ok {
			t.Fatalf("refresh failed: ok=%v err=%v", ok, err)
		}
	})

	t.Run("refresh by stranger fails", func(t *testing.T) {
		later := now.Add(3 * time.Hour)
		ok, err := store.RefreshLock(ctx, file.ID, "u-2", now, &later, nil)
		if err != nil {
			t.Fatalf("refresh errored: %v", err)
		}
		if ok {
			t.Error("stranger must not refresh the lock")
		}
	})

	t.Run("takeover requires lapsed expiry", func(t *testing.T) {
		claim := &models.FileLock{FileID: file.ID, LockedBy: "u-3", LockedAt: now, ExpiresAt: &expiry}
		ok, err := store.TakeOverExpiredLock(ctx, claim, now)
		if err != nil {
			t.Fatalf("takeover errored: %v", err)
		}
		if ok {
			t.Error("live lock must not be taken over")
		}
	})

	t.Run("takeover succeeds after expiry", func(t *testing.T) {
		past := now.Add(-time.Minute)
		if ok, _ := store.RefreshLock(ctx, file.ID, "u-1", now, &past, nil); !ok {
			t.Fatal("failed to backdate lock")
		}

		newExpiry := now.Add(time.Hour)
		claim := &models.FileLock{FileID: file.ID, LockedBy: "u-3", LockedAt: now, ExpiresAt: &newExpiry}
		ok, err := store.TakeOverExpiredLock(ctx, claim, now)
		if err != nil || !ok {
			t.Fatalf("takeover failed: ok=%v err=%v", ok, err)
		}
		current, _ := store.GetLock(ctx, file.ID)
		if current.LockedBy != "u-3" {
			t.Errorf("expected u-3 to hold lock, got %s", current.LockedBy)
		}
	})

	t.Run("delete if owner", func(t *testing.T) {
		ok, err := store.DeleteLockIfOwner(ctx, file.ID, "u-1")
		if err != nil {
			t.Fatalf("delete errored: %v", err)
		}
		if ok {
			t.Error("non-owner delete must not remove the lock")
		}

		ok, err = store.DeleteLockIfOwner(ctx, file.ID, "u-3")
		if err != nil || !ok {
			t.Fatalf("owner delete failed: ok=%v err=%v", ok, err)
		}
	})

	t.Run("reap expired", func(t *testing.T) {
		past := now.Add(-time.Minute)
		stale := &models.FileLock{FileID: file.ID, LockedBy: "u-4", LockedAt: now.Add(-2 * time.Hour), ExpiresAt: &past}
		if _, err := store.InsertLockIfAbsent(ctx, stale); err != nil {
			t.Fatalf("insert failed: %v", err)
		}

		reaped, err := store.DeleteExpiredLocks(ctx, now)
		if err != nil {
			t.Fatalf("reap failed: %v", err)
		}
		if reaped != 1 {
			t.Errorf("expected 1 reaped, got %d", reaped)
		}
		if _, err := store.GetLock(ctx, file.ID); !errors.Is(err, models.ErrLockNotFound) {
			t.Errorf("expected lock gone, got %v", err)
		}
	})
}

func TestAuditOperations(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()
	project, file := seedProjectFile(t, store)

	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		entry := &models.AuditLog{
			Timestamp: base.Add(time.Duration(i) * 24 * time.Hour),
			EventKind: "FILE_CHECKOUT",
			Outcome:   "SUCCESS",
			ProjectID: &project.ID,
			FileID:    &file.ID,
		}
		if err := store.InsertAuditLog(ctx, entry); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	t.Run("window bounds are half-open", func(t *testing.T) {
		entries, err := store.QueryAuditLogs(ctx, AuditQuery{
			ProjectID: project.ID,
			From:      base,
			To:        base.Add(48 * time.Hour),
		})
		if err != nil {
			t.Fatalf("query failed: %v", err)
		}
		if len(entries) != 2 {
			t.Errorf("expected 2 entries in window, got %d", len(entries))
		}
	})

	t.Run("file filter", func(t *testing.T) {
		entries, err := store.QueryAuditLogs(ctx, AuditQuery{FileID: file.ID})
		if err != nil {
			t.Fatalf("query failed: %v", err)
		}
		if len(entries) != 3 {
			t.Errorf("expected 3 entries, got %d", len(entries))
		}
	})
}

func TestDeletionRecordOperations(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	hash := "ee55"
	record := &models.DeletionRecord{
		ContentHash: &hash,
		RequestedBy: "u-1",
		Reason:      "GDPR request",
		Status:      string(models.DeletionPending),
	}
	id, err := store.CreateDeletionRecord(ctx, record)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	t.Run("lifecycle update", func(t *testing.T) {
		verification := "vhash"
		done := time.Now()
		err := store.UpdateDeletionStatus(ctx, id, models.DeletionCompleted, true, &verification, &done)
		if err != nil {
			t.Fatalf("update failed: %v", err)
		}

		reloaded, _ := store.GetDeletionRecord(ctx, id)
		if reloaded.GetStatus() != models.DeletionCompleted {
			t.Errorf("expected COMPLETED, got %s", reloaded.Status)
		}
		if !reloaded.SecureWipe || reloaded.VerificationHash == nil {
			t.Error("wipe metadata not persisted")
		}
	})

	t.Run("list by status", func(t *testing.T) {
		completed, err := store.ListDeletionRecords(ctx, models.DeletionCompleted)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(completed) != 1 {
			t.Errorf("expected 1 completed record, got %d", len(completed))
		}

		failed, err := store.ListDeletionRecords(ctx, models.DeletionFailed)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(failed) != 0 {
			t.Errorf("expected no failed records, got %d", len(failed))
		}
	})
}

func TestTransaction(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()
	_, file := seedProjectFile(t, store)

	t.Run("rollback on error", func(t *testing.T) {
		sentinel := errors.New("abort")
		err := store.Transaction(ctx, func(tx *Store) error {
			v := &models.FileVersion{FileID: file.ID, VersionNumber: 1, ContentHash: "aa11", SizeBytes: 1, UploadedBy: "u-1"}
			if _, err := tx.CreateVersion(ctx, v); err != nil {
				return err
			}
			return sentinel
		})
		if !errors.Is(err, sentinel) {
			t.Fatalf("expected sentinel, got %v", err)
		}

		versions, _ := store.ListVersions(ctx, file.ID)
		if len(versions) != 0 {
			t.Errorf("rollback left %d versions", len(versions))
		}
	})

	t.Run("commit on success", func(t *testing.T) {
		err := store.Transaction(ctx, func(tx *Store) error {
			v := &models.FileVersion{FileID: file.ID, VersionNumber: 1, ContentHash: "aa11", SizeBytes: 1, UploadedBy: "u-1"}
			_, err := tx.CreateVersion(ctx, v)
			return err
		})
		if err != nil {
			t.Fatalf("transaction failed: %v", err)
		}

		versions, _ := store.ListVersions(ctx, file.ID)
		if len(versions) != 1 {
			t.Errorf("expected 1 version, got %d", len(versions))
		}
	})
}
