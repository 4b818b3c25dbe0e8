package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vaulterrors "github.com/hubvault/hubvault/pkg/engine/errors"
	"github.com/hubvault/hubvault/pkg/models"
)

func strPtr(s string) *string { return &s }

func entryAt(ts time.Time, kind EventKind, outcome Outcome, userID string) *models.AuditLog {
	e := &models.AuditLog{
		Timestamp: ts,
		EventKind: string(kind),
		Outcome:   string(outcome),
	}
	if userID != "" {
		e.UserID = strPtr(userID)
	}
	return e
}

func TestReport_Aggregation(t *testing.T) {
	from := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 5, 5, 0, 0, 0, 0, time.UTC)

	day1 := from.Add(10 * time.Hour)
	day2 := from.Add(24*time.Hour + 3*time.Hour)
	day4 := from.Add(3*24*time.Hour + 23*time.Hour)

	fake := &fakeStore{entries: []*models.AuditLog{
		entryAt(day1, EventFileCheckout, OutcomeSuccess, "alice"),
		entryAt(day1, EventFileCheckin, OutcomeSuccess, "alice"),
		entryAt(day2, EventFileDownload, OutcomeSuccess, "bob"),
		entryAt(day2, EventAccessDenied, OutcomeDenied, "mallory"),
		entryAt(day4, EventFileDownload, OutcomeSuccess, "alice"),
		entryAt(day4, EventLockForceRelease, OutcomeSuccess, "admin"),
	}}
	r := NewRecorder(fake)

	report, err := r.Report(context.Background(), "proj-1", from, to)
	require.NoError(t, err)

	assert.Equal(t, "proj-1", report.ProjectID)
	assert.Equal(t, int64(6), report.TotalEvents)

	assert.Equal(t, int64(2), report.ByKind[EventFileDownload])
	assert.Equal(t, int64(1), report.ByKind[EventFileCheckout])
	assert.Equal(t, int64(1), report.ByKind[EventAccessDenied])

	assert.Equal(t, int64(5), report.ByOutcome[OutcomeSuccess])
	assert.Equal(t, int64(1), report.ByOutcome[OutcomeDenied])

	assert.Equal(t, int64(2), report.Downloads)
	assert.Equal(t, int64(1), report.Checkouts)
	assert.Equal(t, int64(1), report.Checkins)

	assert.Equal(t, 4, report.UniqueActors)

	require.Len(t, report.DeniedEvents, 1)
	assert.Equal(t, string(EventAccessDenied), report.DeniedEvents[0].EventKind)

	// ACCESS_DENIED and LOCK_FORCE_RELEASE are both security events.
	require.Len(t, report.SecurityEvents, 2)
}

func TestReport_TimelineZeroFilled(t *testing.T) {
	from := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 5, 5, 0, 0, 0, 0, time.UTC)

	fake := &fakeStore{entries: []*models.AuditLog{
		entryAt(from.Add(time.Hour), EventFileView, OutcomeSuccess, "alice"),
		entryAt(from.Add(2*time.Hour), EventFileView, OutcomeSuccess, "alice"),
		entryAt(from.Add(3*24*time.Hour), EventFileView, OutcomeSuccess, "alice"),
	}}
	r := NewRecorder(fake)

	report, err := r.Report(context.Background(), "proj-1", from, to)
	require.NoError(t, err)

	// Four calendar days in [May 1, May 5): two events on the 1st, none on
	// the 2nd and 3rd, one on the 4th.
	require.Len(t, report.Timeline, 4)
	assert.Equal(t, TimelineBucket{Date: "2026-05-01", Count: 2}, report.Timeline[0])
	assert.Equal(t, TimelineBucket{Date: "2026-05-02", Count: 0}, report.Timeline[1])
	assert.Equal(t, TimelineBucket{Date: "2026-05-03", Count: 0}, report.Timeline[2])
	assert.Equal(t, TimelineBucket{Date: "2026-05-04", Count: 1}, report.Timeline[3])
}

func TestReport_TimelineBucketsAreUTCDays(t *testing.T) {
	// 23:30 UTC on May 1 stays in the May 1 bucket even though many local
	// timezones would already call it May 2.
	from := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC)

	lateEvening := time.Date(2026, 5, 1, 23, 30, 0, 0, time.UTC)
	inOffsetZone := lateEvening.In(time.FixedZone("UTC+3", 3*60*60))

	fake := &fakeStore{entries: []*models.AuditLog{
		entryAt(inOffsetZone, EventFileView, OutcomeSuccess, "alice"),
	}}
	r := NewRecorder(fake)

	report, err := r.Report(context.Background(), "proj-1", from, to)
	require.NoError(t, err)

	require.Len(t, report.Timeline, 2)
	assert.Equal(t, int64(1), report.Timeline[0].Count)
	assert.Equal(t, int64(0), report.Timeline[1].Count)
}

func TestReport_PartialDayWindow(t *testing.T) {
	// A window starting and ending mid-day still covers each touched
	// calendar day exactly once.
	from := time.Date(2026, 5, 1, 14, 0, 0, 0, time.UTC)
	to := time.Date(2026, 5, 3, 10, 0, 0, 0, time.UTC)

	r := NewRecorder(&fakeStore{})

	report, err := r.Report(context.Background(), "proj-1", from, to)
	require.NoError(t, err)

	require.Len(t, report.Timeline, 3)
	assert.Equal(t, "2026-05-01", report.Timeline[0].Date)
	assert.Equal(t, "2026-05-03", report.Timeline[2].Date)
}

func TestReport_EmptyWindow(t *testing.T) {
	from := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	r := NewRecorder(&fakeStore{})

	_, err := r.Report(context.Background(), "proj-1", from, from)
	assert.Equal(t, vaulterrors.ErrInvalidArgument, vaulterrors.CodeOf(err))

	_, err = r.Report(context.Background(), "proj-1", from, from.Add(-time.Hour))
	assert.Equal(t, vaulterrors.ErrInvalidArgument, vaulterrors.CodeOf(err))
}

func TestReport_RequiresProject(t *testing.T) {
	from := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	r := NewRecorder(&fakeStore{})

	_, err := r.Report(context.Background(), "", from, from.Add(24*time.Hour))
	assert.Equal(t, vaulterrors.ErrInvalidArgument, vaulterrors.CodeOf(err))
}

func TestReport_QueryErrorPropagates(t *testing.T) {
	from := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	queryErr := errors.New("database gone")
	r := NewRecorder(&fakeStore{queryErr: queryErr})

	_, err := r.Report(context.Background(), "proj-1", from, from.Add(24*time.Hour))
	assert.ErrorIs(t, err, queryErr)
}
