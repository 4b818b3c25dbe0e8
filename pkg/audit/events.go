// Package audit records every mutating operation and access decision into an
// append-only log and serves compliance reports over it.
//
// Recording is best-effort by contract: a failed audit write must never fail
// the operation being audited. Failures are written to the error logger and
// swallowed.
package audit

// EventKind classifies an audit event.
type EventKind string

const (
	// EventFileUpload records a new file entering the vault.
	EventFileUpload EventKind = "FILE_UPLOAD"
	// EventFileDownload records content leaving the vault via a token.
	EventFileDownload EventKind = "FILE_DOWNLOAD"
	// EventFileView records a metadata or listing view.
	EventFileView EventKind = "FILE_VIEW"
	// EventFileCheckout records an exclusive lock acquisition.
	EventFileCheckout EventKind = "FILE_CHECKOUT"
	// EventFileCheckin records a new version and the lock release.
	EventFileCheckin EventKind = "FILE_CHECKIN"
	// EventFileDelete records removal of a file and its versions.
	EventFileDelete EventKind = "FILE_DELETE"
	// EventAccessDenied records a rejected access decision.
	EventAccessDenied EventKind = "ACCESS_DENIED"
	// EventAccessRevoked records membership loss discovered at access time.
	EventAccessRevoked EventKind = "ACCESS_REVOKED"
	// EventLockForceRelease records an administrative lock override.
	EventLockForceRelease EventKind = "LOCK_FORCE_RELEASE"
	// EventTokenCreated records issuance of a download token.
	EventTokenCreated EventKind = "DOWNLOAD_TOKEN_CREATED"
	// EventTokenUsed records redemption of a download token.
	EventTokenUsed EventKind = "DOWNLOAD_TOKEN_USED"
	// EventTokenExpired records an attempt to redeem a dead token.
	EventTokenExpired EventKind = "DOWNLOAD_TOKEN_EXPIRED"
	// EventSecureDeleteStarted records the start of a content wipe.
	EventSecureDeleteStarted EventKind = "SECURE_DELETE_STARTED"
	// EventSecureDeleteCompleted records a finished content wipe.
	EventSecureDeleteCompleted EventKind = "SECURE_DELETE_COMPLETED"
	// EventProjectDelete records removal of a whole project.
	EventProjectDelete EventKind = "PROJECT_DELETE"
	// EventAdminOverride records any other administrative bypass.
	EventAdminOverride EventKind = "ADMIN_OVERRIDE"
)

// Outcome is the result of the audited operation.
type Outcome string

const (
	// OutcomeSuccess marks a completed operation.
	OutcomeSuccess Outcome = "SUCCESS"
	// OutcomeFailure marks an operation that errored.
	OutcomeFailure Outcome = "FAILURE"
	// OutcomeDenied marks an operation rejected by an access decision.
	OutcomeDenied Outcome = "DENIED"
	// OutcomePartial marks an operation that completed some but not all of
	// its effects, a multi-blob wipe with one failed pass for example.
	OutcomePartial Outcome = "PARTIAL"
)

// IsValid reports whether o is a known outcome.
func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeSuccess, OutcomeFailure, OutcomeDenied, OutcomePartial:
		return true
	}
	return false
}

// securityKinds are the event kinds a compliance report surfaces in its
// security-events section.
var securityKinds = map[EventKind]bool{
	EventAccessDenied:          true,
	EventAccessRevoked:         true,
	EventLockForceRelease:      true,
	EventSecureDeleteStarted:   true,
	EventSecureDeleteCompleted: true,
	EventProjectDelete:         true,
	EventAdminOverride:         true,
}

// IsSecurityEvent reports whether k belongs in the security section of a
// compliance report.
func IsSecurityEvent(k EventKind) bool {
	return securityKinds[k]
}
