package deletion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"

	"github.com/hubvault/hubvault/internal/logger"
	vaulterrors "github.com/hubvault/hubvault/pkg/engine/errors"
	"github.com/hubvault/hubvault/pkg/models"
)

// Wipe method strings recorded on certificates.
const (
	WipeMethodDoD      = "DoD 5220.22-M (3-pass)"
	WipeMethodStandard = "Standard deletion"
)

// Certificate is the compliance evidence that one deletion completed. It is
// handed to auditors and counterparties, so its JSON shape is part of the
// external interface.
type Certificate struct {
	CertificateID    string     `json:"certificateId"`
	DeletionRecordID string     `json:"deletionRecordId"`
	ContentHash      string     `json:"contentHash,omitempty"`
	DeletedAt        *time.Time `json:"deletedAt,omitempty"`
	WipeMethod       string     `json:"wipeMethod"`
	VerificationHash string     `json:"verificationHash,omitempty"`
	RequestedBy      string     `json:"requestedBy"`
	Reason           string     `json:"reason"`
	GeneratedAt      time.Time  `json:"generatedAt"`
}

// GenerateCertificate issues a certificate for a completed deletion and
// moves the record to VERIFIED. Only COMPLETED or VERIFIED records certify;
// certifying an already VERIFIED record issues a fresh certificate over the
// same evidence.
func (e *Engine) GenerateCertificate(ctx context.Context, recordID string) (*Certificate, error) {
	record, err := e.store.GetDeletionRecord(ctx, recordID)
	if err != nil {
		if errors.Is(err, models.ErrDeletionRecordNotFound) {
			return nil, vaulterrors.NewNotFoundError(recordID, "deletion record")
		}
		return nil, fmt.Errorf("loading deletion record %s: %w", recordID, err)
	}

	if !record.GetStatus().IsTerminal() {
		return nil, vaulterrors.NewInvalidArgumentError(
			fmt.Sprintf("deletion record is %s, only completed deletions certify", record.Status))
	}

	cert := &Certificate{
		CertificateID:    uuid.New().String(),
		DeletionRecordID: record.ID,
		WipeMethod:       WipeMethodStandard,
		RequestedBy:      record.RequestedBy,
		Reason:           record.Reason,
		GeneratedAt:      nowFunc().UTC(),
		DeletedAt:        record.CompletedAt,
	}
	if record.SecureWipe {
		cert.WipeMethod = WipeMethodDoD
	}
	if record.ContentHash != nil {
		cert.ContentHash = *record.ContentHash
	}
	if record.VerificationHash != nil {
		cert.VerificationHash = *record.VerificationHash
	}

	if record.GetStatus() != models.DeletionVerified {
		if err := e.store.UpdateDeletionStatus(ctx, record.ID, models.DeletionVerified, record.SecureWipe, nil, nil); err != nil {
			return nil, fmt.Errorf("marking deletion record %s verified: %w", recordID, err)
		}
	}

	logger.InfoCtx(ctx, "deletion certificate issued",
		logger.CertID(cert.CertificateID),
		logger.DeletionID(record.ID))
	return cert, nil
}

// ExportCertificate writes a certificate as indented JSON to path. The
// write is atomic so a crash never leaves a truncated certificate behind.
func ExportCertificate(cert *Certificate, path string) error {
	data, err := json.MarshalIndent(cert, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding certificate: %w", err)
	}
	data = append(data, '\n')

	if err := renameio.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing certificate to %s: %w", path, err)
	}
	return nil
}
