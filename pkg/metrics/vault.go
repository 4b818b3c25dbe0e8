package metrics

// VaultMetrics provides observability for the file lifecycle operations.
//
// This interface is optional - pass nil to disable metrics collection with
// zero overhead.
//
// Example usage:
//
//	// With metrics enabled
//	metrics.InitRegistry()
//	vm := prometheus.NewVaultMetrics()
//	eng := engine.New(engine.Deps{..., Metrics: vm}, cfg)
//
//	// Without metrics (pass nil for zero overhead)
//	eng := engine.New(engine.Deps{...}, cfg)
type VaultMetrics interface {
	// RecordCheckout records a checkout attempt.
	//
	// Parameters:
	//   - outcome: "granted" when the lock was claimed, "conflict" when
	//     another user held it
	RecordCheckout(outcome string)

	// RecordCheckin records a successful check-in and the size of the new
	// version.
	RecordCheckin(bytes uint64)

	// RecordUpload records a successful initial upload and its size.
	RecordUpload(bytes uint64)

	// RecordDownload records a redeemed download and the bytes served.
	RecordDownload(bytes uint64)

	// RecordTokenIssued increments the issued download ticket counter.
	RecordTokenIssued()
}
