package sync

import (
	"fmt"
	"time"
)

// Result contains statistics about one reconciliation pass.
type Result struct {
	// Applied counts outbox entries confirmed by the server.
	Applied int

	// Uploaded counts local-only tasks created server-side.
	Uploaded int

	// Dropped counts update/delete entries discarded because their
	// client ID had no server mapping.
	Dropped int

	// Failed counts entries and uploads whose server call failed.
	// They stay queued (or stay local-only) and retry next pass.
	Failed int

	// Errs collects the isolated per-entry failures, in order.
	Errs []error

	// Duration is the wall-clock time of the pass.
	Duration time.Duration
}

// fail records one isolated failure.
func (r *Result) fail(stage, subject string, err error) {
	r.Failed++
	r.Errs = append(r.Errs, fmt.Errorf("%s %s: %w", stage, subject, err))
}

// Clean reports whether the pass completed without isolated failures.
func (r *Result) Clean() bool {
	return r.Failed == 0
}
