package domain

import "errors"

// Error taxonomy shared by adapters and the orchestrator. Adapters return
// these so the orchestrator, not the adapter, decides degrade-vs-fail.
var (
	// ErrQuotaExhausted means the ledger denied admission; degrade, don't fail.
	ErrQuotaExhausted = errors.New("quota exhausted")
	// ErrRateLimited is transient and worth a bounded retry with backoff.
	ErrRateLimited = errors.New("rate limited")
	// ErrAdapterUnavailable indicates misconfiguration or auth failure; the
	// platform is disabled for the rest of the session.
	ErrAdapterUnavailable = errors.New("adapter unavailable")
	// ErrNotFound means the platform has no profile for the identity.
	ErrNotFound = errors.New("not found")
	// ErrSessionActive rejects a second concurrent session.
	ErrSessionActive = errors.New("session already running")
)
