package models

import "errors"

// Domain error sentinels. Collaborator failures wrap one of these so the
// HTTP layer can map them without knowing adapter internals.
var (
	// ErrInvalidTimestamp reports an anchor time that does not parse
	// against the fixed YYYYMMDD-HH:MM:SS UTC format.
	ErrInvalidTimestamp = errors.New("invalid timestamp")

	// ErrContractNotFound reports that the upstream provider could not
	// resolve the requested symbol/security-type pair.
	ErrContractNotFound = errors.New("contract not found")

	// ErrUpstreamFetch reports a provider fetch failure mid-backfill. The
	// whole query aborts; partial gap results already persisted stay valid.
	ErrUpstreamFetch = errors.New("upstream fetch failed")

	// ErrStoreUnavailable reports a store read/write failure.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrEmptyWindow reports start >= end. The orchestrator treats it as
	// "fully satisfied, zero gaps" rather than a hard failure.
	ErrEmptyWindow = errors.New("empty window")
)
