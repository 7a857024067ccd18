package domain

import "errors"

// Every error returned by the grid service matches exactly one of these with
// errors.Is, so the HTTP layer can pick a status without string matching.
var (
	// ErrUpstream: the listing API was unreachable, answered non-2xx, or sent
	// a body that is not a listing.
	ErrUpstream = errors.New("upstream listing request failed")

	// ErrClassification: a record in the listing could not be classified in a
	// way that invalidates the whole listing (malformed short-video thumbnail).
	ErrClassification = errors.New("listing classification failed")

	// ErrNotCached: a star was requested for a post id the star cache does not
	// hold, usually after a restart or eviction.
	ErrNotCached = errors.New("post not found in cache, try reloading")

	ErrStore = errors.New("group store failure")

	// ErrWorkerUnavailable: the fetch worker is not running, so no upstream
	// call was attempted.
	ErrWorkerUnavailable = errors.New("fetch worker unavailable")

	ErrInvalidRequest = errors.New("invalid request")
)
