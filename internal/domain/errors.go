package domain

import "errors"

// Error taxonomy for the monitoring engine. Callers classify with
// errors.Is; wrap sites add context with fmt.Errorf("...: %w", ...).
var (
	// ErrUnsupportedSite means the site identifier has no registered
	// extractor. Fatal to the single add/poll attempt, never to a batch.
	ErrUnsupportedSite = errors.New("unsupported site")

	// ErrParse means a required selector matched nothing or its text
	// could not be parsed as a price.
	ErrParse = errors.New("price parse failed")

	// ErrFetch means the product page could not be reached.
	ErrFetch = errors.New("page fetch failed")

	// ErrPersistence means a watchlist store read or write failed.
	ErrPersistence = errors.New("persistence failed")

	// ErrUnknownSessionStep means the conversation machine hit a step
	// it does not recognize. Programming invariant violation.
	ErrUnknownSessionStep = errors.New("unknown session step")
)
