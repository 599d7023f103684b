package domain

import "errors"

var (
	// ErrConfiguration indicates the domain catalog, glossary, or graph
	// file is missing or malformed at required-load time. Fatal to engine
	// initialization, never per-request.
	ErrConfiguration = errors.New("configuration error")

	// ErrBackendUnavailable indicates an optional backend's index data is
	// absent. Degrades the method set, never fails a request.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrEmptyIndex indicates the mandatory keyword index has no data.
	ErrEmptyIndex = errors.New("keyword index is empty")
)
