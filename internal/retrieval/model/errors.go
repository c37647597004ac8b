package model

import "errors"

// Sentinel error kinds for the engine's failure categories. No stage
// returns them at present, and Engine.Retrieve has no error result: it does
// not reject an empty query, and failures degrade into partial or empty
// results.
var (
	ErrInvalidInput        = errors.New("retrieval: invalid input")
	ErrTimeout             = errors.New("retrieval: stage exceeded its timeout budget")
	ErrUpstreamUnavailable = errors.New("retrieval: upstream collaborator unavailable")
	ErrIndexMissing        = errors.New("retrieval: filter targets an unindexed field")
	ErrParseError          = errors.New("retrieval: collaborator output not in expected shape")
	ErrNoResults           = errors.New("retrieval: no results from dense or sparse search")
)
