package app

import "errors"

// Sentinel kinds for recommendation errors.
var (
	ErrNoContentAvailable = errors.New("no content available to recommend")
)
