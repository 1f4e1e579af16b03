package event

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrMalformedPayload = errors.New("malformed event payload")
	ErrInvalidEnvelope  = errors.New("invalid event envelope")
)
