package sync

import "errors"

// Permanent failures. Records hitting these are marked failed immediately
// instead of burning retry attempts.
var (
	ErrUnknownRecordType = errors.New("unknown record type")
	ErrMalformedPayload  = errors.New("malformed sync payload")
)
