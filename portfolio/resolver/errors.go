package resolver

import "errors"

// These never reach the caller of Resolve. They are kept on the handle for diagnostics.
var (
	ErrNetworkOrDecode  = errors.New("image failed to load")
	ErrTimeoutExceeded  = errors.New("image load timed out")
	ErrUnrecognizedForm = errors.New("reference cannot be rewritten")
)
