package erp

import "errors"

// ErrMissingBaseURL is returned when a client is constructed without a
// backend base URL.
var ErrMissingBaseURL = errors.New("erp: missing base URL")
