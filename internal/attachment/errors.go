package attachment

import "errors"

// Domain errors for the attachment package.
var (
	// ErrNotFound is returned when an attachment id does not exist.
	ErrNotFound = errors.New("attachment: not found")

	// ErrInvalidSource is returned when a source is neither scan nor picked.
	ErrInvalidSource = errors.New("attachment: invalid source")
)
