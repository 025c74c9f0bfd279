package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateContent means the image's content hash matches an existing
	// record. Dedup is global: the address plays no part in the key.
	ErrDuplicateContent = errors.New("this image has already been uploaded before")

	// ErrNotFound means the record id does not exist.
	ErrNotFound = errors.New("record not found")
)

// ValidationError covers structural rejections: size, format, dimensions.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// AddressError means the home address could not be geocoded, whether the
// collaborator reported not-found or failed transiently. Either way the
// operation aborts without persisting anything.
type AddressError struct {
	Address string
	Err     error
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("could not resolve address %q: %v", e.Address, e.Err)
}

func (e *AddressError) Unwrap() error {
	return e.Err
}
