package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyMask is returned when a removal is requested with nothing
	// painted. The backend is not contacted.
	ErrEmptyMask = errors.New("mask is empty")
	// ErrNoImageInResponse is returned when the backend answered without a
	// usable image.
	ErrNoImageInResponse = errors.New("no image in response")
)

// TransportError wraps any failure reported by the backend call itself.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("backend request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Describe returns the short message shown to the user for a pipeline error.
func Describe(err error) string {
	var te *TransportError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyMask):
		return "Paint over the area to remove first."
	case errors.Is(err, ErrNoImageInResponse):
		return "Could not generate an image, please try again."
	case errors.As(err, &te):
		return "Processing failed, check the network and try again."
	}
	return err.Error()
}
