package settlement

import (
	"errors"
	"fmt"
)

// ErrDeliveryFailed matches any DeliveryError via errors.Is.
var ErrDeliveryFailed = errors.New("settlement delivery failed")

// DeliveryError reports a failed delivery attempt. StatusCode is zero
// for transport errors.
type DeliveryError struct {
	StatusCode int
	Cause      error
}

func (e *DeliveryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("settlement delivery failed: receiver returned %d", e.StatusCode)
	}
	return fmt.Sprintf("settlement delivery failed: %v", e.Cause)
}

func (e *DeliveryError) Unwrap() error { return e.Cause }

// Is makes errors.Is(err, ErrDeliveryFailed) match.
func (e *DeliveryError) Is(target error) bool {
	return target == ErrDeliveryFailed
}
