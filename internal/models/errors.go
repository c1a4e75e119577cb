package models

import "fmt"

// UpstreamError describes a failure reported by the completion API itself, as opposed to a transport
// failure reaching it. Status carries the upstream HTTP status when known, so the gateway can pass it
// through; a zero Status means the upstream answered but the response was unusable.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("upstream status %d: %s", e.Status, e.Message)
}
