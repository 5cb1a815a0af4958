package engine

import "fmt"

// UnknownEventError reports an event type the loop cannot handle.
type UnknownEventError struct {
	Type EventType
	Seq  int64
}

// Error implements the error interface.
func (e *UnknownEventError) Error() string {
	return fmt.Sprintf("unknown event type %d (seq=%d)", int(e.Type), e.Seq)
}
