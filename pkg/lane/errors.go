package lane

import (
	"errors"
	"fmt"
)

// LaneClosedError is returned when attempting to run work on a closed lane.
type LaneClosedError struct {
	LaneName string
}

func (e *LaneClosedError) Error() string {
	return fmt.Sprintf("lane %s is closed", e.LaneName)
}

// TaskDroppedError is returned when a call is rejected because the queue
// is full and the lane drops on overload.
type TaskDroppedError struct {
	LaneName string
	Capacity int
}

func (e *TaskDroppedError) Error() string {
	return fmt.Sprintf("call dropped in lane %s due to backpressure (capacity: %d)", e.LaneName, e.Capacity)
}

// IsLaneClosedError returns true if err is or wraps a LaneClosedError.
func IsLaneClosedError(err error) bool {
	var target *LaneClosedError
	return errors.As(err, &target)
}

// IsTaskDroppedError returns true if err is or wraps a TaskDroppedError.
func IsTaskDroppedError(err error) bool {
	var target *TaskDroppedError
	return errors.As(err, &target)
}
