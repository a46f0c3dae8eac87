package blit

import "errors"

// Errors reported by the atlas allocator and the frame builder. All of
// them are returned synchronously from the operation that detected the
// problem; none of them poison the surrounding frame or atlas.
var (
	// ErrTooLarge is returned when a requested allocation exceeds the
	// hard GPU texture size limit in at least one dimension. The call is
	// not retried and no partial allocation is made.
	ErrTooLarge = errors.New("blit: image exceeds maximum texture dimension")

	// ErrStaleSlot is returned when a draw references an atlas slot whose
	// backing texture has been rebuilt since the slot was allocated. The
	// owner must re-allocate the slot and rebuild any graphics that baked
	// its coordinates.
	ErrStaleSlot = errors.New("blit: atlas slot generation is stale")

	// ErrSlotReleased is returned when a draw references an atlas slot
	// after its last reference was released.
	ErrSlotReleased = errors.New("blit: atlas slot has been released")

	// ErrGraphicReleased is returned when drawing a PreparedGraphic whose
	// buffers have been released.
	ErrGraphicReleased = errors.New("blit: prepared graphic has been released")

	// ErrFrameEnded is returned when submitting a draw command to a frame
	// that has already been batched.
	ErrFrameEnded = errors.New("blit: frame has already ended")

	// ErrFrameOpen is returned when rendering a drawing whose current
	// frame is still accumulating commands.
	ErrFrameOpen = errors.New("blit: frame is still accumulating")

	// ErrNilDevice is returned when constructing a context without a GPU
	// device.
	ErrNilDevice = errors.New("blit: device is nil")

	// ErrNilQueue is returned when constructing a context without a GPU
	// queue.
	ErrNilQueue = errors.New("blit: queue is nil")
)

// ConfigError describes an invalid configuration field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "blit: invalid config." + e.Field + ": " + e.Reason
}
