package blit

// PassOp identifies the type of a recorded render pass operation.
type PassOp uint8

const (
	OpSetPipeline PassOp = iota
	OpSetVertexBuffer
	OpSetIndexBuffer
	OpSetScissor
	OpBindTexture
	OpSetConstants
	OpDrawIndexed
)

// String returns the operation name.
func (op PassOp) String() string {
	switch op {
	case OpSetPipeline:
		return "SetPipeline"
	case OpSetVertexBuffer:
		return "SetVertexBuffer"
	case OpSetIndexBuffer:
		return "SetIndexBuffer"
	case OpSetScissor:
		return "SetScissor"
	case OpBindTexture:
		return "BindTexture"
	case OpSetConstants:
		return "SetConstants"
	case OpDrawIndexed:
		return "DrawIndexed"
	default:
		return "Unknown"
	}
}

// PassCommand is one recorded render pass operation. Only the fields
// relevant to Op are populated.
type PassCommand struct {
	Op        PassOp
	Pipeline  PipelineVariant
	Buffer    Buffer
	Scissor   Rect[UPx]
	Texture   Texture
	Constants PushConstants
	Start     uint32
	End       uint32
}

// PassRecorder captures render pass operations as typed commands
// instead of issuing GPU work. It implements RenderPass and is the
// inspection point for batching behavior: replay a Drawing into a
// recorder and examine the command stream.
//
// A PassRecorder is not safe for concurrent use.
type PassRecorder struct {
	commands []PassCommand
}

// NewPassRecorder returns an empty recorder.
func NewPassRecorder() *PassRecorder {
	return &PassRecorder{commands: make([]PassCommand, 0, 64)}
}

// Commands returns the recorded operations in issue order. The slice
// is owned by the recorder.
func (r *PassRecorder) Commands() []PassCommand { return r.commands }

// Reset discards all recorded operations.
func (r *PassRecorder) Reset() { r.commands = r.commands[:0] }

// DrawCount reports the number of recorded DrawIndexed operations.
func (r *PassRecorder) DrawCount() int {
	n := 0
	for _, cmd := range r.commands {
		if cmd.Op == OpDrawIndexed {
			n++
		}
	}
	return n
}

// StateChanges reports the number of recorded pipeline, scissor, and
// texture binding changes.
func (r *PassRecorder) StateChanges() int {
	n := 0
	for _, cmd := range r.commands {
		switch cmd.Op {
		case OpSetPipeline, OpSetScissor, OpBindTexture:
			n++
		}
	}
	return n
}

func (r *PassRecorder) SetPipeline(variant PipelineVariant) {
	r.commands = append(r.commands, PassCommand{Op: OpSetPipeline, Pipeline: variant})
}

func (r *PassRecorder) SetVertexBuffer(buffer Buffer) {
	r.commands = append(r.commands, PassCommand{Op: OpSetVertexBuffer, Buffer: buffer})
}

func (r *PassRecorder) SetIndexBuffer(buffer Buffer) {
	r.commands = append(r.commands, PassCommand{Op: OpSetIndexBuffer, Buffer: buffer})
}

func (r *PassRecorder) SetScissor(rect Rect[UPx]) {
	r.commands = append(r.commands, PassCommand{Op: OpSetScissor, Scissor: rect})
}

func (r *PassRecorder) BindTexture(texture Texture) {
	r.commands = append(r.commands, PassCommand{Op: OpBindTexture, Texture: texture})
}

func (r *PassRecorder) SetConstants(constants PushConstants) {
	r.commands = append(r.commands, PassCommand{Op: OpSetConstants, Constants: constants})
}

func (r *PassRecorder) DrawIndexed(start, end uint32) {
	r.commands = append(r.commands, PassCommand{Op: OpDrawIndexed, Start: start, End: end})
}

var _ RenderPass = (*PassRecorder)(nil)
