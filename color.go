package blit

// Color is a 32-bit sRGB color packed as 0xRRGGBBAA. This is the exact
// word written into the vertex buffer; the shader unpacks and converts
// to linear space.
type Color uint32

// NewColor packs the four channels into a Color.
func NewColor(r, g, b, a uint8) Color {
	return Color(uint32(r)<<24 | uint32(g)<<16 | uint32(b)<<8 | uint32(a))
}

// Common colors.
const (
	ColorWhite       Color = 0xFFFFFFFF
	ColorBlack       Color = 0x000000FF
	ColorTransparent Color = 0x00000000
)

// Red returns the red channel.
func (c Color) Red() uint8 { return uint8(c >> 24) }

// Green returns the green channel.
func (c Color) Green() uint8 { return uint8(c >> 16) }

// Blue returns the blue channel.
func (c Color) Blue() uint8 { return uint8(c >> 8) }

// Alpha returns the alpha channel.
func (c Color) Alpha() uint8 { return uint8(c) }
