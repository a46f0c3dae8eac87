// Package blit is a batched 2D rendering core for GPU pipelines.
//
// blit turns a sequence of drawing requests (meshes, shaped text
// glyphs, sprite images, tile layers) into a minimal set of GPU draw
// calls per frame, while managing a shared texture atlas for small
// images and glyph bitmaps.
//
// The package is organized around a few long-lived types and one
// frame-scoped type:
//
//   - [Atlas] packs many small images into shared GPU textures and hands
//     out reference-counted [Slot] handles.
//   - [PreparedGraphic] is an immutable GPU vertex/index buffer pair,
//     built once and drawn many times.
//   - [Drawing] accumulates draw commands for one frame through a
//     [Frame] builder, groups them into state-sharing batch runs, and
//     submits them in painter's-algorithm order.
//
// blit does not create a GPU device. The host application provides one
// through the interfaces in device.go; backend/native implements them on
// top of gogpu/wgpu. Window management, text shaping and path
// tessellation are external collaborators: blit consumes already-shaped
// glyphs and already-tessellated triangle lists.
//
// All coordinates the GPU sees are fixed-point device pixels ([Px],
// quarter-pixel resolution). Conversion from device-independent pixels
// ([Dip]) uses an integer ratio ([Fraction]) so that layout is
// bit-reproducible across frames at the same scale.
package blit
