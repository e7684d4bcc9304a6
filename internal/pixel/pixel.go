package pixel

import "image"

// RGB is a decoded 3-channel frame: 8 bits per channel, row-major,
// no row padding. len(Pix) == 3 * Width * Height.
type RGB struct {
	Pix    []byte
	Width  int
	Height int
}

// RGBA is a 4-channel frame in the same layout with an alpha channel.
// len(Pix) == 4 * Width * Height.
type RGBA struct {
	Pix    []byte
	Width  int
	Height int
}

// NewRGB allocates a zeroed RGB frame of the given dimensions.
func NewRGB(width, height int) *RGB {
	return &RGB{
		Pix:    make([]byte, 3*width*height),
		Width:  width,
		Height: height,
	}
}

// ToRGBA expands each 3-byte pixel to 4 bytes, setting alpha to fully
// opaque. The RGB channels are copied unchanged. The input is never
// modified.
func (f *RGB) ToRGBA() *RGBA {
	n := len(f.Pix) / 3
	out := make([]byte, n*4)
	for i := 0; i < n; i++ {
		out[i*4] = f.Pix[i*3]
		out[i*4+1] = f.Pix[i*3+1]
		out[i*4+2] = f.Pix[i*3+2]
		out[i*4+3] = 0xFF
	}
	return &RGBA{
		Pix:    out,
		Width:  f.Width,
		Height: f.Height,
	}
}

// Clone returns an independent copy of the frame.
func (f *RGB) Clone() *RGB {
	pix := make([]byte, len(f.Pix))
	copy(pix, f.Pix)
	return &RGB{Pix: pix, Width: f.Width, Height: f.Height}
}

// Image wraps the frame in a stdlib image.RGBA without copying.
// The returned image shares Pix with the frame.
func (f *RGBA) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    f.Pix,
		Stride: 4 * f.Width,
		Rect:   image.Rect(0, 0, f.Width, f.Height),
	}
}
