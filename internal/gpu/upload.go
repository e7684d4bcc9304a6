package gpu

import (
	"fmt"

	"github.com/cdaudt/camlink/internal/pixel"
)

// UploadFrame converts the frame to RGBA and writes it into a newly
// allocated 2D texture (RGBA8UnormSrgb, 1 mip level, 1 sample, usable
// for sampling and as a copy destination). The row stride is 4*width
// bytes. Dimensions are validated before any device call: a zero width
// or height is an UploadError, and no texture is allocated.
func UploadFrame(dev Device, q Queue, frame *pixel.RGB, label string) (Texture, error) {
	if frame.Width <= 0 || frame.Height <= 0 {
		return nil, &UploadError{
			Reason: fmt.Sprintf("invalid frame dimensions %dx%d", frame.Width, frame.Height),
		}
	}

	rgba := frame.ToRGBA()
	size := Extent3D{
		Width:              uint32(frame.Width),
		Height:             uint32(frame.Height),
		DepthOrArrayLayers: 1,
	}

	tex, err := dev.CreateTexture(&TextureDescriptor{
		Label:         label,
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     TextureDimension2D,
		Format:        TextureFormatRGBA8UnormSrgb,
		Usage:         TextureUsageTextureBinding | TextureUsageCopyDst,
	})
	if err != nil {
		return nil, &UploadError{Reason: "texture allocation", Err: err}
	}

	err = q.WriteTexture(
		&CopyDestination{Texture: tex},
		rgba.Pix,
		&DataLayout{
			BytesPerRow:  4 * uint32(frame.Width),
			RowsPerImage: uint32(frame.Height),
		},
		size,
	)
	if err != nil {
		tex.Release()
		return nil, &UploadError{Reason: "texture write", Err: err}
	}

	return tex, nil
}
