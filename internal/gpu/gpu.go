// Package gpu uploads decoded frames into GPU textures. No GPU binding
// is linked here; callers supply a Device/Queue pair satisfying the
// WebGPU-shaped interfaces below.
package gpu

import "fmt"

// TextureFormat names a texel layout.
type TextureFormat string

// TextureFormatRGBA8UnormSrgb is 8-bit RGBA with gamma-corrected
// (sRGB) interpretation, the only format this package produces.
const TextureFormatRGBA8UnormSrgb TextureFormat = "rgba8unorm-srgb"

// TextureDimension is the dimensionality of a texture.
type TextureDimension string

const (
	TextureDimension1D TextureDimension = "1d"
	TextureDimension2D TextureDimension = "2d"
	TextureDimension3D TextureDimension = "3d"
)

// TextureUsage is a bitmask of allowed texture operations.
type TextureUsage uint32

const (
	// TextureUsageCopyDst allows the texture to be a copy destination.
	TextureUsageCopyDst TextureUsage = 1 << iota
	// TextureUsageTextureBinding allows sampling the texture in shaders.
	TextureUsageTextureBinding
)

// Extent3D is the size of a texture region.
type Extent3D struct {
	Width              uint32
	Height             uint32
	DepthOrArrayLayers uint32
}

// Origin3D is the offset of a texture region.
type Origin3D struct {
	X, Y, Z uint32
}

// TextureDescriptor fully specifies a texture allocation.
type TextureDescriptor struct {
	Label         string
	Size          Extent3D
	MipLevelCount uint32
	SampleCount   uint32
	Dimension     TextureDimension
	Format        TextureFormat
	Usage         TextureUsage
}

// Texture is a device-side image resource. Ownership transfers to the
// caller of CreateTexture.
type Texture interface {
	Width() uint32
	Height() uint32
	Format() TextureFormat
	Release()
}

// Device allocates textures.
type Device interface {
	CreateTexture(desc *TextureDescriptor) (Texture, error)
}

// DataLayout describes how pixel bytes map onto a texture region.
type DataLayout struct {
	Offset       uint64
	BytesPerRow  uint32
	RowsPerImage uint32
}

// CopyDestination addresses a texture region for writes.
type CopyDestination struct {
	Texture  Texture
	MipLevel uint32
	Origin   Origin3D
}

// Queue writes pixel data into texture regions.
type Queue interface {
	WriteTexture(dst *CopyDestination, data []byte, layout *DataLayout, size Extent3D) error
}

// UploadError reports a failed or rejected texture upload.
type UploadError struct {
	Reason string
	Err    error
}

func (e *UploadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gpu: upload failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("gpu: upload failed: %s", e.Reason)
}

func (e *UploadError) Unwrap() error { return e.Err }
