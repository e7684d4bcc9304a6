package gpu

import (
	"errors"
	"testing"

	"github.com/cdaudt/camlink/internal/pixel"
)

type fakeTexture struct {
	desc     TextureDescriptor
	released bool
}

func (t *fakeTexture) Width() uint32 { return t.desc.Size.Width }
func (t *fakeTexture) Height() uint32 { return t.desc.Size.Height }
func (t *fakeTexture) Format() TextureFormat { return t.desc.Format }
func (t *fakeTexture) Release() { t.released = true }

type fakeDevice struct {
	created   []*fakeTexture
	createErr error
}

func (d *fakeDevice) CreateTexture(desc *TextureDescriptor) (Texture, error) {
	if d.createErr != nil {
		return nil, d.createErr
	}
	tex := &fakeTexture{desc: *desc}
	d.created = append(d.created, tex)
	return tex, nil
}

type fakeQueue struct {
	writes []writeCall
	err    error
}

type writeCall struct {
	dst    CopyDestination
	data   []byte
	layout DataLayout
	size   Extent3D
}

func (q *fakeQueue) WriteTexture(dst *CopyDestination, data []byte, layout *DataLayout, size Extent3D) error {
	if q.err != nil {
		return q.err
	}
	q.writes = append(q.writes, writeCall{dst: *dst, data: data, layout: *layout, size: size})
	return nil
}

func testFrame(w, h int) *pixel.RGB {
	f := pixel.NewRGB(w, h)
	for i := range f.Pix {
		f.Pix[i] = byte(i)
	}
	return f
}

func TestUploadFrame(t *testing.T) {
	dev := &fakeDevice{}
	q := &fakeQueue{}

	tex, err := UploadFrame(dev, q, testFrame(4, 2), "preview")
	if err != nil {
		t.Fatalf("UploadFrame failed: %v", err)
	}
	if tex.Width() != 4 || tex.Height() != 2 {
		t.Errorf("texture is %dx%d, want 4x2", tex.Width(), tex.Height())
	}

	if len(dev.created) != 1 {
		t.Fatalf("created %d textures, want 1", len(dev.created))
	}
	desc := dev.created[0].desc
	if desc.Format != TextureFormatRGBA8UnormSrgb {
		t.Errorf("format = %q", desc.Format)
	}
	if desc.MipLevelCount != 1 || desc.SampleCount != 1 {
		t.Errorf("mips/samples = %d/%d, want 1/1", desc.MipLevelCount, desc.SampleCount)
	}
	if desc.Dimension != TextureDimension2D {
		t.Errorf("dimension = %q", desc.Dimension)
	}
	if desc.Usage&TextureUsageCopyDst == 0 || desc.Usage&TextureUsageTextureBinding == 0 {
		t.Errorf("usage = %b, want copy-dst and texture-binding", desc.Usage)
	}
	if desc.Label != "preview" {
		t.Errorf("label = %q", desc.Label)
	}
	if desc.Size.DepthOrArrayLayers != 1 {
		t.Errorf("depth = %d, want 1", desc.Size.DepthOrArrayLayers)
	}

	if len(q.writes) != 1 {
		t.Fatalf("got %d writes, want 1", len(q.writes))
	}
	write := q.writes[0]
	if write.layout.BytesPerRow != 16 {
		t.Errorf("bytesPerRow = %d, want 16", write.layout.BytesPerRow)
	}
	if write.layout.RowsPerImage != 2 {
		t.Errorf("rowsPerImage = %d, want 2", write.layout.RowsPerImage)
	}
	if len(write.data) != 4*2*4 {
		t.Errorf("wrote %d bytes, want 32", len(write.data))
	}
	if write.dst.MipLevel != 0 {
		t.Errorf("mip level = %d, want 0", write.dst.MipLevel)
	}
}

func TestUploadFrameZeroDimensions(t *testing.T) {
	dev := &fakeDevice{}
	q := &fakeQueue{}

	for _, frame := range []*pixel.RGB{
		{Width: 0, Height: 4},
		{Width: 4, Height: 0},
		{Width: 0, Height: 0},
	} {
		_, err := UploadFrame(dev, q, frame, "")
		var upErr *UploadError
		if !errors.As(err, &upErr) {
			t.Fatalf("%dx%d: got %T (%v), want *UploadError", frame.Width, frame.Height, err, err)
		}
	}
	// Validation happens before any device call.
	if len(dev.created) != 0 {
		t.Errorf("allocated %d textures for invalid frames", len(dev.created))
	}
	if len(q.writes) != 0 {
		t.Errorf("issued %d writes for invalid frames", len(q.writes))
	}
}

func TestUploadFrameCreateError(t *testing.T) {
	dev := &fakeDevice{createErr: errors.New("out of memory")}
	q := &fakeQueue{}

	_, err := UploadFrame(dev, q, testFrame(2, 2), "")
	var upErr *UploadError
	if !errors.As(err, &upErr) {
		t.Fatalf("got %T, want *UploadError", err)
	}
	if len(q.writes) != 0 {
		t.Error("write issued despite allocation failure")
	}
}

func TestUploadFrameWriteErrorReleasesTexture(t *testing.T) {
	dev := &fakeDevice{}
	q := &fakeQueue{err: errors.New("device lost")}

	_, err := UploadFrame(dev, q, testFrame(2, 2), "")
	var upErr *UploadError
	if !errors.As(err, &upErr) {
		t.Fatalf("got %T, want *UploadError", err)
	}
	if len(dev.created) != 1 || !dev.created[0].released {
		t.Error("texture not released after failed write")
	}
}
