// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package metafile

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"io"
	"slices"

	"golang.org/x/image/bmp"
)

const (
	endianBig    = 0
	endianLittle = 1
)

func (p *parser) pixmap(t tag, size int64, tex *Texture) error {
	var h struct {
		Width, Height, RowBytes        uint32
		PixelType, BitOrder, ByteOrder uint32
	}
	hdrSize := int64(7 * 4)
	if t == tagTxmm {
		hdrSize = 8 * 4
		var mm struct {
			Mipmapping                     uint32
			PixelType, BitOrder, ByteOrder uint32
			Width, Height, RowBytes        uint32
			Offset                         uint32
		}
		if err := p.r.ReadStruct(&mm); err != nil {
			return err
		}
		if mm.Mipmapping != 0 {
			return fmt.Errorf("%w: mipmaps", ErrUnsupported)
		}
		if mm.Offset != 0 {
			return fmt.Errorf("%w: texture offset %d", ErrUnsupported, mm.Offset)
		}
		h.Width, h.Height, h.RowBytes = mm.Width, mm.Height, mm.RowBytes
		h.PixelType, h.BitOrder, h.ByteOrder = mm.PixelType, mm.BitOrder, mm.ByteOrder
	} else {
		var pm struct {
			Width, Height, RowBytes        uint32
			PixelSize                      uint32
			PixelType, BitOrder, ByteOrder uint32
		}
		if err := p.r.ReadStruct(&pm); err != nil {
			return err
		}
		h.Width, h.Height, h.RowBytes = pm.Width, pm.Height, pm.RowBytes
		h.PixelType, h.BitOrder, h.ByteOrder = pm.PixelType, pm.BitOrder, pm.ByteOrder
	}

	if h.Width == 0 || h.Height == 0 {
		return fmt.Errorf("%w: empty pixmap", ErrFormat)
	}
	packed := int64(h.RowBytes) * int64(h.Height)
	imageSize := (packed + 3) &^ 3
	if size != hdrSize+imageSize {
		return fmt.Errorf("%w: %dx%d pixmap (row %d bytes) in %d bytes", ErrFormat, h.Width, h.Height, h.RowBytes, size)
	}
	if h.BitOrder != endianBig {
		return fmt.Errorf("%w: little-endian bit order", ErrUnsupported)
	}
	pt := PixelType(h.PixelType)
	bpp := pt.bytesPerPixel()
	if bpp == 0 {
		return fmt.Errorf("%w: pixel type %d", ErrUnsupported, h.PixelType)
	}
	trimmed := int64(bpp) * int64(h.Width)
	if trimmed > int64(h.RowBytes) {
		return fmt.Errorf("%w: %d pixels wide in %d-byte rows", ErrFormat, h.Width, h.RowBytes)
	}

	pix := make([]byte, 0, trimmed*int64(h.Height))
	for range h.Height {
		row, err := p.r.Bytes(int(trimmed))
		if err != nil {
			return err
		}
		pix = append(pix, row...)
		if err := p.r.Skip(int64(h.RowBytes) - trimmed); err != nil {
			return err
		}
	}
	if err := p.r.Skip(imageSize - packed); err != nil {
		return err
	}

	if h.ByteOrder == endianLittle {
		swapBytes(pix, bpp)
	}
	edgePad(pix, int(h.Width), int(h.Height), pt)

	tex.Width, tex.Height = int(h.Width), int(h.Height)
	tex.RowBytes = int(trimmed)
	tex.PixelType = pt
	tex.Pixels = pix
	return nil
}

func swapBytes(pix []byte, width int) {
	for px := range slices.Chunk(pix, width) {
		slices.Reverse(px)
	}
}

const edgePadRounds = 8

// edgePad gives fully zero texels the colour of a neighbour, still transparent,
// so that filtering at the edge of a cutout does not pull in black
func edgePad(pix []byte, width, height int, pt PixelType) {
	var alpha byte // mask over the first byte of a texel
	switch pt {
	case ARGB32:
		alpha = 0xff
	case ARGB16:
		alpha = 0x80
	default:
		return
	}
	bpp := pt.bytesPerPixel()
	texel := func(x, y int) []byte {
		return pix[(y*width+x)*bpp:][:bpp]
	}
	fill := func(dst, src []byte) {
		if slices.ContainsFunc(dst, func(b byte) bool { return b != 0 }) {
			return
		}
		copy(dst, src)
		dst[0] &^= alpha
	}

	for range edgePadRounds {
		for y := range height {
			for x := 0; x < width-1; x++ {
				fill(texel(x, y), texel(x+1, y))
			}
			for x := width - 1; x > 0; x-- {
				fill(texel(x, y), texel(x-1, y))
			}
		}
		for x := range width {
			for y := 0; y < height-1; y++ {
				fill(texel(x, y), texel(x, y+1))
			}
			for y := height - 1; y > 0; y-- {
				fill(texel(x, y), texel(x, y-1))
			}
		}
	}
}

// TextureImage converts the pixmap to straight alpha.
// A texture shader that never received a pixmap gives an empty image.
func TextureImage(t *Texture) image.Image {
	if !t.loaded() {
		return image.NewNRGBA(image.Rectangle{})
	}
	img := image.NewNRGBA(image.Rect(0, 0, t.Width, t.Height))
	bpp := t.PixelType.bytesPerPixel()
	for y := range t.Height {
		row := t.Pixels[y*t.RowBytes:][:t.RowBytes]
		for x := range t.Width {
			px := row[x*bpp:][:bpp]
			img.SetNRGBA(x, y, pixel(t.PixelType, px))
		}
	}
	return img
}

func pixel(pt PixelType, px []byte) color.NRGBA {
	switch pt {
	case RGB32:
		return color.NRGBA{px[1], px[2], px[3], 0xff}
	case ARGB32:
		return color.NRGBA{px[1], px[2], px[3], px[0]}
	}

	v := binary.BigEndian.Uint16(px)
	c := color.NRGBA{
		R: expand5(v >> 10),
		G: expand5(v >> 5),
		B: expand5(v),
		A: 0xff,
	}
	if pt == ARGB16 && v&0x8000 == 0 {
		c.A = 0
	}
	return c
}

func expand5(v uint16) uint8 {
	v &= 0x1f
	return uint8(v<<3 | v>>2)
}

// WriteBMP encodes a texture as a 32-bit BMP
func WriteBMP(w io.Writer, t *Texture) error {
	return bmp.Encode(w, TextureImage(t))
}
