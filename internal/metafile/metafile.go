// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package metafile reads the simple (non-database) flavour of QuickDraw 3D metafiles
package metafile

import (
	"encoding/binary"
	"errors"

	"github.com/elliotnunn/MacShim/internal/beio"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	ErrFormat      = errors.New("not a valid 3DMF file")
	ErrUnsupported = errors.New("unsupported 3DMF feature")
)

type Metafile struct {
	Groups   [][]int // indices into Meshes
	Meshes   []*Mesh
	Textures []*Texture
}

type BBox struct {
	Min, Max mgl32.Vec3
	Empty    bool
}

type Mesh struct {
	Points    []mgl32.Vec3
	Triangles [][3]uint32

	// Optional per-vertex arrays, nil or len(Points)
	UVs           []mgl32.Vec2
	VertexNormals []mgl32.Vec3
	VertexColors  []mgl32.Vec4

	Diffuse         mgl32.Vec4
	HasDiffuse      bool
	HasTransparency bool
	BBox            BBox
	TextureID       int // index into Textures, or -1
}

type Boundary uint32

const (
	Wrap Boundary = iota
	Clamp
)

type PixelType uint32

const (
	RGB32 PixelType = iota
	ARGB32
	RGB16
	ARGB16
	RGB565
	RGB24
)

func (p PixelType) bytesPerPixel() int {
	switch p {
	case RGB32, ARGB32:
		return 4
	case RGB16, ARGB16:
		return 2
	default:
		return 0
	}
}

// Texture holds a decoded pixmap. Pixels are rows of RowBytes with no stride
// padding, top row first. Each texel is stored big-endian whatever the byte
// order of the file, so the alpha byte or bit of ARGB32 and ARGB16 comes first.
// Fully zero texels of the ARGB formats have been given a neighbour's colour.
type Texture struct {
	Width, Height int
	RowBytes      int
	PixelType     PixelType
	Pixels        []byte
	WrapU, WrapV  Boundary
}

func (t *Texture) loaded() bool {
	return t.Pixels != nil
}

type tag uint32

func (t tag) String() string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(t))
	return beio.MacRoman(b[:])
}

func mk(s string) tag {
	return tag(binary.BigEndian.Uint32([]byte(s)))
}

var (
	tag3DMF = mk("3DMF")
	tagTOC  = mk("toc ")
	tagCntr = mk("cntr")
	tagBgng = mk("bgng")
	tagEndg = mk("endg")
	tagAttr = mk("attr")
	tagTmsh = mk("tmsh")
	tagAtar = mk("atar")
	tagKdif = mk("kdif")
	tagKxpr = mk("kxpr")
	tagTxsu = mk("txsu")
	tagTxmm = mk("txmm")
	tagTxpm = mk("txpm")
	tagShdr = mk("shdr")
	tagRfrn = mk("rfrn")
)
