// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package metafile

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/elliotnunn/MacShim/internal/beio"
	"github.com/go-gl/mathgl/mgl32"
)

// rfrn chains deeper than this are assumed to be cyclic
const maxRefDepth = 64

// QuickDraw 3D attribute types
const (
	attrSurfaceUV   = 1
	attrShadingUV   = 2
	attrNormal      = 3
	attrDiffuse     = 5
	attrNumTypes    = 12
	arrayOfTriangle = 0
	arrayOfVertex   = 2
)

// errStop unwinds the parse when a zero tag is found.
// Some shipping files carry trailing garbage that starts this way.
var errStop = errors.New("early end of 3DMF stream")

type chunkError struct {
	tag    tag
	offset int64
	err    error
}

func (e *chunkError) Error() string {
	return fmt.Sprintf("3DMF %q chunk at %#x: %v", e.tag.String(), e.offset, e.err)
}

func (e *chunkError) Unwrap() error { return e.err }

type tocEntry struct {
	RefID  uint32
	Offset uint64
	Type   uint32
}

type parser struct {
	r        *beio.Reader
	mf       *Metafile
	toc      map[uint32]tocEntry
	textures map[int64]int // txsu offset to index in mf.Textures
	end      int64 // length of the stream
	depth    int
	refDepth int
	mesh     *Mesh // nil outside a mesh
}

// Parse reads a whole metafile. On any error nothing is returned.
func Parse(rs io.ReadSeeker) (*Metafile, error) {
	p := &parser{
		r:        beio.NewReader(rs),
		mf:       &Metafile{},
		toc:      make(map[uint32]tocEntry),
		textures: make(map[int64]int),
	}

	size, err := p.r.Size()
	if err != nil {
		return nil, err
	}
	p.end = size
	if err := p.r.Goto(0); err != nil {
		return nil, err
	}
	if err := p.header(); err != nil {
		return nil, err
	}

	for p.r.Tell() < size {
		_, err := p.chunk()
		if errors.Is(err, errStop) {
			break
		} else if err != nil {
			return nil, err
		}
	}
	return p.mf, nil
}

func (p *parser) header() error {
	var h struct {
		Magic     uint32
		HeaderLen uint32
		Major     uint16
		Minor     uint16
		Flags     uint32
		TOC       uint64
	}
	if err := p.r.ReadStruct(&h); err != nil {
		return fmt.Errorf("%w: %w", ErrFormat, err)
	}
	if tag(h.Magic) != tag3DMF {
		return fmt.Errorf("%w: bad magic %q", ErrFormat, tag(h.Magic).String())
	}
	if h.HeaderLen != 16 {
		return fmt.Errorf("%w: header length %d", ErrFormat, h.HeaderLen)
	}
	if h.Major != 1 || (h.Minor != 5 && h.Minor != 6) {
		return fmt.Errorf("%w: version %d.%d", ErrUnsupported, h.Major, h.Minor)
	}
	if h.Flags != 0 {
		return fmt.Errorf("%w: file flags %#x (only normal files are read)", ErrUnsupported, h.Flags)
	}
	if h.TOC != 0 {
		return p.readTOC(int64(h.TOC))
	}
	return nil
}

func (p *parser) readTOC(off int64) error {
	defer p.r.Guard()()
	if err := p.r.Goto(off); err != nil {
		return err
	}

	var h struct {
		Tag       uint32
		Size      uint32
		NextTOC   uint64
		RefSeed   uint32
		TypeSeed  uint32
		EntryType uint32
		EntrySize uint32
		N         uint32
	}
	if err := p.r.ReadStruct(&h); err != nil {
		return fmt.Errorf("%w: table of contents: %w", ErrFormat, err)
	}
	if tag(h.Tag) != tagTOC {
		return fmt.Errorf("%w: no table of contents at %#x", ErrFormat, off)
	}
	if h.EntryType != 1 || h.EntrySize != 16 {
		return fmt.Errorf("%w: table of contents entry type %d size %d", ErrUnsupported, h.EntryType, h.EntrySize)
	}

	if int64(h.N)*int64(h.EntrySize) > p.end-p.r.Tell() {
		return fmt.Errorf("%w: %d table of contents entries run past the end of the file", ErrFormat, h.N)
	}
	for range h.N {
		var e tocEntry
		if err := p.r.ReadStruct(&e); err != nil {
			return fmt.Errorf("%w: table of contents: %w", ErrFormat, err)
		}
		p.toc[e.RefID] = e
	}
	return nil
}

// chunk parses the chunk under the cursor and returns its tag
func (p *parser) chunk() (tag, error) {
	start := p.r.Tell()
	var h struct {
		Tag  uint32
		Size uint32
	}
	if err := p.r.ReadStruct(&h); err != nil {
		return 0, fmt.Errorf("%w: chunk at %#x: %w", ErrFormat, start, err)
	}
	t := tag(h.Tag)
	if t == 0 {
		slog.Debug("metafileEarlyEOF", "offset", start)
		return 0, errStop
	}

	var err error
	if size := int64(h.Size); size > p.end-p.r.Tell() {
		err = fmt.Errorf("%w: %d bytes run past the end of the file", ErrFormat, size)
	} else {
		err = p.dispatch(t, start, size)
	}
	if err != nil && !errors.Is(err, errStop) {
		if errors.Is(err, beio.ErrEOS) && !errors.Is(err, ErrFormat) {
			err = fmt.Errorf("%w: %w", ErrFormat, err)
		}
		var ce *chunkError
		if !errors.As(err, &ce) {
			err = &chunkError{tag: t, offset: start, err: err}
		}
	}
	return t, err
}

func (p *parser) dispatch(t tag, start, size int64) error {
	switch t {
	case tagCntr:
		return p.container(size)
	case tagBgng:
		return p.group(size)
	case tagEndg, tagAttr:
		return wantSize(size, 0)
	case tagTmsh:
		return p.triMesh(size)
	case tagAtar:
		return p.attributeArray(size)
	case tagKdif, tagKxpr:
		return p.color(t, size)
	case tagTxsu:
		return p.textureShader(start, size)
	case tagTxmm, tagTxpm:
		tex, err := p.currentTexture()
		if err != nil {
			return err
		}
		if tex.loaded() {
			slog.Debug("metafileExtraPixmap", "offset", start)
			return p.r.Skip(size)
		}
		return p.pixmap(t, size, tex)
	case tagShdr:
		return p.boundary(size)
	case tagRfrn:
		return p.reference(size)
	case tagTOC:
		return p.r.Skip(size)
	default:
		return fmt.Errorf("%w: unrecognized chunk", ErrUnsupported)
	}
}

func wantSize(size, want int64) error {
	if size != want {
		return fmt.Errorf("%w: size %d, expected %d", ErrFormat, size, want)
	}
	return nil
}

func (p *parser) enter() {
	if p.depth == 0 {
		p.mf.Groups = append(p.mf.Groups, []int{})
	}
	p.depth++
}

func (p *parser) leave() {
	p.depth--
	p.mesh = nil
}

func (p *parser) container(size int64) error {
	p.enter()
	limit := p.r.Tell() + size
	for p.r.Tell() < limit {
		if _, err := p.chunk(); err != nil {
			return err
		}
	}
	if p.r.Tell() != limit {
		return fmt.Errorf("%w: contents overrun the container", ErrFormat)
	}
	p.leave()
	return nil
}

func (p *parser) group(size int64) error {
	p.enter()
	// the bgng body holds display group state that is not needed
	if err := p.r.Skip(size); err != nil {
		return err
	}
	for {
		t, err := p.chunk()
		if err != nil {
			return err
		}
		if t == tagEndg {
			break
		}
	}
	p.leave()
	return nil
}

func (p *parser) triMesh(size int64) error {
	if size < 52 {
		return fmt.Errorf("%w: mesh of %d bytes", ErrFormat, size)
	}
	if p.mesh != nil {
		return fmt.Errorf("%w: nested mesh", ErrUnsupported)
	}

	var h struct {
		Triangles     uint32
		TriangleAttrs uint32
		Edges         uint32
		EdgeAttrs     uint32
		Vertices      uint32
		VertexAttrs   uint32
	}
	if err := p.r.ReadStruct(&h); err != nil {
		return err
	}
	if h.Edges != 0 || h.EdgeAttrs != 0 {
		return fmt.Errorf("%w: mesh edges", ErrUnsupported)
	}

	// refuse counts that could not possibly fit in the chunk
	if int64(h.Vertices)*12 > size || int64(h.Triangles)*3 > size {
		return fmt.Errorf("%w: %d triangles and %d vertices in %d bytes", ErrFormat, h.Triangles, h.Vertices, size)
	}

	m := &Mesh{
		Points:    make([]mgl32.Vec3, h.Vertices),
		Triangles: make([][3]uint32, h.Triangles),
		Diffuse:   mgl32.Vec4{1, 1, 1, 1},
		TextureID: -1,
	}

	for i := range m.Triangles {
		for j := range 3 {
			var idx uint32
			var err error
			switch {
			case h.Vertices <= 0xff:
				var v uint8
				v, err = p.r.U8()
				idx = uint32(v)
			case h.Vertices <= 0xffff:
				var v uint16
				v, err = p.r.U16()
				idx = uint32(v)
			default:
				idx, err = p.r.U32()
			}
			if err != nil {
				return err
			}
			if idx >= h.Vertices {
				return fmt.Errorf("%w: triangle %d vertex index %d of %d", ErrFormat, i, idx, h.Vertices)
			}
			m.Triangles[i][j] = idx
		}
	}

	for i := range m.Points {
		v, err := p.vec3()
		if err != nil {
			return err
		}
		m.Points[i] = v
	}

	var err error
	if m.BBox.Min, err = p.vec3(); err != nil {
		return err
	}
	if m.BBox.Max, err = p.vec3(); err != nil {
		return err
	}
	empty, err := p.r.U32()
	if err != nil {
		return err
	}
	m.BBox.Empty = empty != 0

	p.mesh = m
	p.mf.Meshes = append(p.mf.Meshes, m)
	if len(p.mf.Groups) == 0 {
		p.mf.Groups = append(p.mf.Groups, []int{})
	}
	last := len(p.mf.Groups) - 1
	p.mf.Groups[last] = append(p.mf.Groups[last], len(p.mf.Meshes)-1)
	return nil
}

func (p *parser) vec3() (v mgl32.Vec3, err error) {
	for i := range v {
		if v[i], err = p.r.F32(); err != nil {
			return v, err
		}
	}
	return v, nil
}

func (p *parser) attributeArray(size int64) error {
	if size < 20 {
		return fmt.Errorf("%w: attribute array of %d bytes", ErrFormat, size)
	}
	m := p.mesh
	if m == nil {
		return fmt.Errorf("%w: attribute array outside a mesh", ErrFormat)
	}

	var h struct {
		Type            uint32
		Zero            uint32
		PositionOfArray uint32
		PositionInArray uint32
		UseFlag         uint32
	}
	if err := p.r.ReadStruct(&h); err != nil {
		return err
	}
	switch {
	case h.Zero != 0:
		return fmt.Errorf("%w: nonzero reserved field", ErrFormat)
	case h.Type < 1 || h.Type >= attrNumTypes:
		return fmt.Errorf("%w: attribute type %d", ErrFormat, h.Type)
	case h.PositionOfArray > 2:
		return fmt.Errorf("%w: attribute array position %d", ErrFormat, h.PositionOfArray)
	case h.UseFlag > 1:
		return fmt.Errorf("%w: attribute use flag %d", ErrFormat, h.UseFlag)
	}

	vertex := h.PositionOfArray == arrayOfVertex
	switch {
	case vertex && (h.Type == attrShadingUV || h.Type == attrSurfaceUV):
		if m.UVs != nil {
			return fmt.Errorf("%w: second vertex UV array", ErrFormat)
		}
		uvs := make([]mgl32.Vec2, len(m.Points))
		for i := range uvs {
			u, err := p.r.F32()
			if err != nil {
				return err
			}
			v, err := p.r.F32()
			if err != nil {
				return err
			}
			uvs[i] = mgl32.Vec2{u, 1 - v}
		}
		m.UVs = uvs

	case vertex && h.Type == attrNormal:
		if h.PositionInArray != 0 {
			return fmt.Errorf("%w: vertex normals at array position %d", ErrUnsupported, h.PositionInArray)
		}
		if m.VertexNormals != nil {
			return fmt.Errorf("%w: second vertex normal array", ErrFormat)
		}
		normals := make([]mgl32.Vec3, len(m.Points))
		for i := range normals {
			v, err := p.vec3()
			if err != nil {
				return err
			}
			normals[i] = v
		}
		m.VertexNormals = normals

	case vertex && h.Type == attrDiffuse:
		if m.VertexColors != nil {
			return fmt.Errorf("%w: second vertex color array", ErrFormat)
		}
		colors := make([]mgl32.Vec4, len(m.Points))
		for i := range colors {
			v, err := p.vec3()
			if err != nil {
				return err
			}
			colors[i] = v.Vec4(1)
		}
		m.VertexColors = colors

	case h.PositionOfArray == arrayOfTriangle && h.Type == attrNormal:
		// face normals are not kept
		return p.r.Skip(int64(len(m.Triangles)) * 12)

	default:
		return fmt.Errorf("%w: attribute type %d at array position %d", ErrUnsupported, h.Type, h.PositionOfArray)
	}
	return nil
}

func (p *parser) color(t tag, size int64) error {
	if err := wantSize(size, 12); err != nil {
		return err
	}
	if p.mesh == nil {
		return fmt.Errorf("%w: color outside a mesh", ErrFormat)
	}
	rgb, err := p.vec3()
	if err != nil {
		return err
	}

	if t == tagKdif {
		p.mesh.Diffuse = rgb.Vec4(p.mesh.Diffuse[3])
		p.mesh.HasDiffuse = true
		return nil
	}

	if rgb[0] != rgb[1] || rgb[1] != rgb[2] {
		return fmt.Errorf("%w: colored transparency %v", ErrUnsupported, rgb)
	}
	p.mesh.Diffuse[3] = rgb[0]
	p.mesh.HasTransparency = rgb[0] < 1
	return nil
}

func (p *parser) textureShader(start, size int64) error {
	if err := wantSize(size, 0); err != nil {
		return err
	}

	id, ok := p.textures[start]
	if !ok {
		id = len(p.mf.Textures)
		p.mf.Textures = append(p.mf.Textures, &Texture{})
		p.textures[start] = id
	}

	if p.mesh != nil && p.mesh.TextureID < 0 {
		p.mesh.TextureID = id
	}
	return nil
}

func (p *parser) currentTexture() (*Texture, error) {
	if len(p.mf.Textures) == 0 {
		return nil, fmt.Errorf("%w: texture without a texture shader", ErrFormat)
	}
	return p.mf.Textures[len(p.mf.Textures)-1], nil
}

func (p *parser) boundary(size int64) error {
	if err := wantSize(size, 8); err != nil {
		return err
	}
	tex, err := p.currentTexture()
	if err != nil {
		return err
	}
	var b struct{ U, V uint32 }
	if err := p.r.ReadStruct(&b); err != nil {
		return err
	}
	tex.WrapU, tex.WrapV = Boundary(b.U), Boundary(b.V)
	return nil
}

func (p *parser) reference(size int64) error {
	if err := wantSize(size, 4); err != nil {
		return err
	}
	id, err := p.r.U32()
	if err != nil {
		return err
	}
	e, ok := p.toc[id]
	if !ok {
		return fmt.Errorf("%w: reference %d is not in the table of contents", ErrFormat, id)
	}
	if p.refDepth >= maxRefDepth {
		return fmt.Errorf("%w: reference %d is cyclic", ErrFormat, id)
	}

	p.refDepth++
	defer func() { p.refDepth-- }()
	defer p.r.Guard()()
	if err := p.r.Goto(int64(e.Offset)); err != nil {
		return err
	}
	_, err = p.chunk()
	return err
}
