package dwivol

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/carbocation/pfx"
)

// nifti1Header mirrors the fixed 348-byte NIfTI-1 header layout. It exists
// because the volume-reading library exposes decoded data but not the full
// orientation block, which the geometry checks and the writer both need.
type nifti1Header struct {
	SizeofHdr      int32
	DataTypeUnused [10]byte
	DbName         [18]byte
	Extents        int32
	SessionError   int16
	Regular        byte
	DimInfo        byte
	Dim            [8]int16
	IntentP1       float32
	IntentP2       float32
	IntentP3       float32
	IntentCode     int16
	Datatype       int16
	Bitpix         int16
	SliceStart     int16
	Pixdim         [8]float32
	VoxOffset      float32
	SclSlope       float32
	SclInter       float32
	SliceEnd       int16
	SliceCode      byte
	XyztUnits      byte
	CalMax         float32
	CalMin         float32
	SliceDuration  float32
	Toffset        float32
	Glmax          int32
	Glmin          int32
	Descrip        [80]byte
	AuxFile        [24]byte
	QformCode      int16
	SformCode      int16
	QuaternB       float32
	QuaternC       float32
	QuaternD       float32
	QoffsetX       float32
	QoffsetY       float32
	QoffsetZ       float32
	SrowX          [4]float32
	SrowY          [4]float32
	SrowZ          [4]float32
	IntentName     [16]byte
	Magic          [4]byte
}

const (
	nifti1HeaderSize = 348

	// Single-file magic "n+1\0"
	nifti1MagicN1 = "n+1\x00"

	dtFloat32 = 16
)

// openMaybeGzip opens path and transparently unwraps gzip compression, which
// is detected by content (the 1f 8b magic), not by filename.
func openMaybeGzip(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	head := make([]byte, 2)
	if _, err := io.ReadFull(f, head); err != nil {
		f.Close()
		return nil, pfx.Err(err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, pfx.Err(err)
	}

	if head[0] != 0x1f || head[1] != 0x8b {
		return f, nil
	}

	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, pfx.Err(err)
	}

	return &gzipReadCloser{gz: gz, f: f}, nil
}

type gzipReadCloser struct {
	gz *gzip.Reader
	f  *os.File
}

func (g *gzipReadCloser) Read(p []byte) (int, error) { return g.gz.Read(p) }

func (g *gzipReadCloser) Close() error {
	gzErr := g.gz.Close()
	fErr := g.f.Close()
	if gzErr != nil {
		return gzErr
	}

	return fErr
}

// readHeader decodes the raw NIfTI-1 header of the file at path, trying
// little-endian first and falling back to big-endian when the declared header
// size disagrees.
func readHeader(path string) (nifti1Header, error) {
	var hdr nifti1Header

	r, err := openMaybeGzip(path)
	if err != nil {
		return hdr, err
	}
	defer r.Close()

	raw := make([]byte, nifti1HeaderSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return hdr, fmt.Errorf("reading NIfTI header of %s: %w", path, err)
	}

	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		if err := binary.Read(bytes.NewReader(raw), order, &hdr); err != nil {
			return hdr, pfx.Err(err)
		}
		if hdr.SizeofHdr == nifti1HeaderSize {
			break
		}
	}

	if hdr.SizeofHdr != nifti1HeaderSize {
		return hdr, fmt.Errorf("%s does not look like a NIfTI-1 file (declared header size %d)", path, hdr.SizeofHdr)
	}

	if hdr.Dim[0] < 1 || hdr.Dim[0] > 7 {
		return hdr, fmt.Errorf("%s declares %d axes, outside the NIfTI-1 range [1, 7]", path, hdr.Dim[0])
	}

	return hdr, nil
}

func (h nifti1Header) geometry() Geometry {
	g := Geometry{
		Nx:        int(h.Dim[1]),
		Ny:        int(h.Dim[2]),
		Nz:        int(h.Dim[3]),
		Dx:        float64(h.Pixdim[1]),
		Dy:        float64(h.Pixdim[2]),
		Dz:        float64(h.Pixdim[3]),
		QFormCode: h.QformCode,
		SFormCode: h.SformCode,
		QuaternB:  float64(h.QuaternB),
		QuaternC:  float64(h.QuaternC),
		QuaternD:  float64(h.QuaternD),
		QOffsetX:  float64(h.QoffsetX),
		QOffsetY:  float64(h.QoffsetY),
		QOffsetZ:  float64(h.QoffsetZ),
		QFac:      float64(h.Pixdim[0]),
		SRowX:     srow(h.SrowX),
		SRowY:     srow(h.SrowY),
		SRowZ:     srow(h.SrowZ),
	}

	// An unset qfac means an identity handedness
	if g.QFac == 0 {
		g.QFac = 1
	}

	return g
}

func srow(row [4]float32) [4]float64 {
	var out [4]float64
	for i, v := range row {
		out[i] = float64(v)
	}

	return out
}

// headerFor builds a writable header for float32 output on the given grid,
// carrying the source orientation forward so outputs stay aligned with their
// inputs. naxes distinguishes a true 4-D single-volume series from a plain
// 3-D volume.
func headerFor(geom Geometry, nvols, naxes int) nifti1Header {
	hdr := nifti1Header{
		SizeofHdr: nifti1HeaderSize,
		Datatype:  dtFloat32,
		Bitpix:    32,
		VoxOffset: nifti1HeaderSize + 4,
		SclSlope:  1,
		SclInter:  0,
		XyztUnits: 10, // mm and seconds
		QformCode: geom.QFormCode,
		SformCode: geom.SFormCode,
		QuaternB:  float32(geom.QuaternB),
		QuaternC:  float32(geom.QuaternC),
		QuaternD:  float32(geom.QuaternD),
		QoffsetX:  float32(geom.QOffsetX),
		QoffsetY:  float32(geom.QOffsetY),
		QoffsetZ:  float32(geom.QOffsetZ),
	}

	copy(hdr.Magic[:], nifti1MagicN1)
	copy(hdr.Descrip[:], "dwiprep")

	for i := range hdr.SrowX {
		hdr.SrowX[i] = float32(geom.SRowX[i])
		hdr.SrowY[i] = float32(geom.SRowY[i])
		hdr.SrowZ[i] = float32(geom.SRowZ[i])
	}

	hdr.Dim[0] = 3
	hdr.Dim[1] = int16(geom.Nx)
	hdr.Dim[2] = int16(geom.Ny)
	hdr.Dim[3] = int16(geom.Nz)
	for i := 4; i < 8; i++ {
		hdr.Dim[i] = 1
	}
	if nvols > 1 || naxes == 4 {
		hdr.Dim[0] = 4
		hdr.Dim[4] = int16(nvols)
	}

	hdr.Pixdim[0] = float32(geom.QFac)
	hdr.Pixdim[1] = float32(geom.Dx)
	hdr.Pixdim[2] = float32(geom.Dy)
	hdr.Pixdim[3] = float32(geom.Dz)

	return hdr
}

// writeNifti writes a float32 NIfTI-1 file. Output is gzip-compressed when
// the path ends in .gz.
func writeNifti(path string, hdr nifti1Header, data []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}
	defer f.Close()

	var w io.Writer = f
	var gz *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		gz = gzip.NewWriter(f)
		w = gz
	}

	if err := binary.Write(w, binary.LittleEndian, hdr); err != nil {
		return pfx.Err(err)
	}

	// Four zero bytes mean "no header extensions"
	if _, err := w.Write([]byte{0, 0, 0, 0}); err != nil {
		return pfx.Err(err)
	}

	buf := make([]float32, len(data))
	for i, v := range data {
		buf[i] = float32(v)
	}
	if err := binary.Write(w, binary.LittleEndian, buf); err != nil {
		return pfx.Err(err)
	}

	if gz != nil {
		if err := gz.Close(); err != nil {
			return pfx.Err(err)
		}
	}

	return f.Close()
}
