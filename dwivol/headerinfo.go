package dwivol

import (
	"bytes"
	"fmt"
)

// HeaderInfo is the header summary surfaced by inspection tooling. It decodes
// straight from the raw header, so it reflects the file as stored rather than
// the float64 in-memory representation.
type HeaderInfo struct {
	NAxes    int
	Dim      [7]int
	Pixdim   [7]float64
	Datatype string
	SclSlope float64
	SclInter float64
	QForm    int16
	SForm    int16
	Descrip  string
}

var datatypeNames = map[int16]string{
	2:    "uint8",
	4:    "int16",
	8:    "int32",
	16:   "float32",
	64:   "float64",
	256:  "int8",
	512:  "uint16",
	768:  "uint32",
	1024: "int64",
	1280: "uint64",
}

// LoadHeaderInfo reads and summarizes the NIfTI-1 header of the file at path.
func LoadHeaderInfo(path string) (*HeaderInfo, error) {
	hdr, err := readHeader(path)
	if err != nil {
		return nil, err
	}

	out := &HeaderInfo{
		NAxes:    int(hdr.Dim[0]),
		SclSlope: float64(hdr.SclSlope),
		SclInter: float64(hdr.SclInter),
		QForm:    hdr.QformCode,
		SForm:    hdr.SformCode,
		Descrip:  string(bytes.TrimRight(hdr.Descrip[:], "\x00")),
	}

	for i := 0; i < 7; i++ {
		out.Dim[i] = int(hdr.Dim[i+1])
		out.Pixdim[i] = float64(hdr.Pixdim[i+1])
	}

	if name, ok := datatypeNames[hdr.Datatype]; ok {
		out.Datatype = name
	} else {
		out.Datatype = fmt.Sprintf("code %d", hdr.Datatype)
	}

	return out, nil
}
