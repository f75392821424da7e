package main

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/dicomtag"
	"github.com/suyashkumar/dicom/element"
)

// Diffusion encoding tags. The standard pair lives in group 0018; older
// Siemens software stores the same values under private group 0019 instead.
var (
	tagBValue           = dicomtag.Tag{Group: 0x0018, Element: 0x9087}
	tagBValueSiemens    = dicomtag.Tag{Group: 0x0019, Element: 0x100C}
	tagDirection        = dicomtag.Tag{Group: 0x0018, Element: 0x9089}
	tagDirectionSiemens = dicomtag.Tag{Group: 0x0019, Element: 0x100E}
)

// encoding is the diffusion information pulled from one DICOM file.
type encoding struct {
	instance int
	b        float64
	x, y, z  float64
}

func readEncoding(path string) (*encoding, error) {
	dcm, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	p, err := dicom.NewParserFromBytes(dcm, nil)
	if err != nil {
		return nil, err
	}

	parsedData, err := safelyParse(p, dicom.ParseOptions{
		DropPixelData: true,
	})
	if parsedData == nil || err != nil {
		return nil, fmt.Errorf("error reading dicom %s: %v", path, err)
	}

	out := &encoding{instance: -1}
	haveB, haveDir := false, false

	for _, elem := range parsedData.Elements {
		if elem.Tag == dicomtag.InstanceNumber {
			if n, err := strconv.Atoi(strings.TrimSpace(elem.Value[0].(string))); err == nil {
				out.instance = n
			}
			continue
		}

		// The standard tag wins over the Siemens fallback when a file
		// carries both, whichever order they arrive in.
		if elem.Tag.Compare(tagBValue) == 0 || (!haveB && elem.Tag.Compare(tagBValueSiemens) == 0) {
			if vals := floatValues(elem, 1); vals != nil {
				out.b = vals[0]
				haveB = true
			}
			continue
		}

		if elem.Tag.Compare(tagDirection) == 0 || (!haveDir && elem.Tag.Compare(tagDirectionSiemens) == 0) {
			if vals := floatValues(elem, 3); vals != nil {
				out.x, out.y, out.z = vals[0], vals[1], vals[2]
				haveDir = true
			}
			continue
		}
	}

	if !haveB {
		return nil, fmt.Errorf("%s carries no diffusion b-value tag", path)
	}

	// b=0 files routinely omit the direction tag, leaving the conventional
	// (0,0,0) placeholder in place.

	return out, nil
}

// floatValues extracts want floats from a tag's values, whichever
// representation the writer chose: FD doubles, DS decimal strings (one per
// value or backslash-joined), or an untyped byte payload of little-endian
// doubles, which is how private tags with an unrecognized VR come back.
func floatValues(elem *element.Element, want int) []float64 {
	out := make([]float64, 0, want)

	for _, v := range elem.Value {
		switch val := v.(type) {
		case float64:
			out = append(out, val)
		case float32:
			out = append(out, float64(val))
		case string:
			for _, field := range strings.Split(val, "\\") {
				f, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
				if err != nil {
					return nil
				}
				out = append(out, f)
			}
		case []byte:
			if len(val)%8 != 0 {
				return nil
			}
			for i := 0; i+8 <= len(val); i += 8 {
				out = append(out, math.Float64frombits(binary.LittleEndian.Uint64(val[i:i+8])))
			}
		}
	}

	if len(out) < want {
		return nil
	}

	return out[:want]
}

// safelyParse consumes panics emitted by the dicom library so that one
// malformed file cannot take down a whole directory conversion.
func safelyParse(p dicom.Parser, opts dicom.ParseOptions) (parsedData *element.DataSet, err error) {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			err = fmt.Errorf("%v", panicErr)
		}
	}()

	return p.Parse(opts)
}
