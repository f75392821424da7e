package gradtab

import (
	"errors"
	"os"
	"strings"
)

// LoadForImage resolves the gradient table for an image. An explicit table
// path wins, then an explicit bvecs/bvals pair, then sidecar files next to
// the image (first <image>.b, then <image>.bvec with <image>.bval). A nil
// table with a nil error means no scheme was found anywhere; callers that
// require one decide whether that is fatal.
func LoadForImage(imagePath, gradPath, bvecsPath, bvalsPath string) (Table, error) {
	if gradPath != "" && (bvecsPath != "" || bvalsPath != "") {
		return nil, errors.New("give either a gradient table or a bvecs/bvals pair, not both")
	}

	if gradPath != "" {
		return Load(gradPath)
	}

	if bvecsPath != "" || bvalsPath != "" {
		if bvecsPath == "" || bvalsPath == "" {
			return nil, errors.New("bvecs and bvals must be given together")
		}

		return LoadFSL(bvecsPath, bvalsPath)
	}

	base := strings.TrimSuffix(imagePath, ".gz")
	base = strings.TrimSuffix(base, ".nii")

	if _, err := os.Stat(base + ".b"); err == nil {
		return Load(base + ".b")
	}

	if _, err := os.Stat(base + ".bvec"); err == nil {
		if _, err := os.Stat(base + ".bval"); err == nil {
			return LoadFSL(base+".bvec", base+".bval")
		}
	}

	return nil, nil
}
