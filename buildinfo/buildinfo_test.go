package buildinfo

import (
	"strings"
	"testing"
)

func TestSummary(t *testing.T) {
	got := Summary()
	if got == "" {
		t.Fatal("Summary returned an empty string")
	}

	// Under go test the build info is always available.
	if !strings.Contains(got, "was built with") {
		t.Fatalf("Summary = %q", got)
	}
}
