package matcher

import "testing"

func TestParseDscFormat(t *testing.T) {
	dsc := []byte("Format: 3.0 (quilt)\nSource: zlib\nBinary: zlib1g\n")
	if got := ParseDscFormat(dsc); got != Format3_0Quilt {
		t.Errorf("expected %q, got %q", Format3_0Quilt, got)
	}
}

func TestParseDscFormatMissing(t *testing.T) {
	dsc := []byte("Source: zlib\n")
	if got := ParseDscFormat(dsc); got != "" {
		t.Errorf("expected empty format, got %q", got)
	}
}
