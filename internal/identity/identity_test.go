package identity

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestString(t *testing.T) {
	cases := []struct {
		id   Identity
		want string
	}{
		{Identity{Name: "zlib", Version: "1.2.13"}, "zlib@1.2.13"},
		{Identity{Name: "zlib", Version: "1.2.13", Variant: "static"}, "zlib@1.2.13-static"},
	}
	for _, c := range cases {
		if got := c.id.String(); got != c.want {
			t.Errorf("Identity{%+v}.String() = %q, want %q", c.id, got, c.want)
		}
	}
}

func TestSameNameVersion(t *testing.T) {
	a := Identity{Name: "zlib", Version: "1.2.13", Variant: "static"}
	b := Identity{Name: "zlib", Version: "1.2.13", Variant: "shared"}
	c := Identity{Name: "zlib", Version: "1.2.14"}

	if !a.SameNameVersion(b) {
		t.Error("expected variants of the same name/version to match")
	}
	if a.SameNameVersion(c) {
		t.Error("expected different versions not to match")
	}
}

func TestPURL(t *testing.T) {
	got := Identity{Name: "zlib", Version: "1.2.13"}.PURL()
	want := "pkg:generic/zlib@1.2.13"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("PURL() mismatch (-want +got):\n%s", diff)
	}
}
