package harvest

import (
	"testing"

	"github.com/alien4friends/a4f-core/internal/deltacode"
	"github.com/alien4friends/a4f-core/internal/identity"
	"github.com/alien4friends/a4f-core/internal/matcher"
)

func TestBuildRecordsMissingInputs(t *testing.T) {
	sp := Build(Inputs{Identity: identity.Identity{Name: "zlib", Version: "1.2.11"}}, true)
	if len(sp.MissingInputs) != len(requiredSteps) {
		t.Fatalf("got %d missing inputs, want %d (nothing gathered)", len(sp.MissingInputs), len(requiredSteps))
	}
}

func TestBuildDebianMatchingIPCount(t *testing.T) {
	delta := &deltacode.Report{Stats: deltacode.Stats{
		NewFilesCount: 10,
		OldFilesCount: 8,
		Counts: map[deltacode.Category]int{
			deltacode.SameFiles:  6,
			deltacode.MovedFiles: 1,
		},
	}}
	sp := Build(Inputs{
		Identity: identity.Identity{Name: "zlib", Version: "1.2.11"},
		Match:    &matcher.Result{DebianName: "zlib", DebianVersion: "1.2.11.dfsg"},
		Delta:    delta,
	}, false)
	if sp.DebianMatching == nil || sp.DebianMatching.IPMatchingFiles != 7 {
		t.Fatalf("DebianMatching = %+v, want IPMatchingFiles=7", sp.DebianMatching)
	}
	if sp.Statistics.Files.KnownProvenance != 7 || sp.Statistics.Files.UnknownProvenance != 3 {
		t.Fatalf("unexpected file provenance stats: %+v", sp.Statistics.Files)
	}
}

func TestAssembleGroupsByTagAndFilters(t *testing.T) {
	pkgs := []SourcePackage{
		{ID: "a", Tags: []string{"release-1.0", "nightly"}},
		{ID: "b", Tags: []string{"release-1.0"}},
		{ID: "c", Tags: []string{"nightly"}},
	}
	doc := Assemble(pkgs, FilterOptions{FilterSnapshot: "nightly", ReleaseTags: []string{"release-1.0"}})
	if len(doc.Tags["release-1.0"]) != 2 {
		t.Fatalf("release-1.0 group has %d entries, want 2", len(doc.Tags["release-1.0"]))
	}
	if len(doc.Tags["nightly"]) != 2 {
		t.Fatalf("nightly group has %d entries, want 2", len(doc.Tags["nightly"]))
	}
}

func TestAssembleWithBinariesFilter(t *testing.T) {
	pkgs := []SourcePackage{
		{ID: "a", Tags: []string{"t"}, BinaryPackages: []BinaryPackage{{Name: "zlib1g"}, {Name: "zlib1g-dev"}}},
	}
	doc := Assemble(pkgs, FilterOptions{WithBinaries: []string{"zlib1g"}})
	got := doc.Tags["t"][0].BinaryPackages
	if len(got) != 1 || got[0].Name != "zlib1g" {
		t.Fatalf("binary filter result = %+v, want only zlib1g", got)
	}
}
