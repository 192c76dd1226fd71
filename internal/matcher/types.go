// Package matcher defines the shared contract spec.md §4.4 describes for
// the two interchangeable Debian-matching implementations, plus the types
// both return.
package matcher

import (
	"bufio"
	"bytes"
	"context"
	"strings"

	"github.com/alien4friends/a4f-core/internal/a4ferr"
	"github.com/alien4friends/a4f-core/internal/alienpkg"
	"github.com/alien4friends/a4f-core/internal/identity"
	"github.com/alien4friends/a4f-core/internal/matcher/debianidx"
)

// DscFormat is the closed set of Debian source package formats from
// spec.md §6.
type DscFormat string

const (
	Format1_0        DscFormat = "1.0"
	Format3_0Quilt   DscFormat = "3.0 (quilt)"
	Format3_0Native  DscFormat = "3.0 (native)"
)

// Candidate is one scored Debian version considered for a match.
type Candidate struct {
	Version    string `json:"version"`
	Distance   int    `json:"distance"`
	IsAliensrc bool   `json:"is_aliensrc"`
}

// Artifact describes one downloaded Debian source artifact, stored under
// the Pool's "debian" relationship.
type Artifact = debianidx.Artifact

// Result is the MatchResult from spec.md §3.
type Result struct {
	Alien identity.Identity `json:"alien"`

	DebianName    string `json:"debian_name"`
	DebianVersion string `json:"debian_version"`

	Score        float64 `json:"score"`
	PackageScore int     `json:"package_score"`
	VersionScore int     `json:"version_score"`

	Candidates []Candidate `json:"candidates"`

	DebsrcOrig   *Artifact `json:"debsrc_orig,omitempty"`
	DebsrcDebian *Artifact `json:"debsrc_debian,omitempty"`
	DscFormat    DscFormat `json:"dsc_format,omitempty"`

	// SrcFiles is populated by the snapshot matcher only: per-file
	// download descriptors with sha1_cksum and src_uri, per spec.md §4.4b.
	SrcFiles []Artifact `json:"srcfiles,omitempty"`

	// Errors records non-fatal failures caught while producing this
	// result (no candidate found, source-artifact fetch failure), per
	// spec.md §7's propagation rule. A Result with no match still gets
	// written with its Errors populated, mirroring the commons source's
	// always-write-the-model behavior.
	Errors []a4ferr.Entry `json:"errors,omitempty"`
}

// ParseDscFormat reads the "Format:" field out of a raw .dsc control
// file's bytes, per the dpkg-source(1) control fields spec.md §3
// enumerates as the closed DscFormat set. Returns "" if no Format field
// is present.
func ParseDscFormat(dsc []byte) DscFormat {
	sc := bufio.NewScanner(bytes.NewReader(dsc))
	for sc.Scan() {
		line := sc.Text()
		if rest, ok := strings.CutPrefix(line, "Format:"); ok {
			return DscFormat(strings.TrimSpace(rest))
		}
	}
	return ""
}

// Matcher is the contract both the current-index and snapshot matchers
// implement: match(AlienPackage) -> MatchResult | NotFound, per spec.md
// §4.4.
type Matcher interface {
	Match(ctx context.Context, pkg *alienpkg.Package, variant string) (*Result, error)
}
