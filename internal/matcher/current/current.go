// Package current implements spec.md §4.4a: matching an AlienPackage
// against the current Debian index by fuzzy name then version distance.
package current

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/quay/zlog"

	"github.com/alien4friends/a4f-core/internal/a4ferr"
	"github.com/alien4friends/a4f-core/internal/alienpkg"
	"github.com/alien4friends/a4f-core/internal/calc"
	"github.com/alien4friends/a4f-core/internal/matcher"
	"github.com/alien4friends/a4f-core/internal/matcher/debianidx"
)

// Matcher matches against the current Debian index.
type Matcher struct {
	Index debianidx.Current
}

var _ matcher.Matcher = (*Matcher)(nil)

func New(idx debianidx.Current) *Matcher {
	return &Matcher{Index: idx}
}

// Match implements matcher.Matcher.
func (m *Matcher) Match(ctx context.Context, pkg *alienpkg.Package, variant string) (*matcher.Result, error) {
	ctx = zlog.ContextWithValues(ctx, "component", "matcher/current.Match", "package", pkg.PrimaryName())

	if pkg.Main == nil {
		return nil, a4ferr.New("current.Match", a4ferr.KindNotFound, "no internal archive", nil)
	}

	cands, err := m.Index.Candidates(ctx)
	if err != nil {
		return nil, err
	}
	if len(cands) == 0 {
		return nil, a4ferr.New("current.Match", a4ferr.KindNotFound, "empty debian index", nil)
	}

	names := pkg.Manifest.SourcePackage.Name
	debianName, packageScore := calc.BestNamedCandidate(names, cands)
	if debianName == "" {
		return nil, a4ferr.New("current.Match", a4ferr.KindNotFound, "no debian name candidate", nil)
	}

	versions, err := m.Index.Versions(ctx, debianName)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, a4ferr.New("current.Match", a4ferr.KindNotFound, fmt.Sprintf("no versions known for %s", debianName), nil)
	}

	alienVersion := pkg.Version()
	cands2 := make([]matcher.Candidate, 0, len(versions))
	for _, v := range versions {
		d := calc.VersionDistance(alienVersion, v)
		cands2 = append(cands2, matcher.Candidate{Version: v, Distance: d})
	}
	sort.SliceStable(cands2, func(i, j int) bool {
		if cands2[i].Distance != cands2[j].Distance {
			return cands2[i].Distance < cands2[j].Distance
		}
		// Prefer non-prerelease, then most recent (lexicographically
		// greater), per spec.md §4.4.
		iPre, jPre := looksPrerelease(cands2[i].Version), looksPrerelease(cands2[j].Version)
		if iPre != jPre {
			return !iPre
		}
		return cands2[i].Version > cands2[j].Version
	})

	best := cands2[0]
	if best.Distance > calc.MaxDistance {
		return nil, a4ferr.New("current.Match", a4ferr.KindNotFound,
			fmt.Sprintf("best candidate %s distance %d exceeds max %d", best.Version, best.Distance, calc.MaxDistance), nil)
	}

	versionScore := calc.VersionScore(best.Distance)
	score := 0.5*float64(packageScore) + 0.5*float64(versionScore)
	score = roundTo1(score)

	id := pkg.Identity(variant)
	return &matcher.Result{
		Alien:         id,
		DebianName:    debianName,
		DebianVersion: best.Version,
		Score:         score,
		PackageScore:  packageScore,
		VersionScore:  versionScore,
		Candidates:    cands2,
	}, nil
}

func looksPrerelease(v string) bool {
	lower := strings.ToLower(v)
	for _, marker := range []string{"~", "rc", "dfsg"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func roundTo1(f float64) float64 {
	return float64(int(f*10+0.5)) / 10
}
