// Package calc implements the pure scoring functions from spec.md §4.4:
// fuzzy package-name scoring and Debian version distance. Both are used,
// unmodified, by both Debian matchers.
package calc

import (
	"strconv"
	"strings"

	debversion "github.com/knqyf263/go-deb-version"
)

// Distance weights from spec.md §4.4.
const (
	weightEpoch      = 1000
	weightMajor      = 100
	weightMinor      = 10
	weightRevision   = 1
	weightPrerelease = 5
)

// MaxDistance is the cutoff beyond which VersionDistance callers should
// treat two versions as unrelated (spec.md §4.4: "select the smallest
// distance ≤ 300").
const MaxDistance = 300

// VersionDistance computes a non-negative integer distance between two
// Debian-style version strings, parsed with dpkg precedence via
// go-deb-version and then compared component-by-component per the weights
// above. VersionDistance(v, v) == 0 and the function is symmetric, per the
// testable properties in spec.md §8.
func VersionDistance(a, b string) int {
	if a == b {
		return 0
	}
	va, erra := debversion.NewVersion(a)
	vb, errb := debversion.NewVersion(b)
	if erra != nil || errb != nil {
		// Fall back to treating unparseable strings as maximally distant
		// but still symmetric and reflexive for equal raw strings.
		if a == b {
			return 0
		}
		return MaxDistance + 1
	}
	if !va.LessThan(vb) && !vb.LessThan(va) {
		return 0
	}

	ea, ua, ra := splitComponents(va.String())
	eb, ub, rb := splitComponents(vb.String())

	d := 0
	if ea != eb {
		d += weightEpoch
	}
	majA, minA := splitMajorMinor(ua)
	majB, minB := splitMajorMinor(ub)
	d += weightMajor * abs(majA-majB)
	d += weightMinor * abs(minA-minB)
	if ra != rb {
		d += weightRevision
	}
	if hasPrereleaseMarker(ua) != hasPrereleaseMarker(ub) {
		d += weightPrerelease
	}
	if d == 0 {
		// Versions compare unequal under dpkg precedence (e.g. trailing
		// tilde-suffix differences) but every weighted component matched;
		// count it as the smallest possible real difference.
		d = weightRevision
	}
	return d
}

// splitComponents decomposes a go-deb-version rendered string
// "[epoch:]upstream[-revision]" into its three dpkg fields.
func splitComponents(s string) (epoch string, upstream string, revision string) {
	if i := strings.IndexByte(s, ':'); i >= 0 {
		epoch, s = s[:i], s[i+1:]
	}
	if i := strings.LastIndexByte(s, '-'); i >= 0 {
		upstream, revision = s[:i], s[i+1:]
	} else {
		upstream = s
	}
	return epoch, upstream, revision
}

// splitMajorMinor pulls the first two dot-separated numeric runs out of an
// upstream version, e.g. "1.2.11.dfsg" -> (1, 2).
func splitMajorMinor(upstream string) (major, minor int) {
	fields := strings.FieldsFunc(upstream, func(r rune) bool {
		return r < '0' || r > '9'
	})
	if len(fields) > 0 {
		major, _ = strconv.Atoi(fields[0])
	}
	if len(fields) > 1 {
		minor, _ = strconv.Atoi(fields[1])
	}
	return major, minor
}

// hasPrereleaseMarker reports whether the upstream component carries one
// of the pre-release conventions spec.md §4.4 weights: dfsg, ~, +, -rcN.
func hasPrereleaseMarker(upstream string) bool {
	lower := strings.ToLower(upstream)
	switch {
	case strings.Contains(lower, "dfsg"):
		return true
	case strings.ContainsAny(upstream, "~+"):
		return true
	case strings.Contains(lower, "rc"):
		return true
	default:
		return false
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// VersionScore maps a distance to the [0,100] score spec.md §4.4
// describes: max(0, 100-distance), clamped to a floor so distance<=10
// maps to >=99.
func VersionScore(distance int) int {
	if distance <= 10 {
		score := 100 - distance
		if score < 99 {
			score = 99
		}
		return score
	}
	score := 100 - distance
	if score < 0 {
		score = 0
	}
	return score
}
