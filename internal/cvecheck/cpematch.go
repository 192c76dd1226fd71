// Package cvecheck matches NVD CVE feed entries against a Harvester
// document or an explicit (vendor, product, version) triple, per
// spec.md §4.11.
//
// CPE 2.3 formatted-string handling here is a self-contained
// reimplementation of the attribute binding rules described in NIST
// IR 7695 §6.2 — grounded on the WFN component model in the teacher's
// pkg/cpe package rather than its deprecated re-export of an external
// module, to avoid pulling in a dependency only for name parsing.
package cvecheck

import "strings"

// WFN is a well-formed CPE 2.3 name, attribute components only (no
// binding/unbinding edge cases beyond what matching needs).
type WFN struct {
	Part, Vendor, Product, Version, Update, Edition string
	Language, SwEdition, TargetSW, TargetHW, Other   string
}

// ParseFS parses a CPE 2.3 formatted string ("cpe:2.3:a:vendor:product:...").
// Escaped colons inside components are not unescaped here; match strings
// from NVD feeds never need it for the fields this package compares.
func ParseFS(s string) (WFN, bool) {
	if !strings.HasPrefix(s, "cpe:2.3:") {
		return WFN{}, false
	}
	parts := strings.Split(strings.TrimPrefix(s, "cpe:2.3:"), ":")
	for len(parts) < 11 {
		parts = append(parts, "*")
	}
	return WFN{
		Part: parts[0], Vendor: parts[1], Product: parts[2], Version: parts[3],
		Update: parts[4], Edition: parts[5], Language: parts[6], SwEdition: parts[7],
		TargetSW: parts[8], TargetHW: parts[9], Other: parts[10],
	}, true
}

// AttrKind classifies one WFN attribute value per spec.md §4.11's
// wildcard rules: '*' is ANY, '-' is NA (not applicable), '?' anywhere in
// the value is unsupported.
type AttrKind int

const (
	AttrSet AttrKind = iota
	AttrAny
	AttrNA
	AttrUnsupported
)

func classify(v string) AttrKind {
	switch v {
	case "*", "":
		return AttrAny
	case "-":
		return AttrNA
	}
	if strings.Contains(v, "?") {
		return AttrUnsupported
	}
	return AttrSet
}

// MatchResult reports whether a WFN applies to a concrete
// (vendor, product, version) triple, or that the match string uses a
// construct this package does not resolve and must go to the review
// bucket.
type MatchResult int

const (
	MatchNo MatchResult = iota
	MatchYes
	MatchReview
)

// matchComponent compares one attribute's WFN value against a concrete
// target value using CPE 2.3 "any"/"not-applicable"/exact semantics.
func matchComponent(wfnVal, target string) MatchResult {
	switch classify(wfnVal) {
	case AttrAny:
		return MatchYes
	case AttrNA:
		if target == "" {
			return MatchYes
		}
		return MatchNo
	case AttrUnsupported:
		return MatchReview
	default:
		if strings.EqualFold(wfnVal, target) {
			return MatchYes
		}
		return MatchNo
	}
}

// MatchTriple reports whether w applies to (vendor, product, version),
// ignoring every other WFN attribute (update/edition/etc. are not part of
// the input triple spec.md §4.11 defines).
func MatchTriple(w WFN, vendor, product, version string) MatchResult {
	results := []MatchResult{
		matchComponent(w.Vendor, vendor),
		matchComponent(w.Product, product),
		matchComponent(w.Version, version),
	}
	best := MatchYes
	for _, r := range results {
		switch r {
		case MatchNo:
			return MatchNo
		case MatchReview:
			best = MatchReview
		}
	}
	return best
}
