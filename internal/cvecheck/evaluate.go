package cvecheck

import (
	debversion "github.com/knqyf263/go-deb-version"
)

// Identified is one CVE clearly applicable to the queried triple.
type Identified struct {
	CVEID string `json:"cve_id"`
}

// Review is one CVE whose applicability could not be resolved
// automatically, with the reason it was punted.
type Review struct {
	CVEID  string `json:"cve_id"`
	Reason string `json:"reason"`
}

// Document is the two-bucket output of an evaluation run, per spec.md
// §4.11.
type Document struct {
	Identified []Identified `json:"identified"`
	Review     []Review     `json:"review"`
}

// Evaluate walks every CVEItem in feed and buckets it into Document per
// the rules in spec.md §4.11.
func Evaluate(feed Feed, vendor, product, version string) Document {
	doc := Document{}
	for _, item := range feed.CVEItems {
		verdict, reason := evaluateItem(item, vendor, product, version)
		switch verdict {
		case MatchYes:
			doc.Identified = append(doc.Identified, Identified{CVEID: item.CVE.DataMeta.ID})
		case MatchReview:
			doc.Review = append(doc.Review, Review{CVEID: item.CVE.DataMeta.ID, Reason: reason})
		}
	}
	return doc
}

func evaluateItem(item CVEItem, vendor, product, version string) (MatchResult, string) {
	if len(item.Configurations.Nodes) == 0 {
		return MatchNo, ""
	}
	best := MatchNo
	reason := ""
	for _, node := range item.Configurations.Nodes {
		verdict, r := evaluateNode(node, vendor, product, version)
		if verdict == MatchYes {
			return MatchYes, ""
		}
		if verdict == MatchReview {
			best = MatchReview
			reason = r
		}
	}
	return best, reason
}

// evaluateNode implements spec.md §4.11's node-level rules: support OR on
// a single node; AND or nested children go to review.
func evaluateNode(node ConfigNode, vendor, product, version string) (MatchResult, string) {
	if len(node.Children) > 0 {
		return MatchReview, "node has child nodes, unsupported"
	}
	if node.Operator == "AND" {
		return MatchReview, "node uses AND operator, unsupported"
	}

	best := MatchNo
	reason := ""
	for _, m := range node.CPEMatch {
		if !m.Vulnerable {
			continue
		}
		verdict, r := evaluateCPEMatch(m, vendor, product, version)
		if verdict == MatchYes {
			return MatchYes, ""
		}
		if verdict == MatchReview {
			best = MatchReview
			reason = r
		}
	}
	return best, reason
}

func evaluateCPEMatch(m CPEMatch, vendor, product, version string) (MatchResult, string) {
	w, ok := ParseFS(m.CPE23URI)
	if !ok {
		return MatchReview, "unparseable cpe23Uri"
	}

	triple := MatchTriple(w, vendor, product, version)
	if triple == MatchNo {
		return MatchNo, ""
	}
	if triple == MatchReview {
		return MatchReview, "cpe match string uses '?' wildcard"
	}

	// Vendor/product/version all matched the WFN itself (version attribute
	// was ANY, a literal match, or NA). If the match entry also carries
	// explicit version range bounds, they refine — not replace — that
	// verdict, per spec.md §4.11.
	if m.VersionStartIncluding == "" && m.VersionStartExcluding == "" &&
		m.VersionEndIncluding == "" && m.VersionEndExcluding == "" {
		return MatchYes, ""
	}

	inRange, err := versionInRange(version, m)
	if err != nil {
		return MatchReview, "unparseable version for range comparison: " + err.Error()
	}
	if inRange {
		return MatchYes, ""
	}
	return MatchNo, ""
}

func versionInRange(version string, m CPEMatch) (bool, error) {
	v, err := debversion.NewVersion(version)
	if err != nil {
		return false, err
	}
	if m.VersionStartIncluding != "" {
		start, err := debversion.NewVersion(m.VersionStartIncluding)
		if err != nil {
			return false, err
		}
		if v.LessThan(start) {
			return false, nil
		}
	}
	if m.VersionStartExcluding != "" {
		start, err := debversion.NewVersion(m.VersionStartExcluding)
		if err != nil {
			return false, err
		}
		if !start.LessThan(v) {
			return false, nil
		}
	}
	if m.VersionEndIncluding != "" {
		end, err := debversion.NewVersion(m.VersionEndIncluding)
		if err != nil {
			return false, err
		}
		if end.LessThan(v) {
			return false, nil
		}
	}
	if m.VersionEndExcluding != "" {
		end, err := debversion.NewVersion(m.VersionEndExcluding)
		if err != nil {
			return false, err
		}
		if !v.LessThan(end) {
			return false, nil
		}
	}
	return true, nil
}
