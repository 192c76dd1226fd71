package cvecheck

import "testing"

func TestParseFSPadsMissingFields(t *testing.T) {
	w, ok := ParseFS("cpe:2.3:a:zlib:zlib:1.2.11")
	if !ok {
		t.Fatal("expected ParseFS to accept a short formatted string")
	}
	if w.Vendor != "zlib" || w.Product != "zlib" || w.Version != "1.2.11" {
		t.Fatalf("unexpected WFN: %+v", w)
	}
	if w.Update != "*" {
		t.Fatalf("Update = %q, want padded wildcard", w.Update)
	}
}

func TestMatchTripleAnyVendor(t *testing.T) {
	w, _ := ParseFS("cpe:2.3:a:*:zlib:1.2.11:*:*:*:*:*:*:*")
	if got := MatchTriple(w, "anyvendor", "zlib", "1.2.11"); got != MatchYes {
		t.Fatalf("got %v, want MatchYes", got)
	}
}

func TestMatchTripleQuestionMarkIsReview(t *testing.T) {
	w, _ := ParseFS("cpe:2.3:a:zlib:zlib:1.2.1?:*:*:*:*:*:*:*")
	if got := MatchTriple(w, "zlib", "zlib", "1.2.11"); got != MatchReview {
		t.Fatalf("got %v, want MatchReview", got)
	}
}

func TestMatchTripleNAMismatch(t *testing.T) {
	w, _ := ParseFS("cpe:2.3:a:zlib:zlib:-:*:*:*:*:*:*:*")
	if got := MatchTriple(w, "zlib", "zlib", "1.2.11"); got != MatchNo {
		t.Fatalf("got %v, want MatchNo (version '-' means not-applicable)", got)
	}
}

func TestEvaluateORNode(t *testing.T) {
	feed := Feed{CVEItems: []CVEItem{
		{
			CVE: CVEMeta{DataMeta: CVEDataMeta{ID: "CVE-2018-0001"}},
			Configurations: Configurations{Nodes: []ConfigNode{
				{
					Operator: "OR",
					CPEMatch: []CPEMatch{
						{Vulnerable: true, CPE23URI: "cpe:2.3:a:zlib:zlib:1.2.8:*:*:*:*:*:*:*"},
						{Vulnerable: true, CPE23URI: "cpe:2.3:a:zlib:zlib:1.2.11:*:*:*:*:*:*:*"},
					},
				},
			}},
		},
	}}
	doc := Evaluate(feed, "zlib", "zlib", "1.2.11")
	if len(doc.Identified) != 1 || doc.Identified[0].CVEID != "CVE-2018-0001" {
		t.Fatalf("doc = %+v, want one identified CVE", doc)
	}
	if len(doc.Review) != 0 {
		t.Fatalf("unexpected review bucket entries: %+v", doc.Review)
	}
}

func TestEvaluateANDNodeGoesToReview(t *testing.T) {
	feed := Feed{CVEItems: []CVEItem{
		{
			CVE: CVEMeta{DataMeta: CVEDataMeta{ID: "CVE-2019-0002"}},
			Configurations: Configurations{Nodes: []ConfigNode{
				{
					Operator: "AND",
					CPEMatch: []CPEMatch{
						{Vulnerable: true, CPE23URI: "cpe:2.3:a:zlib:zlib:1.2.11:*:*:*:*:*:*:*"},
					},
				},
			}},
		},
	}}
	doc := Evaluate(feed, "zlib", "zlib", "1.2.11")
	if len(doc.Identified) != 0 {
		t.Fatalf("AND node should not auto-identify: %+v", doc.Identified)
	}
	if len(doc.Review) != 1 {
		t.Fatalf("expected one review entry, got %+v", doc.Review)
	}
}

func TestEvaluateVersionRange(t *testing.T) {
	feed := Feed{CVEItems: []CVEItem{
		{
			CVE: CVEMeta{DataMeta: CVEDataMeta{ID: "CVE-2020-0003"}},
			Configurations: Configurations{Nodes: []ConfigNode{
				{
					Operator: "OR",
					CPEMatch: []CPEMatch{
						{
							Vulnerable: true, CPE23URI: "cpe:2.3:a:zlib:zlib:*:*:*:*:*:*:*:*",
							VersionStartIncluding: "1.2.0", VersionEndExcluding: "1.2.12",
						},
					},
				},
			}},
		},
	}}
	in := Evaluate(feed, "zlib", "zlib", "1.2.11")
	if len(in.Identified) != 1 {
		t.Fatalf("1.2.11 should be inside [1.2.0, 1.2.12), got %+v", in)
	}
	out := Evaluate(feed, "zlib", "zlib", "1.2.12")
	if len(out.Identified) != 0 {
		t.Fatalf("1.2.12 should be excluded by VersionEndExcluding, got %+v", out)
	}
}
