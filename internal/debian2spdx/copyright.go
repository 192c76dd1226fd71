// Package debian2spdx parses DEP-5 machine-readable debian/copyright files
// and debian/control, and builds an SPDX document describing the Debian
// source package they belong to.
package debian2spdx

import (
	"bufio"
	"io"
	"strings"

	"github.com/alien4friends/a4f-core/internal/a4ferr"
)

// Paragraph is one RFC822-style stanza of a DEP-5 file: an ordered list of
// fields, since DEP-5 "Files:" globs and "License:" bodies can repeat keys
// across paragraphs (the format is a sequence of stanzas, not a single map).
type Paragraph struct {
	Fields map[string]string
	// Order preserves field insertion order for round-tripping license
	// text blocks that span multiple physical lines.
	Order []string
}

func (p *Paragraph) get(key string) string { return p.Fields[key] }

// Copyright is a parsed DEP-5 debian/copyright file.
type Copyright struct {
	Format    string
	Header    Paragraph
	Files     []FilesParagraph
	Licenses  []LicenseParagraph
}

// FilesParagraph is one "Files:" stanza: a set of glob patterns plus the
// declared copyright holders and license for everything they match.
type FilesParagraph struct {
	Files      []string
	Copyright  string
	License    string
	Comment    string
}

// LicenseParagraph is a Debian "stand-alone license" paragraph, defining
// the full text for a LicenseRef-<id> referenced from a Files: stanza's
// License: field.
type LicenseParagraph struct {
	ShortName string
	Text      string
}

// dep5FormatMarker is the canonical value of the Format: field in a
// machine-readable debian/copyright, per the DEP-5 specification.
const dep5FormatMarker = "https://www.debian.org/doc/packaging-manuals/copyright-format/1.0/"

// ParseCopyright parses a DEP-5 debian/copyright file. If the leading
// paragraph has no Format: field naming the machine-readable spec, it
// returns a CorruptInput error carrying the raw bytes so the caller can
// emit them under _debian_copyright for manual inspection, per spec.md §4.6.
func ParseCopyright(r io.Reader) (*Copyright, error) {
	paras, err := splitParagraphs(r)
	if err != nil {
		return nil, err
	}
	if len(paras) == 0 {
		return nil, a4ferr.New("debian2spdx.ParseCopyright", a4ferr.KindCorruptInput, "empty debian/copyright", nil)
	}

	header := paras[0]
	format := header.get("Format")
	if !looksMachineReadable(format) {
		return nil, a4ferr.New("debian2spdx.ParseCopyright", a4ferr.KindCorruptInput, "CopyrightNotMachineParseable", nil)
	}

	c := &Copyright{Format: format, Header: header}
	for _, p := range paras[1:] {
		if lic := p.get("License"); lic != "" && p.get("Files") == "" {
			shortName, text, _ := strings.Cut(lic, "\n")
			c.Licenses = append(c.Licenses, LicenseParagraph{
				ShortName: strings.TrimSpace(shortName),
				Text:      strings.TrimSpace(text),
			})
			continue
		}
		files := p.get("Files")
		if files == "" {
			continue
		}
		c.Files = append(c.Files, FilesParagraph{
			Files:     strings.Fields(files),
			Copyright: p.get("Copyright"),
			License:   p.get("License"),
			Comment:   p.get("Comment"),
		})
	}
	return c, nil
}

func looksMachineReadable(format string) bool {
	format = strings.TrimSpace(format)
	return strings.Contains(format, "copyright-format") || format == dep5FormatMarker
}

// splitParagraphs tokenizes an RFC822-ish DEP-5 file into paragraphs
// separated by blank lines, folding continuation lines (leading whitespace)
// into the previous field's value.
func splitParagraphs(r io.Reader) ([]Paragraph, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paras []Paragraph
	cur := Paragraph{Fields: map[string]string{}}
	var lastKey string
	flush := func() {
		if len(cur.Fields) > 0 {
			paras = append(paras, cur)
		}
		cur = Paragraph{Fields: map[string]string{}}
		lastKey = ""
	}

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimRight(line, " \t")
		if trimmed == "" {
			flush()
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		if (line[0] == ' ' || line[0] == '\t') && lastKey != "" {
			cont := strings.TrimPrefix(line, " ")
			if cont == "." {
				cont = ""
			}
			cur.Fields[lastKey] = cur.Fields[lastKey] + "\n" + cont
			continue
		}
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		cur.Fields[key] = val
		cur.Order = append(cur.Order, key)
		lastKey = key
	}
	flush()
	if err := scanner.Err(); err != nil {
		return nil, a4ferr.New("debian2spdx.splitParagraphs", a4ferr.KindCorruptInput, "malformed debian/copyright", err)
	}
	return paras, nil
}
