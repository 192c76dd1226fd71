package debian2spdx

import (
	"io"
)

// Control is the subset of debian/control this package needs: the source
// stanza's package name and upstream/maintainer metadata used to populate
// SPDX package-level fields.
type Control struct {
	Source     string
	Maintainer string
	Homepage   string
}

// ParseControl parses the first (Source:) paragraph of a debian/control
// file.
func ParseControl(r io.Reader) (*Control, error) {
	paras, err := splitParagraphs(r)
	if err != nil {
		return nil, err
	}
	for _, p := range paras {
		if src := p.get("Source"); src != "" {
			return &Control{
				Source:     src,
				Maintainer: p.get("Maintainer"),
				Homepage:   p.get("Homepage"),
			}, nil
		}
	}
	return &Control{}, nil
}
