// Package identity defines the package identity primary key used
// throughout the core: spec.md §3 defines it as the triple (name, version,
// variant?).
package identity

import (
	"fmt"

	"github.com/package-url/packageurl-go"
)

// PURLType is the package URL type for aliensrc-derived source packages:
// they are not yet known to be any binary packaging ecosystem, only to
// have been pulled into a Yocto/BitBake build.
const PURLType = "generic"

// Identity is the primary key for an alien package across every
// subsystem: Pool paths, Session entries, and every produced artifact are
// keyed by it.
type Identity struct {
	Name    string
	Version string
	// Variant optionally distinguishes two builds that yield the same
	// (Name, Version) but different bit content.
	Variant string
}

// String renders the identity the way upload names and log fields do:
// "name@version" or "name@version-variant" when Variant is set.
func (id Identity) String() string {
	if id.Variant == "" {
		return fmt.Sprintf("%s@%s", id.Name, id.Version)
	}
	return fmt.Sprintf("%s@%s-%s", id.Name, id.Version, id.Variant)
}

// PURL renders the identity as a "pkg:generic/" package URL, per
// spec.md §4.10's harvest output and package-url.org's generic type for
// packages outside any ecosystem the purl spec names directly. Variant,
// when set, is carried as a qualifier rather than folded into Version so
// that two variants of the same version still share a purl Name@Version.
func (id Identity) PURL() string {
	p := packageurl.PackageURL{
		Type:    PURLType,
		Name:    id.Name,
		Version: id.Version,
		Qualifiers: packageurl.QualifiersFromMap(map[string]string{
			"variant": id.Variant,
		}),
	}
	return p.String()
}

// SameNameVersion reports whether two identities share (Name, Version),
// ignoring Variant — the relation Session.AddVariants groups on.
func (id Identity) SameNameVersion(other Identity) bool {
	return id.Name == other.Name && id.Version == other.Version
}
