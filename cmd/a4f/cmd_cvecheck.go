package main

import (
	"context"
	"flag"

	"github.com/alien4friends/a4f-core/internal/a4ferr"
	"github.com/alien4friends/a4f-core/internal/config"
	"github.com/alien4friends/a4f-core/internal/cvecheck"
	"github.com/alien4friends/a4f-core/internal/pool"
)

// defaultNVDFeedURL is the upstream NVD yearly JSON feed root, per
// spec.md §4.11.
const defaultNVDFeedURL = "https://nvd.nist.gov/feeds/json/cve/1.1"

// runCveCheck evaluates every session package's name/version against the
// mirrored NVD feeds, per spec.md §4.11.
func runCveCheck(ctx context.Context, settings *config.Settings, common *commonFlags, args []string) error {
	fs := flag.NewFlagSet("cvecheck", flag.ContinueOnError)
	common.register(fs)
	mirrorDir := fs.String("mirror-dir", "", "local NVD feed mirror directory (default: <pool>/_nvd)")
	feedURL := fs.String("feed-url", defaultNVDFeedURL, "upstream NVD yearly feed base URL")
	startYear := fs.Int("start-year", 2002, "first NVD feed year to evaluate")
	endYear := fs.Int("end-year", 2026, "last NVD feed year to evaluate")
	vendor := fs.String("vendor", "*", "CPE vendor to match against (default: wildcard)")
	if err := fs.Parse(args); err != nil {
		return a4ferr.New("runCveCheck", a4ferr.KindConfig, "parsing flags", err)
	}
	configureLogging(common)
	if *mirrorDir == "" {
		*mirrorDir = settings.Pool + "/_nvd"
	}

	sid, err := requireSessionID(common)
	if err != nil {
		return err
	}
	p, err := openPool(settings, common.IgnoreCache)
	if err != nil {
		return err
	}
	s, err := loadSession(p, sid)
	if err != nil {
		return err
	}

	mirror := cvecheck.NewFeedMirror(*mirrorDir, *feedURL)

	for i, ref := range s.Refs {
		doc := cvecheck.Document{}
		for year := *startYear; year <= *endYear; year++ {
			feed, err := mirror.Load(ctx, year)
			if err != nil {
				return err
			}
			yearDoc := cvecheck.Evaluate(feed, *vendor, ref.Identity.Name, ref.Identity.Version)
			doc.Identified = append(doc.Identified, yearDoc.Identified...)
			doc.Review = append(doc.Review, yearDoc.Review...)
		}

		if !common.DryRun {
			if err := writeJSON(p, pool.Userland, ref.Identity.Name, ref.Identity.Version, pool.CVE_HARVEST, doc); err != nil {
				return err
			}
		}
		printf(common, "%s cve check: %d identified, %d to review\n", ref.Identity, len(doc.Identified), len(doc.Review))
		_ = i
	}

	return nil
}
