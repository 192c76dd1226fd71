package main

import (
	"context"
	"flag"
	"strings"

	"github.com/alien4friends/a4f-core/internal/a4ferr"
	"github.com/alien4friends/a4f-core/internal/alienpkg"
	"github.com/alien4friends/a4f-core/internal/config"
	"github.com/alien4friends/a4f-core/internal/deltacode"
	"github.com/alien4friends/a4f-core/internal/harvest"
	"github.com/alien4friends/a4f-core/internal/matcher"
	"github.com/alien4friends/a4f-core/internal/pool"
	"github.com/alien4friends/a4f-core/internal/tinfoilhat"
)

// runHarvest gathers every session package's pipeline artifacts into a
// single report document, per spec.md §4.10.
func runHarvest(ctx context.Context, settings *config.Settings, common *commonFlags, args []string) error {
	fs := flag.NewFlagSet("harvest", flag.ContinueOnError)
	common.register(fs)
	filterSnapshot := fs.String("filter-snapshot", "", "keep only this snapshot tag plus the release tags")
	releaseTags := fs.String("release-tags", "", "comma-separated release tags kept alongside --filter-snapshot")
	withBinaries := fs.String("with-binaries", "", "comma-separated binary package names to keep")
	addMissing := fs.Bool("add-missing", true, "record missing pipeline steps per package")
	if err := fs.Parse(args); err != nil {
		return a4ferr.New("runHarvest", a4ferr.KindConfig, "parsing flags", err)
	}
	configureLogging(common)

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

	var sourcePackages []harvest.SourcePackage
	for _, ref := range s.Refs {
		in := harvest.Inputs{Identity: ref.Identity}

		if pkg, err := loadPackage(ctx, p, ref.Identity); err == nil {
			in.Package = pkg
		}
		var match matcher.Result
		if err := readJSON(p, artifactPath(p, ref.Identity, pool.ALIENMATCHER), &match); err == nil {
			in.Match = &match
		} else if err := readJSON(p, artifactPath(p, ref.Identity, pool.SNAPMATCH), &match); err == nil {
			in.Match = &match
		}
		var delta deltacode.Report
		if err := readJSON(p, artifactPath(p, ref.Identity, pool.DELTACODE), &delta); err == nil {
			in.Delta = &delta
		}
		var fossy harvestFossyReport
		if err := readJSON(p, artifactPath(p, ref.Identity, pool.FOSSY_JSON), &fossy); err == nil {
			in.Fossy = fossy.toFindings()
		}
		var hat tinfoilhat.Document
		if err := readJSON(p, artifactPath(p, ref.Identity, pool.TINFOILHAT), &hat); err == nil {
			in.TinfoilHat = &hat
		}

		sourcePackages = append(sourcePackages, harvest.Build(in, *addMissing))
	}

	doc := harvest.Assemble(sourcePackages, harvest.FilterOptions{
		FilterSnapshot: *filterSnapshot,
		ReleaseTags:    splitNonEmpty(*releaseTags),
		WithBinaries:   splitNonEmpty(*withBinaries),
	})

	if common.DryRun {
		printf(common, "would harvest %d packages across %d tags\n", len(sourcePackages), len(doc.Tags))
		return nil
	}
	data, err := jsonIndent(doc)
	if err != nil {
		return err
	}
	if err := p.Write(p.Resolve(pool.Stats, sid, "", "", pool.HARVEST), data, pool.Overwrite); err != nil {
		return err
	}
	printf(common, "harvested %d packages across %d tags\n", len(sourcePackages), len(doc.Tags))
	return nil
}

// harvestFossyReport mirrors the subset of a clearing.FossyReport the
// harvester rolls into audit statistics, decoded independently so this
// file doesn't need to import clearing just for its shape.
type harvestFossyReport struct {
	Licenses map[string]string `json:"licenses"`
}

func (r harvestFossyReport) toFindings() *harvest.FossyFindings {
	counts := map[string]int{}
	for _, lic := range r.Licenses {
		counts[lic]++
	}
	f := &harvest.FossyFindings{AuditDone: len(r.Licenses)}
	for name, n := range counts {
		f.AllLicenses = append(f.AllLicenses, harvest.LicenseFinding{Shortname: name, FileCount: n})
	}
	return f
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
