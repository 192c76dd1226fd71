package main

import (
	"archive/tar"
	"bytes"
	"context"
	"flag"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/quay/zlog"
	"golang.org/x/sync/errgroup"

	"github.com/alien4friends/a4f-core/internal/a4ferr"
	"github.com/alien4friends/a4f-core/internal/alienpkg"
	"github.com/alien4friends/a4f-core/internal/config"
	"github.com/alien4friends/a4f-core/internal/pool"
)

// maxConcurrentScans bounds how many scancode subprocesses run at once,
// so a large session doesn't fork-bomb the host.
const maxConcurrentScans = 4

// runScan extracts a package's files/ subtree and invokes the ScanCode
// scanner against it, storing the resulting JSON and SPDX Tag-Value
// artifacts, per spec.md §4.6. ScanCode itself is an external
// collaborator per spec.md §1; this only shells out to it.
func runScan(ctx context.Context, settings *config.Settings, common *commonFlags, args []string) error {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	common.register(fs)
	bin := fs.String("scancode-bin", "scancode", "path to the scancode executable")
	timeout := fs.Duration("timeout", 20*time.Minute, "bound on one package's scan")
	if err := fs.Parse(args); err != nil {
		return a4ferr.New("runScan", a4ferr.KindConfig, "parsing flags", err)
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

	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(maxConcurrentScans)
	for i, ref := range s.Refs {
		i, ref := i, ref
		jsonPath := artifactPath(p, ref.Identity, pool.SCANCODE_JSON)
		spdxPath := artifactPath(p, ref.Identity, pool.SCANCODE_SPDX)
		if p.Exists(jsonPath) && p.Exists(spdxPath) && !common.IgnoreCache {
			s.Refs[i].Status.Scanned = true
			continue
		}

		eg.Go(func() error {
			data, err := p.Read(artifactPath(p, ref.Identity, pool.ALIENSRC))
			if err != nil {
				zlog.Warn(egctx).Err(err).Str("package", ref.Identity.String()).Msg("no aliensrc, skipping scan")
				return nil
			}
			dir, err := extractFiles(data)
			if err != nil {
				zlog.Warn(egctx).Err(err).Str("package", ref.Identity.String()).Msg("corrupt aliensrc, skipping scan")
				s.Refs[i].Errors = append(s.Refs[i].Errors, a4ferr.NewEntry("scan", err))
				return nil
			}
			defer os.RemoveAll(dir)

			tctx, cancel := context.WithTimeout(egctx, *timeout)
			err = runScancode(tctx, *bin, settings.Scancode, dir, jsonPath, spdxPath)
			cancel()
			if err != nil {
				zlog.Warn(egctx).Err(err).Str("package", ref.Identity.String()).Msg("scancode invocation failed")
				s.Refs[i].Errors = append(s.Refs[i].Errors, a4ferr.NewEntry("scan", err))
				return nil
			}
			s.Refs[i].Status.Scanned = true
			printf(common, "scanned %s\n", ref.Identity)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	if common.DryRun {
		return nil
	}
	return saveSession(p, s)
}

// extractFiles materializes an .aliensrc archive's files/ subtree under a
// fresh temp directory for the scanner to walk.
func extractFiles(data []byte) (string, error) {
	dir, err := os.MkdirTemp("", "a4f-scan-*")
	if err != nil {
		return "", a4ferr.New("extractFiles", a4ferr.KindInternal, "creating scan tempdir", err)
	}
	tr := tar.NewReader(bytes.NewReader(data))
	if _, err := tr.Next(); err != nil {
		os.RemoveAll(dir)
		return "", a4ferr.New("extractFiles", a4ferr.KindCorruptInput, "reading manifest entry", err)
	}
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			os.RemoveAll(dir)
			return "", a4ferr.New("extractFiles", a4ferr.KindCorruptInput, "reading tar member", err)
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(hdr.Name, "./"), alienpkg.FilesPrefix)
		target := filepath.Join(dir, rel)
		switch hdr.Typeflag {
		case tar.TypeDir:
			os.MkdirAll(target, 0o755)
		case tar.TypeReg:
			os.MkdirAll(filepath.Dir(target), 0o755)
			f, err := os.Create(target)
			if err != nil {
				os.RemoveAll(dir)
				return "", a4ferr.New("extractFiles", a4ferr.KindInternal, target, err)
			}
			if _, err := io.Copy(f, tr); err != nil {
				f.Close()
				os.RemoveAll(dir)
				return "", a4ferr.New("extractFiles", a4ferr.KindInternal, target, err)
			}
			f.Close()
		}
	}
	return dir, nil
}

// runScancode shells out to the scanner, per the two invocation styles
// A4F_SCANCODE distinguishes: "native" runs bin as the scancode CLI with
// the --json-pp and --spdx-tv output flags; "wrapper" runs bin with
// "scancode" as its first argument followed by the same flags, for a thin
// script that forwards to a differently-packaged scanner.
func runScancode(ctx context.Context, bin string, mode config.ScancodeMode, dir, jsonOut, spdxOut string) error {
	if err := os.MkdirAll(filepath.Dir(jsonOut), 0o755); err != nil {
		return a4ferr.New("runScancode", a4ferr.KindInternal, "preparing output dir", err)
	}
	args := []string{"--json-pp", jsonOut, "--spdx-tv", spdxOut, "--license", "--copyright", "--info", dir}
	if mode == config.ScancodeWrapper {
		args = append([]string{"scancode"}, args...)
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return a4ferr.New("runScancode", a4ferr.KindSubprocess, stderr.String(), err)
	}
	return nil
}
