package cvecheck

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/quay/zlog"

	"github.com/alien4friends/a4f-core/internal/a4ferr"
)

// maxFeedAge is the refresh threshold from spec.md §4.11: "refreshed if
// the most recent local file is older than 24h."
const maxFeedAge = 24 * time.Hour

// FeedMirror maintains a local directory of NVD JSON yearly feed files.
type FeedMirror struct {
	Client  *http.Client
	BaseURL string
	Dir     string
}

func NewFeedMirror(dir, baseURL string) *FeedMirror {
	return &FeedMirror{
		Client:  &http.Client{Timeout: 2 * time.Minute},
		BaseURL: baseURL,
		Dir:     dir,
	}
}

func (m *FeedMirror) feedPath(year int) string {
	return filepath.Join(m.Dir, fmt.Sprintf("nvdcve-1.1-%d.json", year))
}

// Load returns the parsed feed for the given year, refreshing it from
// BaseURL first if the local copy is missing or older than maxFeedAge.
// A filesystem advisory lock on Dir serializes concurrent refreshes from
// multiple processes, per spec.md §5.
func (m *FeedMirror) Load(ctx context.Context, year int) (Feed, error) {
	ctx = zlog.ContextWithValues(ctx, "component", "cvecheck.FeedMirror", "year", fmt.Sprint(year))

	unlock, err := lockDir(m.Dir)
	if err != nil {
		return Feed{}, err
	}
	defer unlock()

	path := m.feedPath(year)
	if needsRefresh(path) {
		if err := m.refresh(ctx, year, path); err != nil {
			return Feed{}, err
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return Feed{}, a4ferr.New("cvecheck.FeedMirror.Load", a4ferr.KindInternal, "opening local feed", err)
	}
	defer f.Close()

	var feed Feed
	if err := json.NewDecoder(f).Decode(&feed); err != nil {
		return Feed{}, a4ferr.New("cvecheck.FeedMirror.Load", a4ferr.KindCorruptInput, "malformed nvd feed json", err)
	}
	return feed, nil
}

func needsRefresh(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return true
	}
	return time.Since(info.ModTime()) > maxFeedAge
}

func (m *FeedMirror) refresh(ctx context.Context, year int, path string) error {
	url := fmt.Sprintf("%s/nvdcve-1.1-%d.json", m.BaseURL, year)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return a4ferr.New("cvecheck.FeedMirror.refresh", a4ferr.KindNetwork, url, err)
	}
	resp, err := m.Client.Do(req)
	if err != nil {
		return a4ferr.New("cvecheck.FeedMirror.refresh", a4ferr.KindNetwork, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return a4ferr.New("cvecheck.FeedMirror.refresh", a4ferr.KindNetwork,
			fmt.Sprintf("unexpected status %s for %s", resp.Status, url), nil)
	}

	if err := os.MkdirAll(m.Dir, 0o755); err != nil {
		return a4ferr.New("cvecheck.FeedMirror.refresh", a4ferr.KindInternal, "creating feed dir", err)
	}
	tmp := path + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return a4ferr.New("cvecheck.FeedMirror.refresh", a4ferr.KindInternal, "creating temp feed file", err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(tmp)
		return a4ferr.New("cvecheck.FeedMirror.refresh", a4ferr.KindNetwork, "downloading feed body", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return a4ferr.New("cvecheck.FeedMirror.refresh", a4ferr.KindInternal, "closing temp feed file", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return a4ferr.New("cvecheck.FeedMirror.refresh", a4ferr.KindInternal, "installing refreshed feed", err)
	}
	return nil
}
