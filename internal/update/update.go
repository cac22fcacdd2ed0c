// Package update checks GitHub for a newer nodegen release.
//
// Results are cached for a day under the user cache directory so repeated
// invocations do not hit the API.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pthm/nodegen/internal/logging"
)

const (
	defaultReleaseURL = "https://api.github.com/repos/pthm/nodegen/releases/latest"
	cacheTTL          = 24 * time.Hour
	cacheFile         = "update-check.json"
)

// Info contains update check results
type Info struct {
	LatestVersion   string    `json:"latest_version"`
	CurrentVersion  string    `json:"current_version"`
	ReleaseURL      string    `json:"release_url,omitempty"`
	CheckedAt       time.Time `json:"checked_at"`
	UpdateAvailable bool      `json:"update_available"`
}

// githubRelease represents the GitHub API response
type githubRelease struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// Checker queries the latest release. The zero value is not usable; call
// NewChecker.
type Checker struct {
	// ReleaseURL is the GitHub "latest release" endpoint.
	ReleaseURL string
	// CacheDir holds the cached result. Empty disables caching.
	CacheDir string
	// Client performs the request.
	Client *http.Client

	now func() time.Time
}

// NewChecker returns a Checker against the nodegen repository, caching under
// $XDG_CACHE_HOME/nodegen (or ~/.cache/nodegen).
func NewChecker() *Checker {
	dir, _ := cacheDir()
	return &Checker{
		ReleaseURL: defaultReleaseURL,
		CacheDir:   dir,
		Client:     &http.Client{Timeout: 5 * time.Second},
		now:        time.Now,
	}
}

// CheckWithCache compares current against the latest release, using the
// cached result when it is younger than a day.
func (c *Checker) CheckWithCache(ctx context.Context, current string) (*Info, error) {
	log := logging.FromContext(ctx)

	if info, err := c.loadCache(); err == nil && c.now().Sub(info.CheckedAt) < cacheTTL {
		log.Debug("using cached update check", "checked_at", info.CheckedAt)
		info.CurrentVersion = current
		info.UpdateAvailable = CompareVersions(current, info.LatestVersion) < 0
		return info, nil
	}

	info, err := c.check(ctx, current)
	if err != nil {
		return nil, err
	}
	if err := c.saveCache(info); err != nil {
		log.Debug("saving update check", "error", err)
	}
	return info, nil
}

// check fetches the latest release from GitHub
func (c *Checker) check(ctx context.Context, current string) (*Info, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ReleaseURL, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "nodegen/"+current)

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	var release githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, err
	}
	if release.TagName == "" {
		return nil, fmt.Errorf("release has no tag")
	}

	latest := strings.TrimPrefix(release.TagName, "v")
	return &Info{
		LatestVersion:   latest,
		CurrentVersion:  current,
		ReleaseURL:      release.HTMLURL,
		CheckedAt:       c.now(),
		UpdateAvailable: CompareVersions(current, latest) < 0,
	}, nil
}

// cacheDir returns the cache directory path
func cacheDir() (string, error) {
	// Use XDG_CACHE_HOME if set, otherwise ~/.cache
	cacheHome := os.Getenv("XDG_CACHE_HOME")
	if cacheHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		cacheHome = filepath.Join(home, ".cache")
	}
	return filepath.Join(cacheHome, "nodegen"), nil
}

func (c *Checker) loadCache() (*Info, error) {
	if c.CacheDir == "" {
		return nil, os.ErrNotExist
	}
	data, err := os.ReadFile(filepath.Join(c.CacheDir, cacheFile))
	if err != nil {
		return nil, err
	}

	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Checker) saveCache(info *Info) error {
	if c.CacheDir == "" {
		return nil
	}
	if err := os.MkdirAll(c.CacheDir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.CacheDir, cacheFile), data, 0o644)
}

// CompareVersions compares two semver strings.
// Returns -1 if a < b, 0 if a == b, 1 if a > b. "dev" sorts after every
// release; pre-release suffixes are ignored.
func CompareVersions(a, b string) int {
	a = strings.TrimPrefix(a, "v")
	b = strings.TrimPrefix(b, "v")

	switch {
	case a == b:
		return 0
	case a == "dev":
		return 1
	case b == "dev":
		return -1
	}

	partsA := strings.Split(a, ".")
	partsB := strings.Split(b, ".")

	for i := range max(len(partsA), len(partsB)) {
		numA, numB := versionPart(partsA, i), versionPart(partsB, i)
		if numA < numB {
			return -1
		}
		if numA > numB {
			return 1
		}
	}
	return 0
}

func versionPart(parts []string, i int) int {
	if i >= len(parts) {
		return 0
	}
	// "0-beta" -> 0
	n, _ := strconv.Atoi(strings.SplitN(parts[i], "-", 2)[0])
	return n
}
