// Package upgrade checks GitHub for newer releases.
package upgrade

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pandeptwidyaop/sndctl/internal/version"
)

const (
	githubRepo = "pandeptwidyaop/sndctl"
	// LatestReleaseURL is the GitHub API endpoint for the newest release.
	LatestReleaseURL = "https://api.github.com/repos/" + githubRepo + "/releases/latest"
)

// GitHubRelease represents a GitHub release with its metadata.
type GitHubRelease struct {
	TagName string `json:"tag_name"`
	Name    string `json:"name"`
	HTMLURL string `json:"html_url"`
	Body    string `json:"body"`
}

// CheckLatestVersion fetches the latest release from url.
func CheckLatestVersion(ctx context.Context, url string) (*GitHubRelease, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to check for updates: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to check for updates: HTTP %d", resp.StatusCode)
	}

	var release GitHubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("failed to parse release info: %w", err)
	}

	return &release, nil
}

// NeedsUpgrade compares the running version with latest
func NeedsUpgrade(latest string) bool {
	current := strings.TrimPrefix(version.Version, "v")
	latest = strings.TrimPrefix(latest, "v")

	if latest == "" {
		return false
	}
	// Dev builds and builds with a commit suffix always offer the release.
	if strings.Contains(current, "-") || current == "dev" {
		return true
	}

	return current != latest
}
